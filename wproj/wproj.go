// Package wproj implements the W-projection / A-projection kernel
// generator: per-w-plane convolution kernels built either directly (2D
// FFT of an image-domain combined kernel) or via a radial Discrete
// Hankel Transform shortcut, optionally combined with a primary-beam
// image for A-projection.
//
// Grounded on original_source/src/stp/gridder/aw_projection.cpp
// (WideFieldImaging); the 2D FFT itself is shared with fftstage via
// internal/fft2d.
package wproj

import (
	"math"
	"math/cmplx"

	"github.com/bob-anderson-ok/stpimage/internal/fft2d"
	"github.com/bob-anderson-ok/stpimage/matx"
	"github.com/bob-anderson-ok/stpimage/stperr"
)

// Params configures the W/A-projection kernel generator, matching the
// relevant subset of the configuration table.
type Params struct {
	KernelSize       int // kernel_support-derived box width before oversampling
	Oversampling     int
	CellSize         float64 // scaled radians per pixel
	ScalingFactor    float64
	MaxWPConvSupport int
	TruncPercent     float64 // kernel_trunc_perc, in [0, 100)
	HankelOpt        bool
	Interp           InterpType
	AProjection      bool
	PrimaryBeam      []float64 // image-domain primary beam, row-major array_size^2 (nil if !AProjection)
}

// WKernel is a single per-w-plane generated kernel, in the image domain
// prior to the gridder's own truncation to a (2*support+1)^2 box.
type WKernel struct {
	W              float64
	ArraySize      int
	Data           *matx.Complex
	RealisedSupport int // support actually required to reach TruncPercent, in oversampled pixel units
}

// Patch extracts a (2*support+1) x (2*support+1) complex kernel block
// from wk.Data at the given sub-pixel fractional offset, for direct use
// as a gridder.Params.ComplexKernel so the gridder applies the actual
// per-w-plane w-correction instead of the bare anti-aliasing taper.
// fracX, fracY are in [-0.5, 0.5) pixel units, the same sub-pixel
// convention kernel.Build's offsetX/offsetY use. wk.Data is sampled at
// wk's oversampling points per pixel and stored wrapped/zero-centred
// (index 0 = kernel centre, index ArraySize-i = offset -i), the
// convention fft2d.Transform leaves it in since no explicit shift is
// applied around the FFT call in GenerateDirect, and the layout
// GenerateHankel's mirrored fill writes.
func (wk *WKernel) Patch(support, oversampling int, fracX, fracY float64) *matx.Complex {
	width := 2*support + 1
	out := matx.NewComplex(width)
	for row := 0; row < width; row++ {
		dy := float64(row-support) - fracY
		iy := wrapIndex(int(math.Round(dy*float64(oversampling))), wk.ArraySize)
		for col := 0; col < width; col++ {
			dx := float64(col-support) - fracX
			ix := wrapIndex(int(math.Round(dx*float64(oversampling))), wk.ArraySize)
			out.Set(row, col, wk.Data.At(iy, ix))
		}
	}
	return out
}

// wrapIndex maps i into [0, n) by modular wraparound, matching the
// FFT's natural wrapped-index storage (negative offsets stored at n-i).
func wrapIndex(i, n int) int {
	i %= n
	if i < 0 {
		i += n
	}
	return i
}

// aaKernelImg is the 1D radial image-domain anti-aliasing kernel used to
// build the separable combined kernel A(x)*A(y). Sampled from the same
// kernel.Func the gridder uses.
type aaKernelImg struct {
	values []float64 // values[i] = A(i), i = 0..halfSize
}

func sampleAAKernel(fn func(float64) float64, halfSize int) aaKernelImg {
	v := make([]float64, halfSize+1)
	for i := 0; i <= halfSize; i++ {
		v[i] = fn(float64(i))
	}
	return aaKernelImg{values: v}
}

func (a aaKernelImg) at(i int) float64 {
	if i < 0 {
		i = -i
	}
	if i >= len(a.values) {
		return 0
	}
	return a.values[i]
}

// combine2D evaluates the combined image-domain kernel value at grid
// offsets (x, y) from the array centre:
//
//	K_img(x,y) = A(x)A(y) * exp(-2pi*i*w*(n-1))/n   if x^2+y^2 < 1
//	           = A(x)A(y)                           otherwise
//
// with n(x,y) = sqrt(1 - x^2 - y^2), distances scaled to the unit disc
// by scaledCellSize.
func combine2D(aa aaKernelImg, i, j int, w, scaledCellSize float64, halfKernelSize int) complex128 {
	av := aa.at(i) * aa.at(j)
	x := float64(i) * scaledCellSize
	y := float64(j) * scaledCellSize
	r2 := x*x + y*y
	if r2 >= 1.0 {
		return complex(av, 0)
	}
	n := math.Sqrt(1 - r2)
	phase := -2 * math.Pi * w * (n - 1)
	return complex(av, 0) * cmplx.Exp(complex(0, phase)) / complex(n, 0)
}

// buildCombinedKernel fills the full array_size^2 image-domain combined
// kernel by symmetry, mirroring aw_projection.cpp's
// generate_image_domain_convolution_kernel 4-fold "lines/points/squares"
// construction.
func buildCombinedKernel(aa aaKernelImg, w, scaledCellSize float64, kernelSize, arraySize int) *matx.Complex {
	out := matx.NewComplex(arraySize)
	half := kernelSize / 2

	out.Set(0, 0, complex(aa.at(half)*aa.at(half), 0))

	for i := 1; i < half; i++ {
		v := combine2D(aa, i, 0, w, scaledCellSize, half)
		out.Set(i, 0, v)
		out.Set(arraySize-i, 0, v)
		out.Set(0, i, v)
		out.Set(0, arraySize-i, v)
	}

	for j := 1; j < half; j++ {
		for i := 1; i < half; i++ {
			v := combine2D(aa, i, j, w, scaledCellSize, half)
			out.Set(i, j, v)
			out.Set(arraySize-i, j, v)
			out.Set(i, arraySize-j, v)
			out.Set(arraySize-i, arraySize-j, v)
		}
	}
	return out
}

func applyPrimaryBeam(k *matx.Complex, beam []float64) {
	for i := range k.Data {
		k.Data[i] *= complex(beam[i], 0)
	}
}

// measureSupport truncates the w-kernel support at the radius where
// |K|/|K_max| first exceeds truncPercent/100, stepping in units of
// oversampling along the first column.
func measureSupport(data *matx.Complex, oversampling int, truncPercent float64) int {
	n := data.N
	maxAbs := 0.0
	for _, v := range data.Data {
		a := cmplx.Abs(v)
		if a > maxAbs {
			maxAbs = a
		}
	}
	if maxAbs == 0 {
		return 0
	}
	threshold := truncPercent / 100.0
	support := n / 2
	for r := oversampling; r < n/2; r += oversampling {
		if cmplx.Abs(data.At(r, 0))/maxAbs > threshold {
			support = r
			break
		}
	}
	return support
}

// GenerateDirect builds a per-w-plane kernel using the direct (non-Hankel)
// mode: full 2D image-domain combined kernel, FFT, optional A-projection.
func GenerateDirect(p Params, w float64, aaFn func(float64) float64) (*WKernel, error) {
	arraySize := p.KernelSize * p.Oversampling
	if arraySize%2 != 0 {
		return nil, stperr.New(stperr.InvalidConfig, "array_size must be even")
	}
	if p.AProjection && p.HankelOpt {
		return nil, stperr.New(stperr.UnsupportedCombination, "A-projection cannot be combined with hankel_opt")
	}

	halfSize := p.KernelSize / 2
	aa := sampleAAKernel(aaFn, halfSize*p.Oversampling+1)
	scaledCellSize := p.CellSize * p.ScalingFactor

	combined := buildCombinedKernel(aa, w, scaledCellSize, p.KernelSize, arraySize)

	if p.AProjection {
		if len(p.PrimaryBeam) != arraySize*arraySize {
			return nil, stperr.New(stperr.InvalidInput, "primary beam size does not match array size")
		}
		applyPrimaryBeam(combined, p.PrimaryBeam)
	}

	fft2d.Transform(combined, true)

	support := measureSupport(combined, p.Oversampling, p.TruncPercent)
	if support > p.MaxWPConvSupport*p.Oversampling {
		support = p.MaxWPConvSupport * p.Oversampling
	}

	return &WKernel{W: w, ArraySize: arraySize, Data: combined, RealisedSupport: support}, nil
}

// GenerateHankel builds a per-w-plane kernel using the radial Hankel-
// transform shortcut: sample only the diagonal radius of the
// image-domain kernel, apply the DHT, then interpolate back onto the
// full 2D half-quadrant.
func GenerateHankel(p Params, w float64, aaFn func(float64) float64) (*WKernel, error) {
	arraySize := p.KernelSize * p.Oversampling
	if arraySize%2 != 0 {
		return nil, stperr.New(stperr.InvalidConfig, "array_size must be even")
	}
	if p.AProjection {
		return nil, stperr.New(stperr.UnsupportedCombination, "A-projection cannot be combined with hankel_opt")
	}

	halfSize := p.KernelSize / 2
	aa := sampleAAKernel(aaFn, halfSize*p.Oversampling+1)
	scaledCellSize := p.CellSize * p.ScalingFactor

	halfArr := arraySize / 2
	radial := make([]complex128, halfArr)
	for i := 0; i < halfArr; i++ {
		radial[i] = combine2D(aa, i, 0, w, scaledCellSize, halfSize)
	}

	d := dht(halfArr)
	transformed := applyDHT(d, radial)

	out := matx.NewComplex(arraySize)
	for j := 0; j < halfArr; j++ {
		for i := 0; i < halfArr; i++ {
			radius := math.Sqrt(float64(i*i + j*j))
			v := interpRadial(transformed, radius, p.Interp)
			out.Set(i, j, v)
			out.Set(wrapIndex(-i, arraySize), j, v)
			out.Set(i, wrapIndex(-j, arraySize), v)
			out.Set(wrapIndex(-i, arraySize), wrapIndex(-j, arraySize), v)
		}
	}

	support := measureSupport(out, p.Oversampling, p.TruncPercent)
	if support > p.MaxWPConvSupport*p.Oversampling {
		support = p.MaxWPConvSupport * p.Oversampling
	}

	return &WKernel{W: w, ArraySize: arraySize, Data: out, RealisedSupport: support}, nil
}

// Generate dispatches to GenerateDirect or GenerateHankel per p.HankelOpt,
// surfacing the "array_size < 4 falls back to the lowest-quality FFT
// plan" case as a caller-visible hint (ForceEstimateFFT).
func Generate(p Params, w float64, aaFn func(float64) float64) (kernelOut *WKernel, forceEstimateFFT bool, err error) {
	arraySize := p.KernelSize * p.Oversampling
	forceEstimateFFT = arraySize < 4

	if p.HankelOpt {
		k, err := GenerateHankel(p, w, aaFn)
		return k, forceEstimateFFT, err
	}
	k, err := GenerateDirect(p, w, aaFn)
	return k, forceEstimateFFT, err
}
