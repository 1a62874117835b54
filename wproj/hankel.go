package wproj

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// dht builds the arrsize x arrsize Discrete Hankel Transform matrix used
// to convert a radial image-domain kernel slice into its Hankel-transformed
// counterpart, mirroring original_source's WideFieldImaging::dht (the DHT
// matrix is built transposed there for a faster dot product; gonum's
// mat.Dense lets us just transpose at apply time instead).
//
// Grounded on aw_projection.cpp's dht(); the dense linear-algebra
// bookkeeping is delegated to gonum.org/v1/gonum/mat, enrichment from the
// gonum suite the pack already depends on.
func dht(arrsize int) *mat.Dense {
	k := make([]float64, arrsize)
	rn := make([]float64, arrsize)
	kn := make([]float64, arrsize)

	kf := math.Pi / float64(arrsize)
	rn[0] = 0.5
	for i := 1; i < arrsize; i++ {
		idx := float64(i)
		k[i] = kf * idx
		rn[i] = idx + 0.5
		kn[i] = 2 * math.Pi / k[i]
	}
	rn[arrsize-1] = float64(arrsize - 1)

	d := mat.NewDense(arrsize, arrsize, nil)

	d.Set(0, 0, math.Pi*rn[0]*rn[0])
	prev := d.At(0, 0)
	for j := 1; j < arrsize; j++ {
		cur := math.Pi * rn[j] * rn[j]
		d.Set(j, 0, cur-prev)
		prev = cur
	}

	for i := 1; i < arrsize; i++ {
		knI, kI := kn[i], k[i]
		rnLast := rn[arrsize-1]
		d.Set(arrsize-1, i, knI*rnLast*besselJ1(kI*rnLast))
		for j := arrsize - 1; j > 0; j-- {
			rnJ := rn[j-1]
			v := knI * rnJ * besselJ1(kI*rnJ)
			d.Set(j-1, i, v)
			d.Set(j, i, d.At(j, i)-v)
		}
	}
	return d
}

// applyDHT performs the discrete Hankel transform of a complex radial
// profile (half-array-size points): DHT^T applied to the real and
// imaginary parts independently, since the DHT matrix itself is real.
func applyDHT(d *mat.Dense, radial []complex128) []complex128 {
	n := len(radial)
	re := make([]float64, n)
	im := make([]float64, n)
	for i, v := range radial {
		re[i] = real(v)
		im[i] = imag(v)
	}
	reVec := mat.NewVecDense(n, re)
	imVec := mat.NewVecDense(n, im)

	var reOut, imOut mat.VecDense
	reOut.MulVec(d.T(), reVec)
	imOut.MulVec(d.T(), imVec)

	out := make([]complex128, n)
	for i := 0; i < n; i++ {
		out[i] = complex(reOut.AtVec(i), imOut.AtVec(i))
	}
	return out
}

// InterpType selects the radial interpolation method used to map a
// Hankel-transformed radial profile back onto the 2D half-quadrant,
// per the interp_type configuration key.
type InterpType int

const (
	InterpLinear InterpType = iota
	InterpCubic
	InterpCosine
)

// interpRadial samples profile (assumed to be defined at integer radii
// 0, 1, 2, ...) at the fractional radius r using the requested method.
func interpRadial(profile []complex128, r float64, method InterpType) complex128 {
	n := len(profile)
	if n == 0 {
		return 0
	}
	if r <= 0 {
		return profile[0]
	}
	if r >= float64(n-1) {
		return profile[n-1]
	}
	i0 := int(r)
	frac := r - float64(i0)

	switch method {
	case InterpCosine:
		mu := (1 - cosApprox(frac)) / 2
		return profile[i0]*complex(1-mu, 0) + profile[i0+1]*complex(mu, 0)
	case InterpCubic:
		p0 := profile[clampIdx(i0-1, n)]
		p1 := profile[i0]
		p2 := profile[clampIdx(i0+1, n)]
		p3 := profile[clampIdx(i0+2, n)]
		return catmullRom(p0, p1, p2, p3, frac)
	default: // InterpLinear
		return profile[i0]*complex(1-frac, 0) + profile[i0+1]*complex(frac, 0)
	}
}

func clampIdx(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

func cosApprox(x float64) float64 {
	// cos(pi*x), kept as a tiny local wrapper so the interpolation
	// formula above reads the same as a textbook cosine interpolation
	// derivation.
	return math.Cos(math.Pi * x)
}

func catmullRom(p0, p1, p2, p3 complex128, t float64) complex128 {
	t2 := t * t
	t3 := t2 * t
	a0 := -0.5*p0 + 1.5*p1 - 1.5*p2 + 0.5*p3
	a1 := p0 - 2.5*p1 + 2.0*p2 - 0.5*p3
	a2 := -0.5*p0 + 0.5*p2
	a3 := p1
	return a0*complex(t3, 0) + a1*complex(t2, 0) + a2*complex(t, 0) + a3
}
