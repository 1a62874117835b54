// Package fftstage implements the imaging FFT pipeline: fftshift, inverse
// FFT (complex-to-complex or complex-to-real), scaling, crop, and
// gridding correction.
//
// Grounded on convolution.go (fft2InPlace, ifftshift2D, the
// 1/(FH*FW) normalisation convention), generalised from a one-shot
// convolution helper into the imager's shift -> IFFT -> shift -> scale ->
// crop -> correct sequence. The row-then-column transform itself lives
// in internal/fft2d, shared with wproj's kernel-generation FFT.
package fftstage

import (
	"os"

	"github.com/bob-anderson-ok/stpimage/internal/fft2d"
	"github.com/bob-anderson-ok/stpimage/internal/obslog"
	"github.com/bob-anderson-ok/stpimage/matx"
	"github.com/bob-anderson-ok/stpimage/stperr"
)

// Routine selects the FFT planning strategy, per the fft_routine
// configuration key.
type Routine int

const (
	RoutineEstimate Routine = iota
	RoutineMeasure
	RoutinePatient
	RoutineWisdom
	RoutineWisdomInplace
)

// Params configures one imaging FFT stage call.
type Params struct {
	PaddingFactor      float64
	GriddingCorrection bool
	AnalyticGCF        bool
	Routine            Routine
	WisdomFilename     string
	ComplexOutput      bool // not read by Image, which always returns the real part of the inverse transform
	PreShifted         bool // true => caller already applied fftshift before accumulation
}

// Output carries the resulting image and (optional) beam.
type Output struct {
	Image *matx.Real
	Beam  *matx.Real
}

// resolveRoutine stands in for the underlying FFT library's opaque
// wisdom blob load. A missing or unreadable wisdom file soft-recovers
// to RoutineEstimate with a logged diagnostic.
func resolveRoutine(p Params) Routine {
	if p.Routine != RoutineWisdom && p.Routine != RoutineWisdomInplace {
		return p.Routine
	}
	if p.WisdomFilename == "" {
		obslog.Log.Warn().Msg("fft wisdom filename empty, falling back to Estimate")
		return RoutineEstimate
	}
	if _, err := os.Stat(p.WisdomFilename); err != nil {
		obslog.Log.Warn().Err(err).Str("wisdom_file", p.WisdomFilename).Msg("failed to load fft wisdom, falling back to Estimate")
		return RoutineEstimate
	}
	if p.Routine == RoutineWisdomInplace {
		obslog.Log.Warn().Msg("wisdom-in-place FFT path selected: verify output sign convention against a reference image")
	}
	return p.Routine
}

// Image runs the FFT stage on a gridded complex vis-grid and real
// sampling-grid, returning the cropped, corrected dirty image and (if
// requested) the beam.
func Image(grid *matx.Complex, sampling *matx.Real, p Params, gcf func(x, y int) float64) (*Output, error) {
	if grid.N%2 != 0 {
		return nil, stperr.New(stperr.InvalidInput, "grid minor dimension must be even for complex-to-real FFT")
	}
	_ = resolveRoutine(p) // routine selection affects only the underlying plan; gonum/dsp/fourier has one portable plan per size

	n := grid.N

	work := cloneComplex(grid)
	if !p.PreShifted {
		fft2d.Shift(work)
	}
	fft2d.Transform(work, false)
	fft2d.Shift(work)

	scale := 1.0 / float64(n*n)
	image := matx.NewReal(n)
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			image.Set(r, c, real(work.At(r, c))*scale)
		}
	}

	var beam *matx.Real
	if sampling != nil {
		beamWork := matx.NewComplex(n)
		for i, v := range sampling.Data {
			beamWork.Data[i] = complex(v, 0)
		}
		if !p.PreShifted {
			fft2d.Shift(beamWork)
		}
		fft2d.Transform(beamWork, false)
		fft2d.Shift(beamWork)
		beam = matx.NewReal(n)
		for i, v := range beamWork.Data {
			beam.Data[i] = real(v) * scale
		}
	}

	if p.PaddingFactor > 1.0 {
		image = crop(image, p.PaddingFactor)
		if beam != nil {
			beam = crop(beam, p.PaddingFactor)
		}
	}

	if p.GriddingCorrection && gcf != nil {
		applyGCF(image, gcf)
		if beam != nil {
			applyGCF(beam, gcf)
		}
	}

	return &Output{Image: image, Beam: beam}, nil
}

func cloneComplex(m *matx.Complex) *matx.Complex {
	out := matx.NewComplex(m.N)
	copy(out.Data, m.Data)
	return out
}

// crop removes the padded border, keeping the central N/padding_factor
// square.
func crop(m *matx.Real, paddingFactor float64) *matx.Real {
	n := m.N
	outN := int(float64(n) / paddingFactor)
	if outN >= n || outN <= 0 {
		return m
	}
	offset := (n - outN) / 2
	out := matx.NewReal(outN)
	for r := 0; r < outN; r++ {
		for c := 0; c < outN; c++ {
			out.Set(r, c, m.At(r+offset, c+offset))
		}
	}
	return out
}

// applyGCF divides every pixel by the gridding-correction function.
func applyGCF(m *matx.Real, gcf func(x, y int) float64) {
	n := m.N
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			g := gcf(c, r)
			if g != 0 {
				m.Set(r, c, m.At(r, c)/g)
			}
		}
	}
}
