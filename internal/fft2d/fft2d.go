// Package fft2d provides the shared in-place row-then-column 2D complex
// FFT used by both the FFT imaging stage and the W-projection kernel
// generator, so the two packages exercise one transform implementation
// instead of each carrying its own copy.
//
// Grounded on convolution.go (fft2InPlace/ifftshift2D): the same
// gonum.org/v1/gonum/dsp/fourier row-then-column idiom, generalised
// from a [][]complex128 slice-of-slices grid to the column-major
// matx.Complex type the rest of this module shares.
package fft2d

import (
	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/bob-anderson-ok/stpimage/matx"
)

// Transform performs an in-place 2D complex FFT (forward=true) or
// inverse FFT (forward=false) on a square matx.Complex, transforming
// rows then columns.
func Transform(m *matx.Complex, forward bool) {
	n := m.N
	fft := fourier.NewCmplxFFT(n)

	row := make([]complex128, n)
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			row[c] = m.At(r, c)
		}
		if forward {
			fft.Coefficients(row, row)
		} else {
			fft.Sequence(row, row)
		}
		for c := 0; c < n; c++ {
			m.Set(r, c, row[c])
		}
	}

	col := make([]complex128, n)
	for c := 0; c < n; c++ {
		for r := 0; r < n; r++ {
			col[r] = m.At(r, c)
		}
		if forward {
			fft.Coefficients(col, col)
		} else {
			fft.Sequence(col, col)
		}
		for r := 0; r < n; r++ {
			m.Set(r, c, col[r])
		}
	}
}

// Shift performs an in-place fftshift/ifftshift (self-inverse for even
// n) on a square matx.Complex, swapping diagonal quadrants, following
// convolution.go's ifftshift2D quadrant-swap convention.
func Shift(m *matx.Complex) {
	n := m.N
	half := n / 2
	for r := 0; r < half; r++ {
		for c := 0; c < n; c++ {
			r2, c2 := (r+half)%n, (c+half)%n
			a, b := m.At(r, c), m.At(r2, c2)
			m.Set(r, c, b)
			m.Set(r2, c2, a)
		}
	}
}
