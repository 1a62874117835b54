// Package fixtures generates synthetic test images and visibility sets:
// Gaussian noise backgrounds, point sources, and model-on-grid
// evaluation, for use by the package test suites and benchmarks.
//
// Grounded on original_source/src/stp/fixtures/fixtures.h
// (uncorrelated_gaussian_noise_background, evaluate_model_on_pixel_grid)
// and testFuncs.go's deterministic-seed rng pattern
// (rand.New(rand.NewSource(seed)) rather than the global rand.Seed).
package fixtures

import (
	"math"
	"math/rand"

	"github.com/bob-anderson-ok/stpimage/matx"
)

// GaussianNoiseBackground returns an n x n matrix of uncorrelated
// Gaussian noise with the given mean and sigma, using a
// deterministically seeded generator.
func GaussianNoiseBackground(n int, sigma, mean float64, seed int64) *matx.Real {
	rng := rand.New(rand.NewSource(seed))
	m := matx.NewReal(n)
	for i := range m.Data {
		m.Data[i] = sigma*rng.NormFloat64() + mean
	}
	return m
}

// PointSource describes a single injected Gaussian source for a
// synthetic test image.
type PointSource struct {
	Amplitude      float64
	X0, Y0         float64
	SigmaX, SigmaY float64
	Theta          float64
}

// AddGaussian adds an elliptical 2D Gaussian model evaluated on m's
// integer pixel grid, following fixtures.h's evaluate_model_on_pixel_grid
// (here inlined against the already-allocated background rather than a
// fresh xgrid/ygrid pair, since the model only needs row/col indices).
func AddGaussian(m *matx.Real, src PointSource) {
	n := m.N
	sx2 := src.SigmaX * src.SigmaX
	sy2 := src.SigmaY * src.SigmaY
	cosT, sinT := math.Cos(src.Theta), math.Sin(src.Theta)
	a := cosT*cosT/(2*sx2) + sinT*sinT/(2*sy2)
	b := -math.Sin(2*src.Theta)/(4*sx2) + math.Sin(2*src.Theta)/(4*sy2)
	c := sinT*sinT/(2*sx2) + cosT*cosT/(2*sy2)

	for row := 0; row < n; row++ {
		for col := 0; col < n; col++ {
			dx, dy := float64(col)-src.X0, float64(row)-src.Y0
			v := src.Amplitude * math.Exp(-(a*dx*dx + 2*b*dx*dy + c*dy*dy))
			m.Add(row, col, v)
		}
	}
}

// PointVisibility is one synthetic visibility sample used to construct
// a deterministic gridder test set.
type PointVisibility struct {
	U, V, W float64
	Vis     complex128
	Weight  float64
}

// SinglePointSourceVisibilities returns a small deterministic set of
// visibilities corresponding to a point source of the given amplitude
// at the phase centre, useful for round-trip gridder/imaging tests.
func SinglePointSourceVisibilities(n int, amplitude float64) []PointVisibility {
	out := make([]PointVisibility, n)
	for i := range out {
		u := float64(i-n/2) * 0.01
		out[i] = PointVisibility{U: u, V: 0, W: 0, Vis: complex(amplitude, 0), Weight: 1}
	}
	return out
}
