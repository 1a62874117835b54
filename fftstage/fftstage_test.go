package fftstage_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bob-anderson-ok/stpimage/fftstage"
	"github.com/bob-anderson-ok/stpimage/matx"
)

// TestRejectsOddGridSize checks that an odd grid size is rejected before
// any transform runs.
func TestRejectsOddGridSize(t *testing.T) {
	grid := matx.NewComplex(7)
	_, err := fftstage.Image(grid, nil, fftstage.Params{}, nil)
	require.Error(t, err)
}

func TestInverseFFTRoundTripsDelta(t *testing.T) {
	n := 8
	grid := matx.NewComplex(n)
	// A flat spectrum (all ones) inverse-transforms to a delta at the
	// phase centre once shifted back, scaled by 1/(N*N).
	for i := range grid.Data {
		grid.Data[i] = complex(1, 0)
	}
	out, err := fftstage.Image(grid, nil, fftstage.Params{}, nil)
	require.NoError(t, err)
	require.Equal(t, n, out.Image.N)

	total := 0.0
	for _, v := range out.Image.Data {
		total += v
	}
	require.InDelta(t, 1.0, total, 1e-9)
}

func TestCropReducesToUnpaddedSize(t *testing.T) {
	n := 16
	grid := matx.NewComplex(n)
	grid.Set(n/2, n/2, complex(float64(n*n), 0))
	out, err := fftstage.Image(grid, nil, fftstage.Params{PaddingFactor: 2.0}, nil)
	require.NoError(t, err)
	require.Equal(t, 8, out.Image.N)
}

func TestGriddingCorrectionDivides(t *testing.T) {
	n := 4
	grid := matx.NewComplex(n)
	// A flat spectrum gives a unit delta at the centre pixel; a constant
	// correction of 2 halves it.
	for i := range grid.Data {
		grid.Data[i] = complex(1, 0)
	}
	gcf := func(x, y int) float64 { return 2.0 }
	out, err := fftstage.Image(grid, nil, fftstage.Params{GriddingCorrection: true}, gcf)
	require.NoError(t, err)
	require.NotNil(t, out.Image)
	require.InDelta(t, 0.5, out.Image.At(n/2, n/2), 1e-9)
}

func TestBeamComputedWhenSamplingProvided(t *testing.T) {
	n := 8
	grid := matx.NewComplex(n)
	sampling := matx.NewReal(n)
	sampling.Set(n/2, n/2, 1)
	out, err := fftstage.Image(grid, sampling, fftstage.Params{}, nil)
	require.NoError(t, err)
	require.NotNil(t, out.Beam)
	require.False(t, math.IsNaN(out.Beam.At(0, 0)))
}
