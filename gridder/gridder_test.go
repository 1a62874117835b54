package gridder_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bob-anderson-ok/stpimage/gridder"
	"github.com/bob-anderson-ok/stpimage/kernel"
)

// TestSinglePixelOverlapPillbox mirrors original_source's
// gridder_test_SinglePixelOverlapPillbox.cpp: a single visibility whose
// pillbox kernel overlaps exactly one grid pixel.
func TestSinglePixelOverlapPillbox(t *testing.T) {
	samples, err := gridder.BuildSamples([]float64{-2}, []float64{0}, []complex128{42.123}, nil)
	require.NoError(t, err)

	p := gridder.Params{
		KernelFn:  kernel.TopHat(0.5),
		Support:   1,
		N:         8,
		Exact:     true,
		Normalise: true,
	}
	res, err := gridder.ConvolveToGrid(p, samples)
	require.NoError(t, err)

	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			v := res.Grid.At(row, col)
			s := res.Sampling.At(row, col)
			if row == 4 && col == 2 {
				require.InDelta(t, 42.123, real(v), 1e-9)
				require.InDelta(t, 1.0, s, 1e-9)
			} else {
				require.InDelta(t, 0.0, real(v), 1e-9)
				require.InDelta(t, 0.0, s, 1e-9)
			}
		}
	}
}

func TestConvolveToGridRejectsBadSupport(t *testing.T) {
	_, err := gridder.ConvolveToGrid(gridder.Params{Support: 0, N: 8}, nil)
	require.Error(t, err)
}

func TestConvolveToGridRejectsCachedModeWithoutCache(t *testing.T) {
	_, err := gridder.ConvolveToGrid(gridder.Params{Support: 1, N: 8, Exact: false}, nil)
	require.Error(t, err)
}

func TestBuildSamplesRejectsMismatchedLengths(t *testing.T) {
	_, err := gridder.BuildSamples([]float64{1, 2}, []float64{1}, []complex128{1, 2}, nil)
	require.Error(t, err)
}

// TestOutOfBoundsSampleIsSkipped verifies the griddability bounds check:
// a sample whose kernel footprint does not fit inside [0,N)x[0,N)
// contributes nothing (in non-W-projection mode).
func TestOutOfBoundsSampleIsSkipped(t *testing.T) {
	samples, err := gridder.BuildSamples([]float64{100}, []float64{100}, []complex128{1}, nil)
	require.NoError(t, err)

	p := gridder.Params{KernelFn: kernel.TopHat(0.5), Support: 1, N: 8, Exact: true, Normalise: true}
	res, err := gridder.ConvolveToGrid(p, samples)
	require.NoError(t, err)
	for _, v := range res.Grid.Data {
		require.Equal(t, complex128(0), v)
	}
}

// TestSumPreservation checks the §8 invariant: sum of real part of
// vis-grid approximately equals sum of real part of input vis, for a
// single well-inside sample with a normalised kernel.
func TestSumPreservation(t *testing.T) {
	samples, err := gridder.BuildSamples([]float64{0.3}, []float64{-0.2}, []complex128{7}, nil)
	require.NoError(t, err)

	p := gridder.Params{KernelFn: kernel.Triangle(2, 1), Support: 2, N: 16, Exact: true, Normalise: true}
	res, err := gridder.ConvolveToGrid(p, samples)
	require.NoError(t, err)

	sum := 0.0
	for _, v := range res.Grid.Data {
		sum += real(v)
	}
	require.InDelta(t, 7.0, sum, 1e-6)
}

func TestHalfplaneReflectionDoublesSymmetricCoverage(t *testing.T) {
	x := []float64{1.0, -1.0}
	y := []float64{0.5, -0.5}
	vis := []complex128{complex(2, 1), complex(2, -1)}
	samples, err := gridder.BuildSamples(x, y, vis, nil)
	require.NoError(t, err)

	p := gridder.Params{KernelFn: kernel.TopHat(0.5), Support: 1, N: 16, Exact: true, Normalise: true, Halfplane: true}
	res, err := gridder.ConvolveToGrid(p, samples)
	require.NoError(t, err)
	require.NotNil(t, res)
}
