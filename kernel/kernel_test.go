package kernel_test

import (
	"math"
	"testing"

	"github.com/bob-anderson-ok/stpimage/kernel"
	"github.com/stretchr/testify/require"
)

func TestTopHat(t *testing.T) {
	fn := kernel.TopHat(0.5)
	require.Equal(t, 1.0, fn(0))
	require.Equal(t, 1.0, fn(0.49))
	require.Equal(t, 0.0, fn(0.5))
	require.Equal(t, 0.0, fn(1.0))
}

func TestTriangle(t *testing.T) {
	fn := kernel.Triangle(2.0, 1.0)
	require.InDelta(t, 1.0, fn(0), 1e-12)
	require.InDelta(t, 0.5, fn(1.0), 1e-12)
	require.Equal(t, 0.0, fn(2.0))
	require.Equal(t, 0.0, fn(3.0))
}

func TestSincZero(t *testing.T) {
	fn := kernel.Sinc(1.0, 5.0)
	require.Equal(t, 1.0, fn(0))
}

func TestGaussianSinc(t *testing.T) {
	fn := kernel.GaussianSinc(2.0, 2.0, 5.0)
	require.InDelta(t, 1.0, fn(0), 1e-12)
	require.Equal(t, 0.0, fn(10.0))
}

func TestPSWFInvalidTruncation(t *testing.T) {
	_, err := kernel.PSWF(0)
	require.Error(t, err)
	_, err = kernel.PSWF(-1)
	require.Error(t, err)
}

func TestBuildNormalisedSumsToOne(t *testing.T) {
	fn := kernel.Triangle(2.0, 1.0)
	k, err := kernel.Build(fn, 2, 0, 0, 1, true)
	require.NoError(t, err)
	sum := 0.0
	for _, v := range k.Data {
		sum += v
	}
	require.InDelta(t, 1.0, sum, 1e-9)
}

func TestOversampledOffsetRoundHalfAwayFromZero(t *testing.T) {
	// oversampling=5: half = 2
	require.Equal(t, 2, kernel.OversampledOffset(0.0, 5))
	require.Equal(t, 4, kernel.OversampledOffset(0.4, 5)) // 0.4*5=2.0 -> +2 = 4
	// -0.3*5=-1.5 is a tie: rounds away from zero to -2 -> +2 = 0
	require.Equal(t, 0, kernel.OversampledOffset(-0.3, 5))
	// tie at .5: round half away from zero
	require.Equal(t, 3, kernel.OversampledOffset(0.1, 5)) // 0.1*5=0.5 -> rounds to 1 -> +2=3
	require.Equal(t, 1, kernel.OversampledOffset(-0.1, 5))
}

func TestCacheEquivalenceToExactBuild(t *testing.T) {
	fn := kernel.Gaussian(2.0, 4.0)
	ovs := 5
	cache, err := kernel.Populate(fn, 3, ovs, true)
	require.NoError(t, err)

	for _, dy := range []float64{-0.4, -0.1, 0, 0.1, 0.4} {
		for _, dx := range []float64{-0.4, -0.1, 0, 0.1, 0.4} {
			exact, err := kernel.Build(fn, 3, dx, dy, 1, true)
			require.NoError(t, err)

			ix := kernel.OversampledOffset(dx, ovs)
			iy := kernel.OversampledOffset(dy, ovs)
			cached, err := cache.Lookup(ix, iy)
			require.NoError(t, err)

			for i := range exact.Data {
				require.InDelta(t, exact.Data[i], cached.Data[i], 1e-9)
			}
		}
	}
}

func TestPopulateRejectsEvenOversampling(t *testing.T) {
	_, err := kernel.Populate(kernel.TopHat(1), 2, 4, true)
	require.Error(t, err)
}

func TestPSWFTruncatesOutsideSupport(t *testing.T) {
	fn, err := kernel.PSWF(3.0)
	require.NoError(t, err)
	require.Equal(t, 0.0, fn(3.1))
	require.False(t, math.IsNaN(fn(0)))
}
