package wproj

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBesselJ1AtKnownPoints(t *testing.T) {
	// J1(0) = 0; J1(1) ~= 0.4401
	require.InDelta(t, 0.0, besselJ1(0.0001), 1e-3)
	require.InDelta(t, 0.44005, besselJ1(1.0), 1e-3)
	require.InDelta(t, 0.04347, besselJ1(10.0), 1e-3)
}

func TestDHTMatrixShape(t *testing.T) {
	d := dht(8)
	require.Equal(t, 8, d.RawMatrix().Rows)
	require.Equal(t, 8, d.RawMatrix().Cols)
}

func TestInterpRadialLinear(t *testing.T) {
	profile := []complex128{0, 1, 2, 3, 4}
	v := interpRadial(profile, 1.5, InterpLinear)
	require.InDelta(t, 1.5, real(v), 1e-9)
}

func TestInterpRadialBoundary(t *testing.T) {
	profile := []complex128{0, 1, 2}
	require.Equal(t, complex(0, 0), interpRadial(profile, -1, InterpLinear))
	require.Equal(t, complex(2, 0), interpRadial(profile, 10, InterpLinear))
}

func TestGenerateDirectRejectsOddArraySize(t *testing.T) {
	p := Params{KernelSize: 3, Oversampling: 1, CellSize: 0.01, ScalingFactor: 1, MaxWPConvSupport: 3, TruncPercent: 1}
	_, err := GenerateDirect(p, 100, func(r float64) float64 { return math.Exp(-r * r) })
	require.Error(t, err)
}

func TestGenerateRejectsAProjectionWithHankel(t *testing.T) {
	p := Params{
		KernelSize: 4, Oversampling: 2, CellSize: 0.01, ScalingFactor: 1,
		MaxWPConvSupport: 3, TruncPercent: 1, HankelOpt: true, AProjection: true,
		PrimaryBeam: make([]float64, 64),
	}
	_, _, err := Generate(p, 50, func(r float64) float64 { return math.Exp(-r * r) })
	require.Error(t, err)
}

func TestGenerateDirectProducesSymmetricKernel(t *testing.T) {
	p := Params{KernelSize: 4, Oversampling: 2, CellSize: 0.005, ScalingFactor: 1, MaxWPConvSupport: 4, TruncPercent: 1}
	k, err := GenerateDirect(p, 0, func(r float64) float64 { return math.Exp(-r * r / 8) })
	require.NoError(t, err)
	require.Equal(t, 8, k.ArraySize)
	for r := 0; r < k.ArraySize; r++ {
		for c := 0; c < k.ArraySize; c++ {
			require.InDelta(t, real(k.Data.At(r, c)), real(k.Data.At(c, r)), 1e-9)
			require.InDelta(t, imag(k.Data.At(r, c)), imag(k.Data.At(c, r)), 1e-9)
		}
	}
}

func TestForceEstimateFFTForSmallArray(t *testing.T) {
	p := Params{KernelSize: 1, Oversampling: 2, CellSize: 0.01, ScalingFactor: 1, MaxWPConvSupport: 1, TruncPercent: 1}
	_, force, err := Generate(p, 0, func(r float64) float64 { return 1 })
	require.NoError(t, err)
	require.True(t, force)
}
