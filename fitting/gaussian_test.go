package fitting_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bob-anderson-ok/stpimage/fitting"
)

func syntheticIsland(p fitting.Params, half int) []fitting.Pixel {
	var pixels []fitting.Pixel
	cx, cy := int(p.X0), int(p.Y0)
	for y := cy - half; y <= cy+half; y++ {
		for x := cx - half; x <= cx+half; x++ {
			v := p.Amplitude * math.Exp(-(math.Pow(float64(x)-p.X0, 2)/(2*p.SigmaX*p.SigmaX) + math.Pow(float64(y)-p.Y0, 2)/(2*p.SigmaY*p.SigmaY)))
			pixels = append(pixels, fitting.Pixel{X: x, Y: y, Value: v})
		}
	}
	return pixels
}

func TestFitRecoversSymmetricGaussian(t *testing.T) {
	truth := fitting.Params{Amplitude: 10, X0: 5, Y0: 5, SigmaX: 2, SigmaY: 2, Theta: 0}
	pixels := syntheticIsland(truth, 6)

	initial := fitting.InitialGuess(10, 5, 5, 5, 5, len(pixels))
	res, err := fitting.Fit(pixels, initial, fitting.DiffAutomatic, fitting.SolverLineSearchBFGS)
	require.NoError(t, err)
	require.NotEmpty(t, res.Report)
	require.InDelta(t, truth.Amplitude, res.Params.Amplitude, 1.0)
	require.InDelta(t, truth.X0, res.Params.X0, 0.5)
	require.InDelta(t, truth.Y0, res.Params.Y0, 0.5)
}

func TestFitRejectsEmptyPixelSet(t *testing.T) {
	_, err := fitting.Fit(nil, fitting.Params{}, fitting.DiffAutomatic, fitting.SolverLineSearchBFGS)
	require.Error(t, err)
}

func TestInitialGuessSigmaFormula(t *testing.T) {
	p := fitting.InitialGuess(2*math.Pi, 0, 0, 0, 0, 1)
	// sqrt(|1/(2*pi*2*pi)|)*0.5 = 1/(4*pi)
	require.InDelta(t, 1/(4*math.Pi), p.SigmaX, 1e-9)
	require.InDelta(t, 1/(4*math.Pi), p.SigmaY, 1e-9)
	require.Equal(t, 0.0, p.Theta)
}

func TestFitReportAlwaysPopulated(t *testing.T) {
	truth := fitting.Params{Amplitude: 5, X0: 2, Y0: 2, SigmaX: 1, SigmaY: 1, Theta: 0}
	pixels := syntheticIsland(truth, 3)
	initial := fitting.InitialGuess(5, 2, 2, 2, 2, len(pixels))
	res, err := fitting.Fit(pixels, initial, fitting.DiffAnalytic, fitting.SolverLineSearchLBFGS)
	require.NoError(t, err)
	require.NotEmpty(t, res.Report)
}
