package imaging_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bob-anderson-ok/stpimage/internal/fixtures"
	"github.com/bob-anderson-ok/stpimage/labelling"
	"github.com/bob-anderson-ok/stpimage/stats"
)

// TestScenarioBasicSourceDetectionNoNoise checks that a single Gaussian
// of amplitude 10 on a noiseless background with RMS=1.0 yields exactly
// one island whose extremum and barycentre land within tolerance of the
// injected centre.
func TestScenarioBasicSourceDetectionNoNoise(t *testing.T) {
	m := fixtures.GaussianNoiseBackground(128, 0, 0, 1) // noiseless: sigma=0
	fixtures.AddGaussian(m, fixtures.PointSource{
		Amplitude: 10, X0: 48.24, Y0: 52.66, SigmaX: 2, SigmaY: 2,
	})

	res := labelling.Find(m, labelling.Params{
		AnalysisThreshold:  3.0, // analysis_n_sigma * rms(=1.0)
		DetectionThreshold: 4.0, // detection_n_sigma * rms(=1.0)
		Connectivity:       labelling.Connectivity8,
		ComputeBarycentre:  true,
		GenerateLabelMap:   true,
	})

	require.Len(t, res.Islands, 1)
	isl := res.Islands[0]
	require.InDelta(t, 48.24, float64(isl.ExtremumX), 0.5)
	require.InDelta(t, 52.66, float64(isl.ExtremumY), 0.5)
	require.InDelta(t, 48.24, isl.XBar, 0.1)
	require.InDelta(t, 52.66, isl.YBar, 0.1)
}

// TestScenarioDetectionThresholdGating checks that a faint second source
// below the detection threshold contributes no additional island;
// doubling its amplitude crosses the threshold and yields a second
// island.
func TestScenarioDetectionThresholdGating(t *testing.T) {
	build := func(faintAmplitude float64) *labelling.Result {
		m := fixtures.GaussianNoiseBackground(128, 0, 0, 1)
		fixtures.AddGaussian(m, fixtures.PointSource{
			Amplitude: 10, X0: 48.24, Y0: 52.66, SigmaX: 2, SigmaY: 2,
		})
		fixtures.AddGaussian(m, fixtures.PointSource{
			Amplitude: faintAmplitude, X0: 32, Y0: 64, SigmaX: 2, SigmaY: 2,
		})
		return labelling.Find(m, labelling.Params{
			AnalysisThreshold:  3.0,
			DetectionThreshold: 4.0,
			Connectivity:       labelling.Connectivity8,
			ComputeBarycentre:  true,
			GenerateLabelMap:   true,
		})
	}

	require.Len(t, build(3.5).Islands, 1)
	require.Len(t, build(7.0).Islands, 2)
}

// TestScenarioSigmaClipConvergence checks that a 1024x1024 standard-
// normal noise image converges to sigma in [0.99,1.01] within 5
// iterations.
func TestScenarioSigmaClipConvergence(t *testing.T) {
	m := fixtures.GaussianNoiseBackground(1024, 1.0, 0.0, 99)
	res, err := stats.EstimateRMS(m, 3.0, 5, stats.MedianNthElement, nil)
	require.NoError(t, err)
	require.GreaterOrEqual(t, res.RMS, 0.99)
	require.LessOrEqual(t, res.RMS, 1.01)
	require.LessOrEqual(t, res.Iters, 5)
}
