package stats

import (
	"math"

	"github.com/bob-anderson-ok/stpimage/internal/obslog"
	"github.com/bob-anderson-ok/stpimage/matx"
	"github.com/bob-anderson-ok/stpimage/stperr"
)

// Seed carries a precomputed (mean, stddev, median) triple so a caller
// that already has whole-image statistics can skip EstimateRMS's first
// pass, grounded on sourcefind.h's estimate_rms(..., DataStats stats = ...).
type Seed struct {
	Mean, Stddev, Median float64
	Valid                bool
}

// RMSResult is the outcome of sigma-clip + RMS estimation.
type RMSResult struct {
	RMS       float64 // sigma, final clipped stddev
	BGLevel   float64 // mu, final clipped mean
	Iters     int     // iterations actually run before convergence
	MaskedOut int      // pixels excluded by the final mask
}

// EstimateRMS performs iterative sigma-clipping: initialise mu/sigma/med
// from the whole image (or from seed, if
// provided and valid), then for up to maxIters iterations compute a
// mask of pixels within numSigma*sigma of the median, recompute
// statistics over the masked pixels, and stop early once the mask
// stabilises. Fails with NumericError if every pixel is masked out.
func EstimateRMS(m *matx.Real, numSigma float64, maxIters int, medianMethod MedianMethod, seed *Seed) (*RMSResult, error) {
	if maxIters < 1 {
		return nil, stperr.New(stperr.InvalidConfig, "sigma_clip_iters must be >= 1")
	}

	data := append([]float64(nil), m.Data...)

	var mean, sigma, median float64
	if seed != nil && seed.Valid {
		mean, sigma, median = seed.Mean, seed.Stddev, seed.Median
	} else {
		var err error
		mean, sigma, err = MeanAndStddev(m)
		if err != nil {
			return nil, err
		}
		median = Median(data, medianMethod)
	}

	active := data
	prevCount := len(active)

	iter := 0
	for ; iter < maxIters; iter++ {
		if sigma == 0 {
			break
		}
		lower := median - numSigma*sigma
		upper := median + numSigma*sigma

		masked := active[:0:0]
		for _, v := range active {
			if v >= lower && v <= upper {
				masked = append(masked, v)
			}
		}

		if len(masked) == 0 {
			return nil, stperr.New(stperr.NumericError, "sigma-clip masked out every pixel")
		}

		obslog.Log.Debug().Int("iter", iter).Int("kept", len(masked)).Msg("sigma-clip iteration")

		if len(masked) == prevCount {
			active = masked
			iter++
			break
		}

		mean = 0
		for _, v := range masked {
			mean += v
		}
		mean /= float64(len(masked))

		var ss float64
		for _, v := range masked {
			d := v - mean
			ss += d * d
		}
		if len(masked) > 1 {
			sigma = math.Sqrt(ss / float64(len(masked)-1))
		} else {
			sigma = 0
		}
		median = Median(masked, medianMethod)

		prevCount = len(masked)
		active = masked
	}

	return &RMSResult{
		RMS:       sigma,
		BGLevel:   mean,
		Iters:     iter,
		MaskedOut: len(data) - len(active),
	}, nil
}
