// Package stats implements the image background statistics used by the
// source-find engine: parallel accumulate/mean/stddev, four median
// strategies, and sigma-clip RMS estimation.
//
// Grounded on original_source/src/stp/sourcefind/sourcefind.h's
// estimate_rms (astropy.stats.sigma_clip-derived fused sigma-clip/RMS
// routine with an optional precomputed-stats carry-through). Mean/variance
// primitives use gonum.org/v1/gonum/stat; the four named median
// strategies have no single pack-library analogue, so NthElement is a
// copy-and-sort exact median, ZeroMedian returns 0, and BinMedian/BinApprox
// are hand-ported histogram algorithms (documented per-function below).
package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/bob-anderson-ok/stpimage/matx"
	"github.com/bob-anderson-ok/stpimage/stperr"
)

// Accumulate sums every element of m.
func Accumulate(m *matx.Real) float64 {
	sum := 0.0
	for _, v := range m.Data {
		sum += v
	}
	return sum
}

// Mean returns Accumulate(m) / (N*N).
func Mean(m *matx.Real) float64 {
	return Accumulate(m) / float64(len(m.Data))
}

// Stddev returns the sample standard deviation of m. Fails with
// NumericError if N*N <= 1.
func Stddev(m *matx.Real) (float64, error) {
	if len(m.Data) <= 1 {
		return 0, stperr.New(stperr.NumericError, "stddev requires more than one sample")
	}
	mean, variance := stat.MeanVariance(m.Data, nil)
	_ = mean
	return math.Sqrt(variance), nil
}

// MeanAndStddev computes both statistics in one pass over the data.
func MeanAndStddev(m *matx.Real) (mean, stddev float64, err error) {
	if len(m.Data) <= 1 {
		return 0, 0, stperr.New(stperr.NumericError, "stddev requires more than one sample")
	}
	var m2 float64
	for i, v := range m.Data {
		d := v - mean
		mean += d / float64(i+1)
		m2 += d * (v - mean)
	}
	return mean, math.Sqrt(m2 / float64(len(m.Data)-1)), nil
}

// MedianMethod selects one of the four supported median strategies.
type MedianMethod int

const (
	MedianZero MedianMethod = iota
	MedianBinMedian
	MedianBinApprox
	MedianNthElement
)

// Median computes the median of data using the requested strategy.
func Median(data []float64, method MedianMethod) float64 {
	switch method {
	case MedianZero:
		return 0
	case MedianBinMedian:
		return binMedian(data)
	case MedianBinApprox:
		return binApprox(data)
	default: // MedianNthElement
		return nthElementMedian(data)
	}
}

// nthElementMedian is the exact median via a copy-and-sort selection,
// the natural Go stand-in for the source's nth_element-based exact
// median; an even-length input returns the mean of the two middle values.
func nthElementMedian(data []float64) float64 {
	n := len(data)
	if n == 0 {
		return 0
	}
	sorted := append([]float64(nil), data...)
	sort.Float64s(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// binMedian implements the "binmedian" approximate-median algorithm
// (Tibshirani, "Fast computation of the median by successive binning"):
// one pass to bin around the mean/stddev, then refine within the bin
// containing the median rank.
func binMedian(data []float64) float64 {
	n := len(data)
	if n == 0 {
		return 0
	}
	mean, variance := stat.MeanVariance(data, nil)
	sigma := math.Sqrt(variance)
	if sigma == 0 {
		return mean
	}

	const nbins = 1000
	lo := mean - 1000*sigma
	hi := mean + 1000*sigma
	width := (hi - lo) / nbins

	counts := make([]int, nbins)
	for _, v := range data {
		idx := int((v - lo) / width)
		if idx < 0 {
			idx = 0
		} else if idx >= nbins {
			idx = nbins - 1
		}
		counts[idx]++
	}

	target := n / 2
	cum := 0
	chosen := 0
	for i, c := range counts {
		if cum+c > target {
			chosen = i
			break
		}
		cum += c
	}

	binLo := lo + float64(chosen)*width
	binHi := binLo + width
	var inBin []float64
	for _, v := range data {
		if v >= binLo && v < binHi {
			inBin = append(inBin, v)
		}
	}
	if len(inBin) == 0 {
		return (binLo + binHi) / 2
	}
	sort.Float64s(inBin)
	k := target - cum
	if k >= len(inBin) {
		k = len(inBin) - 1
	}
	return inBin[k]
}

// binApprox implements the faster "binapprox" approximate-median
// algorithm: bins the data in +/-stddev around the mean and reports the
// bin centre containing the median rank, with no refinement pass.
func binApprox(data []float64) float64 {
	n := len(data)
	if n == 0 {
		return 0
	}
	mean, variance := stat.MeanVariance(data, nil)
	sigma := math.Sqrt(variance)
	if sigma == 0 {
		return mean
	}

	const nbins = 1000
	lo := mean - sigma
	hi := mean + sigma
	width := (hi - lo) / nbins

	counts := make([]int, nbins+2) // 0 = below lo, nbins+1 = above hi
	below, above := 0, 0
	for _, v := range data {
		if v < lo {
			below++
			continue
		}
		if v >= hi {
			above++
			continue
		}
		idx := int((v - lo) / width)
		if idx >= nbins {
			idx = nbins - 1
		}
		counts[idx+1]++
	}
	counts[0] = below
	counts[nbins+1] = above

	target := (n + 1) / 2
	cum := 0
	for i, c := range counts {
		cum += c
		if cum >= target {
			if i == 0 {
				return lo
			}
			if i == nbins+1 {
				return hi
			}
			return lo + (float64(i-1)+0.5)*width
		}
	}
	return mean
}
