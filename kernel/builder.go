package kernel

import (
	"math"

	"github.com/bob-anderson-ok/stpimage/matx"
	"github.com/bob-anderson-ok/stpimage/stperr"
)

// Build produces a (2*support+1) x (2*support+1) matrix sampling the
// separable 2D kernel fn at the given sub-pixel offset (offsetX,
// offsetY): for oversampling=1, samples the kernel directly; for
// oversampling>1, samples on a finer grid then subsamples to the
// requested sub-pixel cell. If normalise is true the result is divided
// by its sum.
//
// Grounded on BuildStarPsf, which fills a square matrix by evaluating a
// radius-based function at every (row, col) relative to a centre pixel.
func Build(fn Func, support int, offsetX, offsetY float64, oversampling int, normalise bool) (*matx.Real, error) {
	if support < 1 {
		return nil, stperr.New(stperr.InvalidConfig, "kernel support must be >= 1")
	}
	if oversampling < 1 {
		return nil, stperr.New(stperr.InvalidConfig, "oversampling must be >= 1")
	}

	size := 2*support + 1
	k := matx.NewReal(size)

	if oversampling == 1 {
		for i := 0; i < size; i++ {
			fy := fn(float64(i-support) - offsetY)
			for j := 0; j < size; j++ {
				fx := fn(float64(j-support) - offsetX)
				k.Set(i, j, fy*fx)
			}
		}
	} else {
		// Sample on a finer grid (oversampling points per pixel), then
		// subsample back to one value per output pixel, matching the
		// way the cache itself is built per sub-pixel offset cell.
		fine := size * oversampling
		fineVals := make([]float64, fine)
		centre := float64(support*oversampling) + float64(oversampling)/2.0
		for i := 0; i < fine; i++ {
			fineVals[i] = fn((float64(i) - centre) / float64(oversampling))
		}
		step := oversampling
		for i := 0; i < size; i++ {
			fy := fineVals[i*step+step/2]
			for j := 0; j < size; j++ {
				fx := fineVals[j*step+step/2]
				k.Set(i, j, fy*fx)
			}
		}
	}

	if normalise {
		sum := 0.0
		for _, v := range k.Data {
			sum += v
		}
		if sum != 0 {
			inv := 1.0 / sum
			for i := range k.Data {
				k.Data[i] *= inv
			}
		}
	}
	return k, nil
}

// Cache is a pre-generated oversampled kernel bank indexed by integer
// sub-pixel offsets in [-oversampling/2, +oversampling/2]^2.
type Cache struct {
	Support      int
	Oversampling int
	// kernels[offY+half][offX+half] is the cached kernel for that
	// integer sub-pixel offset cell.
	kernels [][]*matx.Real
	half    int
}

// Populate precomputes the cache for the given kernel function, support
// radius, and oversampling factor. Requires oversampling to be a
// positive odd integer.
func Populate(fn Func, support, oversampling int, normalise bool) (*Cache, error) {
	if oversampling < 1 || oversampling%2 == 0 {
		return nil, stperr.New(stperr.InvalidConfig, "oversampling must be a positive odd integer")
	}
	if support < 1 {
		return nil, stperr.New(stperr.InvalidConfig, "kernel support must be >= 1")
	}

	half := oversampling / 2
	dim := oversampling + 1
	c := &Cache{Support: support, Oversampling: oversampling, half: half}
	c.kernels = make([][]*matx.Real, dim)
	for oy := 0; oy < dim; oy++ {
		c.kernels[oy] = make([]*matx.Real, dim)
		offsetY := float64(oy-half) / float64(oversampling)
		for ox := 0; ox < dim; ox++ {
			offsetX := float64(ox-half) / float64(oversampling)
			k, err := Build(fn, support, offsetX, offsetY, 1, normalise)
			if err != nil {
				return nil, err
			}
			c.kernels[oy][ox] = k
		}
	}
	return c, nil
}

// Lookup returns the cached kernel for the given cache indices, as
// produced by OversampledOffset (already shifted into [0, oversampling]).
func (c *Cache) Lookup(ix, iy int) (*matx.Real, error) {
	if ix < 0 || ix >= len(c.kernels[0]) || iy < 0 || iy >= len(c.kernels) {
		return nil, stperr.New(stperr.InvalidInput, "kernel cache offset out of range")
	}
	return c.kernels[iy][ix], nil
}

// OversampledOffset computes round(uvFrac*oversampling) + oversampling/2,
// using round-half-away-from-zero tie-breaking (not banker's rounding).
func OversampledOffset(uvFrac float64, oversampling int) int {
	scaled := uvFrac * float64(oversampling)
	var rounded float64
	if scaled >= 0 {
		rounded = math.Floor(scaled + 0.5)
	} else {
		rounded = math.Ceil(scaled - 0.5)
	}
	return int(rounded) + oversampling/2
}
