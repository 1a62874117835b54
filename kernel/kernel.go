// Package kernel implements the 1D anti-aliasing kernel functions and the
// 2D kernel builder / oversampled cache used by the gridder.
//
// Grounded on convolution.go (StarBrightness/BuildStarPsf: a radius-based
// pointwise evaluator sampled over a square pixel grid) and
// sincDiffraction.go's closed-form sinc-style radial functions.
package kernel

import (
	"math"

	"github.com/bob-anderson-ok/stpimage/stperr"
)

// Func evaluates a 1D anti-aliasing kernel at radius r (pixel units from
// the kernel centre). Implementations are pure, deterministic, and safe
// to call concurrently from multiple goroutines.
type Func func(r float64) float64

// TopHat returns 1 inside the half-width h, 0 outside.
func TopHat(h float64) Func {
	return func(r float64) float64 {
		if math.Abs(r) < h {
			return 1
		}
		return 0
	}
}

// Triangle returns v * max(0, 1-|r|/h).
func Triangle(h, v float64) Func {
	return func(r float64) float64 {
		a := 1 - math.Abs(r)/h
		if a <= 0 {
			return 0
		}
		return v * a
	}
}

func sinc(x float64) float64 {
	if x == 0 {
		return 1
	}
	return math.Sin(math.Pi*x) / (math.Pi * x)
}

// Sinc returns sinc(r/w) truncated to zero outside |r| <= trunc.
func Sinc(w, trunc float64) Func {
	return func(r float64) float64 {
		if math.Abs(r) > trunc {
			return 0
		}
		return sinc(r / w)
	}
}

// Gaussian returns exp(-(r/w)^2) truncated to zero outside |r| <= trunc.
func Gaussian(w, trunc float64) Func {
	return func(r float64) float64 {
		if math.Abs(r) > trunc {
			return 0
		}
		x := r / w
		return math.Exp(-x * x)
	}
}

// GaussianSinc returns the elementwise product of a Gaussian and a Sinc
// kernel, truncated to zero outside |r| <= trunc.
func GaussianSinc(wGauss, wSinc, trunc float64) Func {
	g := Gaussian(wGauss, trunc)
	s := Sinc(wSinc, trunc)
	return func(r float64) float64 {
		if math.Abs(r) > trunc {
			return 0
		}
		return g(r) * s(r)
	}
}

// pswfCoefficients are the rational-polynomial coefficients for the
// order-0 prolate spheroidal wave function approximation used by the
// classic synthesis-imaging gridding kernel (c = 6, alpha = 1). The
// approximation is valid for |eta| <= 1, where eta = r/trunc.
var pswfNum = [5]float64{8.203343e-2, -3.644705e-1, 6.278660e-1, -5.335581e-1, 2.312756e-1}
var pswfDen = [3]float64{1.0, 8.212018e-1, 2.078043e-1}

func pswfValue(eta float64) float64 {
	eta2 := eta * eta
	num := pswfNum[0] + eta2*(pswfNum[1]+eta2*(pswfNum[2]+eta2*(pswfNum[3]+eta2*pswfNum[4])))
	den := pswfDen[0] + eta2*(pswfDen[1]+eta2*pswfDen[2])
	return num / den
}

// PSWF returns the prolate spheroidal wave function approximation,
// truncated at radius trunc. trunc must be > 0.
func PSWF(trunc float64) (Func, error) {
	if trunc <= 0 {
		return nil, stperr.New(stperr.InvalidInput, "PSWF truncation radius must be > 0")
	}
	return func(r float64) float64 {
		eta := r / trunc
		if math.Abs(eta) > 1 {
			return 0
		}
		return pswfValue(eta) * (1 - eta*eta)
	}, nil
}
