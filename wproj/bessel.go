package wproj

import "math"

// besselJ1 evaluates the order-1 Bessel function of the first kind via
// the standard two-branch rational/asymptotic polynomial approximation
// (Numerical Recipes style), exactly as original_source's
// src/stp/gridder/aw_projection.cpp::besselj1 does. No pack library
// exposes Bessel functions and neither does the Go standard library, so
// this one routine is necessarily a direct hand-port rather than a
// reach for a third-party dependency.
func besselJ1(x float64) float64 {
	if x < 8.0 {
		xx := x * x
		tmp1 := x * (72362614232.0 + xx*(-7895059235.0+xx*(242396853.1+xx*(-2972611.439+xx*(15704.48260+xx*(-30.16036606))))))
		tmp2 := 144725228442.0 + xx*(2300535178.0+xx*(18583304.74+xx*(99447.43394+xx*(376.9991397+xx))))
		return tmp1 / tmp2
	}
	z := 8.0 / x
	xx := z * z
	y := x - 2.356194491
	tmp1 := 1.0 + xx*(0.183105e-2+xx*(-0.3516396496e-4+xx*(0.2457520174e-5+xx*(-0.240337019e-6))))
	tmp2 := 0.04687499995 + xx*(-0.2002690873e-3+xx*(0.8449199096e-5+xx*(-0.88228987e-6+xx*0.105787412e-6)))
	return math.Sqrt(0.636619772/x) * (math.Cos(y)*tmp1 - z*math.Sin(y)*tmp2)
}
