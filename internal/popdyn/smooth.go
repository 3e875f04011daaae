package popdyn

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// gaussianKernel builds a normalized Gaussian truncated at 4 sigma.
func gaussianKernel(sigma float64) []float64 {
	radius := int(4*sigma + 0.5)
	k := make([]float64, 2*radius+1)
	for i := range k {
		d := float64(i - radius)
		k[i] = math.Exp(-d * d / (2 * sigma * sigma))
	}
	floats.Scale(1/floats.Sum(k), k)
	return k
}

// GaussianSmooth convolves x with a Gaussian of the given sigma (in
// samples), reflecting the signal at both ends so edges are not damped.
// A non-positive sigma returns a copy of x.
func GaussianSmooth(x []float64, sigma float64) []float64 {
	if sigma <= 0 || len(x) == 0 {
		return append([]float64(nil), x...)
	}
	k := gaussianKernel(sigma)
	radius := len(k) / 2

	out := make([]float64, len(x))
	n := len(x)
	for i := range x {
		var acc float64
		for j, w := range k {
			idx := i + j - radius
			// Reflect boundary: ...x[1], x[0] | x[0], x[1]...
			for idx < 0 || idx >= n {
				if idx < 0 {
					idx = -idx - 1
				}
				if idx >= n {
					idx = 2*n - idx - 1
				}
			}
			acc += w * x[idx]
		}
		out[i] = acc
	}
	return out
}
