package gridder

import "github.com/bob-anderson-ok/stpimage/stperr"

// BuildSamples assembles []Sample from parallel uvPixelsX/uvPixelsY
// columns, a vis array, and optional per-sample weights. Fails with
// InvalidInput if the array lengths disagree.
func BuildSamples(uvPixelsX, uvPixelsY []float64, vis []complex128, weights []float64) ([]Sample, error) {
	n := len(vis)
	if len(uvPixelsX) != n || len(uvPixelsY) != n {
		return nil, stperr.New(stperr.InvalidInput, "uv_pixels row count must match vis row count")
	}
	if weights != nil && len(weights) != n {
		return nil, stperr.New(stperr.InvalidInput, "weights length must match vis length")
	}

	out := make([]Sample, n)
	for i := 0; i < n; i++ {
		w := 1.0
		if weights != nil {
			w = weights[i]
		}
		out[i] = Sample{X: uvPixelsX[i], Y: uvPixelsY[i], Vis: vis[i], Weight: w}
	}
	return out, nil
}
