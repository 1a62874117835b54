package labelling

import "github.com/bob-anderson-ok/stpimage/matx"

// Params configures a full labelling + pruning pass over a background-
// subtracted image.
type Params struct {
	AnalysisThreshold  float64
	DetectionThreshold float64
	Connectivity       Connectivity
	FindNegative       bool
	ComputeBarycentre  bool
	GenerateLabelMap   bool
}

// Find runs connected-component labelling on both signs (positive always,
// negative if requested), prunes islands whose |peak| falls below the
// detection threshold, and optionally rewrites the label map to clear
// pruned pixels back to zero.
//
// Positive islands carry IDs 1..L_pos; negative islands carry IDs
// -1..-L_neg in the returned label map.
func Find(data *matx.Real, p Params) *Result {
	n := data.N

	posMap, posIslands := label(data, p.AnalysisThreshold, +1, p.Connectivity, p.ComputeBarycentre)
	posIslands = prune(posIslands, p.DetectionThreshold)

	var negMap *matx.Int
	var negIslands []Island
	if p.FindNegative {
		negMap, negIslands = label(data, p.AnalysisThreshold, -1, p.Connectivity, p.ComputeBarycentre)
		negIslands = prune(negIslands, p.DetectionThreshold)
	}

	islands := make([]Island, 0, len(posIslands)+len(negIslands))
	islands = append(islands, posIslands...)
	islands = append(islands, negIslands...)

	var finalMap *matx.Int
	if p.GenerateLabelMap {
		finalMap = matx.NewInt(n)

		keptPos := map[int]bool{}
		for _, isl := range posIslands {
			keptPos[isl.LabelID] = true
		}
		keptNeg := map[int]bool{}
		for _, isl := range negIslands {
			keptNeg[isl.LabelID] = true
		}

		for row := 0; row < n; row++ {
			for col := 0; col < n; col++ {
				if id := posMap.At(row, col); id != 0 && keptPos[id] {
					finalMap.Set(row, col, id)
				}
				if negMap != nil {
					if id := negMap.At(row, col); id != 0 && keptNeg[id] {
						finalMap.Set(row, col, -id)
					}
				}
			}
		}
	}

	return &Result{LabelMap: finalMap, Islands: islands}
}

// prune removes islands whose absolute peak falls below the detection
// threshold.
func prune(islands []Island, detectionThreshold float64) []Island {
	out := islands[:0:0]
	for _, isl := range islands {
		peak := isl.ExtremumVal
		if peak < 0 {
			peak = -peak
		}
		if peak >= detectionThreshold {
			out = append(out, isl)
		}
	}
	return out
}
