// Package labelling implements connected-component labelling of a source
// image at an analysis threshold: a two-pass union-find raster scan
// followed by contiguous relabelling and per-label accumulator
// extraction (peak, barycentre, bounding box), with pruning against a
// separate detection threshold.
//
// Grounded on original_source/src/stp/sourcefind/sourcefind.h's
// IslandParams and SourceFindImage::_label_detection_islands (the
// label-map/extrema/barycentre/bounding-box accumulator shape, ported
// from the filtered-out ccl.h's union-find). Pure Go: union-find over an
// integer label map has no natural home in the pack's third-party
// libraries.
package labelling

import (
	"github.com/bob-anderson-ok/stpimage/matx"
)

// Connectivity selects 4- or 8-connected neighbour inspection.
type Connectivity int

const (
	Connectivity4 Connectivity = iota
	Connectivity8
)

// BoundingBox is an inclusive pixel-index box (x_min..x_max, y_min..y_max).
type BoundingBox struct {
	XMin, XMax, YMin, YMax int
}

// Island is one connected component surviving detection-threshold pruning.
type Island struct {
	LabelID     int
	Sign        int // +1 or -1
	ExtremumVal float64
	ExtremumX   int
	ExtremumY   int
	XBar, YBar  float64
	BoundingBox BoundingBox
	PixelCount  int

	weightSum float64 // barycentre weight accumulator, not exported
}

// Result is the full labelling outcome: the (possibly pruned) label map
// and the retained islands.
type Result struct {
	LabelMap *matx.Int
	Islands  []Island
}

// unionFind is a simple array-backed disjoint-set over label ids
// allocated during pass 1, contracted before pass 2's raster rewrite.
type unionFind struct {
	parent []int
}

func newUnionFind() *unionFind {
	return &unionFind{parent: []int{0}} // index 0 unused, labels start at 1
}

func (u *unionFind) newLabel() int {
	id := len(u.parent)
	u.parent = append(u.parent, id)
	return id
}

func (u *unionFind) find(x int) int {
	for u.parent[x] != x {
		u.parent[x] = u.parent[u.parent[x]]
		x = u.parent[x]
	}
	return x
}

func (u *unionFind) union(a, b int) {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return
	}
	if ra < rb {
		u.parent[rb] = ra
	} else {
		u.parent[ra] = rb
	}
}

// Label runs two-pass connected-component labelling over data at the
// given analysis threshold, for one sign (+1 inspects data >= threshold,
// -1 inspects data <= -threshold). Returns a contiguous label map (with
// IDs 1..L for sign +1, or will be negated by the caller for sign -1)
// and per-label accumulators, computed from a raw pass-1 label grid plus
// pass-2 contiguous relabelling and accumulation.
func label(data *matx.Real, analysisThreshold float64, sign int, conn Connectivity, computeBarycentre bool) (*matx.Int, []Island) {
	n := data.N
	raw := matx.NewInt(n)
	uf := newUnionFind()

	passes := func(row, col int) bool {
		v := data.At(row, col)
		if sign > 0 {
			return v >= analysisThreshold
		}
		return v <= -analysisThreshold
	}

	// Pass 1: raster scan, inspecting already-visited neighbours N, W,
	// and NE/NW (8-connectivity only).
	for row := 0; row < n; row++ {
		for col := 0; col < n; col++ {
			if !passes(row, col) {
				continue
			}

			var neighbourLabels []int
			if row > 0 && passes(row-1, col) {
				neighbourLabels = append(neighbourLabels, raw.At(row-1, col))
			}
			if col > 0 && passes(row, col-1) {
				neighbourLabels = append(neighbourLabels, raw.At(row, col-1))
			}
			if conn == Connectivity8 {
				if row > 0 && col+1 < n && passes(row-1, col+1) {
					neighbourLabels = append(neighbourLabels, raw.At(row-1, col+1))
				}
				if row > 0 && col > 0 && passes(row-1, col-1) {
					neighbourLabels = append(neighbourLabels, raw.At(row-1, col-1))
				}
			}

			if len(neighbourLabels) == 0 {
				raw.Set(row, col, uf.newLabel())
				continue
			}

			minLabel := neighbourLabels[0]
			for _, l := range neighbourLabels[1:] {
				if l < minLabel {
					minLabel = l
				}
			}
			for _, l := range neighbourLabels {
				uf.union(l, minLabel)
			}
			raw.Set(row, col, minLabel)
		}
	}

	// Resolve every raw label to its union-find root, then assign
	// contiguous IDs in first-seen raster order (pass 2).
	rootToContig := map[int]int{}
	nextID := 1
	labelMap := matx.NewInt(n)
	islandsByID := map[int]*Island{}

	for row := 0; row < n; row++ {
		for col := 0; col < n; col++ {
			raw0 := raw.At(row, col)
			if raw0 == 0 {
				continue
			}
			root := uf.find(raw0)
			id, ok := rootToContig[root]
			if !ok {
				id = nextID
				nextID++
				rootToContig[root] = id
			}
			labelMap.Set(row, col, id)

			v := data.At(row, col)
			isl, ok := islandsByID[id]
			if !ok {
				isl = &Island{
					LabelID:     id,
					Sign:        sign,
					ExtremumVal: v,
					ExtremumX:   col,
					ExtremumY:   row,
					BoundingBox: BoundingBox{XMin: col, XMax: col, YMin: row, YMax: row},
				}
				islandsByID[id] = isl
			} else {
				if (sign > 0 && v > isl.ExtremumVal) || (sign < 0 && v < isl.ExtremumVal) {
					isl.ExtremumVal = v
					isl.ExtremumX = col
					isl.ExtremumY = row
				}
				if col < isl.BoundingBox.XMin {
					isl.BoundingBox.XMin = col
				}
				if col > isl.BoundingBox.XMax {
					isl.BoundingBox.XMax = col
				}
				if row < isl.BoundingBox.YMin {
					isl.BoundingBox.YMin = row
				}
				if row > isl.BoundingBox.YMax {
					isl.BoundingBox.YMax = row
				}
			}
			isl.PixelCount++
			if computeBarycentre {
				w := v
				if w < 0 {
					w = -w
				}
				isl.XBar += w * float64(col)
				isl.YBar += w * float64(row)
				isl.weightSum += w
			}
		}
	}

	islands := make([]Island, 0, len(islandsByID))
	for id := 1; id < nextID; id++ {
		isl := islandsByID[id]
		if isl == nil {
			continue
		}
		if computeBarycentre && isl.weightSum != 0 {
			isl.XBar /= isl.weightSum
			isl.YBar /= isl.weightSum
		}
		islands = append(islands, *isl)
	}

	return labelMap, islands
}
