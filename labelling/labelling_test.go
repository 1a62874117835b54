package labelling_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bob-anderson-ok/stpimage/labelling"
	"github.com/bob-anderson-ok/stpimage/matx"
)

func grid5x5(vals [5][5]float64) *matx.Real {
	m := matx.NewReal(5)
	for row := 0; row < 5; row++ {
		for col := 0; col < 5; col++ {
			m.Set(row, col, vals[row][col])
		}
	}
	return m
}

func TestSingleIsolatedPositivePixel(t *testing.T) {
	m := grid5x5([5][5]float64{
		{0, 0, 0, 0, 0},
		{0, 0, 0, 0, 0},
		{0, 0, 9, 0, 0},
		{0, 0, 0, 0, 0},
		{0, 0, 0, 0, 0},
	})
	res := labelling.Find(m, labelling.Params{
		AnalysisThreshold:  5,
		DetectionThreshold: 5,
		Connectivity:       labelling.Connectivity8,
		ComputeBarycentre:  true,
		GenerateLabelMap:   true,
	})
	require.Len(t, res.Islands, 1)
	isl := res.Islands[0]
	require.Equal(t, 1, isl.Sign)
	require.Equal(t, 9.0, isl.ExtremumVal)
	require.Equal(t, 2, isl.ExtremumX)
	require.Equal(t, 2, isl.ExtremumY)
	require.Equal(t, 2.0, isl.XBar)
	require.Equal(t, 2.0, isl.YBar)
	require.Equal(t, 1, res.LabelMap.At(2, 2))
}

func TestTwoDiagonalPixelsMergeUnder8ConnNotUnder4Conn(t *testing.T) {
	m := grid5x5([5][5]float64{
		{0, 0, 0, 0, 0},
		{0, 9, 0, 0, 0},
		{0, 0, 9, 0, 0},
		{0, 0, 0, 0, 0},
		{0, 0, 0, 0, 0},
	})
	res8 := labelling.Find(m, labelling.Params{
		AnalysisThreshold:  5,
		DetectionThreshold: 5,
		Connectivity:       labelling.Connectivity8,
		GenerateLabelMap:   true,
	})
	require.Len(t, res8.Islands, 1)

	res4 := labelling.Find(m, labelling.Params{
		AnalysisThreshold:  5,
		DetectionThreshold: 5,
		Connectivity:       labelling.Connectivity4,
		GenerateLabelMap:   true,
	})
	require.Len(t, res4.Islands, 2)
}

func TestDetectionThresholdPrunesWeakIsland(t *testing.T) {
	m := grid5x5([5][5]float64{
		{0, 0, 0, 0, 0},
		{0, 0, 0, 0, 0},
		{0, 0, 6, 0, 0},
		{0, 0, 0, 0, 0},
		{0, 0, 0, 0, 0},
	})
	res := labelling.Find(m, labelling.Params{
		AnalysisThreshold:  5,
		DetectionThreshold: 10,
		GenerateLabelMap:   true,
	})
	require.Empty(t, res.Islands)
	require.Equal(t, 0, res.LabelMap.At(2, 2))
}

func TestNegativeSourcesOnlyFoundWhenRequested(t *testing.T) {
	m := grid5x5([5][5]float64{
		{0, 0, 0, 0, 0},
		{0, 0, 0, 0, 0},
		{0, 0, -9, 0, 0},
		{0, 0, 0, 0, 0},
		{0, 0, 0, 0, 0},
	})
	resOff := labelling.Find(m, labelling.Params{
		AnalysisThreshold:  5,
		DetectionThreshold: 5,
		FindNegative:       false,
		GenerateLabelMap:   true,
	})
	require.Empty(t, resOff.Islands)

	resOn := labelling.Find(m, labelling.Params{
		AnalysisThreshold:  5,
		DetectionThreshold: 5,
		FindNegative:       true,
		GenerateLabelMap:   true,
	})
	require.Len(t, resOn.Islands, 1)
	require.Equal(t, -1, resOn.Islands[0].Sign)
	require.Equal(t, -1, resOn.LabelMap.At(2, 2))
}

func TestBoundingBoxCoversWholeIsland(t *testing.T) {
	m := grid5x5([5][5]float64{
		{0, 0, 0, 0, 0},
		{0, 8, 9, 0, 0},
		{0, 7, 6, 0, 0},
		{0, 0, 0, 0, 0},
		{0, 0, 0, 0, 0},
	})
	res := labelling.Find(m, labelling.Params{
		AnalysisThreshold:  5,
		DetectionThreshold: 5,
		Connectivity:       labelling.Connectivity4,
		GenerateLabelMap:   true,
	})
	require.Len(t, res.Islands, 1)
	bb := res.Islands[0].BoundingBox
	require.Equal(t, labelling.BoundingBox{XMin: 1, XMax: 2, YMin: 1, YMax: 2}, bb)
	require.Equal(t, 9.0, res.Islands[0].ExtremumVal)
}

// TestRelabellingIdempotent checks contiguous-relabelling idempotence:
// labelling the already-pruned label map's nonzero mask again yields the
// same island count.
func TestRelabellingIdempotent(t *testing.T) {
	m := grid5x5([5][5]float64{
		{0, 0, 0, 0, 0},
		{0, 9, 0, 8, 0},
		{0, 0, 0, 0, 0},
		{0, 7, 0, 0, 0},
		{0, 0, 0, 0, 0},
	})
	p := labelling.Params{
		AnalysisThreshold:  5,
		DetectionThreshold: 5,
		Connectivity:       labelling.Connectivity8,
		GenerateLabelMap:   true,
	}
	res1 := labelling.Find(m, p)
	mask := matx.NewReal(5)
	for i, l := range res1.LabelMap.Data {
		if l != 0 {
			mask.Data[i] = 9
		}
	}
	res2 := labelling.Find(mask, p)
	require.Equal(t, len(res1.Islands), len(res2.Islands))
	require.Equal(t, res1.LabelMap.Data, res2.LabelMap.Data)
}
