package diagviz_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bob-anderson-ok/stpimage/internal/diagviz"
	"github.com/bob-anderson-ok/stpimage/labelling"
	"github.com/bob-anderson-ok/stpimage/matx"
)

func TestDirtyImagePlotBuildsWithoutIslands(t *testing.T) {
	img := matx.NewReal(16)
	for i := range img.Data {
		img.Data[i] = float64(i % 7)
	}
	p, err := diagviz.DirtyImagePlot("test image", img, nil)
	require.NoError(t, err)
	require.NotNil(t, p)
}

func TestDirtyImagePlotOverlaysIslands(t *testing.T) {
	img := matx.NewReal(16)
	islands := []labelling.Island{
		{LabelID: 1, Sign: 1, ExtremumX: 4, ExtremumY: 4, XBar: 4.2, YBar: 3.9},
	}
	p, err := diagviz.DirtyImagePlot("with islands", img, islands)
	require.NoError(t, err)
	require.NotNil(t, p)
}

func TestSaveWritesPNG(t *testing.T) {
	img := matx.NewReal(8)
	p, err := diagviz.DirtyImagePlot("save test", img, nil)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "out.png")
	err = diagviz.Save(p, 200, 200, path)
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Greater(t, info.Size(), int64(0))
}

func TestSaveRawPNGWritesPercentileStretchedImage(t *testing.T) {
	img := matx.NewReal(16)
	for i := range img.Data {
		img.Data[i] = float64(i)
	}

	path := filepath.Join(t.TempDir(), "raw.png")
	err := diagviz.SaveRawPNG(img, 1, 99, path)
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Greater(t, info.Size(), int64(0))
}

func TestSaveRawPNGRejectsBadPercentiles(t *testing.T) {
	img := matx.NewReal(4)
	err := diagviz.SaveRawPNG(img, 90, 10, filepath.Join(t.TempDir(), "bad.png"))
	require.Error(t, err)
}
