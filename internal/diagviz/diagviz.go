// Package diagviz renders optional diagnostic plots of a dirty image and
// its detected islands: a heatmap of pixel intensity with island
// extrema/barycentres overlaid as scatter markers.
//
// Grounded on plotFuncs.go (gonum.org/v1/plot/plot.New, font styling via
// gonum.org/v1/plot/font/liberation, p.Save(width, height, filename) for
// PNG output) and lightcurve/lightcurve.go's use of
// plotter.NewLine/NewScatter for overlaying sample points on a base plot.
package diagviz

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"sort"

	"gonum.org/v1/plot"
	_ "gonum.org/v1/plot/font/liberation"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/bob-anderson-ok/stpimage/labelling"
	"github.com/bob-anderson-ok/stpimage/matx"
)

// gridXYZ adapts a *matx.Real to plotter.GridXYZ for heatmap rendering.
type gridXYZ struct {
	m *matx.Real
}

func (g gridXYZ) Dims() (c, r int)   { return g.m.N, g.m.N }
func (g gridXYZ) X(c int) float64    { return float64(c) }
func (g gridXYZ) Y(r int) float64    { return float64(r) }
func (g gridXYZ) Z(c, r int) float64 { return g.m.At(r, c) }

// DirtyImagePlot builds a heatmap of image with any islands' extrema and
// barycentres overlaid as scatter markers, following plotFuncs.go's
// font/title styling conventions.
func DirtyImagePlot(title string, image *matx.Real, islands []labelling.Island) (*plot.Plot, error) {
	p := plot.New()

	p.Title.Text = title
	p.Title.TextStyle.Font.Typeface = "Liberation"
	p.Title.TextStyle.Font.Variant = "Sans"
	p.Title.TextStyle.Font.Size = vg.Points(12)

	p.X.Label.Text = "x (pixels)"
	p.Y.Label.Text = "y (pixels)"

	heat := plotter.NewHeatMap(gridXYZ{m: image}, moreland.SmoothBlueRed())
	p.Add(heat)

	if len(islands) > 0 {
		extrema := make(plotter.XYs, len(islands))
		barycentres := make(plotter.XYs, len(islands))
		for i, isl := range islands {
			extrema[i] = plotter.XY{X: float64(isl.ExtremumX), Y: float64(isl.ExtremumY)}
			barycentres[i] = plotter.XY{X: isl.XBar, Y: isl.YBar}
		}

		extremaScatter, err := plotter.NewScatter(extrema)
		if err != nil {
			return nil, err
		}
		extremaScatter.Color = color.RGBA{R: 255, G: 0, B: 0, A: 255}
		extremaScatter.Radius = vg.Points(3)
		p.Add(extremaScatter)

		baryScatter, err := plotter.NewScatter(barycentres)
		if err != nil {
			return nil, err
		}
		baryScatter.Color = color.RGBA{R: 0, G: 255, B: 0, A: 255}
		baryScatter.Radius = vg.Points(2)
		p.Add(baryScatter)
	}

	return p, nil
}

// Save renders p to a PNG file at the given pixel dimensions, following
// plotFuncs.go's p.Save(width, height, filename) idiom.
func Save(p *plot.Plot, widthPx, heightPx float64, path string) error {
	const dpi = 96.0
	width := vg.Length(widthPx) * vg.Inch / dpi
	height := vg.Length(heightPx) * vg.Inch / dpi
	return p.Save(width, height, path)
}

// SaveRawPNG writes image as an 8-bit grayscale PNG using a percentile
// stretch (pLow to pHigh mapped onto 0..255, clamped outside that
// range), a cheaper alternative to DirtyImagePlot/Save for callers that
// don't need axes, a title, or island overlays.
//
// Grounded on imageFuncs.go's MatrixToGrayViewPercentile/SaveGrayPNG.
func SaveRawPNG(m *matx.Real, pLow, pHigh float64, path string) error {
	if pLow < 0 || pLow >= pHigh || pHigh > 100 {
		return errors.New("percentiles must satisfy 0 <= pLow < pHigh <= 100")
	}
	n := m.N
	if n == 0 {
		return errors.New("empty matrix")
	}

	vals := make([]float64, 0, len(m.Data))
	for _, v := range m.Data {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			vals = append(vals, v)
		}
	}
	if len(vals) == 0 {
		return errors.New("matrix has no finite values")
	}
	sort.Float64s(vals)

	percentile := func(p float64) float64 {
		if p <= 0 {
			return vals[0]
		}
		if p >= 100 {
			return vals[len(vals)-1]
		}
		pos := (p / 100.0) * float64(len(vals)-1)
		i := int(math.Floor(pos))
		f := pos - float64(i)
		if i >= len(vals)-1 {
			return vals[len(vals)-1]
		}
		return vals[i]*(1-f) + vals[i+1]*f
	}

	lo, hi := percentile(pLow), percentile(pHigh)
	if hi == lo {
		hi = lo + 1
	}

	img := image.NewGray(image.Rect(0, 0, n, n))
	for row := 0; row < n; row++ {
		pixRow := row * img.Stride
		for col := 0; col < n; col++ {
			v := m.At(row, col)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				img.Pix[pixRow+col] = 0
				continue
			}
			t := (v - lo) / (hi - lo)
			if t < 0 {
				t = 0
			} else if t > 1 {
				t = 1
			}
			img.Pix[pixRow+col] = uint8(math.Round(t * 255.0))
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}
