// Command stpimage-demo runs the imaging and source-finding pipeline
// end to end against a synthetic visibility set, driven by a JSON5
// configuration file.
//
// Grounded on main.go's driver shape (read a JSON5 parameter file path
// from os.Args, parse, validate, run, report timing) reduced to a
// headless CLI: no GUI shell, and the uv-data loader is replaced with a
// deterministic synthetic point-source visibility set so the demo runs
// with no external data file.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/bob-anderson-ok/stpimage/fitting"
	"github.com/bob-anderson-ok/stpimage/internal/config"
	"github.com/bob-anderson-ok/stpimage/internal/diagviz"
	"github.com/bob-anderson-ok/stpimage/internal/fixtures"
	"github.com/bob-anderson-ok/stpimage/internal/obslog"
	"github.com/bob-anderson-ok/stpimage/kernel"
	"github.com/bob-anderson-ok/stpimage/labelling"
	"github.com/bob-anderson-ok/stpimage/matx"
	"github.com/bob-anderson-ok/stpimage/stats"

	"github.com/bob-anderson-ok/stpimage/fftstage"
	"github.com/bob-anderson-ok/stpimage/imaging"
	"github.com/bob-anderson-ok/stpimage/wproj"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <config.json5> [out-dir]\n", os.Args[0])
		os.Exit(1)
	}
	if err := run(os.Args[1], outDir()); err != nil {
		obslog.Log.Error().Err(err).Msg("stpimage-demo failed")
		os.Exit(1)
	}
}

func outDir() string {
	if len(os.Args) >= 3 {
		return os.Args[2]
	}
	return "."
}

func run(configPath, dir string) error {
	start := time.Now()

	data, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}

	doc, err := config.Parse(data)
	if err != nil {
		return fmt.Errorf("parsing config: %w", err)
	}
	obslog.Log.Info().Str("config", configPath).Int("image_size", doc.ImageSize).Msg("configuration loaded")

	kernelFn, err := resolveKernel(doc)
	if err != nil {
		return err
	}

	vis := syntheticVisibilities(doc.ImageSize)
	obslog.Log.Info().Int("count", len(vis)).Msg("generated synthetic visibilities")

	params := imaging.Params{
		ImageSize:          doc.ImageSize,
		CellSize:           doc.CellSize,
		PaddingFactor:      doc.PaddingFactor,
		KernelFunction:     kernelFn,
		KernelSupport:      doc.KernelSupport,
		KernelExact:        doc.KernelExact,
		Oversampling:       oversamplingOrDefault(doc.Oversampling),
		NumWPlanes:         doc.NumWPlanes,
		MaxWPConvSupport:   doc.MaxWPConvSupport,
		KernelTruncPerc:    doc.KernelTruncPerc,
		HankelOpt:          doc.HankelOpt,
		Interp:             resolveInterp(doc.InterpType),
		WPlanesMedian:      doc.WPlanesMedian,
		NumTimesteps:       doc.NumTimesteps,
		AProjOpt:           doc.AprojOpt,
		GriddingCorrection: true,
		FFTParams: fftstage.Params{
			PaddingFactor:  doc.PaddingFactor,
			Routine:        resolveRoutine(doc.FFTRoutine),
			WisdomFilename: doc.FFTWisdomFilename,
		},
	}

	out, err := imaging.Image(vis, params)
	if err != nil {
		return fmt.Errorf("imaging: %w", err)
	}
	obslog.Log.Info().Msg("imaging complete")

	rms, err := stats.EstimateRMS(out.Image, 3.0, doc.SigmaClipIters, resolveMedianMethod(doc.MedianMethod), nil)
	if err != nil {
		return fmt.Errorf("estimating background rms: %w", err)
	}
	obslog.Log.Info().Float64("rms", rms.RMS).Float64("bg_level", rms.BGLevel).Int("iters", rms.Iters).Msg("background statistics")

	find := labelling.Find(out.Image, labelling.Params{
		AnalysisThreshold:  doc.AnalysisNSigma * rms.RMS,
		DetectionThreshold: doc.DetectionNSigma * rms.RMS,
		Connectivity:       connectivityOrDefault(doc.CCL4Connectivity),
		FindNegative:       doc.FindNegativeSources,
		ComputeBarycentre:  true,
		GenerateLabelMap:   true,
	})
	obslog.Log.Info().Int("islands", len(find.Islands)).Msg("source-find complete")

	if doc.GaussianFitting && find.LabelMap != nil {
		for i, isl := range find.Islands {
			result, err := fitOne(out.Image, find.LabelMap, isl, doc)
			if err != nil {
				obslog.Log.Warn().Err(err).Int("island", i).Msg("gaussian fit failed")
				continue
			}
			obslog.Log.Info().Int("island", i).
				Float64("amplitude", result.Params.Amplitude).
				Float64("x0", result.Params.X0).
				Float64("y0", result.Params.Y0).
				Bool("converged", result.Converged).
				Msg("gaussian fit")
		}
	}

	if err := writeDiagnostics(dir, out, find); err != nil {
		return fmt.Errorf("writing diagnostics: %w", err)
	}

	obslog.Log.Info().Dur("elapsed", time.Since(start)).Msg("stpimage-demo finished")
	return nil
}

// syntheticVisibilities builds a deterministic single-point-source
// visibility set, standing in for a real uv-data loader so this demo
// runs with no external data file.
func syntheticVisibilities(imageSize int) []imaging.Visibility {
	raw := fixtures.SinglePointSourceVisibilities(imageSize, 10.0)
	out := make([]imaging.Visibility, len(raw))
	for i, v := range raw {
		out[i] = imaging.Visibility{U: v.U, V: v.V, W: v.W, Vis: v.Vis, Weight: v.Weight}
	}
	return out
}

// fitOne gathers the island's pixels from image within labelMap's
// bounding box and runs a Gaussian fit starting from InitialGuess.
func fitOne(image *matx.Real, labelMap *matx.Int, isl labelling.Island, doc *config.Document) (*fitting.Result, error) {
	pixels := make([]fitting.Pixel, 0, isl.PixelCount)
	wantID := isl.LabelID
	if isl.Sign < 0 {
		wantID = -isl.LabelID
	}
	for row := isl.BoundingBox.YMin; row <= isl.BoundingBox.YMax; row++ {
		for col := isl.BoundingBox.XMin; col <= isl.BoundingBox.XMax; col++ {
			if labelMap.At(row, col) != wantID {
				continue
			}
			pixels = append(pixels, fitting.Pixel{X: col, Y: row, Value: image.At(row, col)})
		}
	}

	initial := fitting.InitialGuess(isl.ExtremumVal, isl.ExtremumX, isl.ExtremumY, isl.XBar, isl.YBar, isl.PixelCount)
	return fitting.Fit(pixels, initial, resolveDiffMethod(doc.CeresDiffMethod), resolveSolverType(doc.CeresSolverType))
}

func writeDiagnostics(dir string, out *imaging.Output, find *labelling.Result) error {
	plot, err := diagviz.DirtyImagePlot("dirty image", out.Image, find.Islands)
	if err != nil {
		return err
	}
	if err := diagviz.Save(plot, 800, 800, dir+"/dirty_image.png"); err != nil {
		return err
	}
	return diagviz.SaveRawPNG(out.Image, 1, 99, dir+"/dirty_image_raw.png")
}

func oversamplingOrDefault(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

func connectivityOrDefault(use4 bool) labelling.Connectivity {
	if use4 {
		return labelling.Connectivity4
	}
	return labelling.Connectivity8
}

func resolveKernel(doc *config.Document) (kernel.Func, error) {
	support := float64(doc.KernelSupport)
	trunc := support
	switch doc.KernelFunction {
	case config.KernelTriangle:
		return kernel.Triangle(support, 1.0), nil
	case config.KernelSinc:
		return kernel.Sinc(support/2, trunc), nil
	case config.KernelGaussian:
		return kernel.Gaussian(support/2, trunc), nil
	case config.KernelGaussianSinc:
		return kernel.GaussianSinc(support/2, support/2, trunc), nil
	case config.KernelPSWF:
		return kernel.PSWF(trunc)
	case config.KernelTopHat, "":
		return kernel.TopHat(support), nil
	default:
		return kernel.TopHat(support), nil
	}
}

func resolveInterp(t config.InterpType) wproj.InterpType {
	switch t {
	case config.InterpCubic:
		return wproj.InterpCubic
	case config.InterpCosine:
		return wproj.InterpCosine
	default:
		return wproj.InterpLinear
	}
}

func resolveRoutine(r config.FFTRoutine) fftstage.Routine {
	switch r {
	case config.FFTMeasure:
		return fftstage.RoutineMeasure
	case config.FFTPatient:
		return fftstage.RoutinePatient
	case config.FFTWisdom:
		return fftstage.RoutineWisdom
	case config.FFTWisdomInplace:
		return fftstage.RoutineWisdomInplace
	default:
		return fftstage.RoutineEstimate
	}
}

func resolveMedianMethod(m config.MedianMethod) stats.MedianMethod {
	switch m {
	case config.MedianZero:
		return stats.MedianZero
	case config.MedianBinMedian:
		return stats.MedianBinMedian
	case config.MedianBinApprox:
		return stats.MedianBinApprox
	default:
		return stats.MedianNthElement
	}
}

func resolveDiffMethod(s string) fitting.DiffMethod {
	switch s {
	case "Numerical":
		return fitting.DiffNumerical
	case "Automatic":
		return fitting.DiffAutomatic
	default:
		return fitting.DiffAnalytic
	}
}

func resolveSolverType(s string) fitting.SolverType {
	switch s {
	case "LineSearchLBFGS":
		return fitting.SolverLineSearchLBFGS
	case "TrustRegion":
		return fitting.SolverTrustRegion
	default:
		return fitting.SolverLineSearchBFGS
	}
}
