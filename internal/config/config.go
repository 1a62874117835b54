// Package config parses the JSON5 imaging configuration document into a
// Document with per-field validation and defaults.
//
// Grounded on jsonProcessing.go (getLeafValue path lookup over a
// map[string]interface{}, default-then-validate-per-field style, a
// human-readable message plus bool-ok return for each field), using the
// same github.com/KevinWang15/go-json5 parser.
package config

import (
	json "github.com/KevinWang15/go-json5"

	"github.com/bob-anderson-ok/stpimage/stperr"
)

// MedianMethod mirrors the median_method enum, kept local so config does
// not depend on the stats package (config only names the option;
// stats.MedianMethod is the consumer's own enum).
type MedianMethod string

const (
	MedianZero       MedianMethod = "ZeroMedian"
	MedianBinMedian  MedianMethod = "BinMedian"
	MedianBinApprox  MedianMethod = "BinApprox"
	MedianNthElement MedianMethod = "NthElement"
)

// KernelFunction mirrors the kernel_function enum.
type KernelFunction string

const (
	KernelTopHat       KernelFunction = "TopHat"
	KernelTriangle     KernelFunction = "Triangle"
	KernelSinc         KernelFunction = "Sinc"
	KernelGaussian     KernelFunction = "Gaussian"
	KernelGaussianSinc KernelFunction = "GaussianSinc"
	KernelPSWF         KernelFunction = "PSWF"
)

// InterpType mirrors the interp_type enum.
type InterpType string

const (
	InterpLinear InterpType = "Linear"
	InterpCubic  InterpType = "Cubic"
	InterpCosine InterpType = "Cosine"
)

// FFTRoutine mirrors the fft_routine enum.
type FFTRoutine string

const (
	FFTEstimate      FFTRoutine = "Estimate"
	FFTMeasure       FFTRoutine = "Measure"
	FFTPatient       FFTRoutine = "Patient"
	FFTWisdom        FFTRoutine = "Wisdom"
	FFTWisdomInplace FFTRoutine = "WisdomInplace"
)

// Document is the full parsed and validated configuration.
type Document struct {
	ImageSize     int
	CellSize      float64
	PaddingFactor float64

	KernelFunction KernelFunction
	KernelSupport  int
	KernelExact    bool
	Oversampling   int

	NumWPlanes        int
	MaxWPConvSupport  int
	UndersamplingOpt  int
	KernelTruncPerc   float64
	HankelOpt         bool
	InterpType        InterpType
	WPlanesMedian     bool

	NumTimesteps  int
	ObsDec, ObsRA float64
	AprojOpt      bool
	AprojMaskPerc float64

	DetectionNSigma     float64
	AnalysisNSigma      float64
	EstimateRMS         float64
	FindNegativeSources bool
	SigmaClipIters      int
	MedianMethod        MedianMethod
	GaussianFitting     bool
	CCL4Connectivity    bool
	GenerateLabelmap    bool
	SourceMinArea       int
	CeresDiffMethod     string
	CeresSolverType     string

	FFTRoutine         FFTRoutine
	FFTWisdomFilename  string
}

func getLeaf(table map[string]interface{}, path ...string) (interface{}, bool) {
	var cur interface{} = table
	for _, p := range path {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return nil, false
		}
		cur, ok = m[p]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func asFloat(v interface{}) (float64, bool) {
	f, ok := v.(float64)
	return f, ok
}

func asBool(v interface{}) (bool, bool) {
	b, ok := v.(bool)
	return b, ok
}

func asString(v interface{}) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

// Parse unmarshals JSON5 bytes and validates every recognised key,
// following jsonProcessing.go's leaf-lookup, default-then-validate
// per-field style.
func Parse(data []byte) (*Document, error) {
	var table map[string]interface{}
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, stperr.Wrap(stperr.InvalidInput, "config is not valid json5", err)
	}

	d := &Document{
		PaddingFactor:    1.0,
		Oversampling:     1,
		MaxWPConvSupport: 1,
		SigmaClipIters:   5,
		MedianMethod:     MedianNthElement,
		KernelFunction:   KernelTopHat,
		InterpType:       InterpLinear,
		FFTRoutine:       FFTEstimate,
	}

	if v, ok := getLeaf(table, "image_size"); ok {
		f, ok := asFloat(v)
		if !ok {
			return nil, stperr.New(stperr.InvalidConfig, "image_size: is not a number")
		}
		d.ImageSize = int(f)
	}
	if d.ImageSize <= 0 || d.ImageSize%4 != 0 {
		return nil, stperr.New(stperr.InvalidConfig, "image_size: must be a positive multiple of 4")
	}

	if v, ok := getLeaf(table, "cell_size"); ok {
		f, ok := asFloat(v)
		if !ok {
			return nil, stperr.New(stperr.InvalidConfig, "cell_size: is not a number")
		}
		d.CellSize = f
	} else {
		return nil, stperr.New(stperr.InvalidConfig, "cell_size: not found")
	}

	if v, ok := getLeaf(table, "padding_factor"); ok {
		f, ok := asFloat(v)
		if !ok || f < 1.0 {
			return nil, stperr.New(stperr.InvalidConfig, "padding_factor: must be a number >= 1.0")
		}
		d.PaddingFactor = f
	}

	if v, ok := getLeaf(table, "kernel_function"); ok {
		s, ok := asString(v)
		if !ok {
			return nil, stperr.New(stperr.InvalidConfig, "kernel_function: is not a string")
		}
		d.KernelFunction = KernelFunction(s)
	}

	if v, ok := getLeaf(table, "kernel_support"); ok {
		f, ok := asFloat(v)
		if !ok || f < 1 {
			return nil, stperr.New(stperr.InvalidConfig, "kernel_support: must be an integer >= 1")
		}
		d.KernelSupport = int(f)
	} else {
		return nil, stperr.New(stperr.InvalidConfig, "kernel_support: not found")
	}

	if v, ok := getLeaf(table, "kernel_exact"); ok {
		b, ok := asBool(v)
		if !ok {
			return nil, stperr.New(stperr.InvalidConfig, "kernel_exact: is not a bool")
		}
		d.KernelExact = b
	}

	if v, ok := getLeaf(table, "oversampling"); ok {
		f, ok := asFloat(v)
		n := int(f)
		if !ok || n < 1 || n%2 == 0 {
			return nil, stperr.New(stperr.InvalidConfig, "oversampling: must be an odd positive integer")
		}
		d.Oversampling = n
	}

	if v, ok := getLeaf(table, "num_wplanes"); ok {
		f, ok := asFloat(v)
		if !ok || f < 0 {
			return nil, stperr.New(stperr.InvalidConfig, "num_wplanes: must be an integer >= 0")
		}
		d.NumWPlanes = int(f)
	}

	if v, ok := getLeaf(table, "max_wpconv_support"); ok {
		f, ok := asFloat(v)
		if !ok || f < 1 {
			return nil, stperr.New(stperr.InvalidConfig, "max_wpconv_support: must be an integer >= 1")
		}
		d.MaxWPConvSupport = int(f)
	}

	if v, ok := getLeaf(table, "undersampling_opt"); ok {
		f, ok := asFloat(v)
		if !ok || f < 0 {
			return nil, stperr.New(stperr.InvalidConfig, "undersampling_opt: must be an integer >= 0")
		}
		d.UndersamplingOpt = int(f)
	}

	if v, ok := getLeaf(table, "kernel_trunc_perc"); ok {
		f, ok := asFloat(v)
		if !ok || f < 0 || f >= 100 {
			return nil, stperr.New(stperr.InvalidConfig, "kernel_trunc_perc: must be in [0,100)")
		}
		d.KernelTruncPerc = f
	}

	if v, ok := getLeaf(table, "hankel_opt"); ok {
		b, ok := asBool(v)
		if !ok {
			return nil, stperr.New(stperr.InvalidConfig, "hankel_opt: is not a bool")
		}
		d.HankelOpt = b
	}

	if v, ok := getLeaf(table, "interp_type"); ok {
		s, ok := asString(v)
		if !ok {
			return nil, stperr.New(stperr.InvalidConfig, "interp_type: is not a string")
		}
		d.InterpType = InterpType(s)
	}

	if v, ok := getLeaf(table, "wplanes_median"); ok {
		b, ok := asBool(v)
		if !ok {
			return nil, stperr.New(stperr.InvalidConfig, "wplanes_median: is not a bool")
		}
		d.WPlanesMedian = b
	}

	if v, ok := getLeaf(table, "num_timesteps"); ok {
		f, ok := asFloat(v)
		if !ok || f < 0 {
			return nil, stperr.New(stperr.InvalidConfig, "num_timesteps: must be an integer >= 0")
		}
		d.NumTimesteps = int(f)
	}

	if v, ok := getLeaf(table, "obs_dec"); ok {
		f, ok := asFloat(v)
		if !ok {
			return nil, stperr.New(stperr.InvalidConfig, "obs_dec: is not a number")
		}
		d.ObsDec = f
	}
	if v, ok := getLeaf(table, "obs_ra"); ok {
		f, ok := asFloat(v)
		if !ok {
			return nil, stperr.New(stperr.InvalidConfig, "obs_ra: is not a number")
		}
		d.ObsRA = f
	}

	if v, ok := getLeaf(table, "aproj_opt"); ok {
		b, ok := asBool(v)
		if !ok {
			return nil, stperr.New(stperr.InvalidConfig, "aproj_opt: is not a bool")
		}
		d.AprojOpt = b
	}
	if v, ok := getLeaf(table, "aproj_mask_perc"); ok {
		f, ok := asFloat(v)
		if !ok {
			return nil, stperr.New(stperr.InvalidConfig, "aproj_mask_perc: is not a number")
		}
		d.AprojMaskPerc = f
	}

	if v, ok := getLeaf(table, "detection_n_sigma"); ok {
		f, ok := asFloat(v)
		if !ok || f < 0 {
			return nil, stperr.New(stperr.InvalidConfig, "detection_n_sigma: must be a number >= 0")
		}
		d.DetectionNSigma = f
	} else {
		return nil, stperr.New(stperr.InvalidConfig, "detection_n_sigma: not found")
	}

	if v, ok := getLeaf(table, "analysis_n_sigma"); ok {
		f, ok := asFloat(v)
		if !ok || f < 0 {
			return nil, stperr.New(stperr.InvalidConfig, "analysis_n_sigma: must be a number >= 0")
		}
		d.AnalysisNSigma = f
	} else {
		return nil, stperr.New(stperr.InvalidConfig, "analysis_n_sigma: not found")
	}
	if d.AnalysisNSigma > d.DetectionNSigma {
		return nil, stperr.New(stperr.InvalidConfig, "analysis_n_sigma: must be <= detection_n_sigma")
	}

	if v, ok := getLeaf(table, "estimate_rms"); ok {
		f, ok := asFloat(v)
		if !ok {
			return nil, stperr.New(stperr.InvalidConfig, "estimate_rms: is not a number")
		}
		d.EstimateRMS = f
	}

	if v, ok := getLeaf(table, "find_negative_sources"); ok {
		b, ok := asBool(v)
		if !ok {
			return nil, stperr.New(stperr.InvalidConfig, "find_negative_sources: is not a bool")
		}
		d.FindNegativeSources = b
	}

	if v, ok := getLeaf(table, "sigma_clip_iters"); ok {
		f, ok := asFloat(v)
		if !ok || f < 1 {
			return nil, stperr.New(stperr.InvalidConfig, "sigma_clip_iters: must be an integer >= 1")
		}
		d.SigmaClipIters = int(f)
	}

	if v, ok := getLeaf(table, "median_method"); ok {
		s, ok := asString(v)
		if !ok {
			return nil, stperr.New(stperr.InvalidConfig, "median_method: is not a string")
		}
		d.MedianMethod = MedianMethod(s)
	}

	if v, ok := getLeaf(table, "gaussian_fitting"); ok {
		b, ok := asBool(v)
		if !ok {
			return nil, stperr.New(stperr.InvalidConfig, "gaussian_fitting: is not a bool")
		}
		d.GaussianFitting = b
	}

	if v, ok := getLeaf(table, "ccl_4connectivity"); ok {
		b, ok := asBool(v)
		if !ok {
			return nil, stperr.New(stperr.InvalidConfig, "ccl_4connectivity: is not a bool")
		}
		d.CCL4Connectivity = b
	}

	if v, ok := getLeaf(table, "generate_labelmap"); ok {
		b, ok := asBool(v)
		if !ok {
			return nil, stperr.New(stperr.InvalidConfig, "generate_labelmap: is not a bool")
		}
		d.GenerateLabelmap = b
	}

	if v, ok := getLeaf(table, "source_min_area"); ok {
		f, ok := asFloat(v)
		if !ok || f < 1 {
			return nil, stperr.New(stperr.InvalidConfig, "source_min_area: must be an integer >= 1")
		}
		d.SourceMinArea = int(f)
	} else {
		d.SourceMinArea = 1
	}

	if v, ok := getLeaf(table, "ceres_diffmethod"); ok {
		s, ok := asString(v)
		if !ok {
			return nil, stperr.New(stperr.InvalidConfig, "ceres_diffmethod: is not a string")
		}
		d.CeresDiffMethod = s
	}
	if v, ok := getLeaf(table, "ceres_solvertype"); ok {
		s, ok := asString(v)
		if !ok {
			return nil, stperr.New(stperr.InvalidConfig, "ceres_solvertype: is not a string")
		}
		d.CeresSolverType = s
	}

	if v, ok := getLeaf(table, "fft_routine"); ok {
		s, ok := asString(v)
		if !ok {
			return nil, stperr.New(stperr.InvalidConfig, "fft_routine: is not a string")
		}
		d.FFTRoutine = FFTRoutine(s)
	}
	if v, ok := getLeaf(table, "fft_wisdom_filename"); ok {
		s, ok := asString(v)
		if !ok {
			return nil, stperr.New(stperr.InvalidConfig, "fft_wisdom_filename: is not a string")
		}
		d.FFTWisdomFilename = s
	}

	if d.AprojOpt && d.HankelOpt {
		return nil, stperr.New(stperr.UnsupportedCombination, "aproj_opt cannot be combined with hankel_opt")
	}

	return d, nil
}
