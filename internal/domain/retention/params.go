package retention

// CalibrationPoint fixes the observed fraction of baseline retention that
// remains after a number of idle days.
type CalibrationPoint struct {
	Days     float64
	Fraction float64
}

// Params defines all configurable parameters for the retention model.
type Params struct {
	// Calibration is the observed decay curve, ordered by Days ascending.
	// The decay function interpolates log-linearly between adjacent points
	// and extrapolates the final segment beyond the last point.
	Calibration []CalibrationPoint

	// RegionThreshold is the retention score at or above which a note is
	// classified long-term. The observed boundary data straddles 0.65 and
	// 0.7 without a documented cutoff, so this stays configurable.
	RegionThreshold float64

	// SynthesisWeight and BaseWeight are the understanding-score weights
	// for synthesis types (bridge, consolidated) and all other types.
	SynthesisWeight float64
	BaseWeight      float64
}

// ParamsConfig allows overriding the default parameters when creating a
// new Params instance. Zero values leave the corresponding default in
// place.
type ParamsConfig struct {
	RegionThreshold float64
	SynthesisWeight float64
	BaseWeight      float64
}

// NewDefaultParams creates a new Params instance with the observed
// calibration points and default weights.
func NewDefaultParams() *Params {
	return &Params{
		Calibration: []CalibrationPoint{
			{Days: 1, Fraction: 0.95},
			{Days: 7, Fraction: 0.82},
			{Days: 30, Fraction: 0.68},
			{Days: 90, Fraction: 0.54},
			{Days: 180, Fraction: 0.43},
		},
		RegionThreshold: 0.7,
		SynthesisWeight: 1.0,
		BaseWeight:      0.5,
	}
}

// NewParams creates a new Params instance with custom configuration.
func NewParams(config ParamsConfig) *Params {
	params := NewDefaultParams()

	if config.RegionThreshold > 0 {
		params.RegionThreshold = config.RegionThreshold
	}
	if config.SynthesisWeight > 0 {
		params.SynthesisWeight = config.SynthesisWeight
	}
	if config.BaseWeight > 0 {
		params.BaseWeight = config.BaseWeight
	}

	return params
}
