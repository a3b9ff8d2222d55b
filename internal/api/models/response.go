package models

// ErrorResponse is the uniform error envelope of the API.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// ExtractResponse summarizes a finished grid run.
type ExtractResponse struct {
	Hadron string `json:"hadron"`

	PtBins        int `json:"pt_bins"`
	WorkingPoints int `json:"working_points"`

	Cells           int `json:"cells"`
	Complete        int `json:"complete"`
	PartiallyFailed int `json:"partially_failed"`
	Failed          int `json:"failed"`

	Failures []FailureInfo `json:"failures"`
	Trends   []TrendInfo   `json:"trends"`

	ElapsedMs int64 `json:"elapsed_ms"`
}

type FailureInfo struct {
	PtBin        int    `json:"pt_bin"`
	WorkingPoint int    `json:"working_point"`
	Stage        string `json:"stage"`
	Error        string `json:"error"`
}

// TrendInfo is the per-pt-bin cut-variation summary. NaN entries in the
// yield/efficiency sequences are encoded as nulls.
type TrendInfo struct {
	PtBin int     `json:"pt_bin"`
	PtMin float64 `json:"pt_min"`
	PtMax float64 `json:"pt_max"`

	NPCuts      []float64  `json:"np_cuts"`
	Yields      []*float64 `json:"yields"`
	YieldErrors []*float64 `json:"yield_errors"`
	Effs        []*float64 `json:"efficiencies"`

	CompleteCells int     `json:"complete_cells"`
	MeanChi2      float64 `json:"mean_chi2"`
	MaxChi2       float64 `json:"max_chi2"`
	EffMonotonic  bool    `json:"eff_monotonic"`
}

// ValidateResponse reports config validity.
type ValidateResponse struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`

	PtBins        int `json:"pt_bins,omitempty"`
	WorkingPoints int `json:"working_points,omitempty"`
}

// FunctionsResponse lists the supported fit function kinds.
type FunctionsResponse struct {
	Signal     []string `json:"signal"`
	Background []string `json:"background"`
}
