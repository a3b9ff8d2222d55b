package models

// ExtractRequest triggers one full grid run. The config is either read from
// disk or passed inline as YAML; an inline config wins over a path.
type ExtractRequest struct {
	ConfigPath string `json:"config_path,omitempty"`
	ConfigYAML string `json:"config_yaml,omitempty"`

	// Workers overrides the config's worker count when > 0.
	Workers int `json:"workers,omitempty"`

	// WriteOutputs also writes the CSV/JSON artifacts to the configured
	// output directories, in addition to returning the summary.
	WriteOutputs bool `json:"write_outputs,omitempty"`
}

// ValidateRequest checks a config without running anything.
type ValidateRequest struct {
	ConfigPath string `json:"config_path,omitempty"`
	ConfigYAML string `json:"config_yaml,omitempty"`
}
