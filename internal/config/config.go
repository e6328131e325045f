package config

import (
	"fmt"
	"os"
)

// Config holds all runtime configuration for a pricebench run.
type Config struct {
	InputDir       string
	HospitalsPath  string
	SourcesPath    string // optional
	ProceduresPath string
	PayerRulesPath string // optional YAML overrides
	FocusHospital  string
	OutputDir      string
	Workers        int
	OutlierIQRMult float64
	LogFormat      string // "text" or "json"
}

// Validate checks required fields and returns an error if the config is invalid.
func (c *Config) Validate() error {
	if c.InputDir == "" {
		return fmt.Errorf("--input is required")
	}
	if st, err := os.Stat(c.InputDir); err != nil || !st.IsDir() {
		return fmt.Errorf("input dir not accessible: %s", c.InputDir)
	}
	if c.HospitalsPath == "" {
		return fmt.Errorf("--hospitals is required")
	}
	if c.ProceduresPath == "" {
		return fmt.Errorf("--procedures is required")
	}
	if c.FocusHospital == "" {
		return fmt.Errorf("--focus-hospital is required")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("--output is required")
	}
	if c.Workers < 1 {
		return fmt.Errorf("--workers must be at least 1")
	}
	if c.OutlierIQRMult <= 0 {
		return fmt.Errorf("--outlier-iqr-mult must be positive")
	}
	return nil
}

// ValidatePlan checks the subset of fields the plan subcommand needs.
func (c *Config) ValidatePlan() error {
	if c.InputDir == "" {
		return fmt.Errorf("--input is required")
	}
	if st, err := os.Stat(c.InputDir); err != nil || !st.IsDir() {
		return fmt.Errorf("input dir not accessible: %s", c.InputDir)
	}
	return nil
}
