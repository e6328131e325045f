package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/gyeh/pricebench/internal/payer"
)

// payerRulesFile is the on-disk YAML structure for payer rule overrides.
type payerRulesFile struct {
	Insurers []payer.Rule `yaml:"insurers"`
}

// LoadPayerRules reads optional payer normalization overrides from a YAML
// file. Overrides are matched before the built-in insurer table. An empty
// path returns no overrides.
func LoadPayerRules(path string) ([]payer.Rule, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read payer rules: %w", err)
	}
	var prf payerRulesFile
	if err := yaml.Unmarshal(data, &prf); err != nil {
		return nil, fmt.Errorf("parse payer rules: %w", err)
	}
	for _, r := range prf.Insurers {
		if r.Pattern == "" || r.Group == "" {
			return nil, fmt.Errorf("payer rule needs both pattern and group: %+v", r)
		}
	}
	return prf.Insurers, nil
}
