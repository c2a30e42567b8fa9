package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/itsneelabh/ralph/internal/tier"
)

// LoadTierConfig reads and validates a TierEscalationConfig file, per
// spec §4.7. Validation errors are returned in full — see
// tier.TierEscalationConfig.Validate's doc comment for why this
// accumulates every error instead of stopping at the first.
func LoadTierConfig(path string) (tier.TierEscalationConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return tier.TierEscalationConfig{}, fmt.Errorf("tier config: read %s: %w", path, err)
	}

	var cfg tier.TierEscalationConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return tier.TierEscalationConfig{}, fmt.Errorf("tier config: parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return tier.TierEscalationConfig{}, err
	}

	return cfg, nil
}
