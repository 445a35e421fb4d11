package application

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"ledger-core/internal/closing/checks"
)

// CheckConfig selects one check and flags whether it gates closing.
type CheckConfig struct {
	ID       string `yaml:"id"`
	Required bool   `yaml:"required"`
}

// Config defines the closing-check battery.
type Config struct {
	TimeoutSeconds int           `yaml:"timeout_seconds"`
	Checks         []CheckConfig `yaml:"checks"`
}

// Timeout is the per-check execution budget.
func (c Config) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// DefaultConfig is the battery used when no config file is present: the two
// ledger invariant checks gate closing, the reconciliation checks advise.
func DefaultConfig() Config {
	return Config{
		TimeoutSeconds: 10,
		Checks: []CheckConfig{
			{ID: "draft-backlog", Required: true},
			{ID: "posted-balance", Required: true},
			{ID: "bank-reconciliation", Required: false},
			{ID: "inventory-valuation", Required: false},
		},
	}
}

// LoadConfig loads the battery config from a yaml file, falling back to
// defaults when the path is empty.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = 10
	}
	if len(cfg.Checks) == 0 {
		cfg.Checks = DefaultConfig().Checks
	}
	return cfg, nil
}

// Build resolves the configured check ids against the available checks.
func (c Config) Build(available []checks.Check) ([]ConfiguredCheck, error) {
	byID := make(map[string]checks.Check, len(available))
	for _, check := range available {
		byID[check.ID()] = check
	}
	configured := make([]ConfiguredCheck, 0, len(c.Checks))
	for _, entry := range c.Checks {
		check, ok := byID[entry.ID]
		if !ok {
			return nil, fmt.Errorf("closing config: unknown check %q", entry.ID)
		}
		configured = append(configured, ConfiguredCheck{Check: check, Required: entry.Required})
	}
	return configured, nil
}
