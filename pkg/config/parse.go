package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// ParseYAML parses a Config from YAML bytes and validates it.
// This is used for APIs where config is provided as payload (not via filesystem).
func ParseYAML(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// validate performs validation on the configuration
func validate(cfg *Config) error {
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[cfg.LogLevel] {
		return fmt.Errorf("invalid log_level: %s (must be debug, info, warn, or error)", cfg.LogLevel)
	}

	if cfg.Network.InputFile == "" {
		return fmt.Errorf("network input_file is required")
	}
	if cfg.Network.Engine != "epanet" {
		return fmt.Errorf("unknown network engine: %s", cfg.Network.Engine)
	}
	if cfg.PricesFile == "" {
		return fmt.Errorf("prices_file is required")
	}

	if err := validateConstraints(&cfg.Constraints); err != nil {
		return fmt.Errorf("constraints validation failed: %w", err)
	}
	if err := validateGA(&cfg.GA); err != nil {
		return fmt.Errorf("ga validation failed: %w", err)
	}
	if err := validateOutput(&cfg.Output); err != nil {
		return fmt.Errorf("output validation failed: %w", err)
	}

	return nil
}

// validateConstraints validates the hydraulic constraint bounds
func validateConstraints(c *Constraints) error {
	if c.HMin >= c.HMax {
		return fmt.Errorf("hmin must be below hmax, got [%f, %f]", c.HMin, c.HMax)
	}
	if c.VMin < 0 {
		return fmt.Errorf("vmin cannot be negative, got %f", c.VMin)
	}
	if c.VMin >= c.VMax {
		return fmt.Errorf("vmin must be below vmax, got [%f, %f]", c.VMin, c.VMax)
	}
	if c.PenaltyStep <= 0 {
		return fmt.Errorf("penalty_step must be positive, got %f", c.PenaltyStep)
	}
	return nil
}

// validateGA validates the genetic algorithm parameters
func validateGA(g *GA) error {
	if g.Population < 2 {
		return fmt.Errorf("population must be at least 2, got %d", g.Population)
	}
	if g.Generations <= 0 {
		return fmt.Errorf("generations must be positive, got %d", g.Generations)
	}
	probs := map[string]float64{
		"crossover_prob":     g.CrossoverProb,
		"mutation_prob":      g.MutationProb,
		"gene_mutation_prob": g.GeneMutationProb,
	}
	for name, p := range probs {
		if p < 0 || p > 1 {
			return fmt.Errorf("%s must be between 0 and 1, got %f", name, p)
		}
	}
	if g.Executions <= 0 {
		return fmt.Errorf("executions must be positive, got %d", g.Executions)
	}
	if g.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", g.Workers)
	}
	if g.FaultFitness <= 0 {
		return fmt.Errorf("fault_fitness must be positive, got %f", g.FaultFitness)
	}
	return nil
}

// validateOutput validates the artifact and store settings
func validateOutput(o *Output) error {
	if o.Dir == "" {
		return fmt.Errorf("output dir is required")
	}
	switch o.Store {
	case "memory":
	case "sqlite":
		if o.StorePath == "" {
			return fmt.Errorf("store_path is required for the sqlite store")
		}
	default:
		return fmt.Errorf("unknown store: %s (must be memory or sqlite)", o.Store)
	}
	return nil
}
