package config

// Config is the top-level optimization configuration
type Config struct {
	LogLevel    string      `yaml:"log_level"`
	Network     Network     `yaml:"network"`
	PricesFile  string      `yaml:"prices_file"`
	Constraints Constraints `yaml:"constraints"`
	GA          GA          `yaml:"ga"`
	Output      Output      `yaml:"output"`
}

// Network identifies the topology input handed to the external solver
type Network struct {
	InputFile string `yaml:"input_file"`
	Engine    string `yaml:"engine"` // solver engine kind, currently "epanet"
}

// Constraints holds the hydraulic feasibility bounds and the penalty
// increment applied per violation
type Constraints struct {
	HMin        float64 `yaml:"hmin"` // minimum node pressure
	HMax        float64 `yaml:"hmax"` // maximum node pressure
	VMin        float64 `yaml:"vmin"` // minimum pipe velocity
	VMax        float64 `yaml:"vmax"` // maximum pipe velocity
	PenaltyStep float64 `yaml:"penalty_step"`
}

// GA holds the genetic algorithm parameters
type GA struct {
	Population       int     `yaml:"population"`
	Generations      int     `yaml:"generations"`
	CrossoverProb    float64 `yaml:"crossover_prob"`
	MutationProb     float64 `yaml:"mutation_prob"`
	GeneMutationProb float64 `yaml:"gene_mutation_prob"`
	Executions       int     `yaml:"executions"`
	Seed             int64   `yaml:"seed"` // 0 means time-based
	Workers          int     `yaml:"workers"`
	FaultFitness     float64 `yaml:"fault_fitness"`
}

// Output controls where experiment artifacts are written
type Output struct {
	Dir       string `yaml:"dir"`
	Chart     bool   `yaml:"chart"`
	Store     string `yaml:"store"` // memory or sqlite
	StorePath string `yaml:"store_path"`
}

// Default returns a Config populated with the documented defaults.
// YAML unmarshalling overlays user values on top of it, so absent keys
// keep their defaults.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Network: Network{
			Engine: "epanet",
		},
		Constraints: Constraints{
			HMin:        30.0,
			HMax:        100.0,
			VMin:        0.25,
			VMax:        2.50,
			PenaltyStep: 1,
		},
		GA: GA{
			Population:       200,
			Generations:      500,
			CrossoverProb:    0.9,
			MutationProb:     0.02,
			GeneMutationProb: 0.10,
			Executions:       1,
			Workers:          1,
			FaultFitness:     1e12,
		},
		Output: Output{
			Dir:   "results",
			Chart: true,
			Store: "memory",
		},
	}
}
