package neat

import (
	"fmt"
	"math"
	"runtime"

	"gopkg.in/ini.v1"
)

// Config stores the configuration parameters for a training run.
type Config struct {
	Neat         NeatConfig
	Grid         GridConfig
	Reproduction ReproductionConfig
	Fitness      FitnessConfig
}

// NeatConfig holds run-wide parameters.
type NeatConfig struct {
	PopSize int    `ini:"pop_size"`
	Seed    uint64 `ini:"seed"`
	Workers int    `ini:"workers"` // 0 means runtime.NumCPU()
}

// GridConfig describes the discretized screen shared with the game loop and
// where mutation should prefer to look for input cells.
type GridConfig struct {
	Rows       int     `ini:"rows"`
	Cols       int     `ini:"cols"`
	NumOutputs int     `ini:"num_outputs"`
	PlayerRow  float64 `ini:"player_row"`
	PlayerCol  float64 `ini:"player_col"`
	SigmaRow   float64 `ini:"sigma_row"`
	SigmaCol   float64 `ini:"sigma_col"`
}

// ReproductionConfig holds truncation-selection parameters.
type ReproductionConfig struct {
	EliteFraction      float64 `ini:"elite_fraction"`
	EdgeMutationRounds int     `ini:"edge_mutation_rounds"`
	NodeMutationRounds int     `ini:"node_mutation_rounds"`
	MaxEdgeAttempts    int     `ini:"max_edge_attempts"`
}

// FitnessConfig holds the episode scoring parameters.
type FitnessConfig struct {
	TimePenalty float64 `ini:"time_penalty"`
}

// Reference configuration values.
const (
	DefaultRows               = 18
	DefaultCols               = 27
	DefaultOutputs            = 3
	DefaultPopSize            = 100
	DefaultEliteFraction      = 0.1
	DefaultEdgeMutationRounds = 8
	DefaultNodeMutationRounds = 1
	DefaultMaxEdgeAttempts    = 200
	DefaultTimePenalty        = 50
)

// DefaultConfig returns the reference configuration: a 27x18 grid, three
// outputs and 10% elitism with 8 edge rounds and 1 node round.
func DefaultConfig() *Config {
	return &Config{
		Neat: NeatConfig{
			PopSize: DefaultPopSize,
			Seed:    1,
		},
		Grid: GridConfig{
			Rows:       DefaultRows,
			Cols:       DefaultCols,
			NumOutputs: DefaultOutputs,
			PlayerRow:  9,
			PlayerCol:  10,
			SigmaRow:   3,
			SigmaCol:   4,
		},
		Reproduction: ReproductionConfig{
			EliteFraction:      DefaultEliteFraction,
			EdgeMutationRounds: DefaultEdgeMutationRounds,
			NodeMutationRounds: DefaultNodeMutationRounds,
			MaxEdgeAttempts:    DefaultMaxEdgeAttempts,
		},
		Fitness: FitnessConfig{
			TimePenalty: DefaultTimePenalty,
		},
	}
}

// NumInputs is the input node count, one per grid cell.
func (c *Config) NumInputs() int {
	return c.Grid.Rows * c.Grid.Cols
}

// EliteCount returns ceil(EliteFraction * popSize), at least 1 for a
// non-empty population.
func (c *Config) EliteCount(popSize int) int {
	if popSize <= 0 {
		return 0
	}
	n := int(math.Ceil(c.Reproduction.EliteFraction * float64(popSize)))
	if n < 1 {
		n = 1
	}
	if n > popSize {
		n = popSize
	}
	return n
}

// NextGenerationSize is the size a generation of popSize genomes turns into.
// It is generally not equal to popSize.
func (c *Config) NextGenerationSize(popSize int) int {
	rounds := 1 + c.Reproduction.EdgeMutationRounds + c.Reproduction.NodeMutationRounds
	return rounds * c.EliteCount(popSize)
}

// LoadConfig loads configuration parameters from an INI file.
func LoadConfig(filePath string) (*Config, error) {
	cfg, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment:         true,
		UnescapeValueCommentSymbols: true,
	}, filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file '%s': %w", filePath, err)
	}

	// Keys missing from the file keep their reference values.
	config := DefaultConfig()

	if err := cfg.Section("NEAT").MapTo(&config.Neat); err != nil {
		return nil, fmt.Errorf("failed to map [NEAT] section: %w", err)
	}
	if err := cfg.Section("Grid").MapTo(&config.Grid); err != nil {
		return nil, fmt.Errorf("failed to map [Grid] section: %w", err)
	}
	if err := cfg.Section("Reproduction").MapTo(&config.Reproduction); err != nil {
		return nil, fmt.Errorf("failed to map [Reproduction] section: %w", err)
	}
	if err := cfg.Section("Fitness").MapTo(&config.Fitness); err != nil {
		return nil, fmt.Errorf("failed to map [Fitness] section: %w", err)
	}

	// Keep the player anchor proportional when only the grid size changed.
	grid := cfg.Section("Grid")
	if !grid.HasKey("player_row") {
		config.Grid.PlayerRow = float64(config.Grid.Rows) / 2
	}
	if !grid.HasKey("player_col") {
		config.Grid.PlayerCol = float64(config.Grid.Cols) * 10 / DefaultCols
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// WorkerCount resolves the configured worker count; 0 means one per CPU.
func (c *Config) WorkerCount() int {
	if c.Neat.Workers > 0 {
		return c.Neat.Workers
	}
	return runtime.NumCPU()
}

// Validate checks the configuration for values the core cannot work with.
func (c *Config) Validate() error {
	if c.Neat.PopSize <= 0 {
		return fmt.Errorf("config error: pop_size must be positive")
	}
	if c.Neat.Workers < 0 {
		return fmt.Errorf("config error: workers cannot be negative")
	}
	if c.Grid.Rows <= 0 || c.Grid.Cols <= 0 {
		return fmt.Errorf("config error: rows and cols must be positive")
	}
	if c.Grid.NumOutputs <= 0 {
		return fmt.Errorf("config error: num_outputs must be positive")
	}
	if c.Grid.SigmaRow < 0 || c.Grid.SigmaCol < 0 {
		return fmt.Errorf("config error: sigma_row and sigma_col cannot be negative")
	}
	if c.Reproduction.EliteFraction <= 0 || c.Reproduction.EliteFraction > 1 {
		return fmt.Errorf("config error: elite_fraction must be in (0, 1]")
	}
	if c.Reproduction.EdgeMutationRounds < 0 || c.Reproduction.NodeMutationRounds < 0 {
		return fmt.Errorf("config error: mutation rounds cannot be negative")
	}
	if c.Reproduction.MaxEdgeAttempts <= 0 {
		return fmt.Errorf("config error: max_edge_attempts must be positive")
	}
	if c.Fitness.TimePenalty < 0 {
		return fmt.Errorf("config error: time_penalty cannot be negative")
	}
	return nil
}
