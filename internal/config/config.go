// Package config loads service and analysis settings from the environment,
// an optional .env file and an optional YAML analysis file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"trade-report-lab/internal/correlation"
	"trade-report-lab/internal/distribution"
	"trade-report-lab/internal/domain"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid config")

// Config is the environment-driven configuration shared by the binaries.
type Config struct {
	HTTPAddr       string        `env:"HTTP_ADDR" envDefault:":8080"`
	PostgresDSN    string        `env:"POSTGRES_DSN"`
	ClickhouseDSN  string        `env:"CLICKHOUSE_DSN"`
	UseMemory      bool          `env:"USE_MEMORY" envDefault:"false"`
	LogLevel       string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat      string        `env:"LOG_FORMAT" envDefault:"json"`
	TracingEnabled bool          `env:"TRACING_ENABLED" envDefault:"false"`
	CORSOrigin     string        `env:"CORS_ORIGIN" envDefault:"*"`
	CacheTTL       time.Duration `env:"CACHE_TTL" envDefault:"10m"`
	CacheMaxCost   int64         `env:"CACHE_MAX_COST" envDefault:"256"` // cached reports
	MaxUploadBytes int64         `env:"MAX_UPLOAD_BYTES" envDefault:"33554432"`
	AnalysisFile   string        `env:"ANALYSIS_FILE"`

	Analysis Analysis // from AnalysisFile, else DefaultAnalysis
}

// Analysis holds the tunable parameters of one report run.
type Analysis struct {
	Simulation         SimulationConfig `yaml:"simulation"`
	ProfitBins         int              `yaml:"profit_bins"`
	MinCorrelationDays int              `yaml:"min_correlation_days"`
}

// SimulationConfig mirrors domain.SimulationParams in YAML.
type SimulationConfig struct {
	Runs           int     `yaml:"runs"`
	Horizon        int     `yaml:"horizon"`
	StartingEquity float64 `yaml:"starting_equity"` // 0 means the report's final equity
	Seed           uint64  `yaml:"seed"`
	Workers        int     `yaml:"workers"`
}

// DefaultAnalysis returns the built-in analysis parameters.
func DefaultAnalysis() Analysis {
	return Analysis{
		Simulation: SimulationConfig{
			Runs:    domain.DefaultSimulationParams.Runs,
			Horizon: domain.DefaultSimulationParams.Horizon,
			Seed:    domain.DefaultSimulationParams.Seed,
		},
		ProfitBins:         distribution.DefaultProfitBins,
		MinCorrelationDays: correlation.DefaultMinActiveDays,
	}
}

// SimulationParams converts to the simulator's parameters.
func (a Analysis) SimulationParams(startingEquity float64) domain.SimulationParams {
	if a.Simulation.StartingEquity > 0 {
		startingEquity = a.Simulation.StartingEquity
	}
	return domain.SimulationParams{
		Runs:           a.Simulation.Runs,
		Horizon:        a.Simulation.Horizon,
		StartingEquity: startingEquity,
		Seed:           a.Simulation.Seed,
		Workers:        a.Simulation.Workers,
	}
}

// Load reads envFile (if it exists) into the process environment without
// overriding variables already set, parses Config and loads the analysis file.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	cfg.Analysis = DefaultAnalysis()
	if cfg.AnalysisFile != "" {
		a, err := LoadAnalysis(cfg.AnalysisFile)
		if err != nil {
			return Config{}, err
		}
		cfg.Analysis = a
	}

	return cfg, nil
}

// LoadAnalysis reads a YAML analysis file over the defaults.
func LoadAnalysis(path string) (Analysis, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Analysis{}, fmt.Errorf("read analysis file: %w", err)
	}

	a := DefaultAnalysis()
	if err := yaml.Unmarshal(raw, &a); err != nil {
		return Analysis{}, fmt.Errorf("parse analysis file %s: %w", path, err)
	}
	return a, nil
}

// Validate checks the settings every binary relies on.
func (c Config) Validate() error {
	switch c.LogFormat {
	case "json", "console":
	default:
		return fmt.Errorf("%w: log format %q (want json or console)", ErrInvalidConfig, c.LogFormat)
	}
	if c.CacheMaxCost <= 0 {
		return fmt.Errorf("%w: cache max cost must be positive", ErrInvalidConfig)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("%w: max upload bytes must be positive", ErrInvalidConfig)
	}
	return c.Analysis.Validate()
}

// ValidateStorage checks that persistent stores are configured unless memory mode is on.
func (c Config) ValidateStorage() error {
	if c.UseMemory {
		return nil
	}
	if c.PostgresDSN == "" || c.ClickhouseDSN == "" {
		return fmt.Errorf("%w: POSTGRES_DSN and CLICKHOUSE_DSN are required (set USE_MEMORY=true for in-memory storage)", ErrInvalidConfig)
	}
	return nil
}

// Validate checks analysis parameter ranges.
func (a Analysis) Validate() error {
	if a.Simulation.Runs <= 0 {
		return fmt.Errorf("%w: simulation runs must be positive", ErrInvalidConfig)
	}
	if a.Simulation.Horizon <= 0 {
		return fmt.Errorf("%w: simulation horizon must be positive", ErrInvalidConfig)
	}
	if a.Simulation.StartingEquity < 0 {
		return fmt.Errorf("%w: starting equity must not be negative", ErrInvalidConfig)
	}
	if a.ProfitBins <= 0 {
		return fmt.Errorf("%w: profit bins must be positive", ErrInvalidConfig)
	}
	if a.MinCorrelationDays <= 0 {
		return fmt.Errorf("%w: min correlation days must be positive", ErrInvalidConfig)
	}
	return nil
}
