package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

type Config struct {
	Environment string `env:"ENV" envDefault:"development"`
	HTTP        struct {
		Port            int           `env:"HTTP_PORT" envDefault:"8080"`
		ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"30s"`
		WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`
		IdleTimeout     time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`
		ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"30s"`
	}
	Logging struct {
		Level  string `env:"LOG_LEVEL"`
		Format string `env:"LOG_FORMAT" envDefault:"json"`
		Output string `env:"LOG_OUTPUT" envDefault:"stderr"`
	}
	Database struct {
		Type string `env:"DB_TYPE" envDefault:"sqlite"`
		DSN  string `env:"DB_DSN"`
	}
	Optimization struct {
		WorkerCount int `env:"OPT_WORKER_COUNT" envDefault:"10"`
		// TraceDir, when set, receives one JSONL trace file per finished run.
		TraceDir string `env:"OPT_TRACE_DIR"`

		Anneal struct {
			InitialTemp   float64       `env:"OPT_ANNEAL_INITIAL_TEMP" envDefault:"1"`
			FinalTemp     float64       `env:"OPT_ANNEAL_FINAL_TEMP" envDefault:"0.1"`
			MaxIterations int           `env:"OPT_ANNEAL_MAX_ITERATIONS" envDefault:"1000"`
			MaxTime       time.Duration `env:"OPT_ANNEAL_MAX_TIME" envDefault:"100s"`
		}
		Colony struct {
			PopulationSize       int     `env:"OPT_COLONY_POPULATION_SIZE" envDefault:"100"`
			AbandonmentLimit     int     `env:"OPT_COLONY_ABANDONMENT_LIMIT" envDefault:"100"`
			ConvergenceThreshold float64 `env:"OPT_COLONY_CONVERGENCE_THRESHOLD" envDefault:"0.01"`
			StagnationRounds     int     `env:"OPT_COLONY_STAGNATION_ROUNDS" envDefault:"10"`
			MaxIterations        int     `env:"OPT_COLONY_MAX_ITERATIONS" envDefault:"100000"`
			Weighting            string  `env:"OPT_COLONY_WEIGHTING" envDefault:"fitness"`
		}
	}
}

func Load() (*Config, error) {
	cfg := &Config{}

	// Parse environment variables
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	// Set default logging level based on environment
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
		if cfg.Environment == "development" {
			cfg.Logging.Level = "debug"
		}
	}

	// Set default database DSN based on type
	if cfg.Database.DSN == "" {
		switch cfg.Database.Type {
		case "sqlite":
			// Ensure the data directory exists
			if err := os.MkdirAll("data", 0o755); err != nil {
				return nil, err
			}
			cfg.Database.DSN = filepath.Join("data", "annealhive.db")
		case "memory":
		default:
			return nil, fmt.Errorf("unsupported database type %q", cfg.Database.Type)
		}
	}

	if cfg.Optimization.WorkerCount < 1 {
		return nil, fmt.Errorf("OPT_WORKER_COUNT must be at least 1, got %d", cfg.Optimization.WorkerCount)
	}
	cfg.Optimization.Colony.Weighting = strings.ToLower(cfg.Optimization.Colony.Weighting)

	return cfg, nil
}
