package config

import (
	"fmt"
	"os"
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
		Level  string `env:"LOG_LEVEL" envDefault:"info"`
		Format string `env:"LOG_FORMAT" envDefault:"json"`
		Output string `env:"LOG_OUTPUT" envDefault:"stderr"`
	}
	Solver struct {
		Name       string        `env:"SOLVER_NAME" envDefault:"nelder-mead"`
		Path       string        `env:"SOLVER_PATH"`
		Timeout    time.Duration `env:"SOLVER_TIMEOUT" envDefault:"30s"`
		Seed       int64         `env:"SOLVER_SEED" envDefault:"1"`
		Concurrent bool          `env:"SOLVER_CONCURRENT" envDefault:"false"`
	}
	Sweep struct {
		Resolution    int     `env:"SWEEP_RESOLUTION" envDefault:"10"`
		Workers       int     `env:"SWEEP_WORKERS" envDefault:"1"`
		DominanceTol  float64 `env:"SWEEP_DOMINANCE_TOL" envDefault:"1e-9"`
		CrossCheckTol float64 `env:"SWEEP_CROSS_CHECK_TOL" envDefault:"1e-6"`
	}
}

func Load() (*Config, error) {
	cfg := &Config{}

	// Parse environment variables
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	// Development builds default to verbose logging unless the
	// operator asked for something specific.
	if cfg.Environment == "development" {
		if _, set := os.LookupEnv("LOG_LEVEL"); !set {
			cfg.Logging.Level = "debug"
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Sweep.Resolution < 1 {
		return fmt.Errorf("config: sweep resolution must be at least 1, got %d", c.Sweep.Resolution)
	}
	if c.Sweep.Workers < 1 {
		return fmt.Errorf("config: sweep workers must be at least 1, got %d", c.Sweep.Workers)
	}
	if c.Sweep.DominanceTol < 0 {
		return fmt.Errorf("config: dominance tolerance must not be negative, got %g", c.Sweep.DominanceTol)
	}
	if c.Sweep.CrossCheckTol < 0 {
		return fmt.Errorf("config: cross-check tolerance must not be negative, got %g", c.Sweep.CrossCheckTol)
	}
	if c.Solver.Timeout <= 0 {
		return fmt.Errorf("config: solver timeout must be positive, got %s", c.Solver.Timeout)
	}
	if c.HTTP.Port < 1 || c.HTTP.Port > 65535 {
		return fmt.Errorf("config: http port must be in [1, 65535], got %d", c.HTTP.Port)
	}
	return nil
}
