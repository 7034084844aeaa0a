package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the process configuration shared by the binaries.
type Config struct {
	HTTPAddr       string        `env:"GACHAPLAN_HTTP_ADDR" envDefault:":8080"`
	GRPCAddr       string        `env:"GACHAPLAN_GRPC_ADDR" envDefault:":9090"`
	ConfigDir      string        `env:"GACHAPLAN_CONFIG_DIR" envDefault:"configs"`
	LogLevel       string        `env:"GACHAPLAN_LOG_LEVEL" envDefault:"info"`
	LogFormat      string        `env:"GACHAPLAN_LOG_FORMAT" envDefault:"text"`
	LogFile        string        `env:"GACHAPLAN_LOG_FILE"`
	Workers        int           `env:"GACHAPLAN_WORKERS"`
	MaxRepetitions int           `env:"GACHAPLAN_MAX_REPETITIONS" envDefault:"100000"`
	ReloadInterval time.Duration `env:"GACHAPLAN_RELOAD_INTERVAL" envDefault:"2s"`
	OTelEndpoint   string        `env:"GACHAPLAN_OTEL_ENDPOINT"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load returns Config populated from the environment.
func Load() (Config, error) {
	var c Config
	if err := ParseEnv(&c); err != nil {
		return Config{}, err
	}
	if c.MaxRepetitions <= 0 {
		return Config{}, fmt.Errorf("GACHAPLAN_MAX_REPETITIONS must be > 0, got %d", c.MaxRepetitions)
	}
	return c, nil
}
