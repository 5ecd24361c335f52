package config

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var loadDotEnv sync.Once

// Load parses environment variables into a fresh T. On the first call it
// also loads ./.env into the process environment if the file exists;
// variables already set in the environment win over .env values.
func Load[T any]() (T, error) {
	var cfg T

	var dotEnvErr error
	loadDotEnv.Do(func() {
		if _, err := os.Stat(".env"); err == nil {
			if err := godotenv.Load(); err != nil {
				dotEnvErr = errors.Join(ErrLoadingEnv, err)
			}
		}
	})
	if dotEnvErr != nil {
		return cfg, dotEnvErr
	}

	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("%w: %w", ErrParsingConfig, err)
	}
	return cfg, nil
}

// MustLoad is Load but panics on error. Intended for main, where a missing
// required variable should stop startup.
func MustLoad[T any]() T {
	cfg, err := Load[T]()
	if err != nil {
		panic(err)
	}
	return cfg
}
