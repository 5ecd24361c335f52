package config

import "errors"

var (
	// ErrParsingConfig wraps env parsing failures (missing required
	// variables, unparsable values).
	ErrParsingConfig = errors.New("failed to parse config")

	// ErrLoadingEnv wraps failures reading an existing .env file.
	ErrLoadingEnv = errors.New("failed to load .env file")
)
