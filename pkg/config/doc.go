// Package config loads typed configuration structs from environment
// variables. A .env file, when present, is loaded once before the first
// parse so local development does not need exported variables.
//
//	type ServerConfig struct {
//		Addr string `env:"HTTP_ADDR" envDefault:":8080"`
//	}
//
//	cfg, err := config.Load[ServerConfig]()
//
// Parsing is delegated to github.com/caarlos0/env, so all of its tag
// options (required, envDefault, expand) apply.
package config
