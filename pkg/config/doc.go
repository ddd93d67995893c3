// Package config loads typed configuration structs from environment
// variables using caarlos0/env tags, with optional .env support via godotenv.
//
// Every component of the service declares its own small config struct and
// loads it independently, which keeps configuration close to the code that
// consumes it:
//
//	var cfg pg.Config
//	config.MustLoad(&cfg)
package config
