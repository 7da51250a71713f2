// Package config loads injector settings from the environment.
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// DefaultSpecializationThreshold is the number of calls after which a supplier
// switches to its specialized invocation path.
const DefaultSpecializationThreshold = 3

// Config holds the settings an injector reads from the environment.
type Config struct {
	Debug                   bool
	LogFormat               string // text | json
	SpecializationThreshold int
}

// Load reads the given .env files (".env" when none are given) and returns the
// resulting configuration. Missing files are not an error. Variables already
// present in the environment take precedence over the files.
func Load(envFiles ...string) Config {
	files := envFiles
	if len(files) == 0 {
		files = []string{".env"}
	}
	_ = godotenv.Load(files...)

	return FromEnv()
}

// FromEnv builds a Config from the current environment only.
func FromEnv() Config {
	return Config{
		Debug:                   envBool("DEBUG", false),
		LogFormat:               strings.ToLower(env("LOG_FORMAT", "text")),
		SpecializationThreshold: envInt("GRAFT_SPECIALIZATION_THRESHOLD", DefaultSpecializationThreshold),
	}
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil || i < 0 {
		return fallback
	}
	return i
}
