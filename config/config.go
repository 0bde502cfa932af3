// Package config loads harness settings from the environment, with an
// optional .env override file in the working directory.
package config

import (
	"os"

	"github.com/joho/godotenv"
)

// DefaultBaseURL is used when BASE_URL is not set.
const DefaultBaseURL = "https://automationexercise.com"

// Config holds the settings a test run needs. Populated once by Load,
// read-only afterwards.
type Config struct {
	BaseURL  string
	Username string
	Password string
}

// Load reads configuration from the environment. A .env file in the working
// directory pre-populates variables when present; its absence is not an
// error. Missing credentials yield empty strings, never failures.
func Load() *Config {
	// .env is optional
	_ = godotenv.Load()

	baseURL := os.Getenv("BASE_URL")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Config{
		BaseURL:  baseURL,
		Username: os.Getenv("AE_USERNAME"),
		Password: os.Getenv("AE_PASSWORD"),
	}
}
