// Package config assembles the orchestrator's environment-derived settings
// once at startup. Nothing downstream reads os.Getenv directly; Config is
// threaded explicitly from main through every constructor that needs it.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// DefaultOpenAIModel is used when OPENAI_MODEL is unset.
const DefaultOpenAIModel = "gpt-4o-mini"

// Config holds every setting sourced from the environment.
type Config struct {
	OpenAIAPIKey              string
	OpenAIModel               string
	GoogleAnalyticsTrackingID string
}

// Load loads a .env file from the current working directory, if present,
// then assembles Config from the process environment. A missing .env file
// is not an error; a missing OPENAI_API_KEY is.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("config: load .env: %w", err)
	}

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return Config{}, fmt.Errorf("config: OPENAI_API_KEY is required; set it in your environment or in a .env file in the current directory")
	}

	model := os.Getenv("OPENAI_MODEL")
	if model == "" {
		model = DefaultOpenAIModel
	}

	return Config{
		OpenAIAPIKey:              apiKey,
		OpenAIModel:               model,
		GoogleAnalyticsTrackingID: os.Getenv("GOOGLE_ANALYTICS_TRACKING_ID"),
	}, nil
}
