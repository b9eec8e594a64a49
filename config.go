package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Config is read from the environment.
type Config struct {
	Port         string
	GCPProjectID string
	GCPRegion    string
	GeminiModel  string
	GlossaryPath string
	LogLevel     zerolog.Level
}

// LoadConfig reads PORT, GCP_PROJECT_ID, GCP_REGION, GEMINI_MODEL,
// GLOSSARY_PATH and LOG_LEVEL.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetDefault("port", "8080")
	v.SetDefault("gcp_project_id", "")
	v.SetDefault("gcp_region", defaultRegion)
	v.SetDefault("gemini_model", defaultModel)
	v.SetDefault("glossary_path", "")
	v.SetDefault("log_level", "info")
	v.AutomaticEnv()

	lvl, err := zerolog.ParseLevel(v.GetString("log_level"))
	if err != nil {
		return nil, fmt.Errorf("LOG_LEVEL: %w", err)
	}

	return &Config{
		Port:         v.GetString("port"),
		GCPProjectID: v.GetString("gcp_project_id"),
		GCPRegion:    v.GetString("gcp_region"),
		GeminiModel:  v.GetString("gemini_model"),
		GlossaryPath: v.GetString("glossary_path"),
		LogLevel:     lvl,
	}, nil
}

func setupLogging(lvl zerolog.Level) {
	zerolog.SetGlobalLevel(lvl)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
}
