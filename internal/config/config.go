package config

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Env      string `yaml:"env"`
	LogLevel string `yaml:"log_level"`
	Trivia   struct {
		BaseURL    string `yaml:"base_url"`
		Amount     int    `yaml:"amount"`
		Category   int    `yaml:"category"`
		Difficulty string `yaml:"difficulty"`
		Type       string `yaml:"type"`
		Timeout    string `yaml:"timeout"`
		UseToken   bool   `yaml:"use_token"`
	} `yaml:"trivia"`
	Quiz struct {
		CorrectDelay string `yaml:"correct_delay"`
		WrongDelay   string `yaml:"wrong_delay"`
	} `yaml:"quiz"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
}

// Default returns the settings used when no config file is present.
func Default() Config {
	cfg := Config{Env: "local", LogLevel: "warn"}
	cfg.Trivia.BaseURL = "https://opentdb.com"
	cfg.Trivia.Amount = 5
	cfg.Trivia.Category = 19
	cfg.Trivia.Difficulty = "easy"
	cfg.Trivia.Type = "multiple"
	cfg.Trivia.Timeout = "10s"
	cfg.Quiz.CorrectDelay = "600ms"
	cfg.Quiz.WrongDelay = "800ms"
	cfg.Redis.TTL = "6h"
	return cfg
}

// Load reads YAML config from path on top of the defaults. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
