// Package config loads pipeline settings from an optional YAML file
// merged with environment variables. Tuning constants that came out of
// empirical calibration live here as named defaults rather than being
// re-derived.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const configPathEnv = "PLACARD_CONFIG"

type Config struct {
	Gemini     GeminiConfig     `yaml:"gemini"`
	Brave      BraveConfig      `yaml:"brave"`
	Retry      RetryConfig      `yaml:"retry"`
	Classifier ClassifierConfig `yaml:"classifier"`
	Enrich     EnrichConfig     `yaml:"enrich"`
}

type GeminiConfig struct {
	APIKey  string `yaml:"apiKey"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"baseUrl"`
}

type BraveConfig struct {
	APIKey   string `yaml:"apiKey"`
	Endpoint string `yaml:"endpoint"`
}

type RetryConfig struct {
	MaxRetries        int           `yaml:"maxRetries"`
	AttemptTimeout    time.Duration `yaml:"attemptTimeout"`
	RateLimitRPS      float64       `yaml:"rateLimitRps"`
	BackoffInitial    time.Duration `yaml:"backoffInitial"`
	BackoffMax        time.Duration `yaml:"backoffMax"`
	BackoffJitterFrac float64       `yaml:"backoffJitterFrac"`
}

type ClassifierConfig struct {
	// EscalationThreshold is the rule confidence below which ambiguous
	// spans go to the AI path.
	EscalationThreshold float64 `yaml:"escalationThreshold"`
}

type EnrichConfig struct {
	SearchCount          int `yaml:"searchCount"`
	MaxFetchURLs         int `yaml:"maxFetchUrls"`
	MaxConcurrentFetches int `yaml:"maxConcurrentFetches"`
}

// Default returns the calibrated defaults.
func Default() Config {
	return Config{
		Gemini: GeminiConfig{Model: "gemini-2.5-flash"},
		Retry: RetryConfig{
			MaxRetries:        2,
			AttemptTimeout:    30 * time.Second,
			BackoffInitial:    200 * time.Millisecond,
			BackoffMax:        2 * time.Second,
			BackoffJitterFrac: 0.2,
		},
		Classifier: ClassifierConfig{EscalationThreshold: 0.75},
		Enrich: EnrichConfig{
			SearchCount:          5,
			MaxFetchURLs:         3,
			MaxConcurrentFetches: 3,
		},
	}
}

// Load builds the effective configuration: defaults, then the YAML file
// named by PLACARD_CONFIG (if set), then environment variables.
func Load() (Config, error) {
	cfg := Default()

	if path := strings.TrimSpace(os.Getenv(configPathEnv)); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read %s: %w", configPathEnv, err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.Gemini.APIKey, "GEMINI_API_KEY")
	setString(&cfg.Gemini.Model, "GEMINI_MODEL")
	setString(&cfg.Gemini.BaseURL, "GEMINI_BASE_URL")
	setString(&cfg.Brave.APIKey, "BRAVE_API_KEY")
	setString(&cfg.Brave.Endpoint, "BRAVE_ENDPOINT")

	setInt(&cfg.Retry.MaxRetries, "MAX_RETRIES")
	setDuration(&cfg.Retry.AttemptTimeout, "ATTEMPT_TIMEOUT")
	setFloat(&cfg.Retry.RateLimitRPS, "RATE_LIMIT_RPS")

	setFloat(&cfg.Classifier.EscalationThreshold, "CLASSIFIER_ESCALATION_THRESHOLD")

	setInt(&cfg.Enrich.SearchCount, "SEARCH_COUNT")
	setInt(&cfg.Enrich.MaxFetchURLs, "MAX_FETCH_URLS")
	setInt(&cfg.Enrich.MaxConcurrentFetches, "MAX_CONCURRENT_FETCHES")
}

func setString(dst *string, varName string) {
	if v := strings.TrimSpace(os.Getenv(varName)); v != "" {
		*dst = v
	}
}

func setInt(dst *int, varName string) {
	if v := strings.TrimSpace(os.Getenv(varName)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat(dst *float64, varName string) {
	if v := strings.TrimSpace(os.Getenv(varName)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setDuration(dst *time.Duration, varName string) {
	if v := strings.TrimSpace(os.Getenv(varName)); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
