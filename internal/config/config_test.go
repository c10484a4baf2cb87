package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// clearEnv blanks the variables Load consults; empty values are treated
// as unset.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		configPathEnv,
		"GEMINI_API_KEY", "GEMINI_MODEL", "GEMINI_BASE_URL",
		"BRAVE_API_KEY", "BRAVE_ENDPOINT",
		"MAX_RETRIES", "ATTEMPT_TIMEOUT", "RATE_LIMIT_RPS",
		"CLASSIFIER_ESCALATION_THRESHOLD",
		"SEARCH_COUNT", "MAX_FETCH_URLS", "MAX_CONCURRENT_FETCHES",
	} {
		t.Setenv(name, "")
	}
}

func TestLoad_DefaultsWhenNothingSet(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Gemini.Model != "gemini-2.5-flash" {
		t.Fatalf("unexpected default model %q", cfg.Gemini.Model)
	}
	if cfg.Retry.MaxRetries != 2 || cfg.Retry.AttemptTimeout != 30*time.Second {
		t.Fatalf("unexpected retry defaults: %#v", cfg.Retry)
	}
	if cfg.Classifier.EscalationThreshold != 0.75 {
		t.Fatalf("unexpected escalation threshold %f", cfg.Classifier.EscalationThreshold)
	}
	if cfg.Enrich.SearchCount != 5 || cfg.Enrich.MaxFetchURLs != 3 || cfg.Enrich.MaxConcurrentFetches != 3 {
		t.Fatalf("unexpected enrich defaults: %#v", cfg.Enrich)
	}
}

func TestLoad_YAMLFileOverridesDefaults(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "placard.yml")
	yml := `
gemini:
  model: gemini-2.5-pro
retry:
  maxRetries: 5
enrich:
  searchCount: 8
`
	if err := os.WriteFile(path, []byte(yml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(configPathEnv, path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Gemini.Model != "gemini-2.5-pro" {
		t.Fatalf("yaml model not applied: %q", cfg.Gemini.Model)
	}
	if cfg.Retry.MaxRetries != 5 {
		t.Fatalf("yaml maxRetries not applied: %d", cfg.Retry.MaxRetries)
	}
	if cfg.Enrich.SearchCount != 8 {
		t.Fatalf("yaml searchCount not applied: %d", cfg.Enrich.SearchCount)
	}
	// Untouched sections keep their defaults.
	if cfg.Enrich.MaxFetchURLs != 3 {
		t.Fatalf("default maxFetchUrls lost: %d", cfg.Enrich.MaxFetchURLs)
	}
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "placard.yml")
	if err := os.WriteFile(path, []byte("retry:\n  maxRetries: 5\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(configPathEnv, path)
	t.Setenv("MAX_RETRIES", "7")
	t.Setenv("GEMINI_API_KEY", "env-key")
	t.Setenv("ATTEMPT_TIMEOUT", "45s")
	t.Setenv("CLASSIFIER_ESCALATION_THRESHOLD", "0.6")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Retry.MaxRetries != 7 {
		t.Fatalf("env maxRetries should win over yaml: %d", cfg.Retry.MaxRetries)
	}
	if cfg.Gemini.APIKey != "env-key" {
		t.Fatalf("env api key not applied: %q", cfg.Gemini.APIKey)
	}
	if cfg.Retry.AttemptTimeout != 45*time.Second {
		t.Fatalf("env attempt timeout not applied: %s", cfg.Retry.AttemptTimeout)
	}
	if cfg.Classifier.EscalationThreshold != 0.6 {
		t.Fatalf("env threshold not applied: %f", cfg.Classifier.EscalationThreshold)
	}
}

func TestLoad_MissingConfigFileFails(t *testing.T) {
	clearEnv(t)
	t.Setenv(configPathEnv, filepath.Join(t.TempDir(), "does-not-exist.yml"))

	if _, err := Load(); err == nil {
		t.Fatal("expected error for unreadable config file")
	}
}

func TestLoad_MalformedEnvValueIsIgnored(t *testing.T) {
	clearEnv(t)
	t.Setenv("MAX_RETRIES", "many")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Retry.MaxRetries != 2 {
		t.Fatalf("malformed env value must leave the default: %d", cfg.Retry.MaxRetries)
	}
}
