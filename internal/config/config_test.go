package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing config file: %v", err)
	}
	return path
}

func TestLoadConfigFromYAML(t *testing.T) {
	path := writeConfigFile(t, `
anthropic_api_key: test-key
document_title: 사업 계획서
sections:
  - 시장 분석
  - 일정 및 마일스톤
pro_mode: true
cost_target_usd: 0.5
`)
	t.Setenv("CONFIG_PATH", path)

	cfg := LoadConfig()
	if cfg.AnthropicAPIKey != "test-key" {
		t.Fatalf("AnthropicAPIKey = %q, want test-key", cfg.AnthropicAPIKey)
	}
	if cfg.DocumentTitle != "사업 계획서" {
		t.Fatalf("DocumentTitle = %q", cfg.DocumentTitle)
	}
	if len(cfg.Sections) != 2 {
		t.Fatalf("Sections = %v, want 2 entries", cfg.Sections)
	}
	if !cfg.ProMode {
		t.Fatal("ProMode should be true")
	}
	if cfg.CostTargetUSD != 0.5 {
		t.Fatalf("CostTargetUSD = %f, want 0.5", cfg.CostTargetUSD)
	}

	// Defaults fill the rest.
	if cfg.ImageTimeoutSeconds != 15 {
		t.Fatalf("ImageTimeoutSeconds = %d, want default 15", cfg.ImageTimeoutSeconds)
	}
	if cfg.RetentionDays != 90 {
		t.Fatalf("RetentionDays = %d, want default 90", cfg.RetentionDays)
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	path := writeConfigFile(t, `
anthropic_api_key: yaml-key
document_title: from yaml
sections: [one]
`)
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("ANTHROPIC_API_KEY", "env-key")
	t.Setenv("PRO_MODE", "true")
	t.Setenv("SECTIONS", "시장 분석, 부록 A, ")
	t.Setenv("IMAGE_TIMEOUT_SECONDS", "30")

	cfg := LoadConfig()
	if cfg.AnthropicAPIKey != "env-key" {
		t.Fatalf("env must override yaml, got %q", cfg.AnthropicAPIKey)
	}
	if !cfg.ProMode {
		t.Fatal("PRO_MODE env override failed")
	}
	if len(cfg.Sections) != 2 || cfg.Sections[0] != "시장 분석" || cfg.Sections[1] != "부록 A" {
		t.Fatalf("SECTIONS env override failed: %v", cfg.Sections)
	}
	if cfg.ImageTimeoutSeconds != 30 {
		t.Fatalf("ImageTimeoutSeconds = %d, want 30", cfg.ImageTimeoutSeconds)
	}
}

func TestProviderGates(t *testing.T) {
	cfg := Config{}
	if cfg.ImageSearchConfigured() || cfg.PhotosConfigured() || cfg.SlackConfigured() {
		t.Fatal("empty config must gate all providers off")
	}

	cfg.SerpAPIKey = " "
	if cfg.ImageSearchConfigured() {
		t.Fatal("whitespace key must not count as configured")
	}

	cfg.SerpAPIKey = "k"
	cfg.PexelsAPIKey = "k"
	cfg.SlackBotToken = "xoxb"
	if !cfg.ImageSearchConfigured() || !cfg.PhotosConfigured() {
		t.Fatal("provider gates should be on")
	}
	if cfg.SlackConfigured() {
		t.Fatal("slack needs both a token and a channel")
	}
	cfg.SlackChannelID = "C123"
	if !cfg.SlackConfigured() {
		t.Fatal("slack gate should be on")
	}
}
