package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	AnthropicAPIKey string `yaml:"anthropic_api_key"`
	SerpAPIKey      string `yaml:"serpapi_api_key"`
	PexelsAPIKey    string `yaml:"pexels_api_key"`

	DocumentTitle string   `yaml:"document_title"`
	Sections      []string `yaml:"sections"`
	ProMode       bool     `yaml:"pro_mode"`

	ImageTimeoutSeconds        int     `yaml:"image_timeout_seconds"`
	CostTargetUSD              float64 `yaml:"cost_target_usd"`
	ExternalHTTPTimeoutSeconds int     `yaml:"external_http_timeout_seconds"`

	OutputDir string `yaml:"output_dir"`
	DBPath    string `yaml:"db_path"`

	SlackBotToken  string `yaml:"slack_bot_token"`
	SlackChannelID string `yaml:"slack_channel_id"`
	DigestSchedule string `yaml:"digest_schedule"`
	RetentionDays  int    `yaml:"retention_days"`
}

func LoadConfig() Config {
	var cfg Config

	// .env is optional; real env vars still win below.
	_ = godotenv.Load()

	// Load from config.yaml if it exists
	configPath := "config.yaml"
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		configPath = envPath
	}
	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			log.Fatalf("Error parsing %s: %v", configPath, err)
		}
		log.Printf("Loaded config from %s", configPath)
	}

	// Env vars override YAML values
	envOverride(&cfg.AnthropicAPIKey, "ANTHROPIC_API_KEY")
	envOverride(&cfg.SerpAPIKey, "SERPAPI_API_KEY")
	envOverride(&cfg.PexelsAPIKey, "PEXELS_API_KEY")
	envOverride(&cfg.DocumentTitle, "DOCUMENT_TITLE")
	envOverrideBool(&cfg.ProMode, "PRO_MODE")
	envOverrideInt(&cfg.ImageTimeoutSeconds, "IMAGE_TIMEOUT_SECONDS")
	envOverrideFloat(&cfg.CostTargetUSD, "COST_TARGET_USD")
	envOverrideInt(&cfg.ExternalHTTPTimeoutSeconds, "EXTERNAL_HTTP_TIMEOUT_SECONDS")
	envOverride(&cfg.OutputDir, "OUTPUT_DIR")
	envOverride(&cfg.DBPath, "DB_PATH")
	envOverride(&cfg.SlackBotToken, "SLACK_BOT_TOKEN")
	envOverride(&cfg.SlackChannelID, "SLACK_CHANNEL_ID")
	envOverride(&cfg.DigestSchedule, "DIGEST_SCHEDULE")
	envOverrideInt(&cfg.RetentionDays, "RETENTION_DAYS")

	if titles := os.Getenv("SECTIONS"); titles != "" {
		cfg.Sections = nil
		for _, title := range strings.Split(titles, ",") {
			title = strings.TrimSpace(title)
			if title != "" {
				cfg.Sections = append(cfg.Sections, title)
			}
		}
	}

	// Defaults
	if cfg.ImageTimeoutSeconds == 0 {
		cfg.ImageTimeoutSeconds = 15
	}
	if cfg.CostTargetUSD == 0 {
		cfg.CostTargetUSD = 0.20
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "./documents"
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "./docforge.db"
	}
	if cfg.RetentionDays == 0 {
		cfg.RetentionDays = 90
	}

	// Validate required fields
	if cfg.AnthropicAPIKey == "" {
		log.Fatalf("Required config 'anthropic_api_key' is not set (via config.yaml or env var)")
	}
	if cfg.DocumentTitle == "" {
		log.Fatalf("Required config 'document_title' is not set (via config.yaml or env var)")
	}
	if cfg.ImageTimeoutSeconds < 1 {
		log.Fatalf("invalid image_timeout_seconds '%d': must be >= 1", cfg.ImageTimeoutSeconds)
	}
	if cfg.CostTargetUSD < 0 {
		log.Fatalf("invalid cost_target_usd '%f': must be >= 0", cfg.CostTargetUSD)
	}
	if cfg.RetentionDays < 1 {
		log.Fatalf("invalid retention_days '%d': must be >= 1", cfg.RetentionDays)
	}

	return cfg
}

// ImageSearchConfigured gates the primary image curation path.
func (c Config) ImageSearchConfigured() bool {
	return strings.TrimSpace(c.SerpAPIKey) != ""
}

// PhotosConfigured gates the remote tier of the fallback chain.
func (c Config) PhotosConfigured() bool {
	return strings.TrimSpace(c.PexelsAPIKey) != ""
}

// SlackConfigured gates budget alerts and digests.
func (c Config) SlackConfigured() bool {
	return strings.TrimSpace(c.SlackBotToken) != "" && strings.TrimSpace(c.SlackChannelID) != ""
}

func envOverride(field *string, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}

func envOverrideInt(field *int, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			log.Fatalf("invalid %s '%s': %v", envKey, val, err)
		}
		*field = parsed
	}
}

func envOverrideFloat(field *float64, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.ParseFloat(val, 64)
		if err != nil {
			log.Fatalf("invalid %s '%s': %v", envKey, val, err)
		}
		*field = parsed
	}
}

func envOverrideBool(field *bool, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.ParseBool(val)
		if err != nil {
			log.Fatalf("invalid %s '%s': %v", envKey, val, err)
		}
		*field = parsed
	}
}
