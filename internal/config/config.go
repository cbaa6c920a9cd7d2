// Package config loads service configuration from a YAML file with
// environment variable overrides for secrets and deploy-time settings.
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the service.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Taxonomy   TaxonomyConfig   `yaml:"taxonomy"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Classifier ClassifierConfig `yaml:"classifier"`
	Export     ExportConfig     `yaml:"export"`
	Feeds      FeedsConfig      `yaml:"feeds"`
	LogLevel   string           `yaml:"log_level"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// TaxonomyConfig holds taxonomy source settings.
type TaxonomyConfig struct {
	// SourceLocation is an http(s) URL or filesystem path for the primary
	// taxonomy TSV. Empty means the bundled dataset only.
	SourceLocation string `yaml:"source_location"`
}

// DatabaseConfig holds postgres settings for segment persistence.
type DatabaseConfig struct {
	URL string `yaml:"url"`
}

// RedisConfig holds the classification cache settings.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	// CacheTTLHours bounds cached classifications; 0 uses the package default.
	CacheTTLHours int `yaml:"cache_ttl_hours"`
}

// ClassifierConfig holds the classification service client settings.
type ClassifierConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	// DryRun returns simulated classifications instead of calling the API.
	DryRun bool `yaml:"dry_run"`
}

// ExportConfig holds export archive settings.
type ExportConfig struct {
	S3Enabled bool   `yaml:"s3_enabled"`
	S3Bucket  string `yaml:"s3_bucket"`
	S3Region  string `yaml:"s3_region"`
	S3Prefix  string `yaml:"s3_prefix"`
}

// FeedsConfig holds article discovery settings.
type FeedsConfig struct {
	URLs []string `yaml:"urls"`
}

// Load reads and parses the configuration file and applies defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "localhost:6379"
	}
	if cfg.Export.S3Region == "" {
		cfg.Export.S3Region = "us-east-1"
	}
	if cfg.Export.S3Prefix == "" {
		cfg.Export.S3Prefix = "exports"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
}

// LoadFromEnv loads configuration with environment variable overrides.
// A .env file (if present) is loaded first, so secrets can live in .env
// locally and in real env vars in deployment.
func LoadFromEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if host := os.Getenv("SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}
	if loc := os.Getenv("TAXONOMY_SOURCE"); loc != "" {
		cfg.Taxonomy.SourceLocation = loc
	}
	if url := os.Getenv("DATABASE_URL"); url != "" {
		cfg.Database.URL = url
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Redis.Addr = addr
	}
	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		cfg.Redis.Password = password
	}
	if baseURL := os.Getenv("CLASSIFIER_BASE_URL"); baseURL != "" {
		cfg.Classifier.BaseURL = baseURL
	}
	if apiKey := os.Getenv("CLASSIFIER_API_KEY"); apiKey != "" {
		cfg.Classifier.APIKey = apiKey
	}
	if dryRun := os.Getenv("CLASSIFIER_DRY_RUN"); dryRun != "" {
		cfg.Classifier.DryRun = dryRun == "true" || dryRun == "1"
	}
	if bucket := os.Getenv("EXPORT_S3_BUCKET"); bucket != "" {
		cfg.Export.S3Bucket = bucket
		cfg.Export.S3Enabled = true
	}
	if region := os.Getenv("EXPORT_S3_REGION"); region != "" {
		cfg.Export.S3Region = region
	}
	if feeds := os.Getenv("FEED_URLS"); feeds != "" {
		var urls []string
		for _, u := range strings.Split(feeds, ",") {
			if u = strings.TrimSpace(u); u != "" {
				urls = append(urls, u)
			}
		}
		cfg.Feeds.URLs = urls
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.LogLevel = level
	}

	return cfg, nil
}
