package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigPath is the default config location, relative to the working directory.
const ConfigPath = "config.yaml"

const (
	defaultPort             = "8080"
	defaultRateLimit        = 3
	defaultRateLimitWindow  = 5 * time.Minute
	defaultExportLinkExpiry = 15 * time.Minute
)

// FileConfig represents configuration loaded from YAML.
type FileConfig struct {
	Port              string   `yaml:"port"`
	LogLevel          string   `yaml:"logLevel"`
	LogFormat         string   `yaml:"logFormat"`
	DatabaseURL       string   `yaml:"databaseURL"`
	AutoMigrate       bool     `yaml:"autoMigrate"`
	RedisAddr         string   `yaml:"redisAddr"`
	RedisPassword     string   `yaml:"redisPassword"`
	RateLimit         int      `yaml:"rateLimit"`
	RateLimitWindow   string   `yaml:"rateLimitWindow"`
	TrustedProxyCIDRs []string `yaml:"trustedProxyCidrs"`
	AllowedOrigins    []string `yaml:"allowedOrigins"`
	AdminJWTSecret    string   `yaml:"adminJwtSecret"`
	AuthURL           string   `yaml:"authURL"`
	AuthServiceKey    string   `yaml:"authServiceKey"`
	AuthRedirectURL   string   `yaml:"authRedirectURL"`
	NotifyStream      string   `yaml:"notifyStream"`
	NotifyWebhookURL  string   `yaml:"notifyWebhookURL"`
	MinioEndpoint     string   `yaml:"minioEndpoint"`
	MinioAccessKey    string   `yaml:"minioAccessKey"`
	MinioSecretKey    string   `yaml:"minioSecretKey"`
	MinioBucket       string   `yaml:"minioBucket"`
	MinioUseSSL       bool     `yaml:"minioUseSSL"`
	ExportLinkExpiry  string   `yaml:"exportLinkExpiry"`
}

// Load reads config from path (defaults to config.yaml) and applies
// environment overrides. A missing default file is not an error: every
// collaborator is optional and the service then runs on fallbacks.
func Load(path string) (FileConfig, error) {
	cfg := FileConfig{}
	explicit := path != ""
	if path == "" {
		path = ConfigPath
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return cfg, fmt.Errorf("read config: %w", err)
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)
	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *FileConfig) {
	setString(&cfg.Port, "PORT")
	setString(&cfg.LogLevel, "LOG_LEVEL")
	setString(&cfg.LogFormat, "LOG_FORMAT")
	setString(&cfg.DatabaseURL, "DATABASE_URL")
	setString(&cfg.RedisAddr, "REDIS_ADDR")
	setString(&cfg.RedisPassword, "REDIS_PASSWORD")
	setString(&cfg.AdminJWTSecret, "SITE_ADMIN_JWT_SECRET")
	setString(&cfg.AuthURL, "SITE_AUTH_URL")
	setString(&cfg.AuthServiceKey, "SITE_AUTH_SERVICE_KEY")
	setString(&cfg.AuthRedirectURL, "SITE_AUTH_REDIRECT_URL")
	setString(&cfg.NotifyWebhookURL, "SITE_NOTIFY_WEBHOOK_URL")
	setString(&cfg.MinioEndpoint, "MINIO_ENDPOINT")
	setString(&cfg.MinioAccessKey, "MINIO_ACCESS_KEY")
	setString(&cfg.MinioSecretKey, "MINIO_SECRET_KEY")
	setString(&cfg.MinioBucket, "MINIO_BUCKET")
	if v := os.Getenv("MINIO_USE_SSL"); v != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			cfg.MinioUseSSL = b
		}
	}
	if v := os.Getenv("SITE_AUTO_MIGRATE"); v != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			cfg.AutoMigrate = b
		}
	}
	if v := os.Getenv("SITE_RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			cfg.RateLimit = n
		}
	}
	setString(&cfg.RateLimitWindow, "SITE_RATE_LIMIT_WINDOW")
	if v := os.Getenv("SITE_TRUSTED_PROXY_CIDRS"); v != "" {
		cfg.TrustedProxyCIDRs = splitCSV(v)
	}
	if v := os.Getenv("SITE_ALLOWED_ORIGINS"); v != "" {
		cfg.AllowedOrigins = splitCSV(v)
	}
}

func setString(dst *string, env string) {
	if v := strings.TrimSpace(os.Getenv(env)); v != "" {
		*dst = v
	}
}

func applyDefaults(cfg *FileConfig) {
	if cfg.Port == "" {
		cfg.Port = defaultPort
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = defaultRateLimit
	}
}

func validateConfig(cfg FileConfig) error {
	if _, err := strconv.Atoi(cfg.Port); err != nil {
		return fmt.Errorf("config: port must be numeric, got %q", cfg.Port)
	}
	if cfg.RateLimit < 0 {
		return errors.New("config: rateLimit must be positive")
	}
	if _, err := cfg.RateLimitWindowDuration(); err != nil {
		return err
	}
	if _, err := cfg.ExportLinkExpiryDuration(); err != nil {
		return err
	}
	if (cfg.AuthURL == "") != (cfg.AuthServiceKey == "") {
		return errors.New("config: authURL and authServiceKey must be set together")
	}
	if cfg.MinioEndpoint != "" && (cfg.MinioBucket == "" || cfg.MinioAccessKey == "" || cfg.MinioSecretKey == "") {
		return errors.New("config: minioBucket, minioAccessKey and minioSecretKey are required with minioEndpoint")
	}
	return nil
}

// RateLimitWindowDuration parses rateLimitWindow (default 5m).
func (c FileConfig) RateLimitWindowDuration() (time.Duration, error) {
	return parseDuration("rateLimitWindow", c.RateLimitWindow, defaultRateLimitWindow)
}

// ExportLinkExpiryDuration parses exportLinkExpiry (default 15m).
func (c FileConfig) ExportLinkExpiryDuration() (time.Duration, error) {
	return parseDuration("exportLinkExpiry", c.ExportLinkExpiry, defaultExportLinkExpiry)
}

func parseDuration(name, raw string, def time.Duration) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("config: %s must be a positive duration, got %q", name, raw)
	}
	return d, nil
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}
