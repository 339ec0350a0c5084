package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server         ServerConfig         `yaml:"server"`
	Database       DatabaseConfig       `yaml:"database"`
	Session        SessionConfig        `yaml:"session"`
	SMTP           SMTPConfig           `yaml:"smtp"`
	RateLimit      RateLimitConfig      `yaml:"rate_limit"`
	AdminBootstrap AdminBootstrapConfig `yaml:"admin_bootstrap"`
	Logging        LoggingConfig        `yaml:"logging"`
	Environment    string               `yaml:"environment"`
}

type ServerConfig struct {
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
	BaseURL string `yaml:"base_url"`
}

type DatabaseConfig struct {
	URL            string `yaml:"url"`
	MaxConnections int    `yaml:"max_connections"`
	MinConnections int    `yaml:"min_connections"`
}

type SessionConfig struct {
	Secret     string        `yaml:"secret"`
	Expiry     time.Duration `yaml:"expiry"`
	CSRFKey    string        `yaml:"csrf_key"`
	CookieName string        `yaml:"cookie_name"`
}

// SMTPConfig holds the mail relay settings. Credentials are never embedded
// in source; they arrive via environment or config file only.
type SMTPConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

type RateLimitConfig struct {
	LoginPerMinute int `yaml:"login_per_minute"`
}

// AdminBootstrapConfig seeds the initial administrator account at startup.
// This replaces any in-band role assignment during signup.
type AdminBootstrapConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Email    string `yaml:"email"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Load() (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			Host:    getEnv("SERVER_HOST", "0.0.0.0"),
			Port:    getEnvInt("SERVER_PORT", 8080),
			BaseURL: getEnv("SERVER_BASE_URL", "http://localhost:8080"),
		},
		Database: DatabaseConfig{
			URL:            getEnv("DATABASE_URL", ""),
			MaxConnections: getEnvInt("DATABASE_MAX_CONNECTIONS", 25),
			MinConnections: getEnvInt("DATABASE_MIN_CONNECTIONS", 5),
		},
		Session: SessionConfig{
			Secret:     getEnv("SESSION_SECRET", ""),
			Expiry:     time.Duration(getEnvInt("SESSION_EXPIRY_HOURS", 24)) * time.Hour,
			CSRFKey:    getEnv("CSRF_KEY", ""),
			CookieName: getEnv("SESSION_COOKIE_NAME", "eventease_session"),
		},
		SMTP: SMTPConfig{
			Enabled:  getEnvBool("SMTP_ENABLED", false),
			Host:     getEnv("SMTP_HOST", ""),
			Port:     getEnvInt("SMTP_PORT", 587),
			Username: getEnv("SMTP_USERNAME", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("SMTP_FROM", ""),
		},
		RateLimit: RateLimitConfig{
			LoginPerMinute: getEnvInt("RATE_LIMIT_LOGIN", 10),
		},
		AdminBootstrap: AdminBootstrapConfig{
			Username: getEnv("ADMIN_USERNAME", ""),
			Password: getEnv("ADMIN_PASSWORD", ""),
			Email:    getEnv("ADMIN_EMAIL", ""),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Environment: getEnv("ENVIRONMENT", "development"),
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadFile reads a YAML config file and overlays environment variables on
// top, so env always wins over the file.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	var fromFile Config
	if err := yaml.Unmarshal(data, &fromFile); err != nil {
		return Config{}, fmt.Errorf("parse config file: %w", err)
	}

	applyFileDefaults(fromFile)
	return Load()
}

// applyFileDefaults exports file values as env vars for keys that are not
// already set, so Load() sees a single merged view.
func applyFileDefaults(cfg Config) {
	setEnvDefault("SERVER_HOST", cfg.Server.Host)
	setEnvDefault("SERVER_PORT", intString(cfg.Server.Port))
	setEnvDefault("SERVER_BASE_URL", cfg.Server.BaseURL)
	setEnvDefault("DATABASE_URL", cfg.Database.URL)
	setEnvDefault("DATABASE_MAX_CONNECTIONS", intString(cfg.Database.MaxConnections))
	setEnvDefault("DATABASE_MIN_CONNECTIONS", intString(cfg.Database.MinConnections))
	setEnvDefault("SESSION_SECRET", cfg.Session.Secret)
	setEnvDefault("CSRF_KEY", cfg.Session.CSRFKey)
	setEnvDefault("SESSION_COOKIE_NAME", cfg.Session.CookieName)
	if cfg.SMTP.Enabled {
		setEnvDefault("SMTP_ENABLED", "true")
	}
	setEnvDefault("SMTP_HOST", cfg.SMTP.Host)
	setEnvDefault("SMTP_PORT", intString(cfg.SMTP.Port))
	setEnvDefault("SMTP_USERNAME", cfg.SMTP.Username)
	setEnvDefault("SMTP_PASSWORD", cfg.SMTP.Password)
	setEnvDefault("SMTP_FROM", cfg.SMTP.From)
	setEnvDefault("RATE_LIMIT_LOGIN", intString(cfg.RateLimit.LoginPerMinute))
	setEnvDefault("ADMIN_USERNAME", cfg.AdminBootstrap.Username)
	setEnvDefault("ADMIN_PASSWORD", cfg.AdminBootstrap.Password)
	setEnvDefault("ADMIN_EMAIL", cfg.AdminBootstrap.Email)
	setEnvDefault("LOG_LEVEL", cfg.Logging.Level)
	setEnvDefault("LOG_FORMAT", cfg.Logging.Format)
	setEnvDefault("ENVIRONMENT", cfg.Environment)
}

func (c Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Session.Secret == "" {
		return fmt.Errorf("SESSION_SECRET is required")
	}
	if c.Session.CSRFKey == "" {
		return fmt.Errorf("CSRF_KEY is required")
	}
	if c.SMTP.Enabled {
		if c.SMTP.Host == "" {
			return fmt.Errorf("SMTP_HOST is required when SMTP is enabled")
		}
		if c.SMTP.From == "" {
			return fmt.Errorf("SMTP_FROM is required when SMTP is enabled")
		}
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func setEnvDefault(key, value string) {
	if value == "" {
		return
	}
	if os.Getenv(key) == "" {
		_ = os.Setenv(key, value)
	}
}

func intString(value int) string {
	if value == 0 {
		return ""
	}
	return strconv.Itoa(value)
}
