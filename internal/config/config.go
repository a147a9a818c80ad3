// Package config loads and validates traveldiary YAML configuration.
// It applies defaults so the daemon can rely on fully populated values.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables that override secrets in the YAML file.
const (
	EnvSecretKey    = "SECRET_KEY"
	EnvMailUsername = "MAIL_USERNAME"
	EnvMailPassword = "MAIL_PASSWORD"
)

// TLSConfig holds TLS certificate paths.
type TLSConfig struct {
	CertPath string `yaml:"cert_path"`
	KeyPath  string `yaml:"key_path"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DBConfig holds database settings.
type DBConfig struct {
	Path string `yaml:"path"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Bind         string    `yaml:"bind"`
	Port         int       `yaml:"port"`
	MaxUploadMB  int       `yaml:"max_upload_mb"`
	CookieSecure bool      `yaml:"cookie_secure"`
	TLS          TLSConfig `yaml:"tls"`
}

// UploadsConfig holds the photo upload directory.
type UploadsConfig struct {
	Dir string `yaml:"dir"`
}

// GeocoderConfig holds Nominatim client settings.
type GeocoderConfig struct {
	BaseURL   string        `yaml:"base_url"`
	UserAgent string        `yaml:"user_agent"`
	Timeout   time.Duration `yaml:"timeout"`
}

// MailConfig holds SMTP settings. Username and password usually come from
// the environment.
type MailConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	UseTLS   *bool  `yaml:"use_tls"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

// TLSEnabled reports whether STARTTLS is used (default true).
func (m MailConfig) TLSEnabled() bool {
	return m.UseTLS == nil || *m.UseTLS
}

// SessionConfig holds login session settings.
type SessionConfig struct {
	TTL time.Duration `yaml:"ttl"`
}

// Config mirrors the traveldiary.yaml schema.
type Config struct {
	Log       LogConfig      `yaml:"log"`
	DB        DBConfig       `yaml:"db"`
	HTTP      HTTPConfig     `yaml:"http"`
	Uploads   UploadsConfig  `yaml:"uploads"`
	Geocoder  GeocoderConfig `yaml:"geocoder"`
	Mail      MailConfig     `yaml:"mail"`
	Session   SessionConfig  `yaml:"session"`
	SecretKey string         `yaml:"secret_key"`
}

// Load reads a YAML config file, applies environment overrides and
// defaults, and validates it. It returns a fully populated Config or a
// descriptive error.
func Load(path string) (Config, error) {
	var c Config
	if path == "" {
		return c, errors.New("config path is required")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return c, err
	}
	applyEnv(&c)
	applyDefaults(&c)
	if err := validate(&c); err != nil {
		return Config{}, err
	}
	// Make paths stable for daemon.
	c.DB.Path = strings.TrimSpace(c.DB.Path)
	c.Uploads.Dir = strings.TrimSpace(c.Uploads.Dir)
	c.HTTP.TLS.CertPath = strings.TrimSpace(c.HTTP.TLS.CertPath)
	c.HTTP.TLS.KeyPath = strings.TrimSpace(c.HTTP.TLS.KeyPath)
	return c, nil
}

// Defaults returns the configuration used when no file exists: built-in
// defaults plus environment overrides.
func Defaults() (Config, error) {
	var c Config
	applyEnv(&c)
	applyDefaults(&c)
	if err := validate(&c); err != nil {
		return Config{}, err
	}
	return c, nil
}

// LoadDotEnv loads KEY=VALUE pairs from path into the process environment
// without overriding variables that are already set. A missing file is
// not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return godotenv.Load(path)
}

func applyEnv(c *Config) {
	if v := os.Getenv(EnvSecretKey); v != "" {
		c.SecretKey = v
	}
	if v := os.Getenv(EnvMailUsername); v != "" {
		c.Mail.Username = v
	}
	if v := os.Getenv(EnvMailPassword); v != "" {
		c.Mail.Password = v
	}
}

// applyDefaults populates zero-values with sane defaults.
func applyDefaults(c *Config) {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.DB.Path == "" {
		c.DB.Path = "./data/traveldiary.db"
	}
	if c.HTTP.Bind == "" {
		c.HTTP.Bind = "127.0.0.1"
	}
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 5000
	}
	if c.HTTP.MaxUploadMB == 0 {
		c.HTTP.MaxUploadMB = 16
	}
	if c.Uploads.Dir == "" {
		c.Uploads.Dir = "./data/uploads"
	}
	if c.Geocoder.BaseURL == "" {
		c.Geocoder.BaseURL = "https://nominatim.openstreetmap.org"
	}
	if c.Geocoder.UserAgent == "" {
		c.Geocoder.UserAgent = "SmartTravelDiaryApp"
	}
	if c.Geocoder.Timeout == 0 {
		c.Geocoder.Timeout = 5 * time.Second
	}
	if c.Mail.Host == "" {
		c.Mail.Host = "smtp.gmail.com"
	}
	if c.Mail.Port == 0 {
		c.Mail.Port = 587
	}
	if c.Mail.From == "" {
		c.Mail.From = c.Mail.Username
	}
	if c.Session.TTL == 0 {
		c.Session.TTL = 12 * time.Hour
	}
}

// validate performs basic sanity checks for required fields and ranges.
// It does not mutate the config.
func validate(c *Config) error {
	switch strings.ToLower(strings.TrimSpace(c.Log.Format)) {
	case "text", "json":
	default:
		return errors.New("log.format must be text or json")
	}
	if strings.TrimSpace(c.DB.Path) == "" {
		return errors.New("db.path is required")
	}
	if strings.TrimSpace(c.Uploads.Dir) == "" {
		return errors.New("uploads.dir is required")
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return errors.New("http.port is invalid")
	}
	if c.HTTP.MaxUploadMB < 1 || c.HTTP.MaxUploadMB > 1024 {
		return errors.New("http.max_upload_mb is invalid")
	}
	cp := strings.TrimSpace(c.HTTP.TLS.CertPath)
	kp := strings.TrimSpace(c.HTTP.TLS.KeyPath)
	if (cp == "") != (kp == "") {
		return errors.New("http.tls.cert_path and http.tls.key_path must be set together")
	}
	if c.Geocoder.Timeout < 0 {
		return errors.New("geocoder.timeout must be positive")
	}
	if c.Mail.Port <= 0 || c.Mail.Port > 65535 {
		return errors.New("mail.port is invalid")
	}
	if c.Session.TTL < time.Minute {
		return errors.New("session.ttl must be at least 1m")
	}
	if c.SecretKey != "" && len(c.SecretKey) < 16 {
		return errors.New("secret_key must be at least 16 characters")
	}
	_ = filepath.Clean(c.DB.Path)
	_ = filepath.Clean(c.Uploads.Dir)
	return nil
}

// TLSEnabled reports whether the HTTP listener serves TLS.
func (c Config) TLSEnabled() bool {
	return c.HTTP.TLS.CertPath != "" && c.HTTP.TLS.KeyPath != ""
}
