// Package config tests validate config loading behavior.
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "traveldiary.yaml")
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	return p
}

// TestLoadAppliesDefaults confirms defaults are applied on load.
func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv(EnvSecretKey, "")
	t.Setenv(EnvMailUsername, "")
	t.Setenv(EnvMailPassword, "")

	c, err := Load(writeConfig(t, "db:\n  path: ./x.db\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.DB.Path != "./x.db" {
		t.Fatalf("db.path = %q", c.DB.Path)
	}
	if c.HTTP.Port != 5000 {
		t.Fatalf("expected default http.port 5000, got %d", c.HTTP.Port)
	}
	if c.HTTP.MaxUploadMB != 16 {
		t.Fatalf("expected default http.max_upload_mb 16, got %d", c.HTTP.MaxUploadMB)
	}
	if c.Geocoder.Timeout != 5*time.Second {
		t.Fatalf("expected default geocoder.timeout 5s, got %s", c.Geocoder.Timeout)
	}
	if c.Session.TTL != 12*time.Hour {
		t.Fatalf("expected default session.ttl 12h, got %s", c.Session.TTL)
	}
	if c.Mail.Host != "smtp.gmail.com" || c.Mail.Port != 587 || !c.Mail.TLSEnabled() {
		t.Fatalf("unexpected mail defaults: %+v", c.Mail)
	}
	if c.Uploads.Dir == "" || c.Log.Format != "text" {
		t.Fatalf("expected uploads.dir and log.format defaults")
	}
	if c.TLSEnabled() {
		t.Fatalf("TLS should be off by default")
	}
}

func TestLoadEnvOverridesSecrets(t *testing.T) {
	t.Setenv(EnvSecretKey, "0123456789abcdef-from-env")
	t.Setenv(EnvMailUsername, "me@example.com")
	t.Setenv(EnvMailPassword, "app-password")

	c, err := Load(writeConfig(t, "secret_key: file-secret-is-long-enough\nmail:\n  use_tls: false\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.SecretKey != "0123456789abcdef-from-env" {
		t.Fatalf("secret key not overridden: %q", c.SecretKey)
	}
	if c.Mail.From != "me@example.com" {
		t.Fatalf("mail.from should default to username, got %q", c.Mail.From)
	}
	if c.Mail.Password != "app-password" || c.Mail.TLSEnabled() {
		t.Fatalf("unexpected mail config: %+v", c.Mail)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Setenv(EnvSecretKey, "")
	cases := map[string]string{
		"port":    "http:\n  port: 70000\n",
		"tls":     "http:\n  tls:\n    cert_path: /x.pem\n",
		"format":  "log:\n  format: xml\n",
		"ttl":     "session:\n  ttl: 5s\n",
		"secret":  "secret_key: short\n",
		"garbage": "http: [",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, body)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	if err := LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("missing .env should be ignored: %v", err)
	}
	t.Setenv(EnvMailPassword, "")
	os.Unsetenv(EnvMailPassword)
	p := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(p, []byte("MAIL_PASSWORD=from-dotenv\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := LoadDotEnv(p); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if got := os.Getenv(EnvMailPassword); got != "from-dotenv" {
		t.Fatalf("MAIL_PASSWORD = %q", got)
	}
}

func TestDefaultsWithoutFile(t *testing.T) {
	t.Setenv(EnvSecretKey, "")
	c, err := Defaults()
	if err != nil {
		t.Fatalf("Defaults: %v", err)
	}
	if c.DB.Path != "./data/traveldiary.db" || c.HTTP.Bind != "127.0.0.1" {
		t.Fatalf("unexpected defaults: %+v", c)
	}
}
