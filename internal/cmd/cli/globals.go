// Package cli holds the flags shared by every subcommand and turns them
// into a loaded configuration and logger.
package cli

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"traveldiary/internal/config"
	"traveldiary/internal/logging"
)

const DefaultConfigPath = "traveldiary.yaml"

// Globals are the root command's persistent flags.
type Globals struct {
	ConfigPath string
	EnvFile    string
	LogLevel   string
	LogFormat  string
}

// Bind registers the persistent flags on root.
func (g *Globals) Bind(root *cobra.Command) {
	f := root.PersistentFlags()
	f.StringVar(&g.ConfigPath, "config", DefaultConfigPath, "path to traveldiary.yaml")
	f.StringVar(&g.EnvFile, "env-file", ".env", "dotenv file with SECRET_KEY, MAIL_USERNAME, MAIL_PASSWORD")
	f.StringVar(&g.LogLevel, "log-level", "", "log level: debug|info|warn|error (overrides config)")
	f.StringVar(&g.LogFormat, "log-format", "", "log format: text|json (overrides config)")
}

// Load reads the env file and the config file. A missing config file is
// only an error when --config was given explicitly. Relative paths in the
// file resolve against the file's directory.
func (g *Globals) Load(cmd *cobra.Command) (config.Config, error) {
	if err := config.LoadDotEnv(g.EnvFile); err != nil {
		return config.Config{}, err
	}
	explicit := cmd.Flags().Changed("config")
	if _, err := os.Stat(g.ConfigPath); errors.Is(err, os.ErrNotExist) && !explicit {
		return config.Defaults()
	}
	c, err := config.Load(g.ConfigPath)
	if err != nil {
		return config.Config{}, err
	}
	base := filepath.Dir(g.ConfigPath)
	c.DB.Path = ResolvePath(base, c.DB.Path)
	c.Uploads.Dir = ResolvePath(base, c.Uploads.Dir)
	c.HTTP.TLS.CertPath = ResolvePath(base, c.HTTP.TLS.CertPath)
	c.HTTP.TLS.KeyPath = ResolvePath(base, c.HTTP.TLS.KeyPath)
	return c, nil
}

// Logger builds the process logger; CLI flags override config.
func (g *Globals) Logger(c config.Config) (*slog.Logger, error) {
	level := firstNonEmpty(g.LogLevel, c.Log.Level)
	format := firstNonEmpty(g.LogFormat, c.Log.Format)
	lg, _, err := logging.New(logging.Options{Level: level, Format: format, DefaultSlog: true})
	return lg, err
}

func ResolvePath(baseDir, p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(baseDir, p)
}

func firstNonEmpty(a, b string) string {
	a = strings.TrimSpace(a)
	if a != "" {
		return a
	}
	return strings.TrimSpace(b)
}
