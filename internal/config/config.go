package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	appName        = "jiratui"
	ConfigFileName = "config.toml"
)

// Config is the on-disk configuration. The editor comes from $EDITOR or
// $VISUAL only.
type Config struct {
	// IssuesFile is the local issue cache the browser loads and saves.
	IssuesFile string `toml:"issues_file"`
	// JiraBaseURL builds browse links for issues with no URL of their own,
	// e.g. "https://example.atlassian.net".
	JiraBaseURL string `toml:"jira_base_url"`
	// LogFile receives JSON log records. Empty disables file logging.
	LogFile string `toml:"log_file"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `toml:"log_level"`
	// SentryDSN enables crash reporting when set.
	SentryDSN string `toml:"sentry_dsn"`
	// RenderMarkdown renders issue descriptions with glamour. Defaults to
	// true when not set.
	RenderMarkdown *bool `toml:"render_markdown"`
}

// Dir returns the configuration directory, ~/.config/jiratui on Linux.
func Dir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("user config dir: %w", err)
	}
	return filepath.Join(dir, appName), nil
}

// DefaultPath returns the default config file location.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFileName), nil
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	c := &Config{LogLevel: "info"}
	if dir, err := Dir(); err == nil {
		c.IssuesFile = filepath.Join(dir, "issues.yaml")
	}
	if dir, err := os.UserCacheDir(); err == nil {
		c.LogFile = filepath.Join(dir, appName, appName+".log")
	}
	return c
}

// ShouldRenderMarkdown reports whether descriptions are rendered.
// Defaults to true when the field is not set.
func (c *Config) ShouldRenderMarkdown() bool {
	if c.RenderMarkdown == nil {
		return true
	}
	return *c.RenderMarkdown
}

// BrowseURL returns the web link for an issue key, or "" without a base URL.
func (c *Config) BrowseURL(key string) string {
	if c.JiraBaseURL == "" || key == "" {
		return ""
	}
	return strings.TrimRight(c.JiraBaseURL, "/") + "/browse/" + key
}

// Load reads path over the defaults. A missing file is not an error;
// a malformed one is. Paths in the file may start with "~/".
func Load(path string) (*Config, error) {
	c := Default()
	if _, err := toml.DecodeFile(path, c); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return c, nil
		}
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	var err error
	if c.IssuesFile, err = expandHome(c.IssuesFile); err != nil {
		return nil, err
	}
	if c.LogFile, err = expandHome(c.LogFile); err != nil {
		return nil, err
	}
	return c, nil
}

func expandHome(path string) (string, error) {
	rest, ok := strings.CutPrefix(path, "~/")
	if !ok {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home dir: %w", err)
	}
	return filepath.Join(home, rest), nil
}
