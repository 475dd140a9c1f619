package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is ~/.planline/config.yaml.
type Config struct {
	Server  ServerConfig  `yaml:"server,omitempty"`
	Logging LoggingConfig `yaml:"logging,omitempty"`
	Canvas  CanvasConfig  `yaml:"canvas,omitempty"`
	View    ViewConfig    `yaml:"view,omitempty"`

	// Actor is recorded on every write made from this machine.
	Actor string `yaml:"actor,omitempty"`
}

type ServerConfig struct {
	// Addr is the listen address of `planline serve`.
	Addr string `yaml:"addr,omitempty"`
	// URL is the server the TUI and remote commands talk to.
	URL string `yaml:"url,omitempty"`
}

type LoggingConfig struct {
	Level string `yaml:"level,omitempty"`
}

type CanvasConfig struct {
	Width  float64 `yaml:"width,omitempty"`
	Height float64 `yaml:"height,omitempty"`
}

type ViewConfig struct {
	Mode string `yaml:"mode,omitempty"`
}

const (
	DefaultServerAddr = "127.0.0.1:3001"
	DefaultServerURL  = "http://127.0.0.1:3001"
)

func ConfigDir() (string, error) {
	// Test/advanced override (keeps unit tests from touching ~/.planline).
	if v := strings.TrimSpace(os.Getenv("PLANLINE_CONFIG_DIR")); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".planline"), nil
}

func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

func LoadConfig() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &cfg, nil
}

func atomicWriteFile(dir, tmpPattern, path string, b []byte, perm os.FileMode) error {
	f, err := os.CreateTemp(dir, tmpPattern)
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()
	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	_ = os.Chmod(tmp, perm)
	return os.Rename(tmp, path)
}

func SaveConfig(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	// Keep the previous file next to the new one; a failed backup never blocks the save.
	if prev, err := os.ReadFile(path); err == nil && len(prev) > 0 {
		_ = atomicWriteFile(dir, "config.yaml.bak.*.tmp", path+".bak", prev, 0o644)
	}
	return atomicWriteFile(dir, "config.yaml.*.tmp", path, b, 0o600)
}

// ConfigKeys lists the dotted keys accepted by Get and Set.
func ConfigKeys() []string {
	keys := []string{
		"actor",
		"canvas.height",
		"canvas.width",
		"logging.level",
		"server.addr",
		"server.url",
		"view.mode",
	}
	sort.Strings(keys)
	return keys
}

type UnknownKeyError struct{ Key string }

func (e UnknownKeyError) Error() string {
	return fmt.Sprintf("unknown config key %q (known: %s)", e.Key, strings.Join(ConfigKeys(), ", "))
}

// Get reads a dotted key. Unset values are "".
func (c *Config) Get(key string) (string, error) {
	switch strings.TrimSpace(key) {
	case "actor":
		return c.Actor, nil
	case "server.addr":
		return c.Server.Addr, nil
	case "server.url":
		return c.Server.URL, nil
	case "logging.level":
		return c.Logging.Level, nil
	case "canvas.width":
		return formatFloat(c.Canvas.Width), nil
	case "canvas.height":
		return formatFloat(c.Canvas.Height), nil
	case "view.mode":
		return c.View.Mode, nil
	}
	return "", UnknownKeyError{Key: key}
}

// Set writes a dotted key. An empty value clears it.
func (c *Config) Set(key, value string) error {
	key = strings.TrimSpace(key)
	value = strings.TrimSpace(value)
	switch key {
	case "actor":
		c.Actor = value
	case "server.addr":
		c.Server.Addr = value
	case "server.url":
		c.Server.URL = strings.TrimRight(value, "/")
	case "logging.level":
		switch strings.ToLower(value) {
		case "", "debug", "info", "warn", "error":
			c.Logging.Level = strings.ToLower(value)
		default:
			return InvalidFieldError{Field: key, Reason: "expected debug|info|warn|error"}
		}
	case "canvas.width", "canvas.height":
		f, err := parseFloat(value)
		if err != nil || f < 0 {
			return InvalidFieldError{Field: key, Reason: "expected a non-negative number"}
		}
		if key == "canvas.width" {
			c.Canvas.Width = f
		} else {
			c.Canvas.Height = f
		}
	case "view.mode":
		switch value {
		case "", "weekly", "monthly":
			c.View.Mode = value
		default:
			return InvalidFieldError{Field: key, Reason: "expected weekly|monthly"}
		}
	default:
		return UnknownKeyError{Key: key}
	}
	return nil
}

func formatFloat(f float64) string {
	if f == 0 {
		return ""
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func parseFloat(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}
