package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestConfig_SaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PLANLINE_CONFIG_DIR", dir)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load missing: %v", err)
	}
	for k, v := range map[string]string{
		"actor":         "ann",
		"server.url":    "http://example.test/",
		"logging.level": "DEBUG",
		"canvas.width":  "1024",
		"view.mode":     "monthly",
	} {
		if err := cfg.Set(k, v); err != nil {
			t.Fatalf("set %s: %v", k, err)
		}
	}
	if err := SaveConfig(cfg); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := SaveConfig(cfg); err != nil {
		t.Fatalf("second save: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "config.yaml.bak")); err != nil {
		t.Fatalf("expected backup of the previous file: %v", err)
	}

	got, err := LoadConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Actor != "ann" || got.Server.URL != "http://example.test" || got.Logging.Level != "debug" {
		t.Fatalf("unexpected config: %+v", got)
	}
	if w, _ := got.Get("canvas.width"); w != "1024" {
		t.Fatalf("unexpected canvas.width %q", w)
	}
	if h, _ := got.Get("canvas.height"); h != "" {
		t.Fatalf("expected unset canvas.height; got %q", h)
	}
}

func TestConfig_RejectsBadValues(t *testing.T) {
	cfg := &Config{}
	var fe InvalidFieldError
	if err := cfg.Set("view.mode", "daily"); !errors.As(err, &fe) {
		t.Fatalf("expected InvalidFieldError; got %v", err)
	}
	if err := cfg.Set("canvas.width", "-3"); !errors.As(err, &fe) {
		t.Fatalf("expected InvalidFieldError; got %v", err)
	}
	var ue UnknownKeyError
	if err := cfg.Set("nope", "x"); !errors.As(err, &ue) {
		t.Fatalf("expected UnknownKeyError; got %v", err)
	}
	if _, err := cfg.Get("nope"); !errors.As(err, &ue) {
		t.Fatalf("expected UnknownKeyError; got %v", err)
	}
}
