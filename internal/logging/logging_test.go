package logging

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
	}{
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{"warning", LevelWarn},
		{" error ", LevelError},
		{"", LevelInfo},
		{"bogus", LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.input); got != tt.expected {
			t.Errorf("ParseLevel(%q) = %d, want %d", tt.input, got, tt.expected)
		}
	}
}

func TestLogger_FiltersAndFormats(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, LevelInfo, "web")
	l.now = func() time.Time { return time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC) }

	l.Debugf("hidden")
	l.Infof("listening addr=%s", ":3001")
	l.With("relay").Warnf("slow client id=%s", "c1")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines; got %q", buf.String())
	}
	if lines[0] != "2026-02-03T04:05:06Z INFO web: listening addr=:3001" {
		t.Fatalf("unexpected line %q", lines[0])
	}
	if !strings.Contains(lines[1], "WARN relay: slow client id=c1") {
		t.Fatalf("unexpected line %q", lines[1])
	}

	l.SetLevel(LevelDebug)
	l.Debugf("shown")
	if !strings.Contains(buf.String(), "DEBUG web: shown") {
		t.Fatalf("expected debug after SetLevel")
	}
}

func TestNilLoggerIsSafe(t *testing.T) {
	var l *Logger
	l.Infof("nothing")
	if l.With("x") != nil {
		t.Fatalf("expected nil")
	}
}
