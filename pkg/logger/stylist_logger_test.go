package logger

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"WARN", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"", zerolog.InfoLevel},
		{"verbose", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: zerolog.DebugLevel, Output: &buf, Service: "test"})

	l.WithField("slot", "top").WithError(errors.New("boom")).WithDuration(1500*time.Microsecond).Warn("skipped %d items", 3)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v (%s)", err, buf.String())
	}
	if entry["message"] != "skipped 3 items" {
		t.Errorf("unexpected message: %v", entry["message"])
	}
	if entry["slot"] != "top" || entry["error"] != "boom" || entry["service"] != "test" {
		t.Errorf("missing fields: %v", entry)
	}
	if entry["duration_ms"] != 1.5 {
		t.Errorf("expected duration_ms 1.5, got %v", entry["duration_ms"])
	}
}

func TestLoggerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: zerolog.WarnLevel, Output: &buf})

	l.Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("info should be filtered at warn level, got %s", buf.String())
	}
	l.Error("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("expected error line, got %s", buf.String())
	}
}
