package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestParseLogLevel(t *testing.T) {
	for _, s := range []string{"error", "WARN", "info", "debug"} {
		if _, err := parseLogLevel(s); err != nil {
			t.Fatalf("parseLogLevel(%q): %v", s, err)
		}
	}
	if _, err := parseLogLevel("trace"); err == nil {
		t.Fatalf("expected error for trace")
	}
}

func TestNewLogger_JSONFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, LogLevelWarn, LogFormatJSON)

	logger.Info("hidden")
	logger.Warn("shown", "path", "a.json")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 log line, got %d: %q", len(lines), buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("expected JSON log line: %v", err)
	}
	if rec["msg"] != "shown" || rec["path"] != "a.json" {
		t.Fatalf("unexpected record %v", rec)
	}
}

func TestNewLogger_TextDefault(t *testing.T) {
	format, err := parseLogFormat("")
	if err != nil {
		t.Fatalf("parseLogFormat: %v", err)
	}
	var buf bytes.Buffer
	newLogger(&buf, LogLevelInfo, format).Info("hello", "k", 1)
	if !strings.Contains(buf.String(), "msg=hello") || !strings.Contains(buf.String(), "k=1") {
		t.Fatalf("unexpected text output %q", buf.String())
	}
}
