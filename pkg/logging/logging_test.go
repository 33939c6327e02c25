package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestJSONLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, WarnLevel)

	logger.Debug("debug msg")
	logger.Info("info msg")
	logger.Warn("warn msg")
	logger.Error("error msg")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 entries at WarnLevel, got %d: %q", len(lines), buf.String())
	}
}

func TestJSONLogger_FieldsAndWith(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, DebugLevel)

	child := logger.With(RunID("abc"), Step("load"))
	child.Info("loaded", Rows(2436), Error(errors.New("partial")))

	var e struct {
		Level   string         `json:"level"`
		Message string         `json:"msg"`
		Fields  map[string]any `json:"fields"`
	}
	if err := json.Unmarshal(buf.Bytes(), &e); err != nil {
		t.Fatalf("log line is not valid JSON: %v", err)
	}

	if e.Level != "INFO" || e.Message != "loaded" {
		t.Errorf("unexpected entry header: %+v", e)
	}
	if e.Fields["run_id"] != "abc" || e.Fields["step"] != "load" {
		t.Errorf("pre-set fields missing: %v", e.Fields)
	}
	if e.Fields["rows"] != float64(2436) {
		t.Errorf("expected rows=2436, got %v", e.Fields["rows"])
	}
	if e.Fields["error"] != "partial" {
		t.Errorf("expected error field, got %v", e.Fields["error"])
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   DebugLevel,
		"INFO":    InfoLevel,
		"warning": WarnLevel,
		"ERROR":   ErrorLevel,
		"bogus":   InfoLevel,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNopLogger(t *testing.T) {
	logger := NewNopLogger()
	logger.Info("ignored")
	if child := logger.With(Step("x")); child == nil {
		t.Fatal("With returned nil")
	}
}
