package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSetupWithOptionsWritesJSONAndFile(t *testing.T) {
	var buf bytes.Buffer
	file := filepath.Join(t.TempDir(), "node.log")
	logger, closer := SetupWithOptions("lendingd", "test", Options{Level: "warn", File: file, Output: &buf})
	defer closer.Close()

	logger.Info("dropped")
	logger.Warn("kept", MaskField("dsn", "postgres://secret"), slog.String("reason", "demo"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one line above the level threshold, got %d: %q", len(lines), buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if entry["message"] != "kept" || entry["severity"] != "WARN" || entry["service"] != "lendingd" || entry["env"] != "test" {
		t.Fatalf("unexpected entry: %v", entry)
	}
	if entry["dsn"] != RedactedValue {
		t.Fatalf("dsn not masked: %v", entry["dsn"])
	}
	if entry["reason"] != "demo" {
		t.Fatalf("reason missing: %v", entry)
	}

	raw, err := os.ReadFile(file)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(raw), `"message":"kept"`) {
		t.Fatalf("file sink missing entry: %s", raw)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"":        slog.LevelInfo,
		"DEBUG":   slog.LevelDebug,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for raw, want := range cases {
		if got := ParseLevel(raw); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", raw, got, want)
		}
	}
}

func TestMaskField(t *testing.T) {
	if attr := MaskField("error", "boom"); attr.Value.String() != "boom" {
		t.Fatalf("allowlisted key masked: %v", attr)
	}
	if attr := MaskField("passphrase", "hunter2"); attr.Value.String() != RedactedValue {
		t.Fatalf("sensitive key leaked: %v", attr)
	}
	if attr := MaskField("passphrase", ""); attr.Value.String() != "" {
		t.Fatalf("empty value should pass through: %v", attr)
	}
}

func TestMaskHeaders(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	logger.Info("telemetry", MaskHeaders("headers", map[string]string{"api-key": "abc", "team": ""}))

	var entry struct {
		Headers map[string]string `json:"headers"`
	}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if entry.Headers["api-key"] != RedactedValue || entry.Headers["team"] != "" {
		t.Fatalf("unexpected headers: %v", entry.Headers)
	}
	if !IsSafeKey(" Method ") {
		t.Fatalf("method should be a safe key")
	}
}
