package cerberus

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestZerologLogger_InfoWritesJSONWithFields(t *testing.T) {
	var buf bytes.Buffer
	z := zerolog.New(&buf)
	logger := NewZerologLoggerWith(z)

	logger.Info("cache hit", "key", "user:1", "level", "near")

	var decoded map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v (raw: %s)", err, buf.String())
	}

	if decoded["message"] != "cache hit" {
		t.Errorf("message = %v, want %q", decoded["message"], "cache hit")
	}
	if decoded["key"] != "user:1" {
		t.Errorf("key field = %v, want %q", decoded["key"], "user:1")
	}
	if decoded["level"] != "near" {
		t.Errorf("level field = %v, want %q", decoded["level"], "near")
	}
}

func TestZerologLogger_OddKeyvalsIgnoresTrailingKey(t *testing.T) {
	var buf bytes.Buffer
	z := zerolog.New(&buf)
	logger := NewZerologLoggerWith(z)

	logger.Warn("something", "orphan")

	if strings.Contains(buf.String(), "orphan") {
		t.Errorf("output should not contain the dangling key, got: %s", buf.String())
	}
}

func TestZerologLogger_NonStringKeyIsSkipped(t *testing.T) {
	var buf bytes.Buffer
	z := zerolog.New(&buf)
	logger := NewZerologLoggerWith(z)

	logger.Error("boom", 42, "value")

	var decoded map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded["message"] != "boom" {
		t.Errorf("message = %v, want %q", decoded["message"], "boom")
	}
}

func TestNewZerologLogger_ReturnsNonNilLogger(t *testing.T) {
	logger := NewZerologLogger()
	if logger == nil {
		t.Fatal("NewZerologLogger() = nil")
	}
	logger.Debug("smoke test")
}
