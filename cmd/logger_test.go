package cmd

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNewLogger(t *testing.T) {
	t.Parallel()

	t.Run("console format", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log, err := newLogger(&buf, "console", false)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		log.Info("hello from the role tool")
		if !strings.Contains(buf.String(), "hello from the role tool") {
			t.Fatalf("expected message in output, got: %q", buf.String())
		}
		if !strings.Contains(buf.String(), "info") {
			t.Fatalf("expected level in output, got: %q", buf.String())
		}
	})

	t.Run("json format", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log, err := newLogger(&buf, "json", false)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		log.Info("structured")
		var entry map[string]any
		if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
			t.Fatalf("expected valid json, got %q: %v", buf.String(), err)
		}
		if entry["message"] != "structured" {
			t.Fatalf("unexpected message field: %v", entry["message"])
		}
		if entry["level"] != "info" {
			t.Fatalf("unexpected level field: %v", entry["level"])
		}
		if _, ok := entry["timestamp"]; !ok {
			t.Fatalf("expected timestamp field, got: %v", entry)
		}
	})

	t.Run("verbose enables debug", func(t *testing.T) {
		t.Parallel()

		var quiet, chatty bytes.Buffer

		log, err := newLogger(&quiet, "console", false)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		log.Debug("hidden")

		log, err = newLogger(&chatty, "console", true)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		log.Debug("visible")

		if quiet.Len() != 0 {
			t.Fatalf("expected debug to be filtered, got: %q", quiet.String())
		}
		if !strings.Contains(chatty.String(), "visible") {
			t.Fatalf("expected debug output, got: %q", chatty.String())
		}
	})

	t.Run("rejects unknown formats", func(t *testing.T) {
		t.Parallel()

		if _, err := newLogger(&bytes.Buffer{}, "xml", false); err == nil || !strings.Contains(err.Error(), `unsupported log format "xml"`) {
			t.Fatalf("expected format error, got %v", err)
		}
	})
}
