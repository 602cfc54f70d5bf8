package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNewFormats(t *testing.T) {
	var text bytes.Buffer
	New(&text, true, "").Debug("token issued", "account_id", "acct-1")
	if !strings.Contains(text.String(), "account_id=acct-1") {
		t.Fatalf("development logger should write debug text, got %q", text.String())
	}

	var structured bytes.Buffer
	log := New(&structured, false, "")
	log.Debug("hidden")
	log.Info("account registered", "account_id", "acct-2")

	lines := strings.Split(strings.TrimSpace(structured.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("production logger should skip debug, got %d lines", len(lines))
	}
	var entry map[string]any
	err := json.Unmarshal([]byte(lines[0]), &entry)
	if err != nil {
		t.Fatalf("production logger should write JSON: %v", err)
	}
	if entry["account_id"] != "acct-2" || entry["msg"] != "account registered" {
		t.Fatalf("unexpected entry: %v", entry)
	}
}
