package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTempDoc(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp doc: %v", err)
	}
	return path
}

func TestRunTo_BytesMode(t *testing.T) {
	path := writeTempDoc(t, `{"a":1,"b":2}`)
	cfg := newCLIConfig()

	var out bytes.Buffer
	if err := runTo(cfg, []string{"$.a", path}, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := out.String()
	if !strings.Contains(got, "5\t6\tnumber") {
		t.Fatalf("unexpected output: %q", got)
	}
}

func TestRunTo_CountMode(t *testing.T) {
	path := writeTempDoc(t, `[{"a":1},{"a":2},{"a":3}]`)
	cfg := newCLIConfig()
	cfg.Mode = "count"

	var out bytes.Buffer
	if err := runTo(cfg, []string{"$..a", path}, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := strings.TrimSpace(out.String()); got != "3" {
		t.Fatalf("got %q, want %q", got, "3")
	}
}

func TestRunTo_NoMatches(t *testing.T) {
	path := writeTempDoc(t, `{"a":1}`)
	cfg := newCLIConfig()

	var out bytes.Buffer
	if err := runTo(cfg, []string{"$.missing", path}, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Len() != 0 {
		t.Fatalf("expected no output, got %q", out.String())
	}
}

func TestRunTo_InvalidQuery(t *testing.T) {
	path := writeTempDoc(t, `{"a":1}`)
	cfg := newCLIConfig()

	var out bytes.Buffer
	err := runTo(cfg, []string{"$[?(@.a)]", path}, &out)
	if err == nil {
		t.Fatal("expected an error for an unsupported filter expression")
	}
}

func TestRunTo_UnknownMode(t *testing.T) {
	path := writeTempDoc(t, `{"a":1}`)
	cfg := newCLIConfig()
	cfg.Mode = "xml"

	var out bytes.Buffer
	err := runTo(cfg, []string{"$.a", path}, &out)
	if err == nil {
		t.Fatal("expected an error for an unknown --mode value")
	}
}

func TestRunTo_FileNotFound(t *testing.T) {
	cfg := newCLIConfig()

	var out bytes.Buffer
	err := runTo(cfg, []string{"$.a", filepath.Join(t.TempDir(), "missing.json")}, &out)
	if err == nil {
		t.Fatal("expected an error for a missing file")
	}
}
