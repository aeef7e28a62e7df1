package appconfig

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

// TestConfigDefaults checks the defaults and URL handling applied to merged settings.
func TestConfigDefaults(t *testing.T) {
	cfg := Config{Server: "http://analysis.local:9000/", Model: "gpt-4o"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() with valid config failed: %v", err)
	}
	if cfg.ServerURL() != "http://analysis.local:9000" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.ServerURL())
	}
	if cfg.RequestTimeout() != 0 {
		t.Fatalf("expected no request timeout by default, got %v", cfg.RequestTimeout())
	}
	if cfg.LogFilePath() != "datasheet.log" {
		t.Fatalf("expected default log file, got %q", cfg.LogFilePath())
	}

	if (Config{}).ServerURL() != DefaultServerURL {
		t.Fatalf("expected default server, got %q", (Config{}).ServerURL())
	}
	if err := (Config{}).Validate(); err != nil {
		t.Fatalf("Validate() with empty config failed: %v", err)
	}

	for _, server := range []string{"ftp://example.com", "http://", "://bad"} {
		if err := (Config{Server: server}).Validate(); err == nil {
			t.Fatalf("Validate() with server %q should have failed", server)
		}
	}
}

func TestRequestTimeout(t *testing.T) {
	cfg := Config{TimeoutSeconds: 45}
	if cfg.RequestTimeout() != 45*time.Second {
		t.Fatalf("expected 45s, got %v", cfg.RequestTimeout())
	}
	if err := (Config{TimeoutSeconds: -1}).Validate(); err == nil {
		t.Fatal("expected negative timeout to be rejected")
	}
}

func TestShowConfig(t *testing.T) {
	var buf bytes.Buffer
	ShowConfig(&buf, "", nil, Config{Debug: true, TimeoutSeconds: 30})
	out := buf.String()
	for _, want := range []string{
		"No config file loaded (using defaults).",
		"Server:          " + DefaultServerURL,
		"Debug:           true",
		"Timeout:         30s",
		"Model:           (server default)",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output, got:\n%s", want, out)
		}
	}

	buf.Reset()
	ShowConfig(&buf, "config/config.json", &Config{Server: "https://x.example", ExportMarkdownPath: "out.md"}, Config{})
	out = buf.String()
	if !strings.Contains(out, "Config file: config/config.json") || !strings.Contains(out, "Export Markdown: out.md") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}
