package appconfig

import (
	"fmt"
	"io"
)

// ShowConfig prints the current configuration summary.
func ShowConfig(out io.Writer, file string, cfg *Config, fallback Config) {
	if file == "" {
		fmt.Fprintln(out, "No config file loaded (using defaults).")
	} else {
		fmt.Fprintf(out, "Config file: %s\n\n", file)
	}

	fmt.Fprintln(out, "Current configuration:")
	if cfg == nil {
		cfg = &fallback
	}

	timeout := "none"
	if d := cfg.RequestTimeout(); d > 0 {
		timeout = d.String()
	}
	model := cfg.Model
	if model == "" {
		model = "(server default)"
	}

	fmt.Fprintf(out, "  Server:          %s\n", cfg.ServerURL())
	fmt.Fprintf(out, "  Debug:           %v\n", cfg.Debug)
	fmt.Fprintf(out, "  JSON Mode:       %v\n", cfg.JSONMode)
	fmt.Fprintf(out, "  Timeout:         %s\n", timeout)
	fmt.Fprintf(out, "  Model:           %s\n", model)
	fmt.Fprintf(out, "  Log File:        %s\n", cfg.LogFilePath())
	if cfg.ExportMarkdownPath != "" {
		fmt.Fprintf(out, "  Export Markdown: %s\n", cfg.ExportMarkdownPath)
	}
	if cfg.MetricsFile != "" {
		fmt.Fprintf(out, "  Metrics File:    %s\n", cfg.MetricsFile)
	}
}
