package datasheet

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/k0kubun/pp"

	"github.com/Tiomehsh/datasheet-ai-analyzer/internal/api"
	"github.com/Tiomehsh/datasheet-ai-analyzer/internal/appconfig"
	"github.com/Tiomehsh/datasheet-ai-analyzer/internal/metrics"
	"github.com/Tiomehsh/datasheet-ai-analyzer/internal/session"
)

var (
	success = color.New(color.FgGreen).SprintFunc()
	failure = color.New(color.FgRed).SprintFunc()
	label   = color.New(color.FgCyan, color.Bold).SprintFunc()
	muted   = color.New(color.FgHiBlack).SprintFunc()
)

// newBackend builds the HTTP client commands talk to, recording analysis
// metrics when a metrics file is configured.
func newBackend(cfg *appconfig.Config) (session.Backend, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration is not loaded")
	}
	client := api.New(cfg)
	if cfg.MetricsFile == "" {
		return client, nil
	}
	agg, err := metrics.NewAggregator(cfg.MetricsFile)
	if err != nil {
		return nil, err
	}
	return metrics.NewBackend(client, agg), nil
}

// connect builds a session and loads the config stored on the server.
// Commands that need a key fail early when none is stored.
func connect(ctx context.Context, cfg *appconfig.Config) (*session.Session, error) {
	backend, err := newBackend(cfg)
	if err != nil {
		return nil, err
	}
	sess := session.New(backend)
	if !sess.LoadConfig(ctx) {
		return sess, fmt.Errorf("%w: run 'datasheet config save --key ...' first", session.ErrNotConfigured)
	}
	if cfg.Model != "" && !sess.SelectModel(cfg.Model) {
		return sess, fmt.Errorf("model %q is not offered by the server (available: %v)", cfg.Model, sess.Display().Models)
	}
	return sess, nil
}

// writeJSON prints v as indented JSON.
func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// debugDump pretty-prints v to out when debug output is enabled.
func debugDump(out io.Writer, cfg *appconfig.Config, v any) {
	if cfg == nil || !cfg.Debug {
		return
	}
	_, _ = pp.Fprintln(out, v)
}
