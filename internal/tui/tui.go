package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Tiomehsh/datasheet-ai-analyzer/internal/appconfig"
	"github.com/Tiomehsh/datasheet-ai-analyzer/internal/logging"
	"github.com/Tiomehsh/datasheet-ai-analyzer/internal/session"
)

// Start runs the interactive UI until the user quits. The caller owns log
// setup; nothing may write to stdout or stderr while the UI is up.
func Start(ctx context.Context, cfg *appconfig.Config, backend session.Backend) error {
	if cfg == nil {
		return fmt.Errorf("configuration is not loaded")
	}

	sess := session.New(backend)
	if cfg.Model != "" {
		sess.SelectModel(cfg.Model)
	}

	m := initialModel(ctx, cfg, sess)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run ui: %w", err)
	}
	logging.LogEvent("ui closed")
	return nil
}
