package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Tiomehsh/datasheet-ai-analyzer/internal/analysis"
	"github.com/Tiomehsh/datasheet-ai-analyzer/internal/session"
)

// configLoadedMsg is sent once the stored config has been fetched.
type configLoadedMsg struct{ configured bool }

// configSavedMsg is sent when a config save completes.
type configSavedMsg struct{ err error }

// modelsFetchedMsg is sent when the model list has been refreshed.
type modelsFetchedMsg struct{}

// uploadDoneMsg is sent when an upload completes.
type uploadDoneMsg struct {
	handle analysis.DatasetHandle
	err    error
}

// analysisDoneMsg is sent when an analyze, retry or regenerate call returns.
type analysisDoneMsg struct{ err error }

// copiedMsg is sent after the script was written to the clipboard.
type copiedMsg struct{ err error }

// tickMsg is a message sent at regular intervals while requests are outstanding.
type tickMsg time.Time

func loadConfigCmd(ctx context.Context, sess *session.Session) tea.Cmd {
	return func() tea.Msg {
		return configLoadedMsg{configured: sess.LoadConfig(ctx)}
	}
}

func saveConfigCmd(ctx context.Context, sess *session.Session, form session.ConfigForm) tea.Cmd {
	return func() tea.Msg {
		return configSavedMsg{err: sess.SaveConfig(ctx, form)}
	}
}

func fetchModelsCmd(ctx context.Context, sess *session.Session) tea.Cmd {
	return func() tea.Msg {
		sess.FetchModels(ctx)
		return modelsFetchedMsg{}
	}
}

func uploadCmd(ctx context.Context, sess *session.Session, path string) tea.Cmd {
	return func() tea.Msg {
		handle, err := sess.Upload(ctx, path)
		return uploadDoneMsg{handle: handle, err: err}
	}
}

// analysisCmd runs one of the session's analysis operations.
func analysisCmd(ctx context.Context, op func(context.Context) (*analysis.Attempt, error)) tea.Cmd {
	return func() tea.Msg {
		_, err := op(ctx)
		return analysisDoneMsg{err: err}
	}
}

func copyCmd(write func(string) error, script string) tea.Cmd {
	return func() tea.Msg {
		return copiedMsg{err: write(script)}
	}
}

// tickCmd creates a Bubble Tea command that sends a tickMsg at a regular interval.
func tickCmd() tea.Cmd {
	return tea.Tick(time.Millisecond*100, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
