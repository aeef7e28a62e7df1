package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/Tiomehsh/datasheet-ai-analyzer/internal/render"
	"github.com/Tiomehsh/datasheet-ai-analyzer/internal/session"
)

var (
	headerStyle  = lipgloss.NewStyle().Background(lipgloss.Color("62")).Foreground(lipgloss.Color("230")).Padding(0, 1)
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	noticeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("40"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	detailsStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("250")).PaddingLeft(2)
)

// View renders the application's UI based on the current state of the model.
func (m *model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	switch m.state {
	case viewConfig:
		return m.configView()
	case viewModelSelector:
		return lipgloss.NewStyle().Margin(1, 2).Render(m.modelList.View())
	case viewWorkspace:
		return m.workspaceView()
	default:
		return "Unknown state"
	}
}

func (m *model) configView() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("API Configuration"))
	b.WriteString("  ")
	b.WriteString(labelStyle.Render(m.display.Status))
	b.WriteString("\n\n")
	for _, f := range m.visibleFields() {
		b.WriteString(m.configInputs[f].View())
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	b.WriteString("\n")
	help := "tab: next field • enter: save • ctrl+c: quit"
	if m.display.WorkflowVisible {
		help = "tab: next field • enter: save • esc: back • ctrl+c: quit"
	}
	b.WriteString(helpStyle.Render(help))
	return lipgloss.NewStyle().Margin(1, 2).Render(b.String())
}

func (m *model) workspaceView() string {
	var b strings.Builder

	modelName := m.display.SelectedModel
	if modelName == "" {
		modelName = "(server default)"
	}
	header := fmt.Sprintf("Server: %s | Status: %s | Model: %s | %s",
		m.config.ServerURL(), m.display.Status, modelName, m.display.State)
	b.WriteString(headerStyle.Render(header))
	b.WriteString("\n\n")
	b.WriteString(m.fileInput.View())
	b.WriteString("\n")
	b.WriteString(m.queryArea.View())
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(helpStyle.Render(m.workspaceHelp()))
	return b.String()
}

func (m *model) workspaceHelp() string {
	parts := []string{"enter: upload/analyze", "tab: switch input"}
	if m.display.RetryVisible {
		parts = append(parts, "ctrl+r: retry")
	}
	if m.display.RegenerateVisible {
		parts = append(parts, "ctrl+g: regenerate")
	}
	if m.display.Dataset != nil {
		parts = append(parts, "ctrl+p: preview")
	}
	parts = append(parts, "ctrl+y: copy script", "ctrl+l: models", "ctrl+e: config", "ctrl+c: quit")
	return strings.Join(parts, " • ")
}

// statusLine shows progress, the last alert, or the last notice.
func (m *model) statusLine() string {
	if m.loading() {
		timer := fmt.Sprintf("%.1f", time.Since(m.requestStartTime).Seconds())
		label := m.busyLabel
		if m.display.InProgress {
			label = fmt.Sprintf("Analyzing... attempt %d", m.display.ProgressAttempt)
		}
		return fmt.Sprintf("%s %s %ss", m.spinner.View(), label, timer)
	}
	if m.err != nil {
		return errorStyle.Render("Error: " + m.err.Error())
	}
	if m.notice != "" {
		return noticeStyle.Render(m.notice)
	}
	return ""
}

// workspaceContent builds the scrollable panel: dataset overview, attempt
// counters, status or error, generated script and rendered result.
func (m *model) workspaceContent() string {
	d := m.display
	width := m.viewport.Width
	var b strings.Builder

	if d.Dataset != nil {
		b.WriteString(titleStyle.Render("Dataset"))
		b.WriteString("\n")
		fmt.Fprintf(&b, "%s %s (%d rows)\n", labelStyle.Render("File:"), d.Dataset.Filename, d.Dataset.RowCount)
		fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("Columns:"), strings.Join(d.Dataset.Columns, ", "))
		if m.hasPreview {
			mode := "short, ctrl+p to expand"
			if d.PreviewExpanded {
				mode = "full, ctrl+p to collapse"
			}
			fmt.Fprintf(&b, "%s\n%s\n", labelStyle.Render("Preview ("+mode+"):"), m.preview.Render(d.PreviewExpanded))
		}
		b.WriteString("\n")
	}

	if d.CountersVisible {
		fmt.Fprintf(&b, "%s %d of %d (retries so far: %d)\n",
			labelStyle.Render("Attempt"), d.Attempt, d.MaxAttempts, d.RetryCount)
	}
	if d.Error != "" {
		b.WriteString(errorStyle.Render("Error: " + d.Error))
		b.WriteString("\n")
		if d.Details != "" {
			b.WriteString(detailsStyle.Render(d.Details))
			b.WriteString("\n")
		}
		if d.RetryVisible {
			b.WriteString(noticeStyle.Render("Retry available (ctrl+r)"))
			b.WriteString("\n")
		}
	} else if d.StatusText != "" {
		b.WriteString(noticeStyle.Render(d.StatusText))
		b.WriteString("\n")
	}

	if d.Script != "" {
		b.WriteString("\n")
		b.WriteString(titleStyle.Render("Generated script"))
		b.WriteString("\n")
		b.WriteString(highlightScript(d.Script))
		b.WriteString("\n")
	}

	if d.HasOutput() {
		b.WriteString("\n")
		b.WriteString(titleStyle.Render("Result"))
		b.WriteString("\n")
		b.WriteString(render.Terminal(d.Output, width))
		b.WriteString("\n")
	}
	return b.String()
}

// highlightScript colours the script panel, leaving placeholder text alone.
func highlightScript(src string) string {
	if src == session.ScriptPending || src == session.ScriptMissing {
		return src
	}
	return render.Script(src)
}
