package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Tiomehsh/datasheet-ai-analyzer/internal/analysis"
	"github.com/Tiomehsh/datasheet-ai-analyzer/internal/logging"
	"github.com/Tiomehsh/datasheet-ai-analyzer/internal/preview"
	"github.com/Tiomehsh/datasheet-ai-analyzer/internal/session"
)

// Init loads the stored config and starts the spinner.
func (m *model) Init() tea.Cmd {
	return m.start("Loading configuration", loadConfigCmd(m.ctx, m.session))
}

// start marks a request as outstanding and batches it with the spinner and ticker.
func (m *model) start(label string, cmd tea.Cmd) tea.Cmd {
	m.pending++
	m.busyLabel = label
	m.requestStartTime = time.Now()
	m.err = nil
	m.notice = ""
	return tea.Batch(m.spinner.Tick, cmd, tickCmd())
}

func (m *model) finish() {
	if m.pending > 0 {
		m.pending--
	}
	m.refresh()
}

// Update is the central update function for the Bubble Tea model.
func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		cmd  tea.Cmd
		cmds []tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.modelList.SetSize(msg.Width-2, msg.Height-4)
		m.fileInput.Width = msg.Width - len(m.fileInput.Prompt) - 2
		m.queryArea.SetWidth(msg.Width - 3)
		headerHeight := 7
		footerHeight := 3
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-headerHeight-footerHeight, 3)
		m.refresh()
		return m, nil

	case configLoadedMsg:
		m.finish()
		m.fillConfigForm()
		if msg.configured {
			m.showWorkspace()
		}
		return m, nil

	case configSavedMsg:
		m.finish()
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.notice = "API configuration saved"
		m.showWorkspace()
		return m, m.start("Fetching models", fetchModelsCmd(m.ctx, m.session))

	case modelsFetchedMsg:
		m.finish()
		m.modelList.SetItems(m.modelItems())
		return m, nil

	case uploadDoneMsg:
		m.finish()
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.loadPreview(msg.handle)
		m.notice = fmt.Sprintf("Uploaded %s (%d rows)", msg.handle.Filename, msg.handle.RowCount)
		m.setWorkFocus(focusQuery)
		return m, nil

	case analysisDoneMsg:
		m.finish()
		switch {
		case msg.err == nil, errors.Is(msg.err, session.ErrBusy):
		case errors.Is(msg.err, session.ErrAnalysisFailed):
			// Shown through the display's error line.
		default:
			m.err = msg.err
		}
		m.viewport.GotoTop()
		return m, nil

	case copiedMsg:
		if msg.err != nil {
			m.err = fmt.Errorf("copy to clipboard: %w", msg.err)
		} else {
			m.notice = "Script copied to clipboard"
		}
		return m, nil

	case tickMsg:
		if m.loading() {
			m.refresh()
			return m, tickCmd()
		}
		return m, nil
	}

	switch m.state {
	case viewConfig:
		cmds = append(cmds, m.updateConfig(msg))

	case viewModelSelector:
		if key, ok := msg.(tea.KeyMsg); ok {
			switch key.String() {
			case "esc":
				m.state = viewWorkspace
				return m, nil
			case "enter":
				if selected, ok := m.modelList.SelectedItem().(item); ok {
					m.session.SelectModel(selected.Title())
					m.refresh()
					m.notice = "Model: " + selected.Title()
				}
				m.state = viewWorkspace
				return m, nil
			}
		}
		m.modelList, cmd = m.modelList.Update(msg)
		cmds = append(cmds, cmd)

	case viewWorkspace:
		cmds = append(cmds, m.updateWorkspace(msg))
	}

	if m.loading() {
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *model) updateConfig(msg tea.Msg) tea.Cmd {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "tab", "down":
			m.moveConfigFocus(1)
			return nil
		case "shift+tab", "up":
			m.moveConfigFocus(-1)
			return nil
		case "esc":
			if m.display.WorkflowVisible {
				m.showWorkspace()
			}
			return nil
		case "enter":
			if m.pending > 0 {
				return nil
			}
			return m.start("Saving configuration", saveConfigCmd(m.ctx, m.session, m.configForm()))
		}
	}
	var cmd tea.Cmd
	m.configInputs[m.configFocus], cmd = m.configInputs[m.configFocus].Update(msg)
	if m.configFocus == fieldType {
		m.syncBaseField()
	}
	return cmd
}

func (m *model) updateWorkspace(msg tea.Msg) tea.Cmd {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "tab", "shift+tab":
			m.setWorkFocus(1 - m.workFocus)
			return nil
		case "ctrl+e":
			m.fillConfigForm()
			m.state = viewConfig
			return nil
		case "ctrl+l":
			if len(m.display.Models) == 0 {
				m.notice = "No models available"
				return nil
			}
			m.modelList.SetItems(m.modelItems())
			m.state = viewModelSelector
			return nil
		case "ctrl+p":
			m.session.TogglePreview()
			m.refresh()
			return nil
		case "ctrl+y":
			script := m.display.Script
			if script == "" || script == session.ScriptPending || script == session.ScriptMissing {
				m.notice = "No script to copy"
				return nil
			}
			return copyCmd(m.copyScript, script)
		case "ctrl+r":
			if !m.display.RetryVisible {
				return nil
			}
			return m.start("Retrying", analysisCmd(m.ctx, m.session.Retry))
		case "ctrl+g":
			if !m.display.RegenerateVisible {
				return nil
			}
			return m.start("Regenerating", analysisCmd(m.ctx, m.session.Regenerate))
		case "pgup", "pgdown":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return cmd
		case "enter":
			if m.workFocus == focusFile {
				path := strings.TrimSpace(m.fileInput.Value())
				return m.start("Uploading "+path, uploadCmd(m.ctx, m.session, path))
			}
			query := m.queryArea.Value()
			return m.start("Analyzing", analysisCmd(m.ctx, func(ctx context.Context) (*analysis.Attempt, error) {
				return m.session.Analyze(ctx, query)
			}))
		}
	}

	var (
		cmd  tea.Cmd
		cmds []tea.Cmd
	)
	if m.workFocus == focusFile {
		m.fileInput, cmd = m.fileInput.Update(msg)
	} else {
		m.queryArea, cmd = m.queryArea.Update(msg)
	}
	cmds = append(cmds, cmd)
	if _, ok := msg.(tea.MouseMsg); ok {
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}
	return tea.Batch(cmds...)
}

// loadPreview parses the upload's preview HTML for the dataset panel.
func (m *model) loadPreview(handle analysis.DatasetHandle) {
	m.hasPreview = false
	if strings.TrimSpace(handle.Preview) == "" {
		return
	}
	p, err := preview.Parse(handle.Preview)
	if err != nil {
		logging.LogEvent("preview for %s: %v", handle.Filename, err)
		return
	}
	m.preview = p
	m.hasPreview = true
	m.refresh()
}
