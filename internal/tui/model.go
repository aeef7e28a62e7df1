// Package tui is the interactive terminal front end for a session.
package tui

import (
	"context"
	"strconv"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"

	"github.com/Tiomehsh/datasheet-ai-analyzer/internal/analysis"
	"github.com/Tiomehsh/datasheet-ai-analyzer/internal/appconfig"
	"github.com/Tiomehsh/datasheet-ai-analyzer/internal/preview"
	"github.com/Tiomehsh/datasheet-ai-analyzer/internal/session"
)

// viewState is the screen currently shown.
type viewState int

const (
	// viewConfig is the provider config form.
	viewConfig viewState = iota
	// viewWorkspace holds the file, query, script and result panels.
	viewWorkspace
	// viewModelSelector lists the models the server offers.
	viewModelSelector
)

// Config form fields, in focus order.
const (
	fieldType = iota
	fieldKey
	fieldBase
	fieldMaxRetries
	fieldCount
)

// Workspace inputs, in focus order.
const (
	focusFile = iota
	focusQuery
)

// model is the Bubble Tea model driving one session.
type model struct {
	ctx     context.Context
	config  *appconfig.Config
	session *session.Session
	display session.Display

	state     viewState
	pending   int
	busyLabel string
	err       error
	notice    string

	configInputs []textinput.Model
	configFocus  int
	fileInput    textinput.Model
	queryArea    textarea.Model
	workFocus    int
	modelList    list.Model
	viewport     viewport.Model
	spinner      spinner.Model

	preview    preview.Preview
	hasPreview bool

	width, height    int
	requestStartTime time.Time
	copyScript       func(string) error
}

// item is a selectable model name.
type item struct {
	title    string
	selected bool
}

// Title returns the model name.
func (i item) Title() string { return i.title }

// Description marks the model currently in use.
func (i item) Description() string {
	if i.selected {
		return "Currently selected"
	}
	return "Select this model"
}

// FilterValue returns the title of the item, used for filtering.
func (i item) FilterValue() string { return i.title }

func initialModel(ctx context.Context, cfg *appconfig.Config, sess *session.Session) *model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	inputs := make([]textinput.Model, fieldCount)
	for i := range inputs {
		ti := textinput.New()
		ti.CharLimit = 512
		inputs[i] = ti
	}
	inputs[fieldType].Prompt = "Provider (openai/azure/custom): "
	inputs[fieldType].Placeholder = string(analysis.ProviderOpenAI)
	inputs[fieldKey].Prompt = "API key: "
	inputs[fieldKey].EchoMode = textinput.EchoPassword
	inputs[fieldKey].EchoCharacter = '•'
	inputs[fieldBase].Prompt = "Base URL: "
	inputs[fieldMaxRetries].Prompt = "Max retries: "
	inputs[fieldMaxRetries].Placeholder = strconv.Itoa(analysis.DefaultMaxRetries)
	inputs[fieldType].Focus()

	fi := textinput.New()
	fi.Prompt = "Data file: "
	fi.Placeholder = "path/to/data.csv"
	fi.CharLimit = -1

	ta := textarea.New()
	ta.Placeholder = "Describe the analysis you need..."
	ta.Prompt = "Query: "
	ta.ShowLineNumbers = false
	ta.CharLimit = -1
	ta.SetHeight(2)
	ta.KeyMap.InsertNewline.SetEnabled(false)

	modelList := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	modelList.Title = "Select a Model"
	modelList.DisableQuitKeybindings()

	m := &model{
		ctx:          ctx,
		config:       cfg,
		session:      sess,
		display:      sess.Display(),
		state:        viewConfig,
		configInputs: inputs,
		fileInput:    fi,
		queryArea:    ta,
		modelList:    modelList,
		viewport:     viewport.New(100, 10),
		spinner:      s,
		copyScript:   clipboard.WriteAll,
	}
	m.syncBaseField()
	return m
}

// loading reports whether any request started by the UI is still outstanding.
func (m *model) loading() bool {
	return m.pending > 0 || m.display.InProgress
}

// refresh pulls the latest session snapshot and rebuilds the result panel.
func (m *model) refresh() {
	m.display = m.session.Display()
	m.viewport.SetContent(m.workspaceContent())
}

// fillConfigForm copies the in-memory config into the form fields.
func (m *model) fillConfigForm() {
	cfg := m.session.Config()
	m.configInputs[fieldType].SetValue(string(cfg.Type))
	m.configInputs[fieldKey].SetValue(cfg.Key)
	m.configInputs[fieldBase].SetValue(cfg.Base)
	m.configInputs[fieldMaxRetries].SetValue(strconv.Itoa(cfg.MaxRetries))
	m.syncBaseField()
}

func (m *model) configForm() session.ConfigForm {
	return session.ConfigForm{
		Type:       m.configInputs[fieldType].Value(),
		Key:        m.configInputs[fieldKey].Value(),
		Base:       m.configInputs[fieldBase].Value(),
		MaxRetries: m.configInputs[fieldMaxRetries].Value(),
	}
}

// formProvider is the provider typed into the form, or "" when unrecognized.
func (m *model) formProvider() analysis.ProviderType {
	p, err := analysis.ParseProviderType(m.configInputs[fieldType].Value())
	if err != nil {
		return ""
	}
	return p
}

// syncBaseField updates the base URL placeholder for the typed provider.
func (m *model) syncBaseField() {
	m.configInputs[fieldBase].Placeholder = session.BasePlaceholder(m.formProvider())
}

// visibleFields lists the form fields shown for the typed provider.
func (m *model) visibleFields() []int {
	fields := []int{fieldType, fieldKey}
	if session.BaseFieldVisible(m.formProvider()) {
		fields = append(fields, fieldBase)
	}
	return append(fields, fieldMaxRetries)
}

func (m *model) moveConfigFocus(delta int) {
	fields := m.visibleFields()
	pos := 0
	for i, f := range fields {
		if f == m.configFocus {
			pos = i
		}
	}
	pos = (pos + delta + len(fields)) % len(fields)
	m.configFocus = fields[pos]
	for i := range m.configInputs {
		if i == m.configFocus {
			m.configInputs[i].Focus()
		} else {
			m.configInputs[i].Blur()
		}
	}
}

func (m *model) setWorkFocus(focus int) {
	m.workFocus = focus
	if focus == focusFile {
		m.queryArea.Blur()
		m.fileInput.Focus()
		return
	}
	m.fileInput.Blur()
	m.queryArea.Focus()
}

func (m *model) showWorkspace() {
	m.state = viewWorkspace
	if m.display.Dataset == nil {
		m.setWorkFocus(focusFile)
	} else {
		m.setWorkFocus(focusQuery)
	}
}

func (m *model) modelItems() []list.Item {
	items := make([]list.Item, len(m.display.Models))
	for i, name := range m.display.Models {
		items[i] = item{title: name, selected: name == m.display.SelectedModel}
	}
	return items
}
