package tui

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Tiomehsh/datasheet-ai-analyzer/internal/analysis"
	"github.com/Tiomehsh/datasheet-ai-analyzer/internal/api"
	"github.com/Tiomehsh/datasheet-ai-analyzer/internal/apitest"
	"github.com/Tiomehsh/datasheet-ai-analyzer/internal/appconfig"
	"github.com/Tiomehsh/datasheet-ai-analyzer/internal/session"
)

var testKeyConfig = analysis.APIConfig{Type: analysis.ProviderOpenAI, Key: "sk-tui-0000", MaxRetries: 3}

// newTestModel builds a model around a session talking to a fake server.
func newTestModel(t *testing.T) (*model, *apitest.Server) {
	t.Helper()
	srv := apitest.New(t)
	cfg := &appconfig.Config{Server: srv.URL}
	sess := session.New(api.NewWithHTTPClient(srv.URL, srv.Client()))
	m := initialModel(context.Background(), cfg, sess)
	_, _ = m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return m, srv
}

func update(t *testing.T, m *model, msg tea.Msg) *model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(*model)
}

func writeCSV(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scores.csv")
	if err := os.WriteFile(path, []byte("name,score\nalice,1\nbob,2\n"), 0o600); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	return path
}

// workspaceModel returns a model that loaded a stored config and uploaded a file.
func workspaceModel(t *testing.T) (*model, *apitest.Server) {
	t.Helper()
	m, srv := newTestModel(t)
	srv.SetConfig(testKeyConfig)
	m = update(t, m, loadConfigCmd(m.ctx, m.session)())
	if m.state != viewWorkspace {
		t.Fatalf("expected workspace after loading a configured key, got %v", m.state)
	}
	m = update(t, m, uploadCmd(m.ctx, m.session, writeCSV(t))())
	if m.display.Dataset == nil {
		t.Fatalf("expected dataset after upload; err=%v", m.err)
	}
	return m, srv
}

func TestQuitAndResize(t *testing.T) {
	m, _ := newTestModel(t)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Error("Expected a quit command, but got nil")
	}

	m = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 50})
	if m.width != 100 || m.height != 50 {
		t.Errorf("Expected width 100 and height 50, got %d and %d", m.width, m.height)
	}
}

func TestInitialViewIsConfigForm(t *testing.T) {
	m, _ := newTestModel(t)
	if m.state != viewConfig {
		t.Fatalf("expected config view, got %v", m.state)
	}

	m.width = 0
	if view := m.View(); view != "Initializing..." {
		t.Errorf("Expected view to be 'Initializing...', got '%s'", view)
	}
	m.width = 120

	view := m.View()
	if !strings.Contains(view, "API Configuration") || !strings.Contains(view, "API key:") {
		t.Fatalf("expected config form, got: %s", view)
	}
	if strings.Contains(view, "Base URL:") {
		t.Fatalf("base URL must be hidden for openai, got: %s", view)
	}
}

func TestUnconfiguredLoadStaysOnForm(t *testing.T) {
	m, _ := newTestModel(t)
	m = update(t, m, loadConfigCmd(m.ctx, m.session)())
	if m.state != viewConfig {
		t.Fatalf("expected config view without a stored key, got %v", m.state)
	}
	if got := m.configInputs[fieldMaxRetries].Value(); got != "3" {
		t.Fatalf("expected max retries 3 in form, got %q", got)
	}
}

func TestBaseFieldFollowsProvider(t *testing.T) {
	m, _ := newTestModel(t)
	m.configInputs[fieldType].SetValue("azure")
	m.syncBaseField()

	if !strings.Contains(m.View(), "Base URL:") {
		t.Fatalf("expected base URL field for azure")
	}
	if got := m.configInputs[fieldBase].Placeholder; got != session.BasePlaceholder(analysis.ProviderAzure) {
		t.Fatalf("unexpected placeholder %q", got)
	}

	m.moveConfigFocus(1)
	m.moveConfigFocus(1)
	if m.configFocus != fieldBase {
		t.Fatalf("expected focus on base field, got %d", m.configFocus)
	}
}

func TestSaveConfigFlow(t *testing.T) {
	m, srv := newTestModel(t)
	m.configInputs[fieldKey].SetValue("sk-typed")
	m.configInputs[fieldMaxRetries].SetValue("")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil || m.pending != 1 {
		t.Fatalf("expected save to start; pending=%d", m.pending)
	}

	m = update(t, m, saveConfigCmd(m.ctx, m.session, m.configForm())())
	if m.state != viewWorkspace {
		t.Fatalf("expected workspace after save, got %v (err=%v)", m.state, m.err)
	}
	if got := srv.Config().MaxRetries; got != 3 {
		t.Fatalf("expected stored max retries 3, got %d", got)
	}

	m = update(t, m, fetchModelsCmd(m.ctx, m.session)())
	if len(m.modelList.Items()) != 2 {
		t.Fatalf("expected two models, got %d", len(m.modelList.Items()))
	}
}

func TestSaveConfigServerErrorShown(t *testing.T) {
	m, srv := newTestModel(t)
	srv.FailSave("invalid key")
	m.configInputs[fieldKey].SetValue("bad")

	m = update(t, m, saveConfigCmd(m.ctx, m.session, m.configForm())())
	if m.state != viewConfig {
		t.Fatalf("expected to stay on config form, got %v", m.state)
	}
	if !strings.Contains(m.View(), "invalid key") {
		t.Fatalf("expected server error in view, got: %s", m.View())
	}
}

func TestUploadShowsDatasetAndPreviewToggle(t *testing.T) {
	m, _ := workspaceModel(t)
	if m.workFocus != focusQuery {
		t.Fatalf("expected focus to move to the query after upload")
	}
	content := m.workspaceContent()
	if !strings.Contains(content, "scores.csv (2 rows)") || !strings.Contains(content, "name, score") {
		t.Fatalf("expected dataset overview, got: %s", content)
	}
	if !strings.Contains(content, "ctrl+p to expand") {
		t.Fatalf("expected collapsed preview, got: %s", content)
	}

	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlP})
	if !m.display.PreviewExpanded {
		t.Fatalf("expected preview expanded after ctrl+p")
	}
}

func TestUploadErrorShown(t *testing.T) {
	m, srv := newTestModel(t)
	srv.SetConfig(testKeyConfig)
	m = update(t, m, loadConfigCmd(m.ctx, m.session)())
	srv.FailUpload("unsupported file type")

	m = update(t, m, uploadCmd(m.ctx, m.session, writeCSV(t))())
	if m.err == nil || !strings.Contains(m.View(), "unsupported file type") {
		t.Fatalf("expected upload error in view, got: %s", m.View())
	}
}

func TestAnalyzeSuccessRendersScriptAndResult(t *testing.T) {
	m, _ := workspaceModel(t)
	m = update(t, m, analysisCmd(m.ctx, func(ctx context.Context) (*analysis.Attempt, error) {
		return m.session.Analyze(ctx, "summarize")
	})())

	content := m.workspaceContent()
	for _, want := range []string{"Generated script", "Result", "Summary", "accuracy", "Success"} {
		if !strings.Contains(content, want) {
			t.Errorf("expected %q in workspace content, got: %s", want, content)
		}
	}
	if !strings.Contains(m.workspaceHelp(), "ctrl+g: regenerate") {
		t.Errorf("expected regenerate affordance after success")
	}
	if strings.Contains(m.workspaceHelp(), "ctrl+r: retry") {
		t.Errorf("retry must be hidden after success")
	}
}

func TestAnalyzeFailureShowsErrorNotResult(t *testing.T) {
	m, srv := workspaceModel(t)
	srv.OnAnalyze(apitest.FailAttempt("execution error"))
	m = update(t, m, analysisCmd(m.ctx, func(ctx context.Context) (*analysis.Attempt, error) {
		return m.session.Analyze(ctx, "summarize")
	})())

	content := m.workspaceContent()
	if !strings.Contains(content, "execution error") || !strings.Contains(content, "ZeroDivisionError") {
		t.Fatalf("expected error and details, got: %s", content)
	}
	if strings.Contains(content, "should not render") {
		t.Fatalf("result must be suppressed when an error is present: %s", content)
	}
	if !strings.Contains(m.workspaceHelp(), "ctrl+r: retry") {
		t.Fatalf("expected retry affordance")
	}
	if m.err != nil {
		t.Fatalf("application errors must not raise an alert, got %v", m.err)
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	if cmd == nil {
		t.Fatalf("expected retry command")
	}
}

func TestBusyAndTransportErrorsAreNotAlerts(t *testing.T) {
	m, _ := workspaceModel(t)
	m = update(t, m, analysisDoneMsg{err: session.ErrBusy})
	if m.err != nil {
		t.Fatalf("busy must be ignored, got %v", m.err)
	}
	m = update(t, m, analysisDoneMsg{err: errors.Join(session.ErrAnalysisFailed, errors.New("eof"))})
	if m.err != nil {
		t.Fatalf("transport failure is shown through the display, got %v", m.err)
	}
	m = update(t, m, analysisDoneMsg{err: session.ErrEmptyQuery})
	if !errors.Is(m.err, session.ErrEmptyQuery) {
		t.Fatalf("expected validation alert, got %v", m.err)
	}
}

func TestCopyScript(t *testing.T) {
	m, _ := workspaceModel(t)
	var copied string
	m.copyScript = func(s string) error {
		copied = s
		return nil
	}

	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlY})
	if m.notice != "No script to copy" {
		t.Fatalf("expected no-script notice, got %q", m.notice)
	}

	m = update(t, m, analysisCmd(m.ctx, func(ctx context.Context) (*analysis.Attempt, error) {
		return m.session.Analyze(ctx, "q")
	})())
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlY})
	if cmd == nil {
		t.Fatalf("expected copy command")
	}
	m = update(t, m, cmd())
	if copied != "print('ok')" || m.notice != "Script copied to clipboard" {
		t.Fatalf("unexpected copy result %q / %q", copied, m.notice)
	}
}

func TestModelSelector(t *testing.T) {
	m, _ := workspaceModel(t)
	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlL})
	if m.state != viewModelSelector {
		t.Fatalf("expected model selector, got %v", m.state)
	}
	if !strings.Contains(m.View(), "Select a Model") {
		t.Fatalf("expected model list title, got: %s", m.View())
	}

	m.modelList.Select(1)
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.state != viewWorkspace || m.display.SelectedModel != "gpt-4o" {
		t.Fatalf("expected gpt-4o selected, got state=%v model=%q", m.state, m.display.SelectedModel)
	}
}

func TestHighlightScriptPlaceholders(t *testing.T) {
	if got := highlightScript(session.ScriptPending); got != session.ScriptPending {
		t.Fatalf("placeholder must not be highlighted, got %q", got)
	}
	if got := highlightScript("print('x')"); !strings.Contains(got, "print") {
		t.Fatalf("expected source in highlighted output, got %q", got)
	}
}
