package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/Tiomehsh/datasheet-ai-analyzer/internal/analysis"
	"github.com/Tiomehsh/datasheet-ai-analyzer/internal/api"
	"github.com/Tiomehsh/datasheet-ai-analyzer/internal/logging"
)

// Backend is the remote analysis service. *api.Client implements it.
type Backend interface {
	LoadConfig(ctx context.Context) (analysis.APIConfig, error)
	SaveConfig(ctx context.Context, cfg analysis.APIConfig) (analysis.APIConfig, error)
	Models(ctx context.Context, cfg analysis.APIConfig) ([]string, error)
	Upload(ctx context.Context, path string, cfg analysis.APIConfig) (analysis.DatasetHandle, error)
	Analyze(ctx context.Context, req analysis.AnalyzeRequest) (*analysis.Attempt, error)
}

// ConfigForm carries the raw values typed into the config form.
type ConfigForm struct {
	Type       string
	Key        string
	Base       string
	MaxRetries string
}

// Session is one client run. It is safe for concurrent use; at most one
// analysis request is outstanding at any time.
type Session struct {
	backend Backend
	guard   *semaphore.Weighted

	mu        sync.Mutex
	config    analysis.APIConfig
	lastQuery string
	display   Display
	observer  func(Display)
}

// New returns an unconfigured session in the Idle state.
func New(backend Backend) *Session {
	return &Session{
		backend: backend,
		guard:   semaphore.NewWeighted(1),
		config:  analysis.APIConfig{Type: analysis.ProviderOpenAI, MaxRetries: analysis.DefaultMaxRetries},
		display: Display{
			State:           StateIdle,
			Status:          StatusDisconnected,
			ControlsEnabled: true,
		},
	}
}

// SetObserver registers fn to receive a snapshot after every change.
func (s *Session) SetObserver(fn func(Display)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observer = fn
}

// Config returns the provider config currently held in memory.
func (s *Session) Config() analysis.APIConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.config
}

// State returns the current cycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.display.State
}

// Display returns a snapshot of the current display.
func (s *Session) Display() Display {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.display.clone()
}

// update applies fn under the lock and hands the resulting snapshot to the
// observer outside it.
func (s *Session) update(fn func(d *Display)) {
	s.mu.Lock()
	fn(&s.display)
	snapshot := s.display.clone()
	observer := s.observer
	s.mu.Unlock()
	if observer != nil {
		observer(snapshot)
	}
}

// ParseMaxRetries reads the retry budget field. Empty, invalid and
// non-positive values fall back to analysis.DefaultMaxRetries.
func ParseMaxRetries(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return analysis.DefaultMaxRetries
	}
	return n
}

// BasePlaceholder is the hint shown in the base URL field for a provider.
func BasePlaceholder(t analysis.ProviderType) string {
	switch t {
	case analysis.ProviderCustom:
		return "e.g. https://api.example.com"
	case analysis.ProviderAzure:
		return "e.g. https://your-resource.openai.azure.com"
	default:
		return ""
	}
}

// BaseFieldVisible reports whether a provider takes a base URL.
func BaseFieldVisible(t analysis.ProviderType) bool {
	return t == analysis.ProviderCustom || t == analysis.ProviderAzure
}

// LoadConfig fetches the config stored on the server and reports whether it
// carries a key. Failures are logged and leave the session unconfigured.
func (s *Session) LoadConfig(ctx context.Context) bool {
	cfg, err := s.backend.LoadConfig(ctx)
	if err != nil {
		logging.LogEvent("load config failed: %v", err)
		return false
	}
	cfg = cfg.WithDefaults()

	s.mu.Lock()
	s.config = cfg
	s.mu.Unlock()

	configured := cfg.Configured()
	s.update(func(d *Display) {
		d.BasePlaceholder = BasePlaceholder(cfg.Type)
		d.BaseFieldVisible = BaseFieldVisible(cfg.Type)
		if configured {
			d.Status = StatusConnected
			d.WorkflowVisible = true
		}
	})
	if configured {
		s.FetchModels(ctx)
	}
	return configured
}

// SaveConfig validates form and stores it on the server. A server-reported
// error is returned verbatim and leaves the previous config in place.
func (s *Session) SaveConfig(ctx context.Context, form ConfigForm) error {
	providerType, err := analysis.ParseProviderType(form.Type)
	if err != nil {
		return err
	}
	cfg := analysis.APIConfig{
		Type:       providerType,
		Key:        strings.TrimSpace(form.Key),
		Base:       strings.TrimSpace(form.Base),
		MaxRetries: ParseMaxRetries(form.MaxRetries),
	}

	saved, err := s.backend.SaveConfig(ctx, cfg)
	if err != nil {
		var serverErr *api.ServerError
		if errors.As(err, &serverErr) {
			return serverErr
		}
		logging.LogEvent("save config failed: %v", err)
		return ErrSaveFailed
	}
	// The server echoes what it stored; keep the submitted budget if it omits it.
	if saved.MaxRetries < 1 {
		saved.MaxRetries = cfg.MaxRetries
	}
	saved = saved.WithDefaults()

	s.mu.Lock()
	s.config = saved
	s.mu.Unlock()

	s.update(func(d *Display) {
		d.Status = StatusConnected
		d.WorkflowVisible = true
		d.BasePlaceholder = BasePlaceholder(saved.Type)
		d.BaseFieldVisible = BaseFieldVisible(saved.Type)
	})
	return nil
}

// FetchModels refreshes the model list. Failures are logged and leave the
// list empty.
func (s *Session) FetchModels(ctx context.Context) []string {
	cfg := s.Config()
	if !cfg.Configured() {
		return nil
	}
	models, err := s.backend.Models(ctx, cfg)
	if err != nil {
		logging.LogEvent("fetch models failed: %v", err)
		models = nil
	}
	s.update(func(d *Display) {
		d.Models = models
		if !containsString(models, d.SelectedModel) {
			d.SelectedModel = ""
			if len(models) > 0 {
				d.SelectedModel = models[0]
			}
		}
	})
	return append([]string(nil), models...)
}

// SelectModel picks the model sent with analysis requests. Any name is
// accepted while no list has been fetched.
func (s *Session) SelectModel(model string) bool {
	model = strings.TrimSpace(model)
	ok := true
	s.update(func(d *Display) {
		if len(d.Models) > 0 && !containsString(d.Models, model) {
			ok = false
			return
		}
		d.SelectedModel = model
	})
	return ok
}

// Upload sends the file at path and, on success, replaces the dataset.
func (s *Session) Upload(ctx context.Context, path string) (analysis.DatasetHandle, error) {
	cfg := s.Config()
	if !cfg.Configured() {
		return analysis.DatasetHandle{}, ErrNotConfigured
	}
	if strings.TrimSpace(path) == "" {
		return analysis.DatasetHandle{}, ErrNoFile
	}
	if err := checkReadable(path); err != nil {
		return analysis.DatasetHandle{}, fmt.Errorf("%w: %w", ErrNoFile, err)
	}

	var previous State
	s.update(func(d *Display) {
		previous = d.State
		d.State = StateUploading
	})

	handle, err := s.backend.Upload(ctx, path, cfg)
	if err != nil {
		s.update(func(d *Display) {
			switch {
			case d.Dataset == nil:
				d.State = StateIdle
			case previous == StateUploading:
				d.State = StateReady
			default:
				d.State = previous
			}
		})
		var serverErr *api.ServerError
		if errors.As(err, &serverErr) {
			return analysis.DatasetHandle{}, serverErr
		}
		logging.LogEvent("upload %s failed: %v", path, err)
		return analysis.DatasetHandle{}, ErrUploadFailed
	}

	s.update(func(d *Display) {
		h := handle
		d.Dataset = &h
		d.PreviewExpanded = false
		d.State = StateReady
	})
	return handle, nil
}

// TogglePreview switches between the short and full dataset preview and
// returns the new expansion state.
func (s *Session) TogglePreview() bool {
	expanded := false
	s.update(func(d *Display) {
		if d.Dataset == nil {
			return
		}
		d.PreviewExpanded = !d.PreviewExpanded
		expanded = d.PreviewExpanded
	})
	return expanded
}

// checkReadable reports why path cannot be sent as a dataset.
func checkReadable(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	return nil
}

func containsString(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
