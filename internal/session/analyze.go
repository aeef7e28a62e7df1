package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/Tiomehsh/datasheet-ai-analyzer/internal/analysis"
	"github.com/Tiomehsh/datasheet-ai-analyzer/internal/logging"
	"github.com/Tiomehsh/datasheet-ai-analyzer/internal/render"
)

// Analyze runs the first attempt for query against the uploaded dataset.
//
// Application failures reported by the server come back inside the Attempt
// with a nil error. Validation problems, ErrBusy and transport failures
// (wrapping ErrAnalysisFailed) are returned as errors.
func (s *Session) Analyze(ctx context.Context, query string) (*analysis.Attempt, error) {
	if !s.Config().Configured() {
		return nil, ErrNotConfigured
	}
	if s.Display().Dataset == nil {
		return nil, ErrNoDataset
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	return s.perform(ctx, query, StateAnalyzing, func(Display) int { return 0 })
}

// Retry repeats the last query with the displayed retry count plus one. It
// is only available while the retry affordance is shown.
func (s *Session) Retry(ctx context.Context) (*analysis.Attempt, error) {
	query, err := s.repeatable()
	if err != nil {
		return nil, err
	}
	return s.perform(ctx, query, StateRetrying, func(d Display) int {
		return d.RetryCount + 1
	})
}

// Regenerate restarts the last query at retry count zero.
func (s *Session) Regenerate(ctx context.Context) (*analysis.Attempt, error) {
	query, err := s.repeatable()
	if err != nil {
		return nil, err
	}
	return s.perform(ctx, query, StateRegenerating, func(Display) int { return 0 })
}

func (s *Session) repeatable() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.display.Dataset == nil {
		return "", ErrNoDataset
	}
	if s.lastQuery == "" {
		return "", ErrEmptyQuery
	}
	return s.lastQuery, nil
}

// perform is the single-flight analysis cycle. A caller that finds another
// request outstanding gets ErrBusy and changes nothing.
func (s *Session) perform(ctx context.Context, query string, via State, retryCount func(Display) int) (*analysis.Attempt, error) {
	if !s.guard.TryAcquire(1) {
		return nil, ErrBusy
	}

	s.mu.Lock()
	switch {
	case via == StateRetrying && !s.display.RetryVisible:
		s.mu.Unlock()
		s.guard.Release(1)
		return nil, ErrRetryUnavailable
	case via == StateRegenerating && !s.display.RegenerateVisible:
		s.mu.Unlock()
		s.guard.Release(1)
		return nil, ErrRegenerateNotAllowed
	}
	retry := retryCount(s.display)
	req := analysis.AnalyzeRequest{
		Filename:   s.display.Dataset.Filename,
		Query:      query,
		Model:      s.display.SelectedModel,
		APIConfig:  s.config,
		RetryCount: retry,
	}
	s.lastQuery = query
	s.mu.Unlock()

	defer s.finish()

	s.update(func(d *Display) {
		d.State = via
		d.ControlsEnabled = false
		d.Error = ""
		d.Details = ""
		d.StatusText = ""
		d.RetryVisible = false
		d.InProgress = true
		d.ProgressAttempt = retry + 1
		d.Script = ScriptPending
		d.Output = render.Node{}
	})
	if via != StateAnalyzing {
		s.update(func(d *Display) { d.State = StateAnalyzing })
	}

	attempt, err := s.backend.Analyze(ctx, req)
	if err != nil {
		logging.LogEvent("analyze %s (retry %d) failed: %v", req.Filename, retry, err)
		s.update(func(d *Display) {
			d.State = StateFailed
			d.Error = ErrAnalysisFailed.Error()
			d.Output = render.Node{}
		})
		return nil, fmt.Errorf("%w: %w", ErrAnalysisFailed, err)
	}

	s.update(func(d *Display) { applyAttempt(d, attempt) })
	return attempt, nil
}

// finish re-enables the controls and frees the guard under one lock, so an
// observer that sees enabled controls can start the next request.
func (s *Session) finish() {
	s.mu.Lock()
	s.display.ControlsEnabled = true
	s.display.InProgress = false
	s.guard.Release(1)
	snapshot := s.display.clone()
	observer := s.observer
	s.mu.Unlock()
	if observer != nil {
		observer(snapshot)
	}
}

// applyAttempt reflects a decoded response. An attached error suppresses the
// result even when the server also sent one.
func applyAttempt(d *Display, a *analysis.Attempt) {
	d.RegenerateVisible = a.Success
	d.Script = a.Script.String()
	if d.Script == "" {
		d.Script = ScriptMissing
	}

	d.CountersVisible = true
	d.RetryCount = a.RetryCount
	d.Attempt = a.AttemptNumber
	if d.Attempt < 1 {
		d.Attempt = defaultAttempt
	}
	d.MaxAttempts = a.MaxAttempts
	if d.MaxAttempts < 1 {
		d.MaxAttempts = analysis.DefaultMaxRetries
	}
	d.ProgressAttempt = d.Attempt

	d.RetryVisible = !a.Success && a.CanRetry

	if a.Failed() {
		d.Error = a.Error.String()
		d.Details = a.Details.String()
		d.Output = render.Node{}
		d.State = StateFailed
		return
	}

	d.Output = render.Result(a.Result)
	d.StatusText = a.Status.String()
	if a.Success {
		d.State = StateSucceeded
	} else {
		d.State = StateFailed
	}
}
