// internal/metrics/backend.go
package metrics

import (
	"context"
	"time"

	"github.com/Tiomehsh/datasheet-ai-analyzer/internal/analysis"
	"github.com/Tiomehsh/datasheet-ai-analyzer/internal/logging"
	"github.com/Tiomehsh/datasheet-ai-analyzer/internal/session"
)

// Backend is a decorator that wraps a session.Backend to record analysis metrics.
// Every other call passes straight through.
type Backend struct {
	session.Backend
	aggregator *Aggregator
}

// NewBackend wraps backend so every /analyze call is recorded in aggregator.
func NewBackend(backend session.Backend, aggregator *Aggregator) *Backend {
	logging.LogEvent("[METRICS] Wrapping backend with metrics recorder")
	return &Backend{Backend: backend, aggregator: aggregator}
}

// Analyze intercepts the wrapped backend's Analyze to time and classify the attempt.
func (b *Backend) Analyze(ctx context.Context, req analysis.AnalyzeRequest) (*analysis.Attempt, error) {
	start := time.Now()
	attempt, err := b.Backend.Analyze(ctx, req)
	elapsed := time.Since(start)

	outcome := OutcomeSucceeded
	switch {
	case err != nil:
		outcome = OutcomeTransportError
	case attempt == nil || !attempt.Success || attempt.Failed():
		outcome = OutcomeFailed
	}
	if recErr := b.aggregator.Record(req.Model, req.RetryCount, outcome, elapsed); recErr != nil {
		logging.LogEvent("[METRICS] %v", recErr)
	}
	return attempt, err
}
