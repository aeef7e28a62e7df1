// internal/metrics/aggregator.go
package metrics

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/Tiomehsh/datasheet-ai-analyzer/internal/logging"
	"github.com/Tiomehsh/datasheet-ai-analyzer/internal/util"
)

// unknownModel labels attempts sent without an explicit model.
const unknownModel = "(server default)"

// Aggregator collects analysis metrics per model and persists them to a JSON file.
type Aggregator struct {
	mutex    sync.Mutex
	metrics  map[string]*ModelMetrics
	filePath string
	now      func() time.Time
}

// NewAggregator creates an aggregator backed by filePath, loading whatever it
// already holds. A missing file starts empty.
func NewAggregator(filePath string) (*Aggregator, error) {
	agg := &Aggregator{
		metrics:  make(map[string]*ModelMetrics),
		filePath: filePath,
		now:      time.Now,
	}
	loaded, err := Load(filePath)
	if err != nil {
		return nil, err
	}
	for i := range loaded {
		m := loaded[i]
		agg.metrics[m.ModelName] = &m
	}
	return agg, nil
}

// Load reads the metrics file at path. A missing file yields no metrics.
func Load(path string) ([]ModelMetrics, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read metrics: %w", err)
	}
	var out []ModelMetrics
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode metrics %s: %w", path, err)
	}
	return out, nil
}

// Record updates the metrics for model with one attempt and saves the file.
// retryCount is the retry depth the attempt was sent with.
func (a *Aggregator) Record(model string, retryCount int, outcome Outcome, elapsed time.Duration) error {
	if model == "" {
		model = unknownModel
	}
	logging.LogEvent("[METRICS] Record model=%s retry=%d outcome=%d elapsed=%s", model, retryCount, outcome, elapsed)

	a.mutex.Lock()
	modelMetrics, exists := a.metrics[model]
	if !exists {
		modelMetrics = &ModelMetrics{ModelName: model}
		a.metrics[model] = modelMetrics
	}
	modelMetrics.LastUpdatedUTC = a.now().UTC()
	updateStats(&modelMetrics.OverallStats, outcome, elapsed)

	attempt := retryCount + 1
	found := false
	for i := range modelMetrics.AttemptBuckets {
		if modelMetrics.AttemptBuckets[i].Attempt == attempt {
			updateStats(&modelMetrics.AttemptBuckets[i].Stats, outcome, elapsed)
			found = true
			break
		}
	}
	if !found {
		bucket := AttemptBucket{Attempt: attempt}
		updateStats(&bucket.Stats, outcome, elapsed)
		modelMetrics.AttemptBuckets = append(modelMetrics.AttemptBuckets, bucket)
		sort.Slice(modelMetrics.AttemptBuckets, func(i, j int) bool {
			return modelMetrics.AttemptBuckets[i].Attempt < modelMetrics.AttemptBuckets[j].Attempt
		})
	}
	a.mutex.Unlock()

	return a.Save()
}

// Snapshot returns a copy of all metrics ordered by model name.
func (a *Aggregator) Snapshot() []ModelMetrics {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	return a.snapshotLocked()
}

func (a *Aggregator) snapshotLocked() []ModelMetrics {
	out := make([]ModelMetrics, 0, len(a.metrics))
	for _, m := range a.metrics {
		c := *m
		c.AttemptBuckets = append([]AttemptBucket(nil), m.AttemptBuckets...)
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ModelName < out[j].ModelName })
	return out
}

// Save writes the current metrics to the JSON file.
func (a *Aggregator) Save() error {
	a.mutex.Lock()
	snapshot := a.snapshotLocked()
	a.mutex.Unlock()

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return err
	}
	if err := util.WriteFile(a.filePath, data); err != nil {
		return fmt.Errorf("save metrics: %w", err)
	}
	return nil
}

// updateStats updates the running statistics with one attempt.
func updateStats(stats *RunningAggregatedStats, outcome Outcome, elapsed time.Duration) {
	stats.TotalRequests++
	switch outcome {
	case OutcomeSucceeded:
		stats.Succeeded++
	case OutcomeFailed:
		stats.Failed++
	case OutcomeTransportError:
		stats.TransportErrors++
	}
	stats.DurationMillis.add(float64(elapsed.Milliseconds()))
}
