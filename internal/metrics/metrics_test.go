package metrics

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Tiomehsh/datasheet-ai-analyzer/internal/analysis"
	"github.com/Tiomehsh/datasheet-ai-analyzer/internal/session"
)

func TestRunningStatWelford(t *testing.T) {
	var rs RunningStat
	for _, v := range []float64{2, 4, 4, 4, 5, 5, 7, 9} {
		rs.add(v)
	}
	if rs.Count != 8 || rs.Mean != 5 || rs.Min != 2 || rs.Max != 9 {
		t.Fatalf("unexpected stat: %+v", rs)
	}
	if got, want := rs.StdDev(), math.Sqrt(32.0/7.0); math.Abs(got-want) > 1e-9 {
		t.Fatalf("stddev = %v, want %v", got, want)
	}
	if (RunningStat{Count: 1}).StdDev() != 0 {
		t.Fatalf("stddev of one sample must be 0")
	}
}

func TestAggregatorRecordsAndPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metrics", "analysis.json")
	agg, err := NewAggregator(path)
	if err != nil {
		t.Fatalf("NewAggregator: %v", err)
	}

	records := []struct {
		model   string
		retry   int
		outcome Outcome
		elapsed time.Duration
	}{
		{"gpt-4o", 0, OutcomeFailed, 100 * time.Millisecond},
		{"gpt-4o", 1, OutcomeSucceeded, 300 * time.Millisecond},
		{"gpt-4o", 0, OutcomeTransportError, 200 * time.Millisecond},
		{"", 0, OutcomeSucceeded, 50 * time.Millisecond},
	}
	for _, r := range records {
		if err := agg.Record(r.model, r.retry, r.outcome, r.elapsed); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	reloaded, err := NewAggregator(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	snap := reloaded.Snapshot()
	if len(snap) != 2 || snap[0].ModelName != unknownModel || snap[1].ModelName != "gpt-4o" {
		t.Fatalf("unexpected models: %+v", snap)
	}

	gpt := snap[1]
	overall := gpt.OverallStats
	if overall.TotalRequests != 3 || overall.Succeeded != 1 || overall.Failed != 1 || overall.TransportErrors != 1 {
		t.Fatalf("unexpected overall stats: %+v", overall)
	}
	if overall.DurationMillis.Mean != 200 {
		t.Fatalf("expected mean 200ms, got %v", overall.DurationMillis.Mean)
	}
	if len(gpt.AttemptBuckets) != 2 || gpt.AttemptBuckets[0].Attempt != 1 || gpt.AttemptBuckets[0].Stats.TotalRequests != 2 {
		t.Fatalf("unexpected buckets: %+v", gpt.AttemptBuckets)
	}

	// Welford state survives the round trip.
	if err := reloaded.Record("gpt-4o", 0, OutcomeSucceeded, 200*time.Millisecond); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if got := reloaded.Snapshot()[1].OverallStats.DurationMillis.StdDev(); math.Abs(got-math.Sqrt(20000.0/3.0)) > 1e-9 {
		t.Fatalf("unexpected stddev after reload: %v", got)
	}
}

func TestLoadMissingAndCorruptFiles(t *testing.T) {
	dir := t.TempDir()
	got, err := Load(filepath.Join(dir, "absent.json"))
	if err != nil || got != nil {
		t.Fatalf("missing file must load empty, got %v / %v", got, err)
	}

	bad := filepath.Join(dir, "bad.json")
	if err := writeFile(bad, "{not json"); err != nil {
		t.Fatal(err)
	}
	if _, err := NewAggregator(bad); err == nil {
		t.Fatalf("expected decode error")
	}
}

type stubBackend struct {
	session.Backend
	attempt *analysis.Attempt
	err     error
}

func (s stubBackend) Analyze(context.Context, analysis.AnalyzeRequest) (*analysis.Attempt, error) {
	return s.attempt, s.err
}

func TestBackendClassifiesAttempts(t *testing.T) {
	agg, err := NewAggregator(filepath.Join(t.TempDir(), "m.json"))
	if err != nil {
		t.Fatal(err)
	}

	cases := []stubBackend{
		{attempt: &analysis.Attempt{Success: true}},
		{attempt: &analysis.Attempt{Success: false, Error: "attempt 1 failed"}},
		{err: errors.New("connection refused")},
	}
	for _, c := range cases {
		b := NewBackend(c, agg)
		_, gotErr := b.Analyze(context.Background(), analysis.AnalyzeRequest{Model: "m", RetryCount: 0})
		if !errors.Is(gotErr, c.err) {
			t.Fatalf("error must pass through unchanged, got %v", gotErr)
		}
	}

	stats := agg.Snapshot()[0].OverallStats
	if stats.Succeeded != 1 || stats.Failed != 1 || stats.TransportErrors != 1 {
		t.Fatalf("unexpected classification: %+v", stats)
	}
}

func TestRenderTable(t *testing.T) {
	out := RenderTable([]ModelMetrics{{
		ModelName:    "gpt-4o",
		OverallStats: RunningAggregatedStats{TotalRequests: 2, Succeeded: 1, Failed: 1},
		AttemptBuckets: []AttemptBucket{
			{Attempt: 1, Stats: RunningAggregatedStats{TotalRequests: 1, Failed: 1}},
			{Attempt: 2, Stats: RunningAggregatedStats{TotalRequests: 1, Succeeded: 1}},
		},
	}})
	for _, want := range []string{"Model", "Success %", "gpt-4o", "all", "50.0", "100.0"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in table:\n%s", want, out)
		}
	}
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}
