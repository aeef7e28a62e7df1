// internal/metrics/types.go
package metrics

import (
	"math"
	"time"
)

// Outcome classifies how one analysis attempt ended.
type Outcome int

const (
	// OutcomeSucceeded means the server ran the script and returned a result.
	OutcomeSucceeded Outcome = iota
	// OutcomeFailed means the server reported an application error.
	OutcomeFailed
	// OutcomeTransportError means no usable response came back.
	OutcomeTransportError
)

// ModelMetrics is the top-level document for a single model's aggregated data.
type ModelMetrics struct {
	ModelName      string                 `json:"model_name"`
	LastUpdatedUTC time.Time              `json:"last_updated_utc"`
	OverallStats   RunningAggregatedStats `json:"overall_stats"`
	AttemptBuckets []AttemptBucket        `json:"attempt_buckets"`
}

// AttemptBucket holds aggregated stats for attempts at one retry depth.
type AttemptBucket struct {
	Attempt int                    `json:"attempt"`
	Stats   RunningAggregatedStats `json:"stats"`
}

// RunningAggregatedStats stores the running statistical values for a set of attempts.
type RunningAggregatedStats struct {
	TotalRequests   int64 `json:"total_requests"`
	Succeeded       int64 `json:"succeeded"`
	Failed          int64 `json:"failed"`
	TransportErrors int64 `json:"transport_errors"`

	DurationMillis RunningStat `json:"duration_ms"`
}

// SuccessRate returns the share of requests that succeeded, or 0 with none recorded.
func (s RunningAggregatedStats) SuccessRate() float64 {
	if s.TotalRequests == 0 {
		return 0
	}
	return float64(s.Succeeded) / float64(s.TotalRequests)
}

// RunningStat holds the necessary values for online calculation of mean, variance, and stddev.
type RunningStat struct {
	Count int64   `json:"count"`
	Mean  float64 `json:"mean"`
	M2    float64 `json:"m2"` // Sum of squares of differences from the current mean
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

// StdDev returns the sample standard deviation.
func (rs RunningStat) StdDev() float64 {
	if rs.Count < 2 {
		return 0
	}
	return math.Sqrt(rs.M2 / float64(rs.Count-1))
}

// add updates the statistic using Welford's online algorithm.
func (rs *RunningStat) add(value float64) {
	rs.Count++
	if rs.Count == 1 {
		rs.Min = value
		rs.Max = value
	} else {
		rs.Min = math.Min(rs.Min, value)
		rs.Max = math.Max(rs.Max, value)
	}

	delta := value - rs.Mean
	rs.Mean += delta / float64(rs.Count)
	rs.M2 += delta * (value - rs.Mean)
}
