package apitest

import (
	"fmt"
	"net/http"

	"github.com/Tiomehsh/datasheet-ai-analyzer/internal/analysis"
)

// DefaultMaxAttempts matches the service's default retry budget.
const DefaultMaxAttempts = 3

// DefaultResult is a small structured result with one stat grid and one table.
func DefaultResult() string {
	return `{"sections":[{"title":"Summary","data":{"accuracy":0.9,"breakdown":{"a":1,"b":2}},` +
		`"content":[{"type":"text","text":"Rows were analyzed."},` +
		`{"type":"table","description":"Sample","data":[{"x":1,"y":2},{"x":3,"y":4}]}]}]}`
}

// SucceedWith answers every attempt successfully with the raw result JSON.
func SucceedWith(result string) AnalyzeFunc {
	return func(req analysis.AnalyzeRequest) (int, any) {
		return http.StatusOK, fmt.Sprintf(
			`{"success":true,"script":"print('ok')","result":%s,"status":"Success","retry_count":%d,"attempt":%d,"max_attempts":%d,"can_retry":%t}`,
			result, req.RetryCount, req.RetryCount+1, DefaultMaxAttempts, req.RetryCount < DefaultMaxAttempts-1,
		)
	}
}

// FailAttempt answers with an application failure the way the service does,
// including the wrapped fallback result that must not be rendered.
func FailAttempt(status string) AnalyzeFunc {
	return func(req analysis.AnalyzeRequest) (int, any) {
		return http.StatusOK, map[string]any{
			"success":      false,
			"script":       "print(1/0)",
			"error":        fmt.Sprintf("attempt %d failed - %s", req.RetryCount+1, status),
			"details":      "ZeroDivisionError: division by zero",
			"retry_count":  req.RetryCount,
			"attempt":      req.RetryCount + 1,
			"max_attempts": DefaultMaxAttempts,
			"can_retry":    req.RetryCount < DefaultMaxAttempts-1,
			"result": map[string]any{"sections": []any{map[string]any{
				"title":   "Result",
				"content": []any{map[string]any{"type": "text", "text": "should not render"}},
				"data":    map[string]any{},
			}}},
		}
	}
}

// FailThenSucceed fails the first n attempts and succeeds afterwards.
func FailThenSucceed(n int, result string) AnalyzeFunc {
	fail, ok := FailAttempt("execution error"), SucceedWith(result)
	return func(req analysis.AnalyzeRequest) (int, any) {
		if req.RetryCount < n {
			return fail(req)
		}
		return ok(req)
	}
}
