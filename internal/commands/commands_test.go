package datasheet

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Tiomehsh/datasheet-ai-analyzer/internal/analysis"
	"github.com/Tiomehsh/datasheet-ai-analyzer/internal/apitest"
	"github.com/Tiomehsh/datasheet-ai-analyzer/internal/appconfig"
	"github.com/Tiomehsh/datasheet-ai-analyzer/internal/session"
)

var storedKey = analysis.APIConfig{Type: analysis.ProviderOpenAI, Key: "sk-cli-12345678", MaxRetries: 3}

func writeDataset(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sales.csv")
	if err := os.WriteFile(path, []byte("region,total\nnorth,10\nsouth,20\n"), 0o600); err != nil {
		t.Fatalf("write dataset: %v", err)
	}
	return path
}

func configuredServer(t *testing.T) *apitest.Server {
	t.Helper()
	srv := apitest.New(t)
	srv.SetConfig(storedKey)
	return srv
}

func TestConfigSaveStoresAndMasksKey(t *testing.T) {
	srv := apitest.New(t)
	out, err := runCommand(t, srv, "config", "save", "--type", "azure", "--key", "sk-abcdef1234", "--base", "https://example.openai.azure.com", "--max-retries", "")
	if err != nil {
		t.Fatalf("config save: %v", err)
	}

	stored := srv.Config()
	if stored.Key != "sk-abcdef1234" || stored.Type != analysis.ProviderAzure || stored.MaxRetries != 3 {
		t.Fatalf("unexpected stored config: %+v", stored)
	}
	if !strings.Contains(out, "Configuration saved.") || !strings.Contains(out, "*********1234") {
		t.Fatalf("expected confirmation with masked key, got %s", out)
	}
	if strings.Contains(out, "sk-abcdef1234") {
		t.Fatalf("key must not be printed, got %s", out)
	}
	if !strings.Contains(out, "https://example.openai.azure.com") {
		t.Fatalf("expected base URL for azure, got %s", out)
	}
}

func TestConfigSaveReportsServerError(t *testing.T) {
	srv := apitest.New(t)
	srv.FailSave("invalid key")
	_, err := runCommand(t, srv, "config", "save", "--key", "bad")
	if err == nil || err.Error() != "invalid key" {
		t.Fatalf("expected server message verbatim, got %v", err)
	}
}

func TestConfigSaveRejectsUnknownProvider(t *testing.T) {
	srv := apitest.New(t)
	_, err := runCommand(t, srv, "config", "save", "--type", "bedrock", "--key", "k")
	if err == nil || !strings.Contains(err.Error(), "unknown provider type") {
		t.Fatalf("expected provider validation error, got %v", err)
	}
	if len(srv.Requests("/save_api_config")) != 0 {
		t.Fatalf("nothing must be sent for an invalid form")
	}
}

func TestConfigLoadJSON(t *testing.T) {
	srv := configuredServer(t)
	out, err := runCommand(t, srv, "--jsonMode", "config", "load")
	if err != nil {
		t.Fatalf("config load: %v", err)
	}
	var got analysis.APIConfig
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode output %q: %v", out, err)
	}
	if got.Key != "***********5678" || got.MaxRetries != 3 {
		t.Fatalf("unexpected config output: %+v", got)
	}
}

func TestModelsRequiresStoredKey(t *testing.T) {
	srv := apitest.New(t)
	_, err := runCommand(t, srv, "models")
	if !errors.Is(err, session.ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestModelsMarksSelected(t *testing.T) {
	srv := configuredServer(t)
	out, err := runCommand(t, srv, "--model", "gpt-4o", "models")
	if err != nil {
		t.Fatalf("models: %v", err)
	}
	if !strings.Contains(out, "  gpt-4o-mini") || !strings.Contains(out, "* gpt-4o\n") {
		t.Fatalf("expected gpt-4o marked, got %s", out)
	}

	_, err = runCommand(t, srv, "--model", "llama", "models")
	if err == nil || !strings.Contains(err.Error(), `model "llama" is not offered`) {
		t.Fatalf("expected unknown model error, got %v", err)
	}
}

func TestUploadPrintsOverviewAndPreview(t *testing.T) {
	srv := configuredServer(t)
	out, err := runCommand(t, srv, "upload", writeDataset(t))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	for _, want := range []string{"sales.csv (2 rows)", "region, total", "north", "south"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output, got %s", want, out)
		}
	}
}

func TestUploadServerError(t *testing.T) {
	srv := configuredServer(t)
	srv.FailUpload("unsupported file type")
	_, err := runCommand(t, srv, "upload", writeDataset(t))
	if err == nil || err.Error() != "unsupported file type" {
		t.Fatalf("expected server message verbatim, got %v", err)
	}
}

func TestAnalyzeRendersAndExports(t *testing.T) {
	srv := configuredServer(t)
	dir := t.TempDir()
	htmlPath := filepath.Join(dir, "result.html")
	mdPath := filepath.Join(dir, "exports", "result.md")

	out, err := runCommand(t, srv, "--exportMarkdown", mdPath, "analyze", writeDataset(t), "-q", "total by region", "--html", htmlPath)
	if err != nil {
		t.Fatalf("analyze: %v\n%s", err, out)
	}
	for _, want := range []string{"Attempt 1 of 3", "Success", "Generated script", "print", "Summary", "accuracy", "Rows were analyzed."} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output, got %s", want, out)
		}
	}

	doc, err := os.ReadFile(htmlPath)
	if err != nil {
		t.Fatalf("read html export: %v", err)
	}
	if !strings.Contains(string(doc), `class="stat-box"`) {
		t.Fatalf("expected stat boxes in html export, got %s", doc)
	}
	md, err := os.ReadFile(mdPath)
	if err != nil {
		t.Fatalf("read markdown export: %v", err)
	}
	if !strings.HasPrefix(string(md), "## Summary") {
		t.Fatalf("unexpected markdown export: %s", md)
	}

	reqs := srv.AnalyzeRequests(t)
	if len(reqs) != 1 || reqs[0].Query != "total by region" || reqs[0].Filename != "sales.csv" || reqs[0].Model != "gpt-4o-mini" {
		t.Fatalf("unexpected analyze requests: %+v", reqs)
	}
}

func TestAnalyzeRequiresQuery(t *testing.T) {
	srv := configuredServer(t)
	_, err := runCommand(t, srv, "analyze", writeDataset(t))
	if !errors.Is(err, session.ErrEmptyQuery) {
		t.Fatalf("expected ErrEmptyQuery, got %v", err)
	}
	if len(srv.Requests("")) != 0 {
		t.Fatalf("nothing must be sent without a query")
	}
}

func TestAnalyzeFailureShowsErrorAndSuppressesResult(t *testing.T) {
	srv := configuredServer(t)
	srv.OnAnalyze(apitest.FailAttempt("execution error"))

	out, err := runCommand(t, srv, "analyze", writeDataset(t), "-q", "divide")
	if err == nil || !strings.Contains(err.Error(), "attempt 1 failed - execution error") {
		t.Fatalf("expected failure error, got %v", err)
	}
	if !strings.Contains(out, "ZeroDivisionError") || !strings.Contains(out, "Retry available") {
		t.Fatalf("expected details and retry hint, got %s", out)
	}
	if strings.Contains(out, "should not render") {
		t.Fatalf("result must be suppressed when an error is present: %s", out)
	}
}

func TestAnalyzeUnsuccessfulWithoutErrorOffersRetry(t *testing.T) {
	srv := configuredServer(t)
	srv.OnAnalyze(func(req analysis.AnalyzeRequest) (int, any) {
		return http.StatusOK, map[string]any{
			"success":      false,
			"script":       "print('partial')",
			"status":       "Partial result",
			"retry_count":  req.RetryCount,
			"attempt":      req.RetryCount + 1,
			"max_attempts": apitest.DefaultMaxAttempts,
			"can_retry":    true,
		}
	})

	out, err := runCommand(t, srv, "analyze", writeDataset(t), "-q", "divide")
	if err == nil {
		t.Fatalf("expected an unsuccessful analysis to fail the command\n%s", out)
	}
	if !strings.Contains(out, "Partial result") || !strings.Contains(out, "Retry available") {
		t.Fatalf("expected status and retry hint, got %s", out)
	}
}

func TestAnalyzeRetriesUntilSuccess(t *testing.T) {
	srv := configuredServer(t)
	srv.OnAnalyze(apitest.FailThenSucceed(2, apitest.DefaultResult()))

	out, err := runCommand(t, srv, "analyze", writeDataset(t), "-q", "divide", "--retries", "5")
	if err != nil {
		t.Fatalf("analyze: %v\n%s", err, out)
	}
	reqs := srv.AnalyzeRequests(t)
	if len(reqs) != 3 {
		t.Fatalf("expected 3 attempts, got %d", len(reqs))
	}
	for i, req := range reqs {
		if req.RetryCount != i {
			t.Fatalf("attempt %d sent retry_count %d", i, req.RetryCount)
		}
	}
	if !strings.Contains(out, "Attempt 3 of 3 (retries so far: 2)") {
		t.Fatalf("expected final counters, got %s", out)
	}
}

func TestAnalyzeRetriesStopWhenServerForbids(t *testing.T) {
	srv := configuredServer(t)
	srv.OnAnalyze(apitest.FailAttempt("execution error"))

	_, err := runCommand(t, srv, "analyze", writeDataset(t), "-q", "divide", "--retries", "10")
	if err == nil {
		t.Fatalf("expected failure after exhausting retries")
	}
	if got := len(srv.AnalyzeRequests(t)); got != apitest.DefaultMaxAttempts {
		t.Fatalf("expected %d attempts, got %d", apitest.DefaultMaxAttempts, got)
	}
}

func TestAnalyzeRegenerate(t *testing.T) {
	srv := configuredServer(t)
	_, err := runCommand(t, srv, "analyze", writeDataset(t), "-q", "totals", "--regenerate")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	reqs := srv.AnalyzeRequests(t)
	if len(reqs) != 2 || reqs[1].RetryCount != 0 || reqs[1].Query != "totals" {
		t.Fatalf("expected a regenerate request at retry 0, got %+v", reqs)
	}
}

func TestAnalyzeTransportFailureIsGeneric(t *testing.T) {
	srv := configuredServer(t)
	srv.OnAnalyze(func(analysis.AnalyzeRequest) (int, any) { return 502, "<html>bad gateway</html>" })

	_, err := runCommand(t, srv, "analyze", writeDataset(t), "-q", "totals")
	if err == nil || !strings.Contains(err.Error(), session.ErrAnalysisFailed.Error()) {
		t.Fatalf("expected generic analysis error, got %v", err)
	}
	if strings.Contains(err.Error(), "bad gateway") {
		t.Fatalf("transport detail must not reach the user: %v", err)
	}
}

func TestAnalyzeJSONMode(t *testing.T) {
	srv := configuredServer(t)
	out, err := runCommand(t, srv, "--jsonMode", "analyze", writeDataset(t), "-q", "totals")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	var attempt struct {
		Success bool   `json:"success"`
		Script  string `json:"script"`
	}
	if err := json.Unmarshal([]byte(out), &attempt); err != nil {
		t.Fatalf("decode output %q: %v", out, err)
	}
	if !attempt.Success || attempt.Script != "print('ok')" {
		t.Fatalf("unexpected attempt: %+v", attempt)
	}
}

func TestUICommandStartsInterface(t *testing.T) {
	srv := configuredServer(t)
	original := startUI
	t.Cleanup(func() { startUI = original })

	var gotServer string
	startUI = func(_ context.Context, cfg *appconfig.Config, backend session.Backend) error {
		gotServer = cfg.ServerURL()
		if backend == nil {
			t.Error("expected a backend")
		}
		return nil
	}

	if _, err := runCommand(t, srv, "ui"); err != nil {
		t.Fatalf("ui: %v", err)
	}
	if gotServer != srv.URL {
		t.Fatalf("expected UI to target %s, got %s", srv.URL, gotServer)
	}
}

func TestAnalyzeRecordsMetrics(t *testing.T) {
	srv := configuredServer(t)
	srv.OnAnalyze(apitest.FailThenSucceed(1, apitest.DefaultResult()))
	metricsPath := filepath.Join(t.TempDir(), "metrics.json")

	if _, err := runCommand(t, srv, "--metricsFile", metricsPath, "analyze", writeDataset(t), "-q", "totals", "--retries", "1"); err != nil {
		t.Fatalf("analyze: %v", err)
	}

	out, err := runCommand(t, srv, "--metricsFile", metricsPath, "--jsonMode", "show", "metrics")
	if err != nil {
		t.Fatalf("show metrics: %v", err)
	}
	var recorded []struct {
		ModelName    string `json:"model_name"`
		OverallStats struct {
			TotalRequests int64 `json:"total_requests"`
			Succeeded     int64 `json:"succeeded"`
			Failed        int64 `json:"failed"`
		} `json:"overall_stats"`
	}
	if err := json.Unmarshal([]byte(out), &recorded); err != nil {
		t.Fatalf("decode metrics %q: %v", out, err)
	}
	if len(recorded) != 1 || recorded[0].ModelName != "gpt-4o-mini" {
		t.Fatalf("unexpected metrics: %+v", recorded)
	}
	if s := recorded[0].OverallStats; s.TotalRequests != 2 || s.Succeeded != 1 || s.Failed != 1 {
		t.Fatalf("unexpected totals: %+v", s)
	}

	table, err := runCommand(t, srv, "--metricsFile", metricsPath, "show", "metrics")
	if err != nil || !strings.Contains(table, "gpt-4o-mini") {
		t.Fatalf("expected metrics table, got %q / %v", table, err)
	}
}

func TestShowMetricsRequiresFile(t *testing.T) {
	if _, err := runCommand(t, nil, "show", "metrics"); err == nil {
		t.Fatalf("expected an error without --metricsFile")
	}
}
