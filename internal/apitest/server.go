// Package apitest provides an in-process fake of the analysis service for tests.
package apitest

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/Tiomehsh/datasheet-ai-analyzer/internal/analysis"
)

// Request is one call the fake server received.
type Request struct {
	Endpoint  string
	RequestID string
	Body      []byte
}

// AnalyzeFunc produces the status code and JSON body for an /analyze call.
type AnalyzeFunc func(req analysis.AnalyzeRequest) (int, any)

// Server mimics the four endpoints of the analysis service.
type Server struct {
	*httptest.Server

	mu          sync.Mutex
	config      analysis.APIConfig
	models      []string
	saveError   string
	modelsError string
	uploadError string
	analyze     AnalyzeFunc
	requests    []Request

	hold    chan struct{}
	started chan struct{}
}

// New starts a fake server that is closed when the test ends.
func New(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		models:  []string{"gpt-4o-mini", "gpt-4o"},
		analyze: SucceedWith(DefaultResult()),
	}
	s.Server = httptest.NewServer(s.routes())
	t.Cleanup(s.Close)
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.record)
	r.Post("/save_api_config", s.handleSaveConfig)
	r.Post("/models", s.handleModels)
	r.Post("/upload", s.handleUpload)
	r.Post("/analyze", s.handleAnalyze)
	return r
}

// SetConfig replaces the stored provider config.
func (s *Server) SetConfig(cfg analysis.APIConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config = cfg
}

// Config returns the stored provider config.
func (s *Server) Config() analysis.APIConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.config
}

// SetModels replaces the model list.
func (s *Server) SetModels(models ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.models = models
}

// FailSave makes /save_api_config writes answer with msg.
func (s *Server) FailSave(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveError = msg
}

// FailModels makes /models answer with msg.
func (s *Server) FailModels(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.modelsError = msg
}

// FailUpload makes /upload answer with msg.
func (s *Server) FailUpload(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploadError = msg
}

// OnAnalyze installs the /analyze behaviour.
func (s *Server) OnAnalyze(fn AnalyzeFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.analyze = fn
}

// HoldAnalyze blocks /analyze handlers until release is called. The returned
// channel receives once for every call that reaches the hold.
func (s *Server) HoldAnalyze() (started <-chan struct{}, release func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hold = make(chan struct{})
	s.started = make(chan struct{}, 16)
	hold := s.hold
	var once sync.Once
	return s.started, func() { once.Do(func() { close(hold) }) }
}

// Requests returns the calls received for endpoint, or all calls when endpoint is empty.
func (s *Server) Requests(endpoint string) []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Request
	for _, r := range s.requests {
		if endpoint == "" || r.Endpoint == endpoint {
			out = append(out, r)
		}
	}
	return out
}

// AnalyzeRequests decodes every /analyze body received so far.
func (s *Server) AnalyzeRequests(t testing.TB) []analysis.AnalyzeRequest {
	t.Helper()
	var out []analysis.AnalyzeRequest
	for _, r := range s.Requests("/analyze") {
		var req analysis.AnalyzeRequest
		if err := json.Unmarshal(r.Body, &req); err != nil {
			t.Fatalf("decode analyze request: %v", err)
		}
		out = append(out, req)
	}
	return out
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = r.Body.Close()
		r.Body = io.NopCloser(strings.NewReader(string(body)))
		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Endpoint:  r.URL.Path,
			RequestID: r.Header.Get("X-Request-ID"),
			Body:      body,
		})
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (s *Server) handleSaveConfig(w http.ResponseWriter, r *http.Request) {
	var body struct {
		APIConfig map[string]json.RawMessage `json:"api_config"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(body.APIConfig) == 0 {
		writeJSON(w, http.StatusOK, map[string]any{"api_config": s.config})
		return
	}
	if s.saveError != "" {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": s.saveError})
		return
	}
	raw, _ := json.Marshal(body.APIConfig)
	var cfg analysis.APIConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	s.config = cfg.WithDefaults()
	writeJSON(w, http.StatusOK, map[string]any{"message": "API config saved", "api_config": s.config})
}

func (s *Server) handleModels(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.modelsError != "" {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": s.modelsError})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"models": s.models})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	uploadError := s.uploadError
	s.mu.Unlock()
	if uploadError != "" {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": uploadError})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "no file uploaded"})
		return
	}
	defer file.Close()
	if r.FormValue("api_config") == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing api_config"})
		return
	}

	records, err := csv.NewReader(file).ReadAll()
	if err != nil || len(records) == 0 {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "unreadable file"})
		return
	}
	columns, rows := records[0], records[1:]
	preview := fmt.Sprintf(
		"\n<div class=\"preview-short\">%s</div>\n<div class=\"preview-full\" style=\"display: none;\">%s</div>\n",
		previewTable(columns, rows, 10), previewTable(columns, rows, 100),
	)
	writeJSON(w, http.StatusOK, map[string]any{
		"filename": header.Filename,
		"analysis": map[string]any{
			"row_count": len(rows),
			"columns":   columns,
			"preview":   preview,
		},
	})
}

func previewTable(columns []string, rows [][]string, limit int) string {
	var b strings.Builder
	b.WriteString(`<table class="table table-striped table-bordered"><thead><tr>`)
	for _, c := range columns {
		b.WriteString("<th>" + html.EscapeString(c) + "</th>")
	}
	b.WriteString("</tr></thead><tbody>")
	for i, row := range rows {
		if i == limit {
			break
		}
		b.WriteString("<tr>")
		for _, v := range row {
			b.WriteString("<td>" + html.EscapeString(v) + "</td>")
		}
		b.WriteString("</tr>")
	}
	b.WriteString("</tbody></table>")
	return b.String()
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analysis.AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error(), "success": false})
		return
	}

	s.mu.Lock()
	fn, hold, started := s.analyze, s.hold, s.started
	s.mu.Unlock()
	if hold != nil {
		started <- struct{}{}
		select {
		case <-hold:
		case <-r.Context().Done():
			return
		}
	}

	status, body := fn(req)
	if raw, ok := body.(string); ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, raw)
		return
	}
	writeJSON(w, status, body)
}
