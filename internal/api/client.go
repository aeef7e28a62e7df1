// Package api is the HTTP client for the analysis service's four endpoints.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/Tiomehsh/datasheet-ai-analyzer/internal/analysis"
	"github.com/Tiomehsh/datasheet-ai-analyzer/internal/appconfig"
	"github.com/Tiomehsh/datasheet-ai-analyzer/internal/logging"
)

const (
	endpointSaveConfig = "/save_api_config"
	endpointModels     = "/models"
	endpointUpload     = "/upload"
	endpointAnalyze    = "/analyze"
)

// Client talks to one analysis server.
type Client struct {
	baseURL string
	client  *http.Client
}

// New constructs a Client for the configured server and request timeout.
func New(cfg *appconfig.Config) *Client {
	return &Client{
		baseURL: cfg.ServerURL(),
		client: &http.Client{
			Timeout:   cfg.RequestTimeout(),
			Transport: &http.Transport{ForceAttemptHTTP2: false, Proxy: http.ProxyFromEnvironment},
		},
	}
}

// NewWithHTTPClient builds a Client around an existing http.Client.
func NewWithHTTPClient(baseURL string, hc *http.Client) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{baseURL: baseURL, client: hc}
}

// BaseURL returns the server the client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

type configEnvelope struct {
	APIConfig *analysis.APIConfig `json:"api_config"`
	Error     string              `json:"error"`
}

// LoadConfig asks the server for its stored provider config by sending an
// empty config, which the server treats as a read.
func (c *Client) LoadConfig(ctx context.Context) (analysis.APIConfig, error) {
	payload := map[string]any{"api_config": map[string]any{}}
	var resp configEnvelope
	status, err := c.postJSON(ctx, endpointSaveConfig, payload, &resp)
	if err != nil {
		return analysis.APIConfig{}, err
	}
	if resp.Error != "" {
		return analysis.APIConfig{}, &ServerError{Endpoint: endpointSaveConfig, StatusCode: status, Message: resp.Error}
	}
	if resp.APIConfig == nil {
		return analysis.APIConfig{}, nil
	}
	return *resp.APIConfig, nil
}

// SaveConfig stores cfg on the server and returns the config it now holds.
func (c *Client) SaveConfig(ctx context.Context, cfg analysis.APIConfig) (analysis.APIConfig, error) {
	payload := map[string]any{"api_config": cfg}
	var resp configEnvelope
	status, err := c.postJSON(ctx, endpointSaveConfig, payload, &resp)
	if err != nil {
		return analysis.APIConfig{}, err
	}
	if resp.Error != "" {
		return analysis.APIConfig{}, &ServerError{Endpoint: endpointSaveConfig, StatusCode: status, Message: resp.Error}
	}
	if resp.APIConfig == nil {
		return cfg, nil
	}
	return *resp.APIConfig, nil
}

// Models lists the model identifiers available to cfg.
func (c *Client) Models(ctx context.Context, cfg analysis.APIConfig) ([]string, error) {
	payload := map[string]any{"api_config": cfg}
	var resp struct {
		Models []string `json:"models"`
		Error  string   `json:"error"`
	}
	status, err := c.postJSON(ctx, endpointModels, payload, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, &ServerError{Endpoint: endpointModels, StatusCode: status, Message: resp.Error}
	}
	return resp.Models, nil
}

// Upload sends the file at path as a multipart form together with cfg.
func (c *Client) Upload(ctx context.Context, path string, cfg analysis.APIConfig) (analysis.DatasetHandle, error) {
	file, err := os.Open(path)
	if err != nil {
		return analysis.DatasetHandle{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	configJSON, err := json.Marshal(cfg)
	if err != nil {
		return analysis.DatasetHandle{}, fmt.Errorf("encode api config: %w", err)
	}

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return analysis.DatasetHandle{}, err
	}
	if _, err := io.Copy(part, file); err != nil {
		return analysis.DatasetHandle{}, fmt.Errorf("read %s: %w", path, err)
	}
	if err := form.WriteField("api_config", string(configJSON)); err != nil {
		return analysis.DatasetHandle{}, err
	}
	if err := form.Close(); err != nil {
		return analysis.DatasetHandle{}, err
	}

	summary := map[string]any{"file": filepath.Base(path), "bytes": body.Len(), "api_config": cfg.Type}
	var resp struct {
		Filename string `json:"filename"`
		Analysis struct {
			RowCount int      `json:"row_count"`
			Columns  []string `json:"columns"`
			Preview  string   `json:"preview"`
		} `json:"analysis"`
		Error string `json:"error"`
	}
	status, err := c.do(ctx, endpointUpload, form.FormDataContentType(), body.Bytes(), summary, &resp)
	if err != nil {
		return analysis.DatasetHandle{}, err
	}
	if resp.Error != "" {
		return analysis.DatasetHandle{}, &ServerError{Endpoint: endpointUpload, StatusCode: status, Message: resp.Error}
	}
	return analysis.DatasetHandle{
		Filename: resp.Filename,
		RowCount: resp.Analysis.RowCount,
		Columns:  resp.Analysis.Columns,
		Preview:  resp.Analysis.Preview,
	}, nil
}

// Analyze submits one analysis attempt. Application failures come back inside
// the Attempt; only transport and decoding problems are returned as errors.
func (c *Client) Analyze(ctx context.Context, req analysis.AnalyzeRequest) (*analysis.Attempt, error) {
	var attempt analysis.Attempt
	if _, err := c.postJSON(ctx, endpointAnalyze, req, &attempt, validateAttempt); err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (c *Client) postJSON(ctx context.Context, endpoint string, payload, out any, checks ...func([]byte) error) (int, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, &TransportError{Endpoint: endpoint, Err: fmt.Errorf("encode request: %w", err)}
	}
	return c.do(ctx, endpoint, "application/json", body, redact(body), out, checks...)
}

// do sends one request and decodes the JSON body whatever the status code:
// the server reports application errors in the body of 4xx/5xx responses.
func (c *Client) do(ctx context.Context, endpoint, contentType string, body []byte, logged any, out any, checks ...func([]byte) error) (int, error) {
	requestID := uuid.NewString()
	logging.LogRequest("CLIENT->SERVER", c.baseURL, endpoint, requestID, logged)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, &TransportError{Endpoint: endpoint, Err: err}
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, &TransportError{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, &TransportError{Endpoint: endpoint, StatusCode: resp.StatusCode, Err: err}
	}
	logging.LogRequest("SERVER->CLIENT", c.baseURL, endpoint, requestID, redact(respBody))

	for _, check := range checks {
		if err := check(respBody); err != nil {
			return resp.StatusCode, &TransportError{Endpoint: endpoint, StatusCode: resp.StatusCode, Err: err}
		}
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return resp.StatusCode, &TransportError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("decode response (%s): %w", resp.Status, err),
		}
	}
	return resp.StatusCode, nil
}
