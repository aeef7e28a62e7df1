// Package analysis defines the values exchanged with the analysis service:
// provider credentials, uploaded dataset handles, analysis attempts and the
// structured results they carry.
package analysis

import (
	"fmt"
	"strings"
)

// ProviderType names the model provider the analysis service talks to.
type ProviderType string

const (
	ProviderOpenAI ProviderType = "openai"
	ProviderAzure  ProviderType = "azure"
	ProviderCustom ProviderType = "custom"
)

// DefaultMaxRetries is applied whenever a retry budget is missing or invalid.
const DefaultMaxRetries = 3

// ParseProviderType normalizes a provider name. An empty name selects OpenAI.
func ParseProviderType(raw string) (ProviderType, error) {
	switch p := ProviderType(strings.ToLower(strings.TrimSpace(raw))); p {
	case "":
		return ProviderOpenAI, nil
	case ProviderOpenAI, ProviderAzure, ProviderCustom:
		return p, nil
	default:
		return "", fmt.Errorf("unknown provider type %q (expected openai, azure or custom)", raw)
	}
}

// APIConfig holds the credentials and retry budget for the backend's model provider.
type APIConfig struct {
	Type       ProviderType `json:"type"`
	Key        string       `json:"key"`
	Base       string       `json:"base"`
	MaxRetries int          `json:"max_retries"`
}

// Configured reports whether the config carries an API key.
func (c APIConfig) Configured() bool {
	return strings.TrimSpace(c.Key) != ""
}

// WithDefaults fills in the provider type and retry budget when the server omits them.
func (c APIConfig) WithDefaults() APIConfig {
	if c.Type == "" {
		c.Type = ProviderOpenAI
	}
	if c.MaxRetries < 1 {
		c.MaxRetries = DefaultMaxRetries
	}
	return c
}

// MaskedKey returns the key with everything but the last four characters hidden.
func (c APIConfig) MaskedKey() string {
	return MaskSecret(c.Key)
}

// MaskSecret hides all but the trailing four characters of a secret.
func MaskSecret(secret string) string {
	if secret == "" {
		return ""
	}
	runes := []rune(secret)
	if len(runes) <= 4 {
		return strings.Repeat("*", len(runes))
	}
	return strings.Repeat("*", len(runes)-4) + string(runes[len(runes)-4:])
}

// DatasetHandle references a tabular file the server accepted.
type DatasetHandle struct {
	Filename string   `json:"filename"`
	RowCount int      `json:"row_count"`
	Columns  []string `json:"columns"`
	Preview  string   `json:"preview"`
}

// AnalyzeRequest is the body of a single analysis call.
type AnalyzeRequest struct {
	Filename   string    `json:"filename"`
	Query      string    `json:"query"`
	Model      string    `json:"model"`
	APIConfig  APIConfig `json:"api_config"`
	RetryCount int       `json:"retry_count"`
}

// Attempt is the outcome of one analysis request/response cycle.
type Attempt struct {
	Success       bool    `json:"success"`
	Script        Text    `json:"script"`
	Result        *Result `json:"result"`
	RetryCount    int     `json:"retry_count"`
	AttemptNumber int     `json:"attempt"`
	MaxAttempts   int     `json:"max_attempts"`
	CanRetry      bool    `json:"can_retry"`
	Status        Text    `json:"status,omitempty"`
	Error         Text    `json:"error,omitempty"`
	Details       Text    `json:"details,omitempty"`
}

// Failed reports whether the server attached an application error to the attempt.
func (a Attempt) Failed() bool {
	return a.Error != ""
}

// Result is the structured output of a successful analysis.
type Result struct {
	Sections []Section `json:"sections"`
}

// Section is one titled block of statistics and content.
type Section struct {
	Title   Text    `json:"title"`
	Data    Stats   `json:"data"`
	Content Content `json:"content"`
}
