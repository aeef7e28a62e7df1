// Package session owns the client's per-run state: the provider config held in
// memory, the uploaded dataset, and the analysis cycle built on top of them.
package session

import (
	"errors"
)

// State is a step of the upload and analysis cycle.
type State int

const (
	StateIdle State = iota
	StateUploading
	StateReady
	StateAnalyzing
	StateSucceeded
	StateFailed
	StateRetrying
	StateRegenerating
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateUploading:
		return "uploading"
	case StateReady:
		return "ready"
	case StateAnalyzing:
		return "analyzing"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	case StateRetrying:
		return "retrying"
	case StateRegenerating:
		return "regenerating"
	default:
		return "unknown"
	}
}

// Validation and generic failure errors. Server-reported errors are returned
// as *api.ServerError instead.
var (
	ErrNotConfigured        = errors.New("please configure an API key first")
	ErrNoFile               = errors.New("please select a file to upload")
	ErrNoDataset            = errors.New("please upload a data file first")
	ErrEmptyQuery           = errors.New("please enter an analysis query")
	ErrBusy                 = errors.New("an analysis is already in progress")
	ErrRetryUnavailable     = errors.New("retry is not available for the last attempt")
	ErrRegenerateNotAllowed = errors.New("regenerate is only available after a successful analysis")
	ErrSaveFailed           = errors.New("an error occurred while saving the configuration")
	ErrUploadFailed         = errors.New("an error occurred while uploading the file")
	ErrAnalysisFailed       = errors.New("an error occurred during analysis")
)

const (
	StatusConnected    = "connected"
	StatusDisconnected = "not configured"

	ScriptPending = "Generating analysis script..."
	ScriptMissing = "Script generation failed"

	defaultAttempt = 1
)
