package session

import (
	"github.com/Tiomehsh/datasheet-ai-analyzer/internal/analysis"
	"github.com/Tiomehsh/datasheet-ai-analyzer/internal/render"
)

// Display is a snapshot of everything a front end shows. Every change to the
// session produces a new snapshot for the observer.
type Display struct {
	State State

	// Config panel.
	Status           string
	BasePlaceholder  string
	BaseFieldVisible bool

	// Query workflow, revealed once a key is configured.
	WorkflowVisible bool
	Models          []string
	SelectedModel   string

	Dataset         *analysis.DatasetHandle
	PreviewExpanded bool

	ControlsEnabled bool
	InProgress      bool
	ProgressAttempt int

	CountersVisible bool
	RetryCount      int
	Attempt         int
	MaxAttempts     int

	RetryVisible      bool
	RegenerateVisible bool

	Script string
	Output render.Node

	Error      string
	Details    string
	StatusText string
}

func (d Display) clone() Display {
	if d.Models != nil {
		d.Models = append([]string(nil), d.Models...)
	}
	if d.Dataset != nil {
		ds := *d.Dataset
		ds.Columns = append([]string(nil), ds.Columns...)
		d.Dataset = &ds
	}
	return d
}

// HasOutput reports whether a result tree is mounted.
func (d Display) HasOutput() bool {
	return !d.Output.IsZero()
}
