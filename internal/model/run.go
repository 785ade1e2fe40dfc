package model

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// RunStatus represents the current state of an extraction run.
type RunStatus string

const (
	RunStatusQueued      RunStatus = "queued"
	RunStatusRecognizing RunStatus = "recognizing"
	RunStatusExtracting  RunStatus = "extracting"
	RunStatusComplete    RunStatus = "complete"
	RunStatusFailed      RunStatus = "failed"
)

// ExtractionMode selects between line scanning and query-answer mapping.
type ExtractionMode string

const (
	ModeLines   ExtractionMode = "lines"
	ModeAnswers ExtractionMode = "answers"
)

// Run represents a single extraction run for one document.
type Run struct {
	ID        string         `json:"id"`
	DocType   DocumentType   `json:"doc_type"`
	Source    string         `json:"source"`
	Mode      ExtractionMode `json:"mode"`
	Status    RunStatus      `json:"status"`
	Result    *RunResult     `json:"result,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// RunResult holds the final outcome of a run.
type RunResult struct {
	Record           json.RawMessage `json:"record,omitempty"`
	Passes           int             `json:"passes"`
	FieldsFound      int             `json:"fields_found"`
	FieldsTotal      int             `json:"fields_total"`
	ValidationStatus string          `json:"validation_status,omitempty"`
	Phases           []PhaseResult   `json:"phases,omitempty"`
	Error            string          `json:"error,omitempty"`
	ErrorClass       string          `json:"error_class,omitempty"`
}

// PhaseStatus represents the current state of a pipeline phase.
type PhaseStatus string

const (
	PhaseStatusComplete PhaseStatus = "complete"
	PhaseStatusFailed   PhaseStatus = "failed"
	PhaseStatusSkipped  PhaseStatus = "skipped"
)

// PhaseResult holds the outcome of a pipeline phase.
type PhaseResult struct {
	Name     string         `json:"name"`
	Status   PhaseStatus    `json:"status"`
	Duration int64          `json:"duration_ms"`
	Error    string         `json:"error,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// RunFilter narrows a run listing.
type RunFilter struct {
	DocType DocumentType
	Status  RunStatus
	Limit   int
	Offset  int
}

// CountFilled returns how many schema fields hold a real value.
func CountFilled(r *DocumentRecord, s Schema) (found, total int) {
	for _, f := range s.Fields {
		total++
		v, _ := r.Get(f.Key)
		if v != "" && v != NotAvailable && v != InvalidValue {
			found++
		}
	}
	return found, total
}

// ParseExtractionMode resolves a mode name. Empty selects line scanning.
func ParseExtractionMode(s string) (ExtractionMode, error) {
	switch ExtractionMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeLines:
		return ModeLines, nil
	case ModeAnswers:
		return ModeAnswers, nil
	default:
		return "", eris.Errorf("model: unknown extraction mode %q", s)
	}
}
