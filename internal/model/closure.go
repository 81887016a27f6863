package model

import (
	"encoding/json"
	"time"
)

// ChecklistItem is one line on a closure document's checklist.
type ChecklistItem struct {
	Description string     `json:"description"`
	Mandatory   bool       `json:"mandatory"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CompletedBy string     `json:"completed_by,omitempty"`
	Notes       string     `json:"notes,omitempty"`
}

// ChecklistValidation is the outcome of evaluating a closure document's
// checklist.
type ChecklistValidation struct {
	Valid        bool     `json:"valid"`
	PendingItems []string `json:"pending_items"`
}

// ClosureValidationResult is the composite phase-level closure decision.
// It is computed, never persisted as a live record; Close() freezes a JSON
// snapshot of it into the ProjectClosure row.
type ClosureValidationResult struct {
	CanClose          bool                `json:"can_close"`
	TransitionMissing bool                `json:"transition_missing"`
	MissingCategories []string            `json:"missing_categories"`
	PendingApproval   []ArtifactRef       `json:"pending_approval"`
	Checklist         ChecklistValidation `json:"checklist"`
}

// ArtifactRef is a lightweight reference used in validation output.
type ArtifactRef struct {
	ID       int    `json:"id"`
	Category string `json:"category"`
	Status   string `json:"status"`
}

// ClosureCheckLine is one scored line of the project-level closure report.
type ClosureCheckLine struct {
	Name     string `json:"name"`
	Required bool   `json:"required"`
	Passed   bool   `json:"passed"`
	Status   string `json:"status"`
}

// ProjectClosureReport is the richer project-level validation variant.
// CanClose is the AND over required lines only; advisory lines never block.
type ProjectClosureReport struct {
	CanClose bool               `json:"can_close"`
	Lines    []ClosureCheckLine `json:"lines"`
}

// PassedTally returns how many lines passed out of the total.
func (r *ProjectClosureReport) PassedTally() (passed, total int) {
	for _, l := range r.Lines {
		if l.Passed {
			passed++
		}
	}
	return passed, len(r.Lines)
}

// ProjectClosure is the append-only audit record of a closure event.
// The snapshot fields freeze state as of closure time.
type ProjectClosure struct {
	ID                 int             `json:"id"`
	ProjectID          int             `json:"project_id"`
	ClosedBy           string          `json:"closed_by"`
	ClosedAt           time.Time       `json:"closed_at"`
	Forced             bool            `json:"forced"`
	Justification      string          `json:"justification,omitempty"`
	ValidationSnapshot json.RawMessage `json:"validation_snapshot"`
	ArtifactSnapshot   json.RawMessage `json:"artifact_snapshot"`
	TeamSnapshot       json.RawMessage `json:"team_snapshot"`
}

// PhaseArtifactSummary is one entry of the per-phase artifact snapshot frozen
// into a ProjectClosure.
type PhaseArtifactSummary struct {
	PhaseKind string        `json:"phase_kind"`
	Artifacts []ArtifactRef `json:"artifacts"`
}
