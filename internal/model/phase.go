package model

import "time"

// The four methodology phases, in order.
const (
	PhaseInception    = "inception"
	PhaseElaboration  = "elaboration"
	PhaseConstruction = "construction"
	PhaseTransition   = "transition"
)

const (
	PhaseStatusPending    = "pending"
	PhaseStatusInProgress = "in_progress"
	PhaseStatusCompleted  = "completed"
)

// PhaseKinds lists every phase kind in methodology order. Project creation
// seeds one ProjectPhase per entry.
var PhaseKinds = []string{PhaseInception, PhaseElaboration, PhaseConstruction, PhaseTransition}

type ProjectPhase struct {
	ID        int       `json:"id"`
	ProjectID int       `json:"project_id"`
	Kind      string    `json:"kind"`
	Status    string    `json:"status"` // pending / in_progress / completed
	Ordering  int       `json:"ordering"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
