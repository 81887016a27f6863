package mq

import "time"

// Routing keys for project lifecycle events.
const (
	EventArtifactVersionAdded = "artifact.version.added"
	EventProjectClosed        = "project.closed"
	EventProjectReopened      = "project.reopened"
)

type ArtifactVersionAddedPayload struct {
	ArtifactID int       `json:"artifact_id"`
	PhaseID    int       `json:"phase_id"`
	Category   string    `json:"category"`
	Number     int       `json:"number"`
	Author     string    `json:"author"`
	CreatedAt  time.Time `json:"created_at"`
}

type ProjectClosedPayload struct {
	ProjectID int       `json:"project_id"`
	ClosedBy  string    `json:"closed_by"`
	Forced    bool      `json:"forced"`
	ClosedAt  time.Time `json:"closed_at"`
}

type ProjectReopenedPayload struct {
	ProjectID  int       `json:"project_id"`
	ReopenedBy string    `json:"reopened_by"`
	Reason     string    `json:"reason"`
	ReopenedAt time.Time `json:"reopened_at"`
}
