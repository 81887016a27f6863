package model

import "time"

const (
	DefectStatusOpen     = "open"
	DefectStatusResolved = "resolved"
)

type Defect struct {
	ID        int       `json:"id"`
	ProjectID int       `json:"project_id"`
	Title     string    `json:"title"`
	Severity  string    `json:"severity"`
	Status    string    `json:"status"` // open / resolved
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
