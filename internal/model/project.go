package model

import "time"

const (
	ProjectStatusActive = "active"
	ProjectStatusClosed = "closed"
)

type Project struct {
	ID          int        `json:"id"`
	Name        string     `json:"name"`
	Code        string     `json:"code"`
	Description string     `json:"description"`
	Status      string     `json:"status"` // active / closed
	ArchivedAt  *time.Time `json:"archived_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
