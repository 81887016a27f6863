package model

import "time"

// NotificationLog records a consumed project lifecycle event; written by the
// worker, never by the API server.
type NotificationLog struct {
	ID        int       `json:"id"`
	ProjectID int       `json:"project_id"`
	Event     string    `json:"event"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
