package model

import "time"

const (
	MemberStatusInvited  = "invited"
	MemberStatusAccepted = "accepted"
)

type ProjectMember struct {
	ID        int       `json:"id"`
	ProjectID int       `json:"project_id"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	Status    string    `json:"status"` // invited / accepted
	CreatedAt time.Time `json:"created_at"`
}
