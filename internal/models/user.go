package models

import (
	"github.com/google/uuid"
)

// Role represents a portal user's role.
type Role string

const (
	RoleParticipant Role = "PARTICIPANT"
	RoleResearcher  Role = "RESEARCHER"
	RoleAdmin       Role = "ADMIN"
)

// UserMetadata carries the optional profile fields the account directory stores.
// Points is the participant's accumulated reward balance; it is mutated only
// through the directory's credit endpoint.
type UserMetadata struct {
	Major      string `json:"major,omitempty"`
	Age        int    `json:"age,omitempty"`
	Gender     string `json:"gender,omitempty"`
	Points     int    `json:"points,omitempty"`
	StudentID  string `json:"student_id,omitempty"`
	EmployeeID string `json:"employee_id,omitempty"`
	Position   string `json:"position,omitempty"`
}

// User is an account directory record. The core references users by id only;
// the full record lives in the directory service.
type User struct {
	ID           uuid.UUID     `json:"id"`
	Username     string        `json:"username"`
	Name         string        `json:"name"`
	Email        string        `json:"email"`
	Role         Role          `json:"role"`
	PasswordHash string        `json:"password_hash,omitempty"`
	Metadata     *UserMetadata `json:"metadata,omitempty"`
}

// ToPublic strips the password hash for API responses.
func (u *User) ToPublic() User {
	pub := *u
	pub.PasswordHash = ""
	return pub
}

// Actor identifies who is performing a core operation. Role gating happens in
// middleware; the core uses the actor only for ownership checks.
type Actor struct {
	ID   uuid.UUID
	Role Role
}

// IsAdmin reports whether the actor carries the admin role.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}
