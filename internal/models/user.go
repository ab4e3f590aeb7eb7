package models

import "time"

// Role values for user accounts. Only admins may mutate journal data.
const (
	RoleAdmin = "admin"
)

// User represents an account stored in tradelog. The site is operated by a
// single admin, but the shape allows more accounts if that ever changes.
type User struct {
	UserID       string    `json:"user_id"`
	Email        string    `json:"email,omitempty"`
	PasswordHash string    `json:"password_hash,omitempty"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	ModifiedAt   time.Time `json:"modified_at,omitempty"`
}
