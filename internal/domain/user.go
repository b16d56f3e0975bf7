package domain

import "time"

// DocTypeUser and DocTypeNote discriminate document kinds inside the shared
// CouchDB database.
const (
	DocTypeUser = "user"
	DocTypeNote = "note"
)

type User struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required,min=1,max=64"`
}

// UserResponse is the public view of a user with internal fields stripped.
type UserResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

type LoginResponse struct {
	User  *UserRef `json:"user"`
	Token string   `json:"token"`
}

// UserRef is the denormalized {id, username} pair embedded in note responses
// and presence broadcasts.
type UserRef struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}
