package model

import (
	"errors"
	"time"
)

// User is an account together with its per-user movie lists.
type User struct {
	ID                string         `json:"id"`
	Username          string         `json:"username"`
	Email             string         `json:"email"`
	PasswordHash      string         `json:"-"` // "-" hides from JSON output
	AvatarURL         *string        `json:"avatarUrl,omitempty"`
	WatchList         []string       `json:"watchList"`
	CurrentlyWatching []string       `json:"currentlyWatching"`
	WatchedMovies     []WatchedEntry `json:"watchedMovies"`
	CreatedAt         time.Time      `json:"createdAt"`
	UpdatedAt         time.Time      `json:"updatedAt"`
}

// Public returns a copy of the user safe to hand to request handlers.
// The password hash is cleared and nil lists become empty ones so clients
// always see arrays.
func (u *User) Public() *User {
	if u == nil {
		return nil
	}
	out := *u
	out.PasswordHash = ""
	out.WatchList = append([]string{}, u.WatchList...)
	out.CurrentlyWatching = append([]string{}, u.CurrentlyWatching...)
	out.WatchedMovies = append([]WatchedEntry{}, u.WatchedMovies...)
	return &out
}

// RegisterRequest represents the data needed to register a new user
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents the data needed to log in
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is returned after successful login
type LoginResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token"`
	User    *User  `json:"user"`
}

var (
	// ErrUserNotFound is returned when a user cannot be found
	ErrUserNotFound = errors.New("user not found")

	// ErrEmailExists is returned when attempting to register an email that is already taken
	ErrEmailExists = errors.New("email already registered")

	// ErrInvalidCredentials is returned when login credentials are incorrect
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrMissingField is returned when a required request field is empty
	ErrMissingField = errors.New("missing required field")
)
