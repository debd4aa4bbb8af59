package auth

import (
	"time"

	"github.com/google/uuid"
)

// Session is the per-visitor login state. It is a plain value: the gate
// returns an updated copy and the caller decides where to keep it.
type Session struct {
	ID            string    `json:"id"`
	Authenticated bool      `json:"authenticated"`
	Username      string    `json:"username,omitempty"`
	LoginAttempts int       `json:"login_attempts"`
	LastAttempt   time.Time `json:"last_attempt"`
}

// NewSession returns an anonymous session with a fresh random id.
func NewSession() Session {
	return Session{ID: uuid.NewString()}
}
