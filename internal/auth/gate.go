package auth

import (
	"fmt"
	"time"
)

const (
	DefaultMaxAttempts = 3
	DefaultLockout     = 5 * time.Minute
)

// Status is the outcome of a login attempt.
type Status int

const (
	StatusInvalid Status = iota
	StatusSuccess
	StatusLocked
	StatusUnconfigured
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusLocked:
		return "locked"
	case StatusUnconfigured:
		return "unconfigured"
	default:
		return "invalid"
	}
}

// Result describes a login attempt. Remaining is set when Status is
// StatusLocked; Attempts is the failure count after the attempt.
type Result struct {
	Status    Status
	Remaining time.Duration
	Attempts  int
	Max       int
}

// Message is the text shown on the login form.
func (r Result) Message() string {
	switch r.Status {
	case StatusSuccess:
		return ""
	case StatusLocked:
		return fmt.Sprintf("Too many login attempts. Please wait %d seconds before trying again.", int(r.Remaining/time.Second))
	case StatusUnconfigured:
		return "Login is not configured. Set ST_USERNAME and ST_PASSWORD."
	default:
		return fmt.Sprintf("Invalid username or password. Attempt %d/%d", r.Attempts, r.Max)
	}
}

// Gate checks logins against configured credentials with an
// attempt-count lockout.
type Gate struct {
	creds       Credentials
	maxAttempts int
	lockout     time.Duration
}

// NewGate returns a gate. Non-positive limits fall back to the defaults.
func NewGate(creds Credentials, maxAttempts int, lockout time.Duration) *Gate {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if lockout <= 0 {
		lockout = DefaultLockout
	}
	return &Gate{creds: creds, maxAttempts: maxAttempts, lockout: lockout}
}

// Configured reports whether any credential is set.
func (g *Gate) Configured() bool { return g.creds.Configured() }

// Locked reports whether s is currently locked out and for how long.
func (g *Gate) Locked(s Session, now time.Time) (time.Duration, bool) {
	if s.LoginAttempts < g.maxAttempts {
		return 0, false
	}
	elapsed := now.Sub(s.LastAttempt)
	if elapsed >= g.lockout {
		return 0, false
	}
	return g.lockout - elapsed, true
}

// Attempt applies one login attempt to s at time now.
func (g *Gate) Attempt(s Session, username, password string, now time.Time) (Session, Result) {
	res := Result{Max: g.maxAttempts}
	if !g.creds.Configured() {
		res.Status = StatusUnconfigured
		res.Attempts = s.LoginAttempts
		return s, res
	}

	if s.LoginAttempts >= g.maxAttempts {
		if remaining, locked := g.Locked(s, now); locked {
			res.Status = StatusLocked
			res.Remaining = remaining
			res.Attempts = s.LoginAttempts
			return s, res
		}
		s.LoginAttempts = 0
	}

	s.LastAttempt = now
	if user, ok := g.creds.Check(username, password); ok {
		s.Authenticated = true
		s.Username = user
		s.LoginAttempts = 0
		res.Status = StatusSuccess
		return s, res
	}

	s.Authenticated = false
	s.Username = ""
	s.LoginAttempts++
	res.Status = StatusInvalid
	res.Attempts = s.LoginAttempts
	return s, res
}

// Logout returns s without its authentication. The attempt counter is kept.
func Logout(s Session) Session {
	s.Authenticated = false
	s.Username = ""
	return s
}
