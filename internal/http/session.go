package http

import (
	"net/http"
	"time"

	"spendtrack/internal/auth"
	"spendtrack/internal/cache"

	"github.com/google/uuid"
)

const (
	sessionCookie     = "spendtrack_session"
	maxSessions       = 10000
	defaultSessionTTL = 12 * time.Hour
)

// sessionStore keeps login state server-side, keyed by a random cookie id.
type sessionStore struct {
	sessions *cache.LRUCache[auth.Session]
	ttl      time.Duration
	secure   bool
}

func newSessionStore(ttl time.Duration, secure bool, now func() time.Time) *sessionStore {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &sessionStore{
		sessions: cache.NewLRUCache[auth.Session](maxSessions, ttl).WithClock(now),
		ttl:      ttl,
		secure:   secure,
	}
}

// load returns the caller's session, starting a new one when the cookie
// is missing, malformed or expired.
func (s *sessionStore) load(w http.ResponseWriter, r *http.Request) auth.Session {
	if c, err := r.Cookie(sessionCookie); err == nil {
		if _, err := uuid.Parse(c.Value); err == nil {
			if sess, ok := s.sessions.Get(c.Value); ok {
				return sess
			}
		}
	}
	sess := auth.NewSession()
	s.save(w, sess)
	return sess
}

// peek returns the session without creating one.
func (s *sessionStore) peek(r *http.Request) (auth.Session, bool) {
	c, err := r.Cookie(sessionCookie)
	if err != nil {
		return auth.Session{}, false
	}
	return s.sessions.Get(c.Value)
}

func (s *sessionStore) save(w http.ResponseWriter, sess auth.Session) {
	s.sessions.Set(sess.ID, sess)
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    sess.ID,
		Path:     "/",
		MaxAge:   int(s.ttl / time.Second),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// rotate moves sess to a fresh id, dropping the old one.
func (s *sessionStore) rotate(w http.ResponseWriter, sess auth.Session) auth.Session {
	s.sessions.Delete(sess.ID)
	sess.ID = uuid.NewString()
	s.save(w, sess)
	return sess
}

func (s *sessionStore) size() int { return s.sessions.Size() }
