package http

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"spendtrack/internal/auth"
	"spendtrack/internal/log"
)

const maxFormBytes = 64 << 10

// page carries what the layout needs on every page.
type page struct {
	Title string
	Nav   string
	User  string
	Flash string
}

type loginView struct {
	page
	Next       string
	Username   string
	Message    string
	Configured bool
	Locked     bool
}

type userKey struct{}

func withUser(ctx context.Context, user string) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}

func userFrom(ctx context.Context) string {
	u, _ := ctx.Value(userKey{}).(string)
	return u
}

// requireAuth lets authenticated sessions through. Others are sent to the
// login page, or get a 401 on /api routes.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if sess, ok := s.sessions.peek(r); ok && sess.Authenticated {
			next(w, r.WithContext(withUser(r.Context(), sess.Username)))
			return
		}
		if strings.HasPrefix(r.URL.Path, "/api/") {
			s.writeAPIError(w, r, http.StatusUnauthorized, "authentication required")
			return
		}
		target := "/login"
		if r.Method == http.MethodGet {
			target += "?next=" + url.QueryEscape(r.URL.RequestURI())
		}
		http.Redirect(w, r, target, http.StatusSeeOther)
	}
}

// sameOrigin rejects cross-site form posts. Requests without an Origin
// header are allowed.
func sameOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.load(w, r)
	if sess.Authenticated {
		http.Redirect(w, r, safeNext(r.URL.Query().Get("next")), http.StatusSeeOther)
		return
	}
	view := loginView{
		page:       page{Title: "Sign in", Nav: "login"},
		Next:       safeNext(r.URL.Query().Get("next")),
		Configured: s.gate.Configured(),
	}
	if !view.Configured {
		view.Message = auth.Result{Status: auth.StatusUnconfigured}.Message()
	} else if remaining, locked := s.gate.Locked(sess, s.opts.Now()); locked {
		view.Locked = true
		view.Message = auth.Result{Status: auth.StatusLocked, Remaining: remaining}.Message()
	}
	s.render(w, r, http.StatusOK, "login", view)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	logger := s.requestLogger(r)
	if !sameOrigin(r) {
		http.Error(w, "cross-origin request rejected", http.StatusForbidden)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	username := sanitizeInput(r.PostForm.Get("username"))
	password := r.PostForm.Get("password")
	next := safeNext(r.PostForm.Get("next"))

	sess := s.sessions.load(w, r)
	sess, res := s.gate.Attempt(sess, username, password, s.opts.Now())

	if res.Status == auth.StatusSuccess {
		s.sessions.rotate(w, sess)
		logger.InfoContext(r.Context(), "Login succeeded",
			log.FieldOperation, log.OpLogin,
			log.FieldUsername, sess.Username)
		http.Redirect(w, r, next, http.StatusSeeOther)
		return
	}
	s.sessions.save(w, sess)

	status := http.StatusUnauthorized
	switch res.Status {
	case auth.StatusLocked:
		status = http.StatusTooManyRequests
		w.Header().Set("Retry-After", strconv.Itoa(int((res.Remaining+time.Second-1)/time.Second)))
	case auth.StatusUnconfigured:
		status = http.StatusServiceUnavailable
	}
	logger.WarnContext(r.Context(), "Login rejected",
		log.FieldOperation, log.OpLogin,
		log.FieldUsername, username,
		log.FieldAttempts, res.Attempts,
		"result", res.Status.String())

	s.render(w, r, status, "login", loginView{
		page:       page{Title: "Sign in", Nav: "login"},
		Next:       next,
		Username:   username,
		Message:    res.Message(),
		Configured: s.gate.Configured(),
		Locked:     res.Status == auth.StatusLocked,
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if !sameOrigin(r) {
		http.Error(w, "cross-origin request rejected", http.StatusForbidden)
		return
	}
	if sess, ok := s.sessions.peek(r); ok {
		user := sess.Username
		s.sessions.save(w, auth.Logout(sess))
		s.requestLogger(r).InfoContext(r.Context(), "Logged out",
			log.FieldOperation, log.OpLogout,
			log.FieldUsername, user)
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
