package http

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"spendtrack/internal/log"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": s.opts.Now().Format(time.RFC3339),
		"uptime":    s.opts.Now().Sub(s.started).Round(time.Second).String(),
	})
}

// handleReady reports whether templates parsed and which datasets are
// memoized. It never triggers a load.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	status, code := "ready", http.StatusOK
	checks := map[string]any{}

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status, code = "not_ready", http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}
	checks["login"] = "ok"
	if !s.gate.Configured() {
		checks["login"] = "not_configured"
	}
	checks["data"] = s.dashboard.Status()
	checks["sessions"] = s.sessions.size()
	checks["rate_limiter"] = map[string]any{"active_clients": s.rateLimiter.ActiveClients()}

	writeJSON(w, code, map[string]any{
		"status":    status,
		"timestamp": s.opts.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleMetrics writes counters in the Prometheus text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	tm := s.traceMiddleware.GetMetrics()
	sm := s.securityDetector.GetMetrics()
	rm := s.rateLimiter.GetMetrics()

	cached := 0
	for _, d := range s.dashboard.Status().Datasets {
		if d.Cached {
			cached++
		}
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	metric := func(name, kind, help string, v any) {
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n%s %v\n\n", name, help, name, kind, name, v)
	}
	metric("http_requests_total", "counter", "Total number of HTTP requests", tm.TotalRequests)
	metric("http_server_errors_total", "counter", "Responses with a 5xx status", tm.ServerErrors)
	metric("http_response_time_avg_ms", "gauge", "Average response time in milliseconds", tm.AverageResponseTime.Milliseconds())
	metric("security_suspicious_requests_total", "counter", "Requests flagged as suspicious", sm.SuspiciousRequests)
	metric("security_blocked_requests_total", "counter", "Requests rejected by the detector", sm.BlockedRequests)
	metric("rate_limit_hits_total", "counter", "Requests rejected by the rate limiter", rm.TotalHits)
	metric("rate_limit_clients", "gauge", "Clients tracked by the rate limiter", rm.ClientCount)
	metric("sessions_active", "gauge", "Stored sessions", s.sessions.size())
	metric("datasets_cached", "gauge", "Datasets currently memoized", cached)
	metric("uptime_seconds", "gauge", "Seconds since the server started", int64(s.opts.Now().Sub(s.started).Seconds()))
}

// handleRefresh drops the memoized datasets and reloads them. Form posts
// are redirected back; JSON clients get the new status.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if !sameOrigin(r) {
		http.Error(w, "cross-origin request rejected", http.StatusForbidden)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	_ = r.ParseForm()
	wantsJSON := strings.Contains(r.Header.Get("Accept"), "application/json")

	ctx, cancel := s.dataContext(r)
	defer cancel()

	if err := s.dashboard.Refresh(ctx); err != nil {
		if wantsJSON {
			s.writeDataError(w, r, "all", err)
		} else {
			s.renderDataError(w, r, "refresh", err)
		}
		return
	}
	s.requestLogger(r).InfoContext(r.Context(), "Data refreshed on request",
		log.FieldOperation, log.OpRefresh,
		log.FieldUsername, userFrom(r.Context()))

	if wantsJSON {
		writeJSON(w, http.StatusOK, s.dashboard.Status())
		return
	}
	http.Redirect(w, r, safeNext(r.PostForm.Get("next")), http.StatusSeeOther)
}
