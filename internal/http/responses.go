package http

import (
	"encoding/json"
	"net/http"

	"spendtrack/internal/log"
	"spendtrack/internal/middleware/trace"
)

// apiError is the body of every non-2xx JSON response.
type apiError struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func (s *Server) writeAPIError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, status, apiError{Error: msg, RequestID: trace.GetRequestID(r.Context())})
}

// requestLogger returns the request-scoped logger set by the logging
// middleware.
func (s *Server) requestLogger(r *http.Request) *log.Logger {
	return log.FromContext(r.Context())
}
