package security

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"

	"spendtrack/internal/log"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaders(t *testing.T) {
	h := NewHeadersMiddleware(DefaultHeadersConfig()).Middleware(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/cards", nil))
	assert.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))
	assert.Equal(t, "no-store", rr.Header().Get("Cache-Control"))
	assert.Contains(t, rr.Header().Get("Content-Security-Policy"), "frame-ancestors 'none'")
	assert.Empty(t, rr.Header().Get("Strict-Transport-Security"))

	rr = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/static/app.css", nil)
	req.TLS = &tls.ConnectionState{}
	h.ServeHTTP(rr, req)
	assert.Empty(t, rr.Header().Get("Cache-Control"))
	assert.Equal(t, "max-age=31536000; includeSubDomains", rr.Header().Get("Strict-Transport-Security"))
}

func TestInspect(t *testing.T) {
	d := NewDetector(log.Discard())
	cases := []struct {
		method, target, ua string
		want               Verdict
	}{
		{http.MethodGet, "/cards", "Mozilla/5.0", Clean},
		{http.MethodGet, "/?q=%EC%8B%9D%EB%B9%84", "Mozilla/5.0", Clean},
		{http.MethodGet, "/static/../../etc/passwd", "", Blocked},
		{"TRACE", "/", "", Blocked},
		{http.MethodGet, "/.env", "", Suspicious},
		{http.MethodGet, "/", "sqlmap/1.7", Suspicious},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, "http://example.com"+tc.target, nil)
		req.Header.Set("User-Agent", tc.ua)
		assert.Equal(t, tc.want, d.Inspect(req), "%s %s", tc.method, tc.target)
	}
}

func TestDetectorMiddleware(t *testing.T) {
	d := NewDetector(log.Discard())
	h := d.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("TRACE", "/", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/wp-admin", nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	m := d.GetMetrics()
	assert.Equal(t, int64(1), m.BlockedRequests)
	assert.Equal(t, int64(1), m.SuspiciousRequests)
}

func TestExtractClientIP(t *testing.T) {
	d := NewDetector(nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.5:1234"
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.5")
	assert.Equal(t, "203.0.113.7", d.ExtractClientIP(req))

	req.RemoteAddr = "198.51.100.1:999"
	assert.Equal(t, "198.51.100.1", d.ExtractClientIP(req))

	req.RemoteAddr = "127.0.0.1:80"
	req.Header.Del("X-Forwarded-For")
	req.Header.Set("X-Real-IP", "203.0.113.9")
	assert.Equal(t, "203.0.113.9", d.ExtractClientIP(req))

	require.Error(t, d.AddTrustedProxy("nope"))
	require.NoError(t, d.AddTrustedProxy("198.51.100.0/24"))
	req.RemoteAddr = "198.51.100.1:999"
	assert.Equal(t, "203.0.113.9", d.ExtractClientIP(req))
}
