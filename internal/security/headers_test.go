package security

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func serve(h Headers, req *http.Request) *httptest.ResponseRecorder {
	handler := h.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHeadersStamped(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "https://example.com/quotes", nil)
	req.TLS = &tls.ConnectionState{}

	rec := serve(Headers{Enable: true, EnableHSTS: true, HSTSIncludeSubdomains: true, ContentSecurityPolicy: "default-src 'none'"}, req)

	require.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	require.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	require.Equal(t, "default-src 'none'", rec.Header().Get("Content-Security-Policy"))
	require.Equal(t, "max-age=31536000; includeSubDomains", rec.Header().Get("Strict-Transport-Security"))
}

func TestHeadersHSTSRequiresTLS(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "http://example.com/quotes", nil)
	rec := serve(Headers{Enable: true, EnableHSTS: true}, req)
	require.Empty(t, rec.Header().Get("Strict-Transport-Security"))
	require.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestHeadersDisabled(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "http://example.com/quotes", nil)
	rec := serve(Headers{}, req)
	require.Empty(t, rec.Header().Get("X-Content-Type-Options"))
}
