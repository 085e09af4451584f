package health_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/promo-engine/internal/health"
)

func TestReadinessGateDuringShutdown(t *testing.T) {
	handler := health.Handler{Checker: stubChecker{}}

	rec := probeReady(handler)
	require.Equal(t, http.StatusOK, rec.Code)

	health.SetReady(false)
	t.Cleanup(func() { health.SetReady(true) })

	rec = probeReady(handler)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Contains(t, rec.Body.String(), "shutting down")
}
