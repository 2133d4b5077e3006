package http

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"firecms/config"
	"firecms/internal/container"
	deliverycontext "firecms/internal/delivery/context"
	"firecms/internal/delivery/http/responder"
	"firecms/internal/delivery/http/router"
	"firecms/internal/delivery/http/router/handler"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestParams(t *testing.T, policy string) HTTPParams {
	t.Helper()

	policyPath := filepath.Join(t.TempDir(), "csp.json")
	require.NoError(t, os.WriteFile(policyPath, []byte(policy), 0o600))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &config.Config{}
	cfg.HTTP.MaxRequestBodySize = "1K"
	cfg.Security.CSPPolicyPath = policyPath

	app := container.New(container.Params{
		Config:    cfg,
		Logger:    logger,
		Responder: responder.New(responder.Config{PoweredBy: "Test", PolicyPath: policyPath}, logger),
	})

	return HTTPParams{
		Config: cfg,
		Logger: logger,
		App:    app,
		RouterParams: router.RouterParams{
			ContactHandler: handler.NewContactHandler(handler.ContactHandlerParams{Config: cfg, Logger: logger}),
		},
	}
}

func TestNewEcho_HealthWithSecureHeaders(t *testing.T) {
	e := NewEcho(newTestParams(t, `{"default-src": {"self": true}, "report-only": true}`))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Test", rec.Header().Get("X-Powered-By"))
	assert.Equal(t, "default-src 'self'", rec.Header().Get("Content-Security-Policy-Report-Only"))
	assert.Equal(t, "SAMEORIGIN", rec.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, rec.Header().Get(deliverycontext.HeaderXRequestID))
}

func TestNewEcho_BrokenPolicyFailsRequest(t *testing.T) {
	e := NewEcho(newTestParams(t, `{"default-src": {"selff": true}}`))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "CONFIGURATION_ERROR")
}

func TestNewEcho_UnknownRoute(t *testing.T) {
	e := NewEcho(newTestParams(t, `{"default-src": {"self": true}}`))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
