package middleware

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"firecms/internal/delivery/http/responder"
	domainerrors "firecms/internal/domain/errors"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func decode(t *testing.T, rec *httptest.ResponseRecorder) domainerrors.Response {
	t.Helper()

	var body domainerrors.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	return body
}

func TestHandleHTTPError_AppError(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	NewErrorMiddleware(discard).HandleHTTPError(
		errors.Wrap(domainerrors.ErrInvalidFileName.WithDetails("bad name"), "files"), c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode(t, rec)
	assert.False(t, body.Success)
	require.NotNil(t, body.Error)
	assert.Equal(t, domainerrors.ErrInvalidFileName.ErrorCode(), body.Error.Code)
	assert.Equal(t, "bad name", body.Error.Details)
}

func TestHandleHTTPError_HidesServerErrorDetails(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	NewErrorMiddleware(discard).HandleHTTPError(
		domainerrors.NewDeliveryError(errors.New("dial tcp: refused"), "smtp://mail:25"), c)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, domainerrors.ErrDelivery.ErrorCode(), body.Error.Code)
	assert.Empty(t, body.Error.Details)
}

func TestHandleHTTPError_EchoAndUnknown(t *testing.T) {
	e := echo.New()

	rec := httptest.NewRecorder()
	NewErrorMiddleware(discard).HandleHTTPError(echo.ErrNotFound, e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "HTTP_ERROR", decode(t, rec).Error.Code)

	rec = httptest.NewRecorder()
	NewErrorMiddleware(discard).HandleHTTPError(errors.New("boom"), e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, domainerrors.ErrInternalError.ErrorCode(), decode(t, rec).Error.Code)
}

func TestSecureHeaders(t *testing.T) {
	policyPath := filepath.Join(t.TempDir(), "csp.json")
	require.NoError(t, os.WriteFile(policyPath, []byte(`{"default-src": {"self": true}}`), 0o600))

	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	r := responder.New(responder.Config{PolicyPath: policyPath}, discard)
	handler := SecureHeaders(r)(func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })
	require.NoError(t, handler(c))

	assert.Equal(t, responder.DefaultPoweredBy, rec.Header().Get("X-Powered-By"))
	assert.Equal(t, "default-src 'self'", rec.Header().Get("Content-Security-Policy"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestSecureHeaders_MissingPolicy(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	r := responder.New(responder.Config{PolicyPath: filepath.Join(t.TempDir(), "missing.json")}, discard)
	called := false
	handler := SecureHeaders(r)(func(echo.Context) error {
		called = true

		return nil
	})

	err := handler(c)
	assert.True(t, errors.Is(err, domainerrors.ErrConfiguration))
	assert.False(t, called)
}
