package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"firecms/config"
	deliverycontext "firecms/internal/delivery/context"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestIDMiddleware_GeneratesID(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	var ctxID string
	handler := NewRequestIDMiddleware(slog.Default()).Process(func(c echo.Context) error {
		ctxID = deliverycontext.GetRequestIDFromContext(c.Request().Context())

		return nil
	})
	require.NoError(t, handler(c))

	id := rec.Header().Get(deliverycontext.HeaderXRequestID)
	_, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, id, ctxID)
	assert.Equal(t, id, deliverycontext.GetRequestID(c))
}

func TestRequestIDMiddleware_ReusesWellFormedHeader(t *testing.T) {
	e := echo.New()

	tests := map[string]bool{
		"abc-123":        true,
		"bad id\r\nX: y": false,
		"<script>":       false,
	}
	for header, kept := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(deliverycontext.HeaderXRequestID, header)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		handler := NewRequestIDMiddleware(slog.Default()).Process(func(echo.Context) error { return nil })
		require.NoError(t, handler(c))

		if kept {
			assert.Equal(t, header, rec.Header().Get(deliverycontext.HeaderXRequestID))
		} else {
			assert.NotEqual(t, header, rec.Header().Get(deliverycontext.HeaderXRequestID))
		}
	}
}

func TestLoggerMiddleware_LogsErrorsWithFinalStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/missing", nil), rec)

	handler := NewLoggerMiddleware(logger, &config.Config{}).Handle(func(echo.Context) error {
		return echo.ErrNotFound
	})
	require.NoError(t, handler(c))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, buf.String(), `"status":404`)
	assert.Contains(t, buf.String(), `"level":"WARN"`)
}
