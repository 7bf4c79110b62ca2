package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"enchantment-resolver/internal/common/logging"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	logger, err := logging.NewZapLogger(logging.LogConfig{
		Level:  logging.InfoLevel,
		Format: logging.FormatJSON,
		Output: &buf,
	})
	require.NoError(t, err)

	previous := logging.GetGlobalLogger()
	logging.SetGlobalLogger(logger)
	t.Cleanup(func() { logging.SetGlobalLogger(previous) })
	return &buf
}

func TestLoggingMiddleware_GeneratesRequestID(t *testing.T) {
	logs := captureLogs(t)

	var seen string
	handler := LoggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestID(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/enchantments/3539?x=1", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	_, err := uuid.Parse(seen)
	assert.NoError(t, err)
	assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))

	out := logs.String()
	assert.Contains(t, out, `"request_id":"`+seen+`"`)
	assert.Contains(t, out, `"path":"/api/enchantments/3539"`)
	assert.Contains(t, out, `"status":418`)
	assert.Contains(t, out, `"query":"x=1"`)
}

func TestLoggingMiddleware_KeepsCallerRequestID(t *testing.T) {
	captureLogs(t)

	var seen string
	handler := LoggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "trace-42")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "trace-42", seen)
	assert.Equal(t, "trace-42", rec.Header().Get(RequestIDHeader))
}
