package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casacambio/cashledger/internal/infrastructure/logger"
)

func TestLoggingMiddleware_AttachesRequestID(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf)

	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logger.RequestID(r.Context())
		l := logger.FromContext(r.Context(), zerolog.Nop())
		l.Info().Msg("inside")
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	h := chimiddleware.RequestID(NewLoggingMiddleware(base).Wrap(next))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reconcile", nil)
	req.Header.Set(chimiddleware.RequestIDHeader, "req-42")
	rr := httptest.NewRecorder()

	h.ServeHTTP(rr, req)

	assert.Equal(t, "req-42", seen)
	assert.Equal(t, "req-42", rr.Header().Get(RequestIDHeader))

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)

	var inner, completed map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &inner))
	require.NoError(t, json.Unmarshal(lines[1], &completed))

	assert.Equal(t, "req-42", inner["request_id"])
	assert.Equal(t, "req-42", completed["request_id"])
	assert.Equal(t, "error", completed["level"])
	assert.EqualValues(t, http.StatusServiceUnavailable, completed["status"])
}

func TestRecovery_ReturnsInternalServerError(t *testing.T) {
	var buf bytes.Buffer

	h := Recovery(zerolog.New(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/movements", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, rr.Body.String())
	assert.Contains(t, buf.String(), "panic recovered")
	assert.Contains(t, buf.String(), "boom")
}
