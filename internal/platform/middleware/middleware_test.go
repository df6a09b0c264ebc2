package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"briq/pkg/requestcontext"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func actorEcho() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(requestcontext.Actor(r.Context())))
	})
}

func TestRequireAuth(t *testing.T) {
	v := NewHS256Validator("secret", "briq")
	h := RequireAuth(v, quietLogger())(actorEcho())

	t.Run("valid token sets the actor", func(t *testing.T) {
		token, err := v.Issue("0xABC", time.Now(), time.Hour)
		require.NoError(t, err)
		r := httptest.NewRequest(http.MethodPost, "/", nil)
		r.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "0xabc", w.Body.String())
	})

	t.Run("expired token", func(t *testing.T) {
		token, err := v.Issue("0xabc", time.Now().Add(-2*time.Hour), time.Hour)
		require.NoError(t, err)
		r := httptest.NewRequest(http.MethodPost, "/", nil)
		r.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("wrong key", func(t *testing.T) {
		token, err := NewHS256Validator("other", "briq").Issue("0xabc", time.Now(), time.Hour)
		require.NoError(t, err)
		r := httptest.NewRequest(http.MethodPost, "/", nil)
		r.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("missing header", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("nil validator disables auth", func(t *testing.T) {
		w := httptest.NewRecorder()
		RequireAuth(nil, quietLogger())(actorEcho()).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestRequireAdminToken(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })

	r := httptest.NewRequest(http.MethodPost, "/", nil)
	r.Header.Set("X-Admin-Token", "s3cret")
	w := httptest.NewRecorder()
	RequireAdminToken("s3cret", quietLogger())(ok).ServeHTTP(w, r)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = httptest.NewRecorder()
	RequireAdminToken("", quietLogger())(ok).ServeHTTP(w, r)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequestIDAndRecovery(t *testing.T) {
	var seen string
	panicky := http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = requestcontext.RequestID(r.Context())
		panic("boom")
	})
	h := Recovery(quietLogger())(RequestID(panicky))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Request-ID", "req-1")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "req-1", seen)
	assert.Equal(t, "req-1", w.Header().Get("X-Request-ID"))
}

func TestTracingNamesSpanAfterRoute(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	otel.SetTracerProvider(tp)

	var traced bool
	r := chi.NewRouter()
	r.Use(Tracing)
	r.Get("/profiles/{address}", func(w http.ResponseWriter, r *http.Request) {
		traced = trace.SpanContextFromContext(r.Context()).HasTraceID()
		w.WriteHeader(http.StatusTeapot)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/profiles/0xabc", nil))

	assert.True(t, traced)
	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "GET /profiles/{address}", spans[0].Name())
}
