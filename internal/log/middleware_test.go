package log

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareInjectsLogger(t *testing.T) {
	logger := New(DefaultConfig()).WithComponent(ComponentHTTP)

	var got *Logger
	handler := Middleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = FromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.NotNil(t, got)
	assert.Same(t, logger, got)
	assert.Equal(t, ComponentHTTP, got.Component())
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestFromContextWithoutLogger(t *testing.T) {
	got := FromContext(context.Background())

	require.NotNil(t, got)
	assert.Equal(t, "unknown", got.Component())
}
