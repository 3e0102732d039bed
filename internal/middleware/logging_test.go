// internal/middleware/logging_test.go
package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogMiddlewareRecordsRequest(t *testing.T) {
	logger, hook := test.NewNullLogger()

	h := chimw.RequestID(LogMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	})))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Len(t, hook.AllEntries(), 1)
	entry := hook.LastEntry()
	assert.Equal(t, logrus.InfoLevel, entry.Level)
	assert.Equal(t, "HTTP Request", entry.Message)
	assert.Equal(t, "GET", entry.Data["method"])
	assert.Equal(t, "/health", entry.Data["path"])
	assert.Equal(t, http.StatusTeapot, entry.Data["status"])
	assert.Equal(t, 15, entry.Data["bytes"])
	assert.NotEmpty(t, entry.Data["request_id"])
}

func TestLogWebSocketDisconnectIncludesError(t *testing.T) {
	logger, hook := test.NewNullLogger()

	LogWebSocketConnect(logger, "10.0.0.1:5000", "/ws")
	LogWebSocketDisconnect(logger, "10.0.0.1:5000", "/ws", errors.New("reset by peer"))
	LogWebSocketDisconnect(logger, "10.0.0.1:5000", "/ws", nil)

	entries := hook.AllEntries()
	require.Len(t, entries, 3)
	assert.Equal(t, "WebSocket connected", entries[0].Message)
	assert.Equal(t, "10.0.0.1:5000", entries[0].Data["remote"])
	assert.Contains(t, entries[1].Data, "error")
	assert.NotContains(t, entries[2].Data, "error")
}
