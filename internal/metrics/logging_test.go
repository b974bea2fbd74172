package metrics

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func bufferedLogger() (*zap.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	encoder := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	core := zapcore.NewCore(encoder, zapcore.AddSync(&buf), zapcore.InfoLevel)
	return zap.New(core), &buf
}

func serveLogged(t *testing.T, req *http.Request, status int) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	logger, buf := bufferedLogger()
	wrapped := LoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))

	w := httptest.NewRecorder()
	wrapped.ServeHTTP(w, req)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), "log: %s", buf.String())
	return w, entry
}

func TestLoggingMiddleware(t *testing.T) {
	req := httptest.NewRequest("GET", "/recommend?limit=3", nil)
	req.RemoteAddr = "192.168.1.1:12345"

	_, entry := serveLogged(t, req, http.StatusOK)

	assert.Equal(t, "GET", entry["method"])
	assert.Equal(t, "/recommend", entry["path"])
	assert.Equal(t, float64(200), entry["status"])
	assert.Equal(t, "info", entry["level"])
	assert.Contains(t, entry, "duration_ms")
}

func TestLoggingMiddleware_AddsRequestID(t *testing.T) {
	w, entry := serveLogged(t, httptest.NewRequest("POST", "/score", nil), http.StatusOK)

	requestID := w.Header().Get(RequestIDHeader)
	require.NotEmpty(t, requestID)
	assert.Equal(t, requestID, entry["request_id"])
}

func TestLoggingMiddleware_KeepsIncomingRequestID(t *testing.T) {
	req := httptest.NewRequest("GET", "/recommend", nil)
	req.Header.Set(RequestIDHeader, "run-42")

	w, entry := serveLogged(t, req, http.StatusBadGateway)

	assert.Equal(t, "run-42", w.Header().Get(RequestIDHeader))
	assert.Equal(t, "warn", entry["level"], "5xx responses log at warn")
}

func TestLoggingMiddleware_ClientIP(t *testing.T) {
	tests := []struct {
		name      string
		forwarded string
		want      string
	}{
		{"remote addr", "", "10.0.0.1:54321"},
		{"forwarded", "203.0.113.50", "203.0.113.50"},
		{"forwarded chain", "203.0.113.50, 10.0.0.2", "203.0.113.50"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/search", nil)
			req.RemoteAddr = "10.0.0.1:54321"
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			_, entry := serveLogged(t, req, http.StatusOK)
			assert.Equal(t, tt.want, entry["client_ip"])
		})
	}
}
