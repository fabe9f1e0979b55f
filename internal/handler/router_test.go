package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRouter_HealthAndVersion(t *testing.T) {
	router := newTestRouter(NewSuggestHandler(&fakeSuggester{}, nil, zap.NewNop()), nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var health map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, "healthy", health["status"])
	assert.Equal(t, "test", health["version"])

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/version", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"version":"test","build_time":"now","git_commit":"abc"}`, w.Body.String())
}

func TestRouter_Metrics(t *testing.T) {
	router := newTestRouter(NewSuggestHandler(&fakeSuggester{}, nil, zap.NewNop()), nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "suggest_rate_limited_total")
}

func TestRequestID(t *testing.T) {
	router := newTestRouter(NewSuggestHandler(&fakeSuggester{}, nil, zap.NewNop()), nil)

	t.Run("generated", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Len(t, w.Header().Get(RequestIDHeader), 36)
	})

	t.Run("propagated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set(RequestIDHeader, "trace-123")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, "trace-123", w.Header().Get(RequestIDHeader))
	})
}

func TestRouter_CORS(t *testing.T) {
	router, err := NewRouter(RouterConfig{
		Log:            zap.NewNop(),
		AllowedOrigins: []string{"https://estate.example.ru"},
		Suggest:        NewSuggestHandler(&fakeSuggester{}, nil, zap.NewNop()),
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodOptions, "/api/ai-suggestion", nil)
	req.Header.Set("Origin", "https://estate.example.ru")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "https://estate.example.ru", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestNewRouter_InvalidTrustedProxies(t *testing.T) {
	_, err := NewRouter(RouterConfig{
		Log:            zap.NewNop(),
		TrustedProxies: []string{"not-an-ip"},
		Suggest:        NewSuggestHandler(&fakeSuggester{}, nil, zap.NewNop()),
	})
	assert.Error(t, err)
}
