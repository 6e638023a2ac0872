package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"astro-backend/internal/notification/delivery"
	"astro-backend/pkg/config"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func testEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{JWTSecret: "router-test-secret"}
	nh := delivery.NewNotificationHandler(nil, nil, nil, nil, nil)
	return NewHandler(nh, cfg, zap.NewNop()).Engine()
}

func TestHealth(t *testing.T) {
	w := httptest.NewRecorder()
	testEngine().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestMetricsExposed(t *testing.T) {
	w := httptest.NewRecorder()
	testEngine().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestNotificationsRequireAuth(t *testing.T) {
	w := httptest.NewRecorder()
	testEngine().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/notifications", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/api/notifications", nil)
	req.Header.Set("Origin", "https://app.example.com")
	w := httptest.NewRecorder()
	testEngine().ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
}
