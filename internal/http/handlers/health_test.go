package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) PingContext(ctx context.Context) error { return f(ctx) }

func serveHealth(h *HealthHandler) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/health", h.HealthCheck)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	return rec
}

func TestHealthWithoutDatabase(t *testing.T) {
	rec := serveHealth(NewHealthHandler(nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}
}

func TestHealthReportsDatabase(t *testing.T) {
	rec := serveHealth(NewHealthHandler(pingFunc(func(context.Context) error { return nil })))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"database":"ok"`) {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}

	rec = serveHealth(NewHealthHandler(pingFunc(func(context.Context) error { return errors.New("down") })))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "degraded") {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}
