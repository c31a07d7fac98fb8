package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/maxviazov/catalog-service/internal/handler"
)

// stubPinger implements handler.Pinger for health endpoints.
type stubPinger struct{ err error }

func (s stubPinger) Ping(ctx context.Context) error { return s.err }

func newHealthEngine(checks map[string]handler.Pinger) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := handler.NewHealthHandler(checks)
	r.GET("/live", h.Liveness)
	r.GET("/ready", h.Readiness)
	return r
}

func TestReadiness_OK(t *testing.T) {
	r := newHealthEngine(map[string]handler.Pinger{"database": stubPinger{}, "redis": nil})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d, body=%s", w.Code, w.Body.String())
	}
}

func TestReadiness_Unavailable(t *testing.T) {
	r := newHealthEngine(map[string]handler.Pinger{
		"database": stubPinger{},
		"redis":    handler.PingFunc(func(context.Context) error { return errors.New("redis down") }),
	})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d, body=%s", w.Code, w.Body.String())
	}
	var body struct {
		Errors map[string]string `json:"errors"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Errors["redis"] != "redis down" || len(body.Errors) != 1 {
		t.Fatalf("unexpected errors: %v", body.Errors)
	}
}

func TestLiveness_OK(t *testing.T) {
	r := newHealthEngine(map[string]handler.Pinger{"database": stubPinger{err: errors.New("db down")}})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/live", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("liveness must not depend on the database, got %d", w.Code)
	}
}
