package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHealthzAlwaysOK(t *testing.T) {
	mux := http.NewServeMux()
	Register(mux, 0, map[string]Checker{
		"db": func(context.Context) error { return errors.New("down") },
	})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestReadyzReportsFailedChecks(t *testing.T) {
	mux := http.NewServeMux()
	Register(mux, 0, map[string]Checker{
		"db":      func(context.Context) error { return nil },
		"handoff": func(context.Context) error { return errors.New("topic missing") },
		"unused":  nil,
	})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	var body Readiness
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Status != "not ready" || len(body.Failed) != 1 || body.Failed["handoff"] != "topic missing" {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestReadyzHonoursDeadline(t *testing.T) {
	mux := http.NewServeMux()
	Register(mux, 10*time.Millisecond, map[string]Checker{
		"slow": func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		},
	})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestReadyzWithoutChecks(t *testing.T) {
	mux := http.NewServeMux()
	Register(mux, 0, nil)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
