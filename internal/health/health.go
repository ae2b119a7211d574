// Package health serves the liveness and readiness endpoints of the stub server.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"time"
)

const DefaultTimeout = 2 * time.Second

// Checker reports whether one dependency can serve traffic.
type Checker func(ctx context.Context) error

type mux interface {
	Handle(pattern string, handler http.Handler)
}

// Readiness is the /readyz body.
type Readiness struct {
	Status string            `json:"status"`
	Failed map[string]string `json:"failed,omitempty"`
}

// Register adds /healthz and /readyz. Every named check runs under a single
// deadline; /readyz answers 503 listing the checks that failed.
func Register(m mux, timeout time.Duration, checks map[string]Checker) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	m.Handle("/healthz", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}))
	m.Handle("/readyz", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		res := Run(ctx, checks)
		status := http.StatusOK
		if len(res.Failed) > 0 {
			status = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(res)
	}))
}

// Run executes checks in name order.
func Run(ctx context.Context, checks map[string]Checker) Readiness {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	res := Readiness{Status: "ok"}
	for _, name := range names {
		check := checks[name]
		if check == nil {
			continue
		}
		if err := check(ctx); err != nil {
			if res.Failed == nil {
				res.Failed = map[string]string{}
			}
			res.Failed[name] = err.Error()
			res.Status = "not ready"
		}
	}
	return res
}
