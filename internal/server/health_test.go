package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// fakePinger is a Pinger with a fixed outcome.
type fakePinger struct {
	name string
	err  error
}

func (p fakePinger) Ping(context.Context) error { return p.err }
func (p fakePinger) Name() string               { return p.name }

func TestReady_NoPingers(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil)

	w := do(s, httptest.NewRequest(http.MethodGet, "/api/ready", nil))
	if w.Code != http.StatusOK {
		t.Errorf("expected 200 with no pingers, got %d", w.Code)
	}
}

func TestReady_AllHealthy(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, &Config{
		Pingers: []Pinger{fakePinger{name: "ollama"}, fakePinger{name: "qdrant"}},
	})

	w := do(s, httptest.NewRequest(http.MethodGet, "/api/ready", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp readyResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Ready || len(resp.Checks) != 2 {
		t.Errorf("unexpected ready response: %+v", resp)
	}
}

func TestReady_DependencyDown(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, &Config{
		Pingers: []Pinger{
			fakePinger{name: "ollama"},
			fakePinger{name: "qdrant", err: fmt.Errorf("connection refused")},
		},
	})

	w := do(s, httptest.NewRequest(http.MethodGet, "/api/ready", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}

	var resp readyResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Ready {
		t.Error("expected ready=false")
	}
	var found bool
	for _, c := range resp.Checks {
		if c.Name == "qdrant" && !c.OK && c.Error != "" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected failing qdrant check in %+v", resp.Checks)
	}
}

func TestStartupProbe_LogsDownDependency(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, &Config{
		Pingers: []Pinger{
			fakePinger{name: "ollama"},
			fakePinger{name: "qdrant", err: fmt.Errorf("connection refused")},
		},
	})

	var buf bytes.Buffer
	s.log = slog.New(slog.NewTextHandler(&buf, nil))
	s.probeDependencies(context.Background())

	out := buf.String()
	if !strings.Contains(out, "dependency not ready at startup") {
		t.Errorf("expected startup warning, got %q", out)
	}
	if !strings.Contains(out, "qdrant") {
		t.Errorf("expected failing dependency name in warning, got %q", out)
	}
}

func TestStartupProbe_NoPingersIsSilent(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil)

	var buf bytes.Buffer
	s.log = slog.New(slog.NewTextHandler(&buf, nil))
	s.probeDependencies(context.Background())

	if buf.Len() != 0 {
		t.Errorf("expected no log output without pingers, got %q", buf.String())
	}
}

func TestMultiPinger_FirstError(t *testing.T) {
	t.Parallel()

	mp := NewMultiPinger(
		fakePinger{name: "a"},
		fakePinger{name: "b", err: fmt.Errorf("down")},
		fakePinger{name: "c"},
	)
	err := mp.Ping(context.Background())
	if err == nil {
		t.Fatal("expected error from failing pinger")
	}
	if got := err.Error(); got != "b: down" {
		t.Errorf("expected wrapped name, got %q", got)
	}
}
