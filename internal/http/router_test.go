package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"editlab/internal/domain"
	"editlab/internal/editor"
	"editlab/internal/http/handlers"
	"editlab/internal/infra"
	"editlab/internal/metrics"
	"editlab/internal/retry"
	"editlab/internal/session"
)

type staticTransformer struct{}

func (staticTransformer) Transform(context.Context, domain.EditRequest) (domain.EditResult, error) {
	return domain.EditResult{ImageBytes: []byte{0x01}, MIMEType: "image/png"}, nil
}

func newTestRouter(rateLimit int) http.Handler {
	cfg := &infra.Config{
		AppEnv:          "test",
		AllowedOrigins:  []string{"*"},
		RateLimitPerMin: rateLimit,
		DefaultLocale:   "en",
	}
	sessions := session.NewStore(session.Options{
		Factory: func() *editor.Controller {
			return editor.New(editor.Options{
				Transformer: staticTransformer{},
				Retry:       retry.Policy{MaxAttempts: 1, BaseDelay: time.Millisecond},
			})
		},
	})
	app := handlers.NewApp(zerolog.Nop(), cfg, sessions, metrics.NewRegistry())
	return NewRouter(app, cfg, nil)
}

func TestRouterHealth(t *testing.T) {
	router := newTestRouter(100)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("GET", "/v1/healthz", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status code: got %d, want 200", rr.Code)
	}

	var payload map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("decode health response: %v", err)
	}
	if payload["status"] != "ok" {
		t.Fatalf("status = %q, want ok", payload["status"])
	}
}

func TestRouterEditFlow(t *testing.T) {
	router := newTestRouter(100)

	post := httptest.NewRequest("POST", "/v1/edits", strings.NewReader(
		`{"session_id":"route-1","mode":"text-to-image","prompt":"hi","auto_ratio":true}`))
	post.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, post)
	if rr.Code != http.StatusAccepted {
		t.Fatalf("unexpected status code: got %d, want 202 (body: %s)", rr.Code, rr.Body.String())
	}

	var state string
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		getRR := httptest.NewRecorder()
		router.ServeHTTP(getRR, httptest.NewRequest("GET", "/v1/edits/route-1", nil))
		if getRR.Code != http.StatusOK {
			t.Fatalf("unexpected status code: got %d, want 200", getRR.Code)
		}
		var payload struct {
			State string `json:"state"`
		}
		if err := json.NewDecoder(getRR.Body).Decode(&payload); err != nil {
			t.Fatalf("decode snapshot response: %v", err)
		}
		state = payload.State
		if state == string(editor.StateDone) || state == string(editor.StateFailed) {
			break
		}
		time.Sleep(2 * time.Millisecond)
	}
	if state != string(editor.StateDone) {
		t.Fatalf("edit finished in state %q, want DONE", state)
	}

	imgRR := httptest.NewRecorder()
	router.ServeHTTP(imgRR, httptest.NewRequest("GET", "/v1/edits/route-1/image", nil))
	if imgRR.Code != http.StatusOK {
		t.Fatalf("unexpected status code: got %d, want 200", imgRR.Code)
	}
	if got := imgRR.Header().Get("Content-Type"); got != "image/png" {
		t.Fatalf("Content-Type = %q, want image/png", got)
	}
}

func TestRouterUnknownSession(t *testing.T) {
	router := newTestRouter(100)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("GET", "/v1/edits/ghost", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("unexpected status code: got %d, want 404", rr.Code)
	}
}

func TestRouterCORSPreflight(t *testing.T) {
	router := newTestRouter(100)

	req := httptest.NewRequest("OPTIONS", "/v1/edits", nil)
	req.Header.Set("Origin", "https://marketing.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("unexpected status code: got %d, want 204", rr.Code)
	}
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("Access-Control-Allow-Origin = %q, want *", got)
	}
}

func TestRouterRateLimitsSubmissions(t *testing.T) {
	router := newTestRouter(1)

	first := httptest.NewRequest("POST", "/v1/edits", strings.NewReader(
		`{"session_id":"rl-1","mode":"text-to-image","prompt":"hi","auto_ratio":true}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, first)
	if rr.Code != http.StatusAccepted {
		t.Fatalf("unexpected status code: got %d, want 202", rr.Code)
	}

	second := httptest.NewRequest("POST", "/v1/edits", strings.NewReader(
		`{"session_id":"rl-2","mode":"text-to-image","prompt":"hi","auto_ratio":true}`))
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, second)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("unexpected status code: got %d, want 429", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Fatal("429 response carries no Retry-After header")
	}

	// Polling is not rate limited.
	getRR := httptest.NewRecorder()
	router.ServeHTTP(getRR, httptest.NewRequest("GET", "/v1/edits/rl-1", nil))
	if getRR.Code != http.StatusOK {
		t.Fatalf("unexpected status code: got %d, want 200", getRR.Code)
	}
}
