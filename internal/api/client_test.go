package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"tidechat/internal/config"
	"tidechat/internal/stream"
)

func testClient(srv *httptest.Server) *Client {
	return &Client{
		host:       srv.URL,
		webhookURL: srv.URL + "/webhook/chat",
		httpClient: srv.Client(),
	}
}

func TestNewClientUsesConfig(t *testing.T) {
	cfg := &config.Config{
		Host:           "http://example.com/",
		WebhookURL:     "http://example.com/webhook/chat",
		TimeoutSeconds: 7,
	}
	c := NewClient(cfg)

	if c.host != "http://example.com" {
		t.Errorf("host = %q, trailing slash should be trimmed", c.host)
	}
	if c.webhookURL != cfg.WebhookURL {
		t.Errorf("webhookURL = %q", c.webhookURL)
	}
	if c.httpClient.Timeout != cfg.Timeout() {
		t.Errorf("timeout = %v, want %v", c.httpClient.Timeout, cfg.Timeout())
	}
}

func TestSendMessageStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("Content-Type = %q", got)
		}

		var req struct {
			Message string `json:"message"`
			ID      string `json:"id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decoding request body: %v", err)
		}
		if req.Message != "hello" || req.ID != "session-1" {
			t.Errorf("request body = %+v", req)
		}

		flusher := w.(http.Flusher)
		fmt.Fprintln(w, `{"type":"item","content":"Hi"}`)
		flusher.Flush()
		fmt.Fprintln(w, `{"type":"item","content":" there"}`)
		fmt.Fprintln(w, `{"type":"end"}`)
	}))
	defer srv.Close()

	var envs []stream.Envelope
	err := testClient(srv).SendMessageStream("hello", "session-1", func(env stream.Envelope) {
		envs = append(envs, env)
	})
	if err != nil {
		t.Fatalf("SendMessageStream() error = %v", err)
	}

	if len(envs) != 3 {
		t.Fatalf("expected 3 envelopes, got %d: %v", len(envs), envs)
	}
	if envs[0].Content != "Hi" || envs[1].Content != " there" || envs[2].Kind != stream.KindEnd {
		t.Errorf("unexpected envelopes: %v", envs)
	}
}

func TestSendMessageStreamSkipsMalformedLines(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"type":"item","content":"ok"}`)
		fmt.Fprintln(w, `garbage line`)
		fmt.Fprintln(w, `{"type":"end"}`)
	}))
	defer srv.Close()

	var envs []stream.Envelope
	err := testClient(srv).SendMessageStream("q", "s", func(env stream.Envelope) {
		envs = append(envs, env)
	})
	if err != nil {
		t.Fatalf("malformed lines must not fail the stream: %v", err)
	}
	if len(envs) != 2 {
		t.Errorf("expected 2 envelopes around the bad line, got %d", len(envs))
	}
}

func TestSendMessageStreamNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "workflow not active", http.StatusNotFound)
	}))
	defer srv.Close()

	err := testClient(srv).SendMessageStream("q", "s", func(stream.Envelope) {
		t.Error("callback must not fire on error status")
	})
	if err == nil {
		t.Fatal("expected error for non-2xx status")
	}
	if !strings.Contains(err.Error(), "404") || !strings.Contains(err.Error(), "workflow not active") {
		t.Errorf("error should carry status and body, got %v", err)
	}
}

func TestSendMessageStreamBatchPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"json":{"type":"item","content":"Hi"}}]`)
	}))
	defer srv.Close()

	var envs []stream.Envelope
	err := testClient(srv).SendMessageStream("q", "s", func(env stream.Envelope) {
		envs = append(envs, env)
	})
	if err != nil {
		t.Fatalf("SendMessageStream() error = %v", err)
	}
	if len(envs) != 1 || envs[0].Content != "Hi" {
		t.Errorf("batch payload should decode like line records, got %v", envs)
	}
}

func TestPing(t *testing.T) {
	t.Run("reachable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		if err := testClient(srv).Ping(); err != nil {
			t.Errorf("Ping() error = %v", err)
		}
	})

	t.Run("server error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		if err := testClient(srv).Ping(); err == nil {
			t.Error("Ping() should fail on 5xx")
		}
	})

	t.Run("no host", func(t *testing.T) {
		c := &Client{httpClient: http.DefaultClient}
		if err := c.Ping(); err == nil {
			t.Error("Ping() should fail with no host configured")
		}
	})
}
