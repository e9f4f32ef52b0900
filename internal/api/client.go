package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"tidechat/internal/config"
	"tidechat/internal/diag"
	"tidechat/internal/stream"
)

// Client talks to the configured chat webhook.
type Client struct {
	host       string
	webhookURL string
	httpClient *http.Client
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		host:       strings.TrimRight(cfg.Host, "/"),
		webhookURL: cfg.WebhookURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout(),
		},
	}
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
}

// ─── Streaming chat request ──────────────────────────────────────────────────

type chatRequest struct {
	Message string `json:"message"`
	ID      string `json:"id"`
}

// EnvelopeCallback is called for each decoded stream envelope, in order.
type EnvelopeCallback func(env stream.Envelope)

// SendMessageStream posts the message to the webhook and pumps the response
// body through the stream decoder, invoking cb per envelope. Malformed
// records are skipped by the decoder; only transport-level failures are
// returned.
func (c *Client) SendMessageStream(message, sessionID string, cb EnvelopeCallback) error {
	body, err := json.Marshal(chatRequest{Message: message, ID: sessionID})
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequest("POST", c.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("webhook returned %d: %s", resp.StatusCode, strings.TrimSpace(string(errBody)))
	}

	decoder := stream.NewDecoder(diag.DecodeError)
	if err := decoder.Run(resp.Body, cb); err != nil {
		return fmt.Errorf("reading stream: %w", err)
	}
	return nil
}

// ─── Host check ──────────────────────────────────────────────────────────────

// Ping issues a GET against the base host as a reachability check.
// A host is optional; Ping on an empty host is an error.
func (c *Client) Ping() error {
	if c.host == "" {
		return fmt.Errorf("no host configured")
	}
	resp, err := c.httpClient.Get(c.host + "/")
	if err != nil {
		return fmt.Errorf("host unreachable: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 500 {
		return fmt.Errorf("host returned %d", resp.StatusCode)
	}
	return nil
}
