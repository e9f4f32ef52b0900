package api

// ChatAPI defines the webhook operations the UI layers need.
// *Client satisfies this interface. TUI and tests can use mock implementations.
type ChatAPI interface {
	SendMessageStream(message, sessionID string, cb EnvelopeCallback) error
	Ping() error
}

var _ ChatAPI = (*Client)(nil)
