package tui

import (
	"tidechat/internal/api"
	"tidechat/internal/stream"

	tea "github.com/charmbracelet/bubbletea"
)

// ─── Messages sent from the stream goroutine to Bubble Tea ──────────────────

type envelopeMsg struct {
	env stream.Envelope
}

type streamDoneMsg struct{}

type streamErrMsg struct {
	err error
}

// revealTickMsg drives the fixed-rate reveal. gen ties a tick to the reply
// it was started for; stale ticks from an earlier reply are dropped.
type revealTickMsg struct {
	gen int
}

// elapsedTickMsg updates the loading indicator's elapsed-seconds counter.
type elapsedTickMsg struct {
	gen int
}

// finalizeMsg fires after the grace delay that lets in-flight reveal ticks
// settle before the visible text is force-set to the final reply.
type finalizeMsg struct {
	gen int
}

// ─── Stream command ─────────────────────────────────────────────────────────
//
// Posts the message in a goroutine, forwards decoded envelopes through a
// channel, and returns a tea.Cmd that keeps reading from that channel until
// the stream ends. The Update loop serializes everything; the goroutine
// never touches model state.

var activeStreamCh chan tea.Msg

func beginStream(client api.ChatAPI, message, sessionID string) tea.Cmd {
	ch := make(chan tea.Msg, 64)
	activeStreamCh = ch

	go func() {
		defer close(ch)

		err := client.SendMessageStream(message, sessionID, func(env stream.Envelope) {
			ch <- envelopeMsg{env: env}
		})
		if err != nil {
			ch <- streamErrMsg{err: err}
			return
		}
		ch <- streamDoneMsg{}
	}()

	return waitForStream(ch)
}

// waitForStream reads the next message from the channel.
func waitForStream(ch <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return streamDoneMsg{}
		}
		return msg
	}
}

// drainStream consumes leftover messages so the producer goroutine can exit
// after the reply finalized early (a terminator can arrive mid-stream).
func drainStream(ch <-chan tea.Msg) {
	go func() {
		for range ch {
		}
	}()
}
