package display

import (
	"fmt"
	"io"
	"strings"

	"tidechat/internal/stream"
)

// StreamPrinter renders one streamed reply to a plain terminal, for the
// one-shot `send` command. The terminal is append-only, so it prints the
// visible-text delta after every envelope or tick; an authoritative
// replacement that rewrites already-printed text starts a fresh block.
type StreamPrinter struct {
	asm     *stream.Assembler
	out     io.Writer
	printed string
	done    bool
}

func NewStreamPrinter(out io.Writer, onAnomaly stream.AnomalyFunc) *StreamPrinter {
	return &StreamPrinter{
		asm: stream.NewAssembler(onAnomaly),
		out: out,
	}
}

// HandleEnvelope applies one envelope and prints any immediate effect.
// It reports whether the reply is complete.
func (p *StreamPrinter) HandleEnvelope(env stream.Envelope) bool {
	if p.done {
		return true
	}
	switch p.asm.Apply(env) {
	case stream.OutcomeReplaced:
		p.sync()
	case stream.OutcomeFinalized:
		p.done = true
		p.sync()
	}
	return p.done
}

// Tick reveals the next batch of queued characters.
func (p *StreamPrinter) Tick(batch int) {
	if p.done {
		return
	}
	if p.asm.Tick(batch) {
		p.sync()
	}
}

// Finish drains anything still queued (end-of-stream with no terminator)
// and returns the final reply text.
func (p *StreamPrinter) Finish() string {
	if !p.done {
		p.asm.Flush()
		p.sync()
		p.done = true
	}
	if p.printed != "" && !strings.HasSuffix(p.printed, "\n") {
		fmt.Fprintln(p.out)
	}
	return p.Text()
}

// Text returns the reply text assembled so far.
func (p *StreamPrinter) Text() string {
	if p.asm.Finalized() {
		return p.asm.FinalText()
	}
	return p.asm.Visible()
}

// sync prints whatever the assembler has revealed beyond what is already on
// the terminal. A replacement that is not a pure extension gets a newline
// and a full reprint.
func (p *StreamPrinter) sync() {
	visible := p.asm.Visible()
	if visible == p.printed {
		return
	}
	if strings.HasPrefix(visible, p.printed) {
		fmt.Fprint(p.out, visible[len(p.printed):])
	} else {
		if p.printed != "" {
			fmt.Fprintln(p.out)
		}
		fmt.Fprint(p.out, visible)
	}
	p.printed = visible
}
