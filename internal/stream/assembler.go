package stream

import (
	"strings"
)

// Tag protocol markers, matched as literal strings on item content.
const (
	responseOpenTag  = "<response>"
	responseCloseTag = "</response>"
	endOpenMarker    = "<end>"
	endCloseMarker   = "</end>"
)

// ─── Phase ───────────────────────────────────────────────────────────────────

// Phase is the assembler's position in the reply protocol.
type Phase int

const (
	PhaseIdle      Phase = iota // no content seen yet
	PhaseStreaming              // default mode, or between tagged sections
	PhaseInTagged               // inside <response>...</response>
	PhaseFinalized              // reply complete; further envelopes are ignored
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseStreaming:
		return "streaming"
	case PhaseInTagged:
		return "in-tagged"
	}
	return "finalized"
}

// Outcome tells the caller what an envelope did to the reveal state.
type Outcome int

const (
	OutcomeNone      Outcome = iota // state changed, nothing to display yet
	OutcomeQueued                   // content enqueued for paced reveal
	OutcomeDiscarded                // filler, anomaly, or post-final envelope
	OutcomeReplaced                 // visible text force-replaced; bypass pacing
	OutcomeFinalized                // reply complete; adopt FinalText
)

// ─── Assembler ───────────────────────────────────────────────────────────────

// AnomalyFunc receives protocol anomalies (unknown kinds, tag content in
// unexpected places). Logged only; never user-visible.
type AnomalyFunc func(event, detail string)

// Assembler consumes decoded envelopes for one in-flight reply and maintains
// the monotonically growing visible text. Content is not revealed directly:
// it goes through a pending queue the caller drains at its own fixed rate via
// Tick, decoupling display pacing from network burstiness.
//
// A new reply gets a new Assembler; there is no reset.
// It has no dependency on Bubble Tea.
type Assembler struct {
	phase      Phase
	hasSeenTag bool

	pending  []rune
	revealed strings.Builder

	finalText string

	onAnomaly AnomalyFunc
}

// NewAssembler creates a fresh assembler. onAnomaly may be nil.
func NewAssembler(onAnomaly AnomalyFunc) *Assembler {
	return &Assembler{onAnomaly: onAnomaly}
}

// Apply interprets one envelope according to the tag protocol.
func (a *Assembler) Apply(env Envelope) Outcome {
	if a.phase == PhaseFinalized {
		return OutcomeDiscarded
	}

	switch env.Kind {
	case KindFinal, KindReplace:
		// Authoritative full replacement: bypass the queue entirely.
		a.pending = nil
		a.revealed.Reset()
		a.revealed.WriteString(env.Content)
		return OutcomeReplaced

	case KindEnd:
		if a.hasSeenTag {
			// The tagged protocol ends with an <end>...</end> terminator,
			// not with an end record. Keep waiting.
			return OutcomeDiscarded
		}
		a.finalize(a.Flush())
		return OutcomeFinalized

	case KindUnknown:
		a.anomaly("unknown-kind", env.RawType)
		return OutcomeDiscarded
	}

	return a.applyItem(env.Content)
}

func (a *Assembler) applyItem(content string) Outcome {
	switch {
	case content == responseOpenTag:
		a.phase = PhaseInTagged
		a.hasSeenTag = true
		// The tagged section is authoritative; anything still queued from
		// default-mode streaming is superseded.
		a.pending = nil
		return OutcomeNone

	case content == responseCloseTag:
		if a.phase != PhaseInTagged {
			a.anomaly("stray-close-tag", content)
			return OutcomeDiscarded
		}
		// Revealed text so far is the retained result; wait for the
		// terminator to confirm or override it.
		a.phase = PhaseStreaming
		return OutcomeNone
	}

	if final, ok := extractTerminator(content); ok {
		a.finalize(final)
		return OutcomeFinalized
	}

	switch {
	case a.phase == PhaseInTagged:
		a.enqueue(content)
		return OutcomeQueued

	case a.hasSeenTag:
		// Between </response> and the terminator. Plain filler is dropped;
		// tag-ish content here is a protocol anomaly.
		if strings.Contains(content, "<") {
			a.anomaly("tag-outside-section", content)
		}
		return OutcomeDiscarded

	default:
		// Upstream never used the tag protocol: plain streaming.
		a.phase = PhaseStreaming
		a.enqueue(content)
		return OutcomeQueued
	}
}

// Tick moves up to batch pending runes into the revealed text and reports
// whether anything moved. Callers invoke it from a fixed-rate timer.
func (a *Assembler) Tick(batch int) bool {
	if batch <= 0 || len(a.pending) == 0 {
		return false
	}
	if batch > len(a.pending) {
		batch = len(a.pending)
	}
	a.revealed.WriteString(string(a.pending[:batch]))
	a.pending = a.pending[batch:]
	return true
}

// Flush drains the entire pending queue into the revealed text and returns
// it. Stopping the reveal never drops characters.
func (a *Assembler) Flush() string {
	if len(a.pending) > 0 {
		a.revealed.WriteString(string(a.pending))
		a.pending = nil
	}
	return a.revealed.String()
}

// Visible returns the text revealed so far.
func (a *Assembler) Visible() string {
	return a.revealed.String()
}

// Pending reports how many runes are queued but not yet revealed.
func (a *Assembler) Pending() int {
	return len(a.pending)
}

// Phase returns the current protocol phase.
func (a *Assembler) Phase() Phase {
	return a.phase
}

// Finalized reports whether the reply is complete.
func (a *Assembler) Finalized() bool {
	return a.phase == PhaseFinalized
}

// FinalText returns the authoritative reply text. Only meaningful once
// Finalized reports true.
func (a *Assembler) FinalText() string {
	return a.finalText
}

func (a *Assembler) finalize(text string) {
	a.phase = PhaseFinalized
	a.pending = nil
	a.finalText = text
	a.revealed.Reset()
	a.revealed.WriteString(text)
}

func (a *Assembler) enqueue(content string) {
	a.pending = append(a.pending, []rune(content)...)
}

func (a *Assembler) anomaly(event, detail string) {
	if a.onAnomaly != nil {
		a.onAnomaly(event, detail)
	}
}

// extractTerminator pulls the authoritative final text out of an
// <end>...</end> terminator envelope.
func extractTerminator(content string) (string, bool) {
	i := strings.Index(content, endOpenMarker)
	if i < 0 {
		return "", false
	}
	j := strings.Index(content[i+len(endOpenMarker):], endCloseMarker)
	if j < 0 {
		return "", false
	}
	inner := content[i+len(endOpenMarker) : i+len(endOpenMarker)+j]
	return strings.TrimSpace(inner), true
}
