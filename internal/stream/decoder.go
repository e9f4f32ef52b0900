package stream

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// ─── Envelope ────────────────────────────────────────────────────────────────

// Kind identifies the type of a streamed record.
type Kind int

const (
	// KindItem carries incremental assistant output.
	KindItem Kind = iota
	// KindFinal carries authoritative full text, bypassing the reveal queue.
	KindFinal
	// KindReplace is a full replacement of the visible text, like KindFinal.
	KindReplace
	// KindEnd signals end-of-reply.
	KindEnd
	// KindUnknown is anything else; logged and ignored downstream.
	KindUnknown
)

func (k Kind) String() string {
	switch k {
	case KindItem:
		return "item"
	case KindFinal:
		return "final"
	case KindReplace:
		return "replace"
	case KindEnd:
		return "end"
	}
	return "unknown"
}

// Envelope is one decoded unit of streamed assistant output.
type Envelope struct {
	Kind     Kind
	RawType  string // wire value of "type", kept for diagnostics
	Content  string
	Metadata map[string]any
}

// NodeName returns metadata.nodeName if present. Only used for logging.
func (e Envelope) NodeName() string {
	if e.Metadata == nil {
		return ""
	}
	if v, ok := e.Metadata["nodeName"].(string); ok {
		return v
	}
	return ""
}

// ─── Decoder ─────────────────────────────────────────────────────────────────

// DiagnosticFunc receives lines or buffers that failed structured parsing.
// Decode failures never propagate to the decoder's caller.
type DiagnosticFunc func(fragment string, err error)

// Decoder reassembles raw byte chunks into newline-delimited JSON records and
// decodes each record into an Envelope. Chunk boundaries carry no meaning:
// the trailing, possibly-incomplete line is buffered until the next chunk.
//
// If the very first non-empty content begins with '[', the payload is assumed
// to be a single JSON array (batch format) instead of newline-delimited
// records; everything is accumulated and parsed once at Close. This is a
// best-effort heuristic: a streamed line that merely starts with '[' will be
// misread as a batch.
type Decoder struct {
	carry     strings.Builder
	pending   string // partial line carried across Feed calls
	started   bool
	arrayMode bool
	closed    bool
	onError   DiagnosticFunc
}

// NewDecoder creates a decoder. onError may be nil.
func NewDecoder(onError DiagnosticFunc) *Decoder {
	return &Decoder{onError: onError}
}

// Feed consumes one raw chunk and returns the envelopes completed by it.
// In batch (array) mode Feed only accumulates; envelopes come from Close.
func (d *Decoder) Feed(chunk []byte) []Envelope {
	if d.closed || len(chunk) == 0 {
		return nil
	}
	text := string(chunk)

	if !d.started {
		head := strings.TrimLeft(d.pending+text, " \t\r\n")
		if head == "" {
			d.pending += text
			return nil
		}
		d.started = true
		if head[0] == '[' {
			d.arrayMode = true
			d.carry.WriteString(d.pending)
			d.pending = ""
		}
	}

	if d.arrayMode {
		d.carry.WriteString(text)
		return nil
	}

	combined := d.pending + text
	lines := strings.Split(combined, "\n")
	d.pending = lines[len(lines)-1]

	var out []Envelope
	for _, line := range lines[:len(lines)-1] {
		if env, ok := d.decodeLine(line); ok {
			out = append(out, env)
		}
	}
	return out
}

// Close signals end-of-stream. Any residual buffered text gets one final
// parse attempt (object or array) before the decoder terminates.
func (d *Decoder) Close() []Envelope {
	if d.closed {
		return nil
	}
	d.closed = true

	if d.arrayMode {
		return d.decodeArray(d.carry.String())
	}

	residual := strings.TrimSpace(d.pending)
	d.pending = ""
	if residual == "" {
		return nil
	}
	if env, ok := d.decodeLine(residual); ok {
		return []Envelope{env}
	}
	// The failed line already went to the diagnostic channel; an array is
	// the only remaining shape worth trying.
	if strings.HasPrefix(residual, "[") {
		return d.decodeArray(residual)
	}
	return nil
}

// Run pumps r through the decoder in fixed-size chunks, emitting envelopes
// as they complete. Only read errors are returned; decode errors go to the
// diagnostic channel.
func (d *Decoder) Run(r io.Reader, emit func(Envelope)) error {
	buf := make([]byte, 4096)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			for _, env := range d.Feed(buf[:n]) {
				emit(env)
			}
		}
		if err == io.EOF {
			for _, env := range d.Close() {
				emit(env)
			}
			return nil
		}
		if err != nil {
			for _, env := range d.Close() {
				emit(env)
			}
			return err
		}
	}
}

// ─── Record decoding ─────────────────────────────────────────────────────────

type record struct {
	Type     string         `json:"type"`
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata"`
}

func (d *Decoder) decodeLine(line string) (Envelope, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Envelope{}, false
	}
	var rec record
	if err := json.Unmarshal([]byte(line), &rec); err != nil {
		d.diag(line, err)
		return Envelope{}, false
	}
	return envelopeFrom(rec), true
}

// decodeArray parses the accumulated batch payload: a JSON array whose
// elements are either bare records or `{json: record}` wrappers.
func (d *Decoder) decodeArray(payload string) []Envelope {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return nil
	}
	var elems []json.RawMessage
	if err := json.Unmarshal([]byte(payload), &elems); err != nil {
		d.diag(payload, err)
		return nil
	}

	var out []Envelope
	for i, raw := range elems {
		var wrapper struct {
			JSON *record `json:"json"`
		}
		if err := json.Unmarshal(raw, &wrapper); err == nil && wrapper.JSON != nil {
			out = append(out, envelopeFrom(*wrapper.JSON))
			continue
		}
		var rec record
		if err := json.Unmarshal(raw, &rec); err != nil {
			d.diag(string(raw), fmt.Errorf("batch element %d: %w", i, err))
			continue
		}
		out = append(out, envelopeFrom(rec))
	}
	return out
}

func envelopeFrom(rec record) Envelope {
	env := Envelope{
		RawType:  rec.Type,
		Content:  rec.Content,
		Metadata: rec.Metadata,
	}
	switch rec.Type {
	case "item":
		env.Kind = KindItem
		env.Content = unwrapOutput(rec.Content)
	case "final":
		env.Kind = KindFinal
	case "replace":
		env.Kind = KindReplace
	case "end":
		env.Kind = KindEnd
	default:
		env.Kind = KindUnknown
	}
	return env
}

// unwrapOutput handles item content that is itself a JSON object carrying the
// real text in an "output" field.
func unwrapOutput(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "{") {
		return content
	}
	var inner struct {
		Output *string `json:"output"`
	}
	if err := json.Unmarshal([]byte(trimmed), &inner); err != nil || inner.Output == nil {
		return content
	}
	return *inner.Output
}

func (d *Decoder) diag(fragment string, err error) {
	if d.onError != nil {
		d.onError(fragment, err)
	}
}
