package stream

import (
	"errors"
	"io"
	"strings"
	"testing"
)

// ─── Test helpers ───────────────────────────────────────────────────────────

// feedAll pushes the payload through the decoder in chunks of the given size
// and returns every envelope, including those completed by Close.
func feedAll(t *testing.T, d *Decoder, payload string, chunkSize int) []Envelope {
	t.Helper()
	var out []Envelope
	for i := 0; i < len(payload); i += chunkSize {
		end := i + chunkSize
		if end > len(payload) {
			end = len(payload)
		}
		out = append(out, d.Feed([]byte(payload[i:end]))...)
	}
	return append(out, d.Close()...)
}

func contents(envs []Envelope) []string {
	var texts []string
	for _, e := range envs {
		texts = append(texts, e.Content)
	}
	return texts
}

// ─── Line decoding ──────────────────────────────────────────────────────────

func TestDecodeSingleLine(t *testing.T) {
	d := NewDecoder(nil)
	envs := feedAll(t, d, `{"type":"item","content":"Hello"}`+"\n", 4096)

	if len(envs) != 1 {
		t.Fatalf("expected 1 envelope, got %d", len(envs))
	}
	if envs[0].Kind != KindItem || envs[0].Content != "Hello" {
		t.Errorf("unexpected envelope: %+v", envs[0])
	}
}

func TestChunkBoundaryInsideRecord(t *testing.T) {
	payload := `{"type":"item","content":"Hello"}` + "\n" +
		`{"type":"item","content":" world"}` + "\n"

	// Every chunk size must yield the same records.
	for _, size := range []int{1, 2, 3, 5, 7, 16, 64, len(payload)} {
		d := NewDecoder(nil)
		envs := feedAll(t, d, payload, size)
		got := contents(envs)
		if len(got) != 2 || got[0] != "Hello" || got[1] != " world" {
			t.Errorf("chunk size %d: got %v", size, got)
		}
	}
}

func TestResidualLineParsedAtClose(t *testing.T) {
	// No trailing newline: the last record sits in the carry buffer.
	d := NewDecoder(nil)
	envs := feedAll(t, d, `{"type":"end"}`, 4096)

	if len(envs) != 1 || envs[0].Kind != KindEnd {
		t.Fatalf("expected end envelope from residual buffer, got %v", envs)
	}
}

func TestEmptyLinesSkipped(t *testing.T) {
	d := NewDecoder(nil)
	payload := "\n\n  \n" + `{"type":"item","content":"a"}` + "\n\n"
	envs := feedAll(t, d, payload, 4096)

	if len(envs) != 1 || envs[0].Content != "a" {
		t.Errorf("expected single envelope, got %v", envs)
	}
}

func TestMalformedLineSkippedAndReported(t *testing.T) {
	var reported []string
	d := NewDecoder(func(fragment string, err error) {
		if err == nil {
			t.Error("diagnostic called with nil error")
		}
		reported = append(reported, fragment)
	})

	payload := `{"type":"item","content":"before"}` + "\n" +
		`{not json at all` + "\n" +
		`{"type":"item","content":"after"}` + "\n"
	envs := feedAll(t, d, payload, 4096)

	got := contents(envs)
	if len(got) != 2 || got[0] != "before" || got[1] != "after" {
		t.Errorf("valid lines around a malformed one should decode, got %v", got)
	}
	if len(reported) != 1 || !strings.Contains(reported[0], "not json") {
		t.Errorf("expected one diagnostic for the bad line, got %v", reported)
	}
}

func TestDecoderNeverPanicsOnGarbage(t *testing.T) {
	inputs := []string{
		"",
		"\x00\xff\xfe",
		"{{{{{",
		"[[[",
		`{"type":`,
		strings.Repeat("x", 10000),
	}
	for _, in := range inputs {
		d := NewDecoder(nil)
		_ = d.Feed([]byte(in))
		_ = d.Close()
	}
}

// ─── Kind mapping ───────────────────────────────────────────────────────────

func TestKindMapping(t *testing.T) {
	tests := []struct {
		line string
		want Kind
	}{
		{`{"type":"item","content":"x"}`, KindItem},
		{`{"type":"final","content":"x"}`, KindFinal},
		{`{"type":"replace","content":"x"}`, KindReplace},
		{`{"type":"end"}`, KindEnd},
		{`{"type":"telemetry","content":"x"}`, KindUnknown},
		{`{"content":"x"}`, KindUnknown},
	}
	for _, tt := range tests {
		d := NewDecoder(nil)
		envs := feedAll(t, d, tt.line+"\n", 4096)
		if len(envs) != 1 {
			t.Fatalf("%s: expected 1 envelope, got %d", tt.line, len(envs))
		}
		if envs[0].Kind != tt.want {
			t.Errorf("%s: kind = %v, want %v", tt.line, envs[0].Kind, tt.want)
		}
	}
}

func TestItemOutputUnwrapped(t *testing.T) {
	d := NewDecoder(nil)
	line := `{"type":"item","content":"{\"output\":\"inner text\"}"}`
	envs := feedAll(t, d, line+"\n", 4096)

	if len(envs) != 1 || envs[0].Content != "inner text" {
		t.Errorf("expected unwrapped output field, got %v", envs)
	}
}

func TestItemContentNotJSONLeftAlone(t *testing.T) {
	d := NewDecoder(nil)
	line := `{"type":"item","content":"{plain braces, not json}"}`
	envs := feedAll(t, d, line+"\n", 4096)

	if len(envs) != 1 || envs[0].Content != "{plain braces, not json}" {
		t.Errorf("non-JSON content must pass through unchanged, got %v", envs)
	}
}

func TestEndNodeName(t *testing.T) {
	d := NewDecoder(nil)
	line := `{"type":"end","metadata":{"nodeName":"Webhook Trigger"}}`
	envs := feedAll(t, d, line+"\n", 4096)

	if len(envs) != 1 || envs[0].NodeName() != "Webhook Trigger" {
		t.Errorf("expected nodeName metadata, got %v", envs)
	}
}

// ─── Batch (array) format ───────────────────────────────────────────────────

func TestBatchArrayWithJSONWrapper(t *testing.T) {
	d := NewDecoder(nil)
	payload := `[{"json":{"type":"item","content":"Hi"}}]`
	envs := feedAll(t, d, payload, 4096)

	if len(envs) != 1 {
		t.Fatalf("expected 1 envelope, got %d", len(envs))
	}
	if envs[0].Kind != KindItem || envs[0].Content != "Hi" {
		t.Errorf("wrapped batch element should decode like a line record, got %+v", envs[0])
	}
}

func TestBatchArrayBareRecords(t *testing.T) {
	d := NewDecoder(nil)
	payload := `[{"type":"item","content":"a"},{"type":"item","content":"b"},{"type":"end"}]`
	envs := feedAll(t, d, payload, 3)

	got := contents(envs)
	if len(envs) != 3 || got[0] != "a" || got[1] != "b" || envs[2].Kind != KindEnd {
		t.Errorf("unexpected batch decode: %v", got)
	}
}

func TestBatchArraySplitAcrossChunks(t *testing.T) {
	payload := `[{"json":{"type":"item","content":"Hi"}},{"json":{"type":"end"}}]`
	for _, size := range []int{1, 4, 9, len(payload)} {
		d := NewDecoder(nil)
		envs := feedAll(t, d, payload, size)
		if len(envs) != 2 || envs[0].Content != "Hi" || envs[1].Kind != KindEnd {
			t.Errorf("chunk size %d: got %v", size, envs)
		}
	}
}

func TestBatchLeadingWhitespace(t *testing.T) {
	d := NewDecoder(nil)
	payload := "  \n\t" + `[{"type":"item","content":"x"}]`
	envs := feedAll(t, d, payload, 2)

	if len(envs) != 1 || envs[0].Content != "x" {
		t.Errorf("array heuristic should see past leading whitespace, got %v", envs)
	}
}

func TestBatchMalformedElementSkipped(t *testing.T) {
	var diags int
	d := NewDecoder(func(string, error) { diags++ })
	payload := `[{"type":"item","content":"ok"},42,{"type":"end"}]`
	envs := feedAll(t, d, payload, 4096)

	if len(envs) != 2 {
		t.Errorf("expected malformed element skipped, got %d envelopes", len(envs))
	}
	if diags != 1 {
		t.Errorf("expected 1 diagnostic, got %d", diags)
	}
}

// ─── Run ────────────────────────────────────────────────────────────────────

type stutterReader struct {
	data []byte
	pos  int
	err  error
}

func (r *stutterReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.data) {
		if r.err != nil {
			return 0, r.err
		}
		return 0, io.EOF
	}
	// One byte at a time: worst-case chunking.
	p[0] = r.data[r.pos]
	r.pos++
	return 1, nil
}

func TestRunEmitsAllEnvelopes(t *testing.T) {
	payload := `{"type":"item","content":"Hello"}` + "\n" + `{"type":"end"}` + "\n"
	d := NewDecoder(nil)

	var envs []Envelope
	err := d.Run(&stutterReader{data: []byte(payload)}, func(e Envelope) {
		envs = append(envs, e)
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(envs) != 2 || envs[0].Content != "Hello" || envs[1].Kind != KindEnd {
		t.Errorf("unexpected envelopes: %v", envs)
	}
}

func TestRunSurfacesReadError(t *testing.T) {
	readErr := errors.New("connection reset")
	d := NewDecoder(nil)

	var envs []Envelope
	err := d.Run(&stutterReader{data: []byte(`{"type":"item","content":"partial"}` + "\n"), err: readErr}, func(e Envelope) {
		envs = append(envs, e)
	})
	if !errors.Is(err, readErr) {
		t.Fatalf("Run() error = %v, want %v", err, readErr)
	}
	// Envelopes completed before the failure must still have been emitted.
	if len(envs) != 1 || envs[0].Content != "partial" {
		t.Errorf("expected envelope before read error, got %v", envs)
	}
}
