package tui

import (
	"strings"
	"testing"
)

// ─── wrapPlain ───────────────────────────────────────────────────────────────

func TestWrapPlain_BreaksLongLines(t *testing.T) {
	out := wrapPlain("one two three four five six seven eight", 15)

	for _, line := range strings.Split(out, "\n") {
		if len(line) > 15 {
			t.Errorf("line %q exceeds width 15", line)
		}
	}
	// Nothing dropped.
	joined := strings.ReplaceAll(out, "\n", " ")
	if joined != "one two three four five six seven eight" {
		t.Errorf("wrapped text lost content: %q", joined)
	}
}

func TestWrapPlain_PreservesExistingNewlines(t *testing.T) {
	out := wrapPlain("first\nsecond", 40)
	if out != "first\nsecond" {
		t.Errorf("wrapPlain = %q, want newlines preserved", out)
	}
}

func TestWrapPlain_KeepsIntraLineSpaces(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"double space", "before  after"},
		{"leading indent", "    indented code line"},
		{"aligned columns", "key:   value"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if out := wrapPlain(tt.in, 40); out != tt.in {
				t.Errorf("wrapPlain = %q, want spaces preserved as %q", out, tt.in)
			}
		})
	}
}

func TestWrapPlain_NarrowWidthPassthrough(t *testing.T) {
	in := "untouched"
	if out := wrapPlain(in, 5); out != in {
		t.Errorf("wrapPlain = %q, want passthrough below minimum width", out)
	}
}

// ─── renderMarkdown ──────────────────────────────────────────────────────────

func TestRenderMarkdown_EmptyInput(t *testing.T) {
	if out := renderMarkdown("", 80); out != "" {
		t.Errorf("renderMarkdown(\"\") = %q, want empty", out)
	}
}

func TestRenderMarkdown_PlainTextSurvives(t *testing.T) {
	out := renderMarkdown("The tide comes in at noon.", 80)
	if !strings.Contains(out, "tide comes in at noon") {
		t.Errorf("rendered output lost the text:\n%s", out)
	}
}

// ─── renderWelcome ───────────────────────────────────────────────────────────

func TestRenderWelcome_NoWebhookHint(t *testing.T) {
	out := renderWelcome("1.0.0", "", "")
	if !strings.Contains(out, "set webhook") {
		t.Errorf("welcome without webhook must hint at setup:\n%s", out)
	}
}

func TestRenderWelcome_ShowsProfile(t *testing.T) {
	out := renderWelcome("1.0.0", "http://localhost/hook", "staging")
	if !strings.Contains(out, "staging") {
		t.Errorf("welcome must name the active profile:\n%s", out)
	}
}
