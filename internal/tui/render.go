package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
)

// ─── Welcome header ─────────────────────────────────────────────────────────

const waveArt = `
  ~~~~    ~~~~    ~~~~    ~~~~
~~    ~~~~    ~~~~    ~~~~    ~~
`

func renderWelcome(version, webhook, profile string) string {
	titleLine := logoTitleStyle.Render("tidechat") + " " + versionStyle.Render("v"+version)

	var infoLine string
	if webhook == "" {
		infoLine = welcomeHintStyle.Render("No webhook configured. Run: tidechat set webhook <url>")
	} else {
		display := webhook
		if len(display) > 56 {
			display = display[:53] + "..."
		}
		if profile != "" {
			display += " · profile " + profile
		}
		infoLine = welcomeInfoStyle.Render(display)
	}

	wave := logoWaveStyle.Render(strings.Trim(waveArt, "\n"))
	return fmt.Sprintf("\n%s\n\n%s\n%s\n", wave, titleLine, infoLine)
}

// ─── Markdown ───────────────────────────────────────────────────────────────

// renderMarkdown formats a finalized assistant reply for the terminal.
// Falls back to the raw text if rendering fails (e.g. no TTY profile).
func renderMarkdown(text string, width int) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	if width < 20 {
		width = 80
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(min(width-2, 100)),
	)
	if err != nil {
		return text
	}
	out, err := r.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(out, "\n")
}

// wrapPlain wraps raw text at the given width without interpreting markup.
// Used for the live, still-streaming portion of a reply and for user text.
func wrapPlain(text string, width int) string {
	if width < 10 {
		return text
	}
	var b strings.Builder
	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(wrapLine(line, width))
	}
	return b.String()
}

// wrapLine breaks one line at space boundaries. Space runs inside the line
// are kept as-is; only the run at a break point is consumed by it.
func wrapLine(line string, width int) string {
	if len(line) <= width {
		return line
	}
	var b strings.Builder
	col := 0
	for i := 0; i < len(line); {
		start := i
		for i < len(line) && line[i] == ' ' {
			i++
		}
		spaces := line[start:i]

		start = i
		for i < len(line) && line[i] != ' ' {
			i++
		}
		word := line[start:i]

		if word == "" {
			b.WriteString(spaces)
			col += len(spaces)
			continue
		}
		if col > 0 && col+len(spaces)+len(word) > width {
			b.WriteByte('\n')
			b.WriteString(word)
			col = len(word)
			continue
		}
		b.WriteString(spaces)
		b.WriteString(word)
		col += len(spaces) + len(word)
	}
	return b.String()
}
