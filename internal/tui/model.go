package tui

import (
	"fmt"
	"strings"
	"time"

	"tidechat/internal/api"
	"tidechat/internal/config"
	"tidechat/internal/diag"
	"tidechat/internal/stream"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ─── Pacing ─────────────────────────────────────────────────────────────────

// The reveal runs at a fixed rate regardless of how fast envelopes arrive:
// every revealInterval up to revealBatch queued characters become visible.
// graceDelay lets in-flight ticks settle before the final text replaces the
// revealed one.
const (
	revealInterval = 25 * time.Millisecond
	revealBatch    = 3
	graceDelay     = 120 * time.Millisecond
	elapsedEvery   = time.Second
)

// ─── App mode ───────────────────────────────────────────────────────────────

type appMode int

const (
	modeIdle appMode = iota
	modeStreaming
)

// ─── Model ──────────────────────────────────────────────────────────────────

type model struct {
	width  int
	height int

	// Bubble Tea components
	input   textinput.Model
	spinner spinner.Model

	// App state
	mode    appMode
	cfg     *config.Config
	client  api.ChatAPI
	version string
	profile string

	// Transcript for this session. The in-flight assistant reply lives in
	// asm until it finalizes; only then is it appended here.
	transcript []ChatMessage

	// Per-reply reveal state. streamGen stamps every timer chain so ticks
	// from a finished or failed reply are ignored.
	asm             *stream.Assembler
	streamGen       int
	finalizePending bool
	startedAt       time.Time
	elapsed         time.Duration

	useMarkdown bool

	// UI state
	ready        bool
	cmdMenuIdx   int
	cmdMenuOpen  bool
	lastInputVal string

	// Input history
	history      []string
	historyIdx   int
	historySaved string
}

func initialModel(version, profile string) model {
	ti := textinput.New()
	ti.Placeholder = "Ask something or type /help..."
	ti.Focus()
	ti.CharLimit = 4096
	ti.Prompt = "❯ "
	ti.PromptStyle = promptSymbol
	ti.Cursor.Style = lipgloss.NewStyle().Foreground(colorTeal)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(colorTeal)

	cfg, _ := config.Load(profile)

	var client api.ChatAPI
	if cfg != nil && cfg.WebhookURL != "" {
		client = api.NewClient(cfg)
	}

	return model{
		input:       ti,
		spinner:     sp,
		version:     version,
		profile:     profile,
		cfg:         cfg,
		client:      client,
		mode:        modeIdle,
		useMarkdown: true,
		historyIdx:  -1,
	}
}

// ─── Init ───────────────────────────────────────────────────────────────────

func (m model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.spinner.Tick,
	)
}

// ─── Timer commands ─────────────────────────────────────────────────────────

func revealTickCmd(gen int) tea.Cmd {
	return tea.Tick(revealInterval, func(time.Time) tea.Msg {
		return revealTickMsg{gen: gen}
	})
}

func elapsedTickCmd(gen int) tea.Cmd {
	return tea.Tick(elapsedEvery, func(time.Time) tea.Msg {
		return elapsedTickMsg{gen: gen}
	})
}

func finalizeCmd(gen int) tea.Cmd {
	return tea.Tick(graceDelay, func(time.Time) tea.Msg {
		return finalizeMsg{gen: gen}
	})
}

// ─── Update ─────────────────────────────────────────────────────────────────

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = m.width - 6

		if !m.ready {
			m.ready = true
			welcome := renderWelcome(m.version, webhookStr(m.cfg), m.profile)
			cmds = append(cmds, tea.Println(welcome))
		}

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			// Teardown: the deferred channel close and generation bump make
			// any in-flight reply's timers and envelopes moot.
			return m, tea.Quit

		case tea.KeyEsc:
			if m.mode == modeStreaming {
				return m.cancelReply()
			}
			if m.cmdMenuOpen {
				m.cmdMenuOpen = false
				m.cmdMenuIdx = 0
				return m, nil
			}

		case tea.KeyUp:
			if m.mode == modeIdle {
				if m.cmdMenuOpen {
					matches := matchCommands(m.input.Value())
					if len(matches) > 0 {
						m.cmdMenuIdx--
						if m.cmdMenuIdx < 0 {
							m.cmdMenuIdx = len(matches) - 1
						}
						return m, nil
					}
				} else if len(m.history) > 0 {
					if m.historyIdx == -1 {
						m.historySaved = m.input.Value()
						m.historyIdx = len(m.history) - 1
					} else if m.historyIdx > 0 {
						m.historyIdx--
					}
					m.input.SetValue(m.history[m.historyIdx])
					m.input.CursorEnd()
					return m, nil
				}
			}

		case tea.KeyDown:
			if m.mode == modeIdle {
				if m.cmdMenuOpen {
					matches := matchCommands(m.input.Value())
					if len(matches) > 0 {
						m.cmdMenuIdx++
						if m.cmdMenuIdx >= len(matches) {
							m.cmdMenuIdx = 0
						}
						return m, nil
					}
				} else if m.historyIdx != -1 {
					m.historyIdx++
					if m.historyIdx >= len(m.history) {
						m.historyIdx = -1
						m.input.SetValue(m.historySaved)
						m.historySaved = ""
					} else {
						m.input.SetValue(m.history[m.historyIdx])
					}
					m.input.CursorEnd()
					return m, nil
				}
			}

		case tea.KeyTab:
			if m.mode == modeIdle && m.cmdMenuOpen {
				matches := matchCommands(m.input.Value())
				if len(matches) > 0 {
					idx := m.cmdMenuIdx
					if idx < 0 || idx >= len(matches) {
						idx = 0
					}
					m.input.SetValue(matches[idx].name + " ")
					m.input.CursorEnd()
					m.cmdMenuOpen = false
					m.cmdMenuIdx = 0
				}
				return m, nil
			}

		case tea.KeyEnter:
			if m.mode != modeIdle {
				return m, nil // one reply in flight at a time
			}
			if m.cmdMenuOpen && m.cmdMenuIdx >= 0 {
				matches := matchCommands(m.input.Value())
				if m.cmdMenuIdx < len(matches) {
					m.input.SetValue(matches[m.cmdMenuIdx].name + " ")
					m.input.CursorEnd()
					m.cmdMenuOpen = false
					m.cmdMenuIdx = 0
					return m, nil
				}
			}

			value := strings.TrimSpace(m.input.Value())
			if value == "" {
				return m, nil
			}

			if len(m.history) == 0 || m.history[len(m.history)-1] != value {
				m.history = append(m.history, value)
				if len(m.history) > 1000 {
					m.history = m.history[len(m.history)-1000:]
				}
			}
			m.historyIdx = -1
			m.historySaved = ""

			m.input.SetValue("")
			m.cmdMenuOpen = false
			m.cmdMenuIdx = 0

			return m.dispatchInput(value)
		}

	// ── Stream messages ───────────────────────────────────────────────
	case envelopeMsg:
		if msg.env.Kind == stream.KindEnd {
			if node := msg.env.NodeName(); node != "" {
				diag.Info("stream end", "node", node)
			}
		}
		if m.mode == modeStreaming && m.asm != nil && !m.finalizePending {
			if m.asm.Apply(msg.env) == stream.OutcomeFinalized {
				m.finalizePending = true
				cmds = append(cmds, finalizeCmd(m.streamGen))
			}
		}
		if activeStreamCh != nil {
			cmds = append(cmds, waitForStream(activeStreamCh))
		}
		return m, tea.Batch(cmds...)

	case streamDoneMsg:
		// Stream ended without a terminator or end record: finalize with
		// whatever was streamed, no authoritative override.
		if m.mode == modeStreaming && !m.finalizePending {
			m.finalizePending = true
			cmds = append(cmds, finalizeCmd(m.streamGen))
		}
		return m, tea.Batch(cmds...)

	case streamErrMsg:
		// A terminator already fixed the reply text; a late transport error
		// (or one racing the drain after cancel) must not clobber it.
		if m.mode != modeStreaming || m.finalizePending {
			return m, nil
		}
		return m.failReply(msg.err)

	case revealTickMsg:
		if msg.gen != m.streamGen || m.mode != modeStreaming {
			return m, nil
		}
		if m.asm != nil && !m.finalizePending {
			m.asm.Tick(revealBatch)
			cmds = append(cmds, revealTickCmd(m.streamGen))
		}
		return m, tea.Batch(cmds...)

	case elapsedTickMsg:
		if msg.gen != m.streamGen || m.mode != modeStreaming {
			return m, nil
		}
		m.elapsed = time.Since(m.startedAt)
		return m, elapsedTickCmd(m.streamGen)

	case finalizeMsg:
		if msg.gen != m.streamGen || m.mode != modeStreaming {
			return m, nil
		}
		return m.finalizeReply()
	}

	// Update sub-components
	var cmd tea.Cmd

	if m.mode != modeStreaming {
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}

	m.spinner, cmd = m.spinner.Update(msg)
	cmds = append(cmds, cmd)

	// Track input changes to open/close the command menu.
	newVal := m.input.Value()
	if newVal != m.lastInputVal {
		m.lastInputVal = newVal
		if m.historyIdx != -1 && m.historyIdx < len(m.history) && m.history[m.historyIdx] != newVal {
			m.historyIdx = -1
			m.historySaved = ""
		}
		if strings.HasPrefix(newVal, "/") {
			m.cmdMenuOpen = true
			m.cmdMenuIdx = 0
		} else {
			m.cmdMenuOpen = false
			m.cmdMenuIdx = 0
		}
	}

	return m, tea.Batch(cmds...)
}

// ─── Reply lifecycle ────────────────────────────────────────────────────────

// submitMessage starts a new reply: fresh assembler, fresh timer generation.
func (m model) submitMessage(value string) (tea.Model, tea.Cmd) {
	if m.client == nil {
		hint := "No webhook configured. Run: tidechat set webhook <url>"
		return m, tea.Println(warnMsgStyle.Render("  ! " + hint))
	}

	m.transcript = append(m.transcript, ChatMessage{Role: RoleUser, Text: value, SentAt: time.Now()})

	m.mode = modeStreaming
	m.streamGen++
	m.asm = stream.NewAssembler(diag.Anomaly)
	m.finalizePending = false
	m.startedAt = time.Now()
	m.elapsed = 0

	diag.Info("message sent", "session", m.cfg.SessionID, "chars", len(value))

	echo := userPrefixStyle.Render("❯ ") + userMsgStyle.Render(wrapPlain(value, contentWidth(m.width)))
	return m, tea.Batch(
		tea.Println(echo),
		beginStream(m.client, value, m.cfg.SessionID),
		revealTickCmd(m.streamGen),
		elapsedTickCmd(m.streamGen),
	)
}

// finalizeReply commits the in-flight reply to the transcript and prints it.
func (m model) finalizeReply() (tea.Model, tea.Cmd) {
	text := ""
	if m.asm != nil {
		if m.asm.Finalized() {
			text = m.asm.FinalText()
		} else {
			text = m.asm.Flush()
		}
	}

	m.transcript = append(m.transcript, ChatMessage{Role: RoleAssistant, Text: text, SentAt: time.Now()})

	rendered := text
	if m.useMarkdown {
		rendered = renderMarkdown(text, contentWidth(m.width))
	} else {
		rendered = wrapPlain(text, contentWidth(m.width))
	}

	m.resetReplyState()
	return m, tea.Println(rendered + "\n")
}

// cancelReply abandons the in-flight reply on Esc. The partial text is
// dropped without a transcript entry; the stream drains in the background.
func (m model) cancelReply() (tea.Model, tea.Cmd) {
	revealed := 0
	if m.asm != nil {
		revealed = len(m.asm.Visible())
	}
	diag.Info("reply cancelled", "revealed_chars", revealed)

	m.resetReplyState()
	return m, tea.Println(dimStyle.Render("  (cancelled)"))
}

// failReply discards the partial reply and records the fixed error message.
// Input is re-enabled no matter which path brought us here.
func (m model) failReply(err error) (tea.Model, tea.Cmd) {
	diag.Info("stream failed", "err", err.Error())

	m.transcript = append(m.transcript, ChatMessage{Role: RoleSystemError, Text: errorReplyText, SentAt: time.Now()})

	m.resetReplyState()
	return m, tea.Println(errorMsgStyle.Render("  ✗ " + errorReplyText))
}

func (m *model) resetReplyState() {
	m.mode = modeIdle
	m.streamGen++ // orphan any timers still in flight
	m.asm = nil
	m.finalizePending = false
	m.elapsed = 0
	if activeStreamCh != nil {
		drainStream(activeStreamCh)
		activeStreamCh = nil
	}
}

// ─── View ───────────────────────────────────────────────────────────────────
//
// Inline mode: finished messages are printed above via tea.Println; View
// renders only the live region — the partially revealed reply while
// streaming, or the input prompt when idle.

func (m model) View() string {
	if !m.ready {
		return ""
	}

	var s strings.Builder

	if m.mode == modeStreaming {
		if m.asm != nil {
			if live := m.asm.Visible(); live != "" {
				s.WriteString(assistantLiveStyle.Render(wrapPlain(live, contentWidth(m.width))))
				s.WriteString("\n")
			}
		}
		status := fmt.Sprintf("%s %s %s",
			m.spinner.View(),
			statusStyle.Render("Waiting for the tide..."),
			dimStyle.Render(fmt.Sprintf("(%ds)", int(m.elapsed.Seconds()))),
		)
		s.WriteString(status)
	} else {
		s.WriteString(m.input.View())
	}
	s.WriteString("\n")

	sepWidth := min(m.width, 80)
	if sepWidth < 20 {
		sepWidth = 20
	}
	s.WriteString(separatorStyle.Render(strings.Repeat("─", sepWidth)))
	s.WriteString("\n")

	s.WriteString(m.renderHints())

	return s.String()
}

func (m model) renderHints() string {
	if m.mode == modeStreaming {
		return hintBarStyle.Render("  Esc cancel · Ctrl+C quit")
	}

	if m.cmdMenuOpen {
		matches := matchCommands(m.input.Value())
		if len(matches) > 0 {
			return m.renderCommandMenu(matches)
		}
	}

	return hintBarStyle.Render("  / for commands")
}

func (m model) renderCommandMenu(matches []slashCmd) string {
	maxLen := 0
	for _, c := range matches {
		if len(c.name) > maxLen {
			maxLen = len(c.name)
		}
	}

	var lines []string
	for i, c := range matches {
		padded := c.name + strings.Repeat(" ", maxLen-len(c.name))

		var line string
		if i == m.cmdMenuIdx {
			line = "  " + cmdSelectedNameStyle.Render(padded) + "  " + cmdSelectedDescStyle.Render(c.desc)
		} else {
			line = "  " + cmdNameStyle.Render(padded) + "  " + cmdDescStyle.Render(c.desc)
		}
		lines = append(lines, line)
	}

	lines = append(lines, hintBarStyle.Render("  ↑↓ navigate  Tab/Enter select"))

	return strings.Join(lines, "\n")
}

// ─── Helpers ────────────────────────────────────────────────────────────────

func contentWidth(width int) int {
	w := width - 4
	if w < 20 {
		w = 76
	}
	return w
}

func webhookStr(cfg *config.Config) string {
	if cfg == nil {
		return ""
	}
	return cfg.WebhookURL
}
