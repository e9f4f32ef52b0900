package tui

import (
	"fmt"
	"strings"

	"tidechat/internal/config"

	tea "github.com/charmbracelet/bubbletea"
)

// ─── Slash commands ─────────────────────────────────────────────────────────

type slashCmd struct {
	name string
	desc string
}

var slashCommands = []slashCmd{
	{"/clear", "Clear the screen and transcript"},
	{"/config", "Show the active configuration"},
	{"/help", "List available commands"},
	{"/markdown", "Toggle markdown rendering of replies"},
	{"/session", "Show the current session ID"},
	{"/quit", "Exit tidechat"},
}

// matchCommands returns the commands whose name has input as a prefix.
func matchCommands(input string) []slashCmd {
	input = strings.ToLower(strings.TrimSpace(input))
	if input == "" || !strings.HasPrefix(input, "/") {
		return nil
	}

	var matches []slashCmd
	for _, c := range slashCommands {
		if strings.HasPrefix(c.name, input) {
			matches = append(matches, c)
		}
	}
	return matches
}

// dispatchInput routes a submitted line: slash commands are handled locally,
// anything else is sent to the webhook.
func (m model) dispatchInput(value string) (tea.Model, tea.Cmd) {
	if strings.HasPrefix(value, "/") {
		return m.handleSlashCommand(value)
	}
	return m.submitMessage(value)
}

func (m model) handleSlashCommand(value string) (tea.Model, tea.Cmd) {
	fields := strings.Fields(value)
	cmd := strings.ToLower(fields[0])

	switch cmd {
	case "/quit", "/exit":
		return m, tea.Quit

	case "/clear":
		m.transcript = nil
		welcome := renderWelcome(m.version, webhookStr(m.cfg), m.profile)
		return m, tea.Sequence(tea.ClearScreen, tea.Println(welcome))

	case "/help":
		return m, tea.Println(m.renderHelp())

	case "/config":
		return m, tea.Println(m.renderConfig())

	case "/session":
		if m.cfg == nil {
			return m, tea.Println(warnMsgStyle.Render("  ! no configuration loaded"))
		}
		return m, tea.Println(dimStyle.Render("  session ") + statusStyle.Render(m.cfg.SessionID))

	case "/markdown":
		m.useMarkdown = !m.useMarkdown
		state := "off"
		if m.useMarkdown {
			state = "on"
		}
		return m, tea.Println(successMsgStyle.Render("  ✓ markdown rendering " + state))

	default:
		return m, tea.Println(warnMsgStyle.Render("  ! unknown command: " + cmd + " (try /help)"))
	}
}

func (m model) renderHelp() string {
	var b strings.Builder
	b.WriteString(statusStyle.Render("  Commands") + "\n")
	for _, c := range slashCommands {
		b.WriteString(fmt.Sprintf("  %s  %s\n",
			cmdNameStyle.Render(fmt.Sprintf("%-10s", c.name)),
			cmdDescStyle.Render(c.desc)))
	}
	b.WriteString("\n" + hintBarStyle.Render("  Anything else is sent to the webhook."))
	return b.String()
}

func (m model) renderConfig() string {
	if m.cfg == nil {
		return warnMsgStyle.Render("  ! no configuration loaded")
	}

	webhook := m.cfg.WebhookURL
	if webhook == "" {
		webhook = "(not set)"
	}
	host := m.cfg.Host
	if host == "" {
		host = "(not set)"
	}

	logDir, err := config.LogDir()
	if err != nil {
		logDir = "(unknown)"
	}

	var b strings.Builder
	b.WriteString(statusStyle.Render("  Configuration") + "\n")
	b.WriteString(dimStyle.Render("  profile  ") + config.ProfileName(m.profile) + "\n")
	b.WriteString(dimStyle.Render("  webhook  ") + webhook + "\n")
	b.WriteString(dimStyle.Render("  host     ") + host + "\n")
	b.WriteString(dimStyle.Render("  timeout  ") + m.cfg.Timeout().String() + "\n")
	b.WriteString(dimStyle.Render("  session  ") + m.cfg.SessionID + "\n")
	b.WriteString(dimStyle.Render("  logs     ") + logDir)
	return b.String()
}
