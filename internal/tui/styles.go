package tui

import "github.com/charmbracelet/lipgloss"

// ─── Colors ─────────────────────────────────────────────────────────────────

var (
	colorTeal    = lipgloss.Color("#2BB6A3") // primary accent
	colorGreen   = lipgloss.Color("78")
	colorRed     = lipgloss.Color("196")
	colorGray    = lipgloss.Color("242")
	colorDimGray = lipgloss.Color("238")
	colorWhite   = lipgloss.Color("255")
)

// ─── Welcome ────────────────────────────────────────────────────────────────

var logoTitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorWhite)

var versionStyle = lipgloss.NewStyle().
	Foreground(colorGray)

var welcomeHintStyle = lipgloss.NewStyle().
	Foreground(colorGray).
	Italic(true)

var welcomeInfoStyle = lipgloss.NewStyle().
	Foreground(colorGray)

var logoWaveStyle = lipgloss.NewStyle().
	Foreground(colorTeal)

// ─── Input / Prompt ─────────────────────────────────────────────────────────

var promptSymbol = lipgloss.NewStyle().
	Foreground(colorTeal).
	Bold(true)

// ─── Transcript ─────────────────────────────────────────────────────────────

var userMsgStyle = lipgloss.NewStyle().
	Foreground(colorWhite).
	Bold(true)

var userPrefixStyle = lipgloss.NewStyle().
	Foreground(colorTeal).
	Bold(true)

var assistantLiveStyle = lipgloss.NewStyle().
	Foreground(colorWhite)

var errorMsgStyle = lipgloss.NewStyle().
	Foreground(colorRed)

var successMsgStyle = lipgloss.NewStyle().
	Foreground(colorGreen)

var warnMsgStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("220"))

var statusStyle = lipgloss.NewStyle().
	Foreground(colorGray)

var dimStyle = lipgloss.NewStyle().
	Foreground(colorGray)

// ─── Hint bar / command menu ────────────────────────────────────────────────

var hintBarStyle = lipgloss.NewStyle().
	Foreground(colorGray)

var separatorStyle = lipgloss.NewStyle().
	Foreground(colorDimGray)

var cmdNameStyle = lipgloss.NewStyle().
	Foreground(colorWhite)

var cmdDescStyle = lipgloss.NewStyle().
	Foreground(colorGray)

var cmdSelectedNameStyle = lipgloss.NewStyle().
	Foreground(colorTeal).
	Bold(true)

var cmdSelectedDescStyle = lipgloss.NewStyle().
	Foreground(colorWhite)
