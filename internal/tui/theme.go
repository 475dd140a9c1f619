package tui

import (
	"os"
	"strconv"
	"strings"

	"planline/internal/model"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// The TUI must stay readable on light and dark terminals: semantic colors are
// adaptive and "faint" is only applied on dark backgrounds.

func ac(light, dark string) lipgloss.AdaptiveColor {
	return lipgloss.AdaptiveColor{Light: light, Dark: dark}
}

func faintIfDark(st lipgloss.Style) lipgloss.Style {
	if lipgloss.HasDarkBackground() {
		return st.Faint(true)
	}
	return st
}

var (
	colorMuted       lipgloss.TerminalColor = ac("240", "243")
	colorChromeFg    lipgloss.TerminalColor = ac("240", "245")
	colorSelectedBg  lipgloss.TerminalColor = ac("#e9e9e9", "#262626")
	colorSelectedFg  lipgloss.TerminalColor = ac("235", "255")
	colorBorderFocus lipgloss.TerminalColor = ac("232", "255")
	colorAccent      lipgloss.TerminalColor = ac("27", "62")
	colorAccentFg    lipgloss.TerminalColor = ac("255", "235")
	colorEdge        lipgloss.TerminalColor = ac("244", "246")
	colorEdgeHover   lipgloss.TerminalColor = ac("27", "75")
	colorPreview     lipgloss.TerminalColor = ac("27", "75")
	colorSnapped     lipgloss.TerminalColor = ac("28", "42")
	colorFlashError  lipgloss.TerminalColor = ac("196", "160")
	colorFlashInfo   lipgloss.TerminalColor = ac("28", "42")
	colorBarTrack    lipgloss.TerminalColor = ac("254", "236")
	colorTaskFg      lipgloss.TerminalColor = ac("255", "255")
)

// taskColors maps the palette classes onto terminal colors.
var taskColors = map[model.Color]lipgloss.TerminalColor{
	model.ColorBlue:   ac("#3b82f6", "#3b82f6"),
	model.ColorPurple: ac("#a855f7", "#a855f7"),
	model.ColorRed:    ac("#ef4444", "#ef4444"),
	model.ColorYellow: ac("#ca8a04", "#eab308"),
	model.ColorPink:   ac("#ec4899", "#ec4899"),
	model.ColorIndigo: ac("#6366f1", "#6366f1"),
	model.ColorOrange: ac("#f97316", "#f97316"),
	model.ColorGreen:  ac("#22c55e", "#22c55e"),
}

func taskColor(c model.Color) lipgloss.TerminalColor {
	if tc, ok := taskColors[c]; ok {
		return tc
	}
	return taskColors[model.DefaultColor]
}

// colorLabel is the palette entry without the CSS class noise ("blue").
func colorLabel(c model.Color) string {
	s := strings.TrimPrefix(string(c), "bg-")
	return strings.TrimSuffix(s, "-500")
}

func styleMuted() lipgloss.Style {
	return faintIfDark(lipgloss.NewStyle().Foreground(colorMuted))
}

func styleChrome() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(colorChromeFg)
}

func styleSelected() lipgloss.Style {
	return lipgloss.NewStyle().Background(colorSelectedBg).Foreground(colorSelectedFg).Bold(true)
}

func styleAccent() lipgloss.Style {
	return lipgloss.NewStyle().Background(colorAccent).Foreground(colorAccentFg).Bold(true)
}

func styleTask(c model.Color) lipgloss.Style {
	return lipgloss.NewStyle().Background(taskColor(c)).Foreground(colorTaskFg)
}

// swatch is a two-cell color chip for pickers and legends.
func swatch(c model.Color) string {
	return styleTask(c).Render("  ")
}

// applyColorProfilePreference sets Lip Gloss's color profile. Only NO_COLOR is
// honored: termenv's CLICOLOR handling can turn colors off in an interactive
// session.
func applyColorProfilePreference() {
	if strings.TrimSpace(os.Getenv("NO_COLOR")) != "" {
		lipgloss.SetColorProfile(termenv.Ascii)
		return
	}
	profile := termenv.ColorProfile()

	// Trust TERM/COLORTERM when they claim more than the detector found.
	term := strings.ToLower(strings.TrimSpace(os.Getenv("TERM")))
	colorterm := strings.ToLower(strings.TrimSpace(os.Getenv("COLORTERM")))
	if strings.Contains(colorterm, "truecolor") || strings.Contains(colorterm, "24bit") {
		if profile != termenv.Ascii {
			profile = termenv.TrueColor
		}
	} else if strings.Contains(term, "256color") && (profile == termenv.Ascii || profile == termenv.ANSI) {
		profile = termenv.ANSI256
	}
	lipgloss.SetColorProfile(profile)
}

// applyThemePreference fixes background detection for terminals that don't
// report it. PLANLINE_TUI_THEME=light|dark|auto wins, then COLORFGBG.
func applyThemePreference() {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("PLANLINE_TUI_THEME"))) {
	case "light":
		lipgloss.SetHasDarkBackground(false)
		return
	case "dark":
		lipgloss.SetHasDarkBackground(true)
		return
	}
	// COLORFGBG is "fg;bg" (sometimes more segments); the last one is bg.
	if v := strings.TrimSpace(os.Getenv("COLORFGBG")); v != "" {
		parts := strings.Split(v, ";")
		if bg, err := strconv.Atoi(strings.TrimSpace(parts[len(parts)-1])); err == nil {
			lipgloss.SetHasDarkBackground(bg < 7)
		}
	}
}
