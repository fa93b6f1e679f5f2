package tui

import "github.com/charmbracelet/lipgloss"

// Colors adapt to light and dark terminals.

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
	colorMuted      lipgloss.TerminalColor = ac("240", "243")
	colorSelectedBg lipgloss.TerminalColor = ac("#e9e9e9", "#262626")
	colorSelectedFg lipgloss.TerminalColor = ac("235", "255")
	colorAccent     lipgloss.TerminalColor = ac("27", "62")
	colorAccentFg   lipgloss.TerminalColor = ac("255", "235")
	colorInputBg    lipgloss.TerminalColor = ac("254", "234")
	colorError      lipgloss.TerminalColor = ac("160", "203")
	colorOK         lipgloss.TerminalColor = ac("28", "114")
)

func styleMuted() lipgloss.Style { return faintIfDark(lipgloss.NewStyle().Foreground(colorMuted)) }

func styleTitle() lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Padding(0, 1).Foreground(colorAccentFg).Background(colorAccent)
}

func styleError() lipgloss.Style { return lipgloss.NewStyle().Foreground(colorError) }

func styleOK() lipgloss.Style { return lipgloss.NewStyle().Foreground(colorOK) }
