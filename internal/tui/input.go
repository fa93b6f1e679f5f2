package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"
)

type promptKind int

const (
	promptNone promptKind = iota
	promptRenameGroup
	promptRenameItem
)

func (k promptKind) label() string {
	switch k {
	case promptRenameGroup:
		return "Rename group"
	case promptRenameItem:
		return "Rename item"
	default:
		return ""
	}
}

func newInput(value string) textinput.Model {
	ti := textinput.New()
	ti.Prompt = ""
	ti.CharLimit = 200
	ti.SetValue(value)
	ti.CursorEnd()
	ti.Focus()
	return ti
}

// renderInputLine keeps the input on a single line no wider than width.
func renderInputLine(width int, inputView string) string {
	if width < 10 {
		width = 10
	}
	inputView = strings.NewReplacer("\n", " ", "\r", " ").Replace(inputView)

	line := lipgloss.PlaceHorizontal(
		width,
		lipgloss.Left,
		" "+inputView+" ",
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceBackground(colorInputBg),
	)
	if xansi.StringWidth(line) > width {
		line = xansi.Cut(line, 0, width) + "\x1b[0m"
	}
	return line
}
