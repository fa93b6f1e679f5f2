package tui

import (
	"fmt"
	"io"
	"strings"

	"groupsync/internal/model"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"
)

type groupRow struct {
	group    model.Group
	editing  bool
	selected bool
}

func (r groupRow) FilterValue() string { return r.group.Name }

func (r groupRow) Title() string {
	name := displayName(r.group.Name)
	if r.editing {
		mark := "[ ]"
		if r.selected {
			mark = "[x]"
		}
		name = mark + " " + name
	}
	return fmt.Sprintf("%s  %s", name, styleMuted().Render(fmt.Sprintf("(%d)", len(r.group.Items))))
}

type itemRow struct{ item model.Item }

func (r itemRow) FilterValue() string { return r.item.Name }
func (r itemRow) Title() string       { return displayName(r.item.Name) }

func displayName(s string) string {
	if strings.TrimSpace(s) == "" {
		return "(unnamed)"
	}
	return s
}

// rowDelegate renders one line per row, padded or cut to the list width.
type rowDelegate struct {
	normal   lipgloss.Style
	selected lipgloss.Style
}

func newRowDelegate() rowDelegate {
	return rowDelegate{
		normal: lipgloss.NewStyle(),
		selected: lipgloss.NewStyle().
			Foreground(colorSelectedFg).
			Background(colorSelectedBg).
			Bold(true),
	}
}

func (d rowDelegate) Height() int                             { return 1 }
func (d rowDelegate) Spacing() int                            { return 0 }
func (d rowDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d rowDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	width := m.Width()
	if width < 4 {
		return
	}

	style := d.normal
	cursor := "  "
	if index == m.Index() {
		style = d.selected
		cursor = "> "
	}

	txt := fmt.Sprint(item)
	if t, ok := item.(interface{ Title() string }); ok {
		txt = t.Title()
	}

	line := cursor + txt
	if lw := xansi.StringWidth(line); lw < width {
		line += strings.Repeat(" ", width-lw)
	} else if lw > width {
		line = xansi.Cut(line, 0, width)
	}
	fmt.Fprint(w, style.Render(line))
}

func newList(title string) list.Model {
	l := list.New(nil, newRowDelegate(), 0, 0)
	l.Title = title
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()
	l.Styles.Title = styleTitle()
	return l
}
