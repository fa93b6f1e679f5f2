package tui

import (
	"fmt"
	"strings"

	"groupsync/internal/engine"

	"github.com/charmbracelet/bubbles/key"
)

func (m appModel) View() string {
	var b strings.Builder
	detail := m.e.Detail() != nil
	if detail {
		b.WriteString(m.items.View())
	} else {
		b.WriteString(m.groups.View())
	}
	b.WriteString("\n")

	switch {
	case m.prompt != promptNone:
		b.WriteString(m.prompt.label() + ":\n")
		b.WriteString(renderInputLine(m.width, m.input.View()))
	case !detail && m.e.EditState() == engine.ConfirmingDelete:
		n := len(m.e.Selection())
		b.WriteString(styleError().Render(fmt.Sprintf("Delete %s and their items? y/n", pluralGroups(n))))
	default:
		b.WriteString(m.statusLine())
	}
	b.WriteString("\n")
	b.WriteString(m.help.View(m.helpKeys(detail)))
	return b.String()
}

// statusLine shows the last command error, then the save state.
func (m appModel) statusLine() string {
	if m.err != nil {
		return styleError().Render("error: " + m.err.Error())
	}
	if m.saving {
		return styleMuted().Render("saving…")
	}
	if res, ok := m.e.LastFailure(); ok {
		return styleError().Render(fmt.Sprintf("save failed: %v (R to retry)", res.Err))
	}
	if m.e.Pending() {
		return styleMuted().Render(fmt.Sprintf("unsaved changes (saves after %s quiet)", m.e.Window()))
	}
	if m.flash != "" {
		return styleOK().Render(m.flash)
	}
	if res, ok := m.e.LastResult(); ok && len(res.Ops) > 0 {
		return styleOK().Render(fmt.Sprintf("saved %d changes at %s", len(res.Ops), res.At.Format("15:04:05")))
	}
	return styleMuted().Render("all changes saved")
}

func (m appModel) helpKeys(detail bool) helpKeys {
	k := m.keys
	switch {
	case detail:
		return helpKeys{k.Add, k.Rename, k.Title, k.Delete, k.Back, k.Retry, k.Quit}
	case m.e.EditState() == engine.ConfirmingDelete:
		return helpKeys{k.Confirm, k.Cancel}
	case m.e.EditState() == engine.Editing:
		return helpKeys{k.Select, k.Delete, withHelp(k.Edit, "done"), k.Quit}
	default:
		return helpKeys{k.Open, k.Add, k.Rename, k.Delete, k.Edit, k.Retry, k.Reload, k.Quit}
	}
}

func withHelp(b key.Binding, desc string) key.Binding {
	b.SetHelp(b.Help().Key, desc)
	return b
}
