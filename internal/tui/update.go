package tui

import (
	"errors"
	"strings"

	"groupsync/internal/engine"
	"groupsync/internal/model"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

var errNothingSelected = errors.New("select groups with space first")

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil
	case committedMsg:
		m.refresh()
		return m, nil
	case retryDoneMsg:
		m.saving = false
		m.setErr(msg.err)
		if msg.err == nil {
			m.flash = "saved"
		}
		m.refresh()
		return m, nil
	case reloadDoneMsg:
		m.setErr(msg.err)
		if msg.err == nil {
			m.flash = "reloaded from disk"
		}
		m.refresh()
		return m, nil
	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) && (m.prompt == promptNone || msg.String() == "ctrl+c") {
			return m, tea.Quit
		}
		m.flash, m.err = "", nil
		var cmd tea.Cmd
		switch {
		case m.prompt != promptNone:
			cmd = m.updatePrompt(msg)
		case m.e.Detail() != nil:
			cmd = m.updateDetail(msg)
		default:
			cmd = m.updateGroups(msg)
		}
		m.refresh()
		return m, cmd
	}
	return m, nil
}

// updateCommon handles keys shared by both screens. It reports whether msg was
// consumed.
func (m *appModel) updateCommon(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch {
	case key.Matches(msg, m.keys.Retry):
		if m.saving {
			return nil, true
		}
		m.saving = true
		return m.retryCmd(), true
	case key.Matches(msg, m.keys.Reload):
		return m.reloadCmd(), true
	}
	return nil, false
}

func (m *appModel) updateGroups(msg tea.KeyMsg) tea.Cmd {
	if m.e.EditState() == engine.ConfirmingDelete {
		switch {
		case key.Matches(msg, m.keys.Confirm):
			m.setErr(m.e.ConfirmDelete())
		case key.Matches(msg, m.keys.Cancel):
			m.e.CancelDelete()
		}
		return nil
	}
	if cmd, ok := m.updateCommon(msg); ok {
		return cmd
	}

	editing := m.e.EditState() == engine.Editing
	g, hasGroup := m.highlightedGroup()

	switch {
	case key.Matches(msg, m.keys.Add):
		id, err := m.e.AddGroup()
		m.setErr(err)
		if err == nil {
			m.refresh()
			m.focusGroup(id)
		}
	case key.Matches(msg, m.keys.Rename):
		if hasGroup {
			m.openPrompt(promptRenameGroup, g.Name)
		}
	case key.Matches(msg, m.keys.Edit):
		m.e.ToggleEditMode()
	case key.Matches(msg, m.keys.Open) && !editing:
		if hasGroup {
			m.setErr(m.e.SetSelection(g.ID))
			m.items.Select(0)
		}
	case key.Matches(msg, m.keys.Select) && editing:
		if hasGroup {
			m.setErr(m.e.SetSelection(toggleID(m.e.Selection(), g.ID)...))
		}
	case key.Matches(msg, m.keys.Delete):
		switch {
		case editing:
			if !m.e.RequestDelete() {
				m.setErr(errNothingSelected)
			}
		case hasGroup:
			m.setErr(m.e.DeleteGroup(g.ID))
		}
	case key.Matches(msg, m.keys.Back) && editing:
		m.e.ToggleEditMode()
	default:
		var cmd tea.Cmd
		m.groups, cmd = m.groups.Update(msg)
		return cmd
	}
	return nil
}

func (m *appModel) updateDetail(msg tea.KeyMsg) tea.Cmd {
	if cmd, ok := m.updateCommon(msg); ok {
		return cmd
	}
	d := m.e.Detail()
	it, hasItem := m.highlightedItem()

	switch {
	case key.Matches(msg, m.keys.Back):
		m.setErr(m.e.SetSelection())
		m.focusGroup(d.GroupID())
	case key.Matches(msg, m.keys.Add):
		id, err := d.AddItem("")
		m.setErr(err)
		if err == nil {
			m.refresh()
			m.focusItem(id)
		}
	case key.Matches(msg, m.keys.Rename):
		if hasItem {
			m.renameItem = it.ID
			m.openPrompt(promptRenameItem, it.Name)
		}
	case key.Matches(msg, m.keys.Title):
		m.openPrompt(promptRenameGroup, d.Group().Name)
	case key.Matches(msg, m.keys.Delete):
		if hasItem {
			m.setErr(d.DeleteItem(it.ID))
		}
	default:
		var cmd tea.Cmd
		m.items, cmd = m.items.Update(msg)
		return cmd
	}
	return nil
}

func (m *appModel) openPrompt(kind promptKind, value string) {
	m.prompt = kind
	m.input = newInput(value)
}

func (m *appModel) updatePrompt(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		m.prompt = promptNone
		return nil
	case "enter":
		name := strings.TrimSpace(m.input.Value())
		kind := m.prompt
		m.prompt = promptNone
		m.setErr(m.applyRename(kind, name))
		return nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return cmd
}

// applyRename routes through the open detail when there is one so the copy
// and the collection stay consistent.
func (m *appModel) applyRename(kind promptKind, name string) error {
	d := m.e.Detail()
	switch kind {
	case promptRenameItem:
		if d == nil {
			return nil
		}
		return d.RenameItem(m.renameItem, name)
	case promptRenameGroup:
		if d != nil {
			return d.Rename(name)
		}
		g, ok := m.highlightedGroup()
		if !ok {
			return nil
		}
		if err := m.e.RenameGroup(g.ID, name); err != nil {
			return err
		}
		m.refresh()
		m.focusGroup(g.ID)
	}
	return nil
}

func toggleID(ids []model.GroupID, id model.GroupID) []model.GroupID {
	out := make([]model.GroupID, 0, len(ids)+1)
	found := false
	for _, x := range ids {
		if x == id {
			found = true
			continue
		}
		out = append(out, x)
	}
	if !found {
		out = append(out, id)
	}
	return out
}
