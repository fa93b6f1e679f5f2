package tui

import (
	"context"
	"fmt"
	"slices"

	"groupsync/internal/engine"
	"groupsync/internal/model"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type committedMsg struct{ res engine.CommitResult }

type retryDoneMsg struct{ err error }

type reloadDoneMsg struct{ err error }

type appModel struct {
	ctx  context.Context
	e    *engine.Engine
	keys keyMap
	help help.Model

	groups list.Model
	items  list.Model

	prompt     promptKind
	input      textinput.Model
	renameItem model.ItemID

	saving bool
	flash  string
	err    error

	width  int
	height int
}

func newModel(ctx context.Context, e *engine.Engine) appModel {
	m := appModel{
		ctx:    ctx,
		e:      e,
		keys:   newKeyMap(),
		help:   help.New(),
		groups: newList("Groups"),
		items:  newList(""),
	}
	m.refresh()
	return m
}

func (m appModel) Init() tea.Cmd { return nil }

// refresh rebuilds both lists from the engine, keeping the cursor in range.
func (m *appModel) refresh() {
	sel := m.e.Selection()
	editing := m.e.EditState() != engine.Browsing
	groups := m.e.CurrentGroups().Groups()
	rows := make([]list.Item, 0, len(groups))
	for _, g := range groups {
		rows = append(rows, groupRow{group: g, editing: editing, selected: slices.Contains(sel, g.ID)})
	}
	setRows(&m.groups, rows)

	d := m.e.Detail()
	if d == nil {
		setRows(&m.items, nil)
		return
	}
	g := d.Group()
	m.items.Title = displayName(g.Name)
	itemRows := make([]list.Item, 0, len(g.Items))
	for _, it := range g.Items {
		itemRows = append(itemRows, itemRow{item: it})
	}
	setRows(&m.items, itemRows)
}

func setRows(l *list.Model, rows []list.Item) {
	idx := l.Index()
	l.SetItems(rows)
	if idx >= len(rows) {
		idx = len(rows) - 1
	}
	if idx >= 0 {
		l.Select(idx)
	}
}

func (m *appModel) highlightedGroup() (model.Group, bool) {
	r, ok := m.groups.SelectedItem().(groupRow)
	return r.group, ok
}

func (m *appModel) highlightedItem() (model.Item, bool) {
	r, ok := m.items.SelectedItem().(itemRow)
	return r.item, ok
}

func (m *appModel) focusGroup(id model.GroupID) {
	for i, it := range m.groups.Items() {
		if r, ok := it.(groupRow); ok && r.group.ID == id {
			m.groups.Select(i)
			return
		}
	}
}

func (m *appModel) focusItem(id model.ItemID) {
	for i, it := range m.items.Items() {
		if r, ok := it.(itemRow); ok && r.item.ID == id {
			m.items.Select(i)
			return
		}
	}
}

func (m *appModel) setErr(err error) {
	m.err = err
	if err != nil {
		m.flash = ""
	}
}

func (m *appModel) resize(w, h int) {
	m.width, m.height = w, h
	m.help.Width = w
	listH := h - 4
	if listH < 1 {
		listH = 1
	}
	m.groups.SetSize(w, listH)
	m.items.SetSize(w, listH)
}

func (m appModel) retryCmd() tea.Cmd {
	ctx, e := m.ctx, m.e
	return func() tea.Msg { return retryDoneMsg{err: e.Retry(ctx)} }
}

func (m appModel) reloadCmd() tea.Cmd {
	ctx, e := m.ctx, m.e
	return func() tea.Msg { return reloadDoneMsg{err: e.Reset(ctx)} }
}

func pluralGroups(n int) string {
	if n == 1 {
		return "1 group"
	}
	return fmt.Sprintf("%d groups", n)
}
