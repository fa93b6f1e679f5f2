package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up      key.Binding
	Down    key.Binding
	Open    key.Binding
	Back    key.Binding
	Add     key.Binding
	Rename  key.Binding
	Title   key.Binding
	Delete  key.Binding
	Edit    key.Binding
	Select  key.Binding
	Confirm key.Binding
	Cancel  key.Binding
	Retry   key.Binding
	Reload  key.Binding
	Quit    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Open:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
		Back:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		Add:     key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
		Rename:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "rename")),
		Title:   key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "rename group")),
		Delete:  key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		Edit:    key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit mode")),
		Select:  key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "select")),
		Confirm: key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "confirm")),
		Cancel:  key.NewBinding(key.WithKeys("n", "esc"), key.WithHelp("n/esc", "cancel")),
		Retry:   key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "retry save")),
		Reload:  key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "discard & reload")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// helpKeys implements help.KeyMap for the current screen.
type helpKeys []key.Binding

func (h helpKeys) ShortHelp() []key.Binding  { return h }
func (h helpKeys) FullHelp() [][]key.Binding { return [][]key.Binding{h} }
