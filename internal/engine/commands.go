package engine

import "groupsync/internal/model"

// Command is one mutation of the group collection. See Engine.Mutate.
type Command interface {
	apply(e *Engine) error
}

// AddGroup appends a group. An empty Name gets the default "G<n+1>".
type AddGroup struct {
	Name string
}

type RenameGroup struct {
	ID   model.GroupID
	Name string
}

type DeleteGroup struct {
	ID model.GroupID
}

// DeleteGroups removes every listed group. Unknown ids are skipped.
type DeleteGroups struct {
	IDs []model.GroupID
}

// AddItem appends an item to a group. An empty Name gets the default "I<n+1>".
type AddItem struct {
	GroupID model.GroupID
	Name    string
}

type RenameItem struct {
	GroupID model.GroupID
	ItemID  model.ItemID
	Name    string
}

type DeleteItem struct {
	GroupID model.GroupID
	ItemID  model.ItemID
}

func (c AddGroup) apply(e *Engine) error {
	_, err := e.addGroup(c.Name)
	return err
}

func (c RenameGroup) apply(e *Engine) error { return e.RenameGroup(c.ID, c.Name) }

func (c DeleteGroup) apply(e *Engine) error { return e.DeleteGroup(c.ID) }

func (c DeleteGroups) apply(e *Engine) error { return e.DeleteGroups(c.IDs...) }

func (c AddItem) apply(e *Engine) error {
	_, err := e.addItem(c.GroupID, c.Name)
	return err
}

func (c RenameItem) apply(e *Engine) error { return e.RenameItem(c.GroupID, c.ItemID, c.Name) }

func (c DeleteItem) apply(e *Engine) error { return e.DeleteItem(c.GroupID, c.ItemID) }
