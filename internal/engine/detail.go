package engine

import (
	"sync"

	"groupsync/internal/collection"
	"groupsync/internal/model"
)

// Detail is a focused, editable copy of one group. It owns its copy: edits
// are published to subscribers as whole-group values and never written
// through to the parent collection directly.
type Detail struct {
	id model.GroupID

	mu    sync.Mutex
	name  string
	items *collection.Collection[model.ItemID, model.Item]
	subs  map[int]func(model.Group)
	next  int
}

func newDetail(g model.Group) *Detail {
	items := collection.New[model.ItemID, model.Item](g.Items...)
	items.Sort(model.ItemLess)
	return &Detail{
		id:    g.ID,
		name:  g.Name,
		items: items,
		subs:  map[int]func(model.Group){},
	}
}

func (d *Detail) GroupID() model.GroupID { return d.id }

// Group returns the current copy.
func (d *Detail) Group() model.Group {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.groupLocked()
}

func (d *Detail) groupLocked() model.Group {
	return model.Group{ID: d.id, Name: d.name, Items: d.items.Values()}
}

// Subscribe registers fn to receive every updated copy.
func (d *Detail) Subscribe(fn func(model.Group)) (cancel func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	key := d.next
	d.next++
	d.subs[key] = fn
	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		delete(d.subs, key)
	}
}

// change runs mutate under the lock and, if it reports a change, publishes the
// new copy after unlocking.
func (d *Detail) change(mutate func() (bool, error)) error {
	d.mu.Lock()
	changed, err := mutate()
	if err != nil || !changed {
		d.mu.Unlock()
		return err
	}
	g := d.groupLocked()
	subs := make([]func(model.Group), 0, len(d.subs))
	for _, fn := range d.subs {
		subs = append(subs, fn)
	}
	d.mu.Unlock()

	for _, fn := range subs {
		fn(g.Clone())
	}
	return nil
}

func (d *Detail) Rename(name string) error {
	name = model.NormalizeName(name)
	return d.change(func() (bool, error) {
		if d.name == name {
			return false, nil
		}
		d.name = name
		return true, nil
	})
}

// AddItem appends an item with a fresh id. An empty name gets the default "I<n+1>".
func (d *Detail) AddItem(name string) (model.ItemID, error) {
	id := model.NewItemID()
	err := d.change(func() (bool, error) {
		if name = model.NormalizeName(name); name == "" {
			name = model.DefaultItemName(d.items.Len())
		}
		d.items.Insert(model.Item{ID: id, Name: name})
		d.items.Sort(model.ItemLess)
		return true, nil
	})
	return id, err
}

func (d *Detail) RenameItem(id model.ItemID, name string) error {
	name = model.NormalizeName(name)
	return d.change(func() (bool, error) {
		it, ok := d.items.Lookup(id)
		if !ok {
			return false, UnknownIDError{Kind: "item", ID: id.String()}
		}
		if it.Name == name {
			return false, nil
		}
		it.Name = name
		d.items.Replace(it)
		d.items.Sort(model.ItemLess)
		return true, nil
	})
}

func (d *Detail) DeleteItem(id model.ItemID) error {
	return d.change(func() (bool, error) {
		if _, ok := d.items.RemoveByID(id); !ok {
			return false, UnknownIDError{Kind: "item", ID: id.String()}
		}
		return true, nil
	})
}

// DeleteItemsAtOffsets removes items by their display position.
func (d *Detail) DeleteItemsAtOffsets(offsets []int) error {
	return d.change(func() (bool, error) {
		return len(d.items.RemoveAtOffsets(offsets)) > 0, nil
	})
}
