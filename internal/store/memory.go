package store

import (
	"context"
	"sort"
	"sync"

	"groupsync/internal/model"
)

// Memory is an in-process Store. Transactions are applied to a copy and
// swapped in only when every op succeeds.
type Memory struct {
	mu          sync.Mutex
	groups      map[model.GroupID]*memGroup
	unavailable bool
	failNext    error
	applied     int
}

type memGroup struct {
	name  string
	items map[model.ItemID]string
}

func NewMemory(seed ...model.Group) *Memory {
	m := &Memory{groups: map[model.GroupID]*memGroup{}}
	for _, g := range seed {
		mg := &memGroup{name: g.Name, items: map[model.ItemID]string{}}
		for _, it := range g.Items {
			mg.items[it.ID] = it.Name
		}
		m.groups[g.ID] = mg
	}
	return m
}

// SetUnavailable makes every call fail with ErrStoreUnavailable until cleared.
func (m *Memory) SetUnavailable(v bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unavailable = v
}

// FailNextTransaction makes the next ApplyTransaction fail with err without changing state.
func (m *Memory) FailNextTransaction(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext = err
}

// Transactions returns how many transactions have been committed.
func (m *Memory) Transactions() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.applied
}

func (m *Memory) FetchAllGroups(ctx context.Context) ([]model.Group, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.unavailable {
		return nil, unavailable("fetch groups", errOffline)
	}

	out := make([]model.Group, 0, len(m.groups))
	for id, mg := range m.groups {
		g := model.Group{ID: id, Name: mg.name, Items: make([]model.Item, 0, len(mg.items))}
		for iid, name := range mg.items {
			g.Items = append(g.Items, model.Item{ID: iid, Name: name})
		}
		sort.Slice(g.Items, func(i, j int) bool { return model.ItemLess(g.Items[i], g.Items[j]) })
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return model.GroupLess(out[i], out[j]) })
	return out, nil
}

func (m *Memory) ApplyTransaction(ctx context.Context, ops []Op) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.unavailable {
		return &TransactionFailure{Ops: len(ops), Err: unavailable("apply", errOffline)}
	}
	if err := m.failNext; err != nil {
		m.failNext = nil
		return &TransactionFailure{Ops: len(ops), Err: err}
	}

	next := m.cloneLocked()
	for _, op := range ops {
		if err := applyMemOp(next, op); err != nil {
			return &TransactionFailure{Ops: len(ops), Err: err}
		}
	}
	m.groups = next
	m.applied++
	return nil
}

func (m *Memory) Close() error { return nil }

func (m *Memory) cloneLocked() map[model.GroupID]*memGroup {
	out := make(map[model.GroupID]*memGroup, len(m.groups))
	for id, mg := range m.groups {
		items := make(map[model.ItemID]string, len(mg.items))
		for iid, name := range mg.items {
			items[iid] = name
		}
		out[id] = &memGroup{name: mg.name, items: items}
	}
	return out
}

func applyMemOp(groups map[model.GroupID]*memGroup, op Op) error {
	g, ok := groups[op.GroupID]
	switch op.Kind {
	case OpCreateGroup:
		if ok {
			return ConflictError{Op: op, Msg: "group already exists"}
		}
		groups[op.GroupID] = &memGroup{name: op.Name, items: map[model.ItemID]string{}}
	case OpUpdateGroup:
		if !ok {
			return ConflictError{Op: op, Msg: "group not found"}
		}
		g.name = op.Name
	case OpDeleteGroup:
		// Items go with the group.
		delete(groups, op.GroupID)
	case OpCreateItem:
		if !ok {
			return ConflictError{Op: op, Msg: "group not found"}
		}
		if _, exists := g.items[op.ItemID]; exists {
			return ConflictError{Op: op, Msg: "item already exists"}
		}
		g.items[op.ItemID] = op.Name
	case OpUpdateItem:
		if !ok {
			return ConflictError{Op: op, Msg: "group not found"}
		}
		if _, exists := g.items[op.ItemID]; !exists {
			return ConflictError{Op: op, Msg: "item not found"}
		}
		g.items[op.ItemID] = op.Name
	case OpDeleteItem:
		if ok {
			delete(g.items, op.ItemID)
		}
	default:
		return ConflictError{Op: op, Msg: "unknown op kind"}
	}
	return nil
}
