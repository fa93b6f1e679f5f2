// Package reconcile computes and applies the ops that make persisted state match
// an in-memory snapshot.
package reconcile

import (
	"context"
	"fmt"
	"log/slog"

	"groupsync/internal/model"
	"groupsync/internal/store"
)

// Diff returns the ops that turn persisted into desired. Persisted groups are
// visited in the given order, then groups that only exist in desired, in
// desired order. A group's creation always precedes the creation of its items.
//
// Deleting a group implies its items; no item deletes are emitted for it.
func Diff(desired, persisted []model.Group) []store.Op {
	want := make(map[model.GroupID]model.Group, len(desired))
	for _, g := range desired {
		want[g.ID] = g
	}

	var ops []store.Op
	have := make(map[model.GroupID]bool, len(persisted))
	for _, p := range persisted {
		have[p.ID] = true
		s, ok := want[p.ID]
		if !ok {
			ops = append(ops, store.DeleteGroup(p.ID))
			continue
		}
		if s.Name != p.Name {
			ops = append(ops, store.UpdateGroup(s.ID, s.Name))
		}
		ops = append(ops, diffItems(s, p)...)
	}

	for _, s := range desired {
		if have[s.ID] {
			continue
		}
		ops = append(ops, store.CreateGroup(s.ID, s.Name))
		for _, it := range s.Items {
			ops = append(ops, store.CreateItem(s.ID, it.ID, it.Name))
		}
	}
	return ops
}

func diffItems(s, p model.Group) []store.Op {
	want := make(map[model.ItemID]string, len(s.Items))
	for _, it := range s.Items {
		want[it.ID] = it.Name
	}
	var ops []store.Op
	have := make(map[model.ItemID]bool, len(p.Items))
	for _, pi := range p.Items {
		have[pi.ID] = true
		name, ok := want[pi.ID]
		switch {
		case !ok:
			ops = append(ops, store.DeleteItem(s.ID, pi.ID))
		case name != pi.Name:
			ops = append(ops, store.UpdateItem(s.ID, pi.ID, name))
		}
	}
	for _, it := range s.Items {
		if !have[it.ID] {
			ops = append(ops, store.CreateItem(s.ID, it.ID, it.Name))
		}
	}
	return ops
}

// Reconciler applies snapshots to a Store.
type Reconciler struct {
	store  store.Store
	logger *slog.Logger
}

func New(s store.Store, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{store: s, logger: logger}
}

// Reconcile fetches current persisted state, diffs it against snap and applies
// the result as one transaction. It returns the applied ops. An empty diff
// applies nothing.
//
// Persisted state changed by another writer between the fetch and the apply is
// overwritten by snap.
func (r *Reconciler) Reconcile(ctx context.Context, snap model.Snapshot) ([]store.Op, error) {
	persisted, err := r.store.FetchAllGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("reconcile: %w", err)
	}
	ops := Diff(snap.Groups(), persisted)
	if len(ops) == 0 {
		r.logger.Debug("reconcile: nothing to apply", "groups", snap.Len())
		return nil, nil
	}
	if err := r.store.ApplyTransaction(ctx, ops); err != nil {
		r.logger.Warn("reconcile: transaction failed", "ops", len(ops), "err", err)
		return nil, fmt.Errorf("reconcile: %w", err)
	}
	r.logger.Debug("reconcile: committed", "ops", len(ops), "groups", snap.Len())
	return ops, nil
}
