// Package engine keeps an in-memory group collection in sync with a Store.
//
// Commands mutate the collection immediately. Each mutation re-arms a debounce
// window; when it elapses the engine snapshots the collection and reconciles
// the snapshot against freshly fetched persisted state in one transaction.
package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"groupsync/internal/clock"
	"groupsync/internal/collection"
	"groupsync/internal/debounce"
	"groupsync/internal/model"
	"groupsync/internal/reconcile"
	"groupsync/internal/store"
)

// CommitResult describes one reconciliation pass. Err is non-nil when the pass
// failed; Snapshot is then the state that could not be committed.
type CommitResult struct {
	Snapshot model.Snapshot
	Ops      []store.Op
	Err      error
	At       time.Time
}

func (r CommitResult) OK() bool { return r.Err == nil }

type Options struct {
	Store  store.Store
	Window time.Duration
	Clock  clock.Clock
	Logger *slog.Logger
}

type Engine struct {
	store      store.Store
	reconciler *reconcile.Reconciler
	debouncer  *debounce.Debouncer
	clock      clock.Clock
	logger     *slog.Logger

	mu           sync.Mutex
	groups       *collection.Collection[model.GroupID, model.Group]
	detail       *Detail
	detailCancel func()
	sel          selection
	closed       bool

	resultMu  sync.Mutex
	observers map[int]func(CommitResult)
	nextObs   int
	last      *CommitResult
	failed    *CommitResult
}

// Open loads persisted groups and starts tracking changes. Loading never
// triggers a commit.
func Open(ctx context.Context, opts Options) (*Engine, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("engine: nil store")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	c := opts.Clock
	if c == nil {
		c = clock.Real()
	}

	persisted, err := opts.Store.FetchAllGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("engine: load: %w", err)
	}

	e := &Engine{
		store:      opts.Store,
		reconciler: reconcile.New(opts.Store, logger),
		clock:      c,
		logger:     logger,
		observers:  map[int]func(CommitResult){},
	}
	e.debouncer = debounce.New(debounce.Opts{Window: opts.Window, Clock: c, SkipFirst: true}, e.commit)
	e.load(persisted)
	return e, nil
}

// load replaces the collection. The debouncer is rewound first so the initial
// emission is always the one SkipFirst swallows, even if a stray mutation
// notified after an earlier Reset.
func (e *Engine) load(groups []model.Group) {
	e.debouncer.Rewind()
	for i := range groups {
		g := &groups[i]
		items := collection.New[model.ItemID, model.Item](g.Items...)
		items.Sort(model.ItemLess)
		g.Items = items.Values()
	}
	e.groups = collection.New[model.GroupID, model.Group](groups...)
	e.groups.Sort(model.GroupLess)
	e.groups.OnChange(e.debouncer.Notify)
	e.debouncer.Notify()
}

func (e *Engine) Window() time.Duration { return e.debouncer.Window() }

// CurrentGroups returns a read-only snapshot of the collection in display order.
func (e *Engine) CurrentGroups() model.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return model.NewSnapshot(e.groups.Values())
}

func (e *Engine) Group(id model.GroupID) (model.Group, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	g, ok := e.groups.Lookup(id)
	return g.Clone(), ok
}

// Mutate applies cmd to the collection. It never waits for a commit.
func (e *Engine) Mutate(cmd Command) error {
	return cmd.apply(e)
}

func (e *Engine) AddGroup() (model.GroupID, error) { return e.addGroup("") }

func (e *Engine) AddNamedGroup(name string) (model.GroupID, error) { return e.addGroup(name) }

func (e *Engine) addGroup(name string) (model.GroupID, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return model.GroupID{}, ErrClosed
	}
	if name = model.NormalizeName(name); name == "" {
		name = model.DefaultGroupName(e.groups.Len())
	}
	g := model.Group{ID: model.NewGroupID(), Name: name, Items: []model.Item{}}
	e.groups.Insert(g)
	e.groups.Sort(model.GroupLess)
	e.logger.Debug("group added", "group", g.ID, "name", name)
	return g.ID, nil
}

func (e *Engine) RenameGroup(id model.GroupID, name string) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	if d := e.detailFor(id); d != nil {
		e.mu.Unlock()
		return d.Rename(name)
	}
	defer e.mu.Unlock()
	g, ok := e.groups.Lookup(id)
	if !ok {
		return e.unknown("group", id.String())
	}
	name = model.NormalizeName(name)
	if g.Name == name {
		return nil
	}
	g.Name = name
	e.groups.Replace(g)
	e.groups.Sort(model.GroupLess)
	return nil
}

func (e *Engine) DeleteGroup(id model.GroupID) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	if _, ok := e.groups.RemoveByID(id); !ok {
		return e.unknown("group", id.String())
	}
	e.afterGroupsRemovedLocked(id)
	return nil
}

// DeleteGroups removes the listed groups and their items. Unknown ids are ignored.
func (e *Engine) DeleteGroups(ids ...model.GroupID) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	e.deleteGroupsLocked(ids)
	return nil
}

// DeleteGroupsAtOffsets removes groups by display position.
func (e *Engine) DeleteGroupsAtOffsets(offsets ...int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	removed := e.groups.RemoveAtOffsets(offsets)
	ids := make([]model.GroupID, len(removed))
	for i, g := range removed {
		ids[i] = g.ID
	}
	e.afterGroupsRemovedLocked(ids...)
	return nil
}

func (e *Engine) deleteGroupsLocked(ids []model.GroupID) {
	removed := e.groups.RemoveIDs(ids)
	gone := make([]model.GroupID, len(removed))
	for i, g := range removed {
		gone[i] = g.ID
	}
	e.afterGroupsRemovedLocked(gone...)
}

func (e *Engine) afterGroupsRemovedLocked(ids ...model.GroupID) {
	e.sel.forget(ids...)
	if e.detail == nil {
		return
	}
	for _, id := range ids {
		if id == e.detail.GroupID() {
			e.closeDetailLocked()
			return
		}
	}
}

func (e *Engine) AddItem(groupID model.GroupID) (model.ItemID, error) {
	return e.addItem(groupID, "")
}

func (e *Engine) AddNamedItem(groupID model.GroupID, name string) (model.ItemID, error) {
	return e.addItem(groupID, name)
}

func (e *Engine) addItem(groupID model.GroupID, name string) (model.ItemID, error) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return model.ItemID{}, ErrClosed
	}
	if d := e.detailFor(groupID); d != nil {
		e.mu.Unlock()
		return d.AddItem(name)
	}
	defer e.mu.Unlock()
	var id model.ItemID
	err := e.updateGroupLocked(groupID, func(items *collection.Collection[model.ItemID, model.Item]) error {
		if name = model.NormalizeName(name); name == "" {
			name = model.DefaultItemName(items.Len())
		}
		id = model.NewItemID()
		items.Insert(model.Item{ID: id, Name: name})
		return nil
	})
	return id, err
}

func (e *Engine) RenameItem(groupID model.GroupID, itemID model.ItemID, name string) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	if d := e.detailFor(groupID); d != nil {
		e.mu.Unlock()
		return d.RenameItem(itemID, name)
	}
	defer e.mu.Unlock()
	return e.updateGroupLocked(groupID, func(items *collection.Collection[model.ItemID, model.Item]) error {
		it, ok := items.Lookup(itemID)
		if !ok {
			return e.unknown("item", itemID.String())
		}
		it.Name = model.NormalizeName(name)
		items.Replace(it)
		return nil
	})
}

func (e *Engine) DeleteItem(groupID model.GroupID, itemID model.ItemID) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	if d := e.detailFor(groupID); d != nil {
		e.mu.Unlock()
		return d.DeleteItem(itemID)
	}
	defer e.mu.Unlock()
	return e.updateGroupLocked(groupID, func(items *collection.Collection[model.ItemID, model.Item]) error {
		if _, ok := items.RemoveByID(itemID); !ok {
			return e.unknown("item", itemID.String())
		}
		return nil
	})
}

// updateGroupLocked edits a copy of a group's items and writes the group back,
// so the parent only ever sees whole-group replacements.
func (e *Engine) updateGroupLocked(id model.GroupID, edit func(*collection.Collection[model.ItemID, model.Item]) error) error {
	g, ok := e.groups.Lookup(id)
	if !ok {
		return e.unknown("group", id.String())
	}
	items := collection.New[model.ItemID, model.Item](g.Items...)
	if err := edit(items); err != nil {
		return err
	}
	items.Sort(model.ItemLess)
	g.Items = items.Values()
	e.groups.Replace(g)
	return nil
}

func (e *Engine) unknown(kind, id string) error {
	e.logger.Warn("unknown id in command", "kind", kind, "id", id)
	return UnknownIDError{Kind: kind, ID: id}
}

// OnCommitted registers fn to receive every reconciliation result, successful
// or not. fn runs on the commit goroutine and must not call Flush, Retry,
// Reset or Close.
func (e *Engine) OnCommitted(fn func(CommitResult)) (cancel func()) {
	e.resultMu.Lock()
	defer e.resultMu.Unlock()
	key := e.nextObs
	e.nextObs++
	e.observers[key] = fn
	return func() {
		e.resultMu.Lock()
		defer e.resultMu.Unlock()
		delete(e.observers, key)
	}
}

// LastResult returns the most recent reconciliation result.
func (e *Engine) LastResult() (CommitResult, bool) {
	e.resultMu.Lock()
	defer e.resultMu.Unlock()
	if e.last == nil {
		return CommitResult{}, false
	}
	return *e.last, true
}

// LastFailure returns the retained failed pass, cleared by the next successful one.
func (e *Engine) LastFailure() (CommitResult, bool) {
	e.resultMu.Lock()
	defer e.resultMu.Unlock()
	if e.failed == nil {
		return CommitResult{}, false
	}
	return *e.failed, true
}

// Pending reports whether uncommitted changes are waiting for the quiet window.
func (e *Engine) Pending() bool { return e.debouncer.Pending() }

func (e *Engine) commit(ctx context.Context) {
	snap := e.CurrentGroups()
	ops, err := e.reconciler.Reconcile(ctx, snap)
	res := CommitResult{Snapshot: snap, Ops: ops, Err: err, At: e.clock.Now()}

	e.resultMu.Lock()
	e.last = &res
	if err != nil {
		e.failed = &res
	} else {
		e.failed = nil
	}
	obs := make([]func(CommitResult), 0, len(e.observers))
	for _, fn := range e.observers {
		obs = append(obs, fn)
	}
	e.resultMu.Unlock()

	if err != nil {
		e.logger.Error("commit failed; will retry on next change", "err", err)
	} else if len(ops) > 0 {
		e.logger.Info("committed", "ops", len(ops), "groups", snap.Len())
	}
	for _, fn := range obs {
		fn(res)
	}
}

// Flush commits pending changes now instead of waiting for the quiet window,
// after any pass already in flight. It returns nil only when the current state
// is saved: a failed pass, whether run here, waited on or retained from
// earlier, is returned.
func (e *Engine) Flush(ctx context.Context) error {
	e.debouncer.Flush(ctx)
	if res, ok := e.LastFailure(); ok {
		return res.Err
	}
	return nil
}

// Retry reconciles current in-memory state against current persisted state,
// whether or not anything changed since the last pass.
func (e *Engine) Retry(ctx context.Context) error {
	e.debouncer.Trigger()
	return e.Flush(ctx)
}

// Reset drops uncommitted changes, closes detail, clears selection and reloads
// persisted state, e.g. after the user signs out and back in.
func (e *Engine) Reset(ctx context.Context) error {
	e.debouncer.Reset()
	persisted, err := e.store.FetchAllGroups(ctx)
	if err != nil {
		return fmt.Errorf("engine: reset: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	e.closeDetailLocked()
	e.sel = selection{}
	e.load(persisted)

	e.resultMu.Lock()
	e.failed = nil
	e.resultMu.Unlock()
	return nil
}

// Close cancels the pending window and waits for an in-flight commit.
// Uncommitted changes are dropped; call Flush first to keep them.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.closeDetailLocked()
	e.mu.Unlock()

	e.debouncer.Stop()
	return nil
}
