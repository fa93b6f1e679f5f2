package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"groupsync/internal/clock"
	"groupsync/internal/model"
	"groupsync/internal/store"
)

const window = time.Second

type harness struct {
	e       *Engine
	store   *store.Memory
	clock   *clock.FakeClock
	results []CommitResult
}

func newHarness(t *testing.T, seed ...model.Group) *harness {
	t.Helper()
	h := &harness{
		store: store.NewMemory(seed...),
		clock: clock.Fake(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)),
	}
	e, err := Open(context.Background(), Options{
		Store:  h.store,
		Window: window,
		Clock:  h.clock,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = e.Close() })
	e.OnCommitted(func(r CommitResult) { h.results = append(h.results, r) })
	h.e = e
	return h
}

func (h *harness) fetch(t *testing.T) []model.Group {
	t.Helper()
	gs, err := h.store.FetchAllGroups(context.Background())
	if err != nil {
		t.Fatalf("FetchAllGroups: %v", err)
	}
	return gs
}

func (h *harness) quiet() { h.clock.Advance(window) }

func TestEndToEnd_AddRenameDelete(t *testing.T) {
	g1 := model.Group{ID: model.NewGroupID(), Name: "G1", Items: []model.Item{}}
	h := newHarness(t, g1)

	itemID, err := h.e.AddItem(g1.ID)
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	g, _ := h.e.Group(g1.ID)
	if len(g.Items) != 1 || g.Items[0].Name != "I1" {
		t.Fatalf("items = %+v, want [I1]", g.Items)
	}
	h.quiet()
	got := h.fetch(t)
	if len(got) != 1 || len(got[0].Items) != 1 || got[0].Items[0].ID != itemID || got[0].Items[0].Name != "I1" {
		t.Fatalf("after add: %+v", got)
	}

	if err := h.e.RenameGroup(g1.ID, "Renamed"); err != nil {
		t.Fatalf("RenameGroup: %v", err)
	}
	h.quiet()
	got = h.fetch(t)
	if got[0].Name != "Renamed" || len(got[0].Items) != 1 || got[0].Items[0].Name != "I1" {
		t.Fatalf("after rename: %+v", got)
	}

	if err := h.e.DeleteGroup(g1.ID); err != nil {
		t.Fatalf("DeleteGroup: %v", err)
	}
	h.quiet()
	if got = h.fetch(t); len(got) != 0 {
		t.Fatalf("after delete: %+v", got)
	}
	if len(h.results) != 3 {
		t.Fatalf("commits = %d, want 3", len(h.results))
	}
	for _, r := range h.results {
		if !r.OK() {
			t.Fatalf("commit failed: %v", r.Err)
		}
	}
}

func TestOpen_LoadDoesNotCommit(t *testing.T) {
	h := newHarness(t,
		model.Group{ID: model.NewGroupID(), Name: "b"},
		model.Group{ID: model.NewGroupID(), Name: "a"},
	)
	h.clock.Advance(time.Hour)
	if len(h.results) != 0 || h.store.Transactions() != 0 {
		t.Fatalf("initial load committed: results=%d tx=%d", len(h.results), h.store.Transactions())
	}
	gs := h.e.CurrentGroups().Groups()
	if gs[0].Name != "a" || gs[1].Name != "b" {
		t.Fatalf("initial groups not sorted: %+v", gs)
	}

	// The first real mutation is not swallowed.
	if _, err := h.e.AddGroup(); err != nil {
		t.Fatalf("AddGroup: %v", err)
	}
	h.quiet()
	if h.store.Transactions() != 1 {
		t.Fatalf("Transactions = %d, want 1", h.store.Transactions())
	}
}

func TestDebounce_BurstProducesOneCumulativeCommit(t *testing.T) {
	h := newHarness(t)

	gid, _ := h.e.AddGroup()
	for i := 0; i < 20; i++ {
		if _, err := h.e.AddItem(gid); err != nil {
			t.Fatalf("AddItem: %v", err)
		}
		h.clock.Advance(window / 2)
	}
	if err := h.e.RenameGroup(gid, "Burst"); err != nil {
		t.Fatalf("RenameGroup: %v", err)
	}
	if h.store.Transactions() != 0 {
		t.Fatalf("committed inside the quiet window")
	}
	h.quiet()

	if len(h.results) != 1 || h.store.Transactions() != 1 {
		t.Fatalf("commits = %d, transactions = %d; want 1", len(h.results), h.store.Transactions())
	}
	if n := len(h.results[0].Ops); n != 21 {
		t.Fatalf("ops = %d, want 21 (group + 20 items)", n)
	}
	got := h.fetch(t)
	if len(got) != 1 || got[0].Name != "Burst" || len(got[0].Items) != 20 {
		t.Fatalf("fetch = %+v", got)
	}
}

func TestCommit_ConvergesToSnapshot(t *testing.T) {
	h := newHarness(t)
	for i := 0; i < 3; i++ {
		gid, _ := h.e.AddGroup()
		for j := 0; j < 4; j++ {
			_, _ = h.e.AddItem(gid)
		}
	}
	h.quiet()
	if !model.Equal(h.fetch(t), h.e.CurrentGroups().Groups()) {
		t.Fatalf("store did not converge")
	}
}

func TestCommit_FailureIsSurfacedAndRetried(t *testing.T) {
	h := newHarness(t)
	boom := errors.New("disk full")
	h.store.FailNextTransaction(boom)

	gid, _ := h.e.AddGroup()
	h.quiet()
	if len(h.results) != 1 || h.results[0].OK() || !errors.Is(h.results[0].Err, boom) {
		t.Fatalf("results = %+v, want one failure wrapping boom", h.results)
	}
	var tf *store.TransactionFailure
	if !errors.As(h.results[0].Err, &tf) {
		t.Fatalf("err = %v, want TransactionFailure", h.results[0].Err)
	}
	failed, ok := h.e.LastFailure()
	if !ok {
		t.Fatalf("failed snapshot not retained")
	}
	if _, ok := failed.Snapshot.Group(gid); !ok {
		t.Fatalf("retained snapshot is missing the uncommitted group")
	}
	if len(h.fetch(t)) != 0 {
		t.Fatalf("failed commit left state behind")
	}

	if err := h.e.Retry(context.Background()); err != nil {
		t.Fatalf("Retry: %v", err)
	}
	if _, ok := h.e.LastFailure(); ok {
		t.Fatalf("failure not cleared after successful retry")
	}
	if got := h.fetch(t); len(got) != 1 || got[0].ID != gid {
		t.Fatalf("fetch after retry = %+v", got)
	}
}

func TestCommit_StoreUnavailableThenNextChangeRecovers(t *testing.T) {
	h := newHarness(t)
	h.store.SetUnavailable(true)
	gid, _ := h.e.AddGroup()
	h.quiet()
	if len(h.results) != 1 || !errors.Is(h.results[0].Err, store.ErrStoreUnavailable) {
		t.Fatalf("results = %+v, want ErrStoreUnavailable", h.results)
	}

	h.store.SetUnavailable(false)
	_, _ = h.e.AddItem(gid)
	h.quiet()
	got := h.fetch(t)
	if len(got) != 1 || len(got[0].Items) != 1 {
		t.Fatalf("next fire did not commit the earlier change too: %+v", got)
	}
}

func TestUnknownIDs_AreRejectedWithoutChange(t *testing.T) {
	h := newHarness(t)
	gid, _ := h.e.AddGroup()
	h.quiet()
	before := h.store.Transactions()

	missingGroup := model.NewGroupID()
	cmds := []Command{
		RenameGroup{ID: missingGroup, Name: "x"},
		DeleteGroup{ID: missingGroup},
		AddItem{GroupID: missingGroup},
		RenameItem{GroupID: gid, ItemID: model.NewItemID(), Name: "x"},
		DeleteItem{GroupID: gid, ItemID: model.NewItemID()},
	}
	for _, cmd := range cmds {
		var unk UnknownIDError
		if err := h.e.Mutate(cmd); !errors.As(err, &unk) {
			t.Fatalf("Mutate(%T) err = %v, want UnknownIDError", cmd, err)
		}
	}
	h.clock.Advance(time.Hour)
	if h.store.Transactions() != before {
		t.Fatalf("rejected commands caused a commit")
	}
}

func TestMutate_Commands(t *testing.T) {
	h := newHarness(t)
	if err := h.e.Mutate(AddGroup{Name: "zeta"}); err != nil {
		t.Fatalf("AddGroup: %v", err)
	}
	if err := h.e.Mutate(AddGroup{}); err != nil {
		t.Fatalf("AddGroup: %v", err)
	}
	gs := h.e.CurrentGroups().Groups()
	if len(gs) != 2 || gs[0].Name != "G2" || gs[1].Name != "zeta" {
		t.Fatalf("groups = %+v", gs)
	}
	zeta := gs[1].ID
	if err := h.e.Mutate(AddItem{GroupID: zeta, Name: "b"}); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if err := h.e.Mutate(AddItem{GroupID: zeta, Name: "a"}); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	g, _ := h.e.Group(zeta)
	if g.Items[0].Name != "a" || g.Items[1].Name != "b" {
		t.Fatalf("items not sorted: %+v", g.Items)
	}
	if err := h.e.Mutate(RenameItem{GroupID: zeta, ItemID: g.Items[0].ID, Name: "c"}); err != nil {
		t.Fatalf("RenameItem: %v", err)
	}
	if err := h.e.Mutate(DeleteItem{GroupID: zeta, ItemID: g.Items[1].ID}); err != nil {
		t.Fatalf("DeleteItem: %v", err)
	}
	g, _ = h.e.Group(zeta)
	if len(g.Items) != 1 || g.Items[0].Name != "c" {
		t.Fatalf("items = %+v", g.Items)
	}
	if err := h.e.Mutate(DeleteGroups{IDs: []model.GroupID{zeta, gs[0].ID, model.NewGroupID()}}); err != nil {
		t.Fatalf("DeleteGroups: %v", err)
	}
	if h.e.CurrentGroups().Len() != 0 {
		t.Fatalf("groups remain after DeleteGroups")
	}
}

func TestDeleteGroupsAtOffsets(t *testing.T) {
	h := newHarness(t)
	for _, n := range []string{"a", "b", "c"} {
		_, _ = h.e.AddNamedGroup(n)
	}
	if err := h.e.DeleteGroupsAtOffsets(0, 2); err != nil {
		t.Fatalf("DeleteGroupsAtOffsets: %v", err)
	}
	gs := h.e.CurrentGroups().Groups()
	if len(gs) != 1 || gs[0].Name != "b" {
		t.Fatalf("groups = %+v", gs)
	}
}

func TestFlushAndClose(t *testing.T) {
	h := newHarness(t)
	_, _ = h.e.AddGroup()
	if err := h.e.Flush(context.Background()); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if h.store.Transactions() != 1 {
		t.Fatalf("Flush did not commit")
	}

	_, _ = h.e.AddGroup()
	if err := h.e.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	h.clock.Advance(time.Hour)
	if h.store.Transactions() != 1 {
		t.Fatalf("pending change committed after Close")
	}
	if _, err := h.e.AddGroup(); !errors.Is(err, ErrClosed) {
		t.Fatalf("AddGroup after Close err = %v, want ErrClosed", err)
	}
}

func TestReset_DropsUncommittedAndReloads(t *testing.T) {
	g := model.Group{ID: model.NewGroupID(), Name: "kept"}
	h := newHarness(t, g)
	_, _ = h.e.AddGroup()
	if _, err := h.e.OpenDetail(g.ID); err != nil {
		t.Fatalf("OpenDetail: %v", err)
	}
	if err := h.e.Reset(context.Background()); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	h.clock.Advance(time.Hour)
	if h.store.Transactions() != 0 {
		t.Fatalf("Reset committed")
	}
	if h.e.Detail() != nil {
		t.Fatalf("detail still open after Reset")
	}
	gs := h.e.CurrentGroups().Groups()
	if len(gs) != 1 || gs[0].ID != g.ID {
		t.Fatalf("groups after Reset = %+v", gs)
	}
	if err := h.e.RenameGroup(g.ID, "renamed"); err != nil {
		t.Fatalf("RenameGroup: %v", err)
	}
	h.quiet()
	if h.store.Transactions() != 1 {
		t.Fatalf("first change after Reset was swallowed")
	}
}

func TestGroupOrder_EqualNamesByID(t *testing.T) {
	h := newHarness(t)
	for i := 0; i < 5; i++ {
		_, _ = h.e.AddNamedGroup("same")
	}
	gs := h.e.CurrentGroups().Groups()
	for i := 1; i < len(gs); i++ {
		if gs[i-1].ID.String() >= gs[i].ID.String() {
			t.Fatalf("equal names not ordered by id at %d", i)
		}
	}
}

// stallingStore holds every transaction until release is closed, then fails it.
type stallingStore struct {
	*store.Memory
	entered chan struct{}
	release chan struct{}
	err     error
}

func (s *stallingStore) ApplyTransaction(ctx context.Context, ops []store.Op) error {
	select {
	case s.entered <- struct{}{}:
	default:
	}
	<-s.release
	return &store.TransactionFailure{Ops: len(ops), Err: s.err}
}

func TestFlush_SurfacesFailureOfInFlightPass(t *testing.T) {
	st := &stallingStore{
		Memory:  store.NewMemory(),
		entered: make(chan struct{}, 1),
		release: make(chan struct{}),
		err:     errors.New("disk full"),
	}
	e, err := Open(context.Background(), Options{
		Store:  st,
		Window: 10 * time.Millisecond,
		Clock:  clock.Real(),
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = e.Close() })

	if _, err := e.AddGroup(); err != nil {
		t.Fatalf("AddGroup: %v", err)
	}
	select {
	case <-st.entered:
	case <-time.After(5 * time.Second):
		t.Fatalf("timer-driven commit never reached the store")
	}

	flushed := make(chan error, 1)
	go func() { flushed <- e.Flush(context.Background()) }()
	close(st.release)

	err = <-flushed
	var tf *store.TransactionFailure
	if !errors.As(err, &tf) || !errors.Is(err, st.err) {
		t.Fatalf("Flush err = %v, want the in-flight TransactionFailure", err)
	}
}

func TestFlush_ReturnsRetainedFailureUntilRetried(t *testing.T) {
	h := newHarness(t)
	boom := errors.New("disk full")
	h.store.FailNextTransaction(boom)

	_, _ = h.e.AddGroup()
	h.quiet()
	if err := h.e.Flush(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("Flush err = %v, want retained failure", err)
	}
	if err := h.e.Retry(context.Background()); err != nil {
		t.Fatalf("Retry: %v", err)
	}
	if err := h.e.Flush(context.Background()); err != nil {
		t.Fatalf("Flush after retry: %v", err)
	}
}

func TestLoad_IgnoresMutationBetweenDebouncerResetAndReload(t *testing.T) {
	g := model.Group{ID: model.NewGroupID(), Name: "kept", Items: []model.Item{}}
	h := newHarness(t, g)

	// Same interleaving as Reset: debouncer reset, then a mutation before the
	// reload takes the lock.
	h.e.debouncer.Reset()
	if _, err := h.e.AddGroup(); err != nil {
		t.Fatalf("AddGroup: %v", err)
	}
	persisted := h.fetch(t)
	h.e.mu.Lock()
	h.e.load(persisted)
	h.e.mu.Unlock()

	if h.e.Pending() {
		t.Fatalf("reload left a commit pending")
	}
	h.clock.Advance(time.Hour)
	if len(h.results) != 0 {
		t.Fatalf("reload triggered %d commits, want 0", len(h.results))
	}
	if gs := h.e.CurrentGroups().Groups(); len(gs) != 1 || gs[0].ID != g.ID {
		t.Fatalf("groups after reload = %+v", gs)
	}
}

func TestNames_AreTrimmed(t *testing.T) {
	h := newHarness(t)

	id, _ := h.e.AddNamedGroup("  Alpha  ")
	blank, _ := h.e.AddNamedGroup("   ")
	if g, _ := h.e.Group(id); g.Name != "Alpha" {
		t.Fatalf("name = %q, want Alpha", g.Name)
	}
	if g, _ := h.e.Group(blank); g.Name != "G2" {
		t.Fatalf("blank name = %q, want default G2", g.Name)
	}

	if err := h.e.RenameGroup(id, " Beta "); err != nil {
		t.Fatalf("RenameGroup: %v", err)
	}
	itemID, _ := h.e.AddNamedItem(id, "\tMilk\n")

	d, err := h.e.OpenDetail(id)
	if err != nil {
		t.Fatalf("OpenDetail: %v", err)
	}
	blankItem, _ := d.AddItem("  ")
	if err := d.RenameItem(itemID, "  Bread "); err != nil {
		t.Fatalf("RenameItem: %v", err)
	}

	g, _ := h.e.Group(id)
	if g.Name != "Beta" {
		t.Fatalf("group name = %q, want Beta", g.Name)
	}
	names := map[model.ItemID]string{}
	for _, it := range g.Items {
		names[it.ID] = it.Name
	}
	if names[itemID] != "Bread" || names[blankItem] != "I2" {
		t.Fatalf("items = %v", names)
	}
}
