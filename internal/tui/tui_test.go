package tui

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"groupsync/internal/clock"
	"groupsync/internal/engine"
	"groupsync/internal/model"
	"groupsync/internal/store"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
)

const window = time.Second

type fixture struct {
	m     appModel
	e     *engine.Engine
	store *store.Memory
	clock *clock.FakeClock
}

func newFixture(t *testing.T, seed ...model.Group) *fixture {
	t.Helper()
	lipgloss.SetColorProfile(termenv.Ascii)

	f := &fixture{
		store: store.NewMemory(seed...),
		clock: clock.Fake(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)),
	}
	e, err := engine.Open(context.Background(), engine.Options{
		Store:  f.store,
		Window: window,
		Clock:  f.clock,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = e.Close() })
	f.e = e
	f.m = newModel(context.Background(), e)
	f.send(tea.WindowSizeMsg{Width: 80, Height: 24})
	return f
}

func (f *fixture) send(msg tea.Msg) tea.Cmd {
	next, cmd := f.m.Update(msg)
	f.m = next.(appModel)
	return cmd
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "space":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "ctrl+u":
		return tea.KeyMsg{Type: tea.KeyCtrlU}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func (f *fixture) press(keys ...string) tea.Cmd {
	var cmd tea.Cmd
	for _, k := range keys {
		cmd = f.send(keyMsg(k))
	}
	return cmd
}

func (f *fixture) view() string { return xansi.Strip(f.m.View()) }

func (f *fixture) names() []string {
	var out []string
	for _, g := range f.e.CurrentGroups().Groups() {
		out = append(out, g.Name)
	}
	return out
}

func seedGroups(names ...string) []model.Group {
	out := make([]model.Group, 0, len(names))
	for _, n := range names {
		out = append(out, model.Group{ID: model.NewGroupID(), Name: n, Items: []model.Item{}})
	}
	return out
}

func TestAddGroupAndItem_SavedAfterQuietWindow(t *testing.T) {
	f := newFixture(t)

	f.press("a")
	if got := f.names(); len(got) != 1 || got[0] != "G1" {
		t.Fatalf("groups = %v, want [G1]", got)
	}
	if v := f.view(); !strings.Contains(v, "G1") || !strings.Contains(v, "unsaved changes (saves after "+window.String()+" quiet)") {
		t.Fatalf("view:\n%s", v)
	}

	f.press("enter")
	if f.e.Detail() == nil {
		t.Fatalf("expected detail to open")
	}
	f.press("a")
	if v := f.view(); !strings.Contains(v, "I1") {
		t.Fatalf("detail view missing I1:\n%s", v)
	}

	f.clock.Advance(window)
	persisted, err := f.store.FetchAllGroups(context.Background())
	if err != nil {
		t.Fatalf("FetchAllGroups: %v", err)
	}
	if len(persisted) != 1 || len(persisted[0].Items) != 1 || persisted[0].Items[0].Name != "I1" {
		t.Fatalf("persisted = %+v", persisted)
	}
	if v := f.view(); !strings.Contains(v, "saved 2 changes") {
		t.Fatalf("status after save:\n%s", v)
	}

	f.press("esc")
	if f.e.Detail() != nil {
		t.Fatalf("expected detail to close")
	}
	if v := f.view(); !strings.Contains(v, "G1  (1)") {
		t.Fatalf("group row should show item count:\n%s", v)
	}
}

func TestRenamePrompt(t *testing.T) {
	f := newFixture(t, seedGroups("G1")...)

	f.press("r")
	if !strings.Contains(f.view(), "Rename group:") {
		t.Fatalf("expected prompt:\n%s", f.view())
	}
	f.press("ctrl+u", "Work", "enter")
	if got := f.names(); got[0] != "Work" {
		t.Fatalf("groups = %v, want [Work]", got)
	}

	f.press("enter", "a", "r", "ctrl+u", "Milk", "enter")
	g := f.e.CurrentGroups().Groups()[0]
	if len(g.Items) != 1 || g.Items[0].Name != "Milk" {
		t.Fatalf("items = %+v", g.Items)
	}

	f.press("t", "ctrl+u", "Home", "enter")
	if got := f.e.Detail().Group().Name; got != "Home" {
		t.Fatalf("detail name = %q", got)
	}
	if got := f.names(); got[0] != "Home" {
		t.Fatalf("collection name = %v", got)
	}
}

func TestPrompt_EscCancels(t *testing.T) {
	f := newFixture(t, seedGroups("G1")...)
	f.press("r", "q", "esc")
	if got := f.names(); got[0] != "G1" {
		t.Fatalf("groups = %v", got)
	}
	if f.m.prompt != promptNone {
		t.Fatalf("prompt still open")
	}
}

func TestEditMode_BulkDelete(t *testing.T) {
	f := newFixture(t, seedGroups("A", "B", "C")...)

	f.press("e", "space", "j", "space")
	if got := len(f.e.Selection()); got != 2 {
		t.Fatalf("selection = %d, want 2", got)
	}
	if v := f.view(); !strings.Contains(v, "[x] A") || !strings.Contains(v, "[ ] C") {
		t.Fatalf("edit view:\n%s", v)
	}

	f.press("d")
	if f.e.EditState() != engine.ConfirmingDelete {
		t.Fatalf("state = %v", f.e.EditState())
	}
	if v := f.view(); !strings.Contains(v, "Delete 2 groups and their items? y/n") {
		t.Fatalf("confirm view:\n%s", v)
	}

	f.press("n")
	if f.e.EditState() != engine.Editing || len(f.names()) != 3 {
		t.Fatalf("cancel: state=%v groups=%v", f.e.EditState(), f.names())
	}

	f.press("d", "y")
	if got := f.names(); len(got) != 1 || got[0] != "C" {
		t.Fatalf("groups = %v, want [C]", got)
	}
	if f.e.EditState() != engine.Browsing {
		t.Fatalf("state = %v, want browsing", f.e.EditState())
	}
}

func TestEditMode_DeleteWithoutSelection(t *testing.T) {
	f := newFixture(t, seedGroups("A")...)
	f.press("e", "d")
	if !strings.Contains(f.view(), errNothingSelected.Error()) {
		t.Fatalf("view:\n%s", f.view())
	}
	f.press("esc")
	if f.e.EditState() != engine.Browsing {
		t.Fatalf("esc should leave edit mode")
	}
}

func TestBrowsingDelete_RemovesHighlightedGroup(t *testing.T) {
	f := newFixture(t, seedGroups("A", "B")...)
	f.press("j", "d")
	if got := f.names(); len(got) != 1 || got[0] != "A" {
		t.Fatalf("groups = %v, want [A]", got)
	}
}

func TestDetail_DeleteItem(t *testing.T) {
	g := model.Group{ID: model.NewGroupID(), Name: "G", Items: []model.Item{
		{ID: model.NewItemID(), Name: "I1"},
		{ID: model.NewItemID(), Name: "I2"},
	}}
	f := newFixture(t, g)
	f.press("enter", "j", "d")
	got, _ := f.e.Group(g.ID)
	if len(got.Items) != 1 || got.Items[0].Name != "I1" {
		t.Fatalf("items = %+v", got.Items)
	}
}

func TestSaveFailure_RetryKey(t *testing.T) {
	f := newFixture(t)
	f.store.FailNextTransaction(errors.New("disk full"))

	f.press("a")
	f.clock.Advance(window)
	if v := f.view(); !strings.Contains(v, "save failed") || !strings.Contains(v, "R to retry") {
		t.Fatalf("failure status:\n%s", v)
	}

	cmd := f.press("R")
	if cmd == nil {
		t.Fatalf("expected retry command")
	}
	if !strings.Contains(f.view(), "saving") {
		t.Fatalf("expected saving status:\n%s", f.view())
	}
	f.send(cmd())
	if v := f.view(); !strings.Contains(v, "saved") || strings.Contains(v, "save failed") {
		t.Fatalf("after retry:\n%s", v)
	}
	persisted, _ := f.store.FetchAllGroups(context.Background())
	if len(persisted) != 1 {
		t.Fatalf("persisted = %+v", persisted)
	}
}

func TestReload_DiscardsUnsaved(t *testing.T) {
	f := newFixture(t, seedGroups("A")...)
	f.press("a")
	if len(f.names()) != 2 {
		t.Fatalf("groups = %v", f.names())
	}
	cmd := f.send(tea.KeyMsg{Type: tea.KeyCtrlR})
	if cmd == nil {
		t.Fatalf("expected reload command")
	}
	f.send(cmd())
	if got := f.names(); len(got) != 1 || got[0] != "A" {
		t.Fatalf("groups after reload = %v", got)
	}
	if !strings.Contains(f.view(), "reloaded from disk") {
		t.Fatalf("view:\n%s", f.view())
	}
}

func TestQuit(t *testing.T) {
	f := newFixture(t)
	cmd := f.press("q")
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected tea.QuitMsg")
	}
}

func TestRenderInputLine_NeverExceedsWidth(t *testing.T) {
	lipgloss.SetColorProfile(termenv.Ascii)
	line := renderInputLine(20, strings.Repeat("x", 50)+"\nmore")
	if strings.Contains(line, "\n") {
		t.Fatalf("input line wrapped: %q", line)
	}
	if w := xansi.StringWidth(line); w > 20 {
		t.Fatalf("width = %d, want <= 20", w)
	}
}
