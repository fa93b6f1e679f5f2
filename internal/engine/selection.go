package engine

import "groupsync/internal/model"

// EditState is the list's edit mode.
type EditState int

const (
	Browsing EditState = iota
	Editing
	ConfirmingDelete
)

func (s EditState) String() string {
	switch s {
	case Browsing:
		return "browsing"
	case Editing:
		return "editing"
	case ConfirmingDelete:
		return "confirmingDelete"
	default:
		return "unknown"
	}
}

type detailEffect int

const (
	detailKeep detailEffect = iota
	detailOpen
	detailClose
)

// selection holds multi-select and edit-mode state. It has no side effects of
// its own; callers act on the returned effects.
type selection struct {
	state EditState
	ids   []model.GroupID
}

func (s *selection) toggleEditing() {
	switch s.state {
	case Browsing:
		s.state = Editing
	default:
		s.state = Browsing
		s.ids = nil
	}
}

// requestDelete moves to ConfirmingDelete when something is selected.
func (s *selection) requestDelete() bool {
	if s.state != Editing || len(s.ids) == 0 {
		return false
	}
	s.state = ConfirmingDelete
	return true
}

// confirm returns the ids to delete and goes back to Browsing.
func (s *selection) confirm() []model.GroupID {
	if s.state != ConfirmingDelete {
		return nil
	}
	ids := s.ids
	s.ids = nil
	s.state = Browsing
	return ids
}

func (s *selection) cancel() {
	if s.state == ConfirmingDelete {
		s.state = Editing
	}
}

// set replaces the selection. open is the currently open detail group, if any.
func (s *selection) set(ids []model.GroupID, open *model.GroupID) detailEffect {
	s.ids = dedupe(ids)
	switch {
	case len(s.ids) == 1 && s.state == Browsing:
		if open != nil && *open == s.ids[0] {
			return detailKeep
		}
		return detailOpen
	case len(s.ids) == 1:
		return detailKeep
	default:
		if open == nil {
			return detailKeep
		}
		return detailClose
	}
}

func (s *selection) forget(ids ...model.GroupID) {
	if len(s.ids) == 0 {
		return
	}
	drop := make(map[model.GroupID]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := s.ids[:0]
	for _, id := range s.ids {
		if !drop[id] {
			kept = append(kept, id)
		}
	}
	s.ids = kept
	if len(s.ids) == 0 && s.state == ConfirmingDelete {
		s.state = Editing
	}
}

func dedupe(ids []model.GroupID) []model.GroupID {
	seen := make(map[model.GroupID]bool, len(ids))
	out := make([]model.GroupID, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
