package engine

import "groupsync/internal/model"

// OpenDetail focuses a copy of group id. Any previously open detail is closed
// first. Re-opening the group that is already open returns the existing detail.
func (e *Engine) OpenDetail(id model.GroupID) (*Detail, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, ErrClosed
	}
	return e.openDetailLocked(id)
}

func (e *Engine) openDetailLocked(id model.GroupID) (*Detail, error) {
	if e.detail != nil && e.detail.GroupID() == id {
		return e.detail, nil
	}
	g, ok := e.groups.Lookup(id)
	if !ok {
		return nil, e.unknown("group", id.String())
	}
	e.closeDetailLocked()

	d := newDetail(g.Clone())
	e.detail = d
	e.detailCancel = d.Subscribe(func(updated model.Group) { e.applyDetail(d, updated) })
	e.logger.Debug("detail opened", "group", id)
	return d, nil
}

// CloseDetail releases the open detail, if any.
func (e *Engine) CloseDetail() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closeDetailLocked()
}

func (e *Engine) closeDetailLocked() {
	if e.detail == nil {
		return
	}
	if e.detailCancel != nil {
		e.detailCancel()
	}
	e.logger.Debug("detail closed", "group", e.detail.GroupID())
	e.detail = nil
	e.detailCancel = nil
}

// Detail returns the open detail, or nil.
func (e *Engine) Detail() *Detail {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.detail
}

func (e *Engine) detailFor(id model.GroupID) *Detail {
	if e.detail != nil && e.detail.GroupID() == id {
		return e.detail
	}
	return nil
}

// applyDetail overwrites the parent's copy of the group with the detail's.
// Emissions from a detail that is no longer open are dropped.
func (e *Engine) applyDetail(from *Detail, g model.Group) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || e.detail != from {
		return
	}
	if !e.groups.Replace(g) {
		return
	}
	e.groups.Sort(model.GroupLess)
}

func (e *Engine) EditState() EditState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sel.state
}

func (e *Engine) ToggleEditMode() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sel.toggleEditing()
}

// Selection returns the selected group ids.
func (e *Engine) Selection() []model.GroupID {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]model.GroupID(nil), e.sel.ids...)
}

// SetSelection replaces the selection. Outside edit mode a single selected
// group opens in detail; selecting none or several closes detail. Ids not in
// the collection are dropped.
func (e *Engine) SetSelection(ids ...model.GroupID) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	known := make([]model.GroupID, 0, len(ids))
	for _, id := range ids {
		if e.groups.Contains(id) {
			known = append(known, id)
			continue
		}
		e.logger.Warn("selection: unknown group", "group", id)
	}

	var open *model.GroupID
	if e.detail != nil {
		id := e.detail.GroupID()
		open = &id
	}
	switch e.sel.set(known, open) {
	case detailOpen:
		_, err := e.openDetailLocked(e.sel.ids[0])
		return err
	case detailClose:
		e.closeDetailLocked()
	}
	return nil
}

// RequestDelete asks for confirmation of a bulk delete. It reports false when
// not in edit mode or nothing is selected.
func (e *Engine) RequestDelete() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sel.requestDelete()
}

// ConfirmDelete deletes every selected group with its items and leaves edit mode.
func (e *Engine) ConfirmDelete() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	ids := e.sel.confirm()
	if len(ids) == 0 {
		return nil
	}
	e.deleteGroupsLocked(ids)
	return nil
}

func (e *Engine) CancelDelete() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sel.cancel()
}
