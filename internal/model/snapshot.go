package model

// Snapshot is an immutable copy of the whole hierarchy at one point in time.
// Callers must treat the returned slices as read-only; every accessor returns copies.
type Snapshot struct {
	groups []Group
}

// NewSnapshot deep-copies groups.
func NewSnapshot(groups []Group) Snapshot {
	out := make([]Group, len(groups))
	for i, g := range groups {
		out[i] = g.Clone()
	}
	return Snapshot{groups: out}
}

func (s Snapshot) Len() int { return len(s.groups) }

// Groups returns a deep copy of the snapshot's groups in display order.
func (s Snapshot) Groups() []Group {
	out := make([]Group, len(s.groups))
	for i, g := range s.groups {
		out[i] = g.Clone()
	}
	return out
}

func (s Snapshot) Group(id GroupID) (Group, bool) {
	for _, g := range s.groups {
		if g.ID == id {
			return g.Clone(), true
		}
	}
	return Group{}, false
}

// Equal reports structural equality ignoring order: same group ids, names and item sets.
func Equal(a, b []Group) bool {
	if len(a) != len(b) {
		return false
	}
	byID := make(map[GroupID]Group, len(a))
	for _, g := range a {
		byID[g.ID] = g
	}
	for _, g := range b {
		o, ok := byID[g.ID]
		if !ok || o.Name != g.Name || len(o.Items) != len(g.Items) {
			return false
		}
		items := make(map[ItemID]string, len(o.Items))
		for _, it := range o.Items {
			items[it.ID] = it.Name
		}
		for _, it := range g.Items {
			name, ok := items[it.ID]
			if !ok || name != it.Name {
				return false
			}
		}
	}
	return true
}
