// Package collection implements an identity-keyed, ordered container.
package collection

import "sort"

// Keyed is anything with a stable identity.
type Keyed[K comparable] interface {
	Key() K
}

// Collection keeps elements in display order with O(1) lookup by key.
// It never holds two elements with the same key.
//
// Collection is not safe for concurrent use.
type Collection[K comparable, V Keyed[K]] struct {
	elems    []V
	index    map[K]int
	onChange []func()
}

func New[K comparable, V Keyed[K]](elems ...V) *Collection[K, V] {
	c := &Collection[K, V]{index: map[K]int{}}
	for _, v := range elems {
		if _, ok := c.index[v.Key()]; ok {
			continue
		}
		c.index[v.Key()] = len(c.elems)
		c.elems = append(c.elems, v)
	}
	return c
}

// OnChange registers fn to run after every mutation that changed contents or order.
// The returned func unregisters it.
func (c *Collection[K, V]) OnChange(fn func()) (cancel func()) {
	c.onChange = append(c.onChange, fn)
	idx := len(c.onChange) - 1
	return func() {
		if idx < len(c.onChange) {
			c.onChange[idx] = nil
		}
	}
}

func (c *Collection[K, V]) changed() {
	for _, fn := range c.onChange {
		if fn != nil {
			fn()
		}
	}
}

func (c *Collection[K, V]) Len() int { return len(c.elems) }

func (c *Collection[K, V]) At(i int) V { return c.elems[i] }

func (c *Collection[K, V]) Contains(id K) bool {
	_, ok := c.index[id]
	return ok
}

func (c *Collection[K, V]) Lookup(id K) (V, bool) {
	i, ok := c.index[id]
	if !ok {
		var zero V
		return zero, false
	}
	return c.elems[i], true
}

// Values returns the elements in display order. The slice is a copy.
func (c *Collection[K, V]) Values() []V {
	out := make([]V, len(c.elems))
	copy(out, c.elems)
	return out
}

// Insert appends v. A duplicate key is rejected and leaves the collection untouched.
func (c *Collection[K, V]) Insert(v V) bool {
	if _, ok := c.index[v.Key()]; ok {
		return false
	}
	c.index[v.Key()] = len(c.elems)
	c.elems = append(c.elems, v)
	c.changed()
	return true
}

// Replace overwrites the element with v's key in place. Missing keys are not inserted.
func (c *Collection[K, V]) Replace(v V) bool {
	i, ok := c.index[v.Key()]
	if !ok {
		return false
	}
	c.elems[i] = v
	c.changed()
	return true
}

func (c *Collection[K, V]) RemoveByID(id K) (V, bool) {
	i, ok := c.index[id]
	if !ok {
		var zero V
		return zero, false
	}
	v := c.elems[i]
	c.elems = append(c.elems[:i], c.elems[i+1:]...)
	c.reindex()
	c.changed()
	return v, true
}

// RemoveIDs removes every listed key that is present and returns what was removed.
func (c *Collection[K, V]) RemoveIDs(ids []K) []V {
	drop := make(map[K]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	var removed []V
	kept := c.elems[:0]
	for _, v := range c.elems {
		if drop[v.Key()] {
			removed = append(removed, v)
			continue
		}
		kept = append(kept, v)
	}
	if len(removed) == 0 {
		return nil
	}
	c.elems = kept
	c.reindex()
	c.changed()
	return removed
}

// RemoveAtOffsets removes elements by display position. Out-of-range offsets are ignored.
func (c *Collection[K, V]) RemoveAtOffsets(offsets []int) []V {
	ids := make([]K, 0, len(offsets))
	for _, off := range offsets {
		if off < 0 || off >= len(c.elems) {
			continue
		}
		ids = append(ids, c.elems[off].Key())
	}
	return c.RemoveIDs(ids)
}

// Sort re-orders in place with a stable sort. less must be a total order for the
// result to be independent of the previous order.
func (c *Collection[K, V]) Sort(less func(a, b V) bool) {
	sorted := sort.SliceIsSorted(c.elems, func(i, j int) bool { return less(c.elems[i], c.elems[j]) })
	if sorted {
		return
	}
	sort.SliceStable(c.elems, func(i, j int) bool { return less(c.elems[i], c.elems[j]) })
	c.reindex()
	c.changed()
}

func (c *Collection[K, V]) reindex() {
	clear(c.index)
	for i, v := range c.elems {
		c.index[v.Key()] = i
	}
}
