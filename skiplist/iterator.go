package skiplist

import "github.com/wellls/pomegranate/run"

var _ run.Iterator[int, string] = (*Iterator[int, string])(nil)

// Iterator walks a contiguous stretch of the base level. Its length is fixed
// when it is created; mutating the list while iterating is not supported.
type Iterator[K, V any] struct {
	list  *List[K, V]
	start nodeID
	size  int
	pos   int
	cur   nodeID
	valid bool
}

// Range returns the elements between lo and hi in ascending order.
func (l *List[K, V]) Range(lo, hi run.Bound[K]) run.Iterator[K, V] {
	start, first, last, ok := l.bounds(lo, hi)
	if !ok {
		return &Iterator[K, V]{list: l, start: nilID, cur: nilID}
	}
	return &Iterator[K, V]{
		list:  l,
		start: start,
		size:  last - first + 1,
		cur:   nilID,
	}
}

// All exports every element in ascending order.
func (l *List[K, V]) All() []run.Pair[K, V] {
	return run.Collect(l.Range(run.Unbound[K](), run.Unbound[K]()))
}

// AllInRange exports the elements with lo <= key <= hi. It returns nothing
// when the range misses [Min, Max] entirely.
func (l *List[K, V]) AllInRange(lo, hi K) []run.Pair[K, V] {
	if l.n == 0 || l.compare(lo, hi) > 0 || l.compare(hi, l.min) < 0 || l.compare(lo, l.max) > 0 {
		return nil
	}
	return run.Collect(l.Range(run.Include(lo), run.Include(hi)))
}

// Next implements run.Iterator.
func (it *Iterator[K, V]) Next() bool {
	if it == nil || it.list == nil || it.pos >= it.size {
		if it != nil {
			it.valid = false
			it.cur = nilID
		}
		return false
	}

	if it.pos == 0 {
		it.cur = it.start
	} else {
		it.cur = it.list.arena.nodes[it.cur].links[0].next
	}
	it.pos++
	it.valid = true
	return true
}

// Valid implements run.Iterator.
func (it *Iterator[K, V]) Valid() bool {
	return it != nil && it.valid
}

// Key implements run.Iterator.
func (it *Iterator[K, V]) Key() K {
	if !it.Valid() {
		var zero K
		return zero
	}
	return it.list.arena.nodes[it.cur].key
}

// Value implements run.Iterator.
func (it *Iterator[K, V]) Value() V {
	if !it.Valid() {
		var zero V
		return zero
	}
	return it.list.arena.nodes[it.cur].value
}

// Len implements run.Iterator.
func (it *Iterator[K, V]) Len() int {
	if it == nil {
		return 0
	}
	return it.size
}

// Reset implements run.Iterator.
func (it *Iterator[K, V]) Reset() {
	if it == nil {
		return
	}
	it.pos = 0
	it.cur = nilID
	it.valid = false
}
