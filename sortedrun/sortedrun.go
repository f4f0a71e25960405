// Package sortedrun implements run.Run over a sorted slice. It is the shape a
// memtable takes once flushed: cheap to search and scan, expensive to change.
package sortedrun

import (
	"cmp"
	"slices"

	"github.com/pkg/errors"

	"github.com/wellls/pomegranate/run"
)

// ErrUnsorted is returned when FromSorted gets keys that are not strictly
// increasing.
var ErrUnsorted = errors.New("pairs are not strictly sorted")

var _ run.Run[int, string] = (*Run[int, string])(nil)

// Run is a slice-backed sorted run. Insert and Delete shift elements and
// cost O(n); lookups are binary searches.
type Run[K, V any] struct {
	compare  func(a, b K) int
	pairs    []run.Pair[K, V]
	sizeHint int
}

// New returns an empty run ordered by cmp.Compare.
func New[K cmp.Ordered, V any]() *Run[K, V] {
	return NewFunc[K, V](cmp.Compare[K])
}

// NewFunc returns an empty run ordered by compare.
func NewFunc[K, V any](compare func(a, b K) int) *Run[K, V] {
	return &Run[K, V]{compare: compare}
}

// FromSorted builds a run from pairs already in ascending key order, such as
// the export of another run. The slice is copied.
func FromSorted[K, V any](compare func(a, b K) int, pairs []run.Pair[K, V]) (*Run[K, V], error) {
	for i := 1; i < len(pairs); i++ {
		if compare(pairs[i-1].Key, pairs[i].Key) >= 0 {
			return nil, errors.Wrapf(ErrUnsorted, "pair %d", i)
		}
	}
	return &Run[K, V]{
		compare:  compare,
		pairs:    slices.Clone(pairs),
		sizeHint: len(pairs),
	}, nil
}

func (r *Run[K, V]) search(key K) (int, bool) {
	return slices.BinarySearchFunc(r.pairs, key, func(p run.Pair[K, V], k K) int {
		return r.compare(p.Key, k)
	})
}

// Insert implements run.Run.
func (r *Run[K, V]) Insert(key K, value V) {
	i, found := r.search(key)
	if found {
		r.pairs[i].Value = value
		return
	}
	r.pairs = slices.Insert(r.pairs, i, run.Pair[K, V]{Key: key, Value: value})
}

// Delete implements run.Run.
func (r *Run[K, V]) Delete(key K) (V, bool) {
	i, found := r.search(key)
	if !found {
		var zero V
		return zero, false
	}
	old := r.pairs[i].Value
	r.pairs = slices.Delete(r.pairs, i, i+1)
	return old, true
}

// Lookup implements run.Run.
func (r *Run[K, V]) Lookup(key K) (V, bool) {
	i, found := r.search(key)
	if !found {
		var zero V
		return zero, false
	}
	return r.pairs[i].Value, true
}

// Contains implements run.Run.
func (r *Run[K, V]) Contains(key K) bool {
	_, found := r.search(key)
	return found
}

// window turns a pair of bounds into the half-open index range [i, j).
func (r *Run[K, V]) window(lo, hi run.Bound[K]) (int, int) {
	i := 0
	switch lo.Kind {
	case run.Included:
		i, _ = r.search(lo.Key)
	case run.Excluded:
		var found bool
		if i, found = r.search(lo.Key); found {
			i++
		}
	}

	j := len(r.pairs)
	switch hi.Kind {
	case run.Included:
		var found bool
		if j, found = r.search(hi.Key); found {
			j++
		}
	case run.Excluded:
		j, _ = r.search(hi.Key)
	}
	return i, j
}

// Range implements run.Run.
func (r *Run[K, V]) Range(lo, hi run.Bound[K]) run.Iterator[K, V] {
	i, j := r.window(lo, hi)
	if i >= j {
		return &Iterator[K, V]{}
	}
	return &Iterator[K, V]{pairs: r.pairs[i:j:j]}
}

// All implements run.Run.
func (r *Run[K, V]) All() []run.Pair[K, V] {
	return slices.Clone(r.pairs)
}

// AllInRange implements run.Run.
func (r *Run[K, V]) AllInRange(lo, hi K) []run.Pair[K, V] {
	if len(r.pairs) == 0 || r.compare(lo, hi) > 0 {
		return nil
	}
	if r.compare(hi, r.pairs[0].Key) < 0 || r.compare(lo, r.pairs[len(r.pairs)-1].Key) > 0 {
		return nil
	}
	return run.Collect(r.Range(run.Include(lo), run.Include(hi)))
}

// Min implements run.Run.
func (r *Run[K, V]) Min() (K, bool) {
	if len(r.pairs) == 0 {
		var zero K
		return zero, false
	}
	return r.pairs[0].Key, true
}

// Max implements run.Run.
func (r *Run[K, V]) Max() (K, bool) {
	if len(r.pairs) == 0 {
		var zero K
		return zero, false
	}
	return r.pairs[len(r.pairs)-1].Key, true
}

// Cardinality implements run.Run.
func (r *Run[K, V]) Cardinality() int {
	return len(r.pairs)
}

// IsEmpty implements run.Run.
func (r *Run[K, V]) IsEmpty() bool {
	return len(r.pairs) == 0
}

// SetSizeHint implements run.Run by growing the backing slice.
func (r *Run[K, V]) SetSizeHint(n int) {
	if n < 0 {
		n = 0
	}
	r.sizeHint = n
	if n > len(r.pairs) {
		r.pairs = slices.Grow(r.pairs, n-len(r.pairs))
	}
}

// SizeHint implements run.Run.
func (r *Run[K, V]) SizeHint() int {
	return r.sizeHint
}

// Iterator walks a window of a Run.
type Iterator[K, V any] struct {
	pairs []run.Pair[K, V]
	pos   int
}

// Next implements run.Iterator.
func (it *Iterator[K, V]) Next() bool {
	if it.pos >= len(it.pairs) {
		it.pos = len(it.pairs) + 1
		return false
	}
	it.pos++
	return true
}

// Valid implements run.Iterator.
func (it *Iterator[K, V]) Valid() bool {
	return it.pos >= 1 && it.pos <= len(it.pairs)
}

// Key implements run.Iterator.
func (it *Iterator[K, V]) Key() K {
	if !it.Valid() {
		var zero K
		return zero
	}
	return it.pairs[it.pos-1].Key
}

// Value implements run.Iterator.
func (it *Iterator[K, V]) Value() V {
	if !it.Valid() {
		var zero V
		return zero
	}
	return it.pairs[it.pos-1].Value
}

// Len implements run.Iterator.
func (it *Iterator[K, V]) Len() int {
	return len(it.pairs)
}

// Reset implements run.Iterator.
func (it *Iterator[K, V]) Reset() {
	it.pos = 0
}
