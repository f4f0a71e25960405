// Package memtable puts a single-writer discipline around skip list runs.
//
// Writes land in the active list under an exclusive lock. Rotate swaps in a
// fresh list and keeps the old one as a frozen, read-only generation until
// Flush turns it into a sorted run and releases it. Deletes are written as
// tombstones so a frozen generation cannot resurface a deleted value.
package memtable

import (
	"cmp"
	"sync"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/wellls/pomegranate/run"
	"github.com/wellls/pomegranate/skiplist"
	"github.com/wellls/pomegranate/sortedrun"
)

// Entry is what a table stores per key.
type Entry[V any] struct {
	Value     V
	Tombstone bool
}

// Table is an LSM memtable made of an active skip list and the frozen
// generations waiting to be flushed.
type Table[K, V any] struct {
	mu      sync.RWMutex
	flushMu sync.Mutex

	compare    func(a, b K) int
	cfg        Config
	active     *skiplist.List[K, Entry[V]]
	frozen     []*skiplist.List[K, Entry[V]] // oldest first
	generation uint64
	metrics    Metrics
}

// New creates a table ordered by cmp.Compare.
func New[K cmp.Ordered, V any](cfg Config) (*Table[K, V], error) {
	return NewFunc[K, V](cmp.Compare[K], cfg)
}

// NewFunc creates a table ordered by compare.
func NewFunc[K, V any](compare func(a, b K) int, cfg Config) (*Table[K, V], error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	t := &Table[K, V]{compare: compare, cfg: cfg}
	active, err := t.newList()
	if err != nil {
		return nil, errors.Wrap(err, "create memtable")
	}
	t.active = active
	klog.V(4).InfoS("Created memtable", "flushThreshold", cfg.FlushThreshold, "maxHeight", cfg.MaxHeight)
	return t, nil
}

func (t *Table[K, V]) newList() (*skiplist.List[K, Entry[V]], error) {
	opts := []func(*skiplist.Config){
		skiplist.WithMaxHeight(t.cfg.MaxHeight),
		skiplist.WithSizeHint(t.cfg.FlushThreshold),
	}
	if t.cfg.Heights != nil {
		opts = append(opts, skiplist.WithHeightGenerator(t.cfg.Heights))
	}
	return skiplist.NewFunc[K, Entry[V]](t.compare, opts...)
}

// Put stores value under key.
func (t *Table[K, V]) Put(key K, value V) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.active.Insert(key, Entry[V]{Value: value})
	t.metrics.puts.Add(1)
}

// Delete writes a tombstone for key.
func (t *Table[K, V]) Delete(key K) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.active.Insert(key, Entry[V]{Tombstone: true})
	t.metrics.deletes.Add(1)
}

// Get returns the newest live value for key across all generations.
func (t *Table[K, V]) Get(key K) (V, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	t.metrics.gets.Add(1)
	var zero V
	e, ok := t.active.Lookup(key)
	for i := len(t.frozen) - 1; !ok && i >= 0; i-- {
		e, ok = t.frozen[i].Lookup(key)
	}
	if !ok || e.Tombstone {
		return zero, false
	}
	t.metrics.hits.Add(1)
	return e.Value, true
}

// Scan returns the live values between lo and hi, newest generation first
// on equal keys.
func (t *Table[K, V]) Scan(lo, hi run.Bound[K]) []run.Pair[K, V] {
	t.mu.RLock()
	merged := run.Collect(t.active.Range(lo, hi))
	for i := len(t.frozen) - 1; i >= 0; i-- {
		merged = t.mergeNewest(merged, run.Collect(t.frozen[i].Range(lo, hi)))
	}
	t.mu.RUnlock()

	out := make([]run.Pair[K, V], 0, len(merged))
	for _, p := range merged {
		if !p.Value.Tombstone {
			out = append(out, run.Pair[K, V]{Key: p.Key, Value: p.Value.Value})
		}
	}
	return out
}

// mergeNewest merges two sorted exports. newer wins on equal keys.
func (t *Table[K, V]) mergeNewest(newer, older []run.Pair[K, Entry[V]]) []run.Pair[K, Entry[V]] {
	if len(older) == 0 {
		return newer
	}
	out := make([]run.Pair[K, Entry[V]], 0, len(newer)+len(older))
	i, j := 0, 0
	for i < len(newer) && j < len(older) {
		switch c := t.compare(newer[i].Key, older[j].Key); {
		case c < 0:
			out = append(out, newer[i])
			i++
		case c > 0:
			out = append(out, older[j])
			j++
		default:
			out = append(out, newer[i])
			i++
			j++
		}
	}
	out = append(out, newer[i:]...)
	return append(out, older[j:]...)
}

// Len returns the number of entries, tombstones included, in the active list.
func (t *Table[K, V]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.active.Cardinality()
}

// ShouldFlush reports whether the active list reached its size hint.
func (t *Table[K, V]) ShouldFlush() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	hint := t.active.SizeHint()
	return hint > 0 && t.active.Cardinality() >= hint
}

// Rotate freezes the active list and swaps in an empty one. It reports
// false when the active list is empty and nothing was rotated.
func (t *Table[K, V]) Rotate() (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.active.IsEmpty() {
		return false, nil
	}
	next, err := t.newList()
	if err != nil {
		return false, errors.Wrap(err, "rotate memtable")
	}

	old := t.active
	t.frozen = append(t.frozen, old)
	t.active = next
	t.generation++
	t.metrics.rotations.Add(1)

	klog.V(2).InfoS("Rotated memtable", "generation", t.generation, "entries", old.Cardinality(), "frozen", len(t.frozen))
	return true, nil
}

// Flush exports the oldest frozen generation as a sorted run, tombstones
// included, and releases the list. It reports false when nothing is frozen.
func (t *Table[K, V]) Flush() (*sortedrun.Run[K, Entry[V]], bool, error) {
	t.flushMu.Lock()
	defer t.flushMu.Unlock()

	t.mu.RLock()
	if len(t.frozen) == 0 {
		t.mu.RUnlock()
		return nil, false, nil
	}
	oldest := t.frozen[0]
	pairs := oldest.All()
	t.mu.RUnlock()

	sealed, err := sortedrun.FromSorted(t.compare, pairs)
	if err != nil {
		return nil, false, errors.Wrap(err, "flush memtable")
	}

	t.mu.Lock()
	t.frozen[0] = nil
	t.frozen = t.frozen[1:]
	remaining := len(t.frozen)
	t.mu.Unlock()

	// No reader can reach the list any more.
	oldest.Release()

	t.metrics.flushes.Add(1)
	t.metrics.flushedEntries.Add(int64(len(pairs)))
	klog.V(2).InfoS("Flushed memtable", "entries", len(pairs), "frozen", remaining)
	return sealed, true, nil
}

// Generation returns how many times the table has rotated.
func (t *Table[K, V]) Generation() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.generation
}

// Frozen returns the number of generations waiting to be flushed.
func (t *Table[K, V]) Frozen() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.frozen)
}

// Metrics returns a snapshot of the table counters.
func (t *Table[K, V]) Metrics() Snapshot {
	return t.metrics.Snapshot()
}
