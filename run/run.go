// Package run defines the contract shared by every sorted run the storage
// engine reads from: the mutable in-memory skip list at the top of the tree
// and the sorted runs produced when it is flushed.
package run

// BoundKind selects how a range endpoint treats its key.
type BoundKind int

const (
	// Unbounded extends the range to the first or last element.
	Unbounded BoundKind = iota
	// Included keeps an element equal to the bound key.
	Included
	// Excluded drops an element equal to the bound key.
	Excluded
)

func (k BoundKind) String() string {
	switch k {
	case Unbounded:
		return "unbounded"
	case Included:
		return "included"
	case Excluded:
		return "excluded"
	default:
		return "unknown"
	}
}

// Bound is one endpoint of a range query.
type Bound[K any] struct {
	Kind BoundKind
	Key  K
}

// Include returns a bound that keeps key.
func Include[K any](key K) Bound[K] {
	return Bound[K]{Kind: Included, Key: key}
}

// Exclude returns a bound that stops short of key.
func Exclude[K any](key K) Bound[K] {
	return Bound[K]{Kind: Excluded, Key: key}
}

// Unbound returns an open endpoint.
func Unbound[K any]() Bound[K] {
	return Bound[K]{Kind: Unbounded}
}

// Pair is the record handed out by bulk exports.
type Pair[K, V any] struct {
	Key   K
	Value V
}

// Iterator is a finite, forward-only cursor over a contiguous part of a run.
// It starts positioned before the first element. Len is known when the
// iterator is created and Reset rewinds it so the same sequence can be read
// again.
type Iterator[K, V any] interface {
	// Next advances to the next element and reports whether one exists.
	Next() bool
	// Valid reports whether the iterator points at an element.
	Valid() bool
	// Key returns the current key. Only meaningful while Valid is true.
	Key() K
	// Value returns the current value. Only meaningful while Valid is true.
	Value() V
	// Len returns the total number of elements the iterator produces.
	Len() int
	// Reset positions the iterator before its first element again.
	Reset()
}

// Run is the capability set the engine programs against. Implementations
// must be interchangeable at call sites.
type Run[K, V any] interface {
	// Insert adds key or replaces its value.
	Insert(key K, value V)
	// Delete removes key and returns the value it held.
	Delete(key K) (V, bool)
	// Lookup returns the value stored under key.
	Lookup(key K) (V, bool)
	// Contains reports whether key is present.
	Contains(key K) bool
	// Range returns the elements between lo and hi in ascending key order.
	Range(lo, hi Bound[K]) Iterator[K, V]
	// All exports every element in ascending key order.
	All() []Pair[K, V]
	// AllInRange exports the elements with lo <= key <= hi.
	AllInRange(lo, hi K) []Pair[K, V]
	// Min returns the smallest key.
	Min() (K, bool)
	// Max returns the largest key.
	Max() (K, bool)
	// Cardinality returns the number of elements.
	Cardinality() int
	// IsEmpty reports whether Cardinality is zero.
	IsEmpty() bool
	// SetSizeHint records the expected number of elements. It never
	// changes results.
	SetSizeHint(n int)
	// SizeHint returns the last value passed to SetSizeHint.
	SizeHint() int
}

// Collect drains it from its current position into a slice.
func Collect[K, V any](it Iterator[K, V]) []Pair[K, V] {
	if it == nil {
		return nil
	}
	out := make([]Pair[K, V], 0, it.Len())
	for it.Next() {
		out = append(out, Pair[K, V]{Key: it.Key(), Value: it.Value()})
	}
	return out
}
