// Package skiplist implements a rank-augmented skip list: every forward link
// records how many base-level elements it jumps over, so positions, distances
// and range sizes come out of a single descent instead of a scan.
//
// A List is the mutable in-memory run of an LSM tree. It is not safe for
// concurrent mutation; readers may share it only while no writer is active.
package skiplist

import (
	"cmp"

	"github.com/pkg/errors"

	"github.com/wellls/pomegranate/run"
)

var _ run.Run[int, string] = (*List[int, string])(nil)

// List is an ordered map backed by a skip list whose nodes live in an arena.
type List[K, V any] struct {
	compare   func(a, b K) int
	arena     *arena[K, V]
	heights   HeightGenerator
	maxHeight int
	// height is the number of levels currently in use, at least 1.
	height   int
	n        int
	min, max K
	sizeHint int
}

// New creates an empty List ordered by cmp.Compare.
func New[K cmp.Ordered, V any](opts ...func(*Config)) (*List[K, V], error) {
	return NewFunc[K, V](cmp.Compare[K], opts...)
}

// NewFunc creates an empty List ordered by compare, which must return a
// negative number, zero or a positive number like cmp.Compare.
func NewFunc[K, V any](compare func(a, b K) int, opts ...func(*Config)) (*List[K, V], error) {
	if compare == nil {
		return nil, errors.Wrap(ErrMalformedList, "nil compare function")
	}

	cfg := NewConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	heights := cfg.heights
	if heights == nil {
		heights = NewGeometricHeights(cfg.maxHeight, cfg.p, nil)
	}

	return &List[K, V]{
		compare:   compare,
		arena:     newArena[K, V](cfg.maxHeight, cfg.sizeHint),
		heights:   heights,
		maxHeight: cfg.maxHeight,
		height:    1,
		sizeHint:  cfg.sizeHint,
	}, nil
}

// keyOf returns the key of a real node. Reaching a sentinel here means the
// links are corrupted.
func (l *List[K, V]) keyOf(id nodeID) K {
	if id == headID || id == tailID || id == nilID {
		panic(errors.Wrapf(ErrMalformedList, "sentinel %d reached where a key is required", id))
	}
	if id < 0 || int(id) >= len(l.arena.nodes) {
		panic(errors.Wrapf(ErrMalformedList, "handle %d outside the arena", id))
	}
	return l.arena.nodes[id].key
}

// descend walks from the head towards key. On every live level it stops at
// the last node whose key is below key (or not above it when orEqual is set)
// and, when update is non-nil, records that node and its position. It
// returns the level-0 successor of the final stop.
func (l *List[K, V]) descend(key K, orEqual bool, update *[MaxHeight]nodeID, rank *[MaxHeight]int) nodeID {
	nodes := l.arena.nodes
	x, pos := headID, 0
	for lvl := l.height - 1; lvl >= 0; lvl-- {
		for {
			ln := nodes[x].links[lvl]
			if ln.next == tailID {
				break
			}
			c := l.compare(l.keyOf(ln.next), key)
			if c > 0 || (c == 0 && !orEqual) {
				break
			}
			step(lvl)
			pos += ln.span
			x = ln.next
		}
		if update != nil {
			update[lvl] = x
			rank[lvl] = pos
		}
	}
	return nodes[x].links[0].next
}

// find returns the node holding key, or the first node after it (possibly
// the tail) and false.
func (l *List[K, V]) find(key K) (nodeID, bool) {
	id := l.descend(key, false, nil, nil)
	return id, id != tailID && l.compare(l.keyOf(id), key) == 0
}

func (l *List[K, V]) nextHeight() int {
	return max(1, min(l.heights.NextHeight(), l.maxHeight))
}

// Insert adds key with value, or replaces the value if key is present.
func (l *List[K, V]) Insert(key K, value V) {
	var update [MaxHeight]nodeID
	var rank [MaxHeight]int

	next := l.descend(key, false, &update, &rank)
	if next != tailID && l.compare(l.keyOf(next), key) == 0 {
		l.arena.nodes[next].value = value
		return
	}

	h := l.nextHeight()
	if h > l.height {
		head := &l.arena.nodes[headID]
		for lvl := l.height; lvl < h; lvl++ {
			update[lvl] = headID
			rank[lvl] = 0
			head.links[lvl] = link{next: tailID, span: l.n}
		}
		l.height = h
	}

	id := l.arena.alloc(key, value, h)
	nodes := l.arena.nodes
	n := &nodes[id]

	for lvl := 0; lvl < h; lvl++ {
		pred := &nodes[update[lvl]].links[lvl]
		// Number of nodes between the predecessor and the new node.
		gap := rank[0] - rank[lvl]
		n.links[lvl] = link{next: pred.next, span: pred.span - gap}
		*pred = link{next: id, span: gap + 1}
	}
	for lvl := h; lvl < l.height; lvl++ {
		nodes[update[lvl]].links[lvl].span++
	}

	n.back = update[0]
	nodes[n.links[0].next].back = id

	if l.n == 0 {
		l.min, l.max = key, key
	} else {
		if l.compare(key, l.min) < 0 {
			l.min = key
		}
		if l.compare(key, l.max) > 0 {
			l.max = key
		}
	}
	l.n++
}

// Delete removes key and returns its value.
func (l *List[K, V]) Delete(key K) (V, bool) {
	var zero V
	if l.n == 0 {
		return zero, false
	}

	var update [MaxHeight]nodeID
	var rank [MaxHeight]int

	target := l.descend(key, false, &update, &rank)
	if target == tailID || l.compare(l.keyOf(target), key) != 0 {
		return zero, false
	}

	nodes := l.arena.nodes
	t := &nodes[target]
	for lvl := 0; lvl < l.height; lvl++ {
		pred := &nodes[update[lvl]].links[lvl]
		if pred.next == target {
			pred.span += t.links[lvl].span - 1
			pred.next = t.links[lvl].next
		} else {
			pred.span--
		}
	}
	nodes[t.links[0].next].back = t.back

	value := t.value
	l.arena.release(target)
	l.n--

	for l.height > 1 && nodes[headID].links[l.height-1].next == tailID {
		l.height--
	}

	if l.n == 0 {
		var zeroK K
		l.min, l.max = zeroK, zeroK
	} else {
		l.min = l.keyOf(nodes[headID].links[0].next)
		l.max = l.keyOf(nodes[tailID].back)
	}
	return value, true
}

// Lookup returns the value stored under key.
func (l *List[K, V]) Lookup(key K) (V, bool) {
	id, ok := l.find(key)
	if !ok {
		var zero V
		return zero, false
	}
	return l.arena.nodes[id].value, true
}

// Contains reports whether key is present.
func (l *List[K, V]) Contains(key K) bool {
	_, ok := l.find(key)
	return ok
}

// Min returns the smallest key.
func (l *List[K, V]) Min() (K, bool) {
	return l.min, l.n > 0
}

// Max returns the largest key.
func (l *List[K, V]) Max() (K, bool) {
	return l.max, l.n > 0
}

// Cardinality returns the number of elements.
func (l *List[K, V]) Cardinality() int {
	return l.n
}

// IsEmpty reports whether the list holds no elements.
func (l *List[K, V]) IsEmpty() bool {
	return l.n == 0
}

// SetSizeHint records the expected number of elements and reserves arena
// room for them.
func (l *List[K, V]) SetSizeHint(n int) {
	if n < 0 {
		n = 0
	}
	l.sizeHint = n
	l.arena.reserve(n)
}

// SizeHint returns the last size hint.
func (l *List[K, V]) SizeHint() int {
	return l.sizeHint
}

// Height returns the number of levels currently in use.
func (l *List[K, V]) Height() int {
	return l.height
}

// MaxHeight returns the configured height ceiling.
func (l *List[K, V]) MaxHeight() int {
	return l.maxHeight
}

// Release tears the list down node by node along the base level. The list is
// empty afterwards and may be filled again.
func (l *List[K, V]) Release() {
	nodes := l.arena.nodes
	x := nodes[headID].links[0].next
	for x != tailID && x != nilID {
		next := nodes[x].links[0].next
		l.arena.release(x)
		x = next
	}
	l.arena.resetSentinels()

	var zeroK K
	l.min, l.max = zeroK, zeroK
	l.height = 1
	l.n = 0
}
