package skiplist

import (
	"math"
	"slices"

	"github.com/pkg/errors"
)

// maxSlots is the number of slots a nodeID can address.
const maxSlots = math.MaxInt32

// arena owns every node of a list. Handles stay valid until released; a
// released slot goes on the free list and is handed out again by alloc.
type arena[K, V any] struct {
	nodes     []node[K, V]
	free      []nodeID
	maxHeight int
	limit     int
}

func newArena[K, V any](maxHeight, capacity int) *arena[K, V] {
	a := &arena[K, V]{
		nodes:     make([]node[K, V], 0, capacity+2),
		maxHeight: maxHeight,
		limit:     maxSlots,
	}
	a.nodes = append(a.nodes, a.sentinel(), a.sentinel())
	a.resetSentinels()
	return a
}

func (a *arena[K, V]) sentinel() node[K, V] {
	return node[K, V]{
		height: a.maxHeight,
		links:  make([]link, a.maxHeight),
		back:   nilID,
	}
}

// resetSentinels links head straight to tail on every level.
func (a *arena[K, V]) resetSentinels() {
	head, tail := &a.nodes[headID], &a.nodes[tailID]
	for i := range head.links {
		head.links[i] = link{next: tailID}
		tail.links[i] = link{next: nilID}
	}
	head.back = nilID
	tail.back = headID
}

func (a *arena[K, V]) alloc(key K, value V, height int) nodeID {
	var id nodeID
	if n := len(a.free); n > 0 {
		id = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		if len(a.nodes) >= a.limit {
			panic(errors.Wrapf(ErrMalformedList, "arena is full at %d slots", len(a.nodes)))
		}
		id = nodeID(len(a.nodes))
		a.nodes = append(a.nodes, node[K, V]{links: make([]link, a.maxHeight)})
	}

	n := &a.nodes[id]
	n.key = key
	n.value = value
	n.height = height
	n.back = nilID
	return id
}

// release clears the slot so it no longer pins the key and value.
func (a *arena[K, V]) release(id nodeID) {
	if id == headID || id == tailID || id == nilID {
		return
	}

	n := &a.nodes[id]
	var zeroK K
	var zeroV V
	n.key = zeroK
	n.value = zeroV
	for i := range n.links[:n.height] {
		n.links[i] = link{next: nilID}
	}
	n.height = 0
	n.back = nilID

	a.free = append(a.free, id)
}

// reserve grows the backing slice so n real nodes fit without reallocation.
func (a *arena[K, V]) reserve(n int) {
	if need := n + 2 - len(a.nodes) - len(a.free); need > 0 {
		a.nodes = slices.Grow(a.nodes, need)
	}
}
