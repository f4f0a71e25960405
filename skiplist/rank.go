package skiplist

import (
	"github.com/pkg/errors"

	"github.com/wellls/pomegranate/run"
)

// linkLength sums the spans crossed walking from start to end on level. The
// result is the number of real nodes after start up to and including end.
// It fails with ErrBrokenLink when end is not reachable from start on that
// level, which only happens if the links are corrupted or a node does not
// take part in the level.
func (l *List[K, V]) linkLength(start, end nodeID, level int) (int, error) {
	if level < 0 || level >= l.height {
		return 0, errors.Wrapf(ErrBrokenLink, "level %d outside [0, %d)", level, l.height)
	}

	nodes := l.arena.nodes
	length := 0
	for x := start; x != end; {
		if x == nilID || int(x) >= len(nodes) {
			return 0, errors.Wrapf(ErrBrokenLink, "walk from %d fell off level %d", start, level)
		}
		n := &nodes[x]
		if n.height <= level {
			return 0, errors.Wrapf(ErrBrokenLink, "node %d has no level %d", x, level)
		}
		ln := n.links[level]
		if ln.next == nilID {
			return 0, errors.Wrapf(ErrBrokenLink, "node %d not reachable from %d on level %d", end, start, level)
		}
		length += ln.span
		x = ln.next
	}
	return length, nil
}

// Rank returns the 1-based position of key.
func (l *List[K, V]) Rank(key K) (int, bool) {
	var update [MaxHeight]nodeID
	var rank [MaxHeight]int

	l.descend(key, true, &update, &rank)
	x := update[0]
	if x == headID || l.compare(l.keyOf(x), key) != 0 {
		return 0, false
	}
	return rank[0], true
}

// At returns the element at 1-based position i.
func (l *List[K, V]) At(i int) (K, V, bool) {
	if i < 1 || i > l.n {
		var zeroK K
		var zeroV V
		return zeroK, zeroV, false
	}

	nodes := l.arena.nodes
	x, pos := headID, 0
	for lvl := l.height - 1; lvl >= 0 && pos != i; lvl-- {
		for {
			ln := nodes[x].links[lvl]
			if ln.next == tailID || pos+ln.span > i {
				break
			}
			pos += ln.span
			x = ln.next
		}
	}
	if pos != i || x == headID {
		panic(errors.Wrapf(ErrBrokenLink, "position %d resolved to %d", i, pos))
	}

	n := &nodes[x]
	return n.key, n.value, true
}

// Distance returns how many base-level steps lead from one present key to
// another. It is negative when to sorts before from.
func (l *List[K, V]) Distance(from, to K) (int, error) {
	a, ok := l.find(from)
	if !ok {
		return 0, errors.Wrapf(ErrKeyNotFound, "from key %v", from)
	}
	b, ok := l.find(to)
	if !ok {
		return 0, errors.Wrapf(ErrKeyNotFound, "to key %v", to)
	}

	sign := 1
	if l.compare(from, to) > 0 {
		a, b = b, a
		sign = -1
	}

	d, err := l.pathLength(a, b)
	if err != nil {
		return 0, err
	}
	return sign * d, nil
}

// pathLength is linkLength over the fastest path from start to end: at every
// node it follows the tallest link that does not pass end, so the walk
// climbs out of start and descends onto end in O(log d) hops. It fails with
// ErrBrokenLink when no link moves it closer to end.
func (l *List[K, V]) pathLength(start, end nodeID) (int, error) {
	if start == end {
		return 0, nil
	}

	nodes := l.arena.nodes
	endKey := l.keyOf(end)
	length := 0
	for x := start; x != end; {
		if x == nilID || int(x) >= len(nodes) {
			return 0, errors.Wrapf(ErrBrokenLink, "walk from %d fell off the list", start)
		}
		n := &nodes[x]
		moved := false
		for lvl := min(n.height, l.height) - 1; lvl >= 0; lvl-- {
			ln := n.links[lvl]
			if ln.next == nilID {
				return 0, errors.Wrapf(ErrBrokenLink, "node %d has no successor on level %d", x, lvl)
			}
			if ln.next != end && (ln.next == tailID || l.compare(l.keyOf(ln.next), endKey) > 0) {
				continue
			}
			step(lvl)
			length += ln.span
			x = ln.next
			moved = true
			break
		}
		if !moved {
			return 0, errors.Wrapf(ErrBrokenLink, "node %d not reachable from %d", end, start)
		}
	}
	return length, nil
}

// Count returns how many elements fall between lo and hi without visiting
// them.
func (l *List[K, V]) Count(lo, hi run.Bound[K]) int {
	_, first, last, ok := l.bounds(lo, hi)
	if !ok {
		return 0
	}
	return last - first + 1
}

// bounds resolves a range to its first node and the 1-based positions of its
// first and last elements, both read off the spans summed while descending.
// ok is false when no element falls inside.
//
// Positions that contradict the key order of the endpoints mean the spans
// are corrupted; bounds panics instead of reporting a wrong size.
func (l *List[K, V]) bounds(lo, hi run.Bound[K]) (start nodeID, first, last int, ok bool) {
	if l.n == 0 {
		return nilID, 0, 0, false
	}

	var update [MaxHeight]nodeID
	var rank [MaxHeight]int
	nodes := l.arena.nodes

	switch lo.Kind {
	case run.Included:
		start = l.descend(lo.Key, false, &update, &rank)
		first = rank[0] + 1
	case run.Excluded:
		start = l.descend(lo.Key, true, &update, &rank)
		first = rank[0] + 1
	default:
		start, first = nodes[headID].links[0].next, 1
	}

	// The upper end is the last node not past the bound.
	var end nodeID
	switch hi.Kind {
	case run.Included:
		l.descend(hi.Key, true, &update, &rank)
		end, last = update[0], rank[0]
	case run.Excluded:
		l.descend(hi.Key, false, &update, &rank)
		end, last = update[0], rank[0]
	default:
		end, last = nodes[tailID].back, l.n
	}

	ordered := start != tailID && end != headID && l.compare(l.keyOf(start), l.keyOf(end)) <= 0
	if ordered != (first <= last) {
		panic(errors.Wrapf(ErrBrokenLink, "positions %d..%d disagree with the key order of nodes %d and %d",
			first, last, start, end))
	}
	return start, first, last, ordered
}
