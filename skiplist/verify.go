package skiplist

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
)

// Verify walks the whole list and checks every structural invariant: key
// order, back references, node heights, level membership, spans, the element
// count and the cached extremes. It is the only place the count is derived
// by traversal.
func (l *List[K, V]) Verify() error {
	nodes := l.arena.nodes

	// positions[id] is the 1-based base-level position; head is 0 and the
	// tail shares the last position so an edge into it spans what remains.
	positions := make([]int, len(nodes))
	perLevel := make([]int, l.maxHeight)

	count := 0
	prev := headID
	for x := nodes[headID].links[0].next; x != tailID; x = nodes[x].links[0].next {
		if x == nilID || x == headID || int(x) >= len(nodes) {
			return errors.Wrapf(ErrMalformedList, "level 0 chain broken after node %d", prev)
		}
		if count >= len(nodes) {
			return errors.Wrap(ErrMalformedList, "level 0 chain has a cycle")
		}
		n := &nodes[x]
		if n.height < 1 || n.height > l.height {
			return errors.Wrapf(ErrMalformedList, "node %d height %d not in [1, %d]", x, n.height, l.height)
		}
		if n.back != prev {
			return errors.Wrapf(ErrMalformedList, "node %d points back to %d, want %d", x, n.back, prev)
		}
		if prev != headID && l.compare(nodes[prev].key, n.key) >= 0 {
			return errors.Wrapf(ErrMalformedList, "keys out of order at node %d", x)
		}
		count++
		positions[x] = count
		for lvl := 0; lvl < n.height; lvl++ {
			perLevel[lvl]++
		}
		prev = x
	}
	if nodes[tailID].back != prev {
		return errors.Wrapf(ErrMalformedList, "tail points back to %d, want %d", nodes[tailID].back, prev)
	}
	if count != l.n {
		return errors.Wrapf(ErrMalformedList, "counted %d nodes, cardinality is %d", count, l.n)
	}
	positions[tailID] = count

	for lvl := 0; lvl < l.height; lvl++ {
		seen := 0
		for x := headID; x != tailID; {
			next := nodes[x].links[lvl].next
			if next == nilID || next == headID || int(next) >= len(nodes) {
				return errors.Wrapf(ErrBrokenLink, "node %d has no successor on level %d", x, lvl)
			}
			if next != tailID {
				if nodes[next].height <= lvl {
					return errors.Wrapf(ErrMalformedList, "node %d linked on level %d above its height", next, lvl)
				}
				if positions[next] <= positions[x] {
					return errors.Wrapf(ErrMalformedList, "level %d goes backwards at node %d", lvl, x)
				}
				seen++
			}
			if want := positions[next] - positions[x]; nodes[x].links[lvl].span != want {
				return errors.Wrapf(ErrBrokenLink, "node %d spans %d on level %d, want %d",
					x, nodes[x].links[lvl].span, lvl, want)
			}
			x = next
		}
		if seen != perLevel[lvl] {
			return errors.Wrapf(ErrMalformedList, "level %d links %d nodes, %d are that tall", lvl, seen, perLevel[lvl])
		}
	}
	if l.height > 1 && perLevel[l.height-1] == 0 {
		return errors.Wrapf(ErrMalformedList, "top level %d is empty", l.height-1)
	}

	if count > 0 {
		if l.compare(l.min, nodes[nodes[headID].links[0].next].key) != 0 {
			return errors.Wrap(ErrMalformedList, "cached min is stale")
		}
		if l.compare(l.max, nodes[nodes[tailID].back].key) != 0 {
			return errors.Wrap(ErrMalformedList, "cached max is stale")
		}
	}
	return nil
}

// Dump writes one row per node with its key, height and the span of each
// level it takes part in.
func (l *List[K, V]) Dump(w io.Writer) {
	nodes := l.arena.nodes

	header := []string{"Pos", "Key", "Height"}
	for lvl := 0; lvl < l.height; lvl++ {
		header = append(header, fmt.Sprintf("L%d", lvl))
	}

	row := func(pos, key string, id nodeID, height int) []string {
		r := []string{pos, key, strconv.Itoa(height)}
		for lvl := 0; lvl < l.height; lvl++ {
			if lvl < height {
				r = append(r, strconv.Itoa(nodes[id].links[lvl].span))
			} else {
				r = append(r, "")
			}
		}
		return r
	}

	rows := [][]string{row("head", "", headID, l.height)}
	pos := 0
	for x := nodes[headID].links[0].next; x != tailID && x != nilID; x = nodes[x].links[0].next {
		pos++
		rows = append(rows, row(strconv.Itoa(pos), fmt.Sprint(nodes[x].key), x, nodes[x].height))
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	table.SetAutoWrapText(false)
	table.AppendBulk(rows)
	table.Render()
}
