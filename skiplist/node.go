package skiplist

// nodeID is a stable handle into the arena.
type nodeID int32

const (
	nilID  nodeID = -1
	headID nodeID = 0
	tailID nodeID = 1
)

// link is one forward edge. span counts the real nodes after the owner up to
// and including next; an edge into the tail counts every remaining node.
type link struct {
	next nodeID
	span int
}

// node holds a key/value pair and its per-level links. Sentinels leave key
// and value at their zero values.
type node[K, V any] struct {
	key   K
	value V
	// height is the number of live entries in links.
	height int
	links  []link
	// back is the level-0 predecessor.
	back nodeID
}
