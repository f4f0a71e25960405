package skiplist

import (
	"math/bits"
	"math/rand/v2"
)

// HeightGenerator decides how many levels a newly inserted node joins.
type HeightGenerator interface {
	NextHeight() int
}

// HeightFunc adapts an ordinary function to HeightGenerator.
type HeightFunc func() int

// NextHeight implements HeightGenerator.
func (f HeightFunc) NextHeight() int {
	return f()
}

const float64Unit = 1.0 / (1 << 53)

// GeometricHeights draws heights from a geometric distribution with
// parameter p, truncated at a maximum. It is not safe for concurrent use.
type GeometricHeights struct {
	max int
	p   float64
	src rand.Source
}

// NewGeometricHeights returns a generator for heights in [1, maxHeight].
// A nil src is replaced by a randomly seeded PCG.
func NewGeometricHeights(maxHeight int, p float64, src rand.Source) *GeometricHeights {
	if src == nil {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
	return &GeometricHeights{max: maxHeight, p: p, src: src}
}

// NextHeight implements HeightGenerator.
func (g *GeometricHeights) NextHeight() int {
	height := 1
	if g.max <= 1 {
		return height
	}

	// With p = 1/2 every trailing zero bit is one successful promotion.
	if g.p == 0.5 {
		zeros := bits.TrailingZeros64(g.src.Uint64())
		if zeros > g.max-1 {
			zeros = g.max - 1
		}
		return height + zeros
	}

	for height < g.max {
		if float64(g.src.Uint64()>>11)*float64Unit >= g.p {
			break
		}
		height++
	}
	return height
}
