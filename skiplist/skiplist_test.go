package skiplist

import (
	"bytes"
	"fmt"
	"math/rand/v2"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wellls/pomegranate/run"
	"github.com/wellls/pomegranate/run/runtest"
)

func newTestList[K int | string, V any](t *testing.T, opts ...func(*Config)) *List[K, V] {
	t.Helper()
	list, err := New[K, V](opts...)
	require.NoError(t, err)
	return list
}

// sequence hands out the given heights in order, then repeats the last one.
func sequence(heights ...int) HeightFunc {
	i := 0
	return func() int {
		h := heights[min(i, len(heights)-1)]
		i++
		return h
	}
}

func assertConsistent[K, V any](t *testing.T, list *List[K, V]) {
	t.Helper()
	if err := list.Verify(); err != nil {
		var buf bytes.Buffer
		list.Dump(&buf)
		t.Fatalf("inconsistent list: %+v\n%s", err, buf.String())
	}
}

// assertPanicsWith checks that f panics with an error matching target.
func assertPanicsWith(t *testing.T, target error, f func()) {
	t.Helper()
	defer func() {
		r := recover()
		require.NotNil(t, r, "expected a panic")
		err, ok := r.(error)
		require.True(t, ok, "panic value %v is not an error", r)
		assert.ErrorIs(t, err, target)
	}()
	f()
}

func TestList_Contract(t *testing.T) {
	t.Parallel()
	runtest.Exercise(t, func(t *testing.T) run.Run[int, string] {
		return newTestList[int, string](t)
	})
}

func TestList_New(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		opts []func(*Config)
		err  error
	}{
		{name: "defaults"},
		{name: "max height one", opts: []func(*Config){WithMaxHeight(1)}},
		{name: "max height ceiling", opts: []func(*Config){WithMaxHeight(MaxHeight)}},
		{name: "zero height", opts: []func(*Config){WithMaxHeight(0)}, err: ErrInvalidHeight},
		{name: "height above ceiling", opts: []func(*Config){WithMaxHeight(MaxHeight + 1)}, err: ErrInvalidHeight},
		{name: "zero probability", opts: []func(*Config){WithProbability(0)}, err: ErrInvalidProbability},
		{name: "probability one", opts: []func(*Config){WithProbability(1)}, err: ErrInvalidProbability},
		{
			name: "custom generator ignores probability",
			opts: []func(*Config){WithProbability(0), WithHeightGenerator(sequence(1))},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, err := New[int, int](tt.opts...)
			if tt.err != nil {
				require.ErrorIs(t, err, tt.err)
				assert.Nil(t, list)
				return
			}
			require.NoError(t, err)
			assert.True(t, list.IsEmpty())
			assert.Equal(t, 1, list.Height())
			assertConsistent(t, list)
		})
	}

	t.Run("nil compare", func(t *testing.T) {
		list, err := NewFunc[int, int](nil)
		require.ErrorIs(t, err, ErrMalformedList)
		assert.Nil(t, list)
	})
}

func TestList_Insert(t *testing.T) {
	t.Parallel()

	t.Run("assert all added values", func(t *testing.T) {
		list := newTestList[string, int](t)
		data := []int{6, 3, 5, 8, 1, 2, 8}
		for _, v := range data {
			list.Insert(fmt.Sprintf("k:%d", v), v)
		}

		for _, v := range data {
			got, ok := list.Lookup(fmt.Sprintf("k:%d", v))
			require.True(t, ok)
			assert.Equal(t, v, got)
		}
		// data holds "8" twice
		assert.Equal(t, 6, list.Cardinality())
		assertConsistent(t, list)
	})

	t.Run("override existing key", func(t *testing.T) {
		list := newTestList[string, int](t)
		for _, v := range []int{6, 3, 5} {
			list.Insert(fmt.Sprintf("k:%d", v), v)
		}
		list.Insert("k:3", 300)

		got, ok := list.Lookup("k:3")
		require.True(t, ok)
		assert.Equal(t, 300, got)
		assert.Equal(t, 3, list.Cardinality())
		assertConsistent(t, list)
	})

	t.Run("heights outside the range are clamped", func(t *testing.T) {
		list := newTestList[int, int](t, WithMaxHeight(4), WithHeightGenerator(sequence(100, -3, 0, 4)))
		for i := 1; i <= 4; i++ {
			list.Insert(i, i)
		}
		assert.Equal(t, 4, list.Height())
		assert.Equal(t, 4, list.arena.nodes[mustFind(t, list, 1)].height)
		assert.Equal(t, 1, list.arena.nodes[mustFind(t, list, 2)].height)
		assert.Equal(t, 1, list.arena.nodes[mustFind(t, list, 3)].height)
		assertConsistent(t, list)
	})
}

func mustFind[K, V any](t *testing.T, list *List[K, V], key K) nodeID {
	t.Helper()
	id, ok := list.find(key)
	require.True(t, ok, "key %v", key)
	return id
}

func TestList_SpanRepair(t *testing.T) {
	t.Parallel()

	list := newTestList[int, string](t, WithMaxHeight(4), WithHeightGenerator(sequence(3, 1, 2, 1, 3)))
	for _, k := range []int{10, 20, 30, 40, 50} {
		list.Insert(k, fmt.Sprint(k))
	}
	assertConsistent(t, list)
	require.Equal(t, 3, list.Height())

	spans := func(key int, level int) (int, int) {
		id := headID
		if key != 0 {
			id = mustFind(t, list, key)
		}
		ln := list.arena.nodes[id].links[level]
		next := 0
		if ln.next != tailID {
			next = list.arena.nodes[ln.next].key
		}
		return next, ln.span
	}

	tests := []struct {
		key, level, next, span int
	}{
		{0, 2, 10, 1},
		{10, 2, 50, 4},
		{50, 2, 0, 0},
		{0, 1, 10, 1},
		{10, 1, 30, 2},
		{30, 1, 50, 2},
		{50, 1, 0, 0},
		{40, 0, 50, 1},
	}
	for _, tt := range tests {
		next, span := spans(tt.key, tt.level)
		assert.Equal(t, tt.next, next, "next of %d on level %d", tt.key, tt.level)
		assert.Equal(t, tt.span, span, "span of %d on level %d", tt.key, tt.level)
	}

	// Removing a tall node folds its spans into the predecessor.
	_, ok := list.Delete(10)
	require.True(t, ok)
	assertConsistent(t, list)
	next, span := spans(0, 2)
	assert.Equal(t, 50, next)
	assert.Equal(t, 4, span)
	next, span = spans(0, 1)
	assert.Equal(t, 30, next)
	assert.Equal(t, 2, span)

	// Removing the last tall node lowers the list.
	_, ok = list.Delete(50)
	require.True(t, ok)
	assertConsistent(t, list)
	assert.Equal(t, 2, list.Height())
}

func TestList_Delete(t *testing.T) {
	t.Parallel()

	list := newTestList[string, int](t)
	data := []int{6, 3, 5, 8, 1, 2, 9}
	for _, v := range data {
		list.Insert(fmt.Sprintf("k:%d", v), v)
	}
	length := len(data)

	tests := []struct {
		name, key string
		existing  bool
	}{
		{name: "remove first value", key: "k:1", existing: true},
		{name: "remove mid value", key: "k:5", existing: true},
		{name: "remove last value", key: "k:9", existing: true},
		{name: "remove absent value", key: "k:100", existing: false},
		{name: "remove twice", key: "k:5", existing: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := list.Delete(tt.key)
			assert.Equal(t, tt.existing, ok)
			if tt.existing {
				length--
			}

			_, found := list.Lookup(tt.key)
			assert.False(t, found)
			assert.False(t, list.Contains(tt.key))
			assert.Equal(t, length, list.Cardinality())
			assertConsistent(t, list)
		})
	}

	lo, _ := list.Min()
	hi, _ := list.Max()
	assert.Equal(t, "k:2", lo)
	assert.Equal(t, "k:8", hi)

	for _, v := range []int{2, 3, 6, 8} {
		_, ok := list.Delete(fmt.Sprintf("k:%d", v))
		require.True(t, ok)
	}
	assert.True(t, list.IsEmpty())
	assert.Equal(t, 1, list.Height())
	_, ok := list.Min()
	assert.False(t, ok)
	assertConsistent(t, list)
}

func TestList_RankQueries(t *testing.T) {
	t.Parallel()

	list := newTestList[int, int](t)
	for k := 10; k <= 100; k += 10 {
		list.Insert(k, k)
	}

	rank, ok := list.Rank(10)
	require.True(t, ok)
	assert.Equal(t, 1, rank)
	rank, ok = list.Rank(70)
	require.True(t, ok)
	assert.Equal(t, 7, rank)
	_, ok = list.Rank(75)
	assert.False(t, ok)
	_, ok = list.Rank(5)
	assert.False(t, ok)

	k, v, ok := list.At(4)
	require.True(t, ok)
	assert.Equal(t, 40, k)
	assert.Equal(t, 40, v)
	_, _, ok = list.At(0)
	assert.False(t, ok)
	_, _, ok = list.At(11)
	assert.False(t, ok)

	d, err := list.Distance(20, 90)
	require.NoError(t, err)
	assert.Equal(t, 7, d)
	d, err = list.Distance(90, 20)
	require.NoError(t, err)
	assert.Equal(t, -7, d)
	d, err = list.Distance(30, 30)
	require.NoError(t, err)
	assert.Zero(t, d)
	_, err = list.Distance(20, 25)
	require.ErrorIs(t, err, ErrKeyNotFound)

	assert.Equal(t, 10, list.Count(run.Unbound[int](), run.Unbound[int]()))
	assert.Equal(t, 3, list.Count(run.Include(20), run.Exclude(50)))
	assert.Equal(t, 0, list.Count(run.Exclude(100), run.Unbound[int]()))
}

func TestList_RankMatchesScan(t *testing.T) {
	t.Parallel()

	for _, seed := range []uint64{1, 2, 3} {
		t.Run(fmt.Sprintf("seed %d", seed), func(t *testing.T) {
			rng := rand.New(rand.NewPCG(seed, seed*31))
			heights := NewGeometricHeights(8, DefaultProbability, rand.NewPCG(seed, 99))
			list := newTestList[int, int](t, WithMaxHeight(8), WithHeightGenerator(heights))
			model := make(map[int]int)

			for round := 0; round < 20; round++ {
				for i := 0; i < 200; i++ {
					k := rng.IntN(500)
					if rng.IntN(3) == 0 {
						list.Delete(k)
						delete(model, k)
					} else {
						list.Insert(k, i)
						model[k] = i
					}
				}
				assertConsistent(t, list)

				keys := make([]int, 0, len(model))
				for k := range model {
					keys = append(keys, k)
				}
				sort.Ints(keys)
				require.Equal(t, len(keys), list.Cardinality())

				for i, k := range keys {
					rank, ok := list.Rank(k)
					require.True(t, ok)
					require.Equal(t, i+1, rank, "rank of %d", k)

					got, _, ok := list.At(i + 1)
					require.True(t, ok)
					require.Equal(t, k, got)
				}

				for i := 0; i < 20; i++ {
					a, b := rng.IntN(520)-10, rng.IntN(520)-10
					want := 0
					for _, k := range keys {
						if k > a && k <= b {
							want++
						}
					}
					require.Equal(t, want, list.Count(run.Exclude(a), run.Include(b)), "count (%d, %d]", a, b)
				}

				if len(keys) > 1 {
					i, j := rng.IntN(len(keys)), rng.IntN(len(keys))
					d, err := list.Distance(keys[i], keys[j])
					require.NoError(t, err)
					require.Equal(t, j-i, d)
				}
			}
		})
	}
}

func TestList_LinkLength(t *testing.T) {
	t.Parallel()

	list := newTestList[int, int](t, WithMaxHeight(4), WithHeightGenerator(sequence(2, 1, 2, 1)))
	for _, k := range []int{1, 2, 3, 4} {
		list.Insert(k, k)
	}
	one, three := mustFind(t, list, 1), mustFind(t, list, 3)

	d, err := list.linkLength(headID, tailID, 0)
	require.NoError(t, err)
	assert.Equal(t, 4, d)
	d, err = list.linkLength(one, three, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, d)

	t.Run("end behind start", func(t *testing.T) {
		_, err := list.linkLength(three, one, 1)
		require.ErrorIs(t, err, ErrBrokenLink)
	})

	t.Run("start below level", func(t *testing.T) {
		_, err := list.linkLength(mustFind(t, list, 2), three, 1)
		require.ErrorIs(t, err, ErrBrokenLink)
	})

	t.Run("level above height", func(t *testing.T) {
		_, err := list.linkLength(headID, tailID, 3)
		require.ErrorIs(t, err, ErrBrokenLink)
	})
}

func TestList_CorruptionIsLoud(t *testing.T) {
	t.Parallel()

	t.Run("sentinel reached mid search", func(t *testing.T) {
		list := newTestList[int, int](t, WithHeightGenerator(sequence(1)))
		list.Insert(1, 1)
		list.Insert(2, 2)
		list.arena.nodes[mustFind(t, list, 1)].links[0].next = headID

		assert.Panics(t, func() { list.Lookup(5) })
		require.Error(t, list.Verify())
	})

	t.Run("broken span", func(t *testing.T) {
		list := newTestList[int, int](t, WithHeightGenerator(sequence(2)))
		list.Insert(1, 1)
		list.Insert(2, 2)
		list.arena.nodes[headID].links[1].span = 7

		require.ErrorIs(t, list.Verify(), ErrBrokenLink)
	})

	t.Run("nil successor", func(t *testing.T) {
		list := newTestList[int, int](t, WithHeightGenerator(sequence(1)))
		list.Insert(1, 1)
		list.Insert(2, 2)
		list.arena.nodes[mustFind(t, list, 2)].links[0].next = nilID

		assertPanicsWith(t, ErrMalformedList, func() { list.Lookup(5) })
		assertPanicsWith(t, ErrMalformedList, func() { list.Insert(5, 5) })
		assertPanicsWith(t, ErrMalformedList, func() { list.Delete(5) })
	})

	t.Run("position beyond spans", func(t *testing.T) {
		list := newTestList[int, int](t, WithHeightGenerator(sequence(1)))
		for k := 1; k <= 3; k++ {
			list.Insert(k, k)
		}
		list.arena.nodes[headID].links[0].span = 5

		assertPanicsWith(t, ErrBrokenLink, func() { list.At(2) })
	})

	t.Run("span contradicts key order", func(t *testing.T) {
		list := newTestList[int, int](t, WithHeightGenerator(sequence(1)))
		for k := 1; k <= 3; k++ {
			list.Insert(k, k)
		}
		list.arena.nodes[mustFind(t, list, 1)].links[0].span = 0

		assertPanicsWith(t, ErrBrokenLink, func() { list.Count(run.Include(2), run.Include(2)) })
		assertPanicsWith(t, ErrBrokenLink, func() { list.Range(run.Include(2), run.Include(2)) })
	})

	t.Run("distance over a broken path", func(t *testing.T) {
		list := newTestList[int, int](t, WithMaxHeight(4), WithHeightGenerator(sequence(1, 2, 2)))
		for k := 1; k <= 3; k++ {
			list.Insert(k, k)
		}
		// Neither lookup follows the link out of 1.
		list.arena.nodes[mustFind(t, list, 1)].links[0].next = nilID

		_, err := list.Distance(1, 3)
		require.ErrorIs(t, err, ErrBrokenLink)
		_, err = list.Distance(3, 1)
		require.ErrorIs(t, err, ErrBrokenLink)
	})

	t.Run("disconnected range endpoints", func(t *testing.T) {
		list := newTestList[int, int](t, WithHeightGenerator(sequence(1)))
		for k := 1; k <= 3; k++ {
			list.Insert(k, k)
		}
		list.arena.nodes[mustFind(t, list, 1)].links[0].next = nilID

		assert.Panics(t, func() { list.Range(run.Include(1), run.Include(3)) })
	})
}

// Not parallel: installs the package step hook.
func TestList_QueriesAreLogarithmic(t *testing.T) {
	const n = 1 << 14
	heights := NewGeometricHeights(DefaultMaxHeight, DefaultProbability, rand.NewPCG(5, 8))
	list := newTestList[int, int](t, WithHeightGenerator(heights))
	for i := 0; i < n; i++ {
		list.Insert(i, i)
	}

	steps := 0
	stepHook = func(int) { steps++ }
	defer func() { stepHook = nil }()
	measure := func(f func()) int {
		steps = 0
		f()
		return steps
	}

	// A level-0 walk would take n/4 steps for each of these queries.
	const limit = 16 * DefaultMaxHeight
	for lo := 0; lo < n/2; lo += n / 64 {
		hi := lo + n/4

		var count int
		assert.Less(t, measure(func() { count = list.Count(run.Include(lo), run.Include(hi)) }), limit, "count from %d", lo)
		require.Equal(t, hi-lo+1, count)

		var it run.Iterator[int, int]
		assert.Less(t, measure(func() { it = list.Range(run.Exclude(lo), run.Exclude(hi)) }), limit, "range from %d", lo)
		require.Equal(t, hi-lo-1, it.Len())

		var d int
		var err error
		assert.Less(t, measure(func() { d, err = list.Distance(lo, hi) }), 2*limit, "distance from %d", lo)
		require.NoError(t, err)
		require.Equal(t, hi-lo, d)
	}
}

func TestArena_Limit(t *testing.T) {
	t.Parallel()

	a := newArena[int, int](4, 0)
	a.limit = 3
	id := a.alloc(1, 1, 1)
	assert.Equal(t, nodeID(2), id)
	assertPanicsWith(t, ErrMalformedList, func() { a.alloc(2, 2, 1) })

	// Released slots stay available at the limit.
	a.release(id)
	assert.Equal(t, id, a.alloc(3, 3, 1))
}

func TestList_Release(t *testing.T) {
	t.Parallel()

	list := newTestList[int, string](t)
	for i := 0; i < 1000; i++ {
		list.Insert(i, fmt.Sprint(i))
	}
	slots := len(list.arena.nodes)

	list.Release()
	assert.True(t, list.IsEmpty())
	assert.Equal(t, 1, list.Height())
	assert.Len(t, list.arena.free, 1000)
	for _, n := range list.arena.nodes[2:] {
		assert.Empty(t, n.value)
	}
	assertConsistent(t, list)

	for i := 0; i < 1000; i++ {
		list.Insert(i, "again")
	}
	assert.Equal(t, slots, len(list.arena.nodes), "released slots are reused")
	assert.Equal(t, 1000, list.Cardinality())
	assertConsistent(t, list)
}

func TestList_SizeHint(t *testing.T) {
	t.Parallel()

	list := newTestList[int, int](t, WithSizeHint(64))
	assert.Equal(t, 64, list.SizeHint())
	assert.GreaterOrEqual(t, cap(list.arena.nodes), 66)

	list.SetSizeHint(4096)
	assert.Equal(t, 4096, list.SizeHint())
	assert.GreaterOrEqual(t, cap(list.arena.nodes), 4098)

	list.SetSizeHint(-1)
	assert.Zero(t, list.SizeHint())
}

func TestList_CustomCompare(t *testing.T) {
	t.Parallel()

	desc := func(a, b string) int { return strings.Compare(b, a) }
	list, err := NewFunc[string, int](desc)
	require.NoError(t, err)

	for i, k := range []string{"b", "d", "a", "c"} {
		list.Insert(k, i)
	}
	var keys []string
	for _, p := range list.All() {
		keys = append(keys, p.Key)
	}
	assert.Equal(t, []string{"d", "c", "b", "a"}, keys)

	lo, _ := list.Min()
	assert.Equal(t, "d", lo)
	assertConsistent(t, list)
}

func TestList_Dump(t *testing.T) {
	t.Parallel()

	list := newTestList[string, int](t, WithHeightGenerator(sequence(2, 1)))
	list.Insert("apple", 1)
	list.Insert("banana", 2)

	var buf bytes.Buffer
	list.Dump(&buf)
	out := buf.String()
	assert.Contains(t, out, "head")
	assert.Contains(t, out, "apple")
	assert.Contains(t, out, "banana")
}

func BenchmarkList_Insert(b *testing.B) {
	list, err := New[int, int]()
	require.NoError(b, err)
	rng := rand.New(rand.NewPCG(1, 2))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		list.Insert(rng.IntN(1<<20), i)
	}
}

func BenchmarkList_Count(b *testing.B) {
	list, err := New[int, int]()
	require.NoError(b, err)
	for i := 0; i < 1<<16; i++ {
		list.Insert(i, i)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		lo := i % (1 << 15)
		list.Count(run.Include(lo), run.Include(lo+1<<14))
	}
}
