// Package runtest checks that a run.Run implementation honours the contract,
// so every implementation can be substituted for another at engine call
// sites.
package runtest

import (
	"fmt"
	"math/rand/v2"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wellls/pomegranate/run"
)

// Factory returns a new, empty run.
type Factory func(t *testing.T) run.Run[int, string]

// Exercise runs the contract checks against runs built by newRun.
func Exercise(t *testing.T, newRun Factory) {
	t.Helper()

	t.Run("scenario", func(t *testing.T) {
		r := newRun(t)
		keys := []int{5, 1, 9, 3, 7}
		values := []string{"e", "a", "i", "c", "g"}
		for i, k := range keys {
			r.Insert(k, values[i])
		}

		assert.Equal(t, []run.Pair[int, string]{
			{Key: 1, Value: "a"}, {Key: 3, Value: "c"}, {Key: 5, Value: "e"}, {Key: 7, Value: "g"}, {Key: 9, Value: "i"},
		}, r.All())
		assert.Equal(t, 5, r.Cardinality())

		got := run.Collect(r.Range(run.Include(3), run.Exclude(9)))
		assert.Equal(t, []run.Pair[int, string]{{Key: 3, Value: "c"}, {Key: 5, Value: "e"}, {Key: 7, Value: "g"}}, got)

		old, ok := r.Delete(5)
		require.True(t, ok)
		assert.Equal(t, "e", old)
		_, ok = r.Lookup(5)
		assert.False(t, ok)
		assert.Equal(t, 4, r.Cardinality())
	})

	t.Run("empty", func(t *testing.T) {
		r := newRun(t)
		assert.True(t, r.IsEmpty())
		assert.Zero(t, r.Cardinality())
		_, ok := r.Min()
		assert.False(t, ok)
		_, ok = r.Max()
		assert.False(t, ok)
		_, ok = r.Delete(1)
		assert.False(t, ok)
		assert.False(t, r.Contains(1))
		assert.Empty(t, r.All())
		assert.Empty(t, r.AllInRange(0, 10))
		assert.Zero(t, r.Range(run.Unbound[int](), run.Unbound[int]()).Len())
	})

	t.Run("update keeps cardinality", func(t *testing.T) {
		r := newRun(t)
		r.Insert(1, "one")
		r.Insert(2, "two")
		r.Insert(1, "uno")
		assert.Equal(t, 2, r.Cardinality())
		v, ok := r.Lookup(1)
		require.True(t, ok)
		assert.Equal(t, "uno", v)
	})

	t.Run("size hint is advisory", func(t *testing.T) {
		r := newRun(t)
		r.SetSizeHint(1000)
		assert.Equal(t, 1000, r.SizeHint())
		r.Insert(1, "one")
		assert.Equal(t, 1, r.Cardinality())
	})

	t.Run("ranges", func(t *testing.T) {
		r := newRun(t)
		for k := 1; k <= 9; k += 2 {
			r.Insert(k, fmt.Sprint(k))
		}

		tests := []struct {
			name   string
			lo, hi run.Bound[int]
			want   []int
		}{
			{"included both", run.Include(3), run.Include(7), []int{3, 5, 7}},
			{"excluded both", run.Exclude(3), run.Exclude(7), []int{5}},
			{"excluded absent keys", run.Exclude(2), run.Exclude(8), []int{3, 5, 7}},
			{"included absent keys", run.Include(2), run.Include(8), []int{3, 5, 7}},
			{"unbounded low", run.Unbound[int](), run.Include(3), []int{1, 3}},
			{"unbounded high", run.Include(7), run.Unbound[int](), []int{7, 9}},
			{"unbounded", run.Unbound[int](), run.Unbound[int](), []int{1, 3, 5, 7, 9}},
			{"single", run.Include(5), run.Include(5), []int{5}},
			{"empty excluded point", run.Include(5), run.Exclude(5), nil},
			{"inverted", run.Include(7), run.Include(3), nil},
			{"below min", run.Unbound[int](), run.Exclude(1), nil},
			{"above max", run.Exclude(9), run.Unbound[int](), nil},
			{"gap", run.Include(4), run.Include(4), nil},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				it := r.Range(tt.lo, tt.hi)
				var got []int
				for it.Next() {
					got = append(got, it.Key())
					assert.Equal(t, fmt.Sprint(it.Key()), it.Value())
				}
				assert.Equal(t, tt.want, got)
				assert.Equal(t, len(tt.want), it.Len())
				assert.False(t, it.Valid())

				it.Reset()
				assert.Equal(t, len(tt.want), len(run.Collect(it)), "iterator must restart")
			})
		}

		assert.Nil(t, r.AllInRange(10, 20))
		assert.Nil(t, r.AllInRange(-5, 0))
		assert.Nil(t, r.AllInRange(7, 3))
		assert.Len(t, r.AllInRange(0, 4), 2)
	})

	t.Run("model", func(t *testing.T) {
		r := newRun(t)
		model := make(map[int]string)
		rng := rand.New(rand.NewPCG(7, 11))

		for i := 0; i < 4000; i++ {
			k := rng.IntN(256)
			switch rng.IntN(3) {
			case 0, 1:
				v := fmt.Sprintf("v%d", i)
				r.Insert(k, v)
				model[k] = v
			case 2:
				old, ok := r.Delete(k)
				want, present := model[k]
				require.Equal(t, present, ok, "delete %d", k)
				if present {
					require.Equal(t, want, old)
					delete(model, k)
				}
			}
		}

		require.Equal(t, len(model), r.Cardinality())
		keys := make([]int, 0, len(model))
		for k, v := range model {
			keys = append(keys, k)
			got, ok := r.Lookup(k)
			require.True(t, ok, "lookup %d", k)
			require.Equal(t, v, got)
		}
		sort.Ints(keys)

		all := r.All()
		require.Len(t, all, len(keys))
		for i, p := range all {
			require.Equal(t, keys[i], p.Key)
		}
		if len(keys) > 0 {
			lo, _ := r.Min()
			hi, _ := r.Max()
			assert.Equal(t, keys[0], lo)
			assert.Equal(t, keys[len(keys)-1], hi)
		}
	})
}
