package sortedset_test

import (
	"fmt"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rpcpool/sortedset"
	"github.com/rpcpool/sortedset/term"
)

func i(n int64) term.Term { return term.NewIntegerFromInt64(n) }

// TestBasicInsertAndOrder is spec.md §8.2 scenario 1.
func TestBasicInsertAndOrder(t *testing.T) {
	s := sortedset.New(2, 2)
	s.Add(i(1))
	s.Add(i(3))
	s.Add(i(2))

	require.Equal(t, []int64{1, 2, 3}, toInt64s(s.ToList()))
	require.Equal(t, 3, s.Size())
	idx, found := s.FindIndex(i(2))
	require.True(t, found)
	require.Equal(t, 1, idx)
}

// TestDuplicateHandling is spec.md §8.2 scenario 2.
func TestDuplicateHandling(t *testing.T) {
	s := sortedset.New(2, 2)
	r1 := s.Add(i(5))
	require.True(t, r1.Added)
	require.Equal(t, 0, r1.Index)

	r2 := s.Add(i(5))
	require.False(t, r2.Added)
	require.Equal(t, 0, r2.Index)
	require.Equal(t, 1, s.Size())
}

// TestCrossTypeOrdering is spec.md §8.2 scenario 3.
func TestCrossTypeOrdering(t *testing.T) {
	s := sortedset.New(5, 5)
	s.Add(i(1))
	s.Add(term.NewBitstring("a"))
	s.Add(term.NewAtom("atom"))
	s.Add(term.NewList(i(1)))
	s.Add(term.NewTuple(i(1)))

	list := s.ToList()
	require.Len(t, list, 5)
	require.Equal(t, term.KindInteger, list[0].Kind())
	require.Equal(t, term.KindAtom, list[1].Kind())
	require.Equal(t, term.KindBitstring, list[2].Kind())
	require.Equal(t, term.KindList, list[3].Kind())
	require.Equal(t, term.KindTuple, list[4].Kind())
}

// TestRemovalWithIndex is spec.md §8.2 scenario 4.
func TestRemovalWithIndex(t *testing.T) {
	s := sortedset.Empty(4, 5)
	require.NoError(t, s.AppendBucket(intTerms(2, 4)))
	require.NoError(t, s.AppendBucket(intTerms(6, 8)))
	require.NoError(t, s.AppendBucket(intTerms(10, 12)))
	require.NoError(t, s.AppendBucket(intTerms(14, 16, 18)))

	r := s.Remove(i(10))
	require.True(t, r.Removed)
	require.Equal(t, 4, r.Index)
	require.Equal(t, []int64{2, 4, 6, 8, 12, 14, 16, 18}, toInt64s(s.ToList()))
	require.Equal(t, 8, s.Size())
}

// TestSliceAcrossBuckets is spec.md §8.2 scenario 5.
func TestSliceAcrossBuckets(t *testing.T) {
	s := sortedset.Empty(4, 5)
	require.NoError(t, s.AppendBucket(intTerms(2, 4)))
	require.NoError(t, s.AppendBucket(intTerms(6, 8)))
	require.NoError(t, s.AppendBucket(intTerms(10, 12)))
	require.NoError(t, s.AppendBucket(intTerms(14, 16, 18)))

	require.Equal(t, []int64{4, 6, 8, 10}, toInt64s(s.Slice(1, 4)))
	require.Equal(t, []int64{8, 10, 12, 14, 16, 18}, toInt64s(s.Slice(3, 10)))
	require.Equal(t, []int64{}, toInt64s(s.Slice(15, 15)))
}

// TestTypeRejectionIsDeep is spec.md §8.2 scenario 6: admission happens
// before the container ever sees the value, so the container itself never
// observes a rejected term — this test exercises that boundary directly.
func TestTypeRejectionIsDeep(t *testing.T) {
	_, err := term.Admit([]term.Raw{1, term.Atom("a"), 3.4})
	require.ErrorIs(t, err, term.ErrUnsupportedType)
}

func TestSplitOnOverflow(t *testing.T) {
	s := sortedset.New(2, 2)
	for _, v := range []int64{1, 2, 3} {
		s.Add(i(v))
	}
	require.Equal(t, 3, s.Size())
	require.Equal(t, []int64{1, 2, 3}, toInt64s(s.ToList()))
	require.Contains(t, s.Debug(), "buckets=2")
}

func TestRemoveDropsEmptyBucketButKeepsSoleBucketOfEmptySet(t *testing.T) {
	s := sortedset.New(2, 2)
	s.Add(i(1))
	r := s.Remove(i(1))
	require.True(t, r.Removed)
	require.Equal(t, 0, s.Size())
	require.Equal(t, []int64{}, toInt64s(s.ToList()))
	require.Contains(t, s.Debug(), "buckets=1")

	// 1, 2, 3 split into [1] and [2, 3]; removing 1 empties the first bucket.
	for _, v := range []int64{1, 2, 3} {
		s.Add(i(v))
	}
	require.Contains(t, s.Debug(), "buckets=2")
	s.Remove(i(1))
	require.Contains(t, s.Debug(), "buckets=1")
	require.Equal(t, []int64{2, 3}, toInt64s(s.ToList()))
}

func TestAppendBucketRejectsAtCapacity(t *testing.T) {
	s := sortedset.Empty(2, 3)
	err := s.AppendBucket(intTerms(1, 2, 3))
	require.ErrorIs(t, err, sortedset.ErrMaxBucketSizeExceeded)
}

func TestAppendBucketMergesIntoSoleEmptyBucket(t *testing.T) {
	s := sortedset.Empty(2, 5)
	require.NoError(t, s.AppendBucket(intTerms(1, 2)))
	require.Equal(t, 2, s.Size())
	require.Equal(t, []int64{1, 2}, toInt64s(s.ToList()))
}

func TestContains(t *testing.T) {
	s := sortedset.New(2, 2)
	s.Add(i(1))
	require.True(t, s.Contains(i(1)))
	require.False(t, s.Contains(i(2)))
}

func TestClone(t *testing.T) {
	s := sortedset.New(2, 2)
	s.Add(i(1))
	s.Add(i(2))
	s.Add(i(3))

	clone := s.Clone()
	require.Equal(t, toInt64s(s.ToList()), toInt64s(clone.ToList()))

	clone.Add(i(4))
	require.NotEqual(t, s.Size(), clone.Size())
}

// TestIdempotentAdd is spec.md §8.1 property 5.
func TestIdempotentAdd(t *testing.T) {
	s := sortedset.New(2, 2)
	r1 := s.Add(i(7))
	r2 := s.Add(i(7))
	require.True(t, r1.Added)
	require.False(t, r2.Added)
	require.Equal(t, r1.Index, r2.Index)
}

// TestInverseLaws is spec.md §8.1 property 6.
func TestInverseLaws(t *testing.T) {
	s := sortedset.New(2, 2)
	s.Add(i(1))
	s.Add(i(3))
	before := toInt64s(s.ToList())
	beforeSize := s.Size()

	s.Add(i(2))
	s.Remove(i(2))

	require.Equal(t, before, toInt64s(s.ToList()))
	require.Equal(t, beforeSize, s.Size())
}

// TestIndexAtRoundtrip is spec.md §8.1 property 7.
func TestIndexAtRoundtrip(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	s := sortedset.New(2, 4)
	values := uniqueRandomInts(rng, 50)
	for _, v := range values {
		s.Add(i(v))
	}
	for _, v := range values {
		idx, found := s.FindIndex(i(v))
		require.True(t, found)
		got, ok := s.At(idx)
		require.True(t, ok)
		require.Equal(t, v, got.Int().Int64())
	}
}

// TestSliceLaw is spec.md §8.1 property 8.
func TestSliceLaw(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	s := sortedset.New(2, 4)
	values := uniqueRandomInts(rng, 80)
	for _, v := range values {
		s.Add(i(v))
	}
	full := toInt64s(s.ToList())

	for trial := 0; trial < 20; trial++ {
		start := rng.Intn(len(full) + 5)
		amount := rng.Intn(10)
		got := toInt64s(s.Slice(start, amount))

		end := start + amount
		if end > len(full) {
			end = len(full)
		}
		want := []int64{}
		if start < len(full) {
			want = append(want, full[start:end]...)
		}
		require.Equal(t, want, got, "start=%d amount=%d", start, amount)
	}
}

// TestFromEnumerableEquivalence is spec.md §8.1 property 9.
func TestFromEnumerableEquivalence(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	values := uniqueRandomInts(rng, 120)

	sortedWant := append([]int64(nil), values...)
	sort.Slice(sortedWant, func(a, b int) bool { return sortedWant[a] < sortedWant[b] })

	perm := rng.Perm(len(values))
	s := sortedset.New(2, 8)
	for _, idx := range perm {
		s.Add(i(values[idx]))
	}
	require.Equal(t, sortedWant, toInt64s(s.ToList()))
	require.Equal(t, len(sortedWant), s.Size())
}

// TestAllInvariantsUnderRandomOps exercises spec.md §8.1 properties 1-3
// under a long randomized sequence of Add/Remove.
func TestAllInvariantsUnderRandomOps(t *testing.T) {
	rng := rand.New(rand.NewSource(2024))
	s := sortedset.New(2, 4)
	present := map[int64]bool{}

	for op := 0; op < 2000; op++ {
		v := rng.Int63n(300)
		if rng.Intn(2) == 0 {
			s.Add(i(v))
			present[v] = true
		} else {
			s.Remove(i(v))
			delete(present, v)
		}
		assertInvariants(t, s, present)
	}
}

func assertInvariants(t *testing.T, s *sortedset.SortedSet, present map[int64]bool) {
	t.Helper()
	list := toInt64s(s.ToList())

	// Property 1: strictly increasing.
	for i := 1; i < len(list); i++ {
		require.Less(t, list[i-1], list[i])
	}
	// Property 2: uniqueness (implied by strictly increasing, checked anyway).
	seen := map[int64]bool{}
	for _, v := range list {
		require.False(t, seen[v], "duplicate %d", v)
		seen[v] = true
	}
	// Property 3: size coherence.
	require.Equal(t, len(list), s.Size())
	require.Equal(t, len(present), len(list))
	for v := range present {
		require.Contains(t, list, v)
	}
}

func uniqueRandomInts(rng *rand.Rand, n int) []int64 {
	seen := map[int64]bool{}
	out := make([]int64, 0, n)
	for len(out) < n {
		v := rng.Int63n(int64(n * 10))
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

func intTerms(vs ...int64) []term.Term {
	out := make([]term.Term, len(vs))
	for idx, v := range vs {
		out[idx] = i(v)
	}
	return out
}

func toInt64s(ts []term.Term) []int64 {
	out := make([]int64, len(ts))
	for i, t := range ts {
		out[i] = t.Int().Int64()
	}
	return out
}

func ExampleSortedSet_Debug() {
	s := sortedset.New(2, 2)
	s.Add(i(1))
	fmt.Print(len(s.Debug()) > 0)
	// Output: true
}
