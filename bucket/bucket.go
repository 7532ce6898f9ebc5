// Package bucket implements the inner ordered, duplicate-free, bounded-length
// term sequence described in spec.md §4.2. All operations are a binary
// search (O(log n)) followed by an in-place slice shift (O(n)) where n is the
// bucket's current length, grounded on the teacher's own
// search-over-sorted-entries style (compactindexsized/query.go,
// bucketteer/read.go) rather than any third-party sorted-container library —
// the pack has none to reach for.
package bucket

import (
	"sort"

	"github.com/rpcpool/sortedset/term"
)

// Bucket owns an ordered sequence of Terms of length <= capacity.
type Bucket struct {
	capacity int
	items    []term.Term
}

// New returns an empty Bucket bounded at capacity.
func New(capacity int) *Bucket {
	return &Bucket{capacity: capacity}
}

// FromSorted builds a Bucket directly from an already sorted, deduplicated
// slice, without re-validating order. Used by the container's trusted bulk
// construction path (spec.md §4.4.4); items is taken by reference, not
// copied — the caller must not retain a mutable alias to it afterward.
func FromSorted(capacity int, items []term.Term) *Bucket {
	return &Bucket{capacity: capacity, items: items}
}

// Len returns the number of Terms currently in the bucket.
func (b *Bucket) Len() int { return len(b.items) }

// Capacity returns the configured upper bound for this bucket's length.
func (b *Bucket) Capacity() int { return b.capacity }

// First returns the smallest Term in the bucket. Panics if empty; callers
// must check Len() first.
func (b *Bucket) First() term.Term { return b.items[0] }

// Last returns the largest Term in the bucket. Panics if empty.
func (b *Bucket) Last() term.Term { return b.items[len(b.items)-1] }

// At returns the Term at the given in-bucket offset. Panics if out of range;
// the container is responsible for bounds-checking against the global index
// before calling down into a bucket.
func (b *Bucket) At(offset int) term.Term { return b.items[offset] }

// Items returns the bucket's backing slice directly, for callers (the
// container) that need to read a contiguous run without a copy. Callers
// must treat the result as read-only.
func (b *Bucket) Items() []term.Term { return b.items }

// search returns the insertion point: the first index i such that
// items[i] >= t. If t is present, i is its offset; len(items) means t would
// sort at the end.
func (b *Bucket) search(t term.Term) int {
	return sort.Search(len(b.items), func(i int) bool {
		return term.Compare(b.items[i], t) != term.Less
	})
}

// FindResult is the outcome of Find: either the term's offset (Found) or the
// offset it would be inserted at (NotFound).
type FindResult struct {
	Offset int
	Found  bool
}

// Find locates t by binary search.
func (b *Bucket) Find(t term.Term) FindResult {
	i := b.search(t)
	if i < len(b.items) && term.Equal(b.items[i], t) {
		return FindResult{Offset: i, Found: true}
	}
	return FindResult{Offset: i, Found: false}
}

// InsertResult is the outcome of Insert.
type InsertResult struct {
	Offset    int
	Inserted  bool // false means Duplicate
}

// Insert finds t; if already present, it reports Duplicate at its existing
// offset and leaves the bucket unchanged. Otherwise it splices t in at the
// insertion offset and reports Inserted. The caller (the container) is
// responsible for checking Len() against capacity before or after calling
// Insert and splitting accordingly — Insert itself does not enforce
// capacity, so it can be used to momentarily overflow by exactly one slot as
// spec.md §4.4.1 describes.
func (b *Bucket) Insert(t term.Term) InsertResult {
	r := b.Find(t)
	if r.Found {
		return InsertResult{Offset: r.Offset, Inserted: false}
	}
	b.items = append(b.items, term.Term{})
	copy(b.items[r.Offset+1:], b.items[r.Offset:])
	b.items[r.Offset] = t
	return InsertResult{Offset: r.Offset, Inserted: true}
}

// RemoveResult is the outcome of Remove.
type RemoveResult struct {
	Offset  int
	Removed bool
}

// Remove finds and splices t out of the bucket, if present.
func (b *Bucket) Remove(t term.Term) RemoveResult {
	r := b.Find(t)
	if !r.Found {
		return RemoveResult{Removed: false}
	}
	copy(b.items[r.Offset:], b.items[r.Offset+1:])
	b.items = b.items[:len(b.items)-1]
	return RemoveResult{Offset: r.Offset, Removed: true}
}

// SplitAtMidpoint splits the bucket in half, returning the left and right
// halves as two new Buckets sharing the same capacity. Used by the
// container when a bucket reaches capacity+1 (spec.md §4.4.1 step 3b).
func (b *Bucket) SplitAtMidpoint() (left, right *Bucket) {
	mid := len(b.items) / 2
	l := make([]term.Term, mid)
	r := make([]term.Term, len(b.items)-mid)
	copy(l, b.items[:mid])
	copy(r, b.items[mid:])
	return FromSorted(b.capacity, l), FromSorted(b.capacity, r)
}
