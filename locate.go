package sortedset

import (
	"github.com/rpcpool/sortedset/term"
)

// location is the result of locating a query term against the container:
// the owning bucket's index, its in-bucket offset, and whether the term was
// found there. Spec.md §4.3.
type location struct {
	bucketIdx int
	offset    int
	found     bool
}

// locate implements spec.md §4.3: an outer linear scan over buckets left to
// right, then an inner binary search inside the owning bucket.
//
// The outer scan is deliberate, not an oversight: bucket counts are small
// relative to N (N / bucketCapacity, with bucketCapacity ~500 by default),
// cache-friendly to walk linearly, and lookups that cluster near the low end
// of the set stop after the first few buckets; a term beyond the last bucket
// walks every bucket before falling through to the end. An outer
// binary search would also satisfy the observable contract and is not
// required against it.
func (s *SortedSet) locate(t term.Term) location {
	if len(s.buckets) == 0 {
		return location{bucketIdx: 0, offset: 0, found: false}
	}
	for i, b := range s.buckets {
		if b.Len() == 0 {
			// Only the sole bucket of an empty set may be empty
			// (spec.md §3.3 invariant 3); treat it as the owner.
			return location{bucketIdx: i, offset: 0, found: false}
		}
		if term.Compare(t, b.Last()) != term.Greater {
			r := b.Find(t)
			return location{bucketIdx: i, offset: r.Offset, found: r.Found}
		}
	}
	// t is greater than every bucket's last element: owner is the last
	// bucket, insertion point is its end.
	last := len(s.buckets) - 1
	return location{bucketIdx: last, offset: s.buckets[last].Len(), found: false}
}

// prefixLen returns the sum of bucket lengths for buckets[0:idx], i.e. the
// global index offset contributed by everything strictly before bucket idx.
func (s *SortedSet) prefixLen(idx int) int {
	n := 0
	for i := 0; i < idx; i++ {
		n += s.buckets[i].Len()
	}
	return n
}
