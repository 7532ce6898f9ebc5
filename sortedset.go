// Package sortedset implements the bucketed ordered-set container of
// spec.md §3–§4: an outer ordered sequence of bounded-length inner Buckets,
// a locator mapping terms to (bucket, offset) coordinates, split-on-overflow
// with no merge-on-underflow, and a non-blocking single-mutex concurrency
// wrapper (LockedSet, in lockedset.go).
package sortedset

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rpcpool/sortedset/bucket"
	"github.com/rpcpool/sortedset/term"
)

// ErrMaxBucketSizeExceeded is returned by AppendBucket when the supplied
// batch would not leave the new trailing bucket any headroom (spec.md
// §4.4.4; see DESIGN.md for why the boundary is "< bucketCapacity" and not
// "<= bucketCapacity").
var ErrMaxBucketSizeExceeded = errors.New("sortedset: batch size meets or exceeds bucket capacity")

// SortedSet is the two-level bucketed container described in spec.md §3.3.
// It is not safe for concurrent use by itself; LockedSet provides the
// single-mutex, try-acquire discipline spec.md §4.5 requires at the
// boundary.
type SortedSet struct {
	bucketCapacity int
	buckets        []*bucket.Bucket
	size           int
}

// New preallocates outer storage for initialCapacity bucket slots and
// starts with size 0 and a single empty bucket. bucketCapacity is the
// maximum length of any inner bucket (must be >= 2 — spec.md §3.3).
//
// New and Empty are observably identical at size 0 (see DESIGN.md, Open
// Question 1): both start from one empty bucket, so callers never need a
// zero-bucket special case in At/Slice/Debug.
func New(initialCapacity, bucketCapacity int) *SortedSet {
	buckets := make([]*bucket.Bucket, 0, initialCapacity)
	buckets = append(buckets, bucket.New(bucketCapacity))
	return &SortedSet{bucketCapacity: bucketCapacity, buckets: buckets}
}

// Empty preallocates outer storage the same way New does, for the bulk
// construction lifecycle phase (spec.md §3.4): New/Empty plus zero or more
// AppendBucket calls during a trusted construction phase.
func Empty(initialCapacity, bucketCapacity int) *SortedSet {
	return New(initialCapacity, bucketCapacity)
}

// BucketCapacity returns the configured maximum bucket length.
func (s *SortedSet) BucketCapacity() int { return s.bucketCapacity }

// Size returns the total number of Terms in the set.
func (s *SortedSet) Size() int { return s.size }

// AddOutcome is the result of Add: either Added at a global index, or
// Duplicate at the index of the pre-existing equal term.
type AddOutcome struct {
	Index int
	Added bool // false means Duplicate
}

// Add inserts t (already admitted) and reports the affected global index.
// Implements spec.md §4.4.1.
func (s *SortedSet) Add(t term.Term) AddOutcome {
	loc := s.locate(t)
	b := s.buckets[loc.bucketIdx]

	r := b.Insert(t)
	if !r.Inserted {
		return AddOutcome{Index: s.prefixLen(loc.bucketIdx) + r.Offset, Added: false}
	}
	s.size++

	bucketIdx, offset := loc.bucketIdx, r.Offset
	if b.Len() > s.bucketCapacity {
		bucketIdx, offset = s.splitBucket(bucketIdx, offset)
	}
	return AddOutcome{Index: s.prefixLen(bucketIdx) + offset, Added: true}
}

// splitBucket splits the overflowed bucket at bucketIdx into two, replacing
// it in the outer sequence with (left, right), and returns the new
// (bucketIdx, offset) of the term that was at offset before the split.
func (s *SortedSet) splitBucket(bucketIdx, offset int) (newBucketIdx, newOffset int) {
	left, right := s.buckets[bucketIdx].SplitAtMidpoint()

	s.buckets = append(s.buckets, nil)
	copy(s.buckets[bucketIdx+2:], s.buckets[bucketIdx+1:])
	s.buckets[bucketIdx] = left
	s.buckets[bucketIdx+1] = right

	if offset < left.Len() {
		return bucketIdx, offset
	}
	return bucketIdx + 1, offset - left.Len()
}

// RemoveOutcome is the result of Remove.
type RemoveOutcome struct {
	Index   int
	Removed bool
}

// Remove deletes t, if present, and reports the global index it occupied
// before removal. Implements spec.md §4.4.2: empty buckets are dropped
// unless they are the sole bucket of an otherwise-empty set; neighbors are
// never merged.
func (s *SortedSet) Remove(t term.Term) RemoveOutcome {
	loc := s.locate(t)
	if !loc.found {
		return RemoveOutcome{Removed: false}
	}
	globalIndex := s.prefixLen(loc.bucketIdx) + loc.offset

	b := s.buckets[loc.bucketIdx]
	b.Remove(t)
	s.size--

	if b.Len() == 0 && len(s.buckets) > 1 {
		s.buckets = append(s.buckets[:loc.bucketIdx], s.buckets[loc.bucketIdx+1:]...)
	}
	return RemoveOutcome{Index: globalIndex, Removed: true}
}

// Contains reports whether t is a member of the set. Supplemented beyond
// spec.md's explicit operation list (see SPEC_FULL.md): a thin wrapper over
// FindIndex for the common membership-test-only caller.
func (s *SortedSet) Contains(t term.Term) bool {
	_, found := s.FindIndex(t)
	return found
}

// FindIndex locates t and maps it to its global index.
func (s *SortedSet) FindIndex(t term.Term) (index int, found bool) {
	loc := s.locate(t)
	if !loc.found {
		return 0, false
	}
	return s.prefixLen(loc.bucketIdx) + loc.offset, true
}

// At returns the Term at global index i, or !ok if i is out of [0, Size()).
func (s *SortedSet) At(i int) (t term.Term, ok bool) {
	if i < 0 || i >= s.size {
		return term.Term{}, false
	}
	remaining := i
	for _, b := range s.buckets {
		if remaining < b.Len() {
			return b.At(remaining), true
		}
		remaining -= b.Len()
	}
	// Unreachable if size is coherent with bucket lengths.
	return term.Term{}, false
}

// Slice returns up to amount consecutive terms starting at global index
// start, preserving order. If start >= Size(), it returns an empty slice.
// Implements spec.md §4.4.3: it does not allocate a copy of any bucket the
// slice range does not touch.
func (s *SortedSet) Slice(start, amount int) []term.Term {
	if start < 0 {
		start = 0
	}
	if start >= s.size || amount <= 0 {
		return []term.Term{}
	}
	end := start + amount
	if end > s.size {
		end = s.size
	}
	out := make([]term.Term, 0, end-start)

	pos := 0
	for _, b := range s.buckets {
		bLen := b.Len()
		bStart, bEnd := pos, pos+bLen
		pos = bEnd
		if bEnd <= start {
			continue
		}
		if bStart >= end {
			break
		}
		lo := 0
		if start > bStart {
			lo = start - bStart
		}
		hi := bLen
		if end < bEnd {
			hi = end - bStart
		}
		out = append(out, b.Items()[lo:hi]...)
	}
	return out
}

// ToList returns the concatenation of all buckets, in order.
func (s *SortedSet) ToList() []term.Term {
	return s.Slice(0, s.size)
}

// AppendBucket is the trusted bulk-construction fast path of spec.md §4.4.4.
// terms must already be sorted under term.Compare, deduplicated, admitted,
// and strictly greater than the current last term in the container;
// AppendBucket does not validate any of that and misuse corrupts the
// container's invariants.
//
// It fails with ErrMaxBucketSizeExceeded if len(terms) >= bucketCapacity
// (see DESIGN.md for why this boundary, not "> bucketCapacity", was chosen).
func (s *SortedSet) AppendBucket(terms []term.Term) error {
	if len(terms) >= s.bucketCapacity {
		return fmt.Errorf("%w: got %d, capacity %d", ErrMaxBucketSizeExceeded, len(terms), s.bucketCapacity)
	}
	if len(terms) == 0 {
		return nil
	}
	nb := bucket.FromSorted(s.bucketCapacity, terms)
	if len(s.buckets) == 1 && s.buckets[0].Len() == 0 {
		s.buckets[0] = nb
	} else {
		s.buckets = append(s.buckets, nb)
	}
	s.size += len(terms)
	return nil
}

// Clone returns a deep copy of the container: a new outer slice and new
// inner bucket slices, sharing the same bucketCapacity. Supplemented beyond
// spec.md (see SPEC_FULL.md): used by callers seeding one container from a
// snapshot of another without holding both locks at once for longer than
// the copy itself takes.
func (s *SortedSet) Clone() *SortedSet {
	buckets := make([]*bucket.Bucket, len(s.buckets))
	for i, b := range s.buckets {
		items := make([]term.Term, b.Len())
		copy(items, b.Items())
		buckets[i] = bucket.FromSorted(s.bucketCapacity, items)
	}
	return &SortedSet{bucketCapacity: s.bucketCapacity, buckets: buckets, size: s.size}
}

// Debug returns a structural string rendering of the outer/inner layout,
// for introspection only. No stability guarantee across versions.
func (s *SortedSet) Debug() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "SortedSet{size=%d, bucketCapacity=%d, buckets=%d}\n", s.size, s.bucketCapacity, len(s.buckets))
	for i, b := range s.buckets {
		fmt.Fprintf(&sb, "  [%d] len=%d ", i, b.Len())
		items := b.Items()
		sb.WriteByte('[')
		for j, t := range items {
			if j > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(debugTerm(t))
		}
		sb.WriteString("]\n")
	}
	return sb.String()
}

func debugTerm(t term.Term) string {
	switch t.Kind() {
	case term.KindInteger:
		return t.Int().String()
	case term.KindAtom:
		return ":" + t.AtomName()
	case term.KindBitstring:
		return fmt.Sprintf("%q", t.Bitstring())
	case term.KindList:
		return debugElems("[", "]", t.Elems())
	case term.KindTuple:
		return debugElems("{", "}", t.Elems())
	default:
		return "?"
	}
}

func debugElems(open, closeTok string, elems []term.Term) string {
	var sb strings.Builder
	sb.WriteString(open)
	for i, e := range elems {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(debugTerm(e))
	}
	sb.WriteString(closeTok)
	return sb.String()
}
