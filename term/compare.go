package term

// Ordering is the result of Compare: a strict total order over the Term
// universe. No two distinct-value Terms compare Equal.
type Ordering int

const (
	Less Ordering = -1
	Equal Ordering = 0
	Greater Ordering = 1
)

// typeRank gives the across-type order: Integer < Atom < Bitstring < List < Tuple.
func typeRank(k Kind) int {
	switch k {
	case KindInteger:
		return 0
	case KindAtom:
		return 1
	case KindBitstring:
		return 2
	case KindList:
		return 3
	case KindTuple:
		return 4
	default:
		panic("term: unknown Kind")
	}
}

// Compare implements spec.md §3.2: a fixed, total, inter-type order over
// Terms. It is deterministic and side-effect-free.
func Compare(a, b Term) Ordering {
	ra, rb := typeRank(a.kind), typeRank(b.kind)
	if ra != rb {
		return rankOrdering(ra, rb)
	}
	switch a.kind {
	case KindInteger:
		return Ordering(a.i.Cmp(b.i))
	case KindAtom:
		return compareString(a.atom.name, b.atom.name)
	case KindBitstring:
		return compareBitstring(a.bits, b.bits)
	case KindList, KindTuple:
		return compareElems(a.elems, b.elems)
	default:
		panic("term: unknown Kind")
	}
}

// Equal reports whether Compare(a, b) == Equal.
func Equal(a, b Term) bool { return Compare(a, b) == Equal }

func rankOrdering(ra, rb int) Ordering {
	if ra < rb {
		return Less
	}
	return Greater
}

// compareBitstring is lexicographic over bytes, then by length (shorter
// prefix first on a full-prefix tie).
func compareBitstring(a, b string) Ordering {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return Less
			}
			return Greater
		}
	}
	return compareLen(len(a), len(b))
}

// compareString shares the same lexicographic-then-length rule; atoms are
// compared "lexicographic over their name" per spec.md §3.2.
func compareString(a, b string) Ordering {
	return compareBitstring(a, b)
}

func compareLen(la, lb int) Ordering {
	switch {
	case la < lb:
		return Less
	case la > lb:
		return Greater
	default:
		return Equal
	}
}

// compareElems implements length-lexicographic-by-element-order comparison
// for List and Tuple: element-wise compare, shorter first on a full tie.
// Spec.md §3.2 specifies this independently for Lists and for Tuples, but
// the rule is identical; Compare only ever calls this with two operands of
// the same Kind; cross-kind comparisons are already resolved by typeRank.
func compareElems(a, b []Term) Ordering {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if ord := Compare(a[i], b[i]); ord != Equal {
			return ord
		}
	}
	return compareLen(len(a), len(b))
}
