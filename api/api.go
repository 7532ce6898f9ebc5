package api

import (
	"time"

	"k8s.io/klog/v2"

	"github.com/rpcpool/sortedset"
	"github.com/rpcpool/sortedset/metrics"
	"github.com/rpcpool/sortedset/registry"
	"github.com/rpcpool/sortedset/term"
)

// API dispatches the spec.md §6.1 operation surface against a Registry.
// Every per-handle operation admits its term arguments, resolves the handle,
// try-acquires the container's lock, logs at klog.V(4) on entry (klog.go is
// the teacher's own logging idiom) and records Prometheus counters/latency
// (metrics.go). A call whose argument fails admission returns before logging
// or recording anything, and Release neither logs nor records counters.
type API struct {
	reg *registry.Registry
}

// New returns an API dispatching against reg.
func New(reg *registry.Registry) *API {
	return &API{reg: reg}
}

func (a *API) observe(op string, start time.Time, result string) {
	metrics.OperationsTotal.WithLabelValues(op).Inc()
	metrics.OperationResult.WithLabelValues(op, result).Inc()
	metrics.OperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// NewSet creates a fresh, empty SortedSet and returns its Handle. Named
// NewSet (not New) to keep it distinct from the package-level constructor
// above.
func (a *API) NewSet(cfg Config) (registry.Handle, *OpError) {
	start := time.Now()
	if err := cfg.Validate(); err != nil {
		a.observe("new", start, "invalid_config")
		return 0, errInvalidConfig(err)
	}
	set := sortedset.New(cfg.InitialCapacity, cfg.BucketSize)
	h := a.reg.Create(sortedset.NewLocked(set))
	metrics.LiveHandles.Inc()
	klog.V(4).Infof("sortedset: new handle=%d bucket_size=%d initial_capacity=%d", h, cfg.BucketSize, cfg.InitialCapacity)
	a.observe("new", start, "ok")
	return h, nil
}

// EmptySet creates an empty SortedSet intended for bulk construction via
// AppendBucket, and returns its Handle.
func (a *API) EmptySet(cfg Config) (registry.Handle, *OpError) {
	start := time.Now()
	if err := cfg.Validate(); err != nil {
		a.observe("empty", start, "invalid_config")
		return 0, errInvalidConfig(err)
	}
	set := sortedset.Empty(cfg.InitialCapacity, cfg.BucketSize)
	h := a.reg.Create(sortedset.NewLocked(set))
	metrics.LiveHandles.Inc()
	klog.V(4).Infof("sortedset: empty handle=%d bucket_size=%d initial_capacity=%d", h, cfg.BucketSize, cfg.InitialCapacity)
	a.observe("empty", start, "ok")
	return h, nil
}

// Release drops one reference to h; when the last reference drops the
// container is destroyed (spec.md §3.4). The boundary API never retains a
// second reference to a handle it created, so every Release here destroys
// the container outright; its current size is subtracted from TotalTerms
// before the handle goes away. A concurrently busy container (LockFail) is
// released anyway — its size is read as 0, so its terms stay counted in
// the gauge, consistent with TotalTerms being a best-effort gauge, not a
// linearizable count (like registry.Registry.Stats, which also skips busy
// containers).
func (a *API) Release(h registry.Handle) *OpError {
	var size int
	if ls, err := a.reg.Resolve(h); err == nil {
		ls.WithLock(func(s *sortedset.SortedSet) { size = s.Size() })
	}

	if err := a.reg.Release(h); err != nil {
		return errBadReference(h)
	}
	metrics.LiveHandles.Dec()
	metrics.TotalTerms.Sub(float64(size))
	return nil
}

// withHandle resolves h, try-acquires its lock, and runs fn; it is the
// common preamble of every per-handle operation below.
func (a *API) withHandle(op string, h registry.Handle, fn func(*sortedset.SortedSet)) *OpError {
	start := time.Now()
	klog.V(4).Infof("sortedset: op=%s handle=%d", op, h)

	ls, err := a.reg.Resolve(h)
	if err != nil {
		klog.V(2).Infof("sortedset: op=%s handle=%d bad_reference", op, h)
		a.observe(op, start, "bad_reference")
		return errBadReference(h)
	}

	if ok := ls.WithLock(fn); !ok {
		klog.V(2).Infof("sortedset: op=%s handle=%d lock_fail", op, h)
		a.observe(op, start, "lock_fail")
		return errLockFail(h)
	}
	a.observe(op, start, "ok")
	return nil
}

// admit validates a raw operation argument against the admissible term
// universe (spec.md §3.1); the rejection check runs before any mutation.
func admit(raw term.Raw) (term.Term, *OpError) {
	t, err := term.Admit(raw)
	if err != nil {
		return term.Term{}, errUnsupportedType(err)
	}
	return t, nil
}

// AddResult is Add's result shape.
type AddResult struct {
	Index int
	Added bool
}

// Add implements spec.md §6.1 add.
func (a *API) Add(h registry.Handle, raw term.Raw) (AddResult, *OpError) {
	t, oerr := admit(raw)
	if oerr != nil {
		return AddResult{}, oerr
	}
	var out AddResult
	if oerr := a.withHandle("add", h, func(s *sortedset.SortedSet) {
		r := s.Add(t)
		out = AddResult{Index: r.Index, Added: r.Added}
	}); oerr != nil {
		return AddResult{}, oerr
	}
	if out.Added {
		metrics.TotalTerms.Inc()
	}
	return out, nil
}

// RemoveResult is Remove's result shape.
type RemoveResult struct {
	Index   int
	Removed bool
}

// Remove implements spec.md §6.1 remove.
func (a *API) Remove(h registry.Handle, raw term.Raw) (RemoveResult, *OpError) {
	t, oerr := admit(raw)
	if oerr != nil {
		return RemoveResult{}, oerr
	}
	var out RemoveResult
	if oerr := a.withHandle("remove", h, func(s *sortedset.SortedSet) {
		r := s.Remove(t)
		out = RemoveResult{Index: r.Index, Removed: r.Removed}
	}); oerr != nil {
		return RemoveResult{}, oerr
	}
	if out.Removed {
		metrics.TotalTerms.Dec()
	}
	return out, nil
}

// AtResult is At's result shape; Found is false for OutOfBounds, an ordinary
// result variant per spec.md §7, not an error.
type AtResult struct {
	Term  term.Term
	Found bool
}

// At implements spec.md §6.1 at.
func (a *API) At(h registry.Handle, i int) (AtResult, *OpError) {
	var out AtResult
	if oerr := a.withHandle("at", h, func(s *sortedset.SortedSet) {
		t, ok := s.At(i)
		out = AtResult{Term: t, Found: ok}
	}); oerr != nil {
		return AtResult{}, oerr
	}
	return out, nil
}

// Slice implements spec.md §6.1 slice.
func (a *API) Slice(h registry.Handle, start, amount int) ([]term.Term, *OpError) {
	var out []term.Term
	if oerr := a.withHandle("slice", h, func(s *sortedset.SortedSet) {
		out = s.Slice(start, amount)
	}); oerr != nil {
		return nil, oerr
	}
	return out, nil
}

// FindIndexResult is FindIndex's result shape.
type FindIndexResult struct {
	Index int
	Found bool
}

// FindIndex implements spec.md §6.1 find_index.
func (a *API) FindIndex(h registry.Handle, raw term.Raw) (FindIndexResult, *OpError) {
	t, oerr := admit(raw)
	if oerr != nil {
		return FindIndexResult{}, oerr
	}
	var out FindIndexResult
	if oerr := a.withHandle("find_index", h, func(s *sortedset.SortedSet) {
		idx, found := s.FindIndex(t)
		out = FindIndexResult{Index: idx, Found: found}
	}); oerr != nil {
		return FindIndexResult{}, oerr
	}
	return out, nil
}

// Size implements spec.md §6.1 size.
func (a *API) Size(h registry.Handle) (int, *OpError) {
	var out int
	if oerr := a.withHandle("size", h, func(s *sortedset.SortedSet) {
		out = s.Size()
	}); oerr != nil {
		return 0, oerr
	}
	return out, nil
}

// ToList implements spec.md §6.1 to_list.
func (a *API) ToList(h registry.Handle) ([]term.Term, *OpError) {
	var out []term.Term
	if oerr := a.withHandle("to_list", h, func(s *sortedset.SortedSet) {
		out = s.ToList()
	}); oerr != nil {
		return nil, oerr
	}
	return out, nil
}

// Debug implements spec.md §6.1 debug. The rendered string is never logged
// below the verbosity threshold that would actually print it — mirrored on
// the teacher's practice of gating expensive log payloads behind
// klog.V(...).Enabled() (storage.go).
func (a *API) Debug(h registry.Handle) (string, *OpError) {
	var out string
	if oerr := a.withHandle("debug", h, func(s *sortedset.SortedSet) {
		out = s.Debug()
	}); oerr != nil {
		return "", oerr
	}
	if klog.V(6).Enabled() {
		klog.V(6).Infof("sortedset: handle=%d debug=%s", h, out)
	}
	return out, nil
}

// AppendBucket implements spec.md §6.1 append_bucket: the trusted bulk
// fast-path. raws must already be sorted under term.Compare, deduplicated
// and strictly greater than the container's current last term; this is not
// re-validated here beyond admission (spec.md §4.4.4).
func (a *API) AppendBucket(h registry.Handle, raws []term.Raw) *OpError {
	terms := make([]term.Term, len(raws))
	for i, raw := range raws {
		t, oerr := admit(raw)
		if oerr != nil {
			return oerr
		}
		terms[i] = t
	}
	var appendErr error
	oerr := a.withHandle("append_bucket", h, func(s *sortedset.SortedSet) {
		appendErr = s.AppendBucket(terms)
	})
	if oerr != nil {
		return oerr
	}
	if appendErr != nil {
		return errMaxBucketSizeExceeded(appendErr)
	}
	metrics.TotalTerms.Add(float64(len(terms)))
	return nil
}
