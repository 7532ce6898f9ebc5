// Package registry maps opaque, process-wide Handles to reference-counted
// SortedSet containers, per spec.md §4.6. External callers never see a
// container pointer directly; they resolve a Handle through Resolve on every
// boundary call and the registry owns the container's lifetime.
//
// Grounded directly on the teacher's MultiEpoch registry (multiepoch.go):
// a map keyed by an integer id, guarded by a sync.RWMutex, with
// Add/Remove/Get/Has methods. The refcount + released bit are packed into a
// single atomically-updated status word instead, grounded on the
// templexxx/u64 pack member's status.go bit-packed atomic status pattern.
package registry

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/rpcpool/sortedset"
)

// Handle is an opaque, externally-visible identifier for a container
// instance (spec.md §4.6, GLOSSARY). The zero Handle is never issued.
type Handle uint64

// ErrBadReference is returned by Resolve when a Handle does not resolve to
// a live container (spec.md §7).
var ErrBadReference = errors.New("registry: handle does not resolve to a live container")

// entry pairs a container with a status word packing its reference count
// (bits 1..63) and a released flag (bit 0), updated atomically so Release
// and concurrent Resolve calls never need a second lock just to guard the
// count.
type entry struct {
	set    *sortedset.LockedSet
	status atomic.Uint64
}

const releasedBit = 1

func packStatus(refcount uint64, released bool) uint64 {
	s := refcount << 1
	if released {
		s |= releasedBit
	}
	return s
}

func (e *entry) isReleased() bool {
	return e.status.Load()&releasedBit != 0
}

// Registry owns a set of live handles. The zero Registry is not usable; use
// New.
type Registry struct {
	mu      sync.RWMutex
	nextID  atomic.Uint64
	entries map[Handle]*entry
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{entries: make(map[Handle]*entry)}
}

// Create mints a fresh Handle bound to set with an initial reference count
// of 1, mirroring MultiEpoch.AddEpoch's "own the container" contract.
// Handle ids come from an atomic counter, not map length, so a released
// slot's id is never reused for a live handle (spec.md §4.6: misuse must
// yield BadReference, never undefined behavior).
func (r *Registry) Create(set *sortedset.LockedSet) Handle {
	id := Handle(r.nextID.Add(1))

	e := &entry{set: set}
	e.status.Store(packStatus(1, false))

	r.mu.Lock()
	r.entries[id] = e
	r.mu.Unlock()
	return id
}

// Resolve maps a Handle to its container, or ErrBadReference if the handle
// is unknown or has already been fully released.
func (r *Registry) Resolve(h Handle) (*sortedset.LockedSet, error) {
	r.mu.RLock()
	e, ok := r.entries[h]
	r.mu.RUnlock()
	if !ok || e.isReleased() {
		return nil, ErrBadReference
	}
	return e.set, nil
}

// Retain increments h's reference count, mirroring a host-runtime binding
// taking a second reference to the same resource. Returns ErrBadReference if
// h is not live.
func (r *Registry) Retain(h Handle) error {
	r.mu.RLock()
	e, ok := r.entries[h]
	r.mu.RUnlock()
	if !ok {
		return ErrBadReference
	}
	for {
		cur := e.status.Load()
		if cur&releasedBit != 0 {
			return ErrBadReference
		}
		refcount := cur >> 1
		if e.status.CompareAndSwap(cur, packStatus(refcount+1, false)) {
			return nil
		}
	}
}

// Release drops one reference to h. When the reference count reaches zero,
// the entry is removed from the registry — spec.md §3.4: "Destroyed when
// its external handle's reference count drops to zero; no explicit
// destructor at the API level." Release on an already-fully-released or
// unknown handle returns ErrBadReference.
func (r *Registry) Release(h Handle) error {
	r.mu.RLock()
	e, ok := r.entries[h]
	r.mu.RUnlock()
	if !ok {
		return ErrBadReference
	}
	for {
		cur := e.status.Load()
		if cur&releasedBit != 0 {
			return ErrBadReference
		}
		refcount := cur >> 1
		if refcount == 0 {
			return ErrBadReference
		}
		next := refcount - 1
		released := next == 0
		if e.status.CompareAndSwap(cur, packStatus(next, released)) {
			if released {
				r.mu.Lock()
				delete(r.entries, h)
				r.mu.Unlock()
			}
			return nil
		}
	}
}

// Stats is the registry-wide snapshot described in SPEC_FULL.md: live
// handle count and total term count summed across every live container,
// the natural "whole-registry" read analogous to the teacher's
// MultiEpoch.HasEpoch/iteration surface.
type Stats struct {
	LiveHandles int
	TotalSize   int
}

// Stats computes a point-in-time snapshot. Containers that fail to
// try-lock (concurrently busy) are skipped for the size total but still
// counted as live; Stats is a best-effort diagnostic, not a linearizable
// read of the whole registry.
func (r *Registry) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	st := Stats{LiveHandles: len(r.entries)}
	for _, e := range r.entries {
		e.set.WithLock(func(s *sortedset.SortedSet) {
			st.TotalSize += s.Size()
		})
	}
	return st
}
