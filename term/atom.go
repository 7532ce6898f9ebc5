package term

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

// internedAtom is the process-wide identity behind a KindAtom Term. Atoms
// compare equal by name, and two admissions of the same name yield the same
// *internedAtom pointer, so each distinct name is allocated once. Compare
// (and so Equal) still orders atoms by comparing their names.
type internedAtom struct {
	name string
}

// atomTable interns atom names behind a small hash-bucketed map, the same
// hash/bucket shape the teacher uses to fan out signatures by hashed prefix
// (bucketteer.Hash feeding a fixed-width prefix table). A single sync.Mutex
// guards it: atom interning is not on any hot mutating path of the
// container (it only runs once per distinct name), so there is no reason to
// shard it the way bucketteer shards by prefix.
type atomTable struct {
	mu     sync.Mutex
	byHash map[uint64][]*internedAtom
}

var atoms = &atomTable{byHash: make(map[uint64][]*internedAtom)}

func intern(name string) *internedAtom {
	h := xxhash.Sum64String(name)

	atoms.mu.Lock()
	defer atoms.mu.Unlock()

	for _, a := range atoms.byHash[h] {
		if a.name == name {
			return a
		}
	}
	a := &internedAtom{name: name}
	atoms.byHash[h] = append(atoms.byHash[h], a)
	return a
}
