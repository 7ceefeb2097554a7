package fact

import (
	iradix "github.com/hashicorp/go-immutable-radix/v2"

	"github.com/nodeadmin/owlrl-reasoner/term"
)

// boundMask records which Select slots are bound; a nil pointer argument
// to Select means that slot is a wildcard.
type boundMask uint8

const (
	boundS boundMask = 1 << iota
	boundP
	boundO
)

// SnapshotHandle is a cheap, epoch-stamped read view of the Fact Store
// (spec §4.2). It holds the five index roots as they stood when the
// snapshot was taken; because the indices are immutable radix trees,
// capturing them is just a pointer copy, and later writes never mutate
// the trees a handle already holds.
type SnapshotHandle struct {
	epoch uint64
	spo, pos, osp, pso, sop *iradix.Tree[*factEntry]
	byID *iradix.Tree[*factEntry]
}

// Epoch returns the handle's fixed epoch.
func (h *SnapshotHandle) Epoch() uint64 { return h.epoch }

// Select iterates triples matching the pattern (s,p,o), where a nil
// pointer means "wildcard". It picks the most selective of the five
// index permutations by counting bound slots, matching spec §4.2's
// "picks the most selective of the five indices by pattern shape".
// preferPredicateFirst lets a caller (the Query Engine's cost-based
// planner, or the RETE alpha-node builder) ask for the PSO permutation
// instead of SPO when both s and p are bound and predicate cardinality
// is expected to be lower -- the tie-break spec §4.6 calls out.
func (h *SnapshotHandle) Select(s, p, o *term.Id, preferPredicateFirst bool) []Triple {
	var mask boundMask
	var sv, pv, ov term.Id
	if s != nil {
		mask |= boundS
		sv = *s
	}
	if p != nil {
		mask |= boundP
		pv = *p
	}
	if o != nil {
		mask |= boundO
		ov = *o
	}

	var tree *iradix.Tree[*factEntry]
	var prefix []byte

	switch mask {
	case 0:
		tree, prefix = h.spo, nil
	case boundS:
		tree, prefix = h.spo, sv4(sv)
	case boundP:
		tree, prefix = h.pos, sv4(pv)
	case boundO:
		tree, prefix = h.osp, sv4(ov)
	case boundS | boundP:
		if preferPredicateFirst {
			tree, prefix = h.pso, concat4(pv, sv)
		} else {
			tree, prefix = h.spo, concat4(sv, pv)
		}
	case boundP | boundO:
		tree, prefix = h.pos, concat4(pv, ov)
	case boundS | boundO:
		tree, prefix = h.sop, concat4(sv, ov)
	case boundS | boundP | boundO:
		key := term.PackKey(sv, pv, ov)
		v, ok := h.spo.Get(key[:])
		if !ok || !v.visibleAt(h.epoch) {
			return nil
		}
		return []Triple{v.triple}
	}

	var out []Triple
	tree.Root().WalkPrefix(prefix, func(_ []byte, v *factEntry) bool {
		if v.visibleAt(h.epoch) {
			out = append(out, v.triple)
		}
		return false
	})
	return out
}

// SelectOne is a convenience for patterns where only one answer is
// expected (e.g. a functional role).
func (h *SnapshotHandle) SelectOne(s, p, o *term.Id) (Triple, bool) {
	rows := h.Select(s, p, o, false)
	if len(rows) == 0 {
		return Triple{}, false
	}
	return rows[0], true
}

// Derivation looks up the provenance of a triple as of this snapshot.
func (h *SnapshotHandle) Derivation(t Triple) (Derivation, bool) {
	v, ok := h.spo.Get(keySlice(spoKey(t)))
	if !ok || !v.visibleAt(h.epoch) {
		return Derivation{}, false
	}
	return v.der, true
}

// TripleByID resolves a TripleId to its Triple, used to expand
// justification lists for callers that want to inspect provenance.
func (h *SnapshotHandle) TripleByID(id TripleId) (Triple, bool) {
	ik := idKey(id)
	v, ok := h.byID.Get(ik[:])
	if !ok {
		return Triple{}, false
	}
	return v.triple, true
}

func sv4(id term.Id) []byte {
	k := term.PackKey(id, 0, 0)
	return k[0:4]
}

func concat4(a, b term.Id) []byte {
	k := term.PackKey(a, b, 0)
	return k[0:8]
}

// LiveView returns a SnapshotHandle over the store's current (not yet
// snapshotted) state, for use by the RETE network and Inference Driver
// while they hold Mu during a single reason() call -- unlike Snapshot, it
// does not advance the epoch counter, since mid-propagation state is
// exactly what §5 says a caller-visible snapshot must never expose.
func (s *Store) LiveView() *SnapshotHandle {
	return &SnapshotHandle{
		epoch: s.epoch.Load(),
		spo:   s.spo, pos: s.pos, osp: s.osp, pso: s.pso, sop: s.sop,
		byID: s.byID,
	}
}
