// Package fact implements the Fact Store: indexed working memory of
// triples plus their derivation provenance, with five index permutations
// for selective lookup and epoch-stamped snapshots (spec §4.2).
package fact

import (
	"sync"
	"sync/atomic"

	iradix "github.com/hashicorp/go-immutable-radix/v2"
	"github.com/hashicorp/go-hclog"

	"github.com/nodeadmin/owlrl-reasoner/term"
)

// EventSink receives diagnostics the store itself is not allowed to raise
// as errors (spec §7: "Fact Store and RETE never raise to the caller;
// they record diagnostics on a per-reasoner event log").
type EventSink func(kind, detail string)

// Store is the reasoner's working memory. Exactly one writer
// (Assert/Derive/RetractSource) may be active at a time; it is the
// caller's responsibility to hold Store.Mu for the duration of a write,
// mirroring the single global write mutex of spec §5. Reads
// (Select/Snapshot) never block on Mu.
type Store struct {
	Mu sync.Mutex

	log hclog.Logger
	sink EventSink

	// The five index permutations (spec §4.2), each an immutable radix
	// tree keyed by a 12-byte packed triple in the permutation's slot
	// order. Prefix iteration on a permutation whose leading bytes are
	// the pattern's bound slots gives O(1)-amortised selective lookup;
	// Root() snapshots are what make SnapshotHandle cheap (just a
	// pointer capture, no copying).
	spo, pos, osp, pso, sop *iradix.Tree[*factEntry]

	byID *iradix.Tree[*factEntry] // TripleId -> entry, for justification expansion

	nextTripleID TripleId
	// epoch is read by Snapshot/CurrentEpoch without Mu held (spec §5
	// "readers never block writers"), so it is a plain atomic counter
	// rather than a field the writer's Mu alone protects.
	epoch atomic.Uint64

	// cardMu guards predCardinality alone: PredicateCardinality is called
	// from query planning against a live Engine, concurrently with a
	// writer that holds Mu and mutates this same map (insertAll, and
	// tombstone in retract.go), so it needs its own lock rather than
	// borrowing Mu and blocking the writer.
	cardMu          sync.RWMutex
	predCardinality map[term.Id]int

	uf        unionFind
	different differentPairs
}

// New creates an empty Store. log and sink may be nil.
func New(log hclog.Logger, sink EventSink) *Store {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	if sink == nil {
		sink = func(string, string) {}
	}
	s := &Store{
		log:             log.Named("fact"),
		sink:            sink,
		spo:             iradix.New[*factEntry](),
		pos:             iradix.New[*factEntry](),
		osp:             iradix.New[*factEntry](),
		pso:             iradix.New[*factEntry](),
		sop:             iradix.New[*factEntry](),
		byID:            iradix.New[*factEntry](),
		predCardinality: make(map[term.Id]int),
		uf:              newUnionFind(),
		different:       make(differentPairs),
	}
	// Epochs start at 1 so a tombstone's death epoch is never 0, which
	// factEntry.alive reads as "still alive".
	s.epoch.Store(1)
	return s
}

func spoKey(t Triple) [12]byte { return term.PackKey(t.S, t.P, t.O) }
func posKey(t Triple) [12]byte { return term.PackKey(t.P, t.O, t.S) }
func ospKey(t Triple) [12]byte { return term.PackKey(t.O, t.S, t.P) }
func psoKey(t Triple) [12]byte { return term.PackKey(t.P, t.S, t.O) }
func sopKey(t Triple) [12]byte { return term.PackKey(t.S, t.O, t.P) }

func idKey(id TripleId) [8]byte {
	var k [8]byte
	for i := 0; i < 8; i++ {
		k[7-i] = byte(id >> (8 * i))
	}
	return k
}

func (s *Store) insertAll(e *factEntry) {
	s.insertFiveIndices(e)

	txn6 := s.byID.Txn()
	ik := idKey(e.id)
	txn6.Insert(ik[:], e)
	s.byID = txn6.Commit()

	s.cardMu.Lock()
	s.predCardinality[e.triple.P]++
	s.cardMu.Unlock()
}

func keySlice(k [12]byte) []byte { return k[:] }

func (s *Store) lookupExact(t Triple) (*factEntry, bool) {
	v, ok := s.spo.Get(keySlice(spoKey(t)))
	return v, ok
}

// Assert adds an asserted (externally-sourced) triple tagged with source.
// Idempotent: asserting an already-present triple merges the source tag
// into its Derivation and returns Added=false.
func (s *Store) Assert(t Triple, source SourceId) AssertResult {
	if canon, changed := s.canonicalizeTriple(t); changed {
		t = canon
	}
	if e, ok := s.lookupExact(t); ok {
		if !e.der.IsAsserted || !hasSourceTag(e.der, source) {
			e.der.IsAsserted = true
			e.der.SourceTags[source] = struct{}{}
		}
		return AssertResult{Added: false}
	}

	e := &factEntry{
		id:     s.nextTripleID,
		triple: t,
		der:    newDerivation(),
		birth:  s.epoch.Load(),
	}
	s.nextTripleID++
	e.der.IsAsserted = true
	e.der.SourceTags[source] = struct{}{}
	s.insertAll(e)

	s.maybeHandleSpecialPredicate(t)

	return AssertResult{Added: true, Delta: []Triple{t}}
}

func hasSourceTag(d Derivation, src SourceId) bool {
	_, ok := d.SourceTags[src]
	return ok
}

// Derive adds (or records an additional justification for) a
// rule-produced triple. Duplicate-derivation rule: if t already exists,
// the justification is appended but Delta is empty -- no re-propagation
// (spec §4.2).
func (s *Store) Derive(t Triple, j Justification) DeriveResult {
	if canon, changed := s.canonicalizeTriple(t); changed {
		t = canon
	}
	if e, ok := s.lookupExact(t); ok {
		e.der.Justifications = append(e.der.Justifications, j)
		return DeriveResult{Added: false}
	}

	e := &factEntry{
		id:     s.nextTripleID,
		triple: t,
		der:    newDerivation(),
		birth:  s.epoch.Load(),
	}
	s.nextTripleID++
	e.der.Justifications = append(e.der.Justifications, j)
	s.insertAll(e)

	s.maybeHandleSpecialPredicate(t)

	return DeriveResult{Added: true, Delta: []Triple{t}}
}

// Snapshot returns a read-only handle fixed at the store's current epoch,
// then advances the epoch. Readers holding the handle observe exactly the
// triples whose birth epoch is <= the handle's epoch and whose death
// epoch (if any) is > it (spec §4.2).
func (s *Store) Snapshot() *SnapshotHandle {
	h := &SnapshotHandle{
		epoch: s.epoch.Add(1) - 1,
		spo:   s.spo, pos: s.pos, osp: s.osp, pso: s.pso, sop: s.sop,
		byID: s.byID,
	}
	return h
}

// CurrentEpoch exposes the store's live (unsnapshotted) epoch.
func (s *Store) CurrentEpoch() uint64 { return s.epoch.Load() }

// PredicateCardinality is a cheap, approximate count of triples per
// predicate, used by the Query Engine's selectivity heuristic (spec
// §4.6). Safe to
// call concurrently with a writer holding Mu: guarded by cardMu, not Mu,
// so planning never blocks on (or is blocked by) a reasoning pass.
func (s *Store) PredicateCardinality(p term.Id) int {
	s.cardMu.RLock()
	defer s.cardMu.RUnlock()
	return s.predCardinality[p]
}

// TripleID resolves a live triple to the dense id it was assigned on
// first insertion, for use in justification lists. Returns 0 if t is not
// currently present.
func (s *Store) TripleID(t Triple) TripleId {
	e, ok := s.lookupExact(t)
	if !ok {
		return 0
	}
	return e.id
}

// FindJustificationIndex locates the position of justification j among
// t's recorded justifications, by value equality, so a caller that only
// knows the justification (not its insertion index) can still call
// UndoJustification.
func (s *Store) FindJustificationIndex(t Triple, j Justification) (int, bool) {
	e, ok := s.lookupExact(t)
	if !ok {
		return 0, false
	}
	for i, cand := range e.der.Justifications {
		if sameJustification(cand, j) {
			return i, true
		}
	}
	return 0, false
}

func sameJustification(a, b Justification) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
