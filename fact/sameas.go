package fact

import "github.com/nodeadmin/owlrl-reasoner/term"

// unionFind implements sameAs equivalence classes over term.Id (spec §3
// I4, §9 "Cyclic structures"). The canonical representative of a class is
// its numerically smallest member, chosen deterministically so that
// canonicalization never depends on assertion order.
type unionFind struct {
	parent map[term.Id]term.Id
}

func newUnionFind() unionFind {
	return unionFind{parent: make(map[term.Id]term.Id)}
}

func (u *unionFind) find(x term.Id) term.Id {
	p, ok := u.parent[x]
	if !ok {
		return x
	}
	root := u.find(p)
	u.parent[x] = root // path compression
	return root
}

// union merges the classes of a and b, returning the (possibly new)
// canonical representative and whether a merge actually happened.
func (u *unionFind) union(a, b term.Id) (canonical term.Id, merged bool) {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return ra, false
	}
	if ra < rb {
		u.parent[rb] = ra
		return ra, true
	}
	u.parent[ra] = rb
	return rb, true
}

// differentPairs tracks asserted/derived differentFrom pairs by canonical
// representative, so a later sameAs merge can detect the I4 collision.
type differentPairs map[[2]term.Id]struct{}

func pairKey(a, b term.Id) [2]term.Id {
	if a > b {
		a, b = b, a
	}
	return [2]term.Id{a, b}
}

// maybeHandleSpecialPredicate inspects a newly stored triple for sameAs /
// differentFrom semantics and applies them. It is called after the
// triple has already been indexed under its original (s,p,o).
func (s *Store) maybeHandleSpecialPredicate(t Triple) {
	switch t.P {
	case term.ReservedSameAs:
		s.mergeSameAs(t.S, t.O)
	case term.ReservedDifferentFrom:
		s.noteDifferentFrom(t.S, t.O)
	}
}

// canonicalizeTriple rewrites a triple's subject/object through the
// sameAs union-find before it is stored, so every triple in the indices
// always names the canonical representative of its class.
func (s *Store) canonicalizeTriple(t Triple) (Triple, bool) {
	changed := false
	if !term.IsLiteral(t.S) {
		if c := s.uf.find(t.S); c != t.S {
			t.S = c
			changed = true
		}
	}
	if !term.IsLiteral(t.O) {
		if c := s.uf.find(t.O); c != t.O {
			t.O = c
			changed = true
		}
	}
	return t, changed
}

func (s *Store) noteDifferentFrom(a, b term.Id) {
	s.different[pairKey(s.uf.find(a), s.uf.find(b))] = struct{}{}
	if s.uf.find(a) == s.uf.find(b) {
		s.sink("InconsistentOntology", "differentFrom pair became sameAs")
	}
}

// mergeSameAs unions a and b's equivalence classes and rewrites every
// currently-stored triple mentioning the losing representative to name
// the winner instead (spec §4.2 "the Fact Store elects a canonical
// representative per class and rewrites all triples to it").
func (s *Store) mergeSameAs(a, b term.Id) {
	preA, preB := s.uf.find(a), s.uf.find(b)
	canon, merged := s.uf.union(a, b)
	if !merged {
		return
	}
	loser := a
	if canon == a {
		loser = b
	}

	// A previously recorded differentFrom pair between these two classes
	// is now contradicted: flag it but keep reasoning (spec §3 I4, §7).
	if _, collided := s.different[pairKey(preA, preB)]; collided {
		s.sink("InconsistentOntology", "sameAs merged a previously differentFrom pair")
	}

	// Scan byID for triples mentioning loser and rewrite them in place.
	// This is a linear scan, acceptable for the reasoner's scale; the
	// win is that reads never need to consult the union-find, only
	// writes pay this cost (and only on an actual merge).
	var toRewrite []*factEntry
	s.byID.Root().Walk(func(_ []byte, e *factEntry) bool {
		if e.alive() && (e.triple.S == loser || e.triple.O == loser) {
			toRewrite = append(toRewrite, e)
		}
		return false
	})

	for _, e := range toRewrite {
		old := e.triple
		newT := old
		if newT.S == loser {
			newT.S = canon
		}
		if newT.O == loser {
			newT.O = canon
		}
		s.rewriteTriple(e, newT)
	}
}

// rewriteTriple removes e from all five indices under its old key and
// reinserts it under the new key, merging derivation state if a triple
// with the new key already existed (duplicate-derivation rule applies:
// justifications concatenate, source tags union).
func (s *Store) rewriteTriple(e *factEntry, newT Triple) {
	if existing, ok := s.lookupExact(newT); ok && existing != e {
		existing.der.Justifications = append(existing.der.Justifications, e.der.Justifications...)
		for tag := range e.der.SourceTags {
			existing.der.SourceTags[tag] = struct{}{}
		}
		existing.der.IsAsserted = existing.der.IsAsserted || e.der.IsAsserted
		s.deleteFromFiveIndices(e.triple)
		e.death = s.epoch.Load()
		return
	}

	s.deleteFromFiveIndices(e.triple)
	e.triple = newT
	s.insertFiveIndices(e)
}

func (s *Store) deleteFromFiveIndices(t Triple) {
	txn1 := s.spo.Txn()
	txn1.Delete(keySlice(spoKey(t)))
	s.spo = txn1.Commit()

	txn2 := s.pos.Txn()
	txn2.Delete(keySlice(posKey(t)))
	s.pos = txn2.Commit()

	txn3 := s.osp.Txn()
	txn3.Delete(keySlice(ospKey(t)))
	s.osp = txn3.Commit()

	txn4 := s.pso.Txn()
	txn4.Delete(keySlice(psoKey(t)))
	s.pso = txn4.Commit()

	txn5 := s.sop.Txn()
	txn5.Delete(keySlice(sopKey(t)))
	s.sop = txn5.Commit()
}

func (s *Store) insertFiveIndices(e *factEntry) {
	t := e.triple
	txn1 := s.spo.Txn()
	txn1.Insert(keySlice(spoKey(t)), e)
	s.spo = txn1.Commit()

	txn2 := s.pos.Txn()
	txn2.Insert(keySlice(posKey(t)), e)
	s.pos = txn2.Commit()

	txn3 := s.osp.Txn()
	txn3.Insert(keySlice(ospKey(t)), e)
	s.osp = txn3.Commit()

	txn4 := s.pso.Txn()
	txn4.Insert(keySlice(psoKey(t)), e)
	s.pso = txn4.Commit()

	txn5 := s.sop.Txn()
	txn5.Insert(keySlice(sopKey(t)), e)
	s.sop = txn5.Commit()
}
