package fact

// RetractSource removes tag from every triple's SourceTags. A triple that
// ends up with IsAsserted=false and an empty SourceTags set (i.e. no
// remaining assertion backing it) is either demoted to derivation-only
// (if justifications remain) or torn down entirely (spec §4.2, §4.5 step
// 1-2). Retracting an unknown tag is a documented no-op, not an error
// (spec §7 RetractionUnknownTag).
func (s *Store) RetractSource(tag SourceId) RetractReport {
	var touched []*factEntry
	s.byID.Root().Walk(func(_ []byte, e *factEntry) bool {
		if e.alive() {
			if _, ok := e.der.SourceTags[tag]; ok {
				touched = append(touched, e)
			}
		}
		return false
	})

	report := RetractReport{TagKnown: len(touched) > 0}
	for _, e := range touched {
		delete(e.der.SourceTags, tag)
		if len(e.der.SourceTags) == 0 {
			e.der.IsAsserted = false
			if len(e.der.Justifications) == 0 {
				id := e.id
				s.tombstone(e)
				report.Removed = append(report.Removed, RemovedFact{ID: id, Triple: e.triple})
			} else {
				report.Demoted = append(report.Demoted, e.triple)
			}
		}
	}
	return report
}

// UndoJustification removes one justification (by its index position,
// counting from 0 in insertion order) from a derived triple. If no
// assertion and no justification remain afterward, the triple is torn
// down; the caller (the Inference Driver) is expected to enqueue a
// -delta for it in that case (spec §4.5 step 4, §8 "Counting
// invalidation").
func (s *Store) UndoJustification(t Triple, justificationIndex int) (removed bool) {
	e, ok := s.lookupExact(t)
	if !ok || !e.alive() {
		return false
	}
	if justificationIndex < 0 || justificationIndex >= len(e.der.Justifications) {
		return false
	}
	e.der.Justifications = append(e.der.Justifications[:justificationIndex], e.der.Justifications[justificationIndex+1:]...)
	if !e.der.IsAsserted && len(e.der.Justifications) == 0 {
		s.tombstone(e)
		return true
	}
	return false
}

// HasJustifications returns the number of surviving justifications t
// currently has (0 if t is not present).
func (s *Store) HasJustifications(t Triple) int {
	e, ok := s.lookupExact(t)
	if !ok {
		return 0
	}
	return len(e.der.Justifications)
}

// IsAlive reports whether t is currently present (asserted or justified).
// Subject and object are first mapped to their sameAs canonical
// representatives, as Assert and Derive do, so a non-canonical id is
// redirected.
func (s *Store) IsAlive(t Triple) bool {
	t, _ = s.canonicalizeTriple(t)
	e, ok := s.lookupExact(t)
	return ok && e.alive()
}

func (s *Store) tombstone(e *factEntry) {
	e.death = s.epoch.Load()
	s.deleteFromFiveIndices(e.triple)
	s.cardMu.Lock()
	s.predCardinality[e.triple.P]--
	s.cardMu.Unlock()
}
