package partition

func init() {
	Register(TypePkg, func(cfg Config) (Strategy, error) {
		m := cfg.KeyCandidates
		if m == nil {
			m = NewKeyCandidateMap()
		}
		return &pkgStrategy{candidates: m}, nil
	})
}

// pkgStrategy is partial-key-grouping: a key keeps the same two candidate
// nodes for its lifetime, but which of the two receives each occurrence is
// re-decided by current load every time. Downstream results must be
// reconciled by an aggregator, since either candidate may see only part of
// the key's traffic.
type pkgStrategy struct {
	candidates *KeyCandidateMap
}

func (s *pkgStrategy) Type() StrategyType { return TypePkg }

func (s *pkgStrategy) Partition(keys []string, numNodes int, load LoadFunc, buffers [][]string) {
	if numNodes == 0 {
		return
	}
	for _, k := range keys {
		cand, ok := s.candidates.Get(k)
		if !ok {
			c1, c2 := twoCandidates(k, numNodes)
			cand = Candidates{c1, c2}
			s.candidates.Set(k, cand)
		}
		load1 := load(cand[0]) + len(buffers[cand[0]])
		load2 := load(cand[1]) + len(buffers[cand[1]])
		idx := cand[0]
		if load2 < load1 {
			idx = cand[1]
		}
		buffers[idx] = append(buffers[idx], k)
	}
}
