package partition

import "strconv"

func init() {
	Register(TypePotc, func(cfg Config) (Strategy, error) {
		m := cfg.KeyNodeMap
		if m == nil {
			m = NewKeyNodeMap()
		}
		return &potcStrategy{assigned: m}, nil
	})
}

// potcStrategy is power-of-two-choices: a key is assigned, on first sight,
// to whichever of two hash-derived candidates currently carries less load.
// The assignment then sticks for the key's lifetime.
type potcStrategy struct {
	assigned *KeyNodeMap
}

func (s *potcStrategy) Type() StrategyType { return TypePotc }

func (s *potcStrategy) Partition(keys []string, numNodes int, load LoadFunc, buffers [][]string) {
	if numNodes == 0 {
		return
	}
	for _, k := range keys {
		idx, ok := s.assigned.Get(k)
		if !ok {
			c1, c2 := twoCandidates(k, numNodes)
			load1 := load(c1) + len(buffers[c1])
			load2 := load(c2) + len(buffers[c2])
			if load2 < load1 {
				idx = c2
			} else {
				idx = c1
			}
			s.assigned.Set(k, idx)
		}
		buffers[idx] = append(buffers[idx], k)
	}
}

// twoCandidates derives two distinct candidate node indices for key,
// resampling the second candidate's salt deterministically until it
// differs from the first.
func twoCandidates(key string, numNodes int) (int, int) {
	c1 := int(hashString(key) % uint64(numNodes))
	salt := 0
	c2 := int(hashString(key+"salt") % uint64(numNodes))
	for c2 == c1 && numNodes > 1 {
		salt++
		c2 = int(hashString(key+"salt"+strconv.Itoa(salt)) % uint64(numNodes))
	}
	return c1, c2
}
