package partition

import "sync"

func init() {
	Register(TypeKeyGroup, func(cfg Config) (Strategy, error) {
		prefix := cfg.PrefixLength
		if prefix <= 0 {
			prefix = 1
		}
		return &keyGroupingStrategy{
			prefixLength: prefix,
			groupMap:     make(map[string]int),
		}, nil
	})
}

// keyGroupingStrategy routes by hashing a fixed-length prefix of the key,
// so keys sharing a prefix land on the same node. The group→node mapping
// is cached for observability only; the route is always re-derivable from
// the hash alone.
type keyGroupingStrategy struct {
	prefixLength int
	mu           sync.Mutex
	groupMap     map[string]int
}

func (s *keyGroupingStrategy) Type() StrategyType { return TypeKeyGroup }

func (s *keyGroupingStrategy) Partition(keys []string, numNodes int, load LoadFunc, buffers [][]string) {
	if numNodes == 0 {
		return
	}
	for _, k := range keys {
		g := k
		if len(g) > s.prefixLength {
			g = g[:s.prefixLength]
		}
		idx := int(hashString(g) % uint64(numNodes))
		buffers[idx] = append(buffers[idx], k)

		s.mu.Lock()
		s.groupMap[g] = idx
		s.mu.Unlock()
	}
}
