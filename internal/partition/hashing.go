package partition

import "github.com/cespare/xxhash/v2"

func init() {
	Register(TypeHashing, func(cfg Config) (Strategy, error) {
		return &hashingStrategy{seed: uint64(cfg.HashSeed)}, nil
	})
}

// hashingStrategy routes a key by XOR-ing its hash with the stage's shared
// seed, so every hashing partitioner in a stage routes a key identically.
type hashingStrategy struct {
	seed uint64
}

func (s *hashingStrategy) Type() StrategyType { return TypeHashing }

func (s *hashingStrategy) Partition(keys []string, numNodes int, load LoadFunc, buffers [][]string) {
	if numNodes == 0 {
		return
	}
	for _, k := range keys {
		h := xxhash.Sum64String(k) ^ s.seed
		idx := int(h % uint64(numNodes))
		buffers[idx] = append(buffers[idx], k)
	}
}

// hashString is the shared hash primitive used across strategies.
func hashString(s string) uint64 {
	return xxhash.Sum64String(s)
}
