package partition

func init() {
	Register(TypeShuffle, func(cfg Config) (Strategy, error) {
		return &shuffleStrategy{}, nil
	})
}

// shuffleStrategy routes keys round-robin, independent of key value.
type shuffleStrategy struct {
	cursor int
}

func (s *shuffleStrategy) Type() StrategyType { return TypeShuffle }

func (s *shuffleStrategy) Partition(keys []string, numNodes int, load LoadFunc, buffers [][]string) {
	if numNodes == 0 {
		return
	}
	for _, k := range keys {
		idx := s.cursor % numNodes
		buffers[idx] = append(buffers[idx], k)
		s.cursor++
	}
}
