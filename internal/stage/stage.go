// Package stage groups sibling nodes that share partitioner state (hash
// seed, sticky key→node assignments) and wires dispatch to the next stage.
package stage

import (
	"context"
	"fmt"

	"github.com/streamsim/dataflow-sim/internal/aggregator"
	"github.com/streamsim/dataflow-sim/internal/cost"
	"github.com/streamsim/dataflow-sim/internal/partition"
	"github.com/streamsim/dataflow-sim/internal/worker"
	"github.com/streamsim/dataflow-sim/pkg/parallel"
	"github.com/streamsim/dataflow-sim/pkg/utils"
)

// nodeUpdate is one worker node's admitted batch for a step, the unit of
// work handed to the worker pool.
type nodeUpdate struct {
	node *worker.State
	keys []string
	step int
}

// Kind distinguishes a stage's role. A stage's nodes are homogeneous: a
// stage is either a router (partitioner) or a set of workers.
type Kind int

const (
	Partitioner Kind = iota
	Worker
)

// SinkFunc receives a terminal stage's final emissions.
type SinkFunc func(step, windowStart int, keys []string)

// Stage is an ordered set of sibling nodes plus the state they share.
type Stage struct {
	ID       int
	Kind     Kind
	Terminal bool
	NextStage *Stage

	// Partitioner-kind fields.
	Strategy partition.Strategy

	// Worker-kind fields.
	Workers      []*worker.State
	KeySplitting bool
	Aggregator   *aggregator.State

	// Shared per-stage partitioner state.
	HashSeed      int64
	KeyNodeMap    *partition.KeyNodeMap
	KeyCandidates *partition.KeyCandidateMap

	Sink SinkFunc
}

// NewPartitionerStage builds a partitioner stage from a single routing
// strategy.
func NewPartitionerStage(id int, strategyType partition.StrategyType, prefixLength int, hashSeed int64) (*Stage, error) {
	keyNodeMap := partition.NewKeyNodeMap()
	keyCandidates := partition.NewKeyCandidateMap()
	strat, err := partition.Create(strategyType, partition.Config{
		HashSeed:      hashSeed,
		PrefixLength:  prefixLength,
		KeyNodeMap:    keyNodeMap,
		KeyCandidates: keyCandidates,
	})
	if err != nil {
		return nil, fmt.Errorf("stage %d: %w", id, err)
	}
	return &Stage{
		ID:            id,
		Kind:          Partitioner,
		Strategy:      strat,
		HashSeed:      hashSeed,
		KeyNodeMap:    keyNodeMap,
		KeyCandidates: keyCandidates,
	}, nil
}

// NewWorkerStage builds a stage of num worker nodes sharing one window
// shape and cost model.
func NewWorkerStage(id int, num int, throughput int, op cost.Operation, windowSize, slide int, keySplitting bool, logger utils.Logger) *Stage {
	workers := make([]*worker.State, num)
	for i := range workers {
		workers[i] = worker.New(id, i, throughput, op, windowSize, slide, logger)
	}
	s := &Stage{
		ID:           id,
		Kind:         Worker,
		Workers:      workers,
		KeySplitting: keySplitting,
	}
	if keySplitting {
		s.Aggregator = aggregator.New(windowSize, slide, num)
	}
	return s
}

// DispatchPartition routes keys through this stage's strategy and delivers
// to the next stage's nodes in ascending index order, with the step_update
// sentinel appended to every buffer first. Sibling nodes' Update calls run
// concurrently through a worker pool, but their emissions are folded back
// into the aggregator/forward path strictly in ascending node index, so the
// observable order of downstream dispatch never depends on goroutine
// scheduling.
func (s *Stage) DispatchPartition(keys []string, step int) {
	if s.Terminal || s.NextStage == nil {
		return
	}
	next := s.NextStage
	numNodes := next.nodeCount()
	buffers := make([][]string, numNodes)
	load := func(nodeIndex int) int {
		return next.load(nodeIndex)
	}
	s.Strategy.Partition(keys, numNodes, load, buffers)

	updates := make([]nodeUpdate, numNodes)
	for idx := 0; idx < numNodes; idx++ {
		updates[idx] = nodeUpdate{
			node: next.Workers[idx],
			keys: append(buffers[idx], worker.StepUpdate),
			step: step,
		}
	}

	pool := parallel.NewWorkerPool[nodeUpdate, []worker.Emission](parallel.DefaultPoolConfig())
	results := pool.ExecuteFunc(context.Background(), updates, func(_ context.Context, u nodeUpdate) ([]worker.Emission, error) {
		return u.node.Update(u.keys, u.step), nil
	})

	for idx, res := range results {
		next.processEmissions(idx, res.Result, step)
	}
}

// DispatchFromPartitioner is the entry point for a worker stage receiving a
// batch targeted at one of its nodes.
func (s *Stage) DispatchFromPartitioner(nodeIndex int, keys []string, step int) {
	if nodeIndex < 0 || nodeIndex >= len(s.Workers) {
		return
	}
	emissions := s.Workers[nodeIndex].Update(keys, step)
	s.processEmissions(nodeIndex, emissions, step)
}

// processEmissions folds one node's update result into the aggregator (for
// key-split stages) or directly onward, in the caller's chosen order.
func (s *Stage) processEmissions(nodeIndex int, emissions []worker.Emission, step int) {
	if s.KeySplitting {
		merged := s.Aggregator.Receive(emissions, step, nodeIndex)
		for _, em := range merged {
			s.forward(step, em.WindowStart, em.Keys)
		}
		return
	}

	for _, em := range emissions {
		if em.Done {
			continue
		}
		s.forward(step, em.WindowStart, em.Keys)
	}
}

// forward sends one window's worth of emitted keys onward: to the sink if
// this stage is terminal, otherwise into the next stage's partitioner.
func (s *Stage) forward(step, windowStart int, keys []string) {
	if len(keys) == 0 {
		return
	}
	if s.Terminal || s.NextStage == nil {
		if s.Sink != nil {
			s.Sink(step, windowStart, keys)
		}
		return
	}
	s.NextStage.DispatchPartition(keys, step)
}

// nodeCount returns how many downstream targets this stage exposes.
func (s *Stage) nodeCount() int {
	if s.Kind == Worker {
		return len(s.Workers)
	}
	return 0
}

// load reports node nodeIndex's current active-window key count, used by
// load-aware partitioning strategies.
func (s *Stage) load(nodeIndex int) int {
	if s.Kind != Worker || nodeIndex < 0 || nodeIndex >= len(s.Workers) {
		return 0
	}
	total := 0
	for _, w := range s.Workers[nodeIndex].Windows {
		total += len(w.Keys)
	}
	return total
}
