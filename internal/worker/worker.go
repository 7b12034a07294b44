// Package worker implements the worker state machine: window admission,
// the per-step processing budget, expiry accounting, and the emission
// contract to downstream nodes or the aggregator.
package worker

import (
	"fmt"
	"sort"

	"github.com/streamsim/dataflow-sim/internal/cost"
	"github.com/streamsim/dataflow-sim/internal/window"
	"github.com/streamsim/dataflow-sim/pkg/utils"
)

// StepUpdate is the reserved sentinel key that advances a node's clock
// without carrying any payload.
const StepUpdate = "step_update"

// Finished is the sentinel emitted to an aggregator when a worker's
// contribution to a window is complete.
const Finished = "finished"

// Emission is a worker's output for one drained or processed window.
type Emission struct {
	WindowStart int
	Keys        []string
	Done        bool // window was fully drained (emits Finished to aggregator path)
}

// Counters accumulates per-worker lifetime statistics.
type Counters struct {
	TotalProcessed int
	TotalOverdue   int
	TotalExpired   int
	TotalCycles    int
}

// State owns all active windows for a single worker node.
type State struct {
	StageID     int
	NodeIndex   int
	Throughput  int
	Op          cost.Operation
	WindowSize  int
	Slide       int
	Terminal    bool
	CurrentStep int
	MinimumStep int
	StepCycles  int

	Windows  map[int]*window.Window
	Counters Counters

	Logger utils.Logger
}

// New creates a worker state with the given budget and window shape.
func New(stageID, nodeIndex, throughput int, op cost.Operation, windowSize, slide int, logger utils.Logger) *State {
	if logger == nil {
		logger = &utils.NullLogger{}
	}
	return &State{
		StageID:    stageID,
		NodeIndex:  nodeIndex,
		Throughput: throughput,
		Op:         op,
		WindowSize: windowSize,
		Slide:      slide,
		Windows:    make(map[int]*window.Window),
		Logger:     logger,
	}
}

// Update admits keys, drives window processing, and returns emissions for
// every window processed or expired this step.
func (s *State) Update(keys []string, step int) []Emission {
	if step > s.CurrentStep {
		s.StepCycles = 0
	}
	if step > s.CurrentStep {
		s.CurrentStep = step
	}
	s.MinimumStep = s.CurrentStep - s.WindowSize + 1
	if s.MinimumStep < 0 {
		s.MinimumStep = 0
	}

	var emissions []Emission
	processedThisStep := 0
	overdueThisStep := 0
	expiredThisStep := 0

	// 1. Process processable windows in ascending start_step, before admission.
	for _, start := range s.sortedStarts() {
		w := s.Windows[start]
		if !w.IsProcessable(s.CurrentStep) {
			continue
		}
		n, cycles, counts := w.Process(s.Throughput, s.Op, s.StepCycles)
		s.StepCycles += cycles
		s.Counters.TotalCycles += cycles
		s.Counters.TotalProcessed += n
		processedThisStep += n

		if n > 0 {
			emissions = append(emissions, Emission{
				WindowStart: start,
				Keys:        emitKeys(counts, s.Op),
			})
		}
		if w.Empty() {
			emissions = append(emissions, Emission{WindowStart: start, Done: true})
			delete(s.Windows, start)
		} else {
			overdueThisStep += len(w.Keys)
		}
	}
	s.Counters.TotalOverdue += overdueThisStep

	// 2. Admit the new batch.
	for _, k := range keys {
		if k == StepUpdate {
			continue
		}
		if step < s.MinimumStep {
			continue
		}
		anchor := (s.CurrentStep / s.Slide) * s.Slide
		if _, ok := s.Windows[anchor]; !ok {
			s.Windows[anchor] = window.New(anchor, s.WindowSize, s.Slide)
		}
		for _, w := range s.Windows {
			if w.IsActive(s.CurrentStep) && !w.IsProcessable(s.CurrentStep) && !w.IsExpired(s.CurrentStep) {
				w.AddKey(k)
			}
		}
	}

	// 3. Expire windows.
	for _, start := range s.sortedStarts() {
		w := s.Windows[start]
		if w.IsExpired(s.CurrentStep) {
			expiredThisStep += len(w.Keys)
			delete(s.Windows, start)
		}
	}
	s.Counters.TotalExpired += expiredThisStep

	s.logStep(processedThisStep, overdueThisStep, expiredThisStep)

	return emissions
}

func (s *State) sortedStarts() []int {
	starts := make([]int, 0, len(s.Windows))
	for start := range s.Windows {
		starts = append(starts, start)
	}
	sort.Ints(starts)
	return starts
}

func (s *State) logStep(processed, overdue, expired int) {
	loadPct := 0.0
	if s.Throughput > 0 {
		loadPct = float64(s.StepCycles*100) / float64(s.Throughput)
	}
	msg := fmt.Sprintf("Step %d - Processed %d keys using %d cycles - Node load %.1f%%", s.CurrentStep, processed, s.StepCycles, loadPct)
	if overdue > 0 {
		msg += fmt.Sprintf(" - Overdue keys: %d", overdue)
	}
	if expired > 0 {
		msg += fmt.Sprintf(" - Expired keys: %d", expired)
	}
	s.Logger.Info("%s", msg)
}

// emitKeys materialises the emission shape for one processed prefix:
// operations that repeat keys on emit (sorting/nested-loop-like) replay
// each key once per occurrence; every other operation emits the set of
// distinct keys only.
func emitKeys(counts map[string]int, op cost.Operation) []string {
	if op.RepeatsKeysOnEmit() {
		keys := make([]string, 0, len(counts))
		for k := range counts {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make([]string, 0)
		for _, k := range keys {
			for i := 0; i < counts[k]; i++ {
				out = append(out, k)
			}
		}
		return out
	}
	out := make([]string, 0, len(counts))
	for k := range counts {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
