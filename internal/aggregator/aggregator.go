// Package aggregator merges partial per-window emissions from peer workers
// in a key-split stage, once every peer has signalled completion (or the
// window expires) for that window.
package aggregator

import (
	"sort"

	"github.com/streamsim/dataflow-sim/internal/cost"
	"github.com/streamsim/dataflow-sim/internal/window"
	"github.com/streamsim/dataflow-sim/internal/worker"
	"github.com/streamsim/dataflow-sim/pkg/collections"
)

// budget is the aggregator's own per-window processing cycle budget.
const budget = 1000

// Emission is the aggregator's merged output for one window.
type Emission struct {
	WindowStart int
	Keys        []string
}

// entry holds one in-flight window's merged contents and completion bitmap.
type entry struct {
	merged   *window.Window
	finished *collections.Bitset
}

// State merges partial window contributions from the peers of a key-split
// stage.
type State struct {
	WindowSize int
	Slide      int
	NumWorkers int

	windows map[int]*entry
}

// New creates an aggregator for a stage with numWorkers key-splitting peers.
func New(windowSize, slide, numWorkers int) *State {
	return &State{
		WindowSize: windowSize,
		Slide:      slide,
		NumWorkers: numWorkers,
		windows:    make(map[int]*entry),
	}
}

// Receive folds one sender's emissions for the current step into the
// merged windows and returns any windows that became ready to emit.
func (s *State) Receive(emissions []worker.Emission, step, senderID int) []Emission {
	for _, em := range emissions {
		e, ok := s.windows[em.WindowStart]
		if !ok {
			e = &entry{
				merged:   window.New(em.WindowStart, s.WindowSize, s.Slide),
				finished: collections.NewBitset(s.NumWorkers),
			}
			s.windows[em.WindowStart] = e
		}
		if em.Done {
			e.finished.Set(senderID)
			continue
		}
		if e.merged.IsExpired(step) {
			continue
		}
		for _, k := range em.Keys {
			e.merged.AddKey(k)
		}
	}

	var out []Emission
	for _, start := range s.sortedStarts() {
		e := s.windows[start]
		ready := e.finished.Count() == s.NumWorkers || e.merged.IsExpired(step)
		if !ready {
			continue
		}
		_, _, counts := e.merged.Process(budget, cost.Linear, 0)
		keys := make([]string, 0, len(counts))
		for k := range counts {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		if len(keys) > 0 {
			out = append(out, Emission{WindowStart: start, Keys: keys})
		}
		delete(s.windows, start)
	}
	return out
}

func (s *State) sortedStarts() []int {
	starts := make([]int, 0, len(s.windows))
	for start := range s.windows {
		starts = append(starts, start)
	}
	sort.Ints(starts)
	return starts
}
