// Package window implements the sliding window: admission, processability,
// expiry, and bounded-cost incremental processing over a multiset of keys.
package window

import "github.com/streamsim/dataflow-sim/internal/cost"

// Window is a bounded buffer of keys accumulated over a span of steps.
type Window struct {
	StartStep int
	Size      int
	Slide     int
	Keys      []string // arrival order; a multiset (duplicates allowed)
}

// New creates a window anchored at startStep.
func New(startStep, size, slide int) *Window {
	return &Window{StartStep: startStep, Size: size, Slide: slide}
}

// IsActive reports whether the window is still admitting keys.
func (w *Window) IsActive(step int) bool {
	return step < w.StartStep+w.Size
}

// IsProcessable reports whether the window may be processed at step.
func (w *Window) IsProcessable(step int) bool {
	lo := w.StartStep + w.Size
	hi := w.StartStep + w.Size + 3*w.Slide
	return step >= lo && step < hi
}

// IsExpired reports whether the window's lifetime has elapsed.
func (w *Window) IsExpired(step int) bool {
	return step >= w.StartStep+w.Size+3*w.Slide
}

// AddKey appends a key to the window in arrival order.
func (w *Window) AddKey(key string) {
	w.Keys = append(w.Keys, key)
}

// Empty reports whether the window currently holds no keys.
func (w *Window) Empty() bool {
	return len(w.Keys) == 0
}

// Process greedily admits keys from the front of the window into a running
// per-key occurrence count, recomputing the total cost after each tentative
// admission. If admitting a key would push cyclesUsed+stepCyclesUsed past
// throughput, that key's increment is reverted and processing stops; it and
// everything after it remains in the window as overdue.
//
// Returns the number of keys processed this call, the cycles consumed, and
// the per-key occurrence counts among the processed prefix.
func (w *Window) Process(throughput int, op cost.Operation, stepCyclesUsed int) (processedCount, cyclesUsed int, perKeyCounts map[string]int) {
	perKeyCounts = make(map[string]int)
	total := 0
	idx := 0

	for idx < len(w.Keys) {
		k := w.Keys[idx]
		perKeyCounts[k]++
		candidate := totalCost(perKeyCounts, op)
		if stepCyclesUsed+candidate > throughput {
			perKeyCounts[k]--
			if perKeyCounts[k] == 0 {
				delete(perKeyCounts, k)
			}
			break
		}
		total = candidate
		idx++
	}

	w.Keys = w.Keys[idx:]
	return idx, total, perKeyCounts
}

// totalCost sums the operation's cost applied to each key's occurrence
// count in counts.
func totalCost(counts map[string]int, op cost.Operation) int {
	sum := 0
	for _, n := range counts {
		sum += op.Cycles(n)
	}
	return sum
}
