// Package topology wires an ordered sequence of stages into a pipeline:
// stage i+1 becomes the next_stage of stage i, and the last stage is
// marked terminal.
package topology

import "github.com/streamsim/dataflow-sim/internal/stage"

// Topology is an ordered pipeline of stages.
type Topology struct {
	Stages []*stage.Stage
}

// New builds a topology from stages already constructed in order, wiring
// next_stage links and the terminal flag on the last stage.
func New(stages []*stage.Stage) *Topology {
	for i, s := range stages {
		if i+1 < len(stages) {
			s.NextStage = stages[i+1]
		} else {
			s.Terminal = true
		}
	}
	return &Topology{Stages: stages}
}

// Root returns the entry stage (stage 0), which must be a partitioner.
func (t *Topology) Root() *stage.Stage {
	if len(t.Stages) == 0 {
		return nil
	}
	return t.Stages[0]
}

// Last returns the terminal stage.
func (t *Topology) Last() *stage.Stage {
	if len(t.Stages) == 0 {
		return nil
	}
	return t.Stages[len(t.Stages)-1]
}

// SetSink attaches a sink to the terminal stage.
func (t *Topology) SetSink(sink stage.SinkFunc) {
	if last := t.Last(); last != nil {
		last.Sink = sink
	}
}

// CounterTotals sums lifetime processed/overdue/expired/cycle counts across
// every worker node in the topology, for the end-of-run summary.
func (t *Topology) CounterTotals() (processed, overdue, expired, cycles int) {
	for _, s := range t.Stages {
		for _, w := range s.Workers {
			processed += w.Counters.TotalProcessed
			overdue += w.Counters.TotalOverdue
			expired += w.Counters.TotalExpired
			cycles += w.Counters.TotalCycles
		}
	}
	return
}
