// Package model defines the core data structures used throughout the
// application: run configuration, per-step reports, and persisted results.
package model

import "time"

// DistributionType names a key-arrival distribution for keygen batch
// sources.
type DistributionType string

const (
	DistributionNormal  DistributionType = "normal"
	DistributionUniform DistributionType = "uniform"
	DistributionPoisson DistributionType = "poisson"
	DistributionZipf    DistributionType = "zipf"
)

// DistributionConfig describes the statistical shape of generated key
// traffic.
type DistributionConfig struct {
	Type DistributionType `mapstructure:"type" json:"type"`
	Mean float64          `mapstructure:"mean,omitempty" json:"mean,omitempty"`
	Std  float64          `mapstructure:"std,omitempty" json:"std,omitempty"`
	Min  float64          `mapstructure:"min,omitempty" json:"min,omitempty"`
	Max  float64          `mapstructure:"max,omitempty" json:"max,omitempty"`
	Skew float64          `mapstructure:"skew,omitempty" json:"skew,omitempty"`
}

// KeygenConfig parameterizes synthetic key-stream generation.
type KeygenConfig struct {
	Streams          int                `mapstructure:"streams" json:"streams"`
	Steps            int                `mapstructure:"steps" json:"steps"`
	NumberOfKeys     int                `mapstructure:"number_of_keys" json:"number_of_keys"`
	ArrivalRate      float64            `mapstructure:"arrival_rate" json:"arrival_rate"`
	SpikeProbability float64            `mapstructure:"spike_probability" json:"spike_probability"`
	SpikeMagnitude   float64            `mapstructure:"spike_magnitude" json:"spike_magnitude"`
	Distribution     DistributionConfig `mapstructure:"distribution" json:"distribution"`
}

// NodeConfig describes one node within a topology stage.
type NodeConfig struct {
	ID           int     `mapstructure:"id" json:"id"`
	Type         string  `mapstructure:"type" json:"type"` // partitioner | worker
	Strategy     string  `mapstructure:"strategy,omitempty" json:"strategy,omitempty"`
	PrefixLength int     `mapstructure:"prefix_length,omitempty" json:"prefix_length,omitempty"`
	Throughput   int     `mapstructure:"throughput,omitempty" json:"throughput,omitempty"`
	OperationType string `mapstructure:"operation_type,omitempty" json:"operation_type,omitempty"`
	WindowSize   int     `mapstructure:"window_size,omitempty" json:"window_size,omitempty"`
	Slide        int     `mapstructure:"slide,omitempty" json:"slide,omitempty"`
}

// StageConfig describes one stage of the topology.
type StageConfig struct {
	ID           int          `mapstructure:"id" json:"id"`
	Type         string       `mapstructure:"type" json:"type"` // partitioner | worker
	KeySplitting bool         `mapstructure:"key_splitting,omitempty" json:"key_splitting,omitempty"`
	Nodes        []NodeConfig `mapstructure:"nodes" json:"nodes"`
}

// TopologyConfig describes the full stage pipeline.
type TopologyConfig struct {
	Stages []StageConfig `mapstructure:"stages" json:"stages"`
}

// RunConfig is the top-level configuration document for one simulation run.
type RunConfig struct {
	Keygen   KeygenConfig   `mapstructure:"keygen" json:"keygen"`
	Topology TopologyConfig `mapstructure:"topology" json:"topology"`
}

// StepReport summarises one worker node's activity for one step, in the
// shape the per-node log stream reproduces.
type StepReport struct {
	StageID      int       `json:"stage_id"`
	NodeIndex    int       `json:"node_index"`
	Step         int       `json:"step"`
	Processed    int       `json:"processed"`
	Cycles       int       `json:"cycles"`
	LoadPercent  float64   `json:"load_percent"`
	OverdueKeys  int       `json:"overdue_keys,omitempty"`
	ExpiredKeys  int       `json:"expired_keys,omitempty"`
	RecordedAt   time.Time `json:"recorded_at"`
}

// RunSummary is the final structural report a simulator produces at the
// end of a run.
type RunSummary struct {
	StepsRun       int           `json:"steps_run"`
	EmissionCount  int           `json:"emission_count"`
	TotalProcessed int           `json:"total_processed"`
	TotalOverdue   int           `json:"total_overdue"`
	TotalExpired   int           `json:"total_expired"`
	Duration       time.Duration `json:"duration"`
	CompletedAt    time.Time     `json:"completed_at"`
}
