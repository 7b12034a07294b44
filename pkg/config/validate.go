package config

import (
	"fmt"

	apperrors "github.com/streamsim/dataflow-sim/pkg/errors"
	"github.com/streamsim/dataflow-sim/pkg/model"
)

// Validate checks the configuration for the errors a simulator must catch
// before step 0: missing required fields, out-of-range numerics, unknown
// enums, non-unique node ids, non-sequential stage ids, and mismatched
// node types within a stage.
func (c *Config) Validate() error {
	if c.Database.Type != "sqlite" && c.Database.Type != "postgres" && c.Database.Type != "mysql" {
		return apperrors.Wrap(apperrors.CodeConfigError, fmt.Sprintf("unsupported database type: %s", c.Database.Type), nil)
	}
	if err := validateKeygen(&c.Keygen); err != nil {
		return err
	}
	if err := validateTopology(&c.Topology); err != nil {
		return err
	}
	return nil
}

// validateKeygen mirrors the keygen validation rules of the upstream
// generator: required fields, numeric ranges, and a distribution type
// drawn from a closed set.
func validateKeygen(k *model.KeygenConfig) error {
	if k.Streams <= 0 {
		return apperrors.New(apperrors.CodeConfigError, "keygen.streams must be positive")
	}
	if k.Steps <= 0 {
		return apperrors.New(apperrors.CodeConfigError, "keygen.steps must be positive")
	}
	if k.NumberOfKeys <= 0 {
		return apperrors.New(apperrors.CodeConfigError, "keygen.number_of_keys must be positive")
	}
	if k.ArrivalRate <= 0 {
		return apperrors.New(apperrors.CodeConfigError, "keygen.arrival_rate must be positive")
	}
	if k.SpikeProbability < 0 || k.SpikeProbability > 1 {
		return apperrors.New(apperrors.CodeConfigError, "keygen.spike_probability must be in [0,1]")
	}
	if k.SpikeMagnitude < 0 {
		return apperrors.New(apperrors.CodeConfigError, "keygen.spike_magnitude must be non-negative")
	}
	switch k.Distribution.Type {
	case model.DistributionNormal, model.DistributionUniform, model.DistributionPoisson, model.DistributionZipf:
	default:
		return apperrors.New(apperrors.CodeConfigError, fmt.Sprintf("unknown distribution type: %s", k.Distribution.Type))
	}
	return nil
}

// validateTopology mirrors the topology validation rules: stage ids must
// be sequential from zero, every stage needs at least one node, and all
// nodes in a stage must share the same type.
func validateTopology(t *model.TopologyConfig) error {
	if len(t.Stages) == 0 {
		return apperrors.New(apperrors.CodeConfigError, "topology.stages must be non-empty")
	}
	seenNodeIDs := make(map[int]bool)
	for i, stg := range t.Stages {
		if stg.ID != i {
			return apperrors.New(apperrors.CodeConfigError, fmt.Sprintf("stage id %d is not sequential (expected %d)", stg.ID, i))
		}
		if len(stg.Nodes) == 0 {
			return apperrors.New(apperrors.CodeConfigError, fmt.Sprintf("stage %d has no nodes", stg.ID))
		}
		nodeType := stg.Nodes[0].Type
		for _, n := range stg.Nodes {
			if n.Type != nodeType {
				return apperrors.New(apperrors.CodeConfigError, fmt.Sprintf("stage %d mixes node types %q and %q", stg.ID, nodeType, n.Type))
			}
			if seenNodeIDs[n.ID] {
				return apperrors.New(apperrors.CodeConfigError, fmt.Sprintf("duplicate node id %d", n.ID))
			}
			seenNodeIDs[n.ID] = true
			if n.Type == "worker" && n.Throughput <= 0 {
				return apperrors.New(apperrors.CodeConfigError, fmt.Sprintf("node %d: throughput must be positive", n.ID))
			}
			if n.Type == "worker" && n.WindowSize < n.Slide {
				return apperrors.New(apperrors.CodeConfigError, fmt.Sprintf("node %d: window_size must be >= slide", n.ID))
			}
		}
	}
	return nil
}
