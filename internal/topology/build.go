package topology

import (
	"fmt"

	"github.com/streamsim/dataflow-sim/internal/cost"
	"github.com/streamsim/dataflow-sim/internal/partition"
	"github.com/streamsim/dataflow-sim/internal/stage"
	"github.com/streamsim/dataflow-sim/pkg/model"
	"github.com/streamsim/dataflow-sim/pkg/utils"
)

// nodeTypePartitioner and nodeTypeWorker mirror the "partitioner"/"worker" discriminator the
// config validator checks node-type homogeneity against.
const (
	nodeTypePartitioner = "partitioner"
	nodeTypeWorker      = "worker"
)

// Build constructs a Topology from a validated TopologyConfig. logger is
// attached to every worker node for its per-step stream.
func Build(cfg model.TopologyConfig, logger utils.Logger) (*Topology, error) {
	stages := make([]*stage.Stage, len(cfg.Stages))

	for i, stageCfg := range cfg.Stages {
		switch stageCfg.Nodes[0].Type {
		case nodeTypePartitioner:
			if len(stageCfg.Nodes) != 1 {
				return nil, fmt.Errorf("stage %d: a partitioner stage takes exactly one routing node", stageCfg.ID)
			}
			node := stageCfg.Nodes[0]
			strategyType := partition.StrategyType(node.Strategy)
			hashSeed := int64(stageCfg.ID + 1)
			s, err := stage.NewPartitionerStage(stageCfg.ID, strategyType, node.PrefixLength, hashSeed)
			if err != nil {
				return nil, err
			}
			stages[i] = s

		case nodeTypeWorker:
			node := stageCfg.Nodes[0]
			op, ok := cost.Parse(node.OperationType)
			if !ok {
				return nil, fmt.Errorf("stage %d: unknown operation type %q", stageCfg.ID, node.OperationType)
			}
			stages[i] = stage.NewWorkerStage(
				stageCfg.ID,
				len(stageCfg.Nodes),
				node.Throughput,
				op,
				node.WindowSize,
				node.Slide,
				stageCfg.KeySplitting,
				logger,
			)

		default:
			return nil, fmt.Errorf("stage %d: unknown node type %q", stageCfg.ID, stageCfg.Nodes[0].Type)
		}
	}

	return New(stages), nil
}
