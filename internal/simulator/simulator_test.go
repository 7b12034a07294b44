package simulator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamsim/dataflow-sim/internal/topology"
	"github.com/streamsim/dataflow-sim/pkg/model"
)

func testTopology(t *testing.T) *topology.Topology {
	cfg := model.TopologyConfig{
		Stages: []model.StageConfig{
			{ID: 0, Type: "partitioner", Nodes: []model.NodeConfig{
				{Type: "partitioner", Strategy: "shuffle"},
			}},
			{ID: 1, Type: "worker", Nodes: []model.NodeConfig{
				{Type: "worker", Throughput: 1000, OperationType: "Constant", WindowSize: 2, Slide: 1},
			}},
		},
	}
	topo, err := topology.Build(cfg, nil)
	require.NoError(t, err)
	return topo
}

func TestSimulator_Run(t *testing.T) {
	topo := testTopology(t)
	sim := New(topo, nil)

	batches := [][]string{
		{"a", "b"},
		{"a"},
		{},
		{"b"},
		{},
		{},
	}
	result := sim.Run(context.Background(), batches)

	assert.Equal(t, len(batches), result.StepsRun)
	assert.NotEmpty(t, result.Emissions)
}

func TestSimulator_Run_EmptyBatches(t *testing.T) {
	topo := testTopology(t)
	sim := New(topo, nil)

	result := sim.Run(context.Background(), nil)
	assert.Equal(t, 0, result.StepsRun)
	assert.Empty(t, result.Emissions)
}

func TestSimulator_Run_NoRootStage(t *testing.T) {
	sim := New(topology.New(nil), nil)
	result := sim.Run(context.Background(), [][]string{{"a"}})
	assert.Equal(t, 0, result.StepsRun)
}

func TestNew_DefaultsLogger(t *testing.T) {
	topo := testTopology(t)
	sim := New(topo, nil)
	assert.NotNil(t, sim.Logger)
}
