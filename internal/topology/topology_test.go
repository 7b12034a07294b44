package topology

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamsim/dataflow-sim/pkg/model"
)

func twoStageConfig() model.TopologyConfig {
	return model.TopologyConfig{
		Stages: []model.StageConfig{
			{ID: 0, Type: "partitioner", Nodes: []model.NodeConfig{
				{ID: 0, Type: "partitioner", Strategy: "shuffle"},
			}},
			{ID: 1, Type: "worker", Nodes: []model.NodeConfig{
				{ID: 0, Type: "worker", Throughput: 1000, OperationType: "Constant", WindowSize: 3, Slide: 1},
				{ID: 1, Type: "worker", Throughput: 1000, OperationType: "Constant", WindowSize: 3, Slide: 1},
			}},
		},
	}
}

func TestBuild_WiresStagesInOrder(t *testing.T) {
	topo, err := Build(twoStageConfig(), nil)
	require.NoError(t, err)
	require.Len(t, topo.Stages, 2)

	assert.Same(t, topo.Stages[1], topo.Stages[0].NextStage)
	assert.True(t, topo.Stages[1].Terminal)
	assert.False(t, topo.Stages[0].Terminal)
	assert.Len(t, topo.Stages[1].Workers, 2)
}

func TestBuild_UnknownNodeType(t *testing.T) {
	cfg := model.TopologyConfig{
		Stages: []model.StageConfig{
			{ID: 0, Nodes: []model.NodeConfig{{Type: "mystery"}}},
		},
	}
	_, err := Build(cfg, nil)
	assert.Error(t, err)
}

func TestBuild_UnknownOperationType(t *testing.T) {
	cfg := model.TopologyConfig{
		Stages: []model.StageConfig{
			{ID: 0, Type: "worker", Nodes: []model.NodeConfig{
				{Type: "worker", OperationType: "bogus"},
			}},
		},
	}
	_, err := Build(cfg, nil)
	assert.Error(t, err)
}

func TestBuild_PartitionerStageRejectsMultipleNodes(t *testing.T) {
	cfg := model.TopologyConfig{
		Stages: []model.StageConfig{
			{ID: 0, Type: "partitioner", Nodes: []model.NodeConfig{
				{Type: "partitioner", Strategy: "shuffle"},
				{Type: "partitioner", Strategy: "shuffle"},
			}},
		},
	}
	_, err := Build(cfg, nil)
	assert.Error(t, err)
}

func TestTopology_RootAndLast(t *testing.T) {
	topo, err := Build(twoStageConfig(), nil)
	require.NoError(t, err)

	assert.Same(t, topo.Stages[0], topo.Root())
	assert.Same(t, topo.Stages[1], topo.Last())
}

func TestTopology_RootAndLast_Empty(t *testing.T) {
	topo := New(nil)
	assert.Nil(t, topo.Root())
	assert.Nil(t, topo.Last())
}

func TestTopology_SetSink(t *testing.T) {
	topo, err := Build(twoStageConfig(), nil)
	require.NoError(t, err)

	called := false
	topo.SetSink(func(step, windowStart int, keys []string) {
		called = true
	})
	topo.Last().Sink(0, 0, []string{"a"})
	assert.True(t, called)
}

func TestTopology_CounterTotals(t *testing.T) {
	topo, err := Build(twoStageConfig(), nil)
	require.NoError(t, err)

	for step := 0; step < 6; step++ {
		var keys []string
		if step == 0 {
			keys = []string{"a", "b", "a", "c"}
		}
		topo.Root().DispatchPartition(keys, step)
	}

	processed, _, _, cycles := topo.CounterTotals()
	assert.True(t, processed > 0)
	assert.True(t, cycles > 0)
}
