package aggregator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamsim/dataflow-sim/internal/worker"
)

func TestState_Receive_EmitsWhenAllPeersFinished(t *testing.T) {
	s := New(3, 1, 2)

	out := s.Receive([]worker.Emission{{WindowStart: 0, Keys: []string{"a", "b"}}}, 3, 0)
	assert.Empty(t, out)

	out = s.Receive([]worker.Emission{{WindowStart: 0, Keys: []string{"a"}}, {WindowStart: 0, Done: true}}, 3, 0)
	assert.Empty(t, out)

	out = s.Receive([]worker.Emission{{WindowStart: 0, Done: true}}, 3, 1)
	require.Len(t, out, 1)
	assert.Equal(t, 0, out[0].WindowStart)
	assert.Equal(t, []string{"a", "b"}, out[0].Keys)
}

func TestState_Receive_EmitsOnExpiryRegardlessOfFinishedCount(t *testing.T) {
	s := New(1, 1, 2)

	s.Receive([]worker.Emission{{WindowStart: 0, Keys: []string{"a"}}}, 0, 0)
	out := s.Receive(nil, 5, 0)
	require.Len(t, out, 1)
	assert.Equal(t, []string{"a"}, out[0].Keys)
}

func TestState_Receive_DropsEmptyWindowsSilently(t *testing.T) {
	s := New(1, 1, 1)
	out := s.Receive([]worker.Emission{{WindowStart: 0, Done: true}}, 0, 0)
	assert.Empty(t, out)
}

func TestState_Receive_IgnoresKeysAfterWindowExpired(t *testing.T) {
	s := New(1, 1, 1)
	s.Receive([]worker.Emission{{WindowStart: 0, Keys: []string{"a"}}}, 0, 0)

	out := s.Receive([]worker.Emission{{WindowStart: 0, Keys: []string{"b"}}}, 10, 0)
	require.Len(t, out, 1)
	assert.Equal(t, []string{"a"}, out[0].Keys)
}
