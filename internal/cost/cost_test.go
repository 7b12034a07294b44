package cost

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	t.Run("ValidNames", func(t *testing.T) {
		cases := map[string]Operation{
			"Constant":  Constant,
			"Log":       Log,
			"Linear":    Linear,
			"NLogN":     NLogN,
			"Quadratic": Quadratic,
		}
		for name, want := range cases {
			op, ok := Parse(name)
			assert.True(t, ok, name)
			assert.Equal(t, want, op, name)
		}
	})

	t.Run("UnknownName", func(t *testing.T) {
		_, ok := Parse("constant")
		assert.False(t, ok)

		_, ok = Parse("")
		assert.False(t, ok)
	})
}

func TestOperation_String(t *testing.T) {
	assert.Equal(t, "Constant", Constant.String())
	assert.Equal(t, "Log", Log.String())
	assert.Equal(t, "Linear", Linear.String())
	assert.Equal(t, "NLogN", NLogN.String())
	assert.Equal(t, "Quadratic", Quadratic.String())
	assert.Equal(t, "Unknown", Operation(99).String())
}

func TestOperation_RepeatsKeysOnEmit(t *testing.T) {
	assert.False(t, Constant.RepeatsKeysOnEmit())
	assert.False(t, Log.RepeatsKeysOnEmit())
	assert.False(t, Linear.RepeatsKeysOnEmit())
	assert.True(t, NLogN.RepeatsKeysOnEmit())
	assert.True(t, Quadratic.RepeatsKeysOnEmit())
}

func TestOperation_Cycles(t *testing.T) {
	t.Run("ZeroOrNegative", func(t *testing.T) {
		for _, op := range []Operation{Constant, Log, Linear, NLogN, Quadratic} {
			assert.Equal(t, 0, op.Cycles(0))
			assert.Equal(t, 0, op.Cycles(-1))
		}
	})

	t.Run("Constant", func(t *testing.T) {
		assert.Equal(t, 1, Constant.Cycles(1))
		assert.Equal(t, 1, Constant.Cycles(1000))
	})

	t.Run("Linear", func(t *testing.T) {
		assert.Equal(t, 1, Linear.Cycles(1))
		assert.Equal(t, 50, Linear.Cycles(50))
	})

	t.Run("Log", func(t *testing.T) {
		assert.Equal(t, 1, Log.Cycles(1))
		assert.Equal(t, 2, Log.Cycles(3))
	})

	t.Run("Quadratic", func(t *testing.T) {
		assert.Equal(t, 1, Quadratic.Cycles(1))
		assert.Equal(t, 100, Quadratic.Cycles(10))
	})

	t.Run("NLogNMonotonic", func(t *testing.T) {
		assert.GreaterOrEqual(t, NLogN.Cycles(10), NLogN.Cycles(5))
		assert.GreaterOrEqual(t, NLogN.Cycles(100), NLogN.Cycles(10))
	})
}
