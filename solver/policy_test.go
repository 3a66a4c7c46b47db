package solver

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUCBBound(t *testing.T) {
	t.Run("unvisited node", func(t *testing.T) {
		require.Panics(t, func() {
			newUCBBound(2.0, 0)
		}, "A node without visits has no bound")
	})

	t.Run("mean plus bonus", func(t *testing.T) {
		bound := newUCBBound(2.0, 100)

		expected := 5.0/10 + math.Sqrt(2.0*math.Log(100)/10.0)
		require.InDelta(t, expected, bound.score(5.0, 10), 1e-9)
	})

	t.Run("unvisited entry", func(t *testing.T) {
		bound := newUCBBound(2.0, 100)

		require.Panics(t, func() {
			bound.score(5.0, 0)
		}, "Untried entries are never scored")
	})

	t.Run("costlier entries score lower", func(t *testing.T) {
		bound := newUCBBound(2.0, 100)

		require.Less(t, bound.score(-100, 10), bound.score(-10, 10))
	})

	t.Run("bonus shrinks with entry visits", func(t *testing.T) {
		bound := newUCBBound(2.0, 100)

		require.Greater(t, bound.score(0, 10), bound.score(0, 20),
			"More visits should lower the exploration bonus")
	})

	t.Run("greedy without a coefficient", func(t *testing.T) {
		bound := newUCBBound(0, 100)

		require.Equal(t, 0.5, bound.score(5.0, 10), "Bound should be the mean")
	})
}
