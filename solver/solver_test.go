package solver

import (
	"context"
	"sync"
	"testing"
	"time"

	"abt/experiments/metrics"

	"github.com/stretchr/testify/require"
)

func newLineSolver(options ...Option) *Solver {
	return New(mockModel{terminalAt: 3}, mockActionPool{actions: 2}, mockObservationPool{}, options...)
}

func TestSolverSearch(t *testing.T) {
	t.Run("requires a budget", func(t *testing.T) {
		_, err := newLineSolver().Search(context.Background())

		require.ErrorIs(t, err, ErrNoSearchBudget)
	})

	t.Run("runs every episode", func(t *testing.T) {
		s := newLineSolver(WithEpisodes(50), WithGoroutines(4), WithMetrics(metrics.NewCollector()))

		metric, err := s.Search(context.Background())

		require.NoError(t, err)
		require.Equal(t, 50, metric.Episodes)
		require.Equal(t, 50, metric.Statuses["FINISHED"])
		require.Equal(t, 4, metric.Goroutines)
		require.Equal(t, int64(50), s.Tree().Root().Mapping().TotalVisitCount(),
			"Every episode should take one step from the root")
		require.Equal(t, 50, s.Tree().Root().NumParticles())
		require.Equal(t, int64(metric.Nodes+1), s.Tree().Size(), "Created nodes plus the root")
	})

	t.Run("runs for a duration", func(t *testing.T) {
		s := newLineSolver(WithDuration(20*time.Millisecond), WithGoroutines(2), WithMetrics(metrics.NewCollector()))

		metric, err := s.Search(context.Background())

		require.NoError(t, err)
		require.Greater(t, metric.Episodes, 0)
		require.GreaterOrEqual(t, metric.Duration, 20*time.Millisecond)
	})

	t.Run("stops when cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		s := newLineSolver(WithEpisodes(10))

		_, err := s.Search(ctx)

		require.ErrorIs(t, err, context.Canceled)
	})

	t.Run("traced search", func(t *testing.T) {
		s := newLineSolver(WithEpisodes(5), WithTracing(true))

		_, err := s.Search(context.Background())

		require.NoError(t, err)
	})
}

func TestSolverRootStatistics(t *testing.T) {
	s := newLineSolver(WithEpisodes(40))
	_, err := s.Search(context.Background())
	require.NoError(t, err)

	stats := s.RootStatistics()

	require.Len(t, stats, 2, "Both root actions should be tried")
	var visits int64
	for _, stat := range stats {
		require.True(t, stat.HasNode)
		require.Equal(t, stat.Visits, stat.NParticles, "Without priors edge and entry visits agree")
		visits += stat.Visits
	}
	require.Equal(t, int64(40), visits)
}

func TestSolverUpdates(t *testing.T) {
	t.Run("immediate reward reaches every ancestor", func(t *testing.T) {
		s := newTestSolver(WithDiscountFactor(0.5))
		root := s.Tree().Root()
		child := s.CreateOrGetChild(root, mockAction(0), mockObservation(0))
		grandChild := s.CreateOrGetChild(child, mockAction(1), mockObservation(1))

		s.UpdateImmediate(grandChild, mockAction(0), mockObservation(0), 8, 1)

		require.Equal(t, 8.0, grandChild.Mapping().Entry(mockAction(0)).TotalQValue(),
			"Entry should be credited even before its action node exists")
		require.Equal(t, int64(1), grandChild.Mapping().Entry(mockAction(0)).VisitCount())
		require.Equal(t, 4.0, child.Mapping().Entry(mockAction(1)).TotalQValue())
		require.Equal(t, 2.0, root.Mapping().Entry(mockAction(0)).TotalQValue())
		require.Equal(t, int64(0), root.Mapping().Entry(mockAction(0)).VisitCount(), "Ancestors gain value only")
	})

	t.Run("estimate without value only counts continuations", func(t *testing.T) {
		s := newTestSolver()
		root := s.Tree().Root()
		child := s.CreateOrGetChild(root, mockAction(0), mockObservation(0))

		s.UpdateEstimate(child, 0, 2)

		require.Equal(t, int64(2), child.NContinuations())
		require.Equal(t, 0.0, root.Mapping().Entry(mockAction(0)).TotalQValue())
	})

	t.Run("create or get child is idempotent", func(t *testing.T) {
		s := newTestSolver()
		root := s.Tree().Root()

		first := s.CreateOrGetChild(root, mockAction(1), mockObservation(2))
		second := s.CreateOrGetChild(root, mockAction(1), mockObservation(2))

		require.Same(t, first, second)
		require.Equal(t, 1, root.Mapping().NumChildren())
		require.Equal(t, int64(2), s.Tree().Size())
	})
}

func TestSolverConcurrentEpisodes(t *testing.T) {
	s := newLineSolver()
	const goroutines, episodes = 8, 25

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < episodes; j++ {
				s.RunEpisode()
			}
		}()
	}
	wg.Wait()

	root := s.Tree().Root()
	require.Equal(t, int64(goroutines*episodes), root.Mapping().TotalVisitCount())
	var particles int64
	for _, entry := range root.Mapping().VisitedEntries() {
		require.Equal(t, entry.VisitCount(), entry.ActionNode().NParticles(),
			"Entry and edge should agree after concurrent updates")
		particles += entry.ActionNode().Mapping().TotalVisitCount()
	}
	require.Equal(t, int64(goroutines*episodes), particles, "Observation visits should add up")
}
