package tiger

import (
	"context"
	"testing"

	"abt/solver"

	"github.com/stretchr/testify/require"
)

func TestGenerateStep(t *testing.T) {
	model := NewModel(DefaultConfig())
	cfg := model.Config()

	t.Run("opening the treasure door", func(t *testing.T) {
		result := model.GenerateStep(State{TigerLeft: true}, OpenRight)

		require.Equal(t, cfg.TreasureReward, result.Reward)
		require.True(t, result.IsTerminal)
		require.Equal(t, Nothing, result.Observation)
		require.True(t, model.IsTerminal(result.NextState))
	})

	t.Run("opening the tiger door", func(t *testing.T) {
		result := model.GenerateStep(State{TigerLeft: false}, OpenRight)

		require.Equal(t, cfg.TigerReward, result.Reward)
		require.True(t, result.IsTerminal)
	})

	t.Run("listening", func(t *testing.T) {
		heardLeft := 0
		const listens = 2000
		for i := 0; i < listens; i++ {
			result := model.GenerateStep(State{TigerLeft: true}, Listen)
			require.Equal(t, cfg.ListenReward, result.Reward)
			require.False(t, result.IsTerminal)
			require.Equal(t, State{TigerLeft: true}, result.NextState, "Listening should not move the tiger")
			if result.Observation == HearLeft {
				heardLeft++
			}
		}
		require.InDelta(t, cfg.ListenAccuracy, float64(heardLeft)/listens, 0.05)
	})

	t.Run("legal actions", func(t *testing.T) {
		require.Len(t, model.LegalActions(State{}, nil), 3)
		require.Nil(t, model.LegalActions(State{Done: true}, nil), "Terminal states have no actions")
	})
}

func TestBelief(t *testing.T) {
	model := NewModel(DefaultConfig())
	root := model.InitialBelief()

	t.Run("listening updates the posterior", func(t *testing.T) {
		left := root.CreateChild(Listen, HearLeft).(Belief)

		require.InDelta(t, 0.85, left.PLeft, 1e-9)
		require.Equal(t, 1, left.Listens)

		back := left.CreateChild(Listen, HearRight).(Belief)
		require.InDelta(t, 0.5, back.PLeft, 1e-9, "Opposite observations should cancel out")
		require.Equal(t, 0.5, root.PLeft, "Parent belief should be untouched")
	})

	t.Run("opening leaves the posterior", func(t *testing.T) {
		child := root.CreateChild(OpenLeft, Nothing).(Belief)

		require.Equal(t, root.PLeft, child.PLeft)
		require.Equal(t, 0, child.Listens)
	})

	t.Run("preferred action", func(t *testing.T) {
		require.Equal(t, Listen, root.PreferredAction())

		b := root
		for i := 0; i < 2; i++ {
			b = b.CreateChild(Listen, HearLeft).(Belief)
		}
		require.Equal(t, OpenRight, b.PreferredAction(), "Tiger is likely left so the right door is safe")

		b = root
		for i := 0; i < 2; i++ {
			b = b.CreateChild(Listen, HearRight).(Belief)
		}
		require.Equal(t, OpenLeft, b.PreferredAction())
	})

	t.Run("heuristic", func(t *testing.T) {
		require.InDelta(t, -45.0, model.Heuristic(nil, State{}, root), 1e-9)
		require.Equal(t, 0.0, model.Heuristic(nil, State{Done: true}, root))

		sure := Belief{PLeft: 1, model: model}
		require.InDelta(t, 10.0, model.Heuristic(nil, State{TigerLeft: true}, sure), 1e-9)
	})
}

func TestActionPool(t *testing.T) {
	t.Run("preferred prior seeds the preferred action", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.PreferredInit = true
		cfg.PreferredQValue = 3
		s, _ := NewSolver(cfg)

		entry := s.Tree().Root().Mapping().Entry(Listen)
		require.Equal(t, cfg.PreferredVisitCount, entry.VisitCount())
		require.Equal(t, 3.0, entry.MeanQValue())
		require.Nil(t, entry.ActionNode())
		require.Equal(t, int64(0), s.Tree().Root().Mapping().Entry(OpenLeft).VisitCount())
	})

	t.Run("without a prior", func(t *testing.T) {
		s, _ := NewSolver(DefaultConfig())

		require.Equal(t, int64(0), s.Tree().Root().Mapping().TotalVisitCount())
		require.True(t, s.Tree().Root().Mapping().HasActionsToTry())
	})
}

func TestSolverSearch(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Seed = 11
	s, _ := NewSolver(cfg, solver.WithEpisodes(3000), solver.WithGoroutines(4), solver.WithMaxDepth(10))

	_, err := s.Search(context.Background())
	require.NoError(t, err)

	stats := s.RootStatistics()
	require.Len(t, stats, 3, "Every root action should be tried")
	var visits int64
	for _, stat := range stats {
		require.True(t, stat.HasNode)
		require.GreaterOrEqual(t, stat.MeanQ, cfg.TigerReward+10*cfg.ListenReward,
			"Means are bounded by ten listens and the tiger")
		require.LessOrEqual(t, stat.MeanQ, cfg.TreasureReward, "Means are bounded by the best reward")
		visits += stat.Visits
	}
	require.Equal(t, int64(3000), visits, "Every episode should leave the root once")
	require.Equal(t, 3000, s.Tree().Root().NumParticles())
}
