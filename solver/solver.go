package solver

import (
	"context"
	"errors"
	"math"
	"time"

	"abt/experiments/metrics"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Defaults for search hyperparameters
const (
	DefaultMaxDepth               = 50
	DefaultDiscountFactor         = 0.95
	DefaultExplorationCoefficient = math.Sqrt2
	DefaultRolloutSteps           = 20
)

var ErrNoSearchBudget = errors.New("must specify search episodes or duration")

type Option func(s *Solver)

type Solver struct {
	model     Model
	tree      *BeliefTree
	pool      *StatePool
	strategy  SearchStrategy
	factories []StepGeneratorFactory
	heuristic Heuristic
	rootData  HistoricalData

	goroutines             int
	duration               time.Duration
	episodes               int
	maxDepth               int
	discountFactor         float64
	explorationCoefficient float64
	rolloutSteps           int
	seed                   uint64

	metrics metrics.Collector
	tracer  *searchTracer
}

func WithGoroutines(goroutines int) Option {
	return func(s *Solver) {
		if goroutines > 0 {
			s.goroutines = goroutines
		}
	}
}

func WithDuration(duration time.Duration) Option {
	return func(s *Solver) {
		if duration > 0 {
			s.duration = duration
		}
	}
}

func WithEpisodes(episodes int) Option {
	return func(s *Solver) {
		if episodes > 0 {
			s.episodes = episodes
		}
	}
}

func WithMaxDepth(depth int) Option {
	return func(s *Solver) {
		if depth > 0 {
			s.maxDepth = depth
		}
	}
}

func WithDiscountFactor(gamma float64) Option {
	return func(s *Solver) {
		if gamma > 0 && gamma <= 1 {
			s.discountFactor = gamma
		}
	}
}

func WithExplorationCoefficient(c float64) Option {
	return func(s *Solver) {
		if c >= 0 {
			s.explorationCoefficient = c
		}
	}
}

func WithRolloutSteps(steps int) Option {
	return func(s *Solver) {
		if steps >= 0 {
			s.rolloutSteps = steps
		}
	}
}

func WithSeed(seed uint64) Option {
	return func(s *Solver) {
		s.seed = seed
	}
}

func WithHeuristic(heuristic Heuristic) Option {
	return func(s *Solver) {
		if heuristic != nil {
			s.heuristic = heuristic
		}
	}
}

// WithHistoricalData sets the data of the root belief node.
func WithHistoricalData(data HistoricalData) Option {
	return func(s *Solver) {
		s.rootData = data
	}
}

// WithStepGenerators replaces the default UCB descent followed by a random
// rollout with the given phases.
func WithStepGenerators(factories ...StepGeneratorFactory) Option {
	return func(s *Solver) {
		if len(factories) > 0 {
			s.factories = factories
		}
	}
}

func WithMetrics(collector metrics.Collector) Option {
	return func(s *Solver) {
		if collector != nil {
			s.metrics = collector
		}
	}
}

func WithTracing(enabled bool) Option {
	return func(s *Solver) {
		s.tracer = newSearchTracer(enabled)
	}
}

func New(model Model, actionPool ActionPool, observationPool ObservationPool, options ...Option) *Solver {
	s := &Solver{ // Default values
		model:                  model,
		pool:                   NewStatePool(),
		heuristic:              zeroHeuristic,
		goroutines:             1,
		maxDepth:               DefaultMaxDepth,
		discountFactor:         DefaultDiscountFactor,
		explorationCoefficient: DefaultExplorationCoefficient,
		rolloutSteps:           DefaultRolloutSteps,
		metrics:                metrics.NewDummyCollector(),
		tracer:                 newSearchTracer(false),
	}
	for _, option := range options {
		option(s)
	}
	if s.factories == nil {
		s.factories = []StepGeneratorFactory{
			NewUCBFactory(model, s.explorationCoefficient, s.seed),
			NewRolloutFactory(model, s.rolloutSteps, s.seed),
		}
	}

	s.tree = NewBeliefTree(actionPool, observationPool, s.rootData)
	s.strategy = NewBasicSearchStrategy(s, NewStagedStepGeneratorFactory(s.factories...), s.heuristic)
	return s
}

func (s *Solver) Model() Model {
	return s.model
}

func (s *Solver) Tree() *BeliefTree {
	return s.tree
}

func (s *Solver) StatePool() *StatePool {
	return s.pool
}

func (s *Solver) MaxDepth() int {
	return s.maxDepth
}

func (s *Solver) Strategy() SearchStrategy {
	return s.strategy
}

// CreateOrGetChild returns the belief node reached from node by action and
// obs, creating the action node and the child as needed.
func (s *Solver) CreateOrGetChild(node *BeliefNode, action Action, obs Observation) *BeliefNode {
	node.Lock()
	defer node.Unlock()

	mapping := node.Mapping()
	actionNode := mapping.ActionNode(action)
	if actionNode == nil {
		actionNode = mapping.CreateActionNode(action)
	}
	child, added := actionNode.CreateOrGetChild(obs)
	if added {
		s.metrics.AddNode()
	}
	return child
}

// UpdateImmediate credits a step taken from node: the edge for action gains
// the visits and the reward, the observation branch gains the visits, and the
// discounted reward reaches every ancestor edge.
func (s *Solver) UpdateImmediate(node *BeliefNode, action Action, obs Observation, reward float64, deltaNVisits int64) {
	node.Lock()
	mapping := node.Mapping()
	mapping.Update(action, deltaNVisits, reward)
	if actionNode := mapping.ActionNode(action); actionNode != nil {
		actionNode.Mapping().UpdateVisitCount(obs, deltaNVisits)
	}
	node.Unlock()

	if reward != 0 {
		s.propagate(node, reward)
	}
}

// UpdateEstimate records continuations through node and passes a change in the
// value estimated at node up to its ancestor edges.
func (s *Solver) UpdateEstimate(node *BeliefNode, deltaTotalQ float64, deltaNContinuations int64) {
	if deltaNContinuations != 0 {
		node.Lock()
		node.nContinuations += deltaNContinuations
		node.Unlock()
	}
	if deltaTotalQ != 0 {
		s.propagate(node, deltaTotalQ)
	}
}

// propagate adds deltaQ, discounted once per level, to the edges on the path
// from node to the root. One lock is held at a time.
func (s *Solver) propagate(node *BeliefNode, deltaQ float64) {
	for edge := node.ParentActionNode(); edge != nil; edge = node.ParentActionNode() {
		deltaQ *= s.discountFactor
		parent := edge.ParentBelief()
		parent.Lock()
		parent.Mapping().Update(edge.Action(), 0, deltaQ)
		parent.Unlock()
		node = parent
	}
}

// Search runs episodes from the root until the episode count or the duration
// is used up.
func (s *Solver) Search(ctx context.Context) (metrics.SearchMetric, error) {
	if s.episodes <= 0 && s.duration <= 0 {
		return metrics.SearchMetric{}, ErrNoSearchBudget
	}

	ctx, span := s.tracer.startSearch(ctx, s)
	s.metrics.Start(s.goroutines, s.maxDepth)
	var err error
	if s.episodes > 0 {
		err = s.iterate(ctx)
	} else {
		err = s.countdown(ctx)
	}
	metric := s.metrics.Complete()
	s.tracer.endSearch(span, metric, s.tree.Size(), err)
	return metric, err
}

func (s *Solver) iterate(ctx context.Context) error {
	task := make(chan any, s.episodes)
	for i := 0; i < s.episodes; i++ {
		task <- nil
	}
	close(task)

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < s.goroutines; i++ {
		g.Go(func() error {
			s.metrics.AddWorkers(1)
			defer s.metrics.AddWorkers(-1)

			for range task {
				if err := ctx.Err(); err != nil {
					return err
				}
				s.RunEpisode()
			}
			return nil
		})
	}
	return g.Wait()
}

func (s *Solver) countdown(ctx context.Context) error {
	deadline, cancel := context.WithTimeout(ctx, s.duration)
	defer cancel()

	g, gctx := errgroup.WithContext(deadline)
	for i := 0; i < s.goroutines; i++ {
		g.Go(func() error {
			s.metrics.AddWorkers(1)
			defer s.metrics.AddWorkers(-1)

			for {
				select {
				case <-gctx.Done():
					return nil
				default:
					s.RunEpisode()
				}
			}
		})
	}
	_ = g.Wait()
	return ctx.Err() // Only the caller's cancellation is an error
}

// RunEpisode samples an initial state, starts a sequence at the root and
// extends it.
func (s *Solver) RunEpisode() SearchStatus {
	sequence := NewHistorySequence(s.pool)
	entry := sequence.AddEntry(s.pool.Intern(s.model.SampleInitialState()))
	entry.RegisterNode(s.tree.Root())

	status := s.strategy.ExtendSequence(sequence, s.maxDepth)
	if status != StatusFinished {
		log.Warn().Msgf("episode ended with status %v after %d steps", status, sequence.Len()-1)
	}
	s.metrics.AddEpisode(status.String())
	return status
}

type ActionStatistics struct {
	Action     Action
	Visits     int64
	TotalQ     float64
	MeanQ      float64
	HasNode    bool
	NParticles int64
}

// RootStatistics reports the visited entries of the root mapping.
func (s *Solver) RootStatistics() []ActionStatistics {
	root := s.tree.Root()
	root.RLock()
	defer root.RUnlock()

	entries := root.Mapping().VisitedEntries()
	stats := make([]ActionStatistics, 0, len(entries))
	for _, entry := range entries {
		stat := ActionStatistics{
			Action: entry.Action(),
			Visits: entry.VisitCount(),
			TotalQ: entry.TotalQValue(),
			MeanQ:  entry.MeanQValue(),
		}
		if node := entry.ActionNode(); node != nil {
			stat.HasNode = true
			stat.NParticles = node.NParticles()
		}
		stats = append(stats, stat)
	}
	return stats
}
