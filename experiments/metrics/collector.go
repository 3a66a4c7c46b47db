package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

type SearchMetric struct {
	Goroutines int
	MaxDepth   int
	Duration   time.Duration
	Episodes   int
	Nodes      int            // Belief nodes created during the search
	Statuses   map[string]int // Episodes by final search status
}

type SolverConfig struct {
	ID             int           `yaml:"id"`
	Goroutines     int           `yaml:"goroutines"`
	Duration       time.Duration `yaml:"duration"`
	Episodes       int           `yaml:"episodes"`
	MaxDepth       int           `yaml:"max_depth"`
	DiscountFactor float64       `yaml:"discount_factor"`
	RolloutSteps   int           `yaml:"rollout_steps"`
}

type Collector interface {
	Start(goroutines, maxDepth int)
	AddEpisode(status string)
	AddNode()
	AddWorkers(delta int)
	Complete() SearchMetric
}

type collector struct {
	goroutines int
	maxDepth   int
	startTime  time.Time
	episodes   atomic.Int32
	nodes      atomic.Int32

	mu       sync.Mutex
	statuses map[string]int
}

func NewCollector() Collector {
	return &collector{statuses: make(map[string]int)}
}

func (m *collector) Start(goroutines, maxDepth int) {
	m.startTime = time.Now()
	m.goroutines = goroutines
	m.maxDepth = maxDepth
}

func (m *collector) AddEpisode(status string) {
	m.episodes.Add(1)
	m.mu.Lock()
	m.statuses[status]++
	m.mu.Unlock()
}

func (m *collector) AddNode() {
	m.nodes.Add(1)
}

func (m *collector) AddWorkers(delta int) {}

func (m *collector) Complete() SearchMetric {
	m.mu.Lock()
	statuses := make(map[string]int, len(m.statuses))
	for status, n := range m.statuses {
		statuses[status] = n
	}
	m.mu.Unlock()

	return SearchMetric{
		Goroutines: m.goroutines,
		MaxDepth:   m.maxDepth,
		Duration:   time.Since(m.startTime),
		Episodes:   int(m.episodes.Load()),
		Nodes:      int(m.nodes.Load()),
		Statuses:   statuses,
	}
}

type dummyCollector struct{}

func NewDummyCollector() Collector {
	return &dummyCollector{}
}

func (m *dummyCollector) Start(goroutines, maxDepth int) {}
func (m *dummyCollector) AddEpisode(status string)       {}
func (m *dummyCollector) AddNode()                       {}
func (m *dummyCollector) AddWorkers(delta int)           {}
func (m *dummyCollector) Complete() SearchMetric         { return SearchMetric{} }
