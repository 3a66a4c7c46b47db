package solver

import "sync/atomic"

// SearchStatus reports how far the extension of a sequence got.
type SearchStatus int32

const (
	StatusUninitialized SearchStatus = iota // Generator could not be built
	StatusInitial                           // Generator built, simulation running
	StatusOutOfSteps                        // Truncated, needs a heuristic estimate
	StatusFinished
	StatusError
)

func (s SearchStatus) String() string {
	switch s {
	case StatusUninitialized:
		return "UNINITIALIZED"
	case StatusInitial:
		return "INITIAL"
	case StatusOutOfSteps:
		return "OUT_OF_STEPS"
	case StatusFinished:
		return "FINISHED"
	case StatusError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// StatusSignal is a status cell shared by a search strategy and the step
// generators it builds. It may be set from another goroutine; generators only
// look at it between phases.
type StatusSignal struct {
	v atomic.Int32
}

func NewStatusSignal(status SearchStatus) *StatusSignal {
	s := &StatusSignal{}
	s.Store(status)
	return s
}

func (s *StatusSignal) Load() SearchStatus {
	return SearchStatus(s.v.Load())
}

func (s *StatusSignal) Store(status SearchStatus) {
	s.v.Store(int32(status))
}

// CompareAndSwap moves the signal to next only if it currently reads old.
func (s *StatusSignal) CompareAndSwap(old, next SearchStatus) bool {
	return s.v.CompareAndSwap(int32(old), int32(next))
}
