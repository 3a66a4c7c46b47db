package solver

import "math"

// ucbBound scores the entries of one belief node by their UCB1 bound.
type ucbBound struct {
	exploration float64 // c^2 * ln(N), N the node's total visits
}

func newUCBBound(cSquared float64, totalVisits int64) ucbBound {
	if totalVisits <= 0 {
		panic("belief node has no visits to bound")
	}
	return ucbBound{exploration: cSquared * math.Log(float64(totalVisits))}
}

// score is the mean value of an entry plus its exploration bonus.
func (b ucbBound) score(totalQ float64, visits int64) float64 {
	if visits <= 0 {
		panic("cannot bound an unvisited entry")
	}
	n := float64(visits)
	return totalQ/n + math.Sqrt(b.exploration/n)
}
