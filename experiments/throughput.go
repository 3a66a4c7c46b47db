package experiments

import "abt/experiments/metrics"

// Throughput is the mean number of episodes per second of each solver config
// across its runs.
func Throughput(records []metrics.RunRecord) map[int]float64 {
	episodes := map[int]int{}
	seconds := map[int]float64{}
	for _, record := range records {
		episodes[record.Config] += record.Episodes
		seconds[record.Config] += record.Duration.Seconds()
	}

	rates := make(map[int]float64, len(episodes))
	for id, n := range episodes {
		if seconds[id] > 0 {
			rates[id] = float64(n) / seconds[id]
		}
	}
	return rates
}
