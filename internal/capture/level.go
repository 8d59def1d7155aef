package capture

import "math"

// RMS computes the root-mean-square level of a chunk, in [0, 1] for
// normalized input. This is the only place volume is derived.
func RMS(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += float64(s) * float64(s)
	}
	return math.Sqrt(sum / float64(len(samples)))
}
