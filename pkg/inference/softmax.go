package inference

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Softmax converts logits into a probability distribution using the
// log-sum-exp shift so large logits do not overflow.
func Softmax(logits []float64) []float64 {
	probs := make([]float64, len(logits))
	if len(logits) == 0 {
		return probs
	}

	lse := floats.LogSumExp(logits)
	for i, v := range logits {
		probs[i] = math.Exp(v - lse)
	}
	return probs
}

// Argmax returns the index of the largest value, the first one on ties, or -1
// for an empty slice.
func Argmax(values []float64) int {
	if len(values) == 0 {
		return -1
	}
	return floats.MaxIdx(values)
}

func RoundConfidence(p float64) float64 {
	return math.Round(p*1000) / 1000
}
