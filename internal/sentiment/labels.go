package sentiment

import (
	"math"
	"strings"

	"MarketBriefing/internal/domain"
)

// NormalizeLabel maps a model's raw class name onto one of the three labels.
func NormalizeLabel(raw string) (domain.Label, bool) {
	l := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case strings.HasPrefix(l, "pos"):
		return domain.Positive, true
	case strings.HasPrefix(l, "neg"):
		return domain.Negative, true
	case strings.HasPrefix(l, "neu"):
		return domain.Neutral, true
	default:
		return "", false
	}
}

// Softmax converts logits into probabilities. The max logit is subtracted first
// so large logits cannot overflow.
func Softmax(logits []float64) []float64 {
	if len(logits) == 0 {
		return nil
	}

	maxLogit := logits[0]
	for _, v := range logits[1:] {
		if v > maxLogit {
			maxLogit = v
		}
	}

	probs := make([]float64, len(logits))
	var sum float64
	for i, v := range logits {
		probs[i] = math.Exp(v - maxLogit)
		sum += probs[i]
	}
	for i := range probs {
		probs[i] /= sum
	}
	return probs
}

// argmax returns the index of the largest value; the first wins on ties.
func argmax(values []float64) int {
	best := 0
	for i, v := range values {
		if v > values[best] {
			best = i
		}
	}
	return best
}

// FromCompound maps a compound polarity score in [-1, 1] to a result.
func FromCompound(score float64) domain.SentimentResult {
	abs := math.Abs(score)
	switch {
	case score >= 0.05:
		return domain.SentimentResult{Label: domain.Positive, Confidence: math.Min(1, abs)}
	case score <= -0.05:
		return domain.SentimentResult{Label: domain.Negative, Confidence: math.Min(1, abs)}
	default:
		return domain.SentimentResult{Label: domain.Neutral, Confidence: 1 - abs}
	}
}
