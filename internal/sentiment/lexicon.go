package sentiment

import (
	"math"
	"sync"

	"github.com/jonreiter/govader"

	"MarketBriefing/internal/domain"
)

// The VADER lexicon is parsed once per process and only read afterwards.
var sharedAnalyzer = sync.OnceValue(govader.NewSentimentIntensityAnalyzer)

// Lexicon is the VADER rule-based polarity scorer used when the primary model
// is unavailable.
type Lexicon struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

// NewLexicon returns a scorer backed by the full VADER lexicon.
func NewLexicon() *Lexicon {
	return &Lexicon{analyzer: sharedAnalyzer()}
}

// Classify scores text and maps the compound score onto a label.
func (l *Lexicon) Classify(text string) domain.SentimentResult {
	return FromCompound(l.Compound(text))
}

// Compound returns the normalized polarity of text in [-1, 1].
func (l *Lexicon) Compound(text string) float64 {
	if text == "" {
		return 0
	}
	score := l.analyzer.PolarityScores(text).Compound
	if math.IsNaN(score) {
		return 0
	}
	return max(-1, min(1, score))
}
