package domain

// Label is one of the three sentiment classes.
type Label string

const (
	Positive Label = "Positive"
	Negative Label = "Negative"
	Neutral  Label = "Neutral"
)

// Labels lists the sentiment classes in report order.
var Labels = []Label{Positive, Negative, Neutral}

// SentimentResult is the atomic output of classification.
// Confidence values from the primary model and the lexicon fallback are not
// calibrated against each other.
type SentimentResult struct {
	Label      Label
	Confidence float64
}

// SentimentCounts tallies classified headlines per label.
type SentimentCounts map[Label]int

// NewSentimentCounts returns counts with every known label present at zero.
func NewSentimentCounts() SentimentCounts {
	c := make(SentimentCounts, len(Labels))
	for _, l := range Labels {
		c[l] = 0
	}
	return c
}

// Add increments the counter for label.
func (c SentimentCounts) Add(label Label) {
	c[label]++
}

// Get returns the count for label, zero when unseen.
func (c SentimentCounts) Get(label Label) int {
	return c[label]
}

// Total sums all labels.
func (c SentimentCounts) Total() int {
	total := 0
	for _, v := range c {
		total += v
	}
	return total
}

// Merge adds other into c.
func (c SentimentCounts) Merge(other SentimentCounts) {
	for k, v := range other {
		c[k] += v
	}
}
