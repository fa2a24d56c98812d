package domain

import "time"

// TopicReport is the scan outcome for a single topic.
type TopicReport struct {
	Topic     string
	Ranked    []ScoredHeadline
	Counts    SentimentCounts
	Sources   int
	Failed    int
	Retrieved int
	Unique    int
	Survived  int
}

// Briefing is the assembled report across all topics.
type Briefing struct {
	GeneratedAt    time.Time
	Mode           string
	WindowLabel    string
	Window         *TimeWindow
	ClassifierMode string
	Topics         []TopicReport
	Totals         SentimentCounts
	Highlights     []ScoredHeadline
	Insiders       DisclosureSection[InsiderFiling]
	Politicians    DisclosureSection[CongressTrade]
}

// ItemCount is the number of ranked headlines across every topic.
func (b Briefing) ItemCount() int {
	n := 0
	for _, t := range b.Topics {
		n += len(t.Ranked)
	}
	return n
}

// InsiderFiling is a single SEC Form 4 filing reference.
type InsiderFiling struct {
	Topic      string
	Ticker     string
	FilingDate string
	URL        string
	Accession  string
}

// CongressTrade is a disclosed congressional stock transaction.
type CongressTrade struct {
	Topic       string
	Ticker      string
	Politician  string
	Transaction string
	Date        string
	Amount      string
}

// DisclosureSection holds supplementary data or the reason it is missing.
type DisclosureSection[T any] struct {
	Items  []T
	Notice []string
}

// Available reports whether the section carries data rather than a notice.
func (s DisclosureSection[T]) Available() bool {
	return len(s.Notice) == 0
}
