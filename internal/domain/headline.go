package domain

import "time"

// UnknownSource is used when no publisher can be derived from a feed entry.
const UnknownSource = "Unknown"

// HeadlineRecord is a normalized feed entry as returned by retrieval.
type HeadlineRecord struct {
	Title        string
	Link         string
	Source       string
	Summary      string
	Author       string
	PublishedRaw string
	PublishedAt  *time.Time
}

// Valid reports whether the record carries the fields every later stage relies on.
func (h HeadlineRecord) Valid() bool {
	return h.Title != "" && h.Link != ""
}

// TextUsage tags which text was fed to the classifier.
type TextUsage string

const (
	UsedTitleOnly    TextUsage = "TITLEONLY"
	UsedTitleSnippet TextUsage = "TITLE+SNIPPET"
)

// ScoredHeadline is a classified headline with cleaned display fields.
type ScoredHeadline struct {
	Topic        string
	Title        string
	Link         string
	Source       string
	Author       string
	PublishedRaw string
	PublishedAt  *time.Time
	Label        Label
	Confidence   float64
	Used         TextUsage
}

// SourceResult is the outcome of fetching a single feed endpoint.
type SourceResult struct {
	Source  string
	Records []HeadlineRecord
	Err     error
}

// OK reports whether the source was fetched without error.
func (r SourceResult) OK() bool {
	return r.Err == nil
}
