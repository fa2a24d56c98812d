package scanner

import (
	"context"
	"fmt"

	"MarketBriefing/internal/domain"
)

// Request carries all parameters required to fetch one feed source.
// Exactly one of Query and URL is meaningful for a given strategy.
type Request struct {
	Topic    string
	Query    string
	URL      string
	MaxItems int
}

// Scanner captures a single feed strategy (search feed, plain RSS, etc.).
type Scanner interface {
	Name() string
	Describe(req Request) string
	Scan(ctx context.Context, req Request) ([]domain.HeadlineRecord, error)
}

// Registry keeps a mapping from scanner names to their implementations.
type Registry struct {
	scanners map[string]Scanner
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{scanners: map[string]Scanner{}}
}

// Register adds or replaces a scanner implementation.
func (r *Registry) Register(scanner Scanner) {
	if r.scanners == nil {
		r.scanners = map[string]Scanner{}
	}
	r.scanners[scanner.Name()] = scanner
}

// Resolve returns a scanner by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Scanner, error) {
	if scanner, ok := r.scanners[name]; ok {
		return scanner, nil
	}
	return nil, fmt.Errorf("scanner %s is not registered", name)
}
