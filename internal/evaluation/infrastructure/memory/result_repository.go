package memory

import (
	"context"
	"sort"
	"sync"

	evaluation "survey-cadence/internal/evaluation/domain"
)

// ResultRepository is an in-memory result store for demo/testing.
type ResultRepository struct {
	mu      sync.RWMutex
	results []evaluation.Result
}

// NewResultRepository constructs a repository.
func NewResultRepository() *ResultRepository {
	return &ResultRepository{}
}

// Save stores one result.
func (r *ResultRepository) Save(ctx context.Context, result evaluation.Result) error {
	_ = ctx
	if err := result.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, result)
	return nil
}

// List returns results newest first, optionally filtered.
func (r *ResultRepository) List(ctx context.Context, tenantID, fieldID, metricName string) ([]evaluation.Result, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []evaluation.Result
	for _, result := range r.results {
		if result.TenantID != tenantID {
			continue
		}
		if fieldID != "" && result.FieldID != fieldID {
			continue
		}
		if metricName != "" && result.MetricName != metricName {
			continue
		}
		matched = append(matched, result)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].EvaluatedAt.After(matched[j].EvaluatedAt)
	})
	return matched, nil
}
