package evaluation

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrEmptyID is returned when a result id is empty.
	ErrEmptyID = errors.New("evaluation: empty result id")
	// ErrEmptyFieldID is returned when a result has no field.
	ErrEmptyFieldID = errors.New("evaluation: empty field id")
	// ErrEmptyMetricName is returned when a result has no metric name.
	ErrEmptyMetricName = errors.New("evaluation: empty metric name")
	// ErrInvalidEvaluatedAt is returned when the evaluation time is zero.
	ErrInvalidEvaluatedAt = errors.New("evaluation: invalid evaluated_at")
	// ErrResultNotFound is returned when no result matches a query.
	ErrResultNotFound = errors.New("evaluation: result not found")
)

// Result is the outcome of one metric evaluation over one field's batch.
// Boolean metrics encode their outcome as 1.0/0.0 in Value, mirroring Passed.
type Result struct {
	ID          string            `json:"id"`
	TenantID    string            `json:"tenant_id"`
	FieldID     string            `json:"field_id"`
	MetricName  string            `json:"metric_name"`
	MetricKind  string            `json:"metric_kind"`
	Value       float64           `json:"value"`
	Passed      bool              `json:"passed"`
	VisitCount  int               `json:"visit_count"`
	Parameters  map[string]string `json:"parameters,omitempty"`
	EvaluatedAt time.Time         `json:"evaluated_at"`
}

// Validate checks result invariants before persistence.
func (r Result) Validate() error {
	if r.ID == "" {
		return ErrEmptyID
	}
	if r.FieldID == "" {
		return ErrEmptyFieldID
	}
	if r.MetricName == "" {
		return ErrEmptyMetricName
	}
	if r.EvaluatedAt.IsZero() {
		return ErrInvalidEvaluatedAt
	}
	return nil
}

// ResultRepository persists evaluation results.
type ResultRepository interface {
	Save(ctx context.Context, result Result) error
	List(ctx context.Context, tenantID, fieldID, metricName string) ([]Result, error)
}
