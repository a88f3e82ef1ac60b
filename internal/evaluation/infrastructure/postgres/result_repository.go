package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	evaluation "survey-cadence/internal/evaluation/domain"
)

// ResultRepository is a Postgres implementation of the result store.
type ResultRepository struct {
	db *sql.DB
}

// NewResultRepository constructs a result repository.
func NewResultRepository(db *sql.DB) *ResultRepository {
	return &ResultRepository{db: db}
}

// Save persists one evaluation result.
func (r *ResultRepository) Save(ctx context.Context, result evaluation.Result) error {
	if r == nil || r.db == nil {
		return errors.New("result repo: nil db")
	}
	if err := result.Validate(); err != nil {
		return err
	}

	params, err := json.Marshal(result.Parameters)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO evaluation_results (
	id, tenant_id, field_id, metric_name, metric_kind,
	value, passed, visit_count, parameters, evaluated_at
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9,$10
)`, result.ID, result.TenantID, result.FieldID, result.MetricName, result.MetricKind,
		result.Value, result.Passed, result.VisitCount, params, result.EvaluatedAt)
	return err
}

// List returns results for a tenant, newest first, optionally filtered by
// field and metric name.
func (r *ResultRepository) List(ctx context.Context, tenantID, fieldID, metricName string) ([]evaluation.Result, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("result repo: nil db")
	}

	query := `
SELECT id, tenant_id, field_id, metric_name, metric_kind,
	value, passed, visit_count, parameters, evaluated_at
FROM evaluation_results
WHERE tenant_id = $1
	AND ($2 = '' OR field_id = $2)
	AND ($3 = '' OR metric_name = $3)
ORDER BY evaluated_at DESC`

	rows, err := r.db.QueryContext(ctx, query, tenantID, fieldID, metricName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []evaluation.Result
	for rows.Next() {
		var result evaluation.Result
		var params []byte
		if err := rows.Scan(
			&result.ID,
			&result.TenantID,
			&result.FieldID,
			&result.MetricName,
			&result.MetricKind,
			&result.Value,
			&result.Passed,
			&result.VisitCount,
			&params,
			&result.EvaluatedAt,
		); err != nil {
			return nil, err
		}
		if len(params) > 0 {
			if err := json.Unmarshal(params, &result.Parameters); err != nil {
				return nil, err
			}
		}
		results = append(results, result)
	}
	return results, rows.Err()
}
