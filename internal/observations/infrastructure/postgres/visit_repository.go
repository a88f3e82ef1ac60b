package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	observations "survey-cadence/internal/observations/domain"
)

const defaultVisitTable = "visits"

// VisitRepository is a Postgres implementation of the visit store.
type VisitRepository struct {
	db    *sql.DB
	table string
}

// RepositoryOption configures the repository.
type RepositoryOption func(*VisitRepository)

// WithTable overrides the default table name.
func WithTable(table string) RepositoryOption {
	return func(repo *VisitRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// NewVisitRepository constructs a repository with the default table name.
func NewVisitRepository(db *sql.DB, opts ...RepositoryOption) *VisitRepository {
	repo := &VisitRepository{db: db, table: defaultVisitTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// InsertVisits upserts a batch of visits keyed on (tenant, field, mjd, filter).
func (r *VisitRepository) InsertVisits(ctx context.Context, visits []observations.Visit) error {
	if r == nil || r.db == nil {
		return errors.New("visit repo: nil db")
	}
	if len(visits) == 0 {
		return nil
	}

	query := fmt.Sprintf(`
INSERT INTO %s (
	tenant_id,
	field_id,
	mjd,
	ra_deg,
	dec_deg,
	filter,
	five_sigma_depth,
	seeing_arcsec
) VALUES (
	$1, $2, $3, $4, $5, $6, $7, $8
)
ON CONFLICT (tenant_id, field_id, mjd, filter)
DO UPDATE SET
	ra_deg = EXCLUDED.ra_deg,
	dec_deg = EXCLUDED.dec_deg,
	five_sigma_depth = EXCLUDED.five_sigma_depth,
	seeing_arcsec = EXCLUDED.seeing_arcsec,
	updated_at = NOW()`, r.table)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, visit := range visits {
		if err := visit.Validate(); err != nil {
			_ = tx.Rollback()
			return err
		}
		if _, err := stmt.ExecContext(ctx,
			visit.TenantID,
			visit.FieldID,
			visit.MJD,
			visit.RADeg,
			visit.DecDeg,
			visit.Filter,
			visit.FiveSigmaDepth,
			visit.SeeingArcsec,
		); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// ListByField loads a field's visits ordered by MJD.
func (r *VisitRepository) ListByField(ctx context.Context, tenantID, fieldID string) (*observations.Batch, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("visit repo: nil db")
	}
	if fieldID == "" {
		return nil, observations.ErrEmptyFieldID
	}

	query := fmt.Sprintf(`
SELECT field_id, mjd, ra_deg, dec_deg, filter, five_sigma_depth, seeing_arcsec
FROM %s
WHERE tenant_id = $1 AND field_id = $2
ORDER BY mjd ASC`, r.table)

	rows, err := r.db.QueryContext(ctx, query, tenantID, fieldID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	batch := &observations.Batch{FieldID: fieldID}
	for rows.Next() {
		visit := observations.Visit{TenantID: tenantID}
		if err := rows.Scan(
			&visit.FieldID,
			&visit.MJD,
			&visit.RADeg,
			&visit.DecDeg,
			&visit.Filter,
			&visit.FiveSigmaDepth,
			&visit.SeeingArcsec,
		); err != nil {
			return nil, err
		}
		batch.Visits = append(batch.Visits, visit)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(batch.Visits) == 0 {
		return nil, observations.ErrFieldNotFound
	}
	return batch, nil
}

// CountByField returns the number of stored visits for a field.
func (r *VisitRepository) CountByField(ctx context.Context, tenantID, fieldID string) (int, error) {
	if r == nil || r.db == nil {
		return 0, errors.New("visit repo: nil db")
	}
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE tenant_id = $1 AND field_id = $2`, r.table)
	var count int
	if err := r.db.QueryRowContext(ctx, query, tenantID, fieldID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
