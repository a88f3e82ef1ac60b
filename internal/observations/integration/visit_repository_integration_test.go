package integration_test

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"

	observations "survey-cadence/internal/observations/domain"
	obspostgres "survey-cadence/internal/observations/infrastructure/postgres"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func TestVisitRepository_Postgres(t *testing.T) {
	dsn := os.Getenv("PG_DSN")
	if dsn == "" {
		t.Skip("PG_DSN not set")
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	if !tableExists(db, "visits") {
		t.Skip("visits missing; run migrations")
	}

	ctx := context.Background()
	tenantID := "tenant-it"
	fieldID := "field-it"

	_, _ = db.ExecContext(ctx, "DELETE FROM visits WHERE tenant_id = $1 AND field_id = $2", tenantID, fieldID)

	repo := obspostgres.NewVisitRepository(db)

	visits := []observations.Visit{
		{TenantID: tenantID, FieldID: fieldID, MJD: 60010, RADeg: 180, DecDeg: -30, Filter: "r", FiveSigmaDepth: 24.5, SeeingArcsec: 0.8},
		{TenantID: tenantID, FieldID: fieldID, MJD: 60000, RADeg: 180, DecDeg: -30, Filter: "g", FiveSigmaDepth: 24.9, SeeingArcsec: 0.7},
	}
	if err := repo.InsertVisits(ctx, visits); err != nil {
		t.Fatalf("insert visits: %v", err)
	}

	// Re-inserting the same epochs must upsert, not duplicate.
	if err := repo.InsertVisits(ctx, visits); err != nil {
		t.Fatalf("reinsert visits: %v", err)
	}

	batch, err := repo.ListByField(ctx, tenantID, fieldID)
	if err != nil {
		t.Fatalf("list by field: %v", err)
	}
	if len(batch.Visits) != 2 {
		t.Fatalf("expected 2 visits, got %d", len(batch.Visits))
	}
	if batch.Visits[0].MJD != 60000 || batch.Visits[1].MJD != 60010 {
		t.Fatalf("expected mjd order, got %v", batch.Times())
	}

	count, err := repo.CountByField(ctx, tenantID, fieldID)
	if err != nil {
		t.Fatalf("count by field: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected count 2, got %d", count)
	}

	_, err = repo.ListByField(ctx, tenantID, "field-absent")
	if !errors.Is(err, observations.ErrFieldNotFound) {
		t.Fatalf("expected ErrFieldNotFound, got %v", err)
	}
}

func tableExists(db *sql.DB, table string) bool {
	var exists bool
	err := db.QueryRow(`
SELECT EXISTS (
	SELECT 1
	FROM information_schema.tables
	WHERE table_schema = 'public' AND table_name = $1
)`, table).Scan(&exists)
	if err != nil {
		return false
	}
	return exists
}
