package integration_test

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	evaluation "survey-cadence/internal/evaluation/domain"
	evalpostgres "survey-cadence/internal/evaluation/infrastructure/postgres"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func TestResultRepository_Postgres(t *testing.T) {
	dsn := os.Getenv("PG_DSN")
	if dsn == "" {
		t.Skip("PG_DSN not set")
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	if !tableExists(db, "evaluation_results") {
		t.Skip("evaluation_results missing; run migrations")
	}

	ctx := context.Background()
	tenantID := "tenant-it"

	_, _ = db.ExecContext(ctx, "DELETE FROM evaluation_results WHERE tenant_id = $1", tenantID)

	repo := evalpostgres.NewResultRepository(db)

	older := evaluation.Result{
		ID:          "res-it-1",
		TenantID:    tenantID,
		FieldID:     "field-it",
		MetricName:  "visits-in-interval",
		MetricKind:  evaluation.KindVisitsInInterval,
		Value:       1,
		Passed:      true,
		VisitCount:  5,
		Parameters:  map[string]string{"interval_length_days": "45", "min_visits": "3"},
		EvaluatedAt: time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC),
	}
	newer := evaluation.Result{
		ID:          "res-it-2",
		TenantID:    tenantID,
		FieldID:     "field-it",
		MetricName:  "campaign-length",
		MetricKind:  evaluation.KindCampaignLength,
		Value:       3,
		Passed:      true,
		VisitCount:  40,
		EvaluatedAt: time.Date(2026, 8, 2, 10, 0, 0, 0, time.UTC),
	}
	if err := repo.Save(ctx, older); err != nil {
		t.Fatalf("save older: %v", err)
	}
	if err := repo.Save(ctx, newer); err != nil {
		t.Fatalf("save newer: %v", err)
	}

	results, err := repo.List(ctx, tenantID, "field-it", "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].ID != "res-it-2" {
		t.Fatalf("expected newest first, got %q", results[0].ID)
	}
	if results[1].Parameters["min_visits"] != "3" {
		t.Fatalf("parameter snapshot lost: %v", results[1].Parameters)
	}

	filtered, err := repo.List(ctx, tenantID, "", "visits-in-interval")
	if err != nil {
		t.Fatalf("list filtered: %v", err)
	}
	if len(filtered) != 1 || filtered[0].ID != "res-it-1" {
		t.Fatalf("unexpected filtered results: %+v", filtered)
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
