package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"survey-cadence/internal/audit"
	observations "survey-cadence/internal/observations/domain"
)

type stubVisitRepository struct {
	inserted []observations.Visit
	err      error
}

func (s *stubVisitRepository) InsertVisits(ctx context.Context, visits []observations.Visit) error {
	if s.err != nil {
		return s.err
	}
	s.inserted = append(s.inserted, visits...)
	return nil
}

func (s *stubVisitRepository) ListByField(ctx context.Context, tenantID, fieldID string) (*observations.Batch, error) {
	return nil, observations.ErrFieldNotFound
}

type recordingAuditor struct {
	entries []audit.Entry
}

func (a *recordingAuditor) Log(ctx context.Context, entry audit.Entry) error {
	a.entries = append(a.entries, entry)
	return nil
}

func newTestVisitsHandler(t *testing.T, repo observations.VisitRepository) (*VisitsHandler, *recordingAuditor) {
	t.Helper()
	auditor := &recordingAuditor{}
	logger := log.New(os.Stderr, "test ", log.LstdFlags)
	handler, err := NewVisitsHandler(repo, auditor, "tenant-a", logger)
	if err != nil {
		t.Fatalf("new visits handler: %v", err)
	}
	return handler, auditor
}

func TestVisitsHandlerRegisters(t *testing.T) {
	repo := &stubVisitRepository{}
	handler, auditor := newTestVisitsHandler(t, repo)

	body := `{"field_id":"field-1","visits":[
		{"mjd":60000,"ra_deg":180,"dec_deg":-30,"filter":"r","five_sigma_depth":24.5,"seeing_arcsec":0.8},
		{"mjd":60010,"ra_deg":180,"dec_deg":-30,"filter":"g","five_sigma_depth":24.9,"seeing_arcsec":0.7}
	]}`
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/visits", strings.NewReader(body)))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp registerResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.FieldID != "field-1" || resp.Stored != 2 {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if len(repo.inserted) != 2 {
		t.Fatalf("expected 2 stored visits, got %d", len(repo.inserted))
	}
	if repo.inserted[0].TenantID != "tenant-a" {
		t.Fatalf("expected fallback tenant, got %q", repo.inserted[0].TenantID)
	}
	if len(auditor.entries) != 1 || auditor.entries[0].Action != "visits.register" {
		t.Fatalf("expected one visits.register audit entry, got %+v", auditor.entries)
	}
}

func TestVisitsHandlerRejectsInvalidVisit(t *testing.T) {
	repo := &stubVisitRepository{}
	handler, _ := newTestVisitsHandler(t, repo)

	body := `{"field_id":"field-1","visits":[{"mjd":60000,"ra_deg":400,"dec_deg":-30,"filter":"r"}]}`
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/visits", strings.NewReader(body)))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if len(repo.inserted) != 0 {
		t.Fatalf("expected nothing stored, got %d", len(repo.inserted))
	}
}

func TestVisitsHandlerRejectsEmptyBatch(t *testing.T) {
	handler, _ := newTestVisitsHandler(t, &stubVisitRepository{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/visits",
		strings.NewReader(`{"field_id":"field-1","visits":[]}`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestVisitsHandlerStoreError(t *testing.T) {
	repo := &stubVisitRepository{err: errors.New("boom")}
	handler, _ := newTestVisitsHandler(t, repo)

	body := `{"field_id":"field-1","visits":[{"mjd":60000,"ra_deg":180,"dec_deg":-30,"filter":"r"}]}`
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/visits", strings.NewReader(body)))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestVisitsHandlerMethodNotAllowed(t *testing.T) {
	handler, _ := newTestVisitsHandler(t, &stubVisitRepository{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/visits", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}
