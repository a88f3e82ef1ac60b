package http

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"survey-cadence/internal/audit"
	"survey-cadence/internal/auth"
	"survey-cadence/internal/observability/metrics"
	observations "survey-cadence/internal/observations/domain"
)

// VisitsHandler registers observation batches.
type VisitsHandler struct {
	repo     observations.VisitRepository
	auditor  audit.Logger
	tenantID string
	logger   *log.Logger
}

// NewVisitsHandler constructs a visits handler.
func NewVisitsHandler(repo observations.VisitRepository, auditor audit.Logger, tenantID string, logger *log.Logger) (*VisitsHandler, error) {
	if repo == nil {
		return nil, errors.New("visits handler: nil repository")
	}
	if tenantID == "" {
		return nil, errors.New("visits handler: empty tenant id")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &VisitsHandler{repo: repo, auditor: auditor, tenantID: tenantID, logger: logger}, nil
}

type visitPayload struct {
	MJD            float64 `json:"mjd"`
	RADeg          float64 `json:"ra_deg"`
	DecDeg         float64 `json:"dec_deg"`
	Filter         string  `json:"filter"`
	FiveSigmaDepth float64 `json:"five_sigma_depth"`
	SeeingArcsec   float64 `json:"seeing_arcsec"`
}

type registerRequest struct {
	FieldID string         `json:"field_id"`
	Visits  []visitPayload `json:"visits"`
}

type registerResponse struct {
	FieldID string `json:"field_id"`
	Stored  int    `json:"stored"`
}

// ServeHTTP handles POST /api/v1/visits.
func (h *VisitsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "read body error", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	var req registerRequest
	if err := json.Unmarshal(body, &req); err != nil {
		metrics.ObserveVisitRegistration("error", 0)
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if req.FieldID == "" {
		metrics.ObserveVisitRegistration("error", 0)
		http.Error(w, "field_id is required", http.StatusBadRequest)
		return
	}
	if len(req.Visits) == 0 {
		metrics.ObserveVisitRegistration("error", 0)
		http.Error(w, "visits are required", http.StatusBadRequest)
		return
	}

	tenantID := auth.TenantIDFromContext(r.Context())
	if tenantID == "" {
		tenantID = h.tenantID
	}

	visits := make([]observations.Visit, 0, len(req.Visits))
	for _, payload := range req.Visits {
		visit := observations.Visit{
			TenantID:       tenantID,
			FieldID:        req.FieldID,
			MJD:            payload.MJD,
			RADeg:          payload.RADeg,
			DecDeg:         payload.DecDeg,
			Filter:         payload.Filter,
			FiveSigmaDepth: payload.FiveSigmaDepth,
			SeeingArcsec:   payload.SeeingArcsec,
		}
		if err := visit.Validate(); err != nil {
			metrics.ObserveVisitRegistration("error", 0)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		visits = append(visits, visit)
	}

	if err := h.repo.InsertVisits(r.Context(), visits); err != nil {
		h.logger.Printf("visits: insert error: %v", err)
		metrics.ObserveVisitRegistration("error", 0)
		http.Error(w, "store visits error", http.StatusInternalServerError)
		return
	}
	metrics.ObserveVisitRegistration("success", len(visits))

	if h.auditor != nil {
		entry := audit.Entry{
			ID:            audit.NewID(),
			TenantID:      tenantID,
			Actor:         auth.SubjectFromContext(r.Context()),
			Role:          string(auth.RoleFromContext(r.Context())),
			Action:        "visits.register",
			ResourceType:  "field",
			ResourceID:    req.FieldID,
			PayloadDigest: audit.DigestJSON(body),
			IP:            r.RemoteAddr,
			UserAgent:     r.UserAgent(),
		}
		if err := h.auditor.Log(r.Context(), entry); err != nil {
			h.logger.Printf("visits: audit error: %v", err)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(registerResponse{FieldID: req.FieldID, Stored: len(visits)})
}
