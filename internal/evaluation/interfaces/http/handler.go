package http

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"survey-cadence/internal/audit"
	"survey-cadence/internal/auth"
	application "survey-cadence/internal/evaluation/application"
	evaluation "survey-cadence/internal/evaluation/domain"
	observations "survey-cadence/internal/observations/domain"
)

// Handler serves evaluation requests and stored results.
type Handler struct {
	service *application.Service
	auditor audit.Logger
	logger  *log.Logger
}

// NewHandler constructs an evaluation handler.
func NewHandler(service *application.Service, auditor audit.Logger, logger *log.Logger) (*Handler, error) {
	if service == nil {
		return nil, errors.New("evaluation handler: nil service")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{service: service, auditor: auditor, logger: logger}, nil
}

type criterionPayload struct {
	IntervalLengthDays float64 `json:"interval_length_days"`
	MinVisits          int     `json:"min_visits"`
	NPairs             int     `json:"n_pairs"`
	MinPairGapDays     float64 `json:"min_pair_gap_days"`
}

type evaluateRequest struct {
	FieldID string `json:"field_id"`
	Metric  string `json:"metric"`

	// Ad-hoc mode: an inline batch checked against an inline criterion.
	Times     []float64         `json:"times"`
	Criterion *criterionPayload `json:"criterion"`
}

type adHocResponse struct {
	Passed bool    `json:"passed"`
	Value  float64 `json:"value"`
}

// ServeHTTP routes evaluation requests.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.handleEvaluate(w, r)
	case http.MethodGet:
		h.handleList(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "read body error", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	var req evaluateRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	if req.Criterion != nil {
		if len(req.Times) == 0 {
			http.Error(w, "times are required for ad-hoc evaluation", http.StatusBadRequest)
			return
		}
		passed, err := h.service.EvaluateAdHoc(r.Context(),
			req.Criterion.IntervalLengthDays,
			req.Criterion.MinVisits,
			req.Criterion.NPairs,
			req.Criterion.MinPairGapDays,
			req.Times,
		)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		value := 0.0
		if passed {
			value = 1.0
		}
		writeJSON(w, http.StatusOK, adHocResponse{Passed: passed, Value: value})
		return
	}

	if req.FieldID == "" || req.Metric == "" {
		http.Error(w, "field_id and metric are required", http.StatusBadRequest)
		return
	}

	tenantID := auth.TenantIDFromContext(r.Context())
	result, err := h.service.EvaluateField(r.Context(), tenantID, req.FieldID, req.Metric)
	if err != nil {
		switch {
		case errors.Is(err, evaluation.ErrDefinitionNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, observations.ErrFieldNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		default:
			h.logger.Printf("evaluation: evaluate error: %v", err)
			http.Error(w, "evaluation error", http.StatusInternalServerError)
		}
		return
	}

	h.auditEvaluate(r, body, result)
	writeJSON(w, http.StatusCreated, result)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	tenantID := auth.TenantIDFromContext(r.Context())
	fieldID := r.URL.Query().Get("field_id")
	metricName := r.URL.Query().Get("metric")

	results, err := h.service.ListResults(r.Context(), tenantID, fieldID, metricName)
	if err != nil {
		h.logger.Printf("evaluation: list error: %v", err)
		http.Error(w, "list results error", http.StatusInternalServerError)
		return
	}
	if results == nil {
		results = []evaluation.Result{}
	}
	writeJSON(w, http.StatusOK, results)
}

func (h *Handler) auditEvaluate(r *http.Request, body []byte, result *evaluation.Result) {
	if h.auditor == nil || result == nil {
		return
	}
	entry := audit.Entry{
		ID:            audit.NewID(),
		TenantID:      result.TenantID,
		Actor:         auth.SubjectFromContext(r.Context()),
		Role:          string(auth.RoleFromContext(r.Context())),
		Action:        "evaluations.run",
		ResourceType:  "evaluation_result",
		ResourceID:    result.ID,
		PayloadDigest: audit.DigestJSON(body),
		IP:            r.RemoteAddr,
		UserAgent:     r.UserAgent(),
	}
	if err := h.auditor.Log(r.Context(), entry); err != nil {
		h.logger.Printf("evaluation: audit error: %v", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
