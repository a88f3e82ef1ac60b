package http

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	"survey-cadence/internal/audit"
	"survey-cadence/internal/auth"
	application "survey-cadence/internal/evaluation/application"
	evaluation "survey-cadence/internal/evaluation/domain"
	"survey-cadence/internal/observability/metrics"
)

// BuildResultsPDF renders an evaluation result report.
func BuildResultsPDF(tenantID string, results []evaluation.Result, generatedAt time.Time) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Cadence Evaluation Report")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Tenant: %s", tenantID))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", generatedAt.Format(time.RFC3339)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Results: %d", len(results)))
	pdf.Ln(8)

	// Results table
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(40, 6, "Field", "1", 0, "C", false, 0, "")
	pdf.CellFormat(55, 6, "Metric", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Value", "1", 0, "C", false, 0, "")
	pdf.CellFormat(20, 6, "Passed", "1", 0, "C", false, 0, "")
	pdf.CellFormat(25, 6, "Visits", "1", 0, "C", false, 0, "")
	pdf.CellFormat(45, 6, "Evaluated", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, res := range results {
		pdf.CellFormat(40, 6, res.FieldID, "1", 0, "C", false, 0, "")
		pdf.CellFormat(55, 6, res.MetricName, "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, fmt.Sprintf("%.3f", res.Value), "1", 0, "R", false, 0, "")
		pdf.CellFormat(20, 6, fmt.Sprintf("%t", res.Passed), "1", 0, "C", false, 0, "")
		pdf.CellFormat(25, 6, fmt.Sprintf("%d", res.VisitCount), "1", 0, "R", false, 0, "")
		pdf.CellFormat(45, 6, res.EvaluatedAt.Format("2006-01-02 15:04:05"), "1", 0, "C", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	err := pdf.Output(&buf)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildResultsXLSX renders an evaluation result workbook.
func BuildResultsXLSX(tenantID string, results []evaluation.Result, generatedAt time.Time) ([]byte, error) {
	f := excelize.NewFile()
	summarySheet := "summary"
	resultsSheet := "results"
	f.SetSheetName("Sheet1", summarySheet)
	f.NewSheet(resultsSheet)

	passed := 0
	for _, res := range results {
		if res.Passed {
			passed++
		}
	}

	_ = f.SetCellValue(summarySheet, "A1", "Cadence Evaluation Report")
	_ = f.SetCellValue(summarySheet, "A3", "Tenant")
	_ = f.SetCellValue(summarySheet, "B3", tenantID)
	_ = f.SetCellValue(summarySheet, "A4", "Generated")
	_ = f.SetCellValue(summarySheet, "B4", generatedAt.Format(time.RFC3339))
	_ = f.SetCellValue(summarySheet, "A5", "Results")
	_ = f.SetCellValue(summarySheet, "B5", len(results))
	_ = f.SetCellValue(summarySheet, "A6", "Passed")
	_ = f.SetCellValue(summarySheet, "B6", passed)

	_ = f.SetCellValue(resultsSheet, "A1", "Field")
	_ = f.SetCellValue(resultsSheet, "B1", "Metric")
	_ = f.SetCellValue(resultsSheet, "C1", "Kind")
	_ = f.SetCellValue(resultsSheet, "D1", "Value")
	_ = f.SetCellValue(resultsSheet, "E1", "Passed")
	_ = f.SetCellValue(resultsSheet, "F1", "Visits")
	_ = f.SetCellValue(resultsSheet, "G1", "Parameters")
	_ = f.SetCellValue(resultsSheet, "H1", "Evaluated")
	for i, res := range results {
		row := i + 2
		_ = f.SetCellValue(resultsSheet, fmt.Sprintf("A%d", row), res.FieldID)
		_ = f.SetCellValue(resultsSheet, fmt.Sprintf("B%d", row), res.MetricName)
		_ = f.SetCellValue(resultsSheet, fmt.Sprintf("C%d", row), res.MetricKind)
		_ = f.SetCellValue(resultsSheet, fmt.Sprintf("D%d", row), res.Value)
		_ = f.SetCellValue(resultsSheet, fmt.Sprintf("E%d", row), res.Passed)
		_ = f.SetCellValue(resultsSheet, fmt.Sprintf("F%d", row), res.VisitCount)
		_ = f.SetCellValue(resultsSheet, fmt.Sprintf("G%d", row), formatParameters(res.Parameters))
		_ = f.SetCellValue(resultsSheet, fmt.Sprintf("H%d", row), res.EvaluatedAt.Format(time.RFC3339))
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func formatParameters(params map[string]string) string {
	if len(params) == 0 {
		return ""
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+params[k])
	}
	return strings.Join(parts, " ")
}

// ExportHandler serves evaluation result reports.
type ExportHandler struct {
	service *application.Service
	auditor audit.Logger
	clock   func() time.Time
	logger  *log.Logger
}

// NewExportHandler constructs an export handler.
func NewExportHandler(service *application.Service, auditor audit.Logger, logger *log.Logger) (*ExportHandler, error) {
	if service == nil {
		return nil, errors.New("export handler: nil service")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &ExportHandler{service: service, auditor: auditor, clock: time.Now, logger: logger}, nil
}

// ServeHTTP handles GET /api/v1/exports/evaluations.{xlsx,pdf}.
func (h *ExportHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var format string
	switch {
	case strings.HasSuffix(r.URL.Path, ".xlsx"):
		format = "xlsx"
	case strings.HasSuffix(r.URL.Path, ".pdf"):
		format = "pdf"
	default:
		http.Error(w, "unsupported export format", http.StatusNotFound)
		return
	}

	tenantID := auth.TenantIDFromContext(r.Context())
	fieldID := r.URL.Query().Get("field_id")
	metricName := r.URL.Query().Get("metric")

	results, err := h.service.ListResults(r.Context(), tenantID, fieldID, metricName)
	if err != nil {
		metrics.ObserveExport(format, "error")
		h.logger.Printf("evaluation: export list error: %v", err)
		http.Error(w, "export error", http.StatusInternalServerError)
		return
	}

	generatedAt := h.clock()
	var payload []byte
	var contentType, filename string
	switch format {
	case "xlsx":
		payload, err = BuildResultsXLSX(tenantID, results, generatedAt)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		filename = "evaluations.xlsx"
	case "pdf":
		payload, err = BuildResultsPDF(tenantID, results, generatedAt)
		contentType = "application/pdf"
		filename = "evaluations.pdf"
	}
	if err != nil {
		metrics.ObserveExport(format, "error")
		h.logger.Printf("evaluation: export build error: %v", err)
		http.Error(w, "export error", http.StatusInternalServerError)
		return
	}

	h.auditExport(r, tenantID, format)
	metrics.ObserveExport(format, "ok")

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}

func (h *ExportHandler) auditExport(r *http.Request, tenantID, format string) {
	if h.auditor == nil {
		return
	}
	entry := audit.Entry{
		ID:           audit.NewID(),
		TenantID:     tenantID,
		Actor:        auth.SubjectFromContext(r.Context()),
		Role:         string(auth.RoleFromContext(r.Context())),
		Action:       "evaluations.export",
		ResourceType: "evaluation_report",
		ResourceID:   format,
		IP:           r.RemoteAddr,
		UserAgent:    r.UserAgent(),
	}
	if err := h.auditor.Log(r.Context(), entry); err != nil {
		h.logger.Printf("evaluation: audit error: %v", err)
	}
}
