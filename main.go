package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"survey-cadence/internal/audit"
	"survey-cadence/internal/auth"
	cadence "survey-cadence/internal/cadence/domain"
	evalapp "survey-cadence/internal/evaluation/application"
	evalpostgres "survey-cadence/internal/evaluation/infrastructure/postgres"
	evalhttp "survey-cadence/internal/evaluation/interfaces/http"
	"survey-cadence/internal/eventing"
	"survey-cadence/internal/observability/metrics"
	obspostgres "survey-cadence/internal/observations/infrastructure/postgres"
	obshttp "survey-cadence/internal/observations/interfaces/http"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := loadConfig()
	logger := log.New(os.Stdout, "", log.LstdFlags)

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("db open error: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatalf("db ping error: %v", err)
	}

	metrics.Init(db, logger)
	auditRepo := audit.NewRepository(db)

	visitRepo := obspostgres.NewVisitRepository(db)
	resultRepo := evalpostgres.NewResultRepository(db)

	metricsCfg, err := evalapp.LoadMetricsConfig(cfg.MetricsConfigPath)
	if err != nil {
		logger.Fatalf("metrics config error: %v", err)
	}
	if cfg.SurveyStartMJD > 0 {
		metricsCfg.SurveyStartMJD = cfg.SurveyStartMJD
	}
	registry, err := evalapp.BuildRegistry(metricsCfg)
	if err != nil {
		logger.Fatalf("metrics registry error: %v", err)
	}
	logger.Printf("registered metrics: %v", registry.Names())

	bus := eventing.NewInMemoryBus()
	broker := evalhttp.NewSSEBroker()
	eventing.SubscribeTyped(bus, broker.HandleCompleted)
	eventing.SubscribeTyped(bus, func(ctx context.Context, event evalapp.EvaluationCompleted) error {
		res := event.Result
		logger.Printf("evaluation completed: field=%s metric=%s passed=%t value=%g", res.FieldID, res.MetricName, res.Passed, res.Value)
		return nil
	})

	seasons := cadence.NewSeasonStacker(metricsCfg.SurveyStartMJD)
	evalService, err := evalapp.NewService(visitRepo, resultRepo, registry, seasons, cfg.TenantID, logger, evalapp.WithEventBus(bus))
	if err != nil {
		logger.Fatalf("evaluation service error: %v", err)
	}
	evalHandler, err := evalhttp.NewHandler(evalService, auditRepo, logger)
	if err != nil {
		logger.Fatalf("evaluation handler error: %v", err)
	}
	exportHandler, err := evalhttp.NewExportHandler(evalService, auditRepo, logger)
	if err != nil {
		logger.Fatalf("export handler error: %v", err)
	}
	visitsHandler, err := obshttp.NewVisitsHandler(visitRepo, auditRepo, cfg.TenantID, logger)
	if err != nil {
		logger.Fatalf("visits handler error: %v", err)
	}

	policy := auth.NewDefaultPolicy([]string{"/healthz", "/metrics"}, nil)
	authMiddleware := auth.NewMiddleware([]byte(cfg.JWTSecret), policy)

	mux := http.NewServeMux()
	mux.Handle("/api/v1/visits", visitsHandler)
	mux.Handle("/api/v1/evaluations", evalHandler)
	mux.Handle("/api/v1/evaluations/stream", evalhttp.NewStreamHandler(broker))
	mux.Handle("/api/v1/exports/evaluations.xlsx", exportHandler)
	mux.Handle("/api/v1/exports/evaluations.pdf", exportHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{Addr: cfg.HTTPAddr, Handler: loggingMiddleware(authMiddleware.Wrap(mux), logger)}
	logger.Printf("http listening on %s", cfg.HTTPAddr)
	logger.Fatal(server.ListenAndServe())
}

type config struct {
	DatabaseURL       string
	HTTPAddr          string
	TenantID          string
	MetricsConfigPath string
	SurveyStartMJD    float64
	JWTSecret         string
}

func loadConfig() config {
	cfg := config{
		DatabaseURL:       getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")),
		HTTPAddr:          getenvDefault("HTTP_ADDR", ":8080"),
		TenantID:          getenvDefault("TENANT_ID", "tenant-demo"),
		MetricsConfigPath: getenvDefault("METRICS_CONFIG", ""),
		SurveyStartMJD:    getenvFloatDefault("SURVEY_START_MJD", 0),
		JWTSecret:         getenvDefault("AUTH_JWT_SECRET", getenvDefault("JWT_SECRET", "")),
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL or PG_DSN is required")
	}
	if cfg.JWTSecret == "" {
		log.Fatal("AUTH_JWT_SECRET is required")
	}
	return cfg
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvFloatDefault(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		logger.Printf("http %s %s %d %s", r.Method, r.URL.Path, resp.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
