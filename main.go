package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"time"

	accountsapp "carbonledger/internal/accounts/application"
	accountsrepo "carbonledger/internal/accounts/infrastructure/postgres"
	accountshttp "carbonledger/internal/accounts/interfaces/http"
	"carbonledger/internal/audit"
	"carbonledger/internal/auth"
	documentsapp "carbonledger/internal/documents/application"
	documentsrepo "carbonledger/internal/documents/infrastructure/postgres"
	documentshttp "carbonledger/internal/documents/interfaces/http"
	"carbonledger/internal/factors"
	factorsrepo "carbonledger/internal/factors/infrastructure/postgres"
	ingestapp "carbonledger/internal/ingest/application"
	ingest "carbonledger/internal/ingest/domain"
	ingestrepo "carbonledger/internal/ingest/infrastructure/postgres"
	ingesthttp "carbonledger/internal/ingest/interfaces/http"
	"carbonledger/internal/observability/metrics"
	reportingapp "carbonledger/internal/reporting/application"
	reportingrepo "carbonledger/internal/reporting/infrastructure/postgres"
	reportinghttp "carbonledger/internal/reporting/interfaces/http"

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
	documentChecker := auth.NewDocumentChecker(db)
	auditRepo := audit.NewRepository(db)

	factorTable, err := loadFactorTable(cfg, db, logger)
	if err != nil {
		logger.Fatalf("factor table error: %v", err)
	}
	logger.Printf("emission factor table loaded: %d entries, tie-break %v", factorTable.Len(), factorTable.RuleNames())

	documentRepo := documentsrepo.NewDocumentRepository(db)
	documentService, err := documentsapp.NewService(documentRepo, systemClock{})
	if err != nil {
		logger.Fatalf("document service error: %v", err)
	}
	documentHandler, err := documentshttp.NewHandler(documentService, auditRepo)
	if err != nil {
		logger.Fatalf("document handler error: %v", err)
	}

	normalizer, err := ingest.NewNormalizer(factorTable)
	if err != nil {
		logger.Fatalf("normalizer error: %v", err)
	}
	recordRepo := ingestrepo.NewRecordRepository(db)
	ingestService, err := ingestapp.NewService(normalizer, recordRepo, documentRepo, systemClock{})
	if err != nil {
		logger.Fatalf("ingest service error: %v", err)
	}
	ingestHandler, err := ingesthttp.NewHandler(ingestService, documentChecker, auditRepo)
	if err != nil {
		logger.Fatalf("ingest handler error: %v", err)
	}

	reportRepo := reportingrepo.NewReportRepository(db)
	reportService, err := reportingapp.NewReportService(recordRepo, reportRepo, systemClock{})
	if err != nil {
		logger.Fatalf("report service error: %v", err)
	}
	reportHandler, err := reportinghttp.NewReportHandler(reportService, recordRepo, auditRepo)
	if err != nil {
		logger.Fatalf("report handler error: %v", err)
	}
	dashboardService, err := reportingapp.NewDashboardService(recordRepo, systemClock{})
	if err != nil {
		logger.Fatalf("dashboard service error: %v", err)
	}
	dashboardHandler, err := reportinghttp.NewDashboardHandler(dashboardService)
	if err != nil {
		logger.Fatalf("dashboard handler error: %v", err)
	}

	accountsRepo := accountsrepo.NewRepository(db)
	accountsService, err := accountsapp.NewService(accountsRepo, systemClock{})
	if err != nil {
		logger.Fatalf("accounts service error: %v", err)
	}
	adminHandler, err := accountshttp.NewAdminHandler(accountsService, auditRepo)
	if err != nil {
		logger.Fatalf("admin handler error: %v", err)
	}

	policy := auth.NewDefaultPolicy([]string{"/healthz", "/metrics"}, nil)
	authMiddleware := auth.NewMiddleware([]byte(cfg.JWTSecret), policy)

	mux := http.NewServeMux()
	mux.Handle("/api/v1/documents", documentHandler)
	mux.Handle("/api/v1/ingest/rows", ingestHandler)
	mux.Handle("/api/v1/dashboard", dashboardHandler)
	mux.Handle("/api/v1/reports", reportHandler)
	mux.Handle("/api/v1/reports/", reportHandler)
	mux.Handle("/api/v1/reports/generate", reportHandler)
	mux.Handle("/api/v1/admin/waitlist", adminHandler)
	mux.Handle("/api/v1/admin/waitlist/", adminHandler)
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
	DatabaseURL     string
	HTTPAddr        string
	JWTSecret       string
	FactorsSeed     string
	PreferredSource string
}

func loadConfig() config {
	cfg := config{
		DatabaseURL:     getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")),
		HTTPAddr:        getenvDefault("HTTP_ADDR", ":8080"),
		JWTSecret:       getenvDefault("AUTH_JWT_SECRET", getenvDefault("JWT_SECRET", "")),
		FactorsSeed:     getenvDefault("FACTORS_SEED", "config/emission_factors.yaml"),
		PreferredSource: getenvDefault("FACTORS_PREFERRED_SOURCE", "DEFRA"),
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL or PG_DSN is required")
	}
	if cfg.JWTSecret == "" {
		log.Fatal("AUTH_JWT_SECRET is required")
	}
	return cfg
}

// loadFactorTable prefers rows stored in postgres and falls back to the
// yaml seed file when the table is empty.
func loadFactorTable(cfg config, db *sql.DB, logger *log.Logger) (*factors.Table, error) {
	factorRepo := factorsrepo.NewFactorRepository(db)
	rows, err := factorRepo.LoadAll(context.Background())
	if err != nil {
		logger.Printf("emission_factors query error, falling back to seed file: %v", err)
	}
	if len(rows) == 0 {
		rows, err = factors.LoadSeedFile(cfg.FactorsSeed)
		if err != nil {
			return nil, err
		}
	}
	return factors.NewTable(rows, cfg.PreferredSource)
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
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

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }
