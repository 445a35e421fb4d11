package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	accountsapp "ledger-core/internal/accounts/application"
	accounts "ledger-core/internal/accounts/domain"
	accountsmem "ledger-core/internal/accounts/infrastructure/memory"
	accountsrepo "ledger-core/internal/accounts/infrastructure/postgres"
	accountshttp "ledger-core/internal/accounts/interfaces/http"
	"ledger-core/internal/audit"
	"ledger-core/internal/auth"
	closingapp "ledger-core/internal/closing/application"
	"ledger-core/internal/closing/checks"
	closingmem "ledger-core/internal/closing/infrastructure/memory"
	closingrepo "ledger-core/internal/closing/infrastructure/postgres"
	closinghttp "ledger-core/internal/closing/interfaces/http"
	"ledger-core/internal/eventing"
	"ledger-core/internal/eventing/eventbus"
	eventingrepo "ledger-core/internal/eventing/infrastructure/postgres"
	ledgerapp "ledger-core/internal/ledger/application"
	ledger "ledger-core/internal/ledger/domain"
	ledgermem "ledger-core/internal/ledger/infrastructure/memory"
	ledgerrepo "ledger-core/internal/ledger/infrastructure/postgres"
	ledgerhttp "ledger-core/internal/ledger/interfaces/http"
	"ledger-core/internal/observability/metrics"
	periodsapp "ledger-core/internal/periods/application"
	periods "ledger-core/internal/periods/domain"
	periodsmem "ledger-core/internal/periods/infrastructure/memory"
	periodsrepo "ledger-core/internal/periods/infrastructure/postgres"
	periodshttp "ledger-core/internal/periods/interfaces/http"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	_ = godotenv.Load()
	cfg := loadConfig()
	logger := log.New(os.Stdout, "", log.LstdFlags)

	var db *sql.DB
	if cfg.DatabaseURL != "" {
		var err error
		db, err = sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			logger.Fatalf("db open error: %v", err)
		}
		defer db.Close()
		if err := db.Ping(); err != nil {
			logger.Fatalf("db ping error: %v", err)
		}
	} else {
		logger.Printf("no DATABASE_URL set, using in-memory stores")
	}

	metrics.Init(db, logger)

	locks := periods.NewLockRegistry()

	var (
		accountRepo  accounts.Repository
		documentRepo ledger.Repository
		periodRepo   periods.Repository
		reconSource  checks.ReconciliationSource
		invSource    checks.InventorySource
		auditLogger  audit.Logger
		bus          ledgerapp.EventPublisher
	)

	baseBus := eventbus.NewInMemoryBus()
	registry := eventing.NewRegistry()
	registry.Register(ledgerapp.DocumentPosted{})
	registry.Register(ledgerapp.DocumentCancelled{})
	registry.Register(ledgerapp.DocumentReversed{})
	registry.Register(periodsapp.PeriodClosed{})

	var processedStore eventing.ProcessedStore

	if db != nil {
		accountRepo = accountsrepo.NewAccountRepository(db)
		documentRepo = ledgerrepo.NewDocumentRepository(db)
		periodRepo = periodsrepo.NewPeriodRepository(db)
		reconSource = closingrepo.NewReconciliationSource(db)
		invSource = closingrepo.NewInventorySource(db)
		auditLogger = audit.NewRepository(db)

		outboxStore := eventingrepo.NewOutboxStore(db)
		dlqStore := eventingrepo.NewDLQStore(db)
		processedStore = eventingrepo.NewProcessedStore(db)
		dispatcher := eventing.NewDispatcher(baseBus, outboxStore, registry, dlqStore)
		bus = eventing.NewPublisher(outboxStore, dispatcher, baseBus)

		go func() {
			ticker := time.NewTicker(10 * time.Second)
			defer ticker.Stop()
			for range ticker.C {
				if err := dispatcher.Dispatch(context.Background(), cfg.DispatchBatch); err != nil {
					logger.Printf("outbox dispatch error: %v", err)
				}
			}
		}()
	} else {
		memAccounts := accountsmem.NewAccountRepository()
		if err := memAccounts.Seed(accounts.DefaultChart()...); err != nil {
			logger.Fatalf("chart seed error: %v", err)
		}
		memPeriods := periodsmem.NewPeriodRepository()
		accountRepo = memAccounts
		documentRepo = ledgermem.NewDocumentRepository(memPeriods)
		periodRepo = memPeriods
		reconSource = closingmem.NewReconciliationSource()
		invSource = closingmem.NewInventorySource()
		bus = baseBus
	}

	chartService, err := accountsapp.NewChartService(accountRepo)
	if err != nil {
		logger.Fatalf("chart service error: %v", err)
	}
	posterService, err := ledgerapp.NewPosterService(documentRepo, chartService, periodRepo, locks, bus)
	if err != nil {
		logger.Fatalf("poster service error: %v", err)
	}

	checkConfig, err := closingapp.LoadConfig(cfg.ClosingConfigPath)
	if err != nil {
		logger.Fatalf("closing config error: %v", err)
	}
	available := []checks.Check{
		checks.DraftBacklog{Docs: documentRepo},
		checks.PostedBalance{Docs: documentRepo},
		checks.BankReconciliation{Source: reconSource},
		checks.InventoryValuation{Source: invSource},
	}
	configured, err := checkConfig.Build(available)
	if err != nil {
		logger.Fatalf("closing config error: %v", err)
	}
	engine, err := closingapp.NewEngine(periodRepo, configured, checkConfig.Timeout())
	if err != nil {
		logger.Fatalf("closing engine error: %v", err)
	}

	periodService, err := periodsapp.NewPeriodService(periodRepo, documentRepo, engine, locks, bus)
	if err != nil {
		logger.Fatalf("period service error: %v", err)
	}

	eventing.Subscribe(baseBus, eventbus.EventTypeOf[ledgerapp.DocumentPosted](), "ledger.log", func(ctx context.Context, event any) error {
		evt, ok := event.(ledgerapp.DocumentPosted)
		if !ok {
			return eventbus.ErrInvalidEventType
		}
		logger.Printf("document posted: id=%s period=%s", evt.DocumentID, evt.PeriodID)
		return nil
	}, processedStore)
	eventing.Subscribe(baseBus, eventbus.EventTypeOf[periodsapp.PeriodClosed](), "periods.log", func(ctx context.Context, event any) error {
		evt, ok := event.(periodsapp.PeriodClosed)
		if !ok {
			return eventbus.ErrInvalidEventType
		}
		logger.Printf("period closed: id=%s net_income=%s", evt.PeriodID, evt.NetIncome)
		return nil
	}, processedStore)

	chartHandler, err := accountshttp.NewHandler(chartService)
	if err != nil {
		logger.Fatalf("chart handler error: %v", err)
	}
	journalHandler, err := ledgerhttp.NewHandler(posterService, auditLogger)
	if err != nil {
		logger.Fatalf("journal handler error: %v", err)
	}
	periodHandler, err := periodshttp.NewHandler(periodService, auditLogger)
	if err != nil {
		logger.Fatalf("period handler error: %v", err)
	}
	closingHandler, err := closinghttp.NewHandler(engine, auditLogger)
	if err != nil {
		logger.Fatalf("closing handler error: %v", err)
	}

	policy := auth.NewDefaultPolicy([]string{"/healthz", "/metrics"}, nil)
	authMiddleware := auth.NewMiddleware([]byte(cfg.JWTSecret), policy)

	mux := http.NewServeMux()
	mux.Handle("/api/v1/accounts", chartHandler)
	mux.Handle("/api/v1/accounts/", chartHandler)
	mux.Handle("/api/v1/journal-entries", journalHandler)
	mux.Handle("/api/v1/journal-entries/", journalHandler)
	mux.Handle("/api/v1/accounting-periods", periodHandler)
	mux.Handle("/api/v1/accounting-periods/", periodHandler)
	mux.Handle("/api/v1/closing-checks", closingHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			if err := db.PingContext(r.Context()); err != nil {
				http.Error(w, "db unreachable", http.StatusServiceUnavailable)
				return
			}
		}
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
	JWTSecret         string
	ClosingConfigPath string
	DispatchBatch     int
}

func loadConfig() config {
	cfg := config{
		DatabaseURL:       getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")),
		HTTPAddr:          getenvDefault("HTTP_ADDR", ":8080"),
		JWTSecret:         getenvDefault("AUTH_JWT_SECRET", getenvDefault("JWT_SECRET", "")),
		ClosingConfigPath: getenvDefault("CLOSING_CHECKS_CONFIG", ""),
		DispatchBatch:     getenvIntDefault("EVENT_DISPATCH_BATCH", 50),
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

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
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
