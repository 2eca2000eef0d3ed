package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	httpadapter "github.com/nea-data/nexuscontable-agenda-operativa/internal/adapters/http"
	pg "github.com/nea-data/nexuscontable-agenda-operativa/internal/adapters/postgres"
	"github.com/nea-data/nexuscontable-agenda-operativa/internal/config"
	"github.com/nea-data/nexuscontable-agenda-operativa/internal/observability/logger"
	"github.com/nea-data/nexuscontable-agenda-operativa/internal/ports"
	"github.com/nea-data/nexuscontable-agenda-operativa/internal/services/clients"
	"github.com/nea-data/nexuscontable-agenda-operativa/internal/services/comms"
	"github.com/nea-data/nexuscontable-agenda-operativa/internal/services/evaluations"
	"github.com/nea-data/nexuscontable-agenda-operativa/internal/services/monotributo"
	"github.com/nea-data/nexuscontable-agenda-operativa/internal/workers/evalrunner"
)

func main() {
	cfg, err := config.Load()
	logger.Init(logger.Config{Env: cfg.Env, Level: cfg.LogLevel, ServiceName: "agenda-operativa"})
	defer func() { _ = logger.Sync() }()
	log := logger.L()

	if err != nil {
		log.Warn("config", logger.Err(err))
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required for Postgres adapters")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := pg.Connect(ctx, cfg.DatabaseURL, cfg.DBMaxConns)
	if err != nil {
		log.Fatal("db connect error", logger.Err(err))
	}
	defer db.Close()

	// Wire repositories to services (ports)
	var _ ports.TableRepository = db
	var _ ports.EvaluationRepository = db
	var _ ports.CommRepository = db
	var _ ports.JobRepository = db

	evaluator := evaluations.New(db)
	clientSvc := clients.New(db, db)
	commSvc := comms.New(db)
	monoSvc := monotributo.New(db)

	processor := evalrunner.PortfolioProcessor{Tables: db, Evals: db, Comms: db, Jobs: db}
	srv := httpadapter.New(evaluator, db, db, db, clientSvc, commSvc, monoSvc, processor)
	r := chi.NewRouter()
	r.Mount("/", srv.Routes())

	// Optional background evaluation workers
	if cfg.EvalWorkers > 0 {
		go evalrunner.Run(ctx, db, processor, cfg.EvalWorkers, 500*time.Millisecond)
		log.Info("evaluation workers started", logger.Component("evalrunner"), logger.Count(cfg.EvalWorkers))
	}

	errCh := make(chan error, 1)
	go func() { errCh <- http.ListenAndServe(cfg.ListenAddr, r) }()
	log.Info("listening", logger.String("addr", cfg.ListenAddr))

	// graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		log.Info("shutting down", logger.String("signal", sig.String()))
		cancel()
		time.Sleep(300 * time.Millisecond)
	case err := <-errCh:
		log.Fatal("server error", logger.Err(err))
	}
}
