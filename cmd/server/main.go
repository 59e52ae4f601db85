package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	lendingapp "github.com/loanbook/backend/internal/application/lending"
	"github.com/loanbook/backend/internal/domain/lending"
	"github.com/loanbook/backend/internal/infrastructure/config"
	"github.com/loanbook/backend/internal/infrastructure/logging"
	"github.com/loanbook/backend/internal/infrastructure/persistence"
	"github.com/loanbook/backend/internal/interfaces/http/handler"
	"github.com/loanbook/backend/internal/interfaces/http/router"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logging.New(cfg.Log)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting Loanbook Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := persistence.NewDatabase(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()

	if err := db.Migrate(decimal.NewFromFloat(cfg.Ledger.OpeningBalance)); err != nil {
		log.Fatal("Failed to migrate database", zap.Error(err))
	}
	log.Info("Database ready")

	cutover, err := cfg.Ledger.HistoricalCutoverDate()
	if err != nil {
		log.Fatal("Invalid historical cutover date", zap.Error(err))
	}
	rules := lendingapp.LedgerRules{
		Period:            lending.NewPeriodClock(cfg.Ledger.Timezone, cfg.Ledger.CutoverHour),
		HistoricalCutover: cutover,
		DefaultGroup:      cfg.Ledger.DefaultGroup,
	}

	uow := persistence.NewGormUnitOfWork(db.DB)
	orderService := lendingapp.NewOrderService(uow, rules, log)
	reportService := lendingapp.NewReportService(uow, rules, log)

	engine := router.Build(log,
		handler.NewOrderHandler(orderService),
		handler.NewReportHandler(reportService),
	)

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      engine,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Forced shutdown", zap.Error(err))
	}
	log.Info("Server stopped")
}
