package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/Wodenvase/BharatLedger/internal/app"
	"github.com/Wodenvase/BharatLedger/internal/config"
	"github.com/Wodenvase/BharatLedger/internal/handler"
	"github.com/Wodenvase/BharatLedger/internal/queue"
	"github.com/Wodenvase/BharatLedger/internal/repository"
	"github.com/Wodenvase/BharatLedger/internal/service"
)

const snapshotTimeout = 30 * time.Minute

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}
	logger := app.NewLogger(cfg)

	db, err := app.OpenDB(context.Background(), cfg)
	if err != nil {
		logger.Fatalf("database: %v", err)
	}
	defer db.Close()

	if err := repository.RunMigrations(db, logger); err != nil {
		logger.Fatalf("migrations: %v", err)
	}

	blobs, err := app.NewBlobStore(cfg, logger)
	if err != nil {
		logger.Fatalf("blob store: %v", err)
	}

	logger.Info("initialising repositories")
	userRepo := repository.NewUserRepository(db, logger)
	accountRepo := repository.NewAccountRepository(db, logger)
	transactionRepo := repository.NewTransactionRepository(db, logger)
	uploadRepo := repository.NewUploadRepository(db, logger)
	snapshotRepo := repository.NewSnapshotRepository(db, logger)
	emailSender := service.NewEmailSender(cfg, logger)

	logger.Info("initialising services")
	authService := service.NewAuthService(userRepo, cfg.JWTSecret, cfg.TokenExpiry, logger)
	profileService := service.NewProfileService(userRepo, logger)
	accountService := service.NewAccountService(accountRepo, logger)
	transactionService := service.NewTransactionService(transactionRepo, logger)
	dashboardService := service.NewDashboardService(userRepo, accountRepo, transactionRepo, snapshotRepo, logger)
	featureService := service.NewFeatureService(userRepo, transactionRepo, logger)
	reportService := service.NewReportService(userRepo, transactionRepo, logger)
	ingestService := service.NewIngestService(userRepo, uploadRepo, blobs, emailSender, logger)

	var dispatcher service.Dispatcher = service.NewInlineDispatcher(ingestService)
	if cfg.AMQPURL != "" {
		client, err := queue.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.WithError(err).Warn("AMQP unavailable, ingesting uploads inline")
		} else {
			defer client.Close()
			dispatcher = service.NewQueueDispatcher(client)
			logger.WithField("queue", cfg.AMQPQueue).Info("uploads will be ingested by the worker")
		}
	}
	uploadService := service.NewUploadService(userRepo, accountRepo, uploadRepo, blobs, dispatcher, cfg.MaxUploadBytes, logger)

	logger.Info("initialising handlers")
	router := mux.NewRouter()
	router.Use(handler.RequestLogger(logger), handler.ErrorDetails(cfg.IsDevelopment()))
	router.HandleFunc("/health", handler.Health(db, logger)).Methods("GET")

	publicRouter := router.PathPrefix("/auth").Subrouter()
	handler.NewAuthHandler(authService, cfg.IsProduction(), logger).RegisterRoutes(publicRouter)

	apiRouter := router.PathPrefix("/api").Subrouter()
	apiRouter.Use(handler.AuthMiddleware(authService, logger))

	handler.NewDashboardHandler(dashboardService, logger).RegisterRoutes(apiRouter.PathPrefix("/dashboard").Subrouter())
	handler.NewTransactionHandler(transactionService, logger).RegisterRoutes(apiRouter.PathPrefix("/transactions").Subrouter())
	handler.NewAccountHandler(accountService, logger).RegisterRoutes(apiRouter.PathPrefix("/accounts").Subrouter())
	handler.NewProfileHandler(profileService, logger).RegisterRoutes(apiRouter.PathPrefix("/profile").Subrouter())
	handler.NewReportHandler(reportService, logger).RegisterRoutes(apiRouter.PathPrefix("/reports").Subrouter())
	handler.NewUploadHandler(uploadService, cfg.MaxUploadBytes, logger).RegisterRoutes(apiRouter)
	handler.NewScoreHandler(featureService, logger).RegisterRoutes(apiRouter)

	logger.WithField("schedule", cfg.SnapshotSchedule).Info("scheduling score snapshots")
	c := cron.New()
	_, err = c.AddFunc(cfg.SnapshotSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), snapshotTimeout)
		defer cancel()
		logger.Info("taking monthly score snapshots")
		if err := dashboardService.SnapshotAll(ctx); err != nil {
			logger.WithError(err).Error("score snapshot run failed")
		}
	})
	if err != nil {
		logger.Fatalf("schedule snapshots: %v", err)
	}
	c.Start()

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       2 * time.Minute,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       2 * time.Minute,
	}

	go func() {
		logger.WithFields(logrus.Fields{"port": cfg.Port, "env": cfg.Env}).Info("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	<-c.Stop().Done()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("server shutdown")
	}
	logger.Info("server stopped")
}
