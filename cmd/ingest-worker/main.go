package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/Wodenvase/BharatLedger/internal/app"
	"github.com/Wodenvase/BharatLedger/internal/config"
	"github.com/Wodenvase/BharatLedger/internal/model"
	"github.com/Wodenvase/BharatLedger/internal/queue"
	"github.com/Wodenvase/BharatLedger/internal/repository"
	"github.com/Wodenvase/BharatLedger/internal/service"
)

// per-statement limit so one bad file cannot hold the queue
const processTimeout = 5 * time.Minute

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}
	logger := app.NewLogger(cfg)
	if cfg.AMQPURL == "" {
		logger.Fatal("AMQP_URL is required for the ingest worker")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := app.OpenDB(ctx, cfg)
	if err != nil {
		logger.Fatalf("database: %v", err)
	}
	defer db.Close()

	blobs, err := app.NewBlobStore(cfg, logger)
	if err != nil {
		logger.Fatalf("blob store: %v", err)
	}

	ingestService := service.NewIngestService(
		repository.NewUserRepository(db, logger),
		repository.NewUploadRepository(db, logger),
		blobs,
		service.NewEmailSender(cfg, logger),
		logger,
	)

	client, err := queue.DialWithRetry(ctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Fatalf("AMQP: %v", err)
	}
	defer client.Close()

	handle := func(ctx context.Context, msg *queue.StatementUploadedMessage) error {
		ctx, cancel := context.WithTimeout(ctx, processTimeout)
		defer cancel()

		upload, err := ingestService.Process(ctx, msg.UploadID)
		if errors.Is(err, model.ErrUploadNotFound) {
			logger.WithField("upload_id", msg.UploadID).Warn("upload no longer exists, dropping message")
			return nil
		}
		if err != nil {
			return err
		}
		logger.WithFields(logrus.Fields{
			"upload_id": upload.ID,
			"status":    upload.Status,
			"imported":  upload.Imported,
		}).Info("upload handled")
		return nil
	}

	closed := client.NotifyClose()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return client.ConsumeStatementUploaded(gctx, handle)
	})
	g.Go(func() error {
		select {
		case <-gctx.Done():
			return nil
		case amqpErr, ok := <-closed:
			if ok && amqpErr != nil {
				return fmt.Errorf("broker connection lost: %w", amqpErr)
			}
			return errors.New("broker connection closed")
		}
	})

	logger.WithField("queue", cfg.AMQPQueue).Info("ingest worker started")
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.WithError(err).Fatal("ingest worker stopped")
	}
	logger.Info("ingest worker stopped")
}
