// Package app holds the start-up wiring shared by the binaries.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/Wodenvase/BharatLedger/internal/config"
	"github.com/Wodenvase/BharatLedger/internal/crypto"
	"github.com/Wodenvase/BharatLedger/internal/storage"
)

// NewLogger returns a JSON logger at the configured level.
func NewLogger(cfg *config.Config) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	logger.SetFormatter(&logrus.JSONFormatter{})
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	return logger
}

// OpenDB connects to PostgreSQL and checks the connection.
func OpenDB(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// NewBlobStore returns the upload store, PGP-encrypted when ENCRYPT_UPLOADS is set.
func NewBlobStore(cfg *config.Config, logger *logrus.Logger) (storage.BlobStore, error) {
	files, err := storage.NewFileStore(cfg.UploadDir, logger)
	if err != nil {
		return nil, fmt.Errorf("upload directory: %w", err)
	}
	if !cfg.EncryptUploads {
		return files, nil
	}

	pgpManager, err := crypto.NewPGPManager(cfg.PGPKeyPath, crypto.DefaultRSABits)
	if err != nil {
		return nil, fmt.Errorf("init PGP: %w", err)
	}
	logger.WithField("key", cfg.PGPKeyPath).Info("statement uploads are encrypted at rest")
	return storage.NewEncryptedStore(files, pgpManager), nil
}
