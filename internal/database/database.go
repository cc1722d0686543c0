// Package database holds the MySQL connection behind the mysql consent
// storage backend. Every write is a transaction scoped to one visitor.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/learningcenter/marketing-site/internal/config"
)

const connectTimeout = 10 * time.Second

// DB is the consent database handle
type DB struct {
	*sqlx.DB
	logger *logrus.Logger
}

// Initialize opens the consent database, applies the pool settings and
// pings it once. The handle is closed again when the ping fails.
func Initialize(cfg *config.DatabaseConfig, logger *logrus.Logger) (*DB, error) {
	log := logger.WithFields(logrus.Fields{
		"hostname": cfg.Hostname,
		"port":     cfg.Port,
		"database": cfg.Database,
	})
	log.Info("Connecting to consent database...")

	conn, err := sqlx.Open("mysql", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open consent database: %w", err)
	}
	conn.SetMaxOpenConns(cfg.MaxOpenConns)
	conn.SetMaxIdleConns(cfg.MaxIdleConns)
	conn.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	db := New(conn, logger)
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := db.HealthCheck(ctx); err != nil {
		_ = conn.Close()
		return nil, err
	}

	log.Info("Connected to consent database")
	return db, nil
}

// New wraps an existing sqlx handle, for instance one backed by sqlmock
func New(conn *sqlx.DB, logger *logrus.Logger) *DB {
	return &DB{DB: conn, logger: logger}
}

// Logger returns the logger the connection reports to
func (db *DB) Logger() *logrus.Logger {
	return db.logger
}

// Close releases the connection pool
func (db *DB) Close() error {
	if db.DB == nil {
		return nil
	}
	db.logger.Info("Closing consent database connection...")
	return db.DB.Close()
}

// HealthCheck pings the database
func (db *DB) HealthCheck(ctx context.Context) error {
	if db.DB == nil {
		return errors.New("consent database is not initialized")
	}
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}

// Transaction is a read-committed transaction writing one visitor's consent
type Transaction struct {
	*sqlx.Tx
	VisitorID string
	log       *logrus.Entry
}

// WithVisitorTx runs fn in a transaction for visitorID. The transaction is
// committed when fn returns nil and rolled back when it fails or panics.
func (db *DB) WithVisitorTx(ctx context.Context, visitorID string, fn func(*Transaction) error) error {
	sqlTx, err := db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("failed to begin consent transaction: %w", err)
	}
	tx := &Transaction{
		Tx:        sqlTx,
		VisitorID: visitorID,
		log:       db.logger.WithField("visitor_id", visitorID),
	}

	defer func() {
		if p := recover(); p != nil {
			tx.rollback(fmt.Errorf("panic: %v", p))
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		tx.rollback(err)
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit consent transaction: %w", err)
	}
	tx.log.Debug("Consent transaction committed")
	return nil
}

func (tx *Transaction) rollback(cause error) {
	log := tx.log.WithField("cause", cause.Error())
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		log.WithError(err).Error("Failed to roll back consent transaction")
		return
	}
	log.Warn("Consent transaction rolled back")
}
