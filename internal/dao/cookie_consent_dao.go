package dao

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/learningcenter/marketing-site/internal/database"
	"github.com/learningcenter/marketing-site/internal/models"
)

// ErrConsentNotFound is returned when no consent record exists for a visitor
var ErrConsentNotFound = errors.New("cookie consent not found")

// CookieConsentDAO handles database operations for persisted consent snapshots
type CookieConsentDAO struct {
	db *database.DB
}

// NewCookieConsentDAO creates a new CookieConsentDAO instance
func NewCookieConsentDAO(db *database.DB) *CookieConsentDAO {
	return &CookieConsentDAO{db: db}
}

// GetByVisitorID retrieves the consent record of a visitor
func (dao *CookieConsentDAO) GetByVisitorID(ctx context.Context, visitorID string) (*models.CookieConsentRecord, error) {
	query := `
		SELECT VISITOR_ID, STORAGE_KEY, SNAPSHOT, CREATED_TIME, UPDATED_TIME
		FROM COOKIE_CONSENT
		WHERE VISITOR_ID = ? AND STORAGE_KEY = ?
	`

	var record models.CookieConsentRecord
	err := dao.db.GetContext(ctx, &record, query, visitorID, models.ConsentStorageKey)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrConsentNotFound
		}
		return nil, fmt.Errorf("failed to get cookie consent: %w", err)
	}

	return &record, nil
}

// UpsertWithTx inserts or replaces the consent record of a visitor using a transaction
func (dao *CookieConsentDAO) UpsertWithTx(ctx context.Context, tx *database.Transaction, record *models.CookieConsentRecord) error {
	query := `
		INSERT INTO COOKIE_CONSENT (
			VISITOR_ID, STORAGE_KEY, SNAPSHOT, CREATED_TIME, UPDATED_TIME
		) VALUES (?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE SNAPSHOT = VALUES(SNAPSHOT), UPDATED_TIME = VALUES(UPDATED_TIME)
	`

	_, err := tx.ExecContext(
		ctx,
		query,
		record.VisitorID,
		record.StorageKey,
		record.Snapshot,
		record.CreatedTime,
		record.UpdatedTime,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert cookie consent with transaction: %w", err)
	}

	return nil
}

// Delete removes the consent record of a visitor
func (dao *CookieConsentDAO) Delete(ctx context.Context, visitorID string) error {
	query := `DELETE FROM COOKIE_CONSENT WHERE VISITOR_ID = ? AND STORAGE_KEY = ?`

	result, err := dao.db.ExecContext(ctx, query, visitorID, models.ConsentStorageKey)
	if err != nil {
		return fmt.Errorf("failed to delete cookie consent: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrConsentNotFound
	}

	return nil
}
