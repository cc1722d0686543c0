package dao

import (
	"context"
	"fmt"

	"github.com/learningcenter/marketing-site/internal/database"
	"github.com/learningcenter/marketing-site/internal/models"
)

// CookieConsentAuditDAO handles database operations for the consent decision audit trail
type CookieConsentAuditDAO struct {
	db *database.DB
}

// NewCookieConsentAuditDAO creates a new CookieConsentAuditDAO instance
func NewCookieConsentAuditDAO(db *database.DB) *CookieConsentAuditDAO {
	return &CookieConsentAuditDAO{db: db}
}

// CreateWithTx inserts a new audit record using a transaction
func (dao *CookieConsentAuditDAO) CreateWithTx(ctx context.Context, tx *database.Transaction, audit *models.CookieConsentAudit) error {
	query := `
		INSERT INTO COOKIE_CONSENT_AUDIT (
			AUDIT_ID, VISITOR_ID, ACTION, FUNCTIONAL, ANALYTICS,
			MARKETING, HAS_INTERACTED, ACTION_TIME
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := tx.ExecContext(
		ctx,
		query,
		audit.AuditID,
		audit.VisitorID,
		audit.Action,
		audit.Functional,
		audit.Analytics,
		audit.Marketing,
		audit.HasInteracted,
		audit.ActionTime,
	)
	if err != nil {
		return fmt.Errorf("failed to create cookie consent audit with transaction: %w", err)
	}

	return nil
}

// GetByVisitorID retrieves the audit trail of a visitor, newest first
func (dao *CookieConsentAuditDAO) GetByVisitorID(ctx context.Context, visitorID string, limit int) ([]models.CookieConsentAudit, error) {
	query := `
		SELECT AUDIT_ID, VISITOR_ID, ACTION, FUNCTIONAL, ANALYTICS,
		       MARKETING, HAS_INTERACTED, ACTION_TIME
		FROM COOKIE_CONSENT_AUDIT
		WHERE VISITOR_ID = ?
		ORDER BY ACTION_TIME DESC
		LIMIT ?
	`

	var audits []models.CookieConsentAudit
	err := dao.db.SelectContext(ctx, &audits, query, visitorID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get cookie consent audits by visitor ID: %w", err)
	}

	return audits, nil
}

// DeleteByVisitorID deletes the audit trail of a visitor
func (dao *CookieConsentAuditDAO) DeleteByVisitorID(ctx context.Context, visitorID string) error {
	query := `DELETE FROM COOKIE_CONSENT_AUDIT WHERE VISITOR_ID = ?`

	_, err := dao.db.ExecContext(ctx, query, visitorID)
	if err != nil {
		return fmt.Errorf("failed to delete cookie consent audits by visitor ID: %w", err)
	}

	return nil
}
