package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/learningcenter/marketing-site/internal/dao"
	"github.com/learningcenter/marketing-site/internal/database"
	"github.com/learningcenter/marketing-site/internal/models"
	"github.com/learningcenter/marketing-site/pkg/utils"
)

// MySQLRepository stores snapshots in COOKIE_CONSENT and, when auditing is
// enabled, appends every decision to COOKIE_CONSENT_AUDIT in the same transaction.
type MySQLRepository struct {
	db           *database.DB
	consentDAO   *dao.CookieConsentDAO
	auditDAO     *dao.CookieConsentAuditDAO
	auditEnabled bool
	logger       *logrus.Logger
}

// NewMySQLRepository creates a repository on top of the consent database
func NewMySQLRepository(db *database.DB, auditEnabled bool, logger *logrus.Logger) *MySQLRepository {
	return &MySQLRepository{
		db:           db,
		consentDAO:   dao.NewCookieConsentDAO(db),
		auditDAO:     dao.NewCookieConsentAuditDAO(db),
		auditEnabled: auditEnabled,
		logger:       logger,
	}
}

// Load reads the snapshot of a visitor
func (m *MySQLRepository) Load(ctx context.Context, visitorID string) (models.ConsentSnapshot, error) {
	record, err := m.consentDAO.GetByVisitorID(ctx, visitorID)
	if err != nil {
		if errors.Is(err, dao.ErrConsentNotFound) {
			return models.ConsentSnapshot{}, ErrNotFound
		}
		return models.ConsentSnapshot{}, err
	}
	return models.UnmarshalSnapshot(record.Snapshot)
}

// Save upserts the snapshot of a visitor and records the decision
func (m *MySQLRepository) Save(ctx context.Context, visitorID string, snapshot models.ConsentSnapshot, action models.ConsentAction) error {
	data, err := models.MarshalSnapshot(snapshot)
	if err != nil {
		return err
	}
	snapshot = snapshot.Normalize()
	now := utils.GetCurrentTimeMillis()

	record := &models.CookieConsentRecord{
		VisitorID:   visitorID,
		StorageKey:  models.ConsentStorageKey,
		Snapshot:    models.JSON(data),
		CreatedTime: now,
		UpdatedTime: now,
	}

	err = m.db.WithVisitorTx(ctx, visitorID, func(tx *database.Transaction) error {
		if err := m.consentDAO.UpsertWithTx(ctx, tx, record); err != nil {
			return err
		}
		if !m.auditEnabled {
			return nil
		}
		audit := &models.CookieConsentAudit{
			AuditID:       utils.GenerateAuditID(),
			VisitorID:     visitorID,
			Action:        string(action),
			Functional:    snapshot.Preferences.Functional,
			Analytics:     snapshot.Preferences.Analytics,
			Marketing:     snapshot.Preferences.Marketing,
			HasInteracted: snapshot.HasInteracted,
			ActionTime:    now,
		}
		return m.auditDAO.CreateWithTx(ctx, tx, audit)
	})
	if err != nil {
		return fmt.Errorf("failed to save cookie consent: %w", err)
	}

	m.logger.WithFields(logrus.Fields{
		"visitor_id": visitorID,
		"action":     action,
	}).Debug("Cookie consent saved")
	return nil
}

// Delete removes the snapshot of a visitor. Audit rows are kept.
func (m *MySQLRepository) Delete(ctx context.Context, visitorID string) error {
	if err := m.consentDAO.Delete(ctx, visitorID); err != nil {
		if errors.Is(err, dao.ErrConsentNotFound) {
			return nil
		}
		return err
	}
	return nil
}

// History returns the most recent decisions of a visitor
func (m *MySQLRepository) History(ctx context.Context, visitorID string, limit int) ([]models.CookieConsentAudit, error) {
	return m.auditDAO.GetByVisitorID(ctx, visitorID, limit)
}

// HealthCheck pings the consent database
func (m *MySQLRepository) HealthCheck(ctx context.Context) error {
	return m.db.HealthCheck(ctx)
}
