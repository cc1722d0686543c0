package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/learningcenter/marketing-site/internal/cookieconsent"
	"github.com/learningcenter/marketing-site/internal/metrics"
	"github.com/learningcenter/marketing-site/internal/models"
	"github.com/learningcenter/marketing-site/internal/storage"
	"github.com/learningcenter/marketing-site/internal/utils"
)

// ConsentSessions opens request-scoped consent stores on top of the configured storage backend
type ConsentSessions struct {
	backend storage.Backend
	metrics *metrics.Metrics
	logger  *logrus.Logger
}

// NewConsentSessions creates a session factory
func NewConsentSessions(backend storage.Backend, m *metrics.Metrics, logger *logrus.Logger) *ConsentSessions {
	return &ConsentSessions{
		backend: backend,
		metrics: m,
		logger:  logger,
	}
}

// Backend returns the storage backend sessions are bound to
func (s *ConsentSessions) Backend() storage.Backend {
	return s.backend
}

// ConsentSession is one visitor's consent store for the duration of a request.
// Decisions made through it are written back to storage by the store's change hook.
type ConsentSession struct {
	Store *cookieconsent.Store

	ctx       context.Context
	repo      storage.Repository
	visitorID string
	backend   string
	action    models.ConsentAction
	metrics   *metrics.Metrics
	logger    *logrus.Entry
	failed    bool
}

// Open loads the visitor's snapshot and returns a session around it. A
// missing or unreadable snapshot yields the default state.
func (s *ConsentSessions) Open(c *gin.Context) *ConsentSession {
	visitorID := utils.GetVisitorIDFromContext(c)
	session := &ConsentSession{
		ctx:       c.Request.Context(),
		repo:      s.backend.Bind(c.Writer, c.Request),
		visitorID: visitorID,
		backend:   s.backend.Name(),
		metrics:   s.metrics,
		logger: s.logger.WithFields(logrus.Fields{
			"visitor_id":     visitorID,
			"storage":        s.backend.Name(),
			"correlation_id": utils.GetCorrelationIDFromContext(c),
		}),
	}

	snapshot, err := session.repo.Load(session.ctx, visitorID)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			session.logger.WithError(err).Debug("Falling back to default consent state")
		}
		snapshot = models.DefaultConsentSnapshot()
	}

	session.Store = cookieconsent.NewStore(
		cookieconsent.WithSnapshot(snapshot),
		cookieconsent.WithChangeHook(session.persist),
		cookieconsent.WithLogger(s.logger),
	)
	return session
}

// Record tags the writes that follow with action and counts the decision
func (s *ConsentSession) Record(action models.ConsentAction) {
	s.action = action
	s.metrics.IncrementDecision(action)
}

// AcceptAll records consent to every category
func (s *ConsentSession) AcceptAll() {
	s.Record(models.ConsentActionAcceptAll)
	s.Store.AcceptAll()
}

// RejectAll records refusal of every optional category
func (s *ConsentSession) RejectAll() {
	s.Record(models.ConsentActionRejectAll)
	s.Store.RejectAll()
}

// SetPreferences merges patch into the stored preferences
func (s *ConsentSession) SetPreferences(patch models.ConsentPreferencesPatch) {
	s.Record(models.ConsentActionSetPreferences)
	s.Store.SetPreferences(patch)
}

// ResetConsent restores the defaults and asks for the dialog again
func (s *ConsentSession) ResetConsent() {
	s.Record(models.ConsentActionReset)
	s.Store.ResetConsent()
}

// PersistFailed reports whether a write to storage failed during this session
func (s *ConsentSession) PersistFailed() bool {
	return s.failed
}

func (s *ConsentSession) persist(snapshot models.ConsentSnapshot) error {
	action := s.action
	if action == "" {
		action = models.ConsentActionSetPreferences
	}

	start := time.Now()
	err := s.repo.Save(s.ctx, s.visitorID, snapshot, action)
	s.metrics.ObservePersistLatency(s.backend, time.Since(start))
	if err != nil {
		s.failed = true
		s.metrics.IncrementPersistFailure(s.backend)
		return err
	}
	return nil
}
