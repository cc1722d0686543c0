// Package storage persists the visitor's consent snapshot. The default
// backend keeps it in a browser cookie, mirroring client-side storage; the
// redis and mysql backends keep it server-side, keyed by visitor id.
package storage

//go:generate mockgen -destination=mocks/mock_repository.go -package=mocks github.com/learningcenter/marketing-site/internal/storage Repository,Backend

import (
	"context"
	"errors"
	"net/http"

	"github.com/learningcenter/marketing-site/internal/models"
)

// ErrNotFound is returned by Load when nothing has been persisted for the visitor
var ErrNotFound = errors.New("consent snapshot not found")

// Repository loads and saves consent snapshots
type Repository interface {
	Load(ctx context.Context, visitorID string) (models.ConsentSnapshot, error)
	Save(ctx context.Context, visitorID string, snapshot models.ConsentSnapshot, action models.ConsentAction) error
	Delete(ctx context.Context, visitorID string) error
}

// HistoryReader is implemented by repositories that keep an audit trail of decisions
type HistoryReader interface {
	History(ctx context.Context, visitorID string, limit int) ([]models.CookieConsentAudit, error)
}

// HealthChecker is implemented by repositories backed by a remote service
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Backend hands out a Repository for a single HTTP exchange
type Backend interface {
	Name() string
	Bind(w http.ResponseWriter, r *http.Request) Repository
}

// serverBackend serves the same Repository to every request
type serverBackend struct {
	name string
	repo Repository
}

// NewServerBackend wraps a server-side repository as a Backend
func NewServerBackend(name string, repo Repository) Backend {
	return &serverBackend{name: name, repo: repo}
}

func (b *serverBackend) Name() string {
	return b.name
}

func (b *serverBackend) Bind(http.ResponseWriter, *http.Request) Repository {
	return b.repo
}
