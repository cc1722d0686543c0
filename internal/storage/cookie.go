package storage

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"time"

	"github.com/learningcenter/marketing-site/internal/config"
	"github.com/learningcenter/marketing-site/internal/models"
)

// CookieBackend keeps the snapshot in a cookie on the visitor's browser
type CookieBackend struct {
	name   string
	maxAge time.Duration
	secure bool
}

// NewCookieBackend creates a cookie backend from the consent configuration
func NewCookieBackend(cfg config.ConsentConfig) *CookieBackend {
	return &CookieBackend{
		name:   cfg.CookieName,
		maxAge: cfg.CookieMaxAge,
		secure: cfg.SecureCookies,
	}
}

// Name returns the backend name
func (b *CookieBackend) Name() string {
	return config.StorageCookie
}

// Bind returns a repository reading from r and writing to w
func (b *CookieBackend) Bind(w http.ResponseWriter, r *http.Request) Repository {
	return &cookieRepository{backend: b, w: w, r: r}
}

// EncodeCookieValue serializes a snapshot into a cookie-safe value
func EncodeCookieValue(snapshot models.ConsentSnapshot) (string, error) {
	data, err := models.MarshalSnapshot(snapshot)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

// DecodeCookieValue parses a value produced by EncodeCookieValue
func DecodeCookieValue(value string) (models.ConsentSnapshot, error) {
	data, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return models.DefaultConsentSnapshot(), fmt.Errorf("failed to decode consent cookie: %w", err)
	}
	return models.UnmarshalSnapshot(data)
}

type cookieRepository struct {
	backend *CookieBackend
	w       http.ResponseWriter
	r       *http.Request

	// written holds the snapshot saved during this exchange so that a later
	// Load in the same request sees it
	written *models.ConsentSnapshot
	deleted bool
}

func (c *cookieRepository) Load(_ context.Context, _ string) (models.ConsentSnapshot, error) {
	if c.written != nil {
		return *c.written, nil
	}
	if c.deleted {
		return models.ConsentSnapshot{}, ErrNotFound
	}
	cookie, err := c.r.Cookie(c.backend.name)
	if err != nil {
		return models.ConsentSnapshot{}, ErrNotFound
	}
	return DecodeCookieValue(cookie.Value)
}

func (c *cookieRepository) Save(_ context.Context, _ string, snapshot models.ConsentSnapshot, _ models.ConsentAction) error {
	value, err := EncodeCookieValue(snapshot)
	if err != nil {
		return err
	}
	http.SetCookie(c.w, &http.Cookie{
		Name:     c.backend.name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(c.backend.maxAge.Seconds()),
		Secure:   c.backend.secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	snapshot = snapshot.Normalize()
	c.written = &snapshot
	c.deleted = false
	return nil
}

func (c *cookieRepository) Delete(_ context.Context, _ string) error {
	http.SetCookie(c.w, &http.Cookie{
		Name:     c.backend.name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Secure:   c.backend.secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	c.written = nil
	c.deleted = true
	return nil
}
