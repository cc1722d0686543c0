package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learningcenter/marketing-site/internal/config"
	"github.com/learningcenter/marketing-site/internal/models"
)

func newCookieBackend() *CookieBackend {
	return NewCookieBackend(config.ConsentConfig{
		CookieName:   models.ConsentStorageKey,
		CookieMaxAge: 24 * time.Hour,
	})
}

func TestCookieRepository_LoadMissing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	repo := newCookieBackend().Bind(httptest.NewRecorder(), req)

	_, err := repo.Load(context.Background(), "VISITOR-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCookieRepository_SaveSetsCookie(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	repo := newCookieBackend().Bind(rec, req)

	snapshot := models.ConsentSnapshot{
		Preferences:   models.ConsentPreferences{Essential: true, Analytics: true},
		HasInteracted: true,
	}
	require.NoError(t, repo.Save(context.Background(), "VISITOR-1", snapshot, models.ConsentActionSetPreferences))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, models.ConsentStorageKey, cookies[0].Name)
	assert.Equal(t, 86400, cookies[0].MaxAge)
	assert.True(t, cookies[0].HttpOnly)

	decoded, err := DecodeCookieValue(cookies[0].Value)
	require.NoError(t, err)
	assert.Equal(t, snapshot, decoded)

	loaded, err := repo.Load(context.Background(), "VISITOR-1")
	require.NoError(t, err)
	assert.Equal(t, snapshot, loaded)
}

func TestCookieRepository_RoundTripAcrossRequests(t *testing.T) {
	backend := newCookieBackend()
	snapshot := models.ConsentSnapshot{Preferences: models.AllConsentPreferences(), HasInteracted: true}

	rec := httptest.NewRecorder()
	require.NoError(t, backend.Bind(rec, httptest.NewRequest(http.MethodPost, "/", nil)).
		Save(context.Background(), "", snapshot, models.ConsentActionAcceptAll))

	next := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		next.AddCookie(c)
	}
	loaded, err := backend.Bind(httptest.NewRecorder(), next).Load(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, snapshot, loaded)
}

func TestCookieRepository_CorruptCookieFallsBackToDefaults(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: models.ConsentStorageKey, Value: "%%%not-base64"})
	repo := newCookieBackend().Bind(httptest.NewRecorder(), req)

	snapshot, err := repo.Load(context.Background(), "")
	assert.Error(t, err)
	assert.Equal(t, models.DefaultConsentSnapshot(), snapshot)
}

func TestCookieRepository_Delete(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	value, err := EncodeCookieValue(models.DefaultConsentSnapshot())
	require.NoError(t, err)
	req.AddCookie(&http.Cookie{Name: models.ConsentStorageKey, Value: value})
	repo := newCookieBackend().Bind(rec, req)

	require.NoError(t, repo.Delete(context.Background(), ""))

	_, err = repo.Load(context.Background(), "")
	assert.ErrorIs(t, err, ErrNotFound)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, -1, cookies[0].MaxAge)
}

func TestDecodeCookieValue_ForcesEssential(t *testing.T) {
	// {"preferences":{"essential":false,"marketing":true},"hasInteracted":true}
	value := "eyJwcmVmZXJlbmNlcyI6eyJlc3NlbnRpYWwiOmZhbHNlLCJtYXJrZXRpbmciOnRydWV9LCJoYXNJbnRlcmFjdGVkIjp0cnVlfQ"

	snapshot, err := DecodeCookieValue(value)
	require.NoError(t, err)
	assert.True(t, snapshot.Preferences.Essential)
	assert.True(t, snapshot.Preferences.Marketing)
	assert.True(t, snapshot.HasInteracted)
}
