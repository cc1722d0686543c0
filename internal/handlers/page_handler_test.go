package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learningcenter/marketing-site/internal/config"
	"github.com/learningcenter/marketing-site/internal/metrics"
	"github.com/learningcenter/marketing-site/internal/models"
	"github.com/learningcenter/marketing-site/internal/storage"
	"github.com/learningcenter/marketing-site/internal/utils"
	"github.com/learningcenter/marketing-site/internal/web"
)

func newPageEngine(t *testing.T, delay time.Duration) *gin.Engine {
	t.Helper()
	logger, _ := test.NewNullLogger()
	backend := storage.NewCookieBackend(config.ConsentConfig{
		CookieName:   models.ConsentStorageKey,
		CookieMaxAge: time.Hour,
	})
	sessions := NewConsentSessions(backend, metrics.New(prometheus.NewRegistry()), logger)
	h := NewPageHandler(sessions, config.SiteConfig{
		Name:         "LearningCenter",
		PrivacyEmail: "privacy@learningcenter.id",
		LegalEmail:   "legal@learningcenter.id",
	}, delay)
	h.now = func() time.Time { return time.Date(2025, time.March, 4, 0, 0, 0, 0, time.UTC) }

	templates, err := web.LoadTemplates()
	require.NoError(t, err)

	r := gin.New()
	r.SetHTMLTemplate(templates)
	r.Use(func(c *gin.Context) {
		c.Set(utils.ContextKeyVisitorID, testVisitorID)
		c.Next()
	})
	r.GET("/", h.Landing)
	r.GET("/sign-up", h.SignUp)
	r.GET("/privacy", h.Privacy)
	r.GET("/terms", h.Terms)
	r.GET("/cookie", h.Cookie)
	return r
}

func getPage(t *testing.T, r *gin.Engine, path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	return w
}

func TestLanding_FirstVisitBannerIsDelayed(t *testing.T) {
	w := getPage(t, newPageEngine(t, time.Second), "/")

	body := w.Body.String()
	assert.Contains(t, body, "We use cookies")
	assert.Contains(t, body, `<div id="cookie-banner" data-delay-ms="1000" class="cookie-banner-pending">`)
	assert.Contains(t, body, "animation: cookie-banner-reveal 0s linear 1000ms forwards;")
	assert.NotContains(t, body, "<dialog")
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}

func TestLanding_FirstVisitBannerRevealsWithoutScript(t *testing.T) {
	body := getPage(t, newPageEngine(t, time.Second), "/").Body.String()

	assert.NotContains(t, body, "<script")
	assert.NotContains(t, body, `data-delay-ms="1000" hidden`)
	assert.Contains(t, body, "@keyframes cookie-banner-reveal { to { visibility: visible; } }")
}

func TestLanding_NoDelayShowsBanner(t *testing.T) {
	w := getPage(t, newPageEngine(t, 0), "/")

	body := w.Body.String()
	assert.Contains(t, body, `<div id="cookie-banner" data-delay-ms="0">`)
	assert.NotContains(t, body, "cookie-banner-pending")
}

func TestLanding_OpenDialogKeepsFirstVisitBannerHidden(t *testing.T) {
	body := getPage(t, newPageEngine(t, time.Second), "/?cookie-preferences=open").Body.String()

	assert.Contains(t, body, `<dialog id="cookie-preferences" open>`)
	assert.Contains(t, body, `<div id="cookie-banner" data-delay-ms="1000" hidden>`)
	assert.NotContains(t, body, "cookie-banner-pending")
	assert.NotContains(t, body, "<script")
}

func TestLanding_BannerHiddenAfterDecision(t *testing.T) {
	cookie := storedCookie(t, models.ConsentSnapshot{Preferences: models.AllConsentPreferences(), HasInteracted: true})

	w := getPage(t, newPageEngine(t, time.Second), "/", cookie)

	assert.NotContains(t, w.Body.String(), "We use cookies")
	assert.NotContains(t, w.Body.String(), "<dialog")
}

func TestPages_DialogQueryOpensPreferences(t *testing.T) {
	cookie := storedCookie(t, models.ConsentSnapshot{
		Preferences:   models.ConsentPreferences{Essential: true, Analytics: true},
		HasInteracted: true,
	})

	w := getPage(t, newPageEngine(t, time.Second), "/terms?cookie-preferences=open", cookie)

	body := w.Body.String()
	assert.Contains(t, body, "<dialog id=\"cookie-preferences\" open>")
	assert.Contains(t, body, `name="analytics" checked`)
	assert.Contains(t, body, `name="marketing">`)
	assert.Contains(t, body, `name="essential" checked disabled`)
	// the panel returns to the page without re-opening itself
	assert.Contains(t, body, `name="return_to" value="/terms"`)
}

func TestCookiePage_RendersSettingsPanel(t *testing.T) {
	cookie := storedCookie(t, models.ConsentSnapshot{
		Preferences:   models.ConsentPreferences{Essential: true, Marketing: true},
		HasInteracted: true,
	})

	w := getPage(t, newPageEngine(t, time.Second), "/cookie?saved=1", cookie)

	body := w.Body.String()
	assert.Contains(t, body, "Cookie Policy")
	assert.Contains(t, body, "Effective Date: March 4, 2025")
	assert.Contains(t, body, `<input type="hidden" name="source" value="policy">`)
	assert.Contains(t, body, `name="marketing" checked`)
	assert.Contains(t, body, `name="functional">`)
	assert.Contains(t, body, "Your cookie preferences have been saved.")
	assert.Contains(t, body, "Change your cookie settings")
}

func TestCookiePage_NoResetBeforeDecision(t *testing.T) {
	w := getPage(t, newPageEngine(t, time.Second), "/cookie")

	assert.NotContains(t, w.Body.String(), "Change your cookie settings")
	assert.NotContains(t, w.Body.String(), "have been saved")
}

func TestLegalPages(t *testing.T) {
	r := newPageEngine(t, time.Second)

	assert.Contains(t, getPage(t, r, "/privacy").Body.String(), "privacy@learningcenter.id")
	assert.Contains(t, getPage(t, r, "/terms").Body.String(), "legal@learningcenter.id")
}

func TestSignUp_KeepsOnlyLocalRedirect(t *testing.T) {
	r := newPageEngine(t, time.Second)

	assert.Contains(t, getPage(t, r, "/sign-up?redirect=%2Fdashboard").Body.String(), "/sign-in?redirect=%2fdashboard")
	assert.NotContains(t, getPage(t, r, "/sign-up?redirect=https%3A%2F%2Fevil.example").Body.String(), "evil.example")
}

func TestPages_DoNotPersistOnRender(t *testing.T) {
	w := getPage(t, newPageEngine(t, time.Second), "/terms?cookie-preferences=open")

	for _, c := range w.Result().Cookies() {
		assert.NotEqual(t, models.ConsentStorageKey, c.Name)
	}
}
