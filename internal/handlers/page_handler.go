package handlers

import (
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/learningcenter/marketing-site/internal/config"
	"github.com/learningcenter/marketing-site/internal/presenter"
	"github.com/learningcenter/marketing-site/internal/utils"
	"github.com/learningcenter/marketing-site/internal/web"
	pkgutils "github.com/learningcenter/marketing-site/pkg/utils"
)

// PageHandler renders the site's pages. Every page carries the consent banner.
type PageHandler struct {
	sessions    *ConsentSessions
	site        config.SiteConfig
	bannerDelay time.Duration
	now         func() time.Time
}

// NewPageHandler creates a new page handler instance
func NewPageHandler(sessions *ConsentSessions, site config.SiteConfig, bannerDelay time.Duration) *PageHandler {
	return &PageHandler{
		sessions:    sessions,
		site:        site,
		bannerDelay: bannerDelay,
		now:         time.Now,
	}
}

// Landing handles GET /
func (h *PageHandler) Landing(c *gin.Context) {
	h.render(c, web.TemplateLanding, "Home", nil)
}

// SignUp handles GET /sign-up
func (h *PageHandler) SignUp(c *gin.Context) {
	h.render(c, web.TemplateSignUp, "Sign Up", func(data *web.PageData, _ *ConsentSession) {
		data.Redirect = pkgutils.SafeRedirectPath(c.Query("redirect"), "")
	})
}

// SignIn handles GET /sign-in
func (h *PageHandler) SignIn(c *gin.Context) {
	h.render(c, web.TemplateSignIn, "Sign In", func(data *web.PageData, _ *ConsentSession) {
		data.Redirect = pkgutils.SafeRedirectPath(c.Query("redirect"), "")
	})
}

// Privacy handles GET /privacy
func (h *PageHandler) Privacy(c *gin.Context) {
	h.render(c, web.TemplatePrivacy, "Privacy Policy", nil)
}

// Terms handles GET /terms
func (h *PageHandler) Terms(c *gin.Context) {
	h.render(c, web.TemplateTerms, "Terms of Service", nil)
}

// Cookie handles GET /cookie, the cookie policy with its settings panel
func (h *PageHandler) Cookie(c *gin.Context) {
	h.render(c, web.TemplateCookie, "Cookie Policy", func(data *web.PageData, session *ConsentSession) {
		page := presenter.NewPolicyPage(session.Store)
		page.Mount()
		defer page.Unmount()

		view := page.View()
		data.Policy = &web.PolicyView{
			PolicyPageView: view,
			Categories:     web.PolicyCategories(view.Draft),
			SavedNotice:    c.Query("saved") == "1",
		}
	})
}

// Dashboard handles GET /dashboard
func (h *PageHandler) Dashboard(c *gin.Context) {
	h.render(c, web.TemplateDashboard, "Dashboard", func(data *web.PageData, _ *ConsentSession) {
		data.UserID = utils.GetUserIDFromContext(c)
	})
}

func (h *PageHandler) render(c *gin.Context, name, title string, fill func(*web.PageData, *ConsentSession)) {
	session := h.sessions.Open(c)
	if c.Query(DialogQueryParam) == DialogQueryOpen {
		session.Store.RequestDialog(true)
	}

	banner := presenter.NewBanner(session.Store, presenter.WithBannerDelay(h.bannerDelay))
	banner.Mount()
	defer banner.Unmount()

	view := banner.View()
	data := web.PageData{
		Site:          h.site,
		Title:         title,
		ReturnTo:      returnPath(c.Request.URL),
		EffectiveDate: pkgutils.FormatEffectiveDate(h.now()),
		Banner:        view,
		Categories:    web.BannerCategories(view.Draft),
	}
	if fill != nil {
		fill(&data, session)
	}

	c.Header("Cache-Control", "no-store")
	c.HTML(http.StatusOK, name, data)
}

// returnPath is the current location without the one-shot dialog parameter
func returnPath(u *url.URL) string {
	query := u.Query()
	query.Del(DialogQueryParam)
	target := url.URL{Path: u.Path, RawQuery: query.Encode()}
	return target.RequestURI()
}
