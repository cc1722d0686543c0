package handlers

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/learningcenter/marketing-site/internal/models"
	"github.com/learningcenter/marketing-site/internal/presenter"
	"github.com/learningcenter/marketing-site/internal/storage"
	"github.com/learningcenter/marketing-site/internal/utils"
	pkgutils "github.com/learningcenter/marketing-site/pkg/utils"
)

// Query parameter that asks a page to open the cookie preferences dialog
const (
	DialogQueryParam = "cookie-preferences"
	DialogQueryOpen  = "open"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// CookieConsentHandler handles the consent API and the no-JS consent forms
type CookieConsentHandler struct {
	sessions *ConsentSessions
	logger   *logrus.Logger
}

// NewCookieConsentHandler creates a new cookie consent handler instance
func NewCookieConsentHandler(sessions *ConsentSessions, logger *logrus.Logger) *CookieConsentHandler {
	return &CookieConsentHandler{
		sessions: sessions,
		logger:   logger,
	}
}

// GetConsent handles GET /api/v1/cookie-consent
func (h *CookieConsentHandler) GetConsent(c *gin.Context) {
	session := h.sessions.Open(c)
	h.respond(c, session)
}

// AcceptAll handles POST /api/v1/cookie-consent/accept-all
func (h *CookieConsentHandler) AcceptAll(c *gin.Context) {
	session := h.sessions.Open(c)
	session.AcceptAll()
	h.respond(c, session)
}

// RejectAll handles POST /api/v1/cookie-consent/reject-all
func (h *CookieConsentHandler) RejectAll(c *gin.Context) {
	session := h.sessions.Open(c)
	session.RejectAll()
	h.respond(c, session)
}

// UpdatePreferences handles PATCH /api/v1/cookie-consent/preferences
func (h *CookieConsentHandler) UpdatePreferences(c *gin.Context) {
	var patch models.ConsentPreferencesPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		utils.SendBadRequestError(c, "Invalid request body", err.Error())
		return
	}

	if patch.IsEmpty() {
		h.logger.WithFields(logrus.Fields{
			"visitor_id":     utils.GetVisitorIDFromContext(c),
			"correlation_id": utils.GetCorrelationIDFromContext(c),
		}).Debug("Empty preferences patch, recording interaction only")
	}

	session := h.sessions.Open(c)
	session.SetPreferences(patch)
	h.respond(c, session)
}

// RequestDialog handles POST /api/v1/cookie-consent/dialog
func (h *CookieConsentHandler) RequestDialog(c *gin.Context) {
	var request models.ConsentDialogRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.SendValidationError(c, err.Error())
		return
	}

	session := h.sessions.Open(c)
	session.Store.RequestDialog(*request.Open)
	h.respond(c, session)
}

// ResetConsent handles POST /api/v1/cookie-consent/reset
func (h *CookieConsentHandler) ResetConsent(c *gin.Context) {
	session := h.sessions.Open(c)
	session.ResetConsent()
	h.respond(c, session)
}

// DeleteConsent handles DELETE /api/v1/cookie-consent. The stored snapshot
// is erased and the visitor is back to the first-visit state.
func (h *CookieConsentHandler) DeleteConsent(c *gin.Context) {
	visitorID := utils.GetVisitorIDFromContext(c)
	repo := h.sessions.Backend().Bind(c.Writer, c.Request)

	if err := repo.Delete(c.Request.Context(), visitorID); err != nil {
		h.logger.WithFields(logrus.Fields{
			"visitor_id":     visitorID,
			"storage":        h.sessions.Backend().Name(),
			"correlation_id": utils.GetCorrelationIDFromContext(c),
		}).WithError(err).Error("Failed to delete cookie consent")
		utils.SendStorageError(c, "Failed to delete cookie consent")
		return
	}

	state := models.ConsentState{Preferences: models.DefaultConsentPreferences()}
	utils.SendOKResponse(c, state.ToConsentStateResponse())
}

// GetHistory handles GET /api/v1/cookie-consent/history
func (h *CookieConsentHandler) GetHistory(c *gin.Context) {
	reader, ok := h.sessions.Backend().Bind(c.Writer, c.Request).(storage.HistoryReader)
	if !ok {
		utils.SendNotSupportedError(c, "Consent history is not kept by the "+h.sessions.Backend().Name()+" storage")
		return
	}

	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > maxHistoryLimit {
			utils.SendValidationError(c, "limit must be between 1 and "+strconv.Itoa(maxHistoryLimit))
			return
		}
		limit = parsed
	}

	visitorID := utils.GetVisitorIDFromContext(c)
	history, err := reader.History(c.Request.Context(), visitorID, limit)
	if err != nil {
		h.logger.WithFields(logrus.Fields{
			"visitor_id":     visitorID,
			"correlation_id": utils.GetCorrelationIDFromContext(c),
		}).WithError(err).Error("Failed to read consent history")
		utils.SendInternalServerError(c, "Failed to read consent history", "")
		return
	}

	utils.SendOKResponse(c, gin.H{
		"visitorId": visitorID,
		"history":   history,
	})
}

// SubmitAcceptAll handles POST /cookie-consent/accept-all
func (h *CookieConsentHandler) SubmitAcceptAll(c *gin.Context) {
	session := h.sessions.Open(c)
	banner := mountBanner(session)
	defer banner.Unmount()

	session.Record(models.ConsentActionAcceptAll)
	banner.AcceptAll()
	h.redirectBack(c, session)
}

// SubmitRejectAll handles POST /cookie-consent/reject-all
func (h *CookieConsentHandler) SubmitRejectAll(c *gin.Context) {
	session := h.sessions.Open(c)
	banner := mountBanner(session)
	defer banner.Unmount()

	session.Record(models.ConsentActionRejectAll)
	banner.RejectAll()
	h.redirectBack(c, session)
}

// SubmitPreferences handles POST /cookie-consent/preferences. Unchecked
// boxes are absent from the form and read as off. A policy form submitted
// with intent=discard drops the staged edits and stores nothing.
func (h *CookieConsentHandler) SubmitPreferences(c *gin.Context) {
	session := h.sessions.Open(c)

	if c.PostForm("source") == "policy" {
		page := presenter.NewPolicyPage(session.Store)
		page.Mount()
		defer page.Unmount()

		for _, category := range models.ConfigurableCategories {
			page.Toggle(category, pkgutils.ParseBoolField(c.PostForm(string(category))))
		}
		if c.PostForm("intent") == "discard" {
			page.Discard()
			c.Redirect(http.StatusSeeOther, "/cookie")
			return
		}
		session.Record(models.ConsentActionSetPreferences)
		page.Save()
	} else {
		banner := mountBanner(session)
		defer banner.Unmount()

		banner.Customize()
		for _, category := range models.ConfigurableCategories {
			banner.Toggle(category, pkgutils.ParseBoolField(c.PostForm(string(category))))
		}
		session.Record(models.ConsentActionSetPreferences)
		banner.SavePreferences()
	}

	h.redirectBack(c, session)
}

// SubmitReset handles POST /cookie-consent/reset
func (h *CookieConsentHandler) SubmitReset(c *gin.Context) {
	session := h.sessions.Open(c)
	page := presenter.NewPolicyPage(session.Store)
	page.Mount()
	defer page.Unmount()

	session.Record(models.ConsentActionReset)
	page.ChangeSettings()
	h.redirectBack(c, session)
}

// SubmitDialog handles POST /cookie-consent/dialog
func (h *CookieConsentHandler) SubmitDialog(c *gin.Context) {
	session := h.sessions.Open(c)
	if pkgutils.ParseBoolField(c.PostForm("open")) {
		session.Store.RequestDialog(true)
	} else {
		banner := mountBanner(session)
		defer banner.Unmount()
		banner.ClosePreferences()
	}
	h.redirectBack(c, session)
}

func (h *CookieConsentHandler) respond(c *gin.Context, session *ConsentSession) {
	if session.PersistFailed() {
		c.Header("X-Consent-Persisted", "false")
	}
	utils.SendOKResponse(c, session.Store.State().ToConsentStateResponse())
}

// redirectBack sends the browser to the same-origin return_to path. The
// dialog request does not survive in storage, so an open dialog is carried
// over in the query string.
func (h *CookieConsentHandler) redirectBack(c *gin.Context, session *ConsentSession) {
	target := pkgutils.SafeRedirectPath(c.PostForm("return_to"), "/")

	u, err := url.Parse(target)
	if err != nil {
		u = &url.URL{Path: "/"}
	}
	query := u.Query()
	if session.Store.State().IsDialogRequested {
		query.Set(DialogQueryParam, DialogQueryOpen)
	} else {
		query.Del(DialogQueryParam)
	}
	u.RawQuery = query.Encode()

	c.Redirect(http.StatusSeeOther, u.RequestURI())
}

// mountBanner mounts a banner that is immediately visible, for handling a
// single form submission
func mountBanner(session *ConsentSession) *presenter.Banner {
	banner := presenter.NewBanner(session.Store, presenter.WithBannerDelay(0))
	banner.Mount()
	return banner
}
