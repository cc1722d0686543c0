package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/learningcenter/marketing-site/internal/config"
	"github.com/learningcenter/marketing-site/internal/utils"
	pkgutils "github.com/learningcenter/marketing-site/pkg/utils"
)

// VisitorIDMiddleware identifies anonymous visitors through a long-lived
// cookie. Server-side storage backends key snapshots by this id.
func VisitorIDMiddleware(cfg config.ConsentConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		visitorID, err := c.Cookie(cfg.VisitorCookieName)
		if err != nil || !pkgutils.IsValidVisitorID(visitorID) {
			visitorID = pkgutils.GenerateVisitorID()
			http.SetCookie(c.Writer, &http.Cookie{
				Name:     cfg.VisitorCookieName,
				Value:    visitorID,
				Path:     "/",
				MaxAge:   int(cfg.CookieMaxAge.Seconds()),
				Secure:   cfg.SecureCookies,
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}
		c.Set(utils.ContextKeyVisitorID, visitorID)
		c.Next()
	}
}
