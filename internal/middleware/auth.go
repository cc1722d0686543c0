package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/learningcenter/marketing-site/internal/auth"
	"github.com/learningcenter/marketing-site/internal/utils"
)

// Authenticate resolves the access token from the token cookie or a Bearer
// header and stores the user id in the context. Missing or invalid tokens
// leave the request anonymous.
func Authenticate(validator auth.TokenValidator, cookieName string, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractAccessToken(c, cookieName)
		if token == "" {
			c.Next()
			return
		}

		claims, err := validator.ValidateToken(token)
		if err != nil {
			logger.WithFields(logrus.Fields{
				"correlation_id": utils.GetCorrelationIDFromContext(c),
				"path":           c.Request.URL.Path,
			}).WithError(err).Debug("Ignoring access token")
			c.Next()
			return
		}

		c.Set(utils.ContextKeyUserID, claims.UserID)
		c.Next()
	}
}

// IsAuthenticated reports whether Authenticate accepted a token for this request
func IsAuthenticated(c *gin.Context) bool {
	return utils.GetUserIDFromContext(c) != ""
}

// RedirectIfAuthenticated sends signed-in users to target
func RedirectIfAuthenticated(target string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if IsAuthenticated(c) {
			c.Redirect(http.StatusFound, target)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireAuthenticated sends anonymous users to loginPath, remembering the
// requested location in the redirect query parameter.
func RequireAuthenticated(loginPath string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !IsAuthenticated(c) {
			query := url.Values{"redirect": []string{c.Request.URL.RequestURI()}}
			c.Redirect(http.StatusFound, loginPath+"?"+query.Encode())
			c.Abort()
			return
		}
		c.Next()
	}
}

func extractAccessToken(c *gin.Context, cookieName string) string {
	if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	if token, err := c.Cookie(cookieName); err == nil {
		return token
	}
	return ""
}
