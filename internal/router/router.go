package router

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/learningcenter/marketing-site/internal/auth"
	"github.com/learningcenter/marketing-site/internal/config"
	"github.com/learningcenter/marketing-site/internal/handlers"
	"github.com/learningcenter/marketing-site/internal/metrics"
	"github.com/learningcenter/marketing-site/internal/middleware"
	"github.com/learningcenter/marketing-site/internal/storage"
	"github.com/learningcenter/marketing-site/internal/utils"
	"github.com/learningcenter/marketing-site/internal/web"
)

// Dependencies are the collaborators the routes are wired to
type Dependencies struct {
	Config   *config.Config
	Backend  storage.Backend
	Tokens   auth.TokenValidator
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	Logger   *logrus.Logger
}

// SetupRouter configures all page and API routes
func SetupRouter(deps Dependencies) (*gin.Engine, error) {
	templates, err := web.LoadTemplates()
	if err != nil {
		return nil, fmt.Errorf("failed to set up router: %w", err)
	}

	cfg := deps.Config
	router := gin.New()
	router.SetHTMLTemplate(templates)

	router.Use(
		gin.Recovery(),
		middleware.CorrelationIDMiddleware(),
		middleware.RequestLogger(deps.Logger),
	)

	// Health check and metrics
	healthHandler := handlers.NewHealthHandler(deps.Backend, deps.Logger)
	router.GET("/health", healthHandler.Health)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))

	// Create handlers
	sessions := handlers.NewConsentSessions(deps.Backend, deps.Metrics, deps.Logger)
	pageHandler := handlers.NewPageHandler(sessions, cfg.Site, cfg.Consent.BannerDelay)
	consentHandler := handlers.NewCookieConsentHandler(sessions, deps.Logger)

	site := router.Group("/",
		middleware.VisitorIDMiddleware(cfg.Consent),
		middleware.Authenticate(deps.Tokens, cfg.Auth.TokenCookieName, deps.Logger),
	)
	{
		// Visitors who are already signed in go straight to the dashboard
		guest := site.Group("/", middleware.RedirectIfAuthenticated(cfg.Auth.DashboardPath))
		guest.GET("/", pageHandler.Landing)
		guest.GET("/sign-up", pageHandler.SignUp)
		guest.GET("/sign-in", pageHandler.SignIn)

		site.GET("/privacy", pageHandler.Privacy)
		site.GET("/terms", pageHandler.Terms)
		site.GET("/cookie", pageHandler.Cookie)

		site.GET(cfg.Auth.DashboardPath, middleware.RequireAuthenticated(cfg.Auth.LoginPath), pageHandler.Dashboard)

		// Consent forms for browsers without JavaScript
		forms := site.Group("/cookie-consent")
		{
			forms.POST("/accept-all", consentHandler.SubmitAcceptAll)
			forms.POST("/reject-all", consentHandler.SubmitRejectAll)
			forms.POST("/preferences", consentHandler.SubmitPreferences)
			forms.POST("/reset", consentHandler.SubmitReset)
			forms.POST("/dialog", consentHandler.SubmitDialog)
		}

		// API v1 routes
		api := site.Group("/api/v1/cookie-consent")
		{
			api.GET("", consentHandler.GetConsent)
			api.DELETE("", consentHandler.DeleteConsent)
			api.POST("/accept-all", consentHandler.AcceptAll)
			api.POST("/reject-all", consentHandler.RejectAll)
			api.PATCH("/preferences", consentHandler.UpdatePreferences)
			api.POST("/dialog", consentHandler.RequestDialog)
			api.POST("/reset", consentHandler.ResetConsent)
			api.GET("/history", consentHandler.GetHistory)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		utils.SendNotFoundError(c, "No route for "+c.Request.Method+" "+c.Request.URL.Path)
	})

	return router, nil
}
