// Package server assembles the HTTP API: middleware chain, domain services
// and their routes.
package server

import (
	"net/http"

	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/23f2004399/hms-tool/internal/config"
	"github.com/23f2004399/hms-tool/internal/domain/assistant"
	"github.com/23f2004399/hms-tool/internal/domain/dashboard"
	"github.com/23f2004399/hms-tool/internal/domain/identity"
	"github.com/23f2004399/hms-tool/internal/domain/medication"
	"github.com/23f2004399/hms-tool/internal/domain/notification"
	"github.com/23f2004399/hms-tool/internal/domain/profile"
	"github.com/23f2004399/hms-tool/internal/domain/scheduling"
	"github.com/23f2004399/hms-tool/internal/domain/upload"
	"github.com/23f2004399/hms-tool/internal/platform/ai"
	"github.com/23f2004399/hms-tool/internal/platform/auth"
	"github.com/23f2004399/hms-tool/internal/platform/blobstore"
	"github.com/23f2004399/hms-tool/internal/platform/db"
	"github.com/23f2004399/hms-tool/internal/platform/middleware"
	"github.com/23f2004399/hms-tool/internal/platform/validate"
)

// Version is reported by /health.
const Version = "0.1.0"

// UploadPath is the only route accepting bodies up to MAX_UPLOAD_SIZE.
const UploadPath = "/prescription/upload"

// Deps are the long-lived collaborators created by the serve command.
type Deps struct {
	Config   *config.Config
	DB       *sqlx.DB
	Sessions *auth.SessionManager
	Blobs    blobstore.BlobStore
	AI       ai.Client
	Logger   zerolog.Logger
}

// New builds the echo instance with every route mounted.
func New(d Deps) *echo.Echo {
	cfg := d.Config
	logger := d.Logger

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validate.New()
	e.HTTPErrorHandler = middleware.ErrorHandler(logger)

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders:     []string{echo.HeaderAuthorization, echo.HeaderContentType, echo.HeaderXRequestID},
		AllowCredentials: true,
	}))
	e.Use(middleware.SecurityHeaders(cfg.CookieSecure))
	e.Use(middleware.RequestTimeout(cfg.RequestTimeout))
	e.Use(middleware.BodyLimit("1M", cfg.MaxUploadSize, UploadPath))

	rateLimit := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimit.RequestsPerSecond <= 0 {
		rateLimit = middleware.DefaultRateLimitConfig()
	}
	e.Use(middleware.RateLimit(rateLimit))

	cookie := auth.CookieConfig{Name: cfg.SessionCookieName, Secure: cfg.CookieSecure}
	e.Use(auth.SessionMiddleware(d.Sessions, cookie))

	// Health
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": Version,
		})
	})
	e.GET("/health/db", db.HealthHandler(d.DB, logger))

	// Repositories and services
	notificationSvc := notification.NewService(notification.NewSQLRepository(d.DB), logger)
	identityRepo := identity.NewSQLRepository(d.DB)
	identitySvc := identity.NewService(identityRepo, d.Sessions, notificationSvc, cfg.BcryptCost, logger)
	profileSvc := profile.NewService(profile.NewSQLRepository(d.DB), logger)
	uploadSvc := upload.NewService(upload.NewSQLRepository(d.DB), d.Blobs, d.AI, notificationSvc,
		middleware.ParseLimit(cfg.MaxUploadSize), logger)
	assistantSvc := assistant.NewService(d.AI, logger)
	dashboardSvc := dashboard.NewService(dashboard.NewSQLRepository(d.DB), identityRepo, uploadSvc, notificationSvc, logger)

	// Routes
	public := e.Group("")
	protected := e.Group("", auth.RequireSession())
	authLimit := middleware.RateLimit(middleware.PerMinute(cfg.AuthRateLimitPerMinute))

	identity.NewHandler(identitySvc, cookie).RegisterRoutes(public, protected, authLimit, middleware.ETag())
	profile.NewHandler(profileSvc).RegisterRoutes(protected)
	dashboard.NewHandler(dashboardSvc).RegisterRoutes(protected)
	assistant.NewHandler(assistantSvc).RegisterRoutes(protected)
	notification.NewHandler(notificationSvc).RegisterRoutes(protected)
	scheduling.NewHandler().RegisterRoutes(protected)
	medication.NewHandler().RegisterRoutes(protected)

	prescription := protected.Group("/prescription", auth.RequireRole(auth.RolePatient))
	upload.NewHandler(uploadSvc).RegisterRoutes(prescription)

	return e
}
