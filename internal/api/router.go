package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/secretkeeper/secretkeeper/internal/api/handler"
	"github.com/secretkeeper/secretkeeper/internal/api/middleware"
	"github.com/secretkeeper/secretkeeper/internal/core/ports"
	"github.com/secretkeeper/secretkeeper/internal/infrastructure/config"
)

// Deps carries everything NewRouter wires into the echo instance. Mongo,
// Redis, and Metrics are optional: leaving them nil skips the readiness
// checks and the /metrics endpoint (handler tests run without them).
type Deps struct {
	Cfg         *config.Config
	Credentials ports.CredentialService
	Federation  ports.FederationService
	Sessions    ports.SessionService
	Secrets     ports.SecretService
	Providers   []ports.IdentityProvider
	Mongo       *mongo.Database
	Redis       *redis.Client
	Metrics     prometheus.Registerer
	Log         zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Renderer = NewRenderer()
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(middleware.Session(d.Sessions))
	if d.Metrics != nil {
		e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
			Subsystem:  "http",
			Registerer: d.Metrics,
		}))
		// Serves the default gatherer, so the domain counters registered via
		// promauto land on the same endpoint as the HTTP metrics.
		e.GET("/metrics", echoprometheus.NewHandler())
	}

	// --- Dependencies ---
	secure := d.Cfg.Env == "production"
	pages := handler.NewPageHandler(d.Secrets)
	auth := handler.NewAuthHandler(d.Credentials, d.Sessions, d.Cfg.SessionTTL, secure, d.Log)
	oauth := handler.NewOAuthHandler(d.Federation, d.Sessions, d.Cfg.SessionTTL, secure, d.Log)
	secrets := handler.NewSecretHandler(d.Secrets, d.Log)

	// --- Pages ---
	e.GET("/", pages.Home)
	e.GET("/login", pages.LoginForm)
	e.GET("/register", pages.RegisterForm)
	e.GET("/submit", pages.SubmitForm, middleware.RequireSession())

	// GET /secrets ships unauthenticated to match the original flow; the
	// config flag closes what is very likely an authorization bug there.
	if d.Cfg.SecretsRequireLogin {
		e.GET("/secrets", pages.Secrets, middleware.RequireSession())
	} else {
		e.GET("/secrets", pages.Secrets)
	}

	// --- Local accounts ---
	e.POST("/register", auth.Register)
	e.POST("/login", auth.Login)
	e.GET("/logout", auth.Logout)

	// --- Federated login, one begin/callback pair per configured provider ---
	for _, p := range d.Providers {
		e.GET("/auth/"+p.Name(), oauth.Begin(p))
		e.GET("/auth/"+p.Name()+"/secrets", oauth.Callback(p))
	}

	// --- Secret submission ---
	e.POST("/submit", secrets.Submit)

	// --- Health probes ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(d.Mongo, d.Redis)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthDepsHandler.Readiness)

	return e
}
