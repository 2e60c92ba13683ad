package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/darkr4m/5StarK9/docs"
	"github.com/darkr4m/5StarK9/internal/api/handler"
	"github.com/darkr4m/5StarK9/internal/api/middleware"
	"github.com/darkr4m/5StarK9/internal/core/domain"
	"github.com/darkr4m/5StarK9/internal/core/ports"
)

// Deps holds everything the router wires into handlers.
type Deps struct {
	Accounts       ports.AccountService
	Clients        ports.ClientService
	Health         map[string]handler.Check
	Log            zerolog.Logger
	SwaggerEnabled bool
	// Registry receives the HTTP request metrics. Nil means the default
	// Prometheus registry.
	Registry *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
// Paths are matched with or without a trailing slash.
func NewRouter(deps Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Pre(echomiddleware.RemoveTrailingSlash())
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(promConfig(deps.Registry)))

	auth := middleware.Auth(deps.Accounts)

	// --- Account routes ---
	accounts := handler.NewAccountHandler(deps.Accounts)
	e.POST("/register", accounts.Register, middleware.OptionalAuth(deps.Accounts))
	e.POST("/auth/login", accounts.Login)
	e.POST("/auth/logout", accounts.Logout, auth)
	e.POST("/auth/admin", accounts.CreateAdmin, middleware.OptionalAuth(deps.Accounts))
	e.GET("/", accounts.Me, auth)
	e.GET("/users", accounts.ListUsers, auth, middleware.RBAC(domain.RoleAdmin))

	// --- Client profiles (staff only) ---
	clients := handler.NewClientHandler(deps.Clients)
	cg := e.Group("/clients", auth, middleware.RequireStaff())
	cg.POST("", clients.Create)
	cg.GET("", clients.List)
	cg.GET("/:id", clients.Get)
	cg.PATCH("/:id", clients.Update)
	cg.DELETE("/:id", clients.Deactivate)

	// --- Health probes (no auth required) ---
	health := handler.NewHealthHandler(deps.Health, deps.Log)
	e.GET("/health", health.Liveness)
	e.GET("/health/ready", health.Readiness)

	e.GET("/metrics", promHandler(deps.Registry))
	if deps.SwaggerEnabled {
		e.GET("/swagger/*", echoSwagger.WrapHandler)
	}

	return e
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			evt := log.Info()
			if v.Error != nil {
				evt = log.Warn().Err(v.Error)
			}
			evt.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}

func promConfig(reg *prometheus.Registry) echoprometheus.MiddlewareConfig {
	cfg := echoprometheus.MiddlewareConfig{
		Subsystem: "accounts",
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}
	if reg != nil {
		cfg.Registerer = reg
	}
	return cfg
}

func promHandler(reg *prometheus.Registry) echo.HandlerFunc {
	if reg == nil {
		return echoprometheus.NewHandler()
	}
	return echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: reg})
}
