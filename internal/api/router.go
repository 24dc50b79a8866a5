package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/jonuar/Donacrypto/internal/api/handler"
	"github.com/jonuar/Donacrypto/internal/api/middleware"
	"github.com/jonuar/Donacrypto/internal/core/domain"
	"github.com/jonuar/Donacrypto/internal/core/ports"
	"github.com/jonuar/Donacrypto/internal/pkg/validation"
)

// Session is the session service as the gateway sees it.
type Session interface {
	ports.SessionService
	Role() string
	CurrentUser() *domain.User
}

// Deps are the services and probes the gateway serves.
type Deps struct {
	Session            Session
	Dashboard          ports.DashboardService
	Ready              map[string]handler.Pinger
	RequiredCurrencies []string
	Log                zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validation.New()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// Each router gets its own registry so that building several in one
	// process does not panic on duplicate registration.
	reg := prometheus.NewRegistry()

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "donacrypto",
		Subsystem:  "gateway",
		Registerer: reg,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}))

	// --- Health probes and metrics (no session required) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(deps.Ready)

	e.GET("/health", healthHandler.Liveness)           // liveness  – is the process alive?
	e.GET("/health/ready", readinessHandler.Readiness) // readiness – are the stores up?
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{
		Gatherer: prometheus.Gatherers{prometheus.DefaultGatherer, reg},
	}))

	// --- Session routes ---
	sessionHandler := handler.NewSessionHandler(deps.Session)
	requireSession := middleware.RequireSession(deps.Session, func() string {
		if u := deps.Session.CurrentUser(); u != nil {
			return u.Username
		}
		return ""
	})

	e.GET("/session", sessionHandler.Get)
	e.POST("/session/login", sessionHandler.Login)
	e.POST("/session/register", sessionHandler.Register)
	e.POST("/session/logout", sessionHandler.Logout)
	e.DELETE("/session/account", sessionHandler.DeleteAccount, requireSession)

	// --- Creator dashboard ---
	dashboardHandler := handler.NewDashboardHandler(deps.Dashboard, deps.RequiredCurrencies)
	dash := e.Group("/dashboard", requireSession, middleware.RBAC(domain.RoleCreator))

	dash.POST("/init", dashboardHandler.Initialize)
	dash.GET("", dashboardHandler.Get)
	dash.GET("/statistics", dashboardHandler.Statistics)

	dash.GET("/wallets", dashboardHandler.ListWallets)
	dash.POST("/wallets", dashboardHandler.AddWallet)
	dash.PUT("/wallets/:currency", dashboardHandler.UpdateWallet)
	dash.DELETE("/wallets/:currency", dashboardHandler.DeleteWallet)
	dash.PUT("/wallets/:currency/default", dashboardHandler.SetDefaultWallet)

	dash.GET("/followers", dashboardHandler.Followers)
	dash.GET("/posts", dashboardHandler.Posts)
	dash.POST("/posts", dashboardHandler.CreatePost)
	dash.DELETE("/posts/:id", dashboardHandler.DeletePost)

	dash.PUT("/profile", dashboardHandler.UpdateProfile)
	dash.DELETE("/form-errors", dashboardHandler.ClearFormErrors)

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
			ev := log.Info()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
