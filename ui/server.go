package ui

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"questkit/app"
	"questkit/internal"
)

// App is the HTTP driver surface for experiment loops that live outside this
// process: it moves intensities out and binary responses in, nothing else.
type App struct {
	router   *chi.Mux
	sessions *app.SessionService
	sweeps   *app.SweepService
	logger   *internal.Logger
}

// Config holds UI application configuration
type Config struct {
	Port string
}

// NewApp creates the HTTP application over the given services
func NewApp(sessions *app.SessionService, sweeps *app.SweepService, logger *internal.Logger) *App {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	a := &App{
		router:   chi.NewRouter(),
		sessions: sessions,
		sweeps:   sweeps,
		logger:   logger,
	}
	a.setupMiddleware()
	a.setupRoutes()
	return a
}

func (a *App) setupMiddleware() {
	a.router.Use(middleware.Logger)
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.Compress(5))
}

func (a *App) setupRoutes() {
	a.router.Get("/health", a.handleHealth)

	a.router.Route("/api/sessions", func(r chi.Router) {
		r.Post("/", a.handleCreateSession)
		r.Get("/", a.handleListSessions)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", a.handleGetSession)
			r.Get("/recommendation", a.handleRecommendation)
			r.Post("/responses", a.handleSubmitResponse)
			r.Get("/estimates", a.handleEstimates)
			r.Post("/finish", a.handleFinish)
			r.Post("/export", a.handleExport)
			r.Get("/report", a.handleReport)
		})
	})

	a.router.Post("/api/sweeps", a.handleRunSweep)
}

// Handler exposes the router for serving and for tests
func (a *App) Handler() http.Handler {
	return a.router
}

// Start runs the HTTP server on the configured port
func (a *App) Start(cfg Config) error {
	a.logger.Info("listening on :%s", cfg.Port)
	return http.ListenAndServe(":"+cfg.Port, a.router)
}
