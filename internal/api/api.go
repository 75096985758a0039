// Package api implements the VoltVault HTTP surface: auth, vault sync and
// mutations, folder CRUD, and the password generator tool.
package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"voltvault/internal/bus"
	"voltvault/internal/store"
)

const (
	defaultAccessTokenTTL  = 168 * time.Hour
	defaultRefreshTokenTTL = 168 * time.Hour
)

// Config controls runtime behaviour for the API handlers.
type Config struct {
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	AllowedOrigins  []string
	RateLimitRPM    int
	DemoMode        bool
}

// API wires storage, the event bus, and configuration for the HTTP handlers.
type API struct {
	store  store.Store
	bus    *bus.Bus
	config Config
	log    zerolog.Logger
}

// New initialises the API layer with sane defaults applied to the provided
// configuration. The bus may be nil; events are then dropped.
func New(st store.Store, b *bus.Bus, cfg Config, log zerolog.Logger) (*API, error) {
	if st == nil {
		return nil, errors.New("store is required")
	}

	if cfg.AccessTokenTTL <= 0 {
		cfg.AccessTokenTTL = defaultAccessTokenTTL
	}
	if cfg.RefreshTokenTTL <= 0 {
		cfg.RefreshTokenTTL = defaultRefreshTokenTTL
	}
	if cfg.RateLimitRPM <= 0 {
		cfg.RateLimitRPM = 300
	}

	return &API{
		store:  st,
		bus:    b,
		config: cfg,
		log:    log,
	}, nil
}

// Routes constructs the chi router containing all endpoints.
func (a *API) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(httprate.LimitByIP(a.config.RateLimitRPM, time.Minute))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   a.config.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", a.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", a.handleRegister)
			r.Post("/login", a.handleLogin)
			r.Post("/logout", a.handleLogout)
			r.Post("/refresh", a.handleRefresh)
		})

		r.Route("/vault", func(r chi.Router) {
			r.Use(a.requireAuth)
			r.Get("/sync", a.handleSync)
			r.Post("/items", a.handleCreateItem)
			r.Put("/items/{id}", a.handleUpdateItem)
			r.Delete("/items/{id}", a.handleDeleteItem)
			r.Get("/folders", a.handleListFolders)
			r.Post("/folders", a.handleCreateFolder)
			r.Put("/folders/{id}", a.handleRenameFolder)
			r.Delete("/folders/{id}", a.handleDeleteFolder)
		})

		r.Post("/tools/password/generate", a.handleGeneratePassword)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusNotFound, codeNotFound, "Route not found", nil)
	})

	return r
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondData(w, http.StatusOK, map[string]any{"status": "ok"}, "")
}
