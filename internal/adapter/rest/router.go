package rest

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/jrybusiness/stylerental-backend/internal/adapter/rest/middleware"
	"github.com/jrybusiness/stylerental-backend/internal/listing/domain"
	"github.com/jrybusiness/stylerental-backend/internal/platform/logger"
	"github.com/jrybusiness/stylerental-backend/internal/platform/metrics"
)

type RouterDeps struct {
	Listings  *ListingHandler
	Accounts  *AccountHandler
	Favorites *FavoriteHandler
	Tokens    middleware.TokenParser
	Metrics   *metrics.MetricsManager
	Logger    *logger.Logger
	// AuthRateLimit caps register and login calls per client IP per minute. Zero disables it.
	AuthRateLimit int
}

func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer(d.Logger))
	r.Use(middleware.Logger(d.Logger.Named("http"), d.Metrics))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "resource not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if d.AuthRateLimit > 0 {
				r.Use(httprate.LimitByIP(d.AuthRateLimit, time.Minute))
			}
			r.Post("/register", d.Accounts.Register)
			r.Post("/login", d.Accounts.Login)
		})

		r.Get("/occasions", options(domain.Occasions))
		r.Get("/genders", options(domain.Genders))
		r.Get("/clothes", d.Listings.Search)
		r.Get("/clothes/{id}", d.Listings.Get)

		r.Group(func(r chi.Router) {
			r.Use(middleware.JWTAuth(d.Tokens, d.Logger))

			r.Post("/clothes", d.Listings.Create)
			r.Put("/clothes/{id}", d.Listings.Update)
			r.Delete("/clothes/{id}", d.Listings.Delete)
			r.Get("/clothes/{id}/images/audit", d.Listings.AuditImages)

			r.Post("/clothes/{id}/favorite", d.Favorites.Add)
			r.Delete("/clothes/{id}/favorite", d.Favorites.Remove)
			r.Get("/favorites", d.Favorites.List)
		})
	})
	return r
}

func options(values []string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, values)
	}
}
