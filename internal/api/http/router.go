package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v2"
	"github.com/vadimbarashkov/shortly/internal/models"
	"github.com/vadimbarashkov/shortly/internal/service"
)

// URLService defines the interface for the core URL shortening business logic.
type URLService interface {
	// ShortenURL allocates a short code for the submitted URL and stores the mapping.
	// It returns the created URL details, or an error if the caller is over quota,
	// the submission is invalid or the operation fails.
	ShortenURL(ctx context.Context, params service.ShortenURLParams) (*models.URL, error)

	// ResolveShortCode retrieves the original URL for a given short code or custom
	// alias, recording the visit. It returns an error if the URL is not found.
	ResolveShortCode(ctx context.Context, code string) (*models.URL, error)

	// ListURLs retrieves the URLs owned by the given user, newest first.
	ListURLs(ctx context.Context, ownerID string) ([]*models.URL, error)

	// DeleteURL removes the URL with the given id if it belongs to the given user.
	// It returns an error if no such URL exists or if deletion fails.
	DeleteURL(ctx context.Context, id int64, ownerID string) error
}

// NewRouter initializes and returns a new HTTP router with all routes and middleware configured.
// The baseURL is used only to compose the displayed short links.
func NewRouter(logger *httplog.Logger, urlSvc URLService, baseURL string) http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*"},
		AllowedMethods:   []string{"POST", "GET", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Accept"},
		AllowCredentials: false,
		MaxAge:           84600,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httplog.RequestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/ping", handlePing)
		r.Post("/shorten", handleShortenURL(urlSvc, baseURL))

		r.Route("/urls", func(r chi.Router) {
			r.Get("/", handleListURLs(urlSvc, baseURL))
			r.Delete("/{id}", handleDeleteURL(urlSvc))
		})
	})

	r.Get("/{code}", handleRedirect(urlSvc))

	return r
}
