package http

import (
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/render"
	"github.com/vadimbarashkov/shortly/internal/database"
	"github.com/vadimbarashkov/shortly/internal/models"
	"github.com/vadimbarashkov/shortly/internal/service"
	"github.com/vadimbarashkov/shortly/pkg/response"
)

// handlePing handles health check requests to ensure the server is running.
func handlePing(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "pong")
}

// shortenRequest represents the request payload for creating a shortened URL.
// The user_id field is an opaque identity reference issued by the external
// identity provider; the url value itself is validated at the service layer.
type shortenRequest struct {
	URL         string `json:"url"`
	CustomAlias string `json:"custom_alias"`
	UserID      string `json:"user_id"`
}

// shortenResponse represents the response payload for a successful shortening.
type shortenResponse struct {
	Code     string `json:"code"`
	ShortURL string `json:"short_url"`
}

// urlResponse represents one shortened URL in the management API.
type urlResponse struct {
	ID           int64      `json:"id"`
	ShortCode    string     `json:"short_code"`
	CustomAlias  string     `json:"custom_alias,omitempty"`
	URL          string     `json:"url"`
	ShortURL     string     `json:"short_url"`
	ClickCount   int64      `json:"click_count"`
	LastAccessed *time.Time `json:"last_accessed,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// urlListResponse represents the response payload for listing a user's URLs.
type urlListResponse struct {
	URLs []urlResponse `json:"urls"`
}

func shortURL(baseURL, code string) string {
	return strings.TrimSuffix(baseURL, "/") + "/" + code
}

// toURLResponse converts a URL model from the business layer into a response payload.
func toURLResponse(url *models.URL, baseURL string) urlResponse {
	resp := urlResponse{
		ID:          url.ID,
		ShortCode:   url.ShortCode,
		CustomAlias: url.CustomAlias,
		URL:         url.OriginalURL,
		ShortURL:    shortURL(baseURL, url.ShortCode),
		ClickCount:  url.ClickCount,
		CreatedAt:   url.CreatedAt,
	}

	if !url.LastAccessed.IsZero() {
		la := url.LastAccessed
		resp.LastAccessed = &la
	}

	return resp
}

// clientIP derives the client identity from the request address. The RealIP
// middleware has already folded X-Forwarded-For into RemoteAddr.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// handleShortenURL handles POST requests to shorten a URL.
//
// The handler enforces the per-client quota, validates the input and either
// reserves the submitted custom alias or generates a fresh short code. Every
// submission consumes a unit of quota, including ones rejected as invalid.
func handleShortenURL(svc URLService, baseURL string) http.HandlerFunc {
	const op = "api.http.handleShortenURL"

	return func(w http.ResponseWriter, r *http.Request) {
		var req shortenRequest

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			if errors.Is(err, io.EOF) {
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.Error(response.MsgEmptyRequestBody))
				return
			}

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error(response.MsgInvalidRequestBody))
			return
		}

		url, err := svc.ShortenURL(r.Context(), service.ShortenURLParams{
			URL:         req.URL,
			CustomAlias: req.CustomAlias,
			UserID:      req.UserID,
			ClientIP:    clientIP(r),
		})
		if err != nil {
			var (
				rlErr *service.RateLimitError
				alErr *service.AliasLengthError
			)

			switch {
			case errors.As(err, &rlErr):
				w.Header().Set("Retry-After", strconv.FormatInt(rlErr.RetryAfter, 10))
				w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(rlErr.Limit, 10))
				w.Header().Set("X-RateLimit-Remaining", "0")
				w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(rlErr.Reset, 10))

				render.Status(r, http.StatusTooManyRequests)
				render.JSON(w, r, response.RateLimitExceeded(rlErr.RetryAfter))
			case errors.Is(err, service.ErrInvalidURL):
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.Error(response.MsgInvalidURL))
			case errors.Is(err, service.ErrInvalidAliasFormat):
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.Error(response.MsgInvalidAliasFormat))
			case errors.As(err, &alErr):
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.InvalidAliasLength(alErr.Min, alErr.Max))
			case errors.Is(err, service.ErrAliasTaken):
				render.Status(r, http.StatusConflict)
				render.JSON(w, r, response.Error(response.MsgAliasTaken))
			case errors.Is(err, service.ErrRateLimiterUnavailable):
				httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.Error(response.MsgServerError))
			default:
				httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.Error(response.MsgFailedToSaveURL))
			}

			return
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, shortenResponse{
			Code:     url.ShortCode,
			ShortURL: shortURL(baseURL, url.ShortCode),
		})
	}
}

// handleRedirect handles GET requests on short links.
//
// The visit is recorded before redirecting; a visit that cannot be recorded is
// not redirected. Unknown codes return a JSON 404 body.
func handleRedirect(svc URLService) http.HandlerFunc {
	const op = "api.http.handleRedirect"

	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")

		url, err := svc.ResolveShortCode(r.Context(), code)
		if err != nil {
			if errors.Is(err, database.ErrURLNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, response.Error(response.MsgShortURLNotFound))
				return
			}

			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error(response.MsgServerError))
			return
		}

		http.Redirect(w, r, url.OriginalURL, http.StatusFound)
	}
}

// handleListURLs handles GET requests to list the URLs owned by a user.
func handleListURLs(svc URLService, baseURL string) http.HandlerFunc {
	const op = "api.http.handleListURLs"

	return func(w http.ResponseWriter, r *http.Request) {
		ownerID := r.URL.Query().Get("user_id")
		if ownerID == "" {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error(response.MsgMissingUserID))
			return
		}

		urls, err := svc.ListURLs(r.Context(), ownerID)
		if err != nil {
			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error(response.MsgServerError))
			return
		}

		resp := urlListResponse{URLs: make([]urlResponse, 0, len(urls))}
		for _, url := range urls {
			resp.URLs = append(resp.URLs, toURLResponse(url, baseURL))
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, resp)
	}
}

// handleDeleteURL handles DELETE requests to remove a user's URL.
func handleDeleteURL(svc URLService) http.HandlerFunc {
	const op = "api.http.handleDeleteURL"
	const successMsg = "The URL was successfully deleted."

	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error(response.MsgInvalidURLID))
			return
		}

		ownerID := r.URL.Query().Get("user_id")
		if ownerID == "" {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error(response.MsgMissingUserID))
			return
		}

		if err := svc.DeleteURL(r.Context(), id, ownerID); err != nil {
			if errors.Is(err, database.ErrURLNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, response.Error(response.MsgShortURLNotFound))
				return
			}

			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error(response.MsgServerError))
			return
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, response.Message(successMsg))
	}
}
