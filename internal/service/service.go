package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/vadimbarashkov/shortly/internal/database"
	"github.com/vadimbarashkov/shortly/internal/models"
	"github.com/vadimbarashkov/shortly/internal/ratelimit"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// aliasRegexp defines the characters allowed in a custom alias. It matches
// the alphabet generated short codes are drawn from, so aliases and codes
// live in the same keyspace.
var aliasRegexp = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// URLRepository defines the interface for working with URLs at the business logic layer.
type URLRepository interface {
	// Create inserts a new shortened URL into the repository.
	// It fails with database.ErrShortCodeExists when the short code is taken.
	Create(ctx context.Context, shortCode, customAlias, originalURL, ownerID string) (*models.URL, error)

	// RegisterClick resolves a short code or custom alias to its URL while
	// atomically recording the visit. It fails with database.ErrURLNotFound
	// when no record matches.
	RegisterClick(ctx context.Context, code string) (*models.URL, error)

	// ListByOwner retrieves the URLs submitted by the given owner, newest first.
	ListByOwner(ctx context.Context, ownerID string) ([]*models.URL, error)

	// Delete removes a URL by id, scoped to its owner.
	// It fails with database.ErrURLNotFound when no record matches.
	Delete(ctx context.Context, id int64, ownerID string) error
}

// Limiter defines the request quota check consulted before every allocation.
type Limiter interface {
	// Allow registers one request for key and reports whether it is within limit.
	Allow(ctx context.Context, key string, limit int64) (*ratelimit.Result, error)
}

// Config carries the allocation policy knobs.
type Config struct {
	// CodeLength is the length of generated short codes.
	CodeLength int
	// AliasMinLength and AliasMaxLength bound accepted custom aliases, inclusive.
	AliasMinLength int
	AliasMaxLength int
	// AnonymousLimit and AuthenticatedLimit are requests per rate limit window.
	AnonymousLimit     int64
	AuthenticatedLimit int64
}

// ShortenURLParams represents a single shortening submission.
type ShortenURLParams struct {
	URL         string `validate:"required,url"`
	CustomAlias string
	UserID      string
	ClientIP    string
}

// URLService provides methods to manage URL shortening operations.
// The service uses a URLRepository interface to interact with the underlying
// database and a Limiter to enforce per-client request quotas.
type URLService struct {
	repo     URLRepository
	limiter  Limiter
	validate *validator.Validate
	cfg      Config
}

// NewURLService creates a new instance of URLService with the provided repository, limiter and policy.
func NewURLService(repo URLRepository, limiter Limiter, cfg Config) *URLService {
	return &URLService{
		repo:     repo,
		limiter:  limiter,
		validate: validator.New(),
		cfg:      cfg,
	}
}

// ShortenURL allocates a short code for the submitted URL and stores the mapping.
//
// The quota check runs first, so a submission that later fails validation has
// still consumed a unit of quota. When a custom alias is given it is validated
// and used verbatim; otherwise codes are generated until one is inserted
// without conflicting, relying on the storage uniqueness constraint as the
// authoritative collision signal.
func (s *URLService) ShortenURL(ctx context.Context, params ShortenURLParams) (*models.URL, error) {
	const op = "service.URLService.ShortenURL"
	const maxRetries = 5

	limit := s.cfg.AnonymousLimit
	if params.UserID != "" {
		limit = s.cfg.AuthenticatedLimit
	}

	res, err := s.limiter.Allow(ctx, ratelimit.Key(params.ClientIP, params.UserID), limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrRateLimiterUnavailable, err)
	}
	if !res.Allowed {
		retryAfter := res.Reset - time.Now().Unix()
		if retryAfter < 1 {
			retryAfter = 1
		}

		return nil, &RateLimitError{
			RetryAfter: retryAfter,
			Limit:      res.Limit,
			Reset:      res.Reset,
		}
	}

	if err := s.validate.Struct(params); err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidURL)
	}

	if params.CustomAlias != "" {
		url, err := s.shortenWithAlias(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		return url, nil
	}

	for i := 0; i < maxRetries; i++ {
		shortCode, err := gonanoid.New(s.cfg.CodeLength)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to generate short code: %w", op, err)
		}

		url, err := s.repo.Create(ctx, shortCode, "", params.URL, params.UserID)
		if err != nil {
			if errors.Is(err, database.ErrShortCodeExists) {
				continue
			}

			return nil, fmt.Errorf("%s: failed to shorten url: %w", op, err)
		}

		return url, nil
	}

	return nil, fmt.Errorf("%s: %w", op, ErrMaxRetriesExceeded)
}

func (s *URLService) shortenWithAlias(ctx context.Context, params ShortenURLParams) (*models.URL, error) {
	alias := params.CustomAlias

	if !aliasRegexp.MatchString(alias) {
		return nil, ErrInvalidAliasFormat
	}
	if len(alias) < s.cfg.AliasMinLength || len(alias) > s.cfg.AliasMaxLength {
		return nil, &AliasLengthError{Min: s.cfg.AliasMinLength, Max: s.cfg.AliasMaxLength}
	}

	url, err := s.repo.Create(ctx, alias, alias, params.URL, params.UserID)
	if err != nil {
		if errors.Is(err, database.ErrShortCodeExists) {
			return nil, ErrAliasTaken
		}

		return nil, fmt.Errorf("failed to reserve alias: %w", err)
	}

	return url, nil
}

// ResolveShortCode retrieves the original URL associated with the provided
// short code or custom alias, recording the visit. The lookup and the
// analytics update are a single atomic operation, so a redirect is only
// issued for a successfully recorded visit.
func (s *URLService) ResolveShortCode(ctx context.Context, code string) (*models.URL, error) {
	const op = "service.URLService.ResolveShortCode"

	url, err := s.repo.RegisterClick(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to resolve short code: %w", op, err)
	}

	return url, nil
}

// ListURLs retrieves the URLs owned by the given user, newest first.
func (s *URLService) ListURLs(ctx context.Context, ownerID string) ([]*models.URL, error) {
	const op = "service.URLService.ListURLs"

	urls, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to list urls: %w", op, err)
	}

	return urls, nil
}

// DeleteURL removes the URL with the given id if it belongs to the given user.
func (s *URLService) DeleteURL(ctx context.Context, id int64, ownerID string) error {
	const op = "service.URLService.DeleteURL"

	err := s.repo.Delete(ctx, id, ownerID)
	if err != nil {
		return fmt.Errorf("%s: failed to delete url: %w", op, err)
	}

	return nil
}
