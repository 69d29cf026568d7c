package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/TeerapatAnanpaisansin/shorten-link-generator/internal/grist"
	"github.com/TeerapatAnanpaisansin/shorten-link-generator/internal/models"
)

// LinkStore defines the record store operations the shortener needs. The
// store offers no atomic check-and-insert; see Shorten for how that is
// handled.
type LinkStore interface {
	// FindByShortID retrieves a short link by its short id.
	// Returns grist.ErrNotFound if no record matches.
	FindByShortID(ctx context.Context, shortID string) (*models.ShortLink, error)

	// FindByLongURL retrieves a short link by its normalized long URL.
	// Returns grist.ErrNotFound if no record matches.
	FindByLongURL(ctx context.Context, longURL string) (*models.ShortLink, error)

	// ShortIDExists reports whether a short id is already taken.
	ShortIDExists(ctx context.Context, shortID string) (bool, error)

	// CreateShortLink inserts a new record with a zero click count.
	CreateShortLink(ctx context.Context, shortID, longURL string, createdBy int64) (*models.ShortLink, error)

	// IncrementClicks writes currentClicks+1 back to the record.
	IncrementClicks(ctx context.Context, rowID, currentClicks int64) error
}

// Shortener implements the shortening and redirect workflows on top of a
// LinkStore.
type Shortener struct {
	store  LinkStore
	logger *slog.Logger
}

func NewShortener(store LinkStore, logger *slog.Logger) *Shortener {
	return &Shortener{
		store:  store,
		logger: logger,
	}
}

// Shorten returns the short link for rawURL, minting a new one if no record
// exists for the normalized form. Repeated calls with URLs that normalize
// identically converge to the same short id.
//
// Two concurrent calls racing on the same new URL can both pass the
// existence checks and both insert; the store cannot prevent that. Both
// resulting short ids still resolve correctly, so the duplicate row is
// tolerated rather than guarded against.
func (s *Shortener) Shorten(ctx context.Context, rawURL string, createdBy int64) (*models.ShortLink, error) {
	const op = "service.Shortener.Shorten"

	normalized, err := NormalizeURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	existing, err := s.store.FindByLongURL(ctx, normalized)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, grist.ErrNotFound) {
		return nil, fmt.Errorf("%s: failed to look up long url: %w", op, err)
	}

	shortID, err := s.mintShortID(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	link, err := s.store.CreateShortLink(ctx, shortID, normalized, createdBy)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create short link: %w", op, err)
	}

	return link, nil
}

// mintShortID tries maxAttempts candidates at the primary length, then one
// at the fallback length. Exhaustion means the alphabet is too small for the
// current cardinality and is an internal error, not a reason to loop.
func (s *Shortener) mintShortID(ctx context.Context) (string, error) {
	const op = "service.Shortener.mintShortID"
	const maxAttempts = 5

	for i := 0; i < maxAttempts; i++ {
		candidate, err := newShortID(shortIDLength)
		if err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}

		taken, err := s.store.ShortIDExists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("%s: failed to check short id: %w", op, err)
		}
		if !taken {
			return candidate, nil
		}
	}

	candidate, err := newShortID(shortIDFallbackLength)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	taken, err := s.store.ShortIDExists(ctx, candidate)
	if err != nil {
		return "", fmt.Errorf("%s: failed to check short id: %w", op, err)
	}
	if taken {
		return "", fmt.Errorf("%s: %w", op, ErrShortIDExhausted)
	}

	return candidate, nil
}

// Resolve looks a short link up for redirecting and records the visit.
// The click increment is best-effort: a failure is logged and swallowed,
// never surfaced to the visitor.
func (s *Shortener) Resolve(ctx context.Context, shortID string) (*models.ShortLink, error) {
	const op = "service.Shortener.Resolve"

	link, err := s.store.FindByShortID(ctx, shortID)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to resolve short id: %w", op, err)
	}

	if err := s.store.IncrementClicks(ctx, link.RowID, link.Clicks); err != nil {
		s.logger.Error("failed to increment clicks",
			slog.String("short_id", shortID),
			slog.Any("err", err),
		)
	} else {
		link.Clicks++
	}

	return link, nil
}
