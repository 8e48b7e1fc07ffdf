package repository

import (
	"context"
	"fmt"

	"github.com/anime-shed/photo-suitability/internal/storage"
	"github.com/anime-shed/photo-suitability/pkg/validation"
)

// SourceRepository dispatches fetches to the fetcher registered for the source scheme
type SourceRepository struct {
	validator *validation.URLValidator
	fetchers  map[string]storage.ImageFetcher
}

// NewSourceRepository creates a repository; fetchers maps URL schemes to fetchers
func NewSourceRepository(validator *validation.URLValidator, fetchers map[string]storage.ImageFetcher) *SourceRepository {
	if validator == nil {
		validator = validation.NewURLValidator()
	}
	registered := make(map[string]storage.ImageFetcher, len(fetchers))
	for scheme, f := range fetchers {
		if f != nil {
			registered[scheme] = f
		}
	}
	return &SourceRepository{
		validator: validator,
		fetchers:  registered,
	}
}

// FetchImage validates the reference and fetches its bytes
func (r *SourceRepository) FetchImage(ctx context.Context, source string) ([]byte, error) {
	u, err := r.validator.ValidateSource(source)
	if err != nil {
		return nil, err
	}
	fetcher, ok := r.fetchers[u.Scheme]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSourceNotSupported, u.Scheme)
	}
	return fetcher.FetchImage(ctx, source)
}

// ValidateSource checks the reference and that a fetcher is registered for it
func (r *SourceRepository) ValidateSource(source string) error {
	u, err := r.validator.ValidateSource(source)
	if err != nil {
		return err
	}
	if _, ok := r.fetchers[u.Scheme]; !ok {
		return fmt.Errorf("%w: %s", ErrSourceNotSupported, u.Scheme)
	}
	return nil
}
