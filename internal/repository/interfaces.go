package repository

import (
	"context"
)

// ImageRepository resolves image source references to raw bytes
type ImageRepository interface {
	// FetchImage retrieves the bytes behind an http(s), azure:// or minio:// reference
	FetchImage(ctx context.Context, source string) ([]byte, error)

	// ValidateSource validates if the provided reference is acceptable
	ValidateSource(source string) error
}
