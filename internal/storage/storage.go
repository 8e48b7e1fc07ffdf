package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// ImageFetcher retrieves the raw bytes of an image source reference
type ImageFetcher interface {
	FetchImage(ctx context.Context, source string) ([]byte, error)
}

// ErrNotFound is returned when the referenced object does not exist
var ErrNotFound = errors.New("image not found")

// ErrTooLarge is returned when the source exceeds the fetch size limit
var ErrTooLarge = errors.New("image exceeds size limit")

// DefaultMaxImageBytes caps a single fetch
const DefaultMaxImageBytes = 20 * 1024 * 1024

// readLimited reads at most maxBytes from r
func readLimited(r io.Reader, maxBytes int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("%w (%d bytes)", ErrTooLarge, maxBytes)
	}
	return data, nil
}
