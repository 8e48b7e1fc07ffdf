package storage

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinIOFetcher implements ImageFetcher for minio://key sources within one bucket
type MinIOFetcher struct {
	client   *minio.Client
	bucket   string
	maxBytes int64
}

func NewMinIOFetcher(endpoint, accessKey, secretKey, bucket string, useSSL bool, maxBytes int64) (*MinIOFetcher, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	if maxBytes <= 0 {
		maxBytes = DefaultMaxImageBytes
	}
	return &MinIOFetcher{
		client:   client,
		bucket:   bucket,
		maxBytes: maxBytes,
	}, nil
}

func (s *MinIOFetcher) FetchImage(ctx context.Context, source string) ([]byte, error) {
	key, err := minioKey(source)
	if err != nil {
		return nil, err
	}

	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object %s: %w", key, err)
	}
	defer obj.Close()

	if _, err := obj.Stat(); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, fmt.Errorf("stat object %s: %w", key, err)
	}

	data, err := readLimited(obj, s.maxBytes)
	if err != nil {
		return nil, fmt.Errorf("object %s: %w", key, err)
	}
	return data, nil
}

// minioKey returns the object key of minio://path/to/key
func minioKey(source string) (string, error) {
	u, err := url.Parse(source)
	if err != nil {
		return "", fmt.Errorf("invalid object URL: %w", err)
	}
	key := strings.Trim(u.Host+u.Path, "/")
	if u.Scheme != "minio" || key == "" {
		return "", fmt.Errorf("invalid object URL %q: want minio://key", source)
	}
	return key, nil
}
