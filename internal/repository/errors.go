package repository

import "errors"

var (
	// ErrSourceNotSupported indicates no fetcher is registered for the source scheme
	ErrSourceNotSupported = errors.New("image source not supported")
)
