package validation

import (
	"net/url"
	"strings"

	apperrors "github.com/anime-shed/photo-suitability/internal/errors"
)

// Source schemes understood by the image repository
const (
	SchemeHTTP  = "http"
	SchemeHTTPS = "https"
	SchemeAzure = "azure"
	SchemeMinio = "minio"
)

// URLValidator handles image source reference validation
type URLValidator struct {
	allowedSchemes []string
	allowedHosts   []string
}

// NewURLValidator creates a new URL validator with default settings
func NewURLValidator() *URLValidator {
	return &URLValidator{
		allowedSchemes: []string{SchemeHTTP, SchemeHTTPS, SchemeAzure, SchemeMinio},
		allowedHosts:   []string{}, // empty means all hosts allowed
	}
}

// NewURLValidatorWithOptions creates a URL validator with custom options.
// Host restrictions only apply to http and https sources.
func NewURLValidatorWithOptions(schemes []string, hosts []string) *URLValidator {
	return &URLValidator{
		allowedSchemes: schemes,
		allowedHosts:   hosts,
	}
}

// ValidateSource validates an image source reference: an http(s) URL,
// azure://container/blob or minio://key
func (v *URLValidator) ValidateSource(source string) (*url.URL, error) {
	if strings.TrimSpace(source) == "" {
		return nil, apperrors.NewValidationError("URL cannot be empty", nil)
	}

	parsedURL, err := url.Parse(source)
	if err != nil {
		return nil, apperrors.NewValidationError("Invalid URL format", err)
	}

	if !v.isSchemeAllowed(parsedURL.Scheme) {
		return nil, apperrors.NewValidationError("URL scheme not allowed", nil)
	}

	if parsedURL.Host == "" {
		return nil, apperrors.NewValidationError("URL must have a valid host", nil)
	}

	switch parsedURL.Scheme {
	case SchemeAzure:
		if strings.Trim(parsedURL.Path, "/") == "" {
			return nil, apperrors.NewValidationError("Azure source must name a container and a blob", nil)
		}
	case SchemeHTTP, SchemeHTTPS:
		if len(v.allowedHosts) > 0 && !v.isHostAllowed(parsedURL.Host) {
			return nil, apperrors.NewValidationError("URL host not allowed", nil)
		}
	}

	return parsedURL, nil
}

// isSchemeAllowed checks if the URL scheme is in the allowed list
func (v *URLValidator) isSchemeAllowed(scheme string) bool {
	for _, allowed := range v.allowedSchemes {
		if scheme == allowed {
			return true
		}
	}
	return false
}

// isHostAllowed checks if the URL host is in the allowed list
// Returns true if no host restrictions are set (empty allowedHosts)
func (v *URLValidator) isHostAllowed(host string) bool {
	if len(v.allowedHosts) == 0 {
		return true
	}
	for _, allowed := range v.allowedHosts {
		if host == allowed {
			return true
		}
	}
	return false
}
