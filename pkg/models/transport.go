package models

// AssessSourceRequest asks the service to fetch and assess a stored image.
// Source is an http(s) URL, azure://container/blob or minio://key.
type AssessSourceRequest struct {
	Source string `json:"source" binding:"required"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// AssessmentResponse wraps an assessment with request bookkeeping
type AssessmentResponse struct {
	RequestID  string      `json:"request_id"`
	Cached     bool        `json:"cached"`
	Assessment *Assessment `json:"assessment"`
}

// ValidationResponse wraps a validation result with request bookkeeping
type ValidationResponse struct {
	RequestID string            `json:"request_id"`
	Result    *ValidationResult `json:"result"`
}
