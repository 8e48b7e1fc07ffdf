package validation

import (
	"fmt"
	"math"
	"strings"
)

// Issue severities
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// UploadRules defines the limits applied by the upload pre-check
type UploadRules struct {
	MaxFileSizeBytes int64
	AcceptedFormats  []string

	// Resolution thresholds
	MinWidth          int
	MinHeight         int
	RecommendedWidth  int
	RecommendedHeight int

	// Maximum allowed |aspect_ratio - 1| before a warning is raised
	MaxAspectDeviation float64
}

// DefaultUploadRules returns the default headshot upload rules
func DefaultUploadRules() UploadRules {
	return UploadRules{
		MaxFileSizeBytes:   15 * 1024 * 1024,
		AcceptedFormats:    []string{"jpeg", "jpg", "png", "webp"},
		MinWidth:           400,
		MinHeight:          400,
		RecommendedWidth:   1024,
		RecommendedHeight:  1024,
		MaxAspectDeviation: 0.3,
	}
}

// QualityValidator applies UploadRules to a decoded upload
type QualityValidator struct {
	rules UploadRules
}

// NewQualityValidator creates a quality validator for the given rules
func NewQualityValidator(rules UploadRules) *QualityValidator {
	return &QualityValidator{
		rules: rules,
	}
}

// QualityIssue represents a quality validation issue
type QualityIssue struct {
	Type        string  `json:"type"`
	Message     string  `json:"message"`
	Severity    string  `json:"severity"` // "error", "warning"
	ActualValue float64 `json:"actual_value,omitempty"`
	Threshold   float64 `json:"threshold,omitempty"`
}

// UploadInfo is what the pre-check needs to know about an upload
type UploadInfo struct {
	SizeBytes int64
	Format    string
	Width     int
	Height    int
}

// ValidateUpload checks size, format, minimum resolution (errors) and
// recommended resolution and aspect ratio (warnings)
func (qv *QualityValidator) ValidateUpload(info UploadInfo) []QualityIssue {
	var issues []QualityIssue

	// 1. File size
	if info.SizeBytes > qv.rules.MaxFileSizeBytes {
		issues = append(issues, QualityIssue{
			Type: "file_size",
			Message: fmt.Sprintf("File size %.1fMB exceeds the %.0fMB limit",
				float64(info.SizeBytes)/(1024*1024), float64(qv.rules.MaxFileSizeBytes)/(1024*1024)),
			Severity:    SeverityError,
			ActualValue: float64(info.SizeBytes),
			Threshold:   float64(qv.rules.MaxFileSizeBytes),
		})
	}

	// 2. Format
	if !qv.isFormatAccepted(info.Format) {
		issues = append(issues, QualityIssue{
			Type: "format",
			Message: fmt.Sprintf("Format %q is not supported. Use one of: %s",
				info.Format, strings.Join(qv.rules.AcceptedFormats, ", ")),
			Severity: SeverityError,
		})
	}

	// 3. Resolution
	if info.Width < qv.rules.MinWidth || info.Height < qv.rules.MinHeight {
		issues = append(issues, QualityIssue{
			Type: "low_resolution",
			Message: fmt.Sprintf("Resolution %dx%d is below the minimum %dx%d",
				info.Width, info.Height, qv.rules.MinWidth, qv.rules.MinHeight),
			Severity:    SeverityError,
			ActualValue: float64(info.Width * info.Height),
			Threshold:   float64(qv.rules.MinWidth * qv.rules.MinHeight),
		})
	} else if info.Width < qv.rules.RecommendedWidth || info.Height < qv.rules.RecommendedHeight {
		issues = append(issues, QualityIssue{
			Type: "below_recommended_resolution",
			Message: fmt.Sprintf("Resolution %dx%d is below the recommended %dx%d",
				info.Width, info.Height, qv.rules.RecommendedWidth, qv.rules.RecommendedHeight),
			Severity:    SeverityWarning,
			ActualValue: float64(info.Width * info.Height),
			Threshold:   float64(qv.rules.RecommendedWidth * qv.rules.RecommendedHeight),
		})
	}

	// 4. Aspect ratio
	if info.Height > 0 {
		deviation := math.Abs(float64(info.Width)/float64(info.Height) - 1)
		if deviation > qv.rules.MaxAspectDeviation {
			issues = append(issues, QualityIssue{
				Type:        "aspect_ratio",
				Message:     fmt.Sprintf("Aspect ratio is far from square (deviation %.2f); crop closer to the face", deviation),
				Severity:    SeverityWarning,
				ActualValue: deviation,
				Threshold:   qv.rules.MaxAspectDeviation,
			})
		}
	}

	return issues
}

// isFormatAccepted compares format names case-insensitively
func (qv *QualityValidator) isFormatAccepted(format string) bool {
	format = strings.ToLower(format)
	for _, accepted := range qv.rules.AcceptedFormats {
		if format == strings.ToLower(accepted) {
			return true
		}
	}
	return false
}

// SplitIssues separates issues into error and warning messages
func (qv *QualityValidator) SplitIssues(issues []QualityIssue) (errors, warnings []string) {
	errors, warnings = []string{}, []string{}
	for _, issue := range issues {
		if issue.Severity == SeverityError {
			errors = append(errors, issue.Message)
		} else {
			warnings = append(warnings, issue.Message)
		}
	}
	return errors, warnings
}

// HasCriticalIssues checks if there are any critical (error severity) issues
func (qv *QualityValidator) HasCriticalIssues(issues []QualityIssue) bool {
	for _, issue := range issues {
		if issue.Severity == SeverityError {
			return true
		}
	}
	return false
}
