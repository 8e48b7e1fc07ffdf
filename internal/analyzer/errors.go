package analyzer

import "fmt"

// ImageDecodeError means the input buffer is not a decodable raster image.
// It is fatal for both Assess and Validate.
type ImageDecodeError struct {
	Cause error
}

func (e *ImageDecodeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("image decode failed: %v", e.Cause)
	}
	return "image decode failed"
}

func (e *ImageDecodeError) Unwrap() error {
	return e.Cause
}

// RegionExtractionError is recoverable: the component substitutes defaults and
// records the message in its Error field.
type RegionExtractionError struct {
	Component string
	Region    string
	Reason    string
}

func (e *RegionExtractionError) Error() string {
	return fmt.Sprintf("%s: cannot extract %s region: %s", e.Component, e.Region, e.Reason)
}
