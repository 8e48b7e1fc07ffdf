package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/anime-shed/photo-suitability/internal/analyzer"
	"github.com/anime-shed/photo-suitability/internal/config"
	apperrors "github.com/anime-shed/photo-suitability/internal/errors"
	"github.com/anime-shed/photo-suitability/internal/logger"
	"github.com/anime-shed/photo-suitability/internal/service"
	"github.com/anime-shed/photo-suitability/pkg/models"
)

// imageField is the multipart form field carrying the upload
const imageField = "image"

func NewHandler(svc service.AssessmentService, cfg *config.Config) http.Handler {
	r := gin.New()

	r.Use(
		gin.Recovery(),
		cors.Default(),
		requestID(),
		requestLogger(),
		requestMetrics(),
		requestSizeLimiter(cfg.MaxRequestBodySize),
		errorHandler(),
	)

	r.GET("/health", healthCheck(svc))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/v1")
	v1.POST("/validate", validateImage(svc, cfg))
	v1.POST("/assess", assessImage(svc, cfg))

	return r
}

func assessImage(svc service.AssessmentService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		data, source, err := readImage(c, true)
		if err != nil {
			respondError(c, apperrors.GetStatusCode(err), "invalid request", err)
			return
		}

		var result *service.Result
		if source != "" {
			result, err = svc.AssessSource(ctx, source)
		} else {
			result, err = svc.Assess(ctx, data)
		}
		if err != nil {
			respondError(c, determineStatusCode(err), "assessment failed", err)
			return
		}

		a := result.Assessment
		logger.WithFields(logrus.Fields{
			"request_id":         requestIDFrom(c),
			"source":             source,
			"cached":             result.Cached,
			"processing_time_ms": time.Since(startTime).Milliseconds(),
			"overall_score":      a.Suitability.OverallScore,
			"quality_tier":       a.Suitability.QualityTier,
			"readiness_level":    a.ProfessionalReadiness.Level,
		}).Info("Photo assessment completed successfully")

		c.JSON(http.StatusOK, models.AssessmentResponse{
			RequestID:  requestIDFrom(c),
			Cached:     result.Cached,
			Assessment: a,
		})
	}
}

func validateImage(svc service.AssessmentService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		data, _, err := readImage(c, false)
		if err != nil {
			respondError(c, apperrors.GetStatusCode(err), "invalid request", err)
			return
		}

		result, err := svc.Validate(ctx, data)
		if err != nil {
			respondError(c, determineStatusCode(err), "validation failed", err)
			return
		}

		c.JSON(http.StatusOK, models.ValidationResponse{
			RequestID: requestIDFrom(c),
			Result:    result,
		})
	}
}

// readImage extracts the upload from a multipart form, a JSON source
// reference (when allowSource is set) or the raw request body
func readImage(c *gin.Context, allowSource bool) (data []byte, source string, err error) {
	mediaType, _, _ := mime.ParseMediaType(c.GetHeader("Content-Type"))

	switch {
	case mediaType == "multipart/form-data":
		fh, err := c.FormFile(imageField)
		if err != nil {
			return nil, "", bodyError(fmt.Sprintf("multipart field %q is required", imageField), err)
		}
		f, err := fh.Open()
		if err != nil {
			return nil, "", apperrors.NewInternalError("failed to open upload", err)
		}
		defer f.Close()
		data, err = io.ReadAll(f)
		if err != nil {
			return nil, "", bodyError("failed to read upload", err)
		}

	case mediaType == "application/json" && allowSource:
		var req models.AssessSourceRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			return nil, "", bodyError("invalid request format", err)
		}
		return nil, strings.TrimSpace(req.Source), nil

	default:
		data, err = io.ReadAll(c.Request.Body)
		if err != nil {
			return nil, "", bodyError("failed to read request body", err)
		}
	}

	if len(data) == 0 {
		return nil, "", apperrors.NewValidationError("image data is empty", nil)
	}
	return data, "", nil
}

// bodyError reports oversize bodies as 413 and everything else as 400
func bodyError(message string, err error) *apperrors.AppError {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return &apperrors.AppError{
			Type:       apperrors.ErrorTypeValidation,
			Message:    fmt.Sprintf("request body exceeds %d bytes", maxErr.Limit),
			StatusCode: http.StatusRequestEntityTooLarge,
			Cause:      err,
		}
	}
	return apperrors.NewValidationError(message, err)
}

func healthCheck(svc service.AssessmentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":           "available",
			"analyzer_version": analyzer.AnalyzerVersion,
			"time":             time.Now().UTC().Format(time.RFC3339),
			"worker_pool":      svc.EngineStats(),
		})
	}
}

func determineStatusCode(err error) int {
	if appErr, ok := apperrors.As(err); ok {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, code int, message string, err error) {
	fields := logrus.Fields{
		"request_id":  requestIDFrom(c),
		"status_code": code,
		"message":     message,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"ip":          c.ClientIP(),
	}
	if code >= http.StatusInternalServerError {
		logger.WithError(err).WithFields(fields).Error("Request failed")
	} else {
		logger.WithError(err).WithFields(fields).Warn("Request rejected")
	}

	detail := err.Error()
	if appErr, ok := apperrors.As(err); ok {
		detail = appErr.Message
	}
	c.AbortWithStatusJSON(code, models.ErrorResponse{
		Error:     http.StatusText(code),
		Message:   fmt.Sprintf("%s: %s", message, detail),
		RequestID: requestIDFrom(c),
	})
}
