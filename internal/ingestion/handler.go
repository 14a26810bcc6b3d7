package ingestion

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	httperr "github.com/aevon-lab/telemetry-ingest/internal/core/errors"
	"github.com/aevon-lab/telemetry-ingest/internal/core/requestid"
	"github.com/gin-gonic/gin"
)

const (
	msgReadBodyFailed   = "Failed to read request body"
	msgInvalidJSON      = "Invalid JSON body"
	msgValidationFailed = "Validation failed"
	msgBodyTooLarge     = "Request body exceeds maximum allowed size"
	msgStoreFailed      = "Failed to store event"
	msgEnqueueFailed    = "Failed to enqueue event"
	msgEventIngested    = "Event ingested"
)

// IngestResponse is the 201 body.
type IngestResponse struct {
	Message   string `json:"message"`
	DeviceID  string `json:"device_id"`
	TS        int64  `json:"ts"`
	RequestID string `json:"request_id"`
}

// ingestionError carries the structured HTTP error shape from a helper back to the orchestrator.
// Helpers return this instead of writing to gin.Context directly, keeping them decoupled from HTTP.
type ingestionError struct {
	statusCode int
	errorType  string
	message    string
	details    interface{}
	requestID  string
}

func (e *ingestionError) Error() string {
	return e.message
}

// IngestHandler handles HTTP POST /events.
func (s *Service) IngestHandler(c *gin.Context) {
	requestID := requestid.Get(c)

	body, ierr := s.readBody(c, requestID)
	if ierr != nil {
		writeError(c, ierr)
		return
	}

	res := s.Ingest(c.Request.Context(), body, requestID)

	switch res.Outcome {
	case OutcomeEnqueued:
		c.JSON(http.StatusCreated, IngestResponse{
			Message:   msgEventIngested,
			DeviceID:  res.Event.DeviceID,
			TS:        res.Event.TS,
			RequestID: requestID,
		})
	case OutcomeDuplicate:
		c.JSON(http.StatusConflict, httperr.MessageResponse{
			Message:   httperr.HttpDuplicateEventMessage,
			RequestID: requestID,
		})
	default:
		writeError(c, toIngestionError(res))
	}
}

// readBody enforces the maximum body size and returns the raw bytes.
func (s *Service) readBody(c *gin.Context, requestID string) ([]byte, *ingestionError) {
	maxBytes := int64(s.maxBodySizeBytes)
	limitedBody := io.LimitReader(c.Request.Body, maxBytes+1) // +1 to detect oversized requests

	bodyBytes, err := io.ReadAll(limitedBody)
	if err != nil {
		slog.Error("[Ingest] Failed to read request body", "error", err, "request_id", requestID)
		return nil, &ingestionError{
			statusCode: http.StatusInternalServerError,
			errorType:  httperr.HttpInternalError,
			message:    msgReadBodyFailed,
			requestID:  requestID,
		}
	}

	if int64(len(bodyBytes)) > maxBytes {
		slog.Warn("[Ingest] Request body exceeds maximum size",
			"size", len(bodyBytes),
			"max", maxBytes,
			"request_id", requestID)
		return nil, &ingestionError{
			statusCode: http.StatusRequestEntityTooLarge,
			errorType:  httperr.HttpPayloadTooLargeError,
			message:    msgBodyTooLarge,
			details: map[string]interface{}{
				"max_size_mb": maxBytes / (1024 * 1024),
			},
			requestID: requestID,
		}
	}

	return bodyBytes, nil
}

// toIngestionError maps a failed Result to its HTTP shape.
func toIngestionError(res *Result) *ingestionError {
	var malformed *MalformedInputError
	var invalid *ValidationError

	switch {
	case errors.As(res.Err, &malformed):
		return &ingestionError{
			statusCode: http.StatusBadRequest,
			errorType:  httperr.HttpInvalidJsonError,
			message:    msgInvalidJSON,
			details:    malformed.Detail,
			requestID:  res.RequestID,
		}
	case errors.As(res.Err, &invalid):
		return &ingestionError{
			statusCode: http.StatusBadRequest,
			errorType:  httperr.HttpValidationError,
			message:    msgValidationFailed,
			details:    invalid.Violations,
			requestID:  res.RequestID,
		}
	case res.Outcome == OutcomePublishFailed:
		return &ingestionError{
			statusCode: http.StatusInternalServerError,
			errorType:  httperr.HttpEnqueueFailedError,
			message:    msgEnqueueFailed,
			details:    res.Err.Error(),
			requestID:  res.RequestID,
		}
	default:
		return &ingestionError{
			statusCode: http.StatusInternalServerError,
			errorType:  httperr.HttpInternalError,
			message:    msgStoreFailed,
			requestID:  res.RequestID,
		}
	}
}

// writeError serializes an ingestionError as the JSON HTTP response.
func writeError(c *gin.Context, err *ingestionError) {
	c.JSON(err.statusCode, httperr.ErrorResponse{
		ErrorType: err.errorType,
		Error:     err.message,
		Detail:    err.details,
		RequestID: err.requestID,
	})
}
