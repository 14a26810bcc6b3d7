package errors

const (
	HttpInternalError         = "internal_error"
	HttpInvalidJsonError      = "invalid_json"
	HttpValidationError       = "validation_failed"
	HttpPayloadTooLargeError  = "payload_too_large"
	HttpEnqueueFailedError    = "enqueue_failed"
	HttpInvalidQueryError     = "invalid_query"
	HttpDuplicateEventMessage = "Duplicate event - already stored"
)

// ErrorResponse is the error response body shared by the ingestion and query APIs.
type ErrorResponse struct {
	ErrorType string      `json:"error_type,omitempty"`
	Error     string      `json:"error"`
	Detail    interface{} `json:"detail,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
}

// MessageResponse is the body for non-error outcomes that carry only a message,
// such as a duplicate submission.
type MessageResponse struct {
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}
