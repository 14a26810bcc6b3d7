package projection

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"

	httperr "github.com/aevon-lab/telemetry-ingest/internal/core/errors"
	"github.com/aevon-lab/telemetry-ingest/internal/core/requestid"
	"github.com/aevon-lab/telemetry-ingest/internal/core/storage"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers all projection API routes on the given router.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	r.GET("/devices/:device_id/events", s.HandleQueryEvents)
}

// HandleQueryEvents handles GET /devices/:device_id/events
// Query parameters: from_ts, to_ts, limit, last_evaluated_key
func (s *Service) HandleQueryEvents(c *gin.Context) {
	requestID := requestid.Get(c)

	req, err := parseEventsQuery(c)
	if err != nil {
		writeInvalidQuery(c, err, requestID)
		return
	}

	resp, err := s.QueryDeviceEvents(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, ErrInvalidQuery) || errors.Is(err, storage.ErrInvalidCursor) {
			writeInvalidQuery(c, err, requestID)
			return
		}

		slog.Error("[Projection] Failed to query events",
			"error", err,
			"device_id", req.DeviceID,
			"request_id", requestID)
		c.JSON(http.StatusInternalServerError, httperr.ErrorResponse{
			ErrorType: httperr.HttpInternalError,
			Error:     "Failed to retrieve events",
			RequestID: requestID,
		})
		return
	}

	c.JSON(http.StatusOK, resp)
}

func parseEventsQuery(c *gin.Context) (EventsQueryRequest, error) {
	req := EventsQueryRequest{
		DeviceID:         c.Param("device_id"),
		LastEvaluatedKey: c.Query("last_evaluated_key"),
	}
	if strings.TrimSpace(req.DeviceID) == "" {
		return req, fmt.Errorf("%w: device_id is required", ErrInvalidQuery)
	}

	var err error
	if req.FromTS, err = positiveIntParam(c, "from_ts"); err != nil {
		return req, err
	}
	if req.ToTS, err = positiveIntParam(c, "to_ts"); err != nil {
		return req, err
	}

	limit, err := positiveIntParam(c, "limit")
	if err != nil {
		return req, err
	}
	if limit != nil {
		// The service clamps to its max; this only keeps the int conversion in range.
		req.Limit = int(min(*limit, math.MaxInt32))
	}

	return req, nil
}

// positiveIntParam returns nil when the parameter is absent.
func positiveIntParam(c *gin.Context, name string) (*int64, error) {
	raw, ok := c.GetQuery(name)
	if !ok {
		return nil, nil
	}
	v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || v <= 0 {
		return nil, fmt.Errorf("%w: %s must be a positive integer", ErrInvalidQuery, name)
	}
	return &v, nil
}

func writeInvalidQuery(c *gin.Context, err error, requestID string) {
	c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
		ErrorType: httperr.HttpInvalidQueryError,
		Error:     "Invalid query parameters",
		Detail:    err.Error(),
		RequestID: requestID,
	})
}
