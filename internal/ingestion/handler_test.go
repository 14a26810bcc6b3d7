package ingestion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	v1 "github.com/aevon-lab/telemetry-ingest/internal/api/v1"
	httperr "github.com/aevon-lab/telemetry-ingest/internal/core/errors"
	"github.com/aevon-lab/telemetry-ingest/internal/core/requestid"
	"github.com/aevon-lab/telemetry-ingest/internal/core/storage"
	queuemocks "github.com/aevon-lab/telemetry-ingest/internal/mocks/queue"
	storagemocks "github.com/aevon-lab/telemetry-ingest/internal/mocks/storage"
	"github.com/aevon-lab/telemetry-ingest/internal/queue"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const validBody = `{"device_id":"d1","type":"temp","value":21.5,"ts":1000,"raw":{"unit":"C"}}`

var fixedNow = time.UnixMilli(1700000000000)

func newTestService(store storage.EventStore, marker storage.EnqueueMarker, pub queue.Publisher) *Service {
	svc := NewService(store, marker, pub, 1)
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func newTestRouter(svc *Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(requestid.Middleware())
	svc.RegisterRoutes(r)
	return r
}

func postEvent(r *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/events", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(requestid.Header, "req-1")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestIngestHandler_Success(t *testing.T) {
	mockStore := storagemocks.NewEventStore(t)
	mockStore.EXPECT().
		Insert(mock.Anything, mock.MatchedBy(func(e *v1.Event) bool {
			return e.DeviceID == "d1" &&
				e.TS == 1000 &&
				e.RequestID == "req-1" &&
				e.IngestedAt == fixedNow.UnixMilli()
		})).
		Return(storage.InsertAccepted, nil).
		Once()

	mockPub := queuemocks.NewPublisher(t)
	mockPub.EXPECT().
		Publish(mock.Anything, v1.EnqueuedMessage{
			DeviceID:  "d1",
			Type:      "temp",
			Value:     21.5,
			TS:        1000,
			RequestID: "req-1",
			EventID:   "DEVICE#d1:TS#1000",
		}).
		Return(nil).
		Once()

	marker := storagemocks.NewOutboxStore(t)
	marker.EXPECT().
		MarkEnqueued(mock.Anything, "d1", int64(1000), fixedNow.UnixMilli()).
		Return(nil).
		Once()

	resp := postEvent(newTestRouter(newTestService(mockStore, marker, mockPub)), validBody)

	require.Equal(t, http.StatusCreated, resp.Code)
	require.Equal(t, "req-1", resp.Header().Get(requestid.Header))

	var body IngestResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.Equal(t, IngestResponse{
		Message:   "Event ingested",
		DeviceID:  "d1",
		TS:        1000,
		RequestID: "req-1",
	}, body)
}

// A resubmission of the same (device_id, ts) is 409 and never reaches the queue.
func TestIngestHandler_DuplicateAfterAccept(t *testing.T) {
	store := storage.NewMemoryStore()

	mockPub := queuemocks.NewPublisher(t)
	mockPub.EXPECT().Publish(mock.Anything, mock.Anything).Return(nil).Once()

	r := newTestRouter(newTestService(store, store, mockPub))

	first := postEvent(r, validBody)
	require.Equal(t, http.StatusCreated, first.Code)

	second := postEvent(r, `{"device_id":"d1","type":"humidity","value":99,"ts":1000}`)
	require.Equal(t, http.StatusConflict, second.Code)

	var body httperr.MessageResponse
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &body))
	require.Equal(t, "Duplicate event - already stored", body.Message)
	require.Equal(t, "req-1", body.RequestID)

	page, err := store.QueryRange(context.Background(), storage.RangeQuery{DeviceID: "d1"})
	require.NoError(t, err)
	require.Len(t, page.Events, 1)
	require.Equal(t, "temp", page.Events[0].Type)
}

func TestIngestHandler_InvalidJSON(t *testing.T) {
	mockStore := storagemocks.NewEventStore(t)
	mockPub := queuemocks.NewPublisher(t)

	resp := postEvent(newTestRouter(newTestService(mockStore, nil, mockPub)), "not-json")

	require.Equal(t, http.StatusBadRequest, resp.Code)

	var body httperr.ErrorResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.Equal(t, httperr.HttpInvalidJsonError, body.ErrorType)
	require.Equal(t, "Invalid JSON body", body.Error)
	require.NotEmpty(t, body.Detail)
	require.Equal(t, "req-1", body.RequestID)
}

func TestIngestHandler_ValidationFailed(t *testing.T) {
	mockStore := storagemocks.NewEventStore(t)
	mockPub := queuemocks.NewPublisher(t)

	resp := postEvent(newTestRouter(newTestService(mockStore, nil, mockPub)), `{"type":"temp","value":1,"ts":-1}`)

	require.Equal(t, http.StatusBadRequest, resp.Code)

	var body struct {
		ErrorType string           `json:"error_type"`
		Error     string           `json:"error"`
		Detail    []FieldViolation `json:"detail"`
		RequestID string           `json:"request_id"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.Equal(t, httperr.HttpValidationError, body.ErrorType)
	require.Equal(t, "Validation failed", body.Error)
	require.Len(t, body.Detail, 2)
	require.Equal(t, "device_id", body.Detail[0].Field)
	require.Equal(t, "ts", body.Detail[1].Field)
}

func TestIngestHandler_BodyTooLarge(t *testing.T) {
	mockStore := storagemocks.NewEventStore(t)
	mockPub := queuemocks.NewPublisher(t)

	oversized := `{"device_id":"d1","type":"t","value":1,"ts":1,"raw":{"pad":"` + strings.Repeat("x", 1024*1024) + `"}}`
	req := httptest.NewRequest(http.MethodPost, "/events", bytes.NewReader([]byte(oversized)))
	resp := httptest.NewRecorder()
	newTestRouter(newTestService(mockStore, nil, mockPub)).ServeHTTP(resp, req)

	require.Equal(t, http.StatusRequestEntityTooLarge, resp.Code)

	var body httperr.ErrorResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.Equal(t, httperr.HttpPayloadTooLargeError, body.ErrorType)
	require.NotEmpty(t, resp.Header().Get(requestid.Header))
}

func TestIngestHandler_StoreFailure(t *testing.T) {
	mockStore := storagemocks.NewEventStore(t)
	mockStore.EXPECT().
		Insert(mock.Anything, mock.Anything).
		Return(storage.InsertResult(0), errors.Join(storage.ErrStoreFailure, errors.New("timeout"))).
		Once()
	mockPub := queuemocks.NewPublisher(t)

	resp := postEvent(newTestRouter(newTestService(mockStore, nil, mockPub)), validBody)

	require.Equal(t, http.StatusInternalServerError, resp.Code)

	var body httperr.ErrorResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.Equal(t, httperr.HttpInternalError, body.ErrorType)
	require.Equal(t, "Failed to store event", body.Error)
	require.Nil(t, body.Detail)
}

// The event stays stored when the queue rejects it, so the relay can publish it later.
func TestIngestHandler_PublishFailure(t *testing.T) {
	store := storage.NewMemoryStore()

	mockPub := queuemocks.NewPublisher(t)
	mockPub.EXPECT().
		Publish(mock.Anything, mock.Anything).
		Return(errors.New("broker unavailable")).
		Once()

	resp := postEvent(newTestRouter(newTestService(store, store, mockPub)), validBody)

	require.Equal(t, http.StatusInternalServerError, resp.Code)

	var body httperr.ErrorResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.Equal(t, httperr.HttpEnqueueFailedError, body.ErrorType)
	require.Equal(t, "Failed to enqueue event", body.Error)
	require.Contains(t, body.Detail, "broker unavailable")

	page, err := store.QueryRange(context.Background(), storage.RangeQuery{DeviceID: "d1"})
	require.NoError(t, err)
	require.Len(t, page.Events, 1)

	pending, err := store.ListUnenqueued(context.Background(), fixedNow.UnixMilli()+1, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
}

func TestIngest_MarkFailureKeepsSuccess(t *testing.T) {
	mockStore := storagemocks.NewEventStore(t)
	mockStore.EXPECT().Insert(mock.Anything, mock.Anything).Return(storage.InsertAccepted, nil).Once()

	mockPub := queuemocks.NewPublisher(t)
	mockPub.EXPECT().Publish(mock.Anything, mock.Anything).Return(nil).Once()

	marker := storagemocks.NewOutboxStore(t)
	marker.EXPECT().
		MarkEnqueued(mock.Anything, "d1", int64(1000), mock.Anything).
		Return(storage.ErrStoreFailure).
		Once()

	res := newTestService(mockStore, marker, mockPub).Ingest(context.Background(), []byte(validBody), "req-9")

	require.Equal(t, OutcomeEnqueued, res.Outcome)
	require.NoError(t, res.Err)
	require.Equal(t, "req-9", res.Event.RequestID)
}

func TestIngest_Outcomes(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		insert  func(s *storagemocks.EventStore)
		publish func(p *queuemocks.Publisher)
		want    Outcome
		errIs   error
	}{
		{
			name: "rejected before store",
			body: `{}`,
			want: OutcomeRejected,
		},
		{
			name: "duplicate skips publish",
			body: validBody,
			insert: func(s *storagemocks.EventStore) {
				s.EXPECT().Insert(mock.Anything, mock.Anything).Return(storage.InsertDuplicate, nil).Once()
			},
			want: OutcomeDuplicate,
		},
		{
			name: "store failure",
			body: validBody,
			insert: func(s *storagemocks.EventStore) {
				s.EXPECT().Insert(mock.Anything, mock.Anything).Return(storage.InsertResult(0), storage.ErrStoreFailure).Once()
			},
			want:  OutcomeStoreFailed,
			errIs: storage.ErrStoreFailure,
		},
		{
			name: "publish failure is classified",
			body: validBody,
			insert: func(s *storagemocks.EventStore) {
				s.EXPECT().Insert(mock.Anything, mock.Anything).Return(storage.InsertAccepted, nil).Once()
			},
			publish: func(p *queuemocks.Publisher) {
				p.EXPECT().Publish(mock.Anything, mock.Anything).Return(errors.New("nack")).Once()
			},
			want:  OutcomePublishFailed,
			errIs: queue.ErrPublishFailure,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			mockStore := storagemocks.NewEventStore(t)
			mockPub := queuemocks.NewPublisher(t)
			if tc.insert != nil {
				tc.insert(mockStore)
			}
			if tc.publish != nil {
				tc.publish(mockPub)
			}

			res := newTestService(mockStore, nil, mockPub).Ingest(context.Background(), []byte(tc.body), "req-1")
			require.Equal(t, tc.want, res.Outcome)
			if tc.errIs != nil {
				require.ErrorIs(t, res.Err, tc.errIs)
			}
		})
	}
}

func TestNewService_PanicsOnNilDependencies(t *testing.T) {
	require.Panics(t, func() { NewService(nil, nil, queue.NewLogPublisher(nil), 1) })
	require.Panics(t, func() { NewService(storage.NewMemoryStore(), nil, nil, 1) })
}
