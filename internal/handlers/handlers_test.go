package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"booking-system/internal/apperrors"
	"booking-system/internal/eventbus"
	"booking-system/internal/logger"
	"booking-system/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractUUIDFromPath(t *testing.T) {
	id := uuid.New()

	got, err := extractUUIDFromPath("/api/workers/"+id.String(), "/api/workers/")
	require.NoError(t, err)
	assert.Equal(t, id, got)

	got, err = extractUUIDFromPath("/api/workers/"+id.String()+"/reviews", "/api/workers/")
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = extractUUIDFromPath("/api/workers/", "/api/workers/")
	assert.Error(t, err)

	_, err = extractUUIDFromPath("/api/workers/not-a-uuid", "/api/workers/")
	assert.Error(t, err)

	_, err = extractUUIDFromPath("/api/bookings/"+id.String(), "/api/workers/")
	assert.Error(t, err)
}

func TestWriteAppError(t *testing.T) {
	log := logger.Discard()

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"bad request", apperrors.BadRequest("lat is required"), http.StatusBadRequest},
		{"not found", apperrors.NotFound("worker", uuid.New()), http.StatusNotFound},
		{"illegal transition", apperrors.IllegalTransition("completed", "accepted"), http.StatusConflict},
		{"unavailable", apperrors.Unavailable("geo index down", assert.AnError), http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeAppError(rec, log, tt.err, "do thing")
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), "message")
		})
	}

	// Неклассифицированная ошибка не должна утекать наружу
	rec := httptest.NewRecorder()
	writeAppError(rec, log, assert.AnError, "load booking")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), assert.AnError.Error())
}

func TestSearchWorkersRequiredParams(t *testing.T) {
	handler := NewWorkerHandler(nil, nil, nil, nil, nil, logger.Discard())

	tests := []struct {
		name  string
		query string
	}{
		{"no params", ""},
		{"missing lng", "lat=26.9"},
		{"missing radius", "lat=26.9&lng=75.8"},
		{"missing sortBy", "lat=26.9&lng=75.8&radius=5"},
		{"bad lat", "lat=abc&lng=75.8&radius=5&sortBy=distance"},
		{"unknown sortBy", "lat=26.9&lng=75.8&radius=5&sortBy=price"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/workers?"+tt.query, nil)
			rec := httptest.NewRecorder()

			handler.SearchWorkers(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestUpdateAvailabilityValidation(t *testing.T) {
	handler := NewWorkerHandler(nil, nil, nil, nil, nil, logger.Discard())

	// Невалидный ID в пути
	req := httptest.NewRequest(http.MethodPut, "/api/workers/not-a-uuid", strings.NewReader(`{"is_available": true}`))
	rec := httptest.NewRecorder()
	handler.UpdateAvailability(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Поле is_available отсутствует
	req = httptest.NewRequest(http.MethodPut, "/api/workers/"+uuid.NewString(), strings.NewReader(`{}`))
	rec = httptest.NewRecorder()
	handler.UpdateAvailability(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "is_available")

	// Не булево значение
	req = httptest.NewRequest(http.MethodPut, "/api/workers/"+uuid.NewString(), strings.NewReader(`{"is_available": "yes"}`))
	rec = httptest.NewRecorder()
	handler.UpdateAvailability(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateBookingStatusValidation(t *testing.T) {
	handler := NewBookingHandler(nil, nil, nil, nil, logger.Discard())
	path := "/api/bookings/" + uuid.NewString()

	req := httptest.NewRequest(http.MethodPut, path, strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	handler.UpdateBookingStatus(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "status is required")

	req = httptest.NewRequest(http.MethodPut, path, strings.NewReader(`{"status": "archived"}`))
	rec = httptest.NewRecorder()
	handler.UpdateBookingStatus(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "archived")
}

func TestListBookingsValidation(t *testing.T) {
	handler := NewBookingHandler(nil, nil, nil, nil, logger.Discard())

	req := httptest.NewRequest(http.MethodGet, "/api/bookings", nil)
	rec := httptest.NewRecorder()
	handler.ListBookings(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "userId")

	req = httptest.NewRequest(http.MethodGet, "/api/bookings?userId=42", nil)
	rec = httptest.NewRecorder()
	handler.ListBookings(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubscribeWorkerInvalidID(t *testing.T) {
	handler := NewEventsHandler(eventbus.NewHub(logger.Discard()), logger.Discard())

	req := httptest.NewRequest(http.MethodGet, "/api/events/workers/not-a-uuid", nil)
	rec := httptest.NewRecorder()
	handler.SubscribeWorker(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubscribeBookingStreamsEvents(t *testing.T) {
	hub := eventbus.NewHub(logger.Discard())
	handler := NewEventsHandler(hub, logger.Discard())

	bookingID := uuid.New()
	workerID := uuid.New()

	// Соединение закрывается по дедлайну контекста, как при
	// разрыве клиентом
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/api/events/bookings/"+bookingID.String(), nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		handler.SubscribeBooking(rec, req)
		close(done)
	}()

	// Ждем регистрации подписчика
	require.Eventually(t, func() bool {
		return hub.SubscriberCount() == 1
	}, time.Second, 5*time.Millisecond)

	hub.Publish(&models.Event{
		ID:        uuid.New(),
		Type:      models.EventTypeBookingStatusChanged,
		BookingID: &bookingID,
		Timestamp: time.Now(),
		Data: models.BookingStatusChangedEvent{
			BookingID: bookingID,
			WorkerID:  workerID,
			OldStatus: models.BookingStatusPending,
			NewStatus: models.BookingStatusAccepted,
		},
	})

	// Чужое событие не должно попасть в поток
	otherID := uuid.New()
	hub.Publish(&models.Event{
		ID:        uuid.New(),
		Type:      models.EventTypeBookingStatusChanged,
		BookingID: &otherID,
		Timestamp: time.Now(),
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handler did not terminate after disconnect")
	}

	body := rec.Body.String()
	assert.Contains(t, body, "event: booking.status_changed")
	assert.Contains(t, body, bookingID.String())
	assert.Contains(t, body, "accepted")
	assert.NotContains(t, body, otherID.String())
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
}
