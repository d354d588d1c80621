package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"booking-system/internal/eventbus"
	"booking-system/internal/logger"
	"booking-system/internal/models"
)

// heartbeatInterval период keep-alive комментариев в SSE потоке
const heartbeatInterval = 15 * time.Second

// EventsHandler отдает события бронирований долгоживущим подписчикам
// через Server-Sent Events. Подписка снимается при разрыве соединения.
type EventsHandler struct {
	hub *eventbus.Hub
	log *logger.Logger
}

// NewEventsHandler создает новый обработчик подписок на события
func NewEventsHandler(hub *eventbus.Hub, log *logger.Logger) *EventsHandler {
	return &EventsHandler{
		hub: hub,
		log: log,
	}
}

// SubscribeWorker отдает исполнителю поток входящих заявок:
// события создания бронирований, адресованных ему
func (h *EventsHandler) SubscribeWorker(w http.ResponseWriter, r *http.Request) {
	workerID, err := extractUUIDFromPath(r.URL.Path, "/api/events/workers/")
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid worker ID")
		return
	}

	pred := eventbus.OfType(models.EventTypeBookingCreated, eventbus.ForWorker(workerID))
	h.stream(w, r, pred, "worker_id", workerID.String())
}

// SubscribeBooking отдает заказчику поток переходов статуса
// конкретного бронирования
func (h *EventsHandler) SubscribeBooking(w http.ResponseWriter, r *http.Request) {
	bookingID, err := extractUUIDFromPath(r.URL.Path, "/api/events/bookings/")
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid booking ID")
		return
	}

	pred := eventbus.OfType(models.EventTypeBookingStatusChanged, eventbus.ForBooking(bookingID))
	h.stream(w, r, pred, "booking_id", bookingID.String())
}

// stream держит SSE соединение, пока клиент не отключится.
// Доставка at-least-once: клиент обязан дедуплицировать события
// и перепроверять статус из payload.
func (h *EventsHandler) stream(w http.ResponseWriter, r *http.Request, pred eventbus.Predicate, idField, idValue string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeErrorResponse(w, http.StatusInternalServerError, "Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	events := h.hub.Subscribe(r.Context(), pred)
	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	h.log.WithField(idField, idValue).Debug("Event subscriber connected")

	for {
		select {
		case event, open := <-events:
			if !open {
				h.log.WithField(idField, idValue).Debug("Event subscriber disconnected")
				return
			}

			data, err := json.Marshal(event)
			if err != nil {
				h.log.WithError(err).WithField("event_id", event.ID).Error("Failed to marshal event")
				continue
			}

			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, data)
			flusher.Flush()

		case <-heartbeat.C:
			// Комментарий держит соединение живым через прокси
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()

		case <-r.Context().Done():
			h.log.WithField(idField, idValue).Debug("Event subscriber disconnected")
			return
		}
	}
}
