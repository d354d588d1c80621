package models

import (
	"time"

	"github.com/google/uuid"
)

// EventType представляет тип события
type EventType string

const (
	EventTypeBookingCreated       EventType = "booking.created"
	EventTypeBookingStatusChanged EventType = "booking.status_changed"
	EventTypeWorkerStatusChanged  EventType = "worker.status_changed"
	EventTypeWorkerLocationSet    EventType = "worker.location_set"
)

// Event представляет базовое событие. BookingID и WorkerID вынесены
// на верхний уровень, чтобы подписчики могли фильтровать события
// без разбора payload
type Event struct {
	ID        uuid.UUID   `json:"id"`
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	BookingID *uuid.UUID  `json:"booking_id,omitempty"`
	WorkerID  *uuid.UUID  `json:"worker_id,omitempty"`
	Data      interface{} `json:"data"`
}

// BookingCreatedEvent представляет событие создания бронирования;
// доставляется исполнителю, ожидающему входящие заявки
type BookingCreatedEvent struct {
	BookingID  uuid.UUID     `json:"booking_id"`
	CustomerID uuid.UUID     `json:"customer_id"`
	WorkerID   uuid.UUID     `json:"worker_id"`
	Amount     float64       `json:"amount"`
	MediaURLs  []string      `json:"media_urls"`
	Status     BookingStatus `json:"status"`
	BookedAt   time.Time     `json:"booked_at"`
}

// BookingStatusChangedEvent представляет событие перехода статуса.
// Событие несет авторитетный новый статус: подписчики обязаны
// перепроверять его, а не полагаться на порядок доставки
type BookingStatusChangedEvent struct {
	BookingID  uuid.UUID     `json:"booking_id"`
	WorkerID   uuid.UUID     `json:"worker_id"`
	CustomerID uuid.UUID     `json:"customer_id"`
	OldStatus  BookingStatus `json:"old_status"`
	NewStatus  BookingStatus `json:"new_status"`
	Timestamp  time.Time     `json:"timestamp"`
}

// WorkerStatusChangedEvent представляет событие смены доступности исполнителя
type WorkerStatusChangedEvent struct {
	WorkerID    uuid.UUID `json:"worker_id"`
	IsAvailable bool      `json:"is_available"`
	Timestamp   time.Time `json:"timestamp"`
}

// WorkerLocationSetEvent представляет событие фиксации позиции
// исполнителя при онбординге
type WorkerLocationSetEvent struct {
	WorkerID  uuid.UUID `json:"worker_id"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Timestamp time.Time `json:"timestamp"`
}
