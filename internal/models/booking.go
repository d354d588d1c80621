package models

import (
	"time"

	"github.com/google/uuid"
)

// BookingStatus представляет статус бронирования
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusAccepted  BookingStatus = "accepted"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// bookingTransitions описывает допустимые переходы машины состояний:
// pending -> accepted | cancelled, accepted -> completed
var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusPending:  {BookingStatusAccepted, BookingStatusCancelled},
	BookingStatusAccepted: {BookingStatusCompleted},
}

// transitionSource указывает единственный легальный исходный статус
// для каждого целевого
var transitionSource = map[BookingStatus]BookingStatus{
	BookingStatusAccepted:  BookingStatusPending,
	BookingStatusCancelled: BookingStatusPending,
	BookingStatusCompleted: BookingStatusAccepted,
}

// ParseBookingStatus разбирает строковый статус из запроса
func ParseBookingStatus(s string) (BookingStatus, bool) {
	switch BookingStatus(s) {
	case BookingStatusPending, BookingStatusAccepted, BookingStatusCompleted, BookingStatusCancelled:
		return BookingStatus(s), true
	}
	return "", false
}

// CanTransition проверяет допустимость перехода from -> to.
// Повторный переход в тот же статус недопустим.
func CanTransition(from, to BookingStatus) bool {
	for _, next := range bookingTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// TransitionSource возвращает исходный статус, из которого достижим target
func TransitionSource(target BookingStatus) (BookingStatus, bool) {
	from, ok := transitionSource[target]
	return from, ok
}

// IsTerminal сообщает, является ли статус конечным
func (s BookingStatus) IsTerminal() bool {
	return s == BookingStatusCompleted || s == BookingStatusCancelled
}

// Booking представляет бронирование; amount и media_urls неизменяемы
// после создания, статус меняется только через переходы машины состояний
type Booking struct {
	ID          uuid.UUID     `json:"id" db:"id"`
	CustomerID  uuid.UUID     `json:"customer_id" db:"customer_id"`
	WorkerID    uuid.UUID     `json:"worker_id" db:"worker_id"`
	Amount      float64       `json:"amount" db:"amount"`
	MediaURLs   []string      `json:"media_urls" db:"media_urls"`
	Status      BookingStatus `json:"status" db:"status"`
	BookedAt    time.Time     `json:"booked_at" db:"booked_at"`
	UpdatedAt   time.Time     `json:"updated_at" db:"updated_at"`
	CompletedAt *time.Time    `json:"completed_at,omitempty" db:"completed_at"`
}

// PaymentStatus представляет статус платежа
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
)

// Payment представляет платежную запись, создаваемую вместе с бронированием
type Payment struct {
	ID        uuid.UUID     `json:"id" db:"id"`
	BookingID uuid.UUID     `json:"booking_id" db:"booking_id"`
	Amount    float64       `json:"amount" db:"amount"`
	Status    PaymentStatus `json:"status" db:"status"`
	CreatedAt time.Time     `json:"created_at" db:"created_at"`
}

// BookingDetails представляет бронирование с вложенными проекциями
// для списков по пользователю
type BookingDetails struct {
	Booking
	Worker   *Worker   `json:"worker,omitempty"`
	Customer *Customer `json:"customer,omitempty"`
	Payment  *Payment  `json:"payment,omitempty"`
	Review   *Review   `json:"review,omitempty"`
}

// CreateBookingRequest представляет запрос на создание бронирования
type CreateBookingRequest struct {
	CustomerID uuid.UUID `json:"customer_id"`
	WorkerID   uuid.UUID `json:"worker_id"`
	Amount     float64   `json:"amount"`
	MediaURLs  []string  `json:"media_urls"`
}

// UpdateBookingStatusRequest представляет запрос на переход статуса:
// клиент передает целевой статус, легальность проверяет сервер
type UpdateBookingStatusRequest struct {
	Status string `json:"status"`
}
