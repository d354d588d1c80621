package models

import (
	"time"

	"github.com/google/uuid"
)

// Review представляет отзыв о завершенном бронировании,
// ровно один отзыв на бронирование
type Review struct {
	ID         uuid.UUID `json:"id" db:"id"`
	BookingID  uuid.UUID `json:"booking_id" db:"booking_id"`
	WorkerID   uuid.UUID `json:"worker_id" db:"worker_id"`
	CustomerID uuid.UUID `json:"customer_id" db:"customer_id"`
	Rating     int       `json:"rating" db:"rating"` // 1..5
	Comment    *string   `json:"comment,omitempty" db:"comment"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// ReviewWithCustomer представляет отзыв с проекцией заказчика
// для списка отзывов исполнителя
type ReviewWithCustomer struct {
	Review
	CustomerName  string  `json:"customer_name"`
	CustomerImage *string `json:"customer_image,omitempty"`
}

// CreateReviewRequest представляет запрос на создание отзыва
type CreateReviewRequest struct {
	Rating     int       `json:"rating"`
	Comment    *string   `json:"comment,omitempty"`
	WorkerID   uuid.UUID `json:"worker_id"`
	CustomerID uuid.UUID `json:"customer_id"`
	BookingID  uuid.UUID `json:"booking_id"`
}
