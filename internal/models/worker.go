package models

import (
	"time"

	"github.com/google/uuid"
)

// Worker представляет исполнителя в системе
type Worker struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	Name        string     `json:"name" db:"name"`
	Phone       string     `json:"phone" db:"phone"`
	Image       *string    `json:"image,omitempty" db:"image"`
	IsAvailable bool       `json:"is_available" db:"is_available"`
	Skills      []string   `json:"skills" db:"skills"`
	Latitude    *float64   `json:"latitude,omitempty" db:"latitude"`
	Longitude   *float64   `json:"longitude,omitempty" db:"longitude"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
	LastSeenAt  *time.Time `json:"last_seen_at,omitempty" db:"last_seen_at"`
}

// HasPosition сообщает, известны ли координаты исполнителя
func (w *Worker) HasPosition() bool {
	return w.Latitude != nil && w.Longitude != nil
}

// WorkerSummary представляет исполнителя в выдаче поиска:
// расстояние и средний рейтинг посчитаны на сервере
type WorkerSummary struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Image       *string   `json:"image,omitempty"`
	IsAvailable bool      `json:"is_available"`
	Skills      []string  `json:"skills"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	Distance    float64   `json:"distance"`   // км, 2 знака
	AvgRating   float64   `json:"avg_rating"` // 2 знака, 0 если отзывов нет
}

// WorkerDetail представляет карточку исполнителя;
// Distance равен nil, если координаты одной из сторон неизвестны
type WorkerDetail struct {
	Worker
	Distance *float64 `json:"distance"`
}

// Customer представляет заказчика (учетные записи выдаются внешней системой,
// здесь хранится только проекция для вложенных ответов)
type Customer struct {
	ID    uuid.UUID `json:"id" db:"id"`
	Name  string    `json:"name" db:"name"`
	Phone string    `json:"phone" db:"phone"`
}

// CreateWorkerRequest представляет запрос на онбординг исполнителя
type CreateWorkerRequest struct {
	Name        string   `json:"name"`
	Phone       string   `json:"phone"`
	Skills      []string `json:"skills"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	IsAvailable bool     `json:"is_available"`
}

// UpdateAvailabilityRequest представляет запрос на смену доступности.
// Указатель нужен, чтобы отличить отсутствующее поле от false.
type UpdateAvailabilityRequest struct {
	IsAvailable *bool `json:"is_available"`
}
