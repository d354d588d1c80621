package eventbus

import (
	"context"
	"sync"

	"booking-system/internal/logger"
	"booking-system/internal/models"

	"github.com/google/uuid"
)

// subscriberBuffer размер буфера канала подписчика; при переполнении
// событие для этого подписчика отбрасывается (доставка at-least-once
// гарантируется только подключенным и читающим подписчикам)
const subscriberBuffer = 16

// Predicate фильтрует события для подписчика
type Predicate func(*models.Event) bool

// ForWorker отбирает события, адресованные конкретному исполнителю
func ForWorker(workerID uuid.UUID) Predicate {
	return func(e *models.Event) bool {
		return e.WorkerID != nil && *e.WorkerID == workerID
	}
}

// ForBooking отбирает события конкретного бронирования
func ForBooking(bookingID uuid.UUID) Predicate {
	return func(e *models.Event) bool {
		return e.BookingID != nil && *e.BookingID == bookingID
	}
}

// OfType сужает предикат до определенного типа события
func OfType(eventType models.EventType, pred Predicate) Predicate {
	return func(e *models.Event) bool {
		return e.Type == eventType && pred(e)
	}
}

type subscriber struct {
	pred Predicate
	ch   chan *models.Event
}

// Hub раздает события долгоживущим подписчикам. Подписка снимается
// при отмене контекста запроса, так что отключившиеся клиенты
// не накапливаются.
type Hub struct {
	mu   sync.RWMutex
	subs map[*subscriber]struct{}
	log  *logger.Logger
}

// NewHub создает новый хаб событий
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		subs: make(map[*subscriber]struct{}),
		log:  log,
	}
}

// Subscribe регистрирует подписчика с предикатом и возвращает канал
// событий. Канал закрывается после отмены ctx.
func (h *Hub) Subscribe(ctx context.Context, pred Predicate) <-chan *models.Event {
	sub := &subscriber{
		pred: pred,
		ch:   make(chan *models.Event, subscriberBuffer),
	}

	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.mu.Lock()
		delete(h.subs, sub)
		h.mu.Unlock()
		close(sub.ch)
	}()

	return sub.ch
}

// Publish доставляет событие всем подписчикам, чьи предикаты совпали.
// Отправка неблокирующая: медленный подписчик теряет событие,
// но не задерживает остальных.
func (h *Hub) Publish(event *models.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subs {
		if !sub.pred(event) {
			continue
		}
		select {
		case sub.ch <- event:
		default:
			h.log.WithField("event_id", event.ID).
				WithField("event_type", event.Type).
				Warn("Subscriber buffer full, event dropped")
		}
	}
}

// SubscriberCount возвращает число активных подписчиков
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
