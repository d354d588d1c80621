package eventbus

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"booking-system/internal/logger"
	"booking-system/internal/models"
)

func bookingEvent(t models.EventType, bookingID, workerID uuid.UUID) *models.Event {
	return &models.Event{
		ID:        uuid.New(),
		Type:      t,
		Timestamp: time.Now(),
		BookingID: &bookingID,
		WorkerID:  &workerID,
	}
}

func TestHubDeliversMatchingEvents(t *testing.T) {
	hub := NewHub(logger.Discard())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	workerID := uuid.New()
	otherWorker := uuid.New()
	ch := hub.Subscribe(ctx, OfType(models.EventTypeBookingCreated, ForWorker(workerID)))

	// Чужое событие не доставляется
	hub.Publish(bookingEvent(models.EventTypeBookingCreated, uuid.New(), otherWorker))
	// Свой воркер, но другой тип события
	hub.Publish(bookingEvent(models.EventTypeBookingStatusChanged, uuid.New(), workerID))

	want := bookingEvent(models.EventTypeBookingCreated, uuid.New(), workerID)
	hub.Publish(want)

	select {
	case got := <-ch:
		assert.Equal(t, want.ID, got.ID)
	case <-time.After(time.Second):
		t.Fatal("expected event was not delivered")
	}

	// В канале не должно быть лишних событий
	select {
	case got := <-ch:
		t.Fatalf("unexpected event delivered: %v", got.Type)
	default:
	}
}

func TestHubForBooking(t *testing.T) {
	hub := NewHub(logger.Discard())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bookingID := uuid.New()
	ch := hub.Subscribe(ctx, ForBooking(bookingID))

	hub.Publish(bookingEvent(models.EventTypeBookingStatusChanged, uuid.New(), uuid.New()))
	want := bookingEvent(models.EventTypeBookingStatusChanged, bookingID, uuid.New())
	hub.Publish(want)

	select {
	case got := <-ch:
		assert.Equal(t, want.ID, got.ID)
	case <-time.After(time.Second):
		t.Fatal("expected event was not delivered")
	}
}

func TestHubUnsubscribeOnContextCancel(t *testing.T) {
	hub := NewHub(logger.Discard())
	ctx, cancel := context.WithCancel(context.Background())

	ch := hub.Subscribe(ctx, func(*models.Event) bool { return true })
	require.Equal(t, 1, hub.SubscriberCount())

	cancel()

	// Канал закрывается, подписка снимается
	require.Eventually(t, func() bool {
		return hub.SubscriberCount() == 0
	}, time.Second, 10*time.Millisecond)

	_, open := <-ch
	assert.False(t, open)

	// Публикация после отписки не должна паниковать
	hub.Publish(bookingEvent(models.EventTypeBookingCreated, uuid.New(), uuid.New()))
}

func TestHubConcurrentPublishAndSubscribe(t *testing.T) {
	hub := NewHub(logger.Discard())
	workerID := uuid.New()

	const subscribers = 8
	const events = 10

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	channels := make([]<-chan *models.Event, subscribers)
	for i := range channels {
		channels[i] = hub.Subscribe(ctx, ForWorker(workerID))
	}

	var wg sync.WaitGroup
	for i := 0; i < events; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			hub.Publish(bookingEvent(models.EventTypeBookingCreated, uuid.New(), workerID))
		}()
	}
	wg.Wait()

	// Каждый подписчик получает все события (буфер вмещает все)
	for i, ch := range channels {
		for n := 0; n < events; n++ {
			select {
			case <-ch:
			case <-time.After(time.Second):
				t.Fatalf("subscriber %d received only %d of %d events", i, n, events)
			}
		}
	}
}

func TestHubSlowSubscriberDoesNotBlockPublish(t *testing.T) {
	hub := NewHub(logger.Discard())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	workerID := uuid.New()
	hub.Subscribe(ctx, ForWorker(workerID)) // никто не читает

	done := make(chan struct{})
	go func() {
		// Больше, чем вмещает буфер подписчика
		for i := 0; i < subscriberBuffer*2; i++ {
			hub.Publish(bookingEvent(models.EventTypeBookingCreated, uuid.New(), workerID))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on slow subscriber")
	}
}
