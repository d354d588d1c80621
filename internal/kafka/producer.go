package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"booking-system/internal/config"
	"booking-system/internal/logger"
	"booking-system/internal/models"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
)

// Producer представляет Kafka producer
type Producer struct {
	producer sarama.SyncProducer
	log      *logger.Logger
	topics   *config.Topics
}

// NewProducer создает новый Kafka producer
func NewProducer(cfg *config.KafkaConfig, log *logger.Logger) (*Producer, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll       // Ждем подтверждения от всех реплик
	config.Producer.Retry.Max = 3                          // Максимум 3 попытки
	config.Producer.Return.Successes = true                // Возвращаем успешные результаты
	config.Producer.Compression = sarama.CompressionSnappy // Сжатие данных

	producer, err := sarama.NewSyncProducer(cfg.Brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	log.Info("Kafka producer created successfully")

	return &Producer{
		producer: producer,
		log:      log,
		topics:   &cfg.Topics,
	}, nil
}

// Close закрывает producer
func (p *Producer) Close() error {
	return p.producer.Close()
}

// PublishBookingCreated публикует событие создания бронирования
func (p *Producer) PublishBookingCreated(booking *models.Booking) error {
	bookingID := booking.ID
	workerID := booking.WorkerID
	event := models.Event{
		ID:        uuid.New(),
		Type:      models.EventTypeBookingCreated,
		Timestamp: time.Now(),
		BookingID: &bookingID,
		WorkerID:  &workerID,
		Data: models.BookingCreatedEvent{
			BookingID:  booking.ID,
			CustomerID: booking.CustomerID,
			WorkerID:   booking.WorkerID,
			Amount:     booking.Amount,
			MediaURLs:  booking.MediaURLs,
			Status:     booking.Status,
			BookedAt:   booking.BookedAt,
		},
	}

	// Ключ сообщения - id бронирования: события одного бронирования
	// попадают в одну партицию и читаются в порядке коммитов
	return p.publishEvent(p.topics.Bookings, booking.ID.String(), event)
}

// PublishBookingStatusChanged публикует событие перехода статуса бронирования
func (p *Producer) PublishBookingStatusChanged(booking *models.Booking, oldStatus models.BookingStatus) error {
	bookingID := booking.ID
	workerID := booking.WorkerID
	event := models.Event{
		ID:        uuid.New(),
		Type:      models.EventTypeBookingStatusChanged,
		Timestamp: time.Now(),
		BookingID: &bookingID,
		WorkerID:  &workerID,
		Data: models.BookingStatusChangedEvent{
			BookingID:  booking.ID,
			WorkerID:   booking.WorkerID,
			CustomerID: booking.CustomerID,
			OldStatus:  oldStatus,
			NewStatus:  booking.Status,
			Timestamp:  time.Now(),
		},
	}

	return p.publishEvent(p.topics.Bookings, booking.ID.String(), event)
}

// PublishWorkerStatusChanged публикует событие смены доступности исполнителя
func (p *Producer) PublishWorkerStatusChanged(workerID uuid.UUID, isAvailable bool) error {
	id := workerID
	event := models.Event{
		ID:        uuid.New(),
		Type:      models.EventTypeWorkerStatusChanged,
		Timestamp: time.Now(),
		WorkerID:  &id,
		Data: models.WorkerStatusChangedEvent{
			WorkerID:    workerID,
			IsAvailable: isAvailable,
			Timestamp:   time.Now(),
		},
	}

	return p.publishEvent(p.topics.Workers, workerID.String(), event)
}

// PublishWorkerLocationSet публикует событие фиксации позиции исполнителя
func (p *Producer) PublishWorkerLocationSet(workerID uuid.UUID, lat, lon float64) error {
	id := workerID
	event := models.Event{
		ID:        uuid.New(),
		Type:      models.EventTypeWorkerLocationSet,
		Timestamp: time.Now(),
		WorkerID:  &id,
		Data: models.WorkerLocationSetEvent{
			WorkerID:  workerID,
			Latitude:  lat,
			Longitude: lon,
			Timestamp: time.Now(),
		},
	}

	return p.publishEvent(p.topics.Workers, workerID.String(), event)
}

// publishEvent публикует событие в указанный топик
func (p *Producer) publishEvent(topic, key string, event models.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(data),
		Headers: []sarama.RecordHeader{
			{
				Key:   []byte("event_type"),
				Value: []byte(event.Type),
			},
			{
				Key:   []byte("timestamp"),
				Value: []byte(event.Timestamp.Format(time.RFC3339)),
			},
		},
	}

	partition, offset, err := p.producer.SendMessage(message)
	if err != nil {
		return fmt.Errorf("failed to send message to topic %s: %w", topic, err)
	}

	p.log.WithField("topic", topic).
		WithField("partition", partition).
		WithField("offset", offset).
		WithField("event_type", event.Type).
		WithField("event_id", event.ID).
		Debug("Event published successfully")

	return nil
}
