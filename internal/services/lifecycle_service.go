package services

import (
	"context"
	"fmt"
	"time"

	"booking-system/internal/apperrors"
	"booking-system/internal/database"
	"booking-system/internal/logger"
	"booking-system/internal/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// LifecycleService представляет машину состояний бронирования:
// проверяет легальность переходов и применяет их атомарно вместе
// с побочным эффектом доступности исполнителя
type LifecycleService struct {
	db       *database.DB
	bookings *BookingService
	workers  *WorkerService
	log      *logger.Logger
}

// NewLifecycleService создает новый сервис жизненного цикла бронирований
func NewLifecycleService(db *database.DB, bookings *BookingService, workers *WorkerService, log *logger.Logger) *LifecycleService {
	return &LifecycleService{
		db:       db,
		bookings: bookings,
		workers:  workers,
		log:      log,
	}
}

// Transition применяет переход бронирования в целевой статус.
// Запись статуса - условный UPDATE по ожидаемому исходному статусу:
// из двух одновременных несовместимых переходов выигрывает ровно один,
// проигравший получает IllegalTransition с наблюдаемым статусом.
// Возвращает обновленное бронирование и прежний статус.
func (s *LifecycleService) Transition(ctx context.Context, bookingID uuid.UUID, target models.BookingStatus) (*models.Booking, models.BookingStatus, error) {
	source, ok := models.TransitionSource(target)
	if !ok {
		return nil, "", apperrors.BadRequest("status %q is not a valid transition target", target)
	}

	booking, err := s.bookings.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, "", err
	}
	if booking.Status != source {
		return nil, "", apperrors.IllegalTransition(string(booking.Status), string(target))
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	query := `
		UPDATE bookings
		SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4
	`
	args := []interface{}{target, now, bookingID, source}
	if target == models.BookingStatusCompleted {
		query = `
			UPDATE bookings
			SET status = $1, updated_at = $2, completed_at = $2
			WHERE id = $3 AND status = $4
		`
	}

	result, err := tx.Exec(query, args...)
	if err != nil {
		return nil, "", fmt.Errorf("failed to update booking status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, "", fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		// Проиграна гонка: читаем фактический статус для ответа
		tx.Rollback()
		observed, readErr := s.bookings.GetBooking(ctx, bookingID)
		if readErr != nil {
			return nil, "", readErr
		}
		return nil, "", apperrors.IllegalTransition(string(observed.Status), string(target))
	}

	// Побочный эффект доступности - в той же транзакции, что и статус
	switch target {
	case models.BookingStatusAccepted:
		if err := s.workers.setAvailabilityTx(tx, booking.WorkerID, false); err != nil {
			return nil, "", err
		}
	case models.BookingStatusCompleted:
		if err := s.workers.setAvailabilityTx(tx, booking.WorkerID, true); err != nil {
			return nil, "", err
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, "", fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.syncWorkerGeo(ctx, booking.WorkerID, target)

	updated := *booking
	updated.Status = target
	updated.UpdatedAt = now
	if target == models.BookingStatusCompleted {
		updated.CompletedAt = &now
	}

	s.log.WithFields(map[string]interface{}{
		"booking_id": bookingID,
		"worker_id":  booking.WorkerID,
		"old_status": source,
		"new_status": target,
	}).Info("Booking status transition applied")

	return &updated, source, nil
}

// syncWorkerGeo обновляет геоиндекс после коммита перехода; ошибки
// не фатальны - индекс восстановит RebuildGeoIndex
func (s *LifecycleService) syncWorkerGeo(ctx context.Context, workerID uuid.UUID, target models.BookingStatus) {
	if target != models.BookingStatusAccepted && target != models.BookingStatusCompleted {
		return
	}

	worker, err := s.workers.GetWorker(ctx, workerID)
	if err != nil {
		s.log.WithError(err).WithField("worker_id", workerID).Error("Failed to reload worker for geo sync")
		return
	}
	s.workers.syncGeoIndex(ctx, worker)
}

// ReconcileAvailability восстанавливает инвариант "не более одного
// незавершенного бронирования на исполнителя": доступность каждого
// исполнителя пересчитывается из множества его незавершенных
// бронирований. Запускается при старте процесса на случай падения
// между коммитом и внешними эффектами.
func (s *LifecycleService) ReconcileAvailability(ctx context.Context) error {
	nonTerminal := pq.Array([]string{
		string(models.BookingStatusPending),
		string(models.BookingStatusAccepted),
	})

	// Исполнители, застрявшие в недоступности без активного бронирования
	freedQuery := `
		UPDATE workers w
		SET is_available = true, updated_at = $1
		WHERE w.is_available = false
		  AND NOT EXISTS (
			SELECT 1 FROM bookings b
			WHERE b.worker_id = w.id AND b.status = ANY($2)
		  )
	`
	freed, err := s.db.ExecContext(ctx, freedQuery, time.Now(), nonTerminal)
	if err != nil {
		return fmt.Errorf("failed to reconcile stuck-unavailable workers: %w", err)
	}

	// Исполнители, помеченные доступными при активном бронировании
	busyQuery := `
		UPDATE workers w
		SET is_available = false, updated_at = $1
		WHERE w.is_available = true
		  AND EXISTS (
			SELECT 1 FROM bookings b
			WHERE b.worker_id = w.id AND b.status = $2
		  )
	`
	busy, err := s.db.ExecContext(ctx, busyQuery, time.Now(), models.BookingStatusAccepted)
	if err != nil {
		return fmt.Errorf("failed to reconcile stuck-available workers: %w", err)
	}

	freedRows, _ := freed.RowsAffected()
	busyRows, _ := busy.RowsAffected()
	if freedRows > 0 || busyRows > 0 {
		s.log.WithFields(map[string]interface{}{
			"freed":       freedRows,
			"marked_busy": busyRows,
		}).Info("Worker availability reconciled")
	}

	return s.workers.RebuildGeoIndex(ctx)
}
