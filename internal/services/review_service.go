package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"booking-system/internal/apperrors"
	"booking-system/internal/database"
	"booking-system/internal/logger"
	"booking-system/internal/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// ReviewService представляет сервис отзывов; средний рейтинг
// пересчитывается из отзывов на каждый запрос
type ReviewService struct {
	db  *database.DB
	log *logger.Logger
}

// NewReviewService создает новый экземпляр сервиса отзывов
func NewReviewService(db *database.DB, log *logger.Logger) *ReviewService {
	return &ReviewService{
		db:  db,
		log: log,
	}
}

// CreateReview создает отзыв о завершенном бронировании.
// Отзыв допустим только после перехода бронирования в completed
// и только один на бронирование.
func (s *ReviewService) CreateReview(ctx context.Context, req *models.CreateReviewRequest) (*models.Review, error) {
	if req.Rating < 1 || req.Rating > 5 {
		return nil, apperrors.BadRequest("rating must be in [1, 5], got %d", req.Rating)
	}
	if req.WorkerID == uuid.Nil {
		return nil, apperrors.BadRequest("worker_id is required")
	}
	if req.CustomerID == uuid.Nil {
		return nil, apperrors.BadRequest("customer_id is required")
	}
	if req.BookingID == uuid.Nil {
		return nil, apperrors.BadRequest("booking_id is required")
	}

	var status models.BookingStatus
	var workerID, customerID uuid.UUID
	err := s.db.QueryRowContext(ctx,
		`SELECT status, worker_id, customer_id FROM bookings WHERE id = $1`,
		req.BookingID,
	).Scan(&status, &workerID, &customerID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.NotFound("booking", req.BookingID)
		}
		return nil, fmt.Errorf("failed to check booking: %w", err)
	}

	if status != models.BookingStatusCompleted {
		return nil, apperrors.BadRequest("booking %s is not completed", req.BookingID)
	}
	if workerID != req.WorkerID || customerID != req.CustomerID {
		return nil, apperrors.BadRequest("worker_id/customer_id do not match booking %s", req.BookingID)
	}

	review := &models.Review{
		ID:         uuid.New(),
		BookingID:  req.BookingID,
		WorkerID:   req.WorkerID,
		CustomerID: req.CustomerID,
		Rating:     req.Rating,
		Comment:    req.Comment,
		CreatedAt:  time.Now(),
	}

	query := `
		INSERT INTO reviews (id, booking_id, worker_id, customer_id, rating, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = s.db.ExecContext(ctx, query, review.ID, review.BookingID, review.WorkerID,
		review.CustomerID, review.Rating, review.Comment, review.CreatedAt)
	if err != nil {
		// reviews.booking_id под уникальным ограничением
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return nil, apperrors.BadRequest("booking %s already has a review", req.BookingID)
		}
		return nil, fmt.Errorf("failed to create review: %w", err)
	}

	s.log.WithFields(map[string]interface{}{
		"review_id":  review.ID,
		"booking_id": review.BookingID,
		"worker_id":  review.WorkerID,
		"rating":     review.Rating,
	}).Info("Review created successfully")

	return review, nil
}

// ListByWorker возвращает отзывы исполнителя с проекцией заказчика,
// новые первыми
func (s *ReviewService) ListByWorker(ctx context.Context, workerID uuid.UUID) ([]*models.ReviewWithCustomer, error) {
	query := `
		SELECT r.id, r.booking_id, r.worker_id, r.customer_id, r.rating, r.comment, r.created_at,
		       c.name
		FROM reviews r
		JOIN customers c ON c.id = r.customer_id
		WHERE r.worker_id = $1
		ORDER BY r.created_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query, workerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer rows.Close()

	reviews := []*models.ReviewWithCustomer{}
	for rows.Next() {
		r := &models.ReviewWithCustomer{}
		if err := rows.Scan(&r.ID, &r.BookingID, &r.WorkerID, &r.CustomerID,
			&r.Rating, &r.Comment, &r.CreatedAt, &r.CustomerName); err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, r)
	}

	return reviews, rows.Err()
}

// AverageRatings считает средний рейтинг каждого исполнителя из списка;
// исполнители без отзывов в результат не попадают (рейтинг 0)
func (s *ReviewService) AverageRatings(ctx context.Context, workerIDs []uuid.UUID) (map[uuid.UUID]float64, error) {
	result := make(map[uuid.UUID]float64, len(workerIDs))
	if len(workerIDs) == 0 {
		return result, nil
	}

	ids := make([]string, 0, len(workerIDs))
	for _, id := range workerIDs {
		ids = append(ids, id.String())
	}

	query := `
		SELECT worker_id, AVG(rating)
		FROM reviews
		WHERE worker_id = ANY($1)
		GROUP BY worker_id
	`

	rows, err := s.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to compute average ratings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var workerID uuid.UUID
		var avg float64
		if err := rows.Scan(&workerID, &avg); err != nil {
			return nil, fmt.Errorf("failed to scan average rating: %w", err)
		}
		result[workerID] = avg
	}

	return result, rows.Err()
}
