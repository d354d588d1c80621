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

const bookingColumns = `id, customer_id, worker_id, amount, media_urls, status,
		       booked_at, updated_at, completed_at`

// BookingService представляет хранилище бронирований: создание,
// чтение и выборки. Переходы статуса выполняет LifecycleService.
type BookingService struct {
	db  *database.DB
	log *logger.Logger
}

// NewBookingService создает новый экземпляр сервиса бронирований
func NewBookingService(db *database.DB, log *logger.Logger) *BookingService {
	return &BookingService{
		db:  db,
		log: log,
	}
}

// CreateBooking создает бронирование в статусе pending вместе
// с платежной записью в одной транзакции
func (s *BookingService) CreateBooking(ctx context.Context, req *models.CreateBookingRequest) (*models.Booking, error) {
	if req.CustomerID == uuid.Nil {
		return nil, apperrors.BadRequest("customer_id is required")
	}
	if req.WorkerID == uuid.Nil {
		return nil, apperrors.BadRequest("worker_id is required")
	}
	if req.Amount <= 0 {
		return nil, apperrors.BadRequest("amount must be positive, got %v", req.Amount)
	}

	now := time.Now()
	booking := &models.Booking{
		ID:         uuid.New(),
		CustomerID: req.CustomerID,
		WorkerID:   req.WorkerID,
		Amount:     req.Amount,
		MediaURLs:  req.MediaURLs,
		Status:     models.BookingStatusPending,
		BookedAt:   now,
		UpdatedAt:  now,
	}
	if booking.MediaURLs == nil {
		booking.MediaURLs = []string{}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	bookingQuery := `
		INSERT INTO bookings (id, customer_id, worker_id, amount, media_urls, status, booked_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = tx.Exec(bookingQuery, booking.ID, booking.CustomerID, booking.WorkerID,
		booking.Amount, pq.Array(booking.MediaURLs), booking.Status, booking.BookedAt, booking.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	paymentQuery := `
		INSERT INTO payments (id, booking_id, amount, status, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err = tx.Exec(paymentQuery, uuid.New(), booking.ID, booking.Amount, models.PaymentStatusPending, now)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment record: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.log.WithFields(map[string]interface{}{
		"booking_id":  booking.ID,
		"customer_id": booking.CustomerID,
		"worker_id":   booking.WorkerID,
		"amount":      booking.Amount,
	}).Info("Booking created successfully")

	return booking, nil
}

// GetBooking получает бронирование по ID
func (s *BookingService) GetBooking(ctx context.Context, bookingID uuid.UUID) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	booking := &models.Booking{}
	err := s.db.QueryRowContext(ctx, query, bookingID).Scan(
		&booking.ID, &booking.CustomerID, &booking.WorkerID, &booking.Amount,
		pq.Array(&booking.MediaURLs), &booking.Status,
		&booking.BookedAt, &booking.UpdatedAt, &booking.CompletedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.NotFound("booking", bookingID)
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}

	return booking, nil
}

// ListBookings возвращает бронирования стороны (заказчика или
// исполнителя), новые первыми, с вложенными проекциями
func (s *BookingService) ListBookings(ctx context.Context, userID uuid.UUID, role string) ([]*models.BookingDetails, error) {
	if userID == uuid.Nil {
		return nil, apperrors.BadRequest("userId is required")
	}

	var filter string
	switch role {
	case "customer":
		filter = "customer_id = $1"
	case "worker":
		filter = "worker_id = $1"
	case "":
		return nil, apperrors.BadRequest("role is required")
	default:
		return nil, apperrors.BadRequest("role must be customer or worker, got %q", role)
	}

	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE ` + filter + `
		ORDER BY booked_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer rows.Close()

	var details []*models.BookingDetails
	var bookingIDs, workerIDs, customerIDs []string
	for rows.Next() {
		booking := models.Booking{}
		if err := rows.Scan(
			&booking.ID, &booking.CustomerID, &booking.WorkerID, &booking.Amount,
			pq.Array(&booking.MediaURLs), &booking.Status,
			&booking.BookedAt, &booking.UpdatedAt, &booking.CompletedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		details = append(details, &models.BookingDetails{Booking: booking})
		bookingIDs = append(bookingIDs, booking.ID.String())
		workerIDs = append(workerIDs, booking.WorkerID.String())
		customerIDs = append(customerIDs, booking.CustomerID.String())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read bookings: %w", err)
	}
	if len(details) == 0 {
		return []*models.BookingDetails{}, nil
	}

	if err := s.attachProjections(ctx, details, bookingIDs, workerIDs, customerIDs); err != nil {
		return nil, err
	}

	return details, nil
}

// attachProjections загружает вложенные проекции одним запросом
// на таблицу вместо запроса на бронирование
func (s *BookingService) attachProjections(ctx context.Context, details []*models.BookingDetails, bookingIDs, workerIDs, customerIDs []string) error {
	workers, err := s.loadWorkers(ctx, workerIDs)
	if err != nil {
		return err
	}
	customers, err := s.loadCustomers(ctx, customerIDs)
	if err != nil {
		return err
	}
	payments, err := s.loadPayments(ctx, bookingIDs)
	if err != nil {
		return err
	}
	reviews, err := s.loadReviews(ctx, bookingIDs)
	if err != nil {
		return err
	}

	for _, d := range details {
		d.Worker = workers[d.WorkerID]
		d.Customer = customers[d.CustomerID]
		d.Payment = payments[d.Booking.ID]
		d.Review = reviews[d.Booking.ID]
	}

	return nil
}

func (s *BookingService) loadWorkers(ctx context.Context, ids []string) (map[uuid.UUID]*models.Worker, error) {
	query := `SELECT ` + workerColumns + ` FROM workers WHERE id = ANY($1)`

	rows, err := s.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to load workers: %w", err)
	}
	defer rows.Close()

	workers, err := scanWorkers(rows)
	if err != nil {
		return nil, err
	}

	result := make(map[uuid.UUID]*models.Worker, len(workers))
	for _, w := range workers {
		result[w.ID] = w
	}
	return result, nil
}

func (s *BookingService) loadCustomers(ctx context.Context, ids []string) (map[uuid.UUID]*models.Customer, error) {
	query := `SELECT id, name, phone FROM customers WHERE id = ANY($1)`

	rows, err := s.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to load customers: %w", err)
	}
	defer rows.Close()

	result := make(map[uuid.UUID]*models.Customer)
	for rows.Next() {
		c := &models.Customer{}
		if err := rows.Scan(&c.ID, &c.Name, &c.Phone); err != nil {
			return nil, fmt.Errorf("failed to scan customer: %w", err)
		}
		result[c.ID] = c
	}
	return result, rows.Err()
}

func (s *BookingService) loadPayments(ctx context.Context, bookingIDs []string) (map[uuid.UUID]*models.Payment, error) {
	query := `SELECT id, booking_id, amount, status, created_at FROM payments WHERE booking_id = ANY($1)`

	rows, err := s.db.QueryContext(ctx, query, pq.Array(bookingIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to load payments: %w", err)
	}
	defer rows.Close()

	result := make(map[uuid.UUID]*models.Payment)
	for rows.Next() {
		p := &models.Payment{}
		if err := rows.Scan(&p.ID, &p.BookingID, &p.Amount, &p.Status, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		result[p.BookingID] = p
	}
	return result, rows.Err()
}

func (s *BookingService) loadReviews(ctx context.Context, bookingIDs []string) (map[uuid.UUID]*models.Review, error) {
	query := `SELECT id, booking_id, worker_id, customer_id, rating, comment, created_at FROM reviews WHERE booking_id = ANY($1)`

	rows, err := s.db.QueryContext(ctx, query, pq.Array(bookingIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to load reviews: %w", err)
	}
	defer rows.Close()

	result := make(map[uuid.UUID]*models.Review)
	for rows.Next() {
		r := &models.Review{}
		if err := rows.Scan(&r.ID, &r.BookingID, &r.WorkerID, &r.CustomerID, &r.Rating, &r.Comment, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		result[r.BookingID] = r
	}
	return result, rows.Err()
}
