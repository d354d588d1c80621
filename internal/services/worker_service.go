package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"booking-system/internal/apperrors"
	"booking-system/internal/database"
	"booking-system/internal/geo"
	"booking-system/internal/logger"
	"booking-system/internal/models"
	"booking-system/internal/redis"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const workerColumns = `id, name, phone, image, is_available, skills, latitude, longitude,
		       created_at, updated_at, last_seen_at`

// WorkerService представляет сервис для работы с исполнителями.
// Геоиндекс в Redis - производная проекция позиции и доступности,
// она обновляется сквозной записью из мутаций этого сервиса.
type WorkerService struct {
	db     *database.DB
	redis  *redis.Client
	geoKey string
	log    *logger.Logger
}

// NewWorkerService создает новый экземпляр сервиса исполнителей
func NewWorkerService(db *database.DB, redisClient *redis.Client, geoKey string, log *logger.Logger) *WorkerService {
	return &WorkerService{
		db:     db,
		redis:  redisClient,
		geoKey: geoKey,
		log:    log,
	}
}

// CreateWorker регистрирует нового исполнителя (онбординг)
func (s *WorkerService) CreateWorker(ctx context.Context, req *models.CreateWorkerRequest) (*models.Worker, error) {
	if req.Name == "" {
		return nil, apperrors.BadRequest("worker name is required")
	}
	if req.Phone == "" {
		return nil, apperrors.BadRequest("worker phone is required")
	}
	if req.Latitude == nil || req.Longitude == nil {
		return nil, apperrors.BadRequest("latitude and longitude are required")
	}
	if err := geo.Validate(*req.Latitude, *req.Longitude); err != nil {
		return nil, err
	}

	now := time.Now()
	worker := &models.Worker{
		ID:          uuid.New(),
		Name:        req.Name,
		Phone:       req.Phone,
		IsAvailable: req.IsAvailable,
		Skills:      req.Skills,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if worker.Skills == nil {
		worker.Skills = []string{}
	}

	query := `
		INSERT INTO workers (id, name, phone, is_available, skills, latitude, longitude, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := s.db.ExecContext(ctx, query, worker.ID, worker.Name, worker.Phone,
		worker.IsAvailable, pq.Array(worker.Skills), worker.Latitude, worker.Longitude,
		worker.CreatedAt, worker.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create worker: %w", err)
	}

	s.syncGeoIndex(ctx, worker)

	s.log.WithFields(map[string]interface{}{
		"worker_id":   worker.ID,
		"worker_name": worker.Name,
	}).Info("Worker created successfully")

	return worker, nil
}

// GetWorker получает исполнителя по ID
func (s *WorkerService) GetWorker(ctx context.Context, workerID uuid.UUID) (*models.Worker, error) {
	query := `SELECT ` + workerColumns + ` FROM workers WHERE id = $1`

	worker, err := scanWorker(s.db.QueryRowContext(ctx, query, workerID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.NotFound("worker", workerID)
		}
		return nil, fmt.Errorf("failed to get worker: %w", err)
	}

	return worker, nil
}

// GetWorkersByIDs получает исполнителей по списку ID
func (s *WorkerService) GetWorkersByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.Worker, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	strIDs := make([]string, 0, len(ids))
	for _, id := range ids {
		strIDs = append(strIDs, id.String())
	}

	query := `SELECT ` + workerColumns + ` FROM workers WHERE id = ANY($1)`

	rows, err := s.db.QueryContext(ctx, query, pq.Array(strIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to get workers: %w", err)
	}
	defer rows.Close()

	return scanWorkers(rows)
}

// ListAvailableWithPosition возвращает доступных исполнителей с известными
// координатами. Служит запасным путем поиска, когда геоиндекс недоступен.
func (s *WorkerService) ListAvailableWithPosition(ctx context.Context) ([]*models.Worker, error) {
	query := `
		SELECT ` + workerColumns + `
		FROM workers
		WHERE is_available = true AND latitude IS NOT NULL AND longitude IS NOT NULL
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list available workers: %w", err)
	}
	defer rows.Close()

	return scanWorkers(rows)
}

// UpdateAvailability обновляет доступность исполнителя и геоиндекс
func (s *WorkerService) UpdateAvailability(ctx context.Context, workerID uuid.UUID, isAvailable bool) (*models.Worker, error) {
	query := `
		UPDATE workers
		SET is_available = $1, updated_at = $2, last_seen_at = $2
		WHERE id = $3
	`

	now := time.Now()
	result, err := s.db.ExecContext(ctx, query, isAvailable, now, workerID)
	if err != nil {
		return nil, fmt.Errorf("failed to update worker availability: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, apperrors.NotFound("worker", workerID)
	}

	worker, err := s.GetWorker(ctx, workerID)
	if err != nil {
		return nil, err
	}

	s.syncGeoIndex(ctx, worker)

	s.log.WithFields(map[string]interface{}{
		"worker_id":    workerID,
		"is_available": isAvailable,
	}).Info("Worker availability updated")

	return worker, nil
}

// setAvailabilityTx переключает доступность внутри транзакции перехода
// статуса бронирования: запись статуса и побочный эффект - одна
// логическая единица
func (s *WorkerService) setAvailabilityTx(tx *sql.Tx, workerID uuid.UUID, isAvailable bool) error {
	query := `
		UPDATE workers
		SET is_available = $1, updated_at = $2
		WHERE id = $3
	`

	_, err := tx.Exec(query, isAvailable, time.Now(), workerID)
	if err != nil {
		return fmt.Errorf("failed to toggle worker availability: %w", err)
	}

	return nil
}

// syncGeoIndex приводит геоиндекс в соответствие с состоянием исполнителя.
// Ошибки не фатальны: поиск умеет работать без индекса, а RebuildGeoIndex
// восстанавливает его целиком.
func (s *WorkerService) syncGeoIndex(ctx context.Context, worker *models.Worker) {
	var err error
	if worker.IsAvailable && worker.HasPosition() {
		err = s.redis.GeoAdd(ctx, s.geoKey, worker.ID.String(), *worker.Latitude, *worker.Longitude)
	} else {
		err = s.redis.GeoRemove(ctx, s.geoKey, worker.ID.String())
	}
	if err != nil {
		s.log.WithError(err).WithField("worker_id", worker.ID).Error("Failed to sync geo index")
	}
}

// RebuildGeoIndex перестраивает геоиндекс из авторитетного хранилища.
// Запускается при старте и после реконсиляции доступности.
func (s *WorkerService) RebuildGeoIndex(ctx context.Context) error {
	workers, err := s.ListAvailableWithPosition(ctx)
	if err != nil {
		return fmt.Errorf("failed to rebuild geo index: %w", err)
	}

	count := 0
	for _, worker := range workers {
		if err := s.redis.GeoAdd(ctx, s.geoKey, worker.ID.String(), *worker.Latitude, *worker.Longitude); err != nil {
			s.log.WithError(err).WithField("worker_id", worker.ID).Error("Failed to index worker")
			continue
		}
		count++
	}

	s.log.WithField("indexed", count).Info("Geo index rebuilt")
	return nil
}

// scanWorker читает исполнителя из строки результата
func scanWorker(row *sql.Row) (*models.Worker, error) {
	worker := &models.Worker{}
	err := row.Scan(
		&worker.ID, &worker.Name, &worker.Phone, &worker.Image, &worker.IsAvailable,
		pq.Array(&worker.Skills), &worker.Latitude, &worker.Longitude,
		&worker.CreatedAt, &worker.UpdatedAt, &worker.LastSeenAt,
	)
	if err != nil {
		return nil, err
	}
	return worker, nil
}

// scanWorkers читает исполнителей из множества строк
func scanWorkers(rows *sql.Rows) ([]*models.Worker, error) {
	var workers []*models.Worker
	for rows.Next() {
		worker := &models.Worker{}
		if err := rows.Scan(
			&worker.ID, &worker.Name, &worker.Phone, &worker.Image, &worker.IsAvailable,
			pq.Array(&worker.Skills), &worker.Latitude, &worker.Longitude,
			&worker.CreatedAt, &worker.UpdatedAt, &worker.LastSeenAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan worker: %w", err)
		}
		workers = append(workers, worker)
	}
	return workers, rows.Err()
}
