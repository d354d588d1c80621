package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"booking-system/internal/apperrors"
	"booking-system/internal/kafka"
	"booking-system/internal/logger"
	"booking-system/internal/models"
	"booking-system/internal/ranking"
	"booking-system/internal/services"
)

// WorkerHandler представляет обработчик исполнителей: поиск,
// онбординг, карточка, доступность, отзывы
type WorkerHandler struct {
	matching     *services.MatchingService
	workers      *services.WorkerService
	reviews      *services.ReviewService
	producer     *kafka.Producer
	cacheService *services.CacheService
	log          *logger.Logger
}

// NewWorkerHandler создает новый обработчик исполнителей
func NewWorkerHandler(matching *services.MatchingService, workers *services.WorkerService, reviews *services.ReviewService, producer *kafka.Producer, cacheService *services.CacheService, log *logger.Logger) *WorkerHandler {
	return &WorkerHandler{
		matching:     matching,
		workers:      workers,
		reviews:      reviews,
		producer:     producer,
		cacheService: cacheService,
		log:          log,
	}
}

// SearchWorkers ищет доступных исполнителей вокруг точки.
// Все параметры обязательны: отсутствующий lat/lng/radius/sortBy - 400,
// значения по умолчанию не подставляются.
func (h *WorkerHandler) SearchWorkers(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	lat, err := parseRequiredFloat(query.Get("lat"), "lat")
	if err != nil {
		writeAppError(w, h.log, err, "search workers")
		return
	}
	lng, err := parseRequiredFloat(query.Get("lng"), "lng")
	if err != nil {
		writeAppError(w, h.log, err, "search workers")
		return
	}
	radius, err := parseRequiredFloat(query.Get("radius"), "radius")
	if err != nil {
		writeAppError(w, h.log, err, "search workers")
		return
	}
	mode, err := ranking.ParseMode(query.Get("sortBy"))
	if err != nil {
		writeAppError(w, h.log, err, "search workers")
		return
	}

	workers, err := h.matching.FindNearby(r.Context(), lat, lng, radius, mode)
	if err != nil {
		writeAppError(w, h.log, err, "search workers")
		return
	}

	writeJSONResponse(w, http.StatusOK, workers)
}

// CreateWorker регистрирует нового исполнителя
func (h *WorkerHandler) CreateWorker(w http.ResponseWriter, r *http.Request) {
	var req models.CreateWorkerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	worker, err := h.workers.CreateWorker(r.Context(), &req)
	if err != nil {
		writeAppError(w, h.log, err, "create worker")
		return
	}

	// Публикация события фиксации позиции
	if err := h.producer.PublishWorkerLocationSet(worker.ID, *worker.Latitude, *worker.Longitude); err != nil {
		h.log.WithError(err).Error("Failed to publish worker location event")
	}

	// Кеширование исполнителя
	cacheKey := services.BuildKey("worker", worker.ID.String())
	if err := h.cacheService.Set(r.Context(), cacheKey, worker, h.cacheService.GetDefaultTTL()); err != nil {
		h.log.WithError(err).Error("Failed to cache worker")
	}

	writeJSONResponse(w, http.StatusCreated, worker)
}

// GetWorker возвращает карточку исполнителя с расстоянием до клиента,
// если клиент передал свои координаты
func (h *WorkerHandler) GetWorker(w http.ResponseWriter, r *http.Request) {
	workerID, err := extractUUIDFromPath(r.URL.Path, "/api/workers/")
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid worker ID")
		return
	}

	query := r.URL.Query()
	lat, err := parseOptionalFloat(query.Get("lat"), "lat")
	if err != nil {
		writeAppError(w, h.log, err, "get worker")
		return
	}
	lng, err := parseOptionalFloat(query.Get("lng"), "lng")
	if err != nil {
		writeAppError(w, h.log, err, "get worker")
		return
	}

	// Попытка получить из кеша; расстояние считается для каждого
	// клиента отдельно поверх кешированной записи
	cacheKey := services.BuildKey("worker", workerID.String())
	var cached models.Worker
	found, _ := h.cacheService.Get(r.Context(), cacheKey, &cached)
	if found {
		detail, err := h.matching.DetailFor(&cached, lat, lng)
		if err != nil {
			writeAppError(w, h.log, err, "get worker")
			return
		}
		writeJSONResponse(w, http.StatusOK, detail)
		return
	}

	detail, err := h.matching.WorkerDetail(r.Context(), workerID, lat, lng)
	if err != nil {
		writeAppError(w, h.log, err, "get worker")
		return
	}

	if err := h.cacheService.Set(r.Context(), cacheKey, detail.Worker, h.cacheService.GetDefaultTTL()); err != nil {
		h.log.WithError(err).Error("Failed to cache worker")
	}

	writeJSONResponse(w, http.StatusOK, detail)
}

// UpdateAvailability меняет доступность исполнителя; поле is_available
// обязательно и строго булево
func (h *WorkerHandler) UpdateAvailability(w http.ResponseWriter, r *http.Request) {
	workerID, err := extractUUIDFromPath(r.URL.Path, "/api/workers/")
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid worker ID")
		return
	}

	var req models.UpdateAvailabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.IsAvailable == nil {
		writeErrorResponse(w, http.StatusBadRequest, "is_available must be a boolean")
		return
	}

	worker, err := h.workers.UpdateAvailability(r.Context(), workerID, *req.IsAvailable)
	if err != nil {
		writeAppError(w, h.log, err, "update worker availability")
		return
	}

	// Публикация события смены доступности
	if err := h.producer.PublishWorkerStatusChanged(workerID, worker.IsAvailable); err != nil {
		h.log.WithError(err).Error("Failed to publish worker status changed event")
	}

	// Инвалидация кеша
	cacheKey := services.BuildKey("worker", workerID.String())
	if err := h.cacheService.Delete(r.Context(), cacheKey); err != nil {
		h.log.WithError(err).Error("Failed to invalidate worker cache")
	}

	h.log.WithField("worker_id", workerID).WithField("is_available", worker.IsAvailable).Info("Worker availability updated")
	writeJSONResponse(w, http.StatusOK, worker)
}

// GetWorkerReviews возвращает отзывы исполнителя
func (h *WorkerHandler) GetWorkerReviews(w http.ResponseWriter, r *http.Request) {
	workerID, err := extractUUIDFromPath(r.URL.Path, "/api/workers/")
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid worker ID")
		return
	}

	reviews, err := h.reviews.ListByWorker(r.Context(), workerID)
	if err != nil {
		writeAppError(w, h.log, err, "list worker reviews")
		return
	}

	writeJSONResponse(w, http.StatusOK, reviews)
}

// parseRequiredFloat разбирает обязательный числовой параметр запроса
func parseRequiredFloat(value, name string) (float64, error) {
	if value == "" {
		return 0, apperrors.BadRequest("%s is required", name)
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, apperrors.BadRequest("%s must be a number, got %q", name, value)
	}
	return parsed, nil
}

// parseOptionalFloat разбирает необязательный числовой параметр запроса
func parseOptionalFloat(value, name string) (*float64, error) {
	if value == "" {
		return nil, nil
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, apperrors.BadRequest("%s must be a number, got %q", name, value)
	}
	return &parsed, nil
}
