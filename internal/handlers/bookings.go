package handlers

import (
	"encoding/json"
	"net/http"

	"booking-system/internal/apperrors"
	"booking-system/internal/kafka"
	"booking-system/internal/logger"
	"booking-system/internal/models"
	"booking-system/internal/services"

	"github.com/google/uuid"
)

// BookingHandler представляет обработчик бронирований
type BookingHandler struct {
	bookings     *services.BookingService
	lifecycle    *services.LifecycleService
	producer     *kafka.Producer
	cacheService *services.CacheService
	log          *logger.Logger
}

// NewBookingHandler создает новый обработчик бронирований
func NewBookingHandler(bookings *services.BookingService, lifecycle *services.LifecycleService, producer *kafka.Producer, cacheService *services.CacheService, log *logger.Logger) *BookingHandler {
	return &BookingHandler{
		bookings:     bookings,
		lifecycle:    lifecycle,
		producer:     producer,
		cacheService: cacheService,
		log:          log,
	}
}

// CreateBookingResponse представляет ответ на создание бронирования
type CreateBookingResponse struct {
	BookingID uuid.UUID `json:"booking_id"`
	Amount    float64   `json:"amount"`
	MediaURLs []string  `json:"media_urls"`
}

// CreateBooking создает бронирование и уведомляет целевого исполнителя
func (h *BookingHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req models.CreateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	booking, err := h.bookings.CreateBooking(r.Context(), &req)
	if err != nil {
		writeAppError(w, h.log, err, "create booking")
		return
	}

	// Публикация события для исполнителя, ожидающего входящие заявки.
	// Бронирование уже создано, клиенту ошибку не возвращаем.
	if err := h.producer.PublishBookingCreated(booking); err != nil {
		h.log.WithError(err).WithField("booking_id", booking.ID).Error("Failed to publish booking created event")
	}

	// Кеширование бронирования
	cacheKey := services.BuildKey("booking", booking.ID.String())
	if err := h.cacheService.Set(r.Context(), cacheKey, booking, h.cacheService.GetDefaultTTL()); err != nil {
		h.log.WithError(err).Error("Failed to cache booking")
	}

	writeJSONResponse(w, http.StatusCreated, CreateBookingResponse{
		BookingID: booking.ID,
		Amount:    booking.Amount,
		MediaURLs: booking.MediaURLs,
	})
}

// GetBooking получает бронирование по ID
func (h *BookingHandler) GetBooking(w http.ResponseWriter, r *http.Request) {
	bookingID, err := extractUUIDFromPath(r.URL.Path, "/api/bookings/")
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid booking ID")
		return
	}

	// Попытка получить из кеша
	cacheKey := services.BuildKey("booking", bookingID.String())
	var cached models.Booking
	found, _ := h.cacheService.Get(r.Context(), cacheKey, &cached)
	if found {
		writeJSONResponse(w, http.StatusOK, &cached)
		return
	}

	booking, err := h.bookings.GetBooking(r.Context(), bookingID)
	if err != nil {
		writeAppError(w, h.log, err, "get booking")
		return
	}

	if err := h.cacheService.Set(r.Context(), cacheKey, booking, h.cacheService.GetDefaultTTL()); err != nil {
		h.log.WithError(err).Error("Failed to cache booking")
	}

	writeJSONResponse(w, http.StatusOK, booking)
}

// UpdateBookingStatus применяет переход статуса бронирования.
// Это единственная точка мутации машины состояний: клиент передает
// целевой статус, сервер проверяет легальность перехода.
func (h *BookingHandler) UpdateBookingStatus(w http.ResponseWriter, r *http.Request) {
	bookingID, err := extractUUIDFromPath(r.URL.Path, "/api/bookings/")
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid booking ID")
		return
	}

	var req models.UpdateBookingStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Status == "" {
		writeErrorResponse(w, http.StatusBadRequest, "status is required")
		return
	}

	target, ok := models.ParseBookingStatus(req.Status)
	if !ok {
		writeAppError(w, h.log, apperrors.BadRequest("unknown status %q", req.Status), "update booking status")
		return
	}

	booking, oldStatus, err := h.lifecycle.Transition(r.Context(), bookingID, target)
	if err != nil {
		writeAppError(w, h.log, err, "update booking status")
		return
	}

	// Событие перехода публикуется после коммита; порядок событий
	// одного бронирования совпадает с порядком коммитов, так как
	// переходы сериализованы условным UPDATE
	if err := h.producer.PublishBookingStatusChanged(booking, oldStatus); err != nil {
		h.log.WithError(err).WithField("booking_id", bookingID).Error("Failed to publish booking status changed event")
	}

	// Инвалидация кеша бронирования и затронутого исполнителя
	bookingKey := services.BuildKey("booking", bookingID.String())
	workerKey := services.BuildKey("worker", booking.WorkerID.String())
	if err := h.cacheService.Delete(r.Context(), bookingKey, workerKey); err != nil {
		h.log.WithError(err).Error("Failed to invalidate booking cache")
	}

	writeJSONResponse(w, http.StatusOK, booking)
}

// ListBookings возвращает бронирования стороны, новые первыми
func (h *BookingHandler) ListBookings(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	userIDStr := query.Get("userId")
	if userIDStr == "" {
		writeErrorResponse(w, http.StatusBadRequest, "userId is required")
		return
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid userId")
		return
	}

	bookings, err := h.bookings.ListBookings(r.Context(), userID, query.Get("role"))
	if err != nil {
		writeAppError(w, h.log, err, "list bookings")
		return
	}

	writeJSONResponse(w, http.StatusOK, bookings)
}
