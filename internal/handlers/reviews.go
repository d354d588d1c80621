package handlers

import (
	"encoding/json"
	"net/http"

	"booking-system/internal/logger"
	"booking-system/internal/models"
	"booking-system/internal/services"
)

// ReviewHandler представляет обработчик отзывов
type ReviewHandler struct {
	reviews *services.ReviewService
	log     *logger.Logger
}

// NewReviewHandler создает новый обработчик отзывов
func NewReviewHandler(reviews *services.ReviewService, log *logger.Logger) *ReviewHandler {
	return &ReviewHandler{
		reviews: reviews,
		log:     log,
	}
}

// CreateReview создает отзыв о завершенном бронировании
func (h *ReviewHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req models.CreateReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	review, err := h.reviews.CreateReview(r.Context(), &req)
	if err != nil {
		writeAppError(w, h.log, err, "create review")
		return
	}

	writeJSONResponse(w, http.StatusCreated, review)
}
