package handlers

import (
	"net/http"
	"time"

	"booking-system/internal/logger"
	"booking-system/internal/middleware"
	"booking-system/internal/services"

	"github.com/sirupsen/logrus"
)

// RateLimitHandler обрабатывает запросы связанные с лимитами
type RateLimitHandler struct {
	rateLimiter *services.RateLimiterService
	log         *logger.Logger
}

// NewRateLimitHandler создает новый RateLimitHandler
func NewRateLimitHandler(rateLimiter *services.RateLimiterService, log *logger.Logger) *RateLimitHandler {
	return &RateLimitHandler{
		rateLimiter: rateLimiter,
		log:         log,
	}
}

// GetStatus возвращает текущий статус лимита для клиента
func (h *RateLimitHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	ip := middleware.GetClientIP(r)

	// Статус читается без инкремента счетчика
	result, err := h.rateLimiter.GetStatus(r.Context(), ip, false)
	if err != nil {
		h.log.WithFields(logrus.Fields{
			"ip":    ip,
			"error": err,
		}).Error("Failed to get rate limit status")
		writeErrorResponse(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	response := map[string]interface{}{
		"ip":        ip,
		"limit":     result.Limit,
		"remaining": result.Remaining,
		"reset_at":  result.ResetAt.Format(time.RFC3339),
		"is_banned": !result.Allowed,
	}

	if !result.Allowed {
		response["banned_until"] = result.BannedUntil.Format(time.RFC3339)
		response["retry_after"] = result.RetryAfter
	}

	writeJSONResponse(w, http.StatusOK, response)
}
