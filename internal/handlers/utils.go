package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"booking-system/internal/apperrors"
	"booking-system/internal/logger"

	"github.com/google/uuid"
)

// ErrorResponse представляет структуру ответа с ошибкой
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// writeJSONResponse отправляет JSON ответ
func writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// writeErrorResponse отправляет ответ с ошибкой
func writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	response := ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	}
	writeJSONResponse(w, statusCode, response)
}

// writeAppError переводит классифицированную ошибку в HTTP ответ;
// неклассифицированные ошибки логируются и отдаются как 500 без деталей
func writeAppError(w http.ResponseWriter, log *logger.Logger, err error, operation string) {
	status := apperrors.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		log.WithError(err).Error("Failed to " + operation)
		writeErrorResponse(w, status, "Failed to "+operation)
		return
	}
	writeErrorResponse(w, status, err.Error())
}

// extractUUIDFromPath извлекает UUID из пути URL
func extractUUIDFromPath(path, prefix string) (uuid.UUID, error) {
	if !strings.HasPrefix(path, prefix) {
		return uuid.Nil, fmt.Errorf("invalid path format")
	}

	// Убираем префикс и получаем ID
	idStr := strings.TrimPrefix(path, prefix)

	// Убираем возможный суффикс (например, /reviews)
	parts := strings.Split(idStr, "/")
	if len(parts) == 0 || parts[0] == "" {
		return uuid.Nil, fmt.Errorf("missing ID in path")
	}

	id, err := uuid.Parse(parts[0])
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid UUID format: %w", err)
	}

	return id, nil
}
