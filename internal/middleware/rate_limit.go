package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"booking-system/internal/logger"
	"booking-system/internal/services"

	"github.com/sirupsen/logrus"
)

// skipPaths пути, не проходящие через лимитер (пробы оркестратора)
var skipPaths = map[string]bool{
	"/health":           true,
	"/health/readiness": true,
	"/health/liveness":  true,
}

// GetClientIP извлекает IP адрес клиента из запроса
func GetClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}

	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}

	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}

	return ip
}

// RateLimitMiddleware ограничивает частоту запросов по IP клиента.
// При недоступности Redis запросы пропускаются без ограничения.
func RateLimitMiddleware(rateLimiter *services.RateLimiterService, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skipPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			ip := GetClientIP(r)
			isVIP := false

			result, err := rateLimiter.CheckLimit(r.Context(), ip, isVIP)
			if err != nil {
				log.WithFields(logrus.Fields{
					"ip":    ip,
					"error": err,
				}).Error("Rate limit check failed")
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", result.Limit))
			w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", result.Remaining))
			w.Header().Set("X-RateLimit-Reset", result.ResetAt.Format(time.RFC3339))

			if !result.Allowed {
				w.Header().Set("Retry-After", fmt.Sprintf("%d", result.RetryAfter))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)

				response := map[string]interface{}{
					"error":       "rate_limit_exceeded",
					"message":     "Request limit exceeded, try again later",
					"limit":       result.Limit,
					"retry_after": result.RetryAfter,
				}

				if !result.BannedUntil.IsZero() {
					response["banned_until"] = result.BannedUntil.Format(time.RFC3339)
				}

				log.WithFields(logrus.Fields{
					"ip":          ip,
					"path":        r.URL.Path,
					"retry_after": result.RetryAfter,
				}).Warn("Request blocked by rate limiter")

				json.NewEncoder(w).Encode(response)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
