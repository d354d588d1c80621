package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"booking-system/internal/config"
	"booking-system/internal/database"
	"booking-system/internal/eventbus"
	"booking-system/internal/handlers"
	"booking-system/internal/kafka"
	"booking-system/internal/logger"
	"booking-system/internal/middleware"
	"booking-system/internal/models"
	"booking-system/internal/redis"
	"booking-system/internal/services"

	"github.com/joho/godotenv"
)

func main() {
	// Загрузка .env файла, если он есть
	_ = godotenv.Load()

	// Загрузка конфигурации
	cfg := config.Load()

	// Инициализация логгера
	log := logger.New(&cfg.Logger)
	log.Info("Starting booking system server...")

	// Подключение к базе данных
	db, err := database.Connect(&cfg.Database, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	// Подключение к Redis
	redisClient, err := redis.Connect(&cfg.Redis, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to Redis")
	}
	defer redisClient.Close()

	// Создание Kafka producer
	producer, err := kafka.NewProducer(&cfg.Kafka, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to create Kafka producer")
	}
	defer producer.Close()

	// Создание Kafka consumer
	consumer, err := kafka.NewConsumer(&cfg.Kafka, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to create Kafka consumer")
	}
	defer consumer.Stop()

	// Инициализация сервисов
	workerService := services.NewWorkerService(db, redisClient, cfg.Matching.GeoKey, log)
	reviewService := services.NewReviewService(db, log)
	matchingService := services.NewMatchingService(workerService, reviewService, redisClient, &cfg.Matching, log)
	bookingService := services.NewBookingService(db, log)
	lifecycleService := services.NewLifecycleService(db, bookingService, workerService, log)
	cacheService := services.NewCacheService(redisClient, &cfg.Cache, log)
	rateLimiter := services.NewRateLimiterService(redisClient, &cfg.RateLimit, log)

	// Шина событий для push-подписок
	hub := eventbus.NewHub(log)

	// Инициализация handlers
	workerHandler := handlers.NewWorkerHandler(matchingService, workerService, reviewService, producer, cacheService, log)
	bookingHandler := handlers.NewBookingHandler(bookingService, lifecycleService, producer, cacheService, log)
	reviewHandler := handlers.NewReviewHandler(reviewService, log)
	eventsHandler := handlers.NewEventsHandler(hub, log)
	healthHandler := handlers.NewHealthHandler(db, redisClient, hub)
	cacheHandler := handlers.NewCacheHandler(cacheService, log)
	rateLimitHandler := handlers.NewRateLimitHandler(rateLimiter, log)

	// Регистрация обработчиков событий Kafka
	registerEventHandlers(consumer, hub, log)

	// Запуск Kafka consumer
	if err := consumer.Start(); err != nil {
		log.WithError(err).Fatal("Failed to start Kafka consumer")
	}

	// Восстановление состояния после перезапуска: доступность
	// исполнителей и гео-индекс приводятся в соответствие с базой
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := lifecycleService.ReconcileAvailability(startupCtx); err != nil {
		log.WithError(err).Warn("Availability reconciliation failed, continuing with current state")
	}
	startupCancel()

	// Настройка HTTP роутера
	mux := setupRoutes(workerHandler, bookingHandler, reviewHandler, eventsHandler, healthHandler, cacheHandler, rateLimitHandler)

	var handler http.Handler = mux
	if cfg.RateLimit.Enabled {
		handler = middleware.RateLimitMiddleware(rateLimiter, log)(handler)
	}

	// Создание HTTP сервера
	server := &http.Server{
		Addr:        fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:     handler,
		ReadTimeout: time.Duration(cfg.Server.ReadTimeout) * time.Second,
		// WriteTimeout не задается: SSE соединения живут дольше
		// любого разумного таймаута записи
	}

	// Запуск сервера в горутине
	go func() {
		log.WithField("address", server.Addr).Info("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("HTTP server failed")
		}
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
	}

	log.Info("Server exited")
}

// setupRoutes настраивает маршруты HTTP сервера
func setupRoutes(
	workerHandler *handlers.WorkerHandler,
	bookingHandler *handlers.BookingHandler,
	reviewHandler *handlers.ReviewHandler,
	eventsHandler *handlers.EventsHandler,
	healthHandler *handlers.HealthHandler,
	cacheHandler *handlers.CacheHandler,
	rateLimitHandler *handlers.RateLimitHandler,
) *http.ServeMux {
	mux := http.NewServeMux()

	// Health check endpoints
	mux.HandleFunc("/health", corsMiddleware(healthHandler.Health))
	mux.HandleFunc("/health/readiness", corsMiddleware(healthHandler.Readiness))
	mux.HandleFunc("/health/liveness", corsMiddleware(healthHandler.Liveness))

	// Worker endpoints
	mux.HandleFunc("/api/workers", corsMiddleware(handleWorkersRoute(workerHandler)))
	mux.HandleFunc("/api/workers/", corsMiddleware(handleWorkerRoute(workerHandler)))

	// Booking endpoints
	mux.HandleFunc("/api/bookings", corsMiddleware(handleBookingsRoute(bookingHandler)))
	mux.HandleFunc("/api/bookings/", corsMiddleware(handleBookingRoute(bookingHandler)))

	// Review endpoints
	mux.HandleFunc("/api/reviews", corsMiddleware(reviewHandler.CreateReview))

	// Event subscription endpoints (SSE)
	mux.HandleFunc("/api/events/workers/", corsMiddleware(eventsHandler.SubscribeWorker))
	mux.HandleFunc("/api/events/bookings/", corsMiddleware(eventsHandler.SubscribeBooking))

	// Service endpoints
	mux.HandleFunc("/api/cache/metrics", corsMiddleware(cacheHandler.GetMetrics))
	mux.HandleFunc("/api/rate-limit/status", corsMiddleware(rateLimitHandler.GetStatus))

	return mux
}

// handleWorkersRoute обрабатывает маршруты для коллекции исполнителей
func handleWorkersRoute(handler *handlers.WorkerHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			handler.SearchWorkers(w, r)
		case http.MethodPost:
			handler.CreateWorker(w, r)
		default:
			writeMethodNotAllowed(w)
		}
	}
}

// handleWorkerRoute обрабатывает маршруты для отдельного исполнителя
func handleWorkerRoute(handler *handlers.WorkerHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/reviews") {
			// Отзывы об исполнителе
			if r.Method == http.MethodGet {
				handler.GetWorkerReviews(w, r)
			} else {
				writeMethodNotAllowed(w)
			}
			return
		}

		switch r.Method {
		case http.MethodGet:
			handler.GetWorker(w, r)
		case http.MethodPut:
			handler.UpdateAvailability(w, r)
		default:
			writeMethodNotAllowed(w)
		}
	}
}

// handleBookingsRoute обрабатывает маршруты для коллекции бронирований
func handleBookingsRoute(handler *handlers.BookingHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			handler.ListBookings(w, r)
		case http.MethodPost:
			handler.CreateBooking(w, r)
		default:
			writeMethodNotAllowed(w)
		}
	}
}

// handleBookingRoute обрабатывает маршруты для отдельного бронирования
func handleBookingRoute(handler *handlers.BookingHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			handler.GetBooking(w, r)
		case http.MethodPut:
			handler.UpdateBookingStatus(w, r)
		default:
			writeMethodNotAllowed(w)
		}
	}
}

// registerEventHandlers регистрирует обработчики событий Kafka.
// Каждое потребленное событие транслируется локальным подписчикам,
// так что push-уведомления работают с любого экземпляра сервиса
func registerEventHandlers(consumer *kafka.Consumer, hub *eventbus.Hub, log *logger.Logger) {
	forward := func(ctx context.Context, event *models.Event) error {
		hub.Publish(event)
		return nil
	}

	consumer.RegisterHandler(models.EventTypeBookingCreated, forward)
	consumer.RegisterHandler(models.EventTypeBookingStatusChanged, forward)
	consumer.RegisterHandler(models.EventTypeWorkerStatusChanged, forward)
	consumer.RegisterHandler(models.EventTypeWorkerLocationSet, forward)
}

// corsMiddleware и другие helper функции
func corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}

func writeMethodNotAllowed(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusMethodNotAllowed)
	fmt.Fprintf(w, `{"error": "%s", "message": "Method not allowed"}`, http.StatusText(http.StatusMethodNotAllowed))
}
