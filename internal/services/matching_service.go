package services

import (
	"context"

	"booking-system/internal/apperrors"
	"booking-system/internal/config"
	"booking-system/internal/geo"
	"booking-system/internal/logger"
	"booking-system/internal/models"
	"booking-system/internal/ranking"
	"booking-system/internal/redis"

	"github.com/google/uuid"
)

// MatchingService отвечает на вопрос "кто рядом с точкой и в каком
// порядке": кандидаты из геоиндекса, порядок из ранкера
type MatchingService struct {
	workers *WorkerService
	reviews *ReviewService
	redis   *redis.Client
	cfg     *config.MatchingConfig
	log     *logger.Logger
}

// NewMatchingService создает новый сервис подбора исполнителей
func NewMatchingService(workers *WorkerService, reviews *ReviewService, redisClient *redis.Client, cfg *config.MatchingConfig, log *logger.Logger) *MatchingService {
	return &MatchingService{
		workers: workers,
		reviews: reviews,
		redis:   redisClient,
		cfg:     cfg,
		log:     log,
	}
}

// FindNearby возвращает доступных исполнителей в радиусе radiusKm от
// центра, отсортированных по выбранному режиму. Все параметры
// обязательны, невалидный ввод отклоняется без подстановки значений
// по умолчанию.
func (s *MatchingService) FindNearby(ctx context.Context, lat, lng, radiusKm float64, mode ranking.Mode) ([]models.WorkerSummary, error) {
	if err := geo.Validate(lat, lng); err != nil {
		return nil, err
	}
	if radiusKm <= 0 {
		return nil, apperrors.BadRequest("radius must be positive, got %v", radiusKm)
	}
	if radiusKm > s.cfg.MaxRadiusKm {
		return nil, apperrors.BadRequest("radius must not exceed %v km", s.cfg.MaxRadiusKm)
	}

	center := geo.LatLon{Lat: lat, Lon: lng}

	candidates, err := s.collectCandidates(ctx, center, radiusKm)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return []models.WorkerSummary{}, nil
	}

	ids := make([]uuid.UUID, 0, len(candidates))
	for _, c := range candidates {
		ids = append(ids, c.Worker.ID)
	}

	ratings, err := s.reviews.AverageRatings(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range candidates {
		candidates[i].AvgRating = ratings[candidates[i].Worker.ID]
	}

	ranked := ranking.Rank(candidates, mode)

	summaries := make([]models.WorkerSummary, 0, len(ranked))
	for _, c := range ranked {
		summaries = append(summaries, models.WorkerSummary{
			ID:          c.Worker.ID,
			Name:        c.Worker.Name,
			Image:       c.Worker.Image,
			IsAvailable: c.Worker.IsAvailable,
			Skills:      c.Worker.Skills,
			Latitude:    *c.Worker.Latitude,
			Longitude:   *c.Worker.Longitude,
			Distance:    geo.Round2(c.DistanceKm),
			AvgRating:   geo.Round2(c.AvgRating),
		})
	}

	return summaries, nil
}

// collectCandidates отбирает доступных исполнителей в радиусе.
// Основной путь - геоиндекс Redis; при его недоступности - скан
// авторитетного хранилища. Дистанция в обоих случаях пересчитывается
// хаверсинусом, чтобы числа в ответе не зависели от пути.
func (s *MatchingService) collectCandidates(ctx context.Context, center geo.LatLon, radiusKm float64) ([]ranking.Candidate, error) {
	workers, err := s.candidatesFromGeoIndex(ctx, center, radiusKm)
	if err != nil {
		s.log.WithError(err).Warn("Geo index unavailable, falling back to database scan")

		workers, err = s.workers.ListAvailableWithPosition(ctx)
		if err != nil {
			return nil, apperrors.Unavailable("worker search failed", err)
		}
	}

	candidates := make([]ranking.Candidate, 0, len(workers))
	for _, worker := range workers {
		// Кандидаты без позиции или занятые отсеиваются: индекс мог отстать
		if !worker.HasPosition() || !worker.IsAvailable {
			continue
		}
		distance := geo.DistanceKm(center, geo.LatLon{Lat: *worker.Latitude, Lon: *worker.Longitude})
		if distance > radiusKm {
			continue
		}
		candidates = append(candidates, ranking.Candidate{
			Worker:     *worker,
			DistanceKm: distance,
		})
	}

	return candidates, nil
}

// candidatesFromGeoIndex получает кандидатов через Redis GEO-запрос
func (s *MatchingService) candidatesFromGeoIndex(ctx context.Context, center geo.LatLon, radiusKm float64) ([]*models.Worker, error) {
	members, err := s.redis.GeoRadius(ctx, s.cfg.GeoKey, center.Lat, center.Lon, radiusKm*1000)
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return nil, nil
	}

	ids := make([]uuid.UUID, 0, len(members))
	for _, member := range members {
		id, err := uuid.Parse(member)
		if err != nil {
			s.log.WithField("member", member).Warn("Skipping malformed geo index member")
			continue
		}
		ids = append(ids, id)
	}

	return s.workers.GetWorkersByIDs(ctx, ids)
}

// WorkerDetail возвращает карточку исполнителя; если переданы координаты
// клиента и у исполнителя есть позиция, добавляется расстояние
func (s *MatchingService) WorkerDetail(ctx context.Context, workerID uuid.UUID, lat, lng *float64) (*models.WorkerDetail, error) {
	worker, err := s.workers.GetWorker(ctx, workerID)
	if err != nil {
		return nil, err
	}

	return s.DetailFor(worker, lat, lng)
}

// DetailFor строит карточку из уже загруженного исполнителя (например,
// из кеша). Координаты клиента проверяются всегда, даже если позиция
// исполнителя неизвестна и расстояние посчитать нельзя.
func (s *MatchingService) DetailFor(worker *models.Worker, lat, lng *float64) (*models.WorkerDetail, error) {
	if lat != nil && lng != nil {
		if err := geo.Validate(*lat, *lng); err != nil {
			return nil, err
		}
	}

	detail := &models.WorkerDetail{Worker: *worker}

	if lat != nil && lng != nil && worker.HasPosition() {
		distance := geo.Round2(geo.DistanceKm(
			geo.LatLon{Lat: *lat, Lon: *lng},
			geo.LatLon{Lat: *worker.Latitude, Lon: *worker.Longitude},
		))
		detail.Distance = &distance
	}

	return detail, nil
}
