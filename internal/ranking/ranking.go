package ranking

import (
	"sort"

	"booking-system/internal/apperrors"
	"booking-system/internal/models"
)

// Mode представляет режим сортировки кандидатов
type Mode string

const (
	ModeDistance Mode = "distance"
	ModeRating   Mode = "rating"
	ModeBoth     Mode = "both"
)

// ParseMode разбирает режим сортировки из запроса; режим обязателен,
// подстановка значения по умолчанию запрещена
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeDistance, ModeRating, ModeBoth:
		return Mode(s), nil
	case "":
		return "", apperrors.BadRequest("sortBy is required")
	}
	return "", apperrors.BadRequest("sortBy must be one of: distance, rating, both")
}

// Candidate представляет кандидата на выдачу с уже посчитанным
// расстоянием и средним рейтингом
type Candidate struct {
	Worker     models.Worker
	DistanceKm float64
	AvgRating  float64 // 0, если отзывов нет
}

// CompositeScore вычисляет комбинированную оценку: рейтинг с весом 0.7
// и близость с весом 0.3; при дистанции в километрах компонент близости
// стремится к 1 при distance -> 0, так что исполнитель без отзывов
// все еще может ранжироваться за счет близости
func CompositeScore(avgRating, distanceKm float64) float64 {
	return avgRating*0.7 + (1/(distanceKm+1))*0.3
}

// Rank сортирует кандидатов по выбранному режиму. Сортировка
// детерминирована: равенства разрешаются по id исполнителя
// (в режиме rating - сначала по возрастанию дистанции).
func Rank(candidates []Candidate, mode Mode) []Candidate {
	ranked := make([]Candidate, len(candidates))
	copy(ranked, candidates)

	switch mode {
	case ModeRating:
		sort.Slice(ranked, func(i, j int) bool {
			if ranked[i].AvgRating != ranked[j].AvgRating {
				return ranked[i].AvgRating > ranked[j].AvgRating
			}
			if ranked[i].DistanceKm != ranked[j].DistanceKm {
				return ranked[i].DistanceKm < ranked[j].DistanceKm
			}
			return ranked[i].Worker.ID.String() < ranked[j].Worker.ID.String()
		})
	case ModeBoth:
		sort.Slice(ranked, func(i, j int) bool {
			si := CompositeScore(ranked[i].AvgRating, ranked[i].DistanceKm)
			sj := CompositeScore(ranked[j].AvgRating, ranked[j].DistanceKm)
			if si != sj {
				return si > sj
			}
			return ranked[i].Worker.ID.String() < ranked[j].Worker.ID.String()
		})
	default: // ModeDistance
		sort.Slice(ranked, func(i, j int) bool {
			if ranked[i].DistanceKm != ranked[j].DistanceKm {
				return ranked[i].DistanceKm < ranked[j].DistanceKm
			}
			return ranked[i].Worker.ID.String() < ranked[j].Worker.ID.String()
		})
	}

	return ranked
}
