package geo

import (
	"math"

	"booking-system/internal/apperrors"
)

// EarthRadiusKm радиус Земли в километрах для формулы хаверсинуса
const EarthRadiusKm = 6371.0

// LatLon представляет географическую координату
type LatLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Validate проверяет, что координаты лежат в допустимых диапазонах
func Validate(lat, lon float64) error {
	if math.IsNaN(lat) || lat < -90 || lat > 90 {
		return apperrors.BadRequest("latitude must be in [-90, 90], got %v", lat)
	}
	if math.IsNaN(lon) || lon < -180 || lon > 180 {
		return apperrors.BadRequest("longitude must be in [-180, 180], got %v", lon)
	}
	return nil
}

// DistanceKm вычисляет расстояние по дуге большого круга (хаверсинус)
// между двумя точками в километрах
func DistanceKm(from, to LatLon) float64 {
	dLat := (to.Lat - from.Lat) * math.Pi / 180
	dLon := (to.Lon - from.Lon) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(from.Lat*math.Pi/180)*
			math.Cos(to.Lat*math.Pi/180)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c
}

// Round2 округляет до двух знаков после запятой
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
