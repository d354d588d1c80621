package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"booking-system/internal/apperrors"
	"booking-system/internal/config"
	"booking-system/internal/geo"
	"booking-system/internal/logger"
	"booking-system/internal/models"
	"booking-system/internal/ranking"
)

// Валидация входа выполняется до обращения к хранилищам, поэтому
// невалидные запросы проверяются на сервисах без подключений

func TestCreateBookingValidation(t *testing.T) {
	svc := NewBookingService(nil, logger.Discard())
	ctx := context.Background()

	cases := []struct {
		name string
		req  models.CreateBookingRequest
	}{
		{"missing customer", models.CreateBookingRequest{WorkerID: uuid.New(), Amount: 100}},
		{"missing worker", models.CreateBookingRequest{CustomerID: uuid.New(), Amount: 100}},
		{"zero amount", models.CreateBookingRequest{CustomerID: uuid.New(), WorkerID: uuid.New()}},
		{"negative amount", models.CreateBookingRequest{CustomerID: uuid.New(), WorkerID: uuid.New(), Amount: -5}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateBooking(ctx, &tc.req)
			require.Error(t, err)
			assert.Equal(t, apperrors.KindBadRequest, apperrors.KindOf(err))
		})
	}
}

func TestListBookingsValidation(t *testing.T) {
	svc := NewBookingService(nil, logger.Discard())
	ctx := context.Background()

	_, err := svc.ListBookings(ctx, uuid.Nil, "customer")
	require.Error(t, err)
	assert.Equal(t, apperrors.KindBadRequest, apperrors.KindOf(err))

	_, err = svc.ListBookings(ctx, uuid.New(), "")
	require.Error(t, err)
	assert.Equal(t, apperrors.KindBadRequest, apperrors.KindOf(err))

	_, err = svc.ListBookings(ctx, uuid.New(), "admin")
	require.Error(t, err)
	assert.Equal(t, apperrors.KindBadRequest, apperrors.KindOf(err))
}

func TestCreateReviewValidation(t *testing.T) {
	svc := NewReviewService(nil, logger.Discard())
	ctx := context.Background()

	valid := models.CreateReviewRequest{
		Rating:     4,
		WorkerID:   uuid.New(),
		CustomerID: uuid.New(),
		BookingID:  uuid.New(),
	}

	cases := []struct {
		name   string
		mutate func(*models.CreateReviewRequest)
	}{
		{"rating too low", func(r *models.CreateReviewRequest) { r.Rating = 0 }},
		{"rating too high", func(r *models.CreateReviewRequest) { r.Rating = 6 }},
		{"missing worker", func(r *models.CreateReviewRequest) { r.WorkerID = uuid.Nil }},
		{"missing customer", func(r *models.CreateReviewRequest) { r.CustomerID = uuid.Nil }},
		{"missing booking", func(r *models.CreateReviewRequest) { r.BookingID = uuid.Nil }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := valid
			tc.mutate(&req)
			_, err := svc.CreateReview(ctx, &req)
			require.Error(t, err)
			assert.Equal(t, apperrors.KindBadRequest, apperrors.KindOf(err))
		})
	}
}

func TestCreateWorkerValidation(t *testing.T) {
	svc := NewWorkerService(nil, nil, "geo:test", logger.Discard())
	ctx := context.Background()

	lat, lng := 26.91, 75.78
	badLat := 95.0

	cases := []struct {
		name string
		req  models.CreateWorkerRequest
	}{
		{"missing name", models.CreateWorkerRequest{Phone: "123", Latitude: &lat, Longitude: &lng}},
		{"missing phone", models.CreateWorkerRequest{Name: "a", Latitude: &lat, Longitude: &lng}},
		{"missing coordinates", models.CreateWorkerRequest{Name: "a", Phone: "123"}},
		{"invalid latitude", models.CreateWorkerRequest{Name: "a", Phone: "123", Latitude: &badLat, Longitude: &lng}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateWorker(ctx, &tc.req)
			require.Error(t, err)
			assert.Equal(t, apperrors.KindBadRequest, apperrors.KindOf(err))
		})
	}
}

func TestFindNearbyValidation(t *testing.T) {
	cfg := &config.MatchingConfig{GeoKey: "geo:test", MaxRadiusKm: 50}
	svc := NewMatchingService(nil, nil, nil, cfg, logger.Discard())
	ctx := context.Background()

	cases := []struct {
		name             string
		lat, lng, radius float64
	}{
		{"invalid latitude", 91, 75.78, 5},
		{"invalid longitude", 26.91, 181, 5},
		{"zero radius", 26.91, 75.78, 0},
		{"negative radius", 26.91, 75.78, -3},
		{"radius above cap", 26.91, 75.78, 51},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.FindNearby(ctx, tc.lat, tc.lng, tc.radius, ranking.ModeDistance)
			require.Error(t, err)
			assert.Equal(t, apperrors.KindBadRequest, apperrors.KindOf(err))
		})
	}
}

func TestDetailFor(t *testing.T) {
	cfg := &config.MatchingConfig{GeoKey: "geo:test", MaxRadiusKm: 50}
	svc := NewMatchingService(nil, nil, nil, cfg, logger.Discard())

	lat, lng := 26.91, 75.78
	workerLat, workerLng := 26.95, 75.80

	positioned := &models.Worker{
		ID:          uuid.New(),
		Name:        "a",
		IsAvailable: true,
		Latitude:    &workerLat,
		Longitude:   &workerLng,
	}
	unpositioned := &models.Worker{ID: uuid.New(), Name: "b"}

	t.Run("distance computed and rounded", func(t *testing.T) {
		detail, err := svc.DetailFor(positioned, &lat, &lng)
		require.NoError(t, err)
		require.NotNil(t, detail.Distance)
		assert.InDelta(t, 4.9, *detail.Distance, 0.2)

		want := geo.Round2(geo.DistanceKm(
			geo.LatLon{Lat: lat, Lon: lng},
			geo.LatLon{Lat: workerLat, Lon: workerLng},
		))
		assert.Equal(t, want, *detail.Distance)
	})

	t.Run("no caller coordinates", func(t *testing.T) {
		detail, err := svc.DetailFor(positioned, nil, nil)
		require.NoError(t, err)
		assert.Nil(t, detail.Distance)
	})

	t.Run("worker without position", func(t *testing.T) {
		detail, err := svc.DetailFor(unpositioned, &lat, &lng)
		require.NoError(t, err)
		assert.Nil(t, detail.Distance)
	})

	// Невалидные координаты клиента отклоняются и тогда, когда
	// позиция исполнителя неизвестна и расстояние не считается
	t.Run("invalid coordinates always rejected", func(t *testing.T) {
		badLat := 95.0
		for _, worker := range []*models.Worker{positioned, unpositioned} {
			_, err := svc.DetailFor(worker, &badLat, &lng)
			require.Error(t, err)
			assert.Equal(t, apperrors.KindBadRequest, apperrors.KindOf(err))
		}
	})
}

func TestTransitionRejectsInvalidTarget(t *testing.T) {
	svc := NewLifecycleService(nil, nil, nil, logger.Discard())
	ctx := context.Background()

	// pending не является целью никакого перехода
	_, _, err := svc.Transition(ctx, uuid.New(), models.BookingStatusPending)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindBadRequest, apperrors.KindOf(err))
}

func TestBuildKey(t *testing.T) {
	assert.Equal(t, "worker:42", BuildKey("worker", "42"))
	assert.Equal(t, "booking:abc", BuildKey("booking", "abc"))
}
