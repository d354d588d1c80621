package ranking

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"booking-system/internal/apperrors"
	"booking-system/internal/models"
)

func candidate(id string, distanceKm, avgRating float64) Candidate {
	return Candidate{
		Worker:     models.Worker{ID: uuid.MustParse(id)},
		DistanceKm: distanceKm,
		AvgRating:  avgRating,
	}
}

const (
	idA = "11111111-1111-1111-1111-111111111111"
	idB = "22222222-2222-2222-2222-222222222222"
	idC = "33333333-3333-3333-3333-333333333333"
)

func TestParseMode(t *testing.T) {
	for _, s := range []string{"distance", "rating", "both"} {
		mode, err := ParseMode(s)
		require.NoError(t, err)
		assert.Equal(t, Mode(s), mode)
	}

	_, err := ParseMode("")
	require.Error(t, err)
	assert.Equal(t, apperrors.KindBadRequest, apperrors.KindOf(err))

	_, err = ParseMode("nearest")
	require.Error(t, err)
	assert.Equal(t, apperrors.KindBadRequest, apperrors.KindOf(err))
}

func TestRankByDistance(t *testing.T) {
	ranked := Rank([]Candidate{
		candidate(idB, 4.9, 5),
		candidate(idA, 1.2, 1),
	}, ModeDistance)

	require.Len(t, ranked, 2)
	assert.Equal(t, 1.2, ranked[0].DistanceKm)
	assert.Equal(t, 4.9, ranked[1].DistanceKm)

	// Неубывание дистанции по всей выдаче
	for i := 1; i < len(ranked); i++ {
		assert.LessOrEqual(t, ranked[i-1].DistanceKm, ranked[i].DistanceKm)
	}
}

func TestRankByDistanceTieBreaksByID(t *testing.T) {
	ranked := Rank([]Candidate{
		candidate(idC, 2.0, 0),
		candidate(idA, 2.0, 0),
		candidate(idB, 2.0, 0),
	}, ModeDistance)

	assert.Equal(t, uuid.MustParse(idA), ranked[0].Worker.ID)
	assert.Equal(t, uuid.MustParse(idB), ranked[1].Worker.ID)
	assert.Equal(t, uuid.MustParse(idC), ranked[2].Worker.ID)
}

func TestRankByRating(t *testing.T) {
	ranked := Rank([]Candidate{
		candidate(idA, 1.0, 3.5),
		candidate(idB, 2.0, 5.0),
		candidate(idC, 0.5, 0), // без отзывов
	}, ModeRating)

	assert.Equal(t, 5.0, ranked[0].AvgRating)
	assert.Equal(t, 3.5, ranked[1].AvgRating)
	assert.Equal(t, 0.0, ranked[2].AvgRating)
}

func TestRankByRatingTieBreaksByDistance(t *testing.T) {
	ranked := Rank([]Candidate{
		candidate(idA, 4.0, 4.5),
		candidate(idB, 1.5, 4.5),
	}, ModeRating)

	assert.Equal(t, uuid.MustParse(idB), ranked[0].Worker.ID)
	assert.Equal(t, uuid.MustParse(idA), ranked[1].Worker.ID)
}

func TestRankByComposite(t *testing.T) {
	// Близкий без отзывов против далекого с высоким рейтингом:
	// рейтинг с весом 0.7 перевешивает
	near := candidate(idA, 0.1, 0)
	rated := candidate(idB, 9.0, 5)
	ranked := Rank([]Candidate{near, rated}, ModeBoth)

	assert.Equal(t, uuid.MustParse(idB), ranked[0].Worker.ID)

	// Оценки не возрастают по выдаче
	for i := 1; i < len(ranked); i++ {
		prev := CompositeScore(ranked[i-1].AvgRating, ranked[i-1].DistanceKm)
		cur := CompositeScore(ranked[i].AvgRating, ranked[i].DistanceKm)
		assert.GreaterOrEqual(t, prev, cur)
	}
}

func TestCompositeScore(t *testing.T) {
	// При нулевой дистанции компонент близости равен 0.3
	assert.InDelta(t, 0.3, CompositeScore(0, 0), 1e-9)
	assert.InDelta(t, 5*0.7+0.3/2, CompositeScore(5, 1), 1e-9)

	// Компонент близости насыщается к нулю на больших дистанциях
	assert.Less(t, CompositeScore(0, 100), 0.01)
}

func TestRankDoesNotMutateInput(t *testing.T) {
	input := []Candidate{
		candidate(idB, 4.9, 0),
		candidate(idA, 1.2, 0),
	}
	_ = Rank(input, ModeDistance)
	assert.Equal(t, uuid.MustParse(idB), input[0].Worker.ID)
}

func TestRankEmpty(t *testing.T) {
	assert.Empty(t, Rank(nil, ModeDistance))
	assert.Empty(t, Rank([]Candidate{}, ModeBoth))
}
