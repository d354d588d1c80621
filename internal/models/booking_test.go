package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	allowed := map[[2]BookingStatus]bool{
		{BookingStatusPending, BookingStatusAccepted}:   true,
		{BookingStatusPending, BookingStatusCancelled}:  true,
		{BookingStatusAccepted, BookingStatusCompleted}: true,
	}

	all := []BookingStatus{
		BookingStatusPending, BookingStatusAccepted,
		BookingStatusCompleted, BookingStatusCancelled,
	}

	// Полный перебор пар: разрешены ровно три перехода из таблицы,
	// включая запрет повторного перехода в тот же статус
	for _, from := range all {
		for _, to := range all {
			want := allowed[[2]BookingStatus{from, to}]
			assert.Equal(t, want, CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestTerminalStatusesHaveNoOutgoingTransitions(t *testing.T) {
	all := []BookingStatus{
		BookingStatusPending, BookingStatusAccepted,
		BookingStatusCompleted, BookingStatusCancelled,
	}
	for _, terminal := range []BookingStatus{BookingStatusCompleted, BookingStatusCancelled} {
		require.True(t, terminal.IsTerminal())
		for _, to := range all {
			assert.False(t, CanTransition(terminal, to), "%s -> %s", terminal, to)
		}
	}
	assert.False(t, BookingStatusPending.IsTerminal())
	assert.False(t, BookingStatusAccepted.IsTerminal())
}

func TestTransitionSource(t *testing.T) {
	from, ok := TransitionSource(BookingStatusAccepted)
	require.True(t, ok)
	assert.Equal(t, BookingStatusPending, from)

	from, ok = TransitionSource(BookingStatusCancelled)
	require.True(t, ok)
	assert.Equal(t, BookingStatusPending, from)

	from, ok = TransitionSource(BookingStatusCompleted)
	require.True(t, ok)
	assert.Equal(t, BookingStatusAccepted, from)

	// pending никогда не является целью перехода
	_, ok = TransitionSource(BookingStatusPending)
	assert.False(t, ok)
}

func TestParseBookingStatus(t *testing.T) {
	for _, s := range []string{"pending", "accepted", "completed", "cancelled"} {
		parsed, ok := ParseBookingStatus(s)
		require.True(t, ok, s)
		assert.Equal(t, BookingStatus(s), parsed)
	}

	for _, s := range []string{"", "rejected", "PENDING", "done"} {
		_, ok := ParseBookingStatus(s)
		assert.False(t, ok, s)
	}
}
