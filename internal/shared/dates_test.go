package shared

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var clock = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func TestResolveValidDate(t *testing.T) {
	got, err := DateTimeInput{Year: 2024, Month: 2, Day: 29, Hour: 8, Minute: 30}.Resolve(clock)
	require.NoError(t, err)
	require.Equal(t, time.Date(2024, 2, 29, 8, 30, 0, 0, time.UTC), got)
}

func TestResolveRejectsOverflowingDay(t *testing.T) {
	_, err := DateTimeInput{Year: 2024, Month: 4, Day: 31}.Resolve(clock)
	require.ErrorIs(t, err, ErrInvalidDate)

	_, err = DateTimeInput{Year: 2023, Month: 2, Day: 29}.Resolve(clock)
	require.ErrorIs(t, err, ErrInvalidDate)
}

func TestResolveRejectsOutOfRangeFields(t *testing.T) {
	_, err := DateTimeInput{Year: 2024, Month: 13, Day: 1}.Resolve(clock)
	require.ErrorIs(t, err, ErrInvalidDate)

	_, err = DateTimeInput{Year: 2024, Month: 1, Day: 0}.Resolve(clock)
	require.ErrorIs(t, err, ErrInvalidDate)

	_, err = DateTimeInput{Year: 2024, Month: 1, Day: 1, Hour: 24}.Resolve(clock)
	require.ErrorIs(t, err, ErrInvalidDate)
}

func TestResolveRejectsFuture(t *testing.T) {
	_, err := DateTimeInput{Year: 2024, Month: 6, Day: 15, Hour: 12, Second: 1}.Resolve(clock)
	require.ErrorIs(t, err, ErrInvalidDate)
}

func TestResolveNowIsNotFuture(t *testing.T) {
	got, err := FromTime(clock).Resolve(clock)
	require.NoError(t, err)
	require.Equal(t, clock, got)
}
