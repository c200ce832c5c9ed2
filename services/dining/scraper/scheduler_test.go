package scraper

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSchedulerConfigs(t *testing.T) {
	s := NewScheduler(nil, nil)

	daily := s.DailyConfig()
	require.Len(t, daily.Dates, 2)
	require.False(t, daily.ForceRefresh)
	require.Empty(t, daily.Restaurants)

	weekly := s.WeeklyConfig()
	require.Len(t, weekly.Dates, 7)
	require.True(t, weekly.ForceRefresh)
	require.Equal(t, daily.Dates[0], weekly.Dates[0])
}
