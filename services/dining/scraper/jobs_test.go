package scraper

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestJobTracker(t *testing.T) {
	srv, _ := newDiningSite(t)
	svc := newTestService(t, srv.URL)
	tracker := NewJobTracker()

	job := tracker.Run(svc, Config{
		Restaurants: []string{"de-neve"},
		Dates:       []string{"2025-06-12"},
	})
	require.NotEmpty(t, job.ID)

	require.Eventually(t, func() bool {
		current := tracker.Get(job.ID)
		return current != nil && current.Status != JobRunning
	}, time.Second*30, time.Millisecond*50)

	finished := tracker.Get(job.ID)
	require.Equal(t, JobCompleted, finished.Status)
	require.NotNil(t, finished.Result)
	require.True(t, finished.Result.Success)
	require.Equal(t, 3, finished.Result.ItemsSaved)
	require.False(t, finished.CompletedAt.IsZero())

	require.Nil(t, tracker.Get("no-such-job"))
	require.Len(t, tracker.List(), 1)
}
