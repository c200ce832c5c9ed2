package scraper

import (
	"context"
	"log/slog"

	"nutribruin-backend/lib/timezone"
	"nutribruin-backend/services/dining"

	"github.com/robfig/cron/v3"
)

// Scheduler runs the recurring scrape jobs: a daily update for today
// and tomorrow, and a weekly full refresh that rebuilds every template
// for the coming week. Schedules evaluate in campus time so the 4am
// run stays at 4am across daylight saving transitions.
type Scheduler struct {
	service *Service
	tracker *JobTracker
	cron    *cron.Cron
}

func NewScheduler(service *Service, tracker *JobTracker) *Scheduler {
	return &Scheduler{
		service: service,
		tracker: tracker,
		cron:    cron.New(cron.WithLocation(timezone.Location)),
	}
}

// Start registers the recurring jobs and launches the cron loop.
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc("0 4 * * *", func() {
		slog.Info("starting scheduled daily menu update")
		s.tracker.Run(s.service, s.DailyConfig())
	})
	if err != nil {
		return err
	}

	_, err = s.cron.AddFunc("0 2 * * 0", func() {
		slog.Info("starting scheduled weekly full refresh")
		s.tracker.Run(s.service, s.WeeklyConfig())
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	slog.Info("scheduler started", "jobs", len(s.cron.Entries()))
	return nil
}

// Stop halts scheduling and waits for any running cron callbacks.
// Scrapes already handed to the tracker keep running.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// RunImmediately fires the daily update without waiting for the next
// scheduled slot and blocks until it completes.
func (s *Scheduler) RunImmediately(ctx context.Context) Result {
	return s.service.ScrapeMenus(ctx, s.DailyConfig())
}

// DailyConfig covers today and tomorrow for the default restaurants,
// replaying templates where they exist.
func (s *Scheduler) DailyConfig() Config {
	now := timezone.Now()
	return Config{
		Mode: "update",
		Dates: []string{
			now.Format(dining.DateFormat),
			now.AddDate(0, 0, 1).Format(dining.DateFormat),
		},
	}
}

// WeeklyConfig force-refreshes the coming seven days so templates are
// rebuilt from live pages instead of replayed.
func (s *Scheduler) WeeklyConfig() Config {
	now := timezone.Now()
	dates := make([]string, 0, 7)
	for i := 0; i < 7; i++ {
		dates = append(dates, now.AddDate(0, 0, i).Format(dining.DateFormat))
	}
	return Config{
		Mode:         "full",
		Dates:        dates,
		ForceRefresh: true,
	}
}
