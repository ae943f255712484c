package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"optiday/internal/model"
)

// SchedulerService runs periodic jobs such as the daily digest on cron.
type SchedulerService struct {
	cron *cron.Cron
}

func NewSchedulerService(loc *time.Location) *SchedulerService {
	return &SchedulerService{
		cron: cron.New(cron.WithLocation(loc), cron.WithSeconds()),
	}
}

// ScheduleDaily registers job at the given HH:MM time every day.
func (s *SchedulerService) ScheduleDaily(clock string, job func()) (cron.EntryID, error) {
	spec, err := dailySpec(clock)
	if err != nil {
		return 0, err
	}
	return s.cron.AddFunc(spec, job)
}

// ScheduleInterval registers job to run every interval, rounded to seconds.
func (s *SchedulerService) ScheduleInterval(interval time.Duration, job func()) (cron.EntryID, error) {
	if interval <= 0 {
		return 0, fmt.Errorf("interval must be positive")
	}
	seconds := int(interval.Seconds())
	if seconds <= 0 {
		seconds = 1
	}
	return s.cron.AddFunc(fmt.Sprintf("@every %ds", seconds), job)
}

// ScheduleJob registers job with a per-run timeout. A daily clock wins over
// an interval; with neither the job is not registered and ok is false.
func (s *SchedulerService) ScheduleJob(name, clock string, interval, timeout time.Duration, job func(ctx context.Context) error) (ok bool, err error) {
	run := func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := job(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("%s: %v", name, err)
		}
	}

	switch {
	case clock != "":
		if _, err := s.ScheduleDaily(clock, run); err != nil {
			return false, fmt.Errorf("schedule %s: %w", name, err)
		}
		log.Printf("[info] %s scheduled daily at %s", name, clock)
	case interval > 0:
		if _, err := s.ScheduleInterval(interval, run); err != nil {
			return false, fmt.Errorf("schedule %s: %w", name, err)
		}
		log.Printf("[info] %s scheduled every %s", name, interval)
	default:
		return false, nil
	}
	return true, nil
}

// Entries reports how many jobs are registered.
func (s *SchedulerService) Entries() int {
	return len(s.cron.Entries())
}

func (s *SchedulerService) Start() {
	s.cron.Start()
}

func (s *SchedulerService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// dailySpec converts HH:MM into a seconds-enabled cron spec.
func dailySpec(clock string) (string, error) {
	normalized, err := model.ParseClock(clock)
	if err != nil {
		return "", err
	}
	t, _ := time.Parse("15:04", normalized)
	// second minute hour dom month dow
	return fmt.Sprintf("0 %d %d * * *", t.Minute(), t.Hour()), nil
}
