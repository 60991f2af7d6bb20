package lecture

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/trezcool/darasa/core"
)

// Monitor is the recurring schedule scanner: once per tick it activates
// scheduled lectures whose window covers the current time and cancels those
// whose window has fully elapsed.
type Monitor struct {
	repo    Repository
	logger  core.Logger
	tick    time.Duration
	ticking uint32 // no overlapping ticks; a late tick is skipped, never queued
}

func NewMonitor(repo Repository, logger core.Logger, tick time.Duration) *Monitor {
	if tick <= 0 {
		tick = time.Minute
	}
	return &Monitor{
		repo:   repo,
		logger: logger,
		tick:   tick,
	}
}

// Start runs the monitoring loop until ctx is cancelled. It blocks; run it in
// its own goroutine.
func (m *Monitor) Start(ctx context.Context) {
	m.logger.Info("schedule monitoring started")
	ticker := time.NewTicker(m.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("schedule monitoring stopped")
			return
		case <-ticker.C:
			m.Tick(nowFunc())
		}
	}
}

// Tick scans today's scheduled lectures once. A store error on one lecture is
// logged and does not abort the remaining ones. Running Tick twice with an
// unchanged clock produces no additional transitions: activated and cancelled
// lectures leave the scheduled state and drop out of the query.
func (m *Monitor) Tick(now time.Time) {
	if !atomic.CompareAndSwapUint32(&m.ticking, 0, 1) {
		return // previous tick still running
	}
	defer atomic.StoreUint32(&m.ticking, 0)

	lecs, err := m.repo.FilterLectures(QueryFilter{Day: now, Status: StatusScheduled})
	if err != nil {
		m.logger.Error("schedule monitoring: querying scheduled lectures", err)
		return
	}

	for _, lec := range lecs {
		switch {
		case lec.Schedule.Covers(now):
			m.transition(lec, StatusRecording, now)
		case lec.Schedule.Elapsed(now):
			m.transition(lec, StatusCancelled, now)
		}
	}
}

func (m *Monitor) transition(lec Lecture, to Status, now time.Time) {
	if !CanTransition(lec.Status, to) {
		return
	}
	lec.Status = to
	lec.UpdatedAt = now.UTC()
	if _, err := m.repo.UpdateLecture(lec); err != nil {
		m.logger.Error("schedule monitoring: updating lecture "+lec.ID, err)
		return
	}
	if to == StatusRecording {
		m.logger.Info("lecture activated: " + lec.Title + " at " + lec.Schedule.StartTime)
	}
}
