package lecture

import (
	"testing"
	"time"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name string
		from Status
		to   Status
		want bool
	}{
		{name: "scheduled to recording", from: StatusScheduled, to: StatusRecording, want: true},
		{name: "scheduled to cancelled", from: StatusScheduled, to: StatusCancelled, want: true},
		{name: "scheduled to completed", from: StatusScheduled, to: StatusCompleted},
		{name: "scheduled to analyzed", from: StatusScheduled, to: StatusAnalyzed},
		{name: "recording to completed", from: StatusRecording, to: StatusCompleted, want: true},
		{name: "recording to cancelled", from: StatusRecording, to: StatusCancelled},
		{name: "recording to scheduled", from: StatusRecording, to: StatusScheduled},
		{name: "completed to analyzed", from: StatusCompleted, to: StatusAnalyzed, want: true},
		{name: "completed to recording", from: StatusCompleted, to: StatusRecording},
		{name: "analyzed is terminal", from: StatusAnalyzed, to: StatusScheduled},
		{name: "cancelled is terminal", from: StatusCancelled, to: StatusRecording},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanTransition(tt.from, tt.to); got != tt.want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestSchedule_Covers(t *testing.T) {
	sched := Schedule{Date: day(2021, time.May, 10), StartTime: "09:00", EndTime: "10:00"}

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{name: "before window", now: time.Date(2021, time.May, 10, 8, 59, 0, 0, time.UTC)},
		{name: "at start", now: time.Date(2021, time.May, 10, 9, 0, 0, 0, time.UTC), want: true},
		{name: "inside window", now: time.Date(2021, time.May, 10, 9, 30, 0, 0, time.UTC), want: true},
		{name: "at end", now: time.Date(2021, time.May, 10, 10, 0, 0, 0, time.UTC), want: true},
		{name: "after window", now: time.Date(2021, time.May, 10, 10, 5, 0, 0, time.UTC)},
		{name: "wrong day", now: time.Date(2021, time.May, 11, 9, 30, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sched.Covers(tt.now); got != tt.want {
				t.Errorf("Covers(%v) = %v, want %v", tt.now, got, tt.want)
			}
		})
	}

	t.Run("malformed time", func(t *testing.T) {
		bad := Schedule{Date: day(2021, time.May, 10), StartTime: "9am", EndTime: "10:00"}
		if bad.Covers(time.Date(2021, time.May, 10, 9, 30, 0, 0, time.UTC)) {
			t.Error("Covers() = true for a malformed schedule")
		}
	})
}

func TestSchedule_Elapsed(t *testing.T) {
	sched := Schedule{Date: day(2021, time.May, 10), StartTime: "09:00", EndTime: "10:00"}

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{name: "before window", now: time.Date(2021, time.May, 10, 8, 0, 0, 0, time.UTC)},
		{name: "inside window", now: time.Date(2021, time.May, 10, 9, 30, 0, 0, time.UTC)},
		{name: "at end", now: time.Date(2021, time.May, 10, 10, 0, 0, 0, time.UTC)},
		{name: "after end", now: time.Date(2021, time.May, 10, 10, 0, 1, 0, time.UTC), want: true},
		{name: "next day", now: time.Date(2021, time.May, 11, 8, 0, 0, 0, time.UTC), want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sched.Elapsed(tt.now); got != tt.want {
				t.Errorf("Elapsed(%v) = %v, want %v", tt.now, got, tt.want)
			}
		})
	}
}
