package lecture

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
)

// Lecture lifecycle statuses
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusRecording Status = "recording"
	StatusCompleted Status = "completed"
	StatusAnalyzed  Status = "analyzed"
	StatusCancelled Status = "cancelled"
)

// Analysis sub-statuses; only meaningful once the lecture is completed.
type AnalysisStatus string

const (
	AnalysisPending    AnalysisStatus = "pending"
	AnalysisProcessing AnalysisStatus = "processing"
	AnalysisCompleted  AnalysisStatus = "completed"
	AnalysisFailed     AnalysisStatus = "failed"
)

// Reference transcript provenance
const (
	SourceManual      = "manual"
	SourceExtracted   = "extracted"
	SourcePlaceholder = "placeholder" // synthetic fallback, no usable extraction
	SourceNone        = "none"
)

type (
	// Schedule is the time window a lecture is expected to be delivered in,
	// at minute resolution.
	Schedule struct {
		Date      time.Time `json:"date"`       // calendar day, midnight
		StartTime string    `json:"start_time"` // HH:MM
		EndTime   string    `json:"end_time"`   // HH:MM
	}

	// Reference holds the ground-truth transcript of the intended lecture content.
	Reference struct {
		VideoURL    string    `json:"video_url"`
		Transcript  string    `json:"transcript"`
		Source      string    `json:"source"` // manual | extracted | placeholder | none
		GeneratedAt null.Time `json:"generated_at"`
	}

	// Recording holds the actual recording artifact and its derived transcript.
	Recording struct {
		AudioRef              string    `json:"audio_ref"`
		Transcript            string    `json:"transcript"`
		StartedAt             null.Time `json:"started_at"`
		EndedAt               null.Time `json:"ended_at"`
		DurationSeconds       float64   `json:"duration_seconds"`
		WordCount             int       `json:"word_count"`
		TranscriptGeneratedAt null.Time `json:"transcript_generated_at"`
	}

	// Analysis is the per-attempt comparison outcome.
	Analysis struct {
		Status          AnalysisStatus         `json:"status"`
		MatchPercentage int                    `json:"match_percentage"`
		VoiceConfidence float64                `json:"voice_confidence"`
		Findings        *core.AnalysisFindings `json:"findings,omitempty"`
		Error           string                 `json:"error,omitempty"`
		AnalyzedAt      null.Time              `json:"analyzed_at"`
	}

	Lecture struct {
		ID           string    `json:"id"`
		TeacherID    string    `json:"teacher_id"`
		TeacherEmail string    `json:"teacher_email"`
		Title        string    `json:"title"`
		Subject      string    `json:"subject"`
		Class        string    `json:"class"`
		Schedule     Schedule  `json:"schedule"`
		Status       Status    `json:"status"`
		Reference    Reference `json:"reference"`
		Recording    Recording `json:"recording"`
		Analysis     Analysis  `json:"analysis"`
		CreatedAt    time.Time `json:"created_at"` // UTC
		UpdatedAt    time.Time `json:"updated_at"` // UTC
	}
)

// Window resolves the schedule bounds on its calendar date.
func (s Schedule) Window() (start, end time.Time, err error) {
	start, err = timeOfDayOn(s.Date, s.StartTime)
	if err != nil {
		return
	}
	end, err = timeOfDayOn(s.Date, s.EndTime)
	return
}

// Covers reports whether `now` falls within the schedule window (inclusive).
func (s Schedule) Covers(now time.Time) bool {
	start, end, err := s.Window()
	if err != nil {
		return false
	}
	return !now.Before(start) && !now.After(end)
}

// Elapsed reports whether the schedule window has fully passed at `now`.
func (s Schedule) Elapsed(now time.Time) bool {
	_, end, err := s.Window()
	if err != nil {
		return false
	}
	return now.After(end)
}

func timeOfDayOn(date time.Time, hhmm string) (time.Time, error) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, date.Location()), nil
}

func nullTime(t time.Time) null.Time {
	return null.TimeFrom(t)
}

// CanTransition enforces the allowed lecture status edges:
// scheduled -> recording | cancelled, recording -> completed, completed -> analyzed.
// Terminal statuses have no outgoing edges.
func CanTransition(from, to Status) bool {
	switch from {
	case StatusScheduled:
		return to == StatusRecording || to == StatusCancelled
	case StatusRecording:
		return to == StatusCompleted
	case StatusCompleted:
		return to == StatusAnalyzed
	default:
		return false
	}
}
