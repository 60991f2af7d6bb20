package lecture

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/darasa/core"
)

var (
	// errors
	ErrNotFound      = errors.New("lecture not found")
	ErrOutOfWindow   = errors.New("recording outside scheduled time")
	ErrInvalidStatus = errors.New("action not allowed in the lecture's current status")

	nowFunc = time.Now // mockable
)

type (
	Repository interface {
		CreateLecture(lec Lecture) (Lecture, error)
		QueryAllLectures() ([]Lecture, error)
		GetLectureByID(id string) (Lecture, error)
		// GetTeacherLecture scopes the lookup to lectures owned by teacherID.
		GetTeacherLecture(id, teacherID string) (Lecture, error)
		// FilterLectures applies AND operation on available QueryFilter fields.
		FilterLectures(filter QueryFilter) ([]Lecture, error)
		// UpdateLecture replaces the stored lecture by ID.
		UpdateLecture(lec Lecture) (Lecture, error)
	}

	QueryFilter struct {
		Day       time.Time // matches the schedule calendar date
		Status    Status
		TeacherID string
	}

	// StopRecording is the payload accepted when a recording ends.
	StopRecording struct {
		AudioRef        string  `json:"audio_ref" validate:"required"`
		DurationSeconds float64 `json:"duration_seconds" validate:"gte=0"`
	}

	Service interface {
		Create(nl NewLecture) (Lecture, error)
		QueryAll() ([]Lecture, error)
		GetByID(id string) (Lecture, error)
		GetForTeacher(id, teacherID string) (Lecture, error)
		// StartRecording marks the lecture as recording if `now` falls inside its
		// schedule window. Calling it twice overwrites the start timestamp; guarding
		// against double-start is the caller's responsibility.
		StartRecording(id, teacherID string) (Lecture, error)
		// StopRecording finalizes the recording and launches the analysis pipeline
		// in the background; it returns as soon as the lecture is marked completed.
		StopRecording(id, teacherID string, stop StopRecording) (Lecture, error)
	}

	service struct {
		repo     Repository
		logger   core.Logger
		analyzer *Analyzer
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, logger core.Logger, analyzer *Analyzer) Service {
	return &service{
		repo:     repo,
		logger:   logger,
		analyzer: analyzer,
	}
}

func (svc *service) Create(nl NewLecture) (Lecture, error) {
	if err := nl.Validate(); err != nil {
		return Lecture{}, err
	}

	now := nowFunc().UTC()
	lec := Lecture{
		ID:           uuid.New().String(),
		TeacherID:    nl.TeacherID,
		TeacherEmail: nl.TeacherEmail,
		Title:        nl.Title,
		Subject:      nl.Subject,
		Class:        nl.Class,
		Schedule: Schedule{
			Date:      nl.Date,
			StartTime: nl.StartTime,
			EndTime:   nl.EndTime,
		},
		Status: StatusScheduled,
		Reference: Reference{
			VideoURL:   nl.VideoURL,
			Transcript: nl.ReferenceTranscript,
			Source:     SourceNone,
		},
		Analysis:  Analysis{Status: AnalysisPending},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if lec.Reference.Transcript != "" {
		lec.Reference.Source = SourceManual
		lec.Reference.GeneratedAt = nullTime(now)
	}
	return svc.repo.CreateLecture(lec)
}

func (svc *service) QueryAll() ([]Lecture, error) {
	return svc.repo.QueryAllLectures()
}

func (svc *service) GetByID(id string) (Lecture, error) {
	return svc.repo.GetLectureByID(id)
}

func (svc *service) GetForTeacher(id, teacherID string) (Lecture, error) {
	return svc.repo.GetTeacherLecture(id, teacherID)
}

func (svc *service) StartRecording(id, teacherID string) (Lecture, error) {
	lec, err := svc.repo.GetTeacherLecture(id, teacherID)
	if err != nil {
		return Lecture{}, err
	}
	// a repeat start while recording is allowed and overwrites the timestamp
	if lec.Status != StatusScheduled && lec.Status != StatusRecording {
		return Lecture{}, ErrInvalidStatus
	}

	now := nowFunc()
	if !lec.Schedule.Covers(now) {
		return Lecture{}, ErrOutOfWindow
	}

	lec.Recording.StartedAt = nullTime(now.UTC())
	lec.Status = StatusRecording
	lec.UpdatedAt = now.UTC()
	return svc.repo.UpdateLecture(lec)
}

func (svc *service) StopRecording(id, teacherID string, stop StopRecording) (Lecture, error) {
	if err := stop.Validate(); err != nil {
		return Lecture{}, err
	}

	lec, err := svc.repo.GetTeacherLecture(id, teacherID)
	if err != nil {
		return Lecture{}, err
	}
	if !CanTransition(lec.Status, StatusCompleted) {
		return Lecture{}, ErrInvalidStatus
	}

	now := nowFunc().UTC()
	lec.Recording.EndedAt = nullTime(now)
	lec.Recording.AudioRef = stop.AudioRef
	lec.Recording.DurationSeconds = stop.DurationSeconds
	lec.Status = StatusCompleted
	lec.UpdatedAt = now
	lec, err = svc.repo.UpdateLecture(lec)
	if err != nil {
		return Lecture{}, err
	}

	// analysis runs detached; the caller never waits for it
	if !svc.analyzer.Launch(lec.ID) {
		svc.logger.Warn("analysis already in flight for lecture " + lec.ID)
	}
	return lec, nil
}
