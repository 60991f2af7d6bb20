package lecture

import (
	"time"

	"github.com/trezcool/darasa/core"
)

// NewLecture is the payload accepted by the external scheduling action.
type NewLecture struct {
	TeacherID           string    `json:"teacher_id" validate:"required"`
	TeacherEmail        string    `json:"teacher_email" validate:"omitempty,email"`
	Title               string    `json:"title" validate:"required"`
	Subject             string    `json:"subject" validate:"required"`
	Class               string    `json:"class" validate:"required"`
	Date                time.Time `json:"date" validate:"required"`
	StartTime           string    `json:"start_time" validate:"required,time_of_day"`
	EndTime             string    `json:"end_time" validate:"required,time_of_day"`
	VideoURL            string    `json:"video_url" validate:"omitempty,url"`
	ReferenceTranscript string    `json:"reference_transcript"`
}

const errEndBeforeStart = "must be after start_time"

func (nl *NewLecture) Validate() error {
	nl.TeacherID = core.CleanString(nl.TeacherID)
	nl.TeacherEmail = core.CleanString(nl.TeacherEmail, true /* lower */)
	nl.Title = core.CleanString(nl.Title)
	nl.Subject = core.CleanString(nl.Subject)
	nl.Class = core.CleanString(nl.Class)
	nl.StartTime = core.CleanString(nl.StartTime)
	nl.EndTime = core.CleanString(nl.EndTime)
	nl.VideoURL = core.CleanString(nl.VideoURL)
	if err := core.Validate.Struct(nl); err != nil {
		return err
	}
	// "HH:MM" zero-padded values compare correctly as strings
	if nl.EndTime <= nl.StartTime {
		return core.NewValidationError(nil, core.FieldError{Field: "end_time", Error: errEndBeforeStart})
	}
	return nil
}

func (s *StopRecording) Validate() error {
	s.AudioRef = core.CleanString(s.AudioRef)
	return core.Validate.Struct(s)
}
