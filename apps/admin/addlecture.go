package main

import (
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/darasa/core/lecture"
)

// addLecture schedules a new lecture.Lecture
func (cli *commandLine) addLecture(teacherID, email, title, subject, class, date, start, end, videoURL string) error {
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return err
	}

	nl := lecture.NewLecture{
		TeacherID:    teacherID,
		TeacherEmail: email,
		Title:        title,
		Subject:      subject,
		Class:        class,
		Date:         day,
		StartTime:    start,
		EndTime:      end,
		VideoURL:     videoURL,
	}
	if err := nl.Validate(); err != nil {
		return err
	}

	now := time.Now().UTC()
	lec := lecture.Lecture{
		ID:           uuid.New().String(),
		TeacherID:    nl.TeacherID,
		TeacherEmail: nl.TeacherEmail,
		Title:        nl.Title,
		Subject:      nl.Subject,
		Class:        nl.Class,
		Schedule: lecture.Schedule{
			Date:      nl.Date,
			StartTime: nl.StartTime,
			EndTime:   nl.EndTime,
		},
		Status: lecture.StatusScheduled,
		Reference: lecture.Reference{
			VideoURL: nl.VideoURL,
			Source:   lecture.SourceNone,
		},
		Analysis:  lecture.Analysis{Status: lecture.AnalysisPending},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := cli.repo.CreateLecture(lec); err != nil {
		return err
	}
	return nil
}
