package sqlxrepos

import (
	"database/sql"
	"encoding/json"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/lecture"
)

type lectureRepository struct {
	db *sqlx.DB
}

var _ lecture.Repository = (*lectureRepository)(nil)

func NewLectureRepository(db *sql.DB) *lectureRepository {
	return &lectureRepository{db: sqlx.NewDb(db, core.Conf.Database.Engine)}
}

type lectureRow struct {
	ID           string    `db:"id"`
	TeacherID    string    `db:"teacher_id"`
	TeacherEmail string    `db:"teacher_email"`
	Title        string    `db:"title"`
	Subject      string    `db:"subject"`
	Class        string    `db:"class"`
	ScheduleDate time.Time `db:"schedule_date"`
	StartTime    string    `db:"start_time"`
	EndTime      string    `db:"end_time"`
	Status       string    `db:"status"`

	ReferenceVideoURL    string    `db:"reference_video_url"`
	ReferenceTranscript  string    `db:"reference_transcript"`
	ReferenceSource      string    `db:"reference_source"`
	ReferenceGeneratedAt null.Time `db:"reference_generated_at"`

	RecordingAudioRef              string    `db:"recording_audio_ref"`
	RecordingTranscript            string    `db:"recording_transcript"`
	RecordingStartedAt             null.Time `db:"recording_started_at"`
	RecordingEndedAt               null.Time `db:"recording_ended_at"`
	RecordingDurationSeconds       float64   `db:"recording_duration_seconds"`
	RecordingWordCount             int       `db:"recording_word_count"`
	RecordingTranscriptGeneratedAt null.Time `db:"recording_transcript_generated_at"`

	AnalysisStatus          string    `db:"analysis_status"`
	AnalysisMatchPercentage int       `db:"analysis_match_percentage"`
	AnalysisVoiceConfidence float64   `db:"analysis_voice_confidence"`
	AnalysisFindings        null.JSON `db:"analysis_findings"`
	AnalysisError           string    `db:"analysis_error"`
	AnalysisAnalyzedAt      null.Time `db:"analysis_analyzed_at"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func newRow(lec lecture.Lecture) (lectureRow, error) {
	row := lectureRow{
		ID:           lec.ID,
		TeacherID:    lec.TeacherID,
		TeacherEmail: lec.TeacherEmail,
		Title:        lec.Title,
		Subject:      lec.Subject,
		Class:        lec.Class,
		ScheduleDate: lec.Schedule.Date,
		StartTime:    lec.Schedule.StartTime,
		EndTime:      lec.Schedule.EndTime,
		Status:       string(lec.Status),

		ReferenceVideoURL:    lec.Reference.VideoURL,
		ReferenceTranscript:  lec.Reference.Transcript,
		ReferenceSource:      lec.Reference.Source,
		ReferenceGeneratedAt: lec.Reference.GeneratedAt,

		RecordingAudioRef:              lec.Recording.AudioRef,
		RecordingTranscript:            lec.Recording.Transcript,
		RecordingStartedAt:             lec.Recording.StartedAt,
		RecordingEndedAt:               lec.Recording.EndedAt,
		RecordingDurationSeconds:       lec.Recording.DurationSeconds,
		RecordingWordCount:             lec.Recording.WordCount,
		RecordingTranscriptGeneratedAt: lec.Recording.TranscriptGeneratedAt,

		AnalysisStatus:          string(lec.Analysis.Status),
		AnalysisMatchPercentage: lec.Analysis.MatchPercentage,
		AnalysisVoiceConfidence: lec.Analysis.VoiceConfidence,
		AnalysisError:           lec.Analysis.Error,
		AnalysisAnalyzedAt:      lec.Analysis.AnalyzedAt,

		CreatedAt: lec.CreatedAt,
		UpdatedAt: lec.UpdatedAt,
	}
	if lec.Analysis.Findings != nil {
		data, err := json.Marshal(lec.Analysis.Findings)
		if err != nil {
			return lectureRow{}, errors.Wrap(err, "marshaling analysis findings")
		}
		row.AnalysisFindings = null.JSONFrom(data)
	}
	return row, nil
}

func (row lectureRow) lecture() (lecture.Lecture, error) {
	lec := lecture.Lecture{
		ID:           row.ID,
		TeacherID:    row.TeacherID,
		TeacherEmail: row.TeacherEmail,
		Title:        row.Title,
		Subject:      row.Subject,
		Class:        row.Class,
		Schedule: lecture.Schedule{
			Date:      row.ScheduleDate,
			StartTime: row.StartTime,
			EndTime:   row.EndTime,
		},
		Status: lecture.Status(row.Status),
		Reference: lecture.Reference{
			VideoURL:    row.ReferenceVideoURL,
			Transcript:  row.ReferenceTranscript,
			Source:      row.ReferenceSource,
			GeneratedAt: row.ReferenceGeneratedAt,
		},
		Recording: lecture.Recording{
			AudioRef:              row.RecordingAudioRef,
			Transcript:            row.RecordingTranscript,
			StartedAt:             row.RecordingStartedAt,
			EndedAt:               row.RecordingEndedAt,
			DurationSeconds:       row.RecordingDurationSeconds,
			WordCount:             row.RecordingWordCount,
			TranscriptGeneratedAt: row.RecordingTranscriptGeneratedAt,
		},
		Analysis: lecture.Analysis{
			Status:          lecture.AnalysisStatus(row.AnalysisStatus),
			MatchPercentage: row.AnalysisMatchPercentage,
			VoiceConfidence: row.AnalysisVoiceConfidence,
			Error:           row.AnalysisError,
			AnalyzedAt:      row.AnalysisAnalyzedAt,
		},
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
	if row.AnalysisFindings.Valid {
		var findings core.AnalysisFindings
		if err := json.Unmarshal(row.AnalysisFindings.JSON, &findings); err != nil {
			return lecture.Lecture{}, errors.Wrap(err, "unmarshaling analysis findings")
		}
		lec.Analysis.Findings = &findings
	}
	return lec, nil
}

const insertQuery = `
INSERT INTO lecture (
	id, teacher_id, teacher_email, title, subject, class,
	schedule_date, start_time, end_time, status,
	reference_video_url, reference_transcript, reference_source, reference_generated_at,
	recording_audio_ref, recording_transcript, recording_started_at, recording_ended_at,
	recording_duration_seconds, recording_word_count, recording_transcript_generated_at,
	analysis_status, analysis_match_percentage, analysis_voice_confidence,
	analysis_findings, analysis_error, analysis_analyzed_at,
	created_at, updated_at
) VALUES (
	:id, :teacher_id, :teacher_email, :title, :subject, :class,
	:schedule_date, :start_time, :end_time, :status,
	:reference_video_url, :reference_transcript, :reference_source, :reference_generated_at,
	:recording_audio_ref, :recording_transcript, :recording_started_at, :recording_ended_at,
	:recording_duration_seconds, :recording_word_count, :recording_transcript_generated_at,
	:analysis_status, :analysis_match_percentage, :analysis_voice_confidence,
	:analysis_findings, :analysis_error, :analysis_analyzed_at,
	:created_at, :updated_at
)`

const updateQuery = `
UPDATE lecture SET
	teacher_email = :teacher_email,
	title = :title,
	subject = :subject,
	class = :class,
	schedule_date = :schedule_date,
	start_time = :start_time,
	end_time = :end_time,
	status = :status,
	reference_video_url = :reference_video_url,
	reference_transcript = :reference_transcript,
	reference_source = :reference_source,
	reference_generated_at = :reference_generated_at,
	recording_audio_ref = :recording_audio_ref,
	recording_transcript = :recording_transcript,
	recording_started_at = :recording_started_at,
	recording_ended_at = :recording_ended_at,
	recording_duration_seconds = :recording_duration_seconds,
	recording_word_count = :recording_word_count,
	recording_transcript_generated_at = :recording_transcript_generated_at,
	analysis_status = :analysis_status,
	analysis_match_percentage = :analysis_match_percentage,
	analysis_voice_confidence = :analysis_voice_confidence,
	analysis_findings = :analysis_findings,
	analysis_error = :analysis_error,
	analysis_analyzed_at = :analysis_analyzed_at,
	updated_at = :updated_at
WHERE id = :id`

func (repo *lectureRepository) CreateLecture(lec lecture.Lecture) (lecture.Lecture, error) {
	row, err := newRow(lec)
	if err != nil {
		return lecture.Lecture{}, err
	}
	if _, err = repo.db.NamedExec(insertQuery, row); err != nil {
		return lecture.Lecture{}, errors.Wrap(err, "creating lecture")
	}
	return lec, nil
}

func (repo *lectureRepository) QueryAllLectures() ([]lecture.Lecture, error) {
	var rows []lectureRow
	if err := repo.db.Select(&rows, "SELECT * FROM lecture ORDER BY schedule_date, start_time"); err != nil {
		return nil, errors.Wrap(err, "querying lectures")
	}
	return lectures(rows)
}

func (repo *lectureRepository) GetLectureByID(id string) (lecture.Lecture, error) {
	var row lectureRow
	if err := repo.db.Get(&row, "SELECT * FROM lecture WHERE id = $1", id); err != nil {
		if err == sql.ErrNoRows {
			return lecture.Lecture{}, lecture.ErrNotFound
		}
		return lecture.Lecture{}, errors.Wrap(err, "getting lecture")
	}
	return row.lecture()
}

func (repo *lectureRepository) GetTeacherLecture(id, teacherID string) (lecture.Lecture, error) {
	var row lectureRow
	err := repo.db.Get(&row, "SELECT * FROM lecture WHERE id = $1 AND teacher_id = $2", id, teacherID)
	if err != nil {
		if err == sql.ErrNoRows {
			return lecture.Lecture{}, lecture.ErrNotFound
		}
		return lecture.Lecture{}, errors.Wrap(err, "getting teacher lecture")
	}
	return row.lecture()
}

func (repo *lectureRepository) FilterLectures(filter lecture.QueryFilter) ([]lecture.Lecture, error) {
	query := "SELECT * FROM lecture WHERE 1=1"
	args := make([]interface{}, 0, 3)

	if !filter.Day.IsZero() {
		args = append(args, filter.Day)
		query += " AND schedule_date = $" + strconv.Itoa(len(args)) + "::date"
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += " AND status = $" + strconv.Itoa(len(args))
	}
	if filter.TeacherID != "" {
		args = append(args, filter.TeacherID)
		query += " AND teacher_id = $" + strconv.Itoa(len(args))
	}
	query += " ORDER BY start_time"

	var rows []lectureRow
	if err := repo.db.Select(&rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "filtering lectures")
	}
	return lectures(rows)
}

func (repo *lectureRepository) UpdateLecture(lec lecture.Lecture) (lecture.Lecture, error) {
	row, err := newRow(lec)
	if err != nil {
		return lecture.Lecture{}, err
	}
	res, err := repo.db.NamedExec(updateQuery, row)
	if err != nil {
		return lecture.Lecture{}, errors.Wrap(err, "updating lecture")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return lecture.Lecture{}, lecture.ErrNotFound
	}
	return lec, nil
}

func lectures(rows []lectureRow) ([]lecture.Lecture, error) {
	res := make([]lecture.Lecture, 0, len(rows))
	for _, row := range rows {
		lec, err := row.lecture()
		if err != nil {
			return nil, err
		}
		res = append(res, lec)
	}
	return res, nil
}
