package echoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/lecture"
	"github.com/trezcool/darasa/storage/database/inmem"
)

type nopLogger struct{}

func (nopLogger) Debug(msg string, args ...interface{}) {}
func (nopLogger) Info(msg string, args ...interface{})  {}
func (nopLogger) Warn(msg string, args ...interface{})  {}
func (nopLogger) Error(msg string, args ...interface{}) {}
func (nopLogger) Fatal(msg string, args ...interface{}) {}

type stubTranscriber struct{}

func (stubTranscriber) Transcribe(ctx context.Context, audioRef string) (core.Transcription, error) {
	return core.Transcription{Text: "short", WordCount: 1}, nil
}

type stubComparer struct{}

func (stubComparer) Compare(ctx context.Context, reference, recorded string, info core.LectureInfo) (core.AnalysisFindings, error) {
	return core.AnalysisFindings{MatchPercentage: 80}, nil
}

type stubSource struct{}

func (stubSource) Fetch(ctx context.Context, locator string) (string, bool) { return "", false }

func setup(t *testing.T) (Server, lecture.Repository, *lecture.Analyzer) {
	core.Conf.Debug = false
	core.Conf.TestMode = true

	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	repo := inmemdb.NewLectureRepository(db)
	analyzer := lecture.NewAnalyzer(repo, stubTranscriber{}, stubComparer{}, stubSource{}, nil, nopLogger{}, t.TempDir())
	svc := lecture.NewService(repo, nopLogger{}, analyzer)

	app := NewServer(&Options{DisableReqLogs: true, Logger: nopLogger{}, LectureSvc: svc})
	return app, repo, analyzer
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func getToken(t *testing.T, teacherID string) string {
	token, err := GenerateToken(teacherID, teacherID+"@test.cd")
	if err != nil {
		t.Fatalf("getToken(): %v", err)
	}
	return token
}

func marshalObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshalObj(): %v", err)
	}
	return data
}

func decodeLecture(t *testing.T, body *bytes.Buffer) lecture.Lecture {
	var lec lecture.Lecture
	if err := json.NewDecoder(body).Decode(&lec); err != nil {
		t.Fatalf("decodeLecture(): %v", err)
	}
	return lec
}

func createLecture(t *testing.T, repo lecture.Repository, id, teacherID string, date time.Time, start, end string) lecture.Lecture {
	now := time.Now().UTC()
	lec, err := repo.CreateLecture(lecture.Lecture{
		ID:        id,
		TeacherID: teacherID,
		Title:     "Photosynthesis",
		Subject:   "Biology",
		Class:     "Grade 9",
		Schedule:  lecture.Schedule{Date: date, StartTime: start, EndTime: end},
		Status:    lecture.StatusScheduled,
		Reference: lecture.Reference{Source: lecture.SourceNone},
		Analysis:  lecture.Analysis{Status: lecture.AnalysisPending},
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("createLecture(): %v", err)
	}
	return lec
}

// today returns a schedule covering the whole current day so window checks pass.
func today() (time.Time, string, string) {
	now := time.Now()
	date := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return date, "00:00", "23:59"
}

func Test_lectureApi_create(t *testing.T) {
	app, _, _ := setup(t)
	token := getToken(t, "t-1")

	newLecture := func() lecture.NewLecture {
		return lecture.NewLecture{
			Title:     "Photosynthesis",
			Subject:   "Biology",
			Class:     "Grade 9",
			Date:      time.Date(2021, time.May, 10, 0, 0, 0, 0, time.UTC),
			StartTime: "09:00",
			EndTime:   "10:00",
		}
	}

	t.Run("auth required", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/lectures", "", marshalObj(t, newLecture()))
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("validation error", func(t *testing.T) {
		nl := newLecture()
		nl.Title = ""
		nl.StartTime = "9am"
		req, rec := newAuthRequest(http.MethodPost, "/v1/lectures", token, marshalObj(t, nl))
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		var fldErrs map[string]string
		assert.NoError(t, json.NewDecoder(rec.Body).Decode(&fldErrs))
		assert.Contains(t, fldErrs, "title")
		assert.Contains(t, fldErrs, "start_time")
	})

	t.Run("end before start", func(t *testing.T) {
		nl := newLecture()
		nl.StartTime = "10:00"
		nl.EndTime = "09:00"
		req, rec := newAuthRequest(http.MethodPost, "/v1/lectures", token, marshalObj(t, nl))
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		var fldErrs map[string]string
		assert.NoError(t, json.NewDecoder(rec.Body).Decode(&fldErrs))
		assert.Contains(t, fldErrs, "end_time")
	})

	t.Run("ok", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/lectures", token, marshalObj(t, newLecture()))
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusCreated, rec.Code)

		lec := decodeLecture(t, rec.Body)
		assert.NotEmpty(t, lec.ID)
		assert.Equal(t, "t-1", lec.TeacherID) // always the authenticated teacher
		assert.Equal(t, lecture.StatusScheduled, lec.Status)
		assert.Equal(t, lecture.AnalysisPending, lec.Analysis.Status)
	})
}

func Test_lectureApi_get(t *testing.T) {
	app, repo, _ := setup(t)
	token := getToken(t, "t-1")

	own := createLecture(t, repo, "lec-own", "t-1", time.Date(2021, time.May, 10, 0, 0, 0, 0, time.UTC), "09:00", "10:00")
	createLecture(t, repo, "lec-other", "t-2", time.Date(2021, time.May, 10, 0, 0, 0, 0, time.UTC), "09:00", "10:00")

	t.Run("auth required", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/lectures/lec-own", "")
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("not found", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/lectures/lol", token)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("other teacher's lecture is not found", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/lectures/lec-other", token)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("ok", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/lectures/lec-own", token)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, own.ID, decodeLecture(t, rec.Body).ID)
	})

	t.Run("list own only", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/lectures", token)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)

		var lecs []lecture.Lecture
		assert.NoError(t, json.NewDecoder(rec.Body).Decode(&lecs))
		assert.Len(t, lecs, 1)
		assert.Equal(t, own.ID, lecs[0].ID)
	})
}

func Test_lectureApi_recordings(t *testing.T) {
	app, repo, analyzer := setup(t)
	token := getToken(t, "t-1")

	date, start, end := today()
	createLecture(t, repo, "lec-now", "t-1", date, start, end)
	createLecture(t, repo, "lec-past", "t-1", time.Date(2021, time.May, 10, 0, 0, 0, 0, time.UTC), "09:00", "10:00")

	t.Run("start: auth required", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/recordings/start/lec-now", "")
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("start: not found", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/recordings/start/lol", token)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("start: out of window", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/recordings/start/lec-past", token)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), lecture.ErrOutOfWindow.Error())
	})

	t.Run("start: ok", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/recordings/start/lec-now", token)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)

		got, err := repo.GetLectureByID("lec-now")
		assert.NoError(t, err)
		assert.Equal(t, lecture.StatusRecording, got.Status)
	})

	t.Run("stop: missing audio ref", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/recordings/stop/lec-now", token, []byte(`{}`))
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("stop: not recording", func(t *testing.T) {
		stop := lecture.StopRecording{AudioRef: "lec-past.webm", DurationSeconds: 60}
		req, rec := newAuthRequest(http.MethodPost, "/v1/recordings/stop/lec-past", token, marshalObj(t, stop))
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("stop: ok", func(t *testing.T) {
		stop := lecture.StopRecording{AudioRef: "lec-now.webm", DurationSeconds: 60}
		req, rec := newAuthRequest(http.MethodPost, "/v1/recordings/stop/lec-now", token, marshalObj(t, stop))
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Analysis started")

		// the detached pipeline finalizes the lecture
		analyzer.Wait()
		got, err := repo.GetLectureByID("lec-now")
		assert.NoError(t, err)
		assert.Equal(t, lecture.StatusAnalyzed, got.Status)
		assert.Equal(t, lecture.AnalysisCompleted, got.Analysis.Status)
	})
}
