package lecture

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/trezcool/darasa/core"
)

// testRepo is a minimal in-memory Repository for unit tests.
type testRepo struct {
	mu          sync.Mutex
	t           map[string]Lecture
	errs        map[string]error // method name -> forced error
	updateErrs  map[string]error // lecture ID -> forced UpdateLecture error
	failUpdates int              // fail the next N updates
}

var _ Repository = (*testRepo)(nil)

func newTestRepo(lecs ...Lecture) *testRepo {
	r := &testRepo{
		t:          make(map[string]Lecture),
		errs:       make(map[string]error),
		updateErrs: make(map[string]error),
	}
	for _, lec := range lecs {
		r.t[lec.ID] = lec
	}
	return r
}

func (r *testRepo) CreateLecture(lec Lecture) (Lecture, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.errs["CreateLecture"]; err != nil {
		return Lecture{}, err
	}
	r.t[lec.ID] = lec
	return lec, nil
}

func (r *testRepo) QueryAllLectures() ([]Lecture, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res := make([]Lecture, 0, len(r.t))
	for _, lec := range r.t {
		res = append(res, lec)
	}
	return res, nil
}

func (r *testRepo) GetLectureByID(id string) (Lecture, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.errs["GetLectureByID"]; err != nil {
		return Lecture{}, err
	}
	if lec, ok := r.t[id]; ok {
		return lec, nil
	}
	return Lecture{}, ErrNotFound
}

func (r *testRepo) GetTeacherLecture(id, teacherID string) (Lecture, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if lec, ok := r.t[id]; ok && lec.TeacherID == teacherID {
		return lec, nil
	}
	return Lecture{}, ErrNotFound
}

func (r *testRepo) FilterLectures(filter QueryFilter) ([]Lecture, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.errs["FilterLectures"]; err != nil {
		return nil, err
	}
	res := make([]Lecture, 0)
	for _, lec := range r.t {
		if filter.Status != "" && lec.Status != filter.Status {
			continue
		}
		if filter.TeacherID != "" && lec.TeacherID != filter.TeacherID {
			continue
		}
		res = append(res, lec)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res, nil
}

func (r *testRepo) UpdateLecture(lec Lecture) (Lecture, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.errs["UpdateLecture"]; err != nil {
		return Lecture{}, err
	}
	if err := r.updateErrs[lec.ID]; err != nil {
		return Lecture{}, err
	}
	if r.failUpdates > 0 {
		r.failUpdates--
		return Lecture{}, errBoom
	}
	if _, ok := r.t[lec.ID]; !ok {
		return Lecture{}, ErrNotFound
	}
	r.t[lec.ID] = lec
	return lec, nil
}

func (r *testRepo) get(id string) Lecture {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.t[id]
}

func (r *testRepo) forceErr(method string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs[method] = err
}

func (r *testRepo) forceUpdateErrFor(id string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updateErrs[id] = err
}

func (r *testRepo) failNextUpdates(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failUpdates = n
}

// testLogger swallows all output.
type testLogger struct{}

var _ core.Logger = (*testLogger)(nil)

func (testLogger) Debug(msg string, args ...interface{}) {}
func (testLogger) Info(msg string, args ...interface{})  {}
func (testLogger) Warn(msg string, args ...interface{})  {}
func (testLogger) Error(msg string, args ...interface{}) {}
func (testLogger) Fatal(msg string, args ...interface{}) {}

// stub providers

type stubTranscriber struct {
	tr    core.Transcription
	err   error
	calls int
}

func (s *stubTranscriber) Transcribe(ctx context.Context, audioRef string) (core.Transcription, error) {
	s.calls++
	return s.tr, s.err
}

type stubComparer struct {
	findings core.AnalysisFindings
	err      error
	calls    int
}

func (s *stubComparer) Compare(ctx context.Context, reference, recorded string, info core.LectureInfo) (core.AnalysisFindings, error) {
	s.calls++
	return s.findings, s.err
}

type stubSource struct {
	text      string
	synthetic bool
	calls     int
}

func (s *stubSource) Fetch(ctx context.Context, locator string) (string, bool) {
	s.calls++
	return s.text, !s.synthetic
}

type stubMailer struct {
	mu   sync.Mutex
	sent []*core.EmailMessage
}

func (s *stubMailer) SendMessages(messages ...*core.EmailMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, messages...)
}

var errBoom = errors.New("boom")

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func scheduledLecture(id, teacherID string, date time.Time, start, end string) Lecture {
	now := time.Now().UTC()
	return Lecture{
		ID:        id,
		TeacherID: teacherID,
		Title:     "Photosynthesis",
		Subject:   "Biology",
		Class:     "Grade 9",
		Schedule:  Schedule{Date: date, StartTime: start, EndTime: end},
		Status:    StatusScheduled,
		Reference: Reference{Source: SourceNone},
		Analysis:  Analysis{Status: AnalysisPending},
		CreatedAt: now,
		UpdatedAt: now,
	}
}
