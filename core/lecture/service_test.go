package lecture

import (
	"testing"
	"time"

	"github.com/trezcool/darasa/core"
)

func newTestService(repo Repository, analyzer *Analyzer) Service {
	return NewService(repo, testLogger{}, analyzer)
}

func newTestAnalyzer(repo Repository) (*Analyzer, *stubTranscriber, *stubComparer, *stubSource, *stubMailer) {
	transcriber := &stubTranscriber{tr: core.Transcription{
		Text:       "the cell is the basic unit of life and all living things are made of cells so the cell matters",
		Confidence: 0.91,
		WordCount:  20,
	}}
	comparer := &stubComparer{findings: core.AnalysisFindings{
		MatchPercentage:      85,
		ConceptualSimilarity: "high",
		KeyPointsCovered:     8,
		TotalKeyPoints:       10,
	}}
	source := &stubSource{text: "the cell is the basic unit of life"}
	mailer := &stubMailer{}
	return NewAnalyzer(repo, transcriber, comparer, source, mailer, testLogger{}, ""), transcriber, comparer, source, mailer
}

func TestService_Create(t *testing.T) {
	repo := newTestRepo()
	analyzer, _, _, _, _ := newTestAnalyzer(repo)
	svc := newTestService(repo, analyzer)

	validNew := func() NewLecture {
		return NewLecture{
			TeacherID: "t-1",
			Title:     "Photosynthesis",
			Subject:   "Biology",
			Class:     "Grade 9",
			Date:      day(2021, time.May, 10),
			StartTime: "09:00",
			EndTime:   "10:00",
		}
	}

	t.Run("ok", func(t *testing.T) {
		lec, err := svc.Create(validNew())
		if err != nil {
			t.Fatalf("Create() failed, %v", err)
		}
		if lec.ID == "" {
			t.Error("Create() did not assign an ID")
		}
		if lec.Status != StatusScheduled {
			t.Errorf("Status = %s, want %s", lec.Status, StatusScheduled)
		}
		if lec.Analysis.Status != AnalysisPending {
			t.Errorf("Analysis.Status = %s, want %s", lec.Analysis.Status, AnalysisPending)
		}
		if lec.Reference.Source != SourceNone {
			t.Errorf("Reference.Source = %s, want %s", lec.Reference.Source, SourceNone)
		}
	})

	t.Run("manual reference transcript", func(t *testing.T) {
		nl := validNew()
		nl.ReferenceTranscript = "the cell is the basic unit of life"
		lec, err := svc.Create(nl)
		if err != nil {
			t.Fatalf("Create() failed, %v", err)
		}
		if lec.Reference.Source != SourceManual {
			t.Errorf("Reference.Source = %s, want %s", lec.Reference.Source, SourceManual)
		}
		if !lec.Reference.GeneratedAt.Valid {
			t.Error("Reference.GeneratedAt not set")
		}
	})

	t.Run("validation errors", func(t *testing.T) {
		tests := []struct {
			name   string
			mutate func(nl *NewLecture)
		}{
			{name: "missing teacher", mutate: func(nl *NewLecture) { nl.TeacherID = "" }},
			{name: "missing title", mutate: func(nl *NewLecture) { nl.Title = "" }},
			{name: "bad start time", mutate: func(nl *NewLecture) { nl.StartTime = "9am" }},
			{name: "start time out of range", mutate: func(nl *NewLecture) { nl.StartTime = "25:00" }},
			{name: "end before start", mutate: func(nl *NewLecture) { nl.StartTime = "10:00"; nl.EndTime = "09:00" }},
			{name: "end equals start", mutate: func(nl *NewLecture) { nl.EndTime = nl.StartTime }},
			{name: "bad email", mutate: func(nl *NewLecture) { nl.TeacherEmail = "lol" }},
			{name: "bad video url", mutate: func(nl *NewLecture) { nl.VideoURL = "lol" }},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				nl := validNew()
				tt.mutate(&nl)
				if _, err := svc.Create(nl); err == nil {
					t.Error("Create() expected a validation error")
				}
			})
		}
	})

	t.Run("end before start yields a field error", func(t *testing.T) {
		nl := validNew()
		nl.StartTime = "10:00"
		nl.EndTime = "09:00"
		_, err := svc.Create(nl)
		vErr, ok := err.(*core.ValidationError)
		if !ok {
			t.Fatalf("Create() error = %T(%v), want *core.ValidationError", err, err)
		}
		if len(vErr.Fields) != 1 || vErr.Fields[0].Field != "end_time" {
			t.Errorf("Fields = %+v, want a single end_time error", vErr.Fields)
		}
	})
}

func TestService_StartRecording(t *testing.T) {
	lec := scheduledLecture("lec-1", "t-1", day(2021, time.May, 10), "09:00", "10:00")
	repo := newTestRepo(lec)
	analyzer, _, _, _, _ := newTestAnalyzer(repo)
	svc := newTestService(repo, analyzer)

	defer func() { nowFunc = time.Now }()

	t.Run("out of window", func(t *testing.T) {
		nowFunc = func() time.Time { return time.Date(2021, time.May, 10, 8, 0, 0, 0, time.UTC) }
		if _, err := svc.StartRecording("lec-1", "t-1"); err != ErrOutOfWindow {
			t.Errorf("StartRecording() error = %v, want %v", err, ErrOutOfWindow)
		}
	})

	t.Run("not found", func(t *testing.T) {
		if _, err := svc.StartRecording("lol", "t-1"); err != ErrNotFound {
			t.Errorf("StartRecording() error = %v, want %v", err, ErrNotFound)
		}
	})

	t.Run("wrong teacher", func(t *testing.T) {
		if _, err := svc.StartRecording("lec-1", "t-2"); err != ErrNotFound {
			t.Errorf("StartRecording() error = %v, want %v", err, ErrNotFound)
		}
	})

	t.Run("already analyzed", func(t *testing.T) {
		nowFunc = func() time.Time { return time.Date(2021, time.May, 10, 9, 15, 0, 0, time.UTC) }
		done := scheduledLecture("lec-2", "t-1", day(2021, time.May, 10), "09:00", "10:00")
		done.Status = StatusAnalyzed
		repo.CreateLecture(done)
		if _, err := svc.StartRecording("lec-2", "t-1"); err != ErrInvalidStatus {
			t.Errorf("StartRecording() error = %v, want %v", err, ErrInvalidStatus)
		}
	})

	t.Run("ok", func(t *testing.T) {
		nowFunc = func() time.Time { return time.Date(2021, time.May, 10, 9, 15, 0, 0, time.UTC) }
		got, err := svc.StartRecording("lec-1", "t-1")
		if err != nil {
			t.Fatalf("StartRecording() failed, %v", err)
		}
		if got.Status != StatusRecording {
			t.Errorf("Status = %s, want %s", got.Status, StatusRecording)
		}
		if !got.Recording.StartedAt.Valid {
			t.Error("Recording.StartedAt not set")
		}
	})
}

func TestService_StopRecording(t *testing.T) {
	lec := scheduledLecture("lec-1", "t-1", day(2021, time.May, 10), "09:00", "10:00")
	lec.Status = StatusRecording
	repo := newTestRepo(lec)
	analyzer, _, _, _, _ := newTestAnalyzer(repo)
	svc := newTestService(repo, analyzer)

	t.Run("missing audio ref", func(t *testing.T) {
		if _, err := svc.StopRecording("lec-1", "t-1", StopRecording{}); err == nil {
			t.Error("StopRecording() expected a validation error")
		}
	})

	t.Run("negative duration", func(t *testing.T) {
		stop := StopRecording{AudioRef: "rec.webm", DurationSeconds: -1}
		if _, err := svc.StopRecording("lec-1", "t-1", stop); err == nil {
			t.Error("StopRecording() expected a validation error")
		}
	})

	t.Run("not found", func(t *testing.T) {
		stop := StopRecording{AudioRef: "rec.webm", DurationSeconds: 60}
		if _, err := svc.StopRecording("lol", "t-1", stop); err != ErrNotFound {
			t.Errorf("StopRecording() error = %v, want %v", err, ErrNotFound)
		}
	})

	t.Run("not recording", func(t *testing.T) {
		idle := scheduledLecture("lec-2", "t-1", day(2021, time.May, 10), "09:00", "10:00")
		repo.CreateLecture(idle)
		stop := StopRecording{AudioRef: "rec.webm", DurationSeconds: 60}
		if _, err := svc.StopRecording("lec-2", "t-1", stop); err != ErrInvalidStatus {
			t.Errorf("StopRecording() error = %v, want %v", err, ErrInvalidStatus)
		}
	})

	t.Run("ok", func(t *testing.T) {
		stop := StopRecording{AudioRef: "rec.webm", DurationSeconds: 60}
		got, err := svc.StopRecording("lec-1", "t-1", stop)
		if err != nil {
			t.Fatalf("StopRecording() failed, %v", err)
		}
		if got.Status != StatusCompleted {
			t.Errorf("Status = %s, want %s", got.Status, StatusCompleted)
		}
		if got.Recording.AudioRef != "rec.webm" {
			t.Errorf("Recording.AudioRef = %s, want rec.webm", got.Recording.AudioRef)
		}
		if !got.Recording.EndedAt.Valid {
			t.Error("Recording.EndedAt not set")
		}

		// the detached pipeline eventually finalizes the lecture
		analyzer.Wait()
		final := repo.get("lec-1")
		if final.Status != StatusAnalyzed {
			t.Errorf("final Status = %s, want %s", final.Status, StatusAnalyzed)
		}
		if final.Analysis.Status != AnalysisCompleted {
			t.Errorf("final Analysis.Status = %s, want %s", final.Analysis.Status, AnalysisCompleted)
		}
	})
}
