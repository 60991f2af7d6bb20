package lecture

import (
	"context"
	"fmt"
	"net/mail"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
)

// minUsableTranscriptLen is the threshold below which a recorded transcript is
// considered too short to be worth a provider comparison.
const minUsableTranscriptLen = 50

// Analyzer runs the transcript-analysis pipeline for completed recordings.
// Each run is a detached background task owning only its own lecture's data;
// runs for different lectures may execute concurrently.
type Analyzer struct {
	repo        Repository
	transcriber core.TranscriptionService
	comparer    core.AnalysisService
	source      core.TranscriptSource
	mailSvc     core.EmailService
	logger      core.Logger
	audioDir    string

	mu       sync.Mutex
	inFlight map[string]struct{}
	wg       sync.WaitGroup
}

func NewAnalyzer(
	repo Repository,
	transcriber core.TranscriptionService,
	comparer core.AnalysisService,
	source core.TranscriptSource,
	mailSvc core.EmailService,
	logger core.Logger,
	audioDir string,
) *Analyzer {
	return &Analyzer{
		repo:        repo,
		transcriber: transcriber,
		comparer:    comparer,
		source:      source,
		mailSvc:     mailSvc,
		logger:      logger,
		audioDir:    audioDir,
		inFlight:    make(map[string]struct{}),
	}
}

// Launch starts the pipeline for the given lecture in the background. It
// reports false when a run for the same lecture is already in flight; at most
// one pipeline per lecture executes at a time.
func (a *Analyzer) Launch(id string) bool {
	a.mu.Lock()
	if _, running := a.inFlight[id]; running {
		a.mu.Unlock()
		return false
	}
	a.inFlight[id] = struct{}{}
	a.mu.Unlock()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		defer func() {
			a.mu.Lock()
			delete(a.inFlight, id)
			a.mu.Unlock()
		}()
		a.run(context.Background(), id)
	}()
	return true
}

// Wait blocks until all launched pipelines have finished.
func (a *Analyzer) Wait() {
	a.wg.Wait()
}

func (a *Analyzer) run(ctx context.Context, id string) {
	lec, err := a.repo.GetLectureByID(id)
	if err != nil {
		a.logger.Error("analysis: loading lecture "+id, err)
		return
	}

	// the temporary audio artifact is removed exactly once, success or not
	defer a.cleanupArtifact(lec.Recording.AudioRef)

	if err := a.analyze(ctx, lec); err != nil {
		a.logger.Error("analysis failed for lecture "+id, err)
		a.markFailed(id, err)
	}
}

// analyze runs the pipeline stages. Optional enrichment stages (transcript
// source, provider comparison) degrade the result on failure but never abort;
// only persistence errors surface and mark the analysis failed.
func (a *Analyzer) analyze(ctx context.Context, lec Lecture) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("analysis panic: %v", r)
		}
	}()

	now := nowFunc().UTC()
	lec.Analysis = Analysis{Status: AnalysisProcessing, AnalyzedAt: nullTime(now)}
	lec.UpdatedAt = now
	if lec, err = a.repo.UpdateLecture(lec); err != nil {
		return errors.Wrap(err, "marking analysis processing")
	}

	// reference transcript: stored text wins, else resolve the locator
	refText := lec.Reference.Transcript
	if refText == "" && lec.Reference.VideoURL != "" {
		text, extracted := a.source.Fetch(ctx, lec.Reference.VideoURL)
		refText = text
		lec.Reference.Transcript = text
		if extracted {
			lec.Reference.Source = SourceExtracted
		} else {
			lec.Reference.Source = SourcePlaceholder
		}
		lec.Reference.GeneratedAt = nullTime(nowFunc().UTC())
	}

	// recorded transcript: a transcription failure is downgraded to a
	// diagnostic string so the pipeline still reaches a terminal state
	if lec.Recording.AudioRef != "" {
		if tr, terr := a.transcriber.Transcribe(ctx, lec.Recording.AudioRef); terr != nil {
			a.logger.Warn("analysis: transcription failed for lecture "+lec.ID, terr)
			lec.Recording.Transcript = "Audio processing failed: " + terr.Error()
		} else {
			lec.Recording.Transcript = tr.Text
			lec.Recording.WordCount = tr.WordCount
			lec.Recording.TranscriptGeneratedAt = nullTime(nowFunc().UTC())
			lec.Analysis.VoiceConfidence = tr.Confidence
		}
	}

	recorded := lec.Recording.Transcript
	if refText != "" && len(recorded) > minUsableTranscriptLen {
		info := core.LectureInfo{Title: lec.Title, Subject: lec.Subject, Class: lec.Class}
		if findings, cerr := a.comparer.Compare(ctx, refText, recorded, info); cerr != nil {
			a.logger.Warn("analysis: provider comparison failed for lecture "+lec.ID, cerr)
			score := MatchPercent(refText, recorded)
			f := heuristicFindings(score, refText, recorded)
			lec.Analysis.MatchPercentage = score
			lec.Analysis.Findings = &f
		} else {
			lec.Analysis.MatchPercentage = findings.MatchPercentage
			lec.Analysis.Findings = &findings
		}
	} else {
		// nothing usable to compare
		lec.Analysis.MatchPercentage = 0
	}

	now = nowFunc().UTC()
	lec.Analysis.Status = AnalysisCompleted
	lec.Analysis.AnalyzedAt = nullTime(now)
	if CanTransition(lec.Status, StatusAnalyzed) {
		lec.Status = StatusAnalyzed
	}
	lec.UpdatedAt = now
	if lec, err = a.repo.UpdateLecture(lec); err != nil {
		return errors.Wrap(err, "persisting analysis results")
	}

	a.notify(lec)
	return nil
}

// markFailed records the failure without forcing a lifecycle transition; the
// lecture stays at its last good status.
func (a *Analyzer) markFailed(id string, cause error) {
	lec, err := a.repo.GetLectureByID(id)
	if err != nil {
		a.logger.Error("analysis: reloading lecture "+id, err)
		return
	}
	lec.Analysis.Status = AnalysisFailed
	lec.Analysis.Error = cause.Error()
	lec.UpdatedAt = nowFunc().UTC()
	if lec, err = a.repo.UpdateLecture(lec); err != nil {
		a.logger.Error("analysis: saving failed status for lecture "+id, err)
		return
	}
	a.notify(lec)
}

// cleanupArtifact best-effort deletes the temporary audio file; failures are
// logged, never propagated.
func (a *Analyzer) cleanupArtifact(audioRef string) {
	if audioRef == "" {
		return
	}
	path := filepath.Join(a.audioDir, filepath.Base(audioRef))
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		a.logger.Warn("analysis: cleaning up audio artifact "+path, err)
	}
}

// notify emails the teacher once the analysis reaches a terminal state.
func (a *Analyzer) notify(lec Lecture) {
	if a.mailSvc == nil || lec.TeacherEmail == "" {
		return
	}
	var subject, body string
	if lec.Analysis.Status == AnalysisFailed {
		subject = "Lecture analysis failed: " + lec.Title
		body = fmt.Sprintf(
			"The analysis of %q (%s, %s) could not be completed: %s",
			lec.Title, lec.Subject, lec.Class, lec.Analysis.Error)
	} else {
		subject = "Lecture analysis completed: " + lec.Title
		body = fmt.Sprintf(
			"The analysis of %q (%s, %s) has completed with a %d%% match against the reference material.",
			lec.Title, lec.Subject, lec.Class, lec.Analysis.MatchPercentage)
	}
	a.mailSvc.SendMessages(&core.EmailMessage{
		To:          []mail.Address{{Address: lec.TeacherEmail}},
		Subject:     subject,
		TextContent: body,
	})
}
