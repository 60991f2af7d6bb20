package core

import (
	"context"
	"errors"
)

var (
	// ErrUploadFailed is returned when the speech-to-text provider rejects the audio submission.
	ErrUploadFailed = errors.New("audio upload failed")
	// ErrTranscriptionFailed is returned when the provider reports a terminal error for a job.
	ErrTranscriptionFailed = errors.New("transcription failed")
	// ErrTranscriptionTimeout is returned when a job does not reach a terminal status in time.
	ErrTranscriptionTimeout = errors.New("transcription timed out")
	// ErrAllModelsFailed is returned when every model in the comparison chain has been exhausted.
	ErrAllModelsFailed = errors.New("all analysis models failed")
)

type (
	// Transcription is the outcome of a successful speech-to-text run.
	Transcription struct {
		Text            string
		Confidence      float64
		DurationSeconds float64
		WordCount       int
	}

	// TranscriptionService is any service that can turn a recorded audio artifact into text.
	TranscriptionService interface {
		Transcribe(ctx context.Context, audioRef string) (Transcription, error)
	}

	// LectureInfo is the minimal context handed to the comparison provider.
	LectureInfo struct {
		Title   string
		Subject string
		Class   string
	}

	// AnalysisFindings is the sanitized structured output of a transcript comparison.
	AnalysisFindings struct {
		MatchPercentage      int      `json:"matchPercentage"`
		ConceptualSimilarity string   `json:"conceptualSimilarity"` // high | medium | low
		KeyPointsCovered     int      `json:"keyPointsCovered"`
		TotalKeyPoints       int      `json:"totalKeyPoints"`
		DetailedAnalysis     string   `json:"detailedAnalysis"`
		Strengths            []string `json:"strengths"`
		ImprovementAreas     []string `json:"improvementAreas"`
		OverallAssessment    string   `json:"overallAssessment"`
	}

	// AnalysisService is any service that can compare a reference transcript
	// against a recorded one and produce structured findings.
	AnalysisService interface {
		Compare(ctx context.Context, referenceText, recordedText string, info LectureInfo) (AnalysisFindings, error)
	}

	// TranscriptSource resolves a reference transcript from an external locator
	// (eg. a video URL). Implementations never fail: when every extraction
	// strategy is exhausted they return a clearly-marked synthetic placeholder
	// and report extracted=false so callers can record the degraded provenance.
	TranscriptSource interface {
		Fetch(ctx context.Context, locator string) (text string, extracted bool)
	}
)
