package transcriptionsvc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
)

// assemblyAIService submits recorded audio to AssemblyAI and polls the job
// until it reaches a terminal status or the wall-clock ceiling elapses.
type assemblyAIService struct {
	apiKey       string
	baseURL      string
	audioDir     string
	pollInterval time.Duration
	pollTimeout  time.Duration
	client       *http.Client
	logger       core.Logger
}

var _ core.TranscriptionService = (*assemblyAIService)(nil)

func NewAssemblyAIService(conf *core.Config, logger core.Logger) *assemblyAIService {
	return &assemblyAIService{
		apiKey:       conf.Transcription.APIKey,
		baseURL:      strings.TrimRight(conf.Transcription.BaseURL, "/"),
		audioDir:     conf.AudioDir,
		pollInterval: conf.Transcription.PollInterval,
		pollTimeout:  conf.Transcription.PollTimeout,
		client:       &http.Client{Timeout: conf.Transcription.RequestTimeout},
		logger:       logger,
	}
}

type (
	uploadResponse struct {
		UploadURL string `json:"upload_url"`
	}

	submitRequest struct {
		AudioURL     string `json:"audio_url"`
		LanguageCode string `json:"language_code"`
		SpeechModel  string `json:"speech_model"`
		Punctuate    bool   `json:"punctuate"`
		FormatText   bool   `json:"format_text"`
	}

	jobResponse struct {
		ID            string  `json:"id"`
		Status        string  `json:"status"` // queued | processing | completed | error
		Text          string  `json:"text"`
		Confidence    float64 `json:"confidence"`
		AudioDuration float64 `json:"audio_duration"`
		Error         string  `json:"error"`
	}
)

func (svc *assemblyAIService) Transcribe(ctx context.Context, audioRef string) (core.Transcription, error) {
	audioURL, err := svc.upload(ctx, audioRef)
	if err != nil {
		return core.Transcription{}, err
	}

	jobID, err := svc.submit(ctx, audioURL)
	if err != nil {
		return core.Transcription{}, err
	}
	svc.logger.Debug("transcription job created: " + jobID)

	return svc.poll(ctx, jobID)
}

// upload pushes the raw audio bytes to the provider and yields a temporary URL.
func (svc *assemblyAIService) upload(ctx context.Context, audioRef string) (string, error) {
	path := audioRef
	if !filepath.IsAbs(path) {
		path = filepath.Join(svc.audioDir, filepath.Base(audioRef))
	}
	data, err := ioutil.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.Wrap(core.ErrUploadFailed, "audio file not found: "+audioRef)
		}
		return "", errors.Wrap(core.ErrUploadFailed, err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, svc.baseURL+"/upload", bytes.NewReader(data))
	if err != nil {
		return "", errors.Wrap(core.ErrUploadFailed, err.Error())
	}
	req.Header.Set("Authorization", svc.apiKey)
	req.Header.Set("Content-Type", "application/octet-stream")

	var out uploadResponse
	if err = svc.do(req, &out); err != nil {
		return "", errors.Wrap(core.ErrUploadFailed, err.Error())
	}
	return out.UploadURL, nil
}

// submit creates the transcription job and returns its identifier.
func (svc *assemblyAIService) submit(ctx context.Context, audioURL string) (string, error) {
	body, err := json.Marshal(submitRequest{
		AudioURL:     audioURL,
		LanguageCode: "en",
		SpeechModel:  "best",
		Punctuate:    true,
		FormatText:   true,
	})
	if err != nil {
		return "", errors.Wrap(core.ErrUploadFailed, err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, svc.baseURL+"/transcript", bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrap(core.ErrUploadFailed, err.Error())
	}
	req.Header.Set("Authorization", svc.apiKey)
	req.Header.Set("Content-Type", "application/json")

	var out jobResponse
	if err = svc.do(req, &out); err != nil {
		return "", errors.Wrap(core.ErrUploadFailed, err.Error())
	}
	if out.ID == "" {
		return "", errors.Wrap(core.ErrUploadFailed, "provider returned no job id")
	}
	return out.ID, nil
}

// poll queries the job status at a fixed interval until it is terminal or the
// hard wall-clock ceiling elapses; the ceiling is independent of the per-call
// timeout so the pipeline can never hang on this stage.
func (svc *assemblyAIService) poll(ctx context.Context, jobID string) (core.Transcription, error) {
	deadline := time.Now().Add(svc.pollTimeout)

	for pollCount := 1; time.Now().Before(deadline); pollCount++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, svc.baseURL+"/transcript/"+jobID, nil)
		if err != nil {
			return core.Transcription{}, errors.Wrap(core.ErrTranscriptionFailed, err.Error())
		}
		req.Header.Set("Authorization", svc.apiKey)

		var out jobResponse
		if err = svc.do(req, &out); err != nil {
			return core.Transcription{}, errors.Wrap(core.ErrTranscriptionFailed, err.Error())
		}
		svc.logger.Debug(fmt.Sprintf("transcription job %s poll %d: status=%s", jobID, pollCount, out.Status))

		switch out.Status {
		case "completed":
			return core.Transcription{
				Text:            out.Text,
				Confidence:      out.Confidence,
				DurationSeconds: out.AudioDuration,
				WordCount:       wordCount(out.Text),
			}, nil
		case "error":
			return core.Transcription{}, errors.Wrap(core.ErrTranscriptionFailed, out.Error)
		}

		select {
		case <-ctx.Done():
			return core.Transcription{}, errors.Wrap(core.ErrTranscriptionFailed, ctx.Err().Error())
		case <-time.After(svc.pollInterval):
		}
	}
	return core.Transcription{}, core.ErrTranscriptionTimeout
}

func (svc *assemblyAIService) do(req *http.Request, out interface{}) error {
	resp, err := svc.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusMultipleChoices {
		b, _ := ioutil.ReadAll(resp.Body)
		return fmt.Errorf("provider returned HTTP %d: %s", resp.StatusCode, string(b))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// wordCount is the whitespace-delimited token count of the transcript.
func wordCount(text string) int {
	return len(strings.Fields(text))
}
