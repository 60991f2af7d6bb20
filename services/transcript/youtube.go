package transcriptsvc

import (
	"context"
	"encoding/xml"
	"fmt"
	"io/ioutil"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/trezcool/darasa/core"
)

// minTranscriptLen is the minimum length an extracted transcript must have to
// be accepted; shorter results are treated as a failed attempt.
const minTranscriptLen = 50

// strategy is one way of extracting a transcript for a video. Attempts are
// isolated: an error from one strategy never stops the chain.
type strategy interface {
	name() string
	attempt(ctx context.Context, videoID, videoURL string) (string, error)
}

// youtubeService resolves a reference transcript for a video URL by trying an
// ordered list of extraction strategies; when all fail it falls back to a
// clearly-marked synthetic placeholder so the pipeline stays exercisable
// without a reachable video source.
type youtubeService struct {
	strategies []strategy
	logger     core.Logger
}

var _ core.TranscriptSource = (*youtubeService)(nil)

func NewYouTubeService(logger core.Logger) *youtubeService {
	client := &http.Client{Timeout: 15 * time.Second}
	return &youtubeService{
		strategies: []strategy{
			&captionTrackStrategy{client: client},
			&watchPageStrategy{client: client},
		},
		logger: logger,
	}
}

func (svc *youtubeService) Fetch(ctx context.Context, locator string) (string, bool) {
	videoID := extractVideoID(locator)

	for _, s := range svc.strategies {
		text, err := s.attempt(ctx, videoID, locator)
		if err != nil {
			svc.logger.Debug("transcript strategy " + s.name() + " failed: " + err.Error())
			continue
		}
		if len(text) > minTranscriptLen {
			svc.logger.Info(fmt.Sprintf("transcript strategy %s succeeded (%d chars)", s.name(), len(text)))
			return text, true
		}
	}
	return placeholderTranscript(locator), false
}

var videoIDRegex = regexp.MustCompile(`(?:youtube\.com/(?:[^/]+/.+/|(?:v|e(?:mbed)?)/|.*[?&]v=)|youtu\.be/)([^"&?/\s]{11})`)

func extractVideoID(url string) string {
	if m := videoIDRegex.FindStringSubmatch(url); m != nil {
		return m[1]
	}
	return ""
}

// captionTrackStrategy pulls the published English caption track.
type captionTrackStrategy struct {
	client *http.Client
}

func (s *captionTrackStrategy) name() string { return "caption-track" }

type captionTrack struct {
	Texts []string `xml:"text"`
}

func (s *captionTrackStrategy) attempt(ctx context.Context, videoID, _ string) (string, error) {
	if videoID == "" {
		return "", fmt.Errorf("no video id")
	}

	url := "https://video.google.com/timedtext?lang=en&v=" + videoID
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	body, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	var track captionTrack
	if err = xml.Unmarshal(body, &track); err != nil {
		return "", err
	}
	if len(track.Texts) == 0 {
		return "", fmt.Errorf("no caption track")
	}
	return strings.Join(track.Texts, " "), nil
}

// watchPageStrategy scrapes transcript fragments out of the watch page markup.
type watchPageStrategy struct {
	client *http.Client
}

func (s *watchPageStrategy) name() string { return "watch-page" }

var transcriptFragmentRegex = regexp.MustCompile(`"text":"([^"]+)"`)

func (s *watchPageStrategy) attempt(ctx context.Context, videoID, videoURL string) (string, error) {
	if videoID == "" {
		return "", fmt.Errorf("no video id")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "https://www.youtube.com/watch?v="+videoID, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	body, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	matches := transcriptFragmentRegex.FindAllStringSubmatch(string(body), -1)
	if len(matches) == 0 {
		return "", fmt.Errorf("no transcript found")
	}

	parts := make([]string, 0, len(matches))
	for _, m := range matches {
		parts = append(parts, m[1])
	}
	return strings.Join(parts, " "), nil
}

// placeholderTranscript is the ultimate fallback: synthetic reference content
// that keeps the rest of the pipeline exercisable end-to-end.
func placeholderTranscript(videoURL string) string {
	return fmt.Sprintf(`Lecture Transcript (synthetic placeholder)

Video Source: %s
Generated: %s

CONTENT:
No transcript could be extracted from the video source. This placeholder stands
in for the reference material so the recording can still be analyzed.

KEY TOPICS:
1. Basic principles and theories
2. Historical context and development
3. Practical applications
4. Current research and future directions

CONCLUSION:
Summary of key concepts and their importance in modern education.`,
		videoURL, nowFunc().UTC().Format(time.RFC3339))
}

var nowFunc = time.Now // mockable
