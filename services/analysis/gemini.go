package analysissvc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/trezcool/darasa/core"
)

// geminiService compares transcripts through the Gemini generateContent API,
// trying an ordered list of models (most capable first) until one returns a
// parseable result.
type geminiService struct {
	apiKey   string
	baseURL  string
	models   []string
	cooldown time.Duration
	client   *http.Client
	logger   core.Logger

	sleepFunc func(time.Duration) // mockable
}

var _ core.AnalysisService = (*geminiService)(nil)

func NewGeminiService(conf *core.Config, logger core.Logger) *geminiService {
	return &geminiService{
		apiKey:    conf.Analysis.APIKey,
		baseURL:   strings.TrimRight(conf.Analysis.BaseURL, "/"),
		models:    conf.Analysis.Models,
		cooldown:  conf.Analysis.ModelCooldown,
		client:    &http.Client{Timeout: conf.Analysis.RequestTimeout},
		logger:    logger,
		sleepFunc: time.Sleep,
	}
}

type (
	generateRequest struct {
		Contents         []content        `json:"contents"`
		GenerationConfig generationConfig `json:"generationConfig"`
	}

	content struct {
		Parts []part `json:"parts"`
	}

	part struct {
		Text string `json:"text"`
	}

	generationConfig struct {
		Temperature     float64 `json:"temperature"`
		MaxOutputTokens int     `json:"maxOutputTokens"`
		TopP            float64 `json:"topP"`
		TopK            int     `json:"topK"`
	}

	generateResponse struct {
		Candidates []struct {
			Content content `json:"content"`
		} `json:"candidates"`
	}
)

func (svc *geminiService) Compare(ctx context.Context, referenceText, recordedText string, info core.LectureInfo) (core.AnalysisFindings, error) {
	prompt := buildPrompt(referenceText, recordedText, info)

	for i, model := range svc.models {
		if i > 0 {
			svc.sleepFunc(svc.cooldown) // short cooldown between model attempts
		}

		findings, err := svc.compareWithModel(ctx, model, prompt)
		if err != nil {
			svc.logger.Warn("analysis model "+model+" failed", err)
			continue
		}
		svc.logger.Info(fmt.Sprintf("analysis model %s succeeded: %d%% match", model, findings.MatchPercentage))
		return findings, nil
	}
	return core.AnalysisFindings{}, core.ErrAllModelsFailed
}

func (svc *geminiService) compareWithModel(ctx context.Context, model, prompt string) (core.AnalysisFindings, error) {
	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfig{
			Temperature:     0.1,
			MaxOutputTokens: 1000,
			TopP:            0.8,
			TopK:            40,
		},
	})
	if err != nil {
		return core.AnalysisFindings{}, err
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", svc.baseURL, model, url.QueryEscape(svc.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return core.AnalysisFindings{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := svc.client.Do(req)
	if err != nil {
		return core.AnalysisFindings{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusMultipleChoices {
		b, _ := ioutil.ReadAll(resp.Body)
		return core.AnalysisFindings{}, fmt.Errorf("provider returned HTTP %d: %s", resp.StatusCode, string(b))
	}

	var out generateResponse
	if err = json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return core.AnalysisFindings{}, err
	}

	text := responseText(out)
	if text == "" {
		return core.AnalysisFindings{}, fmt.Errorf("no response text from model %s", model)
	}
	return parseFindings(text)
}

func responseText(resp generateResponse) string {
	var b strings.Builder
	for _, c := range resp.Candidates {
		for _, p := range c.Content.Parts {
			b.WriteString(p.Text)
		}
	}
	return strings.TrimSpace(b.String())
}

const maxPromptTranscriptLen = 1500

func buildPrompt(reference, recorded string, info core.LectureInfo) string {
	if reference == "" {
		reference = "No reference transcript provided."
	}
	if recorded == "" {
		recorded = "No recorded transcript available."
	}
	return fmt.Sprintf(`
You are an expert educational content analyzer. Analyze the match between reference material and actual lecture delivery.

LECTURE INFORMATION:
- Title: %s
- Subject: %s
- Class: %s

REFERENCE TRANSCRIPT (What should have been taught):
%s

RECORDED TRANSCRIPT (What was actually taught):
%s

ANALYSIS REQUIREMENTS:

1. Calculate match percentage (0-100%%) based on:
   - Conceptual coverage and accuracy (40%%)
   - Key topics addressed (30%%)
   - Teaching methodology alignment (20%%)
   - Information completeness (10%%)

2. Assess conceptual similarity as "high", "medium", or "low"

3. Evaluate key points covered vs total key points

4. Provide detailed analysis including:
   - Content coverage effectiveness
   - Teaching strengths
   - Areas for improvement
   - Overall assessment

RESPONSE FORMAT (Return ONLY valid JSON):
{
    "matchPercentage": 85,
    "conceptualSimilarity": "high",
    "keyPointsCovered": 8,
    "totalKeyPoints": 10,
    "detailedAnalysis": "...",
    "strengths": ["..."],
    "improvementAreas": ["..."],
    "overallAssessment": "..."
}

IMPORTANT: Return ONLY the JSON object, no additional text or explanations.
`,
		info.Title, info.Subject, info.Class,
		truncatePrompt(reference), truncatePrompt(recorded))
}

func truncatePrompt(text string) string {
	if len(text) <= maxPromptTranscriptLen {
		return text
	}
	return text[:maxPromptTranscriptLen] + "... [content truncated]"
}

// rawFindings mirrors the expected model output before any field is trusted.
type rawFindings struct {
	MatchPercentage      interface{} `json:"matchPercentage"`
	ConceptualSimilarity string      `json:"conceptualSimilarity"`
	KeyPointsCovered     interface{} `json:"keyPointsCovered"`
	TotalKeyPoints       interface{} `json:"totalKeyPoints"`
	DetailedAnalysis     string      `json:"detailedAnalysis"`
	Strengths            []string    `json:"strengths"`
	ImprovementAreas     []string    `json:"improvementAreas"`
	OverallAssessment    string      `json:"overallAssessment"`
}

// parseFindings extracts one JSON object out of the (possibly fenced) response
// text and sanitizes it field by field. Untrusted model output never reaches
// storage unvalidated, whichever model produced it.
func parseFindings(text string) (core.AnalysisFindings, error) {
	clean := strings.ReplaceAll(text, "```json", "")
	clean = strings.ReplaceAll(clean, "```", "")
	clean = strings.TrimSpace(clean)

	start := strings.Index(clean, "{")
	end := strings.LastIndex(clean, "}")
	if start < 0 || end <= start {
		return core.AnalysisFindings{}, fmt.Errorf("no JSON object in response")
	}

	var raw rawFindings
	if err := json.Unmarshal([]byte(clean[start:end+1]), &raw); err != nil {
		return core.AnalysisFindings{}, fmt.Errorf("parsing response JSON: %v", err)
	}

	covered := sanitizePoints(raw.KeyPointsCovered, 5)
	return core.AnalysisFindings{
		MatchPercentage:      sanitizePercentage(raw.MatchPercentage),
		ConceptualSimilarity: sanitizeSimilarity(raw.ConceptualSimilarity),
		KeyPointsCovered:     covered,
		TotalKeyPoints:       sanitizeTotalPoints(raw.TotalKeyPoints, covered),
		DetailedAnalysis:     sanitizeText(raw.DetailedAnalysis, "AI analysis completed successfully."),
		Strengths:            sanitizeList(raw.Strengths, []string{"Good content coverage", "Clear explanations"}),
		ImprovementAreas:     sanitizeList(raw.ImprovementAreas, []string{"Could improve pacing"}),
		OverallAssessment:    sanitizeText(raw.OverallAssessment, "Effective lecture delivery with good conceptual understanding."),
	}, nil
}

// sanitization bounds
const (
	maxPoints       = 20
	maxTextLen      = 500
	maxListLen      = 5
	maxListItemLen  = 100
	defaultMatchPct = 75
	defaultTotalPts = 10
	defaultSimScore = "medium"
)

func asNumber(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func sanitizePercentage(v interface{}) int {
	if n, ok := asNumber(v); ok && n >= 0 && n <= 100 {
		return int(n + 0.5)
	}
	return defaultMatchPct
}

func sanitizeSimilarity(v string) string {
	lower := strings.ToLower(v)
	switch {
	case strings.Contains(lower, "high"):
		return "high"
	case strings.Contains(lower, "medium"):
		return "medium"
	case strings.Contains(lower, "low"):
		return "low"
	}
	return defaultSimScore
}

func sanitizePoints(v interface{}, def int) int {
	if n, ok := asNumber(v); ok && n >= 0 && n <= maxPoints {
		return int(n)
	}
	return def
}

// sanitizeTotalPoints keeps the total within bounds and never below covered.
func sanitizeTotalPoints(v interface{}, covered int) int {
	total := defaultTotalPts
	if n, ok := asNumber(v); ok && n >= 1 && n <= maxPoints {
		total = int(n)
	}
	if total < covered {
		total = covered
	}
	return total
}

func sanitizeText(v, def string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return def
	}
	return core.Truncate(v, maxTextLen)
}

func sanitizeList(v, def []string) []string {
	if len(v) == 0 {
		return def
	}
	if len(v) > maxListLen {
		v = v[:maxListLen]
	}
	out := make([]string, 0, len(v))
	for _, item := range v {
		out = append(out, core.Truncate(item, maxListItemLen))
	}
	return out
}
