package adapters

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"

	"github.com/xthxr/DevAura/internal/scoring"
)

// ErrNoEvaluation is returned when the model reply holds no JSON object.
var ErrNoEvaluation = errors.New("model reply contains no evaluation")

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopK            int     `json:"topK"`
	TopP            float64 `json:"topP"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// GeminiAdapter asks a Gemini model to rate a developer profile
type GeminiAdapter struct {
	client *resty.Client
}

// NewGeminiAdapter creates a client for the generateContent endpoint url
func NewGeminiAdapter(endpoint, key string, timeout time.Duration) *GeminiAdapter {
	return &GeminiAdapter{
		client: newClient(endpoint, timeout).SetQueryParam("key", key),
	}
}

// EvaluateProjectQuality returns the four model-rated quality metrics,
// each clamped to [0,100]
func (g *GeminiAdapter) EvaluateProjectQuality(ctx context.Context, gh scoring.GitHubStats) (scoring.AIEvaluation, error) {
	body := geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: evaluationPrompt(gh)}}}},
		GenerationConfig: geminiGenerationConfig{
			Temperature:     0.4,
			TopK:            32,
			TopP:            1,
			MaxOutputTokens: 512,
		},
	}

	var out geminiResponse
	resp, err := g.client.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&out).
		Post("")
	what := fmt.Sprintf("gemini evaluation %s", gh.Username)
	if err := checkResponse(resp, err, what); err != nil {
		return scoring.AIEvaluation{}, err
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return scoring.AIEvaluation{}, fmt.Errorf("%s: %w", what, ErrNoEvaluation)
	}

	eval, err := ParseEvaluation(out.Candidates[0].Content.Parts[0].Text)
	if err != nil {
		return scoring.AIEvaluation{}, fmt.Errorf("%s: %w", what, err)
	}
	return eval, nil
}

// ParseEvaluation extracts the outermost JSON object from free-form model
// text and clamps every metric to [0,100].
func ParseEvaluation(text string) (scoring.AIEvaluation, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return scoring.AIEvaluation{}, ErrNoEvaluation
	}

	var eval scoring.AIEvaluation
	if err := sonic.UnmarshalString(text[start:end+1], &eval); err != nil {
		return scoring.AIEvaluation{}, fmt.Errorf("%w: %v", ErrNoEvaluation, err)
	}
	eval.ProjectOriginality = clampPercent(eval.ProjectOriginality)
	eval.DocumentationQuality = clampPercent(eval.DocumentationQuality)
	eval.CodeQuality = clampPercent(eval.CodeQuality)
	eval.InnovationScore = clampPercent(eval.InnovationScore)
	return eval, nil
}

func clampPercent(v float64) float64 {
	return min(100, max(0, v))
}

func evaluationPrompt(gh scoring.GitHubStats) string {
	langs := make([]string, 0, len(gh.TopLanguages))
	for lang := range gh.TopLanguages {
		langs = append(langs, lang)
	}
	sort.Strings(langs)

	var b strings.Builder
	b.WriteString("Analyze this developer's GitHub profile and rate the following (0-100):\n")
	b.WriteString("1. Project Originality - How unique and creative are their projects?\n")
	b.WriteString("2. Documentation Quality - How well documented are their repositories?\n")
	b.WriteString("3. Code Quality - Based on stars, forks, and activity\n")
	b.WriteString("4. Innovation Score - Use of modern technologies and innovative solutions\n\n")
	fmt.Fprintf(&b, "GitHub Username: %s\n", gh.Username)
	fmt.Fprintf(&b, "Public Repos: %d\n", gh.PublicRepos)
	fmt.Fprintf(&b, "Total Stars: %d\n", gh.TotalStars)
	fmt.Fprintf(&b, "Followers: %d\n", gh.Followers)
	fmt.Fprintf(&b, "Languages: %s\n", strings.Join(langs, ", "))
	fmt.Fprintf(&b, "Repo Quality Score: %.0f\n\n", gh.RepoQualityScore)
	b.WriteString(`Respond in JSON format: { "projectOriginality": number, "documentationQuality": number, "codeQuality": number, "innovationScore": number }`)
	return b.String()
}
