package llm

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// GeminiClient calls the Gemini API through the official genai SDK.
type GeminiClient struct {
	cli   *genai.Client
	model string
}

// NewGeminiClient creates a client for model. An empty apiKey lets the SDK
// read GEMINI_API_KEY or GOOGLE_API_KEY from the environment.
func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &GeminiClient{cli: cli, model: model}, nil
}

func (g *GeminiClient) Name() string { return "gemini:" + g.model }
func (g *GeminiClient) Close() error { return nil }

// Generate sends req as a single-turn prompt and returns the concatenated
// text parts of the first candidate.
func (g *GeminiClient) Generate(ctx context.Context, req Request) (string, error) {
	model := req.Model
	if model == "" {
		model = g.model
	}

	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(req.Temperature)),
	}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.System != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: req.System}}}
	}

	resp, err := g.cli.Models.GenerateContent(ctx, model,
		[]*genai.Content{{Role: genai.RoleUser, Parts: []*genai.Part{{Text: req.Prompt}}}},
		cfg,
	)
	if err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", NewPermanentError(ErrEmptyResponse)
	}

	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if p != nil {
			sb.WriteString(p.Text)
		}
	}
	if strings.TrimSpace(sb.String()) == "" {
		return "", NewPermanentError(ErrEmptyResponse)
	}
	return sb.String(), nil
}
