package analyzer

import (
	"context"
	"fmt"
	"strings"

	"github.com/Ayushpate2003/Ai-doc-generater/internal/analysis"
	"github.com/Ayushpate2003/Ai-doc-generater/internal/errors"
	"github.com/Ayushpate2003/Ai-doc-generater/internal/llm"
	"github.com/Ayushpate2003/Ai-doc-generater/internal/registry"
)

// ModeOption is the task option that selects "llm" or "local" analysis.
const ModeOption = "mode"

// focus describes what each analyzer's written analysis should cover.
var focus = map[analysis.AnalyzerID]string{
	analysis.Structure:   "the code organization: main components, their responsibilities, layering, and where execution starts",
	analysis.Dependency:  "external dependencies and how internal packages depend on each other, including notable frameworks and risks",
	analysis.DataFlow:    "how data enters, is transformed, persisted and emitted, naming the models and stores involved",
	analysis.RequestFlow: "how a request travels from the server entry point through middleware to handlers and back",
	analysis.APISurface:  "every interface the system exposes, grouped by resource, with methods, paths and purpose",
}

var detailGuidance = map[string]string{
	analysis.DetailMinimal:       "Be brief: a short overview and at most five bullet points.",
	analysis.DetailStandard:      "Be thorough but concise, using headings and bullet points.",
	analysis.DetailComprehensive: "Be exhaustive: cover every component you can identify, with examples.",
}

// LLMAnalyzer grounds a model-written analysis on the findings of a local
// analyzer.
type LLMAnalyzer struct {
	base   registry.Analyzer
	client llm.Client
}

// WithLLM wraps base so its findings are rewritten by client.
func WithLLM(base registry.Analyzer, client llm.Client) *LLMAnalyzer {
	return &LLMAnalyzer{base: base, client: client}
}

func (a *LLMAnalyzer) ID() analysis.AnalyzerID { return a.base.ID() }

// Run executes the local analyzer, then asks the model to write the
// analysis. Setting the "mode" option to "local" skips the model call.
func (a *LLMAnalyzer) Run(ctx context.Context, snap analysis.Snapshot, cfg analysis.TaskConfig) (analysis.Content, error) {
	facts, err := a.base.Run(ctx, snap, cfg)
	if err != nil || cfg.Option(ModeOption, "llm") == "local" {
		return facts, err
	}

	out, err := a.client.Generate(ctx, llm.Request{
		System:      systemPrompt(a.ID(), cfg.DetailLevel),
		Prompt:      userPrompt(snap, facts.Body),
		Model:       cfg.Model,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
	})
	if err != nil {
		if ctx.Err() != nil {
			return analysis.Content{}, ctx.Err()
		}
		return analysis.Content{}, errors.NewAnalyzerError(string(a.ID()), "model call failed", err).
			WithRetryable(!llm.IsPermanent(err))
	}
	return analysis.Content{Format: analysis.FormatMarkdown, Body: strings.TrimSpace(out) + "\n"}, nil
}

func systemPrompt(id analysis.AnalyzerID, level string) string {
	guidance, ok := detailGuidance[level]
	if !ok {
		guidance = detailGuidance[analysis.DetailStandard]
	}
	return fmt.Sprintf(
		"You are a senior engineer documenting a repository. Write a Markdown analysis of %s. "+
			"Base every statement on the findings provided; say so when something cannot be determined. %s",
		focus[id], guidance)
}

func userPrompt(snap analysis.Snapshot, findings string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Repository: %s\n", snap.ID)
	if snap.Commit != "" {
		fmt.Fprintf(&sb, "Commit: %s\n", snap.Commit)
	}
	sb.WriteString("\nFindings from static inspection:\n\n")
	sb.WriteString(findings)
	return sb.String()
}
