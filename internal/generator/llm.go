package generator

import (
	"context"
	"errors"
	"fmt"
	"html"

	"github.com/rs/zerolog/log"

	"github.com/Rrens/lingocode/internal/llm"
)

const explanationUnavailable = "Unable to generate explanation due to an error."

// ErrTranslationFailed is returned when a prompt cannot be translated to English
var ErrTranslationFailed = errors.New("translation failed")

// LLM generates output through a language model. Prompts are translated to
// English before generation and explanations are returned in the caller's language.
type LLM struct {
	provider llm.Provider
	model    string
}

// NewLLM creates a new LLM-backed generator
func NewLLM(provider llm.Provider, model string) *LLM {
	return &LLM{provider: provider, model: model}
}

func (g *LLM) Code(ctx context.Context, prompt, languageCode string) (*Result, error) {
	translated, err := g.toEnglish(ctx, prompt, languageCode)
	if err != nil {
		return nil, err
	}

	resp, err := g.provider.Complete(ctx, llm.CodePrompt(translated), g.model)
	if err != nil {
		return nil, fmt.Errorf("code generation failed: %w", err)
	}
	code := llm.ExtractCode(resp.Content)

	return &Result{
		TranslatedPrompt: translated,
		Output:           code,
		Explanation:      g.explain(ctx, code, languageCode),
	}, nil
}

func (g *LLM) Website(ctx context.Context, prompt, languageCode string) (*Result, error) {
	translated, err := g.toEnglish(ctx, prompt, languageCode)
	if err != nil {
		return nil, err
	}

	page := fmt.Sprintf(`<html>
  <head>
    <title>Generated Website</title>
    <meta charset='utf-8'>
    <style>
      body { font-family: sans-serif; padding: 2rem; background: #f9f9f9; }
      h1 { color: #2563eb; }
    </style>
  </head>
  <body>
    <h1>Website generated for:</h1>
    <p>%s</p>
  </body>
</html>`, html.EscapeString(translated))

	explanation := "This website was generated based on your description: " + translated

	return &Result{
		TranslatedPrompt: translated,
		Output:           page,
		Explanation:      g.fromEnglish(ctx, explanation, languageCode),
	}, nil
}

func (g *LLM) AppPlan(ctx context.Context, prompt, languageCode string) (*Result, error) {
	translated, err := g.toEnglish(ctx, prompt, languageCode)
	if err != nil {
		return nil, err
	}

	resp, err := g.provider.Complete(ctx, llm.AppPlanPrompt(translated), g.model)
	if err != nil {
		return nil, fmt.Errorf("app plan generation failed: %w", err)
	}

	return &Result{
		TranslatedPrompt: translated,
		Output:           resp.Content,
	}, nil
}

func (g *LLM) CodeFromPlan(ctx context.Context, plan, languageCode string) (*Result, error) {
	if languageCode == "" {
		languageCode = DefaultLanguage
	}

	plan, truncated := TruncatePlan(plan)
	if truncated {
		log.Warn().Int("max", MaxPlanLength).Msg("app plan truncated")
	}

	translated, err := g.toEnglish(ctx, plan, languageCode)
	if err != nil {
		return nil, err
	}

	resp, err := g.provider.Complete(ctx, llm.CodeFromPlanPrompt(translated), g.model)
	if err != nil {
		return nil, fmt.Errorf("code generation from plan failed: %w", err)
	}
	code, explanation := llm.SplitCodeAndExplanation(resp.Content)

	return &Result{
		TranslatedPrompt: translated,
		Output:           code,
		Explanation:      g.fromEnglish(ctx, explanation, languageCode),
	}, nil
}

func (g *LLM) toEnglish(ctx context.Context, text, languageCode string) (string, error) {
	if languageCode == "" || IsEnglish(languageCode) {
		return text, nil
	}

	resp, err := g.provider.Complete(ctx, llm.TranslatePrompt(text, languageCode, "en"), g.model)
	if err != nil {
		log.Error().Err(err).Str("language", languageCode).Msg("failed to translate prompt")
		return "", fmt.Errorf("%w: %v", ErrTranslationFailed, err)
	}
	if resp.Content == "" {
		return "", ErrTranslationFailed
	}
	return resp.Content, nil
}

// fromEnglish falls back to the English text when translation fails
func (g *LLM) fromEnglish(ctx context.Context, text, languageCode string) string {
	if text == "" || languageCode == "" || IsEnglish(languageCode) {
		return text
	}

	resp, err := g.provider.Complete(ctx, llm.TranslatePrompt(text, "en", languageCode), g.model)
	if err != nil || resp.Content == "" {
		log.Warn().Err(err).Str("language", languageCode).Msg("explanation translation failed, using English")
		return text
	}
	return resp.Content
}

// explain asks for an explanation in the user's language, then in English
func (g *LLM) explain(ctx context.Context, code, languageCode string) string {
	language := languageCode
	if language == "" {
		language = "English"
	}

	resp, err := g.provider.Complete(ctx, llm.ExplainPrompt(code, language), g.model)
	if err == nil && resp.Content != "" {
		return resp.Content
	}
	log.Warn().Err(err).Str("language", languageCode).Msg("explanation failed, retrying in English")

	resp, err = g.provider.Complete(ctx, llm.ExplainPrompt(code, "English"), g.model)
	if err == nil && resp.Content != "" {
		return resp.Content
	}
	log.Warn().Err(err).Msg("English explanation failed")

	return explanationUnavailable
}
