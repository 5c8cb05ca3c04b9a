// Package generator produces code, websites and app plans from localized
// prompts. Mock returns canned output; LLM routes through an llm.Provider.
package generator

import (
	"context"
	"strings"
)

// MaxPlanLength caps the number of characters of an app plan sent for code generation
const MaxPlanLength = 2000

// DefaultLanguage is assumed when a request carries no language code
const DefaultLanguage = "en-US"

// Result is the output of one generation step
type Result struct {
	TranslatedPrompt string
	Output           string
	Explanation      string
}

// Generator is implemented by every generation backend
type Generator interface {
	Code(ctx context.Context, prompt, languageCode string) (*Result, error)
	Website(ctx context.Context, prompt, languageCode string) (*Result, error)
	AppPlan(ctx context.Context, prompt, languageCode string) (*Result, error)
	CodeFromPlan(ctx context.Context, plan, languageCode string) (*Result, error)
}

// IsEnglish reports whether a BCP 47 language code denotes English
func IsEnglish(languageCode string) bool {
	code := strings.ToLower(languageCode)
	return code == "en" || strings.HasPrefix(code, "en-")
}

// TruncatePlan shortens plan to MaxPlanLength characters without splitting runes
func TruncatePlan(plan string) (string, bool) {
	runes := []rune(plan)
	if len(runes) <= MaxPlanLength {
		return plan, false
	}
	return string(runes[:MaxPlanLength]), true
}
