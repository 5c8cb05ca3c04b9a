package llm

import (
	"fmt"
	"strings"
)

const (
	codeSystemPrompt = "You are a helpful programming assistant. Generate clean, efficient, and well-documented code."

	appPlanSystemPrompt = "You are an AI assistant specialized in creating detailed application blueprints in markdown format. " +
		"Provide a clear structure including sections like Introduction, Features, Technologies, Architecture, " +
		"and rough steps for implementation. The plan should be comprehensive and easy to understand."

	codeFromPlanSystemPrompt = "You are an AI assistant specialized in generating code based on a provided application plan. " +
		"Write the code based on the detailed blueprint. Provide clear and concise code."

	translateSystemPrompt = "You are a professional translator. Reply with the translation only, without notes or quotes."
)

// CodePrompt asks for Python code implementing prompt
func CodePrompt(prompt string) Request {
	return Request{
		System:      codeSystemPrompt,
		Prompt:      fmt.Sprintf("Write a Python code for: %s. Include comments explaining the code.", prompt),
		Temperature: 0.7,
		MaxTokens:   2000,
	}
}

// ExplainPrompt asks for an explanation of code written in language
func ExplainPrompt(code, language string) Request {
	return Request{
		System: fmt.Sprintf(
			"You are a helpful programming assistant. Provide a clear and concise explanation of the code in %s.",
			language,
		),
		Prompt:      "Explain the following code:\n" + code,
		Temperature: 0.7,
		MaxTokens:   1000,
	}
}

// AppPlanPrompt asks for a markdown application blueprint
func AppPlanPrompt(prompt string) Request {
	return Request{
		System:      appPlanSystemPrompt,
		Prompt:      fmt.Sprintf("Create an app plan for: %s. Provide the output in markdown format.", prompt),
		Temperature: 0.7,
		MaxTokens:   2000,
	}
}

// CodeFromPlanPrompt asks for code implementing an app plan
func CodeFromPlanPrompt(plan string) Request {
	return Request{
		System:      codeFromPlanSystemPrompt,
		Prompt:      "Generate code based on the following app plan:\n\n" + plan,
		Temperature: 0.7,
		MaxTokens:   3000,
	}
}

// TranslatePrompt asks for text to be translated between BCP 47 language codes
func TranslatePrompt(text, from, to string) Request {
	return Request{
		System:      translateSystemPrompt,
		Prompt:      fmt.Sprintf("Translate the following text from %s to %s:\n\n%s", from, to, text),
		Temperature: 0,
		MaxTokens:   2000,
	}
}

// ExtractCode returns the body of the first fenced code block in content,
// or the trimmed content when there is none
func ExtractCode(content string) string {
	start := strings.Index(content, "```")
	if start == -1 {
		return strings.TrimSpace(content)
	}

	body := content[start+3:]
	// Drop the language tag on the opening fence
	if nl := strings.IndexByte(body, '\n'); nl != -1 {
		if tag := strings.TrimSpace(body[:nl]); !strings.ContainsAny(tag, " \t") {
			body = body[nl+1:]
		}
	}

	end := strings.Index(body, "```")
	if end == -1 {
		return strings.TrimSpace(content)
	}

	return strings.TrimSpace(body[:end])
}

// SplitCodeAndExplanation separates the first fenced code block from the
// surrounding prose
func SplitCodeAndExplanation(content string) (code, explanation string) {
	start := strings.Index(content, "```")
	if start == -1 {
		return strings.TrimSpace(content), ""
	}
	end := strings.Index(content[start+3:], "```")
	if end == -1 {
		return strings.TrimSpace(content), ""
	}
	end += start + 3 + 3

	code = ExtractCode(content[start:end])
	explanation = strings.TrimSpace(content[:start] + "\n" + content[end:])
	return code, explanation
}
