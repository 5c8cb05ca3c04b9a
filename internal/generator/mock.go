package generator

import (
	"context"
	"fmt"
	"html"
)

// Mock returns deterministic placeholder output without calling any model
type Mock struct{}

// NewMock creates a new mock generator
func NewMock() *Mock {
	return &Mock{}
}

func (m *Mock) Code(_ context.Context, prompt, _ string) (*Result, error) {
	code := fmt.Sprintf("# Generated code for: %s\n\n"+
		"def main():\n"+
		"    print(\"Hello, World!\")\n"+
		"    # Your implementation here\n"+
		"    pass\n\n"+
		"if __name__ == \"__main__\":\n"+
		"    main()", prompt)

	return &Result{
		TranslatedPrompt: mockTranslate(prompt),
		Output:           code,
		Explanation:      "This code demonstrates: " + prompt,
	}, nil
}

func (m *Mock) Website(_ context.Context, prompt, _ string) (*Result, error) {
	translated := mockTranslate(prompt)
	page := fmt.Sprintf(
		"<html><head><title>Generated Website</title></head><body><h1>Website for: %s</h1></body></html>",
		html.EscapeString(translated),
	)

	return &Result{
		TranslatedPrompt: translated,
		Output:           page,
		Explanation:      "Website generated for: " + translated,
	}, nil
}

func (m *Mock) AppPlan(_ context.Context, prompt, _ string) (*Result, error) {
	plan := fmt.Sprintf("# App Plan for: %s\n\n"+
		"## Introduction\nComprehensive plan for your application.\n\n"+
		"## Features\n- Core functionality\n- User interface\n- Data management\n\n"+
		"## Technologies\n- Frontend: React.js\n- Backend: Go\n- Database: SQLite\n\n"+
		"## Implementation Steps\n"+
		"1. Setup development environment\n"+
		"2. Create database schema\n"+
		"3. Build backend API\n"+
		"4. Develop frontend\n"+
		"5. Testing and deployment", prompt)

	return &Result{
		TranslatedPrompt: mockTranslate(prompt),
		Output:           plan,
	}, nil
}

func (m *Mock) CodeFromPlan(_ context.Context, plan, _ string) (*Result, error) {
	plan, _ = TruncatePlan(plan)
	code := "# Generated code from app plan\n\n" +
		"import React from 'react';\n\n" +
		"function App() {\n" +
		"  return (\n" +
		"    <div className=\"App\">\n" +
		"      <h1>Your Application</h1>\n" +
		"      <p>Generated from your app plan</p>\n" +
		"    </div>\n" +
		"  );\n" +
		"}\n\n" +
		"export default App;"

	return &Result{
		TranslatedPrompt: plan,
		Output:           code,
		Explanation:      "Code generated from app plan",
	}, nil
}

func mockTranslate(prompt string) string {
	return "Translated: " + prompt
}
