package domain

// ProcessRequest asks for code or a website from a natural-language prompt
type ProcessRequest struct {
	UserInput        string `json:"user_input" validate:"required,max=5000"`
	UserLanguageCode string `json:"user_language_code" validate:"required,max=16"`
	Choice           string `json:"choice" validate:"required,oneof=code website"`
}

// ProcessResponse carries either CodeOutput or WebsiteHTML depending on the choice
type ProcessResponse struct {
	TranslatedPrompt string `json:"translatedPrompt"`
	CodeOutput       string `json:"codeOutput,omitempty"`
	WebsiteHTML      string `json:"websiteHtml,omitempty"`
	Explanation      string `json:"explanation"`
}

// AppPlanRequest asks for an application blueprint
type AppPlanRequest struct {
	UserInput        string `json:"user_input" validate:"required,max=5000"`
	UserLanguageCode string `json:"user_language_code" validate:"required,max=16"`
}

// AppPlanResponse carries a markdown app plan
type AppPlanResponse struct {
	TranslatedPrompt string `json:"translatedPrompt"`
	AppPlanOutput    string `json:"appPlanOutput"`
}

// CodeFromPlanRequest asks for code implementing an app plan
type CodeFromPlanRequest struct {
	AppPlanText      string `json:"app_plan_text" validate:"required,max=20000"`
	UserLanguageCode string `json:"user_language_code,omitempty" validate:"omitempty,max=16"`
}

// CodeFromPlanResponse carries code generated from a plan
type CodeFromPlanResponse struct {
	CodeOutput  string `json:"codeOutput"`
	Explanation string `json:"explanation,omitempty"`
}
