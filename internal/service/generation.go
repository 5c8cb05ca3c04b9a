package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Rrens/lingocode/internal/domain"
	"github.com/Rrens/lingocode/internal/generator"
)

const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 100
)

// GenerationService runs generation requests and records them in history
type GenerationService struct {
	generator   generator.Generator
	historyRepo domain.HistoryRepository
	now         func() time.Time
}

// NewGenerationService creates a new generation service
func NewGenerationService(gen generator.Generator, historyRepo domain.HistoryRepository) *GenerationService {
	return &GenerationService{
		generator:   gen,
		historyRepo: historyRepo,
		now:         time.Now,
	}
}

// Process generates code or a website from a localized prompt
func (s *GenerationService) Process(ctx context.Context, userID uuid.UUID, req domain.ProcessRequest) (*domain.ProcessResponse, error) {
	var (
		result  *generator.Result
		genType domain.GenerationType
		err     error
	)

	switch req.Choice {
	case "code":
		genType = domain.GenerationCode
		result, err = s.generator.Code(ctx, req.UserInput, req.UserLanguageCode)
	case "website":
		genType = domain.GenerationWebsite
		result, err = s.generator.Website(ctx, req.UserInput, req.UserLanguageCode)
	default:
		return nil, domain.NewValidationError("invalid choice provided", map[string]string{
			"choice": "must be one of: code website",
		})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to generate %s: %w", req.Choice, err)
	}

	s.record(ctx, userID, genType, req.UserInput, req.UserLanguageCode, result)

	resp := &domain.ProcessResponse{
		TranslatedPrompt: result.TranslatedPrompt,
		Explanation:      result.Explanation,
	}
	if genType == domain.GenerationCode {
		resp.CodeOutput = result.Output
	} else {
		resp.WebsiteHTML = result.Output
	}
	return resp, nil
}

// AppPlan generates a markdown application blueprint
func (s *GenerationService) AppPlan(ctx context.Context, userID uuid.UUID, req domain.AppPlanRequest) (*domain.AppPlanResponse, error) {
	result, err := s.generator.AppPlan(ctx, req.UserInput, req.UserLanguageCode)
	if err != nil {
		return nil, fmt.Errorf("failed to generate app plan: %w", err)
	}

	s.record(ctx, userID, domain.GenerationAppPlan, req.UserInput, req.UserLanguageCode, result)

	return &domain.AppPlanResponse{
		TranslatedPrompt: result.TranslatedPrompt,
		AppPlanOutput:    result.Output,
	}, nil
}

// CodeFromPlan generates code implementing an app plan
func (s *GenerationService) CodeFromPlan(ctx context.Context, userID uuid.UUID, req domain.CodeFromPlanRequest) (*domain.CodeFromPlanResponse, error) {
	language := req.UserLanguageCode
	if language == "" {
		language = generator.DefaultLanguage
	}

	result, err := s.generator.CodeFromPlan(ctx, req.AppPlanText, language)
	if err != nil {
		return nil, fmt.Errorf("failed to generate code from plan: %w", err)
	}

	input, _ := generator.TruncatePlan(req.AppPlanText)
	s.record(ctx, userID, domain.GenerationCodeFromPlan, input, language, result)

	return &domain.CodeFromPlanResponse{
		CodeOutput:  result.Output,
		Explanation: result.Explanation,
	}, nil
}

// History returns the newest entries first. Limits below 1 fall back to
// DefaultHistoryLimit and limits above MaxHistoryLimit are capped.
func (s *GenerationService) History(ctx context.Context, userID uuid.UUID, limit int) ([]domain.HistoryEntry, error) {
	entries, err := s.historyRepo.ListByUser(ctx, userID, NormalizeHistoryLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	if entries == nil {
		entries = []domain.HistoryEntry{}
	}
	return entries, nil
}

// NormalizeHistoryLimit clamps a requested history page size
func NormalizeHistoryLimit(limit int) int {
	switch {
	case limit < 1:
		return DefaultHistoryLimit
	case limit > MaxHistoryLimit:
		return MaxHistoryLimit
	default:
		return limit
	}
}

// record stores a history entry; failures are logged and do not fail the request
func (s *GenerationService) record(ctx context.Context, userID uuid.UUID, genType domain.GenerationType, input, language string, result *generator.Result) {
	entry := &domain.HistoryEntry{
		ID:               uuid.New(),
		UserID:           userID,
		Type:             genType,
		Input:            input,
		Output:           result.Output,
		TranslatedPrompt: optional(result.TranslatedPrompt),
		Explanation:      optional(result.Explanation),
		LanguageCode:     optional(language),
		CreatedAt:        s.now().UTC(),
	}

	if err := s.historyRepo.Create(ctx, entry); err != nil {
		log.Error().Err(err).
			Str("user_id", userID.String()).
			Str("type", string(genType)).
			Msg("failed to save history entry")
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
