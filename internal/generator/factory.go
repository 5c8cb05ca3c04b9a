package generator

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/Rrens/lingocode/internal/config"
	"github.com/Rrens/lingocode/internal/llm"
	"github.com/Rrens/lingocode/internal/llm/gemini"
	"github.com/Rrens/lingocode/internal/llm/ollama"
	"github.com/Rrens/lingocode/internal/llm/openai"
)

const (
	ModeMock = "mock"
	ModeLLM  = "llm"
)

// NewProviderRouter registers every provider that has credentials or a host
func NewProviderRouter(cfg config.LLMConfig) *llm.Router {
	router := llm.NewRouter(cfg.DefaultProvider)

	if cfg.OpenAI.APIKey != "" {
		log.Info().Str("base_url", cfg.OpenAI.BaseURL).Msg("registering openai provider")
		router.RegisterProvider(openai.NewProvider(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.BaseURL))
	}
	if cfg.Gemini.APIKey != "" {
		log.Info().Msg("registering gemini provider")
		router.RegisterProvider(gemini.NewProvider(cfg.Gemini))
	}
	if cfg.Ollama.Host != "" {
		log.Info().Str("host", cfg.Ollama.Host).Msg("registering ollama provider")
		router.RegisterProvider(ollama.NewProvider(cfg.Ollama.Host, cfg.Ollama.DefaultModel))
	}

	return router
}

// New selects the generation backend for cfg.Mode
func New(cfg config.GenerationConfig, router *llm.Router) (Generator, error) {
	switch cfg.Mode {
	case "", ModeMock:
		return NewMock(), nil
	case ModeLLM:
		provider, err := router.GetProvider(cfg.Provider)
		if err != nil {
			return nil, fmt.Errorf("llm generation mode: %w", err)
		}
		log.Info().Str("provider", provider.Name()).Str("model", cfg.Model).Msg("using llm generator")
		return NewLLM(provider, cfg.Model), nil
	default:
		return nil, fmt.Errorf("unknown generation mode: %q", cfg.Mode)
	}
}
