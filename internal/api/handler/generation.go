package handler

import (
	"net/http"
	"strconv"

	"github.com/Rrens/lingocode/internal/api/middleware"
	"github.com/Rrens/lingocode/internal/api/response"
	"github.com/Rrens/lingocode/internal/domain"
	"github.com/Rrens/lingocode/internal/service"
)

// GenerationHandler handles generation and history endpoints
type GenerationHandler struct {
	generationService *service.GenerationService
}

// NewGenerationHandler creates a new generation handler
func NewGenerationHandler(generationService *service.GenerationService) *GenerationHandler {
	return &GenerationHandler{generationService: generationService}
}

// History lists the caller's generation history, newest first
func (h *GenerationHandler) History(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, domain.ErrTokenMissing)
		return
	}

	// Non-numeric limits fall back to the default like missing ones
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	entries, err := h.generationService.History(r.Context(), userID, limit)
	if err != nil {
		response.Fail(w, r, err)
		return
	}

	response.OK(w, map[string]any{"history": entries})
}

// Process generates code or a website
func (h *GenerationHandler) Process(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, domain.ErrTokenMissing)
		return
	}

	var input domain.ProcessRequest
	if err := decodeJSON(w, r, &input); err != nil {
		response.Fail(w, r, err)
		return
	}

	resp, err := h.generationService.Process(r.Context(), userID, input)
	if err != nil {
		response.Fail(w, r, err)
		return
	}

	response.OK(w, resp)
}

// AppPlan generates an application blueprint
func (h *GenerationHandler) AppPlan(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, domain.ErrTokenMissing)
		return
	}

	var input domain.AppPlanRequest
	if err := decodeJSON(w, r, &input); err != nil {
		response.Fail(w, r, err)
		return
	}

	resp, err := h.generationService.AppPlan(r.Context(), userID, input)
	if err != nil {
		response.Fail(w, r, err)
		return
	}

	response.OK(w, resp)
}

// CodeFromPlan generates code from an app plan
func (h *GenerationHandler) CodeFromPlan(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, domain.ErrTokenMissing)
		return
	}

	var input domain.CodeFromPlanRequest
	if err := decodeJSON(w, r, &input); err != nil {
		response.Fail(w, r, err)
		return
	}

	resp, err := h.generationService.CodeFromPlan(r.Context(), userID, input)
	if err != nil {
		response.Fail(w, r, err)
		return
	}

	response.OK(w, resp)
}
