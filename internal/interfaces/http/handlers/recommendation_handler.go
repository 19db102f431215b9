package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"wellness-backend/internal/application/services"
	"wellness-backend/internal/domain/wellness"
	"wellness-backend/pkg/api"
)

// RecommendationHandler serves the context and recommendation endpoints.
type RecommendationHandler struct {
	service   *services.WellnessService
	validator *Validator
	logger    *zap.Logger
}

// NewRecommendationHandler creates the handler.
func NewRecommendationHandler(service *services.WellnessService, logger *zap.Logger) *RecommendationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecommendationHandler{
		service:   service,
		validator: GetValidator(),
		logger:    logger,
	}
}

// UpdateContext handles PUT /context.
func (h *RecommendationHandler) UpdateContext(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req UpdateContextRequest
	if err := decodeAndValidate(r, &req, h.validator); err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	if err := h.service.UpdateContext(r.Context(), userID, req.ToSignals()); err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RefreshContext handles POST /context/refresh.
func (h *RecommendationHandler) RefreshContext(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	if err := h.service.RefreshContext(r.Context(), userID); err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetRecommendations handles GET /recommendations.
func (h *RecommendationHandler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	result, err := h.service.Recommendations(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	api.Success(w, http.StatusOK, result)
}

// Fallback handles POST /recommendations/fallback.
func (h *RecommendationHandler) Fallback(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}

	var pc wellness.PersonalizationContext
	if err := decodeAndValidate(r, &pc, h.validator); err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	api.Success(w, http.StatusOK, SessionRecommendationsResponse{
		Recommendations: h.service.Fallback(pc),
		Source:          "fallback",
	})
}

// Personalized handles POST /recommendations/personalized. Upstream failures
// never fail the request; the response says which path answered.
func (h *RecommendationHandler) Personalized(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req PersonalizedRequest
	if err := decodeAndValidate(r, &req, h.validator); err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	result := h.service.Personalize(r.Context(), userID, req.Context, toSessions(req.RecentSessions))
	api.Success(w, http.StatusOK, SessionRecommendationsResponse{
		Recommendations: result.Recommendations,
		Source:          string(result.Source),
		Cause:           result.Cause,
		Cached:          result.Cached,
	})
}

// ClearCache handles DELETE /recommendations/cache.
func (h *RecommendationHandler) ClearCache(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	if err := h.service.ClearCache(r.Context(), userID); err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
