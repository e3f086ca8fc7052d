package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"detail-library/internal/ai"
	"detail-library/internal/app"
	"detail-library/internal/transport/http/response"
)

type SuggestHandler struct {
	suggestService *app.SuggestService
}

type SuggestResponse struct {
	Suggestions []app.Suggestion `json:"suggestions"`
	Summary     string           `json:"summary"`
}

func NewSuggestHandler(suggestService *app.SuggestService) *SuggestHandler {
	return &SuggestHandler{suggestService: suggestService}
}

func (h *SuggestHandler) Suggest(c *gin.Context) {
	var req SuggestDetailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	suggestions, summary, err := h.suggestService.Suggest(c.Request.Context(), req.context(), req.TopN)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		case errors.Is(err, ai.ErrCapabilityUnavailable):
			response.Error(c, http.StatusServiceUnavailable, response.CodeServiceUnavailable, "suggestion models are not configured")
		default:
			_ = c.Error(err)
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "suggest detail failed")
		}
		return
	}

	response.OK(c, SuggestResponse{Suggestions: suggestions, Summary: summary})
}
