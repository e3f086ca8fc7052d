package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"detail-library/internal/app"
	"detail-library/internal/transport/http/response"
)

type DetailHandler struct {
	detailService *app.DetailService
}

// SuggestDetailRequest is shared by the exact-rule and retrieval endpoints.
type SuggestDetailRequest struct {
	HostElement     string `json:"host_element" binding:"required"`
	AdjacentElement string `json:"adjacent_element" binding:"required"`
	Exposure        string `json:"exposure" binding:"required"`
	TopN            int    `json:"top_n" binding:"gte=0"`
}

func (r SuggestDetailRequest) context() app.SuggestionContext {
	return app.SuggestionContext{
		HostElement:     r.HostElement,
		AdjacentElement: r.AdjacentElement,
		Exposure:        r.Exposure,
	}
}

func NewDetailHandler(detailService *app.DetailService) *DetailHandler {
	return &DetailHandler{detailService: detailService}
}

func (h *DetailHandler) List(c *gin.Context) {
	details, err := h.detailService.ListDetails(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list details failed")
		return
	}
	response.OK(c, details)
}

func (h *DetailHandler) Get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid detail id")
		return
	}
	detail, err := h.detailService.GetDetail(c.Request.Context(), uint(id))
	if err != nil {
		if errors.Is(err, app.ErrDetailNotFound) {
			response.Error(c, http.StatusNotFound, response.CodeDetailNotFound, err.Error())
			return
		}
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "get detail failed")
		return
	}
	response.OK(c, detail)
}

func (h *DetailHandler) Search(c *gin.Context) {
	details, err := h.detailService.SearchDetails(c.Request.Context(), c.Query("q"))
	if err != nil {
		if errors.Is(err, app.ErrInvalidInput) {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "query parameter q is required")
			return
		}
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "search details failed")
		return
	}
	response.OK(c, details)
}

// SuggestByRule looks up a detail through the curated usage rules.
func (h *DetailHandler) SuggestByRule(c *gin.Context) {
	var req SuggestDetailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}
	result, err := h.detailService.SuggestByRule(c.Request.Context(), req.context())
	if err != nil {
		if errors.Is(err, app.ErrInvalidInput) {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
			return
		}
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "suggest detail failed")
		return
	}
	response.OK(c, result)
}
