package handler

import (
	"github.com/gin-gonic/gin"

	"detail-library/internal/transport/http/response"
)

type IndexHandler struct {
	name string
}

func NewIndexHandler(name string) *IndexHandler {
	return &IndexHandler{name: name}
}

func (h *IndexHandler) Index(c *gin.Context) {
	response.OK(c, gin.H{
		"name": h.name,
		"endpoints": gin.H{
			"list_details":    "GET /api/v1/details",
			"get_detail":      "GET /api/v1/details/:id",
			"search_details":  "GET /api/v1/details/search?q=",
			"suggest_by_rule": "POST /api/v1/suggest-detail",
			"suggest_by_rag":  "POST /api/v1/suggest-detail/rag",
			"backfill":        "POST /api/v1/admin/embeddings/backfill",
			"backfill_async":  "POST /api/v1/admin/embeddings/backfill/async",
			"login":           "POST /api/v1/auth/login",
			"health":          "GET /healthz",
		},
	})
}
