package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"detail-library/internal/ai"
	"detail-library/internal/app"
	"detail-library/internal/platform/rabbitmq"
	"detail-library/internal/transport/http/middleware"
	"detail-library/internal/transport/http/response"
)

// BackfillEnqueuer hands a backfill job to the worker queue.
type BackfillEnqueuer interface {
	Publish(ctx context.Context, job rabbitmq.BackfillJob) error
}

type AdminHandler struct {
	backfillService *app.BackfillService
	enqueuer        BackfillEnqueuer
}

// NewAdminHandler accepts a nil enqueuer when RabbitMQ is not configured.
func NewAdminHandler(backfillService *app.BackfillService, enqueuer BackfillEnqueuer) *AdminHandler {
	return &AdminHandler{backfillService: backfillService, enqueuer: enqueuer}
}

func (h *AdminHandler) Backfill(c *gin.Context) {
	updated, err := h.backfillService.Run(c.Request.Context())
	if err != nil {
		if errors.Is(err, ai.ErrCapabilityUnavailable) {
			response.Error(c, http.StatusServiceUnavailable, response.CodeServiceUnavailable, "embedding model is not configured")
			return
		}
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "backfill embeddings failed")
		return
	}
	response.OK(c, gin.H{"updated": updated})
}

func (h *AdminHandler) BackfillAsync(c *gin.Context) {
	if h.enqueuer == nil {
		response.Error(c, http.StatusServiceUnavailable, response.CodeServiceUnavailable, "async backfill is disabled")
		return
	}

	job := rabbitmq.BackfillJob{
		RequestID:   c.GetString(middleware.ContextRequestIDKey),
		RequestedBy: c.GetString(middleware.ContextSubjectKey),
		RequestedAt: time.Now().UTC(),
	}
	if err := h.enqueuer.Publish(c.Request.Context(), job); err != nil {
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "enqueue backfill failed")
		return
	}
	response.Accepted(c, gin.H{"request_id": job.RequestID})
}
