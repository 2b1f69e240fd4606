package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/enlistment-api/internal/dto"
	"github.com/noah-isme/enlistment-api/internal/models"
	"github.com/noah-isme/enlistment-api/pkg/response"
)

type batchService interface {
	Submit(ctx context.Context, req dto.BatchEnlistRequest) (*models.BatchJob, error)
	Get(ctx context.Context, id string) (*models.BatchJob, error)
}

// BatchHandler exposes batch enlistment endpoints.
type BatchHandler struct {
	batches batchService
}

// NewBatchHandler constructs BatchHandler.
func NewBatchHandler(batches batchService) *BatchHandler {
	return &BatchHandler{batches: batches}
}

// Submit godoc
// @Summary Queue a batch enlistment
// @Tags Enlistments
// @Accept json
// @Produce json
// @Param payload body dto.BatchEnlistRequest true "Batch payload"
// @Success 202 {object} response.Envelope
// @Router /enlistments/batch [post]
func (h *BatchHandler) Submit(c *gin.Context) {
	var req dto.BatchEnlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}
	batch, err := h.batches.Submit(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, batch)
}

// Get godoc
// @Summary Get batch enlistment status
// @Tags Enlistments
// @Produce json
// @Param id path string true "Batch ID"
// @Success 200 {object} response.Envelope
// @Router /enlistments/batch/{id} [get]
func (h *BatchHandler) Get(c *gin.Context) {
	batch, err := h.batches.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, batch)
}
