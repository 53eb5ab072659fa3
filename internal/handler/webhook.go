package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"imagetagger/internal/tagging"
)

// ScanWebhookHandler receives classification results pushed by the external
// tagging service. Signature verification happens upstream of this service;
// here only the event shape is validated.
type ScanWebhookHandler struct {
	Pipeline *tagging.Pipeline
	Logger   *zap.Logger
}

func (h *ScanWebhookHandler) Register(r *gin.Engine) {
	r.POST("/webhooks/image-scan", h.ingest)
}

type scanResultRequest struct {
	ID      *int64               `json:"id" binding:"required"`
	IsValid *bool                `json:"isValid" binding:"required"`
	Tags    []scanTagObservation `json:"tags"`
}

type scanTagObservation struct {
	ID         *uint64 `json:"id"` // ignored; identifiers are assigned here
	Tag        string  `json:"tag" binding:"required"`
	Confidence float64 `json:"confidence"`
}

func (h *ScanWebhookHandler) ingest(c *gin.Context) {
	if h.Pipeline == nil {
		Error(c, http.StatusInternalServerError, "pipeline unavailable", nil)
		return
	}
	var req scanResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}

	obs := make([]tagging.RawObservation, 0, len(req.Tags))
	for _, t := range req.Tags {
		obs = append(obs, tagging.RawObservation{Tag: t.Tag, Confidence: t.Confidence})
	}

	err := h.Pipeline.Process(c.Request.Context(), tagging.ScanResult{
		ImageID: *req.ID,
		IsValid: *req.IsValid,
		Tags:    obs,
	})
	if errors.Is(err, tagging.ErrImageNotFound) {
		Error(c, http.StatusNotFound, "image not found", nil)
		return
	}
	if err != nil {
		if h.Logger != nil {
			h.Logger.Error("scan processing failed", zap.Int64("image_id", *req.ID), zap.Error(err))
		}
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, nil, nil)
}
