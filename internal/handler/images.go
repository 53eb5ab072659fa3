package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"imagetagger/internal/repository"
)

type ImageHandler struct {
	Repo repository.Repository
}

func (h *ImageHandler) Register(r *gin.Engine) {
	group := r.Group("/api/v1/images")
	group.GET("/:id", h.getImage)
}

type imageResponse struct {
	ID        int64                    `json:"id"`
	ScannedAt *time.Time               `json:"scannedAt"`
	Unsafe    bool                     `json:"unsafe"`
	Tags      []repository.ImageTagRow `json:"tags"`
}

func (h *ImageHandler) getImage(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	imageID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		Error(c, http.StatusBadRequest, "invalid image id", nil)
		return
	}
	item, err := h.Repo.GetImageByID(c.Request.Context(), imageID)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	if item == nil {
		Error(c, http.StatusNotFound, "image not found", nil)
		return
	}
	rows, err := h.Repo.ListImageTags(c.Request.Context(), imageID)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, imageResponse{
		ID:        item.ID,
		ScannedAt: item.ScannedAt,
		Unsafe:    item.Unsafe,
		Tags:      rows,
	}, nil)
}
