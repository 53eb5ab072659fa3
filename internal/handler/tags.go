package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"imagetagger/internal/repository"
)

type TagHandler struct {
	Repo repository.Repository
}

func (h *TagHandler) Register(r *gin.Engine) {
	group := r.Group("/api/v1/tags")
	group.GET("", h.listTags)
}

func (h *TagHandler) listTags(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	params := repository.ListTagsParams{
		Limit:   intQuery(c, "limit", 200),
		Offset:  intQuery(c, "offset", 0),
		Name:    strQueryPtr(c, "name"),
		Type:    strQueryPtr(c, "type"),
		OrderBy: "name",
		Asc:     boolPtr(true),
	}
	items, err := h.Repo.ListTags(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	total, err := h.Repo.CountTags(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, paginationMeta(params.Limit, params.Offset, total))
}
