package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/instrument-catalog/internal/http/response"
	"github.com/yungbote/instrument-catalog/internal/pkg/logger"
	"github.com/yungbote/instrument-catalog/internal/services"
)

type CategoryHandler struct {
	log             *logger.Logger
	categoryService services.CategoryService
}

func NewCategoryHandler(log *logger.Logger, categoryService services.CategoryService) *CategoryHandler {
	return &CategoryHandler{log: log.With("handler", "CategoryHandler"), categoryService: categoryService}
}

// GET /api/categories
func (h *CategoryHandler) List(c *gin.Context) {
	list, err := h.categoryService.List(c.Request.Context())
	if err != nil {
		response.RespondError(c, h.log, err, nil)
		return
	}
	response.RespondOK(c, http.StatusOK, list)
}

// GET /api/categories/:id
func (h *CategoryHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		response.RespondErrors(c, http.StatusNotFound, nil, services.MsgCategoryNotFound)
		return
	}
	cat, err := h.categoryService.Get(c.Request.Context(), id)
	if err != nil {
		response.RespondError(c, h.log, err, nil)
		return
	}
	response.RespondOK(c, http.StatusOK, cat)
}

// GET /api/categories/:id/instruments
func (h *CategoryHandler) ListInstruments(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		response.RespondErrors(c, http.StatusNotFound, nil, services.MsgCategoryNotFound)
		return
	}
	list, err := h.categoryService.ListInstruments(c.Request.Context(), id)
	if err != nil {
		response.RespondError(c, h.log, err, nil)
		return
	}
	response.RespondOK(c, http.StatusOK, views(list))
}
