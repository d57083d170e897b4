package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/sujeethshingade/form-builder-sub000/internal/form/service"
)

// CollectionHandler 集合处理器
type CollectionHandler struct {
	svc   *service.CollectionService
	forms *service.FormService
}

// NewCollectionHandler 创建集合处理器
func NewCollectionHandler(svc *service.CollectionService, forms *service.FormService) *CollectionHandler {
	return &CollectionHandler{svc: svc, forms: forms}
}

// List GET /api/collections
func (h *CollectionHandler) List(c *gin.Context) {
	collections, err := h.svc.List(c.Request.Context())
	if err != nil {
		fail(c, err, "Collection", "list collections")
		return
	}
	Success(c, collections)
}

// Create POST /api/collections
func (h *CollectionHandler) Create(c *gin.Context) {
	var req service.CreateCollectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	col, err := h.svc.Create(c.Request.Context(), &req)
	if err != nil {
		fail(c, err, "Collection", "create collection")
		return
	}
	Created(c, col)
}

// Schema 集合内镜像的表单结构
// GET /api/collections/:name/schema
func (h *CollectionHandler) Schema(c *gin.Context) {
	mirror, err := h.forms.Schema(c.Request.Context(), c.Param("name"))
	if err != nil {
		fail(c, err, "Collection schema", "get collection schema")
		return
	}
	Success(c, mirror)
}
