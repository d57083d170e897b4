package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/sujeethshingade/form-builder-sub000/internal/form/repository"
	"github.com/sujeethshingade/form-builder-sub000/internal/form/service"
)

// LayoutHandler 布局（模板）处理器
type LayoutHandler struct {
	svc *service.LayoutService
}

// NewLayoutHandler 创建布局处理器
func NewLayoutHandler(svc *service.LayoutService) *LayoutHandler {
	return &LayoutHandler{svc: svc}
}

// List 布局列表
// GET /api/form-layouts?type=&category=&search=
func (h *LayoutHandler) List(c *gin.Context) {
	layouts, err := h.svc.List(c.Request.Context(), repository.LayoutFilter{
		Type:     c.Query("type"),
		Category: c.Query("category"),
		Search:   c.Query("search"),
	})
	if err != nil {
		fail(c, err, "Layout", "list layouts")
		return
	}
	Success(c, layouts)
}

// Get 布局详情
// GET /api/form-layouts/:id
func (h *LayoutHandler) Get(c *gin.Context) {
	l, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err, "Layout", "get layout")
		return
	}
	Success(c, l)
}

// Create 创建布局
// POST /api/form-layouts
func (h *LayoutHandler) Create(c *gin.Context) {
	var req service.LayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	l, err := h.svc.Create(c.Request.Context(), &req)
	if err != nil {
		fail(c, err, "Layout", "create layout")
		return
	}
	Created(c, l)
}

// Update 整体替换布局
// PUT /api/form-layouts/:id
func (h *LayoutHandler) Update(c *gin.Context) {
	var req service.LayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	l, err := h.svc.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		fail(c, err, "Layout", "update layout")
		return
	}
	Success(c, l)
}

// Delete 删除布局
// DELETE /api/form-layouts/:id
func (h *LayoutHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err, "Layout", "delete layout")
		return
	}
	Success(c, gin.H{"deleted": true})
}

// AddBox 追加一个由模板盒子复制出的新盒子
// POST /api/form-layouts/:id/boxes
func (h *LayoutHandler) AddBox(c *gin.Context) {
	var req struct {
		Title string `json:"title"`
	}
	// 请求体可以为空
	_ = c.ShouldBindJSON(&req)

	l, box, err := h.svc.AddBox(c.Request.Context(), c.Param("id"), req.Title)
	if err != nil {
		fail(c, err, "Layout", "add box")
		return
	}
	Created(c, gin.H{"layout": l, "box": box})
}

// Fields 拖入画布时插入的字段
// GET /api/form-layouts/:id/fields
func (h *LayoutHandler) Fields(c *gin.Context) {
	fields, err := h.svc.DropFields(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err, "Layout", "get layout fields")
		return
	}
	Success(c, fields)
}

// Categories 布局分类
// GET /api/templates/categories
func (h *LayoutHandler) Categories(c *gin.Context) {
	categories, err := h.svc.Categories(c.Request.Context())
	if err != nil {
		fail(c, err, "Category", "list template categories")
		return
	}
	Success(c, categories)
}
