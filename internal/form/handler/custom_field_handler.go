package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/sujeethshingade/form-builder-sub000/internal/form/repository"
	"github.com/sujeethshingade/form-builder-sub000/internal/form/service"
)

// CustomFieldHandler 自定义字段处理器
type CustomFieldHandler struct {
	svc *service.CustomFieldService
}

// NewCustomFieldHandler 创建自定义字段处理器
func NewCustomFieldHandler(svc *service.CustomFieldService) *CustomFieldHandler {
	return &CustomFieldHandler{svc: svc}
}

// List GET /api/custom-fields?category=&search=
func (h *CustomFieldHandler) List(c *gin.Context) {
	fields, err := h.svc.List(c.Request.Context(), repository.CustomFieldFilter{
		Category: c.Query("category"),
		Search:   c.Query("search"),
	})
	if err != nil {
		fail(c, err, "Custom field", "list custom fields")
		return
	}
	Success(c, fields)
}

// Get GET /api/custom-fields/:id
func (h *CustomFieldHandler) Get(c *gin.Context) {
	f, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err, "Custom field", "get custom field")
		return
	}
	Success(c, f)
}

// Create POST /api/custom-fields
func (h *CustomFieldHandler) Create(c *gin.Context) {
	var req service.CustomFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	f, err := h.svc.Create(c.Request.Context(), &req)
	if err != nil {
		fail(c, err, "Custom field", "create custom field")
		return
	}
	Created(c, f)
}

// Update PUT /api/custom-fields/:id
func (h *CustomFieldHandler) Update(c *gin.Context) {
	var req service.CustomFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	f, err := h.svc.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		fail(c, err, "Custom field", "update custom field")
		return
	}
	Success(c, f)
}

// Delete DELETE /api/custom-fields/:id
func (h *CustomFieldHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err, "Custom field", "delete custom field")
		return
	}
	Success(c, gin.H{"deleted": true})
}

// Categories GET /api/custom-fields/categories
func (h *CustomFieldHandler) Categories(c *gin.Context) {
	categories, err := h.svc.Categories(c.Request.Context())
	if err != nil {
		fail(c, err, "Category", "list custom field categories")
		return
	}
	Success(c, categories)
}
