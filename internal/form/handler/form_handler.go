package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sujeethshingade/form-builder-sub000/internal/form/render"
	"github.com/sujeethshingade/form-builder-sub000/internal/form/repository"
	"github.com/sujeethshingade/form-builder-sub000/internal/form/service"
)

// FormHandler 表单处理器
type FormHandler struct {
	svc *service.FormService
}

// NewFormHandler 创建表单处理器
func NewFormHandler(svc *service.FormService) *FormHandler {
	return &FormHandler{svc: svc}
}

// List 表单列表
// GET /api/forms?search=&collection=
func (h *FormHandler) List(c *gin.Context) {
	forms, err := h.svc.List(c.Request.Context(), repository.FormFilter{
		Search:     c.Query("search"),
		Collection: c.Query("collection"),
	})
	if err != nil {
		fail(c, err, "Form", "list forms")
		return
	}
	Success(c, forms)
}

// Get 表单详情
// GET /api/forms/:id
func (h *FormHandler) Get(c *gin.Context) {
	form, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err, "Form", "get form")
		return
	}
	Success(c, form)
}

// Create 创建表单
// POST /api/forms
func (h *FormHandler) Create(c *gin.Context) {
	var req service.CreateFormRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	form, err := h.svc.Create(c.Request.Context(), &req)
	if err != nil {
		fail(c, err, "Form", "create form")
		return
	}
	Created(c, form)
}

// Update 部分更新表单
// PUT /api/forms/:id
func (h *FormHandler) Update(c *gin.Context) {
	var req service.UpdateFormRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	form, err := h.svc.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		fail(c, err, "Form", "update form")
		return
	}
	Success(c, form)
}

// Delete 删除表单
// DELETE /api/forms/:id
func (h *FormHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err, "Form", "delete form")
		return
	}
	Success(c, gin.H{"deleted": true})
}

// Render 渲染表单；raw=true 时直接返回渲染内容
// GET /api/forms/:id/render?mode=edit|preview|json
func (h *FormHandler) Render(c *gin.Context) {
	mode, err := render.ParseMode(c.Query("mode"))
	if err != nil {
		BadRequest(c, "Invalid render mode: "+c.Query("mode"))
		return
	}
	out, err := h.svc.Render(c.Request.Context(), c.Param("id"), mode, service.RenderOptions{
		Action: c.Query("action"),
	})
	if err != nil {
		fail(c, err, "Form", "render form")
		return
	}
	if c.Query("raw") == "true" {
		c.Data(http.StatusOK, out.ContentType, []byte(out.Body))
		return
	}
	Success(c, out)
}

// Validate 校验表单值
// POST /api/forms/:id/validate
func (h *FormHandler) Validate(c *gin.Context) {
	var req service.ValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	report, err := h.svc.Validate(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		fail(c, err, "Form", "validate form")
		return
	}
	Success(c, gin.H{
		"valid":  report.Empty(),
		"errors": report.Errors,
	})
}

// Change 执行 onChange 脚本
// POST /api/forms/:id/change
func (h *FormHandler) Change(c *gin.Context) {
	var req service.ChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	result, err := h.svc.Change(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		fail(c, err, "Form", "run change scripts")
		return
	}
	Success(c, result)
}
