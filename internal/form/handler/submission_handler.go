package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/sujeethshingade/form-builder-sub000/internal/form/repository"
	"github.com/sujeethshingade/form-builder-sub000/internal/form/service"
)

// SubmissionHandler 提交记录处理器
type SubmissionHandler struct {
	svc *service.SubmissionService
}

// NewSubmissionHandler 创建提交记录处理器
func NewSubmissionHandler(svc *service.SubmissionService) *SubmissionHandler {
	return &SubmissionHandler{svc: svc}
}

// Submit 写入表单提交；校验失败时返回 400 与逐字段错误
// POST /api/submissions
func (h *SubmissionHandler) Submit(c *gin.Context) {
	var req service.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	sub, err := h.svc.Submit(c.Request.Context(), &req)
	if err != nil {
		fail(c, err, "Form", "save submission")
		return
	}
	Created(c, sub)
}

// List GET /api/submissions?collection=&formId=&limit=
func (h *SubmissionHandler) List(c *gin.Context) {
	items, err := h.svc.List(c.Request.Context(), repository.SubmissionFilter{
		Collection: c.Query("collection"),
		FormID:     c.Query("formId"),
		Limit:      queryInt(c, "limit", 0),
	})
	if err != nil {
		fail(c, err, "Submission", "list submissions")
		return
	}
	Success(c, items)
}

// Export 导出集合提交记录
// GET /api/submissions/export?collection=
func (h *SubmissionHandler) Export(c *gin.Context) {
	f, filename, err := h.svc.Export(c.Request.Context(), c.Query("collection"))
	if err != nil {
		fail(c, err, "Collection", "export submissions")
		return
	}
	defer f.Close()

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename=\""+filename+"\"")
	c.Header("Content-Transfer-Encoding", "binary")

	if err := f.Write(c.Writer); err != nil {
		InternalError(c, "Failed to write export: "+err.Error())
	}
}
