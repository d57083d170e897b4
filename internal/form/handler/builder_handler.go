package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sujeethshingade/form-builder-sub000/internal/form/inspector"
	"github.com/sujeethshingade/form-builder-sub000/internal/form/palette"
	"github.com/sujeethshingade/form-builder-sub000/internal/form/schema"
)

// BuilderHandler 编辑器辅助接口：字段库、检查器与实时会话
type BuilderHandler struct {
	registry *palette.Registry
	ws       http.Handler
}

// NewBuilderHandler 创建编辑器处理器
func NewBuilderHandler(ws http.Handler) *BuilderHandler {
	return &BuilderHandler{registry: palette.Default(), ws: ws}
}

// Palette 字段库
// GET /api/palette
func (h *BuilderHandler) Palette(c *gin.Context) {
	Success(c, h.registry.Items())
}

// Instantiate 按字段库默认值生成新字段
// GET /api/palette/:type
func (h *BuilderHandler) Instantiate(c *gin.Context) {
	f, ok := h.registry.Instantiate(schema.FieldType(c.Param("type")))
	if !ok {
		NotFound(c, "Field type not found: "+c.Param("type"))
		return
	}
	Success(c, f)
}

// InspectRequest 检查器请求；Key 非空时先按属性修改字段
type InspectRequest struct {
	Field json.RawMessage `json:"field"`
	Key   string          `json:"key"`
	Value any             `json:"value"`
}

// Inspect 返回字段的检查器视图
// POST /api/inspector
func (h *BuilderHandler) Inspect(c *gin.Context) {
	var req InspectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	if len(req.Field) == 0 {
		BadRequest(c, "field is required")
		return
	}
	f, err := schema.DecodeField(req.Field)
	if err != nil {
		BadRequest(c, "Invalid field: "+err.Error())
		return
	}
	if req.Key != "" {
		patch, err := inspector.Patch(f, req.Key, req.Value)
		if err != nil {
			BadRequest(c, err.Error())
			return
		}
		if f, err = schema.ApplyPatch(f, patch); err != nil {
			BadRequest(c, err.Error())
			return
		}
	}
	Success(c, gin.H{
		"field":     f,
		"inspector": inspector.Inspect(f),
	})
}

// Session 实时编辑会话
// GET /api/builder/ws
func (h *BuilderHandler) Session(c *gin.Context) {
	h.ws.ServeHTTP(c.Writer, c.Request)
}
