package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/sujeethshingade/form-builder-sub000/internal/form/service"
	"github.com/sujeethshingade/form-builder-sub000/internal/form/session"
	"github.com/sujeethshingade/form-builder-sub000/internal/form/sse"
)

// Handlers 处理器集合
type Handlers struct {
	Form        *FormHandler
	Layout      *LayoutHandler
	CustomField *CustomFieldHandler
	Collection  *CollectionHandler
	Submission  *SubmissionHandler
	Upload      *UploadHandler
	Builder     *BuilderHandler
	SSE         *SSEHandler
	Health      *HealthHandler
}

// Options 处理器依赖
type Options struct {
	DB            *gorm.DB
	Hub           *sse.Hub
	Sessions      *session.Manager
	Logger        *zap.Logger
	Version       string
	SSEBufferSize int

	// AllowedOrigins 允许跨域建立编辑会话的来源主机
	AllowedOrigins []string
}

// NewHandlers 创建处理器集合
func NewHandlers(svc *service.Services, opts Options) *Handlers {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Hub == nil {
		opts.Hub = sse.NewHub(opts.Logger)
	}
	if opts.Sessions == nil {
		opts.Sessions = session.NewManager(0)
	}
	ws := session.NewHandler(opts.Sessions, session.Backend{
		Forms:        svc.Form,
		Layouts:      svc.Layout,
		CustomFields: svc.CustomField,
	}, svc.Form.Renderer(), opts.Logger.Named("session"), session.WithOriginPatterns(opts.AllowedOrigins...))

	return &Handlers{
		Form:        NewFormHandler(svc.Form),
		Layout:      NewLayoutHandler(svc.Layout),
		CustomField: NewCustomFieldHandler(svc.CustomField),
		Collection:  NewCollectionHandler(svc.Collection, svc.Form),
		Submission:  NewSubmissionHandler(svc.Submission),
		Upload:      NewUploadHandler(svc.Upload),
		Builder:     NewBuilderHandler(ws),
		SSE:         NewSSEHandler(opts.Hub, opts.SSEBufferSize),
		Health:      NewHealthHandler(opts.DB, opts.Sessions, opts.Hub, opts.Version),
	}
}

// Response 通用响应结构
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Success 成功响应
func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Response{Success: true, Data: data})
}

// Created 创建成功响应
func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, Response{Success: true, Data: data})
}

// Error 错误响应
func Error(c *gin.Context, status int, message string) {
	c.JSON(status, Response{Success: false, Error: message})
}

// BadRequest 参数错误响应
func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

// NotFound 资源不存在响应
func NotFound(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, message)
}

// InternalError 服务器错误响应
func InternalError(c *gin.Context, message string) {
	Error(c, http.StatusInternalServerError, message)
}

// fail 服务层错误映射为响应：校验失败 400，不存在 404，其余 500
func fail(c *gin.Context, err error, resource, action string) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		if verr.Report != nil {
			c.JSON(http.StatusBadRequest, Response{Success: false, Error: verr.Message, Data: verr.Report})
			return
		}
		BadRequest(c, verr.Message)
	case service.IsNotFound(err):
		NotFound(c, resource+" not found")
	case errors.Is(err, service.ErrStorageDisabled):
		Error(c, http.StatusServiceUnavailable, "File storage is not configured")
	default:
		InternalError(c, "Failed to "+action+": "+err.Error())
	}
}

// GetUserID 从上下文获取用户ID
func GetUserID(c *gin.Context) string {
	userID, _ := c.Get("user_id")
	if id, ok := userID.(string); ok {
		return id
	}
	return ""
}

// queryInt 解析整数查询参数，缺省或非法时返回 def
func queryInt(c *gin.Context, key string, def int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return def
	}
	return v
}
