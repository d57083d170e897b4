package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sujeethshingade/form-builder-sub000/internal/middleware"
)

// Register 注册全部路由；auth 作用于 /api 下的所有接口
func Register(r *gin.Engine, h *Handlers, auth gin.HandlerFunc) {
	// 健康检查
	r.GET("/health/live", h.Health.Live)
	r.GET("/health/ready", h.Health.Ready)
	r.GET("/version", h.Health.Version)

	r.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			NotFound(c, "Not found")
			return
		}
		c.String(http.StatusNotFound, "404 page not found")
	})

	api := r.Group("/api", auth)
	edit := middleware.RequireRole(middleware.EditorRole)

	// 表单
	forms := api.Group("/forms")
	{
		forms.GET("", h.Form.List)
		forms.POST("", edit, h.Form.Create)
		forms.GET("/:id", h.Form.Get)
		forms.PUT("/:id", edit, h.Form.Update)
		forms.DELETE("/:id", edit, h.Form.Delete)
		forms.GET("/:id/render", h.Form.Render)
		forms.POST("/:id/validate", h.Form.Validate)
		forms.POST("/:id/change", h.Form.Change)
	}

	// 布局（模板）
	layouts := api.Group("/form-layouts")
	{
		layouts.GET("", h.Layout.List)
		layouts.POST("", edit, h.Layout.Create)
		layouts.GET("/:id", h.Layout.Get)
		layouts.PUT("/:id", edit, h.Layout.Update)
		layouts.DELETE("/:id", edit, h.Layout.Delete)
		layouts.POST("/:id/boxes", edit, h.Layout.AddBox)
		layouts.GET("/:id/fields", h.Layout.Fields)
	}
	api.GET("/templates/categories", h.Layout.Categories)

	// 自定义字段
	customFields := api.Group("/custom-fields")
	{
		customFields.GET("", h.CustomField.List)
		customFields.GET("/categories", h.CustomField.Categories)
		customFields.POST("", edit, h.CustomField.Create)
		customFields.GET("/:id", h.CustomField.Get)
		customFields.PUT("/:id", edit, h.CustomField.Update)
		customFields.DELETE("/:id", edit, h.CustomField.Delete)
	}

	// 集合
	api.GET("/collections", h.Collection.List)
	api.POST("/collections", edit, h.Collection.Create)
	api.GET("/collections/:name/schema", h.Collection.Schema)

	// 提交记录
	api.POST("/submissions", h.Submission.Submit)
	api.GET("/submissions", h.Submission.List)
	api.GET("/submissions/export", h.Submission.Export)

	// 文件
	api.POST("/uploads", h.Upload.Upload)
	api.GET("/uploads/*object", h.Upload.Download)

	// 编辑器
	api.GET("/palette", h.Builder.Palette)
	api.GET("/palette/:type", h.Builder.Instantiate)
	api.POST("/inspector", h.Builder.Inspect)
	api.GET("/builder/ws", edit, h.Builder.Session)

	// 实时事件
	api.GET("/events", h.SSE.Stream)
}
