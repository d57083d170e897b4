package handler

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sujeethshingade/form-builder-sub000/internal/form/entity"
	"github.com/sujeethshingade/form-builder-sub000/internal/form/service"
	"github.com/sujeethshingade/form-builder-sub000/internal/shared/storage"
)

// UploadHandler 文件上传处理器
type UploadHandler struct {
	svc *service.UploadService
}

// NewUploadHandler 创建文件上传处理器
func NewUploadHandler(svc *service.UploadService) *UploadHandler {
	return &UploadHandler{svc: svc}
}

// Upload 处理文件字段上传，返回可写入提交记录的文件引用
// POST /api/uploads
func (h *UploadHandler) Upload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		BadRequest(c, "Failed to parse upload: "+err.Error())
		return
	}

	files := form.File["files"]
	if len(files) == 0 {
		// 也尝试获取单文件
		files = form.File["file"]
	}
	if len(files) == 0 {
		BadRequest(c, "No files uploaded")
		return
	}
	fieldID := c.PostForm("fieldId")

	uploaded := make([]*entity.FileRef, 0, len(files))
	for _, fileHeader := range files {
		src, err := fileHeader.Open()
		if err != nil {
			InternalError(c, "Failed to read upload: "+err.Error())
			return
		}
		ref, err := h.svc.Upload(c.Request.Context(), service.UploadInput{
			FieldID:     fieldID,
			Filename:    fileHeader.Filename,
			Size:        fileHeader.Size,
			ContentType: fileHeader.Header.Get("Content-Type"),
			Reader:      src,
		})
		src.Close()
		if err != nil {
			fail(c, err, "File", "upload file")
			return
		}
		uploaded = append(uploaded, ref)
	}

	Success(c, uploaded)
}

// Download 读取已上传文件
// GET /api/uploads/*object
func (h *UploadHandler) Download(c *gin.Context) {
	name := strings.TrimPrefix(c.Param("object"), "/")
	rc, err := h.svc.Open(c.Request.Context(), name)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			NotFound(c, "File not found")
			return
		}
		fail(c, err, "File", "read file")
		return
	}
	defer rc.Close()

	contentType := mime.TypeByExtension(path.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Type", contentType)
	c.Status(http.StatusOK)
	io.Copy(c.Writer, rc)
}
