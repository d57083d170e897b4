package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/sujeethshingade/form-builder-sub000/internal/form/entity"
	"github.com/sujeethshingade/form-builder-sub000/internal/shared/storage"
)

// ErrStorageDisabled 未配置对象存储
var ErrStorageDisabled = errors.New("storage not configured")

// UploadService 文件字段上传
type UploadService struct {
	store    storage.ObjectStore
	maxBytes int64
	logger   *zap.Logger
}

// NewUploadService 创建上传服务
func NewUploadService(deps Deps) *UploadService {
	return &UploadService{store: deps.Store, maxBytes: deps.MaxUploadBytes, logger: deps.Logger}
}

// UploadInput 单个上传文件
type UploadInput struct {
	FieldID     string
	Filename    string
	Size        int64
	ContentType string
	Reader      io.Reader
}

// Upload 保存文件并返回可写入提交记录的引用
func (s *UploadService) Upload(ctx context.Context, in UploadInput) (*entity.FileRef, error) {
	if s.store == nil {
		return nil, ErrStorageDisabled
	}
	if in.Filename == "" {
		return nil, invalid("Filename is required")
	}
	if s.maxBytes > 0 && in.Size > s.maxBytes {
		return nil, invalid("File %s exceeds the %d MB limit", in.Filename, s.maxBytes>>20)
	}
	contentType := in.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	obj, err := s.store.Put(ctx, storage.ObjectName(time.Now(), in.Filename), in.Reader, in.Size, contentType)
	if err != nil {
		return nil, fmt.Errorf("upload file: %w", err)
	}
	s.logger.Debug("file uploaded", zap.String("object", obj.Name), zap.Int64("size", obj.Size))
	return &entity.FileRef{
		FieldID:     in.FieldID,
		ObjectName:  obj.Name,
		URL:         obj.URL,
		Filename:    in.Filename,
		Size:        obj.Size,
		ContentType: contentType,
	}, nil
}

// Open 读取已上传文件
func (s *UploadService) Open(ctx context.Context, objectName string) (io.ReadCloser, error) {
	if s.store == nil {
		return nil, ErrStorageDisabled
	}
	return s.store.Get(ctx, objectName)
}
