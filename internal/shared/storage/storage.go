// Package storage 上传文件的对象存储
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrObjectNotFound 对象不存在
var ErrObjectNotFound = errors.New("object not found")

// Object 已保存的对象
type Object struct {
	Name        string `json:"objectName"`
	URL         string `json:"url"`
	Size        int64  `json:"size"`
	ContentType string `json:"contentType"`
}

// ObjectStore 对象存储
type ObjectStore interface {
	Put(ctx context.Context, name string, r io.Reader, size int64, contentType string) (Object, error)
	Get(ctx context.Context, name string) (io.ReadCloser, error)
	Remove(ctx context.Context, name string) error
}

// ObjectName 生成存储路径：2006/01/<id>_<文件名>
func ObjectName(now time.Time, filename string) string {
	base := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	if base == "." || base == "/" || base == "" {
		base = "file"
	}
	id := strings.ReplaceAll(uuid.New().String(), "-", "")[:12]
	return fmt.Sprintf("%d/%02d/%s_%s", now.Year(), now.Month(), id, base)
}
