package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore 本地磁盘存储，未配置 MinIO 时使用
type LocalStore struct {
	root    string
	urlBase string
}

// NewLocalStore 以 root 为根目录，urlBase 为访问前缀（如 /uploads）
func NewLocalStore(root, urlBase string) *LocalStore {
	return &LocalStore{root: root, urlBase: strings.TrimRight(urlBase, "/")}
}

func (s *LocalStore) path(name string) (string, error) {
	clean := filepath.Clean("/" + name)
	if clean == "/" {
		return "", fmt.Errorf("invalid object name %q", name)
	}
	return filepath.Join(s.root, clean), nil
}

// Put 保存对象
func (s *LocalStore) Put(_ context.Context, name string, r io.Reader, _ int64, contentType string) (Object, error) {
	p, err := s.path(name)
	if err != nil {
		return Object{}, err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return Object{}, fmt.Errorf("创建上传目录失败: %w", err)
	}
	dst, err := os.Create(p)
	if err != nil {
		return Object{}, fmt.Errorf("保存文件失败: %w", err)
	}
	n, err := io.Copy(dst, r)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return Object{}, fmt.Errorf("写入文件失败: %w", err)
	}
	return Object{
		Name:        name,
		URL:         s.urlBase + "/" + strings.TrimPrefix(filepath.ToSlash(name), "/"),
		Size:        n,
		ContentType: contentType,
	}, nil
}

// Get 读取对象
func (s *LocalStore) Get(_ context.Context, name string) (io.ReadCloser, error) {
	p, err := s.path(name)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrObjectNotFound
	}
	return f, err
}

// Remove 删除对象
func (s *LocalStore) Remove(_ context.Context, name string) error {
	p, err := s.path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
