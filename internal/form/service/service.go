package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sujeethshingade/form-builder-sub000/internal/form/render"
	"github.com/sujeethshingade/form-builder-sub000/internal/form/repository"
	"github.com/sujeethshingade/form-builder-sub000/internal/form/validation"
	"github.com/sujeethshingade/form-builder-sub000/internal/shared/cache"
	"github.com/sujeethshingade/form-builder-sub000/internal/shared/storage"
)

// ErrValidation 写入前的业务校验失败，不会发生任何写入
var ErrValidation = errors.New("validation failed")

// ValidationError 校验失败详情，Message 原样返回给调用方
type ValidationError struct {
	Message string
	Report  *validation.Report
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return ErrValidation }

func invalid(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// Publisher 文档变更通知
type Publisher interface {
	Publish(kind, id, action string)
}

type noopPublisher struct{}

func (noopPublisher) Publish(string, string, string) {}

// 变更事件
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// newID 32位无连字符的 uuid
func newID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}

// Deps 服务依赖，零值字段使用默认实现
type Deps struct {
	Logger   *zap.Logger
	Cache    cache.Cache
	Store    storage.ObjectStore
	Events   Publisher
	Engine   *validation.Engine
	Renderer *render.Renderer

	MaxUploadBytes int64
}

func (d *Deps) defaults() error {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Cache == nil {
		d.Cache = cache.Noop{}
	}
	if d.Events == nil {
		d.Events = noopPublisher{}
	}
	if d.Engine == nil {
		d.Engine = validation.NewEngine(d.Logger)
	}
	if d.Renderer == nil {
		r, err := render.New()
		if err != nil {
			return err
		}
		d.Renderer = r
	}
	return nil
}

// Services 服务集合
type Services struct {
	Form        *FormService
	Layout      *LayoutService
	CustomField *CustomFieldService
	Collection  *CollectionService
	Submission  *SubmissionService
	Upload      *UploadService
}

// NewServices 创建服务集合
func NewServices(repos *repository.Repositories, deps Deps) (*Services, error) {
	if err := deps.defaults(); err != nil {
		return nil, err
	}

	collectionSvc := NewCollectionService(repos.Collection, deps)
	formSvc := NewFormService(repos.Form, collectionSvc, deps)

	return &Services{
		Form:        formSvc,
		Layout:      NewLayoutService(repos.Layout, deps),
		CustomField: NewCustomFieldService(repos.CustomField, deps),
		Collection:  collectionSvc,
		Submission:  NewSubmissionService(repos.Submission, formSvc, collectionSvc, deps),
		Upload:      NewUploadService(deps),
	}, nil
}

// cached 读缓存，未命中时加载并回填；缓存故障只记录日志
func cached[T any](ctx context.Context, d Deps, key string, load func() (T, error)) (T, error) {
	var v T
	hit, err := d.Cache.Get(ctx, key, &v)
	if err != nil {
		d.Logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
	}
	if hit {
		return v, nil
	}
	v, err = load()
	if err != nil {
		return v, err
	}
	if err := d.Cache.Set(ctx, key, v); err != nil {
		d.Logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
	return v, nil
}

// evict 删除缓存 key，失败只记录日志
func evict(ctx context.Context, d Deps, keys ...string) {
	if err := d.Cache.Delete(ctx, keys...); err != nil {
		d.Logger.Warn("cache evict failed", zap.Strings("keys", keys), zap.Error(err))
	}
}
