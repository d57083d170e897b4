package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/sujeethshingade/form-builder-sub000/internal/form/entity"
	"github.com/sujeethshingade/form-builder-sub000/internal/form/render"
	"github.com/sujeethshingade/form-builder-sub000/internal/form/repository"
	"github.com/sujeethshingade/form-builder-sub000/internal/form/schema"
	"github.com/sujeethshingade/form-builder-sub000/internal/form/validation"
)

// FormService 表单服务
type FormService struct {
	repo        *repository.FormRepository
	collections *CollectionService
	deps        Deps
}

// NewFormService 创建表单服务
func NewFormService(repo *repository.FormRepository, collections *CollectionService, deps Deps) *FormService {
	return &FormService{repo: repo, collections: collections, deps: deps}
}

// Renderer 表单渲染器
func (s *FormService) Renderer() *render.Renderer { return s.deps.Renderer }

func formKey(id string) string { return "form:" + id }

// CreateFormRequest 创建表单请求
type CreateFormRequest struct {
	FormName       string           `json:"formName"`
	CollectionName string           `json:"collectionName"`
	FormJSON       *schema.FormJSON `json:"formJson"`
}

// UpdateFormRequest 更新表单请求，nil 字段保持不变
type UpdateFormRequest struct {
	FormName       *string          `json:"formName"`
	CollectionName *string          `json:"collectionName"`
	FormJSON       *schema.FormJSON `json:"formJson"`
}

// List 表单列表
func (s *FormService) List(ctx context.Context, filter repository.FormFilter) ([]entity.Form, error) {
	forms, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list forms: %w", err)
	}
	if forms == nil {
		forms = []entity.Form{}
	}
	return forms, nil
}

// Get 获取表单
func (s *FormService) Get(ctx context.Context, id string) (*entity.Form, error) {
	return cached(ctx, s.deps, formKey(id), func() (*entity.Form, error) {
		form, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("find form: %w", err)
		}
		return form, nil
	})
}

// normalizeFormJSON 补齐空字段列表与默认样式并校验字段
func normalizeFormJSON(doc *schema.FormJSON) (schema.FormJSON, error) {
	out := schema.FormJSON{Fields: schema.FieldList{}, Styles: schema.DefaultStyles()}
	if doc == nil {
		return out, nil
	}
	if doc.Fields != nil {
		out.Fields = doc.Fields
	}
	if doc.Styles != (schema.FormStyles{}) {
		out.Styles = doc.Styles
	}
	if err := out.Fields.Validate(); err != nil {
		return out, invalid("Invalid form fields: %v", err)
	}
	return out, nil
}

// Create 创建表单，目标集合不存在时一并创建
func (s *FormService) Create(ctx context.Context, req *CreateFormRequest) (*entity.Form, error) {
	name := strings.TrimSpace(req.FormName)
	collection := strings.TrimSpace(req.CollectionName)
	if name == "" {
		return nil, invalid("Form name is required")
	}
	if collection == "" {
		return nil, invalid("Collection name is required")
	}
	doc, err := normalizeFormJSON(req.FormJSON)
	if err != nil {
		return nil, err
	}
	if _, err := s.collections.Ensure(ctx, collection); err != nil {
		return nil, err
	}

	form := &entity.Form{
		ID:             newID(),
		CollectionName: collection,
		FormName:       name,
		FormJSON:       datatypes.NewJSONType(doc),
	}
	if err := s.repo.Create(ctx, form); err != nil {
		return nil, fmt.Errorf("create form: %w", err)
	}
	s.mirror(ctx, form)
	s.deps.Events.Publish("form", form.ID, ActionCreated)
	return form, nil
}

// Update 部分更新，后写入者覆盖
func (s *FormService) Update(ctx context.Context, id string, req *UpdateFormRequest) (*entity.Form, error) {
	form, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find form: %w", err)
	}

	if req.FormName != nil {
		name := strings.TrimSpace(*req.FormName)
		if name == "" {
			return nil, invalid("Form name is required")
		}
		form.FormName = name
	}
	if req.CollectionName != nil {
		collection := strings.TrimSpace(*req.CollectionName)
		if collection == "" {
			return nil, invalid("Collection name is required")
		}
		if collection != form.CollectionName {
			if _, err := s.collections.Ensure(ctx, collection); err != nil {
				return nil, err
			}
		}
		form.CollectionName = collection
	}
	if req.FormJSON != nil {
		doc, err := normalizeFormJSON(req.FormJSON)
		if err != nil {
			return nil, err
		}
		form.FormJSON = datatypes.NewJSONType(doc)
	}

	if err := s.repo.Save(ctx, form); err != nil {
		return nil, fmt.Errorf("update form: %w", err)
	}
	evict(ctx, s.deps, formKey(id))
	s.mirror(ctx, form)
	s.deps.Events.Publish("form", form.ID, ActionUpdated)
	return form, nil
}

// mirror 将表单结构写入目标集合，失败不影响保存结果
func (s *FormService) mirror(ctx context.Context, form *entity.Form) {
	err := s.repo.UpsertSchema(ctx, &entity.CollectionSchema{
		CollectionName: form.CollectionName,
		FormID:         form.ID,
		FormName:       form.FormName,
		FormJSON:       form.FormJSON,
	})
	if err != nil {
		s.deps.Logger.Warn("mirror form schema failed",
			zap.String("form_id", form.ID),
			zap.String("collection", form.CollectionName),
			zap.Error(err))
	}
}

// Delete 删除表单
func (s *FormService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete form: %w", err)
	}
	evict(ctx, s.deps, formKey(id))
	s.deps.Events.Publish("form", id, ActionDeleted)
	return nil
}

// Schema 集合的表单结构镜像
func (s *FormService) Schema(ctx context.Context, collection string) (*entity.CollectionSchema, error) {
	mirror, err := s.repo.FindSchema(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("find collection schema: %w", err)
	}
	return mirror, nil
}

// ValidateRequest 校验请求，FieldID 非空时只校验该字段（失焦校验）
type ValidateRequest struct {
	Values  map[string]any `json:"values"`
	FieldID string         `json:"fieldId"`
}

// Validate 按表单定义校验值
func (s *FormService) Validate(ctx context.Context, id string, req *ValidateRequest) (validation.Report, error) {
	form, err := s.Get(ctx, id)
	if err != nil {
		return validation.Report{}, err
	}
	fields := form.Fields()
	if req.FieldID == "" {
		return s.deps.Engine.ValidateForm(fields, req.Values), nil
	}

	f, ok := fields.Find(req.FieldID)
	if !ok {
		return validation.Report{}, invalid("Field not found: %s", req.FieldID)
	}
	report := validation.Report{Errors: []validation.FieldError{}}
	if msg := s.deps.Engine.ValidateField(f, validation.ValueOf(f, req.Values), req.Values); msg != "" {
		report.Errors = append(report.Errors, validation.FieldError{
			FieldID: f.Common().ID,
			Label:   f.Common().Label,
			Message: msg,
		})
	}
	return report, nil
}

// ChangeRequest 值变化请求
type ChangeRequest struct {
	FieldID string         `json:"fieldId"`
	Value   any            `json:"value"`
	Values  map[string]any `json:"values"`
}

// ChangeResult onChange 脚本执行结果
type ChangeResult struct {
	FieldID string `json:"fieldId"`
	Value   any    `json:"value"`
}

// Change 执行字段的 onChange 脚本并返回变换后的值
func (s *FormService) Change(ctx context.Context, id string, req *ChangeRequest) (*ChangeResult, error) {
	if req.FieldID == "" {
		return nil, invalid("fieldId is required")
	}
	form, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	f, ok := form.Fields().Find(req.FieldID)
	if !ok {
		return nil, invalid("Field not found: %s", req.FieldID)
	}
	value := s.deps.Engine.ApplyChange(f, req.Value, req.Values)
	return &ChangeResult{FieldID: req.FieldID, Value: value}, nil
}

// RenderOptions 预览时绑定的值与错误
type RenderOptions struct {
	Values map[string]any
	Errors map[string]string
	Action string
}

// Render 渲染表单
func (s *FormService) Render(ctx context.Context, id string, mode render.Mode, opts RenderOptions) (render.Output, error) {
	form, err := s.Get(ctx, id)
	if err != nil {
		return render.Output{}, err
	}
	doc := form.FormJSON.Data()
	out, err := s.deps.Renderer.Render(mode, render.Document{
		Title:  form.FormName,
		Fields: doc.Fields,
		Styles: doc.Styles,
		Values: opts.Values,
		Errors: opts.Errors,
		Action: opts.Action,
	})
	if err != nil {
		return render.Output{}, fmt.Errorf("render form: %w", err)
	}
	return out, nil
}

// IsNotFound 是否为记录不存在
func IsNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}
