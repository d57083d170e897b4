package service

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/datatypes"

	"github.com/sujeethshingade/form-builder-sub000/internal/form/builder"
	"github.com/sujeethshingade/form-builder-sub000/internal/form/entity"
	"github.com/sujeethshingade/form-builder-sub000/internal/form/repository"
	"github.com/sujeethshingade/form-builder-sub000/internal/form/schema"
)

const customFieldCategoriesKey = "custom-field:categories"

// CustomFieldService 自定义字段服务
type CustomFieldService struct {
	repo *repository.CustomFieldRepository
	deps Deps
}

// NewCustomFieldService 创建自定义字段服务
func NewCustomFieldService(repo *repository.CustomFieldRepository, deps Deps) *CustomFieldService {
	return &CustomFieldService{repo: repo, deps: deps}
}

// CustomFieldRequest 创建/更新自定义字段请求
type CustomFieldRequest struct {
	FieldName    string               `json:"fieldName"`
	FieldLabel   string               `json:"fieldLabel"`
	DataType     schema.FieldType     `json:"dataType"`
	Category     string               `json:"category"`
	LOVEnabled   bool                 `json:"lovEnabled"`
	LOVType      entity.LOVType       `json:"lovType"`
	LOVItems     []schema.LOVItem     `json:"lovItems"`
	APIConfig    map[string]any       `json:"apiConfig"`
	TableColumns []schema.TableColumn `json:"tableColumns"`
}

func (req *CustomFieldRequest) check() error {
	if strings.TrimSpace(req.FieldName) == "" {
		return invalid("Field name is required")
	}
	if !req.DataType.Known() || req.DataType.IsLayout() {
		return invalid("Invalid data type: %s", req.DataType)
	}
	switch req.LOVType {
	case "", entity.LOVUserDefined, entity.LOVDynamicAPI:
	default:
		return invalid("Invalid LOV type: %s", req.LOVType)
	}
	if req.LOVEnabled && req.LOVType == entity.LOVDynamicAPI && len(req.APIConfig) == 0 {
		return invalid("apiConfig is required for dynamic-api LOV")
	}
	for i, it := range req.LOVItems {
		if strings.TrimSpace(it.Code) == "" {
			return invalid("lovItems[%d]: code is required", i)
		}
		if it.Status != schema.LOVActive && it.Status != schema.LOVInactive {
			return invalid("lovItems[%d]: invalid status %s", i, it.Status)
		}
	}
	return nil
}

func (req *CustomFieldRequest) apply(f *entity.CustomField) {
	f.FieldName = strings.TrimSpace(req.FieldName)
	f.FieldLabel = strings.TrimSpace(req.FieldLabel)
	f.DataType = req.DataType
	f.Category = strings.TrimSpace(req.Category)
	f.LOVEnabled = req.LOVEnabled
	f.LOVType = req.LOVType
	if f.LOVEnabled && f.LOVType == "" {
		f.LOVType = entity.LOVUserDefined
	}
	f.LOVItems = datatypes.NewJSONType(req.LOVItems)
	f.APIConfig = datatypes.JSONMap(req.APIConfig)
	if f.APIConfig == nil {
		f.APIConfig = datatypes.JSONMap{}
	}
	f.TableColumns = datatypes.NewJSONType(req.TableColumns)
}

// List 自定义字段列表
func (s *CustomFieldService) List(ctx context.Context, filter repository.CustomFieldFilter) ([]entity.CustomField, error) {
	items, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list custom fields: %w", err)
	}
	if items == nil {
		items = []entity.CustomField{}
	}
	return items, nil
}

// Get 获取自定义字段
func (s *CustomFieldService) Get(ctx context.Context, id string) (*entity.CustomField, error) {
	f, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find custom field: %w", err)
	}
	return f, nil
}

// Create 创建自定义字段
func (s *CustomFieldService) Create(ctx context.Context, req *CustomFieldRequest) (*entity.CustomField, error) {
	if err := req.check(); err != nil {
		return nil, err
	}
	f := &entity.CustomField{ID: newID()}
	req.apply(f)
	if err := s.repo.Create(ctx, f); err != nil {
		return nil, fmt.Errorf("create custom field: %w", err)
	}
	evict(ctx, s.deps, customFieldCategoriesKey)
	s.deps.Events.Publish("custom-field", f.ID, ActionCreated)
	return f, nil
}

// Update 整体替换自定义字段，已插入表单的字段保留插入时的选项快照
func (s *CustomFieldService) Update(ctx context.Context, id string, req *CustomFieldRequest) (*entity.CustomField, error) {
	f, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := req.check(); err != nil {
		return nil, err
	}
	req.apply(f)
	if err := s.repo.Save(ctx, f); err != nil {
		return nil, fmt.Errorf("update custom field: %w", err)
	}
	evict(ctx, s.deps, customFieldCategoriesKey)
	s.deps.Events.Publish("custom-field", f.ID, ActionUpdated)
	return f, nil
}

// Delete 删除自定义字段
func (s *CustomFieldService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete custom field: %w", err)
	}
	evict(ctx, s.deps, customFieldCategoriesKey)
	s.deps.Events.Publish("custom-field", id, ActionDeleted)
	return nil
}

// Categories 自定义字段分类
func (s *CustomFieldService) Categories(ctx context.Context) ([]string, error) {
	return cached(ctx, s.deps, customFieldCategoriesKey, func() ([]string, error) {
		categories, err := s.repo.Categories(ctx)
		if err != nil {
			return nil, fmt.Errorf("list custom field categories: %w", err)
		}
		return categories, nil
	})
}

// Source 拖入画布时的字段来源
func (s *CustomFieldService) Source(ctx context.Context, id string) (builder.CustomFieldSource, error) {
	f, err := s.Get(ctx, id)
	if err != nil {
		return builder.CustomFieldSource{}, err
	}
	return ToSource(f), nil
}

// ToSource 实体转为编辑器使用的来源快照
func ToSource(f *entity.CustomField) builder.CustomFieldSource {
	return builder.CustomFieldSource{
		ID:           f.ID,
		FieldName:    f.FieldName,
		FieldLabel:   f.FieldLabel,
		DataType:     f.DataType,
		LOVEnabled:   f.LOVEnabled,
		LOVItems:     f.LOVItems.Data(),
		TableColumns: f.TableColumns.Data(),
	}
}
