package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/sujeethshingade/form-builder-sub000/internal/form/entity"
	"github.com/sujeethshingade/form-builder-sub000/internal/form/layout"
	"github.com/sujeethshingade/form-builder-sub000/internal/form/repository"
	"github.com/sujeethshingade/form-builder-sub000/internal/form/schema"
)

const layoutCategoriesKey = "layout:categories"

// LayoutService 布局服务
type LayoutService struct {
	repo *repository.LayoutRepository
	deps Deps
}

// NewLayoutService 创建布局服务
func NewLayoutService(repo *repository.LayoutRepository, deps Deps) *LayoutService {
	return &LayoutService{repo: repo, deps: deps}
}

// LayoutRequest 创建/更新布局请求
type LayoutRequest struct {
	LayoutName   string           `json:"layoutName"`
	LayoutType   layout.Type      `json:"layoutType"`
	Category     string           `json:"category"`
	Fields       schema.FieldList `json:"fields"`
	LayoutConfig json.RawMessage  `json:"layoutConfig"`
}

func (req *LayoutRequest) check() error {
	if strings.TrimSpace(req.LayoutName) == "" {
		return invalid("Layout name is required")
	}
	if !req.LayoutType.Valid() {
		return invalid("Invalid layout type: %s", req.LayoutType)
	}
	if err := req.Fields.Validate(); err != nil {
		return invalid("Invalid layout fields: %v", err)
	}
	if err := layout.ValidateConfig(req.LayoutType, req.LayoutConfig); err != nil {
		return invalid("%v", err)
	}
	return nil
}

func (req *LayoutRequest) apply(l *entity.Layout) {
	fields := req.Fields
	if fields == nil {
		fields = schema.FieldList{}
	}
	l.LayoutName = strings.TrimSpace(req.LayoutName)
	l.LayoutType = req.LayoutType
	l.Category = strings.TrimSpace(req.Category)
	l.Fields = datatypes.NewJSONType(fields)
	l.LayoutConfig = datatypes.JSON(req.LayoutConfig)
	if len(l.LayoutConfig) == 0 {
		l.LayoutConfig = datatypes.JSON("{}")
	}
}

// List 布局列表
func (s *LayoutService) List(ctx context.Context, filter repository.LayoutFilter) ([]entity.Layout, error) {
	items, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list layouts: %w", err)
	}
	if items == nil {
		items = []entity.Layout{}
	}
	return items, nil
}

// Get 获取布局
func (s *LayoutService) Get(ctx context.Context, id string) (*entity.Layout, error) {
	l, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find layout: %w", err)
	}
	return l, nil
}

// Create 创建布局
func (s *LayoutService) Create(ctx context.Context, req *LayoutRequest) (*entity.Layout, error) {
	if err := req.check(); err != nil {
		return nil, err
	}
	l := &entity.Layout{ID: newID()}
	req.apply(l)
	if err := s.repo.Create(ctx, l); err != nil {
		return nil, fmt.Errorf("create layout: %w", err)
	}
	evict(ctx, s.deps, layoutCategoriesKey)
	s.deps.Events.Publish("layout", l.ID, ActionCreated)
	return l, nil
}

// Update 整体替换布局
func (s *LayoutService) Update(ctx context.Context, id string, req *LayoutRequest) (*entity.Layout, error) {
	l, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := req.check(); err != nil {
		return nil, err
	}
	req.apply(l)
	if err := s.repo.Save(ctx, l); err != nil {
		return nil, fmt.Errorf("update layout: %w", err)
	}
	evict(ctx, s.deps, layoutCategoriesKey)
	s.deps.Events.Publish("layout", l.ID, ActionUpdated)
	return l, nil
}

// Delete 删除布局
func (s *LayoutService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete layout: %w", err)
	}
	evict(ctx, s.deps, layoutCategoriesKey)
	s.deps.Events.Publish("layout", id, ActionDeleted)
	return nil
}

// Categories 模板分类
func (s *LayoutService) Categories(ctx context.Context) ([]string, error) {
	return cached(ctx, s.deps, layoutCategoriesKey, func() ([]string, error) {
		categories, err := s.repo.Categories(ctx)
		if err != nil {
			return nil, fmt.Errorf("list layout categories: %w", err)
		}
		return categories, nil
	})
}

// AddBox 分框布局追加一个复制自模板框的新框
func (s *LayoutService) AddBox(ctx context.Context, id, title string) (*entity.Layout, layout.Box, error) {
	l, err := s.Get(ctx, id)
	if err != nil {
		return nil, layout.Box{}, err
	}
	if l.LayoutType != layout.TypeBox {
		return nil, layout.Box{}, invalid("Layout %s is not a box layout", id)
	}
	cfg, err := layout.DecodeConfig(l.LayoutType, json.RawMessage(l.LayoutConfig))
	if err != nil {
		return nil, layout.Box{}, invalid("%v", err)
	}
	boxes := cfg.(*layout.BoxConfig)
	box, err := boxes.AddBox(strings.TrimSpace(title))
	if err != nil {
		return nil, layout.Box{}, invalid("%v", err)
	}
	raw, err := layout.EncodeConfig(boxes)
	if err != nil {
		return nil, layout.Box{}, err
	}
	l.LayoutConfig = datatypes.JSON(raw)
	if err := s.repo.Save(ctx, l); err != nil {
		return nil, layout.Box{}, fmt.Errorf("update layout: %w", err)
	}
	s.deps.Events.Publish("layout", l.ID, ActionUpdated)
	return l, box, nil
}

// DropFields 拖入画布时插入的字段，表单组引用的布局就地展开
func (s *LayoutService) DropFields(ctx context.Context, id string) (schema.FieldList, error) {
	l, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	resolve := func(ref string) (layout.Type, schema.FieldList, json.RawMessage, bool, error) {
		nested, err := s.repo.FindByID(ctx, ref)
		if errors.Is(err, repository.ErrNotFound) {
			s.deps.Logger.Warn("referenced layout not found", zap.String("layout_id", id), zap.String("layout_ref", ref))
			return "", nil, nil, false, nil
		}
		if err != nil {
			return "", nil, nil, false, err
		}
		return nested.LayoutType, nested.Fields.Data(), json.RawMessage(nested.LayoutConfig), true, nil
	}
	fields, err := layout.Expand(l.ID, l.LayoutType, l.Fields.Data(), json.RawMessage(l.LayoutConfig), resolve)
	if err != nil {
		if errors.Is(err, layout.ErrInvalidConfig) || errors.Is(err, layout.ErrUnknownType) {
			return nil, invalid("%v", err)
		}
		return nil, fmt.Errorf("expand layout: %w", err)
	}
	return fields, nil
}
