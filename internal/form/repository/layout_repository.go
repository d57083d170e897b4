package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/sujeethshingade/form-builder-sub000/internal/form/entity"
)

// LayoutRepository 布局仓库
type LayoutRepository struct {
	db *gorm.DB
}

// NewLayoutRepository 创建布局仓库
func NewLayoutRepository(db *gorm.DB) *LayoutRepository {
	return &LayoutRepository{db: db}
}

// LayoutFilter 布局列表筛选
type LayoutFilter struct {
	Type     string
	Category string
	Search   string
}

// List 布局列表
func (r *LayoutRepository) List(ctx context.Context, filter LayoutFilter) ([]entity.Layout, error) {
	var layouts []entity.Layout
	query := r.db.WithContext(ctx).Model(&entity.Layout{})
	if filter.Type != "" {
		query = query.Where("layout_type = ?", filter.Type)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.Search != "" {
		query = query.Where("LOWER(layout_name) LIKE ?", likePattern(filter.Search))
	}
	err := query.Order("updated_at DESC").Find(&layouts).Error
	return layouts, err
}

// FindByID 根据ID查找
func (r *LayoutRepository) FindByID(ctx context.Context, id string) (*entity.Layout, error) {
	var l entity.Layout
	if err := r.db.WithContext(ctx).First(&l, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &l, nil
}

// Create 创建布局
func (r *LayoutRepository) Create(ctx context.Context, l *entity.Layout) error {
	return r.db.WithContext(ctx).Create(l).Error
}

// Save 保存布局
func (r *LayoutRepository) Save(ctx context.Context, l *entity.Layout) error {
	return r.db.WithContext(ctx).Save(l).Error
}

// Delete 删除布局
func (r *LayoutRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&entity.Layout{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Categories 模板分类
func (r *LayoutRepository) Categories(ctx context.Context) ([]string, error) {
	return distinctCategories(r.db.WithContext(ctx), &entity.Layout{})
}
