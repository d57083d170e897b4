package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/sujeethshingade/form-builder-sub000/internal/form/entity"
)

// CustomFieldRepository 自定义字段仓库
type CustomFieldRepository struct {
	db *gorm.DB
}

// NewCustomFieldRepository 创建自定义字段仓库
func NewCustomFieldRepository(db *gorm.DB) *CustomFieldRepository {
	return &CustomFieldRepository{db: db}
}

// CustomFieldFilter 自定义字段筛选
type CustomFieldFilter struct {
	Category string
	Search   string
}

// List 自定义字段列表，按名称排序
func (r *CustomFieldRepository) List(ctx context.Context, filter CustomFieldFilter) ([]entity.CustomField, error) {
	var fields []entity.CustomField
	query := r.db.WithContext(ctx).Model(&entity.CustomField{})
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.Search != "" {
		p := likePattern(filter.Search)
		query = query.Where("LOWER(field_name) LIKE ? OR LOWER(field_label) LIKE ?", p, p)
	}
	err := query.Order("field_name ASC").Find(&fields).Error
	return fields, err
}

// FindByID 根据ID查找
func (r *CustomFieldRepository) FindByID(ctx context.Context, id string) (*entity.CustomField, error) {
	var f entity.CustomField
	if err := r.db.WithContext(ctx).First(&f, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &f, nil
}

// Create 创建
func (r *CustomFieldRepository) Create(ctx context.Context, f *entity.CustomField) error {
	return r.db.WithContext(ctx).Create(f).Error
}

// Save 保存
func (r *CustomFieldRepository) Save(ctx context.Context, f *entity.CustomField) error {
	return r.db.WithContext(ctx).Save(f).Error
}

// Delete 删除
func (r *CustomFieldRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&entity.CustomField{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Categories 自定义字段分类
func (r *CustomFieldRepository) Categories(ctx context.Context) ([]string, error) {
	return distinctCategories(r.db.WithContext(ctx), &entity.CustomField{})
}
