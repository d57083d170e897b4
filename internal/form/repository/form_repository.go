package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sujeethshingade/form-builder-sub000/internal/form/entity"
)

// FormRepository 表单仓库
type FormRepository struct {
	db *gorm.DB
}

// NewFormRepository 创建表单仓库
func NewFormRepository(db *gorm.DB) *FormRepository {
	return &FormRepository{db: db}
}

// FormFilter 表单列表筛选
type FormFilter struct {
	Search     string
	Collection string
}

// List 表单列表，按更新时间倒序
func (r *FormRepository) List(ctx context.Context, filter FormFilter) ([]entity.Form, error) {
	var forms []entity.Form
	query := r.db.WithContext(ctx).Model(&entity.Form{})
	if filter.Search != "" {
		p := likePattern(filter.Search)
		query = query.Where("LOWER(form_name) LIKE ? OR LOWER(collection_name) LIKE ?", p, p)
	}
	if filter.Collection != "" {
		query = query.Where("collection_name = ?", filter.Collection)
	}
	err := query.Order("updated_at DESC").Find(&forms).Error
	return forms, err
}

// FindByID 根据ID查找
func (r *FormRepository) FindByID(ctx context.Context, id string) (*entity.Form, error) {
	var form entity.Form
	if err := r.db.WithContext(ctx).First(&form, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &form, nil
}

// Create 创建表单
func (r *FormRepository) Create(ctx context.Context, form *entity.Form) error {
	return r.db.WithContext(ctx).Create(form).Error
}

// Save 整体覆盖保存，后写入者覆盖
func (r *FormRepository) Save(ctx context.Context, form *entity.Form) error {
	return r.db.WithContext(ctx).Save(form).Error
}

// Delete 删除表单
func (r *FormRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&entity.Form{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpsertSchema 将表单结构镜像到目标集合
func (r *FormRepository) UpsertSchema(ctx context.Context, mirror *entity.CollectionSchema) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "collection_name"}},
		DoUpdates: clause.AssignmentColumns([]string{"form_id", "form_name", "form_json", "updated_at"}),
	}).Create(mirror).Error
}

// FindSchema 查找集合的表单结构镜像
func (r *FormRepository) FindSchema(ctx context.Context, collection string) (*entity.CollectionSchema, error) {
	var mirror entity.CollectionSchema
	if err := r.db.WithContext(ctx).First(&mirror, "collection_name = ?", collection).Error; err != nil {
		return nil, notFound(err)
	}
	return &mirror, nil
}
