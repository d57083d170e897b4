package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/sujeethshingade/form-builder-sub000/internal/form/entity"
)

// CollectionRepository 集合仓库
type CollectionRepository struct {
	db *gorm.DB
}

// NewCollectionRepository 创建集合仓库
func NewCollectionRepository(db *gorm.DB) *CollectionRepository {
	return &CollectionRepository{db: db}
}

// List 集合列表，按名称排序
func (r *CollectionRepository) List(ctx context.Context) ([]entity.Collection, error) {
	var collections []entity.Collection
	err := r.db.WithContext(ctx).Order("name ASC").Find(&collections).Error
	return collections, err
}

// FindByName 根据名称查找
func (r *CollectionRepository) FindByName(ctx context.Context, name string) (*entity.Collection, error) {
	var c entity.Collection
	if err := r.db.WithContext(ctx).First(&c, "name = ?", name).Error; err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

// Create 创建集合
func (r *CollectionRepository) Create(ctx context.Context, c *entity.Collection) error {
	return r.db.WithContext(ctx).Create(c).Error
}

// Ensure 集合不存在时创建，已存在时原样返回
func (r *CollectionRepository) Ensure(ctx context.Context, c *entity.Collection) (*entity.Collection, error) {
	var out entity.Collection
	err := r.db.WithContext(ctx).
		Where(entity.Collection{Name: c.Name}).
		Attrs(entity.Collection{ID: c.ID, Description: c.Description}).
		FirstOrCreate(&out).Error
	if err != nil {
		return nil, err
	}
	return &out, nil
}
