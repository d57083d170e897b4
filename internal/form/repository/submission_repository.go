package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/sujeethshingade/form-builder-sub000/internal/form/entity"
)

// SubmissionRepository 提交记录仓库
type SubmissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository 创建提交记录仓库
func NewSubmissionRepository(db *gorm.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

// SubmissionFilter 提交记录筛选
type SubmissionFilter struct {
	Collection string
	FormID     string
	Limit      int
}

// Create 写入提交记录
func (r *SubmissionRepository) Create(ctx context.Context, s *entity.Submission) error {
	return r.db.WithContext(ctx).Create(s).Error
}

// List 提交记录，按提交时间倒序
func (r *SubmissionRepository) List(ctx context.Context, filter SubmissionFilter) ([]entity.Submission, error) {
	var items []entity.Submission
	query := r.db.WithContext(ctx).Model(&entity.Submission{})
	if filter.Collection != "" {
		query = query.Where("collection_name = ?", filter.Collection)
	}
	if filter.FormID != "" {
		query = query.Where("form_id = ?", filter.FormID)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	err := query.Order("submitted_at DESC").Find(&items).Error
	return items, err
}

// Count 集合内提交数量
func (r *SubmissionRepository) Count(ctx context.Context, collection string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&entity.Submission{}).
		Where("collection_name = ?", collection).
		Count(&n).Error
	return n, err
}
