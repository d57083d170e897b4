package repository

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// 错误定义
var (
	ErrNotFound = errors.New("record not found")
)

// Repositories 仓库集合
type Repositories struct {
	Form        *FormRepository
	Layout      *LayoutRepository
	CustomField *CustomFieldRepository
	Collection  *CollectionRepository
	Submission  *SubmissionRepository
}

// NewRepositories 创建仓库集合
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Form:        NewFormRepository(db),
		Layout:      NewLayoutRepository(db),
		CustomField: NewCustomFieldRepository(db),
		Collection:  NewCollectionRepository(db),
		Submission:  NewSubmissionRepository(db),
	}
}

// likePattern 大小写不敏感的模糊匹配参数
func likePattern(s string) string {
	return "%" + strings.ToLower(strings.TrimSpace(s)) + "%"
}

// notFound gorm.ErrRecordNotFound 转为 ErrNotFound
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// distinctCategories 非空分类去重并排序
func distinctCategories(db *gorm.DB, model any) ([]string, error) {
	var categories []string
	err := db.Model(model).
		Where("category IS NOT NULL AND category <> ''").
		Distinct().
		Order("category ASC").
		Pluck("category", &categories).Error
	if categories == nil {
		categories = []string{}
	}
	return categories, err
}
