package entity

import (
	"time"

	"gorm.io/datatypes"

	"github.com/sujeethshingade/form-builder-sub000/internal/form/schema"
)

// Form 表单文档
type Form struct {
	ID             string                              `json:"_id" gorm:"primaryKey;size:32"`
	CollectionName string                              `json:"collectionName" gorm:"size:128;not null;index"`
	FormName       string                              `json:"formName" gorm:"size:255;not null"`
	FormJSON       datatypes.JSONType[schema.FormJSON] `json:"formJson"`
	CreatedAt      time.Time                           `json:"createdAt"`
	UpdatedAt      time.Time                           `json:"updatedAt"`
}

func (Form) TableName() string {
	return "forms"
}

// Fields 表单字段
func (f *Form) Fields() schema.FieldList {
	return f.FormJSON.Data().Fields
}

// Collection 数据集合，提交记录按集合归档
type Collection struct {
	ID          string    `json:"_id" gorm:"primaryKey;size:32"`
	Name        string    `json:"name" gorm:"size:128;not null;uniqueIndex"`
	Description string    `json:"description" gorm:"type:text"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (Collection) TableName() string {
	return "collections"
}

// CollectionSchema 集合内的表单结构镜像，每个集合一条，保存时覆盖
type CollectionSchema struct {
	CollectionName string                              `json:"collectionName" gorm:"primaryKey;size:128"`
	FormID         string                              `json:"formId" gorm:"size:32;not null"`
	FormName       string                              `json:"formName" gorm:"size:255"`
	FormJSON       datatypes.JSONType[schema.FormJSON] `json:"formJson"`
	UpdatedAt      time.Time                           `json:"updatedAt"`
}

func (CollectionSchema) TableName() string {
	return "collection_schemas"
}
