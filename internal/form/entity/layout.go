package entity

import (
	"time"

	"gorm.io/datatypes"

	"github.com/sujeethshingade/form-builder-sub000/internal/form/layout"
	"github.com/sujeethshingade/form-builder-sub000/internal/form/schema"
)

// Layout 已保存布局（模板）
type Layout struct {
	ID           string                               `json:"_id" gorm:"primaryKey;size:32"`
	LayoutName   string                               `json:"layoutName" gorm:"size:255;not null"`
	LayoutType   layout.Type                          `json:"layoutType" gorm:"size:32;not null;index"`
	Category     string                               `json:"category,omitempty" gorm:"size:128;index"`
	Fields       datatypes.JSONType[schema.FieldList] `json:"fields"`
	LayoutConfig datatypes.JSON                       `json:"layoutConfig"`
	CreatedAt    time.Time                            `json:"createdAt"`
	UpdatedAt    time.Time                            `json:"updatedAt"`
}

func (Layout) TableName() string {
	return "form_layouts"
}

