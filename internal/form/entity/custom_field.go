package entity

import (
	"gorm.io/datatypes"

	"github.com/sujeethshingade/form-builder-sub000/internal/form/schema"
)

// LOVType 值列表来源
type LOVType string

const (
	LOVUserDefined LOVType = "user-defined"
	LOVDynamicAPI  LOVType = "dynamic-api"
)

// CustomField 可复用的自定义字段定义
type CustomField struct {
	ID           string                                   `json:"_id" gorm:"primaryKey;size:32"`
	FieldName    string                                   `json:"fieldName" gorm:"size:128;not null"`
	FieldLabel   string                                   `json:"fieldLabel" gorm:"size:255"`
	DataType     schema.FieldType                         `json:"dataType" gorm:"size:32;not null"`
	Category     string                                   `json:"category" gorm:"size:128;index"`
	LOVEnabled   bool                                     `json:"lovEnabled" gorm:"not null;default:false"`
	LOVType      LOVType                                  `json:"lovType,omitempty" gorm:"size:32"`
	LOVItems     datatypes.JSONType[[]schema.LOVItem]     `json:"lovItems,omitempty"`
	APIConfig    datatypes.JSONMap                        `json:"apiConfig,omitempty"`
	TableColumns datatypes.JSONType[[]schema.TableColumn] `json:"tableColumns,omitempty"`
}

func (CustomField) TableName() string {
	return "custom_fields"
}
