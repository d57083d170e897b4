// Package schema 表单字段数据模型
//
// Field 是按 type 区分的联合类型：所有字段共享 Base，输入类字段额外携带 InputAttrs，
// 各变体只声明自己有意义的属性。
package schema

import (
	"strings"

	"github.com/google/uuid"
)

// FieldType 字段类型
type FieldType string

const (
	TypeText     FieldType = "text"
	TypeTextarea FieldType = "textarea"
	TypeNumber   FieldType = "number"
	TypeEmail    FieldType = "email"
	TypeURL      FieldType = "url"
	TypeDate     FieldType = "date"
	TypeRadio    FieldType = "radio"
	TypeCheckbox FieldType = "checkbox"
	TypeSelect   FieldType = "select"
	TypeDropdown FieldType = "dropdown"
	TypeFile     FieldType = "file"
	TypeSlider   FieldType = "slider"
	TypeTable    FieldType = "table"
	TypeHeading  FieldType = "heading"
	TypeDivider  FieldType = "divider"
	TypeSpacer   FieldType = "spacer"
)

// AllTypes 所有已知字段类型
var AllTypes = []FieldType{
	TypeText, TypeTextarea, TypeNumber, TypeEmail, TypeURL, TypeDate,
	TypeRadio, TypeCheckbox, TypeSelect, TypeDropdown, TypeFile, TypeSlider,
	TypeTable, TypeHeading, TypeDivider, TypeSpacer,
}

// IsChoice 是否为选项类字段
func (t FieldType) IsChoice() bool {
	switch t {
	case TypeRadio, TypeCheckbox, TypeSelect, TypeDropdown:
		return true
	}
	return false
}

// IsTextLike 是否为文本类字段（支持 minLength/maxLength/pattern）
func (t FieldType) IsTextLike() bool {
	switch t {
	case TypeText, TypeTextarea, TypeEmail, TypeURL:
		return true
	}
	return false
}

// IsLayout 是否为纯布局字段，布局字段不参与校验
func (t FieldType) IsLayout() bool {
	switch t {
	case TypeHeading, TypeDivider, TypeSpacer:
		return true
	}
	return false
}

// Known 是否为已知类型
func (t FieldType) Known() bool {
	_, ok := New(t)
	return ok
}

const (
	MinWidthColumns = 1
	MaxWidthColumns = 12
)

// Base 所有字段共享的属性
type Base struct {
	ID           string    `json:"id"`
	Type         FieldType `json:"type"`
	Name         string    `json:"name,omitempty"`
	Label        string    `json:"label,omitempty"`
	Description  string    `json:"description,omitempty"`
	Info         string    `json:"info,omitempty"`
	WidthColumns int       `json:"widthColumns,omitempty"`
}

// Common 返回共享属性
func (b *Base) Common() *Base { return b }

// Width 返回列宽，未设置时占满一行
func (b *Base) Width() int {
	if b.WidthColumns == 0 {
		return MaxWidthColumns
	}
	return b.WidthColumns
}

// InputAttrs 输入类字段的状态、校验规则与脚本
type InputAttrs struct {
	Placeholder     string           `json:"placeholder,omitempty"`
	Helper          string           `json:"helper,omitempty"`
	Required        bool             `json:"required,omitempty"`
	Disabled        bool             `json:"disabled,omitempty"`
	Readonly        bool             `json:"readonly,omitempty"`
	ValidationRules []ValidationRule `json:"validationRules,omitempty"`
	Scripts         []Script         `json:"scripts,omitempty"`
}

// Input 返回输入属性
func (a *InputAttrs) Input() *InputAttrs { return a }

// Field 表单字段
type Field interface {
	Common() *Base
}

// InputField 可收集值的字段
type InputField interface {
	Field
	Input() *InputAttrs
}

// Option 选项
type Option struct {
	Value    string `json:"value"`
	Label    string `json:"label"`
	Disabled bool   `json:"disabled,omitempty"`
}

// TableColumn 表格列定义
type TableColumn struct {
	ID     string `json:"id"`
	Header string `json:"header"`
	Type   string `json:"type,omitempty"`
	Width  int    `json:"width,omitempty"`
}

// TextField text / textarea / email / url
type TextField struct {
	Base
	InputAttrs
	MinLength *int   `json:"minLength,omitempty"`
	MaxLength *int   `json:"maxLength,omitempty"`
	Pattern   string `json:"pattern,omitempty"`
	Rows      int    `json:"rows,omitempty"`
}

// NumberField number
type NumberField struct {
	Base
	InputAttrs
	Min  *float64 `json:"min,omitempty"`
	Max  *float64 `json:"max,omitempty"`
	Step *float64 `json:"step,omitempty"`
}

// SliderField slider
type SliderField struct {
	Base
	InputAttrs
	Min  *float64 `json:"min,omitempty"`
	Max  *float64 `json:"max,omitempty"`
	Step *float64 `json:"step,omitempty"`
}

// DateField date
type DateField struct {
	Base
	InputAttrs
	MinDate string `json:"minDate,omitempty"`
	MaxDate string `json:"maxDate,omitempty"`
}

// ChoiceField radio / checkbox / select / dropdown
type ChoiceField struct {
	Base
	InputAttrs
	Items         []Option  `json:"items,omitempty"`
	LOVItems      []LOVItem `json:"lovItems,omitempty"`
	Multiple      bool      `json:"multiple,omitempty"`
	CustomFieldID string    `json:"customFieldId,omitempty"`
}

// FileField file
type FileField struct {
	Base
	InputAttrs
	Accept    string `json:"accept,omitempty"`
	MaxSizeMB int    `json:"maxSizeMb,omitempty"`
	Multiple  bool   `json:"multiple,omitempty"`
}

// TableField table
type TableField struct {
	Base
	InputAttrs
	Columns   []TableColumn    `json:"columns,omitempty"`
	TableRows []map[string]any `json:"tableRows,omitempty"`
}

// HeadingField heading
type HeadingField struct {
	Base
	Content string `json:"content,omitempty"`
	Tag     string `json:"tag,omitempty"`
	Align   string `json:"align,omitempty"`
}

// DividerField divider
type DividerField struct {
	Base
	Style     string `json:"style,omitempty"`
	Thickness int    `json:"thickness,omitempty"`
}

// SpacerField spacer
type SpacerField struct {
	Base
	Height int `json:"height,omitempty"`
}

// New 按类型创建空字段
func New(t FieldType) (Field, bool) {
	base := Base{Type: t}
	switch t {
	case TypeText, TypeTextarea, TypeEmail, TypeURL:
		return &TextField{Base: base}, true
	case TypeNumber:
		return &NumberField{Base: base}, true
	case TypeSlider:
		return &SliderField{Base: base}, true
	case TypeDate:
		return &DateField{Base: base}, true
	case TypeRadio, TypeCheckbox, TypeSelect, TypeDropdown:
		return &ChoiceField{Base: base}, true
	case TypeFile:
		return &FileField{Base: base}, true
	case TypeTable:
		return &TableField{Base: base}, true
	case TypeHeading:
		return &HeadingField{Base: base}, true
	case TypeDivider:
		return &DividerField{Base: base}, true
	case TypeSpacer:
		return &SpacerField{Base: base}, true
	}
	return nil, false
}

// Inputs 返回字段的输入属性，布局字段返回 nil
func Inputs(f Field) *InputAttrs {
	if in, ok := f.(InputField); ok {
		return in.Input()
	}
	return nil
}

// NewID 生成字段ID
func NewID() string {
	return "fld_" + strings.ReplaceAll(uuid.New().String(), "-", "")
}
