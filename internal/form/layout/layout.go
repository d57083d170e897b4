// Package layout 已保存布局（网格、分框、表单组）的配置模型
//
// 布局文档本身由 entity.Layout 持久化，这里只处理 layoutConfig 的结构、校验与派生操作。
package layout

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sujeethshingade/form-builder-sub000/internal/form/schema"
)

// Type 布局类型
type Type string

const (
	TypeGrid  Type = "grid-layout"
	TypeBox   Type = "box-layout"
	TypeGroup Type = "form-group"
)

// Valid 类型是否合法
func (t Type) Valid() bool {
	switch t {
	case TypeGrid, TypeBox, TypeGroup:
		return true
	}
	return false
}

var (
	ErrUnknownType   = errors.New("unknown layout type")
	ErrInvalidConfig = errors.New("invalid layout config")
	ErrNoTemplateBox = errors.New("box layout has no template box")
)

// ColumnDef 网格列定义
type ColumnDef struct {
	ID    string `json:"id"`
	Width int    `json:"width"`
}

// GridRow 网格行，Cells 与列一一对应，值为字段ID或空串
type GridRow struct {
	ID    string   `json:"id"`
	Cells []string `json:"cells"`
}

// GridConfig 网格布局
type GridConfig struct {
	GridColumns int         `json:"gridColumns"`
	ColumnDefs  []ColumnDef `json:"columnDefs"`
	Rows        []GridRow   `json:"rows"`
}

// Box 分框
type Box struct {
	ID     string           `json:"id"`
	Title  string           `json:"title"`
	Fields schema.FieldList `json:"fields"`
}

// BoxConfig 分框布局，第 0 个框为模板
type BoxConfig struct {
	Boxes []Box `json:"boxes"`
}

// Group 表单组
type Group struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Fields    schema.FieldList `json:"fields"`
	LayoutRef string           `json:"layoutRef,omitempty"`
}

// GroupConfig 表单组布局
type GroupConfig struct {
	Groups []Group `json:"groups"`
}

// DecodeConfig 按类型解析 layoutConfig，返回 *GridConfig / *BoxConfig / *GroupConfig
func DecodeConfig(t Type, raw json.RawMessage) (any, error) {
	empty := len(raw) == 0 || string(raw) == "null"
	switch t {
	case TypeGrid:
		cfg := &GridConfig{}
		if !empty {
			if err := json.Unmarshal(raw, cfg); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
			}
		}
		return cfg, nil
	case TypeBox:
		cfg := &BoxConfig{}
		if !empty {
			if err := json.Unmarshal(raw, cfg); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
			}
		}
		return cfg, nil
	case TypeGroup:
		cfg := &GroupConfig{}
		if !empty {
			if err := json.Unmarshal(raw, cfg); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
			}
		}
		return cfg, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownType, t)
}

// ValidateConfig 校验配置结构
func ValidateConfig(t Type, raw json.RawMessage) error {
	cfg, err := DecodeConfig(t, raw)
	if err != nil {
		return err
	}
	switch c := cfg.(type) {
	case *GridConfig:
		return c.Validate()
	case *BoxConfig:
		return c.Validate()
	case *GroupConfig:
		return c.Validate()
	}
	return nil
}

// Validate 列宽 1-12，每行单元格数与列数一致
func (c *GridConfig) Validate() error {
	if c.GridColumns < 0 || c.GridColumns > schema.MaxWidthColumns {
		return fmt.Errorf("%w: gridColumns must be between 1 and %d", ErrInvalidConfig, schema.MaxWidthColumns)
	}
	if c.GridColumns > 0 && len(c.ColumnDefs) > 0 && len(c.ColumnDefs) != c.GridColumns {
		return fmt.Errorf("%w: %d columnDefs for %d columns", ErrInvalidConfig, len(c.ColumnDefs), c.GridColumns)
	}
	for _, cd := range c.ColumnDefs {
		if cd.Width < schema.MinWidthColumns || cd.Width > schema.MaxWidthColumns {
			return fmt.Errorf("%w: column %s width %d", ErrInvalidConfig, cd.ID, cd.Width)
		}
	}
	cols := c.columns()
	for _, row := range c.Rows {
		if cols > 0 && len(row.Cells) > cols {
			return fmt.Errorf("%w: row %s has %d cells for %d columns", ErrInvalidConfig, row.ID, len(row.Cells), cols)
		}
	}
	return nil
}

func (c *GridConfig) columns() int {
	if c.GridColumns > 0 {
		return c.GridColumns
	}
	return len(c.ColumnDefs)
}

// Validate 框ID唯一，字段ID在所有框之间唯一，每个框内字段合法
func (c *BoxConfig) Validate() error {
	seen := map[string]bool{}
	fieldBox := map[string]string{}
	for i, b := range c.Boxes {
		if b.ID == "" {
			return fmt.Errorf("%w: boxes[%d] has no id", ErrInvalidConfig, i)
		}
		if seen[b.ID] {
			return fmt.Errorf("%w: duplicate box id %s", ErrInvalidConfig, b.ID)
		}
		seen[b.ID] = true
		if err := b.Fields.Validate(); err != nil {
			return fmt.Errorf("%w: boxes[%d]: %v", ErrInvalidConfig, i, err)
		}
		for _, f := range b.Fields {
			id := f.Common().ID
			if other, ok := fieldBox[id]; ok {
				return fmt.Errorf("%w: field id %s used in boxes %s and %s", ErrInvalidConfig, id, other, b.ID)
			}
			fieldBox[id] = b.ID
		}
	}
	return nil
}

// Validate 组ID唯一，每组字段合法
func (c *GroupConfig) Validate() error {
	seen := map[string]bool{}
	for i, g := range c.Groups {
		if g.ID == "" {
			return fmt.Errorf("%w: groups[%d] has no id", ErrInvalidConfig, i)
		}
		if seen[g.ID] {
			return fmt.Errorf("%w: duplicate group id %s", ErrInvalidConfig, g.ID)
		}
		seen[g.ID] = true
		if err := g.Fields.Validate(); err != nil {
			return fmt.Errorf("%w: groups[%d]: %v", ErrInvalidConfig, i, err)
		}
	}
	return nil
}

// remapID 复制框内字段ID：模板字段ID_框序号
func remapID(templateID string, boxIndex int) string {
	return fmt.Sprintf("%s_%d", templateID, boxIndex)
}

// AddBox 追加一个由模板框复制而来的新框
func (c *BoxConfig) AddBox(title string) (Box, error) {
	if len(c.Boxes) == 0 {
		return Box{}, ErrNoTemplateBox
	}
	idx := len(c.Boxes)
	if title == "" {
		title = fmt.Sprintf("%s %d", titleBase(c.Boxes[0].Title), idx+1)
	}
	for c.taken(idx) {
		idx++
	}
	box := c.derive(idx, title)
	box.ID = fmt.Sprintf("box_%d", idx)
	c.Boxes = append(c.Boxes, box)
	return box, nil
}

// taken 序号 idx 派生出的框ID或任一字段ID已被占用
func (c *BoxConfig) taken(idx int) bool {
	if c.hasBox(fmt.Sprintf("box_%d", idx)) {
		return true
	}
	for _, f := range c.Boxes[0].Fields {
		if c.hasField(remapID(f.Common().ID, idx)) {
			return true
		}
	}
	return false
}

func (c *BoxConfig) hasField(id string) bool {
	for _, b := range c.Boxes {
		if b.Fields.IndexOf(id) >= 0 {
			return true
		}
	}
	return false
}

func titleBase(s string) string {
	if s == "" {
		return "Box"
	}
	return s
}

func (c *BoxConfig) hasBox(id string) bool {
	for _, b := range c.Boxes {
		if b.ID == id {
			return true
		}
	}
	return false
}

// derive 按模板派生第 idx 个框的字段
func (c *BoxConfig) derive(idx int, title string) Box {
	tpl := c.Boxes[0]
	fields := tpl.Fields.Clone()
	for _, f := range fields {
		f.Common().ID = remapID(f.Common().ID, idx)
	}
	if fields == nil {
		fields = schema.FieldList{}
	}
	return Box{Title: title, Fields: fields}
}

// SyncBoxes 模板修改后重新派生所有副本框，保留副本的ID与标题
func (c *BoxConfig) SyncBoxes() {
	for i := 1; i < len(c.Boxes); i++ {
		id, title := c.Boxes[i].ID, c.Boxes[i].Title
		c.Boxes[i] = c.derive(i, title)
		c.Boxes[i].ID = id
	}
}

// Fields 拖到画布时插入的字段：优先使用顶层 fields，否则从配置派生
//
// 表单组的 layoutRef 不展开，需要展开时使用 Expand。
func Fields(t Type, fields schema.FieldList, raw json.RawMessage) (schema.FieldList, error) {
	return Expand("", t, fields, raw, nil)
}

// Resolver 按ID查找被引用的布局，不存在时返回 ok=false
type Resolver func(id string) (t Type, fields schema.FieldList, raw json.RawMessage, ok bool, err error)

// Expand 同 Fields，并把表单组的 layoutRef 替换为被引用布局的字段（递归，遇到循环引用时跳过）
func Expand(id string, t Type, fields schema.FieldList, raw json.RawMessage, resolve Resolver) (schema.FieldList, error) {
	visiting := map[string]bool{}
	if id != "" {
		visiting[id] = true
	}
	return expand(t, fields, raw, resolve, visiting)
}

func expand(t Type, fields schema.FieldList, raw json.RawMessage, resolve Resolver, visiting map[string]bool) (schema.FieldList, error) {
	if len(fields) > 0 {
		return fields.Clone(), nil
	}
	cfg, err := DecodeConfig(t, raw)
	if err != nil {
		return nil, err
	}
	var out schema.FieldList
	switch c := cfg.(type) {
	case *BoxConfig:
		for _, b := range c.Boxes {
			out = append(out, b.Fields.Clone()...)
		}
	case *GroupConfig:
		for _, g := range c.Groups {
			out = append(out, g.Fields.Clone()...)
			if g.LayoutRef == "" || resolve == nil || visiting[g.LayoutRef] {
				continue
			}
			rt, rf, rraw, ok, err := resolve(g.LayoutRef)
			if err != nil {
				return nil, fmt.Errorf("resolve layout %s: %w", g.LayoutRef, err)
			}
			if !ok {
				continue
			}
			visiting[g.LayoutRef] = true
			nested, err := expand(rt, rf, rraw, resolve, visiting)
			delete(visiting, g.LayoutRef)
			if err != nil {
				return nil, err
			}
			out = append(out, nested...)
		}
	}
	return out, nil
}

// EncodeConfig 序列化配置
func EncodeConfig(cfg any) (json.RawMessage, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("encode layout config: %w", err)
	}
	return data, nil
}
