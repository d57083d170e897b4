package schema

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrUnknownType  = errors.New("unknown field type")
	ErrDuplicateID  = errors.New("duplicate field id")
	ErrMissingID    = errors.New("field id is required")
	ErrInvalidWidth = errors.New("widthColumns must be between 1 and 12")
)

// FieldList 有序字段列表，顺序即渲染与 Tab 顺序
type FieldList []Field

// MarshalJSON nil 列表输出 []
func (l FieldList) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Field(l))
}

// UnmarshalJSON 按 type 分派到具体变体
func (l *FieldList) UnmarshalJSON(data []byte) error {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return err
	}
	out := make(FieldList, 0, len(raws))
	for i, raw := range raws {
		f, err := DecodeField(raw)
		if err != nil {
			return fmt.Errorf("fields[%d]: %w", i, err)
		}
		out = append(out, f)
	}
	*l = out
	return nil
}

// DecodeField 解析单个字段
func DecodeField(raw []byte) (Field, error) {
	var head struct {
		Type FieldType `json:"type"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, err
	}
	f, ok := New(head.Type)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, head.Type)
	}
	if err := json.Unmarshal(raw, f); err != nil {
		return nil, fmt.Errorf("decode %s field: %w", head.Type, err)
	}
	return f, nil
}

// Clone 深拷贝字段
func Clone(f Field) Field {
	if f == nil {
		return nil
	}
	data, err := json.Marshal(f)
	if err != nil {
		panic(fmt.Sprintf("schema: marshal field %s: %v", f.Common().ID, err))
	}
	out, err := DecodeField(data)
	if err != nil {
		panic(fmt.Sprintf("schema: clone field %s: %v", f.Common().ID, err))
	}
	return out
}

// CloneWithNewID 深拷贝并分配新ID
func CloneWithNewID(f Field) Field {
	out := Clone(f)
	out.Common().ID = NewID()
	return out
}

// Clone 深拷贝整个列表
func (l FieldList) Clone() FieldList {
	if l == nil {
		return nil
	}
	out := make(FieldList, len(l))
	for i, f := range l {
		out[i] = Clone(f)
	}
	return out
}

// IndexOf 按ID查找下标，未找到返回 -1
func (l FieldList) IndexOf(id string) int {
	for i, f := range l {
		if f.Common().ID == id {
			return i
		}
	}
	return -1
}

// Find 按ID查找字段
func (l FieldList) Find(id string) (Field, bool) {
	if i := l.IndexOf(id); i >= 0 {
		return l[i], true
	}
	return nil, false
}

// Validate 校验ID唯一性与列宽
func (l FieldList) Validate() error {
	seen := make(map[string]struct{}, len(l))
	for i, f := range l {
		b := f.Common()
		if b.ID == "" {
			return fmt.Errorf("fields[%d]: %w", i, ErrMissingID)
		}
		if _, dup := seen[b.ID]; dup {
			return fmt.Errorf("fields[%d]: %w: %s", i, ErrDuplicateID, b.ID)
		}
		seen[b.ID] = struct{}{}
		if b.WidthColumns != 0 && (b.WidthColumns < MinWidthColumns || b.WidthColumns > MaxWidthColumns) {
			return fmt.Errorf("fields[%d]: %w", i, ErrInvalidWidth)
		}
	}
	return nil
}

// ApplyPatch 将部分属性合并到字段上，返回新字段
//
// id 不可修改；值为 nil 的键会被移除；type 改变时按新类型重新解析，
// 新类型上没有意义的属性会被丢弃。
func ApplyPatch(f Field, patch map[string]any) (Field, error) {
	data, err := json.Marshal(f)
	if err != nil {
		return nil, err
	}
	var attrs map[string]any
	if err := json.Unmarshal(data, &attrs); err != nil {
		return nil, err
	}
	for k, v := range patch {
		if k == "id" {
			continue
		}
		if v == nil {
			delete(attrs, k)
			continue
		}
		attrs[k] = v
	}
	attrs["id"] = f.Common().ID
	merged, err := json.Marshal(attrs)
	if err != nil {
		return nil, fmt.Errorf("encode patch: %w", err)
	}
	return DecodeField(merged)
}

// ToMap 字段转为属性表
func ToMap(f Field) (map[string]any, error) {
	data, err := json.Marshal(f)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}
