package builder

import "github.com/sujeethshingade/form-builder-sub000/internal/form/schema"

// CanvasDropID 画布空白区域的放置目标ID，放在此处表示追加到末尾
const CanvasDropID = "canvas"

// PayloadKind 拖拽负载类型
type PayloadKind string

const (
	PayloadPalette     PayloadKind = "palette"
	PayloadCustomField PayloadKind = "custom-field"
	PayloadLayout      PayloadKind = "layout"
	PayloadCanvas      PayloadKind = "canvas"
)

// DragPayload 拖拽开始时携带的数据
type DragPayload struct {
	Kind         PayloadKind        `json:"kind"`
	FieldType    schema.FieldType   `json:"fieldType,omitempty"`
	CustomField  *CustomFieldSource `json:"customField,omitempty"`
	LayoutFields schema.FieldList   `json:"layoutFields,omitempty"`
	FieldID      string             `json:"fieldId,omitempty"`
}

// DragEvent 拖拽结束事件
type DragEvent struct {
	Active DragPayload `json:"active"`
	OverID string      `json:"overId"`
}

// dropIndex 解析放置位置：画布追加，字段ID插入到该字段处；未识别的目标返回 false
func (b *Builder) dropIndex(overID string) (int, bool) {
	if overID == CanvasDropID {
		return len(b.fields), true
	}
	if i := b.fields.IndexOf(overID); i >= 0 {
		return i, true
	}
	return 0, false
}

// DragEnd 处理拖拽结束，返回状态是否改变
func (b *Builder) DragEnd(ev DragEvent) bool {
	if ev.OverID == "" {
		return false
	}

	if ev.Active.Kind == PayloadCanvas {
		if ev.OverID == CanvasDropID {
			if len(b.fields) == 0 {
				return false
			}
			return b.Reorder(ev.Active.FieldID, b.fields[len(b.fields)-1].Common().ID)
		}
		return b.Reorder(ev.Active.FieldID, ev.OverID)
	}

	index, ok := b.dropIndex(ev.OverID)
	if !ok {
		return false
	}

	switch ev.Active.Kind {
	case PayloadPalette:
		_, changed := b.InsertFromPalette(ev.Active.FieldType, index)
		return changed
	case PayloadCustomField:
		if ev.Active.CustomField == nil {
			return false
		}
		_, changed := b.InsertFromCustomField(*ev.Active.CustomField, index)
		return changed
	case PayloadLayout:
		_, changed := b.InsertFromLayout(ev.Active.LayoutFields, index)
		return changed
	}
	return false
}
