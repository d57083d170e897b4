// Package session 实时编辑会话的 WebSocket 协议
//
// 每个连接独占一个 builder.Builder，客户端发送编辑指令，服务端回复最新状态。
// 会话之间互不影响，保存时整体覆盖文档。
package session

import (
	"encoding/json"

	"github.com/sujeethshingade/form-builder-sub000/internal/form/builder"
	"github.com/sujeethshingade/form-builder-sub000/internal/form/layout"
	"github.com/sujeethshingade/form-builder-sub000/internal/form/schema"
)

// ── Client → Server ─────────────────────────────────────────────────────────

// ClientMessage 客户端消息
type ClientMessage struct {
	Type string          `json:"type"`
	ID   string          `json:"id"`
	Data json.RawMessage `json:"data,omitempty"`
}

// 客户端消息类型
const (
	MsgLoad      = "load"
	MsgDragEnd   = "drag_end"
	MsgSelect    = "select"
	MsgReorder   = "reorder"
	MsgDelete    = "delete"
	MsgDuplicate = "duplicate"
	MsgMoveUp    = "move_up"
	MsgMoveDown  = "move_down"
	MsgPatch     = "patch"
	MsgRule      = "rule"
	MsgScript    = "script"
	MsgUndo      = "undo"
	MsgRedo      = "redo"
	MsgSetView   = "set_view"
	MsgInspect   = "inspect"
	MsgRender    = "render"
	MsgSave      = "save"
	MsgPing      = "ping"
)

// DocKind 会话编辑的文档类型
type DocKind string

const (
	DocForm   DocKind = "form"
	DocLayout DocKind = "layout"
)

// LoadData 加载文档，ID 为空表示新建
type LoadData struct {
	Kind DocKind `json:"kind"`
	ID   string  `json:"id"`
}

// DragSource 拖拽来源，自定义字段与布局按ID在服务端解析
type DragSource struct {
	Kind          builder.PayloadKind `json:"kind"`
	FieldType     schema.FieldType    `json:"fieldType,omitempty"`
	CustomFieldID string              `json:"customFieldId,omitempty"`
	LayoutID      string              `json:"layoutId,omitempty"`
	FieldID       string              `json:"fieldId,omitempty"`
}

// DragEndData 拖拽结束
type DragEndData struct {
	Active DragSource `json:"active"`
	OverID string     `json:"overId"`
}

// FieldData 针对单个字段的指令
type FieldData struct {
	FieldID string `json:"fieldId"`
}

// ReorderData 排序
type ReorderData struct {
	ActiveID string `json:"activeId"`
	OverID   string `json:"overId"`
}

// PatchData 修改选中字段；Key 非空时按检查器属性校验，否则直接合并 Patch
type PatchData struct {
	Key   string         `json:"key,omitempty"`
	Value any            `json:"value,omitempty"`
	Patch map[string]any `json:"patch,omitempty"`
}

// 规则/脚本操作
const (
	OpAdd    = "add"
	OpUpdate = "update"
	OpRemove = "remove"
)

// RuleData 选中字段的校验规则操作
type RuleData struct {
	Op       string                `json:"op"`
	RuleType schema.RuleType       `json:"ruleType,omitempty"`
	Rule     schema.ValidationRule `json:"rule,omitempty"`
	RuleID   string                `json:"ruleId,omitempty"`
}

// ScriptData 选中字段的脚本操作
type ScriptData struct {
	Op       string         `json:"op"`
	Trigger  schema.Trigger `json:"trigger,omitempty"`
	Name     string         `json:"name,omitempty"`
	Code     string         `json:"code,omitempty"`
	Script   schema.Script  `json:"script,omitempty"`
	ScriptID string         `json:"scriptId,omitempty"`
}

// ViewData 切换视图
type ViewData struct {
	View builder.View `json:"view"`
}

// RenderData 渲染，Mode 为空时使用当前视图
type RenderData struct {
	Mode string `json:"mode,omitempty"`
}

// SaveData 保存；新建文档时需要名称等信息
type SaveData struct {
	FormName       string      `json:"formName,omitempty"`
	CollectionName string      `json:"collectionName,omitempty"`
	LayoutName     string      `json:"layoutName,omitempty"`
	LayoutType     layout.Type `json:"layoutType,omitempty"`
	Category       string      `json:"category,omitempty"`
}

// ── Server → Client ─────────────────────────────────────────────────────────

// ServerMessage 服务端消息
type ServerMessage struct {
	Type      string `json:"type"`
	RequestID string `json:"request_id,omitempty"`
	Data      any    `json:"data,omitempty"`
}

// 服务端消息类型
const (
	ReplySession   = "session"
	ReplyState     = "state"
	ReplyInspector = "inspector"
	ReplyRender    = "render"
	ReplySaved     = "saved"
	ReplyError     = "error"
	ReplyPong      = "pong"
)

// SessionData 连接建立后的会话信息
type SessionData struct {
	SessionID string `json:"sessionId"`
}

// StateData 编辑器状态
type StateData struct {
	builder.State
	Kind    DocKind `json:"kind"`
	DocID   string  `json:"docId,omitempty"`
	Title   string  `json:"title,omitempty"`
	Changed bool    `json:"changed"`
	Dirty   bool    `json:"dirty"`
}

// SavedData 保存结果
type SavedData struct {
	Kind DocKind `json:"kind"`
	ID   string  `json:"id"`
}

// ErrorData 错误
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// 错误码
const (
	CodeUnknownType  = "unknown_type"
	CodeInvalidData  = "invalid_data"
	CodeNotFound     = "not_found"
	CodeNoSelection  = "no_selection"
	CodeInvalidPatch = "invalid_patch"
	CodeValidation   = "validation_failed"
	CodeInternal     = "internal_error"
)
