// Package builder 表单编辑器状态机
//
// Builder 持有当前字段列表、选中项、撤销/重做历史和视图模式。
// 插入、删除、复制、上移/下移在修改前压入整表快照；拖拽排序与属性修改不产生快照。
// 任何修改都会清空重做栈。Builder 不是并发安全的，每个编辑会话独占一个实例。
package builder

import (
	"errors"
	"fmt"

	"github.com/sujeethshingade/form-builder-sub000/internal/form/palette"
	"github.com/sujeethshingade/form-builder-sub000/internal/form/schema"
)

// DefaultHistoryLimit 撤销栈上限
const DefaultHistoryLimit = 20

// View 工作区视图
type View string

const (
	ViewEdit    View = "edit"
	ViewPreview View = "preview"
	ViewJSON    View = "json"
)

// Valid 视图是否合法
func (v View) Valid() bool {
	switch v {
	case ViewEdit, ViewPreview, ViewJSON:
		return true
	}
	return false
}

// ErrInvalidView 非法视图
var ErrInvalidView = errors.New("invalid view mode")

// Builder 编辑器状态
type Builder struct {
	registry *palette.Registry
	limit    int

	fields     schema.FieldList
	selectedID string
	undo       []schema.FieldList
	redo       []schema.FieldList
	view       View
}

// Option 构造选项
type Option func(*Builder)

// WithHistoryLimit 设置撤销栈上限
func WithHistoryLimit(n int) Option {
	return func(b *Builder) {
		if n > 0 {
			b.limit = n
		}
	}
}

// WithRegistry 指定字段库
func WithRegistry(r *palette.Registry) Option {
	return func(b *Builder) {
		if r != nil {
			b.registry = r
		}
	}
}

// New 创建编辑器，初始字段被深拷贝
func New(fields schema.FieldList, opts ...Option) *Builder {
	b := &Builder{
		registry: palette.Default(),
		limit:    DefaultHistoryLimit,
		fields:   fields.Clone(),
		view:     ViewEdit,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.fields == nil {
		b.fields = schema.FieldList{}
	}
	return b
}

// Reset 载入新文档并清空历史与选中
func (b *Builder) Reset(fields schema.FieldList) {
	b.fields = fields.Clone()
	if b.fields == nil {
		b.fields = schema.FieldList{}
	}
	b.selectedID = ""
	b.undo = nil
	b.redo = nil
}

// Fields 当前字段列表的拷贝
func (b *Builder) Fields() schema.FieldList {
	return b.fields.Clone()
}

// Len 字段数量
func (b *Builder) Len() int {
	return len(b.fields)
}

// SelectedID 当前选中字段ID
func (b *Builder) SelectedID() string {
	return b.selectedID
}

// Selected 当前选中字段的拷贝
func (b *Builder) Selected() (schema.Field, bool) {
	f, ok := b.fields.Find(b.selectedID)
	if !ok {
		return nil, false
	}
	return schema.Clone(f), true
}

// View 当前视图
func (b *Builder) View() View {
	return b.view
}

// UndoDepth 撤销栈深度
func (b *Builder) UndoDepth() int { return len(b.undo) }

// RedoDepth 重做栈深度
func (b *Builder) RedoDepth() int { return len(b.redo) }

// State 可序列化的状态快照
type State struct {
	Fields     schema.FieldList `json:"fields"`
	SelectedID string           `json:"selectedId,omitempty"`
	View       View             `json:"view"`
	CanUndo    bool             `json:"canUndo"`
	CanRedo    bool             `json:"canRedo"`
	UndoDepth  int              `json:"undoDepth"`
	RedoDepth  int              `json:"redoDepth"`
}

// Snapshot 返回独立的状态快照
func (b *Builder) Snapshot() State {
	return State{
		Fields:     b.fields.Clone(),
		SelectedID: b.selectedID,
		View:       b.view,
		CanUndo:    len(b.undo) > 0,
		CanRedo:    len(b.redo) > 0,
		UndoDepth:  len(b.undo),
		RedoDepth:  len(b.redo),
	}
}

// pushUndo 修改前调用：压入当前快照并清空重做栈
func (b *Builder) pushUndo() {
	b.undo = appendBounded(b.undo, b.fields.Clone(), b.limit)
	b.redo = nil
}

func appendBounded(stack []schema.FieldList, snap schema.FieldList, limit int) []schema.FieldList {
	stack = append(stack, snap)
	if over := len(stack) - limit; over > 0 {
		stack = append([]schema.FieldList(nil), stack[over:]...)
	}
	return stack
}

// insertAt 在 index 处插入；index 越界时追加到末尾
func (b *Builder) insertAt(index int, items ...schema.Field) {
	if index < 0 || index > len(b.fields) {
		index = len(b.fields)
	}
	out := make(schema.FieldList, 0, len(b.fields)+len(items))
	out = append(out, b.fields[:index]...)
	out = append(out, items...)
	out = append(out, b.fields[index:]...)
	b.fields = out
}

// InsertFromPalette 从字段库插入，index<0 表示追加；未知类型不做任何修改
func (b *Builder) InsertFromPalette(t schema.FieldType, index int) (schema.Field, bool) {
	f, ok := b.registry.Instantiate(t)
	if !ok {
		return nil, false
	}
	b.pushUndo()
	b.insertAt(index, f)
	b.selectedID = f.Common().ID
	return schema.Clone(f), true
}

// CustomFieldSource 自定义字段的快照来源
type CustomFieldSource struct {
	ID           string               `json:"_id"`
	FieldName    string               `json:"fieldName"`
	FieldLabel   string               `json:"fieldLabel"`
	DataType     schema.FieldType     `json:"dataType"`
	LOVEnabled   bool                 `json:"lovEnabled"`
	LOVItems     []schema.LOVItem     `json:"lovItems,omitempty"`
	TableColumns []schema.TableColumn `json:"tableColumns,omitempty"`
}

// InsertFromCustomField 从自定义字段插入，选项在插入时快照，不保留实时引用
func (b *Builder) InsertFromCustomField(src CustomFieldSource, index int) (schema.Field, bool) {
	f, ok := b.registry.Instantiate(src.DataType)
	if !ok {
		return nil, false
	}
	common := f.Common()
	common.Name = src.FieldName
	common.Label = src.FieldLabel
	if common.Label == "" {
		common.Label = src.FieldName
	}

	switch v := f.(type) {
	case *schema.ChoiceField:
		v.CustomFieldID = src.ID
		if src.LOVEnabled {
			if items := schema.ItemsFromLOV(src.LOVItems); len(items) > 0 {
				v.Items = items
				v.LOVItems = append([]schema.LOVItem(nil), src.LOVItems...)
			}
		}
	case *schema.TableField:
		if len(src.TableColumns) > 0 {
			v.Columns = append([]schema.TableColumn(nil), src.TableColumns...)
			row := make(map[string]any, len(v.Columns))
			for _, c := range v.Columns {
				row[c.ID] = ""
			}
			v.TableRows = []map[string]any{row}
		}
	}

	b.pushUndo()
	b.insertAt(index, f)
	b.selectedID = common.ID
	return schema.Clone(f), true
}

// InsertFromLayout 插入已保存布局的全部字段，每个字段重新分配ID，作为连续块插入
func (b *Builder) InsertFromLayout(fields schema.FieldList, index int) (schema.FieldList, bool) {
	if len(fields) == 0 {
		return nil, false
	}
	block := make(schema.FieldList, len(fields))
	for i, f := range fields {
		block[i] = schema.CloneWithNewID(f)
	}
	b.pushUndo()
	b.insertAt(index, block...)
	b.selectedID = block[0].Common().ID
	return block.Clone(), true
}

// Reorder 把 activeID 移动到 overID 所在位置；任一ID不存在或位置相同则不做修改
func (b *Builder) Reorder(activeID, overID string) bool {
	oldIndex := b.fields.IndexOf(activeID)
	newIndex := b.fields.IndexOf(overID)
	if oldIndex < 0 || newIndex < 0 || oldIndex == newIndex {
		return false
	}
	b.move(oldIndex, newIndex)
	b.redo = nil
	return true
}

// move 先移除再插入
func (b *Builder) move(from, to int) {
	f := b.fields[from]
	rest := make(schema.FieldList, 0, len(b.fields))
	rest = append(rest, b.fields[:from]...)
	rest = append(rest, b.fields[from+1:]...)
	b.fields = rest
	b.insertAt(to, f)
}

// Delete 按ID删除；删除选中项时清空选中
func (b *Builder) Delete(id string) bool {
	i := b.fields.IndexOf(id)
	if i < 0 {
		return false
	}
	b.pushUndo()
	out := make(schema.FieldList, 0, len(b.fields)-1)
	out = append(out, b.fields[:i]...)
	out = append(out, b.fields[i+1:]...)
	b.fields = out
	if b.selectedID == id {
		b.selectedID = ""
	}
	return true
}

// Duplicate 在源字段之后插入一份新ID的拷贝，标签保持不变
func (b *Builder) Duplicate(id string) (schema.Field, bool) {
	i := b.fields.IndexOf(id)
	if i < 0 {
		return nil, false
	}
	cp := schema.CloneWithNewID(b.fields[i])
	b.pushUndo()
	b.insertAt(i+1, cp)
	return schema.Clone(cp), true
}

// MoveUp 与上一个字段交换；首个字段不做任何修改（包括历史）
func (b *Builder) MoveUp(id string) bool {
	i := b.fields.IndexOf(id)
	if i <= 0 {
		return false
	}
	b.pushUndo()
	b.fields[i-1], b.fields[i] = b.fields[i], b.fields[i-1]
	return true
}

// MoveDown 与下一个字段交换；末尾字段不做任何修改（包括历史）
func (b *Builder) MoveDown(id string) bool {
	i := b.fields.IndexOf(id)
	if i < 0 || i >= len(b.fields)-1 {
		return false
	}
	b.pushUndo()
	b.fields[i+1], b.fields[i] = b.fields[i], b.fields[i+1]
	return true
}

// Select 选中字段，空字符串清空选中
func (b *Builder) Select(id string) bool {
	if id == "" {
		b.selectedID = ""
		return true
	}
	if b.fields.IndexOf(id) < 0 {
		return false
	}
	b.selectedID = id
	return true
}

// PatchSelected 合并属性到选中字段；未选中时不做修改
func (b *Builder) PatchSelected(patch map[string]any) (bool, error) {
	i := b.fields.IndexOf(b.selectedID)
	if i < 0 {
		return false, nil
	}
	patched, err := schema.ApplyPatch(b.fields[i], patch)
	if err != nil {
		return false, fmt.Errorf("patch field %s: %w", b.selectedID, err)
	}
	b.fields[i] = patched
	b.redo = nil
	return true, nil
}

// Undo 撤销，清空选中
func (b *Builder) Undo() bool {
	n := len(b.undo)
	if n == 0 {
		return false
	}
	prev := b.undo[n-1]
	b.undo = b.undo[:n-1]
	b.redo = appendBounded(b.redo, b.fields, b.limit)
	b.fields = prev
	b.selectedID = ""
	return true
}

// Redo 重做，清空选中
func (b *Builder) Redo() bool {
	n := len(b.redo)
	if n == 0 {
		return false
	}
	next := b.redo[n-1]
	b.redo = b.redo[:n-1]
	b.undo = appendBounded(b.undo, b.fields, b.limit)
	b.fields = next
	b.selectedID = ""
	return true
}

// SetView 切换视图，任意视图之间均可切换
func (b *Builder) SetView(v View) error {
	if !v.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidView, v)
	}
	b.view = v
	return nil
}
