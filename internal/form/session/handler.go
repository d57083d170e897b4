package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"go.uber.org/zap"

	"github.com/sujeethshingade/form-builder-sub000/internal/form/builder"
	"github.com/sujeethshingade/form-builder-sub000/internal/form/entity"
	"github.com/sujeethshingade/form-builder-sub000/internal/form/inspector"
	"github.com/sujeethshingade/form-builder-sub000/internal/form/render"
	"github.com/sujeethshingade/form-builder-sub000/internal/form/schema"
	"github.com/sujeethshingade/form-builder-sub000/internal/form/service"
)

// Forms 表单读写
type Forms interface {
	Get(ctx context.Context, id string) (*entity.Form, error)
	Create(ctx context.Context, req *service.CreateFormRequest) (*entity.Form, error)
	Update(ctx context.Context, id string, req *service.UpdateFormRequest) (*entity.Form, error)
}

// Layouts 布局读写
type Layouts interface {
	Get(ctx context.Context, id string) (*entity.Layout, error)
	Create(ctx context.Context, req *service.LayoutRequest) (*entity.Layout, error)
	Update(ctx context.Context, id string, req *service.LayoutRequest) (*entity.Layout, error)
	DropFields(ctx context.Context, id string) (schema.FieldList, error)
}

// CustomFields 自定义字段解析
type CustomFields interface {
	Source(ctx context.Context, id string) (builder.CustomFieldSource, error)
}

// Backend 会话依赖的存储服务
type Backend struct {
	Forms        Forms
	Layouts      Layouts
	CustomFields CustomFields
}

// Handler WebSocket 编辑会话
type Handler struct {
	sessions *Manager
	backend  Backend
	renderer *render.Renderer
	logger   *zap.Logger

	originPatterns []string
}

// HandlerOption 会话处理器选项
type HandlerOption func(*Handler)

// WithOriginPatterns 允许的跨域来源主机，未设置时只接受同源连接
func WithOriginPatterns(patterns ...string) HandlerOption {
	return func(h *Handler) {
		h.originPatterns = patterns
	}
}

// NewHandler 创建会话处理器
func NewHandler(sessions *Manager, backend Backend, renderer *render.Renderer, logger *zap.Logger, opts ...HandlerOption) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Handler{
		sessions: sessions,
		backend:  backend,
		renderer: renderer,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// ServeHTTP 升级为 WebSocket 并进入消息循环
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.originPatterns,
	})
	if err != nil {
		h.logger.Warn("websocket accept failed", zap.Error(err))
		return
	}
	defer conn.CloseNow()

	sess := h.sessions.Create()
	defer h.sessions.Remove(sess.ID)
	ctx := r.Context()

	h.send(ctx, conn, ServerMessage{
		Type: ReplySession,
		Data: SessionData{SessionID: sess.ID},
	})

	// ?kind=&id= 在连接时直接加载文档
	if id := r.URL.Query().Get("id"); id != "" {
		h.load(ctx, conn, sess, "", LoadData{Kind: DocKind(r.URL.Query().Get("kind")), ID: id})
	}

	for {
		var msg ClientMessage
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			if websocket.CloseStatus(err) != -1 {
				h.logger.Debug("builder session closed",
					zap.String("session_id", sess.ID),
					zap.Int("status", int(websocket.CloseStatus(err))))
			}
			return
		}
		sess.Touch()
		h.dispatch(ctx, conn, sess, msg)
	}
}

func (h *Handler) dispatch(ctx context.Context, conn *websocket.Conn, sess *Session, msg ClientMessage) {
	b := sess.Builder
	switch msg.Type {
	case MsgLoad:
		var data LoadData
		if h.decode(ctx, conn, msg, &data) {
			h.load(ctx, conn, sess, msg.ID, data)
		}
	case MsgDragEnd:
		h.dragEnd(ctx, conn, sess, msg)
	case MsgSelect:
		var data FieldData
		if h.decode(ctx, conn, msg, &data) {
			h.state(ctx, conn, sess, msg.ID, b.Select(data.FieldID), false)
		}
	case MsgReorder:
		var data ReorderData
		if h.decode(ctx, conn, msg, &data) {
			h.state(ctx, conn, sess, msg.ID, b.Reorder(data.ActiveID, data.OverID), true)
		}
	case MsgDelete, MsgDuplicate, MsgMoveUp, MsgMoveDown:
		var data FieldData
		if h.decode(ctx, conn, msg, &data) {
			h.state(ctx, conn, sess, msg.ID, fieldOp(b, msg.Type, data.FieldID), true)
		}
	case MsgPatch:
		h.patch(ctx, conn, sess, msg)
	case MsgRule:
		h.rule(ctx, conn, sess, msg)
	case MsgScript:
		h.script(ctx, conn, sess, msg)
	case MsgUndo:
		h.state(ctx, conn, sess, msg.ID, b.Undo(), true)
	case MsgRedo:
		h.state(ctx, conn, sess, msg.ID, b.Redo(), true)
	case MsgSetView:
		var data ViewData
		if !h.decode(ctx, conn, msg, &data) {
			return
		}
		if err := b.SetView(data.View); err != nil {
			h.sendError(ctx, conn, msg.ID, CodeInvalidData, err.Error())
			return
		}
		h.state(ctx, conn, sess, msg.ID, true, false)
	case MsgInspect:
		f, ok := b.Selected()
		if !ok {
			h.sendError(ctx, conn, msg.ID, CodeNoSelection, "no field selected")
			return
		}
		h.send(ctx, conn, ServerMessage{Type: ReplyInspector, RequestID: msg.ID, Data: inspector.Inspect(f)})
	case MsgRender:
		h.render(ctx, conn, sess, msg)
	case MsgSave:
		h.save(ctx, conn, sess, msg)
	case MsgPing:
		h.send(ctx, conn, ServerMessage{Type: ReplyPong, RequestID: msg.ID})
	default:
		h.sendError(ctx, conn, msg.ID, CodeUnknownType, fmt.Sprintf("unknown message type: %s", msg.Type))
	}
}

func fieldOp(b *builder.Builder, op, id string) bool {
	switch op {
	case MsgDelete:
		return b.Delete(id)
	case MsgDuplicate:
		_, ok := b.Duplicate(id)
		return ok
	case MsgMoveUp:
		return b.MoveUp(id)
	case MsgMoveDown:
		return b.MoveDown(id)
	}
	return false
}

// decode 解析消息数据，失败时回复 invalid_data
func (h *Handler) decode(ctx context.Context, conn *websocket.Conn, msg ClientMessage, out any) bool {
	if len(msg.Data) == 0 {
		return true
	}
	if err := json.Unmarshal(msg.Data, out); err != nil {
		h.sendError(ctx, conn, msg.ID, CodeInvalidData, fmt.Sprintf("invalid %s data", msg.Type))
		return false
	}
	return true
}

func (h *Handler) load(ctx context.Context, conn *websocket.Conn, sess *Session, reqID string, data LoadData) {
	if data.Kind == "" {
		data.Kind = DocForm
	}
	switch data.Kind {
	case DocForm:
		if data.ID == "" {
			sess.reset(DocForm, "", nil)
			break
		}
		form, err := h.backend.Forms.Get(ctx, data.ID)
		if err != nil {
			h.fail(ctx, conn, reqID, err)
			return
		}
		doc := form.FormJSON.Data()
		sess.reset(DocForm, form.ID, doc.Fields)
		sess.FormName = form.FormName
		sess.CollectionName = form.CollectionName
		if doc.Styles != (schema.FormStyles{}) {
			sess.Styles = doc.Styles
		}
	case DocLayout:
		if data.ID == "" {
			sess.reset(DocLayout, "", nil)
			break
		}
		l, err := h.backend.Layouts.Get(ctx, data.ID)
		if err != nil {
			h.fail(ctx, conn, reqID, err)
			return
		}
		sess.reset(DocLayout, l.ID, l.Fields.Data())
		sess.LayoutName = l.LayoutName
		sess.LayoutType = l.LayoutType
		sess.Category = l.Category
		sess.LayoutConfig = json.RawMessage(l.LayoutConfig)
	default:
		h.sendError(ctx, conn, reqID, CodeInvalidData, fmt.Sprintf("unknown document kind: %s", data.Kind))
		return
	}
	h.state(ctx, conn, sess, reqID, true, false)
}

// dragEnd 自定义字段与布局在服务端按ID解析后交给编辑器
func (h *Handler) dragEnd(ctx context.Context, conn *websocket.Conn, sess *Session, msg ClientMessage) {
	var data DragEndData
	if !h.decode(ctx, conn, msg, &data) {
		return
	}
	payload := builder.DragPayload{
		Kind:      data.Active.Kind,
		FieldType: data.Active.FieldType,
		FieldID:   data.Active.FieldID,
	}
	if data.OverID != "" {
		switch data.Active.Kind {
		case builder.PayloadCustomField:
			src, err := h.backend.CustomFields.Source(ctx, data.Active.CustomFieldID)
			if err != nil {
				h.fail(ctx, conn, msg.ID, err)
				return
			}
			payload.CustomField = &src
		case builder.PayloadLayout:
			fields, err := h.backend.Layouts.DropFields(ctx, data.Active.LayoutID)
			if err != nil {
				h.fail(ctx, conn, msg.ID, err)
				return
			}
			payload.LayoutFields = fields
		}
	}
	changed := sess.Builder.DragEnd(builder.DragEvent{Active: payload, OverID: data.OverID})
	h.state(ctx, conn, sess, msg.ID, changed, true)
}

func (h *Handler) selected(ctx context.Context, conn *websocket.Conn, sess *Session, reqID string) (schema.Field, bool) {
	f, ok := sess.Builder.Selected()
	if !ok {
		h.sendError(ctx, conn, reqID, CodeNoSelection, "no field selected")
	}
	return f, ok
}

// applyPatch 合并到选中字段并回复状态
func (h *Handler) applyPatch(ctx context.Context, conn *websocket.Conn, sess *Session, reqID string, patch map[string]any) {
	changed, err := sess.Builder.PatchSelected(patch)
	if err != nil {
		h.sendError(ctx, conn, reqID, CodeInvalidPatch, err.Error())
		return
	}
	h.state(ctx, conn, sess, reqID, changed, true)
}

func (h *Handler) patch(ctx context.Context, conn *websocket.Conn, sess *Session, msg ClientMessage) {
	var data PatchData
	if !h.decode(ctx, conn, msg, &data) {
		return
	}
	f, ok := h.selected(ctx, conn, sess, msg.ID)
	if !ok {
		return
	}
	patch := data.Patch
	if data.Key != "" {
		p, err := inspector.Patch(f, data.Key, data.Value)
		if err != nil {
			h.sendError(ctx, conn, msg.ID, CodeInvalidPatch, err.Error())
			return
		}
		patch = p
	}
	if len(patch) == 0 {
		h.sendError(ctx, conn, msg.ID, CodeInvalidData, "empty patch")
		return
	}
	h.applyPatch(ctx, conn, sess, msg.ID, patch)
}

func (h *Handler) rule(ctx context.Context, conn *websocket.Conn, sess *Session, msg ClientMessage) {
	var data RuleData
	if !h.decode(ctx, conn, msg, &data) {
		return
	}
	f, ok := h.selected(ctx, conn, sess, msg.ID)
	if !ok {
		return
	}
	var (
		patch map[string]any
		err   error
	)
	switch data.Op {
	case OpAdd:
		patch, _, err = inspector.AddRule(f, data.RuleType)
	case OpUpdate:
		patch, err = inspector.UpdateRule(f, data.Rule)
	case OpRemove:
		patch, err = inspector.RemoveRule(f, data.RuleID)
	default:
		err = fmt.Errorf("unknown rule op: %s", data.Op)
	}
	if err != nil {
		h.sendError(ctx, conn, msg.ID, CodeInvalidPatch, err.Error())
		return
	}
	h.applyPatch(ctx, conn, sess, msg.ID, patch)
}

func (h *Handler) script(ctx context.Context, conn *websocket.Conn, sess *Session, msg ClientMessage) {
	var data ScriptData
	if !h.decode(ctx, conn, msg, &data) {
		return
	}
	f, ok := h.selected(ctx, conn, sess, msg.ID)
	if !ok {
		return
	}
	var (
		patch map[string]any
		err   error
	)
	switch data.Op {
	case OpAdd:
		patch, _, err = inspector.AddScript(f, data.Trigger, data.Name, data.Code)
	case OpUpdate:
		patch, err = inspector.UpdateScript(f, data.Script)
	case OpRemove:
		patch, err = inspector.RemoveScript(f, data.ScriptID)
	default:
		err = fmt.Errorf("unknown script op: %s", data.Op)
	}
	if err != nil {
		h.sendError(ctx, conn, msg.ID, CodeInvalidPatch, err.Error())
		return
	}
	h.applyPatch(ctx, conn, sess, msg.ID, patch)
}

func (h *Handler) render(ctx context.Context, conn *websocket.Conn, sess *Session, msg ClientMessage) {
	var data RenderData
	if !h.decode(ctx, conn, msg, &data) {
		return
	}
	b := sess.Builder
	if data.Mode == "" {
		data.Mode = string(b.View())
	}
	mode, err := render.ParseMode(data.Mode)
	if err != nil {
		h.sendError(ctx, conn, msg.ID, CodeInvalidData, err.Error())
		return
	}
	out, err := h.renderer.Render(mode, render.Document{
		Title:      sess.Title(),
		Fields:     b.Fields(),
		Styles:     sess.Styles,
		SelectedID: b.SelectedID(),
	})
	if err != nil {
		h.fail(ctx, conn, msg.ID, err)
		return
	}
	h.send(ctx, conn, ServerMessage{Type: ReplyRender, RequestID: msg.ID, Data: out})
}

// save 新文档创建，已有文档整体覆盖字段
func (h *Handler) save(ctx context.Context, conn *websocket.Conn, sess *Session, msg ClientMessage) {
	var data SaveData
	if !h.decode(ctx, conn, msg, &data) {
		return
	}
	fields := sess.Builder.Fields()

	var id string
	switch sess.Kind {
	case DocLayout:
		req := &service.LayoutRequest{
			LayoutName:   firstNonEmpty(data.LayoutName, sess.LayoutName),
			LayoutType:   sess.LayoutType,
			Category:     firstNonEmpty(data.Category, sess.Category),
			Fields:       fields,
			LayoutConfig: sess.LayoutConfig,
		}
		if data.LayoutType != "" {
			req.LayoutType = data.LayoutType
		}
		var (
			l   *entity.Layout
			err error
		)
		if sess.DocID == "" {
			l, err = h.backend.Layouts.Create(ctx, req)
		} else {
			l, err = h.backend.Layouts.Update(ctx, sess.DocID, req)
		}
		if err != nil {
			h.fail(ctx, conn, msg.ID, err)
			return
		}
		id = l.ID
		sess.LayoutName, sess.LayoutType, sess.Category = l.LayoutName, l.LayoutType, l.Category
		sess.LayoutConfig = json.RawMessage(l.LayoutConfig)
	default:
		doc := &schema.FormJSON{Fields: fields, Styles: sess.Styles}
		var (
			form *entity.Form
			err  error
		)
		if sess.DocID == "" {
			form, err = h.backend.Forms.Create(ctx, &service.CreateFormRequest{
				FormName:       firstNonEmpty(data.FormName, sess.FormName),
				CollectionName: firstNonEmpty(data.CollectionName, sess.CollectionName),
				FormJSON:       doc,
			})
		} else {
			req := &service.UpdateFormRequest{FormJSON: doc}
			if data.FormName != "" {
				req.FormName = &data.FormName
			}
			if data.CollectionName != "" {
				req.CollectionName = &data.CollectionName
			}
			form, err = h.backend.Forms.Update(ctx, sess.DocID, req)
		}
		if err != nil {
			h.fail(ctx, conn, msg.ID, err)
			return
		}
		id = form.ID
		sess.FormName, sess.CollectionName = form.FormName, form.CollectionName
	}

	sess.DocID = id
	sess.Dirty = false
	h.logger.Info("builder document saved",
		zap.String("session_id", sess.ID),
		zap.String("kind", string(sess.Kind)),
		zap.String("id", id))
	h.send(ctx, conn, ServerMessage{Type: ReplySaved, RequestID: msg.ID, Data: SavedData{Kind: sess.Kind, ID: id}})
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// state 回复当前状态；mutation 表示指令会修改字段
func (h *Handler) state(ctx context.Context, conn *websocket.Conn, sess *Session, reqID string, changed, mutation bool) {
	if changed && mutation {
		sess.Dirty = true
	}
	h.send(ctx, conn, ServerMessage{
		Type:      ReplyState,
		RequestID: reqID,
		Data: StateData{
			State:   sess.Builder.Snapshot(),
			Kind:    sess.Kind,
			DocID:   sess.DocID,
			Title:   sess.Title(),
			Changed: changed,
			Dirty:   sess.Dirty,
		},
	})
}

// fail 按服务层错误类型映射错误码
func (h *Handler) fail(ctx context.Context, conn *websocket.Conn, reqID string, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		h.sendError(ctx, conn, reqID, CodeValidation, verr.Message)
	case service.IsNotFound(err):
		h.sendError(ctx, conn, reqID, CodeNotFound, err.Error())
	default:
		h.logger.Error("builder session error", zap.String("request_id", reqID), zap.Error(err))
		h.sendError(ctx, conn, reqID, CodeInternal, err.Error())
	}
}

func (h *Handler) send(ctx context.Context, conn *websocket.Conn, msg ServerMessage) {
	if err := wsjson.Write(ctx, conn, msg); err != nil {
		h.logger.Debug("websocket write failed", zap.String("type", msg.Type), zap.Error(err))
	}
}

func (h *Handler) sendError(ctx context.Context, conn *websocket.Conn, requestID, code, message string) {
	h.send(ctx, conn, ServerMessage{
		Type:      ReplyError,
		RequestID: requestID,
		Data:      ErrorData{Code: code, Message: message},
	})
}
