package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sujeethshingade/form-builder-sub000/internal/form/builder"
	"github.com/sujeethshingade/form-builder-sub000/internal/form/inspector"
	"github.com/sujeethshingade/form-builder-sub000/internal/form/layout"
	"github.com/sujeethshingade/form-builder-sub000/internal/form/render"
	"github.com/sujeethshingade/form-builder-sub000/internal/form/repository"
	"github.com/sujeethshingade/form-builder-sub000/internal/form/schema"
	"github.com/sujeethshingade/form-builder-sub000/internal/form/service"
	"github.com/sujeethshingade/form-builder-sub000/internal/form/testutil"
)

type reply struct {
	Type      string          `json:"type"`
	RequestID string          `json:"request_id"`
	Data      json.RawMessage `json:"data"`
}

type client struct {
	t    *testing.T
	ctx  context.Context
	conn *websocket.Conn
	seq  int
}

func setup(t *testing.T) (*service.Services, *Manager, *client) {
	t.Helper()
	svc, err := service.NewServices(repository.NewRepositories(testutil.SetupTestDB(t)), service.Deps{})
	require.NoError(t, err)
	renderer, err := render.New()
	require.NoError(t, err)

	sessions := NewManager(10)
	h := NewHandler(sessions, Backend{Forms: svc.Form, Layouts: svc.Layout, CustomFields: svc.CustomField}, renderer, nil)
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	return svc, sessions, dial(t, srv.URL, "")
}

func dial(t *testing.T, url, query string) *client {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(url, "http")+query, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })

	c := &client{t: t, ctx: ctx, conn: conn}
	r := c.read()
	require.Equal(t, ReplySession, r.Type)
	return c
}

func (c *client) read() reply {
	c.t.Helper()
	var r reply
	require.NoError(c.t, wsjson.Read(c.ctx, c.conn, &r))
	return r
}

// call 发送消息并读取对应回复
func (c *client) call(typ string, data any) reply {
	c.t.Helper()
	c.seq++
	msg := map[string]any{"type": typ, "id": string(rune('a' + c.seq))}
	if data != nil {
		msg["data"] = data
	}
	require.NoError(c.t, wsjson.Write(c.ctx, c.conn, msg))
	r := c.read()
	assert.Equal(c.t, msg["id"], r.RequestID)
	return r
}

func (c *client) state(typ string, data any) StateData {
	c.t.Helper()
	r := c.call(typ, data)
	require.Equal(c.t, ReplyState, r.Type, string(r.Data))
	var s StateData
	require.NoError(c.t, json.Unmarshal(r.Data, &s))
	return s
}

func (c *client) fail(typ string, data any) ErrorData {
	c.t.Helper()
	r := c.call(typ, data)
	require.Equal(c.t, ReplyError, r.Type, string(r.Data))
	var e ErrorData
	require.NoError(c.t, json.Unmarshal(r.Data, &e))
	return e
}

func dropPalette(t schema.FieldType, over string) DragEndData {
	return DragEndData{Active: DragSource{Kind: builder.PayloadPalette, FieldType: t}, OverID: over}
}

func TestEditAndSaveNewForm(t *testing.T) {
	svc, sessions, c := setup(t)
	ctx := context.Background()
	assert.Equal(t, 1, sessions.Count())

	assert.Equal(t, ReplyPong, c.call(MsgPing, nil).Type)

	s := c.state(MsgDragEnd, dropPalette(schema.TypeText, builder.CanvasDropID))
	require.Len(t, s.Fields, 1)
	assert.True(t, s.Changed)
	assert.True(t, s.Dirty)
	first := s.Fields[0].Common().ID
	assert.Equal(t, first, s.SelectedID)

	s = c.state(MsgDragEnd, dropPalette(schema.TypeNumber, first))
	require.Len(t, s.Fields, 2)
	assert.Equal(t, schema.TypeNumber, s.Fields[0].Common().Type, "dropping on a field inserts before it")

	s = c.state(MsgSelect, FieldData{FieldID: first})
	assert.Equal(t, first, s.SelectedID)

	s = c.state(MsgPatch, PatchData{Key: "label", Value: "Full name"})
	assert.Equal(t, "Full name", s.Fields[1].Common().Label)

	e := c.fail(MsgPatch, PatchData{Key: "widthColumns", Value: 99})
	assert.Equal(t, CodeInvalidPatch, e.Code)

	s = c.state(MsgRule, RuleData{Op: OpAdd, RuleType: schema.RuleMinLength})
	require.Len(t, schema.Inputs(s.Fields[1]).ValidationRules, 1)

	r := c.call(MsgInspect, nil)
	require.Equal(t, ReplyInspector, r.Type)
	var view inspector.View
	require.NoError(t, json.Unmarshal(r.Data, &view))
	assert.NotEmpty(t, view.Properties)

	r = c.call(MsgRender, RenderData{Mode: "preview"})
	require.Equal(t, ReplyRender, r.Type)
	var out render.Output
	require.NoError(t, json.Unmarshal(r.Data, &out))
	assert.Contains(t, out.Body, "Full name")

	e = c.fail(MsgSave, SaveData{})
	assert.Equal(t, CodeValidation, e.Code)

	r = c.call(MsgSave, SaveData{FormName: "Signup", CollectionName: "leads"})
	require.Equal(t, ReplySaved, r.Type, string(r.Data))
	var saved SavedData
	require.NoError(t, json.Unmarshal(r.Data, &saved))
	assert.Equal(t, DocForm, saved.Kind)

	form, err := svc.Form.Get(ctx, saved.ID)
	require.NoError(t, err)
	assert.Len(t, form.Fields(), 2)

	s = c.state(MsgDelete, FieldData{FieldID: first})
	assert.Len(t, s.Fields, 1)
	assert.True(t, s.Dirty)
	assert.Equal(t, saved.ID, s.DocID)

	r = c.call(MsgSave, nil)
	require.Equal(t, ReplySaved, r.Type, string(r.Data))
	form, err = svc.Form.Get(ctx, saved.ID)
	require.NoError(t, err)
	assert.Len(t, form.Fields(), 1, "save overwrites the stored fields")
	assert.Equal(t, "Signup", form.FormName)
}

func TestUndoRedoAndView(t *testing.T) {
	_, _, c := setup(t)

	s := c.state(MsgUndo, nil)
	assert.False(t, s.Changed)

	c.state(MsgDragEnd, dropPalette(schema.TypeText, builder.CanvasDropID))
	s = c.state(MsgDragEnd, dropPalette(schema.TypeEmail, builder.CanvasDropID))
	require.Len(t, s.Fields, 2)
	assert.Equal(t, 2, s.UndoDepth)

	s = c.state(MsgMoveUp, FieldData{FieldID: s.Fields[1].Common().ID})
	assert.Equal(t, schema.TypeEmail, s.Fields[0].Common().Type)

	s = c.state(MsgUndo, nil)
	assert.Equal(t, schema.TypeText, s.Fields[0].Common().Type)
	assert.True(t, s.CanRedo)

	s = c.state(MsgRedo, nil)
	assert.Equal(t, schema.TypeEmail, s.Fields[0].Common().Type)

	s = c.state(MsgSetView, ViewData{View: builder.ViewJSON})
	assert.Equal(t, builder.ViewJSON, s.View)

	r := c.call(MsgRender, nil)
	var out render.Output
	require.NoError(t, json.Unmarshal(r.Data, &out))
	assert.Equal(t, render.ModeJSON, out.Mode)

	assert.Equal(t, CodeInvalidData, c.fail(MsgSetView, ViewData{View: "split"}).Code)
	assert.Equal(t, CodeUnknownType, c.fail("explode", nil).Code)
	assert.Equal(t, CodeInvalidData, c.fail(MsgReorder, "not-an-object").Code)
}

func TestLoadAndDropSavedSources(t *testing.T) {
	svc, _, c := setup(t)
	ctx := context.Background()

	form, err := svc.Form.Create(ctx, &service.CreateFormRequest{
		FormName: "Profile", CollectionName: "people",
		FormJSON: &schema.FormJSON{Fields: schema.FieldList{
			&schema.TextField{Base: schema.Base{ID: "name", Type: schema.TypeText, Label: "Name"}},
		}},
	})
	require.NoError(t, err)
	cf, err := svc.CustomField.Create(ctx, &service.CustomFieldRequest{
		FieldName: "country", FieldLabel: "Country", DataType: schema.TypeSelect, LOVEnabled: true,
		LOVItems: []schema.LOVItem{{Code: "DE", ShortName: "Germany", Status: schema.LOVActive}},
	})
	require.NoError(t, err)
	l, err := svc.Layout.Create(ctx, &service.LayoutRequest{
		LayoutName: "Address", LayoutType: layout.TypeBox,
		LayoutConfig: json.RawMessage(`{"boxes":[{"id":"box_0","title":"Address","fields":[{"id":"street","type":"text","label":"Street"},{"id":"city","type":"text","label":"City"}]}]}`),
	})
	require.NoError(t, err)

	assert.Equal(t, CodeNotFound, c.fail(MsgLoad, LoadData{Kind: DocForm, ID: "missing"}).Code)

	s := c.state(MsgLoad, LoadData{Kind: DocForm, ID: form.ID})
	assert.Equal(t, "Profile", s.Title)
	assert.False(t, s.Dirty)
	require.Len(t, s.Fields, 1)

	s = c.state(MsgDragEnd, DragEndData{Active: DragSource{Kind: builder.PayloadCustomField, CustomFieldID: cf.ID}, OverID: builder.CanvasDropID})
	require.Len(t, s.Fields, 2)
	assert.Equal(t, "Country", s.Fields[1].Common().Label)

	s = c.state(MsgDragEnd, DragEndData{Active: DragSource{Kind: builder.PayloadLayout, LayoutID: l.ID}, OverID: "name"})
	require.Len(t, s.Fields, 4)
	assert.Equal(t, "Street", s.Fields[0].Common().Label)
	assert.NotEqual(t, "street", s.Fields[0].Common().ID, "layout fields get fresh ids")

	s = c.state(MsgDragEnd, DragEndData{Active: DragSource{Kind: builder.PayloadCanvas, FieldID: "name"}, OverID: builder.CanvasDropID})
	assert.Equal(t, "name", s.Fields[3].Common().ID)

	e := c.fail(MsgDragEnd, DragEndData{Active: DragSource{Kind: builder.PayloadCustomField, CustomFieldID: "missing"}, OverID: builder.CanvasDropID})
	assert.Equal(t, CodeNotFound, e.Code)

	s = c.state(MsgLoad, LoadData{Kind: DocLayout, ID: l.ID})
	assert.Equal(t, "Address", s.Title)
	assert.Equal(t, 0, s.UndoDepth, "load resets history")
}

func TestConnectWithDocumentQuery(t *testing.T) {
	svc, err := service.NewServices(repository.NewRepositories(testutil.SetupTestDB(t)), service.Deps{})
	require.NoError(t, err)
	renderer, err := render.New()
	require.NoError(t, err)
	form, err := svc.Form.Create(context.Background(), &service.CreateFormRequest{FormName: "Q", CollectionName: "q"})
	require.NoError(t, err)

	sessions := NewManager(10)
	srv := httptest.NewServer(NewHandler(sessions, Backend{Forms: svc.Form, Layouts: svc.Layout, CustomFields: svc.CustomField}, renderer, nil))
	t.Cleanup(srv.Close)

	c := dial(t, srv.URL, "?kind=form&id="+form.ID)
	r := c.read()
	require.Equal(t, ReplyState, r.Type)
	var s StateData
	require.NoError(t, json.Unmarshal(r.Data, &s))
	assert.Equal(t, form.ID, s.DocID)
	assert.Empty(t, s.Fields)
}

func TestOriginCheck(t *testing.T) {
	svc, err := service.NewServices(repository.NewRepositories(testutil.SetupTestDB(t)), service.Deps{})
	require.NoError(t, err)
	renderer, err := render.New()
	require.NoError(t, err)
	backend := Backend{Forms: svc.Form, Layouts: svc.Layout, CustomFields: svc.CustomField}

	handshake := func(h http.Handler, origin string) (*http.Response, error) {
		srv := httptest.NewServer(h)
		t.Cleanup(srv.Close)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		conn, resp, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), &websocket.DialOptions{
			HTTPHeader: http.Header{"Origin": []string{origin}},
		})
		if err == nil {
			conn.Close(websocket.StatusNormalClosure, "")
		}
		return resp, err
	}

	sameOriginOnly := NewHandler(NewManager(10), backend, renderer, nil)
	resp, err := handshake(sameOriginOnly, "https://evil.example.net")
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	allowed := NewHandler(NewManager(10), backend, renderer, nil, WithOriginPatterns("*.example.com"))
	_, err = handshake(allowed, "https://app.example.com")
	require.NoError(t, err)
	_, err = handshake(allowed, "https://evil.example.net")
	require.Error(t, err)
}
