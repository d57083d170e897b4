package service

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/sujeethshingade/form-builder-sub000/internal/form/entity"
	"github.com/sujeethshingade/form-builder-sub000/internal/form/layout"
	"github.com/sujeethshingade/form-builder-sub000/internal/form/render"
	"github.com/sujeethshingade/form-builder-sub000/internal/form/repository"
	"github.com/sujeethshingade/form-builder-sub000/internal/form/schema"
	"github.com/sujeethshingade/form-builder-sub000/internal/form/testutil"
	"github.com/sujeethshingade/form-builder-sub000/internal/shared/cache"
	"github.com/sujeethshingade/form-builder-sub000/internal/shared/storage"
)

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) Publish(kind, id, action string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, kind+":"+action)
}

func (r *recorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

type env struct {
	svc    *Services
	events *recorder
	mr     *miniredis.Miniredis
}

func setup(t *testing.T) env {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	events := &recorder{}
	svc, err := NewServices(repository.NewRepositories(testutil.SetupTestDB(t)), Deps{
		Cache:          cache.NewRedisCache(rdb, "test:", time.Minute),
		Store:          storage.NewLocalStore(t.TempDir(), "/uploads"),
		Events:         events,
		MaxUploadBytes: 1 << 20,
	})
	require.NoError(t, err)
	return env{svc: svc, events: events, mr: mr}
}

func signupFields() schema.FieldList {
	return schema.FieldList{
		&schema.TextField{
			Base:       schema.Base{ID: "name", Type: schema.TypeText, Label: "Full name"},
			InputAttrs: schema.InputAttrs{Required: true, ValidationRules: []schema.ValidationRule{{ID: "r1", Type: schema.RuleMinLength, Value: 5, Enabled: true, Message: "too short"}}},
		},
		&schema.TextField{
			Base:       schema.Base{ID: "email", Type: schema.TypeEmail, Label: "Email"},
			InputAttrs: schema.InputAttrs{Scripts: []schema.Script{{ID: "s1", Trigger: schema.TriggerChange, Code: "strings.ToLower(value)", Enabled: true}}},
		},
		&schema.HeadingField{Base: schema.Base{ID: "h", Type: schema.TypeHeading}, Content: "About you"},
	}
}

func createSignup(t *testing.T, e env) string {
	t.Helper()
	form, err := e.svc.Form.Create(context.Background(), &CreateFormRequest{
		FormName:       "Signup",
		CollectionName: "leads",
		FormJSON:       &schema.FormJSON{Fields: signupFields()},
	})
	require.NoError(t, err)
	return form.ID
}

func TestCreateFormValidatesBeforeWrite(t *testing.T) {
	ctx := context.Background()
	e := setup(t)

	_, err := e.svc.Form.Create(ctx, &CreateFormRequest{CollectionName: "leads"})
	assert.ErrorIs(t, err, ErrValidation)
	assert.EqualError(t, err, "Form name is required")

	_, err = e.svc.Form.Create(ctx, &CreateFormRequest{FormName: "x"})
	assert.EqualError(t, err, "Collection name is required")

	dup := schema.FieldList{
		&schema.TextField{Base: schema.Base{ID: "a", Type: schema.TypeText}},
		&schema.TextField{Base: schema.Base{ID: "a", Type: schema.TypeText}},
	}
	_, err = e.svc.Form.Create(ctx, &CreateFormRequest{FormName: "x", CollectionName: "c", FormJSON: &schema.FormJSON{Fields: dup}})
	assert.ErrorIs(t, err, ErrValidation)

	forms, err := e.svc.Form.List(ctx, repository.FormFilter{})
	require.NoError(t, err)
	assert.Empty(t, forms)
	assert.Empty(t, e.events.all())
}

func TestCreateFormDefaultsAndMirror(t *testing.T) {
	ctx := context.Background()
	e := setup(t)

	form, err := e.svc.Form.Create(ctx, &CreateFormRequest{FormName: " Blank ", CollectionName: "leads"})
	require.NoError(t, err)
	assert.Len(t, form.ID, 32)
	assert.Equal(t, "Blank", form.FormName)
	assert.NotNil(t, form.Fields())
	assert.Equal(t, schema.DefaultStyles(), form.FormJSON.Data().Styles)

	collections, err := e.svc.Collection.List(ctx)
	require.NoError(t, err)
	require.Len(t, collections, 1)
	assert.Equal(t, "leads", collections[0].Name)

	mirror, err := e.svc.Form.Schema(ctx, "leads")
	require.NoError(t, err)
	assert.Equal(t, form.ID, mirror.FormID)
	assert.Equal(t, []string{"form:created"}, e.events.all())
}

func TestUpdateFormIsPartialAndEvictsCache(t *testing.T) {
	ctx := context.Background()
	e := setup(t)
	id := createSignup(t, e)

	_, err := e.svc.Form.Get(ctx, id)
	require.NoError(t, err)
	assert.True(t, e.mr.Exists("test:form:"+id), "Get fills the cache")

	name := "Signup 2"
	updated, err := e.svc.Form.Update(ctx, id, &UpdateFormRequest{FormName: &name})
	require.NoError(t, err)
	assert.Equal(t, "Signup 2", updated.FormName)
	assert.Len(t, updated.Fields(), 3, "formJson untouched")
	assert.False(t, e.mr.Exists("test:form:"+id))

	doc := schema.FormJSON{Fields: signupFields()[:1]}
	updated, err = e.svc.Form.Update(ctx, id, &UpdateFormRequest{FormJSON: &doc})
	require.NoError(t, err)
	assert.Len(t, updated.Fields(), 1)

	got, err := e.svc.Form.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Signup 2", got.FormName)
	assert.Len(t, got.Fields(), 1)

	mirror, err := e.svc.Form.Schema(ctx, "leads")
	require.NoError(t, err)
	assert.Len(t, mirror.FormJSON.Data().Fields, 1)

	empty := "  "
	_, err = e.svc.Form.Update(ctx, id, &UpdateFormRequest{FormName: &empty})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = e.svc.Form.Update(ctx, "missing", &UpdateFormRequest{FormName: &name})
	assert.True(t, IsNotFound(err))
}

func TestDeleteForm(t *testing.T) {
	ctx := context.Background()
	e := setup(t)
	id := createSignup(t, e)

	require.NoError(t, e.svc.Form.Delete(ctx, id))
	_, err := e.svc.Form.Get(ctx, id)
	assert.True(t, IsNotFound(err))
	assert.True(t, IsNotFound(e.svc.Form.Delete(ctx, id)))
}

func TestValidateForm(t *testing.T) {
	ctx := context.Background()
	e := setup(t)
	id := createSignup(t, e)

	report, err := e.svc.Form.Validate(ctx, id, &ValidateRequest{Values: map[string]any{}})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"name": "Full name is required"}, report.Map())

	report, err = e.svc.Form.Validate(ctx, id, &ValidateRequest{Values: map[string]any{"name": "ab"}, FieldID: "name"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"name": "too short"}, report.Map())

	report, err = e.svc.Form.Validate(ctx, id, &ValidateRequest{Values: map[string]any{"name": "Alexander"}})
	require.NoError(t, err)
	assert.True(t, report.Empty())

	_, err = e.svc.Form.Validate(ctx, id, &ValidateRequest{FieldID: "nope"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestChangeRunsScripts(t *testing.T) {
	ctx := context.Background()
	e := setup(t)
	id := createSignup(t, e)

	res, err := e.svc.Form.Change(ctx, id, &ChangeRequest{FieldID: "email", Value: "Ann@Example.COM"})
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", res.Value)

	res, err = e.svc.Form.Change(ctx, id, &ChangeRequest{FieldID: "name", Value: "Ann"})
	require.NoError(t, err)
	assert.Equal(t, "Ann", res.Value, "no scripts keeps the value")

	_, err = e.svc.Form.Change(ctx, id, &ChangeRequest{})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestRenderForm(t *testing.T) {
	ctx := context.Background()
	e := setup(t)
	id := createSignup(t, e)

	out, err := e.svc.Form.Render(ctx, id, render.ModePreview, RenderOptions{Errors: map[string]string{"name": "Full name is required"}})
	require.NoError(t, err)
	assert.Contains(t, out.Body, "Signup")
	assert.Contains(t, out.Body, "Full name is required")

	out, err = e.svc.Form.Render(ctx, id, render.ModeJSON, RenderOptions{})
	require.NoError(t, err)
	assert.NotContains(t, out.Body, `""`)
}

func TestLayoutLifecycle(t *testing.T) {
	ctx := context.Background()
	e := setup(t)

	_, err := e.svc.Layout.Create(ctx, &LayoutRequest{LayoutName: "x", LayoutType: "tabs"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = e.svc.Layout.Create(ctx, &LayoutRequest{LayoutName: "x", LayoutType: layout.TypeGrid,
		LayoutConfig: json.RawMessage(`{"gridColumns":2,"columnDefs":[{"id":"a","width":20},{"id":"b","width":1}]}`)})
	assert.ErrorIs(t, err, ErrValidation)

	l, err := e.svc.Layout.Create(ctx, &LayoutRequest{
		LayoutName: "Address", LayoutType: layout.TypeBox, Category: "Contact",
		LayoutConfig: json.RawMessage(`{"boxes":[{"id":"box_0","title":"Address","fields":[{"id":"street","type":"text","label":"Street"}]}]}`),
	})
	require.NoError(t, err)

	_, box, err := e.svc.Layout.AddBox(ctx, l.ID, "")
	require.NoError(t, err)
	assert.Equal(t, "box_1", box.ID)
	assert.Equal(t, "street_1", box.Fields[0].Common().ID)

	fields, err := e.svc.Layout.DropFields(ctx, l.ID)
	require.NoError(t, err)
	assert.Len(t, fields, 2, "template box plus the added box")

	categories, err := e.svc.Layout.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Contact"}, categories)

	grid, err := e.svc.Layout.Create(ctx, &LayoutRequest{LayoutName: "Grid", LayoutType: layout.TypeGrid, Category: "Basic",
		Fields: schema.FieldList{&schema.TextField{Base: schema.Base{ID: "a", Type: schema.TypeText}}}})
	require.NoError(t, err)
	categories, err = e.svc.Layout.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Basic", "Contact"}, categories, "create evicts the category cache")

	_, _, err = e.svc.Layout.AddBox(ctx, grid.ID, "")
	assert.ErrorIs(t, err, ErrValidation)

	list, err := e.svc.Layout.List(ctx, repository.LayoutFilter{Type: string(layout.TypeGrid)})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = e.svc.Layout.Update(ctx, grid.ID, &LayoutRequest{LayoutName: "Grid 2", LayoutType: layout.TypeGrid})
	require.NoError(t, err)

	require.NoError(t, e.svc.Layout.Delete(ctx, grid.ID))
	assert.True(t, IsNotFound(e.svc.Layout.Delete(ctx, grid.ID)))
}

func TestDropFieldsExpandsGroupReferences(t *testing.T) {
	ctx := context.Background()
	e := setup(t)

	addr, err := e.svc.Layout.Create(ctx, &LayoutRequest{
		LayoutName: "Address", LayoutType: layout.TypeBox,
		LayoutConfig: json.RawMessage(`{"boxes":[{"id":"box_0","title":"Address","fields":[{"id":"street","type":"text"},{"id":"city","type":"text"}]}]}`),
	})
	require.NoError(t, err)

	group, err := e.svc.Layout.Create(ctx, &LayoutRequest{
		LayoutName: "Customer", LayoutType: layout.TypeGroup,
		LayoutConfig: json.RawMessage(`{"groups":[
			{"id":"g1","name":"Who","fields":[{"id":"name","type":"text"}]},
			{"id":"g2","name":"Where","fields":[],"layoutRef":"` + addr.ID + `"},
			{"id":"g3","name":"Gone","fields":[],"layoutRef":"deleted-layout"}
		]}`),
	})
	require.NoError(t, err)

	fields, err := e.svc.Layout.DropFields(ctx, group.ID)
	require.NoError(t, err)
	require.Len(t, fields, 3)
	assert.Equal(t, "name", fields[0].Common().ID)
	assert.Equal(t, "street", fields[1].Common().ID)
	assert.Equal(t, "city", fields[2].Common().ID)

	// 互相引用的两个表单组不会无限展开
	other, err := e.svc.Layout.Create(ctx, &LayoutRequest{
		LayoutName: "Back", LayoutType: layout.TypeGroup,
		LayoutConfig: json.RawMessage(`{"groups":[{"id":"b","fields":[{"id":"back","type":"text"}],"layoutRef":"` + group.ID + `"}]}`),
	})
	require.NoError(t, err)
	_, err = e.svc.Layout.Update(ctx, group.ID, &LayoutRequest{
		LayoutName: "Customer", LayoutType: layout.TypeGroup,
		LayoutConfig: json.RawMessage(`{"groups":[{"id":"g1","fields":[{"id":"name","type":"text"}],"layoutRef":"` + other.ID + `"}]}`),
	})
	require.NoError(t, err)

	fields, err = e.svc.Layout.DropFields(ctx, group.ID)
	require.NoError(t, err)
	require.Len(t, fields, 2)
	assert.Equal(t, "back", fields[1].Common().ID)
}

func TestCustomFieldLifecycle(t *testing.T) {
	ctx := context.Background()
	e := setup(t)

	_, err := e.svc.CustomField.Create(ctx, &CustomFieldRequest{FieldName: "x", DataType: schema.TypeHeading})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = e.svc.CustomField.Create(ctx, &CustomFieldRequest{FieldName: "x", DataType: schema.TypeSelect, LOVEnabled: true, LOVType: entity.LOVDynamicAPI})
	assert.ErrorIs(t, err, ErrValidation)

	cf, err := e.svc.CustomField.Create(ctx, &CustomFieldRequest{
		FieldName: "country", FieldLabel: "Country", DataType: schema.TypeSelect, Category: "Geo", LOVEnabled: true,
		LOVItems: []schema.LOVItem{
			{Code: "DE", ShortName: "Germany", Status: schema.LOVActive},
			{Code: "XX", ShortName: "Gone", Status: schema.LOVInactive},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "user-defined", string(cf.LOVType))

	src, err := e.svc.CustomField.Source(ctx, cf.ID)
	require.NoError(t, err)
	assert.Equal(t, "country", src.FieldName)
	assert.Len(t, src.LOVItems, 2)

	categories, err := e.svc.CustomField.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Geo"}, categories)

	_, err = e.svc.CustomField.Update(ctx, cf.ID, &CustomFieldRequest{FieldName: "country", DataType: schema.TypeRadio, Category: "Places"})
	require.NoError(t, err)
	categories, err = e.svc.CustomField.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Places"}, categories)

	require.NoError(t, e.svc.CustomField.Delete(ctx, cf.ID))
	_, err = e.svc.CustomField.Get(ctx, cf.ID)
	assert.True(t, IsNotFound(err))
}

func TestCollectionCreate(t *testing.T) {
	ctx := context.Background()
	e := setup(t)

	_, err := e.svc.Collection.Create(ctx, &CreateCollectionRequest{Name: "bad name"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = e.svc.Collection.Create(ctx, &CreateCollectionRequest{Name: "leads"})
	require.NoError(t, err)
	_, err = e.svc.Collection.Create(ctx, &CreateCollectionRequest{Name: "leads"})
	assert.EqualError(t, err, "Collection already exists: leads")
}

func TestSubmitBlockedByValidation(t *testing.T) {
	ctx := context.Background()
	e := setup(t)
	id := createSignup(t, e)

	_, err := e.svc.Submission.Submit(ctx, &SubmitRequest{FormID: id, Data: map[string]any{"name": "ab"}})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	require.NotNil(t, ve.Report)
	assert.Equal(t, "too short", ve.Report.Map()["name"])
	assert.True(t, strings.HasPrefix(ve.Message, "Please fix the following errors:"))

	items, err := e.svc.Submission.List(ctx, repository.SubmissionFilter{Collection: "leads"})
	require.NoError(t, err)
	assert.Empty(t, items, "nothing written")
}

func TestSubmitAndExport(t *testing.T) {
	ctx := context.Background()
	e := setup(t)
	id := createSignup(t, e)

	sub, err := e.svc.Submission.Submit(ctx, &SubmitRequest{FormID: id, Data: map[string]any{"name": "Alexander", "email": "a@b.co"}})
	require.NoError(t, err)
	assert.Equal(t, "leads", sub.CollectionName, "collection comes from the form")
	assert.Equal(t, "Signup", sub.FormName)

	_, err = e.svc.Submission.Submit(ctx, &SubmitRequest{CollectionName: "leads", Data: map[string]any{"name": "Bea", "tags": []any{"a", "b"}}})
	require.NoError(t, err)

	_, err = e.svc.Submission.Submit(ctx, &SubmitRequest{Data: map[string]any{}})
	assert.ErrorIs(t, err, ErrValidation)

	f, filename, err := e.svc.Submission.Export(ctx, "leads")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(filename, "leads_"))

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	book, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	rows, err := book.GetRows("Submissions")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"ID", "Submitted At", "Full name", "Email"}, rows[0])

	names := []string{rows[1][2], rows[2][2]}
	assert.ElementsMatch(t, []string{"Alexander", "Bea"}, names)
}

func TestUpload(t *testing.T) {
	ctx := context.Background()
	e := setup(t)

	ref, err := e.svc.Upload.Upload(ctx, UploadInput{FieldID: "cv", Filename: "cv.pdf", Size: 3, Reader: strings.NewReader("pdf")})
	require.NoError(t, err)
	assert.Equal(t, "application/octet-stream", ref.ContentType)
	assert.True(t, strings.HasPrefix(ref.URL, "/uploads/"))

	rc, err := e.svc.Upload.Open(ctx, ref.ObjectName)
	require.NoError(t, err)
	rc.Close()

	_, err = e.svc.Upload.Upload(ctx, UploadInput{Filename: "big.bin", Size: 2 << 20, Reader: strings.NewReader("")})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = NewUploadService(Deps{}).Upload(ctx, UploadInput{Filename: "a"})
	assert.ErrorIs(t, err, ErrStorageDisabled)
}
