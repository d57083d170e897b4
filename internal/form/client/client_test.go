package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/sujeethshingade/form-builder-sub000/internal/form/handler"
	"github.com/sujeethshingade/form-builder-sub000/internal/form/layout"
	"github.com/sujeethshingade/form-builder-sub000/internal/form/render"
	"github.com/sujeethshingade/form-builder-sub000/internal/form/repository"
	"github.com/sujeethshingade/form-builder-sub000/internal/form/schema"
	"github.com/sujeethshingade/form-builder-sub000/internal/form/service"
	"github.com/sujeethshingade/form-builder-sub000/internal/form/testutil"
	"github.com/sujeethshingade/form-builder-sub000/internal/middleware"
	"github.com/sujeethshingade/form-builder-sub000/internal/shared/storage"
)

func newClient(t *testing.T) *Client {
	t.Helper()
	db := testutil.SetupTestDB(t)
	svc, err := service.NewServices(repository.NewRepositories(db), service.Deps{
		Store: storage.NewLocalStore(t.TempDir(), "/api/uploads"),
	})
	require.NoError(t, err)

	r := testutil.SetupRouter()
	handler.Register(r, handler.NewHandlers(svc, handler.Options{DB: db}), middleware.OptionalAuth(false, ""))
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return New(srv.URL + "/")
}

func apiError(t *testing.T, err error) *APIError {
	t.Helper()
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr), "want *APIError, got %v", err)
	return apiErr
}

func TestFormLifecycle(t *testing.T) {
	ctx := context.Background()
	c := newClient(t)
	require.NoError(t, c.Ready(ctx))

	_, err := c.CreateForm(ctx, &service.CreateFormRequest{FormName: "Signup"})
	apiErr := apiError(t, err)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "Collection name is required", apiErr.Message)

	form, err := c.CreateForm(ctx, &service.CreateFormRequest{
		FormName: "Signup", CollectionName: "leads",
		FormJSON: &schema.FormJSON{Fields: schema.FieldList{
			&schema.TextField{
				Base:       schema.Base{ID: "name", Type: schema.TypeText, Label: "Full name"},
				InputAttrs: schema.InputAttrs{Required: true},
			},
		}},
	})
	require.NoError(t, err)
	assert.Len(t, form.Fields(), 1)

	forms, err := c.ListForms(ctx, FormFilter{Collection: "leads"})
	require.NoError(t, err)
	assert.Len(t, forms, 1)

	name := "Signup v2"
	form, err = c.UpdateForm(ctx, form.ID, &service.UpdateFormRequest{FormName: &name})
	require.NoError(t, err)
	assert.Equal(t, "Signup v2", form.FormName)

	out, err := c.RenderForm(ctx, form.ID, render.ModeJSON)
	require.NoError(t, err)
	var compact []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out.Body), &compact))
	assert.Equal(t, "name", compact[0]["id"])

	res, err := c.ValidateForm(ctx, form.ID, &service.ValidateRequest{Values: map[string]any{}})
	require.NoError(t, err)
	assert.False(t, res.Valid)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "name", res.Errors[0].FieldID)

	_, err = c.Submit(ctx, &service.SubmitRequest{FormID: form.ID, Data: map[string]any{}})
	apiErr = apiError(t, err)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Contains(t, string(apiErr.Data), `"fieldId":"name"`)

	sub, err := c.Submit(ctx, &service.SubmitRequest{FormID: form.ID, Data: map[string]any{"name": "Ann"}})
	require.NoError(t, err)
	assert.Equal(t, "leads", sub.CollectionName)

	subs, err := c.ListSubmissions(ctx, SubmissionFilter{Collection: "leads", Limit: 10})
	require.NoError(t, err)
	assert.Len(t, subs, 1)

	data, err := c.ExportSubmissions(ctx, "leads")
	require.NoError(t, err)
	book, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	rows, err := book.GetRows("Submissions")
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	mirror, err := c.CollectionSchema(ctx, "leads")
	require.NoError(t, err)
	assert.Equal(t, form.ID, mirror.FormID)

	collections, err := c.ListCollections(ctx)
	require.NoError(t, err)
	assert.Len(t, collections, 1)

	require.NoError(t, c.DeleteForm(ctx, form.ID))
	_, err = c.GetForm(ctx, form.ID)
	apiErr = apiError(t, err)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "Form not found", apiErr.Message)
}

func TestLibraryEndpoints(t *testing.T) {
	ctx := context.Background()
	c := newClient(t)

	l, err := c.CreateLayout(ctx, &service.LayoutRequest{
		LayoutName: "Address", LayoutType: layout.TypeBox, Category: "Contact",
		LayoutConfig: json.RawMessage(`{"boxes":[{"id":"box_0","title":"Address","fields":[{"id":"street","type":"text","label":"Street"}]}]}`),
	})
	require.NoError(t, err)

	added, err := c.AddBox(ctx, l.ID, "Billing")
	require.NoError(t, err)
	assert.Equal(t, "Billing", added.Box.Title)

	fields, err := c.LayoutFields(ctx, l.ID)
	require.NoError(t, err)
	assert.Len(t, fields, 2)

	categories, err := c.TemplateCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Contact"}, categories)

	cf, err := c.CreateCustomField(ctx, &service.CustomFieldRequest{FieldName: "age", DataType: schema.TypeNumber, Category: "Person"})
	require.NoError(t, err)
	list, err := c.ListCustomFields(ctx, CustomFieldFilter{Category: "Person"})
	require.NoError(t, err)
	assert.Len(t, list, 1)
	cfCategories, err := c.CustomFieldCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Person"}, cfCategories)
	require.NoError(t, c.DeleteCustomField(ctx, cf.ID))

	items, err := c.Palette(ctx)
	require.NoError(t, err)
	assert.Len(t, items, len(schema.AllTypes))

	res, err := c.Inspect(ctx, &schema.TextField{Base: schema.Base{ID: "f1", Type: schema.TypeText, Label: "A"}}, "label", "B")
	require.NoError(t, err)
	assert.Equal(t, "B", res.Field.Common().Label)
	assert.Equal(t, "f1", res.Inspector.FieldID)

	refs, err := c.Upload(ctx, "cv", "cv.txt", bytes.NewBufferString("hello"))
	require.NoError(t, err)
	require.Len(t, refs, 1)
	content, err := c.Download(ctx, refs[0].ObjectName)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(content))

	_, err = c.Download(ctx, "2020/01/nope.txt")
	assert.Equal(t, http.StatusNotFound, apiError(t, err).Status)
}
