package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/sujeethshingade/form-builder-sub000/internal/form/entity"
	"github.com/sujeethshingade/form-builder-sub000/internal/form/layout"
	"github.com/sujeethshingade/form-builder-sub000/internal/form/schema"
	"github.com/sujeethshingade/form-builder-sub000/internal/form/testutil"
)

func formJSON(fields ...schema.Field) datatypes.JSONType[schema.FormJSON] {
	return datatypes.NewJSONType(schema.FormJSON{Fields: fields, Styles: schema.DefaultStyles()})
}

func TestFormRepositoryCRUD(t *testing.T) {
	ctx := context.Background()
	repos := NewRepositories(testutil.SetupTestDB(t))

	signup := &entity.Form{ID: "f1", FormName: "Signup", CollectionName: "leads",
		FormJSON: formJSON(&schema.TextField{Base: schema.Base{ID: "name", Type: schema.TypeText, Label: "Name"}})}
	survey := &entity.Form{ID: "f2", FormName: "Survey", CollectionName: "feedback", FormJSON: formJSON()}
	require.NoError(t, repos.Form.Create(ctx, signup))
	require.NoError(t, repos.Form.Create(ctx, survey))

	got, err := repos.Form.FindByID(ctx, "f1")
	require.NoError(t, err)
	require.Len(t, got.Fields(), 1)
	assert.Equal(t, "Name", got.Fields()[0].Common().Label)

	list, err := repos.Form.List(ctx, FormFilter{Search: "SIGN"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "f1", list[0].ID)

	list, err = repos.Form.List(ctx, FormFilter{Collection: "feedback"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "f2", list[0].ID)

	got.FormName = "Signup v2"
	require.NoError(t, repos.Form.Save(ctx, got))
	got, err = repos.Form.FindByID(ctx, "f1")
	require.NoError(t, err)
	assert.Equal(t, "Signup v2", got.FormName)

	require.NoError(t, repos.Form.Delete(ctx, "f1"))
	_, err = repos.Form.FindByID(ctx, "f1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repos.Form.Delete(ctx, "f1"), ErrNotFound)
}

func TestUpsertSchemaOverwrites(t *testing.T) {
	ctx := context.Background()
	repos := NewRepositories(testutil.SetupTestDB(t))

	require.NoError(t, repos.Form.UpsertSchema(ctx, &entity.CollectionSchema{CollectionName: "leads", FormID: "f1", FormJSON: formJSON()}))
	require.NoError(t, repos.Form.UpsertSchema(ctx, &entity.CollectionSchema{CollectionName: "leads", FormID: "f2", FormName: "B", FormJSON: formJSON(
		&schema.DateField{Base: schema.Base{ID: "d", Type: schema.TypeDate}},
	)}))

	mirror, err := repos.Form.FindSchema(ctx, "leads")
	require.NoError(t, err)
	assert.Equal(t, "f2", mirror.FormID)
	assert.Len(t, mirror.FormJSON.Data().Fields, 1)

	_, err = repos.Form.FindSchema(ctx, "none")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLayoutRepositoryFiltersAndCategories(t *testing.T) {
	ctx := context.Background()
	repos := NewRepositories(testutil.SetupTestDB(t))

	for _, l := range []*entity.Layout{
		{ID: "l1", LayoutName: "Address block", LayoutType: layout.TypeBox, Category: "Contact", LayoutConfig: datatypes.JSON("{}")},
		{ID: "l2", LayoutName: "Two columns", LayoutType: layout.TypeGrid, Category: "Basic", LayoutConfig: datatypes.JSON("{}")},
		{ID: "l3", LayoutName: "Contact group", LayoutType: layout.TypeGroup, Category: "Contact", LayoutConfig: datatypes.JSON("{}")},
		{ID: "l4", LayoutName: "Loose", LayoutType: layout.TypeGrid, LayoutConfig: datatypes.JSON("{}")},
	} {
		require.NoError(t, repos.Layout.Create(ctx, l))
	}

	list, err := repos.Layout.List(ctx, LayoutFilter{Type: string(layout.TypeGrid)})
	require.NoError(t, err)
	assert.Len(t, list, 2)

	list, err = repos.Layout.List(ctx, LayoutFilter{Category: "Contact", Search: "group"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "l3", list[0].ID)

	categories, err := repos.Layout.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Basic", "Contact"}, categories)
}

func TestCustomFieldRepository(t *testing.T) {
	ctx := context.Background()
	repos := NewRepositories(testutil.SetupTestDB(t))

	cf := &entity.CustomField{
		ID: "c1", FieldName: "country", FieldLabel: "Country", DataType: schema.TypeSelect, Category: "Geo",
		LOVEnabled: true, LOVType: entity.LOVUserDefined, APIConfig: datatypes.JSONMap{},
		LOVItems: datatypes.NewJSONType([]schema.LOVItem{{Code: "DE", ShortName: "Germany", Status: schema.LOVActive}}),
	}
	require.NoError(t, repos.CustomField.Create(ctx, cf))

	got, err := repos.CustomField.FindByID(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "Germany", got.LOVItems.Data()[0].ShortName)

	list, err := repos.CustomField.List(ctx, CustomFieldFilter{Search: "coun"})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	categories, err := repos.CustomField.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Geo"}, categories)
}

func TestCollectionEnsureIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repos := NewRepositories(testutil.SetupTestDB(t))

	first, err := repos.Collection.Ensure(ctx, &entity.Collection{ID: "a", Name: "leads"})
	require.NoError(t, err)
	second, err := repos.Collection.Ensure(ctx, &entity.Collection{ID: "b", Name: "leads"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	list, err := repos.Collection.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestSubmissionRepository(t *testing.T) {
	ctx := context.Background()
	repos := NewRepositories(testutil.SetupTestDB(t))

	now := time.Now()
	require.NoError(t, repos.Submission.Create(ctx, &entity.Submission{ID: "s1", CollectionName: "leads", Data: datatypes.JSONMap{"name": "Ann"}, SubmittedAt: now.Add(-time.Minute)}))
	require.NoError(t, repos.Submission.Create(ctx, &entity.Submission{ID: "s2", CollectionName: "leads", FormID: "f1", Data: datatypes.JSONMap{"name": "Bob"}, SubmittedAt: now}))
	require.NoError(t, repos.Submission.Create(ctx, &entity.Submission{ID: "s3", CollectionName: "other", Data: datatypes.JSONMap{}, SubmittedAt: now}))

	list, err := repos.Submission.List(ctx, SubmissionFilter{Collection: "leads"})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "s2", list[0].ID, "newest first")
	assert.Equal(t, "Bob", list[0].Data["name"])

	list, err = repos.Submission.List(ctx, SubmissionFilter{FormID: "f1"})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	n, err := repos.Submission.Count(ctx, "leads")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}
