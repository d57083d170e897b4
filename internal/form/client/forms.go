package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/sujeethshingade/form-builder-sub000/internal/form/entity"
	"github.com/sujeethshingade/form-builder-sub000/internal/form/render"
	"github.com/sujeethshingade/form-builder-sub000/internal/form/service"
	"github.com/sujeethshingade/form-builder-sub000/internal/form/validation"
)

// FormFilter 表单列表筛选
type FormFilter struct {
	Search     string
	Collection string
}

// ListForms GET /api/forms
func (c *Client) ListForms(ctx context.Context, filter FormFilter) ([]entity.Form, error) {
	var out []entity.Form
	err := c.do(ctx, http.MethodGet, "/api/forms", values("search", filter.Search, "collection", filter.Collection), nil, &out)
	return out, err
}

// GetForm GET /api/forms/:id
func (c *Client) GetForm(ctx context.Context, id string) (*entity.Form, error) {
	var out entity.Form
	if err := c.do(ctx, http.MethodGet, "/api/forms/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateForm POST /api/forms
func (c *Client) CreateForm(ctx context.Context, req *service.CreateFormRequest) (*entity.Form, error) {
	var out entity.Form
	if err := c.do(ctx, http.MethodPost, "/api/forms", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateForm PUT /api/forms/:id
func (c *Client) UpdateForm(ctx context.Context, id string, req *service.UpdateFormRequest) (*entity.Form, error) {
	var out entity.Form
	if err := c.do(ctx, http.MethodPut, "/api/forms/"+url.PathEscape(id), nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteForm DELETE /api/forms/:id
func (c *Client) DeleteForm(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/forms/"+url.PathEscape(id), nil, nil, nil)
}

// RenderForm GET /api/forms/:id/render
func (c *Client) RenderForm(ctx context.Context, id string, mode render.Mode) (*render.Output, error) {
	var out render.Output
	if err := c.do(ctx, http.MethodGet, "/api/forms/"+url.PathEscape(id)+"/render", values("mode", string(mode)), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ValidationResult 校验结果
type ValidationResult struct {
	Valid  bool                    `json:"valid"`
	Errors []validation.FieldError `json:"errors"`
}

// ValidateForm POST /api/forms/:id/validate
func (c *Client) ValidateForm(ctx context.Context, id string, req *service.ValidateRequest) (*ValidationResult, error) {
	var out ValidationResult
	if err := c.do(ctx, http.MethodPost, "/api/forms/"+url.PathEscape(id)+"/validate", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ChangeValue POST /api/forms/:id/change
func (c *Client) ChangeValue(ctx context.Context, id string, req *service.ChangeRequest) (*service.ChangeResult, error) {
	var out service.ChangeResult
	if err := c.do(ctx, http.MethodPost, "/api/forms/"+url.PathEscape(id)+"/change", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListCollections GET /api/collections
func (c *Client) ListCollections(ctx context.Context) ([]entity.Collection, error) {
	var out []entity.Collection
	err := c.do(ctx, http.MethodGet, "/api/collections", nil, nil, &out)
	return out, err
}

// CreateCollection POST /api/collections
func (c *Client) CreateCollection(ctx context.Context, req *service.CreateCollectionRequest) (*entity.Collection, error) {
	var out entity.Collection
	if err := c.do(ctx, http.MethodPost, "/api/collections", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CollectionSchema GET /api/collections/:name/schema
func (c *Client) CollectionSchema(ctx context.Context, name string) (*entity.CollectionSchema, error) {
	var out entity.CollectionSchema
	if err := c.do(ctx, http.MethodGet, "/api/collections/"+url.PathEscape(name)+"/schema", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Submit POST /api/submissions；校验失败时 APIError.Data 为逐字段报告
func (c *Client) Submit(ctx context.Context, req *service.SubmitRequest) (*entity.Submission, error) {
	var out entity.Submission
	if err := c.do(ctx, http.MethodPost, "/api/submissions", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SubmissionFilter 提交记录筛选
type SubmissionFilter struct {
	Collection string
	FormID     string
	Limit      int
}

// ListSubmissions GET /api/submissions
func (c *Client) ListSubmissions(ctx context.Context, filter SubmissionFilter) ([]entity.Submission, error) {
	q := values("collection", filter.Collection, "formId", filter.FormID)
	if filter.Limit > 0 {
		q.Set("limit", strconv.Itoa(filter.Limit))
	}
	var out []entity.Submission
	err := c.do(ctx, http.MethodGet, "/api/submissions", q, nil, &out)
	return out, err
}

// ExportSubmissions GET /api/submissions/export，返回 xlsx 内容
func (c *Client) ExportSubmissions(ctx context.Context, collection string) ([]byte, error) {
	data, err := c.raw(ctx, "/api/submissions/export", values("collection", collection))
	return data, err
}
