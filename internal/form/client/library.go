package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/sujeethshingade/form-builder-sub000/internal/form/entity"
	"github.com/sujeethshingade/form-builder-sub000/internal/form/inspector"
	"github.com/sujeethshingade/form-builder-sub000/internal/form/layout"
	"github.com/sujeethshingade/form-builder-sub000/internal/form/palette"
	"github.com/sujeethshingade/form-builder-sub000/internal/form/schema"
	"github.com/sujeethshingade/form-builder-sub000/internal/form/service"
)

// LayoutFilter 布局列表筛选
type LayoutFilter struct {
	Type     string
	Category string
	Search   string
}

// ListLayouts GET /api/form-layouts
func (c *Client) ListLayouts(ctx context.Context, filter LayoutFilter) ([]entity.Layout, error) {
	var out []entity.Layout
	q := values("type", filter.Type, "category", filter.Category, "search", filter.Search)
	err := c.do(ctx, http.MethodGet, "/api/form-layouts", q, nil, &out)
	return out, err
}

// GetLayout GET /api/form-layouts/:id
func (c *Client) GetLayout(ctx context.Context, id string) (*entity.Layout, error) {
	var out entity.Layout
	if err := c.do(ctx, http.MethodGet, "/api/form-layouts/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateLayout POST /api/form-layouts
func (c *Client) CreateLayout(ctx context.Context, req *service.LayoutRequest) (*entity.Layout, error) {
	var out entity.Layout
	if err := c.do(ctx, http.MethodPost, "/api/form-layouts", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateLayout PUT /api/form-layouts/:id
func (c *Client) UpdateLayout(ctx context.Context, id string, req *service.LayoutRequest) (*entity.Layout, error) {
	var out entity.Layout
	if err := c.do(ctx, http.MethodPut, "/api/form-layouts/"+url.PathEscape(id), nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteLayout DELETE /api/form-layouts/:id
func (c *Client) DeleteLayout(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/form-layouts/"+url.PathEscape(id), nil, nil, nil)
}

// AddBoxResult 追加盒子结果
type AddBoxResult struct {
	Layout entity.Layout `json:"layout"`
	Box    layout.Box    `json:"box"`
}

// AddBox POST /api/form-layouts/:id/boxes
func (c *Client) AddBox(ctx context.Context, id, title string) (*AddBoxResult, error) {
	var out AddBoxResult
	body := map[string]string{"title": title}
	if err := c.do(ctx, http.MethodPost, "/api/form-layouts/"+url.PathEscape(id)+"/boxes", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// LayoutFields GET /api/form-layouts/:id/fields
func (c *Client) LayoutFields(ctx context.Context, id string) (schema.FieldList, error) {
	var out schema.FieldList
	err := c.do(ctx, http.MethodGet, "/api/form-layouts/"+url.PathEscape(id)+"/fields", nil, nil, &out)
	return out, err
}

// TemplateCategories GET /api/templates/categories
func (c *Client) TemplateCategories(ctx context.Context) ([]string, error) {
	var out []string
	err := c.do(ctx, http.MethodGet, "/api/templates/categories", nil, nil, &out)
	return out, err
}

// CustomFieldFilter 自定义字段筛选
type CustomFieldFilter struct {
	Category string
	Search   string
}

// ListCustomFields GET /api/custom-fields
func (c *Client) ListCustomFields(ctx context.Context, filter CustomFieldFilter) ([]entity.CustomField, error) {
	var out []entity.CustomField
	err := c.do(ctx, http.MethodGet, "/api/custom-fields", values("category", filter.Category, "search", filter.Search), nil, &out)
	return out, err
}

// GetCustomField GET /api/custom-fields/:id
func (c *Client) GetCustomField(ctx context.Context, id string) (*entity.CustomField, error) {
	var out entity.CustomField
	if err := c.do(ctx, http.MethodGet, "/api/custom-fields/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateCustomField POST /api/custom-fields
func (c *Client) CreateCustomField(ctx context.Context, req *service.CustomFieldRequest) (*entity.CustomField, error) {
	var out entity.CustomField
	if err := c.do(ctx, http.MethodPost, "/api/custom-fields", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateCustomField PUT /api/custom-fields/:id
func (c *Client) UpdateCustomField(ctx context.Context, id string, req *service.CustomFieldRequest) (*entity.CustomField, error) {
	var out entity.CustomField
	if err := c.do(ctx, http.MethodPut, "/api/custom-fields/"+url.PathEscape(id), nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteCustomField DELETE /api/custom-fields/:id
func (c *Client) DeleteCustomField(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/custom-fields/"+url.PathEscape(id), nil, nil, nil)
}

// CustomFieldCategories GET /api/custom-fields/categories
func (c *Client) CustomFieldCategories(ctx context.Context) ([]string, error) {
	var out []string
	err := c.do(ctx, http.MethodGet, "/api/custom-fields/categories", nil, nil, &out)
	return out, err
}

// Palette GET /api/palette
func (c *Client) Palette(ctx context.Context) ([]palette.Item, error) {
	var out []palette.Item
	err := c.do(ctx, http.MethodGet, "/api/palette", nil, nil, &out)
	return out, err
}

// InspectResult 检查器结果
type InspectResult struct {
	Field     schema.Field
	Inspector inspector.View
}

// Inspect POST /api/inspector；key 非空时返回修改后的字段
func (c *Client) Inspect(ctx context.Context, f schema.Field, key string, value any) (*InspectResult, error) {
	body := map[string]any{"field": f}
	if key != "" {
		body["key"] = key
		body["value"] = value
	}
	var out struct {
		Field     json.RawMessage `json:"field"`
		Inspector inspector.View  `json:"inspector"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/inspector", nil, body, &out); err != nil {
		return nil, err
	}
	field, err := schema.DecodeField(out.Field)
	if err != nil {
		return nil, fmt.Errorf("decode field: %w", err)
	}
	return &InspectResult{Field: field, Inspector: out.Inspector}, nil
}

// Upload POST /api/uploads，以 multipart 上传单个文件
func (c *Client) Upload(ctx context.Context, fieldID, filename string, r io.Reader) ([]entity.FileRef, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if fieldID != "" {
		if err := mw.WriteField("fieldId", fieldID); err != nil {
			return nil, err
		}
	}
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("copy upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/api/uploads", nil, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	var out []entity.FileRef
	if err := c.send(req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Download GET /api/uploads/*object
func (c *Client) Download(ctx context.Context, objectName string) ([]byte, error) {
	data, err := c.raw(ctx, "/api/uploads/"+strings.TrimPrefix(objectName, "/"), nil)
	return data, err
}
