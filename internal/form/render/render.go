// Package render 画布渲染：编辑卡片、可提交的预览表单、JSON 导出
//
// 三种模式共用同一个 字段 → 标记 的分支 (field.tmpl)，差别只在外层包装。
package render

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"strings"

	"github.com/sujeethshingade/form-builder-sub000/internal/form/schema"
)

// Mode 渲染模式
type Mode string

const (
	ModeEdit    Mode = "edit"
	ModePreview Mode = "preview"
	ModeJSON    Mode = "json"
)

// ParseMode 解析模式，空串默认为 edit
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModeEdit, nil
	case ModeEdit, ModePreview, ModeJSON:
		return m, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

var ErrUnknownMode = errors.New("unknown render mode")

//go:embed templates/*.tmpl
var templateFS embed.FS

// Renderer 渲染器，模板在构造时解析，之后只读，可并发使用
type Renderer struct {
	tmpl *template.Template
}

// New 解析内置模板
func New() (*Renderer, error) {
	tmpl, err := template.New("render").Funcs(funcs).ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Document 待渲染的文档
type Document struct {
	Title      string
	Fields     schema.FieldList
	Styles     schema.FormStyles
	SelectedID string
	Values     map[string]any
	Errors     map[string]string
	Action     string
}

// Output 渲染结果
type Output struct {
	Mode        Mode   `json:"mode"`
	ContentType string `json:"contentType"`
	Body        string `json:"body"`
}

// Render 按模式渲染
func (r *Renderer) Render(mode Mode, doc Document) (Output, error) {
	switch mode {
	case ModeJSON:
		data, err := schema.Compact(doc.Fields)
		if err != nil {
			return Output{}, fmt.Errorf("export json: %w", err)
		}
		return Output{Mode: mode, ContentType: "application/json; charset=utf-8", Body: string(data)}, nil
	case ModeEdit, ModePreview:
		var buf bytes.Buffer
		view := newView(mode, doc)
		if err := r.tmpl.ExecuteTemplate(&buf, string(mode)+".tmpl", view); err != nil {
			return Output{}, fmt.Errorf("render %s: %w", mode, err)
		}
		return Output{Mode: mode, ContentType: "text/html; charset=utf-8", Body: buf.String()}, nil
	}
	return Output{}, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
}

// fieldView 模板使用的单字段数据
type fieldView struct {
	Field    schema.Field
	Base     *schema.Base
	Input    *schema.InputAttrs
	Mode     Mode
	Name     string
	Selected bool
	Disabled bool
	Readonly bool
	Required bool
	Value    any
	Error    string
}

type pageView struct {
	Title  string
	Mode   Mode
	Styles schema.FormStyles
	Fields []fieldView
	Action string
}

func newView(mode Mode, doc Document) pageView {
	styles := doc.Styles
	if styles == (schema.FormStyles{}) {
		styles = schema.DefaultStyles()
	}
	pv := pageView{Title: doc.Title, Mode: mode, Styles: styles, Action: doc.Action}
	for _, f := range doc.Fields {
		b := f.Common()
		fv := fieldView{
			Field:    f,
			Base:     b,
			Input:    schema.Inputs(f),
			Mode:     mode,
			Name:     b.ID,
			Selected: b.ID == doc.SelectedID,
			Disabled: mode == ModeEdit,
			Value:    lookupValue(doc.Values, b),
			Error:    doc.Errors[b.ID],
		}
		if b.Name != "" {
			fv.Name = b.Name
		}
		if in := fv.Input; in != nil {
			fv.Disabled = fv.Disabled || in.Disabled
			fv.Readonly = in.Readonly
			fv.Required = in.Required
		}
		pv.Fields = append(pv.Fields, fv)
	}
	return pv
}

func lookupValue(values map[string]any, b *schema.Base) any {
	if v, ok := values[b.ID]; ok {
		return v
	}
	if b.Name != "" {
		return values[b.Name]
	}
	return nil
}

var funcs = template.FuncMap{
	"str": func(v any) string {
		if v == nil {
			return ""
		}
		return fmt.Sprint(v)
	},
	"checked": func(value any, option string) bool {
		switch v := value.(type) {
		case string:
			return v == option
		case []any:
			for _, x := range v {
				if fmt.Sprint(x) == option {
					return true
				}
			}
		case []string:
			for _, x := range v {
				if x == option {
					return true
				}
			}
		}
		return false
	},
	"num": func(p *float64) string {
		if p == nil {
			return ""
		}
		return fmt.Sprint(*p)
	},
	"intp": func(p *int) string {
		if p == nil {
			return ""
		}
		return fmt.Sprint(*p)
	},
	"headingTag": func(tag string) string {
		switch tag {
		case "h1", "h2", "h3", "h4", "h5", "h6":
			return tag
		}
		return "h2"
	},
	"cell": func(row map[string]any, col string) string {
		if v, ok := row[col]; ok && v != nil {
			return fmt.Sprint(v)
		}
		return ""
	},
	"inputType": func(t schema.FieldType) string {
		switch t {
		case schema.TypeEmail, schema.TypeURL, schema.TypeNumber, schema.TypeDate, schema.TypeFile:
			return string(t)
		case schema.TypeSlider:
			return "range"
		}
		return "text"
	},
	"styleAttr": func(s schema.FormStyles) template.CSS {
		return template.CSS(fmt.Sprintf("background-color:%s;color:%s;border-radius:%s;font-family:%s;--primary-color:%s",
			cssValue(s.BackgroundColor), cssValue(s.TextColor), cssValue(s.BorderRadius), cssValue(s.FontFamily), cssValue(s.PrimaryColor)))
	},
}

// cssValue 去掉可能逃逸出声明的字符
func cssValue(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ';', '{', '}', '<', '>', '"', '\\':
			return -1
		}
		return r
	}, s)
}
