// Package palette 字段库：字段类型到默认属性与图标的静态映射
package palette

import (
	"fmt"

	"github.com/sujeethshingade/form-builder-sub000/internal/form/schema"
)

// 分类
const (
	CategoryInputs   = "Inputs"
	CategoryChoices  = "Choices"
	CategoryAdvanced = "Advanced"
	CategoryLayout   = "Layout"
)

// Item 字段库条目
type Item struct {
	Type     schema.FieldType `json:"type"`
	Label    string           `json:"label"`
	Icon     string           `json:"icon"`
	Category string           `json:"category"`

	defaults func() schema.Field
}

// Registry 字段库
type Registry struct {
	items map[schema.FieldType]*Item
	order []schema.FieldType
}

// NewRegistry 创建空字段库
func NewRegistry() *Registry {
	return &Registry{items: make(map[schema.FieldType]*Item)}
}

// Register 注册条目，defaults 每次调用必须返回新值
func (r *Registry) Register(item Item, defaults func() schema.Field) {
	item.defaults = defaults
	if _, exists := r.items[item.Type]; !exists {
		r.order = append(r.order, item.Type)
	}
	r.items[item.Type] = &item
}

// Lookup 查找条目
func (r *Registry) Lookup(t schema.FieldType) (Item, bool) {
	it, ok := r.items[t]
	if !ok {
		return Item{}, false
	}
	return *it, true
}

// Items 按展示顺序返回全部条目
func (r *Registry) Items() []Item {
	out := make([]Item, 0, len(r.order))
	for _, t := range r.order {
		out = append(out, *r.items[t])
	}
	return out
}

// Defaults 返回类型的默认字段（不含ID）
func (r *Registry) Defaults(t schema.FieldType) (schema.Field, bool) {
	it, ok := r.items[t]
	if !ok {
		return nil, false
	}
	f := it.defaults()
	f.Common().Type = t
	return f, true
}

// Instantiate 按默认属性创建字段并分配新ID；未知类型返回 false
func (r *Registry) Instantiate(t schema.FieldType) (schema.Field, bool) {
	f, ok := r.Defaults(t)
	if !ok {
		return nil, false
	}
	f.Common().ID = schema.NewID()
	return f, true
}

var defaultRegistry = buildDefault()

// Default 内置字段库
func Default() *Registry {
	return defaultRegistry
}

func defaultOptions() []schema.Option {
	opts := make([]schema.Option, 3)
	for i := range opts {
		opts[i] = schema.Option{
			Value: fmt.Sprintf("option_%d", i+1),
			Label: fmt.Sprintf("Option %d", i+1),
		}
	}
	return opts
}

func floatPtr(v float64) *float64 { return &v }

func base(label string) schema.Base {
	return schema.Base{Label: label, WidthColumns: schema.MaxWidthColumns}
}

func buildDefault() *Registry {
	r := NewRegistry()

	r.Register(Item{Type: schema.TypeText, Label: "Text Input", Icon: "type", Category: CategoryInputs}, func() schema.Field {
		return &schema.TextField{Base: base("Text Input"), InputAttrs: schema.InputAttrs{Placeholder: "Enter text"}}
	})
	r.Register(Item{Type: schema.TypeTextarea, Label: "Text Area", Icon: "align-left", Category: CategoryInputs}, func() schema.Field {
		return &schema.TextField{Base: base("Text Area"), InputAttrs: schema.InputAttrs{Placeholder: "Enter text"}, Rows: 4}
	})
	r.Register(Item{Type: schema.TypeNumber, Label: "Number", Icon: "hash", Category: CategoryInputs}, func() schema.Field {
		return &schema.NumberField{Base: base("Number"), InputAttrs: schema.InputAttrs{Placeholder: "0"}}
	})
	r.Register(Item{Type: schema.TypeEmail, Label: "Email", Icon: "mail", Category: CategoryInputs}, func() schema.Field {
		return &schema.TextField{Base: base("Email"), InputAttrs: schema.InputAttrs{Placeholder: "name@example.com"}}
	})
	r.Register(Item{Type: schema.TypeURL, Label: "URL", Icon: "link", Category: CategoryInputs}, func() schema.Field {
		return &schema.TextField{Base: base("URL"), InputAttrs: schema.InputAttrs{Placeholder: "https://"}}
	})
	r.Register(Item{Type: schema.TypeDate, Label: "Date", Icon: "calendar", Category: CategoryInputs}, func() schema.Field {
		return &schema.DateField{Base: base("Date")}
	})

	r.Register(Item{Type: schema.TypeRadio, Label: "Radio Group", Icon: "circle-dot", Category: CategoryChoices}, func() schema.Field {
		return &schema.ChoiceField{Base: base("Radio Group"), Items: defaultOptions()}
	})
	r.Register(Item{Type: schema.TypeCheckbox, Label: "Checkbox Group", Icon: "check-square", Category: CategoryChoices}, func() schema.Field {
		return &schema.ChoiceField{Base: base("Checkbox Group"), Items: defaultOptions(), Multiple: true}
	})
	r.Register(Item{Type: schema.TypeSelect, Label: "Select", Icon: "list", Category: CategoryChoices}, func() schema.Field {
		return &schema.ChoiceField{Base: base("Select"), InputAttrs: schema.InputAttrs{Placeholder: "Select an option"}, Items: defaultOptions()}
	})
	r.Register(Item{Type: schema.TypeDropdown, Label: "Dropdown", Icon: "chevron-down", Category: CategoryChoices}, func() schema.Field {
		return &schema.ChoiceField{Base: base("Dropdown"), InputAttrs: schema.InputAttrs{Placeholder: "Select an option"}, Items: defaultOptions()}
	})

	r.Register(Item{Type: schema.TypeFile, Label: "File Upload", Icon: "upload", Category: CategoryAdvanced}, func() schema.Field {
		return &schema.FileField{Base: base("File Upload"), MaxSizeMB: 10}
	})
	r.Register(Item{Type: schema.TypeSlider, Label: "Slider", Icon: "sliders", Category: CategoryAdvanced}, func() schema.Field {
		return &schema.SliderField{Base: base("Slider"), Min: floatPtr(0), Max: floatPtr(100), Step: floatPtr(1)}
	})
	r.Register(Item{Type: schema.TypeTable, Label: "Table", Icon: "table", Category: CategoryAdvanced}, func() schema.Field {
		return &schema.TableField{
			Base: base("Table"),
			Columns: []schema.TableColumn{
				{ID: "col_1", Header: "Column 1", Type: "text"},
				{ID: "col_2", Header: "Column 2", Type: "text"},
			},
			TableRows: []map[string]any{{"col_1": "", "col_2": ""}},
		}
	})

	r.Register(Item{Type: schema.TypeHeading, Label: "Heading", Icon: "heading", Category: CategoryLayout}, func() schema.Field {
		return &schema.HeadingField{Base: base(""), Content: "Heading", Tag: "h2", Align: "left"}
	})
	r.Register(Item{Type: schema.TypeDivider, Label: "Divider", Icon: "minus", Category: CategoryLayout}, func() schema.Field {
		return &schema.DividerField{Base: base(""), Style: "solid", Thickness: 1}
	})
	r.Register(Item{Type: schema.TypeSpacer, Label: "Spacer", Icon: "move-vertical", Category: CategoryLayout}, func() schema.Field {
		return &schema.SpacerField{Base: base(""), Height: 24}
	})

	return r
}
