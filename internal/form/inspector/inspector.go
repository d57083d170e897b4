// Package inspector 属性面板：按字段类型给出可编辑属性，并把编辑结果转换为补丁
//
// 检查器从不修改字段本身，所有函数返回 map 形式的补丁，由 builder.PatchSelected 合并。
package inspector

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/sujeethshingade/form-builder-sub000/internal/form/schema"
)

// Kind 编辑器控件类型
type Kind string

const (
	KindText     Kind = "text"
	KindTextarea Kind = "textarea"
	KindNumber   Kind = "number"
	KindBool     Kind = "bool"
	KindSelect   Kind = "select"
	KindOptions  Kind = "options"
	KindColumns  Kind = "columns"
)

var (
	ErrUnknownProperty = errors.New("property not editable for this field type")
	ErrInvalidValue    = errors.New("invalid property value")
	ErrNotInputField   = errors.New("layout fields have no validation or scripts")
	ErrRuleNotFound    = errors.New("validation rule not found")
	ErrScriptNotFound  = errors.New("script not found")
)

// Property 单个可编辑属性
type Property struct {
	Key     string   `json:"key"`
	Label   string   `json:"label"`
	Kind    Kind     `json:"kind"`
	Value   any      `json:"value,omitempty"`
	Choices []string `json:"choices,omitempty"`
}

// View 检查器三个子视图
type View struct {
	FieldID    string                  `json:"fieldId"`
	Type       schema.FieldType        `json:"type"`
	Properties []Property              `json:"properties"`
	Validation []schema.ValidationRule `json:"validation,omitempty"`
	Scripts    []schema.Script         `json:"scripts,omitempty"`
	RuleTypes  []schema.RuleType       `json:"ruleTypes,omitempty"`
	Triggers   []schema.Trigger        `json:"triggers,omitempty"`
}

var widthChoices = func() []string {
	out := make([]string, 0, schema.MaxWidthColumns)
	for i := schema.MinWidthColumns; i <= schema.MaxWidthColumns; i++ {
		out = append(out, fmt.Sprint(i))
	}
	return out
}()

func fieldTypeChoices() []string {
	out := make([]string, 0, len(schema.AllTypes))
	for _, t := range schema.AllTypes {
		out = append(out, string(t))
	}
	return out
}

// descriptor 属性描述，读取函数返回当前值
type descriptor struct {
	key     string
	label   string
	kind    Kind
	choices []string
	get     func(schema.Field) any
}

func baseDescriptors() []descriptor {
	return []descriptor{
		{key: "type", label: "Field Type", kind: KindSelect, choices: fieldTypeChoices(), get: func(f schema.Field) any { return string(f.Common().Type) }},
		{key: "label", label: "Label", kind: KindText, get: func(f schema.Field) any { return f.Common().Label }},
		{key: "name", label: "Name", kind: KindText, get: func(f schema.Field) any { return f.Common().Name }},
		{key: "description", label: "Description", kind: KindTextarea, get: func(f schema.Field) any { return f.Common().Description }},
		{key: "info", label: "Info", kind: KindText, get: func(f schema.Field) any { return f.Common().Info }},
		{key: "widthColumns", label: "Width", kind: KindSelect, choices: widthChoices, get: func(f schema.Field) any { return f.Common().Width() }},
	}
}

func inputDescriptors() []descriptor {
	in := func(f schema.Field) *schema.InputAttrs { return schema.Inputs(f) }
	return []descriptor{
		{key: "placeholder", label: "Placeholder", kind: KindText, get: func(f schema.Field) any { return in(f).Placeholder }},
		{key: "helper", label: "Helper Text", kind: KindText, get: func(f schema.Field) any { return in(f).Helper }},
		{key: "required", label: "Required", kind: KindBool, get: func(f schema.Field) any { return in(f).Required }},
		{key: "disabled", label: "Disabled", kind: KindBool, get: func(f schema.Field) any { return in(f).Disabled }},
		{key: "readonly", label: "Read Only", kind: KindBool, get: func(f schema.Field) any { return in(f).Readonly }},
	}
}

func intValue(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

func floatValue(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

// variantDescriptors 各变体特有属性
func variantDescriptors(f schema.Field) []descriptor {
	switch v := f.(type) {
	case *schema.TextField:
		out := []descriptor{
			{key: "minLength", label: "Min Length", kind: KindNumber, get: func(schema.Field) any { return intValue(v.MinLength) }},
			{key: "maxLength", label: "Max Length", kind: KindNumber, get: func(schema.Field) any { return intValue(v.MaxLength) }},
			{key: "pattern", label: "Pattern", kind: KindText, get: func(schema.Field) any { return v.Pattern }},
		}
		if v.Type == schema.TypeTextarea {
			out = append(out, descriptor{key: "rows", label: "Rows", kind: KindNumber, get: func(schema.Field) any { return v.Rows }})
		}
		return out
	case *schema.NumberField:
		return rangeDescriptors(v.Min, v.Max, v.Step)
	case *schema.SliderField:
		return rangeDescriptors(v.Min, v.Max, v.Step)
	case *schema.DateField:
		return []descriptor{
			{key: "minDate", label: "Min Date", kind: KindText, get: func(schema.Field) any { return v.MinDate }},
			{key: "maxDate", label: "Max Date", kind: KindText, get: func(schema.Field) any { return v.MaxDate }},
		}
	case *schema.ChoiceField:
		out := []descriptor{
			{key: "items", label: "Options", kind: KindOptions, get: func(schema.Field) any { return v.Items }},
		}
		if v.Type == schema.TypeSelect || v.Type == schema.TypeDropdown {
			out = append(out, descriptor{key: "multiple", label: "Allow Multiple", kind: KindBool, get: func(schema.Field) any { return v.Multiple }})
		}
		return out
	case *schema.FileField:
		return []descriptor{
			{key: "accept", label: "Accepted Types", kind: KindText, get: func(schema.Field) any { return v.Accept }},
			{key: "maxSizeMb", label: "Max Size (MB)", kind: KindNumber, get: func(schema.Field) any { return v.MaxSizeMB }},
			{key: "multiple", label: "Allow Multiple", kind: KindBool, get: func(schema.Field) any { return v.Multiple }},
		}
	case *schema.TableField:
		return []descriptor{
			{key: "columns", label: "Columns", kind: KindColumns, get: func(schema.Field) any { return v.Columns }},
		}
	case *schema.HeadingField:
		return []descriptor{
			{key: "content", label: "Content", kind: KindText, get: func(schema.Field) any { return v.Content }},
			{key: "tag", label: "Tag", kind: KindSelect, choices: []string{"h1", "h2", "h3", "h4", "h5", "h6"}, get: func(schema.Field) any { return v.Tag }},
			{key: "align", label: "Align", kind: KindSelect, choices: []string{"left", "center", "right"}, get: func(schema.Field) any { return v.Align }},
		}
	case *schema.DividerField:
		return []descriptor{
			{key: "style", label: "Style", kind: KindSelect, choices: []string{"solid", "dashed", "dotted"}, get: func(schema.Field) any { return v.Style }},
			{key: "thickness", label: "Thickness", kind: KindNumber, get: func(schema.Field) any { return v.Thickness }},
		}
	case *schema.SpacerField:
		return []descriptor{
			{key: "height", label: "Height", kind: KindNumber, get: func(schema.Field) any { return v.Height }},
		}
	}
	return nil
}

func rangeDescriptors(lo, hi, step *float64) []descriptor {
	return []descriptor{
		{key: "min", label: "Min", kind: KindNumber, get: func(schema.Field) any { return floatValue(lo) }},
		{key: "max", label: "Max", kind: KindNumber, get: func(schema.Field) any { return floatValue(hi) }},
		{key: "step", label: "Step", kind: KindNumber, get: func(schema.Field) any { return floatValue(step) }},
	}
}

func descriptors(f schema.Field) []descriptor {
	out := baseDescriptors()
	if schema.Inputs(f) != nil {
		out = append(out, inputDescriptors()...)
	}
	return append(out, variantDescriptors(f)...)
}

// Inspect 生成字段的检查器视图
func Inspect(f schema.Field) View {
	b := f.Common()
	v := View{FieldID: b.ID, Type: b.Type}
	for _, d := range descriptors(f) {
		v.Properties = append(v.Properties, Property{
			Key:     d.key,
			Label:   d.label,
			Kind:    d.kind,
			Value:   d.get(f),
			Choices: d.choices,
		})
	}
	if in := schema.Inputs(f); in != nil {
		v.Validation = append([]schema.ValidationRule{}, in.ValidationRules...)
		v.Scripts = append([]schema.Script{}, in.Scripts...)
		v.RuleTypes = schema.AllRuleTypes
		v.Triggers = schema.AllTriggers
	}
	return v
}

// Editable 属性是否可编辑
func Editable(f schema.Field, key string) bool {
	_, ok := lookup(f, key)
	return ok
}

func lookup(f schema.Field, key string) (descriptor, bool) {
	for _, d := range descriptors(f) {
		if d.key == key {
			return d, true
		}
	}
	return descriptor{}, false
}

// Patch 校验单个属性编辑并返回补丁
//
// 空字符串与 nil 表示清除该属性；数值属性接受任意 JSON 数字。
func Patch(f schema.Field, key string, value any) (map[string]any, error) {
	d, ok := lookup(f, key)
	if !ok {
		return nil, fmt.Errorf("%w: %s (%s)", ErrUnknownProperty, key, f.Common().Type)
	}
	if value == nil {
		return map[string]any{key: nil}, nil
	}
	switch d.kind {
	case KindText, KindTextarea:
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %s expects a string", ErrInvalidValue, key)
		}
		if s == "" {
			return map[string]any{key: nil}, nil
		}
	case KindBool:
		if _, ok := value.(bool); !ok {
			return nil, fmt.Errorf("%w: %s expects a boolean", ErrInvalidValue, key)
		}
	case KindNumber:
		if _, ok := toFloat(value); !ok {
			return nil, fmt.Errorf("%w: %s expects a number", ErrInvalidValue, key)
		}
	case KindSelect:
		if err := checkChoice(d, value); err != nil {
			return nil, err
		}
		if key == "widthColumns" {
			value = widthValue(value)
		}
	case KindOptions:
		var items []schema.Option
		if err := recode(value, &items); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidValue, key, err)
		}
		value = items
	case KindColumns:
		var cols []schema.TableColumn
		if err := recode(value, &cols); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidValue, key, err)
		}
		value = cols
	}
	return map[string]any{key: value}, nil
}

// recode 通过 JSON 把任意值转换为目标类型
func recode(v any, out any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

func widthValue(v any) int {
	if f, ok := toFloat(v); ok {
		return int(f)
	}
	n, err := strconv.Atoi(strings.TrimSpace(fmt.Sprint(v)))
	if err != nil {
		return schema.MaxWidthColumns
	}
	return n
}

func checkChoice(d descriptor, value any) error {
	s := strings.TrimSpace(fmt.Sprint(value))
	if f, ok := toFloat(value); ok {
		s = fmt.Sprint(int(f))
	}
	for _, c := range d.choices {
		if c == s {
			return nil
		}
	}
	return fmt.Errorf("%w: %s must be one of %s", ErrInvalidValue, d.key, strings.Join(d.choices, ", "))
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
