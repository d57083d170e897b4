// Package validation 字段校验与用户脚本执行
//
// 校验在两个时机运行：单字段失焦 (ValidateField) 与整表提交 (ValidateForm)。
// 每个字段独立求值，字段内按 必填 → 规则(数组顺序) → 字段约束 → onValidate 脚本 的顺序，
// 第一个失败项决定该字段的错误信息。脚本与自定义校验器的执行错误一律吞掉并记录日志。
package validation

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/sujeethshingade/form-builder-sub000/internal/form/schema"
)

// Engine 校验引擎，无状态，可并发使用
type Engine struct {
	logger   *zap.Logger
	eval     Evaluator
	validate *validator.Validate
}

// Option 引擎选项
type Option func(*Engine)

// WithEvaluator 替换脚本求值器
func WithEvaluator(ev Evaluator) Option {
	return func(e *Engine) {
		if ev != nil {
			e.eval = ev
		}
	}
}

// NewEngine 创建校验引擎
func NewEngine(logger *zap.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{
		logger:   logger,
		eval:     NewCUEEvaluator(),
		validate: validator.New(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// FieldError 单个字段的错误
type FieldError struct {
	FieldID string `json:"fieldId"`
	Label   string `json:"label,omitempty"`
	Message string `json:"message"`
}

// Report 校验结果，按字段顺序排列
type Report struct {
	Errors []FieldError `json:"errors"`
}

// Empty 是否全部通过
func (r Report) Empty() bool {
	return len(r.Errors) == 0
}

// Map 字段ID → 错误信息
func (r Report) Map() map[string]string {
	out := make(map[string]string, len(r.Errors))
	for _, fe := range r.Errors {
		out[fe.FieldID] = fe.Message
	}
	return out
}

// Error 拼接为一段提示文本
func (r Report) Error() string {
	if r.Empty() {
		return ""
	}
	lines := make([]string, 0, len(r.Errors)+1)
	lines = append(lines, "Please fix the following errors:")
	for _, fe := range r.Errors {
		name := fe.Label
		if name == "" {
			name = fe.FieldID
		}
		lines = append(lines, fmt.Sprintf("- %s: %s", name, fe.Message))
	}
	return strings.Join(lines, "\n")
}

// ValueOf 取字段值：优先按ID，其次按 name
func ValueOf(f schema.Field, values map[string]any) any {
	b := f.Common()
	if v, ok := values[b.ID]; ok {
		return v
	}
	if b.Name != "" {
		if v, ok := values[b.Name]; ok {
			return v
		}
	}
	return nil
}

func (e *Engine) env(f schema.Field, value any, form map[string]any) Env {
	attrs, err := schema.ToMap(f)
	if err != nil {
		e.logger.Warn("encode field for script", zap.String("field_id", f.Common().ID), zap.Error(err))
	}
	return Env{Value: value, Field: attrs, Form: form}
}

// ValidateField 校验单个字段，返回空串表示通过
//
// 布局字段与禁用字段不参与校验。
func (e *Engine) ValidateField(f schema.Field, value any, form map[string]any) string {
	in := schema.Inputs(f)
	if in == nil || in.Disabled {
		return ""
	}
	empty := IsEmpty(value)
	if in.Required && empty {
		label := f.Common().Label
		if label == "" {
			return "This field is required"
		}
		return label + " is required"
	}

	env := e.env(f, value, form)
	for _, r := range in.ValidationRules {
		if !r.Enabled {
			continue
		}
		// 空值只执行 required 与自定义规则
		if empty && r.Type != schema.RuleRequired && r.Type != schema.RuleCustom {
			continue
		}
		if msg := e.checkRule(r, value, env); msg != "" {
			return msg
		}
	}

	if !empty {
		if msg := e.checkAttributes(f, value); msg != "" {
			return msg
		}
	}

	for _, sc := range schema.ScriptsFor(f, schema.TriggerValidate) {
		res, err := e.eval.Eval(sc.Code, env)
		if err != nil {
			e.logScript(f, sc, err)
			continue
		}
		switch x := res.(type) {
		case bool:
			if !x {
				return "Validation failed"
			}
		case string:
			if x != "" {
				return x
			}
		}
	}
	return ""
}

// ValidateForm 校验全部字段
func (e *Engine) ValidateForm(fields schema.FieldList, values map[string]any) Report {
	if values == nil {
		values = map[string]any{}
	}
	report := Report{Errors: []FieldError{}}
	for _, f := range fields {
		msg := e.ValidateField(f, ValueOf(f, values), values)
		if msg == "" {
			continue
		}
		report.Errors = append(report.Errors, FieldError{
			FieldID: f.Common().ID,
			Label:   f.Common().Label,
			Message: msg,
		})
	}
	return report
}

// ApplyChange 依次执行 onChange 脚本转换值；单个脚本出错时保留其输入值
func (e *Engine) ApplyChange(f schema.Field, value any, form map[string]any) any {
	current := value
	for _, sc := range schema.ScriptsFor(f, schema.TriggerChange) {
		res, err := e.eval.Eval(sc.Code, e.env(f, current, form))
		if err != nil {
			e.logScript(f, sc, err)
			continue
		}
		current = res
	}
	return current
}

// RunTrigger 执行仅有副作用的脚本（onBlur/onFocus/onMount/onSubmit），返回值被忽略
func (e *Engine) RunTrigger(f schema.Field, trigger schema.Trigger, value any, form map[string]any) int {
	ran := 0
	for _, sc := range schema.ScriptsFor(f, trigger) {
		if _, err := e.eval.Eval(sc.Code, e.env(f, value, form)); err != nil {
			e.logScript(f, sc, err)
			continue
		}
		ran++
	}
	return ran
}

// Submit 提交前的完整流程：onSubmit 脚本 + 整表校验
func (e *Engine) Submit(fields schema.FieldList, values map[string]any) Report {
	for _, f := range fields {
		e.RunTrigger(f, schema.TriggerSubmit, ValueOf(f, values), values)
	}
	return e.ValidateForm(fields, values)
}

func (e *Engine) logScript(f schema.Field, sc schema.Script, err error) {
	e.logger.Warn("script failed, ignored",
		zap.String("field_id", f.Common().ID),
		zap.String("script_id", sc.ID),
		zap.String("trigger", string(sc.Trigger)),
		zap.Error(err),
	)
}
