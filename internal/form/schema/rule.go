package schema

// RuleType 校验规则类型
type RuleType string

const (
	RuleRequired  RuleType = "required"
	RuleMinLength RuleType = "minLength"
	RuleMaxLength RuleType = "maxLength"
	RuleMin       RuleType = "min"
	RuleMax       RuleType = "max"
	RulePattern   RuleType = "pattern"
	RuleEmail     RuleType = "email"
	RuleURL       RuleType = "url"
	RuleCustom    RuleType = "custom"
)

// AllRuleTypes 规则类型（检查器展示顺序）
var AllRuleTypes = []RuleType{
	RuleRequired, RuleMinLength, RuleMaxLength, RuleMin, RuleMax,
	RulePattern, RuleEmail, RuleURL, RuleCustom,
}

// ValidationRule 校验规则
type ValidationRule struct {
	ID              string   `json:"id"`
	Type            RuleType `json:"type"`
	Value           any      `json:"value,omitempty"`
	Message         string   `json:"message,omitempty"`
	Enabled         bool     `json:"enabled"`
	CustomValidator string   `json:"customValidator,omitempty"`
}

// Trigger 脚本触发时机
type Trigger string

const (
	TriggerChange   Trigger = "onChange"
	TriggerBlur     Trigger = "onBlur"
	TriggerFocus    Trigger = "onFocus"
	TriggerMount    Trigger = "onMount"
	TriggerValidate Trigger = "onValidate"
	TriggerSubmit   Trigger = "onSubmit"
)

// AllTriggers 所有触发时机
var AllTriggers = []Trigger{
	TriggerChange, TriggerBlur, TriggerFocus, TriggerMount, TriggerValidate, TriggerSubmit,
}

// Script 用户脚本
type Script struct {
	ID      string  `json:"id"`
	Name    string  `json:"name,omitempty"`
	Trigger Trigger `json:"trigger"`
	Code    string  `json:"code"`
	Enabled bool    `json:"enabled"`
}

// ScriptsFor 返回指定触发时机下启用的脚本，保持原有顺序
func ScriptsFor(f Field, trigger Trigger) []Script {
	in := Inputs(f)
	if in == nil {
		return nil
	}
	var out []Script
	for _, s := range in.Scripts {
		if s.Enabled && s.Trigger == trigger {
			out = append(out, s)
		}
	}
	return out
}

// LOVStatus 值列表项状态
type LOVStatus string

const (
	LOVActive   LOVStatus = "Active"
	LOVInactive LOVStatus = "Inactive"
)

// LOVItem 值列表项
type LOVItem struct {
	Code      string    `json:"code"`
	ShortName string    `json:"shortName"`
	Status    LOVStatus `json:"status"`
}

// ItemsFromLOV 只保留 Active 项，code→value，shortName→label
func ItemsFromLOV(items []LOVItem) []Option {
	var out []Option
	for _, it := range items {
		if it.Status != LOVActive {
			continue
		}
		out = append(out, Option{Value: it.Code, Label: it.ShortName})
	}
	return out
}

// FormStyles 表单样式
type FormStyles struct {
	BackgroundColor string `json:"backgroundColor,omitempty"`
	TextColor       string `json:"textColor,omitempty"`
	PrimaryColor    string `json:"primaryColor,omitempty"`
	BorderRadius    string `json:"borderRadius,omitempty"`
	FontFamily      string `json:"fontFamily,omitempty"`
}

// DefaultStyles 默认样式
func DefaultStyles() FormStyles {
	return FormStyles{
		BackgroundColor: "#ffffff",
		TextColor:       "#1f2937",
		PrimaryColor:    "#2563eb",
		BorderRadius:    "8px",
		FontFamily:      "Inter, sans-serif",
	}
}

// FormJSON 表单文档内容
type FormJSON struct {
	Fields FieldList  `json:"fields"`
	Styles FormStyles `json:"styles"`
}
