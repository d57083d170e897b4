package inspector

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/sujeethshingade/form-builder-sub000/internal/form/schema"
)

// defaultRuleMessages 新建规则的默认提示
var defaultRuleMessages = map[schema.RuleType]string{
	schema.RuleRequired:  "This field is required",
	schema.RuleMinLength: "Value is too short",
	schema.RuleMaxLength: "Value is too long",
	schema.RuleMin:       "Value is too small",
	schema.RuleMax:       "Value is too large",
	schema.RulePattern:   "Invalid format",
	schema.RuleEmail:     "Please enter a valid email address",
	schema.RuleURL:       "Please enter a valid URL",
	schema.RuleCustom:    "Validation failed",
}

func shortID(prefix string) string {
	return prefix + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

func inputsOf(f schema.Field) (*schema.InputAttrs, error) {
	in := schema.Inputs(f)
	if in == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotInputField, f.Common().Type)
	}
	return in, nil
}

func rulePatch(rules []schema.ValidationRule) map[string]any {
	if len(rules) == 0 {
		return map[string]any{"validationRules": nil}
	}
	return map[string]any{"validationRules": rules}
}

func scriptPatch(scripts []schema.Script) map[string]any {
	if len(scripts) == 0 {
		return map[string]any{"scripts": nil}
	}
	return map[string]any{"scripts": scripts}
}

// AddRule 追加一条启用的规则
func AddRule(f schema.Field, t schema.RuleType) (map[string]any, schema.ValidationRule, error) {
	in, err := inputsOf(f)
	if err != nil {
		return nil, schema.ValidationRule{}, err
	}
	msg, ok := defaultRuleMessages[t]
	if !ok {
		return nil, schema.ValidationRule{}, fmt.Errorf("%w: rule type %q", ErrInvalidValue, t)
	}
	rule := schema.ValidationRule{ID: shortID("rule_"), Type: t, Message: msg, Enabled: true}
	rules := append(append([]schema.ValidationRule{}, in.ValidationRules...), rule)
	return rulePatch(rules), rule, nil
}

// UpdateRule 替换同ID的规则
func UpdateRule(f schema.Field, rule schema.ValidationRule) (map[string]any, error) {
	in, err := inputsOf(f)
	if err != nil {
		return nil, err
	}
	rules := append([]schema.ValidationRule{}, in.ValidationRules...)
	for i := range rules {
		if rules[i].ID == rule.ID {
			rules[i] = rule
			return rulePatch(rules), nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrRuleNotFound, rule.ID)
}

// RemoveRule 删除规则
func RemoveRule(f schema.Field, ruleID string) (map[string]any, error) {
	in, err := inputsOf(f)
	if err != nil {
		return nil, err
	}
	rules := make([]schema.ValidationRule, 0, len(in.ValidationRules))
	for _, r := range in.ValidationRules {
		if r.ID != ruleID {
			rules = append(rules, r)
		}
	}
	if len(rules) == len(in.ValidationRules) {
		return nil, fmt.Errorf("%w: %s", ErrRuleNotFound, ruleID)
	}
	return rulePatch(rules), nil
}

// AddScript 追加脚本，默认启用；代码为空时填入原样返回 value 的模板
func AddScript(f schema.Field, trigger schema.Trigger, name, code string) (map[string]any, schema.Script, error) {
	in, err := inputsOf(f)
	if err != nil {
		return nil, schema.Script{}, err
	}
	valid := false
	for _, t := range schema.AllTriggers {
		if t == trigger {
			valid = true
			break
		}
	}
	if !valid {
		return nil, schema.Script{}, fmt.Errorf("%w: trigger %q", ErrInvalidValue, trigger)
	}
	if strings.TrimSpace(code) == "" {
		code = "value"
	}
	if name == "" {
		name = string(trigger) + " script"
	}
	sc := schema.Script{ID: shortID("script_"), Name: name, Trigger: trigger, Code: code, Enabled: true}
	scripts := append(append([]schema.Script{}, in.Scripts...), sc)
	return scriptPatch(scripts), sc, nil
}

// UpdateScript 替换同ID的脚本
func UpdateScript(f schema.Field, sc schema.Script) (map[string]any, error) {
	in, err := inputsOf(f)
	if err != nil {
		return nil, err
	}
	scripts := append([]schema.Script{}, in.Scripts...)
	for i := range scripts {
		if scripts[i].ID == sc.ID {
			scripts[i] = sc
			return scriptPatch(scripts), nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrScriptNotFound, sc.ID)
}

// RemoveScript 删除脚本
func RemoveScript(f schema.Field, scriptID string) (map[string]any, error) {
	in, err := inputsOf(f)
	if err != nil {
		return nil, err
	}
	scripts := make([]schema.Script, 0, len(in.Scripts))
	for _, s := range in.Scripts {
		if s.ID != scriptID {
			scripts = append(scripts, s)
		}
	}
	if len(scripts) == len(in.Scripts) {
		return nil, fmt.Errorf("%w: %s", ErrScriptNotFound, scriptID)
	}
	return scriptPatch(scripts), nil
}
