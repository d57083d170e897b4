package validation

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/sujeethshingade/form-builder-sub000/internal/form/schema"
)

// IsEmpty 必填判定：假值（nil、空字符串、false、0、NaN）或空列表视为空；对象即使为空也不算空
func IsEmpty(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case bool:
		return !x
	case float64:
		return x == 0 || math.IsNaN(x)
	case json.Number:
		f, err := x.Float64()
		return err == nil && f == 0
	case []any:
		return len(x) == 0
	case map[string]any:
		return false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return rv.Len() == 0
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint() == 0
	case reflect.Float32:
		return rv.Float() == 0 || math.IsNaN(rv.Float())
	case reflect.Ptr, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// toNumber 把 JSON 数字或数字字符串转为 float64
func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil || math.IsNaN(f) {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// length 字符串按字符计数，列表按元素计数
func length(v any) (int, bool) {
	switch x := v.(type) {
	case string:
		return utf8.RuneCountInString(x), true
	case []any:
		return len(x), true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		return rv.Len(), true
	}
	return 0, false
}

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func ruleMessage(r schema.ValidationRule, fallback string) string {
	if r.Message != "" {
		return r.Message
	}
	return fallback
}

// checkRule 执行一条内置规则；返回空串表示通过
func (e *Engine) checkRule(r schema.ValidationRule, value any, env Env) string {
	switch r.Type {
	case schema.RuleRequired:
		if IsEmpty(value) {
			return ruleMessage(r, "This field is required")
		}
	case schema.RuleMinLength:
		n, ok := toNumber(r.Value)
		if l, isLen := length(value); ok && isLen && float64(l) < n {
			return ruleMessage(r, fmt.Sprintf("Minimum length is %d", int(n)))
		}
	case schema.RuleMaxLength:
		n, ok := toNumber(r.Value)
		if l, isLen := length(value); ok && isLen && float64(l) > n {
			return ruleMessage(r, fmt.Sprintf("Maximum length is %d", int(n)))
		}
	case schema.RuleMin:
		limit, ok := toNumber(r.Value)
		if v, isNum := toNumber(value); ok && isNum && v < limit {
			return ruleMessage(r, fmt.Sprintf("Minimum value is %v", limit))
		}
	case schema.RuleMax:
		limit, ok := toNumber(r.Value)
		if v, isNum := toNumber(value); ok && isNum && v > limit {
			return ruleMessage(r, fmt.Sprintf("Maximum value is %v", limit))
		}
	case schema.RulePattern:
		pattern, ok := asString(r.Value)
		s, isStr := asString(value)
		if !ok || !isStr || pattern == "" {
			return ""
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			e.logger.Debug("ignore invalid pattern", zap.String("rule_id", r.ID), zap.Error(err))
			return ""
		}
		if !re.MatchString(s) {
			return ruleMessage(r, "Invalid format")
		}
	case schema.RuleEmail:
		if s, ok := asString(value); ok && !e.isEmail(s) {
			return ruleMessage(r, "Please enter a valid email address")
		}
	case schema.RuleURL:
		if s, ok := asString(value); ok && !e.isURL(s) {
			return ruleMessage(r, "Please enter a valid URL")
		}
	case schema.RuleCustom:
		return e.checkCustom(r, env)
	}
	return ""
}

// checkCustom 执行自定义校验脚本；执行失败视为通过
func (e *Engine) checkCustom(r schema.ValidationRule, env Env) string {
	code := r.CustomValidator
	if code == "" {
		code, _ = asString(r.Value)
	}
	if strings.TrimSpace(code) == "" {
		return ""
	}
	res, err := e.eval.Eval(code, env)
	if err != nil {
		e.logger.Warn("custom validator failed, ignored", zap.String("rule_id", r.ID), zap.Error(err))
		return ""
	}
	switch x := res.(type) {
	case bool:
		if !x {
			return ruleMessage(r, "Validation failed")
		}
	case string:
		return x
	}
	return ""
}

func (e *Engine) isEmail(s string) bool {
	return e.validate.Var(s, "email") == nil
}

func (e *Engine) isURL(s string) bool {
	return e.validate.Var(s, "url") == nil
}

// checkAttributes 字段自身的约束（长度、数值范围、格式类型）
func (e *Engine) checkAttributes(f schema.Field, value any) string {
	switch v := f.(type) {
	case *schema.TextField:
		s, ok := asString(value)
		if !ok {
			return ""
		}
		n := utf8.RuneCountInString(s)
		if v.MinLength != nil && n < *v.MinLength {
			return fmt.Sprintf("Minimum length is %d", *v.MinLength)
		}
		if v.MaxLength != nil && n > *v.MaxLength {
			return fmt.Sprintf("Maximum length is %d", *v.MaxLength)
		}
		if v.Pattern != "" {
			if re, err := regexp.Compile(v.Pattern); err == nil && !re.MatchString(s) {
				return "Invalid format"
			}
		}
		switch v.Type {
		case schema.TypeEmail:
			if !e.isEmail(s) {
				return "Please enter a valid email address"
			}
		case schema.TypeURL:
			if !e.isURL(s) {
				return "Please enter a valid URL"
			}
		}
	case *schema.NumberField:
		return checkRange(value, v.Min, v.Max)
	case *schema.SliderField:
		return checkRange(value, v.Min, v.Max)
	}
	return ""
}

func checkRange(value any, lo, hi *float64) string {
	n, ok := toNumber(value)
	if !ok {
		return ""
	}
	if lo != nil && n < *lo {
		return fmt.Sprintf("Minimum value is %v", *lo)
	}
	if hi != nil && n > *hi {
		return fmt.Sprintf("Maximum value is %v", *hi)
	}
	return ""
}
