package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// Env 脚本可见的绑定：value 当前值，field 字段属性，form 全部表单值
type Env struct {
	Value any            `json:"value"`
	Field map[string]any `json:"field"`
	Form  map[string]any `json:"form"`
}

// Evaluator 用户脚本求值器
type Evaluator interface {
	Eval(code string, env Env) (any, error)
}

var ErrEmptyScript = errors.New("empty script")

// ErrScriptsDisabled 脚本执行被配置关闭
var ErrScriptsDisabled = errors.New("scripts are disabled")

// DisabledEvaluator 拒绝执行任何脚本，onChange 保留原值，onValidate 视为通过
type DisabledEvaluator struct{}

func (DisabledEvaluator) Eval(string, Env) (any, error) { return nil, ErrScriptsDisabled }

// builtinPackages 脚本中可直接引用的 CUE 标准包
var builtinPackages = []string{"strings", "regexp", "math", "list", "strconv"}

var pkgRef = regexp.MustCompile(`\b(strings|regexp|math|list|strconv)\.`)

// CUEEvaluator 以 CUE 表达式执行脚本
//
// 每次求值使用独立的 cue.Context，脚本只能访问三个绑定与内置包，没有 IO 能力。
type CUEEvaluator struct{}

// NewCUEEvaluator 创建求值器
func NewCUEEvaluator() *CUEEvaluator {
	return &CUEEvaluator{}
}

// Eval 求值 code，返回 JSON 形式的结果
func (e *CUEEvaluator) Eval(code string, env Env) (any, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, ErrEmptyScript
	}
	src, err := buildSource(code, env)
	if err != nil {
		return nil, err
	}

	ctx := cuecontext.New()
	v := ctx.CompileString(src, cue.Filename("script.cue"))
	if v.Err() != nil {
		return nil, fmt.Errorf("compile script: %w", v.Err())
	}
	res := v.LookupPath(cue.ParsePath("result"))
	if !res.Exists() {
		return nil, errors.New("script produced no result")
	}
	if err := res.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("evaluate script: %w", err)
	}
	data, err := res.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func buildSource(code string, env Env) (string, error) {
	var sb strings.Builder

	used := map[string]bool{}
	for _, m := range pkgRef.FindAllStringSubmatch(code, -1) {
		used[m[1]] = true
	}
	for _, pkg := range builtinPackages {
		if used[pkg] {
			fmt.Fprintf(&sb, "import %q\n", pkg)
		}
	}

	bindings := []struct {
		name string
		val  any
	}{
		{"value", env.Value},
		{"field", orEmpty(env.Field)},
		{"form", orEmpty(env.Form)},
	}
	for _, b := range bindings {
		data, err := json.Marshal(b.val)
		if err != nil {
			return "", fmt.Errorf("encode %s: %w", b.name, err)
		}
		fmt.Fprintf(&sb, "%s: %s\n", b.name, data)
	}
	fmt.Fprintf(&sb, "result: (%s)\n", code)
	return sb.String(), nil
}

func orEmpty(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}
