package schema

import (
	"bytes"
	"encoding/json"
)

// Compact 序列化并去除 null、空字符串、空数组、空对象属性以及数组中的空对象，输出缩进 JSON
func Compact(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var tree any
	if err := dec.Decode(&tree); err != nil {
		return nil, err
	}
	tree = prune(tree)
	if tree == nil {
		tree = []any{}
	}
	return json.MarshalIndent(tree, "", "  ")
}

func prune(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, child := range t {
			child = prune(child)
			if isBlank(child) {
				delete(t, k)
				continue
			}
			t[k] = child
		}
		return t
	case []any:
		// 数组中清空后的对象（如空表格行）一并去掉；标量保留以免错位
		out := t[:0]
		for _, child := range t {
			child = prune(child)
			if m, ok := child.(map[string]any); ok && len(m) == 0 {
				continue
			}
			out = append(out, child)
		}
		return out
	}
	return v
}

func isBlank(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case []any:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	}
	return false
}
