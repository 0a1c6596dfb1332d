// Package visitor 提供基于中间树的访问者实现与各格式的编解码器。
//
// 序列化结果是由 *Object（有序映射）、[]any 与标量组成的树，
// 编解码器负责树与字节之间的转换。
package visitor

import (
	"fmt"
	"reflect"
	"sort"
)

// Object 是保持插入顺序的映射，覆盖已有键时保留原位置。
type Object struct {
	keys   []string
	values map[string]any
}

func NewObject(capacity int) *Object {
	return &Object{
		keys:   make([]string, 0, capacity),
		values: make(map[string]any, capacity),
	}
}

func (o *Object) Set(key string, value any) {
	if _, ok := o.values[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.values[key] = value
}

func (o *Object) Get(key string) (any, bool) {
	v, ok := o.values[key]
	return v, ok
}

// Field 实现 graph.FieldReader。
func (o *Object) Field(name string) (any, bool) {
	return o.Get(name)
}

func (o *Object) Keys() []string {
	out := make([]string, len(o.keys))
	copy(out, o.keys)
	return out
}

func (o *Object) Len() int {
	return len(o.keys)
}

// Range 按插入顺序遍历，回调返回 false 时终止。
func (o *Object) Range(f func(key string, value any) bool) {
	for _, k := range o.keys {
		if !f(k, o.values[k]) {
			return
		}
	}
}

// ToMap 递归转换为 map[string]any 与 []any 组成的普通树。
func (o *Object) ToMap() map[string]any {
	out := make(map[string]any, len(o.keys))
	for _, k := range o.keys {
		out[k] = Plain(o.values[k])
	}
	return out
}

// Plain 将树中的 *Object 递归转换为 map[string]any。
func Plain(v any) any {
	switch value := v.(type) {
	case *Object:
		return value.ToMap()
	case []any:
		out := make([]any, len(value))
		for i, item := range value {
			out[i] = Plain(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(value))
		for k, item := range value {
			out[k] = Plain(item)
		}
		return out
	default:
		return v
	}
}

// sortedKeys 返回按字符串排序的映射键。
func sortedKeys(rv reflect.Value) []reflect.Value {
	keys := rv.MapKeys()
	sort.Slice(keys, func(i, j int) bool {
		return fmt.Sprint(keys[i].Interface()) < fmt.Sprint(keys[j].Interface())
	})
	return keys
}
