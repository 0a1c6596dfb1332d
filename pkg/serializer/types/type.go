// Package types 定义类型表达式的结构化描述及其解析。
//
// 类型表达式形如 Name 或 Name<Param, ...>，参数递归使用同一语法，
// 例如 array<string,int>、array<App\Model\User>、DateTime<'2006-01-02'>。
package types

import (
	"strings"
)

// 内置的基础类型名。
const (
	UnknownName  = "UNKNOWN"
	NullName     = "NULL"
	StringName   = "string"
	IntName      = "int"
	IntegerName  = "integer"
	BoolName     = "bool"
	BooleanName  = "boolean"
	DoubleName   = "double"
	FloatName    = "float"
	ArrayName    = "array"
	ResourceName = "resource"
	DateTimeName = "DateTime"
)

var unknown = &TypeDefinition{Name: UnknownName}

// TypeDefinition 是类型表达式的不可变描述，构造后可在调用间共享。
// Literal 为 true 时 Name 保存的是带引号参数的字面值（如日期格式）。
type TypeDefinition struct {
	Name    string
	Params  []*TypeDefinition
	Literal bool
}

// New 构造一个类型描述。
func New(name string, params ...*TypeDefinition) *TypeDefinition {
	return &TypeDefinition{Name: name, Params: params}
}

// NewLiteral 构造一个字面量参数。
func NewLiteral(value string) *TypeDefinition {
	return &TypeDefinition{Name: value, Literal: true}
}

// Unknown 返回“由运行时值推断”的哨兵类型。
func Unknown() *TypeDefinition {
	return unknown
}

// IsUnknown 判断 t 是否为哨兵类型；nil 或空名字同样视为未知。
func IsUnknown(t *TypeDefinition) bool {
	return t == nil || t.Name == "" || t.Name == UnknownName
}

func (t *TypeDefinition) IsUnknown() bool {
	return IsUnknown(t)
}

func (t *TypeDefinition) HasParam(i int) bool {
	return t != nil && i >= 0 && i < len(t.Params)
}

// Param 返回第 i 个参数，不存在时返回 nil。
func (t *TypeDefinition) Param(i int) *TypeDefinition {
	if !t.HasParam(i) {
		return nil
	}
	return t.Params[i]
}

// LiteralParam 返回第 i 个字面量参数的值。
func (t *TypeDefinition) LiteralParam(i int) (string, bool) {
	p := t.Param(i)
	if p == nil || !p.Literal {
		return "", false
	}
	return p.Name, true
}

// ElementType 返回容器的元素类型：
// 一个参数时为列表元素类型；两个参数时为映射的值类型（第一个参数只是键类型占位）；
// 没有参数时返回 Unknown()。
func ElementType(t *TypeDefinition) *TypeDefinition {
	switch {
	case t == nil:
		return unknown
	case len(t.Params) == 1:
		return t.Params[0]
	case len(t.Params) >= 2:
		return t.Params[1]
	default:
		return unknown
	}
}

// IsList 表示容器按列表处理。
func (t *TypeDefinition) IsList() bool {
	return t != nil && len(t.Params) == 1
}

// IsMap 表示容器按映射处理。
func (t *TypeDefinition) IsMap() bool {
	return t != nil && len(t.Params) == 2
}

// Equal 结构化比较两个类型描述。
func (t *TypeDefinition) Equal(other *TypeDefinition) bool {
	if t == nil || other == nil {
		return t == other
	}
	if t.Name != other.Name || t.Literal != other.Literal || len(t.Params) != len(other.Params) {
		return false
	}
	for i := range t.Params {
		if !t.Params[i].Equal(other.Params[i]) {
			return false
		}
	}
	return true
}

// String 返回规范化的类型表达式，Parse(t.String()) 与 t 结构相同。
func (t *TypeDefinition) String() string {
	if t == nil {
		return UnknownName
	}
	var sb strings.Builder
	t.write(&sb)
	return sb.String()
}

func (t *TypeDefinition) write(sb *strings.Builder) {
	if t.Literal {
		sb.WriteByte('\'')
		sb.WriteString(strings.ReplaceAll(t.Name, "'", `\'`))
		sb.WriteByte('\'')
		return
	}
	sb.WriteString(t.Name)
	if len(t.Params) == 0 {
		return
	}
	sb.WriteByte('<')
	for i, p := range t.Params {
		if i > 0 {
			sb.WriteString(", ")
		}
		p.write(sb)
	}
	sb.WriteByte('>')
}

// IsPrimitiveName 判断类型名是否由访问者的基础方法直接处理。
func IsPrimitiveName(name string) bool {
	switch name {
	case NullName, StringName, IntName, IntegerName, BoolName, BooleanName,
		DoubleName, FloatName, ArrayName, ResourceName:
		return true
	}
	return false
}
