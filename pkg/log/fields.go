package log

import (
	"go.uber.org/zap"
)

const (
	FieldNameModule    = "module"
	FieldNameComponent = "component"
	FieldNameFormat    = "format"
	FieldNameType      = "type"
	FieldNamePath      = "path"
	FieldNameDirection = "direction"
)

// FieldModule 返回一个包含模块名的 zap 字段。
func FieldModule(module string) zap.Field {
	return zap.String(FieldNameModule, module)
}

// FieldComponent 返回一个包含组件名的 zap 字段。
func FieldComponent(component string) zap.Field {
	return zap.String(FieldNameComponent, component)
}

// FieldFormat 返回一个包含序列化格式的 zap 字段。
func FieldFormat(format string) zap.Field {
	return zap.String(FieldNameFormat, format)
}

// FieldType 返回一个包含类型表达式的 zap 字段。
func FieldType(typ string) zap.Field {
	return zap.String(FieldNameType, typ)
}

// FieldPath 返回一个包含属性路径的 zap 字段。
func FieldPath(path string) zap.Field {
	if path == "" {
		path = "<root>"
	}
	return zap.String(FieldNamePath, path)
}

func FieldDirection(direction string) zap.Field {
	return zap.String(FieldNameDirection, direction)
}
