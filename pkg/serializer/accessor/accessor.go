// Package accessor 负责读取与写入对象属性，屏蔽字段直接访问与 getter/setter 的差异。
package accessor

import (
	"reflect"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/lk2023060901/graph-serializer/pkg/log"
	"github.com/lk2023060901/graph-serializer/pkg/serializer/metadata"
	"github.com/lk2023060901/graph-serializer/pkg/util/merr"
)

// Accessor 为属性读写能力。
type Accessor interface {
	Value(obj any, prop *metadata.PropertyMetadata) (any, error)
	SetValue(obj any, prop *metadata.PropertyMetadata, value any) error
}

// Reflection 通过反射访问字段，声明了 getter/setter 时调用对应方法。
type Reflection struct{}

var _ Accessor = Reflection{}

// Value 读取属性值。嵌入的空指针上的字段读作 nil。
func (Reflection) Value(obj any, prop *metadata.PropertyMetadata) (any, error) {
	if prop.Static {
		return prop.StaticValue, nil
	}
	rv := reflect.ValueOf(obj)
	if prop.Getter != "" {
		m, err := method(rv, prop.Getter)
		if err != nil {
			return nil, merr.WrapErrConfiguration(err.Error(), prop.Class, prop.Name)
		}
		if m.Type().NumIn() != 0 || m.Type().NumOut() == 0 {
			return nil, merr.WrapErrConfiguration("getter must take no arguments and return a value", prop.Class, prop.Name)
		}
		return m.Call(nil)[0].Interface(), nil
	}

	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, merr.WrapErrInvalidInput(prop.Class, prop.Name, "struct", obj)
	}
	for i, idx := range prop.FieldIndex {
		if i > 0 {
			if rv.Kind() == reflect.Ptr {
				if rv.IsNil() {
					return nil, nil
				}
				rv = rv.Elem()
			}
		}
		rv = rv.Field(idx)
	}
	return rv.Interface(), nil
}

// SetValue 将 value 转换为目标类型后写入。静态属性被忽略。
func (Reflection) SetValue(obj any, prop *metadata.PropertyMetadata, value any) error {
	if prop.Static {
		return nil
	}
	rv := reflect.ValueOf(obj)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return merr.WrapErrInvalidInput(prop.Class, prop.Name, "non-nil pointer", obj)
	}

	if prop.Setter != "" {
		m, err := method(rv, prop.Setter)
		if err != nil {
			return merr.WrapErrConfiguration(err.Error(), prop.Class, prop.Name)
		}
		if m.Type().NumIn() != 1 {
			return merr.WrapErrConfiguration("setter must take exactly one argument", prop.Class, prop.Name)
		}
		arg := reflect.New(m.Type().In(0)).Elem()
		if err := Assign(arg, value); err != nil {
			return merr.WrapErrInvalidInput(prop.Class, prop.Name, arg.Type().String(), value)
		}
		out := m.Call([]reflect.Value{arg})
		if len(out) > 0 {
			if err, _ := out[len(out)-1].Interface().(error); err != nil {
				return errors.Wrapf(err, "setter %s.%s", prop.Class, prop.Setter)
			}
		}
		return nil
	}

	field := rv.Elem()
	if field.Kind() != reflect.Struct {
		return merr.WrapErrInvalidInput(prop.Class, prop.Name, "struct", obj)
	}
	for i, idx := range prop.FieldIndex {
		if i > 0 && field.Kind() == reflect.Ptr {
			if field.IsNil() {
				field.Set(reflect.New(field.Type().Elem()))
			}
			field = field.Elem()
		}
		field = field.Field(idx)
	}
	if err := Assign(field, value); err != nil {
		log.Debug("property assignment failed",
			zap.String("class", prop.Class), zap.String("property", prop.Name), zap.Error(err))
		return merr.WrapErrInvalidInput(prop.Class, prop.Name, field.Type().String(), value)
	}
	return nil
}

func method(rv reflect.Value, name string) (reflect.Value, error) {
	if rv.Kind() != reflect.Ptr && rv.CanAddr() {
		rv = rv.Addr()
	}
	m := rv.MethodByName(name)
	if !m.IsValid() {
		return reflect.Value{}, errors.Newf("method %s not found on %s", name, rv.Type())
	}
	return m, nil
}
