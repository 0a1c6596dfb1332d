package graph

import (
	"fmt"
	"reflect"

	"github.com/cockroachdb/errors"

	"github.com/lk2023060901/graph-serializer/pkg/serializer/metadata"
	"github.com/lk2023060901/graph-serializer/pkg/serializer/types"
)

// mapVisitor 将对象图转换为 map[string]any/[]any，并能反向还原，仅用于本包测试。
type mapVisitor struct {
	stack []map[string]any
}

var (
	_ SerializationVisitor   = (*mapVisitor)(nil)
	_ DeserializationVisitor = (*mapVisitor)(nil)
)

func (v *mapVisitor) Format() string { return "map" }

func (v *mapVisitor) SerializeNull(*types.TypeDefinition, *Context) (any, error) { return nil, nil }

func (v *mapVisitor) SerializeString(data any, _ *types.TypeDefinition, _ *Context) (any, error) {
	return fmt.Sprint(reflect.Indirect(reflect.ValueOf(data)).Interface()), nil
}

func (v *mapVisitor) SerializeBoolean(data any, _ *types.TypeDefinition, _ *Context) (any, error) {
	return reflect.Indirect(reflect.ValueOf(data)).Bool(), nil
}

func (v *mapVisitor) SerializeInteger(data any, _ *types.TypeDefinition, _ *Context) (any, error) {
	return reflect.Indirect(reflect.ValueOf(data)).Int(), nil
}

func (v *mapVisitor) SerializeFloat(data any, _ *types.TypeDefinition, _ *Context) (any, error) {
	return reflect.Indirect(reflect.ValueOf(data)).Float(), nil
}

func (v *mapVisitor) SerializeArray(data any, t *types.TypeDefinition, ctx *Context) (any, error) {
	rv := reflect.ValueOf(data)
	if rv.Kind() != reflect.Slice {
		return nil, errors.Newf("unexpected %T", data)
	}
	out := make([]any, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		item, err := ctx.Navigator().Accept(rv.Index(i).Interface(), types.ElementType(t), ctx)
		if err != nil {
			return nil, err
		}
		if item == nil && !ctx.ShouldSerializeNull() {
			continue
		}
		out = append(out, item)
	}
	return out, nil
}

func (v *mapVisitor) StartSerializingObject(*metadata.ClassMetadata, any, *types.TypeDefinition, *Context) error {
	v.stack = append(v.stack, map[string]any{})
	return nil
}

func (v *mapVisitor) SerializeProperty(prop *metadata.PropertyMetadata, data any, ctx *Context) error {
	var value any
	if prop.Static {
		value = prop.StaticValue
	} else {
		value = reflect.Indirect(reflect.ValueOf(data)).FieldByIndex(prop.FieldIndex).Interface()
	}
	out, err := ctx.Navigator().Accept(value, prop.Type, ctx)
	if err != nil {
		return err
	}
	if out == nil && !ctx.ShouldSerializeNull() {
		return nil
	}
	v.stack[len(v.stack)-1][prop.Name] = out
	return nil
}

func (v *mapVisitor) EndSerializingObject(*metadata.ClassMetadata, any, *types.TypeDefinition, *Context) (any, error) {
	top := v.stack[len(v.stack)-1]
	v.stack = v.stack[:len(v.stack)-1]
	return top, nil
}

func (v *mapVisitor) SerializationResult(root any) ([]byte, error) {
	return []byte(fmt.Sprint(root)), nil
}

func (v *mapVisitor) DeserializeNull(any, *types.TypeDefinition, *Context) (any, error) {
	return nil, nil
}

func (v *mapVisitor) DeserializeString(data any, _ *types.TypeDefinition, _ *Context) (any, error) {
	return fmt.Sprint(data), nil
}

func (v *mapVisitor) DeserializeBoolean(data any, _ *types.TypeDefinition, _ *Context) (any, error) {
	return data, nil
}

func (v *mapVisitor) DeserializeInteger(data any, _ *types.TypeDefinition, _ *Context) (any, error) {
	return data, nil
}

func (v *mapVisitor) DeserializeFloat(data any, _ *types.TypeDefinition, _ *Context) (any, error) {
	return data, nil
}

func (v *mapVisitor) DeserializeArray(data any, t *types.TypeDefinition, ctx *Context) (any, error) {
	list, ok := data.([]any)
	if !ok {
		return nil, errors.Newf("unexpected %T", data)
	}
	out := make([]any, 0, len(list))
	for _, item := range list {
		value, err := ctx.Navigator().Accept(item, types.ElementType(t), ctx)
		if err != nil {
			return nil, err
		}
		out = append(out, value)
	}
	return out, nil
}

func (v *mapVisitor) StartDeserializingObject(*metadata.ClassMetadata, any, *types.TypeDefinition, *Context) error {
	return nil
}

func (v *mapVisitor) DeserializeProperty(prop *metadata.PropertyMetadata, data any, ctx *Context) error {
	var (
		raw any
		ok  bool
	)
	switch d := data.(type) {
	case map[string]any:
		raw, ok = d[prop.Name]
	case FieldReader:
		raw, ok = d.Field(prop.Name)
	default:
		return errors.Newf("unexpected %T", data)
	}
	if !ok || raw == nil {
		return nil
	}
	value, err := ctx.Navigator().Accept(raw, prop.Type, ctx)
	if err != nil || value == nil {
		return err
	}
	field := reflect.ValueOf(ctx.CurrentObject()).Elem().FieldByIndex(prop.FieldIndex)
	rv := reflect.ValueOf(value)
	switch {
	case field.Kind() == reflect.Slice && rv.Kind() == reflect.Slice:
		out := reflect.MakeSlice(field.Type(), rv.Len(), rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out.Index(i).Set(reflect.ValueOf(rv.Index(i).Interface()))
		}
		field.Set(out)
	case field.Kind() == reflect.Ptr && rv.Type() == field.Type().Elem():
		p := reflect.New(rv.Type())
		p.Elem().Set(rv)
		field.Set(p)
	default:
		field.Set(rv)
	}
	return nil
}

func (v *mapVisitor) EndDeserializingObject(_ *metadata.ClassMetadata, obj any, _ *types.TypeDefinition, _ *Context) (any, error) {
	return obj, nil
}

func (v *mapVisitor) PrepareData(raw []byte) (any, error) {
	return nil, errors.New("not supported")
}

// newConstructor 以 reflect.New 构造对象。
type newConstructor struct{}

func (newConstructor) Construct(meta *metadata.ClassMetadata) (any, error) {
	if meta.IsAbstract() {
		return nil, errors.Newf("abstract class %s", meta.Name)
	}
	return reflect.New(meta.Type).Interface(), nil
}
