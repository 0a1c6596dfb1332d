package visitor

import (
	"reflect"
	"strconv"

	"github.com/spf13/cast"

	"github.com/lk2023060901/graph-serializer/pkg/serializer/accessor"
	"github.com/lk2023060901/graph-serializer/pkg/serializer/graph"
	"github.com/lk2023060901/graph-serializer/pkg/serializer/metadata"
	"github.com/lk2023060901/graph-serializer/pkg/serializer/naming"
	"github.com/lk2023060901/graph-serializer/pkg/serializer/types"
	"github.com/lk2023060901/graph-serializer/pkg/util/merr"
	"github.com/lk2023060901/graph-serializer/pkg/util/typeutil"
)

// SerializationVisitor 构建有序中间树，最后交给 Codec 编码。
// 实例持有遍历状态，每次调用使用新的实例。
type SerializationVisitor struct {
	codec    Codec
	accessor accessor.Accessor
	naming   naming.Strategy
	objects  typeutil.Stack[*Object]
}

var _ graph.SerializationVisitor = (*SerializationVisitor)(nil)

func NewSerializationVisitor(codec Codec, acc accessor.Accessor, names naming.Strategy) *SerializationVisitor {
	if acc == nil {
		acc = accessor.Reflection{}
	}
	if names == nil {
		names = naming.Default()
	}
	return &SerializationVisitor{codec: codec, accessor: acc, naming: names}
}

func (v *SerializationVisitor) Format() string {
	return v.codec.Format()
}

func (v *SerializationVisitor) SerializeNull(*types.TypeDefinition, *graph.Context) (any, error) {
	return nil, nil
}

func (v *SerializationVisitor) SerializeString(data any, _ *types.TypeDefinition, ctx *graph.Context) (any, error) {
	value := indirect(data)
	if rv := reflect.ValueOf(value); rv.Kind() == reflect.String {
		return rv.String(), nil
	}
	s, err := cast.ToStringE(value)
	if err != nil {
		return nil, invalidInput(ctx, types.StringName, data)
	}
	return s, nil
}

func (v *SerializationVisitor) SerializeBoolean(data any, _ *types.TypeDefinition, ctx *graph.Context) (any, error) {
	value := indirect(data)
	if rv := reflect.ValueOf(value); rv.Kind() == reflect.Bool {
		return rv.Bool(), nil
	}
	b, err := cast.ToBoolE(value)
	if err != nil {
		return nil, invalidInput(ctx, types.BooleanName, data)
	}
	return b, nil
}

func (v *SerializationVisitor) SerializeInteger(data any, _ *types.TypeDefinition, ctx *graph.Context) (any, error) {
	value := indirect(data)
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u <= uint64(1<<63-1) {
			return int64(u), nil
		}
		return u, nil
	}
	i, err := cast.ToInt64E(value)
	if err != nil {
		return nil, invalidInput(ctx, types.IntegerName, data)
	}
	return i, nil
}

func (v *SerializationVisitor) SerializeFloat(data any, _ *types.TypeDefinition, ctx *graph.Context) (any, error) {
	value := indirect(data)
	if rv := reflect.ValueOf(value); rv.Kind() == reflect.Float32 || rv.Kind() == reflect.Float64 {
		return rv.Float(), nil
	}
	f, err := cast.ToFloat64E(value)
	if err != nil {
		return nil, invalidInput(ctx, types.DoubleName, data)
	}
	return f, nil
}

// SerializeArray 按类型参数决定输出形状：两个参数输出映射，一个参数输出列表，
// 没有参数时保持输入的形状。元素与对象属性使用同一空值策略。
func (v *SerializationVisitor) SerializeArray(data any, t *types.TypeDefinition, ctx *graph.Context) (any, error) {
	if err := checkArrayParams(data, t, ctx); err != nil {
		return nil, err
	}
	elem := types.ElementType(t)
	isHash := t.HasParam(1)
	isList := t.HasParam(0) && !isHash

	if obj, ok := data.(*Object); ok {
		return v.serializeObjectEntries(obj, elem, isList, ctx)
	}

	rv := reflect.ValueOf(data)
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if isHash {
			out := NewObject(rv.Len())
			for i := 0; i < rv.Len(); i++ {
				if err := v.setEntry(out, strconv.Itoa(i), rv.Index(i).Interface(), elem, ctx); err != nil {
					return nil, err
				}
			}
			return out, nil
		}
		out := make([]any, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			item, err := ctx.Navigator().Accept(rv.Index(i).Interface(), elem, ctx)
			if err != nil {
				return nil, err
			}
			if item == nil && !ctx.ShouldSerializeNull() {
				continue
			}
			out = append(out, item)
		}
		return out, nil
	case reflect.Map:
		keys := sortedKeys(rv)
		if isList {
			out := make([]any, 0, len(keys))
			for _, k := range keys {
				item, err := ctx.Navigator().Accept(rv.MapIndex(k).Interface(), elem, ctx)
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
		out := NewObject(len(keys))
		for _, k := range keys {
			if err := v.setEntry(out, cast.ToString(k.Interface()), rv.MapIndex(k).Interface(), elem, ctx); err != nil {
				return nil, err
			}
		}
		return out, nil
	default:
		return nil, invalidInput(ctx, types.ArrayName, data)
	}
}

func (v *SerializationVisitor) serializeObjectEntries(obj *Object, elem *types.TypeDefinition, isList bool, ctx *graph.Context) (any, error) {
	var (
		list []any
		out  = NewObject(obj.Len())
		err  error
	)
	obj.Range(func(key string, item any) bool {
		var value any
		if value, err = ctx.Navigator().Accept(item, elem, ctx); err != nil {
			return false
		}
		if value == nil && !ctx.ShouldSerializeNull() {
			return true
		}
		if isList {
			list = append(list, value)
		} else {
			out.Set(key, value)
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	if isList {
		if list == nil {
			list = []any{}
		}
		return list, nil
	}
	return out, nil
}

func (v *SerializationVisitor) setEntry(out *Object, key string, item any, elem *types.TypeDefinition, ctx *graph.Context) error {
	value, err := ctx.Navigator().Accept(item, elem, ctx)
	if err != nil {
		return err
	}
	if value == nil && !ctx.ShouldSerializeNull() {
		return nil
	}
	out.Set(key, value)
	return nil
}

func (v *SerializationVisitor) StartSerializingObject(meta *metadata.ClassMetadata, _ any, _ *types.TypeDefinition, _ *graph.Context) error {
	v.objects.Push(NewObject(len(meta.Properties)))
	return nil
}

// SerializeProperty 通过 Accessor 读取属性，内联属性的字段合并到当前对象。
func (v *SerializationVisitor) SerializeProperty(prop *metadata.PropertyMetadata, data any, ctx *graph.Context) error {
	value, err := v.accessor.Value(data, prop)
	if err != nil {
		return err
	}
	out, err := ctx.Navigator().Accept(value, prop.Type, ctx)
	if err != nil {
		return err
	}
	current, ok := v.objects.Peek()
	if !ok {
		return merr.WrapErrConfiguration("property serialized outside of an object", prop.Class, prop.Name)
	}

	if prop.Inline {
		if child, ok := out.(*Object); ok {
			child.Range(func(key string, item any) bool {
				current.Set(key, item)
				return true
			})
		}
		return nil
	}
	if out == nil && !ctx.ShouldSerializeNull() {
		return nil
	}
	current.Set(v.naming.TranslateName(prop), out)
	return nil
}

func (v *SerializationVisitor) EndSerializingObject(*metadata.ClassMetadata, any, *types.TypeDefinition, *graph.Context) (any, error) {
	obj, _ := v.objects.Pop()
	return obj, nil
}

func (v *SerializationVisitor) SerializationResult(root any) ([]byte, error) {
	return v.codec.Encode(root)
}

func indirect(data any) any {
	rv := reflect.ValueOf(data)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return nil
	}
	return rv.Interface()
}

// checkArrayParams 拒绝超过两个类型参数的容器类型，两个方向共用。
func checkArrayParams(data any, t *types.TypeDefinition, ctx *graph.Context) error {
	if t.HasParam(2) {
		return invalidInput(ctx, t.String()+" (at most two type parameters)", data)
	}
	return nil
}

func invalidInput(ctx *graph.Context, expected string, actual any) error {
	class := ""
	if meta := ctx.CurrentClassMetadata(); meta != nil {
		class = meta.Name
	}
	return merr.WrapErrInvalidInput(class, ctx.Path(), expected, actual)
}
