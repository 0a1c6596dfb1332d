package visitor

import (
	"math"
	"reflect"
	"strconv"

	"github.com/spf13/cast"

	"github.com/lk2023060901/graph-serializer/pkg/serializer/accessor"
	"github.com/lk2023060901/graph-serializer/pkg/serializer/graph"
	"github.com/lk2023060901/graph-serializer/pkg/serializer/metadata"
	"github.com/lk2023060901/graph-serializer/pkg/serializer/naming"
	"github.com/lk2023060901/graph-serializer/pkg/serializer/types"
)

// DeserializationVisitor 将解码后的树还原为对象。
// 输入形状与声明类型不符时返回 ErrInvalidInput，不做隐式转换。
type DeserializationVisitor struct {
	codec    Codec
	accessor accessor.Accessor
	naming   naming.Strategy
}

var _ graph.DeserializationVisitor = (*DeserializationVisitor)(nil)

func NewDeserializationVisitor(codec Codec, acc accessor.Accessor, names naming.Strategy) *DeserializationVisitor {
	if acc == nil {
		acc = accessor.Reflection{}
	}
	if names == nil {
		names = naming.Default()
	}
	return &DeserializationVisitor{codec: codec, accessor: acc, naming: names}
}

func (v *DeserializationVisitor) Format() string {
	return v.codec.Format()
}

func (v *DeserializationVisitor) PrepareData(raw []byte) (any, error) {
	return v.codec.Decode(raw)
}

func (v *DeserializationVisitor) DeserializeNull(any, *types.TypeDefinition, *graph.Context) (any, error) {
	return nil, nil
}

func (v *DeserializationVisitor) DeserializeString(data any, _ *types.TypeDefinition, ctx *graph.Context) (any, error) {
	if accessor.IsContainer(reflect.ValueOf(data)) {
		return nil, invalidInput(ctx, types.StringName, data)
	}
	s, err := cast.ToStringE(data)
	if err != nil {
		return nil, invalidInput(ctx, types.StringName, data)
	}
	return s, nil
}

func (v *DeserializationVisitor) DeserializeBoolean(data any, _ *types.TypeDefinition, ctx *graph.Context) (any, error) {
	b, err := cast.ToBoolE(data)
	if err != nil {
		return nil, invalidInput(ctx, types.BooleanName, data)
	}
	return b, nil
}

// DeserializeInteger 接受整数与整值浮点数；超过 int64 的无符号整数以 uint64 原样返回。
func (v *DeserializationVisitor) DeserializeInteger(data any, _ *types.TypeDefinition, ctx *graph.Context) (any, error) {
	switch value := data.(type) {
	case uint64:
		return value, nil
	case float64:
		if value != math.Trunc(value) {
			return nil, invalidInput(ctx, types.IntegerName, data)
		}
	case float32:
		if float64(value) != math.Trunc(float64(value)) {
			return nil, invalidInput(ctx, types.IntegerName, data)
		}
	}
	i, err := cast.ToInt64E(data)
	if err != nil {
		return nil, invalidInput(ctx, types.IntegerName, data)
	}
	return i, nil
}

func (v *DeserializationVisitor) DeserializeFloat(data any, _ *types.TypeDefinition, ctx *graph.Context) (any, error) {
	f, err := cast.ToFloat64E(data)
	if err != nil {
		return nil, invalidInput(ctx, types.DoubleName, data)
	}
	return f, nil
}

// DeserializeArray 没有类型参数时原样返回；一个参数返回 []any；两个参数返回 map[string]any。
func (v *DeserializationVisitor) DeserializeArray(data any, t *types.TypeDefinition, ctx *graph.Context) (any, error) {
	if err := checkArrayParams(data, t, ctx); err != nil {
		return nil, err
	}
	if obj, ok := data.(*Object); ok {
		data = obj.ToMap()
	}
	switch len(t.Params) {
	case 0:
		return data, nil
	case 1:
		elem := t.Params[0]
		switch value := data.(type) {
		case []any:
			out := make([]any, 0, len(value))
			for _, item := range value {
				result, err := ctx.Navigator().Accept(item, elem, ctx)
				if err != nil {
					return nil, err
				}
				out = append(out, result)
			}
			return out, nil
		case map[string]any:
			keys := sortedKeys(reflect.ValueOf(value))
			out := make([]any, 0, len(keys))
			for _, k := range keys {
				result, err := ctx.Navigator().Accept(value[k.String()], elem, ctx)
				if err != nil {
					return nil, err
				}
				out = append(out, result)
			}
			return out, nil
		}
	case 2:
		elem := t.Params[1]
		switch value := data.(type) {
		case map[string]any:
			out := make(map[string]any, len(value))
			for k, item := range value {
				result, err := ctx.Navigator().Accept(item, elem, ctx)
				if err != nil {
					return nil, err
				}
				out[k] = result
			}
			return out, nil
		case []any:
			out := make(map[string]any, len(value))
			for i, item := range value {
				result, err := ctx.Navigator().Accept(item, elem, ctx)
				if err != nil {
					return nil, err
				}
				out[strconv.Itoa(i)] = result
			}
			return out, nil
		}
	}
	return nil, invalidInput(ctx, types.ArrayName, data)
}

func (v *DeserializationVisitor) StartDeserializingObject(*metadata.ClassMetadata, any, *types.TypeDefinition, *graph.Context) error {
	return nil
}

// DeserializeProperty 从 map[string]any 或 *Object 中读取翻译后的字段名；
// 字段缺失或为 null 时保持对象原值。
func (v *DeserializationVisitor) DeserializeProperty(prop *metadata.PropertyMetadata, data any, ctx *graph.Context) error {
	if data == nil {
		return nil
	}
	var raw any
	switch fields := data.(type) {
	case map[string]any:
		if prop.Inline {
			raw = fields
		} else {
			raw = fields[v.naming.TranslateName(prop)]
		}
	case *Object:
		if prop.Inline {
			raw = fields.ToMap()
		} else {
			raw, _ = fields.Get(v.naming.TranslateName(prop))
		}
	default:
		return invalidInput(ctx, "object", data)
	}
	if raw == nil {
		return nil
	}

	value := raw
	if !types.IsUnknown(prop.Type) {
		var err error
		if value, err = ctx.Navigator().Accept(raw, prop.Type, ctx); err != nil {
			return err
		}
	}
	if value == nil {
		return nil
	}
	return v.accessor.SetValue(ctx.CurrentObject(), prop, value)
}

func (v *DeserializationVisitor) EndDeserializingObject(_ *metadata.ClassMetadata, obj any, _ *types.TypeDefinition, _ *graph.Context) (any, error) {
	return obj, nil
}
