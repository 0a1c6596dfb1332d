package graph

import (
	"reflect"
	"time"

	"go.uber.org/zap"

	"github.com/lk2023060901/graph-serializer/pkg/log"
	"github.com/lk2023060901/graph-serializer/pkg/metrics"
	"github.com/lk2023060901/graph-serializer/pkg/serializer/types"
	"github.com/lk2023060901/graph-serializer/pkg/util/merr"
)

var timeType = reflect.TypeOf(time.Time{})

// SerializationNavigator 驱动序列化方向的遍历。
type SerializationNavigator struct {
	log.Binder
	base
}

var _ Navigator = (*SerializationNavigator)(nil)

func NewSerializationNavigator(opts ...Option) *SerializationNavigator {
	n := &SerializationNavigator{
		base: base{navigatorOptions: buildOptions(opts), direction: Serialization},
	}
	n.SetComponent("serialization_navigator")
	return n
}

// Accept 遍历 data。t 为空或未知时由运行时值推断；nil 值总是按 NULL 处理。
func (n *SerializationNavigator) Accept(data any, t *types.TypeDefinition, ctx *Context) (any, error) {
	v, ok := ctx.Visitor().(SerializationVisitor)
	if !ok {
		return nil, merr.WrapErrConfiguration("context is not bound to a serialization visitor")
	}

	if isNil(data) {
		return v.SerializeNull(types.New(types.NullName), ctx)
	}
	if types.IsUnknown(t) {
		t = n.inferType(data, ctx)
	}

	switch t.Name {
	case types.NullName:
		return v.SerializeNull(t, ctx)
	case types.StringName:
		return v.SerializeString(data, t, ctx)
	case types.IntName, types.IntegerName:
		return v.SerializeInteger(data, t, ctx)
	case types.BoolName, types.BooleanName:
		return v.SerializeBoolean(data, t, ctx)
	case types.DoubleName, types.FloatName:
		return v.SerializeFloat(data, t, ctx)
	case types.ArrayName:
		depth, err := ctx.IncreaseDepth()
		if err != nil {
			return nil, err
		}
		defer depth.Release()
		return v.SerializeArray(data, t, ctx)
	case types.ResourceName:
		return nil, merr.WrapErrUnsupportedValue(indirectKind(data).String(), ctx.Path())
	default:
		return n.acceptObject(v, data, t, ctx)
	}
}

func (n *SerializationNavigator) acceptObject(v SerializationVisitor, data any, t *types.TypeDefinition, ctx *Context) (any, error) {
	if ctx.IsVisiting(data) {
		metrics.SerializerCyclesSuppressed.WithLabelValues(t.Name).Inc()
		n.Logger().RatedDebug(1, "cyclic reference suppressed",
			log.FieldType(t.String()), log.FieldPath(ctx.Path()))
		return nil, nil
	}
	visit := ctx.StartVisiting(data)
	defer visit.Release()

	depth, err := ctx.IncreaseDepth()
	if err != nil {
		return nil, err
	}
	defer depth.Release()

	t = n.narrow(data, t, ctx)

	if n.hasListeners(EventPreSerialize, t.Name, ctx.Format()) {
		evt := &Event{Context: ctx, Type: t, Object: data}
		if err := n.dispatch(EventPreSerialize, t.Name, evt); err != nil {
			return nil, err
		}
		data, t = evt.Object, evt.Type
		if isNil(data) {
			return v.SerializeNull(types.New(types.NullName), ctx)
		}
	}

	if fn, ok := n.handler(t.Name, ctx.Format()); ok {
		return fn(v, data, t, ctx)
	}

	meta, err := n.resolveMetadata(t.Name, ctx)
	if err != nil {
		return nil, err
	}
	skip, err := n.shouldSkipClass(meta, ctx)
	if err != nil || skip {
		return nil, err
	}

	class := ctx.ScopeClassMetadata(meta)
	defer class.Release()
	current := ctx.ScopeObject(data)
	defer current.Release()

	if err := invokeHooks(data, meta.PreSerialize, meta.Name); err != nil {
		return nil, err
	}
	if err := v.StartSerializingObject(meta, data, t, ctx); err != nil {
		return nil, err
	}
	for _, prop := range meta.Properties {
		skip, err := n.shouldSkipProperty(prop, ctx)
		if err != nil {
			return nil, err
		}
		if skip {
			continue
		}
		ctx.PushPropertyMetadata(prop)
		err = v.SerializeProperty(prop, data, ctx)
		ctx.PopPropertyMetadata()
		if err != nil {
			return nil, err
		}
	}
	if err := invokeHooks(data, meta.PostSerialize, meta.Name); err != nil {
		return nil, err
	}

	current.Release()
	class.Release()
	visit.Release()
	if err := n.dispatch(EventPostSerialize, t.Name, &Event{Context: ctx, Type: t, Object: data}); err != nil {
		return nil, err
	}
	return v.EndSerializingObject(meta, data, t, ctx)
}

// narrow 在运行时类型是声明类型的严格子类时改用运行时类型。
func (n *SerializationNavigator) narrow(data any, t *types.TypeDefinition, ctx *Context) *types.TypeDefinition {
	provider := ctx.MetadataProvider()
	actual, ok := provider.ClassName(reflect.TypeOf(data))
	if !ok || actual == t.Name {
		return t
	}
	if provider.IsSubclassOf(actual, t.Name) {
		n.Logger().Debug("narrowed declared type to runtime class",
			zap.String("declared", t.Name), zap.String("actual", actual))
		return types.New(actual)
	}
	return t
}

// inferType 由运行时值推断类型，非类的结构体按 Go 类型名处理。
func (n *SerializationNavigator) inferType(data any, ctx *Context) *types.TypeDefinition {
	rv := reflect.ValueOf(data)
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return types.New(types.NullName)
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.String:
		return types.New(types.StringName)
	case reflect.Bool:
		return types.New(types.BooleanName)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return types.New(types.IntegerName)
	case reflect.Float32, reflect.Float64:
		return types.New(types.DoubleName)
	case reflect.Slice, reflect.Array, reflect.Map:
		return types.New(types.ArrayName)
	case reflect.Struct:
		if rv.Type() == timeType {
			return types.New(types.DateTimeName)
		}
		if name, ok := ctx.MetadataProvider().ClassName(rv.Type()); ok {
			return types.New(name)
		}
		return types.New(rv.Type().String())
	default:
		return types.New(types.ResourceName)
	}
}

// isNil 判断值是否为空，包括空指针、空接口、空切片与空映射。
func isNil(data any) bool {
	if data == nil {
		return true
	}
	rv := reflect.ValueOf(data)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

func indirectKind(data any) reflect.Kind {
	t := reflect.TypeOf(data)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Kind()
}
