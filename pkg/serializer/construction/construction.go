// Package construction 提供反序列化时构造目标对象的两种实现。
package construction

import (
	"reflect"

	"github.com/lk2023060901/graph-serializer/pkg/serializer/accessor"
	"github.com/lk2023060901/graph-serializer/pkg/serializer/graph"
	"github.com/lk2023060901/graph-serializer/pkg/serializer/metadata"
	"github.com/lk2023060901/graph-serializer/pkg/serializer/naming"
	"github.com/lk2023060901/graph-serializer/pkg/serializer/types"
	"github.com/lk2023060901/graph-serializer/pkg/util/merr"
)

func newInstance(meta *metadata.ClassMetadata) (reflect.Value, error) {
	if meta.IsAbstract() {
		return reflect.Value{}, merr.WrapErrConfiguration("cannot construct abstract class " + meta.Name)
	}
	return reflect.New(meta.Type), nil
}

// Unserialize 直接分配零值对象，不调用任何构造逻辑。
type Unserialize struct{}

var _ graph.Constructor = Unserialize{}

func (Unserialize) Construct(meta *metadata.ClassMetadata) (any, error) {
	obj, err := newInstance(meta)
	if err != nil {
		return nil, err
	}
	return obj.Interface(), nil
}

// Initializing 分配对象后用输入中的值填充只读属性，
// 只读属性只在这一步被赋值，遍历过程中不会再写入。
type Initializing struct {
	Accessor accessor.Accessor
	Naming   naming.Strategy
}

var _ graph.Instantiator = (*Initializing)(nil)

func NewInitializing(acc accessor.Accessor, names naming.Strategy) *Initializing {
	if acc == nil {
		acc = accessor.Reflection{}
	}
	if names == nil {
		names = naming.Default()
	}
	return &Initializing{Accessor: acc, Naming: names}
}

func (c *Initializing) Instantiate(_ graph.DeserializationVisitor, meta *metadata.ClassMetadata, data any, _ *types.TypeDefinition, ctx *graph.Context) (any, error) {
	rv, err := newInstance(meta)
	if err != nil {
		return nil, err
	}
	obj := rv.Interface()
	fields, ok := data.(map[string]any)
	if !ok {
		return obj, nil
	}
	for _, prop := range meta.Properties {
		if !prop.ReadOnly || prop.Static {
			continue
		}
		raw, found := fields[c.Naming.TranslateName(prop)]
		if !found || raw == nil {
			continue
		}
		if err := c.assign(obj, prop, raw, ctx); err != nil {
			return nil, err
		}
	}
	return obj, nil
}

func (c *Initializing) assign(obj any, prop *metadata.PropertyMetadata, raw any, ctx *graph.Context) error {
	ctx.PushPropertyMetadata(prop)
	defer ctx.PopPropertyMetadata()
	value := raw
	if !types.IsUnknown(prop.Type) {
		var err error
		if value, err = ctx.Navigator().Accept(raw, prop.Type, ctx); err != nil {
			return err
		}
	}
	return c.Accessor.SetValue(obj, prop, value)
}
