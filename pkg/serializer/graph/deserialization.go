package graph

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/lk2023060901/graph-serializer/pkg/log"
	"github.com/lk2023060901/graph-serializer/pkg/serializer/metadata"
	"github.com/lk2023060901/graph-serializer/pkg/serializer/types"
	"github.com/lk2023060901/graph-serializer/pkg/util/merr"
)

// DeserializationNavigator 驱动反序列化方向的遍历。
type DeserializationNavigator struct {
	log.Binder
	base
}

var _ Navigator = (*DeserializationNavigator)(nil)

// NewDeserializationNavigator 要求恰好配置 Instantiator 与 Constructor 之一。
func NewDeserializationNavigator(opts ...Option) (*DeserializationNavigator, error) {
	o := buildOptions(opts)
	switch {
	case o.instantiator == nil && o.constructor == nil:
		return nil, merr.WrapErrConfiguration("an object instantiator or constructor is required")
	case o.instantiator != nil && o.constructor != nil:
		return nil, merr.WrapErrConfiguration("only one of object instantiator and constructor may be configured")
	}
	n := &DeserializationNavigator{
		base: base{navigatorOptions: o, direction: Deserialization},
	}
	n.SetComponent("deserialization_navigator")
	return n, nil
}

// Accept 将 data 转换为 t 描述的值。t 必须给出；data 为 nil 时结果为 nil。
func (n *DeserializationNavigator) Accept(data any, t *types.TypeDefinition, ctx *Context) (any, error) {
	v, ok := ctx.Visitor().(DeserializationVisitor)
	if !ok {
		return nil, merr.WrapErrConfiguration("context is not bound to a deserialization visitor")
	}
	if types.IsUnknown(t) {
		return nil, merr.WrapErrMissingType(ctx.Path())
	}

	switch t.Name {
	case types.NullName:
		return v.DeserializeNull(data, t, ctx)
	}
	if data == nil {
		return nil, nil
	}

	switch t.Name {
	case types.StringName:
		return v.DeserializeString(data, t, ctx)
	case types.IntName, types.IntegerName:
		return v.DeserializeInteger(data, t, ctx)
	case types.BoolName, types.BooleanName:
		return v.DeserializeBoolean(data, t, ctx)
	case types.DoubleName, types.FloatName:
		return v.DeserializeFloat(data, t, ctx)
	case types.ArrayName:
		depth, err := ctx.IncreaseDepth()
		if err != nil {
			return nil, err
		}
		defer depth.Release()
		return v.DeserializeArray(data, t, ctx)
	case types.ResourceName:
		return nil, merr.WrapErrUnsupportedValue(types.ResourceName, ctx.Path())
	default:
		return n.acceptObject(v, data, t, ctx)
	}
}

func (n *DeserializationNavigator) acceptObject(v DeserializationVisitor, data any, t *types.TypeDefinition, ctx *Context) (any, error) {
	depth, err := ctx.IncreaseDepth()
	if err != nil {
		return nil, err
	}
	defer depth.Release()

	if n.hasListeners(EventPreDeserialize, t.Name, ctx.Format()) {
		evt := &Event{Context: ctx, Type: t, Data: data}
		if err := n.dispatch(EventPreDeserialize, t.Name, evt); err != nil {
			return nil, err
		}
		data, t = evt.Data, evt.Type
		if types.IsUnknown(t) {
			return nil, merr.WrapErrMissingType(ctx.Path(), "type cleared by pre-deserialize listener")
		}
	}

	if fn, ok := n.handler(t.Name, ctx.Format()); ok {
		return fn(v, data, t, ctx)
	}

	meta, err := n.resolveMetadata(t.Name, ctx)
	if err != nil {
		return nil, err
	}
	if d := meta.Discriminator; d != nil && t.Name == d.BaseClass {
		if meta, err = n.resolveDiscriminator(meta, data, ctx); err != nil {
			return nil, err
		}
		t = types.New(meta.Name)
	}

	skip, err := n.shouldSkipClass(meta, ctx)
	if err != nil || skip {
		return nil, err
	}

	class := ctx.ScopeClassMetadata(meta)
	defer class.Release()

	obj, err := n.construct(v, meta, data, t, ctx)
	if err != nil {
		return nil, err
	}
	current := ctx.ScopeObject(obj)
	defer current.Release()

	if err := invokeHooks(obj, meta.PreDeserialize, meta.Name); err != nil {
		return nil, err
	}
	if err := v.StartDeserializingObject(meta, obj, t, ctx); err != nil {
		return nil, err
	}
	for _, prop := range meta.Properties {
		// 只读属性只在构造时赋值。
		if prop.ReadOnly {
			continue
		}
		skip, err := n.shouldSkipProperty(prop, ctx)
		if err != nil {
			return nil, err
		}
		if skip {
			continue
		}
		ctx.PushPropertyMetadata(prop)
		err = v.DeserializeProperty(prop, data, ctx)
		ctx.PopPropertyMetadata()
		if err != nil {
			return nil, err
		}
	}
	result, err := v.EndDeserializingObject(meta, obj, t, ctx)
	if err != nil {
		return nil, err
	}
	if err := invokeHooks(result, meta.PostDeserialize, meta.Name); err != nil {
		return nil, err
	}

	current.Release()
	depth.Release()
	class.Release()
	if n.hasListeners(EventPostDeserialize, t.Name, ctx.Format()) {
		evt := &Event{Context: ctx, Type: t, Object: result, Data: data}
		if err := n.dispatch(EventPostDeserialize, t.Name, evt); err != nil {
			return nil, err
		}
		result = evt.Object
	}
	return result, nil
}

func (n *DeserializationNavigator) construct(v DeserializationVisitor, meta *metadata.ClassMetadata, data any, t *types.TypeDefinition, ctx *Context) (any, error) {
	if n.instantiator != nil {
		return n.instantiator.Instantiate(v, meta, data, t, ctx)
	}
	return n.constructor.Construct(meta)
}

// resolveDiscriminator 从输入中取出判别值并返回对应子类的元数据。
// 依次尝试：映射索引、结构化属性（仅在类声明时）、结构化字段。
func (n *DeserializationNavigator) resolveDiscriminator(meta *metadata.ClassMetadata, data any, ctx *Context) (*metadata.ClassMetadata, error) {
	d := meta.Discriminator
	raw, found := discriminatorValue(meta, data)
	if !found {
		return nil, merr.WrapErrDiscriminatorFieldMissing(d.FieldName, meta.Name)
	}
	tag := fmt.Sprint(raw)
	class, ok := d.Resolve(tag)
	if !ok {
		return nil, merr.WrapErrDiscriminatorUnknownTag(tag, meta.Name, d.Tags())
	}
	n.Logger().Debug("discriminator resolved",
		zap.String("base", meta.Name), zap.String("tag", tag), zap.String("class", class),
		log.FieldPath(ctx.Path()))
	return n.resolveMetadata(class, ctx)
}

func discriminatorValue(meta *metadata.ClassMetadata, data any) (any, bool) {
	field := meta.Discriminator.FieldName
	if m, ok := data.(map[string]any); ok {
		raw, found := m[field]
		return raw, found && raw != nil
	}
	if r, ok := data.(AttributeReader); ok && meta.XMLDiscriminatorAttribute {
		if raw, found := r.Attribute(field); found && raw != nil {
			return raw, true
		}
	}
	if r, ok := data.(FieldReader); ok {
		if raw, found := r.Field(field); found && raw != nil {
			return raw, true
		}
	}
	return nil, false
}
