// Package graph 实现对象图遍历引擎：遍历上下文与序列化、反序列化两个导航器。
//
// 导航器负责递归、循环与深度检测、多态解析、排除策略与生命周期钩子，
// 具体的编码与解码交给 Visitor 完成。
package graph

import (
	"github.com/lk2023060901/graph-serializer/pkg/serializer/metadata"
	"github.com/lk2023060901/graph-serializer/pkg/serializer/types"
)

// Direction 表示一次调用的遍历方向。
type Direction int

const (
	Serialization Direction = iota + 1
	Deserialization
)

func (d Direction) String() string {
	switch d {
	case Serialization:
		return "serialization"
	case Deserialization:
		return "deserialization"
	default:
		return "unknown"
	}
}

// 生命周期事件名。
const (
	EventPreSerialize    = "serializer.pre_serialize"
	EventPostSerialize   = "serializer.post_serialize"
	EventPreDeserialize  = "serializer.pre_deserialize"
	EventPostDeserialize = "serializer.post_deserialize"
)

// Visitor 为格式相关的访问者。
type Visitor interface {
	Format() string
}

// SerializationVisitor 将导航器的回调转换为中间表示。
type SerializationVisitor interface {
	Visitor
	SerializeNull(t *types.TypeDefinition, ctx *Context) (any, error)
	SerializeString(data any, t *types.TypeDefinition, ctx *Context) (any, error)
	SerializeBoolean(data any, t *types.TypeDefinition, ctx *Context) (any, error)
	SerializeInteger(data any, t *types.TypeDefinition, ctx *Context) (any, error)
	SerializeFloat(data any, t *types.TypeDefinition, ctx *Context) (any, error)
	SerializeArray(data any, t *types.TypeDefinition, ctx *Context) (any, error)

	StartSerializingObject(meta *metadata.ClassMetadata, data any, t *types.TypeDefinition, ctx *Context) error
	// SerializeProperty 读取属性值、递归遍历并按空值策略写入当前对象。
	SerializeProperty(prop *metadata.PropertyMetadata, data any, ctx *Context) error
	EndSerializingObject(meta *metadata.ClassMetadata, data any, t *types.TypeDefinition, ctx *Context) (any, error)

	// SerializationResult 将根节点编码为最终输出。
	SerializationResult(root any) ([]byte, error)
}

// DeserializationVisitor 将解码后的输入转换为对象。
type DeserializationVisitor interface {
	Visitor
	DeserializeNull(data any, t *types.TypeDefinition, ctx *Context) (any, error)
	DeserializeString(data any, t *types.TypeDefinition, ctx *Context) (any, error)
	DeserializeBoolean(data any, t *types.TypeDefinition, ctx *Context) (any, error)
	DeserializeInteger(data any, t *types.TypeDefinition, ctx *Context) (any, error)
	DeserializeFloat(data any, t *types.TypeDefinition, ctx *Context) (any, error)
	DeserializeArray(data any, t *types.TypeDefinition, ctx *Context) (any, error)

	StartDeserializingObject(meta *metadata.ClassMetadata, obj any, t *types.TypeDefinition, ctx *Context) error
	// DeserializeProperty 从 data 中按名字取出字段并赋给 ctx.CurrentObject()。
	DeserializeProperty(prop *metadata.PropertyMetadata, data any, ctx *Context) error
	EndDeserializingObject(meta *metadata.ClassMetadata, obj any, t *types.TypeDefinition, ctx *Context) (any, error)

	// PrepareData 在遍历前解码原始输入。
	PrepareData(raw []byte) (any, error)
}

// Navigator 递归遍历对象图。
type Navigator interface {
	Accept(data any, t *types.TypeDefinition, ctx *Context) (any, error)
}

// HandlerFunc 为自定义处理器，命中时完全替代该节点的默认遍历。
// v 为当前方向的访问者，调用方按需断言为 SerializationVisitor 或 DeserializationVisitor。
type HandlerFunc func(v Visitor, data any, t *types.TypeDefinition, ctx *Context) (any, error)

// HandlerRegistry 按 (方向, 类型名, 格式) 查找自定义处理器。
type HandlerRegistry interface {
	Handler(direction Direction, typeName, format string) (HandlerFunc, bool)
}

// Event 为可变的事件载荷，pre 事件的监听者可以替换 Type、Object 与 Data。
type Event struct {
	Context *Context
	Type    *types.TypeDefinition
	// Object 为序列化时的值，或反序列化得到的对象。
	Object any
	// Data 为反序列化时的输入数据。
	Data any

	stopped bool
}

// StopPropagation 阻止后续监听者收到该事件。
func (e *Event) StopPropagation() {
	e.stopped = true
}

func (e *Event) IsPropagationStopped() bool {
	return e.stopped
}

// EventDispatcher 为事件分发能力。
type EventDispatcher interface {
	HasListeners(event, class, format string) bool
	Dispatch(event, class, format string, evt *Event) error
}

// Instantiator 为完整上下文的对象构造契约。
type Instantiator interface {
	Instantiate(v DeserializationVisitor, meta *metadata.ClassMetadata, data any, t *types.TypeDefinition, ctx *Context) (any, error)
}

// Constructor 为简化的对象构造契约。
type Constructor interface {
	Construct(meta *metadata.ClassMetadata) (any, error)
}

// AttributeReader 由携带结构化属性的输入实现。
type AttributeReader interface {
	Attribute(name string) (any, bool)
}

// FieldReader 由携带结构化字段的输入实现。
type FieldReader interface {
	Field(name string) (any, bool)
}
