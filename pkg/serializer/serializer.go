// Package serializer 是对象图序列化的入口，负责组装上下文、访问者与导航器。
package serializer

import (
	"reflect"
	"time"

	"go.uber.org/zap"

	"github.com/lk2023060901/graph-serializer/internal/compressor"
	"github.com/lk2023060901/graph-serializer/pkg/log"
	"github.com/lk2023060901/graph-serializer/pkg/metrics"
	"github.com/lk2023060901/graph-serializer/pkg/serializer/accessor"
	"github.com/lk2023060901/graph-serializer/pkg/serializer/event"
	"github.com/lk2023060901/graph-serializer/pkg/serializer/graph"
	"github.com/lk2023060901/graph-serializer/pkg/serializer/handler"
	"github.com/lk2023060901/graph-serializer/pkg/serializer/metadata"
	"github.com/lk2023060901/graph-serializer/pkg/serializer/naming"
	"github.com/lk2023060901/graph-serializer/pkg/serializer/types"
	"github.com/lk2023060901/graph-serializer/pkg/serializer/visitor"
	"github.com/lk2023060901/graph-serializer/pkg/util/conc"
	"github.com/lk2023060901/graph-serializer/pkg/util/merr"
)

// AttributeInitialType 为上下文属性名，调用方未传入类型时用作根节点类型。
const AttributeInitialType = "initial_type"

// Serializer 可并发使用，每次调用都会创建独立的访问者，上下文由调用方按次提供。
type Serializer struct {
	log.Binder

	cfg          *Config
	provider     metadata.Provider
	handlers     *handler.Registry
	dispatcher   *event.Dispatcher
	naming       naming.Strategy
	accessor     accessor.Accessor
	codecs       map[string]visitor.Codec
	compressor   compressor.Compressor
	serializer   *graph.SerializationNavigator
	deserializer *graph.DeserializationNavigator
	pool         *conc.Pool[[]byte]
}

func (s *Serializer) Config() *Config { return s.cfg }

func (s *Serializer) MetadataProvider() metadata.Provider { return s.provider }

// Handlers 返回处理器注册表，构建后注册的处理器对之后的调用生效。
func (s *Serializer) Handlers() *handler.Registry { return s.handlers }

func (s *Serializer) Dispatcher() *event.Dispatcher { return s.dispatcher }

// Formats 返回当前支持的格式名。
func (s *Serializer) Formats() []string {
	out := make([]string, 0, len(s.codecs))
	for name := range s.codecs {
		out = append(out, name)
	}
	return out
}

// SerializationContext 返回按配置初始化了空值策略、深度、分组与版本的新上下文。
func (s *Serializer) SerializationContext() (*graph.Context, error) {
	return s.applyDefaults(graph.NewSerializationContext())
}

func (s *Serializer) DeserializationContext() (*graph.Context, error) {
	return s.applyDefaults(graph.NewDeserializationContext())
}

func (s *Serializer) applyDefaults(ctx *graph.Context) (*graph.Context, error) {
	ctx.SetSerializeNull(s.cfg.SerializeNull).SetMaxDepth(s.cfg.MaxDepth)
	if len(s.cfg.Groups) > 0 {
		ctx.SetGroups(s.cfg.Groups...)
	}
	if s.cfg.Version != "" {
		if err := ctx.SetVersion(s.cfg.Version); err != nil {
			return nil, err
		}
	}
	return ctx, nil
}

// Serialize 将 value 编码为 format 格式。
// ctx 为 nil 时使用 SerializationContext()，typ 为空时尝试读取上下文属性 initial_type。
func (s *Serializer) Serialize(value any, format string, ctx *graph.Context, typ string) (out []byte, err error) {
	format = s.format(format)
	start := time.Now()
	defer func() { s.observe(graph.Serialization, format, start, len(out), err) }()

	codec, ok := s.codecs[format]
	if !ok {
		return nil, merr.WrapErrUnsupportedFormat(format, graph.Serialization.String())
	}
	v := visitor.NewSerializationVisitor(codec, s.accessor, s.naming)
	root, err := s.serialize(v, value, format, ctx, typ)
	if err != nil {
		return nil, err
	}
	out, err = v.SerializationResult(root)
	if err != nil {
		return nil, err
	}
	return s.compressor.Compress(nil, out)
}

// Deserialize 将 raw 解码为 typ 描述的值。
func (s *Serializer) Deserialize(raw []byte, typ, format string, ctx *graph.Context) (out any, err error) {
	format = s.format(format)
	start := time.Now()
	defer func() { s.observe(graph.Deserialization, format, start, len(raw), err) }()

	codec, ok := s.codecs[format]
	if !ok {
		return nil, merr.WrapErrUnsupportedFormat(format, graph.Deserialization.String())
	}
	plain, err := s.compressor.Decompress(nil, raw)
	if err != nil {
		return nil, merr.WrapErrDecodeFailed(format, err)
	}
	v := visitor.NewDeserializationVisitor(codec, s.accessor, s.naming)
	data, err := v.PrepareData(plain)
	if err != nil {
		return nil, err
	}
	return s.deserialize(v, data, format, ctx, typ)
}

// ToArray 将 value 转换为 map 形式的中间结果，结果不是映射时返回 ErrInvalidInput。
func (s *Serializer) ToArray(value any, ctx *graph.Context, typ string) (map[string]any, error) {
	v := visitor.NewSerializationVisitor(s.codecs[visitor.FormatJSON], s.accessor, s.naming)
	root, err := s.serialize(v, value, visitor.FormatJSON, ctx, typ)
	if err != nil {
		return nil, err
	}
	out, ok := visitor.Plain(root).(map[string]any)
	if !ok {
		return nil, merr.WrapErrInvalidInput("", "", "object", root)
	}
	return out, nil
}

// FromArray 是 ToArray 的逆操作。
func (s *Serializer) FromArray(data map[string]any, typ string, ctx *graph.Context) (any, error) {
	v := visitor.NewDeserializationVisitor(s.codecs[visitor.FormatJSON], s.accessor, s.naming)
	return s.deserialize(v, data, visitor.FormatJSON, ctx, typ)
}

// DeserializeInto 反序列化并把结果转换为 T，typ 为空时使用 T 对应的类名。
func DeserializeInto[T any](s *Serializer, raw []byte, typ, format string, ctx *graph.Context) (T, error) {
	var out T
	target := reflect.TypeOf((*T)(nil)).Elem()
	if typ == "" {
		name, ok := s.provider.ClassName(target)
		if !ok {
			return out, merr.WrapErrMissingType("", "no class registered for "+target.String())
		}
		typ = name
	}
	result, err := s.Deserialize(raw, typ, format, ctx)
	if err != nil {
		return out, err
	}
	if err := accessor.Assign(reflect.ValueOf(&out).Elem(), result); err != nil {
		return out, merr.WrapErrInvalidInput("", "", target.String(), result)
	}
	return out, nil
}

func (s *Serializer) serialize(v graph.SerializationVisitor, value any, format string, ctx *graph.Context, typ string) (any, error) {
	ctx, err := s.prepare(ctx, graph.Serialization, format, v, s.serializer)
	if err != nil {
		return nil, err
	}
	t, err := initialType(ctx, typ)
	if err != nil {
		return nil, err
	}
	return s.serializer.Accept(value, t, ctx)
}

func (s *Serializer) deserialize(v graph.DeserializationVisitor, data any, format string, ctx *graph.Context, typ string) (any, error) {
	ctx, err := s.prepare(ctx, graph.Deserialization, format, v, s.deserializer)
	if err != nil {
		return nil, err
	}
	t, err := initialType(ctx, typ)
	if err != nil {
		return nil, err
	}
	return s.deserializer.Accept(data, t, ctx)
}

func (s *Serializer) prepare(ctx *graph.Context, direction graph.Direction, format string, v graph.Visitor, nav graph.Navigator) (*graph.Context, error) {
	var err error
	if ctx == nil {
		if direction == graph.Serialization {
			ctx, err = s.SerializationContext()
		} else {
			ctx, err = s.DeserializationContext()
		}
		if err != nil {
			return nil, err
		}
	}
	if ctx.Direction() != direction {
		return nil, merr.WrapErrConfiguration("context direction " + ctx.Direction().String() + " does not match " + direction.String())
	}
	if err := ctx.Initialize(format, v, nav, s.provider); err != nil {
		return nil, err
	}
	return ctx, nil
}

func initialType(ctx *graph.Context, typ string) (*types.TypeDefinition, error) {
	if typ == "" {
		typ, _ = graph.AttributeAs[string](ctx, AttributeInitialType)
	}
	if typ == "" {
		return types.Unknown(), nil
	}
	return types.Parse(typ)
}

func (s *Serializer) format(format string) string {
	if format == "" {
		return s.cfg.DefaultFormat
	}
	return format
}

func (s *Serializer) observe(direction graph.Direction, format string, start time.Time, size int, err error) {
	status := metrics.SuccessLabel
	if err != nil {
		status = metrics.FailLabel
		s.Logger().RatedDebug(1, "serializer call failed",
			log.FieldDirection(direction.String()), log.FieldFormat(format), zap.Error(err))
	}
	metrics.SerializerCalls.WithLabelValues(direction.String(), format, status).Inc()
	metrics.SerializerCallLatency.WithLabelValues(direction.String(), format).
		Observe(float64(time.Since(start).Microseconds()) / 1000)
	if err == nil {
		metrics.SerializerPayloadSize.WithLabelValues(direction.String(), format).Observe(float64(size))
	}
}

// Close 释放批量调用的协程池与压缩器。
func (s *Serializer) Close() {
	s.pool.Release()
	if zc, ok := s.compressor.(*compressor.ZstdCompressor); ok {
		zc.Close()
	}
}
