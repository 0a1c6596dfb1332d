package serializer

import (
	"github.com/lk2023060901/graph-serializer/internal/compressor"
	"github.com/lk2023060901/graph-serializer/internal/json"
	"github.com/lk2023060901/graph-serializer/pkg/serializer/accessor"
	"github.com/lk2023060901/graph-serializer/pkg/serializer/construction"
	"github.com/lk2023060901/graph-serializer/pkg/serializer/event"
	"github.com/lk2023060901/graph-serializer/pkg/serializer/exclusion"
	"github.com/lk2023060901/graph-serializer/pkg/serializer/expression"
	"github.com/lk2023060901/graph-serializer/pkg/serializer/graph"
	"github.com/lk2023060901/graph-serializer/pkg/serializer/handler"
	"github.com/lk2023060901/graph-serializer/pkg/serializer/metadata"
	"github.com/lk2023060901/graph-serializer/pkg/serializer/naming"
	"github.com/lk2023060901/graph-serializer/pkg/serializer/visitor"
	"github.com/lk2023060901/graph-serializer/pkg/util/conc"
	"github.com/lk2023060901/graph-serializer/pkg/util/merr"
)

// Builder 组装 Serializer 依赖的各个协作者。
type Builder struct {
	cfg          *Config
	provider     metadata.Provider
	handlers     []func(r *handler.Registry)
	listeners    []func(d *event.Dispatcher)
	instantiator graph.Instantiator
	constructor  graph.Constructor
	naming       naming.Strategy
	accessor     accessor.Accessor
	evaluator    exclusion.Evaluator
	noEvaluator  bool
	codecs       []visitor.Codec
}

type Option func(b *Builder)

func WithConfig(cfg *Config) Option {
	return func(b *Builder) {
		b.cfg = cfg
	}
}

// WithMetadataProvider 替换缺省的基于结构体标签的元数据注册表。
func WithMetadataProvider(p metadata.Provider) Option {
	return func(b *Builder) {
		b.provider = p
	}
}

// ConfigureHandlers 在内置处理器注册完成后调用 fn，可覆盖内置处理器。
func ConfigureHandlers(fn func(r *handler.Registry)) Option {
	return func(b *Builder) {
		b.handlers = append(b.handlers, fn)
	}
}

func ConfigureListeners(fn func(d *event.Dispatcher)) Option {
	return func(b *Builder) {
		b.listeners = append(b.listeners, fn)
	}
}

// WithInstantiator 与 WithObjectConstructor 只能二选一。
func WithInstantiator(i graph.Instantiator) Option {
	return func(b *Builder) {
		b.instantiator = i
	}
}

func WithObjectConstructor(c graph.Constructor) Option {
	return func(b *Builder) {
		b.constructor = c
	}
}

func WithNamingStrategy(s naming.Strategy) Option {
	return func(b *Builder) {
		b.naming = s
	}
}

func WithAccessor(a accessor.Accessor) Option {
	return func(b *Builder) {
		b.accessor = a
	}
}

// WithExpressionEvaluator 替换缺省的 expr-lang 求值器，传入 nil 表示不启用条件排除。
func WithExpressionEvaluator(e exclusion.Evaluator) Option {
	return func(b *Builder) {
		b.evaluator = e
		b.noEvaluator = e == nil
	}
}

// WithCodec 注册额外的格式，同名格式会覆盖内置实现。
func WithCodec(c visitor.Codec) Option {
	return func(b *Builder) {
		b.codecs = append(b.codecs, c)
	}
}

func NewBuilder(opts ...Option) *Builder {
	b := &Builder{}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// New 等价于 NewBuilder(opts...).Build()。
func New(opts ...Option) (*Serializer, error) {
	return NewBuilder(opts...).Build()
}

// Build 校验配置并创建 Serializer。
func (b *Builder) Build() (*Serializer, error) {
	cfg := b.cfg
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.Version != "" {
		if _, err := exclusion.NewVersion(cfg.Version); err != nil {
			return nil, err
		}
	}
	if b.instantiator != nil && b.constructor != nil {
		return nil, merr.WrapErrConfiguration("instantiator and object constructor are mutually exclusive")
	}

	provider := b.provider
	if provider == nil {
		provider = metadata.NewRegistry()
	}
	names := b.naming
	if names == nil {
		names = naming.Default()
	}
	acc := b.accessor
	if acc == nil {
		acc = accessor.Reflection{}
	}

	handlers := handler.NewRegistry()
	handler.NewDateTime(cfg.DateLayout).Register(handlers)
	for _, fn := range b.handlers {
		fn(handlers)
	}
	dispatcher := event.NewDispatcher()
	for _, fn := range b.listeners {
		fn(dispatcher)
	}

	opts := []graph.Option{
		graph.WithHandlers(handlers),
		graph.WithDispatcher(dispatcher),
	}
	evaluator := b.evaluator
	if evaluator == nil && !b.noEvaluator {
		evaluator = expression.NewEvaluator()
	}
	if evaluator != nil {
		opts = append(opts, graph.WithExpressionStrategy(exclusion.NewExpression(evaluator)))
	}

	switch {
	case b.instantiator != nil:
		opts = append(opts, graph.WithInstantiator(b.instantiator))
	case b.constructor != nil:
		opts = append(opts, graph.WithConstructor(b.constructor))
	default:
		opts = append(opts, graph.WithConstructor(construction.Unserialize{}))
	}
	deserializer, err := graph.NewDeserializationNavigator(opts...)
	if err != nil {
		return nil, err
	}

	api, err := json.Engine(cfg.JSON.Engine)
	if err != nil {
		return nil, err
	}
	codecs := map[string]visitor.Codec{
		visitor.FormatJSON:     visitor.NewJSONCodec(api),
		visitor.FormatYAML:     visitor.YAMLCodec{},
		visitor.FormatProtobuf: visitor.ProtoCodec{},
	}
	for _, c := range b.codecs {
		codecs[c.Format()] = c
	}

	var comp compressor.Compressor = compressor.NopCompressor{}
	if cfg.Compression.Enabled {
		zc, err := compressor.NewZstdCompressor()
		if err != nil {
			return nil, merr.WrapErrConfiguration("create zstd compressor: " + err.Error())
		}
		zc.SetMinCompressSize(cfg.Compression.MinSize)
		comp = zc
	}

	pool, err := conc.NewPool[[]byte](cfg.Batch.Workers, batchPoolOptions(cfg)...)
	if err != nil {
		return nil, err
	}

	s := &Serializer{
		cfg:          cfg,
		provider:     provider,
		handlers:     handlers,
		dispatcher:   dispatcher,
		naming:       names,
		accessor:     acc,
		codecs:       codecs,
		compressor:   comp,
		serializer:   graph.NewSerializationNavigator(opts...),
		deserializer: deserializer,
		pool:         pool,
	}
	s.SetComponent("serializer")
	return s, nil
}

func batchPoolOptions(cfg *Config) []conc.PoolOption {
	return []conc.PoolOption{
		conc.WithConcealPanic(true),
		conc.WithNonBlocking(cfg.Batch.NonBlocking),
		conc.WithExpiryDuration(cfg.Batch.IdleTimeout),
	}
}
