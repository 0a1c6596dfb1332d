package graph

import (
	"github.com/lk2023060901/graph-serializer/pkg/serializer/exclusion"
)

type navigatorOptions struct {
	handlers     HandlerRegistry
	dispatcher   EventDispatcher
	conditional  exclusion.Conditional
	instantiator Instantiator
	constructor  Constructor
}

// Option 配置导航器依赖的协作者。
type Option func(opt *navigatorOptions)

func WithHandlers(handlers HandlerRegistry) Option {
	return func(opt *navigatorOptions) {
		opt.handlers = handlers
	}
}

func WithDispatcher(dispatcher EventDispatcher) Option {
	return func(opt *navigatorOptions) {
		opt.dispatcher = dispatcher
	}
}

// WithExpressionStrategy 配置基于表达式的排除策略，未配置时
// 声明了条件表达式的类会导致调用失败。
func WithExpressionStrategy(s exclusion.Conditional) Option {
	return func(opt *navigatorOptions) {
		opt.conditional = s
	}
}

// WithInstantiator 仅对反序列化导航器生效。
func WithInstantiator(i Instantiator) Option {
	return func(opt *navigatorOptions) {
		opt.instantiator = i
	}
}

// WithConstructor 仅对反序列化导航器生效。
func WithConstructor(c Constructor) Option {
	return func(opt *navigatorOptions) {
		opt.constructor = c
	}
}

func buildOptions(opts []Option) *navigatorOptions {
	o := &navigatorOptions{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// base 为两个导航器共享的协作者访问逻辑。
type base struct {
	*navigatorOptions
	direction Direction
}

func (b *base) handler(typeName, format string) (HandlerFunc, bool) {
	if b.handlers == nil {
		return nil, false
	}
	return b.handlers.Handler(b.direction, typeName, format)
}

func (b *base) dispatch(event, class string, evt *Event) error {
	if b.dispatcher == nil || !b.dispatcher.HasListeners(event, class, evt.Context.Format()) {
		return nil
	}
	return b.dispatcher.Dispatch(event, class, evt.Context.Format(), evt)
}

func (b *base) hasListeners(event, class, format string) bool {
	return b.dispatcher != nil && b.dispatcher.HasListeners(event, class, format)
}
