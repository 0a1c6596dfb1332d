// Package event 提供序列化生命周期事件的分发器。
package event

import (
	"sync"

	"go.uber.org/zap"

	"github.com/lk2023060901/graph-serializer/pkg/log"
	"github.com/lk2023060901/graph-serializer/pkg/serializer/graph"
)

// Listener 处理一个事件，返回错误会中止整个调用。
type Listener func(evt *graph.Event) error

type registration struct {
	class    string
	format   string
	listener Listener
}

func (r registration) matches(class, format string) bool {
	return (r.class == "" || r.class == class) && (r.format == "" || r.format == format)
}

// Dispatcher 按注册顺序调用匹配的监听者，class/format 为空表示通配。
type Dispatcher struct {
	log.Binder

	mu        sync.RWMutex
	listeners map[string][]registration
}

var _ graph.EventDispatcher = (*Dispatcher)(nil)

func NewDispatcher() *Dispatcher {
	d := &Dispatcher{listeners: make(map[string][]registration)}
	d.SetComponent("event_dispatcher")
	return d
}

func (d *Dispatcher) AddListener(event, class, format string, l Listener) *Dispatcher {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners[event] = append(d.listeners[event], registration{class: class, format: format, listener: l})
	return d
}

// Subscriber 一次性声明多组监听。
type Subscriber interface {
	SubscribedEvents() []Subscription
}

type Subscription struct {
	Event    string
	Class    string
	Format   string
	Listener Listener
}

func (d *Dispatcher) AddSubscriber(s Subscriber) *Dispatcher {
	for _, sub := range s.SubscribedEvents() {
		d.AddListener(sub.Event, sub.Class, sub.Format, sub.Listener)
	}
	return d
}

func (d *Dispatcher) HasListeners(event, class, format string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, r := range d.listeners[event] {
		if r.matches(class, format) {
			return true
		}
	}
	return false
}

// Dispatch 调用匹配的监听者，直到某个监听者停止传播或返回错误。
func (d *Dispatcher) Dispatch(event, class, format string, evt *graph.Event) error {
	d.mu.RLock()
	regs := make([]registration, 0, len(d.listeners[event]))
	for _, r := range d.listeners[event] {
		if r.matches(class, format) {
			regs = append(regs, r)
		}
	}
	d.mu.RUnlock()

	for _, r := range regs {
		if err := r.listener(evt); err != nil {
			d.Logger().Warn("event listener failed",
				zap.String("event", event), log.FieldType(class), log.FieldFormat(format), zap.Error(err))
			return err
		}
		if evt.IsPropagationStopped() {
			break
		}
	}
	return nil
}
