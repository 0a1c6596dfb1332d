// Package handler 提供按 (方向, 类型名, 格式) 注册的自定义处理器表。
package handler

import (
	"sync"

	"go.uber.org/zap"

	"github.com/lk2023060901/graph-serializer/pkg/log"
	"github.com/lk2023060901/graph-serializer/pkg/serializer/graph"
)

// AnyFormat 为通配格式，精确匹配失败时使用。
const AnyFormat = "*"

type key struct {
	direction graph.Direction
	typeName  string
	format    string
}

// Registry 是 graph.HandlerRegistry 的实现，可并发读写。
type Registry struct {
	log.Binder

	mu       sync.RWMutex
	handlers map[key]graph.HandlerFunc
}

var _ graph.HandlerRegistry = (*Registry)(nil)

func NewRegistry() *Registry {
	r := &Registry{handlers: make(map[key]graph.HandlerFunc)}
	r.SetComponent("handler_registry")
	return r
}

// Register 注册处理器，重复注册会覆盖。
func (r *Registry) Register(direction graph.Direction, typeName, format string, fn graph.HandlerFunc) *Registry {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[key{direction, typeName, format}] = fn
	r.Logger().Debug("handler registered",
		log.FieldDirection(direction.String()),
		log.FieldType(typeName),
		zap.String("format", format))
	return r
}

// RegisterAll 注册适用于所有格式的处理器。
func (r *Registry) RegisterAll(direction graph.Direction, typeName string, fn graph.HandlerFunc) *Registry {
	return r.Register(direction, typeName, AnyFormat, fn)
}

// Handler 先按格式精确匹配，再退回通配格式。
func (r *Registry) Handler(direction graph.Direction, typeName, format string) (graph.HandlerFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if fn, ok := r.handlers[key{direction, typeName, format}]; ok {
		return fn, true
	}
	fn, ok := r.handlers[key{direction, typeName, AnyFormat}]
	return fn, ok
}
