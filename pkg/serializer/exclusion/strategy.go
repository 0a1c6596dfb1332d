// Package exclusion 提供类与属性级别的跳过决策。
package exclusion

import (
	"github.com/lk2023060901/graph-serializer/pkg/serializer/metadata"
)

// Context 为排除策略可见的遍历上下文。
type Context interface {
	IsSerializing() bool
	Format() string
	Depth() int
	CurrentObject() any
	Attribute(key string) (any, bool)
}

// Strategy 决定是否跳过某个类或属性。
type Strategy interface {
	ShouldSkipClass(meta *metadata.ClassMetadata, ctx Context) bool
	ShouldSkipProperty(prop *metadata.PropertyMetadata, ctx Context) bool
}

// Conditional 为基于表达式的排除策略，表达式求值失败会中止整个调用。
type Conditional interface {
	ShouldSkipClass(meta *metadata.ClassMetadata, ctx Context) (bool, error)
	ShouldSkipProperty(prop *metadata.PropertyMetadata, ctx Context) (bool, error)
}

// Disjunct 组合多个策略，任一策略要求跳过即跳过。
type Disjunct []Strategy

var _ Strategy = Disjunct(nil)

func (d Disjunct) ShouldSkipClass(meta *metadata.ClassMetadata, ctx Context) bool {
	for _, s := range d {
		if s.ShouldSkipClass(meta, ctx) {
			return true
		}
	}
	return false
}

func (d Disjunct) ShouldSkipProperty(prop *metadata.PropertyMetadata, ctx Context) bool {
	for _, s := range d {
		if s.ShouldSkipProperty(prop, ctx) {
			return true
		}
	}
	return false
}

// Combine 将多个策略合并为一个，nil 会被忽略。
func Combine(strategies ...Strategy) Strategy {
	filtered := make(Disjunct, 0, len(strategies))
	for _, s := range strategies {
		if s != nil {
			filtered = append(filtered, s)
		}
	}
	switch len(filtered) {
	case 0:
		return nil
	case 1:
		return filtered[0]
	default:
		return filtered
	}
}
