package graph

import (
	"reflect"
	"strings"

	"github.com/lk2023060901/graph-serializer/pkg/metrics"
	"github.com/lk2023060901/graph-serializer/pkg/serializer/exclusion"
	"github.com/lk2023060901/graph-serializer/pkg/serializer/metadata"
	"github.com/lk2023060901/graph-serializer/pkg/util/merr"
	"github.com/lk2023060901/graph-serializer/pkg/util/typeutil"
)

// DefaultMaxDepth 为默认的最大遍历深度。
const DefaultMaxDepth = 512

// visitKey 以 (类型, 地址) 标识一个对象，同一地址上的不同类型视为不同对象。
type visitKey struct {
	typ  reflect.Type
	addr uintptr
}

var _ exclusion.Context = (*Context)(nil)

// Context 为单次顶层调用的可变遍历状态，不可复用，也不可在并发调用间共享。
type Context struct {
	direction   Direction
	format      string
	visitor     Visitor
	navigator   Navigator
	provider    metadata.Provider
	initialized bool

	attributes    map[string]any
	serializeNull bool
	maxDepth      int
	depth         int

	visiting   typeutil.Set[visitKey]
	objects    typeutil.Stack[any]
	classes    typeutil.Stack[*metadata.ClassMetadata]
	properties typeutil.Stack[*metadata.PropertyMetadata]

	strategies []exclusion.Strategy
}

func newContext(direction Direction) *Context {
	return &Context{
		direction:  direction,
		attributes: make(map[string]any),
		maxDepth:   DefaultMaxDepth,
		visiting:   typeutil.NewSet[visitKey](),
	}
}

func NewSerializationContext() *Context {
	return newContext(Serialization)
}

func NewDeserializationContext() *Context {
	return newContext(Deserialization)
}

// Initialize 绑定格式、访问者、导航器与元数据提供者，每个 Context 只能初始化一次。
func (c *Context) Initialize(format string, visitor Visitor, navigator Navigator, provider metadata.Provider) error {
	if c.initialized {
		return merr.WrapErrConfiguration("context already initialized, create a new one per call")
	}
	if visitor == nil || navigator == nil || provider == nil {
		return merr.WrapErrConfiguration("visitor, navigator and metadata provider are required")
	}
	c.format = format
	c.visitor = visitor
	c.navigator = navigator
	c.provider = provider
	c.initialized = true
	return nil
}

func (c *Context) IsInitialized() bool { return c.initialized }

func (c *Context) Direction() Direction { return c.direction }

func (c *Context) IsSerializing() bool { return c.direction == Serialization }

func (c *Context) Format() string { return c.format }

func (c *Context) Visitor() Visitor { return c.visitor }

func (c *Context) Navigator() Navigator { return c.navigator }

func (c *Context) MetadataProvider() metadata.Provider { return c.provider }

// Attribute 返回调用方附加的属性。
func (c *Context) Attribute(key string) (any, bool) {
	v, ok := c.attributes[key]
	return v, ok
}

func (c *Context) SetAttribute(key string, value any) *Context {
	c.attributes[key] = value
	return c
}

// AttributeAs 返回指定类型的属性，类型不符时视为不存在。
func AttributeAs[T any](c *Context, key string) (T, bool) {
	var zero T
	v, ok := c.attributes[key]
	if !ok {
		return zero, false
	}
	typed, ok := v.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}

func (c *Context) SetSerializeNull(serializeNull bool) *Context {
	c.serializeNull = serializeNull
	return c
}

// ShouldSerializeNull 对对象属性与容器元素使用同一空值策略。
func (c *Context) ShouldSerializeNull() bool {
	return c.serializeNull
}

func (c *Context) SetMaxDepth(maxDepth int) *Context {
	if maxDepth > 0 {
		c.maxDepth = maxDepth
	}
	return c
}

func (c *Context) MaxDepth() int { return c.maxDepth }

func (c *Context) Depth() int { return c.depth }

// SetGroups 追加分组排除策略。
func (c *Context) SetGroups(groups ...string) *Context {
	return c.AddExclusionStrategy(exclusion.NewGroups(groups...))
}

// SetVersion 追加版本排除策略。
func (c *Context) SetVersion(version string) error {
	s, err := exclusion.NewVersion(version)
	if err != nil {
		return err
	}
	c.AddExclusionStrategy(s)
	return nil
}

// AddExclusionStrategy 追加排除策略，多个策略按逻辑或组合。
func (c *Context) AddExclusionStrategy(s exclusion.Strategy) *Context {
	if s != nil {
		c.strategies = append(c.strategies, s)
	}
	return c
}

// ExclusionStrategy 返回组合后的策略，未配置时为 nil。
func (c *Context) ExclusionStrategy() exclusion.Strategy {
	return exclusion.Combine(c.strategies...)
}

// IncreaseDepth 进入下一层，超过上限时失败且不改变深度。
// 返回的 Guard 负责恢复深度。
func (c *Context) IncreaseDepth() (*Guard, error) {
	if c.depth >= c.maxDepth {
		metrics.SerializerDepthExceeded.WithLabelValues(c.direction.String()).Inc()
		return nil, merr.WrapErrDepthExceeded(c.depth+1, c.maxDepth, c.Path())
	}
	c.depth++
	return newGuard(c.DecreaseDepth), nil
}

func (c *Context) DecreaseDepth() {
	if c.depth > 0 {
		c.depth--
	}
}

// identity 返回对象标识，只有非空指针具有标识。
func identity(obj any) (visitKey, bool) {
	if obj == nil {
		return visitKey{}, false
	}
	rv := reflect.ValueOf(obj)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return visitKey{}, false
	}
	return visitKey{typ: rv.Type(), addr: rv.Pointer()}, true
}

// IsVisiting 判断对象是否位于当前遍历路径上。
func (c *Context) IsVisiting(obj any) bool {
	key, ok := identity(obj)
	return ok && c.visiting.Contain(key)
}

// StartVisiting 标记对象正在遍历，返回的 Guard 负责取消标记。
// 没有标识的值（按值传入的结构体、标量）不会被跟踪：以值传入的根对象
// 在环上会被多输出一层，直到遇到第一个已跟踪的指针才被截断。
func (c *Context) StartVisiting(obj any) *Guard {
	key, ok := identity(obj)
	if !ok {
		return newGuard(nil)
	}
	c.visiting.Insert(key)
	return newGuard(func() { c.visiting.Remove(key) })
}

func (c *Context) StopVisiting(obj any) {
	if key, ok := identity(obj); ok {
		c.visiting.Remove(key)
	}
}

func (c *Context) PushClassMetadata(meta *metadata.ClassMetadata) {
	c.classes.Push(meta)
}

func (c *Context) PopClassMetadata() *metadata.ClassMetadata {
	meta, _ := c.classes.Pop()
	return meta
}

// ScopeClassMetadata 压入类元数据，Guard 释放时弹出。
func (c *Context) ScopeClassMetadata(meta *metadata.ClassMetadata) *Guard {
	c.PushClassMetadata(meta)
	return newGuard(func() { c.PopClassMetadata() })
}

func (c *Context) PushPropertyMetadata(prop *metadata.PropertyMetadata) {
	c.properties.Push(prop)
}

func (c *Context) PopPropertyMetadata() *metadata.PropertyMetadata {
	prop, _ := c.properties.Pop()
	return prop
}

func (c *Context) PushObject(obj any) {
	c.objects.Push(obj)
}

func (c *Context) PopObject() any {
	obj, _ := c.objects.Pop()
	return obj
}

// ScopeObject 压入当前对象，Guard 释放时弹出。
func (c *Context) ScopeObject(obj any) *Guard {
	c.PushObject(obj)
	return newGuard(func() { c.PopObject() })
}

// CurrentObject 返回正在遍历其属性的对象。
func (c *Context) CurrentObject() any {
	obj, _ := c.objects.Peek()
	return obj
}

func (c *Context) CurrentClassMetadata() *metadata.ClassMetadata {
	meta, _ := c.classes.Peek()
	return meta
}

func (c *Context) CurrentPropertyMetadata() *metadata.PropertyMetadata {
	prop, _ := c.properties.Peek()
	return prop
}

// MetadataStack 返回自栈底到栈顶的类元数据。
func (c *Context) MetadataStack() []*metadata.ClassMetadata {
	return c.classes.Items()
}

// Path 返回当前属性栈对应的点分路径，位于根节点时为空。
func (c *Context) Path() string {
	props := c.properties.Items()
	if len(props) == 0 {
		return ""
	}
	names := make([]string, len(props))
	for i, p := range props {
		names[i] = p.Name
	}
	return strings.Join(names, ".")
}

// Guard 为作用域释放器，Release 可重复调用且只生效一次。
type Guard struct {
	release func()
	done    bool
}

func newGuard(release func()) *Guard {
	return &Guard{release: release}
}

func (g *Guard) Release() {
	if g == nil || g.done {
		return
	}
	g.done = true
	if g.release != nil {
		g.release()
	}
}
