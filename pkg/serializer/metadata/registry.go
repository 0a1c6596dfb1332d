package metadata

import (
	"reflect"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/lk2023060901/graph-serializer/pkg/log"
	"github.com/lk2023060901/graph-serializer/pkg/serializer/types"
	"github.com/lk2023060901/graph-serializer/pkg/util/merr"
)

var timeType = reflect.TypeOf(time.Time{})

var _ Provider = (*Registry)(nil)

// Registry 是基于反射与结构体标签的 Provider 实现。
//
// 读多写少：查询走读锁，注册（包括按需自动注册）走写锁。
// 已发布的 ClassMetadata 不再原地修改，需要变更时整体替换。
type Registry struct {
	log.Binder

	mu     sync.RWMutex
	byName map[string]*ClassMetadata
	byType map[reflect.Type]string

	autoRegister bool
}

// NewRegistry 创建注册表，默认开启未知结构体的按需自动注册。
func NewRegistry() *Registry {
	r := &Registry{
		byName:       make(map[string]*ClassMetadata),
		byType:       make(map[reflect.Type]string),
		autoRegister: true,
	}
	r.SetComponent("metadata_registry")
	return r
}

// DisableAutoRegister 关闭按需自动注册，未显式注册的结构体不再被视为类。
func (r *Registry) DisableAutoRegister() *Registry {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.autoRegister = false
	return r
}

// Register 注册 sample 对应的类。sample 可以是结构体、结构体指针，
// 或用 (*Iface)(nil) 表示的抽象类（接口）。重复注册会替换已有元数据。
func (r *Registry) Register(sample any, opts ...ClassOption) (*ClassMetadata, error) {
	t := reflect.TypeOf(sample)
	if t == nil {
		return nil, merr.WrapErrConfiguration("cannot register nil sample")
	}
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct && t.Kind() != reflect.Interface {
		return nil, merr.WrapErrConfiguration("only structs and interfaces can be registered, got " + t.String())
	}

	opt := &classOptions{}
	for _, o := range opts {
		o(opt)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	meta, err := r.registerLocked(t, opt)
	if err != nil {
		return nil, err
	}
	return r.byName[meta.Name], nil
}

// MustRegister 与 Register 相同，失败时 panic。
func (r *Registry) MustRegister(sample any, opts ...ClassOption) *ClassMetadata {
	meta, err := r.Register(sample, opts...)
	if err != nil {
		panic(err)
	}
	return meta
}

// MetadataForClass 实现 Provider 接口。
func (r *Registry) MetadataForClass(name string) (*ClassMetadata, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	meta, ok := r.byName[name]
	if !ok {
		return nil, merr.WrapErrMetadataNotFound(name)
	}
	return meta, nil
}

// ClassName 实现 Provider 接口。指针会被解引用；time.Time 不是类。
func (r *Registry) ClassName(t reflect.Type) (string, bool) {
	if t == nil {
		return "", false
	}
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == timeType {
		return "", false
	}

	r.mu.RLock()
	name, ok := r.byType[t]
	auto := r.autoRegister
	r.mu.RUnlock()
	if ok {
		return name, true
	}
	if !auto || t.Kind() != reflect.Struct {
		return "", false
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if name, ok := r.byType[t]; ok {
		return name, true
	}
	meta, err := r.registerLocked(t, &classOptions{})
	if err != nil {
		r.Logger().Warn("auto register class failed", zap.String("type", t.String()), zap.Error(err))
		return "", false
	}
	return meta.Name, true
}

// IsSubclassOf 实现 Provider 接口。
func (r *Registry) IsSubclassOf(child, parent string) bool {
	if child == parent {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[string]struct{})
	for cur, ok := r.byName[child]; ok && cur.Parent != ""; cur, ok = r.byName[cur.Parent] {
		if cur.Parent == parent {
			return true
		}
		if _, loop := seen[cur.Parent]; loop {
			return false
		}
		seen[cur.Parent] = struct{}{}
	}
	return false
}

// Classes 返回已注册的全部类名。
func (r *Registry) Classes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lo.Keys(r.byName)
}

func (r *Registry) registerLocked(t reflect.Type, opt *classOptions) (*ClassMetadata, error) {
	name := opt.name
	if name == "" {
		name = t.String()
	}
	if old, ok := r.byType[t]; ok && old != name {
		delete(r.byName, old)
	}
	if other, ok := r.byName[name]; ok && other.Type != t {
		return nil, merr.WrapErrConfiguration("class name " + name + " already used by " + other.Type.String())
	}

	meta := &ClassMetadata{
		Name:                      name,
		Type:                      t,
		Parent:                    opt.parent,
		XMLDiscriminatorAttribute: opt.xmlAttribute,
		ExcludeIf:                 opt.excludeIf,
		PreSerialize:              opt.preSerialize,
		PostSerialize:             opt.postSerialize,
		PreDeserialize:            opt.preDeserialize,
		PostDeserialize:           opt.postDeserialize,
	}
	if opt.discriminator != nil {
		meta.Discriminator = &Discriminator{
			FieldName: opt.discriminator.FieldName,
			BaseClass: name,
			Map:       opt.discriminator.Map,
		}
	}
	// 先发布再解析字段，自引用类型解析字段时能找到自己。
	r.byName[name] = meta
	r.byType[t] = name

	if err := r.fillLocked(meta); err != nil {
		delete(r.byName, name)
		delete(r.byType, t)
		return nil, err
	}
	r.linkDiscriminatorsLocked()

	r.Logger().Debug("class metadata registered",
		zap.String("class", name),
		zap.String("type", t.String()),
		zap.Int("properties", len(meta.Properties)))
	return meta, nil
}

func (r *Registry) fillLocked(meta *ClassMetadata) error {
	t := meta.Type
	if t.Kind() == reflect.Struct {
		for _, f := range reflect.VisibleFields(t) {
			prop, err := r.propertyLocked(meta, f)
			if err != nil {
				return errors.Wrapf(err, "class %s field %s", meta.Name, f.Name)
			}
			if prop != nil {
				meta.Properties = append(meta.Properties, prop)
			}
		}
	}

	hooks := [][]string{meta.PreSerialize, meta.PostSerialize, meta.PreDeserialize, meta.PostDeserialize}
	for _, group := range hooks {
		for _, method := range group {
			if !hasMethod(t, method) {
				return merr.WrapErrConfiguration("hook method " + method + " not found on " + meta.Name)
			}
		}
	}

	meta.UsingExpression = meta.ExcludeIf != "" || lo.SomeBy(meta.Properties, func(p *PropertyMetadata) bool {
		return p.ExcludeIf != "" || p.ExposeIf != ""
	})
	return nil
}

func (r *Registry) propertyLocked(meta *ClassMetadata, f reflect.StructField) (*PropertyMetadata, error) {
	if !f.IsExported() {
		return nil, nil
	}
	raw, tagged := f.Tag.Lookup(TagName)
	if f.Anonymous && !tagged && isStructLike(f.Type) {
		// 匿名嵌入的结构体字段已被提升，自身不再作为属性。
		return nil, nil
	}
	tag, err := parseFieldTag(raw)
	if err != nil {
		return nil, err
	}
	if tag.exclude {
		return nil, nil
	}

	prop := &PropertyMetadata{
		Name:           f.Name,
		SerializedName: tag.name,
		ReadOnly:       tag.readOnly,
		Inline:         tag.inline,
		Groups:         tag.groups,
		Since:          tag.since,
		Until:          tag.until,
		Getter:         tag.getter,
		Setter:         tag.setter,
		ExcludeIf:      f.Tag.Get(TagExcludeIfName),
		ExposeIf:       f.Tag.Get(TagExposeIfName),
		FieldIndex:     f.Index,
		Class:          meta.Name,
	}
	if tag.typ != "" {
		if prop.Type, err = types.Parse(tag.typ); err != nil {
			return nil, err
		}
	} else {
		prop.Type = r.inferTypeLocked(f.Type)
	}

	if prop.Getter != "" && !hasMethod(meta.Type, prop.Getter) {
		return nil, merr.WrapErrConfiguration("getter " + prop.Getter + " not found")
	}
	if prop.Setter != "" && !hasMethod(meta.Type, prop.Setter) {
		return nil, merr.WrapErrConfiguration("setter " + prop.Setter + " not found")
	}
	return prop, nil
}

// inferTypeLocked 由 Go 类型推断声明类型。
func (r *Registry) inferTypeLocked(t reflect.Type) *types.TypeDefinition {
	if t == timeType {
		return types.New(types.DateTimeName)
	}
	switch t.Kind() {
	case reflect.Ptr:
		return r.inferTypeLocked(t.Elem())
	case reflect.String:
		return types.New(types.StringName)
	case reflect.Bool:
		return types.New(types.BooleanName)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return types.New(types.IntegerName)
	case reflect.Float32, reflect.Float64:
		return types.New(types.DoubleName)
	case reflect.Slice, reflect.Array:
		elem := r.inferTypeLocked(t.Elem())
		if types.IsUnknown(elem) {
			return types.New(types.ArrayName)
		}
		return types.New(types.ArrayName, elem)
	case reflect.Map:
		elem := r.inferTypeLocked(t.Elem())
		if types.IsUnknown(elem) {
			return types.New(types.ArrayName)
		}
		return types.New(types.ArrayName, r.inferTypeLocked(t.Key()), elem)
	case reflect.Struct:
		if name, ok := r.byType[t]; ok {
			return types.New(name)
		}
		if meta, err := r.registerLocked(t, &classOptions{}); err == nil {
			return types.New(meta.Name)
		}
		return types.Unknown()
	case reflect.Interface:
		if name, ok := r.byType[t]; ok {
			return types.New(name)
		}
		return types.Unknown()
	case reflect.Chan, reflect.Func, reflect.UnsafePointer, reflect.Complex64, reflect.Complex128:
		return types.New(types.ResourceName)
	}
	return types.Unknown()
}

// linkDiscriminatorsLocked 为判别映射中的每个已注册类补充只读的静态判别属性，
// 使序列化结果携带判别值，往返时能够还原具体类型。
func (r *Registry) linkDiscriminatorsLocked() {
	for _, base := range r.byName {
		d := base.Discriminator
		if d == nil {
			continue
		}
		for tag, class := range d.Map {
			meta, ok := r.byName[class]
			if !ok || meta.IsAbstract() {
				continue
			}
			if existing := meta.Property(d.FieldName); existing != nil {
				if !existing.Static || existing.StaticValue == tag {
					continue
				}
			}
			r.replaceLocked(withStaticProperty(meta, d.FieldName, tag))
		}
	}
}

func (r *Registry) replaceLocked(meta *ClassMetadata) {
	r.byName[meta.Name] = meta
	r.byType[meta.Type] = meta.Name
}

func withStaticProperty(meta *ClassMetadata, field, value string) *ClassMetadata {
	clone := *meta
	clone.Properties = make([]*PropertyMetadata, 0, len(meta.Properties)+1)
	clone.Properties = append(clone.Properties, &PropertyMetadata{
		Name:           field,
		SerializedName: field,
		Type:           types.New(types.StringName),
		ReadOnly:       true,
		Static:         true,
		StaticValue:    value,
		Class:          meta.Name,
	})
	for _, p := range meta.Properties {
		if p.Static && p.Name == field {
			continue
		}
		clone.Properties = append(clone.Properties, p)
	}
	return &clone
}

func isStructLike(t reflect.Type) bool {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Kind() == reflect.Struct
}

func hasMethod(t reflect.Type, name string) bool {
	if t.Kind() == reflect.Interface {
		_, ok := t.MethodByName(name)
		return ok
	}
	_, ok := reflect.PointerTo(t).MethodByName(name)
	return ok
}
