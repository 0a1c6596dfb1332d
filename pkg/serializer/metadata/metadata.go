// Package metadata 描述序列化引擎读取的类元数据，并提供基于结构体标签的注册表实现。
//
// ClassMetadata/PropertyMetadata 由 Provider 拥有并在调用间缓存，
// 导航器只读访问，不做修改。
package metadata

import (
	"reflect"
	"sort"

	"github.com/samber/lo"

	"github.com/lk2023060901/graph-serializer/pkg/serializer/types"
)

// DefaultGroup 为未声明分组的属性所属的分组。
const DefaultGroup = "Default"

// Discriminator 描述多态反序列化所需的判别字段与映射。
type Discriminator struct {
	// FieldName 为输入数据中携带判别值的字段名。
	FieldName string
	// BaseClass 为声明了判别映射的基类名。
	BaseClass string
	// Map 为判别值到具体子类名的映射。
	Map map[string]string
}

// Tags 返回排序后的全部判别值。
func (d *Discriminator) Tags() []string {
	tags := lo.Keys(d.Map)
	sort.Strings(tags)
	return tags
}

// Resolve 返回判别值对应的类名。
func (d *Discriminator) Resolve(tag string) (string, bool) {
	class, ok := d.Map[tag]
	return class, ok
}

// TagFor 返回类名对应的判别值。
func (d *Discriminator) TagFor(class string) (string, bool) {
	for tag, name := range d.Map {
		if name == class {
			return tag, true
		}
	}
	return "", false
}

// PropertyMetadata 描述类中的一个属性。
type PropertyMetadata struct {
	// Name 为声明名（Go 字段名）。
	Name string
	// SerializedName 为显式指定的输出名，为空时交给命名策略。
	SerializedName string
	// Type 为声明类型，Unknown 表示运行时推断。
	Type *types.TypeDefinition
	// ReadOnly 属性只在构造时赋值，反序列化遍历中永不写入。
	ReadOnly bool
	// Inline 表示将子对象的字段合并到父对象中，而不是嵌套输出。
	Inline bool
	Groups []string
	Since  string
	Until  string
	// ExcludeIf/ExposeIf 为条件表达式，需要配置表达式求值器。
	ExcludeIf string
	ExposeIf  string
	// Getter/Setter 为访问方法名，为空时直接访问字段。
	Getter string
	Setter string
	// FieldIndex 为 reflect.Value.FieldByIndex 使用的字段路径。
	FieldIndex []int
	// Class 为声明该属性的类名。
	Class string
	// Static 属性不对应任何字段，序列化时输出 StaticValue。
	Static      bool
	StaticValue any
}

// ClassMetadata 描述一个可序列化的类。
type ClassMetadata struct {
	Name string
	// Type 为结构体类型（非指针），抽象类（接口）为接口类型。
	Type reflect.Type
	// Properties 按声明顺序排列，决定输出顺序。
	Properties    []*PropertyMetadata
	Discriminator *Discriminator
	// XMLDiscriminatorAttribute 表示判别值可能以结构化属性（attribute）形式出现。
	XMLDiscriminatorAttribute bool

	PreSerialize    []string
	PostSerialize   []string
	PreDeserialize  []string
	PostDeserialize []string

	// ExcludeIf 为类级别的条件排除表达式。
	ExcludeIf string
	// UsingExpression 表示类或任一属性声明了条件表达式。
	UsingExpression bool
	// Parent 为父类名，构成封闭的多态集合。
	Parent string
}

// Property 按声明名查找属性。
func (c *ClassMetadata) Property(name string) *PropertyMetadata {
	for _, p := range c.Properties {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// IsAbstract 表示该类不能被直接构造（接口或未绑定 Go 类型）。
func (c *ClassMetadata) IsAbstract() bool {
	return c.Type == nil || c.Type.Kind() == reflect.Interface
}

// Provider 是导航器依赖的元数据能力。
type Provider interface {
	// MetadataForClass 返回类元数据，未知类名返回 merr.ErrMetadataNotFound。
	MetadataForClass(name string) (*ClassMetadata, error)
	// ClassName 返回 Go 类型对应的类名，非类类型返回 false。
	ClassName(t reflect.Type) (string, bool)
	// IsSubclassOf 判断 child 是否为 parent 的严格子类。
	IsSubclassOf(child, parent string) bool
}
