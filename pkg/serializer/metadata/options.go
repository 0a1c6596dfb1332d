package metadata

type classOptions struct {
	name          string
	parent        string
	discriminator *Discriminator
	xmlAttribute  bool
	excludeIf     string

	preSerialize    []string
	postSerialize   []string
	preDeserialize  []string
	postDeserialize []string
}

// ClassOption 用于在注册时补充结构体标签无法表达的类级别元数据。
type ClassOption func(opt *classOptions)

// WithName 指定类名，缺省为 Go 类型名（含包名，如 model.User）。
func WithName(name string) ClassOption {
	return func(opt *classOptions) {
		opt.name = name
	}
}

// WithParent 声明父类，子类集合是封闭的：只有显式声明的子类才参与多态收窄。
func WithParent(parent string) ClassOption {
	return func(opt *classOptions) {
		opt.parent = parent
	}
}

// WithDiscriminator 声明判别字段与判别值到子类名的映射。
func WithDiscriminator(field string, mapping map[string]string) ClassOption {
	return func(opt *classOptions) {
		opt.discriminator = &Discriminator{FieldName: field, Map: mapping}
	}
}

// WithXMLAttributeDiscriminator 允许从结构化属性（attribute）中读取判别值。
func WithXMLAttributeDiscriminator() ClassOption {
	return func(opt *classOptions) {
		opt.xmlAttribute = true
	}
}

// WithExcludeIf 为类声明条件排除表达式。
func WithExcludeIf(expr string) ClassOption {
	return func(opt *classOptions) {
		opt.excludeIf = expr
	}
}

func WithPreSerialize(methods ...string) ClassOption {
	return func(opt *classOptions) {
		opt.preSerialize = append(opt.preSerialize, methods...)
	}
}

func WithPostSerialize(methods ...string) ClassOption {
	return func(opt *classOptions) {
		opt.postSerialize = append(opt.postSerialize, methods...)
	}
}

func WithPreDeserialize(methods ...string) ClassOption {
	return func(opt *classOptions) {
		opt.preDeserialize = append(opt.preDeserialize, methods...)
	}
}

func WithPostDeserialize(methods ...string) ClassOption {
	return func(opt *classOptions) {
		opt.postDeserialize = append(opt.postDeserialize, methods...)
	}
}
