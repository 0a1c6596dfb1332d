// Package naming 将属性名转换为输出中的字段名。
package naming

import (
	"strings"
	"unicode"

	"github.com/lk2023060901/graph-serializer/pkg/serializer/metadata"
)

// Strategy 为属性命名策略。
type Strategy interface {
	TranslateName(prop *metadata.PropertyMetadata) string
}

// Identical 原样使用属性的声明名。
type Identical struct{}

func (Identical) TranslateName(prop *metadata.PropertyMetadata) string {
	return prop.Name
}

// SnakeCase 将驼峰命名转换为下划线命名，连续大写视为一个缩写：
// UserName -> user_name，HTTPServer -> http_server，ID -> id。
type SnakeCase struct{}

func (SnakeCase) TranslateName(prop *metadata.PropertyMetadata) string {
	return ToSnakeCase(prop.Name)
}

// SerializedName 优先使用显式指定的输出名，否则交给 Delegate。
type SerializedName struct {
	Delegate Strategy
}

func (s SerializedName) TranslateName(prop *metadata.PropertyMetadata) string {
	if prop.SerializedName != "" {
		return prop.SerializedName
	}
	return s.Delegate.TranslateName(prop)
}

// Default 返回默认命名策略。
func Default() Strategy {
	return SerializedName{Delegate: SnakeCase{}}
}

func ToSnakeCase(name string) string {
	runes := []rune(name)
	var sb strings.Builder
	sb.Grow(len(name) + 4)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 && runes[i-1] != '_' {
				prevLower := unicode.IsLower(runes[i-1]) || unicode.IsDigit(runes[i-1])
				nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
				if prevLower || (unicode.IsUpper(runes[i-1]) && nextLower) {
					sb.WriteByte('_')
				}
			}
			sb.WriteRune(unicode.ToLower(r))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
