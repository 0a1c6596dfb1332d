package metadata

import (
	"strings"

	"github.com/cockroachdb/errors"
)

const (
	TagName          = "serializer"
	TagExcludeIfName = "serializer_exclude_if"
	TagExposeIfName  = "serializer_expose_if"
)

// fieldTag 为 serializer 标签解析后的结果。
type fieldTag struct {
	name     string
	typ      string
	groups   []string
	since    string
	until    string
	getter   string
	setter   string
	readOnly bool
	inline   bool
	exclude  bool
}

// parseFieldTag 解析形如
// `serializer:"name=user_name,type=array<string,int>,groups=a|b,readonly"` 的标签。
// 逗号位于尖括号或引号内时不作为分隔符。
func parseFieldTag(tag string) (*fieldTag, error) {
	result := &fieldTag{}
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return result, nil
	}
	if tag == "-" {
		result.exclude = true
		return result, nil
	}

	for _, part := range splitTag(tag) {
		key, value, hasValue := strings.Cut(part, "=")
		key = strings.TrimSpace(key)
		value = trimQuotes(strings.TrimSpace(value))
		switch key {
		case "name":
			result.name = value
		case "type":
			result.typ = value
		case "groups":
			for _, g := range strings.Split(value, "|") {
				if g = strings.TrimSpace(g); g != "" {
					result.groups = append(result.groups, g)
				}
			}
		case "since":
			result.since = value
		case "until":
			result.until = value
		case "getter":
			result.getter = value
		case "setter":
			result.setter = value
		case "readonly":
			result.readOnly = true
		case "inline":
			result.inline = true
		case "exclude":
			result.exclude = true
		default:
			return nil, errors.Newf("unknown serializer tag option %q", key)
		}
		if !hasValue && isValued(key) {
			return nil, errors.Newf("serializer tag option %q requires a value", key)
		}
	}
	return result, nil
}

func isValued(key string) bool {
	switch key {
	case "readonly", "inline", "exclude":
		return false
	}
	return true
}

func splitTag(tag string) []string {
	var (
		parts   []string
		current strings.Builder
		depth   int
		quote   byte
	)
	flush := func() {
		if part := strings.TrimSpace(current.String()); part != "" {
			parts = append(parts, part)
		}
		current.Reset()
	}
	for i := 0; i < len(tag); i++ {
		c := tag[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == '<':
			depth++
		case c == '>':
			depth--
		case c == ',' && depth == 0:
			flush()
			continue
		}
		current.WriteByte(c)
	}
	flush()
	return parts
}

func trimQuotes(v string) string {
	if len(v) >= 2 && (v[0] == '"' || v[0] == '\'') && v[len(v)-1] == v[0] {
		return v[1 : len(v)-1]
	}
	return v
}
