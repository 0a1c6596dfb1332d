package types

import (
	"bytes"
	"strings"
	"sync"

	"github.com/viant/parsly"

	"github.com/lk2023060901/graph-serializer/pkg/util/merr"
)

var parsed sync.Map // expr -> *TypeDefinition

// Parse 将类型表达式解析为 TypeDefinition。
// 括号不配对、类型名为空、参数列表为空或格式错误、以及存在多余输入时返回 merr.ErrParse。
func Parse(expr string) (*TypeDefinition, error) {
	if cached, ok := parsed.Load(expr); ok {
		return cached.(*TypeDefinition), nil
	}

	cursor := parsly.NewCursor("", []byte(expr), 0)
	def, terminator, err := parseType(cursor, expr, 0)
	if err != nil {
		return nil, err
	}
	switch terminator {
	case parsly.EOF:
	case closeToken:
		return nil, merr.WrapErrParse(expr, cursor.Pos, "unbalanced brackets")
	default:
		return nil, merr.WrapErrParse(expr, cursor.Pos, "unexpected trailing input")
	}

	parsed.Store(expr, def)
	return def, nil
}

// MustParse 与 Parse 相同，解析失败时 panic，用于静态表。
func MustParse(expr string) *TypeDefinition {
	def, err := Parse(expr)
	if err != nil {
		panic(err)
	}
	return def
}

// parseType 解析一个类型（或嵌套的字面量参数），返回其后紧跟的分隔符记号。
func parseType(cursor *parsly.Cursor, expr string, depth int) (*TypeDefinition, int, error) {
	matched := cursor.MatchAfterOptional(whitespaceMatcher, identifierMatcher, singleQuotedMatcher, doubleQuotedMatcher)
	var def *TypeDefinition
	switch tokenCode(cursor, matched) {
	case identifierToken:
		def = &TypeDefinition{Name: matched.Text(cursor)}
	case singleQuotedToken, doubleQuotedToken:
		if depth == 0 {
			return nil, 0, merr.WrapErrParse(expr, cursor.Pos, "literal is only allowed as a type parameter")
		}
		def = NewLiteral(unquote(matched.Text(cursor)))
	case parsly.EOF:
		if depth > 0 {
			return nil, 0, merr.WrapErrParse(expr, cursor.Pos, "unbalanced brackets")
		}
		return nil, 0, merr.WrapErrParse(expr, cursor.Pos, "empty type name")
	default:
		return nil, 0, merr.WrapErrParse(expr, cursor.Pos, "empty type name")
	}

	next := tokenCode(cursor, cursor.MatchAfterOptional(whitespaceMatcher, openMatcher, closeMatcher, commaMatcher))
	if next != openToken {
		return def, next, nil
	}
	if def.Literal {
		return nil, 0, merr.WrapErrParse(expr, cursor.Pos, "literal cannot have parameters")
	}

	for {
		param, terminator, err := parseType(cursor, expr, depth+1)
		if err != nil {
			return nil, 0, err
		}
		def.Params = append(def.Params, param)
		if terminator == closeToken {
			break
		}
		if terminator == commaToken {
			continue
		}
		if terminator == parsly.EOF {
			return nil, 0, merr.WrapErrParse(expr, cursor.Pos, "unbalanced brackets")
		}
		return nil, 0, merr.WrapErrParse(expr, cursor.Pos, "malformed parameter list")
	}

	after := tokenCode(cursor, cursor.MatchAfterOptional(whitespaceMatcher, openMatcher, closeMatcher, commaMatcher))
	if after == openToken {
		return nil, 0, merr.WrapErrParse(expr, cursor.Pos, "malformed parameter list")
	}
	return def, after, nil
}

// tokenCode 将“只剩空白”的未匹配结果归一为 EOF。
func tokenCode(cursor *parsly.Cursor, matched *parsly.TokenMatch) int {
	if matched.Code == parsly.Invalid && cursor.Pos <= cursor.InputSize &&
		len(bytes.TrimSpace(cursor.Input[cursor.Pos:])) == 0 {
		return parsly.EOF
	}
	return matched.Code
}

func unquote(text string) string {
	if len(text) < 2 {
		return text
	}
	quote := text[0]
	body := text[1 : len(text)-1]
	return strings.ReplaceAll(body, `\`+string(quote), string(quote))
}
