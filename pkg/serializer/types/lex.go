package types

import (
	"github.com/viant/parsly"
	"github.com/viant/parsly/matcher"
)

const (
	whitespaceToken = iota
	identifierToken
	singleQuotedToken
	doubleQuotedToken
	openToken
	closeToken
	commaToken
)

var whitespaceMatcher = parsly.NewToken(whitespaceToken, "Whitespace", matcher.NewWhiteSpace())
var identifierMatcher = parsly.NewToken(identifierToken, "TypeName", &identifierMatch{})
var singleQuotedMatcher = parsly.NewToken(singleQuotedToken, "SingleQuote", matcher.NewBlock('\'', '\'', '\\'))
var doubleQuotedMatcher = parsly.NewToken(doubleQuotedToken, "DoubleQuote", matcher.NewBlock('"', '"', '\\'))
var openMatcher = parsly.NewToken(openToken, "<", matcher.NewByte('<'))
var closeMatcher = parsly.NewToken(closeToken, ">", matcher.NewByte('>'))
var commaMatcher = parsly.NewToken(commaToken, ",", matcher.NewByte(','))

// identifierMatch 匹配类型名：字母、数字、下划线以及命名空间分隔符 \ . /。
type identifierMatch struct{}

func (i *identifierMatch) Match(cursor *parsly.Cursor) int {
	if cursor.Pos >= cursor.InputSize {
		return 0
	}
	if !isNameStart(cursor.Input[cursor.Pos]) {
		return 0
	}
	pos := cursor.Pos + 1
	for pos < cursor.InputSize && isNamePart(cursor.Input[pos]) {
		pos++
	}
	return pos - cursor.Pos
}

func isNameStart(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || b == '_' || b == '\\'
}

func isNamePart(b byte) bool {
	return isNameStart(b) || (b >= '0' && b <= '9') || b == '.' || b == '/'
}
