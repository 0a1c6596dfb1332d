package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/graph-serializer/pkg/util/merr"
)

func TestParseList(t *testing.T) {
	def, err := Parse("array<int>")
	require.NoError(t, err)
	assert.Equal(t, "array", def.Name)
	assert.True(t, def.IsList())

	elem := ElementType(def)
	assert.Equal(t, "int", elem.Name)
	assert.Empty(t, elem.Params)
}

func TestParseMap(t *testing.T) {
	def, err := Parse("array<string,int>")
	require.NoError(t, err)
	assert.True(t, def.IsMap())
	assert.Equal(t, "string", def.Param(0).Name)
	assert.Equal(t, "int", ElementType(def).Name)
}

func TestParseNested(t *testing.T) {
	def, err := Parse(" array < string , array<App\\Model\\User> > ")
	require.NoError(t, err)
	assert.Equal(t, "array<string, array<App\\Model\\User>>", def.String())

	inner := ElementType(def)
	assert.Equal(t, `App\Model\User`, ElementType(inner).Name)

	again, err := Parse(def.String())
	require.NoError(t, err)
	assert.True(t, def.Equal(again))
}

func TestParseLiteral(t *testing.T) {
	def, err := Parse("DateTime<'2006-01-02', \"UTC\">")
	require.NoError(t, err)
	layout, ok := def.LiteralParam(0)
	assert.True(t, ok)
	assert.Equal(t, "2006-01-02", layout)
	zone, ok := def.LiteralParam(1)
	assert.True(t, ok)
	assert.Equal(t, "UTC", zone)
	_, ok = def.LiteralParam(2)
	assert.False(t, ok)
	assert.Equal(t, "DateTime<'2006-01-02', 'UTC'>", def.String())
}

func TestParseErrors(t *testing.T) {
	cases := []string{
		"",
		"   ",
		"array<int",
		"array<int>>",
		"array<>",
		"array<int,>",
		"array<,int>",
		"array int",
		"<int>",
		"'Y-m-d'",
		"array<int><string>",
		"array<'x'<int>>",
	}
	for _, expr := range cases {
		_, err := Parse(expr)
		assert.ErrorIs(t, err, merr.ErrParse, expr)
	}
	assert.Panics(t, func() { MustParse("array<") })
}

func TestUnknown(t *testing.T) {
	assert.True(t, IsUnknown(Unknown()))
	assert.True(t, IsUnknown(nil))
	assert.True(t, IsUnknown(&TypeDefinition{}))
	assert.False(t, IsUnknown(New("string")))
	assert.True(t, IsUnknown(ElementType(New("array"))))
}

func TestParseIsCached(t *testing.T) {
	a := MustParse("array<string>")
	b := MustParse("array<string>")
	assert.Same(t, a, b)
}
