package exclusion

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/graph-serializer/pkg/serializer/metadata"
	"github.com/lk2023060901/graph-serializer/pkg/util/merr"
)

type fakeContext struct {
	object any
}

func (c *fakeContext) IsSerializing() bool          { return true }
func (c *fakeContext) Format() string               { return "json" }
func (c *fakeContext) Depth() int                   { return 1 }
func (c *fakeContext) CurrentObject() any           { return c.object }
func (c *fakeContext) Attribute(string) (any, bool) { return nil, false }

type fakeEvaluator map[string]any

func (f fakeEvaluator) Evaluate(expr string, vars map[string]any) (any, error) {
	if out, ok := f[expr]; ok {
		if err, ok := out.(error); ok {
			return nil, err
		}
		return out, nil
	}
	return nil, errors.Newf("unknown expression %s", expr)
}

func TestGroups(t *testing.T) {
	ctx := &fakeContext{}
	plain := &metadata.PropertyMetadata{Name: "Plain"}
	admin := &metadata.PropertyMetadata{Name: "Secret", Groups: []string{"admin"}}

	def := NewGroups()
	assert.False(t, def.ShouldSkipProperty(plain, ctx))
	assert.True(t, def.ShouldSkipProperty(admin, ctx))

	assert.Equal(t, []string{"Default"}, def.Active())

	adminOnly := NewGroups("admin")
	assert.True(t, adminOnly.ShouldSkipProperty(plain, ctx))
	assert.False(t, adminOnly.ShouldSkipProperty(admin, ctx))

	both := NewGroups("admin", metadata.DefaultGroup)
	assert.False(t, both.ShouldSkipProperty(plain, ctx))
	assert.False(t, both.ShouldSkipProperty(admin, ctx))
	assert.False(t, both.ShouldSkipClass(&metadata.ClassMetadata{}, ctx))
}

func TestVersion(t *testing.T) {
	ctx := &fakeContext{}
	s, err := NewVersion("1.5")
	require.NoError(t, err)

	assert.False(t, s.ShouldSkipProperty(&metadata.PropertyMetadata{}, ctx))
	assert.False(t, s.ShouldSkipProperty(&metadata.PropertyMetadata{Since: "1.5.0"}, ctx))
	assert.True(t, s.ShouldSkipProperty(&metadata.PropertyMetadata{Since: "2.0"}, ctx))
	assert.False(t, s.ShouldSkipProperty(&metadata.PropertyMetadata{Until: "1.5"}, ctx))
	assert.True(t, s.ShouldSkipProperty(&metadata.PropertyMetadata{Until: "1.4.9"}, ctx))

	_, err = NewVersion("not-a-version")
	assert.ErrorIs(t, err, merr.ErrConfiguration)
}

func TestDisjunct(t *testing.T) {
	ctx := &fakeContext{}
	v, err := NewVersion("1.0.0")
	require.NoError(t, err)
	s := Combine(NewGroups(), nil, v)

	assert.True(t, s.ShouldSkipProperty(&metadata.PropertyMetadata{Groups: []string{"admin"}}, ctx))
	assert.True(t, s.ShouldSkipProperty(&metadata.PropertyMetadata{Since: "2.0.0"}, ctx))
	assert.False(t, s.ShouldSkipProperty(&metadata.PropertyMetadata{Since: "0.9.0"}, ctx))

	assert.Nil(t, Combine())
	g := NewGroups()
	assert.Same(t, g, Combine(nil, g))
}

func TestExpression(t *testing.T) {
	ctx := &fakeContext{object: "obj"}
	s := NewExpression(fakeEvaluator{
		"yes":    true,
		"no":     false,
		"number": 42,
		"broken": errors.New("boom"),
	})

	skip, err := s.ShouldSkipProperty(&metadata.PropertyMetadata{ExcludeIf: "yes"}, ctx)
	require.NoError(t, err)
	assert.True(t, skip)

	skip, err = s.ShouldSkipProperty(&metadata.PropertyMetadata{ExposeIf: "no"}, ctx)
	require.NoError(t, err)
	assert.True(t, skip)

	skip, err = s.ShouldSkipProperty(&metadata.PropertyMetadata{ExcludeIf: "no", ExposeIf: "yes"}, ctx)
	require.NoError(t, err)
	assert.False(t, skip)

	skip, err = s.ShouldSkipProperty(&metadata.PropertyMetadata{}, ctx)
	require.NoError(t, err)
	assert.False(t, skip)

	skip, err = s.ShouldSkipClass(&metadata.ClassMetadata{ExcludeIf: "yes"}, ctx)
	require.NoError(t, err)
	assert.True(t, skip)

	_, err = s.ShouldSkipProperty(&metadata.PropertyMetadata{ExcludeIf: "number"}, ctx)
	assert.ErrorIs(t, err, merr.ErrConfiguration)

	_, err = s.ShouldSkipProperty(&metadata.PropertyMetadata{ExcludeIf: "broken"}, ctx)
	assert.Error(t, err)
}
