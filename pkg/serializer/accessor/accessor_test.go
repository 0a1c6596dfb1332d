package accessor

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/graph-serializer/pkg/serializer/metadata"
	"github.com/lk2023060901/graph-serializer/pkg/util/merr"
)

type Base struct {
	ID int64
}

type profile struct {
	*Base
	Name   string
	Level  uint8
	Score  float32
	Tags   []string
	Attrs  map[string]int
	Born   *time.Time
	Status status
	labels map[string]string
}

type status int

func (p *profile) Labels() map[string]string { return p.labels }

func (p *profile) SetLabels(v map[string]string) error {
	p.labels = v
	return nil
}

func props(t *testing.T) map[string]*metadata.PropertyMetadata {
	r := metadata.NewRegistry()
	meta := r.MustRegister(&profile{}, metadata.WithName("Profile"))
	out := make(map[string]*metadata.PropertyMetadata)
	for _, p := range meta.Properties {
		out[p.Name] = p
	}
	require.Contains(t, out, "ID")
	return out
}

func TestValue(t *testing.T) {
	p := props(t)
	acc := Reflection{}
	obj := &profile{Name: "n", Tags: []string{"a"}}

	v, err := acc.Value(obj, p["Name"])
	require.NoError(t, err)
	assert.Equal(t, "n", v)

	v, err = acc.Value(*obj, p["Tags"])
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, v)

	// 嵌入的空指针上的字段读作 nil。
	v, err = acc.Value(obj, p["ID"])
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = acc.Value(&profile{Base: &Base{ID: 7}}, p["ID"])
	require.NoError(t, err)
	assert.Equal(t, int64(7), v)

	static := &metadata.PropertyMetadata{Name: "type", Static: true, StaticValue: "profile"}
	v, err = acc.Value(obj, static)
	require.NoError(t, err)
	assert.Equal(t, "profile", v)

	_, err = acc.Value(42, p["Name"])
	assert.ErrorIs(t, err, merr.ErrInvalidInput)
}

func TestGetterSetter(t *testing.T) {
	acc := Reflection{}
	prop := &metadata.PropertyMetadata{Name: "Labels", Getter: "Labels", Setter: "SetLabels", Class: "Profile"}
	obj := &profile{}

	require.NoError(t, acc.SetValue(obj, prop, map[string]any{"env": "prod"}))
	assert.Equal(t, map[string]string{"env": "prod"}, obj.labels)

	v, err := acc.Value(obj, prop)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"env": "prod"}, v)

	missing := &metadata.PropertyMetadata{Name: "X", Getter: "Nope"}
	_, err = acc.Value(obj, missing)
	assert.ErrorIs(t, err, merr.ErrConfiguration)
}

func TestSetValue(t *testing.T) {
	p := props(t)
	acc := Reflection{}
	obj := &profile{}

	require.NoError(t, acc.SetValue(obj, p["ID"], json.Number("12")))
	require.NotNil(t, obj.Base)
	assert.Equal(t, int64(12), obj.ID)

	require.NoError(t, acc.SetValue(obj, p["Level"], 200.0))
	assert.Equal(t, uint8(200), obj.Level)

	require.NoError(t, acc.SetValue(obj, p["Score"], "1.5"))
	assert.Equal(t, float32(1.5), obj.Score)

	require.NoError(t, acc.SetValue(obj, p["Tags"], []any{"x", "y"}))
	assert.Equal(t, []string{"x", "y"}, obj.Tags)

	require.NoError(t, acc.SetValue(obj, p["Attrs"], map[string]any{"a": 1, "b": int64(2)}))
	assert.Equal(t, map[string]int{"a": 1, "b": 2}, obj.Attrs)

	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, acc.SetValue(obj, p["Born"], now))
	assert.Equal(t, now, *obj.Born)

	require.NoError(t, acc.SetValue(obj, p["Status"], 3))
	assert.Equal(t, status(3), obj.Status)

	err := acc.SetValue(obj, p["Level"], 300)
	assert.ErrorIs(t, err, merr.ErrInvalidInput)
	assert.Contains(t, err.Error(), "property=Level")

	err = acc.SetValue(obj, p["Tags"], "x")
	assert.ErrorIs(t, err, merr.ErrInvalidInput)

	err = acc.SetValue(*obj, p["Name"], "n")
	assert.ErrorIs(t, err, merr.ErrInvalidInput)

	assert.NoError(t, acc.SetValue(obj, &metadata.PropertyMetadata{Static: true}, "ignored"))
}

func TestAssign(t *testing.T) {
	var nested [][]int
	require.NoError(t, Assign(reflect.ValueOf(&nested).Elem(), []any{[]any{1, 2}, []any{}}))
	assert.Equal(t, [][]int{{1, 2}, {}}, nested)

	var arr [2]string
	require.NoError(t, Assign(reflect.ValueOf(&arr).Elem(), []any{"a"}))
	assert.Equal(t, [2]string{"a", ""}, arr)
	assert.Error(t, Assign(reflect.ValueOf(&arr).Elem(), []any{"a", "b", "c"}))

	var ptr *int
	require.NoError(t, Assign(reflect.ValueOf(&ptr).Elem(), 5))
	assert.Equal(t, 5, *ptr)
	require.NoError(t, Assign(reflect.ValueOf(&ptr).Elem(), nil))
	assert.Nil(t, ptr)

	var iface any
	require.NoError(t, Assign(reflect.ValueOf(&iface).Elem(), map[string]any{"k": "v"}))
	assert.Equal(t, map[string]any{"k": "v"}, iface)

	var b Base
	require.NoError(t, Assign(reflect.ValueOf(&b).Elem(), &Base{ID: 1}))
	assert.Equal(t, int64(1), b.ID)

	var s string
	assert.Error(t, Assign(reflect.ValueOf(&s).Elem(), []any{"x"}))

	var u uint
	assert.Error(t, Assign(reflect.ValueOf(&u).Elem(), -1))

	var big uint64
	require.NoError(t, Assign(reflect.ValueOf(&big).Elem(), ^uint64(0)))
	assert.Equal(t, ^uint64(0), big)
	var small uint8
	assert.Error(t, Assign(reflect.ValueOf(&small).Elem(), uint64(256)))
	var signed int64
	assert.Error(t, Assign(reflect.ValueOf(&signed).Elem(), ^uint64(0)))
}

func TestIsContainer(t *testing.T) {
	var nilPtr *Base
	cases := []struct {
		value any
		want  bool
	}{
		{[]any{"x"}, true},
		{map[string]any{}, true},
		{&Base{}, true},
		{Base{}, true},
		{"x", false},
		{ptrTo("x"), false},
		{nilPtr, false},
		{nil, false},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, IsContainer(reflect.ValueOf(c.value)), "%#v", c.value)
	}

	var iface any = []int{1}
	assert.True(t, IsContainer(reflect.ValueOf(&iface)))
}

func ptrTo[T any](v T) *T { return &v }
