package graph

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/suite"

	"github.com/lk2023060901/graph-serializer/pkg/serializer/exclusion"
	"github.com/lk2023060901/graph-serializer/pkg/serializer/metadata"
	"github.com/lk2023060901/graph-serializer/pkg/serializer/types"
	"github.com/lk2023060901/graph-serializer/pkg/util/merr"
)

type user struct {
	Name *string
	Tags []string `serializer:"type=array<string>"`
}

type node struct {
	Name string
	Next *node
}

type leaf struct {
	Value string
}

type pair struct {
	Left  *leaf
	Right *leaf
}

type animal interface{ Sound() string }

type dog struct {
	Name string
}

func (d *dog) Sound() string { return "woof" }

type cat struct {
	Lives int64
}

func (c *cat) Sound() string { return "meow" }

type pet interface{ Talk() string }

type parrot struct {
	Words int64
}

func (p *parrot) Talk() string { return "hello" }

// element 带属性与子字段的结构化输入。
type element struct {
	attrs    map[string]any
	children map[string]any
}

func (e element) Attribute(name string) (any, bool) {
	v, ok := e.attrs[name]
	return v, ok
}

func (e element) Field(name string) (any, bool) {
	v, ok := e.children[name]
	return v, ok
}

// fields 只有子字段的结构化输入。
type fields map[string]any

func (f fields) Field(name string) (any, bool) {
	v, ok := f[name]
	return v, ok
}

type zoo struct {
	Star animal
}

type account struct {
	ID    string `serializer:"readonly"`
	Owner string
}

type hooked struct {
	Calls []string `serializer:"-"`
	Value string
}

func (h *hooked) Before() { h.Calls = append(h.Calls, "before") }

func (h *hooked) After() error {
	h.Calls = append(h.Calls, "after")
	return nil
}

func (h *hooked) Fail() error { return errors.New("nope") }

type secret struct {
	Token string `serializer_exclude_if:"hide"`
	Label string
}

type handlerTable map[string]HandlerFunc

func (h handlerTable) Handler(direction Direction, typeName, format string) (HandlerFunc, bool) {
	fn, ok := h[direction.String()+"/"+typeName]
	return fn, ok
}

type listener struct {
	event string
	class string
	fn    func(evt *Event) error
}

type dispatcher struct {
	listeners []listener
	fired     []string
}

func (d *dispatcher) on(event, class string, fn func(evt *Event) error) {
	d.listeners = append(d.listeners, listener{event: event, class: class, fn: fn})
}

func (d *dispatcher) HasListeners(event, class, _ string) bool {
	for _, l := range d.listeners {
		if l.event == event && (l.class == "" || l.class == class) {
			return true
		}
	}
	return false
}

func (d *dispatcher) Dispatch(event, class, _ string, evt *Event) error {
	d.fired = append(d.fired, event+":"+class)
	for _, l := range d.listeners {
		if l.event == event && (l.class == "" || l.class == class) {
			if err := l.fn(evt); err != nil {
				return err
			}
		}
	}
	return nil
}

type evaluator map[string]bool

func (e evaluator) Evaluate(expr string, _ map[string]any) (any, error) {
	return e[expr], nil
}

type NavigatorSuite struct {
	suite.Suite
	registry *metadata.Registry
}

func (s *NavigatorSuite) SetupTest() {
	r := metadata.NewRegistry()
	r.MustRegister(&user{}, metadata.WithName("User"))
	r.MustRegister(&node{}, metadata.WithName("Node"))
	r.MustRegister(&leaf{}, metadata.WithName("Leaf"))
	r.MustRegister(&pair{}, metadata.WithName("Pair"))
	r.MustRegister((*animal)(nil), metadata.WithName("Animal"),
		metadata.WithDiscriminator("type", map[string]string{"dog": "Dog", "cat": "Cat"}))
	r.MustRegister(&dog{}, metadata.WithName("Dog"), metadata.WithParent("Animal"))
	r.MustRegister(&cat{}, metadata.WithName("Cat"), metadata.WithParent("Animal"))
	r.MustRegister((*pet)(nil), metadata.WithName("Pet"), metadata.WithXMLAttributeDiscriminator(),
		metadata.WithDiscriminator("kind", map[string]string{"parrot": "Parrot"}))
	r.MustRegister(&parrot{}, metadata.WithName("Parrot"), metadata.WithParent("Pet"))
	r.MustRegister(&zoo{}, metadata.WithName("Zoo"))
	r.MustRegister(&account{}, metadata.WithName("Account"))
	r.MustRegister(&hooked{}, metadata.WithName("Hooked"),
		metadata.WithPreSerialize("Before"), metadata.WithPostSerialize("After"),
		metadata.WithPostDeserialize("After"))
	r.MustRegister(&secret{}, metadata.WithName("Secret"))
	s.registry = r
}

func (s *NavigatorSuite) serialize(data any, typ string, opts ...Option) (any, *Context, error) {
	ctx := NewSerializationContext()
	return s.serializeWith(ctx, data, typ, opts...)
}

func (s *NavigatorSuite) serializeWith(ctx *Context, data any, typ string, opts ...Option) (any, *Context, error) {
	nav := NewSerializationNavigator(opts...)
	s.Require().NoError(ctx.Initialize("map", &mapVisitor{}, nav, s.registry))
	var t *types.TypeDefinition
	if typ != "" {
		t = types.MustParse(typ)
	}
	out, err := nav.Accept(data, t, ctx)
	return out, ctx, err
}

func (s *NavigatorSuite) deserialize(data any, typ string, opts ...Option) (any, *Context, error) {
	opts = append([]Option{WithConstructor(newConstructor{})}, opts...)
	nav, err := NewDeserializationNavigator(opts...)
	s.Require().NoError(err)
	ctx := NewDeserializationContext()
	s.Require().NoError(ctx.Initialize("map", &mapVisitor{}, nav, s.registry))
	var t *types.TypeDefinition
	if typ != "" {
		t = types.MustParse(typ)
	}
	out, err := nav.Accept(data, t, ctx)
	return out, ctx, err
}

func (s *NavigatorSuite) assertClean(ctx *Context) {
	s.Equal(0, ctx.Depth())
	s.Nil(ctx.CurrentObject())
	s.Nil(ctx.CurrentClassMetadata())
	s.Nil(ctx.CurrentPropertyMetadata())
	s.Empty(ctx.MetadataStack())
	s.Equal(0, ctx.visiting.Len())
}

func (s *NavigatorSuite) TestSerializeListAndNullPolicy() {
	bob := "Bob"
	out, ctx, err := s.serialize(&user{Name: &bob, Tags: []string{"x", "y"}}, "User")
	s.Require().NoError(err)
	s.Equal(map[string]any{"Name": "Bob", "Tags": []any{"x", "y"}}, out)
	s.assertClean(ctx)

	out, _, err = s.serialize(&user{Tags: []string{"x"}}, "")
	s.Require().NoError(err)
	s.Equal(map[string]any{"Tags": []any{"x"}}, out)

	ctx = NewSerializationContext().SetSerializeNull(true)
	out, _, err = s.serializeWith(ctx, &user{}, "User")
	s.Require().NoError(err)
	s.Equal(map[string]any{"Name": nil, "Tags": nil}, out)
}

func (s *NavigatorSuite) TestNullForcesNullType() {
	out, _, err := s.serialize(nil, "User")
	s.NoError(err)
	s.Nil(out)

	var n *node
	out, _, err = s.serialize(n, "array<string>")
	s.NoError(err)
	s.Nil(out)
}

func (s *NavigatorSuite) TestCycleIsSuppressed() {
	a := &node{Name: "a"}
	b := &node{Name: "b", Next: a}
	a.Next = b

	out, ctx, err := s.serialize(a, "Node")
	s.Require().NoError(err)
	s.Equal(map[string]any{"Name": "a", "Next": map[string]any{"Name": "b"}}, out)
	s.assertClean(ctx)

	// 按值传入的根没有标识，环在第二次遇到 a 的指针时截断。
	out, ctx, err = s.serialize(*a, "Node")
	s.Require().NoError(err)
	s.Equal(map[string]any{"Name": "a", "Next": map[string]any{
		"Name": "b", "Next": map[string]any{"Name": "a"},
	}}, out)
	s.assertClean(ctx)
}

func (s *NavigatorSuite) TestDiamondIsNotACycle() {
	shared := &leaf{Value: "v"}
	out, _, err := s.serialize(&pair{Left: shared, Right: shared}, "Pair")
	s.Require().NoError(err)
	s.Equal(map[string]any{
		"Left":  map[string]any{"Value": "v"},
		"Right": map[string]any{"Value": "v"},
	}, out)
}

func (s *NavigatorSuite) TestPolymorphicNarrowing() {
	out, _, err := s.serialize(&zoo{Star: &dog{Name: "rex"}}, "Zoo")
	s.Require().NoError(err)
	s.Equal(map[string]any{"Star": map[string]any{"type": "dog", "Name": "rex"}}, out)
}

func (s *NavigatorSuite) TestUnsupportedValue() {
	_, _, err := s.serialize([]any{make(chan int)}, "array<resource>")
	s.ErrorIs(err, merr.ErrUnsupportedValue)

	_, _, err = s.serialize(make(chan int), "")
	s.ErrorIs(err, merr.ErrUnsupportedValue)
}

func (s *NavigatorSuite) TestDepthExceeded() {
	ctx := NewSerializationContext().SetMaxDepth(2)
	_, ctx, err := s.serializeWith(ctx, []any{[]any{[]any{"deep"}}}, "")
	s.ErrorIs(err, merr.ErrDepthExceeded)
	s.Equal(0, ctx.Depth())

	ctx = NewSerializationContext().SetMaxDepth(3)
	out, _, err := s.serializeWith(ctx, []any{[]any{[]any{"deep"}}}, "")
	s.NoError(err)
	s.Equal([]any{[]any{[]any{"deep"}}}, out)
}

func (s *NavigatorSuite) TestHandlerReplacesDispatch() {
	handlers := handlerTable{
		"serialization/Leaf": func(v Visitor, data any, t *types.TypeDefinition, ctx *Context) (any, error) {
			return "leaf:" + data.(*leaf).Value, nil
		},
	}
	out, ctx, err := s.serialize(&pair{Left: &leaf{Value: "l"}}, "Pair", WithHandlers(handlers))
	s.Require().NoError(err)
	s.Equal(map[string]any{"Left": "leaf:l"}, out)
	s.assertClean(ctx)
}

func (s *NavigatorSuite) TestEvents() {
	d := &dispatcher{}
	d.on(EventPreSerialize, "Leaf", func(evt *Event) error {
		evt.Object = &leaf{Value: "replaced"}
		return nil
	})
	d.on(EventPostSerialize, "", func(*Event) error { return nil })

	out, _, err := s.serialize(&pair{Left: &leaf{Value: "orig"}}, "Pair", WithDispatcher(d))
	s.Require().NoError(err)
	s.Equal(map[string]any{"Left": map[string]any{"Value": "replaced"}}, out)
	s.Equal([]string{
		EventPreSerialize + ":Leaf",
		EventPostSerialize + ":Leaf",
		EventPostSerialize + ":Pair",
	}, d.fired)
}

func (s *NavigatorSuite) TestHooks() {
	h := &hooked{Value: "v"}
	out, _, err := s.serialize(h, "Hooked")
	s.Require().NoError(err)
	s.Equal(map[string]any{"Value": "v"}, out)
	s.Equal([]string{"before", "after"}, h.Calls)
}

func (s *NavigatorSuite) TestHookFailureUnwinds() {
	s.registry.MustRegister(&hooked{}, metadata.WithName("Hooked"), metadata.WithPostSerialize("Fail"))
	h := &hooked{Value: "v"}
	_, ctx, err := s.serialize([]*hooked{h}, "array<Hooked>")
	s.ErrorIs(err, merr.ErrHookFailed)
	s.assertClean(ctx)
	s.False(ctx.IsVisiting(h))
}

func (s *NavigatorSuite) TestExpressionExclusion() {
	_, _, err := s.serialize(&secret{Token: "t", Label: "l"}, "Secret")
	s.ErrorIs(err, merr.ErrConfiguration)

	strategy := exclusion.NewExpression(evaluator{"hide": true})
	out, _, err := s.serialize(&secret{Token: "t", Label: "l"}, "Secret", WithExpressionStrategy(strategy))
	s.Require().NoError(err)
	s.Equal(map[string]any{"Label": "l"}, out)
}

func (s *NavigatorSuite) TestGroupExclusion() {
	ctx := NewSerializationContext().SetGroups("admin")
	out, _, err := s.serializeWith(ctx, &leaf{Value: "v"}, "Leaf")
	s.Require().NoError(err)
	s.Equal(map[string]any{}, out)
}

func (s *NavigatorSuite) TestDeserializeRequiresType() {
	_, _, err := s.deserialize(map[string]any{}, "")
	s.ErrorIs(err, merr.ErrMissingType)

	out, _, err := s.deserialize(nil, "User")
	s.NoError(err)
	s.Nil(out)
}

func (s *NavigatorSuite) TestDeserializeObject() {
	out, ctx, err := s.deserialize(map[string]any{"Name": "Bob", "Tags": []any{"x", "y"}}, "User")
	s.Require().NoError(err)
	u := out.(*user)
	s.Equal("Bob", *u.Name)
	s.Equal([]string{"x", "y"}, u.Tags)
	s.assertClean(ctx)

	out, _, err = s.deserialize(map[string]any{"Name": nil}, "User")
	s.Require().NoError(err)
	s.Nil(out.(*user).Name)
}

func (s *NavigatorSuite) TestDiscriminator() {
	out, _, err := s.deserialize(map[string]any{"type": "dog", "Name": "rex"}, "Animal")
	s.Require().NoError(err)
	s.Equal(&dog{Name: "rex"}, out)

	out, _, err = s.deserialize(map[string]any{"type": "cat"}, "Animal")
	s.Require().NoError(err)
	s.IsType(&cat{}, out)

	_, _, err = s.deserialize(map[string]any{"type": "z"}, "Animal")
	s.ErrorIs(err, merr.ErrDiscriminator)
	s.Contains(err.Error(), "available types: cat, dog")

	_, ctx, err := s.deserialize(map[string]any{"Name": "rex"}, "Animal")
	s.ErrorIs(err, merr.ErrDiscriminator)
	s.assertClean(ctx)

	out, _, err = s.deserialize(map[string]any{"Star": map[string]any{"type": "dog", "Name": "rex"}}, "Zoo")
	s.Require().NoError(err)
	s.Equal(&zoo{Star: &dog{Name: "rex"}}, out)
}

func (s *NavigatorSuite) TestStructuredDiscriminator() {
	out, ctx, err := s.deserialize(element{
		attrs:    map[string]any{"kind": "parrot"},
		children: map[string]any{"Words": int64(3)},
	}, "Pet")
	s.Require().NoError(err)
	s.Equal(&parrot{Words: 3}, out)
	s.assertClean(ctx)

	out, _, err = s.deserialize(element{children: map[string]any{"kind": "parrot"}}, "Pet")
	s.Require().NoError(err)
	s.IsType(&parrot{}, out)

	_, _, err = s.deserialize(element{attrs: map[string]any{"kind": "cat"}}, "Pet")
	s.ErrorIs(err, merr.ErrDiscriminator)
	s.Contains(err.Error(), "available types: parrot")

	// 未声明属性判别的类忽略结构化属性。
	_, ctx, err = s.deserialize(element{
		attrs:    map[string]any{"type": "dog"},
		children: map[string]any{"Name": "rex"},
	}, "Animal")
	s.ErrorIs(err, merr.ErrDiscriminator)
	s.assertClean(ctx)

	out, _, err = s.deserialize(element{children: map[string]any{"type": "dog", "Name": "rex"}}, "Animal")
	s.Require().NoError(err)
	s.Equal(&dog{Name: "rex"}, out)

	out, _, err = s.deserialize(fields{"type": "cat", "Lives": int64(9)}, "Animal")
	s.Require().NoError(err)
	s.Equal(&cat{Lives: 9}, out)

	_, ctx, err = s.deserialize(fields{"Name": "rex"}, "Animal")
	s.ErrorIs(err, merr.ErrDiscriminator)
	s.assertClean(ctx)
}

func (s *NavigatorSuite) TestReadOnlyIsNeverWritten() {
	out, _, err := s.deserialize(map[string]any{"ID": "forged", "Owner": "o"}, "Account")
	s.Require().NoError(err)
	s.Equal(&account{Owner: "o"}, out)
}

func (s *NavigatorSuite) TestDeserializeHooksAndEvents() {
	d := &dispatcher{}
	d.on(EventPreDeserialize, "Hooked", func(evt *Event) error {
		evt.Data = map[string]any{"Value": "rewritten"}
		return nil
	})
	out, _, err := s.deserialize(map[string]any{"Value": "v"}, "Hooked", WithDispatcher(d))
	s.Require().NoError(err)
	h := out.(*hooked)
	s.Equal("rewritten", h.Value)
	s.Equal([]string{"after"}, h.Calls)
}

func (s *NavigatorSuite) TestRoundTrip() {
	bob := "Bob"
	in := &zoo{Star: &dog{Name: bob}}
	tree, _, err := s.serialize(in, "Zoo")
	s.Require().NoError(err)
	out, _, err := s.deserialize(tree, "Zoo")
	s.Require().NoError(err)
	s.Equal(in, out)
}

func (s *NavigatorSuite) TestConstructorWiring() {
	_, err := NewDeserializationNavigator()
	s.ErrorIs(err, merr.ErrConfiguration)

	_, err = NewDeserializationNavigator(WithConstructor(newConstructor{}), WithInstantiator(nil))
	s.NoError(err)
}

func TestNavigator(t *testing.T) {
	suite.Run(t, new(NavigatorSuite))
}
