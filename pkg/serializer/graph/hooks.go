package graph

import (
	"reflect"

	"github.com/cockroachdb/errors"

	"github.com/lk2023060901/graph-serializer/pkg/serializer/metadata"
	"github.com/lk2023060901/graph-serializer/pkg/util/merr"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// invokeHooks 依次调用 obj 上的无参方法，方法可以返回 error。
// 非指针值在副本上调用。
func invokeHooks(obj any, hooks []string, class string) error {
	if len(hooks) == 0 || obj == nil {
		return nil
	}
	rv := reflect.ValueOf(obj)
	if rv.Kind() != reflect.Ptr {
		p := reflect.New(rv.Type())
		p.Elem().Set(rv)
		rv = p
	}
	for _, name := range hooks {
		m := rv.MethodByName(name)
		if !m.IsValid() {
			return merr.WrapErrHookFailed(class, name, errors.New("method not found"))
		}
		mt := m.Type()
		if mt.NumIn() != 0 {
			return merr.WrapErrHookFailed(class, name, errors.New("hook must not take arguments"))
		}
		out := m.Call(nil)
		if mt.NumOut() > 0 && mt.Out(mt.NumOut()-1) == errorType {
			if err, _ := out[len(out)-1].Interface().(error); err != nil {
				return merr.WrapErrHookFailed(class, name, err)
			}
		}
	}
	return nil
}

// shouldSkipClass 依次询问结构化策略与表达式策略。
func (b *base) shouldSkipClass(meta *metadata.ClassMetadata, ctx *Context) (bool, error) {
	if s := ctx.ExclusionStrategy(); s != nil && s.ShouldSkipClass(meta, ctx) {
		return true, nil
	}
	if b.conditional != nil {
		return b.conditional.ShouldSkipClass(meta, ctx)
	}
	return false, nil
}

func (b *base) shouldSkipProperty(prop *metadata.PropertyMetadata, ctx *Context) (bool, error) {
	if s := ctx.ExclusionStrategy(); s != nil && s.ShouldSkipProperty(prop, ctx) {
		return true, nil
	}
	if b.conditional != nil {
		return b.conditional.ShouldSkipProperty(prop, ctx)
	}
	return false, nil
}

// resolveMetadata 查找类元数据，并校验表达式排除的前置条件。
func (b *base) resolveMetadata(name string, ctx *Context) (*metadata.ClassMetadata, error) {
	meta, err := ctx.MetadataProvider().MetadataForClass(name)
	if err != nil {
		return nil, err
	}
	if meta.UsingExpression && b.conditional == nil {
		return nil, merr.WrapErrExpressionRequired(meta.Name)
	}
	return meta, nil
}
