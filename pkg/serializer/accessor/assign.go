package accessor

import (
	"math"
	"reflect"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cast"
)

// Assign 将解码得到的值（[]any、map[string]any、标量）转换为 dst 的类型并写入。
// 数值转换会检查溢出，不兼容的形状返回错误而不是静默转换。
func Assign(dst reflect.Value, src any) error {
	if src == nil {
		dst.Set(reflect.Zero(dst.Type()))
		return nil
	}
	sv := reflect.ValueOf(src)
	if sv.Type().AssignableTo(dst.Type()) {
		dst.Set(sv)
		return nil
	}

	switch dst.Kind() {
	case reflect.Ptr:
		if sv.Kind() == reflect.Ptr {
			if sv.IsNil() {
				dst.Set(reflect.Zero(dst.Type()))
				return nil
			}
			return Assign(dst, sv.Elem().Interface())
		}
		elem := reflect.New(dst.Type().Elem())
		if err := Assign(elem.Elem(), src); err != nil {
			return err
		}
		dst.Set(elem)
		return nil
	case reflect.Interface:
		if sv.Type().Implements(dst.Type()) {
			dst.Set(sv)
			return nil
		}
	case reflect.Slice:
		if sv.Kind() != reflect.Slice && sv.Kind() != reflect.Array {
			break
		}
		out := reflect.MakeSlice(dst.Type(), sv.Len(), sv.Len())
		for i := 0; i < sv.Len(); i++ {
			if err := Assign(out.Index(i), sv.Index(i).Interface()); err != nil {
				return errors.Wrapf(err, "index %d", i)
			}
		}
		dst.Set(out)
		return nil
	case reflect.Array:
		if (sv.Kind() != reflect.Slice && sv.Kind() != reflect.Array) || sv.Len() > dst.Len() {
			break
		}
		for i := 0; i < sv.Len(); i++ {
			if err := Assign(dst.Index(i), sv.Index(i).Interface()); err != nil {
				return errors.Wrapf(err, "index %d", i)
			}
		}
		return nil
	case reflect.Map:
		if sv.Kind() != reflect.Map {
			break
		}
		out := reflect.MakeMapWithSize(dst.Type(), sv.Len())
		iter := sv.MapRange()
		for iter.Next() {
			k := reflect.New(dst.Type().Key()).Elem()
			if err := Assign(k, iter.Key().Interface()); err != nil {
				return errors.Wrapf(err, "key %v", iter.Key())
			}
			v := reflect.New(dst.Type().Elem()).Elem()
			if err := Assign(v, iter.Value().Interface()); err != nil {
				return errors.Wrapf(err, "key %v", iter.Key())
			}
			out.SetMapIndex(k, v)
		}
		dst.Set(out)
		return nil
	case reflect.Struct:
		if sv.Kind() == reflect.Ptr && !sv.IsNil() && sv.Elem().Type().AssignableTo(dst.Type()) {
			dst.Set(sv.Elem())
			return nil
		}
	case reflect.String:
		if IsContainer(sv) {
			break
		}
		s, err := cast.ToStringE(src)
		if err != nil {
			return err
		}
		dst.SetString(s)
		return nil
	case reflect.Bool:
		b, err := cast.ToBoolE(src)
		if err != nil {
			return err
		}
		dst.SetBool(b)
		return nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if u, ok := src.(uint64); ok && u > math.MaxInt64 {
			return errors.Newf("%d overflows %s", u, dst.Type())
		}
		i, err := cast.ToInt64E(src)
		if err != nil {
			return err
		}
		if dst.OverflowInt(i) {
			return errors.Newf("%d overflows %s", i, dst.Type())
		}
		dst.SetInt(i)
		return nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		if u, ok := src.(uint64); ok {
			if dst.OverflowUint(u) {
				return errors.Newf("%d overflows %s", u, dst.Type())
			}
			dst.SetUint(u)
			return nil
		}
		i, err := cast.ToInt64E(src)
		if err != nil {
			return err
		}
		if i < 0 || dst.OverflowUint(uint64(i)) {
			return errors.Newf("%d overflows %s", i, dst.Type())
		}
		dst.SetUint(uint64(i))
		return nil
	case reflect.Float32, reflect.Float64:
		f, err := cast.ToFloat64E(src)
		if err != nil {
			return err
		}
		if dst.OverflowFloat(f) {
			return errors.Newf("%g overflows %s", f, dst.Type())
		}
		dst.SetFloat(f)
		return nil
	}

	if sv.Type().ConvertibleTo(dst.Type()) && !IsContainer(sv) {
		dst.Set(sv.Convert(dst.Type()))
		return nil
	}
	return errors.Newf("cannot assign %T to %s", src, dst.Type())
}

// IsContainer 判断 v 解开指针与接口后是否为列表、映射或结构体。
func IsContainer(v reflect.Value) bool {
	for v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return false
		}
		v = v.Elem()
	}
	switch v.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map, reflect.Struct:
		return true
	}
	return false
}
