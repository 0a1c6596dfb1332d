// Licensed to the LF AI & Data foundation under one
// or more contributor license agreements. See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership. The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License. You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package merr

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
)

// Code 返回给定错误对应的错误码。
// 非 merr 定义的错误统一返回 errUnexpected 的错误码。
func Code(err error) int32 {
	if err == nil {
		return 0
	}

	cause := errors.Cause(err)
	switch specificErr := cause.(type) {
	case serError:
		return specificErr.code()
	case multiErrors:
		return Code(specificErr.errs[len(specificErr.errs)-1])
	default:
		return errUnexpected.code()
	}
}

func IsRetryableErr(err error) bool {
	if err, ok := err.(serError); ok {
		return err.retriable
	}

	return false
}

func GetErrorType(err error) ErrorType {
	if merr, ok := errors.Cause(err).(serError); ok {
		return merr.errType
	}

	return SystemError
}

// 类型表达式相关错误封装。
func WrapErrParse(expr string, pos int, reason string) error {
	return wrapFieldsWithDesc(ErrParse, reason,
		value("expr", expr),
		value("pos", pos),
	)
}

// 调用入口相关错误封装。
func WrapErrUnsupportedFormat(format string, direction string) error {
	return wrapFields(ErrUnsupportedFormat,
		value("format", format),
		value("direction", direction),
	)
}

func WrapErrMissingType(path string, msg ...string) error {
	err := wrapFields(ErrMissingType, value("path", pathOrRoot(path)))
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

// 遍历相关错误封装。
func WrapErrDepthExceeded(depth, limit int, path string) error {
	return wrapFields(ErrDepthExceeded,
		bound("depth", depth, 0, limit),
		value("path", pathOrRoot(path)),
	)
}

func WrapErrConfiguration(reason string, msg ...string) error {
	err := wrapFieldsWithDesc(ErrConfiguration, reason)
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

// WrapErrExpressionRequired 表示类声明了基于表达式的排除规则，但未配置表达式求值器。
func WrapErrExpressionRequired(class string) error {
	return wrapFieldsWithDesc(ErrConfiguration,
		"conditional exclude/expose requires an expression evaluator",
		value("class", class),
	)
}

func WrapErrDiscriminatorFieldMissing(field, class string) error {
	return wrapFieldsWithDesc(ErrDiscriminator, "discriminator field not found in input data",
		value("field", field),
		value("class", class),
	)
}

func WrapErrDiscriminatorUnknownTag(tag, class string, available []string) error {
	return wrapFieldsWithDesc(ErrDiscriminator,
		fmt.Sprintf("available types: %s", strings.Join(available, ", ")),
		value("tag", tag),
		value("class", class),
	)
}

func WrapErrMetadataNotFound(class string, msg ...string) error {
	err := wrapFields(ErrMetadataNotFound, value("class", class))
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

// WrapErrInvalidInput 表示输入数据的结构与声明类型不符。
// class/property 为空时不会出现在错误信息里。
func WrapErrInvalidInput(class, property, expected string, actual any) error {
	fields := make([]errorField, 0, 4)
	if class != "" {
		fields = append(fields, value("class", class))
	}
	if property != "" {
		fields = append(fields, value("property", property))
	}
	fields = append(fields, value("expected", expected), value("actual", fmt.Sprintf("%T", actual)))
	return wrapFields(ErrInvalidInput, fields...)
}

func WrapErrUnsupportedValue(kind string, path string) error {
	return wrapFields(ErrUnsupportedValue,
		value("kind", kind),
		value("path", pathOrRoot(path)),
	)
}

// 编解码相关错误封装。
func WrapErrEncodeFailed(format string, err error) error {
	return wrapFieldsWithDesc(ErrEncodeFailed, err.Error(), value("format", format))
}

func WrapErrDecodeFailed(format string, err error) error {
	return wrapFieldsWithDesc(ErrDecodeFailed, err.Error(), value("format", format))
}

// 执行相关错误封装。
func WrapErrHookFailed(class, hook string, err error) error {
	return wrapFieldsWithDesc(ErrHookFailed, err.Error(),
		value("class", class),
		value("hook", hook),
	)
}

func WrapErrPoolExhausted(msg ...string) error {
	err := error(ErrPoolExhausted)
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func pathOrRoot(path string) string {
	if path == "" {
		return "<root>"
	}
	return path
}

func wrapFields(err serError, fields ...errorField) error {
	for i := range fields {
		err.msg += fmt.Sprintf("[%s]", fields[i].String())
	}
	err.detail = err.msg
	return err
}

func wrapFieldsWithDesc(err serError, desc string, fields ...errorField) error {
	for i := range fields {
		err.msg += fmt.Sprintf("[%s]", fields[i].String())
	}
	err.msg += ": " + desc
	err.detail = err.msg
	return err
}

type errorField interface {
	String() string
}

type valueField struct {
	name  string
	value any
}

func value(name string, value any) valueField {
	return valueField{
		name,
		value,
	}
}

func (f valueField) String() string {
	return fmt.Sprintf("%s=%v", f.name, f.value)
}

type boundField struct {
	name  string
	value any
	lower any
	upper any
}

func bound(name string, value, lower, upper any) boundField {
	return boundField{
		name:  name,
		value: value,
		lower: lower,
		upper: upper,
	}
}

func (f boundField) String() string {
	return fmt.Sprintf("%v out of range %v <= %s <= %v", f.value, f.lower, f.name, f.upper)
}
