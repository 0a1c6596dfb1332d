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
	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
)

type ErrorType int32

const (
	SystemError ErrorType = 0
	InputError  ErrorType = 1
)

var ErrorTypeName = map[ErrorType]string{
	SystemError: "system_error",
	InputError:  "input_error",
}

func (err ErrorType) String() string {
	return ErrorTypeName[err]
}

// Define leaf errors here,
// WARN: take care to add new error,
// check whether you can use the errors below before adding a new one.
// Name: Err + related prefix + error name
var (
	// 类型表达式相关
	ErrParse = newSerError("malformed type expression", 100, false, WithErrorType(InputError))

	// 调用入口相关
	ErrUnsupportedFormat = newSerError("unsupported format", 101, false, WithErrorType(InputError))
	ErrMissingType       = newSerError("type must be given when deserializing", 102, false, WithErrorType(InputError))

	// 遍历相关
	ErrDepthExceeded    = newSerError("maximum depth exceeded", 103, false, WithErrorType(InputError))
	ErrConfiguration    = newSerError("invalid serializer configuration", 104, false)
	ErrDiscriminator    = newSerError("discriminator resolution failed", 105, false, WithErrorType(InputError))
	ErrMetadataNotFound = newSerError("class metadata not found", 106, false)
	ErrInvalidInput     = newSerError("invalid input data", 107, false, WithErrorType(InputError))
	ErrUnsupportedValue = newSerError("unsupported value kind", 108, false, WithErrorType(InputError))

	// 编解码相关
	ErrEncodeFailed = newSerError("encode failed", 200, false)
	ErrDecodeFailed = newSerError("decode failed", 201, false, WithErrorType(InputError))

	// 执行相关
	ErrHookFailed    = newSerError("lifecycle hook failed", 300, false)
	ErrHandlerFailed = newSerError("custom handler failed", 301, false)
	ErrPoolExhausted = newSerError("worker pool exhausted", 302, true)

	// Do NOT export this,
	// never allow programmer using this, keep only for converting unknown error to serError
	errUnexpected = newSerError("unexpected error", (1<<16)-1, false)
)

type errorOption func(*serError)

func WithDetail(detail string) errorOption {
	return func(err *serError) {
		err.detail = detail
	}
}

func WithErrorType(etype ErrorType) errorOption {
	return func(err *serError) {
		err.errType = etype
	}
}

type serError struct {
	msg       string
	detail    string
	retriable bool
	errCode   int32
	errType   ErrorType
}

func newSerError(msg string, code int32, retriable bool, options ...errorOption) serError {
	err := serError{
		msg:       msg,
		detail:    msg,
		retriable: retriable,
		errCode:   code,
	}

	for _, option := range options {
		option(&err)
	}
	return err
}

func (e serError) code() int32 {
	return e.errCode
}

func (e serError) Error() string {
	return e.msg
}

func (e serError) Detail() string {
	return e.detail
}

func (e serError) Is(err error) bool {
	cause := errors.Cause(err)
	if cause, ok := cause.(serError); ok {
		return e.errCode == cause.errCode
	}
	return false
}

type multiErrors struct {
	errs []error
}

func (e multiErrors) Unwrap() error {
	if len(e.errs) <= 1 {
		return nil
	}
	// To make merr work for multi errors,
	// we need cause of multi errors, which defined as the last error
	if len(e.errs) == 2 {
		return e.errs[1]
	}

	return multiErrors{
		errs: e.errs[1:],
	}
}

func (e multiErrors) Error() string {
	final := e.errs[0]
	for i := 1; i < len(e.errs); i++ {
		final = errors.Wrap(e.errs[i], final.Error())
	}
	return final.Error()
}

func (e multiErrors) Is(err error) bool {
	for _, item := range e.errs {
		if errors.Is(item, err) {
			return true
		}
	}
	return false
}

func Combine(errs ...error) error {
	errs = lo.Filter(errs, func(err error, _ int) bool { return err != nil })
	if len(errs) == 0 {
		return nil
	}
	return multiErrors{
		errs,
	}
}
