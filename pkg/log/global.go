// Copyright 2019 PingCAP, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// See the License for the specific language governing permissions and
// limitations under the License.

package log

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type ctxLogKeyType struct{}

// CtxLogKey 为 context 中保存 *MLogger 的键。
var CtxLogKey = ctxLogKeyType{}

func Debug(msg string, fields ...zap.Field) { L().Debug(msg, fields...) }

func Info(msg string, fields ...zap.Field) { L().Info(msg, fields...) }

func Warn(msg string, fields ...zap.Field) { L().Warn(msg, fields...) }

func Error(msg string, fields ...zap.Field) { L().Error(msg, fields...) }

// With 基于全局 Logger 创建带字段的 MLogger。
func With(fields ...zap.Field) *MLogger {
	return &MLogger{Logger: L().With(fields...)}
}

// WithFields 返回携带附加字段 Logger 的 context，已有的 context Logger 会被继承。
func WithFields(ctx context.Context, fields ...zap.Field) context.Context {
	return context.WithValue(ctx, CtxLogKey, Ctx(ctx).With(fields...))
}

// NewIntentContext 为一次批量调用开启 span，并把 component、intent 与 traceID 写入 context Logger。
func NewIntentContext(ctx context.Context, component, intent string) (context.Context, trace.Span) {
	spanCtx, span := otel.Tracer(component).Start(ctx, intent)
	spanCtx = WithFields(spanCtx,
		FieldComponent(component),
		zap.String("intent", intent),
		zap.String("traceID", span.SpanContext().TraceID().String()))
	return spanCtx, span
}

// Ctx 返回 context 中的 Logger，不存在时退回全局 Logger。
func Ctx(ctx context.Context) *MLogger {
	if ctx != nil {
		if l, ok := ctx.Value(CtxLogKey).(*MLogger); ok {
			return l
		}
	}
	return &MLogger{Logger: L()}
}
