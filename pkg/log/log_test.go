package log

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestInitTestLogger(t *testing.T) {
	lg, props, err := InitTestLogger(t, &Config{Level: "debug", Format: FormatJSON})
	require.NoError(t, err)
	require.NotNil(t, props)
	assert.Equal(t, zapcore.DebugLevel, props.Level.Level())
	lg.Debug("visiting", FieldFormat("json"), FieldPath(""))
}

func TestParseLevel(t *testing.T) {
	lvl, err := parseLevel("trace")
	require.NoError(t, err)
	assert.Equal(t, zapcore.DebugLevel, lvl)

	lvl, err = parseLevel("warn")
	require.NoError(t, err)
	assert.Equal(t, zapcore.WarnLevel, lvl)

	_, _, err = InitLoggerWithWriteSyncer(&Config{Level: "loud"}, zapcore.AddSync(nopWriter{}))
	assert.Error(t, err)
}

func TestCtxAndBinder(t *testing.T) {
	ctx := WithFields(context.Background(), FieldModule("serializer"))
	assert.NotNil(t, Ctx(ctx))
	assert.Same(t, Ctx(ctx), Ctx(ctx))
	assert.NotNil(t, Ctx(nil))

	intentCtx, span := NewIntentContext(ctx, "serializer", "serialize_batch")
	defer span.End()
	assert.NotSame(t, Ctx(ctx), Ctx(intentCtx))

	var b Binder
	assert.NotNil(t, b.Logger())
	b.SetComponent("navigator")
	assert.NotSame(t, b.Logger(), b.Logger())
	l := With(zap.String("k", "v"))
	b.SetLogger(l)
	assert.Same(t, l, b.Logger())
}

func TestRatedLogger(t *testing.T) {
	l := With().WithRateGroup("test", 1, 1)
	assert.True(t, l.RatedInfo(1, "first"))
	assert.False(t, l.RatedInfo(1, "second"))
	assert.True(t, R().CheckCredit(100))
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }
