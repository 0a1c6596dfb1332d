package serializer

import (
	"context"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/lk2023060901/graph-serializer/pkg/log"
	"github.com/lk2023060901/graph-serializer/pkg/metrics"
	"github.com/lk2023060901/graph-serializer/pkg/util/conc"
)

// SerializeBatch 在协程池中并发序列化多个值，每个值使用独立的上下文。
// 结果顺序与 values 一致，任一失败时返回合并后的错误。
func (s *Serializer) SerializeBatch(ctx context.Context, values []any, format string) ([][]byte, error) {
	ctx, span := log.NewIntentContext(ctx, "serializer", "serialize_batch")
	defer span.End()

	futures := make([]*conc.Future[[]byte], 0, len(values))
	for _, value := range values {
		futures = append(futures, s.pool.Submit(func() ([]byte, error) {
			metrics.SerializerBatchInflight.Inc()
			defer metrics.SerializerBatchInflight.Dec()
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			return s.Serialize(value, format, nil, "")
		}))
	}
	if err := conc.AwaitAll(futures...); err != nil {
		log.Ctx(ctx).Warn("batch serialization failed",
			log.FieldFormat(format), zap.Int("size", len(values)), zap.Error(err))
		return nil, err
	}
	return lo.Map(futures, func(f *conc.Future[[]byte], _ int) []byte {
		return f.Value()
	}), nil
}

// DeserializeBatch 与 SerializeBatch 对称，所有输入按同一类型解码。
func (s *Serializer) DeserializeBatch(ctx context.Context, raws [][]byte, typ, format string) ([]any, error) {
	ctx, span := log.NewIntentContext(ctx, "serializer", "deserialize_batch")
	defer span.End()

	pool, err := conc.NewPool[any](s.pool.Cap(), batchPoolOptions(s.cfg)...)
	if err != nil {
		return nil, err
	}
	defer pool.Release()

	futures := make([]*conc.Future[any], 0, len(raws))
	for _, raw := range raws {
		futures = append(futures, pool.Submit(func() (any, error) {
			metrics.SerializerBatchInflight.Inc()
			defer metrics.SerializerBatchInflight.Dec()
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			return s.Deserialize(raw, typ, format, nil)
		}))
	}
	if err := conc.AwaitAll(futures...); err != nil {
		log.Ctx(ctx).Warn("batch deserialization failed",
			log.FieldFormat(format), log.FieldType(typ), zap.Int("size", len(raws)), zap.Error(err))
		return nil, err
	}
	return lo.Map(futures, func(f *conc.Future[any], _ int) any {
		return f.Value()
	}), nil
}
