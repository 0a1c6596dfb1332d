package handler

import (
	"time"

	"github.com/spf13/cast"

	"github.com/lk2023060901/graph-serializer/pkg/serializer/graph"
	"github.com/lk2023060901/graph-serializer/pkg/serializer/types"
	"github.com/lk2023060901/graph-serializer/pkg/util/merr"
)

// DateTime 处理 DateTime 与 DateTime<'layout'[, 'zone']> 类型。
// layout 为 Go 时间格式，未给出时使用 DefaultLayout。
type DateTime struct {
	DefaultLayout string
}

func NewDateTime(defaultLayout string) *DateTime {
	if defaultLayout == "" {
		defaultLayout = time.RFC3339
	}
	return &DateTime{DefaultLayout: defaultLayout}
}

// Register 将两个方向的处理器注册到所有格式。
func (h *DateTime) Register(r *Registry) {
	r.RegisterAll(graph.Serialization, types.DateTimeName, h.Serialize)
	r.RegisterAll(graph.Deserialization, types.DateTimeName, h.Deserialize)
}

func (h *DateTime) layout(t *types.TypeDefinition) string {
	if layout, ok := t.LiteralParam(0); ok && layout != "" {
		return layout
	}
	return h.DefaultLayout
}

func (h *DateTime) location(t *types.TypeDefinition) (*time.Location, error) {
	zone, ok := t.LiteralParam(1)
	if !ok || zone == "" {
		return nil, nil
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, merr.WrapErrConfiguration("unknown time zone " + zone)
	}
	return loc, nil
}

func (h *DateTime) Serialize(v graph.Visitor, data any, t *types.TypeDefinition, ctx *graph.Context) (any, error) {
	sv, ok := v.(graph.SerializationVisitor)
	if !ok {
		return nil, merr.WrapErrConfiguration("DateTime handler requires a serialization visitor")
	}
	var ts time.Time
	switch value := data.(type) {
	case time.Time:
		ts = value
	case *time.Time:
		if value == nil {
			return sv.SerializeNull(types.New(types.NullName), ctx)
		}
		ts = *value
	default:
		return nil, merr.WrapErrInvalidInput(types.DateTimeName, ctx.Path(), "time.Time", data)
	}
	loc, err := h.location(t)
	if err != nil {
		return nil, err
	}
	if loc != nil {
		ts = ts.In(loc)
	}
	return sv.SerializeString(ts.Format(h.layout(t)), types.New(types.StringName), ctx)
}

// Deserialize 接受按 layout 格式化的字符串，也接受 Unix 秒数。
func (h *DateTime) Deserialize(_ graph.Visitor, data any, t *types.TypeDefinition, ctx *graph.Context) (any, error) {
	loc, err := h.location(t)
	if err != nil {
		return nil, err
	}
	if loc == nil {
		loc = time.UTC
	}
	switch value := data.(type) {
	case string:
		ts, err := time.ParseInLocation(h.layout(t), value, loc)
		if err != nil {
			return nil, merr.WrapErrInvalidInput(types.DateTimeName, ctx.Path(), h.layout(t), data)
		}
		return ts, nil
	case time.Time:
		return value, nil
	default:
		secs, err := cast.ToInt64E(data)
		if err != nil {
			return nil, merr.WrapErrInvalidInput(types.DateTimeName, ctx.Path(), "string", data)
		}
		return time.Unix(secs, 0).In(loc), nil
	}
}
