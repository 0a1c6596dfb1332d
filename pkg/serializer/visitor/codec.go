package visitor

import (
	"bytes"
	"fmt"
	"math"
	"reflect"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/goccy/go-yaml"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/lk2023060901/graph-serializer/internal/json"
	"github.com/lk2023060901/graph-serializer/pkg/util/merr"
)

// 内置格式名。
const (
	FormatJSON     = "json"
	FormatYAML     = "yaml"
	FormatProtobuf = "protobuf"
)

// Codec 负责中间树与字节之间的转换。
type Codec interface {
	Format() string
	// Encode 将树编码为字节，*Object 的键顺序被保留。
	Encode(root any) ([]byte, error)
	// Decode 将字节解码为 map[string]any、[]any 与标量组成的树。
	Decode(raw []byte) (any, error)
}

var (
	_ Codec = (*JSONCodec)(nil)
	_ Codec = YAMLCodec{}
	_ Codec = ProtoCodec{}
)

// JSONCodec 基于 internal/json 引擎。
type JSONCodec struct {
	api json.API
}

func NewJSONCodec(api json.API) *JSONCodec {
	if api == nil {
		api, _ = json.Engine("")
	}
	return &JSONCodec{api: api}
}

func (c *JSONCodec) Format() string { return FormatJSON }

func (c *JSONCodec) Encode(root any) ([]byte, error) {
	var buf bytes.Buffer
	if err := c.write(&buf, root); err != nil {
		return nil, merr.WrapErrEncodeFailed(FormatJSON, err)
	}
	return buf.Bytes(), nil
}

func (c *JSONCodec) write(buf *bytes.Buffer, v any) error {
	switch value := v.(type) {
	case nil:
		buf.WriteString("null")
	case *Object:
		buf.WriteByte('{')
		var err error
		i := 0
		value.Range(func(key string, item any) bool {
			if i > 0 {
				buf.WriteByte(',')
			}
			i++
			if err = c.writeKey(buf, key); err != nil {
				return false
			}
			err = c.write(buf, item)
			return err == nil
		})
		if err != nil {
			return err
		}
		buf.WriteByte('}')
	case []any:
		buf.WriteByte('[')
		for i, item := range value {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := c.write(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case map[string]any:
		rv := reflect.ValueOf(value)
		buf.WriteByte('{')
		for i, k := range sortedKeys(rv) {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := c.writeKey(buf, k.String()); err != nil {
				return err
			}
			if err := c.write(buf, value[k.String()]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	case float64:
		if math.IsNaN(value) || math.IsInf(value, 0) {
			return errors.Newf("unsupported float value %v", value)
		}
		return c.writeScalar(buf, value)
	default:
		return c.writeScalar(buf, value)
	}
	return nil
}

func (c *JSONCodec) writeKey(buf *bytes.Buffer, key string) error {
	if err := c.writeScalar(buf, key); err != nil {
		return err
	}
	buf.WriteByte(':')
	return nil
}

func (c *JSONCodec) writeScalar(buf *bytes.Buffer, v any) error {
	out, err := c.api.Marshal(v)
	if err != nil {
		return err
	}
	buf.Write(out)
	return nil
}

func (c *JSONCodec) Decode(raw []byte) (any, error) {
	var out any
	if err := c.api.Unmarshal(raw, &out); err != nil {
		return nil, merr.WrapErrDecodeFailed(FormatJSON, err)
	}
	return normalize(out), nil
}

// YAMLCodec 基于 goccy/go-yaml，*Object 编码为有序的 MapSlice。
type YAMLCodec struct{}

func (YAMLCodec) Format() string { return FormatYAML }

func (YAMLCodec) Encode(root any) ([]byte, error) {
	out, err := yaml.Marshal(toMapSlice(root))
	if err != nil {
		return nil, merr.WrapErrEncodeFailed(FormatYAML, err)
	}
	return out, nil
}

func toMapSlice(v any) any {
	switch value := v.(type) {
	case *Object:
		ms := make(yaml.MapSlice, 0, value.Len())
		value.Range(func(key string, item any) bool {
			ms = append(ms, yaml.MapItem{Key: key, Value: toMapSlice(item)})
			return true
		})
		return ms
	case []any:
		out := make([]any, len(value))
		for i, item := range value {
			out[i] = toMapSlice(item)
		}
		return out
	case map[string]any:
		ms := make(yaml.MapSlice, 0, len(value))
		for _, k := range sortedKeys(reflect.ValueOf(value)) {
			ms = append(ms, yaml.MapItem{Key: k.String(), Value: toMapSlice(value[k.String()])})
		}
		return ms
	default:
		return v
	}
}

func (YAMLCodec) Decode(raw []byte) (any, error) {
	var out any
	if err := yaml.Unmarshal(raw, &out); err != nil {
		return nil, merr.WrapErrDecodeFailed(FormatYAML, err)
	}
	return normalize(out), nil
}

// ProtoCodec 将树编码为 google.protobuf.Value，映射键按确定性顺序输出。
// 数字统一以 double 传输。
type ProtoCodec struct{}

func (ProtoCodec) Format() string { return FormatProtobuf }

func (ProtoCodec) Encode(root any) ([]byte, error) {
	value, err := structpb.NewValue(Plain(root))
	if err != nil {
		return nil, merr.WrapErrEncodeFailed(FormatProtobuf, err)
	}
	out, err := proto.MarshalOptions{Deterministic: true}.Marshal(value)
	if err != nil {
		return nil, merr.WrapErrEncodeFailed(FormatProtobuf, err)
	}
	return out, nil
}

func (ProtoCodec) Decode(raw []byte) (any, error) {
	var value structpb.Value
	if err := proto.Unmarshal(raw, &value); err != nil {
		return nil, merr.WrapErrDecodeFailed(FormatProtobuf, err)
	}
	return normalize(value.AsInterface()), nil
}

// number 覆盖各 JSON 引擎的数字类型（json.Number 等）。
type number interface {
	Int64() (int64, error)
	Float64() (float64, error)
	String() string
}

// normalize 将解码结果统一为 map[string]any、[]any、string、bool、int64、float64 与 nil，
// 超过 int64 的非负整数保留为 uint64。
func normalize(v any) any {
	switch value := v.(type) {
	case map[string]any:
		for k, item := range value {
			value[k] = normalize(item)
		}
		return value
	case map[any]any:
		out := make(map[string]any, len(value))
		for k, item := range value {
			out[toKey(k)] = normalize(item)
		}
		return out
	case yaml.MapSlice:
		out := make(map[string]any, len(value))
		for _, item := range value {
			out[toKey(item.Key)] = normalize(item.Value)
		}
		return out
	case []any:
		for i, item := range value {
			value[i] = normalize(item)
		}
		return value
	case number:
		if i, err := value.Int64(); err == nil {
			return i
		}
		if u, err := strconv.ParseUint(value.String(), 10, 64); err == nil {
			return u
		}
		if f, err := value.Float64(); err == nil {
			return f
		}
		return value.String()
	case uint64:
		if value <= math.MaxInt64 {
			return int64(value)
		}
		return value
	case int:
		return int64(value)
	case float64:
		if value == math.Trunc(value) && math.Abs(value) < 1<<53 {
			return int64(value)
		}
		return value
	default:
		return v
	}
}

func toKey(k any) string {
	switch key := k.(type) {
	case string:
		return key
	case nil:
		return "null"
	default:
		return fmt.Sprint(k)
	}
}
