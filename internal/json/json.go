// Package json 封装项目使用的 JSON 引擎，默认基于 bytedance/sonic，
// 也可切换为 json-iterator。
package json

import (
	"strings"

	"github.com/bytedance/sonic"
	jsoniter "github.com/json-iterator/go"

	"github.com/lk2023060901/graph-serializer/pkg/util/merr"
)

const (
	EngineSonic    = "sonic"
	EngineJsoniter = "jsoniter"
)

// API 是 JSON 引擎需要提供的最小能力。
type API interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

var (
	// sonicAPI 解码时保留数字原文（json.Number），避免整数被转换为 float64。
	sonicAPI = sonic.Config{
		UseNumber:        true,
		EscapeHTML:       false,
		CompactMarshaler: true,
		ValidateString:   true,
	}.Froze()

	jsoniterAPI = jsoniter.Config{
		UseNumber:              true,
		EscapeHTML:             false,
		SortMapKeys:            true,
		ValidateJsonRawMessage: true,
	}.Froze()

	defaultAPI API = sonicAPI
)

// Engine 按名字返回 JSON 引擎，名字为空时返回默认引擎。
func Engine(name string) (API, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", EngineSonic:
		return sonicAPI, nil
	case EngineJsoniter:
		return jsoniterAPI, nil
	default:
		return nil, merr.WrapErrConfiguration("unknown json engine " + name)
	}
}

func Marshal(v any) ([]byte, error) {
	return defaultAPI.Marshal(v)
}

func Unmarshal(data []byte, v any) error {
	return defaultAPI.Unmarshal(data, v)
}
