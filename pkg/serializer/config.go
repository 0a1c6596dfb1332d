package serializer

import (
	"time"

	"github.com/lk2023060901/graph-serializer/internal/json"
	"github.com/lk2023060901/graph-serializer/pkg/log"
	"github.com/lk2023060901/graph-serializer/pkg/serializer/graph"
	"github.com/lk2023060901/graph-serializer/pkg/serializer/visitor"
	"github.com/lk2023060901/graph-serializer/pkg/util/viper"
)

// EnvPrefix 为配置项的环境变量前缀，例如 GRAPHSER_MAX_DEPTH。
const EnvPrefix = "GRAPHSER"

// Config 为 Serializer 的配置，可由 yaml/json 文件加载。
type Config struct {
	// DefaultFormat 为调用方未指定格式时使用的格式。
	DefaultFormat string `json:"default_format" mapstructure:"default_format"`
	// SerializeNull 为 true 时对象中的空值属性也会输出。
	SerializeNull bool `json:"serialize_null" mapstructure:"serialize_null"`
	MaxDepth      int  `json:"max_depth" mapstructure:"max_depth"`
	// Groups 非空时只输出属于这些分组的属性。
	Groups []string `json:"groups" mapstructure:"groups"`
	// Version 非空时按 since/until 过滤属性。
	Version string `json:"version" mapstructure:"version"`
	// DateLayout 为 DateTime 处理器的默认时间格式。
	DateLayout string `json:"date_layout" mapstructure:"date_layout"`

	JSON        JSONConfig        `json:"json" mapstructure:"json"`
	Compression CompressionConfig `json:"compression" mapstructure:"compression"`
	Batch       BatchConfig       `json:"batch" mapstructure:"batch"`
	Log         log.Config        `json:"log" mapstructure:"log"`
}

type JSONConfig struct {
	// Engine 可选 sonic 或 jsoniter。
	Engine string `json:"engine" mapstructure:"engine"`
}

// CompressionConfig 控制编码结果的 zstd 压缩。
type CompressionConfig struct {
	Enabled bool `json:"enabled" mapstructure:"enabled"`
	// MinSize 为触发压缩的最小字节数，更小的结果原样输出。
	MinSize int `json:"min_size" mapstructure:"min_size"`
}

type BatchConfig struct {
	// Workers 为批量调用的协程数，<= 0 时使用 CPU 核数。
	Workers int `json:"workers" mapstructure:"workers"`
	// NonBlocking 为 true 时协程池满立即失败（ErrPoolExhausted），否则排队等待。
	NonBlocking bool `json:"non_blocking" mapstructure:"non_blocking"`
	// IdleTimeout 为空闲协程的回收间隔，0 表示使用 ants 默认值。
	IdleTimeout time.Duration `json:"idle_timeout" mapstructure:"idle_timeout"`
}

// DefaultConfig 返回缺省配置。
func DefaultConfig() *Config {
	return &Config{
		DefaultFormat: visitor.FormatJSON,
		MaxDepth:      graph.DefaultMaxDepth,
		DateLayout:    time.RFC3339,
		JSON:          JSONConfig{Engine: json.EngineSonic},
		Compression:   CompressionConfig{MinSize: 1024},
		Log: log.Config{
			Level:  "info",
			Format: log.FormatConsole,
			Stdout: true,
		},
	}
}

// defaults 与 DefaultConfig 保持一致，只有出现在这里的 key 才能被环境变量覆盖。
func defaults() map[string]any {
	cfg := DefaultConfig()
	return map[string]any{
		"default_format":       cfg.DefaultFormat,
		"serialize_null":       cfg.SerializeNull,
		"max_depth":            cfg.MaxDepth,
		"groups":               []string{},
		"version":              cfg.Version,
		"date_layout":          cfg.DateLayout,
		"json.engine":          cfg.JSON.Engine,
		"compression.enabled":  cfg.Compression.Enabled,
		"compression.min_size": cfg.Compression.MinSize,
		"batch.workers":        cfg.Batch.Workers,
		"batch.non_blocking":   cfg.Batch.NonBlocking,
		"batch.idle_timeout":   cfg.Batch.IdleTimeout,
		"log.level":            cfg.Log.Level,
		"log.format":           cfg.Log.Format,
		"log.stdout":           cfg.Log.Stdout,
	}
}

// LoadConfig 从文件加载配置，path 为空时只使用缺省值与环境变量。
func LoadConfig(path string) (*Config, error) {
	v := viper.New(EnvPrefix)
	v.SetDefaults(defaults())
	if path != "" {
		if err := v.LoadFile(path); err != nil {
			return nil, err
		}
	}
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
