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

package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// graphserNamespace 是当前项目所有 Prometheus 指标使用的命名空间。
	graphserNamespace = "graphser"

	// 以下为当前使用的通用标签名。
	directionLabelName = "direction"
	formatLabelName    = "format"
	statusLabelName    = "status"
	classLabelName     = "class"

	SuccessLabel = "success"
	FailLabel    = "fail"
)

var (
	// buckets 为调用耗时直方图的桶划分，单位为毫秒。
	// [0.05 0.1 0.2 ... 1638.4]
	buckets = prometheus.ExponentialBuckets(0.05, 2, 16)

	// sizeBuckets 为编码结果大小的桶划分，单位为字节。
	sizeBuckets = []float64{64, 256, 1024, 4096, 16384, 65536, 262144, 1048576, 4194304, 16777216} // 单位：字节

	metricRegisterer prometheus.Registerer
	registerOnce     sync.Once
)

// GetRegisterer 返回全局 Prometheus Registerer。
// 如果尚未通过 Register 显式设置，则返回 prometheus.DefaultRegisterer。
func GetRegisterer() prometheus.Registerer {
	if metricRegisterer == nil {
		return prometheus.DefaultRegisterer
	}
	return metricRegisterer
}

// Register 注册当前定义的所有指标，重复调用只生效一次。
func Register(r prometheus.Registerer) {
	registerOnce.Do(func() {
		r.MustRegister(SerializerCalls)
		r.MustRegister(SerializerCallLatency)
		r.MustRegister(SerializerPayloadSize)
		r.MustRegister(SerializerCyclesSuppressed)
		r.MustRegister(SerializerDepthExceeded)
		r.MustRegister(SerializerBatchInflight)
		metricRegisterer = r
	})
}
