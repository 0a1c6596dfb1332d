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
	"github.com/prometheus/client_golang/prometheus"
)

const (
	serializerMetricSubsystem = "serializer"
)

var (
	SerializerCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: graphserNamespace,
			Subsystem: serializerMetricSubsystem,
			Name:      "calls_total",
			Help:      "顶层序列化/反序列化调用次数",
		}, []string{directionLabelName, formatLabelName, statusLabelName})

	SerializerCallLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: graphserNamespace,
			Subsystem: serializerMetricSubsystem,
			Name:      "call_latency",
			Help:      "顶层调用耗时，单位毫秒",
			Buckets:   buckets,
		}, []string{directionLabelName, formatLabelName})

	SerializerPayloadSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: graphserNamespace,
			Subsystem: serializerMetricSubsystem,
			Name:      "payload_bytes",
			Help:      "编码结果或输入数据的字节数",
			Buckets:   sizeBuckets,
		}, []string{directionLabelName, formatLabelName})

	SerializerCyclesSuppressed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: graphserNamespace,
			Subsystem: serializerMetricSubsystem,
			Name:      "cycles_suppressed_total",
			Help:      "因循环引用被置空的节点数量",
		}, []string{classLabelName})

	SerializerDepthExceeded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: graphserNamespace,
			Subsystem: serializerMetricSubsystem,
			Name:      "depth_exceeded_total",
			Help:      "超过最大深度而失败的调用次数",
		}, []string{directionLabelName})

	SerializerBatchInflight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: graphserNamespace,
			Subsystem: serializerMetricSubsystem,
			Name:      "batch_inflight",
			Help:      "批量调用中正在执行的任务数",
		})
)
