/*
 * @module service/monitoring/metrics_collector
 * @description 指标收集器，收集链接流水线运行指标并注册到prometheus默认注册表
 * @architecture 分层架构 - 监控服务层
 * @documentReference ai_docs/record_linkage_design.md
 * @stateFlow 指标定义 -> 流水线执行回调 -> /metrics 暴露
 * @rules 指标注册发生在进程启动时，收集路径无锁
 * @dependencies github.com/prometheus/client_golang
 * @refs main.go, service/linkage/linkage_service.go
 */

package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsCollector 链接流水线指标收集器
type MetricsCollector struct {
	runsTotal      *prometheus.CounterVec
	runDuration    prometheus.Histogram
	candidatePairs prometheus.Histogram
	matchedPairs   prometheus.Histogram
}

// NewMetricsCollector 创建指标收集器并注册指标
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		runsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "linkage_runs_total",
			Help: "链接流水线运行总数（按状态）",
		}, []string{"status"}),
		runDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "linkage_run_duration_seconds",
			Help:    "链接流水线运行时长",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
		}),
		candidatePairs: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "linkage_candidate_pairs",
			Help:    "每次运行生成的候选对数",
			Buckets: prometheus.ExponentialBuckets(1, 10, 8),
		}),
		matchedPairs: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "linkage_matched_pairs",
			Help:    "每次运行判定的匹配对数",
			Buckets: prometheus.ExponentialBuckets(1, 10, 8),
		}),
	}
}

// ObserveRun 记录一次流水线运行
func (mc *MetricsCollector) ObserveRun(status string, start time.Time,
	candidatePairs, matchedPairs int64) {

	mc.runsTotal.WithLabelValues(status).Inc()
	mc.runDuration.Observe(time.Since(start).Seconds())
	if status == "success" {
		mc.candidatePairs.Observe(float64(candidatePairs))
		mc.matchedPairs.Observe(float64(matchedPairs))
	}
}
