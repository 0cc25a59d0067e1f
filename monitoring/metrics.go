package monitoring

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"
)

// MetricType 指标类型
type MetricType string

const (
	MetricTypeCounter   MetricType = "counter"
	MetricTypeGauge     MetricType = "gauge"
	MetricTypeHistogram MetricType = "histogram"
)

const (
	MetricPredictions       = "predictions_total"
	MetricPredictionLatency = "prediction_latency_ms"
	MetricPredictionRisk    = "prediction_probability"
	MetricCacheHits         = "prediction_cache_hits_total"
	MetricPredictionErrors  = "prediction_errors_total"
)

// maxSamples 每个指标保留的最大样本数
const maxSamples = 1000

// Metric 指标
type Metric struct {
	Name      string            `json:"name"`
	Type      MetricType        `json:"type"`
	Value     float64           `json:"value"`
	Labels    map[string]string `json:"labels,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	Help      string            `json:"help,omitempty"`
}

// MetricsCollector 指标收集器
type MetricsCollector struct {
	metrics     map[string][]*Metric
	counters    map[string]map[string]*counterTotal // 指标名 -> 标签组合 -> 累计值
	metricsLock sync.RWMutex

	startTime time.Time
}

// counterTotal 计数器累计值，不受样本窗口裁剪影响
type counterTotal struct {
	value  float64
	events int
}

// NewMetricsCollector 创建指标收集器
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		metrics:   make(map[string][]*Metric),
		counters:  make(map[string]map[string]*counterTotal),
		startTime: time.Now(),
	}
}

// RecordMetric 记录指标
func (mc *MetricsCollector) RecordMetric(metric *Metric) {
	mc.metricsLock.Lock()
	defer mc.metricsLock.Unlock()

	metric.Timestamp = time.Now()
	mc.metrics[metric.Name] = append(mc.metrics[metric.Name], metric)

	if metric.Type == MetricTypeCounter {
		byLabels, ok := mc.counters[metric.Name]
		if !ok {
			byLabels = make(map[string]*counterTotal)
			mc.counters[metric.Name] = byLabels
		}
		key := formatLabels(metric.Labels)
		total, ok := byLabels[key]
		if !ok {
			total = &counterTotal{}
			byLabels[key] = total
		}
		total.value += metric.Value
		total.events++
	}

	// 限制历史大小（保留最近的样本）
	if n := len(mc.metrics[metric.Name]); n > maxSamples {
		mc.metrics[metric.Name] = mc.metrics[metric.Name][n-maxSamples:]
	}
}

// GetMetric 获取指标
func (mc *MetricsCollector) GetMetric(name string) ([]*Metric, error) {
	mc.metricsLock.RLock()
	defer mc.metricsLock.RUnlock()

	metrics, ok := mc.metrics[name]
	if !ok {
		return nil, fmt.Errorf("metric %s not found", name)
	}

	// 返回副本
	result := make([]*Metric, len(metrics))
	for i, m := range metrics {
		metricCopy := *m
		result[i] = &metricCopy
	}
	return result, nil
}

// CounterTotal 返回计数器自启动以来的累计值（所有标签组合之和）
func (mc *MetricsCollector) CounterTotal(name string) float64 {
	mc.metricsLock.RLock()
	defer mc.metricsLock.RUnlock()

	var sum float64
	for _, total := range mc.counters[name] {
		sum += total.value
	}
	return sum
}

// counterTotals 按标签组合返回计数器累计值，键为格式化后的标签
func (mc *MetricsCollector) counterTotals(name string) map[string]float64 {
	mc.metricsLock.RLock()
	defer mc.metricsLock.RUnlock()

	totals := make(map[string]float64, len(mc.counters[name]))
	for key, total := range mc.counters[name] {
		totals[key] = total.value
	}
	return totals
}

// counterEvents 计数器累计的递增次数
func (mc *MetricsCollector) counterEvents(name string) int {
	mc.metricsLock.RLock()
	defer mc.metricsLock.RUnlock()

	events := 0
	for _, total := range mc.counters[name] {
		events += total.events
	}
	return events
}

// GetMetricSummary 获取指标摘要
// 计数器的 count/sum 取自启动以来的累计值，min/max 只覆盖保留的样本窗口
func (mc *MetricsCollector) GetMetricSummary(name string) (map[string]interface{}, error) {
	metrics, err := mc.GetMetric(name)
	if err != nil {
		return nil, err
	}

	if len(metrics) == 0 {
		return map[string]interface{}{
			"count": 0,
		}, nil
	}

	min, max, sum := metrics[0].Value, metrics[0].Value, 0.0
	for _, m := range metrics {
		sum += m.Value
		if m.Value < min {
			min = m.Value
		}
		if m.Value > max {
			max = m.Value
		}
	}

	count := len(metrics)
	if metrics[0].Type == MetricTypeCounter {
		sum, count = mc.CounterTotal(name), mc.counterEvents(name)
	}

	return map[string]interface{}{
		"name":      name,
		"type":      metrics[0].Type,
		"count":     count,
		"sum":       sum,
		"latest":    metrics[len(metrics)-1].Value,
		"min":       min,
		"max":       max,
		"average":   sum / float64(count),
		"timestamp": metrics[len(metrics)-1].Timestamp,
	}, nil
}

// Names 返回已记录的指标名（升序）
func (mc *MetricsCollector) Names() []string {
	mc.metricsLock.RLock()
	defer mc.metricsLock.RUnlock()

	names := make([]string, 0, len(mc.metrics))
	for name := range mc.metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IncrCounter 增加计数器
func (mc *MetricsCollector) IncrCounter(name string, value float64, labels map[string]string) {
	mc.RecordMetric(&Metric{
		Name:   name,
		Type:   MetricTypeCounter,
		Value:  value,
		Labels: labels,
	})
}

// SetGauge 设置仪表
func (mc *MetricsCollector) SetGauge(name string, value float64, labels map[string]string) {
	mc.RecordMetric(&Metric{
		Name:   name,
		Type:   MetricTypeGauge,
		Value:  value,
		Labels: labels,
	})
}

// RecordHistogram 记录直方图
func (mc *MetricsCollector) RecordHistogram(name string, value float64, labels map[string]string) {
	mc.RecordMetric(&Metric{
		Name:   name,
		Type:   MetricTypeHistogram,
		Value:  value,
		Labels: labels,
	})
}

// ObservePrediction 记录一次成功的预测
func (mc *MetricsCollector) ObservePrediction(latency time.Duration, probability float64, cached bool) {
	mc.IncrCounter(MetricPredictions, 1, nil)
	mc.RecordHistogram(MetricPredictionLatency, float64(latency.Microseconds())/1000, nil)
	mc.RecordHistogram(MetricPredictionRisk, probability, nil)
	if cached {
		mc.IncrCounter(MetricCacheHits, 1, nil)
	}
}

// ObserveError 按错误类别记录一次失败的预测
func (mc *MetricsCollector) ObserveError(kind string) {
	mc.IncrCounter(MetricPredictionErrors, 1, map[string]string{"kind": kind})
}

// Run 定期采集运行时指标，直到 ctx 结束
func (mc *MetricsCollector) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			mc.collectRuntimeMetrics()
		}
	}
}

// collectRuntimeMetrics 收集内存和协程指标
func (mc *MetricsCollector) collectRuntimeMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	mc.RecordMetric(&Metric{
		Name:  "memory_heap_alloc",
		Type:  MetricTypeGauge,
		Value: float64(m.HeapAlloc),
		Help:  "Memory heap allocated in bytes",
	})
	mc.RecordMetric(&Metric{
		Name:  "system_goroutines",
		Type:  MetricTypeGauge,
		Value: float64(runtime.NumGoroutine()),
		Help:  "Number of goroutines",
	})
}

// ExportPrometheus 导出Prometheus格式
func (mc *MetricsCollector) ExportPrometheus() string {
	var output strings.Builder

	for _, name := range mc.Names() {
		metricList, err := mc.GetMetric(name)
		if err != nil || len(metricList) == 0 {
			continue
		}

		metric := metricList[len(metricList)-1]
		help := metric.Help
		if help == "" {
			help = fmt.Sprintf("Metric %s", name)
		}
		fmt.Fprintf(&output, "# HELP %s %s\n", name, help)
		fmt.Fprintf(&output, "# TYPE %s %s\n", name, metric.Type)

		if metric.Type != MetricTypeCounter {
			// 输出最新值
			fmt.Fprintf(&output, "%s%s %f %d\n", name, formatLabels(metric.Labels), metric.Value, metric.Timestamp.Unix())
			continue
		}

		// 计数器输出启动以来的累计值
		totals := mc.counterTotals(name)
		keys := make([]string, 0, len(totals))
		for k := range totals {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&output, "%s%s %f %d\n", name, k, totals[k], metric.Timestamp.Unix())
		}
	}

	return output.String()
}

func formatLabels(labels map[string]string) string {
	if len(labels) == 0 {
		return ""
	}
	pairs := make([]string, 0, len(labels))
	for k, v := range labels {
		pairs = append(pairs, fmt.Sprintf(`%s="%s"`, k, v))
	}
	sort.Strings(pairs)
	return "{" + strings.Join(pairs, ",") + "}"
}

// ExportJSON 导出所有指标摘要的JSON格式
func (mc *MetricsCollector) ExportJSON() (string, error) {
	data, err := json.MarshalIndent(mc.Snapshot(), "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Snapshot 返回所有指标摘要和系统统计
func (mc *MetricsCollector) Snapshot() map[string]interface{} {
	summaries := make(map[string]interface{})
	for _, name := range mc.Names() {
		if summary, err := mc.GetMetricSummary(name); err == nil {
			summaries[name] = summary
		}
	}
	return map[string]interface{}{
		"metrics": summaries,
		"system":  mc.GetSystemStats(),
	}
}

// GetUptime 获取运行时间
func (mc *MetricsCollector) GetUptime() time.Duration {
	return time.Since(mc.startTime)
}

// GetSystemStats 获取系统统计
func (mc *MetricsCollector) GetSystemStats() map[string]interface{} {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return map[string]interface{}{
		"uptime":     mc.GetUptime().String(),
		"goroutines": runtime.NumGoroutine(),
		"memory": map[string]interface{}{
			"alloc":       m.Alloc,
			"sys":         m.Sys,
			"heap_alloc":  m.HeapAlloc,
			"heap_inuse":  m.HeapInuse,
			"gc_count":    m.NumGC,
			"gc_pause_ns": m.PauseTotalNs,
		},
		"num_cpu": runtime.NumCPU(),
	}
}
