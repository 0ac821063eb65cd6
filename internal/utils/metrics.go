// internal/utils/metrics.go
package utils

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// MetricsCollector collects in-process counters, gauges and histograms.
type MetricsCollector struct {
	counters   map[string]*int64
	gauges     map[string]*int64
	histograms map[string]*Histogram

	mu sync.RWMutex
}

// Histogram tracks count, sum, min and max of observed values.
type Histogram struct {
	count int64
	sum   int64
	min   int64
	max   int64
	mu    sync.Mutex
}

var (
	globalMetrics *MetricsCollector
	metricsOnce   sync.Once
)

// NewMetricsCollector creates an empty collector.
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		counters:   make(map[string]*int64),
		gauges:     make(map[string]*int64),
		histograms: make(map[string]*Histogram),
	}
}

// GetMetricsCollector returns the global metrics collector
func GetMetricsCollector() *MetricsCollector {
	metricsOnce.Do(func() {
		globalMetrics = NewMetricsCollector()
	})
	return globalMetrics
}

// slot returns the value cell for name, creating it on first use.
func (m *MetricsCollector) slot(set map[string]*int64, name string) *int64 {
	m.mu.RLock()
	v, ok := set[name]
	m.mu.RUnlock()
	if ok {
		return v
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok = set[name]; !ok {
		v = new(int64)
		set[name] = v
	}
	return v
}

// IncrementCounter increments a counter by one.
func (m *MetricsCollector) IncrementCounter(name string) {
	atomic.AddInt64(m.slot(m.counters, name), 1)
}

// AddCounter adds value to a counter.
func (m *MetricsCollector) AddCounter(name string, value int64) {
	atomic.AddInt64(m.slot(m.counters, name), value)
}

// GetCounterValue returns the current value of a counter.
func (m *MetricsCollector) GetCounterValue(name string) int64 {
	m.mu.RLock()
	v, ok := m.counters[name]
	m.mu.RUnlock()
	if !ok {
		return 0
	}
	return atomic.LoadInt64(v)
}

// SetGauge sets a gauge.
func (m *MetricsCollector) SetGauge(name string, value int64) {
	atomic.StoreInt64(m.slot(m.gauges, name), value)
}

// IncGauge increments a gauge.
func (m *MetricsCollector) IncGauge(name string) {
	atomic.AddInt64(m.slot(m.gauges, name), 1)
}

// DecGauge decrements a gauge.
func (m *MetricsCollector) DecGauge(name string) {
	atomic.AddInt64(m.slot(m.gauges, name), -1)
}

// GetGauge returns the current value of a gauge.
func (m *MetricsCollector) GetGauge(name string) int64 {
	m.mu.RLock()
	v, ok := m.gauges[name]
	m.mu.RUnlock()
	if !ok {
		return 0
	}
	return atomic.LoadInt64(v)
}

// RecordHistogram records a value in a histogram
func (m *MetricsCollector) RecordHistogram(name string, value int64) {
	m.mu.RLock()
	h, ok := m.histograms[name]
	m.mu.RUnlock()

	if !ok {
		m.mu.Lock()
		if h, ok = m.histograms[name]; !ok {
			h = &Histogram{min: value, max: value}
			m.histograms[name] = h
		}
		m.mu.Unlock()
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.count++
	h.sum += value
	if value < h.min {
		h.min = value
	}
	if value > h.max {
		h.max = value
	}
}

// GetMetrics returns a snapshot of all metrics
func (m *MetricsCollector) GetMetrics() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	counters := make(map[string]int64, len(m.counters))
	for name, v := range m.counters {
		counters[name] = atomic.LoadInt64(v)
	}

	gauges := make(map[string]int64, len(m.gauges))
	for name, v := range m.gauges {
		gauges[name] = atomic.LoadInt64(v)
	}

	histograms := make(map[string]map[string]int64, len(m.histograms))
	for name, h := range m.histograms {
		h.mu.Lock()
		histograms[name] = map[string]int64{
			"count": h.count,
			"sum":   h.sum,
			"min":   h.min,
			"max":   h.max,
		}
		h.mu.Unlock()
	}

	return map[string]interface{}{
		"counters":   counters,
		"gauges":     gauges,
		"histograms": histograms,
	}
}

// AppMetrics records request and pipeline metrics.
type AppMetrics struct {
	metrics *MetricsCollector
	logger  *Logger
}

// NewAppMetrics creates an AppMetrics bound to the global collector and logger.
func NewAppMetrics() *AppMetrics {
	return NewAppMetricsWith(GetMetricsCollector(), GetLogger())
}

// NewAppMetricsWith creates an AppMetrics with explicit sinks.
func NewAppMetricsWith(metrics *MetricsCollector, logger *Logger) *AppMetrics {
	return &AppMetrics{metrics: metrics, logger: logger}
}

// Collector exposes the underlying collector.
func (am *AppMetrics) Collector() *MetricsCollector {
	return am.metrics
}

// RecordAPIRequest records metrics for an API request
func (am *AppMetrics) RecordAPIRequest(route, method string, statusCode int, duration time.Duration) {
	am.metrics.IncrementCounter("api_requests_total")
	am.metrics.IncrementCounter("api_requests_" + method + "_" + route)
	am.metrics.IncrementCounter(fmt.Sprintf("api_responses_%dxx", statusCode/100))
	am.metrics.RecordHistogram("api_response_time_ms", duration.Milliseconds())

	am.logger.Debug("API request completed", map[string]interface{}{
		"route":    route,
		"method":   method,
		"status":   statusCode,
		"duration": duration.Milliseconds(),
	})
}

// RecordStage records how long a pipeline stage took.
func (am *AppMetrics) RecordStage(pipeline, stage string, duration time.Duration) {
	am.metrics.IncrementCounter("pipeline_" + pipeline + "_" + stage + "_total")
	am.metrics.RecordHistogram("pipeline_"+pipeline+"_"+stage+"_ms", duration.Milliseconds())
}

// RecordMockResponse counts a canned response served without collaborators.
func (am *AppMetrics) RecordMockResponse(pipeline string) {
	am.metrics.IncrementCounter("mock_responses_total")
	am.metrics.IncrementCounter("mock_responses_" + pipeline)
}

// RecordFailure counts a failed pipeline run by error type.
func (am *AppMetrics) RecordFailure(pipeline, errorType string) {
	if errorType == "" {
		errorType = "unknown"
	}
	am.metrics.IncrementCounter("failures_total")
	am.metrics.IncrementCounter("failures_" + pipeline + "_" + errorType)

	am.logger.Warn("Pipeline failure recorded", map[string]interface{}{
		"pipeline": pipeline,
		"type":     errorType,
	})
}

// StartMetricsCollection logs a metrics summary every interval until ctx is done.
func (am *AppMetrics) StartMetricsCollection(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				am.logger.Info("Periodic metrics report", map[string]interface{}{
					"metrics": am.metrics.GetMetrics(),
				})
			}
		}
	}()
}
