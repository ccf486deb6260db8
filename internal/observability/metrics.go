package observability

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Metrics collects the service's operational counters and exposes them
// in Prometheus text format on /metrics. All methods are safe on a nil
// receiver so metric recording never needs to be conditional.
type Metrics struct {
	jobsTotal    *CounterVec
	jobDuration  *HistogramVec
	monitorScans *Counter
	unclaimed    *Gauge
	queueDepth   *Gauge

	messagesDecoded *Counter
	modelsPersisted *CounterVec

	archiveScheduled   *Counter
	highlightConflicts *Counter
}

func NewMetrics() *Metrics {
	return &Metrics{
		jobsTotal: NewCounterVec("persistsvc_jobs_total",
			"Persist jobs processed by outcome.", []string{"outcome"}),
		jobDuration: NewHistogramVec("persistsvc_job_duration_seconds",
			"Wall time per persist job by outcome.", []string{"outcome"},
			[]float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60}),
		monitorScans: NewCounter("persistsvc_monitor_scans_total",
			"Unclaimed-job table scans performed by the monitor."),
		unclaimed: NewGauge("persistsvc_unclaimed_jobs",
			"Unclaimed persist jobs seen on the last scan."),
		queueDepth: NewGauge("persistsvc_queue_depth",
			"Job ids waiting in the worker queue."),
		messagesDecoded: NewCounter("persistsvc_messages_decoded_total",
			"Chat wire messages decoded across all jobs."),
		modelsPersisted: NewCounterVec("persistsvc_models_persisted_total",
			"Rows committed by model kind.", []string{"model"}),
		archiveScheduled: NewCounter("persistsvc_archive_jobs_scheduled_total",
			"Archive follow-up jobs scheduled."),
		highlightConflicts: NewCounter("persistsvc_highlight_conflicts_total",
			"Highlight transactions rolled back on a bookmark conflict."),
	}
}

// Job outcomes as recorded on persistsvc_jobs_total.
const (
	JobOutcomeSucceeded = "succeeded"
	JobOutcomeFailed    = "failed"
	JobOutcomeDuplicate = "duplicate"
)

func (m *Metrics) RecordJob(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.jobsTotal.Inc(outcome)
	m.jobDuration.Observe(d.Seconds(), outcome)
}

func (m *Metrics) RecordScan(unclaimed int) {
	if m == nil {
		return
	}
	m.monitorScans.Inc()
	m.unclaimed.Set(float64(unclaimed))
}

func (m *Metrics) SetQueueDepth(n int) {
	if m == nil {
		return
	}
	m.queueDepth.Set(float64(n))
}

func (m *Metrics) RecordMessagesDecoded(n int) {
	if m == nil {
		return
	}
	m.messagesDecoded.Add(float64(n))
}

func (m *Metrics) RecordModelsPersisted(minutes, markers, tags int) {
	if m == nil {
		return
	}
	m.modelsPersisted.Add(float64(minutes), "chat_minute")
	m.modelsPersisted.Add(float64(markers), "chat_speaking_marker")
	m.modelsPersisted.Add(float64(tags), "chat_tag")
}

func (m *Metrics) RecordArchiveScheduled() {
	if m == nil {
		return
	}
	m.archiveScheduled.Inc()
}

func (m *Metrics) RecordHighlightConflict() {
	if m == nil {
		return
	}
	m.highlightConflicts.Inc()
}

// Handler serves the Prometheus exposition.
func (m *Metrics) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		_ = m.WritePrometheus(w)
	})
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	collectors := []interface{ WritePrometheus(io.Writer) error }{
		m.jobsTotal,
		m.jobDuration,
		m.monitorScans,
		m.unclaimed,
		m.queueDepth,
		m.messagesDecoded,
		m.modelsPersisted,
		m.archiveScheduled,
		m.highlightConflicts,
	}
	for _, c := range collectors {
		if err := c.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

// ---- lightweight metric primitives (Prometheus exposition) ----

type CounterVec struct {
	name       string
	help       string
	labelNames []string
	mu         sync.RWMutex
	values     map[string]float64
}

func NewCounterVec(name, help string, labels []string) *CounterVec {
	return &CounterVec{name: name, help: help, labelNames: labels, values: map[string]float64{}}
}

func (c *CounterVec) Inc(values ...string) {
	if c == nil {
		return
	}
	lbl := labelString(c.labelNames, values)
	c.mu.Lock()
	c.values[lbl]++
	c.mu.Unlock()
}

func (c *CounterVec) Add(v float64, values ...string) {
	if c == nil {
		return
	}
	lbl := labelString(c.labelNames, values)
	c.mu.Lock()
	c.values[lbl] += v
	c.mu.Unlock()
}

func (c *CounterVec) WritePrometheus(w io.Writer) error {
	if c == nil {
		return nil
	}
	if _, err := fmt.Fprintf(w, "# HELP %s %s\n", c.name, c.help); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "# TYPE %s counter\n", c.name); err != nil {
		return err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	for k, v := range c.values {
		if _, err := fmt.Fprintf(w, "%s%s %f\n", c.name, k, v); err != nil {
			return err
		}
	}
	return nil
}

type Counter struct {
	name string
	help string
	mu   sync.RWMutex
	val  float64
}

func NewCounter(name, help string) *Counter {
	return &Counter{name: name, help: help}
}

func (c *Counter) Inc() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.val++
	c.mu.Unlock()
}

func (c *Counter) Add(v float64) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.val += v
	c.mu.Unlock()
}

func (c *Counter) Value() float64 {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.val
}

func (c *Counter) WritePrometheus(w io.Writer) error {
	if c == nil {
		return nil
	}
	if _, err := fmt.Fprintf(w, "# HELP %s %s\n", c.name, c.help); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "# TYPE %s counter\n", c.name); err != nil {
		return err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, err := fmt.Fprintf(w, "%s %f\n", c.name, c.val)
	return err
}

type Gauge struct {
	name string
	help string
	mu   sync.RWMutex
	val  float64
}

func NewGauge(name, help string) *Gauge {
	return &Gauge{name: name, help: help}
}

func (g *Gauge) Set(v float64) {
	if g == nil {
		return
	}
	g.mu.Lock()
	g.val = v
	g.mu.Unlock()
}

func (g *Gauge) Inc() {
	if g == nil {
		return
	}
	g.mu.Lock()
	g.val++
	g.mu.Unlock()
}

func (g *Gauge) Dec() {
	if g == nil {
		return
	}
	g.mu.Lock()
	g.val--
	g.mu.Unlock()
}

func (g *Gauge) WritePrometheus(w io.Writer) error {
	if g == nil {
		return nil
	}
	if _, err := fmt.Fprintf(w, "# HELP %s %s\n", g.name, g.help); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "# TYPE %s gauge\n", g.name); err != nil {
		return err
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, err := fmt.Fprintf(w, "%s %f\n", g.name, g.val)
	return err
}

type HistogramVec struct {
	name       string
	help       string
	labelNames []string
	buckets    []float64
	mu         sync.RWMutex
	values     map[string]*histogram
}

type histogram struct {
	buckets []float64
	counts  []uint64
	sum     float64
	total   uint64
}

func NewHistogramVec(name, help string, labels []string, buckets []float64) *HistogramVec {
	if len(buckets) == 0 {
		buckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5}
	}
	return &HistogramVec{name: name, help: help, labelNames: labels, buckets: buckets, values: map[string]*histogram{}}
}

func (h *HistogramVec) Observe(v float64, values ...string) {
	if h == nil {
		return
	}
	lbl := labelString(h.labelNames, values)
	h.mu.Lock()
	defer h.mu.Unlock()
	hist, ok := h.values[lbl]
	if !ok {
		hist = &histogram{
			buckets: h.buckets,
			counts:  make([]uint64, len(h.buckets)+1),
		}
		h.values[lbl] = hist
	}
	hist.sum += v
	hist.total++
	for i, b := range hist.buckets {
		if v <= b {
			hist.counts[i]++
		}
	}
	hist.counts[len(hist.counts)-1]++
}

func (h *HistogramVec) WritePrometheus(w io.Writer) error {
	if h == nil {
		return nil
	}
	if _, err := fmt.Fprintf(w, "# HELP %s %s\n", h.name, h.help); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "# TYPE %s histogram\n", h.name); err != nil {
		return err
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for k, v := range h.values {
		for i, b := range v.buckets {
			if _, err := fmt.Fprintf(w, "%s_bucket%s %d\n", h.name, withLe(k, fmt.Sprintf("%g", b)), v.counts[i]); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "%s_bucket%s %d\n", h.name, withLe(k, "+Inf"), v.counts[len(v.counts)-1]); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%s_sum%s %f\n", h.name, k, v.sum); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%s_count%s %d\n", h.name, k, v.total); err != nil {
			return err
		}
	}
	return nil
}

func labelString(names []string, values []string) string {
	if len(names) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("{")
	for i, name := range names {
		if i > 0 {
			b.WriteString(",")
		}
		val := "unknown"
		if i < len(values) {
			val = values[i]
		}
		b.WriteString(name)
		b.WriteString("=\"")
		b.WriteString(escapeLabel(val))
		b.WriteString("\"")
	}
	b.WriteString("}")
	return b.String()
}

func escapeLabel(v string) string {
	if v == "" {
		return ""
	}
	v = strings.ReplaceAll(v, "\\", "\\\\")
	v = strings.ReplaceAll(v, "\"", "\\\"")
	v = strings.ReplaceAll(v, "\n", "\\n")
	return v
}

func withLe(labels string, le string) string {
	le = escapeLabel(le)
	if labels == "" || labels == "{}" {
		return "{le=\"" + le + "\"}"
	}
	if strings.HasSuffix(labels, "}") {
		return strings.TrimSuffix(labels, "}") + ",le=\"" + le + "\"}"
	}
	return "{le=\"" + le + "\"}"
}
