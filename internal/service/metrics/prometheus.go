package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "pinbar_monitor"

// Recorder 扫描相关的 Prometheus 指标, 使用独立的 Registry
type Recorder struct {
	registry *prometheus.Registry

	scans         *prometheus.CounterVec
	pairErrors    *prometheus.CounterVec
	pinbars       *prometheus.CounterVec
	notifications *prometheus.CounterVec
	scanDuration  prometheus.Histogram
}

func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Recorder{
		registry: reg,
		scans: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "scans_total",
				Help:      "Scan cycles by outcome",
			},
			[]string{"outcome"},
		),
		pairErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "pair_errors_total",
				Help:      "Symbol/timeframe pairs skipped during a scan",
			},
			[]string{"kind"},
		),
		pinbars: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "pinbars_total",
				Help:      "Pinbars detected",
			},
			[]string{"symbol", "interval", "priority"},
		),
		notifications: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "notifications_total",
				Help:      "Notification sends by channel and outcome",
			},
			[]string{"channel", "outcome"},
		),
		scanDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "scan_duration_seconds",
				Help:      "Duration of a full scan cycle",
				Buckets:   prometheus.DefBuckets,
			},
		),
	}
}

func (r *Recorder) RecordScan(outcome string, d time.Duration) {
	r.scans.WithLabelValues(outcome).Inc()
	r.scanDuration.Observe(d.Seconds())
}

func (r *Recorder) RecordPairError(kind string) {
	r.pairErrors.WithLabelValues(kind).Inc()
}

func (r *Recorder) RecordPinbar(symbol, interval string, priority bool) {
	r.pinbars.WithLabelValues(symbol, interval, strconv.FormatBool(priority)).Inc()
}

func (r *Recorder) RecordNotification(channel string, ok bool) {
	outcome := "success"
	if !ok {
		outcome = "failure"
	}
	r.notifications.WithLabelValues(channel, outcome).Inc()
}

func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
