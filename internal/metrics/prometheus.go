package metrics

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"
)

// PrometheusHandler returns an http.HandlerFunc that writes metrics in
// Prometheus text exposition format (version 0.0.4). It does not require the
// Prometheus client library; metrics are formatted manually.
func PrometheusHandler(collector *Collector) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats := collector.Stats()
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

		// Uptime in seconds.
		uptimeSeconds := time.Since(collector.startTime).Seconds()

		writeMetric(w, "tiercache_l0_hits_total", "Total L0 in-process cache hits.", "counter", stats.L0Hits)
		writeMetric(w, "tiercache_l0_misses_total", "Total L0 misses.", "counter", stats.L0Misses)
		writeMetric(w, "tiercache_l0_expired_total", "Total L0 lookups that found an expired entry.", "counter", stats.L0Expired)

		writeMetric(w, "tiercache_l1_hits_total", "Total L1 key-value store hits.", "counter", stats.L1Hits)
		writeMetric(w, "tiercache_l1_misses_total", "Total L1 misses.", "counter", stats.L1Misses)
		writeMetric(w, "tiercache_l1_expired_total", "Total L1 lookups that found an expired record.", "counter", stats.L1Expired)

		writeMetric(w, "tiercache_l2_hits_total", "Total L2 blob store hits.", "counter", stats.L2Hits)
		writeMetric(w, "tiercache_l2_misses_total", "Total L2 misses.", "counter", stats.L2Misses)

		writeMetric(w, "tiercache_origin_fetches_total", "Total origin fetches attempted.", "counter", stats.OriginFetches)
		writeMetric(w, "tiercache_origin_errors_total", "Total origin fetches that failed.", "counter", stats.OriginErrors)
		writeMetric(w, "tiercache_stale_fallbacks_total", "Total reads served from a stale entry after an origin failure.", "counter", stats.StaleFallbacks)
		writeMetric(w, "tiercache_single_flight_joins_total", "Total reads that joined an in-flight origin fetch instead of starting a new one.", "counter", stats.SingleFlightHit)
		writeMetric(w, "tiercache_evictions_total", "Total L0 LRU evictions.", "counter", stats.Evictions)

		writeMetricFloat(w, "tiercache_l0_hit_rate", "L0 hit rate percentage.", "gauge", stats.L0HitRate)
		writeMetric(w, "tiercache_active_requests", "Number of Get calls currently in flight.", "gauge", stats.ActiveRequests)
		writeMetricFloat(w, "tiercache_uptime_seconds", "Seconds since the service started.", "gauge", uptimeSeconds)

		// --- Labeled metrics ---

		writeCounterVec(w, "tiercache_errors_total",
			"Total number of errors by kind (backend_failure, integrity_failure, config_error, ...).",
			collector.Errors())

		writeHistogramVec(w, "tiercache_tier_duration_seconds",
			"Tier operation duration in seconds by tier and op.",
			collector.TierLatency())

		writeCounterVec(w, "tiercache_placement_decisions_total",
			"Total write-through placement decisions by outcome (inline/pointer).",
			collector.Placement())

		writeGaugeVec(w, "tiercache_l0_size",
			"Current number of entries held in L0.",
			collector.L0Size())
	}
}

// writeMetric writes a single integer metric in Prometheus text format.
func writeMetric(w http.ResponseWriter, name, help, metricType string, value int64) {
	fmt.Fprintf(w, "# HELP %s %s\n", name, help)
	fmt.Fprintf(w, "# TYPE %s %s\n", name, metricType)
	fmt.Fprintf(w, "%s %d\n", name, value)
}

// writeMetricFloat writes a single float64 metric in Prometheus text format.
func writeMetricFloat(w http.ResponseWriter, name, help, metricType string, value float64) {
	fmt.Fprintf(w, "# HELP %s %s\n", name, help)
	fmt.Fprintf(w, "# TYPE %s %s\n", name, metricType)
	fmt.Fprintf(w, "%s %g\n", name, value)
}

// formatLabels formats a label map as Prometheus label string, e.g. {type="foo",provider="bar"}.
func formatLabels(labels map[string]string) string {
	if len(labels) == 0 {
		return ""
	}
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%s=%q", k, labels[k])
	}
	b.WriteByte('}')
	return b.String()
}

// writeCounterVec writes a labeled counter vec in Prometheus text format.
func writeCounterVec(w http.ResponseWriter, name, help string, cv *counterVec) {
	entries := cv.snapshot()
	if len(entries) == 0 {
		return
	}
	fmt.Fprintf(w, "# HELP %s %s\n", name, help)
	fmt.Fprintf(w, "# TYPE %s counter\n", name)
	for _, e := range entries {
		fmt.Fprintf(w, "%s%s %d\n", name, formatLabels(e.labels), e.value)
	}
}

// writeHistogramVec writes a labeled histogram vec in Prometheus text format.
func writeHistogramVec(w http.ResponseWriter, name, help string, hv *histogramVec) {
	histograms := hv.snapshot()
	if len(histograms) == 0 {
		return
	}
	fmt.Fprintf(w, "# HELP %s %s\n", name, help)
	fmt.Fprintf(w, "# TYPE %s histogram\n", name)
	for _, h := range histograms {
		labels := formatLabels(h.labels)
		// Cumulative bucket counts.
		var cumulative int64
		for i, bound := range h.buckets {
			cumulative += h.counts[i]
			le := fmt.Sprintf("%g", bound)
			if len(h.labels) == 0 {
				fmt.Fprintf(w, "%s_bucket{le=%q} %d\n", name, le, cumulative)
			} else {
				// Insert le into existing labels.
				lbl := formatLabelsWithLe(h.labels, le)
				fmt.Fprintf(w, "%s_bucket%s %d\n", name, lbl, cumulative)
			}
		}
		// +Inf bucket.
		if len(h.labels) == 0 {
			fmt.Fprintf(w, "%s_bucket{le=\"+Inf\"} %d\n", name, h.count)
		} else {
			lbl := formatLabelsWithLe(h.labels, "+Inf")
			fmt.Fprintf(w, "%s_bucket%s %d\n", name, lbl, h.count)
		}
		fmt.Fprintf(w, "%s_sum%s %g\n", name, labels, h.sum)
		fmt.Fprintf(w, "%s_count%s %d\n", name, labels, h.count)
	}
}

// formatLabelsWithLe formats labels with an additional "le" label for histogram buckets.
func formatLabelsWithLe(labels map[string]string, le string) string {
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%s=%q", k, labels[k])
	}
	fmt.Fprintf(&b, ",le=%q", le)
	b.WriteByte('}')
	return b.String()
}

// writeGaugeVec writes a labeled gauge vec in Prometheus text format.
func writeGaugeVec(w http.ResponseWriter, name, help string, gv *gaugeVec) {
	entries := gv.snapshot()
	if len(entries) == 0 {
		return
	}
	fmt.Fprintf(w, "# HELP %s %s\n", name, help)
	fmt.Fprintf(w, "# TYPE %s gauge\n", name)
	for _, e := range entries {
		fmt.Fprintf(w, "%s%s %g\n", name, formatLabels(e.labels), e.value)
	}
}
