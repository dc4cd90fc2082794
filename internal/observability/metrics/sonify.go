// Package metrics exposes prometheus instrumentation for the cue pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// SonifyMetrics collects cue pipeline counters and histograms. A nil
// receiver is safe; every method no-ops, so instrumentation stays optional
// in tests.
type SonifyMetrics struct {
	cuesPlayed    *prometheus.CounterVec
	cueFailures   *prometheus.CounterVec
	decodeErrors  prometheus.Counter
	hrirFallbacks prometheus.Counter
	routeRebinds  prometheus.Counter
	planEntries   prometheus.Histogram
	cueDuration   prometheus.Histogram
}

// NewSonifyMetrics creates and registers the cue pipeline metrics on the
// given registerer.
func NewSonifyMetrics(reg prometheus.Registerer) (*SonifyMetrics, error) {
	m := &SonifyMetrics{
		cuesPlayed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "echosight_cues_played_total",
			Help: "Number of spatial audio cues played, by cue kind",
		}, []string{"kind"}),
		cueFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "echosight_cue_failures_total",
			Help: "Number of cues that failed to render or play, by stage",
		}, []string{"stage"}),
		decodeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "echosight_asset_decode_errors_total",
			Help: "Number of sound asset decode failures",
		}),
		hrirFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "echosight_hrir_fallbacks_total",
			Help: "Number of cues rendered with the stereo pan law instead of HRIR convolution",
		}),
		routeRebinds: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "echosight_audio_route_rebinds_total",
			Help: "Number of output-route rebinds applied",
		}),
		planEntries: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "echosight_scene_plan_entries",
			Help:    "Number of cues admitted per scene plan",
			Buckets: prometheus.LinearBuckets(0, 1, 9),
		}),
		cueDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "echosight_cue_duration_ms",
			Help:    "Rendered cue duration in milliseconds",
			Buckets: prometheus.ExponentialBuckets(50, 2, 8),
		}),
	}

	collectors := []prometheus.Collector{
		m.cuesPlayed, m.cueFailures, m.decodeErrors,
		m.hrirFallbacks, m.routeRebinds, m.planEntries, m.cueDuration,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// RecordCuePlayed counts one played cue of the given kind (object, north,
// landmark).
func (m *SonifyMetrics) RecordCuePlayed(kind string, durationMs int64) {
	if m == nil {
		return
	}
	m.cuesPlayed.WithLabelValues(kind).Inc()
	m.cueDuration.Observe(float64(durationMs))
}

// RecordCueFailure counts one failed cue at the given pipeline stage.
func (m *SonifyMetrics) RecordCueFailure(stage string) {
	if m == nil {
		return
	}
	m.cueFailures.WithLabelValues(stage).Inc()
}

// RecordDecodeError counts one sound asset decode failure.
func (m *SonifyMetrics) RecordDecodeError() {
	if m == nil {
		return
	}
	m.decodeErrors.Inc()
}

// RecordHRIRFallback counts one cue rendered via the stereo pan law.
func (m *SonifyMetrics) RecordHRIRFallback() {
	if m == nil {
		return
	}
	m.hrirFallbacks.Inc()
}

// RecordRouteRebind counts one applied output-route rebind.
func (m *SonifyMetrics) RecordRouteRebind() {
	if m == nil {
		return
	}
	m.routeRebinds.Inc()
}

// RecordScenePlan observes the admitted entry count of one scene plan.
func (m *SonifyMetrics) RecordScenePlan(entries int) {
	if m == nil {
		return
	}
	m.planEntries.Observe(float64(entries))
}
