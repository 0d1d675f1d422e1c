package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "langexport"

// PrometheusRecorder is a Recorder backed by Prometheus collectors.
type PrometheusRecorder struct {
	stageSeconds   *prometheus.HistogramVec
	stageResults   *prometheus.CounterVec
	exportSeconds  prometheus.Histogram
	exportOutcomes *prometheus.CounterVec
	routeSeconds   *prometheus.HistogramVec
	routeResults   *prometheus.CounterVec
	errorArtifacts *prometheus.CounterVec
	workers        prometheus.Gauge
	languageRoots  prometheus.Gauge
}

var _ Recorder = (*PrometheusRecorder)(nil)

// NewPrometheusRecorder registers the export collectors with reg. A nil reg
// gets a private registry. Registering twice with the same reg panics.
func NewPrometheusRecorder(reg prometheus.Registerer) *PrometheusRecorder {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)
	return &PrometheusRecorder{
		stageSeconds: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of export stages.",
		}, []string{"stage"}),
		stageResults: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_results_total",
			Help:      "Export stages by result.",
		}, []string{"stage", "result"}),
		exportSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "export_duration_seconds",
			Help:      "Duration of whole export runs.",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
		exportOutcomes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "export_outcomes_total",
			Help:      "Export runs by outcome.",
		}, []string{"outcome"}),
		routeSeconds: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "route_render_duration_seconds",
			Help:      "Duration of single route renders.",
		}, []string{"lang", "result"}),
		routeResults: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "route_results_total",
			Help:      "Rendered routes by language and result.",
		}, []string{"lang", "result"}),
		errorArtifacts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "error_artifacts_total",
			Help:      "Route failure files by write result.",
		}, []string{"written"}),
		workers: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "render_concurrency",
			Help:      "Render workers of the last export.",
		}),
		languageRoots: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "language_roots",
			Help:      "Language directories produced by the last export.",
		}),
	}
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	p.stageSeconds.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStageResult(stage string, result ResultLabel) {
	p.stageResults.WithLabelValues(stage, string(result)).Inc()
}

func (p *PrometheusRecorder) ObserveExportDuration(d time.Duration) {
	p.exportSeconds.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncExportOutcome(outcome ExportOutcomeLabel) {
	p.exportOutcomes.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) ObserveRouteRender(lang string, d time.Duration, success bool) {
	result := "failed"
	if success {
		result = "success"
	}
	p.routeSeconds.WithLabelValues(lang, result).Observe(d.Seconds())
	p.routeResults.WithLabelValues(lang, result).Inc()
}

func (p *PrometheusRecorder) IncErrorArtifact(written bool) {
	p.errorArtifacts.WithLabelValues(strconv.FormatBool(written)).Inc()
}

func (p *PrometheusRecorder) SetRenderConcurrency(n int) { p.workers.Set(float64(n)) }
func (p *PrometheusRecorder) SetLanguageRoots(n int)     { p.languageRoots.Set(float64(n)) }

// HTTPHandler serves what g gathers, in OpenMetrics format when the scraper asks for it.
func HTTPHandler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		ErrorHandling:     promhttp.ContinueOnError,
	})
}
