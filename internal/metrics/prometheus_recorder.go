package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/sitebuilder/internal/errors"
)

const namespace = "sitebuilder"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	reg                *prom.Registry
	stageDuration      *prom.HistogramVec
	buildDuration      prom.Histogram
	stageResults       *prom.CounterVec
	buildOutcome       *prom.CounterVec
	pageChanges        *prom.CounterVec
	contentDuration    *prom.HistogramVec
	contentResults     *prom.CounterVec
	contentConcurrency prom.Gauge
}

// NewPrometheusRecorder constructs the metrics and registers them on reg
// (a fresh registry when nil).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{reg: reg}
	pr.stageDuration = prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "stage_duration_seconds",
		Help:      "Duration of individual build stages",
		Buckets:   prom.DefBuckets,
	}, []string{"stage"})
	pr.buildDuration = prom.NewHistogram(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "build_duration_seconds",
		Help:      "Total build duration",
		Buckets:   prom.DefBuckets,
	})
	pr.stageResults = prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "stage_results_total",
		Help:      "Stage result counts by outcome",
	}, []string{"stage", "result"})
	pr.buildOutcome = prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "build_outcomes_total",
		Help:      "Build outcomes by final status",
	}, []string{"outcome"})
	pr.pageChanges = prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "page_changes_total",
		Help:      "Pages added, modified, or removed by model merges",
	}, []string{"kind"})
	pr.contentDuration = prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "content_fetch_duration_seconds",
		Help:      "Duration of individual content fetches",
		Buckets:   prom.DefBuckets,
	}, []string{"loader", "result"})
	pr.contentResults = prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "content_fetch_results_total",
		Help:      "Content fetch results by loader",
	}, []string{"loader", "result"})
	pr.contentConcurrency = prom.NewGauge(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "content_concurrency",
		Help:      "Configured content fetch concurrency for the last build",
	})
	reg.MustRegister(pr.stageDuration, pr.buildDuration, pr.stageResults, pr.buildOutcome,
		pr.pageChanges, pr.contentDuration, pr.contentResults, pr.contentConcurrency)
	return pr
}

// Registry returns the registry the metrics are registered on.
func (p *PrometheusRecorder) Registry() *prom.Registry { return p.reg }

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStageResult(stage string, result ResultLabel) {
	if p == nil {
		return
	}
	p.stageResults.WithLabelValues(stage, string(result)).Inc()
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome BuildOutcomeLabel) {
	if p == nil {
		return
	}
	p.buildOutcome.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) AddPageChanges(kind string, n int) {
	if p == nil || n <= 0 {
		return
	}
	p.pageChanges.WithLabelValues(kind).Add(float64(n))
}

func (p *PrometheusRecorder) ObserveContentFetch(loader string, d time.Duration, success bool) {
	if p == nil {
		return
	}
	res := "failed"
	if success {
		res = "success"
	}
	p.contentDuration.WithLabelValues(loader, res).Observe(d.Seconds())
	p.contentResults.WithLabelValues(loader, res).Inc()
}

func (p *PrometheusRecorder) SetContentConcurrency(n int) {
	if p == nil {
		return
	}
	p.contentConcurrency.Set(float64(n))
}

// WriteTextfile writes the registry in the text exposition format to path,
// atomically, for the node_exporter textfile collector.
func (p *PrometheusRecorder) WriteTextfile(path string) error {
	if err := prom.WriteToTextfile(path, p.reg); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to write metrics textfile").
			WithContext("path", path).Build()
	}
	return nil
}
