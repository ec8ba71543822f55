// Package metrics exposes prometheus collectors for analysis runs.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "sentiment_cx"

// Analysis stages that can be skipped for lack of data
const (
	StageDescriptive = "descriptive"
	StageCorrelation = "correlation"
	StageANOVA       = "anova"
	StageClustering  = "clustering"
)

// Recorder holds the collectors for one registry. A nil *Recorder records nothing.
type Recorder struct {
	analyses         prometheus.Counter
	duration         prometheus.Histogram
	records          prometheus.Histogram
	insufficient     *prometheus.CounterVec
	kmeansIterations *prometheus.HistogramVec
	silhouette       *prometheus.GaugeVec
	droppedValues    prometheus.Counter
}

// NewRecorder registers the collectors on reg
func NewRecorder(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		analyses: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyses_total",
			Help:      "Completed analysis passes",
		}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_duration_seconds",
			Help:      "Wall time of one analysis pass",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		records: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_records",
			Help:      "Records per analysis pass",
			Buckets:   prometheus.ExponentialBuckets(10, 4, 6),
		}),
		insufficient: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "insufficient_data_total",
			Help:      "Analyses skipped for lack of data, by stage",
		}, []string{"stage"}),
		kmeansIterations: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "kmeans_iterations",
			Help:      "Lloyd iterations used per k-means run",
			Buckets:   []float64{1, 2, 5, 10, 20, 50, 100},
		}, []string{"converged"}),
		silhouette: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "silhouette",
			Help:      "Silhouette of the most recent partition per k",
		}, []string{"k"}),
		droppedValues: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dropped_values_total",
			Help:      "Numeric answers dropped because they did not parse to a finite number",
		}),
	}
}

// ObserveAnalysis records one finished pass
func (r *Recorder) ObserveAnalysis(records int, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.analyses.Inc()
	r.duration.Observe(elapsed.Seconds())
	r.records.Observe(float64(records))
}

// Skipped counts n analyses of a stage left out for insufficient data
func (r *Recorder) Skipped(stage string, n int) {
	if r == nil || n <= 0 {
		return
	}
	r.insufficient.WithLabelValues(stage).Add(float64(n))
}

// Dropped counts numeric answers discarded during extraction
func (r *Recorder) Dropped(n int) {
	if r == nil || n <= 0 {
		return
	}
	r.droppedValues.Add(float64(n))
}

// ObservePartition records the iterations and silhouette of one k-means run
func (r *Recorder) ObservePartition(k, iterations int, converged bool, silhouette float64) {
	if r == nil {
		return
	}
	label := "false"
	if converged {
		label = "true"
	}
	r.kmeansIterations.WithLabelValues(label).Observe(float64(iterations))
	r.silhouette.WithLabelValues(strconv.Itoa(k)).Set(silhouette)
}
