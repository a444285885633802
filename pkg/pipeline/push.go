package pipeline

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/David-Botos/sales-etl/pkg/loader"
)

// DefaultJobName is the Pushgateway job the run metrics are grouped under
const DefaultJobName = "sales_etl"

// MetricsPusher publishes run metrics to a Prometheus Pushgateway
type MetricsPusher struct {
	gatewayURL string
	jobName    string
}

// NewMetricsPusher creates a pusher for the Pushgateway at gatewayURL
func NewMetricsPusher(gatewayURL, jobName string) (*MetricsPusher, error) {
	if gatewayURL == "" {
		return nil, fmt.Errorf("pushgateway URL is required")
	}
	if jobName == "" {
		jobName = DefaultJobName
	}
	return &MetricsPusher{gatewayURL: gatewayURL, jobName: jobName}, nil
}

// Registry builds a registry holding the metrics of one run
func (rm *RunMetrics) Registry() (*prometheus.Registry, error) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	reg := prometheus.NewRegistry()

	stageDuration := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "etl_stage_duration_seconds",
		Help: "Duration of each pipeline stage in the last run.",
	}, []string{"stage", "table"})
	rows := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "etl_rows",
		Help: "Rows per table and kind (loaded, cleaned) in the last run.",
	}, []string{"table", "kind"})
	valuesChanged := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "etl_values_changed",
		Help: "Values changed by cleaning per table in the last run.",
	}, []string{"table"})
	cacheHits := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "etl_cache_hit",
		Help: "1 when the table was read from the cache file in the last run.",
	}, []string{"table"})
	success := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "etl_last_run_success",
		Help: "1 when the last run completed without error.",
	})
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "etl_runs_total",
		Help: "Runs by outcome.",
	}, []string{"status"})
	completed := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "etl_last_run_timestamp_seconds",
		Help: "Unix time the last run finished.",
	})

	for _, c := range []prometheus.Collector{stageDuration, rows, valuesChanged, cacheHits, success, runs, completed} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register metric: %w", err)
		}
	}

	for _, sm := range rm.Stages {
		stageDuration.WithLabelValues(string(sm.Stage), sm.Table).Set(sm.Duration().Seconds())
	}
	for _, name := range rm.tableNames() {
		tm := rm.Tables[name]
		rows.WithLabelValues(name, "loaded").Set(float64(tm.RowsLoaded))
		rows.WithLabelValues(name, "cleaned").Set(float64(tm.RowsCleaned))
		valuesChanged.WithLabelValues(name).Set(float64(tm.ValuesChanged))
		hit := 0.0
		if tm.Source == loader.SourceCache {
			hit = 1
		}
		cacheHits.WithLabelValues(name).Set(hit)
	}

	if rm.ErrorKind == ErrorKindNone {
		success.Set(1)
		runs.WithLabelValues("success").Inc()
	} else {
		runs.WithLabelValues(rm.ErrorKind.String()).Inc()
	}
	if !rm.EndTime.IsZero() {
		completed.Set(float64(rm.EndTime.Unix()))
	}
	return reg, nil
}

// Push sends the metrics of a run to the Pushgateway, replacing the
// previous push of this job
func (p *MetricsPusher) Push(rm *RunMetrics) error {
	reg, err := rm.Registry()
	if err != nil {
		return err
	}
	if err := push.New(p.gatewayURL, p.jobName).Gatherer(reg).Push(); err != nil {
		return fmt.Errorf("failed to push metrics to %s: %w", p.gatewayURL, err)
	}
	return nil
}
