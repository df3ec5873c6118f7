package api

import (
	"github.com/Nomadcxx/animeparse/internal/database"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the server's Prometheus instruments on a private registry.
type Metrics struct {
	registry      *prometheus.Registry
	parsesTotal   *prometheus.CounterVec
	parseDuration prometheus.Histogram
	rateLimited   prometheus.Counter
}

func NewMetrics(db *database.HistoryDB) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		parsesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "animeparse_parses_total",
			Help: "Filenames parsed through the API, by result.",
		}, []string{"result"}),
		parseDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "animeparse_parse_duration_seconds",
			Help:    "Time spent parsing a single filename.",
			Buckets: []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05},
		}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "animeparse_rate_limited_total",
			Help: "Requests rejected by the rate limiter.",
		}),
	}
	m.registry.MustRegister(m.parsesTotal, m.parseDuration, m.rateLimited)
	if db != nil {
		m.registry.MustRegister(newHistoryCollector(db))
	}
	return m
}

func (m *Metrics) observeParse(success bool, seconds float64) {
	result := "failure"
	if success {
		result = "success"
	}
	m.parsesTotal.WithLabelValues(result).Inc()
	m.parseDuration.Observe(seconds)
}

// historyCollector reads database totals on each scrape rather than
// keeping its own counters.
type historyCollector struct {
	db *database.HistoryDB

	parses   *prometheus.Desc
	failures *prometheus.Desc
	runs     *prometheus.Desc
	titles   *prometheus.Desc
}

func newHistoryCollector(db *database.HistoryDB) *historyCollector {
	return &historyCollector{
		db: db,
		parses: prometheus.NewDesc(
			"animeparse_recorded_parses",
			"Parses stored in the history database.",
			nil, nil,
		),
		failures: prometheus.NewDesc(
			"animeparse_recorded_failures",
			"Stored parses that found no anime title.",
			nil, nil,
		),
		runs: prometheus.NewDesc(
			"animeparse_recorded_runs",
			"Parse runs stored in the history database.",
			nil, nil,
		),
		titles: prometheus.NewDesc(
			"animeparse_recorded_titles",
			"Distinct anime titles in the history database.",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *historyCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.parses
	ch <- c.failures
	ch <- c.runs
	ch <- c.titles
}

// Collect implements prometheus.Collector.
func (c *historyCollector) Collect(ch chan<- prometheus.Metric) {
	stats, err := c.db.CountParses()
	if err != nil {
		return
	}
	ch <- prometheus.MustNewConstMetric(c.parses, prometheus.GaugeValue, float64(stats.Parses))
	ch <- prometheus.MustNewConstMetric(c.failures, prometheus.GaugeValue, float64(stats.Failures))
	ch <- prometheus.MustNewConstMetric(c.runs, prometheus.GaugeValue, float64(stats.Runs))
	ch <- prometheus.MustNewConstMetric(c.titles, prometheus.GaugeValue, float64(stats.Titles))
}
