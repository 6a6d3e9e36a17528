package runner

import "github.com/prometheus/client_golang/prometheus"

var (
	mtxKeywordsExamined = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bidsteer_keywords_examined_total",
			Help: "Keywords returned by band queries",
		},
		[]string{"phase"}, // phase: raise|lower
	)

	mtxBidsAdjusted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bidsteer_bids_adjusted_total",
			Help: "Bid mutations written back",
		},
		[]string{"direction"}, // direction: raise|lower
	)

	mtxKeywordsSkipped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bidsteer_keywords_skipped_total",
			Help: "Qualifying keywords skipped for zero impressions",
		},
	)

	mtxRunErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bidsteer_run_errors_total",
			Help: "Runs aborted by a data source error",
		},
	)

	mtxLastRun = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "bidsteer_last_run_timestamp_seconds",
			Help: "Completion time of the last successful run",
		},
	)
)

func init() {
	prometheus.MustRegister(
		mtxKeywordsExamined,
		mtxBidsAdjusted,
		mtxKeywordsSkipped,
		mtxRunErrors,
		mtxLastRun,
	)
}
