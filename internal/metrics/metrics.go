package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	namespace = "echoguard"
)

var (
	// Access events by verdict: "suspicious" or "normal".
	AccessEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "access_events_total",
		Help:      "Count of access events logged, by verdict.",
	}, []string{"verdict"})

	DataQueriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "data_queries_total",
		Help:      "Count of log queries served, by status.",
	}, []string{"status"})

	DataQueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "data_query_duration_seconds",
		Help:      "Time taken to serve a log query.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"filter"})

	WSClients = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "ws_clients",
		Help:      "Number of connected push channel clients.",
	})
)

func Verdict(suspicious bool) string {
	if suspicious {
		return "suspicious"
	}
	return "normal"
}

func Handler() http.Handler {
	return promhttp.Handler()
}
