package metrics

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal *prometheus.CounterVec
	votesTotal        *prometheus.CounterVec
	transitionsTotal  *prometheus.CounterVec
	registerOnce      sync.Once
)

// Register initializes Prometheus metrics on the default registry.
func Register() {
	registerOnce.Do(func() {
		httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ballots",
			Name:      "http_requests_total",
			Help:      "Total HTTP requests processed by the ballot API.",
		}, []string{"method", "path", "status"})

		votesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ballots",
			Name:      "votes_total",
			Help:      "Vote submissions by outcome.",
		}, []string{"result"})

		transitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ballots",
			Name:      "transitions_total",
			Help:      "Ballot lifecycle transition attempts by target status and outcome.",
		}, []string{"to", "result"})
	})
}

// IncRequest increments the http_requests_total counter with the given labels.
func IncRequest(method, path string, status int) {
	if httpRequestsTotal == nil {
		return
	}
	httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
}

// IncVote records a vote submission outcome such as "accepted" or "duplicate".
func IncVote(result string) {
	if votesTotal == nil {
		return
	}
	votesTotal.WithLabelValues(result).Inc()
}

func IncTransition(to, result string) {
	if transitionsTotal == nil {
		return
	}
	transitionsTotal.WithLabelValues(to, result).Inc()
}
