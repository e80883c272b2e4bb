// Package metrics defines the Prometheus collectors published by the client.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the client's Prometheus collectors.
//
// All recording methods are safe to call on a nil receiver, so library code
// can record unconditionally and callers opt in by constructing Metrics.
type Metrics struct {
	requestsTotal       *prometheus.CounterVec
	authRefreshesTotal  prometheus.Counter
	transactionPolls    prometheus.Counter
	transactionOutcomes *prometheus.CounterVec
}

// New creates the client collectors and registers them on reg.
// If reg is nil, the default Prometheus registerer is used.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gigas_api_requests_total",
			Help: "API requests completed, by HTTP method and status code.",
		}, []string{"method", "code"}),
		authRefreshesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gigas_auth_refreshes_total",
			Help: "Successful token acquisitions, including the initial one.",
		}),
		transactionPolls: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gigas_transaction_polls_total",
			Help: "Transaction status polls issued.",
		}),
		transactionOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gigas_transaction_outcomes_total",
			Help: "Terminal transaction outcomes, by outcome.",
		}, []string{"outcome"}),
	}

	reg.MustRegister(
		m.requestsTotal,
		m.authRefreshesTotal,
		m.transactionPolls,
		m.transactionOutcomes,
	)

	return m
}

// RequestCompleted records one API round trip that produced a response.
func (m *Metrics) RequestCompleted(method string, code int) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
}

// AuthRefreshed records a successful token acquisition.
func (m *Metrics) AuthRefreshed() {
	if m == nil {
		return
	}
	m.authRefreshesTotal.Inc()
}

// TransactionPolled records one status poll.
func (m *Metrics) TransactionPolled() {
	if m == nil {
		return
	}
	m.transactionPolls.Inc()
}

// TransactionFinished records the terminal outcome of a wait.
func (m *Metrics) TransactionFinished(outcome string) {
	if m == nil {
		return
	}
	m.transactionOutcomes.WithLabelValues(outcome).Inc()
}
