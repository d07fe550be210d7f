// Package metrics defines prometheus metric types and provides convenience
// values to add accounting to the codec, the directory server, and the
// aggregator.
package metrics

import (
	"log"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DecodeErrorCount counts inbound datagrams rejected by the codec,
	// labeled by the jamproto.ErrorKind string.
	DecodeErrorCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jamdir_decode_errors_total",
			Help: "The total number of inbound datagrams rejected by the codec, by error kind.",
		}, []string{"kind"})

	// AckSentCount counts automatic ACKN replies sent by an endpoint.
	AckSentCount = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "jamdir_acks_sent_total",
			Help: "The total number of ACKN messages sent automatically on receipt of a connected-session message.",
		},
	)

	// CentralRegistrationCount counts successful CLM_REGISTER_SERVER(_EX)
	// registrations handled by the directory server.
	CentralRegistrationCount = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "jamdir_central_registrations_total",
			Help: "The total number of server registrations accepted by the directory server.",
		},
	)

	// CentralListRequestCount counts CLM_REQ_SERVER_LIST requests served
	// by the directory server.
	CentralListRequestCount = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "jamdir_central_list_requests_total",
			Help: "The total number of CLM_REQ_SERVER_LIST requests served by the directory server.",
		},
	)

	// ProxyPollCount counts CLM_REQ_SERVER_LIST polls sent to upstream
	// directories, labeled by upstream host:port.
	ProxyPollCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jamdir_proxy_poll_total",
			Help: "The total number of scheduled polls sent to each upstream directory.",
		}, []string{"upstream"})

	// ProxyEntries tracks the current size of the aggregator's merged
	// directory.
	ProxyEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "jamdir_proxy_entries",
			Help: "The current number of entries held by the directory aggregator.",
		},
	)

	// ProxyListRequestCount counts CLM_REQ_SERVER_LIST requests served by
	// the aggregator to discovering clients.
	ProxyListRequestCount = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "jamdir_proxy_list_requests_total",
			Help: "The total number of CLM_REQ_SERVER_LIST requests served by the directory aggregator.",
		},
	)
)

func init() {
	log.Println("Prometheus metrics in jamdir.metrics are registered.")
}
