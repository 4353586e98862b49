package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "copper"

var (
	registry = prometheus.NewRegistry()
	handler  = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
)

var (
	MessagesHandled = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "messages_handled_total",
		Help:      "Total number of envelopes dispatched by the node, by command.",
	}, []string{"cmd"})

	MessagesSent = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "messages_sent_total",
		Help:      "Total number of envelopes sent to peers. result will be one of: success or error.",
	}, []string{"cmd", "result"})

	DecodeErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "decode_errors_total",
		Help:      "Total number of inbound envelopes dropped because they could not be decoded.",
	})

	TransportReads = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "transport",
		Name:      "reads_total",
		Help:      "Total number of inbound connections read. result will be one of: delivered, too_large, error or dropped.",
	}, []string{"result"})

	StoredKeys = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "stored_keys",
		Help:      "Number of keys held in the local shard.",
	}, []string{"node"})
)

func init() {
	registry.MustRegister(
		MessagesHandled,
		MessagesSent,
		DecodeErrors,
		TransportReads,
		StoredKeys,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

func MetricsHandler(w http.ResponseWriter, r *http.Request) {
	handler.ServeHTTP(w, r)
}
