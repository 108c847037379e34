package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	sessionConnectsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_client_session_connects_total",
			Help: "Total number of websocket session connection attempts.",
		},
		[]string{"result"},
	)
	sessionReconnectsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_client_session_reconnects_total",
			Help: "Total number of reconnect attempts after a dropped session.",
		},
	)
	activeSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "chat_client_active_sessions",
			Help: "Number of live websocket sessions (0 or 1 per process).",
		},
	)
	inboundEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_client_inbound_events_total",
			Help: "Total number of inbound events by wire type.",
		},
		[]string{"type"},
	)
	sendsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_client_sends_total",
			Help: "Total number of outbound actions by transport path and outcome.",
		},
		[]string{"path", "outcome"},
	)
	restRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_client_rest_requests_total",
			Help: "Total number of REST fallback requests by operation and status.",
		},
		[]string{"operation", "status"},
	)
	amqpPublishErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_client_amqp_publish_errors_total",
			Help: "Total number of AMQP publish errors.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		sessionConnectsTotal,
		sessionReconnectsTotal,
		activeSessions,
		inboundEventsTotal,
		sendsTotal,
		restRequestsTotal,
		amqpPublishErrorsTotal,
	)
}

func IncSessionConnect(result string) {
	sessionConnectsTotal.WithLabelValues(result).Inc()
}

func IncSessionReconnect() {
	sessionReconnectsTotal.Inc()
}

func SetSessionActive(active bool) {
	if active {
		activeSessions.Set(1)
		return
	}
	activeSessions.Set(0)
}

func IncInboundEvent(eventType string) {
	inboundEventsTotal.WithLabelValues(eventType).Inc()
}

func IncSend(path, outcome string) {
	sendsTotal.WithLabelValues(path, outcome).Inc()
}

func IncRESTRequest(operation, status string) {
	restRequestsTotal.WithLabelValues(operation, status).Inc()
}

func IncAMQPPublishError() {
	amqpPublishErrorsTotal.Inc()
}
