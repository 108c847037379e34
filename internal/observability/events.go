package observability

// EventEnvelope wraps a lifecycle event published to the event exchange.
type EventEnvelope struct {
	EventType string      `json:"event_type"`
	EventName string      `json:"event_name"`
	Payload   interface{} `json:"payload"`
}

// CorrelationHeaders assembles AMQP headers tying a published event back to
// the emitting session and trace. Empty values are omitted.
func CorrelationHeaders(sessionID, traceID string) map[string]string {
	headers := map[string]string{}
	if sessionID != "" {
		headers["x-session-id"] = sessionID
	}
	if traceID != "" {
		headers["trace_id"] = traceID
	}
	return headers
}
