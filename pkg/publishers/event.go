package publishers

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Message size ceilings of the managed sinks.
const (
	awsMaxMessageBytes    = 256 * 1024
	pubsubMaxMessageBytes = 10 * 1000 * 1000
)

// Event is the result of one processed job, published downstream.
type Event struct {
	JobID       string          `json:"job_id"`
	Operation   string          `json:"operation"`
	Source      string          `json:"source"`
	Fingerprint string          `json:"fingerprint"`
	StatusCode  int             `json:"status_code"`
	Body        json.RawMessage `json:"body,omitempty"`
	RawBody     string          `json:"raw_body,omitempty"`
	BodyBytes   int             `json:"body_bytes"`
	BodyOmitted bool            `json:"body_omitted,omitempty"`
	ProcessedAt time.Time       `json:"processed_at"`
}

// NewEvent builds an Event. JSON bodies are embedded as-is, anything else is
// carried as a string.
func NewEvent(jobID, operation, source, fingerprint string, statusCode int, body string) Event {
	evt := Event{
		JobID:       jobID,
		Operation:   operation,
		Source:      source,
		Fingerprint: fingerprint,
		StatusCode:  statusCode,
		BodyBytes:   len(body),
		ProcessedAt: time.Now().UTC(),
	}
	if json.Valid([]byte(body)) {
		evt.Body = json.RawMessage(body)
	} else {
		evt.RawBody = body
	}
	return evt
}

// Attributes returns the routing metadata attached to queue and topic messages.
func (e Event) Attributes() map[string]string {
	attrs := map[string]string{
		"job_id":    e.JobID,
		"operation": e.Operation,
	}
	if e.StatusCode != 0 {
		attrs["status_code"] = strconv.Itoa(e.StatusCode)
	}
	return attrs
}

// encode marshals the event. When the result exceeds limit the API body is
// dropped and BodyOmitted set, so the consumer can refetch it.
func (e Event) encode(limit int) ([]byte, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	if limit <= 0 || len(payload) <= limit {
		return payload, nil
	}

	e.Body, e.RawBody, e.BodyOmitted = nil, "", true
	payload, err = json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	if len(payload) > limit {
		return nil, fmt.Errorf("event for job %q exceeds %d bytes", e.JobID, limit)
	}
	return payload, nil
}

// deduplicationID keys FIFO deliveries and webhook idempotency. It covers the
// outcome as well as the input, so a retried job whose earlier attempt failed
// is not swallowed as a duplicate.
func (e Event) deduplicationID() string {
	key := e.Fingerprint
	if key == "" {
		key = e.JobID
	}
	return key + "-" + strconv.Itoa(e.StatusCode) + "-" + strconv.FormatInt(e.ProcessedAt.UnixNano(), 10)
}

// messageAttributes converts the event attributes into a sink-specific shape,
// skipping empty values.
func messageAttributes[V any](evt Event, value func(string) V) map[string]V {
	out := make(map[string]V)
	for k, v := range evt.Attributes() {
		if v == "" {
			continue
		}
		out[k] = value(v)
	}
	return out
}
