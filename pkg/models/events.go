package models

import (
	"encoding/json"
	"strings"
	"time"
)

// DomainEvent is a decoded broker delivery. Payload is the raw JSON body and
// is not constrained by this service.
type DomainEvent struct {
	RoutingKey    string          `json:"routing_key"`
	Payload       json.RawMessage `json:"payload"`
	MessageID     string          `json:"message_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Redelivered   bool            `json:"redelivered"`
	Timestamp     time.Time       `json:"timestamp"`
}

// Segments splits the routing key on dots.
func (e DomainEvent) Segments() []string {
	if e.RoutingKey == "" {
		return nil
	}
	return strings.Split(e.RoutingKey, ".")
}

// Action returns the second routing key segment, e.g. "created" for
// "part.created", or "" when the key has a single segment.
func (e DomainEvent) Action() string {
	segs := e.Segments()
	if len(segs) < 2 {
		return ""
	}
	return segs[1]
}

// Qualifiers returns the segments after the action, e.g. ["urgent"] for
// "repair.opened.urgent".
func (e DomainEvent) Qualifiers() []string {
	segs := e.Segments()
	if len(segs) < 3 {
		return nil
	}
	return segs[2:]
}
