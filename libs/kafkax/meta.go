package kafkax

import (
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

// Header keys shared by every producer and consumer.
const (
	HeaderEventID    = "event_id"
	HeaderEventType  = "event_type"
	HeaderOccurredAt = "occurred_at"
)

// EventMeta is the metadata carried on every domain event message.
type EventMeta struct {
	EventID    string
	EventType  string
	OccurredAt time.Time
}

// Headers renders m as Kafka headers. A zero OccurredAt is omitted.
func (m EventMeta) Headers() []kafka.Header {
	h := []kafka.Header{
		{Key: HeaderEventID, Value: []byte(m.EventID)},
		{Key: HeaderEventType, Value: []byte(m.EventType)},
	}
	if !m.OccurredAt.IsZero() {
		h = append(h, kafka.Header{Key: HeaderOccurredAt, Value: []byte(m.OccurredAt.UTC().Format(time.RFC3339Nano))})
	}
	return h
}

// ExtractEventMeta falls back to the message key and topic when headers are missing.
func ExtractEventMeta(msg kafka.Message) EventMeta {
	meta := EventMeta{
		EventID:   HeaderValue(msg.Headers, HeaderEventID),
		EventType: HeaderValue(msg.Headers, HeaderEventType),
	}
	if meta.EventID == "" {
		meta.EventID = string(msg.Key)
	}
	if meta.EventType == "" {
		meta.EventType = msg.Topic
	}
	if raw := HeaderValue(msg.Headers, HeaderOccurredAt); raw != "" {
		if ts, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			meta.OccurredAt = ts
		}
	}
	if meta.OccurredAt.IsZero() {
		meta.OccurredAt = msg.Time
	}
	return meta
}

func HeaderValue(headers []kafka.Header, key string) string {
	for _, h := range headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func SplitBrokers(raw string) []string {
	var brokers []string
	for _, b := range strings.Split(raw, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
