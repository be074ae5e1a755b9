package domain

import "time"

type OutboxStatus string

const (
	Pending    OutboxStatus = "pending"
	Processing OutboxStatus = "processing"
	Processed  OutboxStatus = "processed"
)

const (
	EventOrderCreated         = "order.created"
	EventRecommendationServed = "recommendation.served"
	EventVisualSearchMatched  = "visual_search.matched"
)

// OutboxEvent описывает событие, ожидающее отправки в Kafka
type OutboxEvent struct {
	ID          int64
	EventID     string // uuid
	EventType   string
	AggregateID string
	Payload     []byte
	Status      OutboxStatus
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

func NewOutboxEvent(eventID, eventType, aggregateID string, payload []byte) *OutboxEvent {
	return &OutboxEvent{
		EventID:     eventID,
		EventType:   eventType,
		AggregateID: aggregateID,
		Payload:     payload,
		Status:      Pending,
		CreatedAt:   time.Now().UTC(),
	}
}
