package kafka

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/DRSN-tech/shop-assistant/internal/usecase"
	"github.com/DRSN-tech/shop-assistant/pkg/logger"
	"github.com/DRSN-tech/shop-assistant/pkg/metrics"
	"github.com/google/uuid"
)

const (
	publisherBuffer = 256
	publishTimeout  = 5 * time.Second
	analyticsSource = "analytics"
)

type analyticsEvent struct {
	EventID    string    `json:"event_id"`
	EventType  string    `json:"event_type"`
	OccurredAt time.Time `json:"occurred_at"`
	Data       any       `json:"data"`
}

// AnalyticsPublisher отправляет аналитические события в фоне, не задерживая запрос.
// Если буфер заполнен, событие отбрасывается.
type AnalyticsPublisher struct {
	producer usecase.MessageProducer
	topic    string
	logger   logger.Logger
	queue    chan *usecase.WriteMessageReq
	done     chan struct{}

	mu     sync.RWMutex
	closed bool
}

func NewAnalyticsPublisher(producer usecase.MessageProducer, topic string, logger logger.Logger) *AnalyticsPublisher {
	p := &AnalyticsPublisher{
		producer: producer,
		topic:    topic,
		logger:   logger,
		queue:    make(chan *usecase.WriteMessageReq, publisherBuffer),
		done:     make(chan struct{}),
	}
	go p.loop()

	return p
}

func (p *AnalyticsPublisher) Publish(eventType string, key string, payload any) {
	event := analyticsEvent{
		EventID:    uuid.NewString(),
		EventType:  eventType,
		OccurredAt: time.Now().UTC(),
		Data:       payload,
	}

	data, err := json.Marshal(event)
	if err != nil {
		p.logger.Warnf("failed to marshal %s event: %v", eventType, err)
		metrics.EventsPublished.WithLabelValues(analyticsSource, "error").Inc()
		return
	}

	req := usecase.NewWriteMessageReq(p.topic, key, event.EventID, eventType, data)

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return
	}

	select {
	case p.queue <- req:
	default:
		p.logger.Warnf("analytics queue is full, dropping %s event", eventType)
		metrics.EventsPublished.WithLabelValues(analyticsSource, "dropped").Inc()
	}
}

func (p *AnalyticsPublisher) loop() {
	defer close(p.done)

	for req := range p.queue {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		err := p.producer.WriteMessage(ctx, req)
		cancel()

		metrics.EventsPublished.WithLabelValues(analyticsSource, metrics.Result(err)).Inc()
		if err != nil {
			p.logger.Warnf("failed to publish %s event: %v", req.EventType, err)
		}
	}
}

// Close дожидается отправки уже принятых событий. После Close события игнорируются.
func (p *AnalyticsPublisher) Close(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.queue)
	}
	p.mu.Unlock()

	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
