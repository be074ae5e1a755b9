package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/DRSN-tech/shop-assistant/internal/cfg"
	"github.com/DRSN-tech/shop-assistant/internal/usecase"
	"github.com/DRSN-tech/shop-assistant/pkg/e"
	"github.com/DRSN-tech/shop-assistant/pkg/logger"
	"github.com/jimlawless/whereami"
	"github.com/segmentio/kafka-go"
)

const (
	HeaderEventType = "event-type"
	HeaderEventID   = "event-id"
)

// Producer пишет события в Kafka. Топик задаётся в каждом сообщении,
// пустой топик означает основной топик заказов.
type Producer struct {
	writer *kafka.Writer
	logger logger.Logger
	cfg    *cfg.KafkaCfg
}

func NewProducer(logger logger.Logger, cfg *cfg.KafkaCfg) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, e.Wrap(whereami.WhereAmI(), fmt.Errorf("no kafka brokers configured"))
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		BatchSize:              10,
		BatchTimeout:           500 * time.Millisecond,
		WriteTimeout:           10 * time.Second,
		AllowAutoTopicCreation: false,
	}

	return &Producer{
		writer: writer,
		logger: logger,
		cfg:    cfg,
	}, nil
}

func (p *Producer) WriteMessage(ctx context.Context, req *usecase.WriteMessageReq) error {
	if err := p.writer.WriteMessages(ctx, p.buildMessage(req)); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

func (p *Producer) buildMessage(req *usecase.WriteMessageReq) kafka.Message {
	topic := req.Topic
	if topic == "" {
		topic = p.cfg.Topic
	}

	return kafka.Message{
		Topic: topic,
		Key:   []byte(req.Key),
		Value: req.Payload,
		Headers: []kafka.Header{
			{Key: HeaderEventType, Value: []byte(req.EventType)},
			{Key: HeaderEventID, Value: []byte(req.EventID)},
		},
		Time: time.Now().UTC(),
	}
}

// EnsureTopic создаёт топики заказов и аналитики, если их ещё нет.
func (p *Producer) EnsureTopic(timeout time.Duration) error {
	for _, topic := range []string{p.cfg.Topic, p.cfg.AnalyticsTopic} {
		if topic == "" {
			continue
		}
		if err := p.ensureTopic(topic, timeout); err != nil {
			return err
		}
	}

	return nil
}

func (p *Producer) ensureTopic(topic string, timeout time.Duration) error {
	conn, err := kafka.Dial(p.cfg.NetworkMode, p.cfg.Brokers[0])
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}
	defer conn.Close()

	partitions, err := conn.ReadPartitions(topic)
	if err == nil && len(partitions) > 0 {
		return nil
	}

	done := make(chan error, 1)
	go func() {
		done <- conn.CreateTopics(kafka.TopicConfig{
			Topic:             topic,
			NumPartitions:     p.cfg.Partitions,
			ReplicationFactor: p.cfg.ReplicationFactor,
		})
	}()

	select {
	case err := <-done:
		if err != nil {
			return e.Wrap(whereami.WhereAmI(), fmt.Errorf("failed to create topic %s: %w", topic, err))
		}
		p.logger.Infof("kafka topic %s created", topic)
		return nil
	case <-time.After(timeout):
		_ = conn.Close()
		return e.Wrap(whereami.WhereAmI(), fmt.Errorf("timeout: %v, topic: %s", timeout, topic))
	}
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
