package kafka

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/DRSN-tech/shop-assistant/internal/domain"
	"github.com/DRSN-tech/shop-assistant/internal/usecase"
	"github.com/DRSN-tech/shop-assistant/pkg/e"
	"github.com/DRSN-tech/shop-assistant/pkg/logger"
	"github.com/DRSN-tech/shop-assistant/pkg/metrics"
	"github.com/jackc/pgx/v5"
	"github.com/segmentio/kafka-go"
)

const (
	outboxChannel   = "outbox_pending"
	outboxBatchSize = 10
	outboxSource    = "outbox"
	pollInterval    = 30 * time.Second
	staleAfter      = 2 * time.Minute
)

// OutboxWorker переносит события из outbox_events в Kafka. Пробуждается по NOTIFY
// и раз в pollInterval, чтобы подобрать пропущенные и зависшие события.
type OutboxWorker struct {
	repo      usecase.OutboxRepository
	logger    logger.Logger
	producer  usecase.MessageProducer
	topic     string
	stop      chan struct{}
	stopOnce  sync.Once
	wg        sync.WaitGroup
	dbConnStr string
}

func NewOutboxWorker(
	repo usecase.OutboxRepository,
	logger logger.Logger,
	producer usecase.MessageProducer,
	topic string,
	dbConnStr string,
) *OutboxWorker {
	return &OutboxWorker{
		repo:      repo,
		logger:    logger,
		producer:  producer,
		topic:     topic,
		stop:      make(chan struct{}),
		dbConnStr: dbConnStr,
	}
}

func (w *OutboxWorker) Start(ctx context.Context) {
	w.wg.Add(2)
	go func() {
		defer w.wg.Done()
		w.run(ctx)
	}()

	// Запускаем слушатель уведомлений
	go func() {
		defer w.wg.Done()
		w.listenOutboxNotifications(ctx)
	}()
}

func (w *OutboxWorker) Stop() {
	w.stopOnce.Do(func() { close(w.stop) })
	w.wg.Wait()
}

func (w *OutboxWorker) run(ctx context.Context) {
	// Обрабатываем "остатки" при старте
	w.logger.Infof("Draining pending outbox events on startup...")
	w.drain(ctx)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Infof("Worker stopped by context cancellation")
			return
		case <-w.stop:
			return
		case <-ticker.C:
			if n, err := w.repo.ResetStale(ctx, staleAfter); err != nil {
				w.logger.Warnf("reset stale outbox events failed: %v", err)
			} else if n > 0 {
				w.logger.Warnf("returned %d stale outbox events to pending", n)
			}
			w.drain(ctx)
		}
	}
}

func (w *OutboxWorker) drain(ctx context.Context) {
	for {
		hasMore, err := w.processBatch(ctx)
		if err != nil {
			w.logger.Warnf("Batch processing failed: %v", err)
			return
		}
		if !hasMore {
			return
		}
	}
}

func (w *OutboxWorker) listenOutboxNotifications(ctx context.Context) {
	var conn *pgx.Conn

	connect := func() error {
		var err error
		conn, err = pgx.Connect(ctx, w.dbConnStr)
		if err != nil {
			return e.Wrap("failed to connect for LISTEN", err)
		}

		if _, err = conn.Exec(ctx, "LISTEN "+outboxChannel); err != nil {
			_ = conn.Close(ctx)
			conn = nil
			return e.Wrap("failed to LISTEN", err)
		}

		w.logger.Infof("Subscribed to '%s' channel", outboxChannel)
		return nil
	}

	if err := connect(); err != nil {
		w.logger.Warnf("Initial connect failed, relying on polling: %v", err)
		return
	}
	defer func() {
		if conn != nil {
			_ = conn.Close(context.Background())
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		default:
		}

		if conn == nil {
			if !w.sleep(ctx, 5*time.Second) {
				return
			}
			if err := connect(); err != nil {
				w.logger.Warnf("Reconnect failed: %v", err)
			}
			continue
		}

		ctxWithTimeout, cancel := context.WithTimeout(ctx, 30*time.Second)
		notif, err := conn.WaitForNotification(ctxWithTimeout)
		cancel()

		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
				continue
			}
			w.logger.Warnf("Connection lost: %v. Reconnecting...", err)
			_ = conn.Close(ctx)
			conn = nil
			continue
		}

		if notif != nil && notif.Channel == outboxChannel {
			w.logger.Debugf("Received outbox notification, draining outbox events")
			w.drain(ctx)
		}
	}
}

// sleep возвращает false, если воркер остановлен во время ожидания.
func (w *OutboxWorker) sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-time.After(d):
		return true
	case <-ctx.Done():
		return false
	case <-w.stop:
		return false
	}
}

func (w *OutboxWorker) processBatch(ctx context.Context) (bool, error) {
	events, err := w.repo.GetAndMarkAsProcessing(ctx, outboxBatchSize)
	if err != nil {
		return false, err
	}

	if len(events) == 0 {
		return false, nil
	}

	sent := 0
	for _, event := range events {
		err := w.processEvent(ctx, event)
		metrics.EventsPublished.WithLabelValues(outboxSource, metrics.Result(err)).Inc()
		if err != nil {
			if isRetryableError(err) {
				w.logger.Warnf("outbox event %s will be retried: %v", event.EventID, err)
				if err := w.repo.MarkAsPending(ctx, event.ID); err != nil {
					w.logger.Warnf("mark pending failed: %v", err)
				}
			} else {
				// Остаётся в processing, через staleAfter вернётся в очередь
				w.logger.Errorf(err, "outbox event %s failed", event.EventID)
			}
			continue
		}

		sent++
		if err := w.repo.MarkAsProcessed(ctx, event.ID); err != nil {
			w.logger.Warnf("mark processed failed: %v", err)
		}
	}

	// Если ни одно событие не ушло, не крутимся в цикле: следующая попытка по таймеру
	return sent > 0, nil
}

func (w *OutboxWorker) processEvent(ctx context.Context, event *domain.OutboxEvent) error {
	req := usecase.NewWriteMessageReq(w.topic, event.AggregateID, event.EventID, event.EventType, event.Payload)
	if err := w.producer.WriteMessage(ctx, req); err != nil {
		if isRetryableError(err) {
			return e.Wrap("Temporary Kafka failure, will retry", err)
		}
		return e.Wrap("Permanent Kafka failure", err)
	}
	return nil
}

func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	var kafkaErr kafka.Error
	if errors.As(err, &kafkaErr) && kafkaErr.Temporary() {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	errStr := strings.ToLower(err.Error())
	retryablePhrases := []string{
		"connection refused",
		"i/o timeout",
		"network is unreachable",
		"broker not available",
		"connection reset",
		"broken pipe",
		"no such host",
	}
	for _, phrase := range retryablePhrases {
		if strings.Contains(errStr, phrase) {
			return true
		}
	}
	return false
}
