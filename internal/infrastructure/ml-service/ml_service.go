package ml_service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/DRSN-tech/shop-assistant/pkg/e"
	"github.com/DRSN-tech/shop-assistant/pkg/imaging"
	"github.com/DRSN-tech/shop-assistant/pkg/jitter"
	"github.com/DRSN-tech/shop-assistant/pkg/logger"
	"github.com/DRSN-tech/shop-assistant/pkg/metrics"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/sync/semaphore"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	EncodeTextMethod  = "/ml.v1.EncoderService/EncodeText"
	EncodeImageMethod = "/ml.v1.EncoderService/EncodeImage"

	baseJitter = 200 * time.Millisecond
	maxJitter  = 5 * time.Second
)

// MLService клиент мультимодального кодировщика (CLIP) во внешнем ML-сервисе.
// Запросы и ответы передаются как google.protobuf.Struct.
type MLService struct {
	conn           grpc.ClientConnInterface
	model          string
	sem            *semaphore.Weighted
	maxRetries     int
	requestTimeout time.Duration
	breaker        *gobreaker.CircuitBreaker[[]float32]
	logger         logger.Logger
}

type Options struct {
	Model          string
	MaxConcurrent  int
	MaxRetries     int
	RequestTimeout time.Duration
}

func NewMLService(conn grpc.ClientConnInterface, opts Options, logger logger.Logger) *MLService {
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 1
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 1
	}

	breaker := gobreaker.NewCircuitBreaker[[]float32](gobreaker.Settings{
		Name:        "ml-encoder",
		MaxRequests: 1,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// Неверный ввод — ошибка клиента, а не сервиса
		IsSuccessful: func(err error) bool {
			return err == nil || !retryable(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warnf("circuit breaker %s: %s -> %s", name, from, to)
		},
	})

	return &MLService{
		conn:           conn,
		model:          opts.Model,
		sem:            semaphore.NewWeighted(int64(opts.MaxConcurrent)),
		maxRetries:     opts.MaxRetries,
		requestTimeout: opts.RequestTimeout,
		breaker:        breaker,
		logger:         logger,
	}
}

// EncodeText возвращает эмбеддинг текста в общем пространстве текст/изображение.
func (m *MLService) EncodeText(ctx context.Context, text string) ([]float32, error) {
	const op = "MLService.EncodeText"

	vec, err := m.encode(ctx, EncodeTextMethod, map[string]any{
		"text":  text,
		"model": m.model,
	})
	metrics.EncoderCalls.WithLabelValues("text", metrics.Result(err)).Inc()
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return vec, nil
}

// EncodeImage отправляет изображение в PNG и возвращает его эмбеддинг.
func (m *MLService) EncodeImage(ctx context.Context, img image.Image) ([]float32, error) {
	const op = "MLService.EncodeImage"

	data, err := imaging.EncodePNG(img)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	vec, err := m.encode(ctx, EncodeImageMethod, map[string]any{
		"image_b64": base64.StdEncoding.EncodeToString(data),
		"mime_type": "image/png",
		"model":     m.model,
	})
	metrics.EncoderCalls.WithLabelValues("image", metrics.Result(err)).Inc()
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return vec, nil
}

// encode выполняет запрос с retry-логикой и экспоненциальной задержкой.
// Повторяются только временные ошибки транспорта.
func (m *MLService) encode(ctx context.Context, method string, fields map[string]any) ([]float32, error) {
	req, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt < m.maxRetries; attempt++ {
		vec, err := m.tryOnce(ctx, method, req)
		if err == nil {
			return vec, nil
		}
		lastErr = err

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, errors.Join(e.ErrEncoderUnavailable, err)
		}
		if !retryable(err) {
			return nil, err
		}
		if attempt == m.maxRetries-1 {
			break
		}

		sleepTime := jitter.ExponentialBackoff(baseJitter, maxJitter, attempt, jitter.DefaultJitter)
		m.logger.Warnf("encoding failed, retrying in %v (attempt %d): %v", sleepTime, attempt+1, err)

		select {
		case <-time.After(sleepTime):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, errors.Join(e.ErrEncoderUnavailable, fmt.Errorf("all %d attempts failed: %w", m.maxRetries, lastErr))
}

// tryOnce занимает слот семафора только на время одного вызова, паузы между повторами его не держат.
func (m *MLService) tryOnce(ctx context.Context, method string, req *structpb.Struct) ([]float32, error) {
	if err := m.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer m.sem.Release(1)

	return m.breaker.Execute(func() ([]float32, error) {
		return m.call(ctx, method, req)
	})
}

func (m *MLService) call(ctx context.Context, method string, req *structpb.Struct) ([]float32, error) {
	if m.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.requestTimeout)
		defer cancel()
	}

	res := &structpb.Struct{}
	if err := m.conn.Invoke(ctx, method, req, res); err != nil {
		return nil, err
	}

	return vectorFromResponse(res)
}

// vectorFromResponse достаёт поле vector из ответа.
func vectorFromResponse(res *structpb.Struct) ([]float32, error) {
	field, ok := res.GetFields()["vector"]
	if !ok {
		return nil, e.Wrap("vector", e.ErrUpstream)
	}

	values := field.GetListValue().GetValues()
	if len(values) == 0 {
		return nil, e.ErrEmptyVector
	}

	vec := make([]float32, len(values))
	for i, v := range values {
		if _, ok := v.GetKind().(*structpb.Value_NumberValue); !ok {
			return nil, e.Wrapf(e.ErrUpstream, "vector[%d] is not a number", i)
		}
		vec[i] = float32(v.GetNumberValue())
	}

	return vec, nil
}

func retryable(err error) bool {
	switch status.Code(err) {
	case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted, codes.Aborted:
		return true
	default:
		return false
	}
}
