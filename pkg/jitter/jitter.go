// Package jitter считает интервалы повторов со случайной добавкой,
// чтобы повторные запросы к ML-сервису, MinIO и Kafka не приходили одной волной.
package jitter

import (
	"math/rand"
	"sync"
	"time"
)

// DefaultJitter — стандартный коэффициент джиттера (50%)
const DefaultJitter = 0.5

var (
	globalRand = rand.New(rand.NewSource(time.Now().UnixNano()))
	randMutex  sync.Mutex
)

// Backoff описывает политику экспоненциальной задержки.
type Backoff struct {
	Base   time.Duration
	Max    time.Duration
	Jitter float64
}

// NewBackoff создаёт политику с коэффициентом DefaultJitter.
func NewBackoff(base, max time.Duration) Backoff {
	return Backoff{Base: base, Max: max, Jitter: DefaultJitter}
}

// Next возвращает задержку перед попыткой attempt (нумерация с нуля).
func (b Backoff) Next(attempt int) time.Duration {
	return ExponentialBackoff(b.Base, b.Max, attempt, b.Jitter)
}

// Duration возвращает продолжительность с применённым джиттером.
// Результат находится в диапазоне [d, d*(1+jitterFactor)].
func Duration(d time.Duration, jitterFactor float64) time.Duration {
	if d <= 0 || jitterFactor <= 0 {
		return d
	}
	randMutex.Lock()
	jitter := globalRand.Float64() * jitterFactor * float64(d)
	randMutex.Unlock()
	return d + time.Duration(jitter)
}

// ExponentialBackoff вычисляет экспоненциальное отступление с джиттером.
// Базовая задержка удваивается на каждой попытке и ограничивается max до применения джиттера.
func ExponentialBackoff(base, max time.Duration, attempt int, jitterFactor float64) time.Duration {
	backoff := base
	for i := 0; i < attempt; i++ {
		backoff *= 2
		if backoff > max {
			backoff = max
			break
		}
	}
	return Duration(backoff, jitterFactor)
}
