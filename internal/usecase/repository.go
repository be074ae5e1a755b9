package usecase

import (
	"context"
	"time"

	"github.com/DRSN-tech/shop-assistant/internal/domain"
)

type ProductRepository interface {
	ListAll(ctx context.Context) ([]domain.Product, error)
	UpsertCatalog(ctx context.Context, products []domain.Product) error
	DecrementStock(ctx context.Context, productID string, quantity int64) error
}

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
}

type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) (*domain.Order, error)
	GetByID(ctx context.Context, id string, username string) (*domain.Order, error)
	SetReceiptKey(ctx context.Context, id string, key string) error
}

type OutboxRepository interface {
	Create(ctx context.Context, event *domain.OutboxEvent) (*domain.OutboxEvent, error)
	GetAndMarkAsProcessing(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkAsProcessed(ctx context.Context, id int64) error
	MarkAsPending(ctx context.Context, id int64) error
	ResetStale(ctx context.Context, olderThan time.Duration) (int64, error)
}

type EmbeddingRepository interface {
	GetByIDs(ctx context.Context, ids []string) (map[string][]float32, error)
	Upsert(ctx context.Context, embeddings []domain.Embedding) error
}

type CartRepository interface {
	AddItem(ctx context.Context, username string, productID string, quantity int64) (int64, error)
	RemoveItem(ctx context.Context, username string, productID string) error
	GetItems(ctx context.Context, username string) (map[string]int64, error)
	Clear(ctx context.Context, username string) error
}

type CacheRepository interface {
	// GetRecommendations возвращает nil без ошибки, если ключа нет.
	GetRecommendations(ctx context.Context, key string) ([]string, error)
	SetRecommendations(ctx context.Context, key string, ids []string) error
}

type ObjectRepository interface {
	Upload(ctx context.Context, object *domain.Object) (string, error)
	Delete(ctx context.Context, key string) error
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}
