package ml_service

import (
	"context"
	"image"

	"github.com/DRSN-tech/shop-assistant/internal/domain"
	"github.com/DRSN-tech/shop-assistant/internal/usecase"
	"github.com/DRSN-tech/shop-assistant/pkg/logger"
	"github.com/DRSN-tech/shop-assistant/pkg/metrics"
	"github.com/google/uuid"
)

// embeddingNamespace — пространство имён UUIDv5 для точек Qdrant.
var embeddingNamespace = uuid.MustParse("6f1c8e52-3b0a-4f3e-9d7a-2f4c5b6a7e81")

// CachedEncoder хранит эмбеддинги названий товаров в Qdrant, чтобы перезагрузка
// каталога не кодировала заново неизменившиеся названия. Сбои Qdrant не мешают кодированию.
type CachedEncoder struct {
	inner  usecase.EncoderInfra
	repo   usecase.EmbeddingRepository
	model  string
	logger logger.Logger
}

func NewCachedEncoder(inner usecase.EncoderInfra, repo usecase.EmbeddingRepository, model string, logger logger.Logger) *CachedEncoder {
	return &CachedEncoder{inner: inner, repo: repo, model: model, logger: logger}
}

// EmbeddingID возвращает детерминированный id точки для пары модель/текст.
func EmbeddingID(model, text string) string {
	return uuid.NewSHA1(embeddingNamespace, []byte(model+"\x00"+text)).String()
}

func (c *CachedEncoder) EncodeText(ctx context.Context, text string) ([]float32, error) {
	id := EmbeddingID(c.model, text)

	found, err := c.repo.GetByIDs(ctx, []string{id})
	if err != nil {
		c.logger.Warnf("embedding cache lookup failed: %v", err)
	} else if vec, ok := found[id]; ok {
		metrics.EmbeddingCache.WithLabelValues("qdrant", "hit").Inc()
		return vec, nil
	}
	metrics.EmbeddingCache.WithLabelValues("qdrant", "miss").Inc()

	vec, err := c.inner.EncodeText(ctx, text)
	if err != nil {
		return nil, err
	}

	emb := domain.NewEmbedding(id, vec, domain.NewPayload(text, c.model))
	if err := c.repo.Upsert(ctx, []domain.Embedding{*emb}); err != nil {
		c.logger.Warnf("failed to store embedding for %q: %v", text, err)
	}

	return vec, nil
}

// EncodeImage не кэшируется здесь: фото кэшируются в памяти по хешу содержимого.
func (c *CachedEncoder) EncodeImage(ctx context.Context, img image.Image) ([]float32, error) {
	return c.inner.EncodeImage(ctx, img)
}
