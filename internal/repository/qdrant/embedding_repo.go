package qdrant

import (
	"context"

	"github.com/DRSN-tech/shop-assistant/internal/cfg"
	"github.com/DRSN-tech/shop-assistant/internal/domain"
	"github.com/DRSN-tech/shop-assistant/pkg/e"
	"github.com/jimlawless/whereami"
	"github.com/qdrant/go-client/qdrant"
)

// EmbeddingRepo репозиторий для работы с embedding-векторами в Qdrant.
// Используется как постоянный кэш эмбеддингов названий товаров.
type EmbeddingRepo struct {
	client *qdrant.Client
	cfg    *cfg.QdrantCfg
}

func NewEmbeddingRepo(client *qdrant.Client, cfg *cfg.QdrantCfg) *EmbeddingRepo {
	return &EmbeddingRepo{
		client: client,
		cfg:    cfg,
	}
}

// GetByIDs возвращает найденные векторы по UUID точек. Отсутствующие точки в ответ не попадают.
func (q *EmbeddingRepo) GetByIDs(ctx context.Context, ids []string) (map[string][]float32, error) {
	if len(ids) == 0 {
		return map[string][]float32{}, nil
	}

	pointIDs := make([]*qdrant.PointId, len(ids))
	for i, id := range ids {
		pointIDs[i] = qdrant.NewIDUUID(id)
	}

	points, err := q.client.Get(ctx, &qdrant.GetPoints{
		CollectionName: q.cfg.QdrantCollectionName,
		Ids:            pointIDs,
		WithVectors:    qdrant.NewWithVectors(true),
		WithPayload:    qdrant.NewWithPayload(false),
	})
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	result := make(map[string][]float32, len(points))
	for _, p := range points {
		vec := p.GetVectors().GetVector().GetData()
		if len(vec) == 0 {
			continue
		}
		result[p.GetId().GetUuid()] = vec
	}

	return result, nil
}

// Upsert сохраняет или обновляет embedding-векторы в указанной коллекции Qdrant.
func (q *EmbeddingRepo) Upsert(ctx context.Context, vectors []domain.Embedding) error {
	if len(vectors) == 0 {
		return nil
	}

	reqVectors := make([]*qdrant.PointStruct, 0, len(vectors))
	for _, vector := range vectors {
		reqVectors = append(reqVectors, &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(vector.ID),
			Vectors: qdrant.NewVectors(vector.Vector...),
			Payload: qdrant.NewValueMap(vector.Payload),
		})
	}

	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.cfg.QdrantCollectionName,
		Points:         reqVectors,
	})
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}
