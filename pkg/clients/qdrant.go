package clients

import (
	"context"
	"fmt"

	"github.com/DRSN-tech/shop-assistant/internal/cfg"
	"github.com/DRSN-tech/shop-assistant/pkg/e"
	"github.com/jimlawless/whereami"
	"github.com/qdrant/go-client/qdrant"
)

// modelField — поле payload, по которому отбираются эмбеддинги одной модели.
const modelField = "model"

type QdrantClient struct {
	Client *qdrant.Client
	cfg    *cfg.QdrantCfg
}

func NewQdrantClient(cfg *cfg.QdrantCfg) (*QdrantClient, error) {
	qdrantClient, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.ApiKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &QdrantClient{
		Client: qdrantClient,
		cfg:    cfg,
	}, nil
}

// EnsureCollection создаёт коллекцию кэша эмбеддингов и индекс по модели, если их ещё нет.
func EnsureCollection(ctx context.Context, client *QdrantClient) error {
	exists, err := client.Client.CollectionExists(ctx, client.cfg.QdrantCollectionName)
	if err != nil {
		return fmt.Errorf("failed to check collection existence: %w", err)
	}
	if exists {
		return nil
	}

	if err := client.Client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: client.cfg.QdrantCollectionName,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     client.cfg.VectorSize,
			Distance: qdrant.Distance_Cosine,
		}),
	}); err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	if _, err := client.Client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
		CollectionName: client.cfg.QdrantCollectionName,
		FieldName:      modelField,
		FieldType:      qdrant.FieldType_FieldTypeKeyword.Enum(),
	}); err != nil {
		return fmt.Errorf("failed to create payload index: %w", err)
	}

	return nil
}

func (c *QdrantClient) Close() error {
	return c.Client.Close()
}
