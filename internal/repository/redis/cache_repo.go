package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/DRSN-tech/shop-assistant/internal/cfg"
	"github.com/DRSN-tech/shop-assistant/internal/repository/redis/converter"
	"github.com/DRSN-tech/shop-assistant/pkg/clients"
	"github.com/DRSN-tech/shop-assistant/pkg/e"
	"github.com/DRSN-tech/shop-assistant/pkg/logger"
	"github.com/jimlawless/whereami"
	r "github.com/redis/go-redis/v9"
)

// CacheRepo кэширует выдачу рекомендаций. Ключ уже содержит версию каталога,
// поэтому после перезагрузки старые записи просто истекают по TTL.
type CacheRepo struct {
	client *clients.RedisClient
	conv   converter.RecommendationsConverter
	cfg    *cfg.RedisCfg
	logger logger.Logger
}

func NewCacheRepo(client *clients.RedisClient, conv converter.RecommendationsConverter,
	cfg *cfg.RedisCfg, logger logger.Logger) *CacheRepo {
	return &CacheRepo{
		client: client,
		conv:   conv,
		cfg:    cfg,
		logger: logger,
	}
}

// GetRecommendations возвращает nil без ошибки при промахе. Битая запись удаляется и считается промахом.
func (c *CacheRepo) GetRecommendations(ctx context.Context, key string) ([]string, error) {
	val, err := c.client.Client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, r.Nil) {
			return nil, nil // cache miss
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	data, err := redisValueToBytes(val, key)
	if err != nil || data == nil {
		return nil, err
	}

	model, err := c.unmarshalRecommendations(data)
	if err != nil {
		c.logger.Warnf("Redis unmarshal failed: %v", e.Wrap(whereami.WhereAmI(), err))
		if err := c.client.Client.Del(context.Background(), key).Err(); err != nil {
			c.logger.Warnf("Redis del failed: %v", e.Wrap(whereami.WhereAmI(), err))
		}
		return nil, nil
	}

	return c.conv.ToIDs(model), nil
}

func (c *CacheRepo) SetRecommendations(ctx context.Context, key string, ids []string) error {
	data, err := json.Marshal(c.conv.ToRedisModel(ids))
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if err := c.client.Client.Set(ctx, key, data, c.cfg.RecommendationTTL).Err(); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// unmarshalRecommendations десериализует JSON из кэша
func (c *CacheRepo) unmarshalRecommendations(data []byte) (*converter.RecommendationsRedisModel, error) {
	var model converter.RecommendationsRedisModel
	if err := json.Unmarshal(data, &model); err != nil {
		return nil, err
	}

	return &model, nil
}

// redisValueToBytes конвертирует значение из Redis в []byte.
// Поддерживает string и []byte, возвращает ошибку для неизвестных типов.
func redisValueToBytes(val interface{}, key string) ([]byte, error) {
	switch v := val.(type) {
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	case nil:
		return nil, nil // cache miss
	default:
		return nil, fmt.Errorf("unexpected Redis value type for key %s: %T", key, val)
	}
}
