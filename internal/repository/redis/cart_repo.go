package redis

import (
	"context"
	"fmt"

	"github.com/DRSN-tech/shop-assistant/internal/cfg"
	"github.com/DRSN-tech/shop-assistant/internal/repository/redis/converter"
	"github.com/DRSN-tech/shop-assistant/pkg/clients"
	"github.com/DRSN-tech/shop-assistant/pkg/e"
	"github.com/DRSN-tech/shop-assistant/pkg/logger"
	"github.com/jimlawless/whereami"
)

// CartRepo хранит корзину покупателя в хэше cart:{username}: поле — id товара, значение — количество.
type CartRepo struct {
	client *clients.RedisClient
	cfg    *cfg.RedisCfg
	logger logger.Logger
}

func NewCartRepo(client *clients.RedisClient, cfg *cfg.RedisCfg, logger logger.Logger) *CartRepo {
	return &CartRepo{client: client, cfg: cfg, logger: logger}
}

// AddItem увеличивает количество товара и продлевает жизнь корзины. Возвращает новое количество.
func (c *CartRepo) AddItem(ctx context.Context, username string, productID string, quantity int64) (int64, error) {
	key := cartKey(username)

	pipe := c.client.Client.TxPipeline()
	incr := pipe.HIncrBy(ctx, key, productID, quantity)
	pipe.Expire(ctx, key, c.cfg.CartTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, e.Wrap(whereami.WhereAmI(), err)
	}

	return incr.Val(), nil
}

func (c *CartRepo) RemoveItem(ctx context.Context, username string, productID string) error {
	if err := c.client.Client.HDel(ctx, cartKey(username), productID).Err(); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// GetItems возвращает содержимое корзины. Нечисловые значения пропускаются.
func (c *CartRepo) GetItems(ctx context.Context, username string) (map[string]int64, error) {
	raw, err := c.client.Client.HGetAll(ctx, cartKey(username)).Result()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	items := make(map[string]int64, len(raw))
	for id, val := range raw {
		qty, err := converter.ParseQuantity(val)
		if err != nil || qty <= 0 {
			c.logger.Warnf("Skipping broken cart entry: user: %s, product: %s, value: %q", username, id, val)
			continue
		}
		items[id] = qty
	}

	return items, nil
}

func (c *CartRepo) Clear(ctx context.Context, username string) error {
	if err := c.client.Client.Del(ctx, cartKey(username)).Err(); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

func cartKey(username string) string {
	return fmt.Sprintf("cart:%s", username)
}
