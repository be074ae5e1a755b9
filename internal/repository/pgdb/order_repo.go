package pgdb

import (
	"context"
	"errors"

	"github.com/DRSN-tech/shop-assistant/internal/domain"
	"github.com/DRSN-tech/shop-assistant/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/shop-assistant/pkg/e"
	"github.com/DRSN-tech/shop-assistant/pkg/tr"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
)

// OrderRepo хранит заказы и их позиции.
type OrderRepo struct {
	pool *pgxpool.Pool
	conv converter.OrderConverter
}

func NewOrderRepo(pool *pgxpool.Pool, conv converter.OrderConverter) *OrderRepo {
	return &OrderRepo{pool: pool, conv: conv}
}

// Create записывает заказ вместе с позициями. Вызывается только внутри транзакции.
func (o *OrderRepo) Create(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	model, items := o.conv.ToModel(order)
	query := `
		INSERT INTO orders (id, username, total, status)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at;
	`

	if err := tx.QueryRow(ctx, query, model.ID, model.Username, model.Total, model.Status).
		Scan(&model.CreatedAt); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	rows := make([][]any, len(items))
	for i, it := range items {
		rows[i] = []any{it.OrderID, it.ProductID, it.Name, it.Price, it.Quantity}
	}

	if _, err := tx.CopyFrom(ctx,
		pgx.Identifier{"order_items"},
		[]string{"order_id", "product_id", "name", "price", "quantity"},
		pgx.CopyFromRows(rows),
	); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return o.conv.ToEntity(model, items), nil
}

// GetByID возвращает заказ только его владельцу. Чужой заказ неотличим от несуществующего.
func (o *OrderRepo) GetByID(ctx context.Context, id string, username string) (*domain.Order, error) {
	q := tr.QuerierFromCtx(ctx, o.pool)

	var model converter.OrderModel
	err := q.QueryRow(ctx, `
		SELECT id, username, total, status, receipt_key, created_at
		FROM orders
		WHERE id = $1 AND username = $2
	`, id, username).Scan(
		&model.ID, &model.Username, &model.Total, &model.Status, &model.ReceiptKey, &model.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, e.Wrap(whereami.WhereAmI(), e.ErrOrderNotFound)
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	rows, err := q.Query(ctx, `
		SELECT order_id, product_id, name, price, quantity
		FROM order_items
		WHERE order_id = $1
		ORDER BY product_id
	`, id)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	items := make([]converter.OrderItemModel, 0)
	for rows.Next() {
		var it converter.OrderItemModel
		if err := rows.Scan(&it.OrderID, &it.ProductID, &it.Name, &it.Price, &it.Quantity); err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
		items = append(items, it)
	}

	if err := rows.Err(); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return o.conv.ToEntity(&model, items), nil
}

func (o *OrderRepo) SetReceiptKey(ctx context.Context, id string, key string) error {
	tag, err := tr.QuerierFromCtx(ctx, o.pool).Exec(ctx,
		`UPDATE orders SET receipt_key = $2 WHERE id = $1`, id, key)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if tag.RowsAffected() == 0 {
		return e.Wrap(whereami.WhereAmI(), e.ErrOrderNotFound)
	}

	return nil
}
