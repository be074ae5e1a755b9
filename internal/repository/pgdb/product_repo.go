package pgdb

import (
	"context"

	"github.com/DRSN-tech/shop-assistant/internal/domain"
	"github.com/DRSN-tech/shop-assistant/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/shop-assistant/pkg/e"
	"github.com/DRSN-tech/shop-assistant/pkg/tr"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
)

// ProductRepo реализует репозиторий продуктов поверх PostgreSQL.
type ProductRepo struct {
	pool *pgxpool.Pool
	conv converter.ProductConverter
}

func NewProductRepo(pool *pgxpool.Pool, conv converter.ProductConverter) *ProductRepo {
	return &ProductRepo{
		pool: pool,
		conv: conv,
	}
}

// ListAll возвращает весь каталог в порядке добавления.
func (p *ProductRepo) ListAll(ctx context.Context) ([]domain.Product, error) {
	query := `
		SELECT id, name, image, price, stock, category, description, created_at, updated_at
		FROM products
		ORDER BY position
	`

	rows, err := tr.QuerierFromCtx(ctx, p.pool).Query(ctx, query)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	result := make([]domain.Product, 0)
	for rows.Next() {
		var model converter.ProductModel
		if err := rows.Scan(
			&model.ID, &model.Name, &model.Image, &model.Price, &model.Stock,
			&model.Category, &model.Description, &model.CreatedAt, &model.UpdatedAt,
		); err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}

		result = append(result, *p.conv.ToEntity(&model))
	}

	if err := rows.Err(); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return result, nil
}

// UpsertCatalog идемпотентно переносит каталог в таблицу products одним батчем.
// Остаток задаётся только при вставке: у существующих товаров его ведут заказы.
func (p *ProductRepo) UpsertCatalog(ctx context.Context, products []domain.Product) error {
	if len(products) == 0 {
		return nil
	}

	query := `
		INSERT INTO products (id, name, image, price, stock, category, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id)
		DO UPDATE SET
			name = EXCLUDED.name,
			image = EXCLUDED.image,
			price = EXCLUDED.price,
			category = EXCLUDED.category,
			description = EXCLUDED.description,
			updated_at = NOW()
		WHERE
			products.name IS DISTINCT FROM EXCLUDED.name OR
			products.image IS DISTINCT FROM EXCLUDED.image OR
			products.price IS DISTINCT FROM EXCLUDED.price OR
			products.category IS DISTINCT FROM EXCLUDED.category OR
			products.description IS DISTINCT FROM EXCLUDED.description
	`

	batch := &pgx.Batch{}
	for i := range products {
		m := p.conv.ToModel(&products[i])
		batch.Queue(query, m.ID, m.Name, m.Image, m.Price, m.Stock, m.Category, m.Description)
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if err = tx.SendBatch(ctx, batch).Close(); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if err = tx.Commit(ctx); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// DecrementStock списывает остаток внутри транзакции оформления заказа.
func (p *ProductRepo) DecrementStock(ctx context.Context, productID string, quantity int64) error {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	query := `
		UPDATE products
		SET stock = stock - $2, updated_at = NOW()
		WHERE id = $1 AND stock >= $2
	`

	tag, err := tx.Exec(ctx, query, productID, quantity)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if tag.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM products WHERE id = $1)`, productID).Scan(&exists); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}
	if !exists {
		return e.Wrapf(e.ErrProductNotFound, "%s: product %s", whereami.WhereAmI(), productID)
	}

	return e.Wrapf(e.ErrInsufficientStock, "%s: product %s", whereami.WhereAmI(), productID)
}
