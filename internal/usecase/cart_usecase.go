package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"

	"github.com/DRSN-tech/shop-assistant/internal/domain"
	"github.com/DRSN-tech/shop-assistant/pkg/e"
	"github.com/DRSN-tech/shop-assistant/pkg/logger"
	"github.com/DRSN-tech/shop-assistant/pkg/tr"
	transaction "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const maxItemQuantity = 99

// CatalogReader — доступ к опубликованному снимку каталога.
type CatalogReader interface {
	Get(ctx context.Context, id string) (*ProductInfo, error)
}

// CartUseCase ведёт корзину в Redis и оформляет заказ в Postgres.
type CartUseCase struct {
	cartRepo    CartRepository
	catalog     CatalogReader
	productRepo ProductRepository
	orderRepo   OrderRepository
	outboxRepo  OutboxRepository
	dbPool      transaction.Transactional
	logger      logger.Logger
}

func NewCartUC(
	cartRepo CartRepository,
	catalog CatalogReader,
	productRepo ProductRepository,
	orderRepo OrderRepository,
	outboxRepo OutboxRepository,
	dbPool transaction.Transactional,
	logger logger.Logger,
) *CartUseCase {
	return &CartUseCase{
		cartRepo:    cartRepo,
		catalog:     catalog,
		productRepo: productRepo,
		orderRepo:   orderRepo,
		outboxRepo:  outboxRepo,
		dbPool:      dbPool,
		logger:      logger,
	}
}

func (c *CartUseCase) AddItem(ctx context.Context, req *CartItemReq) (*CartRes, error) {
	const op = "CartUseCase.AddItem"

	if req.Quantity <= 0 || req.Quantity > maxItemQuantity {
		return nil, e.Wrap(op, e.ErrInvalidQuantity)
	}

	product, err := c.catalog.Get(ctx, req.ProductID)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	if _, err := c.cartRepo.AddItem(ctx, req.Username, product.ID, req.Quantity); err != nil {
		return nil, e.Wrap(op, err)
	}

	return c.GetCart(ctx, req.Username)
}

func (c *CartUseCase) RemoveItem(ctx context.Context, req *CartItemReq) (*CartRes, error) {
	const op = "CartUseCase.RemoveItem"

	if err := c.cartRepo.RemoveItem(ctx, req.Username, strings.TrimSpace(req.ProductID)); err != nil {
		return nil, e.Wrap(op, err)
	}

	return c.GetCart(ctx, req.Username)
}

// GetCart возвращает корзину с ценами из текущего каталога. Позиции, которых
// больше нет в каталоге, пропускаются.
func (c *CartUseCase) GetCart(ctx context.Context, username string) (*CartRes, error) {
	const op = "CartUseCase.GetCart"

	items, err := c.cartRepo.GetItems(ctx, username)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	ids := make([]string, 0, len(items))
	for id := range items {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	cart := domain.Cart{Username: username}
	for _, id := range ids {
		p, err := c.catalog.Get(ctx, id)
		if err != nil {
			if errors.Is(err, e.ErrProductNotFound) {
				c.logger.Warnf("cart of %s references unknown product %s", username, id)
				continue
			}
			return nil, e.Wrap(op, err)
		}

		cart.Items = append(cart.Items, domain.CartItem{Product: toDomainProduct(p), Quantity: items[id]})
	}

	res := &CartRes{
		Items: make([]CartLine, len(cart.Items)),
		Total: cart.Total(),
	}
	for i, it := range cart.Items {
		res.Items[i] = CartLine{
			Product:  NewProductInfo(it.Product),
			Quantity: it.Quantity,
			Subtotal: it.Subtotal(),
		}
	}

	return res, nil
}

// Checkout в одной транзакции списывает остатки, создаёт заказ и событие order.created,
// затем очищает корзину.
func (c *CartUseCase) Checkout(ctx context.Context, username string) (*OrderInfo, error) {
	const op = "CartUseCase.Checkout"

	cart, err := c.GetCart(ctx, username)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	if len(cart.Items) == 0 {
		return nil, e.Wrap(op, e.ErrEmptyCart)
	}

	items := make([]domain.OrderItem, len(cart.Items))
	for i, line := range cart.Items {
		items[i] = domain.OrderItem{
			ProductID: line.Product.ID,
			Name:      line.Product.Name,
			Price:     line.Product.Price,
			Quantity:  line.Quantity,
		}
	}
	order := domain.NewOrder(uuid.NewString(), username, items)

	payload, err := json.Marshal(newOrderCreatedPayload(order))
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	txCtx, tx, err := transaction.NewTransaction(ctx, pgx.TxOptions{}, c.dbPool)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	// Если произошла ошибка, происходит Rollback транзакции
	defer func() {
		if err != nil && tx.IsActive() {
			if rbErr := tx.Rollback(txCtx); rbErr != nil {
				c.logger.Errorf(rbErr, "checkout rollback failed")
			}
		}
	}()

	txCtx, err = tr.WithRawTx(txCtx, tx.Transaction())
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	for _, it := range order.Items {
		if err = c.productRepo.DecrementStock(txCtx, it.ProductID, it.Quantity); err != nil {
			return nil, e.Wrap(op, err)
		}
	}

	created, err := c.orderRepo.Create(txCtx, order)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	event := domain.NewOutboxEvent(uuid.NewString(), domain.EventOrderCreated, order.ID, payload)
	if _, err = c.outboxRepo.Create(txCtx, event); err != nil {
		return nil, e.Wrap(op, err)
	}

	if err = tx.Commit(txCtx); err != nil {
		return nil, e.Wrap(op, err)
	}

	// Заказ уже оформлен, поэтому ошибка очистки корзины только логируется
	if clearErr := c.cartRepo.Clear(ctx, username); clearErr != nil {
		c.logger.Warnf("failed to clear cart of %s after checkout: %v", username, clearErr)
	}

	c.logger.Infof("order %s created for %s: %d items, total %d", created.ID, username, len(created.Items), created.Total)

	return NewOrderInfo(created), nil
}

type orderCreatedPayload struct {
	OrderID  string      `json:"order_id"`
	Username string      `json:"username"`
	Total    int64       `json:"total"`
	Items    []OrderLine `json:"items"`
}

func newOrderCreatedPayload(o *domain.Order) orderCreatedPayload {
	return orderCreatedPayload{
		OrderID:  o.ID,
		Username: o.Username,
		Total:    o.Total,
		Items:    NewOrderInfo(o).Items,
	}
}

func toDomainProduct(p *ProductInfo) domain.Product {
	return domain.Product{
		ID:          p.ID,
		Name:        p.Name,
		Image:       p.Image,
		Price:       p.Price,
		Stock:       p.Stock,
		Category:    p.Category,
		Description: p.Description,
	}
}
