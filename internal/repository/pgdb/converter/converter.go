package converter

import (
	"github.com/DRSN-tech/shop-assistant/internal/domain"
)

// ProductConverter преобразует сущности Product между domain и моделью PostgreSQL.
type ProductConverter interface {
	ToModel(entity *domain.Product) *ProductModel
	ToEntity(model *ProductModel) *domain.Product
}

// UserConverter преобразует сущности User между domain и моделью PostgreSQL.
type UserConverter interface {
	ToModel(entity *domain.User) *UserModel
	ToEntity(model *UserModel) *domain.User
}

// OrderConverter собирает заказ из строки orders и его позиций.
type OrderConverter interface {
	ToModel(entity *domain.Order) (*OrderModel, []OrderItemModel)
	ToEntity(model *OrderModel, items []OrderItemModel) *domain.Order
}

// OutboxEventConverter преобразует сущности OutboxEvent между domain и моделью PostgreSQL.
type OutboxEventConverter interface {
	ToModel(entity *domain.OutboxEvent) *OutboxEventModel
	ToEntity(model *OutboxEventModel) *domain.OutboxEvent
	ToArrEntity(models []*OutboxEventModel) []*domain.OutboxEvent
}

type productConverter struct{}

func NewProductConverter() ProductConverter { return productConverter{} }

func (productConverter) ToModel(entity *domain.Product) *ProductModel {
	if entity == nil {
		return nil
	}
	return &ProductModel{
		ID:          entity.ID,
		Name:        entity.Name,
		Image:       entity.Image,
		Price:       entity.Price,
		Stock:       entity.Stock,
		Category:    entity.Category,
		Description: entity.Description,
	}
}

func (productConverter) ToEntity(model *ProductModel) *domain.Product {
	if model == nil {
		return nil
	}
	return &domain.Product{
		ID:          model.ID,
		Name:        model.Name,
		Image:       model.Image,
		Price:       model.Price,
		Stock:       model.Stock,
		Category:    model.Category,
		Description: model.Description,
	}
}

type userConverter struct{}

func NewUserConverter() UserConverter { return userConverter{} }

func (userConverter) ToModel(entity *domain.User) *UserModel {
	if entity == nil {
		return nil
	}
	return &UserModel{
		ID:           entity.ID,
		Name:         entity.Name,
		Email:        entity.Email,
		Username:     entity.Username,
		PasswordHash: entity.PasswordHash,
		CreatedAt:    entity.CreatedAt,
	}
}

func (userConverter) ToEntity(model *UserModel) *domain.User {
	if model == nil {
		return nil
	}
	return &domain.User{
		ID:           model.ID,
		Name:         model.Name,
		Email:        model.Email,
		Username:     model.Username,
		PasswordHash: model.PasswordHash,
		CreatedAt:    model.CreatedAt,
	}
}

type orderConverter struct{}

func NewOrderConverter() OrderConverter { return orderConverter{} }

func (orderConverter) ToModel(entity *domain.Order) (*OrderModel, []OrderItemModel) {
	if entity == nil {
		return nil, nil
	}

	items := make([]OrderItemModel, len(entity.Items))
	for i, it := range entity.Items {
		items[i] = OrderItemModel{
			OrderID:   entity.ID,
			ProductID: it.ProductID,
			Name:      it.Name,
			Price:     it.Price,
			Quantity:  it.Quantity,
		}
	}

	return &OrderModel{
		ID:         entity.ID,
		Username:   entity.Username,
		Total:      entity.Total,
		Status:     string(entity.Status),
		ReceiptKey: entity.ReceiptKey,
		CreatedAt:  entity.CreatedAt,
	}, items
}

func (orderConverter) ToEntity(model *OrderModel, items []OrderItemModel) *domain.Order {
	if model == nil {
		return nil
	}

	order := &domain.Order{
		ID:         model.ID,
		Username:   model.Username,
		Total:      model.Total,
		Status:     domain.OrderStatus(model.Status),
		ReceiptKey: model.ReceiptKey,
		CreatedAt:  model.CreatedAt,
		Items:      make([]domain.OrderItem, len(items)),
	}
	for i, it := range items {
		order.Items[i] = domain.OrderItem{
			ProductID: it.ProductID,
			Name:      it.Name,
			Price:     it.Price,
			Quantity:  it.Quantity,
		}
	}

	return order
}

type outboxEventConverter struct{}

func NewOutboxEventConverter() OutboxEventConverter { return outboxEventConverter{} }

func (outboxEventConverter) ToModel(entity *domain.OutboxEvent) *OutboxEventModel {
	if entity == nil {
		return nil
	}
	return &OutboxEventModel{
		ID:          entity.ID,
		EventID:     entity.EventID,
		EventType:   entity.EventType,
		AggregateID: entity.AggregateID,
		Payload:     entity.Payload,
		Status:      string(entity.Status),
		CreatedAt:   entity.CreatedAt,
		ProcessedAt: entity.ProcessedAt,
	}
}

func (outboxEventConverter) ToEntity(model *OutboxEventModel) *domain.OutboxEvent {
	if model == nil {
		return nil
	}
	return &domain.OutboxEvent{
		ID:          model.ID,
		EventID:     model.EventID,
		EventType:   model.EventType,
		AggregateID: model.AggregateID,
		Payload:     model.Payload,
		Status:      domain.OutboxStatus(model.Status),
		CreatedAt:   model.CreatedAt,
		ProcessedAt: model.ProcessedAt,
	}
}

func (c outboxEventConverter) ToArrEntity(models []*OutboxEventModel) []*domain.OutboxEvent {
	res := make([]*domain.OutboxEvent, 0, len(models))
	for _, m := range models {
		res = append(res, c.ToEntity(m))
	}
	return res
}
