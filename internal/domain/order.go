package domain

import "time"

type OrderStatus string

const (
	OrderCreated OrderStatus = "created"
)

// OrderItem — позиция заказа. Цена фиксируется на момент оформления.
type OrderItem struct {
	ProductID string
	Name      string
	Price     int64
	Quantity  int64
}

// Order описывает оформленный заказ
type Order struct {
	ID         string // uuid
	Username   string
	Items      []OrderItem
	Total      int64
	Status     OrderStatus
	ReceiptKey *string
	CreatedAt  time.Time
}

func NewOrder(id string, username string, items []OrderItem) *Order {
	var total int64
	for _, it := range items {
		total += it.Price * it.Quantity
	}

	return &Order{
		ID:       id,
		Username: username,
		Items:    items,
		Total:    total,
		Status:   OrderCreated,
	}
}
