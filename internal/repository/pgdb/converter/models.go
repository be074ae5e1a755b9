package converter

import "time"

// ProductModel представляет запись таблицы products в PostgreSQL.
type ProductModel struct {
	ID          string     `db:"id"`
	Name        string     `db:"name"`
	Image       string     `db:"image"`
	Price       int64      `db:"price"`
	Stock       int64      `db:"stock"`
	Category    string     `db:"category"`
	Description string     `db:"description"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   *time.Time `db:"updated_at"`
}

// UserModel представляет запись таблицы users.
type UserModel struct {
	ID           int64     `db:"id"`
	Name         string    `db:"name"`
	Email        string    `db:"email"`
	Username     string    `db:"username"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
}

// OrderModel представляет запись таблицы orders.
type OrderModel struct {
	ID         string    `db:"id"`
	Username   string    `db:"username"`
	Total      int64     `db:"total"`
	Status     string    `db:"status"`
	ReceiptKey *string   `db:"receipt_key"`
	CreatedAt  time.Time `db:"created_at"`
}

// OrderItemModel представляет запись таблицы order_items.
type OrderItemModel struct {
	OrderID   string `db:"order_id"`
	ProductID string `db:"product_id"`
	Name      string `db:"name"`
	Price     int64  `db:"price"`
	Quantity  int64  `db:"quantity"`
}

type OutboxEventModel struct {
	ID          int64      `db:"id"`
	EventID     string     `db:"event_id"`
	EventType   string     `db:"event_type"`
	AggregateID string     `db:"aggregate_id"`
	Payload     []byte     `db:"payload"`
	Status      string     `db:"status"`
	CreatedAt   time.Time  `db:"created_at"`
	ProcessedAt *time.Time `db:"processed_at"`
}
