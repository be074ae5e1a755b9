package usecase

import (
	"time"

	"github.com/DRSN-tech/shop-assistant/internal/domain"
)

// CATALOG USECASE

// CatalogStatus описывает опубликованный снимок каталога.
type CatalogStatus struct {
	Version        string
	Products       int
	VocabularySize int
	HasEmbeddings  bool
	BuiltAt        time.Time
}

// ListProductsReq — запрос списка товаров. Пустая категория означает все товары.
type ListProductsReq struct {
	Category string
	Offset   int
	Limit    int
}

type ListProductsRes struct {
	Products []ProductInfo
	Total    int
}

// ProductInfo — DTO с информацией о товаре для внешнего использования.
type ProductInfo struct {
	ID          string
	Name        string
	Image       string
	Price       int64
	Stock       int64
	Category    string
	Description string
}

// RecommendReq — запрос похожих товаров. Limit == 0 означает значение по умолчанию.
type RecommendReq struct {
	ProductID string
	Limit     int
}

type RecommendRes struct {
	Products []ProductInfo
	Cached   bool
}

// VisualMatchReq — загруженная пользователем фотография.
type VisualMatchReq struct {
	Data     []byte
	MimeType string
	Name     string
}

type VisualMatchRes struct {
	Product ProductInfo
	Score   float64
}

// REVIEW USECASE

type SentimentRes struct {
	Sentiment string
	Score     float64
	Neg       float64
	Neu       float64
	Pos       float64
}

type TranslateReq struct {
	Text     string
	LangCode string
}

type TranslateRes struct {
	Translated string
}

type FakeCheckRes struct {
	IsFake     bool
	Confidence float64
	Reasons    []string
}

// ASSISTANT USECASE

type ChatRes struct {
	ResponseRaw  string
	ResponseHTML string
}

type CartSummaryRes struct {
	SummaryText string
}

// ACCOUNT USECASE

type SignupReq struct {
	Name     string
	Email    string
	Username string
	Password string
}

type LoginReq struct {
	Username string
	Password string
}

type LoginRes struct {
	Token     string
	ExpiresAt time.Time
	User      UserInfo
}

type UserInfo struct {
	Name     string
	Email    string
	Username string
}

// CART USECASE

type CartItemReq struct {
	Username  string
	ProductID string
	Quantity  int64
}

type CartLine struct {
	Product  ProductInfo
	Quantity int64
	Subtotal int64
}

type CartRes struct {
	Items []CartLine
	Total int64
}

// ORDER USECASE

type OrderLine struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Quantity  int64  `json:"quantity"`
}

type OrderInfo struct {
	ID        string
	Items     []OrderLine
	Total     int64
	Status    string
	CreatedAt time.Time
}

type ReceiptRes struct {
	ReceiptID    string
	DownloadLink string
	ExpiresAt    time.Time
}

// ReceiptData — данные для шаблона квитанции.
type ReceiptData struct {
	ReceiptID string
	OrderID   string
	Username  string
	Items     []OrderLine
	Total     int64
	IssuedAt  time.Time
}

// INFRASTUCTURE

// WriteMessageReq — сообщение для Kafka.
type WriteMessageReq struct {
	Topic     string
	Key       string
	EventID   string
	EventType string
	Payload   []byte
}

// UploadObject — объект, загружаемый в MinIO.
type UploadObject struct {
	Data     []byte
	MimeType string
	Name     string
}

// UploadObjectsReq — запрос на загрузку объектов под общий префикс.
type UploadObjectsReq struct {
	Prefix  string
	Objects []UploadObject
}

// UploadObjectsRes — ключи загруженных объектов в MinIO.
type UploadObjectsRes struct {
	Keys []string
}

// MAPPERS

func NewProductInfo(p domain.Product) ProductInfo {
	return ProductInfo{
		ID:          p.ID,
		Name:        p.Name,
		Image:       p.Image,
		Price:       p.Price,
		Stock:       p.Stock,
		Category:    p.Category,
		Description: p.Description,
	}
}

func NewCatalogStatus(version string, products, vocabularySize int, hasEmbeddings bool, builtAt time.Time) *CatalogStatus {
	return &CatalogStatus{
		Version:        version,
		Products:       products,
		VocabularySize: vocabularySize,
		HasEmbeddings:  hasEmbeddings,
		BuiltAt:        builtAt,
	}
}

func NewRecommendReq(productID string, limit int) *RecommendReq {
	return &RecommendReq{
		ProductID: productID,
		Limit:     limit,
	}
}

func NewVisualMatchReq(data []byte, mimeType string, name string) *VisualMatchReq {
	return &VisualMatchReq{
		Data:     data,
		MimeType: mimeType,
		Name:     name,
	}
}

func NewListProductsReq(category string, offset, limit int) *ListProductsReq {
	return &ListProductsReq{
		Category: category,
		Offset:   offset,
		Limit:    limit,
	}
}

func NewTranslateReq(text string, langCode string) *TranslateReq {
	return &TranslateReq{
		Text:     text,
		LangCode: langCode,
	}
}

func NewSignupReq(name, email, username, password string) *SignupReq {
	return &SignupReq{
		Name:     name,
		Email:    email,
		Username: username,
		Password: password,
	}
}

func NewLoginReq(username, password string) *LoginReq {
	return &LoginReq{
		Username: username,
		Password: password,
	}
}

func NewUserInfo(u *domain.User) UserInfo {
	return UserInfo{
		Name:     u.Name,
		Email:    u.Email,
		Username: u.Username,
	}
}

func NewCartItemReq(username, productID string, quantity int64) *CartItemReq {
	return &CartItemReq{
		Username:  username,
		ProductID: productID,
		Quantity:  quantity,
	}
}

func NewOrderInfo(o *domain.Order) *OrderInfo {
	lines := make([]OrderLine, len(o.Items))
	for i, it := range o.Items {
		lines[i] = OrderLine{
			ProductID: it.ProductID,
			Name:      it.Name,
			Price:     it.Price,
			Quantity:  it.Quantity,
		}
	}

	return &OrderInfo{
		ID:        o.ID,
		Items:     lines,
		Total:     o.Total,
		Status:    string(o.Status),
		CreatedAt: o.CreatedAt,
	}
}

func NewUploadObjectsReq(prefix string, objects []UploadObject) *UploadObjectsReq {
	return &UploadObjectsReq{
		Prefix:  prefix,
		Objects: objects,
	}
}

func NewUploadObjectsRes(keys []string) *UploadObjectsRes {
	return &UploadObjectsRes{
		Keys: keys,
	}
}

func NewWriteMessageReq(topic, key, eventID, eventType string, payload []byte) *WriteMessageReq {
	return &WriteMessageReq{
		Topic:     topic,
		Key:       key,
		EventID:   eventID,
		EventType: eventType,
		Payload:   payload,
	}
}
