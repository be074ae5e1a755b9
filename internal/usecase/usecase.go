package usecase

import "context"

type CatalogUC interface {
	Build(ctx context.Context) (*CatalogStatus, error)
	Reload(ctx context.Context) (*CatalogStatus, error)
	Status() (*CatalogStatus, error)
	List(ctx context.Context, req *ListProductsReq) (*ListProductsRes, error)
	Get(ctx context.Context, id string) (*ProductInfo, error)
	Recommend(ctx context.Context, req *RecommendReq) (*RecommendRes, error)
	VisualMatch(ctx context.Context, req *VisualMatchReq) (*VisualMatchRes, error)
}

type ReviewUC interface {
	Sentiment(ctx context.Context, text string) (*SentimentRes, error)
	Translate(ctx context.Context, req *TranslateReq) (*TranslateRes, error)
	CheckFake(ctx context.Context, text string) (*FakeCheckRes, error)
}

type AssistantUC interface {
	Chat(ctx context.Context, query string) (*ChatRes, error)
	CartSummary(ctx context.Context, items []string) (*CartSummaryRes, error)
}

type AccountUC interface {
	Signup(ctx context.Context, req *SignupReq) (*UserInfo, error)
	Login(ctx context.Context, req *LoginReq) (*LoginRes, error)
	GetUser(ctx context.Context, username string) (*UserInfo, error)
	Authenticate(ctx context.Context, token string) (string, error)
}

type CartUC interface {
	AddItem(ctx context.Context, req *CartItemReq) (*CartRes, error)
	RemoveItem(ctx context.Context, req *CartItemReq) (*CartRes, error)
	GetCart(ctx context.Context, username string) (*CartRes, error)
	Checkout(ctx context.Context, username string) (*OrderInfo, error)
}

type OrderUC interface {
	GetOrder(ctx context.Context, id string, username string) (*OrderInfo, error)
	GenerateReceipt(ctx context.Context, id string, username string) (*ReceiptRes, error)
}
