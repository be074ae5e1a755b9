package http

import (
	"time"

	_ "github.com/DRSN-tech/shop-assistant/docs" // Импорт сгенерированных файлов
	"github.com/DRSN-tech/shop-assistant/internal/cfg"
	"github.com/DRSN-tech/shop-assistant/internal/usecase"
	"github.com/DRSN-tech/shop-assistant/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

// UseCases — набор сценариев, которые обслуживает HTTP API.
type UseCases struct {
	Catalog   usecase.CatalogUC
	Review    usecase.ReviewUC
	Assistant usecase.AssistantUC
	Account   usecase.AccountUC
	Cart      usecase.CartUC
	Order     usecase.OrderUC
}

type Router struct {
	router     *chi.Mux
	httpCfg    *cfg.HTTPConfig
	adminToken string
	logger     logger.Logger
}

func NewRouter(router *chi.Mux, httpCfg *cfg.HTTPConfig, adminToken string, logger logger.Logger) *Router {
	return &Router{router: router, httpCfg: httpCfg, adminToken: adminToken, logger: logger}
}

func (r *Router) Init(uc UseCases) {
	r.router.Use(middleware.RequestID)
	r.router.Use(middleware.RealIP)
	r.router.Use(middleware.Recoverer)
	r.router.Use(metricsMiddleware)
	r.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   r.httpCfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Admin-Token"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	catalogHandler := NewCatalogHandler(uc.Catalog, r.httpCfg.MaxUploadSizeMB<<20, r.logger)

	r.router.Get("/health", catalogHandler.health)
	r.router.Handle("/metrics", promhttp.Handler())
	r.router.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"), // ссылка на JSON
	))

	r.router.Route("/api/v1", func(v1 chi.Router) {
		registerCatalogRoutes(v1, catalogHandler, r.adminToken, r.logger)
		registerReviewRoutes(v1, NewReviewHandler(uc.Review, uc.Assistant, r.logger), r.httpCfg.LLMRateLimit)
		registerAccountRoutes(v1, NewAccountHandler(uc.Account, r.logger), uc.Account, r.logger)
		registerCartRoutes(v1, NewCartHandler(uc.Cart, uc.Order, r.logger), uc.Account, r.logger)
	})
}

func registerCatalogRoutes(router chi.Router, h *CatalogHandler, adminToken string, log logger.Logger) {
	router.Route("/products", func(pr chi.Router) {
		pr.Get("/", h.listProducts)
		pr.Get("/{id}", h.getProduct)
	})
	router.Get("/recommendations", h.recommendations)
	router.Post("/visual-search", h.visualSearch)

	router.Route("/admin", func(adm chi.Router) {
		adm.Use(adminMiddleware(adminToken, log))
		adm.Post("/catalog/reload", h.reload)
	})
}

func registerReviewRoutes(router chi.Router, h *ReviewHandler, llmRateLimit int) {
	router.Post("/analyze-review", h.analyzeReview)
	router.Post("/reviews/sentiment", h.sentiment)
	router.Post("/reviews/check", h.checkFake)

	// эндпоинты, которые ходят в LLM
	router.Group(func(llm chi.Router) {
		if llmRateLimit > 0 {
			llm.Use(httprate.LimitByIP(llmRateLimit, time.Minute))
		}
		llm.Post("/reviews/translate", h.translate)
		llm.Post("/chatbot", h.chatbot)
		llm.Post("/cart/summary", h.cartSummary)
	})
}

func registerAccountRoutes(router chi.Router, h *AccountHandler, accounts usecase.AccountUC, log logger.Logger) {
	router.Post("/auth/signup", h.signup)
	router.Post("/auth/login", h.login)

	router.Group(func(auth chi.Router) {
		auth.Use(authMiddleware(accounts, log))
		auth.Get("/me", h.me)
	})
}

func registerCartRoutes(router chi.Router, h *CartHandler, accounts usecase.AccountUC, log logger.Logger) {
	router.Group(func(auth chi.Router) {
		auth.Use(authMiddleware(accounts, log))
		auth.Get("/cart", h.getCart)
		auth.Post("/cart/items", h.addItem)
		auth.Delete("/cart/items/{productID}", h.removeItem)
		auth.Post("/cart/checkout", h.checkout)
		auth.Get("/orders/{id}", h.getOrder)
		auth.Post("/orders/{id}/receipt", h.receipt)
	})
}
