package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/DRSN-tech/shop-assistant/internal/domain"
	"github.com/DRSN-tech/shop-assistant/internal/search"
	"github.com/DRSN-tech/shop-assistant/pkg/e"
	"github.com/DRSN-tech/shop-assistant/pkg/imaging"
	"github.com/DRSN-tech/shop-assistant/pkg/logger"
	"github.com/DRSN-tech/shop-assistant/pkg/metrics"
	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	uploadsPrefix  = "uploads"
	maxImageSide   = 1024
	defaultLimit   = 3
	defaultMaxSize = 50
)

// CatalogLoader читает каталог целиком.
type CatalogLoader interface {
	Load(ctx context.Context) ([]domain.Product, error)
}

// CatalogUseCaseCfg — параметры поиска.
type CatalogUseCaseCfg struct {
	DefaultLimit        int
	MaxLimit            int
	VisualMatchMinScore float64
	MaxImagePixels      int64
	EncodeConcurrency   int
}

// CatalogUseCase держит опубликованный индекс каталога и отвечает на запросы рекомендаций
// и визуального поиска. Индекс заменяется целиком при перезагрузке.
type CatalogUseCase struct {
	loader      CatalogLoader
	productRepo ProductRepository
	encoder     EncoderInfra
	cacheRepo   CacheRepository
	objects     ObjectsInfra
	events      EventPublisher
	imageCache  *lru.Cache[string, []float32]
	logger      logger.Logger
	cfg         CatalogUseCaseCfg

	index   atomic.Pointer[search.CatalogIndex]
	buildMu sync.Mutex
}

// NewCatalogUC создаёт usecase каталога. productRepo равен nil, если каталог читается
// из Postgres и синхронизировать его не нужно.
func NewCatalogUC(
	loader CatalogLoader,
	productRepo ProductRepository,
	encoder EncoderInfra,
	cacheRepo CacheRepository,
	objects ObjectsInfra,
	events EventPublisher,
	imageCache *lru.Cache[string, []float32],
	logger logger.Logger,
	cfg CatalogUseCaseCfg,
) *CatalogUseCase {
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = defaultLimit
	}
	if cfg.MaxLimit <= 0 {
		cfg.MaxLimit = defaultMaxSize
	}

	return &CatalogUseCase{
		loader:      loader,
		productRepo: productRepo,
		encoder:     encoder,
		cacheRepo:   cacheRepo,
		objects:     objects,
		events:      events,
		imageCache:  imageCache,
		logger:      logger,
		cfg:         cfg,
	}
}

// Build загружает каталог, строит новый индекс и публикует его.
// При ошибке ранее опубликованный индекс остаётся в силе.
func (c *CatalogUseCase) Build(ctx context.Context) (*CatalogStatus, error) {
	const op = "CatalogUseCase.Build"

	c.buildMu.Lock()
	defer c.buildMu.Unlock()

	start := time.Now()

	products, err := c.loader.Load(ctx)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	// Склад ведётся в Postgres, поэтому файловый каталог синхронизируется в таблицу products
	if c.productRepo != nil {
		if err := c.productRepo.UpsertCatalog(ctx, products); err != nil {
			return nil, e.Wrap(op, err)
		}
	}

	idx, err := search.Build(ctx, products, c.encoder, search.BuildOptions{Concurrency: c.cfg.EncodeConcurrency})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	prev := c.index.Swap(idx)

	metrics.IndexBuildDuration.Observe(time.Since(start).Seconds())
	metrics.IndexProducts.Set(float64(idx.Len()))

	if prev != nil && prev.Version() == idx.Version() {
		c.logger.Infof("catalog index rebuilt without changes: version=%s", idx.Version())
	} else {
		c.logger.Infof("catalog index published: version=%s products=%d embeddings=%t took=%s",
			idx.Version(), idx.Len(), idx.HasEmbeddings(), time.Since(start))
	}

	return statusOf(idx), nil
}

// Reload перечитывает каталог и атомарно подменяет индекс.
func (c *CatalogUseCase) Reload(ctx context.Context) (*CatalogStatus, error) {
	const op = "CatalogUseCase.Reload"

	c.logger.Infof("catalog reload requested")

	status, err := c.Build(ctx)
	if err != nil {
		c.logger.Errorf(err, "catalog reload failed, keeping previous index")
		return nil, e.Wrap(op, err)
	}

	return status, nil
}

// Status возвращает сведения об опубликованном индексе или e.ErrNotReady.
func (c *CatalogUseCase) Status() (*CatalogStatus, error) {
	idx, err := c.snapshot()
	if err != nil {
		return nil, err
	}

	return statusOf(idx), nil
}

// List возвращает товары в порядке каталога с фильтром по категории.
func (c *CatalogUseCase) List(ctx context.Context, req *ListProductsReq) (*ListProductsRes, error) {
	const op = "CatalogUseCase.List"

	idx, err := c.snapshot()
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	if req.Offset < 0 || req.Limit < 0 {
		return nil, e.Wrap(op, e.ErrInvalidLimit)
	}

	filtered := make([]ProductInfo, 0, idx.Len())
	for _, p := range idx.Products() {
		if req.Category != "" && !strings.EqualFold(p.Category, req.Category) {
			continue
		}
		filtered = append(filtered, NewProductInfo(p))
	}

	total := len(filtered)
	from := min(req.Offset, total)
	to := total
	if req.Limit > 0 {
		to = min(from+req.Limit, total)
	}

	return &ListProductsRes{
		Products: filtered[from:to],
		Total:    total,
	}, nil
}

// Get возвращает товар по id.
func (c *CatalogUseCase) Get(ctx context.Context, id string) (*ProductInfo, error) {
	const op = "CatalogUseCase.Get"

	idx, err := c.snapshot()
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	p, ok := idx.Get(strings.TrimSpace(id))
	if !ok {
		return nil, e.Wrap(op, e.ErrProductNotFound)
	}

	info := NewProductInfo(p)
	return &info, nil
}

// Recommend возвращает товары с похожими названиями, исключая сам товар.
func (c *CatalogUseCase) Recommend(ctx context.Context, req *RecommendReq) (*RecommendRes, error) {
	const op = "CatalogUseCase.Recommend"

	idx, err := c.snapshot()
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	k, err := c.limit(req.Limit)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	id := strings.TrimSpace(req.ProductID)
	if _, ok := idx.Get(id); !ok {
		return nil, e.Wrap(op, e.ErrProductNotFound)
	}

	key := recommendationKey(idx.Version(), id, k)
	if cached := c.cachedRecommendations(ctx, idx, key); cached != nil {
		metrics.RecommendationCache.WithLabelValues("hit").Inc()
		return &RecommendRes{Products: cached, Cached: true}, nil
	}
	metrics.RecommendationCache.WithLabelValues("miss").Inc()

	scored, err := idx.Recommend(id, k)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	products := make([]ProductInfo, len(scored))
	ids := make([]string, len(scored))
	for i, s := range scored {
		products[i] = NewProductInfo(s.Product)
		ids[i] = s.Product.ID
	}

	if err := c.cacheRepo.SetRecommendations(ctx, key, ids); err != nil {
		c.logger.Warnf("failed to cache recommendations: %v", e.Wrap(op, err))
	}

	c.events.Publish(domain.EventRecommendationServed, id, map[string]any{
		"product_id":      id,
		"recommended":     ids,
		"catalog_version": idx.Version(),
	})

	return &RecommendRes{Products: products}, nil
}

// VisualMatch находит товар, название которого ближе всего к загруженной фотографии.
func (c *CatalogUseCase) VisualMatch(ctx context.Context, req *VisualMatchReq) (*VisualMatchRes, error) {
	const op = "CatalogUseCase.VisualMatch"

	idx, err := c.snapshot()
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	if len(req.Data) == 0 {
		return nil, e.Wrap(op, e.ErrInvalidImage)
	}

	img, format, err := imaging.Decode(req.Data, c.cfg.MaxImagePixels)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	sum := sha256.Sum256(req.Data)
	key := hex.EncodeToString(sum[:])

	enc := &cachedImageEncoder{enc: c.encoder, cache: c.imageCache, key: key}
	matches, err := idx.QueryByImage(ctx, enc, imaging.Fit(img, maxImageSide), 1)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	if len(matches) == 0 {
		return nil, e.Wrap(op, e.ErrEmbeddingUnavailable)
	}

	best := matches[0]
	if best.Score < c.cfg.VisualMatchMinScore {
		c.logger.Debugf("best visual match %s scored %.4f below threshold %.4f", best.Product.ID, best.Score, c.cfg.VisualMatchMinScore)
		return nil, e.Wrap(op, e.ErrNoVisualMatch)
	}

	c.storeUpload(req, format, key)

	c.events.Publish(domain.EventVisualSearchMatched, best.Product.ID, map[string]any{
		"product_id":      best.Product.ID,
		"score":           best.Score,
		"image_sha256":    key,
		"catalog_version": idx.Version(),
	})

	return &VisualMatchRes{
		Product: NewProductInfo(best.Product),
		Score:   best.Score,
	}, nil
}

func (c *CatalogUseCase) snapshot() (*search.CatalogIndex, error) {
	idx := c.index.Load()
	if idx == nil {
		return nil, e.ErrNotReady
	}

	return idx, nil
}

func (c *CatalogUseCase) limit(requested int) (int, error) {
	switch {
	case requested == 0:
		return c.cfg.DefaultLimit, nil
	case requested < 0 || requested > c.cfg.MaxLimit:
		return 0, e.ErrInvalidLimit
	default:
		return requested, nil
	}
}

// cachedRecommendations возвращает nil при промахе, ошибке Redis или если
// закэшированный товар пропал из каталога.
func (c *CatalogUseCase) cachedRecommendations(ctx context.Context, idx *search.CatalogIndex, key string) []ProductInfo {
	ids, err := c.cacheRepo.GetRecommendations(ctx, key)
	if err != nil {
		c.logger.Warnf("recommendation cache lookup failed: %v", err)
		return nil
	}
	if ids == nil {
		return nil
	}

	products := make([]ProductInfo, 0, len(ids))
	for _, id := range ids {
		p, ok := idx.Get(id)
		if !ok {
			return nil
		}
		products = append(products, NewProductInfo(p))
	}

	return products
}

// storeUpload сохраняет фото в MinIO в фоне. Сбой загрузки не влияет на ответ.
func (c *CatalogUseCase) storeUpload(req *VisualMatchReq, format string, key string) {
	c.objects.UploadInBackground(NewUploadObjectsReq(uploadsPrefix, []UploadObject{{
		Data:     req.Data,
		MimeType: "image/" + format,
		Name:     key[:16],
	}}))
}

func recommendationKey(version, id string, k int) string {
	return fmt.Sprintf("rec:%s:%s:%d", version, id, k)
}

func statusOf(idx *search.CatalogIndex) *CatalogStatus {
	return NewCatalogStatus(idx.Version(), idx.Len(), idx.VocabularySize(), idx.HasEmbeddings(), idx.BuiltAt())
}

// cachedImageEncoder кэширует эмбеддинг загруженного фото по SHA-256 его байтов.
type cachedImageEncoder struct {
	enc   EncoderInfra
	cache *lru.Cache[string, []float32]
	key   string
}

func (c *cachedImageEncoder) EncodeImage(ctx context.Context, img image.Image) ([]float32, error) {
	if v, ok := c.cache.Get(c.key); ok {
		metrics.EmbeddingCache.WithLabelValues("lru", "hit").Inc()
		return v, nil
	}
	metrics.EmbeddingCache.WithLabelValues("lru", "miss").Inc()

	v, err := c.enc.EncodeImage(ctx, img)
	if err != nil {
		return nil, err
	}
	c.cache.Add(c.key, v)

	return v, nil
}
