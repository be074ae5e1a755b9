// Package search содержит неизменяемый индекс каталога: TF-IDF по названиям
// товаров и плотные CLIP-эмбеддинги тех же названий.
//
// Запросы перебирают весь каталог и весь словарь, без ANN-структур. Для каталогов
// в тысячи товаров этого достаточно; при росте на порядки нужен векторный индекс.
package search

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	"strconv"
	"time"

	"github.com/DRSN-tech/shop-assistant/internal/domain"
	"github.com/DRSN-tech/shop-assistant/internal/search/tfidf"
	"github.com/DRSN-tech/shop-assistant/pkg/e"
	"golang.org/x/sync/errgroup"
)

const defaultConcurrency = 8

type entry struct {
	product   domain.Product
	pos       int
	text      tfidf.Vector
	embedding []float32
}

// CatalogIndex — снимок каталога вместе с обоими индексами. После Build не изменяется,
// поэтому читается из любого числа горутин без блокировок.
type CatalogIndex struct {
	byID       map[string]*entry
	order      []*entry
	vectorizer *tfidf.Vectorizer
	dim        int
	version    string
	builtAt    time.Time
}

// BuildOptions задаёт параметры построения индекса.
type BuildOptions struct {
	// Concurrency ограничивает число одновременных вызовов кодировщика.
	Concurrency int
}

// Build строит индекс по каталогу. Если enc == nil, эмбеддинги не строятся
// и визуальный поиск возвращает ErrEmbeddingUnavailable.
func Build(ctx context.Context, products []domain.Product, enc TextEncoder, opts BuildOptions) (*CatalogIndex, error) {
	const op = "search.Build"

	idx := &CatalogIndex{
		byID:    make(map[string]*entry, len(products)),
		order:   make([]*entry, 0, len(products)),
		version: catalogVersion(products),
		builtAt: time.Now().UTC(),
	}

	names := make([]string, 0, len(products))
	for i, p := range products {
		if _, ok := idx.byID[p.ID]; ok {
			return nil, e.Wrap(op, fmt.Errorf("%w: duplicate product id %q", e.ErrDataLoad, p.ID))
		}

		en := &entry{product: p, pos: i}
		idx.byID[p.ID] = en
		idx.order = append(idx.order, en)
		names = append(names, p.Name)
	}

	idx.vectorizer = tfidf.Fit(names)
	for _, en := range idx.order {
		en.text = idx.vectorizer.Transform(en.product.Name)
	}

	if enc == nil || len(products) == 0 {
		return idx, nil
	}

	if err := idx.buildEmbeddings(ctx, enc, opts); err != nil {
		return nil, e.Wrap(op, err)
	}

	return idx, nil
}

func (c *CatalogIndex) buildEmbeddings(ctx context.Context, enc TextEncoder, opts BuildOptions) error {
	limit := opts.Concurrency
	if limit <= 0 {
		limit = defaultConcurrency
	}

	vectors := make([][]float32, len(c.order))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, en := range c.order {
		g.Go(func() error {
			vec, err := enc.EncodeText(gctx, en.product.Name)
			if err != nil {
				return fmt.Errorf("encode %q: %w", en.product.ID, err)
			}

			vectors[i], err = normalize(vec)
			if err != nil {
				return fmt.Errorf("encode %q: %w", en.product.ID, err)
			}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	c.dim = len(vectors[0])
	for i, vec := range vectors {
		if len(vec) != c.dim {
			return fmt.Errorf("%w: product %q has %d dims, want %d", e.ErrVectorSizeMismatch, c.order[i].product.ID, len(vec), c.dim)
		}
		c.order[i].embedding = vec
	}

	return nil
}

// Len возвращает число товаров в индексе.
func (c *CatalogIndex) Len() int {
	return len(c.order)
}

// VocabularySize возвращает число термов в словаре TF-IDF.
func (c *CatalogIndex) VocabularySize() int {
	return len(c.vectorizer.Vocabulary())
}

// Version — хэш содержимого каталога. Меняется при любом изменении товаров.
func (c *CatalogIndex) Version() string {
	return c.version
}

func (c *CatalogIndex) BuiltAt() time.Time {
	return c.builtAt
}

// HasEmbeddings сообщает, построен ли индекс эмбеддингов.
func (c *CatalogIndex) HasEmbeddings() bool {
	return c.dim > 0
}

// Get возвращает товар по id.
func (c *CatalogIndex) Get(id string) (domain.Product, bool) {
	en, ok := c.byID[id]
	if !ok {
		return domain.Product{}, false
	}

	return en.product, true
}

// Products возвращает копию каталога в исходном порядке.
func (c *CatalogIndex) Products() []domain.Product {
	out := make([]domain.Product, len(c.order))
	for i, en := range c.order {
		out[i] = en.product
	}

	return out
}

// QueryText возвращает k товаров, ближайших к тексту по TF-IDF, исключая excludeID.
// Пустой или полностью незнакомый текст даёт нулевые оценки, и порядок совпадает с каталогом.
func (c *CatalogIndex) QueryText(text string, k int, excludeID string) []domain.ScoredProduct {
	q := c.vectorizer.Transform(text)

	scores := make([]float64, len(c.order))
	if !q.IsZero() {
		for i, en := range c.order {
			scores[i] = tfidf.Dot(q, en.text)
		}
	}

	exclude := -1
	if en, ok := c.byID[excludeID]; ok {
		exclude = en.pos
	}

	return c.collect(topK(scores, k, exclude))
}

// Recommend возвращает k товаров с похожими названиями. Сам товар в выдачу не попадает.
func (c *CatalogIndex) Recommend(productID string, k int) ([]domain.ScoredProduct, error) {
	en, ok := c.byID[productID]
	if !ok {
		return nil, e.ErrProductNotFound
	}

	return c.QueryText(en.product.Name, k, productID), nil
}

// QueryByEmbedding сравнивает вектор с эмбеддингами названий и возвращает k лучших.
func (c *CatalogIndex) QueryByEmbedding(vec []float32, k int) ([]domain.ScoredProduct, error) {
	if !c.HasEmbeddings() {
		return nil, e.ErrEmbeddingUnavailable
	}
	if len(vec) != c.dim {
		return nil, fmt.Errorf("%w: got %d dims, want %d", e.ErrVectorSizeMismatch, len(vec), c.dim)
	}

	q, err := normalize(vec)
	if err != nil {
		return nil, err
	}

	scores := make([]float64, len(c.order))
	for i, en := range c.order {
		scores[i] = dot(q, en.embedding)
	}

	return c.collect(topK(scores, k, -1)), nil
}

// QueryByImage кодирует изображение и ищет ближайшие по названию товары.
func (c *CatalogIndex) QueryByImage(ctx context.Context, enc ImageEncoder, img image.Image, k int) ([]domain.ScoredProduct, error) {
	const op = "CatalogIndex.QueryByImage"

	if !c.HasEmbeddings() {
		return nil, e.Wrap(op, e.ErrEmbeddingUnavailable)
	}

	vec, err := enc.EncodeImage(ctx, img)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	res, err := c.QueryByEmbedding(vec, k)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return res, nil
}

func (c *CatalogIndex) collect(cands []candidate) []domain.ScoredProduct {
	out := make([]domain.ScoredProduct, len(cands))
	for i, cand := range cands {
		out[i] = domain.ScoredProduct{
			Product: c.order[cand.pos].product,
			Score:   cand.score,
		}
	}

	return out
}

func catalogVersion(products []domain.Product) string {
	h := sha256.New()
	for _, p := range products {
		for _, field := range []string{
			p.ID, p.Name, p.Image, p.Category, p.Description,
			strconv.FormatInt(p.Price, 10), strconv.FormatInt(p.Stock, 10),
		} {
			h.Write([]byte(field))
			h.Write([]byte{0})
		}
		h.Write([]byte{'\n'})
	}

	return hex.EncodeToString(h.Sum(nil))[:16]
}
