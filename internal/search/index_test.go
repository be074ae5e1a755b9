package search

import (
	"context"
	"errors"
	"image"
	"image/color"
	"sync/atomic"
	"testing"

	"github.com/DRSN-tech/shop-assistant/internal/domain"
	"github.com/DRSN-tech/shop-assistant/pkg/e"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEncoder кладёт тексты и картинки в трёхмерное пространство "красное/синее/кожа".
type fakeEncoder struct {
	text      map[string][]float32
	textCalls atomic.Int64
	imgCalls  atomic.Int64
	err       error
}

func (f *fakeEncoder) EncodeText(_ context.Context, text string) ([]float32, error) {
	f.textCalls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	if v, ok := f.text[text]; ok {
		return v, nil
	}

	return []float32{0.1, 0.1, 0.1}, nil
}

func (f *fakeEncoder) EncodeImage(_ context.Context, img image.Image) ([]float32, error) {
	f.imgCalls.Add(1)
	r, g, b, _ := img.At(0, 0).RGBA()
	return []float32{float32(r) / 0xffff, float32(b) / 0xffff, float32(g) / 0xffff}, nil
}

func shoesCatalog() []domain.Product {
	return []domain.Product{
		{ID: "1", Name: "Red Running Shoes"},
		{ID: "2", Name: "Blue Running Shoes"},
		{ID: "3", Name: "Leather Wallet"},
	}
}

func shoesEncoder() *fakeEncoder {
	return &fakeEncoder{text: map[string][]float32{
		"Red Running Shoes":  {1, 0, 0},
		"Blue Running Shoes": {0, 1, 0},
		"Leather Wallet":     {0, 0, 1},
	}}
}

func solid(c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func ids(res []domain.ScoredProduct) []string {
	out := make([]string, len(res))
	for i, r := range res {
		out[i] = r.Product.ID
	}
	return out
}

func TestRecommendRanksSharedTermsFirst(t *testing.T) {
	idx, err := Build(context.Background(), shoesCatalog(), nil, BuildOptions{})
	require.NoError(t, err)

	res, err := idx.Recommend("1", 2)
	require.NoError(t, err)

	assert.Equal(t, []string{"2", "3"}, ids(res))
	assert.Greater(t, res[0].Score, res[1].Score)
	assert.Zero(t, res[1].Score)
}

func TestRecommendNeverReturnsItself(t *testing.T) {
	catalog := []domain.Product{
		{ID: "a", Name: "Cotton T-Shirt"},
		{ID: "b", Name: "Cotton T-Shirt"},
		{ID: "c", Name: "Wool Sweater"},
		{ID: "d", Name: "Wool Socks"},
		{ID: "e", Name: "Socks"},
	}
	idx, err := Build(context.Background(), catalog, nil, BuildOptions{})
	require.NoError(t, err)

	for _, p := range catalog {
		res, err := idx.Recommend(p.ID, len(catalog))
		require.NoError(t, err)
		assert.Len(t, res, len(catalog)-1)
		assert.NotContains(t, ids(res), p.ID)
	}
}

func TestRecommendUnknownID(t *testing.T) {
	idx, err := Build(context.Background(), shoesCatalog(), nil, BuildOptions{})
	require.NoError(t, err)

	for _, id := range []string{"", "4", " 1", "unknown"} {
		_, err := idx.Recommend(id, 3)
		assert.ErrorIs(t, err, e.ErrProductNotFound, id)
	}
}

func TestRebuildIsDeterministic(t *testing.T) {
	catalog := append(shoesCatalog(),
		domain.Product{ID: "4", Name: "Trail Running Jacket"},
		domain.Product{ID: "5", Name: "Red Leather Belt"},
	)

	first, err := Build(context.Background(), catalog, nil, BuildOptions{})
	require.NoError(t, err)
	second, err := Build(context.Background(), catalog, nil, BuildOptions{})
	require.NoError(t, err)

	for _, q := range []string{"red running", "leather", "jacket shoes", ""} {
		assert.Equal(t, first.QueryText(q, 5, ""), second.QueryText(q, 5, ""), q)
	}
	assert.Equal(t, first.Version(), second.Version())
}

func TestRecommendIsIdempotent(t *testing.T) {
	idx, err := Build(context.Background(), shoesCatalog(), nil, BuildOptions{})
	require.NoError(t, err)

	a, err := idx.Recommend("2", 3)
	require.NoError(t, err)
	b, err := idx.Recommend("2", 3)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestQueryTextZeroVectorKeepsCatalogOrder(t *testing.T) {
	idx, err := Build(context.Background(), shoesCatalog(), nil, BuildOptions{})
	require.NoError(t, err)

	for _, q := range []string{"", "umbrella", "!!"} {
		res := idx.QueryText(q, 3, "")
		assert.Equal(t, []string{"1", "2", "3"}, ids(res), q)
		for _, r := range res {
			assert.Zero(t, r.Score)
		}
	}
}

func TestQueryTextTiesBrokenByCatalogOrder(t *testing.T) {
	catalog := []domain.Product{
		{ID: "x", Name: "Green Mug"},
		{ID: "y", Name: "Green Mug"},
		{ID: "z", Name: "Green Mug"},
	}
	idx, err := Build(context.Background(), catalog, nil, BuildOptions{})
	require.NoError(t, err)

	assert.Equal(t, []string{"x", "z"}, ids(idx.QueryText("green mug", 2, "y")))
}

func TestQueryTextNonPositiveK(t *testing.T) {
	idx, err := Build(context.Background(), shoesCatalog(), nil, BuildOptions{})
	require.NoError(t, err)

	assert.Empty(t, idx.QueryText("shoes", 0, ""))
}

func TestQueryByImage(t *testing.T) {
	enc := shoesEncoder()
	idx, err := Build(context.Background(), shoesCatalog(), enc, BuildOptions{Concurrency: 2})
	require.NoError(t, err)
	require.True(t, idx.HasEmbeddings())
	assert.Equal(t, int64(3), enc.textCalls.Load())
	assert.Equal(t, 6, idx.VocabularySize())

	res, err := idx.QueryByImage(context.Background(), enc, solid(color.RGBA{R: 255, A: 255}), 1)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "1", res[0].Product.ID)
	assert.InDelta(t, 1.0, res[0].Score, 1e-6)

	res, err = idx.QueryByImage(context.Background(), enc, solid(color.RGBA{B: 255, A: 255}), 3)
	require.NoError(t, err)
	assert.Equal(t, "2", res[0].Product.ID)
	assert.Len(t, res, 3)
}

func TestQueryByImageWithoutEmbeddings(t *testing.T) {
	enc := shoesEncoder()
	idx, err := Build(context.Background(), shoesCatalog(), nil, BuildOptions{})
	require.NoError(t, err)

	_, err = idx.QueryByImage(context.Background(), enc, solid(color.White), 1)
	assert.ErrorIs(t, err, e.ErrEmbeddingUnavailable)
	assert.Zero(t, enc.imgCalls.Load())
}

func TestQueryByEmbeddingSizeMismatch(t *testing.T) {
	idx, err := Build(context.Background(), shoesCatalog(), shoesEncoder(), BuildOptions{})
	require.NoError(t, err)

	_, err = idx.QueryByEmbedding([]float32{1, 0}, 1)
	assert.ErrorIs(t, err, e.ErrVectorSizeMismatch)

	_, err = idx.QueryByEmbedding([]float32{0, 0, 0}, 1)
	assert.ErrorIs(t, err, e.ErrEmptyVector)
}

func TestEmptyCatalog(t *testing.T) {
	enc := shoesEncoder()
	idx, err := Build(context.Background(), nil, enc, BuildOptions{})
	require.NoError(t, err)

	assert.Zero(t, idx.Len())
	assert.False(t, idx.HasEmbeddings())

	_, err = idx.Recommend("1", 3)
	assert.ErrorIs(t, err, e.ErrProductNotFound)

	_, err = idx.QueryByImage(context.Background(), enc, solid(color.Black), 1)
	assert.ErrorIs(t, err, e.ErrEmbeddingUnavailable)
	assert.Zero(t, enc.textCalls.Load())
}

func TestBuildFailures(t *testing.T) {
	t.Run("duplicate id", func(t *testing.T) {
		catalog := append(shoesCatalog(), domain.Product{ID: "1", Name: "Copy"})
		_, err := Build(context.Background(), catalog, nil, BuildOptions{})
		assert.ErrorIs(t, err, e.ErrDataLoad)
	})

	t.Run("encoder error", func(t *testing.T) {
		boom := errors.New("boom")
		_, err := Build(context.Background(), shoesCatalog(), &fakeEncoder{err: boom}, BuildOptions{})
		assert.ErrorIs(t, err, boom)
	})

	t.Run("inconsistent dims", func(t *testing.T) {
		enc := shoesEncoder()
		enc.text["Leather Wallet"] = []float32{0, 1}
		_, err := Build(context.Background(), shoesCatalog(), enc, BuildOptions{})
		assert.ErrorIs(t, err, e.ErrVectorSizeMismatch)
	})
}

func TestVersionTracksContent(t *testing.T) {
	a, err := Build(context.Background(), shoesCatalog(), nil, BuildOptions{})
	require.NoError(t, err)

	changed := shoesCatalog()
	changed[2].Price = 100
	b, err := Build(context.Background(), changed, nil, BuildOptions{})
	require.NoError(t, err)

	assert.NotEqual(t, a.Version(), b.Version())
	assert.Len(t, a.Version(), 16)
}

func TestGetAndProducts(t *testing.T) {
	idx, err := Build(context.Background(), shoesCatalog(), nil, BuildOptions{})
	require.NoError(t, err)

	p, ok := idx.Get("3")
	require.True(t, ok)
	assert.Equal(t, "Leather Wallet", p.Name)

	_, ok = idx.Get("9")
	assert.False(t, ok)

	products := idx.Products()
	products[0].Name = "mutated"
	p, _ = idx.Get("1")
	assert.Equal(t, "Red Running Shoes", p.Name)
}

func TestNormalize(t *testing.T) {
	a, err := normalize([]float32{3, 4})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, dot(a, a), 1e-6)

	b, err := normalize([]float32{6, 8})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, dot(a, b), 1e-6)

	_, err = normalize(nil)
	assert.ErrorIs(t, err, e.ErrEmptyVector)
	_, err = normalize([]float32{0, 0})
	assert.ErrorIs(t, err, e.ErrEmptyVector)
}
