package catalog

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/DRSN-tech/shop-assistant/internal/domain"
	"github.com/DRSN-tech/shop-assistant/pkg/e"
	"github.com/DRSN-tech/shop-assistant/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticSource struct {
	products []domain.Product
	err      error
}

func (s staticSource) ListAll(context.Context) ([]domain.Product, error) {
	return s.products, s.err
}

func TestLoadFromFile(t *testing.T) {
	l := NewLoader(NewFileSource(filepath.Join("testdata", "products.json")), false, logger.NewNopLogger())

	products, err := l.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 3)

	assert.Equal(t, domain.Product{
		ID: "1", Name: "Red Running Shoes", Image: "images/red.jpg",
		Price: 8999, Stock: 12, Category: "Footwear",
	}, products[0])

	assert.Equal(t, "2", products[1].ID)
	assert.Equal(t, int64(9150), products[1].Price)
	assert.Equal(t, int64(defaultStock), products[1].Stock)
	assert.Equal(t, domain.PlaceholderImage, products[1].Image)

	assert.Equal(t, int64(3500), products[2].Price)
	assert.Zero(t, products[2].Stock)
	assert.Equal(t, "Full-grain leather", products[2].Description)
}

func TestLoadFileErrors(t *testing.T) {
	for _, name := range []string{"missing.json", "malformed.json", "empty.json"} {
		l := NewLoader(NewFileSource(filepath.Join("testdata", name)), false, logger.NewNopLogger())
		_, err := l.Load(context.Background())
		assert.ErrorIs(t, err, e.ErrDataLoad, name)
	}
}

func TestLoadEmptyAllowed(t *testing.T) {
	l := NewLoader(NewFileSource(filepath.Join("testdata", "empty.json")), true, logger.NewNopLogger())

	products, err := l.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name     string
		products []domain.Product
	}{
		{name: "empty id", products: []domain.Product{{ID: "  ", Name: "x"}}},
		{name: "empty name", products: []domain.Product{{ID: "1", Name: " "}}},
		{name: "duplicate after trim", products: []domain.Product{{ID: "1", Name: "a"}, {ID: " 1", Name: "b"}}},
		{name: "negative price", products: []domain.Product{{ID: "1", Name: "a", Price: -1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLoader(staticSource{products: tt.products}, false, logger.NewNopLogger())
			_, err := l.Load(context.Background())
			assert.ErrorIs(t, err, e.ErrDataLoad)
		})
	}
}

func TestLoadSourceError(t *testing.T) {
	boom := errors.New("connection refused")
	l := NewLoader(staticSource{err: boom}, false, logger.NewNopLogger())

	_, err := l.Load(context.Background())
	assert.ErrorIs(t, err, e.ErrDataLoad)
	assert.ErrorIs(t, err, boom)
}

func TestLoadKeepsSourceOrder(t *testing.T) {
	src := staticSource{products: []domain.Product{
		{ID: "c", Name: "C"}, {ID: "a", Name: "A"}, {ID: "b", Name: "B"},
	}}
	products, err := NewLoader(src, false, logger.NewNopLogger()).Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"c", "a", "b"}, []string{products[0].ID, products[1].ID, products[2].ID})
}
