package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/DRSN-tech/shop-assistant/internal/domain"
	"github.com/DRSN-tech/shop-assistant/pkg/e"
	"github.com/DRSN-tech/shop-assistant/pkg/money"
	"github.com/shopspring/decimal"
)

// defaultStock назначается записям без поля stock.
const defaultStock = 100

// FileSource читает каталог из JSON-файла вида products.json:
// массив объектов {id, name, image, price, stock, category, description}.
type FileSource struct {
	path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// recordID принимает id и строкой, и числом.
type recordID string

func (r *recordID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*r = recordID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id must be a string or a number: %w", err)
	}
	*r = recordID(n.String())

	return nil
}

type fileRecord struct {
	ID          recordID         `json:"id"`
	Name        string           `json:"name"`
	Image       string           `json:"image"`
	Price       *decimal.Decimal `json:"price"`
	Stock       *int64           `json:"stock"`
	Category    string           `json:"category"`
	Description string           `json:"description"`
}

func (f *FileSource) ListAll(ctx context.Context) ([]domain.Product, error) {
	const op = "FileSource.ListAll"

	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, e.Wrap(op, fmt.Errorf("%w: %w", e.ErrDataLoad, err))
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var records []fileRecord
	if err := dec.Decode(&records); err != nil {
		return nil, e.Wrap(op, fmt.Errorf("%w: malformed %s: %w", e.ErrDataLoad, f.path, err))
	}

	products := make([]domain.Product, 0, len(records))
	for i, r := range records {
		var price int64
		if r.Price != nil {
			price, err = money.ToCents(*r.Price)
			if err != nil {
				return nil, e.Wrap(op, fmt.Errorf("%w: record %d: %w", e.ErrDataLoad, i, err))
			}
		}

		stock := int64(defaultStock)
		if r.Stock != nil {
			stock = *r.Stock
		}

		products = append(products, domain.Product{
			ID:          string(r.ID),
			Name:        r.Name,
			Image:       r.Image,
			Price:       price,
			Stock:       stock,
			Category:    strings.TrimSpace(r.Category),
			Description: strings.TrimSpace(r.Description),
		})
	}

	return products, nil
}
