// Package catalog загружает каталог товаров из файла или Postgres и проверяет его целостность.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/DRSN-tech/shop-assistant/internal/domain"
	"github.com/DRSN-tech/shop-assistant/pkg/e"
	"github.com/DRSN-tech/shop-assistant/pkg/logger"
)

// Source отдаёт все записи каталога в исходном порядке.
type Source interface {
	ListAll(ctx context.Context) ([]domain.Product, error)
}

// Loader читает каталог целиком и нормализует записи.
type Loader struct {
	source     Source
	allowEmpty bool
	logger     logger.Logger
}

func NewLoader(source Source, allowEmpty bool, logger logger.Logger) *Loader {
	return &Loader{
		source:     source,
		allowEmpty: allowEmpty,
		logger:     logger,
	}
}

// Load возвращает каталог в порядке источника. Любая проблема с данными
// (недоступный источник, пустой каталог, пустой или повторяющийся id, пустое название)
// заворачивается в e.ErrDataLoad.
func (l *Loader) Load(ctx context.Context) ([]domain.Product, error) {
	const op = "Loader.Load"

	raw, err := l.source.ListAll(ctx)
	if err != nil {
		return nil, e.Wrap(op, dataLoadErr(err))
	}

	if len(raw) == 0 {
		if !l.allowEmpty {
			return nil, e.Wrap(op, fmt.Errorf("%w: catalog is empty", e.ErrDataLoad))
		}
		l.logger.Warnf("catalog is empty, serving with an empty index")
		return []domain.Product{}, nil
	}

	products := make([]domain.Product, 0, len(raw))
	seen := make(map[string]int, len(raw))
	for i, p := range raw {
		p.ID = strings.TrimSpace(p.ID)
		p.Name = strings.TrimSpace(p.Name)
		p.Image = strings.TrimSpace(p.Image)

		switch {
		case p.ID == "":
			return nil, e.Wrap(op, fmt.Errorf("%w: record %d has empty id", e.ErrDataLoad, i))
		case p.Name == "":
			return nil, e.Wrap(op, fmt.Errorf("%w: product %q has empty name", e.ErrDataLoad, p.ID))
		case p.Price < 0 || p.Stock < 0:
			return nil, e.Wrap(op, fmt.Errorf("%w: product %q has negative price or stock", e.ErrDataLoad, p.ID))
		}

		if first, ok := seen[p.ID]; ok {
			return nil, e.Wrap(op, fmt.Errorf("%w: duplicate id %q at records %d and %d", e.ErrDataLoad, p.ID, first, i))
		}
		seen[p.ID] = i

		if p.Image == "" {
			p.Image = domain.PlaceholderImage
		}

		products = append(products, p)
	}

	l.logger.Infof("catalog loaded: %d products", len(products))

	return products, nil
}

func dataLoadErr(err error) error {
	if errors.Is(err, e.ErrDataLoad) {
		return err
	}

	return fmt.Errorf("%w: %w", e.ErrDataLoad, err)
}
