// Package money переводит цены между десятичной записью и копейками.
package money

import (
	"strings"

	"github.com/DRSN-tech/shop-assistant/pkg/e"
	"github.com/shopspring/decimal"
)

// maxPrice — 1 млрд в основной валюте.
var maxPrice = decimal.NewFromInt(1_000_000_000)

// ToCents переводит цену в копейки.
// Отклоняет:
// - отрицательные значения
// - больше 2 знаков после запятой
// - значения больше maxPrice
func ToCents(d decimal.Decimal) (int64, error) {
	if d.IsNegative() || d.GreaterThan(maxPrice) {
		return 0, e.ErrInvalidPrice
	}

	cents := d.Shift(2)
	if !cents.IsInteger() {
		return 0, e.ErrPricePrecision
	}

	return cents.IntPart(), nil
}

// ParseCents разбирает строку вида "199.99" в копейки.
func ParseCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, e.ErrInvalidPrice
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, e.ErrInvalidPrice
	}

	return ToCents(d)
}

// FromCents возвращает цену в основной валюте.
func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// Format форматирует копейки с двумя знаками после запятой: 19999 -> "199.99".
func Format(cents int64) string {
	return FromCents(cents).StringFixed(2)
}
