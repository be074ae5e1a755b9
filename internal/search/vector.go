package search

import (
	"math"

	"github.com/DRSN-tech/shop-assistant/pkg/e"
)

// normalize возвращает L2-нормализованную копию вектора.
func normalize(v []float32) ([]float32, error) {
	if len(v) == 0 {
		return nil, e.ErrEmptyVector
	}

	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if norm == 0 {
		return nil, e.ErrEmptyVector
	}

	norm = math.Sqrt(norm)
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}

	return out, nil
}

// dot считает скалярное произведение в float64. Для нормализованных векторов это косинус.
func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}

	return sum
}
