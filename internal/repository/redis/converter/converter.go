package converter

import (
	"strconv"
	"time"
)

// RecommendationsConverter упаковывает выдачу в модель кэша и обратно.
type RecommendationsConverter interface {
	ToRedisModel(ids []string) *RecommendationsRedisModel
	ToIDs(model *RecommendationsRedisModel) []string
}

type recommendationsConverter struct{}

func NewRecommendationsConverter() RecommendationsConverter { return recommendationsConverter{} }

func (recommendationsConverter) ToRedisModel(ids []string) *RecommendationsRedisModel {
	return &RecommendationsRedisModel{
		ProductIDs: append([]string{}, ids...),
		CachedAt:   time.Now().UTC().Unix(),
	}
}

// ToIDs никогда не возвращает nil для непустой модели: пустая выдача тоже попадание.
func (recommendationsConverter) ToIDs(model *RecommendationsRedisModel) []string {
	if model == nil {
		return nil
	}
	return append([]string{}, model.ProductIDs...)
}

// ParseQuantity разбирает значение поля корзины.
func ParseQuantity(val string) (int64, error) {
	return strconv.ParseInt(val, 10, 64)
}
