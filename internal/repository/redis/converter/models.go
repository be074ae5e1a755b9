package converter

// RecommendationsRedisModel — закэшированная выдача рекомендаций.
type RecommendationsRedisModel struct {
	ProductIDs []string `json:"product_ids"`
	CachedAt   int64    `json:"cached_at"`
}
