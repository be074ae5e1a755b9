package domain

import "time"

// Payload описывает дополнительную информацию вектора
type Payload map[string]any

// Embedding представляет эмбеддинг текста (названия товара) в общем пространстве CLIP
type Embedding struct {
	ID      string
	Vector  []float32
	Payload Payload
}

func NewEmbedding(id string, vector []float32, payload Payload) *Embedding {
	return &Embedding{
		ID:      id,
		Vector:  vector,
		Payload: payload,
	}
}

func NewPayload(text string, model string) Payload {
	return Payload{
		"text":       text,
		"model":      model,
		"created_at": time.Now().UTC().UnixNano(),
	}
}
