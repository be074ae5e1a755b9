package usecase

import (
	"context"
	"image"
	"time"
)

// EncoderInfra — мультимодальный кодировщик ML-сервиса.
type EncoderInfra interface {
	EncodeText(ctx context.Context, text string) ([]float32, error)
	EncodeImage(ctx context.Context, img image.Image) ([]float32, error)
}

type LLMInfra interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

type MarkdownInfra interface {
	ToHTML(markdown string) (string, error)
}

type MessageProducer interface {
	WriteMessage(ctx context.Context, req *WriteMessageReq) error
}

// EventPublisher отправляет аналитические события в фоне. Ошибки только логируются.
type EventPublisher interface {
	Publish(eventType string, key string, payload any)
}

type ObjectsInfra interface {
	UploadObjects(ctx context.Context, req *UploadObjectsReq) (*UploadObjectsRes, error)
	// UploadInBackground загружает объекты без ожидания результата. Ошибки только логируются.
	UploadInBackground(req *UploadObjectsReq)
	CleanupObjects(keys []string)
}

type ReceiptRenderer interface {
	Render(data *ReceiptData) ([]byte, error)
}

type TokenInfra interface {
	Issue(username string) (token string, expiresAt time.Time, err error)
	Parse(token string) (username string, err error)
}
