package search

import (
	"context"
	"image"
)

// TextEncoder переводит текст в общее пространство эмбеддингов текста и изображений.
type TextEncoder interface {
	EncodeText(ctx context.Context, text string) ([]float32, error)
}

// ImageEncoder переводит изображение в то же пространство, что и TextEncoder.
type ImageEncoder interface {
	EncodeImage(ctx context.Context, img image.Image) ([]float32, error)
}

// Encoder — мультимодальный кодировщик (CLIP).
type Encoder interface {
	TextEncoder
	ImageEncoder
}
