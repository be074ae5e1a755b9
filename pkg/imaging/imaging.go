// Package imaging декодирует загруженные изображения и приводит их к RGBA.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	"github.com/DRSN-tech/shop-assistant/pkg/e"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// Decode декодирует jpeg/png/gif/webp и возвращает изображение в RGBA вместе с форматом.
// Любая ошибка декодирования превращается в e.ErrInvalidImage. Размеры проверяются по
// заголовку до декодирования: больше maxPixels пикселей даёт e.ErrFileTooLarge.
// maxPixels <= 0 отключает проверку.
func Decode(data []byte, maxPixels int64) (*image.RGBA, string, error) {
	if len(data) == 0 {
		return nil, "", e.ErrInvalidImage
	}

	conf, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", e.ErrInvalidImage, err)
	}
	if conf.Width <= 0 || conf.Height <= 0 {
		return nil, "", e.ErrInvalidImage
	}
	if maxPixels > 0 && int64(conf.Width)*int64(conf.Height) > maxPixels {
		return nil, "", fmt.Errorf("%w: %dx%d exceeds %d pixels", e.ErrFileTooLarge, conf.Width, conf.Height, maxPixels)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", e.ErrInvalidImage, err)
	}

	b := img.Bounds()
	if b.Empty() {
		return nil, "", e.ErrInvalidImage
	}

	return ToRGBA(img), format, nil
}

// ToRGBA копирует изображение в RGBA с началом координат в (0,0).
func ToRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) {
		return rgba
	}

	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)

	return dst
}

// Fit уменьшает изображение так, чтобы большая сторона не превышала maxSide.
// Изображения меньше maxSide возвращаются без изменений.
func Fit(img *image.RGBA, maxSide int) *image.RGBA {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	if maxSide <= 0 || (w <= maxSide && h <= maxSide) {
		return img
	}

	if w >= h {
		h = max(1, h*maxSide/w)
		w = maxSide
	} else {
		w = max(1, w*maxSide/h)
		h = maxSide
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)

	return dst
}

// EncodePNG кодирует изображение в PNG.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, e.Wrap("imaging.EncodePNG", err)
	}

	return buf.Bytes(), nil
}
