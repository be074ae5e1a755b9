package domain

import "strings"

// PlaceholderImage подставляется, если у товара нет картинки.
const PlaceholderImage = "images/placeholder.jpg"

// Product описывает товар каталога
type Product struct {
	ID          string
	Name        string
	Image       string
	Price       int64 // Цена хранится в копейках
	Stock       int64
	Category    string
	Description string
}

func NewProduct(id string, name string, image string, price int64, stock int64) *Product {
	p := &Product{
		ID:    strings.TrimSpace(id),
		Name:  strings.TrimSpace(name),
		Image: strings.TrimSpace(image),
		Price: price,
		Stock: stock,
	}
	if p.Image == "" {
		p.Image = PlaceholderImage
	}

	return p
}

// ScoredProduct — товар вместе с косинусной близостью к запросу.
type ScoredProduct struct {
	Product Product
	Score   float64
}
