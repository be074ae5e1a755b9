package domain

// CartItem — позиция корзины с ценой из текущего каталога.
type CartItem struct {
	Product  Product
	Quantity int64
}

// Subtotal возвращает стоимость позиции в копейках.
func (c CartItem) Subtotal() int64 {
	return c.Product.Price * c.Quantity
}

// Cart описывает корзину пользователя
type Cart struct {
	Username string
	Items    []CartItem
}

// Total возвращает сумму корзины в копейках.
func (c *Cart) Total() int64 {
	var total int64
	for _, it := range c.Items {
		total += it.Subtotal()
	}

	return total
}
