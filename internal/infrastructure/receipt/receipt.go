// Package receipt рендерит HTML-квитанцию по заказу.
package receipt

import (
	"bytes"
	"html/template"

	"github.com/DRSN-tech/shop-assistant/internal/usecase"
	"github.com/DRSN-tech/shop-assistant/pkg/e"
	"github.com/DRSN-tech/shop-assistant/pkg/money"
	"github.com/jimlawless/whereami"
)

const receiptTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Receipt {{.ReceiptID}}</title>
</head>
<body>
<h1>Receipt {{.ReceiptID}}</h1>
<p>Order: {{.OrderID}}<br>Customer: {{.Username}}<br>Date: {{.IssuedAt.Format "2006-01-02 15:04 MST"}}</p>
<table>
<thead><tr><th>Product</th><th>Price</th><th>Qty</th><th>Subtotal</th></tr></thead>
<tbody>
{{- range .Items}}
<tr><td>{{.Name}}</td><td>${{price .Price}}</td><td>{{.Quantity}}</td><td>${{subtotal .Price .Quantity}}</td></tr>
{{- end}}
</tbody>
</table>
<p><strong>Total: ${{price .Total}}</strong></p>
</body>
</html>
`

type Renderer struct {
	tmpl *template.Template
}

func NewRenderer() *Renderer {
	tmpl := template.Must(template.New("receipt").Funcs(template.FuncMap{
		"price": money.Format,
		"subtotal": func(price, qty int64) string {
			return money.Format(price * qty)
		},
	}).Parse(receiptTemplate))

	return &Renderer{tmpl: tmpl}
}

func (r *Renderer) Render(data *usecase.ReceiptData) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, data); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return buf.Bytes(), nil
}
