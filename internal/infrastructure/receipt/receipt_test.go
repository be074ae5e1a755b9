package receipt

import (
	"testing"
	"time"

	"github.com/DRSN-tech/shop-assistant/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	out, err := NewRenderer().Render(&usecase.ReceiptData{
		ReceiptID: "abcd1234",
		OrderID:   "ord-1",
		Username:  "ann",
		Items: []usecase.OrderLine{
			{ProductID: "1", Name: "Red Running Shoes", Price: 8999, Quantity: 2},
			{ProductID: "9", Name: "<b>Wallet</b>", Price: 3500, Quantity: 1},
		},
		Total:    21498,
		IssuedAt: time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	html := string(out)
	assert.Contains(t, html, "Receipt abcd1234")
	assert.Contains(t, html, "$89.99")
	assert.Contains(t, html, "$179.98")
	assert.Contains(t, html, "Total: $214.98")
	assert.Contains(t, html, "2026-03-01 12:30 UTC")
	assert.Contains(t, html, "&lt;b&gt;Wallet&lt;/b&gt;")
}
