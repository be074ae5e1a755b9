package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/DRSN-tech/shop-assistant/internal/usecase"
	"github.com/DRSN-tech/shop-assistant/pkg/logger"
	"github.com/DRSN-tech/shop-assistant/pkg/money"
	"github.com/go-chi/chi/v5"
)

type CartHandler struct {
	cartUsecase  usecase.CartUC
	orderUsecase usecase.OrderUC
	logger       logger.Logger
}

func NewCartHandler(cartUsecase usecase.CartUC, orderUsecase usecase.OrderUC, logger logger.Logger) *CartHandler {
	return &CartHandler{cartUsecase: cartUsecase, orderUsecase: orderUsecase, logger: logger}
}

type cartItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int64  `json:"quantity"`
}

type cartLineResponse struct {
	Product  productResponse `json:"product"`
	Quantity int64           `json:"quantity"`
	Subtotal json.Number     `json:"subtotal"`
}

type cartResponse struct {
	Items []cartLineResponse `json:"items"`
	Total json.Number        `json:"total"`
}

type orderLineResponse struct {
	ProductID string      `json:"product_id"`
	Name      string      `json:"name"`
	Price     json.Number `json:"price"`
	Quantity  int64       `json:"quantity"`
}

type orderResponse struct {
	ID        string              `json:"id"`
	Items     []orderLineResponse `json:"items"`
	Total     json.Number         `json:"total"`
	Status    string              `json:"status"`
	CreatedAt time.Time           `json:"created_at"`
}

type receiptResponse struct {
	ReceiptID    string    `json:"receiptId"`
	DownloadLink string    `json:"downloadLink"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

func newCartResponse(c *usecase.CartRes) cartResponse {
	items := make([]cartLineResponse, len(c.Items))
	for i, l := range c.Items {
		items[i] = cartLineResponse{
			Product:  newProductResponse(l.Product),
			Quantity: l.Quantity,
			Subtotal: json.Number(money.Format(l.Subtotal)),
		}
	}
	return cartResponse{Items: items, Total: json.Number(money.Format(c.Total))}
}

func newOrderResponse(o *usecase.OrderInfo) orderResponse {
	items := make([]orderLineResponse, len(o.Items))
	for i, l := range o.Items {
		items[i] = orderLineResponse{
			ProductID: l.ProductID,
			Name:      l.Name,
			Price:     json.Number(money.Format(l.Price)),
			Quantity:  l.Quantity,
		}
	}
	return orderResponse{
		ID:        o.ID,
		Items:     items,
		Total:     json.Number(money.Format(o.Total)),
		Status:    o.Status,
		CreatedAt: o.CreatedAt,
	}
}

// getCart
//
//	@Summary	Корзина текущего пользователя
//	@Tags		cart
//	@Produce	json
//	@Security	BearerAuth
//	@Success	200	{object}	cartResponse
//	@Failure	401	{object}	ErrorResponse
//	@Router		/cart [get]
func (h *CartHandler) getCart(w http.ResponseWriter, r *http.Request) {
	cart, err := h.cartUsecase.GetCart(r.Context(), usernameFromCtx(r.Context()))
	if err != nil {
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, newCartResponse(cart))
}

// addItem
//
//	@Summary	Добавить товар в корзину
//	@Tags		cart
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		body	body		cartItemRequest	true	"Товар и количество"
//	@Success	200		{object}	cartResponse
//	@Failure	400		{object}	ErrorResponse
//	@Failure	404		{object}	ErrorResponse
//	@Router		/cart/items [post]
func (h *CartHandler) addItem(w http.ResponseWriter, r *http.Request) {
	var req cartItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, err)
		return
	}

	cart, err := h.cartUsecase.AddItem(r.Context(), usecase.NewCartItemReq(usernameFromCtx(r.Context()), req.ProductID, req.Quantity))
	if err != nil {
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, newCartResponse(cart))
}

// removeItem
//
//	@Summary	Убрать товар из корзины
//	@Tags		cart
//	@Produce	json
//	@Security	BearerAuth
//	@Param		productID	path		string	true	"Id товара"
//	@Success	200			{object}	cartResponse
//	@Router		/cart/items/{productID} [delete]
func (h *CartHandler) removeItem(w http.ResponseWriter, r *http.Request) {
	cart, err := h.cartUsecase.RemoveItem(r.Context(), usecase.NewCartItemReq(usernameFromCtx(r.Context()), chi.URLParam(r, "productID"), 0))
	if err != nil {
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, newCartResponse(cart))
}

// checkout
//
//	@Summary		Оформить заказ
//	@Description	Списывает остатки и создаёт заказ в одной транзакции, событие order.created уходит через outbox
//	@Tags			cart
//	@Produce		json
//	@Security		BearerAuth
//	@Success		201	{object}	orderResponse
//	@Failure		400	{object}	ErrorResponse	"Корзина пуста"
//	@Failure		409	{object}	ErrorResponse	"Недостаточно товара"
//	@Router			/cart/checkout [post]
func (h *CartHandler) checkout(w http.ResponseWriter, r *http.Request) {
	username := usernameFromCtx(r.Context())

	order, err := h.cartUsecase.Checkout(r.Context(), username)
	if err != nil {
		h.logger.Warnf("checkout for %s: %v", username, err)
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusCreated, newOrderResponse(order))
}

// getOrder
//
//	@Summary	Заказ текущего пользователя
//	@Tags		orders
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id	path		string	true	"Id заказа"
//	@Success	200	{object}	orderResponse
//	@Failure	404	{object}	ErrorResponse
//	@Router		/orders/{id} [get]
func (h *CartHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.orderUsecase.GetOrder(r.Context(), chi.URLParam(r, "id"), usernameFromCtx(r.Context()))
	if err != nil {
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, newOrderResponse(order))
}

// receipt
//
//	@Summary		Квитанция по заказу
//	@Description	Рендерит HTML-квитанцию, кладёт её в MinIO и возвращает временную ссылку
//	@Tags			orders
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path		string	true	"Id заказа"
//	@Success		201	{object}	receiptResponse
//	@Failure		404	{object}	ErrorResponse
//	@Router			/orders/{id}/receipt [post]
func (h *CartHandler) receipt(w http.ResponseWriter, r *http.Request) {
	res, err := h.orderUsecase.GenerateReceipt(r.Context(), chi.URLParam(r, "id"), usernameFromCtx(r.Context()))
	if err != nil {
		h.logger.Warnf("receipt: %v", err)
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusCreated, receiptResponse{
		ReceiptID:    res.ReceiptID,
		DownloadLink: res.DownloadLink,
		ExpiresAt:    res.ExpiresAt,
	})
}
