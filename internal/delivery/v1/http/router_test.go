package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DRSN-tech/shop-assistant/internal/cfg"
	"github.com/DRSN-tech/shop-assistant/internal/usecase"
	"github.com/DRSN-tech/shop-assistant/pkg/e"
	"github.com/DRSN-tech/shop-assistant/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const adminToken = "admin-secret"

type stubCatalog struct {
	usecase.CatalogUC
	notReady   bool
	lastVisual *usecase.VisualMatchReq
	reloads    int
}

func (s *stubCatalog) Status() (*usecase.CatalogStatus, error) {
	if s.notReady {
		return nil, e.ErrNotReady
	}
	return usecase.NewCatalogStatus("abc", 2, 5, true, time.Unix(0, 0).UTC()), nil
}

func (s *stubCatalog) Reload(ctx context.Context) (*usecase.CatalogStatus, error) {
	s.reloads++
	return s.Status()
}

func (s *stubCatalog) List(_ context.Context, req *usecase.ListProductsReq) (*usecase.ListProductsRes, error) {
	return &usecase.ListProductsRes{Products: []usecase.ProductInfo{{ID: "1", Name: "Running Shoes", Price: 12000}}, Total: 1}, nil
}

func (s *stubCatalog) Get(_ context.Context, id string) (*usecase.ProductInfo, error) {
	if id != "1" {
		return nil, e.Wrap("CatalogUseCase.Get", e.ErrProductNotFound)
	}
	return &usecase.ProductInfo{ID: "1", Name: "Running Shoes", Price: 12000}, nil
}

func (s *stubCatalog) Recommend(_ context.Context, req *usecase.RecommendReq) (*usecase.RecommendRes, error) {
	if s.notReady {
		return nil, e.Wrap("CatalogUseCase.Recommend", e.ErrNotReady)
	}
	if req.ProductID != "1" {
		return nil, e.Wrap("CatalogUseCase.Recommend", e.ErrProductNotFound)
	}
	return &usecase.RecommendRes{Products: []usecase.ProductInfo{
		{ID: "2", Name: "Trail Running Shoes", Price: 8999},
		{ID: "3", Name: "Running Socks", Price: 999},
	}}, nil
}

func (s *stubCatalog) VisualMatch(_ context.Context, req *usecase.VisualMatchReq) (*usecase.VisualMatchRes, error) {
	s.lastVisual = req
	return &usecase.VisualMatchRes{Product: usecase.ProductInfo{ID: "1", Name: "Running Shoes", Price: 12000}, Score: 0.42}, nil
}

type stubReview struct {
	usecase.ReviewUC
}

func (stubReview) Sentiment(_ context.Context, text string) (*usecase.SentimentRes, error) {
	if text == "" {
		return nil, e.ErrEmptyText
	}
	return &usecase.SentimentRes{Sentiment: "positive", Score: 0.8, Pos: 0.6, Neu: 0.4}, nil
}

type stubAssistant struct {
	usecase.AssistantUC
	calls int
}

func (s *stubAssistant) Chat(_ context.Context, query string) (*usecase.ChatRes, error) {
	s.calls++
	if query == "down" {
		return nil, errors.Join(e.ErrUpstream, errors.New("connection refused"))
	}
	return &usecase.ChatRes{ResponseRaw: "**hi**", ResponseHTML: "<p><strong>hi</strong></p>\n"}, nil
}

type stubAccount struct {
	usecase.AccountUC
}

func (stubAccount) Authenticate(_ context.Context, token string) (string, error) {
	if token != "good" {
		return "", e.ErrUnauthorized
	}
	return "alice", nil
}

type stubCart struct {
	usecase.CartUC
	username string
}

func (s *stubCart) GetCart(_ context.Context, username string) (*usecase.CartRes, error) {
	s.username = username
	return &usecase.CartRes{
		Items: []usecase.CartLine{{Product: usecase.ProductInfo{ID: "1", Price: 12000}, Quantity: 2, Subtotal: 24000}},
		Total: 24000,
	}, nil
}

func (s *stubCart) Checkout(_ context.Context, username string) (*usecase.OrderInfo, error) {
	return nil, e.Wrap("CartUseCase.Checkout", e.ErrInsufficientStock)
}

type fixture struct {
	handler   http.Handler
	catalog   *stubCatalog
	assistant *stubAssistant
	cart      *stubCart
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		catalog:   &stubCatalog{},
		assistant: &stubAssistant{},
		cart:      &stubCart{},
	}

	mux := chi.NewRouter()
	httpCfg := &cfg.HTTPConfig{AllowedOrigins: []string{"*"}, LLMRateLimit: 2, MaxUploadSizeMB: 1}
	NewRouter(mux, httpCfg, adminToken, logger.NewNopLogger()).Init(UseCases{
		Catalog:   f.catalog,
		Review:    stubReview{},
		Assistant: f.assistant,
		Account:   stubAccount{},
		Cart:      f.cart,
	})
	f.handler = mux

	return f
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestRecommendations(t *testing.T) {
	f := newFixture(t)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/api/v1/recommendations?product_id=1", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body recommendationsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.RecommendedProducts, 2)
	assert.Equal(t, "2", body.RecommendedProducts[0].ID)
	assert.Equal(t, json.Number("89.99"), body.RecommendedProducts[0].Price)
}

func TestRecommendationsErrors(t *testing.T) {
	f := newFixture(t)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/api/v1/recommendations?product_id=999", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "product id not found", decodeBody(t, rec)["message"])

	rec = f.do(httptest.NewRequest(http.MethodGet, "/api/v1/recommendations", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(httptest.NewRequest(http.MethodGet, "/api/v1/recommendations?product_id=1&k=-1", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	f.catalog.notReady = true
	rec = f.do(httptest.NewRequest(http.MethodGet, "/api/v1/recommendations?product_id=1", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, retryAfterSec, rec.Header().Get("Retry-After"))
}

func TestProducts(t *testing.T) {
	f := newFixture(t)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/api/v1/products?category=shoes&limit=10", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decodeBody(t, rec)["total"])

	rec = f.do(httptest.NewRequest(http.MethodGet, "/api/v1/products/1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Running Shoes", decodeBody(t, rec)["name"])

	rec = f.do(httptest.NewRequest(http.MethodGet, "/api/v1/products/42", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func multipartUpload(t *testing.T, field string, data []byte) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, "photo.png")
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/visual-search", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestVisualSearch(t *testing.T) {
	f := newFixture(t)

	png := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 64)...)
	rec := f.do(multipartUpload(t, "file", png))
	require.Equal(t, http.StatusOK, rec.Code)

	var body visualSearchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "1", body.Match.ID)
	assert.InDelta(t, 0.42, body.Score, 1e-9)

	require.NotNil(t, f.catalog.lastVisual)
	assert.Equal(t, png, f.catalog.lastVisual.Data)
	assert.Equal(t, "image/png", f.catalog.lastVisual.MimeType)
}

func TestVisualSearchRejects(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/visual-search", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	assert.Equal(t, http.StatusBadRequest, f.do(req).Code)

	assert.Equal(t, http.StatusBadRequest, f.do(multipartUpload(t, "image", []byte("data"))).Code)
	rec := f.do(multipartUpload(t, "file", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, e.ErrInvalidImage.Error(), decodeBody(t, rec)["message"])
	assert.Equal(t, http.StatusRequestEntityTooLarge, f.do(multipartUpload(t, "file", make([]byte, 3<<20))).Code)
}

func TestHealth(t *testing.T) {
	f := newFixture(t)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "abc", body["catalog_version"])
	assert.Equal(t, 5.0, body["vocabulary_size"])

	f.catalog.notReady = true
	rec = f.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAdminReload(t *testing.T) {
	f := newFixture(t)

	rec := f.do(httptest.NewRequest(http.MethodPost, "/api/v1/admin/catalog/reload", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/catalog/reload", nil)
	req.Header.Set("X-Admin-Token", "wrong")
	assert.Equal(t, http.StatusForbidden, f.do(req).Code)
	assert.Zero(t, f.catalog.reloads)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/admin/catalog/reload", nil)
	req.Header.Set("X-Admin-Token", adminToken)
	assert.Equal(t, http.StatusOK, f.do(req).Code)
	assert.Equal(t, 1, f.catalog.reloads)
}

func TestAnalyzeReview(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze-review", strings.NewReader(`{"review":"great"}`))
	rec := f.do(req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body analyzeReviewResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "positive", body.Sentiment)
	assert.InDelta(t, 0.8, body.Scores.Compound, 1e-9)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/analyze-review", strings.NewReader(`{"review":""}`))
	assert.Equal(t, http.StatusBadRequest, f.do(req).Code)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/analyze-review", strings.NewReader(`not json`))
	assert.Equal(t, http.StatusBadRequest, f.do(req).Code)
}

func TestChatbotRateLimitAndUpstream(t *testing.T) {
	f := newFixture(t)

	rec := f.do(httptest.NewRequest(http.MethodPost, "/api/v1/chatbot", strings.NewReader(`{"query":"hello"}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "**hi**", decodeBody(t, rec)["response_raw"])

	rec = f.do(httptest.NewRequest(http.MethodPost, "/api/v1/chatbot", strings.NewReader(`{"query":"down"}`)))
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	rec = f.do(httptest.NewRequest(http.MethodPost, "/api/v1/chatbot", strings.NewReader(`{"query":"hello"}`)))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, 2, f.assistant.calls)
}

func TestCartRequiresAuth(t *testing.T) {
	f := newFixture(t)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("Authorization", "Bearer bad")
	assert.Equal(t, http.StatusUnauthorized, f.do(req).Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec = f.do(req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice", f.cart.username)
	assert.Contains(t, rec.Body.String(), `"total":240.00`)
}

func TestCheckoutConflict(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/checkout", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec := f.do(req)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, e.ErrInsufficientStock.Error(), decodeBody(t, rec)["message"])
}

func TestToHTTPResponse(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{e.Wrap("op", e.ErrInvalidImage), http.StatusBadRequest},
		{e.Wrap("op", e.ErrFileTooLarge), http.StatusRequestEntityTooLarge},
		{e.Wrap("op", e.ErrInvalidCredentials), http.StatusUnauthorized},
		{e.Wrap("op", e.ErrNoVisualMatch), http.StatusNotFound},
		{e.Wrap("op", e.ErrUserAlreadyExists), http.StatusConflict},
		{errors.Join(e.ErrEncoderUnavailable, errors.New("dial")), http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		code, msg := ToHTTPResponse(tt.err)
		assert.Equal(t, tt.code, code, tt.err.Error())
		assert.NotContains(t, msg, "op:")
	}
}
