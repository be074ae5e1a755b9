package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/DRSN-tech/shop-assistant/internal/usecase"
	"github.com/DRSN-tech/shop-assistant/pkg/e"
	"github.com/DRSN-tech/shop-assistant/pkg/logger"
	"github.com/go-chi/chi/v5"
)

type CatalogHandler struct {
	catalogUsecase usecase.CatalogUC
	maxUploadSize  int64
	logger         logger.Logger
}

func NewCatalogHandler(catalogUsecase usecase.CatalogUC, maxUploadSize int64, logger logger.Logger) *CatalogHandler {
	return &CatalogHandler{catalogUsecase: catalogUsecase, maxUploadSize: maxUploadSize, logger: logger}
}

type listProductsResponse struct {
	Products []productResponse `json:"products"`
	Total    int               `json:"total"`
}

type recommendationsResponse struct {
	RecommendedProducts []productResponse `json:"recommended_products"`
	Cached              bool              `json:"cached"`
}

type visualSearchResponse struct {
	Match productResponse `json:"match"`
	Score float64         `json:"score"`
}

type catalogStatusResponse struct {
	Status         string    `json:"status"`
	Version        string    `json:"catalog_version,omitempty"`
	Products       int       `json:"products"`
	VocabularySize int       `json:"vocabulary_size"`
	HasEmbeddings  bool      `json:"has_embeddings"`
	BuiltAt        time.Time `json:"built_at,omitempty"`
}

func newCatalogStatusResponse(s *usecase.CatalogStatus) catalogStatusResponse {
	return catalogStatusResponse{
		Status:         "ok",
		Version:        s.Version,
		Products:       s.Products,
		VocabularySize: s.VocabularySize,
		HasEmbeddings:  s.HasEmbeddings,
		BuiltAt:        s.BuiltAt,
	}
}

// listProducts
//
//	@Summary		Список товаров
//	@Description	Возвращает товары в порядке каталога, с фильтром по категории и пагинацией
//	@Tags			products
//	@Produce		json
//	@Param			category	query		string	false	"Категория"
//	@Param			offset		query		int		false	"Смещение"
//	@Param			limit		query		int		false	"Количество"
//	@Success		200			{object}	listProductsResponse
//	@Failure		400			{object}	ErrorResponse
//	@Failure		503			{object}	ErrorResponse	"Индекс ещё строится"
//	@Router			/products [get]
func (h *CatalogHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		WriteError(w, err)
		return
	}
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		WriteError(w, err)
		return
	}

	res, err := h.catalogUsecase.List(r.Context(), usecase.NewListProductsReq(r.URL.Query().Get("category"), offset, limit))
	if err != nil {
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, listProductsResponse{
		Products: newProductResponses(res.Products),
		Total:    res.Total,
	})
}

// getProduct
//
//	@Summary	Товар по id
//	@Tags		products
//	@Produce	json
//	@Param		id	path		string	true	"Id товара"
//	@Success	200	{object}	productResponse
//	@Failure	404	{object}	ErrorResponse
//	@Router		/products/{id} [get]
func (h *CatalogHandler) getProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.catalogUsecase.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, newProductResponse(*p))
}

// recommendations
//
//	@Summary		Похожие товары
//	@Description	Товары с наиболее похожими названиями, сам товар в выдачу не попадает
//	@Tags			products
//	@Produce		json
//	@Param			product_id	query		string	true	"Id товара"
//	@Param			k			query		int		false	"Количество рекомендаций"
//	@Success		200			{object}	recommendationsResponse
//	@Failure		400			{object}	ErrorResponse
//	@Failure		404			{object}	ErrorResponse	"product id not found"
//	@Failure		503			{object}	ErrorResponse	"Индекс ещё строится"
//	@Router			/recommendations [get]
func (h *CatalogHandler) recommendations(w http.ResponseWriter, r *http.Request) {
	productID := r.URL.Query().Get("product_id")
	if productID == "" {
		WriteError(w, e.Wrap("product_id", e.ErrMissingFields))
		return
	}

	k, err := queryInt(r, "k", 0)
	if err != nil {
		WriteError(w, err)
		return
	}

	res, err := h.catalogUsecase.Recommend(r.Context(), usecase.NewRecommendReq(productID, k))
	if err != nil {
		if !errors.Is(err, e.ErrProductNotFound) {
			h.logger.Warnf("recommendations for %s: %v", productID, err)
		}
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, recommendationsResponse{
		RecommendedProducts: newProductResponses(res.Products),
		Cached:              res.Cached,
	})
}

// visualSearch
//
//	@Summary		Поиск товара по фото
//	@Description	Возвращает товар, название которого ближе всего к загруженной фотографии
//	@Tags			products
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			file	formData	file	true	"Фотография"
//	@Success		200		{object}	visualSearchResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse	"Нет достаточно похожего товара"
//	@Failure		413		{object}	ErrorResponse
//	@Failure		503		{object}	ErrorResponse
//	@Router			/visual-search [post]
func (h *CatalogHandler) visualSearch(w http.ResponseWriter, r *http.Request) {
	const maxMemory = 8 << 20

	// запас на заголовки multipart
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize+(1<<20))

	if err := ensureMultipartForm(r, maxMemory); err != nil {
		h.logger.Warnf("%d %s: %s", http.StatusBadRequest, e.ErrStatusBadRequest.Error(), r.Header.Get("Content-Type"))
		WriteError(w, err)
		return
	}

	files := r.MultipartForm.File["file"]
	if len(files) == 0 {
		WriteError(w, e.Wrap("file", e.ErrNoImage))
		return
	}

	data, mimeType, err := readFile(files[0], h.maxUploadSize)
	if err != nil {
		WriteError(w, err)
		return
	}

	res, err := h.catalogUsecase.VisualMatch(r.Context(), usecase.NewVisualMatchReq(data, mimeType, files[0].Filename))
	if err != nil {
		h.logger.Warnf("visual search: %v", err)
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, visualSearchResponse{
		Match: newProductResponse(res.Product),
		Score: res.Score,
	})
}

// health
//
//	@Summary	Состояние сервиса
//	@Tags		service
//	@Produce	json
//	@Success	200	{object}	catalogStatusResponse
//	@Failure	503	{object}	ErrorResponse	"Индекс ещё строится"
//	@Router		/health [get]
func (h *CatalogHandler) health(w http.ResponseWriter, r *http.Request) {
	status, err := h.catalogUsecase.Status()
	if err != nil {
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, newCatalogStatusResponse(status))
}

// reload
//
//	@Summary		Перестроить индекс каталога
//	@Description	Перечитывает каталог и атомарно подменяет индекс. При ошибке остаётся прежний индекс
//	@Tags			admin
//	@Produce		json
//	@Param			X-Admin-Token	header		string	true	"Токен администратора"
//	@Success		200				{object}	catalogStatusResponse
//	@Failure		403				{object}	ErrorResponse
//	@Failure		500				{object}	ErrorResponse
//	@Router			/admin/catalog/reload [post]
func (h *CatalogHandler) reload(w http.ResponseWriter, r *http.Request) {
	status, err := h.catalogUsecase.Reload(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, newCatalogStatusResponse(status))
}
