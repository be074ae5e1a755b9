package http

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/DRSN-tech/shop-assistant/internal/usecase"
	"github.com/DRSN-tech/shop-assistant/pkg/e"
	"github.com/DRSN-tech/shop-assistant/pkg/money"
	"github.com/jimlawless/whereami"
)

const (
	maxJSONBodySize = 1 << 20
	retryAfterSec   = "5"
)

type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func NewErrorResponse(code int, message string) *ErrorResponse {
	return &ErrorResponse{
		Code:    code,
		Message: message,
	}
}

// ToHTTPResponse сопоставляет доменную ошибку со статусом и сообщением для клиента.
func ToHTTPResponse(err error) (int, string) {
	for _, m := range errorStatuses {
		if errors.Is(err, m.err) {
			return m.code, m.err.Error()
		}
	}

	return http.StatusInternalServerError, e.ErrInternalServerError.Error()
}

var errorStatuses = []struct {
	err  error
	code int
}{
	{e.ErrNotReady, http.StatusServiceUnavailable},
	{e.ErrEmbeddingUnavailable, http.StatusServiceUnavailable},
	{e.ErrEncoderUnavailable, http.StatusServiceUnavailable},
	{e.ErrUpstream, http.StatusBadGateway},

	{e.ErrStatusBadRequest, http.StatusBadRequest},
	{e.ErrExpectedMultipart, http.StatusBadRequest},
	{e.ErrMissingFields, http.StatusBadRequest},
	{e.ErrInvalidImage, http.StatusBadRequest},
	{e.ErrNoImage, http.StatusBadRequest},
	{e.ErrInvalidPrice, http.StatusBadRequest},
	{e.ErrPricePrecision, http.StatusBadRequest},
	{e.ErrInvalidQuantity, http.StatusBadRequest},
	{e.ErrInvalidLimit, http.StatusBadRequest},
	{e.ErrEmptyText, http.StatusBadRequest},
	{e.ErrEmptyCart, http.StatusBadRequest},
	{e.ErrInvalidSignup, http.StatusBadRequest},
	{e.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
	{e.ErrUnsupportedMediaType, http.StatusUnsupportedMediaType},

	{e.ErrUnauthorized, http.StatusUnauthorized},
	{e.ErrInvalidCredentials, http.StatusUnauthorized},
	{e.ErrForbidden, http.StatusForbidden},

	{e.ErrProductNotFound, http.StatusNotFound},
	{e.ErrNoVisualMatch, http.StatusNotFound},
	{e.ErrUserNotFound, http.StatusNotFound},
	{e.ErrOrderNotFound, http.StatusNotFound},

	{e.ErrUserAlreadyExists, http.StatusConflict},
	{e.ErrInsufficientStock, http.StatusConflict},
}

func WriteError(w http.ResponseWriter, err error) {
	code, msg := ToHTTPResponse(err)
	if errors.Is(err, e.ErrNotReady) {
		w.Header().Set("Retry-After", retryAfterSec)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(NewErrorResponse(code, msg))
}

func WriteSuccess(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// decodeJSON читает тело запроса в dst. Любая ошибка разбора превращается в 400.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodySize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return e.Wrap(err.Error(), e.ErrStatusBadRequest)
	}
	return nil
}

// queryInt читает неотрицательное целое из query-параметра. Отсутствие параметра даёт def.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, nil
	}

	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, e.Wrapf(e.ErrInvalidLimit, "%s=%q", name, raw)
	}
	return v, nil
}

func ensureMultipartForm(r *http.Request, maxMemory int64) error {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return e.Wrap(whereami.WhereAmI(), e.ErrExpectedMultipart)
	}
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			return e.Wrap(whereami.WhereAmI(), e.ErrFileTooLarge)
		}
		return e.Wrap(err.Error(), e.ErrStatusBadRequest)
	}
	return nil
}

func readFile(fh *multipart.FileHeader, maxSize int64) ([]byte, string, error) {
	src, err := fh.Open()
	if err != nil {
		return nil, "", e.ErrInternalServerError
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, maxSize+1))
	if err != nil {
		return nil, "", e.ErrInternalServerError
	}
	if int64(len(data)) > maxSize {
		return nil, "", e.Wrap(fh.Filename, e.ErrFileTooLarge)
	}
	if len(data) == 0 {
		return nil, "", e.Wrap(fh.Filename, e.ErrInvalidImage)
	}

	mimeType := http.DetectContentType(data[:min(len(data), 512)])
	return data, mimeType, nil
}

// PRESENTATION

type productResponse struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Image       string      `json:"image"`
	Price       json.Number `json:"price"`
	Stock       int64       `json:"stock"`
	Category    string      `json:"category,omitempty"`
	Description string      `json:"description,omitempty"`
}

func newProductResponse(p usecase.ProductInfo) productResponse {
	return productResponse{
		ID:          p.ID,
		Name:        p.Name,
		Image:       p.Image,
		Price:       json.Number(money.Format(p.Price)),
		Stock:       p.Stock,
		Category:    p.Category,
		Description: p.Description,
	}
}

func newProductResponses(products []usecase.ProductInfo) []productResponse {
	out := make([]productResponse, len(products))
	for i, p := range products {
		out[i] = newProductResponse(p)
	}
	return out
}
