package e

import "fmt"

var (
	// Внутренние ошибки с транзакциями
	ErrTransactionNotFound = fmt.Errorf("transaction not found")

	// Ошибки конфигурации
	ErrIncorrectEnvVariable = fmt.Errorf("incorrect environment variable")

	// Ошибки каталога и индексов
	ErrDataLoad             = fmt.Errorf("catalog data load error")
	ErrNotReady             = fmt.Errorf("catalog index is not ready")
	ErrEmbeddingUnavailable = fmt.Errorf("embedding index unavailable")
	ErrEmptyVector          = fmt.Errorf("encoder returned empty vector")
	ErrVectorSizeMismatch   = fmt.Errorf("vector size mismatch")

	// Ошибки внешних сервисов
	ErrEncoderUnavailable = fmt.Errorf("encoder service unavailable")
	ErrUpstream           = fmt.Errorf("upstream service error")

	// 400 Bad Request
	ErrStatusBadRequest     = fmt.Errorf("bad request")
	ErrExpectedMultipart    = fmt.Errorf("expected multipart/form-data")
	ErrMissingFields        = fmt.Errorf("missing required fields")
	ErrInvalidImage         = fmt.Errorf("invalid image")
	ErrNoImage              = fmt.Errorf("no image provided")
	ErrFileTooLarge         = fmt.Errorf("file too large")
	ErrUnsupportedMediaType = fmt.Errorf("unsupported media type")
	ErrInvalidPrice         = fmt.Errorf("invalid price")
	ErrPricePrecision       = fmt.Errorf("price must have at most 2 decimal places")
	ErrInvalidQuantity      = fmt.Errorf("quantity must be positive")
	ErrInvalidLimit         = fmt.Errorf("invalid result count")
	ErrEmptyText            = fmt.Errorf("text is required")
	ErrEmptyCart            = fmt.Errorf("cart is empty")
	ErrInvalidSignup        = fmt.Errorf("name, email, username and password are required")

	// 401 / 403
	ErrUnauthorized       = fmt.Errorf("unauthorized")
	ErrInvalidCredentials = fmt.Errorf("invalid username or password")
	ErrForbidden          = fmt.Errorf("forbidden")

	// 404 Not Found
	ErrProductNotFound = fmt.Errorf("product id not found")
	ErrNoVisualMatch   = fmt.Errorf("no product match found")
	ErrUserNotFound    = fmt.Errorf("user not found")
	ErrOrderNotFound   = fmt.Errorf("order not found")

	// 409 Conflict
	ErrUserAlreadyExists = fmt.Errorf("user already exists")
	ErrInsufficientStock = fmt.Errorf("insufficient stock")

	// 500
	ErrInternalServerError = fmt.Errorf("internal server error")
)

// Wrap оборачивает ошибку
func Wrap(msg string, err error) error {
	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf оборачивает ошибку с форматированным контекстом
func Wrapf(err error, format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
