package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/DRSN-tech/shop-assistant/internal/domain"
	"github.com/DRSN-tech/shop-assistant/pkg/e"
	"github.com/DRSN-tech/shop-assistant/pkg/logger"
	"github.com/google/uuid"
)

const (
	receiptsPrefix    = "receipts"
	receiptMimeType   = "text/html; charset=utf-8"
	receiptIDLen      = 8
	defaultPresignTTL = 24 * time.Hour
)

// OrderUseCase выдаёт заказы и генерирует по ним квитанции.
type OrderUseCase struct {
	orderRepo  OrderRepository
	objectRepo ObjectRepository
	objects    ObjectsInfra
	renderer   ReceiptRenderer
	bucket     string
	presignTTL time.Duration
	logger     logger.Logger
}

func NewOrderUC(
	orderRepo OrderRepository,
	objectRepo ObjectRepository,
	objects ObjectsInfra,
	renderer ReceiptRenderer,
	bucket string,
	presignTTL time.Duration,
	logger logger.Logger,
) *OrderUseCase {
	if presignTTL <= 0 {
		presignTTL = defaultPresignTTL
	}

	return &OrderUseCase{
		orderRepo:  orderRepo,
		objectRepo: objectRepo,
		objects:    objects,
		renderer:   renderer,
		bucket:     bucket,
		presignTTL: presignTTL,
		logger:     logger,
	}
}

func (o *OrderUseCase) GetOrder(ctx context.Context, id string, username string) (*OrderInfo, error) {
	const op = "OrderUseCase.GetOrder"

	order, err := o.orderRepo.GetByID(ctx, id, username)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return NewOrderInfo(order), nil
}

// GenerateReceipt рендерит HTML-квитанцию, кладёт её в MinIO и возвращает ссылку на скачивание.
// Если ключ квитанции не удалось сохранить в заказе, загруженный объект удаляется.
func (o *OrderUseCase) GenerateReceipt(ctx context.Context, id string, username string) (*ReceiptRes, error) {
	const op = "OrderUseCase.GenerateReceipt"

	order, err := o.orderRepo.GetByID(ctx, id, username)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	receiptID := uuid.NewString()[:receiptIDLen]
	info := NewOrderInfo(order)

	html, err := o.renderer.Render(&ReceiptData{
		ReceiptID: receiptID,
		OrderID:   order.ID,
		Username:  order.Username,
		Items:     info.Items,
		Total:     order.Total,
		IssuedAt:  time.Now().UTC(),
	})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	key := fmt.Sprintf("%s/%s.html", receiptsPrefix, receiptID)
	if _, err := o.objectRepo.Upload(ctx, domain.NewObject(o.bucket, key, html, receiptMimeType)); err != nil {
		return nil, e.Wrap(op, err)
	}

	if err := o.orderRepo.SetReceiptKey(ctx, order.ID, key); err != nil {
		o.logger.Warnf("Cleaning up orphaned receipt after order update failure. order_id: %s, error: %v", order.ID, err)
		o.objects.CleanupObjects([]string{key})
		return nil, e.Wrap(op, err)
	}

	link, err := o.objectRepo.PresignGet(ctx, key, o.presignTTL)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	o.logger.Infof("receipt %s generated for order %s", receiptID, order.ID)

	return &ReceiptRes{
		ReceiptID:    receiptID,
		DownloadLink: link,
		ExpiresAt:    time.Now().UTC().Add(o.presignTTL),
	}, nil
}
