package minio

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/DRSN-tech/shop-assistant/internal/domain"
	"github.com/DRSN-tech/shop-assistant/internal/infrastructure"
	"github.com/DRSN-tech/shop-assistant/internal/usecase"
	"github.com/DRSN-tech/shop-assistant/pkg/e"
	"github.com/DRSN-tech/shop-assistant/pkg/jitter"
	"github.com/DRSN-tech/shop-assistant/pkg/logger"
)

const (
	defaultUploadLimit = 4
	cleanupAttempts    = 3
	cleanupTimeout     = 30 * time.Second
	uploadTimeout      = 30 * time.Second
)

// MinioInfrastructure управляет загрузкой и очисткой объектов в MinIO.
type MinioInfrastructure struct {
	objectRepo  usecase.ObjectRepository
	bucket      string
	logger      logger.Logger
	shutdownCtx context.Context
	wg          sync.WaitGroup
	uploadLimit int
	backoff     jitter.Backoff
}

func NewMinioInfrastructure(objectRepo usecase.ObjectRepository, bucket string, uploadLimit int,
	logger logger.Logger, shutdownCtx context.Context) *MinioInfrastructure {
	if uploadLimit <= 0 {
		uploadLimit = defaultUploadLimit
	}

	return &MinioInfrastructure{
		objectRepo:  objectRepo,
		bucket:      bucket,
		logger:      logger,
		shutdownCtx: shutdownCtx,
		uploadLimit: uploadLimit,
		backoff:     jitter.NewBackoff(time.Second, 4*time.Second),
	}
}

// UploadObjects загружает объекты в MinIO параллельно с ограничением одновременных операций.
// Ключ объекта: {prefix}/{name}.{ext}. В случае ошибки отменяет остальные загрузки
// и запускает очистку уже загруженных файлов.
func (m *MinioInfrastructure) UploadObjects(ctx context.Context, req *usecase.UploadObjectsReq) (*usecase.UploadObjectsRes, error) {
	const op = "MinioInfrastructure.UploadObjects"
	// Отмена остальных загрузок при первой ошибке
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	keyCh := make(chan string, len(req.Objects))
	errCh := make(chan error, len(req.Objects))
	sem := make(chan struct{}, m.uploadLimit)

	var uploadWg sync.WaitGroup
	for _, object := range req.Objects {
		uploadWg.Add(1)
		go func() {
			defer uploadWg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			ext, err := infrastructure.GetExtensionFromMIME(object.MimeType)
			if err != nil {
				errCh <- fmt.Errorf("invalid mime type %s for %s: %w", object.MimeType, object.Name, err)
				return
			}
			objKey := fmt.Sprintf("%s/%s.%s", req.Prefix, object.Name, ext)

			key, err := m.objectRepo.Upload(ctx, domain.NewObject(m.bucket, objKey, object.Data, object.MimeType))
			if err != nil {
				errCh <- fmt.Errorf("upload %s failed: %w", object.Name, err)
				return
			}

			keyCh <- key
		}()
	}

	// Каналы буферизованы на все объекты, поэтому горутины не блокируются после выхода
	go func() {
		uploadWg.Wait()
		close(errCh)
		close(keyCh)
	}()

	keys := make([]string, 0, len(req.Objects))
	var uploadErr error
	for completed := 0; completed < len(req.Objects); completed++ {
		select {
		case key := <-keyCh:
			keys = append(keys, key)
		case err := <-errCh:
			if uploadErr == nil {
				uploadErr = err
				cancel()
			}
		}
	}

	if uploadErr != nil {
		m.CleanupObjects(keys)
		return nil, e.Wrap(op, uploadErr)
	}

	return usecase.NewUploadObjectsRes(keys), nil
}

// UploadInBackground загружает объекты в фоне на контексте приложения.
// Завершения ждёт WaitForCleanup.
func (m *MinioInfrastructure) UploadInBackground(req *usecase.UploadObjectsReq) {
	const op = "MinioInfrastructure.UploadInBackground"
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()

		ctx, cancel := context.WithTimeout(m.shutdownCtx, uploadTimeout)
		defer cancel()

		if _, err := m.UploadObjects(ctx, req); err != nil {
			m.logger.Warnf("%s: prefix=%s: %v", op, req.Prefix, err)
		}
	}()
}

// CleanupObjects запускает фоновую очистку указанных ключей MinIO
func (m *MinioInfrastructure) CleanupObjects(keys []string) {
	if len(keys) == 0 {
		return
	}
	m.wg.Add(1)
	go m.cleanupUploadedKeys(keys)
}

// cleanupUploadedKeys удаляет указанные объекты из MinIO с экспоненциальной задержкой и jitter.
func (m *MinioInfrastructure) cleanupUploadedKeys(keys []string) {
	defer m.wg.Done() // сигнализируем завершение компенсации
	const op = "MinioInfrastructure.cleanupUploadedKeys"
	m.logger.Infof("%s: Cleaning up %d uploaded keys", op, len(keys))

	ctx, cancel := context.WithTimeout(m.shutdownCtx, cleanupTimeout)
	defer cancel()

	for _, key := range keys {
		for attempt := 0; attempt < cleanupAttempts; attempt++ {
			err := m.objectRepo.Delete(ctx, key)
			if err == nil {
				break
			}

			if attempt == cleanupAttempts-1 {
				m.logger.Errorf(err, "%s: giving up on key=%s", op, key)
				break
			}

			select {
			case <-time.After(m.backoff.Next(attempt)):
			case <-ctx.Done():
				m.logger.Warnf("cleanup interrupted by shutdown, key=%v", key)
				return
			}
		}
	}
}

// WaitForCleanup ожидает фоновые загрузки и очистку с учётом таймаута завершения приложения.
func (m *MinioInfrastructure) WaitForCleanup(shutdownTimeoutCtx context.Context) error {
	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-shutdownTimeoutCtx.Done():
		return fmt.Errorf("minio background tasks timeout during shutdown: %w", shutdownTimeoutCtx.Err())
	}
}
