package minio

import (
	"bytes"
	"context"
	"time"

	"github.com/DRSN-tech/shop-assistant/internal/cfg"
	"github.com/DRSN-tech/shop-assistant/internal/domain"
	"github.com/DRSN-tech/shop-assistant/pkg/e"
	"github.com/jimlawless/whereami"
	"github.com/minio/minio-go/v7"
)

// ObjectRepo реализует хранилище объектов (квитанции, загруженные фото) поверх MinIO.
type ObjectRepo struct {
	mc  *minio.Client
	cfg *cfg.MinIOCfg
}

func NewObjectRepo(mc *minio.Client, cfg *cfg.MinIOCfg) *ObjectRepo {
	return &ObjectRepo{
		mc:  mc,
		cfg: cfg,
	}
}

// Upload загружает объект в MinIO и возвращает его ключ.
func (o *ObjectRepo) Upload(ctx context.Context, object *domain.Object) (string, error) {
	bucket := object.Bucket
	if bucket == "" {
		bucket = o.cfg.BucketName
	}

	info, err := o.mc.PutObject(ctx, bucket, object.ObjectKey, bytes.NewReader(object.Data), object.Size, minio.PutObjectOptions{
		ContentType: object.ContentType,
	})
	if err != nil {
		return "", e.Wrap(whereami.WhereAmI(), err)
	}

	return info.Key, nil
}

// Delete удаляет объект из MinIO по указанному ключу.
func (o *ObjectRepo) Delete(ctx context.Context, key string) error {
	if err := o.mc.RemoveObject(ctx, o.cfg.BucketName, key, minio.RemoveObjectOptions{}); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// PresignGet выдаёт временную ссылку на скачивание объекта.
func (o *ObjectRepo) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	u, err := o.mc.PresignedGetObject(ctx, o.cfg.BucketName, key, ttl, nil)
	if err != nil {
		return "", e.Wrap(whereami.WhereAmI(), err)
	}

	return u.String(), nil
}
