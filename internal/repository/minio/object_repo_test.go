package minio

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/DRSN-tech/shop-assistant/internal/cfg"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Подпись ссылки считается локально, сервер для неё не нужен.
func TestPresignGetSignsLocally(t *testing.T) {
	mc, err := minio.New("localhost:9000", &minio.Options{
		Creds:  credentials.NewStaticV4("minio", "minio123", ""),
		Region: "us-east-1",
	})
	require.NoError(t, err)

	repo := NewObjectRepo(mc, &cfg.MinIOCfg{BucketName: "shop"})

	link, err := repo.PresignGet(context.Background(), "receipts/abcd1234.html", time.Hour)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(link, "http://localhost:9000/shop/receipts/abcd1234.html?"))
	assert.Contains(t, link, "X-Amz-Expires=3600")
	assert.Contains(t, link, "X-Amz-Signature=")
}
