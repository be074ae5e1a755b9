package minio

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/DRSN-tech/shop-assistant/internal/domain"
	"github.com/DRSN-tech/shop-assistant/internal/usecase"
	"github.com/DRSN-tech/shop-assistant/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeObjectRepo struct {
	mu       sync.Mutex
	stored   map[string]*domain.Object
	deleted  []string
	failName string
	// hang заставляет Upload ждать отмены контекста
	hang bool
}

func newFakeObjectRepo() *fakeObjectRepo {
	return &fakeObjectRepo{stored: make(map[string]*domain.Object)}
}

func (f *fakeObjectRepo) Upload(ctx context.Context, obj *domain.Object) (string, error) {
	if f.hang {
		<-ctx.Done()
		return "", ctx.Err()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failName != "" && obj.ObjectKey == f.failName {
		return "", errors.New("minio down")
	}
	f.stored[obj.ObjectKey] = obj
	return obj.ObjectKey, nil
}

func (f *fakeObjectRepo) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, key)
	delete(f.stored, key)
	return nil
}

func (f *fakeObjectRepo) PresignGet(context.Context, string, time.Duration) (string, error) {
	return "", nil
}

func TestUploadObjects(t *testing.T) {
	repo := newFakeObjectRepo()
	infra := NewMinioInfrastructure(repo, "shop", 2, logger.NewNopLogger(), context.Background())

	res, err := infra.UploadObjects(context.Background(), usecase.NewUploadObjectsReq("uploads", []usecase.UploadObject{
		{Data: []byte("a"), MimeType: "image/png", Name: "aaaa"},
		{Data: []byte("b"), MimeType: "image/jpeg", Name: "bbbb"},
		{Data: []byte("c"), MimeType: "image/webp", Name: "cccc"},
	}))
	require.NoError(t, err)

	sort.Strings(res.Keys)
	assert.Equal(t, []string{"uploads/aaaa.png", "uploads/bbbb.jpg", "uploads/cccc.webp"}, res.Keys)
	assert.Equal(t, "shop", repo.stored["uploads/aaaa.png"].Bucket)
}

func TestUploadObjectsCleansUpOnFailure(t *testing.T) {
	repo := newFakeObjectRepo()
	repo.failName = "uploads/bad.png"
	infra := NewMinioInfrastructure(repo, "shop", 1, logger.NewNopLogger(), context.Background())

	_, err := infra.UploadObjects(context.Background(), usecase.NewUploadObjectsReq("uploads", []usecase.UploadObject{
		{Data: []byte("a"), MimeType: "image/png", Name: "good"},
		{Data: []byte("b"), MimeType: "image/png", Name: "bad"},
	}))
	require.Error(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, infra.WaitForCleanup(ctx))

	repo.mu.Lock()
	defer repo.mu.Unlock()
	assert.Empty(t, repo.stored)
}

func TestUploadObjectsRejectsUnknownMime(t *testing.T) {
	infra := NewMinioInfrastructure(newFakeObjectRepo(), "shop", 2, logger.NewNopLogger(), context.Background())

	_, err := infra.UploadObjects(context.Background(), usecase.NewUploadObjectsReq("uploads", []usecase.UploadObject{
		{Data: []byte("a"), MimeType: "application/zip", Name: "x"},
	}))
	assert.Error(t, err)
}

func TestUploadInBackgroundIsAwaitedOnShutdown(t *testing.T) {
	repo := newFakeObjectRepo()
	infra := NewMinioInfrastructure(repo, "shop", 1, logger.NewNopLogger(), context.Background())

	infra.UploadInBackground(usecase.NewUploadObjectsReq("uploads", []usecase.UploadObject{
		{Data: []byte("a"), MimeType: "image/png", Name: "0123456789abcdef"},
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, infra.WaitForCleanup(ctx))

	repo.mu.Lock()
	defer repo.mu.Unlock()
	assert.Contains(t, repo.stored, "uploads/0123456789abcdef.png")
}

func TestUploadInBackgroundStopsWithAppContext(t *testing.T) {
	repo := newFakeObjectRepo()
	repo.hang = true
	appCtx, stop := context.WithCancel(context.Background())
	infra := NewMinioInfrastructure(repo, "shop", 1, logger.NewNopLogger(), appCtx)

	infra.UploadInBackground(usecase.NewUploadObjectsReq("uploads", []usecase.UploadObject{
		{Data: []byte("a"), MimeType: "image/png", Name: "stuck"},
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.Error(t, infra.WaitForCleanup(ctx))

	stop()
	ctx2, cancel2 := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel2()
	assert.NoError(t, infra.WaitForCleanup(ctx2))
}
