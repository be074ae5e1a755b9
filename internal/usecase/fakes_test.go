package usecase

import (
	"context"
	"image"
	"image/color"
	"sync"
	"testing"
	"time"

	"github.com/DRSN-tech/shop-assistant/internal/domain"
	"github.com/DRSN-tech/shop-assistant/pkg/e"
	"github.com/DRSN-tech/shop-assistant/pkg/imaging"
	"github.com/stretchr/testify/require"
)

type stubLoader struct {
	mu       sync.Mutex
	products []domain.Product
	err      error
}

func (s *stubLoader) Load(context.Context) ([]domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.products, s.err
}

func (s *stubLoader) set(products []domain.Product, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products, s.err = products, err
}

// colorEncoder кладёт названия и картинки в пространство "красный/синий/прочее".
type colorEncoder struct {
	mu         sync.Mutex
	text       map[string][]float32
	imageCalls int
}

func (c *colorEncoder) EncodeText(_ context.Context, text string) ([]float32, error) {
	if v, ok := c.text[text]; ok {
		return v, nil
	}
	return []float32{0, 0, 1}, nil
}

func (c *colorEncoder) EncodeImage(_ context.Context, img image.Image) ([]float32, error) {
	c.mu.Lock()
	c.imageCalls++
	c.mu.Unlock()

	r, _, b, _ := img.At(0, 0).RGBA()
	return []float32{float32(r) / 0xffff, float32(b) / 0xffff, 0.05}, nil
}

func (c *colorEncoder) calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.imageCalls
}

type memCache struct {
	mu     sync.Mutex
	data   map[string][]string
	getErr error
}

func newMemCache() *memCache {
	return &memCache{data: make(map[string][]string)}
}

func (m *memCache) GetRecommendations(_ context.Context, key string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.data[key], nil
}

func (m *memCache) SetRecommendations(_ context.Context, key string, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = ids
	return nil
}

type recordingObjects struct {
	mu       sync.Mutex
	uploads  []*UploadObjectsReq
	cleaned  []string
	uploaded chan struct{}
}

func newRecordingObjects() *recordingObjects {
	return &recordingObjects{uploaded: make(chan struct{}, 16)}
}

func (r *recordingObjects) UploadObjects(_ context.Context, req *UploadObjectsReq) (*UploadObjectsRes, error) {
	r.mu.Lock()
	r.uploads = append(r.uploads, req)
	r.mu.Unlock()
	r.uploaded <- struct{}{}

	keys := make([]string, len(req.Objects))
	for i, o := range req.Objects {
		keys[i] = req.Prefix + "/" + o.Name
	}
	return NewUploadObjectsRes(keys), nil
}

func (r *recordingObjects) UploadInBackground(req *UploadObjectsReq) {
	_, _ = r.UploadObjects(context.Background(), req)
}

func (r *recordingObjects) CleanupObjects(keys []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cleaned = append(r.cleaned, keys...)
}

type publishedEvent struct {
	eventType string
	key       string
}

type recordingEvents struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (r *recordingEvents) Publish(eventType string, key string, _ any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, publishedEvent{eventType: eventType, key: key})
}

func (r *recordingEvents) list() []publishedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]publishedEvent(nil), r.events...)
}

type fakeProductRepo struct {
	mu       sync.Mutex
	synced   [][]domain.Product
	stock    map[string]int64
	syncErr  error
	decCalls int
}

func (f *fakeProductRepo) ListAll(context.Context) ([]domain.Product, error) {
	return nil, nil
}

func (f *fakeProductRepo) UpsertCatalog(_ context.Context, products []domain.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.syncErr != nil {
		return f.syncErr
	}
	f.synced = append(f.synced, products)
	return nil
}

func (f *fakeProductRepo) DecrementStock(_ context.Context, id string, qty int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.decCalls++
	if f.stock[id] < qty {
		return e.ErrInsufficientStock
	}
	f.stock[id] -= qty
	return nil
}

func shoes() []domain.Product {
	return []domain.Product{
		{ID: "1", Name: "Red Running Shoes", Image: "images/1.jpg", Price: 8999, Stock: 5, Category: "Footwear"},
		{ID: "2", Name: "Blue Running Shoes", Image: "images/2.jpg", Price: 9150, Stock: 5, Category: "Footwear"},
		{ID: "3", Name: "Leather Wallet", Image: "images/3.jpg", Price: 3500, Stock: 1, Category: "Accessories"},
	}
}

func shoesColors() *colorEncoder {
	return &colorEncoder{text: map[string][]float32{
		"Red Running Shoes":  {1, 0, 0},
		"Blue Running Shoes": {0, 1, 0},
		"Leather Wallet":     {0, 0, 1},
	}}
}

func pngOf(t *testing.T, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for x := 0; x < 8; x++ {
		for y := 0; y < 8; y++ {
			img.Set(x, y, c)
		}
	}
	data, err := imaging.EncodePNG(img)
	require.NoError(t, err)
	return data
}

func waitUpload(t *testing.T, objects *recordingObjects) {
	t.Helper()
	select {
	case <-objects.uploaded:
	case <-time.After(2 * time.Second):
		t.Fatal("upload was not stored")
	}
}
