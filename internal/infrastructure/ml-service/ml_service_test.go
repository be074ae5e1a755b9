package ml_service

import (
	"context"
	"image"
	"image/color"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DRSN-tech/shop-assistant/pkg/e"
	"github.com/DRSN-tech/shop-assistant/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
)

// fakeEncoder отвечает длиной текста и первым байтом картинки, первые failures вызовов падают.
type fakeEncoder struct {
	calls    atomic.Int32
	failures int32
	failCode codes.Code
	lastReq  atomic.Pointer[structpb.Struct]
}

func (f *fakeEncoder) handle(req *structpb.Struct) (*structpb.Struct, error) {
	f.lastReq.Store(req)
	if n := f.calls.Add(1); n <= f.failures {
		return nil, status.Error(f.failCode, "busy")
	}

	fields := req.GetFields()
	if text, ok := fields["text"]; ok {
		if text.GetStringValue() == "" {
			return structpb.NewStruct(map[string]any{"vector": []any{}})
		}
		return structpb.NewStruct(map[string]any{
			"vector": []any{float64(len(text.GetStringValue())), 1.0},
			"model":  fields["model"].GetStringValue(),
		})
	}

	return structpb.NewStruct(map[string]any{"vector": []any{0.5, 0.25, 0.125}})
}

func unaryHandler(f *fakeEncoder) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(_ any, _ context.Context, dec func(any) error, _ grpc.UnaryServerInterceptor) (any, error) {
		req := &structpb.Struct{}
		if err := dec(req); err != nil {
			return nil, err
		}
		return f.handle(req)
	}
}

func startEncoder(t *testing.T, f *fakeEncoder) *grpc.ClientConn {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	srv.RegisterService(&grpc.ServiceDesc{
		ServiceName: "ml.v1.EncoderService",
		HandlerType: (*any)(nil),
		Methods: []grpc.MethodDesc{
			{MethodName: "EncodeText", Handler: unaryHandler(f)},
			{MethodName: "EncodeImage", Handler: unaryHandler(f)},
		},
	}, struct{}{})

	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return conn
}

func newService(conn *grpc.ClientConn, retries int) *MLService {
	return NewMLService(conn, Options{
		Model:          "clip-ViT-B-32",
		MaxConcurrent:  2,
		MaxRetries:     retries,
		RequestTimeout: time.Second,
	}, logger.NewNopLogger())
}

func TestEncodeText(t *testing.T) {
	f := &fakeEncoder{}
	svc := newService(startEncoder(t, f), 1)

	vec, err := svc.EncodeText(context.Background(), "shoes")
	require.NoError(t, err)
	assert.Equal(t, []float32{5, 1}, vec)
	assert.Equal(t, "clip-ViT-B-32", f.lastReq.Load().GetFields()["model"].GetStringValue())
}

func TestEncodeImageSendsPNG(t *testing.T) {
	f := &fakeEncoder{}
	svc := newService(startEncoder(t, f), 1)

	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})

	vec, err := svc.EncodeImage(context.Background(), img)
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, 0.25, 0.125}, vec)

	fields := f.lastReq.Load().GetFields()
	assert.Equal(t, "image/png", fields["mime_type"].GetStringValue())
	assert.NotEmpty(t, fields["image_b64"].GetStringValue())
}

func TestEncodeRetriesTransientFailures(t *testing.T) {
	f := &fakeEncoder{failures: 2, failCode: codes.Unavailable}
	svc := newService(startEncoder(t, f), 3)

	vec, err := svc.EncodeText(context.Background(), "ab")
	require.NoError(t, err)
	assert.Equal(t, []float32{2, 1}, vec)
	assert.Equal(t, int32(3), f.calls.Load())
}

func TestEncodeGivesUpAsUnavailable(t *testing.T) {
	f := &fakeEncoder{failures: 100, failCode: codes.Unavailable}
	svc := newService(startEncoder(t, f), 2)

	_, err := svc.EncodeText(context.Background(), "ab")
	assert.ErrorIs(t, err, e.ErrEncoderUnavailable)
	assert.Equal(t, int32(2), f.calls.Load())
}

func TestEncodeDoesNotRetryBadRequest(t *testing.T) {
	f := &fakeEncoder{failures: 1, failCode: codes.InvalidArgument}
	svc := newService(startEncoder(t, f), 3)

	_, err := svc.EncodeText(context.Background(), "ab")
	require.Error(t, err)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
	assert.Equal(t, int32(1), f.calls.Load())
}

func TestEncodeRejectsEmptyVector(t *testing.T) {
	svc := newService(startEncoder(t, &fakeEncoder{}), 1)

	_, err := svc.EncodeText(context.Background(), "")
	assert.ErrorIs(t, err, e.ErrEmptyVector)
}

func TestEncodeReleasesSlotDuringBackoff(t *testing.T) {
	f := &fakeEncoder{failures: 1, failCode: codes.Unavailable}
	svc := NewMLService(startEncoder(t, f), Options{
		Model:          "clip-ViT-B-32",
		MaxConcurrent:  1,
		MaxRetries:     2,
		RequestTimeout: time.Second,
	}, logger.NewNopLogger())

	done := make(chan error, 1)
	go func() {
		_, err := svc.EncodeText(context.Background(), "retried")
		done <- err
	}()
	require.Eventually(t, func() bool { return f.calls.Load() == 1 }, time.Second, time.Millisecond)

	// первый вызов ждёт повтора не меньше baseJitter и не должен занимать единственный слот
	ctx, cancel := context.WithTimeout(context.Background(), baseJitter*3/4)
	defer cancel()
	vec, err := svc.EncodeText(ctx, "ok")
	require.NoError(t, err)
	assert.Equal(t, []float32{2, 1}, vec)

	require.NoError(t, <-done)
	assert.Equal(t, int32(3), f.calls.Load())
}
