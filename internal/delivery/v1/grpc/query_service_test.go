package grpc

import (
	"context"
	"encoding/base64"
	"net"
	"testing"

	"github.com/DRSN-tech/shop-assistant/internal/cfg"
	"github.com/DRSN-tech/shop-assistant/internal/usecase"
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

type stubCatalog struct {
	usecase.CatalogUC
	recommend   func(req *usecase.RecommendReq) (*usecase.RecommendRes, error)
	visualMatch func(req *usecase.VisualMatchReq) (*usecase.VisualMatchRes, error)
}

func (s *stubCatalog) Recommend(_ context.Context, req *usecase.RecommendReq) (*usecase.RecommendRes, error) {
	return s.recommend(req)
}

func (s *stubCatalog) VisualMatch(_ context.Context, req *usecase.VisualMatchReq) (*usecase.VisualMatchRes, error) {
	return s.visualMatch(req)
}

func startServer(t *testing.T, catalog usecase.CatalogUC) *grpc.ClientConn {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	srv := NewGRPCServer(&cfg.GRPCConfig{Port: "0", NetworkMode: "tcp"}, logger.NewNopLogger())
	srv.RegisterServices(catalog)
	go srv.Serve(lis)
	t.Cleanup(func() { srv.Stop(context.Background()) })

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return conn
}

func invoke(t *testing.T, conn *grpc.ClientConn, method string, fields map[string]any) (*structpb.Struct, error) {
	t.Helper()

	req, err := structpb.NewStruct(fields)
	require.NoError(t, err)

	res := &structpb.Struct{}
	err = conn.Invoke(context.Background(), "/shop.v1.QueryService/"+method, req, res)
	return res, err
}

func TestRecommend(t *testing.T) {
	var got *usecase.RecommendReq
	conn := startServer(t, &stubCatalog{
		recommend: func(req *usecase.RecommendReq) (*usecase.RecommendRes, error) {
			got = req
			return &usecase.RecommendRes{Products: []usecase.ProductInfo{
				{ID: "2", Name: "Trail Running Shoes", Price: 8999, Stock: 4},
			}}, nil
		},
	})

	res, err := invoke(t, conn, "Recommend", map[string]any{"product_id": "1", "k": 3})
	require.NoError(t, err)

	require.NotNil(t, got)
	assert.Equal(t, "1", got.ProductID)
	assert.Equal(t, 3, got.Limit)

	list := res.GetFields()["recommended_products"].GetListValue().GetValues()
	require.Len(t, list, 1)
	product := list[0].GetStructValue().GetFields()
	assert.Equal(t, "2", product["id"].GetStringValue())
	assert.Equal(t, "89.99", product["price"].GetStringValue())
	assert.False(t, res.GetFields()["cached"].GetBoolValue())
}

func TestRecommendErrors(t *testing.T) {
	conn := startServer(t, &stubCatalog{
		recommend: func(req *usecase.RecommendReq) (*usecase.RecommendRes, error) {
			if req.ProductID == "warming-up" {
				return nil, e.Wrap("CatalogUseCase.Recommend", e.ErrNotReady)
			}
			return nil, e.Wrap("CatalogUseCase.Recommend", e.ErrProductNotFound)
		},
	})

	tests := []struct {
		name   string
		fields map[string]any
		code   codes.Code
	}{
		{"missing id", map[string]any{}, codes.InvalidArgument},
		{"fractional k", map[string]any{"product_id": "1", "k": 1.5}, codes.InvalidArgument},
		{"unknown id", map[string]any{"product_id": "nope"}, codes.NotFound},
		{"not ready", map[string]any{"product_id": "warming-up"}, codes.Unavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := invoke(t, conn, "Recommend", tt.fields)
			require.Error(t, err)
			assert.Equal(t, tt.code, status.Code(err))
		})
	}
}

func TestVisualMatch(t *testing.T) {
	var got *usecase.VisualMatchReq
	conn := startServer(t, &stubCatalog{
		visualMatch: func(req *usecase.VisualMatchReq) (*usecase.VisualMatchRes, error) {
			got = req
			return &usecase.VisualMatchRes{
				Product: usecase.ProductInfo{ID: "1", Name: "Running Shoes", Price: 12000},
				Score:   0.5,
			}, nil
		},
	})

	res, err := invoke(t, conn, "VisualMatch", map[string]any{
		"image_b64": base64.StdEncoding.EncodeToString([]byte("png-bytes")),
		"mime_type": "image/png",
	})
	require.NoError(t, err)

	require.NotNil(t, got)
	assert.Equal(t, []byte("png-bytes"), got.Data)
	assert.Equal(t, "image/png", got.MimeType)
	assert.Equal(t, "1", res.GetFields()["match"].GetStructValue().GetFields()["id"].GetStringValue())
	assert.InDelta(t, 0.5, res.GetFields()["score"].GetNumberValue(), 1e-9)
}

func TestVisualMatchErrors(t *testing.T) {
	conn := startServer(t, &stubCatalog{
		visualMatch: func(req *usecase.VisualMatchReq) (*usecase.VisualMatchRes, error) {
			return nil, e.Wrap("CatalogUseCase.VisualMatch", e.ErrNoVisualMatch)
		},
	})

	_, err := invoke(t, conn, "VisualMatch", map[string]any{})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = invoke(t, conn, "VisualMatch", map[string]any{"image_b64": "%%%"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = invoke(t, conn, "VisualMatch", map[string]any{"image_b64": base64.StdEncoding.EncodeToString([]byte("x"))})
	assert.Equal(t, codes.NotFound, status.Code(err))
	assert.Equal(t, e.ErrNoVisualMatch.Error(), status.Convert(err).Message())
}
