package grpc

import (
	"context"
	"encoding/base64"

	"github.com/DRSN-tech/shop-assistant/internal/usecase"
	"github.com/DRSN-tech/shop-assistant/pkg/e"
	"github.com/DRSN-tech/shop-assistant/pkg/logger"
	"github.com/DRSN-tech/shop-assistant/pkg/money"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const queryServiceName = "shop.v1.QueryService"

// QueryServer описывает методы shop.v1.QueryService. Сообщения передаются как structpb.Struct.
type QueryServer interface {
	Recommend(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	VisualMatch(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// QueryServiceDesc — описание сервиса без сгенерированного кода.
var QueryServiceDesc = grpc.ServiceDesc{
	ServiceName: queryServiceName,
	HandlerType: (*QueryServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Recommend", Handler: queryHandler(QueryServer.Recommend, "Recommend")},
		{MethodName: "VisualMatch", Handler: queryHandler(QueryServer.VisualMatch, "VisualMatch")},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "shop/v1/query.proto",
}

func queryHandler(
	call func(QueryServer, context.Context, *structpb.Struct) (*structpb.Struct, error),
	method string,
) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		req := &structpb.Struct{}
		if err := dec(req); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(QueryServer), ctx, req)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: "/" + queryServiceName + "/" + method,
		}
		return interceptor(ctx, req, info, func(ctx context.Context, req any) (any, error) {
			return call(srv.(QueryServer), ctx, req.(*structpb.Struct))
		})
	}
}

type QueryService struct {
	catalogUC usecase.CatalogUC
	logger    logger.Logger
}

func NewQueryService(catalogUC usecase.CatalogUC, logger logger.Logger) *QueryService {
	return &QueryService{catalogUC: catalogUC, logger: logger}
}

// Recommend принимает {product_id, k} и отвечает {recommended_products, cached}.
func (g *QueryService) Recommend(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	const op = "grpc.Recommend"

	productID := stringField(req, "product_id")
	if productID == "" {
		return nil, GRPCErrorResponse(e.Wrap(op, e.ErrMissingFields))
	}
	k, err := intField(req, "k")
	if err != nil {
		return nil, GRPCErrorResponse(e.Wrap(op, err))
	}

	res, err := g.catalogUC.Recommend(ctx, usecase.NewRecommendReq(productID, k))
	if err != nil {
		g.logger.Warnf("%s: %v", op, err)
		return nil, GRPCErrorResponse(e.Wrap(op, err))
	}

	products := make([]any, len(res.Products))
	for i, p := range res.Products {
		products[i] = toGRPCProduct(p)
	}

	out, err := structpb.NewStruct(map[string]any{
		"recommended_products": products,
		"cached":               res.Cached,
	})
	if err != nil {
		g.logger.Errorf(e.Wrap(op, err), "%s", op)
		return nil, GRPCErrorResponse(e.Wrap(op, err))
	}

	return out, nil
}

// VisualMatch принимает {image_b64, mime_type, name} и отвечает {match, score}.
func (g *QueryService) VisualMatch(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	const op = "grpc.VisualMatch"

	raw := stringField(req, "image_b64")
	if raw == "" {
		return nil, GRPCErrorResponse(e.Wrap(op, e.ErrNoImage))
	}
	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, GRPCErrorResponse(e.Wrap(op, e.ErrInvalidImage))
	}

	res, err := g.catalogUC.VisualMatch(ctx, usecase.NewVisualMatchReq(data, stringField(req, "mime_type"), stringField(req, "name")))
	if err != nil {
		g.logger.Warnf("%s: %v", op, err)
		return nil, GRPCErrorResponse(e.Wrap(op, err))
	}

	out, err := structpb.NewStruct(map[string]any{
		"match": toGRPCProduct(res.Product),
		"score": res.Score,
	})
	if err != nil {
		g.logger.Errorf(e.Wrap(op, err), "%s", op)
		return nil, GRPCErrorResponse(e.Wrap(op, err))
	}

	return out, nil
}

func toGRPCProduct(p usecase.ProductInfo) map[string]any {
	return map[string]any{
		"id":       p.ID,
		"name":     p.Name,
		"image":    p.Image,
		"price":    money.Format(p.Price),
		"stock":    float64(p.Stock),
		"category": p.Category,
	}
}
