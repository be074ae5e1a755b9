package grpc

import (
	"errors"

	"github.com/DRSN-tech/shop-assistant/pkg/e"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// GRPCErrorResponse сопоставляет доменную ошибку с gRPC-статусом.
func GRPCErrorResponse(err error) error {
	switch {
	case errors.Is(err, e.ErrNotReady),
		errors.Is(err, e.ErrEmbeddingUnavailable),
		errors.Is(err, e.ErrEncoderUnavailable):
		return status.Error(codes.Unavailable, rootMessage(err))
	case errors.Is(err, e.ErrProductNotFound),
		errors.Is(err, e.ErrNoVisualMatch):
		return status.Error(codes.NotFound, rootMessage(err))
	case errors.Is(err, e.ErrStatusBadRequest),
		errors.Is(err, e.ErrMissingFields),
		errors.Is(err, e.ErrInvalidImage),
		errors.Is(err, e.ErrNoImage),
		errors.Is(err, e.ErrInvalidLimit):
		return status.Error(codes.InvalidArgument, rootMessage(err))
	case errors.Is(err, e.ErrFileTooLarge):
		return status.Error(codes.ResourceExhausted, e.ErrFileTooLarge.Error())
	default:
		return status.Error(codes.Internal, e.ErrInternalServerError.Error())
	}
}

var clientErrors = []error{
	e.ErrNotReady,
	e.ErrEmbeddingUnavailable,
	e.ErrEncoderUnavailable,
	e.ErrProductNotFound,
	e.ErrNoVisualMatch,
	e.ErrStatusBadRequest,
	e.ErrMissingFields,
	e.ErrInvalidImage,
	e.ErrNoImage,
	e.ErrInvalidLimit,
}

// rootMessage возвращает текст sentinel-ошибки без внутреннего контекста обёрток.
func rootMessage(err error) string {
	for _, s := range clientErrors {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return e.ErrInternalServerError.Error()
}

func stringField(req *structpb.Struct, name string) string {
	return req.GetFields()[name].GetStringValue()
}

// intField читает целое из числового поля. Дробные и отрицательные значения отклоняются.
func intField(req *structpb.Struct, name string) (int, error) {
	v, ok := req.GetFields()[name]
	if !ok {
		return 0, nil
	}
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok || n.NumberValue < 0 || n.NumberValue != float64(int(n.NumberValue)) {
		return 0, e.Wrapf(e.ErrInvalidLimit, "%s", name)
	}
	return int(n.NumberValue), nil
}
