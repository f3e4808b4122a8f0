package handler

import (
	"context"
	"time"

	"github.com/bitmark-inc/logger"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/rl1809/blood-bank/internal/core/domain"
)

type GRPCHandler struct {
	ledger Invoker
}

func NewGRPCHandler(ledger Invoker) *GRPCHandler {
	return &GRPCHandler{ledger: ledger}
}

func (h *GRPCHandler) Invoke(ctx context.Context, req *InvokeRequest) (*InvokeResponse, error) {
	if req.GetFunction() == "" {
		return nil, status.Error(codes.InvalidArgument, "missing function")
	}

	payload, err := h.ledger.Invoke(ctx, req.Function, req.Args)
	if err != nil {
		return nil, status.Error(grpcCode(err), err.Error())
	}

	return &InvokeResponse{Payload: string(payload)}, nil
}

func grpcCode(err error) codes.Code {
	switch domain.KindOf(err) {
	case domain.KindValidation:
		return codes.InvalidArgument
	case domain.KindNotFound:
		return codes.NotFound
	case domain.KindConflict:
		return codes.FailedPrecondition
	default:
		return codes.Unavailable
	}
}

// LoggingInterceptor logs every unary call with its status code and latency.
func LoggingInterceptor(log *logger.L) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		code := status.Code(err)
		if code == codes.OK {
			log.Debugf("%s %s in %s", info.FullMethod, code, time.Since(start))
		} else {
			log.Warnf("%s %s in %s: %s", info.FullMethod, code, time.Since(start), status.Convert(err).Message())
		}
		return resp, err
	}
}
