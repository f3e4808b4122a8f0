package handler

import (
	"context"

	"google.golang.org/grpc"
)

const ledgerInvokeMethod = "/bloodbank.Ledger/Invoke"

type InvokeRequest struct {
	Function string   `json:"function"`
	Args     []string `json:"args"`
}

func (r *InvokeRequest) GetFunction() string {
	if r == nil {
		return ""
	}
	return r.Function
}

type InvokeResponse struct {
	Payload string `json:"payload"`
}

// LedgerServer is the server API for the bloodbank.Ledger service.
type LedgerServer interface {
	Invoke(context.Context, *InvokeRequest) (*InvokeResponse, error)
}

func RegisterLedgerServer(s grpc.ServiceRegistrar, srv LedgerServer) {
	s.RegisterService(&ledgerServiceDesc, srv)
}

func _Ledger_Invoke_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(InvokeRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(LedgerServer).Invoke(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: ledgerInvokeMethod,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(LedgerServer).Invoke(ctx, req.(*InvokeRequest))
	}
	return interceptor(ctx, in, info, handler)
}

var ledgerServiceDesc = grpc.ServiceDesc{
	ServiceName: "bloodbank.Ledger",
	HandlerType: (*LedgerServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Invoke",
			Handler:    _Ledger_Invoke_Handler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "bloodbank/ledger",
}

// LedgerClient is the client API for the bloodbank.Ledger service.
type LedgerClient struct {
	cc grpc.ClientConnInterface
}

func NewLedgerClient(cc grpc.ClientConnInterface) *LedgerClient {
	return &LedgerClient{cc: cc}
}

func (c *LedgerClient) Invoke(ctx context.Context, in *InvokeRequest, opts ...grpc.CallOption) (*InvokeResponse, error) {
	out := new(InvokeResponse)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(jsonCodec{}.Name())}, opts...)
	if err := c.cc.Invoke(ctx, ledgerInvokeMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
