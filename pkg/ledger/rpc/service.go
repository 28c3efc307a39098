package rpc

import (
	"context"

	"google.golang.org/grpc"
)

const (
	serviceName             = "walletcore.node.v1.Rpc"
	syncStateMethod         = "/" + serviceName + "/SyncState"
	submitTransactionMethod = "/" + serviceName + "/SubmitTransaction"
)

// NodeServer is the server API of a node.
type NodeServer interface {
	SyncState(context.Context, *SyncStateRequest) (*SyncStateResponse, error)
	SubmitTransaction(context.Context, *SubmitTransactionRequest) (*SubmitTransactionResponse, error)
}

// RegisterNodeServer registers srv on s.
func RegisterNodeServer(s grpc.ServiceRegistrar, srv NodeServer) {
	s.RegisterService(&serviceDesc, srv)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*NodeServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "SyncState", Handler: syncStateHandler},
		{MethodName: "SubmitTransaction", Handler: submitTransactionHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "walletcore/node/v1/rpc.json",
}

func syncStateHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(SyncStateRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(NodeServer).SyncState(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: syncStateMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(NodeServer).SyncState(ctx, req.(*SyncStateRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func submitTransactionHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(SubmitTransactionRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(NodeServer).SubmitTransaction(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: submitTransactionMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(NodeServer).SubmitTransaction(ctx, req.(*SubmitTransactionRequest))
	}
	return interceptor(ctx, in, info, handler)
}
